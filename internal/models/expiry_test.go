package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiryDecodeShapes(t *testing.T) {
	want := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

	cases := map[string]string{
		"rfc3339":      `"2026-03-01T12:30:00Z"`,
		"seconds obj":  `{"_seconds":1772368200,"_nanoseconds":0}`,
		"epoch millis": `1772368200000`,
		"epoch secs":   `1772368200`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var e Expiry
			require.NoError(t, json.Unmarshal([]byte(raw), &e))
			assert.False(t, e.Custom)
			assert.True(t, e.Time.Equal(want), "got %v", e.Time)
		})
	}
}

func TestExpiryCustomSentinel(t *testing.T) {
	var e Expiry
	require.NoError(t, json.Unmarshal([]byte(`"custom"`), &e))
	assert.True(t, e.Custom)
	assert.False(t, e.Expired(time.Now().Add(100*365*24*time.Hour)))

	encoded, errMarshal := json.Marshal(e)
	require.NoError(t, errMarshal)
	assert.Equal(t, `"custom"`, string(encoded))
}

func TestExpiryRoundTrip(t *testing.T) {
	at := time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC)
	encoded, errMarshal := json.Marshal(ExpiryAt(at))
	require.NoError(t, errMarshal)

	var decoded Expiry
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.True(t, decoded.Time.Equal(at))
}

func TestExpiryExpired(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, ExpiryAt(now.Add(-time.Second)).Expired(now))
	assert.False(t, ExpiryAt(now).Expired(now))
	assert.False(t, ExpiryAt(now.Add(time.Second)).Expired(now))
	assert.False(t, ExpiryNever().Expired(now))
	assert.False(t, Expiry{}.Expired(now))
}

func TestExpiryDecodeInvalid(t *testing.T) {
	var e Expiry
	assert.Error(t, json.Unmarshal([]byte(`"not a date"`), &e))

	require.NoError(t, json.Unmarshal([]byte(`null`), &e))
	_, ok := e.Timestamp()
	assert.False(t, ok)
}

func TestCountDecodeShapes(t *testing.T) {
	var c Count
	require.NoError(t, json.Unmarshal([]byte(`3`), &c))
	n, ok := c.Value()
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	require.NoError(t, json.Unmarshal([]byte(`"12"`), &c))
	n, ok = c.Value()
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	require.NoError(t, json.Unmarshal([]byte(`"custom"`), &c))
	_, ok = c.Value()
	assert.False(t, ok)
	assert.True(t, c.Custom)
}

func TestCountEncode(t *testing.T) {
	encoded, errMarshal := json.Marshal(CountOf(6))
	require.NoError(t, errMarshal)
	assert.Equal(t, `6`, string(encoded))

	encoded, errMarshal = json.Marshal(CountCustom())
	require.NoError(t, errMarshal)
	assert.Equal(t, `"custom"`, string(encoded))
}
