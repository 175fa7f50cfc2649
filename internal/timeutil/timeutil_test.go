package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlexibleStrings(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{`"2026-03-01T12:30:00Z"`, time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)},
		{`"2026-03-01"`, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{`"2026-03-01 12:30:00"`, time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, errParse := ParseFlexible([]byte(tc.raw))
		require.NoError(t, errParse, tc.raw)
		assert.True(t, got.Equal(tc.want), "raw %s: got %v", tc.raw, got)
	}
}

func TestParseFlexibleFirestoreObject(t *testing.T) {
	got, errParse := ParseFlexible([]byte(`{"_seconds":1772368200,"_nanoseconds":500000000}`))
	require.NoError(t, errParse)
	want := time.Date(2026, 3, 1, 12, 30, 0, 500000000, time.UTC)
	assert.True(t, got.Equal(want), "got %v", got)
}

func TestParseFlexibleEpochThreshold(t *testing.T) {
	secs, errParse := ParseFlexible([]byte(`1772368200`))
	require.NoError(t, errParse)
	assert.Equal(t, 2026, secs.Year())

	millis, errParse := ParseFlexible([]byte(`1772368200000`))
	require.NoError(t, errParse)
	assert.True(t, millis.Equal(secs))
}

func TestParseFlexibleRejectsGarbage(t *testing.T) {
	_, errParse := ParseFlexible([]byte(`"soon"`))
	assert.Error(t, errParse)
	_, errParse = ParseFlexible([]byte(`{}`))
	assert.Error(t, errParse)
}

func TestStartOfMonthAndKey(t *testing.T) {
	at := time.Date(2026, 6, 17, 23, 45, 1, 0, time.UTC)
	start := StartOfMonth(at)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, "2026-06", MonthKey(at))
}

func TestNextDailyRun(t *testing.T) {
	// Before the hour: same day.
	now := time.Date(2026, 6, 17, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 6, 17, 2, 0, 0, 0, time.UTC), NextDailyRun(now, 2))

	// At or past the hour: next day.
	now = time.Date(2026, 6, 17, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 6, 18, 2, 0, 0, 0, time.UTC), NextDailyRun(now, 2))

	now = time.Date(2026, 6, 17, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 6, 18, 2, 0, 0, 0, time.UTC), NextDailyRun(now, 2))
}
