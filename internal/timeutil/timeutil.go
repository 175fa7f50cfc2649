package timeutil

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// stringLayouts are tried in order when a timestamp arrives as a string.
var stringLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006",
}

// secondsObject matches serialized timestamp objects of the form
// {"_seconds": 1700000000, "_nanoseconds": 0}.
type secondsObject struct {
	Seconds     *int64 `json:"_seconds"`
	Nanoseconds int64  `json:"_nanoseconds"`
}

// ParseFlexible decodes a timestamp that may arrive in any of the shapes
// stored records carry: an RFC3339-style string, an epoch number (seconds
// or milliseconds), or a {"_seconds": N} object. The result is always UTC.
func ParseFlexible(raw []byte) (time.Time, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return time.Time{}, fmt.Errorf("timeutil: empty timestamp")
	}

	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if errUnmarshal := json.Unmarshal(raw, &s); errUnmarshal != nil {
			return time.Time{}, fmt.Errorf("timeutil: parse string timestamp: %w", errUnmarshal)
		}
		return ParseString(s)
	}

	if strings.HasPrefix(trimmed, "{") {
		var obj secondsObject
		if errUnmarshal := json.Unmarshal(raw, &obj); errUnmarshal != nil {
			return time.Time{}, fmt.Errorf("timeutil: parse timestamp object: %w", errUnmarshal)
		}
		if obj.Seconds == nil {
			return time.Time{}, fmt.Errorf("timeutil: timestamp object missing _seconds")
		}
		return time.Unix(*obj.Seconds, obj.Nanoseconds).UTC(), nil
	}

	var n float64
	if errUnmarshal := json.Unmarshal(raw, &n); errUnmarshal != nil {
		return time.Time{}, fmt.Errorf("timeutil: unsupported timestamp shape: %s", trimmed)
	}
	return fromEpoch(n), nil
}

// ParseString parses a timestamp string using the known layouts.
func ParseString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("timeutil: empty timestamp string")
	}
	for _, layout := range stringLayouts {
		if t, errParse := time.Parse(layout, s); errParse == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("timeutil: unrecognized timestamp %q", s)
}

// epochMillisThreshold separates second-resolution from millisecond-resolution
// epoch values. Anything above it is treated as milliseconds.
const epochMillisThreshold = 1e12

func fromEpoch(n float64) time.Time {
	if math.Abs(n) >= epochMillisThreshold {
		return time.UnixMilli(int64(n)).UTC()
	}
	sec, frac := math.Modf(n)
	return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC()
}

// StartOfMonth returns midnight UTC on the first day of t's calendar month.
func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthKey returns the YYYY-MM key for t's calendar month.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// NextDailyRun returns the next occurrence of the given UTC wall-clock hour
// strictly after now. If the hour has already passed today, the run lands
// tomorrow.
func NextDailyRun(now time.Time, hour int) time.Time {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
