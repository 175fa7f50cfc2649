package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Count is an integer quota value that may instead be the "custom" sentinel
// for enterprise plans negotiated out-of-band.
type Count struct {
	Custom bool // Sentinel: no fixed numeric value.
	N      int  // Numeric value. Meaningless when Custom.
}

// CountOf returns a numeric count.
func CountOf(n int) Count {
	return Count{N: n}
}

// CountCustom returns the custom sentinel.
func CountCustom() Count {
	return Count{Custom: true}
}

// Value returns the numeric value and whether one exists.
func (c Count) Value() (int, bool) {
	if c.Custom {
		return 0, false
	}
	return c.N, true
}

// MarshalJSON encodes the count as a number or the sentinel string.
func (c Count) MarshalJSON() ([]byte, error) {
	if c.Custom {
		return json.Marshal(customSentinel)
	}
	return json.Marshal(c.N)
}

// UnmarshalJSON decodes a number, a numeric string, or the sentinel.
func (c *Count) UnmarshalJSON(raw []byte) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		*c = Count{}
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if errUnmarshal := json.Unmarshal(raw, &s); errUnmarshal != nil {
			return errUnmarshal
		}
		if strings.EqualFold(strings.TrimSpace(s), customSentinel) {
			*c = CountCustom()
			return nil
		}
		n, errParse := strconv.Atoi(strings.TrimSpace(s))
		if errParse != nil {
			return errParse
		}
		*c = CountOf(n)
		return nil
	}
	var n int
	if errUnmarshal := json.Unmarshal(raw, &n); errUnmarshal != nil {
		return errUnmarshal
	}
	*c = CountOf(n)
	return nil
}

// String renders the count for messages.
func (c Count) String() string {
	if c.Custom {
		return customSentinel
	}
	return strconv.Itoa(c.N)
}
