package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Vrisan-Services/B2b-Server/internal/timeutil"
)

// customSentinel is the literal stored for plans that never expire.
const customSentinel = "custom"

// Expiry is a timestamp that may instead be the "custom" sentinel, meaning
// the plan never expires. Stored records carry expiry values in several
// shapes (RFC3339 string, {"_seconds": N} object, epoch number); decoding
// normalizes all of them here so the sniffing never reaches business logic.
type Expiry struct {
	Custom bool      // Never-expires sentinel.
	Time   time.Time // Concrete expiry instant, UTC. Zero when Custom.
}

// ExpiryAt returns a concrete expiry.
func ExpiryAt(t time.Time) Expiry {
	return Expiry{Time: t.UTC()}
}

// ExpiryNever returns the never-expires sentinel.
func ExpiryNever() Expiry {
	return Expiry{Custom: true}
}

// Expired reports whether the expiry has passed at the given instant.
// The custom sentinel never expires.
func (e Expiry) Expired(now time.Time) bool {
	if e.Custom || e.Time.IsZero() {
		return false
	}
	return e.Time.Before(now.UTC())
}

// Timestamp returns the concrete expiry time and whether one exists.
func (e Expiry) Timestamp() (time.Time, bool) {
	if e.Custom || e.Time.IsZero() {
		return time.Time{}, false
	}
	return e.Time, true
}

// MarshalJSON encodes the expiry as either the sentinel or an RFC3339 string.
func (e Expiry) MarshalJSON() ([]byte, error) {
	if e.Custom {
		return json.Marshal(customSentinel)
	}
	return json.Marshal(e.Time.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON decodes any of the supported expiry shapes.
func (e *Expiry) UnmarshalJSON(raw []byte) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" || trimmed == `""` {
		*e = Expiry{}
		return nil
	}
	if trimmed == `"`+customSentinel+`"` {
		*e = ExpiryNever()
		return nil
	}
	t, errParse := timeutil.ParseFlexible(raw)
	if errParse != nil {
		return fmt.Errorf("models: decode expiry: %w", errParse)
	}
	*e = ExpiryAt(t)
	return nil
}

// String renders the expiry for logs.
func (e Expiry) String() string {
	if e.Custom {
		return customSentinel
	}
	return e.Time.UTC().Format(time.RFC3339)
}
