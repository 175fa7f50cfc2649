package ratelimit

import (
	"context"
	"time"
)

// Limit is a fixed-window cap: at most Count events per Window.
type Limit struct {
	Count  int
	Window time.Duration
}

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter provides rate limit checks.
type Limiter interface {
	Allow(ctx context.Context, key string, limit Limit, now time.Time) (Result, error)
}

// windowIndex buckets now into the fixed window for the limit.
func windowIndex(now time.Time, window time.Duration) int64 {
	secs := int64(window / time.Second)
	if secs <= 0 {
		secs = 1
	}
	return now.Unix() / secs
}

// windowReset returns when the current window for now rolls over.
func windowReset(now time.Time, window time.Duration) time.Time {
	secs := int64(window / time.Second)
	if secs <= 0 {
		secs = 1
	}
	return time.Unix((now.Unix()/secs+1)*secs, 0).UTC()
}
