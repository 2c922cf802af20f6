// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backoff provides the exponential delay schedule and cancellable
// timer used when a search is rate limited.
package backoff

import (
	"context"
	"math"
	"time"
)

const (
	// DefaultBaseDelay is the first backoff delay.
	DefaultBaseDelay = 2 * time.Second

	// DefaultMaxRetries is the total number of attempts.
	DefaultMaxRetries = 3
)

// Policy bounds a retry loop. MaxRetries counts attempts, not retries:
// with the defaults a search is tried three times, waiting 2 s then 4 s.
type Policy struct {
	BaseDelay  time.Duration
	MaxRetries int
}

// Normalize fills zero or negative fields with the defaults.
func (p Policy) Normalize() Policy {
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.MaxRetries <= 0 {
		p.MaxRetries = DefaultMaxRetries
	}
	return p
}

// Delay returns the wait after attempt n (zero-based): BaseDelay * 2^n.
func (p Policy) Delay(n int) time.Duration {
	return time.Duration(math.Pow(2, float64(n))) * p.BaseDelay
}

// CanRetry reports whether another attempt is allowed after attempt n.
func (p Policy) CanRetry(n int) bool {
	return n < p.MaxRetries-1
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep blocks for d. If the context is cancelled first it returns ctx.Err().
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
