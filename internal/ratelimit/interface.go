// Package ratelimit guards against back-to-back backup runs.
package ratelimit

import (
	"time"
)

// RateLimiter decides whether a backup run may start.
type RateLimiter interface {
	// ShouldRun reports whether a run may start given the newest stored
	// backup time. The string return value contains a human-readable
	// reason for the decision.
	ShouldRun(lastBackup, now time.Time) (bool, string)

	// MinInterval returns the minimum time between runs.
	MinInterval() time.Duration
}

// Config holds configuration for rate limiting.
type Config struct {
	// MinInterval is the minimum time between runs. Zero disables the
	// guard.
	MinInterval time.Duration

	// Force overrides rate limiting when true.
	Force bool
}
