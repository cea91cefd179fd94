package ratelimit

import (
	"fmt"
	"time"
)

// TimeBasedLimiter implements RateLimiter by comparing the age of the
// newest backup against a fixed interval.
type TimeBasedLimiter struct {
	config Config
}

// NewTimeBasedLimiter creates a new time-based rate limiter.
func NewTimeBasedLimiter(config Config) *TimeBasedLimiter {
	return &TimeBasedLimiter{
		config: config,
	}
}

// ShouldRun implements RateLimiter.
func (t *TimeBasedLimiter) ShouldRun(lastBackup, now time.Time) (bool, string) {
	if t.config.Force {
		return true, "forced run requested"
	}

	if t.config.MinInterval <= 0 {
		return true, "no minimum interval configured"
	}

	if lastBackup.IsZero() {
		return true, "no previous backup found"
	}

	sinceLast := now.Sub(lastBackup)
	if sinceLast < t.config.MinInterval {
		untilNext := t.config.MinInterval - sinceLast
		return false, fmt.Sprintf(
			"last backup was %s ago, next run allowed in %s",
			formatDuration(sinceLast),
			formatDuration(untilNext),
		)
	}

	return true, fmt.Sprintf("last backup was %s ago", formatDuration(sinceLast))
}

// MinInterval implements RateLimiter.
func (t *TimeBasedLimiter) MinInterval() time.Duration {
	return t.config.MinInterval
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0f seconds", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0f minutes", d.Minutes())
	}
	return fmt.Sprintf("%.1f hours", d.Hours())
}
