// Package schedule decides which backup tiers are due and, in daemon mode,
// drives recurring runs.
package schedule

import "time"

// Tier identifies a retention class.
type Tier int

const (
	TierDaily Tier = iota
	TierWeekly
	TierMonthly
)

func (t Tier) String() string {
	switch t {
	case TierDaily:
		return "daily"
	case TierWeekly:
		return "weekly"
	case TierMonthly:
		return "monthly"
	default:
		return "unknown"
	}
}

// Prefix is the tier's storage location under the tiered layout. Daily
// backups live at the destination root.
func (t Tier) Prefix() string {
	switch t {
	case TierWeekly:
		return "weekly/"
	case TierMonthly:
		return "monthly/"
	default:
		return ""
	}
}

// AllTiers lists every tier, finest first.
func AllTiers() []Tier {
	return []Tier{TierDaily, TierWeekly, TierMonthly}
}

// ActiveTiers reports the tiers that receive an upload at now. Daily is
// always active, weekly on the configured weekday, monthly on the
// configured day of month.
func ActiveTiers(now time.Time, weeklyDay time.Weekday, monthlyDay int) []Tier {
	tiers := []Tier{TierDaily}
	if now.Weekday() == weeklyDay {
		tiers = append(tiers, TierWeekly)
	}
	if now.Day() == monthlyDay {
		tiers = append(tiers, TierMonthly)
	}
	return tiers
}
