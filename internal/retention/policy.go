package retention

import (
	"fmt"
	"time"
)

// Action is the fate of a single object.
type Action string

const (
	// ActionKeep leaves the object in place.
	ActionKeep Action = "keep"
	// ActionDelete marks the object for removal.
	ActionDelete Action = "delete"
	// ActionSkip marks an object whose key carries no date. Skipped
	// objects are never deleted.
	ActionSkip Action = "skip"
)

// Unit selects how an AgePolicy measures age.
type Unit int

const (
	// Days measures age in whole days since the object's date.
	Days Unit = iota
	// Months measures age in calendar months, ignoring day-of-month.
	Months
)

func (u Unit) String() string {
	switch u {
	case Days:
		return "days"
	case Months:
		return "months"
	default:
		return "unknown"
	}
}

// Decision records the fate of one object, its computed age in the policy's
// unit, and a short human-readable reason.
type Decision struct {
	Key    string
	Action Action
	Age    int
	Reason string
}

// Policy classifies a full tier listing at a given instant. Implementations
// must be deterministic: the same objects and the same now always produce
// the same decisions.
type Policy interface {
	Evaluate(objects []Object, now time.Time) []Decision
}

// AgePolicy deletes every object whose age meets or exceeds MaxAge. It is
// used when each tier lives in its own storage prefix, so the upload step
// already guarantees at most one object per calendar bucket and no
// cross-object collapsing is needed. Decisions are independent per object;
// listing order does not affect the outcome.
type AgePolicy struct {
	MaxAge int
	Unit   Unit
}

// Evaluate implements Policy. The boundary is inclusive: age == MaxAge is
// deleted.
func (p AgePolicy) Evaluate(objects []Object, now time.Time) []Decision {
	decisions := make([]Decision, 0, len(objects))
	for _, obj := range objects {
		if !obj.Parsed {
			decisions = append(decisions, skipDecision(obj))
			continue
		}
		age := p.age(obj.Date, now)
		if age >= p.MaxAge {
			decisions = append(decisions, Decision{
				Key:    obj.Key,
				Action: ActionDelete,
				Age:    age,
				Reason: fmt.Sprintf("at least %d %s old", p.MaxAge, p.Unit),
			})
			continue
		}
		decisions = append(decisions, Decision{
			Key:    obj.Key,
			Action: ActionKeep,
			Age:    age,
			Reason: fmt.Sprintf("younger than %d %s", p.MaxAge, p.Unit),
		})
	}
	return decisions
}

func (p AgePolicy) age(date, now time.Time) int {
	if p.Unit == Months {
		return AgeMonths(date, now)
	}
	return AgeDays(date, now)
}

// CollapsePolicy prunes a single flat prefix that accumulates one or more
// objects per day. Objects inside the keep-all window survive untouched; as
// they age past it, exactly one survivor is kept per ISO week, then per
// calendar month, and everything beyond the monthly window is deleted.
//
// Traversal order is a hard precondition: the newest object in a bucket must
// be visited first so that it claims the bucket's slot. Evaluate sorts a
// copy of its input newest-first (date descending, key descending on ties)
// rather than trusting the caller's listing order.
type CollapsePolicy struct {
	// KeepAllDays is the daily retention window: objects at most this
	// many days old are always kept.
	KeepAllDays int
	// WeeklyDays bounds the one-per-ISO-week window.
	WeeklyDays int
	// MonthlyDays bounds the one-per-calendar-month window; older objects
	// are deleted unconditionally.
	MonthlyDays int
}

// DefaultCollapsePolicy returns the historical windows: keep everything for
// 7 days, one per week through 28 days, one per month through 180 days.
func DefaultCollapsePolicy() CollapsePolicy {
	return CollapsePolicy{KeepAllDays: 7, WeeklyDays: 28, MonthlyDays: 180}
}

// Evaluate implements Policy. The kept-bucket maps are locals constructed
// fresh on every call; nothing is shared across runs or tiers. Decisions are
// returned in newest-first order.
func (p CollapsePolicy) Evaluate(objects []Object, now time.Time) []Decision {
	ordered := make([]Object, len(objects))
	copy(ordered, objects)
	SortNewestFirst(ordered)

	weeklyKept := make(map[string]bool)
	monthlyKept := make(map[string]bool)

	decisions := make([]Decision, 0, len(ordered))
	for _, obj := range ordered {
		if !obj.Parsed {
			decisions = append(decisions, skipDecision(obj))
			continue
		}
		age := AgeDays(obj.Date, now)
		switch {
		case age <= p.KeepAllDays:
			decisions = append(decisions, Decision{
				Key:    obj.Key,
				Action: ActionKeep,
				Age:    age,
				Reason: fmt.Sprintf("within %d-day window", p.KeepAllDays),
			})
		case age <= p.WeeklyDays:
			decisions = append(decisions, bucketDecision(obj, age, weekKey(obj.Date), "week", weeklyKept))
		case age <= p.MonthlyDays:
			decisions = append(decisions, bucketDecision(obj, age, monthKey(obj.Date), "month", monthlyKept))
		default:
			decisions = append(decisions, Decision{
				Key:    obj.Key,
				Action: ActionDelete,
				Age:    age,
				Reason: fmt.Sprintf("older than %d days", p.MonthlyDays),
			})
		}
	}
	return decisions
}

// bucketDecision keeps the first object seen for a bucket and deletes the
// rest. With newest-first traversal the first object is the most recent one
// in the bucket.
func bucketDecision(obj Object, age int, key, bucket string, kept map[string]bool) Decision {
	if kept[key] {
		return Decision{
			Key:    obj.Key,
			Action: ActionDelete,
			Age:    age,
			Reason: fmt.Sprintf("%s %s already has a newer backup", bucket, key),
		}
	}
	kept[key] = true
	return Decision{
		Key:    obj.Key,
		Action: ActionKeep,
		Age:    age,
		Reason: fmt.Sprintf("newest in %s %s", bucket, key),
	}
}

func skipDecision(obj Object) Decision {
	return Decision{Key: obj.Key, Action: ActionSkip, Reason: "no date in name"}
}

// weekKey buckets a date by ISO year and week.
func weekKey(d time.Time) string {
	year, week := d.ISOWeek()
	return fmt.Sprintf("%d-%02d", year, week)
}

// monthKey buckets a date by calendar year and month.
func monthKey(d time.Time) string {
	return d.Format("2006-01")
}
