// Package retention decides which backup objects to keep and which to
// delete. It is a pure library: it performs no I/O, holds no state between
// invocations, and produces identical decisions for identical inputs.
package retention

import (
	"regexp"
	"sort"
	"time"
)

// datePattern matches the backup date embedded in an object key. The first
// occurrence wins; keys without a match are unparseable and never deleted.
var datePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// Object is a single entry from a tier listing together with the backup date
// parsed out of its key.
type Object struct {
	Key    string
	Date   time.Time
	Parsed bool
}

// ExtractDate scans key for the first YYYY-MM-DD substring and returns it as
// a calendar date. The second return is false when no valid date is present;
// that is not an error, such objects are skipped by every policy.
func ExtractDate(key string) (time.Time, bool) {
	match := datePattern.FindString(key)
	if match == "" {
		return time.Time{}, false
	}
	d, err := time.Parse("2006-01-02", match)
	if err != nil {
		// First match is authoritative even when it is not a real
		// calendar date (e.g. month 99); the object stays unparseable.
		return time.Time{}, false
	}
	return d, true
}

// AgeDays returns the age of date relative to now in whole days, rounded
// down. The date is anchored at midnight in now's timezone so listings are
// compared in whichever zone the caller supplies. Future dates yield a zero
// or negative age, which classifies as keep under any positive threshold.
func AgeDays(date, now time.Time) int {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, now.Location())
	return int((now.Unix() - midnight.Unix()) / 86400)
}

// AgeMonths returns the calendar-month difference between date and now.
// Day-of-month is ignored entirely: an object dated Jan 31 is already one
// month old on Feb 1. The monthly tier only needs month buckets, so this
// coarse granularity is deliberate.
func AgeMonths(date, now time.Time) int {
	return (now.Year()*12 + int(now.Month())) - (date.Year()*12 + int(date.Month()))
}

// Classify parses every key in a listing into an Object, preserving the
// listing order.
func Classify(keys []string) []Object {
	objects := make([]Object, 0, len(keys))
	for _, key := range keys {
		date, ok := ExtractDate(key)
		objects = append(objects, Object{Key: key, Date: date, Parsed: ok})
	}
	return objects
}

// SortNewestFirst orders objects by parsed date descending, breaking date
// ties by key descending so keys that embed a time after the date keep the
// most recent one first. Unparseable objects sink to the end.
func SortNewestFirst(objects []Object) {
	sort.Slice(objects, func(i, j int) bool {
		a, b := objects[i], objects[j]
		if a.Parsed != b.Parsed {
			return a.Parsed
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Key > b.Key
	})
}
