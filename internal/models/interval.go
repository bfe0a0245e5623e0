package models

import (
	"time"
)

// Interval is a half-open time window [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the interval is well-formed (Start strictly before End).
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Overlaps implements the half-open overlap test: two intervals conflict
// when a.Start < b.End AND a.End > b.Start. Back-to-back intervals
// ([10:00,11:00) and [11:00,11:30)) do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && i.End.After(other.Start)
}

// Contains reports whether t falls inside the window.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Minutes returns the interval length in whole minutes, rounding any
// partial minute up.
func (i Interval) Minutes() int {
	return MinutesBetween(i.Start, i.End)
}

// MinutesBetween returns the duration from start to end in whole minutes.
// Partial minutes round up, so any non-zero occupancy bills at least one
// minute (and therefore at least one slab).
func MinutesBetween(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	mins := int(d / time.Minute)
	if d%time.Minute != 0 {
		mins++
	}
	return mins
}
