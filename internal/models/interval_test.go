package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 1, hour, min, 0, 0, time.UTC)
}

func TestInterval_Overlaps(t *testing.T) {
	base := Interval{Start: at(10, 0), End: at(11, 0)}

	tests := []struct {
		name     string
		other    Interval
		overlaps bool
	}{
		{"contained", Interval{at(10, 30), at(10, 45)}, true},
		{"identical", Interval{at(10, 0), at(11, 0)}, true},
		{"overlaps start", Interval{at(9, 30), at(10, 15)}, true},
		{"overlaps end", Interval{at(10, 45), at(11, 30)}, true},
		{"covers", Interval{at(9, 0), at(12, 0)}, true},
		{"back-to-back after", Interval{at(11, 0), at(11, 30)}, false},
		{"back-to-back before", Interval{at(9, 0), at(10, 0)}, false},
		{"disjoint", Interval{at(12, 0), at(13, 0)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.overlaps, base.Overlaps(tt.other))
			// Overlap is symmetric
			assert.Equal(t, tt.overlaps, tt.other.Overlaps(base))
		})
	}
}

func TestInterval_Valid(t *testing.T) {
	assert.True(t, Interval{at(10, 0), at(11, 0)}.Valid())
	assert.False(t, Interval{at(11, 0), at(10, 0)}.Valid())
	assert.False(t, Interval{at(10, 0), at(10, 0)}.Valid())
}

func TestInterval_Contains(t *testing.T) {
	iv := Interval{at(10, 0), at(11, 0)}

	assert.True(t, iv.Contains(at(10, 0)), "start is inside the half-open window")
	assert.True(t, iv.Contains(at(10, 59)))
	assert.False(t, iv.Contains(at(11, 0)), "end is outside the half-open window")
	assert.False(t, iv.Contains(at(9, 59)))
}

func TestMinutesBetween_RoundsUp(t *testing.T) {
	start := at(10, 0)

	assert.Equal(t, 0, MinutesBetween(start, start))
	assert.Equal(t, 1, MinutesBetween(start, start.Add(time.Second)))
	assert.Equal(t, 1, MinutesBetween(start, start.Add(time.Minute)))
	assert.Equal(t, 2, MinutesBetween(start, start.Add(time.Minute+time.Second)))
	assert.Equal(t, 45, MinutesBetween(at(10, 5), at(10, 50)))
	assert.Equal(t, 0, MinutesBetween(start, start.Add(-time.Hour)), "negative durations clamp to zero")
}

func TestReservation_IsNoShowAt(t *testing.T) {
	r := &Reservation{
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
		Status:    StatusReserved,
	}

	assert.False(t, r.IsNoShowAt(at(10, 30)), "window still open")
	assert.True(t, r.IsNoShowAt(at(11, 1)), "window elapsed with no check-in")

	checkIn := at(10, 5)
	r.CheckInAt = &checkIn
	r.Status = StatusCheckedIn
	assert.False(t, r.IsNoShowAt(at(11, 1)))

	stamped := &Reservation{Status: StatusNoShow, StartTime: at(10, 0), EndTime: at(11, 0)}
	assert.True(t, stamped.IsNoShowAt(at(10, 30)), "stamped no_show stays a no-show")
}
