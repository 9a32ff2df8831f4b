// Package classify implements the interval predicates that drive
// bucketing and presence matching.
//
// All comparisons are done at day granularity: both operands are
// normalized to start-of-day or end-of-day first, so a stored
// time-of-day can never cause an off-by-one across a day boundary.
package classify

import (
	"time"

	"pujaboard/internal/dateparse"
	"pujaboard/internal/model"
)

// Default thresholds, in whole days. The two are tuned independently
// and must stay separate: an event can be short enough to match
// presence yet long enough to display as recurring, and vice versa.
const (
	DefaultLongRunningDays       = 120
	DefaultPresenceExclusionDays = 60
)

// Classifier holds the day thresholds for long-running display and
// presence-match exclusion.
type Classifier struct {
	// LongRunningDays is the span above which an event is shown as a
	// standing daily observance rather than a dated range.
	LongRunningDays int
	// PresenceExclusionDays is the span above which an event is never
	// flagged as overlapping Gurudev's presence.
	PresenceExclusionDays int
}

// New returns a Classifier with the default thresholds.
func New() Classifier {
	return Classifier{
		LongRunningDays:       DefaultLongRunningDays,
		PresenceExclusionDays: DefaultPresenceExclusionDays,
	}
}

// IsTomorrow reports whether the interval covers the calendar day
// after ref. Single-date events match only when their start day is
// exactly tomorrow; ranges match when tomorrow falls inside the closed
// [start, end] day range.
func (c Classifier) IsTomorrow(iv dateparse.Interval, ref time.Time) bool {
	if !dateparse.IsValid(iv.Start) {
		return false
	}

	tomorrow := startOfDay(ref).AddDate(0, 0, 1)
	eventStart := startOfDay(iv.Start)

	if iv.End != nil && dateparse.IsValid(*iv.End) {
		eventEnd := endOfDay(*iv.End)
		return !tomorrow.Before(eventStart) && !tomorrow.After(eventEnd)
	}
	return eventStart.Equal(tomorrow)
}

// IsThisWeek reports whether the interval touches the Monday-to-Sunday
// week containing ref.
func (c Classifier) IsThisWeek(iv dateparse.Interval, ref time.Time) bool {
	if !dateparse.IsValid(iv.Start) {
		return false
	}

	weekStart := startOfWeek(ref)
	weekEnd := endOfDay(weekStart.AddDate(0, 0, 6))
	eventStart := startOfDay(iv.Start)

	if iv.End != nil && dateparse.IsValid(*iv.End) {
		eventEnd := endOfDay(*iv.End)
		return !eventStart.After(weekEnd) && !eventEnd.Before(weekStart)
	}
	return !eventStart.Before(weekStart) && !eventStart.After(weekEnd)
}

// IsLongRunning reports whether the interval spans strictly more than
// LongRunningDays whole days. Single-date events are never
// long-running.
func (c Classifier) IsLongRunning(iv dateparse.Interval) bool {
	return spanDays(iv) > c.LongRunningDays
}

// OverlapsPresence reports whether the event interval intersects any
// presence interval at day granularity. Events spanning more than
// PresenceExclusionDays never match; malformed presence rows are
// skipped.
func (c Classifier) OverlapsPresence(iv dateparse.Interval, presences []model.PresenceInterval) bool {
	if !dateparse.IsValid(iv.Start) || len(presences) == 0 {
		return false
	}
	if spanDays(iv) > c.PresenceExclusionDays {
		return false
	}

	eventStart := startOfDay(iv.Start)
	eventEnd := eventStart
	if iv.End != nil && dateparse.IsValid(*iv.End) {
		eventEnd = endOfDay(*iv.End)
	}

	for _, p := range presences {
		if !dateparse.IsValid(p.Start) || !dateparse.IsValid(p.End) {
			continue
		}
		presenceStart := startOfDay(p.Start)
		presenceEnd := endOfDay(p.End)
		if !eventStart.After(presenceEnd) && !eventEnd.Before(presenceStart) {
			return true
		}
	}
	return false
}

// spanDays returns the whole-day span of a range interval, or 0 when
// either endpoint is missing or invalid.
func spanDays(iv dateparse.Interval) int {
	if !dateparse.IsValid(iv.Start) || iv.End == nil || !dateparse.IsValid(*iv.End) {
		return 0
	}
	start := startOfDay(iv.Start)
	end := startOfDay(*iv.End)
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start) / (24 * time.Hour))
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// startOfWeek returns Monday 00:00 of the week containing t.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}
