// Package availability computes bookable time slots for a provider from
// recurring weekly hours, date-specific overrides and busy intervals.
// It is a pure computation: no I/O, no clock reads, safe for concurrent use.
package availability

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// ClockTime is a wall-clock time of day ("HH:MM") in the provider's zone.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses a "HH:MM" string.
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

func (c ClockTime) minutes() int {
	return c.Hour*60 + c.Minute
}

// Before reports whether c is earlier in the day than other.
func (c ClockTime) Before(other ClockTime) bool {
	return c.minutes() < other.minutes()
}

// WeeklyRule is a recurring weekly working-hours range. Multiple rules may
// apply to the same weekday.
type WeeklyRule struct {
	Days  []time.Weekday
	Start ClockTime
	End   ClockTime
}

func (r WeeklyRule) appliesOn(d time.Weekday) bool {
	for _, day := range r.Days {
		if day == d {
			return true
		}
	}
	return false
}

// DateOverride replaces every weekly rule for one calendar date. A
// zero-length override (Start == End) is the stored encoding for a fully
// blocked day; use Blocked rather than comparing the fields directly.
type DateOverride struct {
	Date  string // "2006-01-02", interpreted in the query's time zone
	Start ClockTime
	End   ClockTime
}

// Blocked reports whether the override marks the whole day unavailable.
func (o DateOverride) Blocked() bool {
	return o.Start == o.End
}

// Interval is a half-open instant range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) overlaps(start, end time.Time) bool {
	return start.Before(iv.End) && iv.Start.Before(end)
}

// Busy-interval provenance, kept for logging only. The computation never
// branches on it.
const (
	BusySourceBooking  = "booking"
	BusySourceCalendar = "calendar"
)

// BusyInterval is time that must be excluded from availability, regardless
// of where it came from.
type BusyInterval struct {
	Start  time.Time
	End    time.Time
	Source string
}

// EventParams are the event-type knobs that shape slot generation.
// SlotIntervalMin defaults to DurationMin when zero.
type EventParams struct {
	DurationMin     int
	SlotIntervalMin int
	MinNoticeMin    int
	BufferBeforeMin int
	BufferAfterMin  int
}

// Query is the full input to one availability computation. Now is injected
// by the caller so results are deterministic and testable.
type Query struct {
	Rules     []WeeklyRule
	Overrides []DateOverride
	Busy      []BusyInterval
	TimeZone  string
	From      time.Time
	To        time.Time
	Event     EventParams
	Now       time.Time
}

// Slot is a candidate bookable start instant; its end is implicitly
// Start + DurationMin.
type Slot struct {
	Start time.Time
}

// Result holds the generated slots plus the open working intervals that were
// actually considered (useful for rendering available days: an empty Slots
// with non-empty OpenRanges means "fully booked", both empty means "no hours
// configured").
type Result struct {
	Slots      []Slot
	OpenRanges []Interval
}

// Compute expands the weekly schedule over [q.From, q.To], subtracts merged
// busy time and emits bookable slots in ascending order. Malformed input
// fails fast; an empty schedule or a fully booked range is not an error.
func Compute(q Query) (*Result, error) {
	if err := validate(q); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(q.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimeZone, q.TimeZone)
	}

	open, err := expandOpenIntervals(q, loc)
	if err != nil {
		return nil, err
	}

	busy := mergeBusy(q.Busy)
	slots := generateSlots(open, busy, q.Event, q.Now)

	return &Result{Slots: slots, OpenRanges: open}, nil
}

func validate(q Query) error {
	if q.From.After(q.To) {
		return ErrInvalidRange
	}
	if q.Event.DurationMin <= 0 {
		return ErrInvalidDuration
	}
	if q.Event.SlotIntervalMin < 0 {
		return ErrInvalidSlotInterval
	}
	if q.Event.MinNoticeMin < 0 {
		return ErrInvalidNotice
	}
	if q.Event.BufferBeforeMin < 0 || q.Event.BufferAfterMin < 0 {
		return ErrInvalidBuffer
	}
	for _, r := range q.Rules {
		if r.Start.minutes() >= r.End.minutes() {
			return fmt.Errorf("%w: %s-%s", ErrInvalidRule, r.Start, r.End)
		}
		for _, d := range r.Days {
			if d < time.Sunday || d > time.Saturday {
				return fmt.Errorf("%w: day %d", ErrInvalidRule, d)
			}
		}
	}
	for _, o := range q.Overrides {
		if _, err := time.Parse(dateLayout, o.Date); err != nil {
			return fmt.Errorf("%w: date %q", ErrInvalidOverride, o.Date)
		}
		if o.Start.minutes() > o.End.minutes() {
			return fmt.Errorf("%w: %s-%s", ErrInvalidOverride, o.Start, o.End)
		}
	}
	return nil
}
