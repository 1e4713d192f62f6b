package availability

import (
	"fmt"
	"sort"
	"time"
)

// expandOpenIntervals walks every calendar date in [q.From, q.To] (evaluated
// in loc), resolves the day's working hours (an override supersedes all
// weekly rules for its date) and returns the open intervals as absolute
// instants, clipped to the query range, sorted and merged. Merging here means
// overlapping weekly rules for the same day can never emit a slot twice.
func expandOpenIntervals(q Query, loc *time.Location) ([]Interval, error) {
	overrides := make(map[string]DateOverride, len(q.Overrides))
	for _, o := range q.Overrides {
		if _, dup := overrides[o.Date]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateOverride, o.Date)
		}
		overrides[o.Date] = o
	}

	from := q.From.In(loc)
	to := q.To.In(loc)

	var open []Interval
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	for !day.After(to) {
		if o, ok := overrides[day.Format(dateLayout)]; ok {
			if !o.Blocked() {
				open = appendClipped(open, dayInterval(day, o.Start, o.End, loc), q.From, q.To)
			}
			day = day.AddDate(0, 0, 1)
			continue
		}
		for _, r := range q.Rules {
			if r.appliesOn(day.Weekday()) {
				open = appendClipped(open, dayInterval(day, r.Start, r.End, loc), q.From, q.To)
			}
		}
		day = day.AddDate(0, 0, 1)
	}

	sort.Slice(open, func(i, j int) bool { return open[i].Start.Before(open[j].Start) })
	return mergeIntervals(open), nil
}

// dayInterval converts a wall-clock range on the given day to absolute
// instants. time.Date resolves DST edge cases deterministically: a wall
// clock that does not exist (spring-forward gap) is normalized past the
// transition, and an ambiguous one (fall-back repeat) maps to a single
// instant chosen by the zone data. Neither case is an error.
func dayInterval(day time.Time, start, end ClockTime, loc *time.Location) Interval {
	return Interval{
		Start: time.Date(day.Year(), day.Month(), day.Day(), start.Hour, start.Minute, 0, 0, loc),
		End:   time.Date(day.Year(), day.Month(), day.Day(), end.Hour, end.Minute, 0, 0, loc),
	}
}

func appendClipped(open []Interval, iv Interval, from, to time.Time) []Interval {
	if iv.Start.Before(from) {
		iv.Start = from
	}
	if iv.End.After(to) {
		iv.End = to
	}
	if !iv.End.After(iv.Start) {
		return open
	}
	return append(open, iv)
}
