package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testZone = "Europe/Belgrade"

// 2025-06-02 is a Monday.
func belgrade(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(testZone)
	require.NoError(t, err)
	return loc
}

func at(loc *time.Location, day, hour, min int) time.Time {
	return time.Date(2025, time.June, day, hour, min, 0, 0, loc)
}

func clock(h, m int) ClockTime {
	return ClockTime{Hour: h, Minute: m}
}

func weekdayRule(start, end ClockTime) WeeklyRule {
	return WeeklyRule{
		Days:  []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Start: start,
		End:   end,
	}
}

func mondayQuery(loc *time.Location) Query {
	return Query{
		Rules:    []WeeklyRule{weekdayRule(clock(9, 0), clock(17, 0))},
		TimeZone: testZone,
		From:     at(loc, 2, 0, 0),
		To:       at(loc, 2, 23, 59),
		Event:    EventParams{DurationMin: 30, SlotIntervalMin: 30},
		Now:      at(loc, 1, 12, 0),
	}
}

func slotStarts(res *Result) []time.Time {
	starts := make([]time.Time, len(res.Slots))
	for i, s := range res.Slots {
		starts[i] = s.Start
	}
	return starts
}

func TestComputeFullOpenMonday(t *testing.T) {
	loc := belgrade(t)

	res, err := Compute(mondayQuery(loc))
	require.NoError(t, err)

	require.Len(t, res.Slots, 16)
	assert.True(t, res.Slots[0].Start.Equal(at(loc, 2, 9, 0)))
	assert.True(t, res.Slots[15].Start.Equal(at(loc, 2, 16, 30)))

	require.Len(t, res.OpenRanges, 1)
	assert.True(t, res.OpenRanges[0].Start.Equal(at(loc, 2, 9, 0)))
	assert.True(t, res.OpenRanges[0].End.Equal(at(loc, 2, 17, 0)))
}

func TestComputeBusyIntervalRemovesSlot(t *testing.T) {
	loc := belgrade(t)

	q := mondayQuery(loc)
	q.Busy = []BusyInterval{{Start: at(loc, 2, 10, 0), End: at(loc, 2, 10, 30), Source: BusySourceBooking}}

	res, err := Compute(q)
	require.NoError(t, err)

	require.Len(t, res.Slots, 15)
	for _, s := range res.Slots {
		assert.False(t, s.Start.Equal(at(loc, 2, 10, 0)), "10:00 slot should be excluded")
	}
}

func TestComputeBlockingOverrideYieldsNoSlots(t *testing.T) {
	loc := belgrade(t)

	q := mondayQuery(loc)
	q.Overrides = []DateOverride{{Date: "2025-06-02", Start: clock(0, 0), End: clock(0, 0)}}

	res, err := Compute(q)
	require.NoError(t, err)
	assert.Empty(t, res.Slots)
	assert.Empty(t, res.OpenRanges)
}

func TestComputeMinimumNotice(t *testing.T) {
	loc := belgrade(t)

	q := mondayQuery(loc)
	q.Event.MinNoticeMin = 120
	q.Now = at(loc, 2, 8, 30)

	res, err := Compute(q)
	require.NoError(t, err)

	// Cutoff is 10:30: 09:00, 09:30 and 10:00 fall away.
	require.Len(t, res.Slots, 13)
	assert.True(t, res.Slots[0].Start.Equal(at(loc, 2, 10, 30)))
	cutoff := q.Now.Add(120 * time.Minute)
	for _, s := range res.Slots {
		assert.False(t, s.Start.Before(cutoff))
	}
}

func TestComputeBufferExpansion(t *testing.T) {
	loc := belgrade(t)

	q := mondayQuery(loc)
	q.Event = EventParams{DurationMin: 60, SlotIntervalMin: 60, BufferBeforeMin: 15, BufferAfterMin: 15}
	q.Busy = []BusyInterval{{Start: at(loc, 2, 12, 0), End: at(loc, 2, 13, 0)}}

	res, err := Compute(q)
	require.NoError(t, err)

	// Exclusion zone is [11:45, 13:15): the 11:00 slot ends at 12:00 and the
	// 13:00 slot starts before 13:15, so both are gone.
	want := []time.Time{
		at(loc, 2, 9, 0), at(loc, 2, 10, 0),
		at(loc, 2, 14, 0), at(loc, 2, 15, 0), at(loc, 2, 16, 0),
	}
	got := slotStarts(res)
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, got[i].Equal(want[i]), "slot %d: got %v want %v", i, got[i], want[i])
	}

	zoneStart := at(loc, 2, 11, 45)
	zoneEnd := at(loc, 2, 13, 15)
	for _, s := range res.Slots {
		end := s.Start.Add(60 * time.Minute)
		assert.False(t, s.Start.Before(zoneEnd) && zoneStart.Before(end),
			"slot %v intersects buffer-expanded busy zone", s.Start)
	}
}

func TestComputeOverrideSupersedesWeeklyRules(t *testing.T) {
	loc := belgrade(t)

	q := mondayQuery(loc)
	q.Event = EventParams{DurationMin: 60}
	q.Overrides = []DateOverride{{Date: "2025-06-02", Start: clock(12, 0), End: clock(14, 0)}}

	res, err := Compute(q)
	require.NoError(t, err)

	require.Len(t, res.Slots, 2)
	assert.True(t, res.Slots[0].Start.Equal(at(loc, 2, 12, 0)))
	assert.True(t, res.Slots[1].Start.Equal(at(loc, 2, 13, 0)))
}

func TestComputeOverlappingRulesEmitNoDuplicates(t *testing.T) {
	loc := belgrade(t)

	q := mondayQuery(loc)
	q.Rules = []WeeklyRule{
		{Days: []time.Weekday{time.Monday}, Start: clock(9, 0), End: clock(12, 0)},
		{Days: []time.Weekday{time.Monday}, Start: clock(10, 0), End: clock(14, 0)},
	}
	q.Event = EventParams{DurationMin: 60, SlotIntervalMin: 60}

	res, err := Compute(q)
	require.NoError(t, err)

	// The two rules merge into a single 09:00-14:00 window.
	require.Len(t, res.OpenRanges, 1)
	require.Len(t, res.Slots, 5)
	seen := map[int64]bool{}
	for _, s := range res.Slots {
		require.False(t, seen[s.Start.Unix()], "duplicate slot at %v", s.Start)
		seen[s.Start.Unix()] = true
	}
}

func TestComputeMultiDayOrdering(t *testing.T) {
	loc := belgrade(t)

	q := mondayQuery(loc)
	q.To = at(loc, 6, 23, 59) // Monday through Friday
	q.Busy = []BusyInterval{
		{Start: at(loc, 4, 9, 0), End: at(loc, 4, 12, 0), Source: BusySourceCalendar},
		{Start: at(loc, 2, 15, 0), End: at(loc, 2, 16, 0), Source: BusySourceBooking},
	}

	res, err := Compute(q)
	require.NoError(t, err)
	require.NotEmpty(t, res.Slots)

	for i := 1; i < len(res.Slots); i++ {
		assert.True(t, res.Slots[i].Start.After(res.Slots[i-1].Start),
			"slots must be strictly ascending")
	}
	// Every slot lies fully inside some open range.
	dur := time.Duration(q.Event.DurationMin) * time.Minute
	for _, s := range res.Slots {
		inside := false
		for _, r := range res.OpenRanges {
			if !s.Start.Before(r.Start) && !s.Start.Add(dur).After(r.End) {
				inside = true
				break
			}
		}
		assert.True(t, inside, "slot %v outside every open range", s.Start)
	}
}

func TestComputeQueryRangeClipsOpenIntervals(t *testing.T) {
	loc := belgrade(t)

	q := mondayQuery(loc)
	q.From = at(loc, 2, 10, 0)

	res, err := Compute(q)
	require.NoError(t, err)
	require.NotEmpty(t, res.Slots)
	assert.True(t, res.Slots[0].Start.Equal(at(loc, 2, 10, 0)))
	assert.True(t, res.OpenRanges[0].Start.Equal(at(loc, 2, 10, 0)))
}

func TestComputeEmptyScheduleIsNotAnError(t *testing.T) {
	loc := belgrade(t)

	q := mondayQuery(loc)
	q.Rules = nil

	res, err := Compute(q)
	require.NoError(t, err)
	assert.Empty(t, res.Slots)
	assert.Empty(t, res.OpenRanges)
}

func TestComputeFullyBookedKeepsOpenRanges(t *testing.T) {
	loc := belgrade(t)

	q := mondayQuery(loc)
	q.Busy = []BusyInterval{{Start: at(loc, 2, 9, 0), End: at(loc, 2, 17, 0)}}

	res, err := Compute(q)
	require.NoError(t, err)
	assert.Empty(t, res.Slots)
	// Callers distinguish "fully booked" from "no hours" via OpenRanges.
	assert.NotEmpty(t, res.OpenRanges)
}

func TestComputeSlotIntervalDefaultsToDuration(t *testing.T) {
	loc := belgrade(t)

	q := mondayQuery(loc)
	q.Event = EventParams{DurationMin: 60}

	res, err := Compute(q)
	require.NoError(t, err)
	require.Len(t, res.Slots, 8)
}

func TestComputeValidation(t *testing.T) {
	loc := belgrade(t)

	tests := []struct {
		name    string
		mutate  func(*Query)
		wantErr error
	}{
		{"from after to", func(q *Query) { q.From = at(loc, 3, 0, 0) }, ErrInvalidRange},
		{"zero duration", func(q *Query) { q.Event.DurationMin = 0 }, ErrInvalidDuration},
		{"negative slot interval", func(q *Query) { q.Event.SlotIntervalMin = -1 }, ErrInvalidSlotInterval},
		{"negative notice", func(q *Query) { q.Event.MinNoticeMin = -5 }, ErrInvalidNotice},
		{"negative buffer", func(q *Query) { q.Event.BufferAfterMin = -1 }, ErrInvalidBuffer},
		{"bad time zone", func(q *Query) { q.TimeZone = "Mars/Olympus" }, ErrInvalidTimeZone},
		{"inverted rule", func(q *Query) {
			q.Rules = []WeeklyRule{{Days: []time.Weekday{time.Monday}, Start: clock(17, 0), End: clock(9, 0)}}
		}, ErrInvalidRule},
		{"bad override date", func(q *Query) {
			q.Overrides = []DateOverride{{Date: "02/06/2025", Start: clock(9, 0), End: clock(10, 0)}}
		}, ErrInvalidOverride},
		{"duplicate override", func(q *Query) {
			q.Overrides = []DateOverride{
				{Date: "2025-06-02", Start: clock(9, 0), End: clock(10, 0)},
				{Date: "2025-06-02", Start: clock(11, 0), End: clock(12, 0)},
			}
		}, ErrDuplicateOverride},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := mondayQuery(loc)
			tt.mutate(&q)
			_, err := Compute(q)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, ClockTime{Hour: 9, Minute: 30}, c)
	assert.Equal(t, "09:30", c.String())

	_, err = ParseClock("9h30")
	assert.Error(t, err)
}
