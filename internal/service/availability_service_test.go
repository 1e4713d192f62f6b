package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonbook/internal/availability"
	"salonbook/internal/calendar"
	"salonbook/internal/db"
	"salonbook/internal/entities"
)

type fakeScheduleStore struct {
	provider  *db.Provider
	rules     []db.WeeklyRule
	overrides []db.DateOverride
}

func (f *fakeScheduleStore) GetProvider(salonID, providerID int) (*db.Provider, error) {
	if f.provider == nil || f.provider.ID != providerID {
		return nil, errors.New("provider not found")
	}
	return f.provider, nil
}

func (f *fakeScheduleStore) ListWeeklyRules(providerID int) ([]db.WeeklyRule, error) {
	return f.rules, nil
}

func (f *fakeScheduleStore) ListOverrides(providerID int, from, to string) ([]db.DateOverride, error) {
	return f.overrides, nil
}

type fakeEventTypeStore struct {
	eventType *db.EventType
}

func (f *fakeEventTypeStore) GetEventType(salonID, id int) (*db.EventType, error) {
	if f.eventType == nil {
		return nil, errors.New("event type not found")
	}
	return f.eventType, nil
}

type fakeBusyStore struct {
	busy []availability.BusyInterval
	err  error
}

func (f *fakeBusyStore) GetBusyIntervals(providerID int, from, to time.Time) ([]availability.BusyInterval, error) {
	return f.busy, f.err
}

type fakeFeedStore struct {
	feeds []db.CalendarFeed
	err   error
}

func (f *fakeFeedStore) ListFeedsByProvider(providerID int) ([]db.CalendarFeed, error) {
	return f.feeds, f.err
}

type fakeBusySource struct {
	busy []availability.BusyInterval
	err  error
}

func (f fakeBusySource) Busy(ctx context.Context, from, to time.Time) ([]availability.BusyInterval, error) {
	return f.busy, f.err
}

func testProvider() *db.Provider {
	return &db.Provider{ID: 7, SalonID: 1, Name: "Ana", TimeZone: "Europe/Belgrade", Active: true}
}

func testEventType() *db.EventType {
	return &db.EventType{ID: 3, SalonID: 1, Name: "Haircut", DurationMin: 30, PriceCents: 3000, Currency: "eur"}
}

func mondayRules() []db.WeeklyRule {
	return []db.WeeklyRule{{ID: 1, ProviderID: 7, DayOfWeek: 1, StartTime: "09:00", EndTime: "17:00"}}
}

// June 2, 2025 is a Monday.
func mondayWindow(t *testing.T) (time.Time, time.Time, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Belgrade")
	require.NoError(t, err)
	from := time.Date(2025, time.June, 2, 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, 1), loc
}

func newTestService(schedules *fakeScheduleStore, eventTypes *fakeEventTypeStore, bookings *fakeBusyStore, feeds *fakeFeedStore, source calendar.BusySource, sourceErr error) *AvailabilityService {
	svc := NewAvailabilityService(schedules, eventTypes, bookings, feeds,
		func(ctx context.Context, feed db.CalendarFeed) (calendar.BusySource, error) {
			if sourceErr != nil {
				return nil, sourceErr
			}
			return source, nil
		})
	svc.Now = func() time.Time {
		return time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestGetSlotsFromStoredSchedule(t *testing.T) {
	from, to, loc := mondayWindow(t)
	svc := newTestService(
		&fakeScheduleStore{provider: testProvider(), rules: mondayRules()},
		&fakeEventTypeStore{eventType: testEventType()},
		&fakeBusyStore{}, &fakeFeedStore{}, nil, nil,
	)

	resp, err := svc.GetSlots(context.Background(), 1, entities.AvailabilityRequest{
		ProviderID: 7, EventTypeID: 3, From: from, To: to,
	})
	require.NoError(t, err)

	assert.Equal(t, "Europe/Belgrade", resp.TimeZone)
	require.Len(t, resp.Slots, 16)
	first := resp.Slots[0]
	assert.True(t, first.Start.Equal(time.Date(2025, time.June, 2, 9, 0, 0, 0, loc)))
	assert.True(t, first.End.Equal(first.Start.Add(30*time.Minute)))
	require.Len(t, resp.OpenRanges, 1)
}

func TestGetSlotsInactiveProviderIsEmpty(t *testing.T) {
	from, to, _ := mondayWindow(t)
	provider := testProvider()
	provider.Active = false

	svc := newTestService(
		&fakeScheduleStore{provider: provider, rules: mondayRules()},
		&fakeEventTypeStore{eventType: testEventType()},
		&fakeBusyStore{}, &fakeFeedStore{}, nil, nil,
	)

	resp, err := svc.GetSlots(context.Background(), 1, entities.AvailabilityRequest{
		ProviderID: 7, EventTypeID: 3, From: from, To: to,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
	assert.Empty(t, resp.OpenRanges)
}

func TestGetSlotsAppliesBookedIntervals(t *testing.T) {
	from, to, loc := mondayWindow(t)
	busy := []availability.BusyInterval{{
		Start:  time.Date(2025, time.June, 2, 9, 0, 0, 0, loc),
		End:    time.Date(2025, time.June, 2, 10, 0, 0, 0, loc),
		Source: availability.BusySourceBooking,
	}}

	svc := newTestService(
		&fakeScheduleStore{provider: testProvider(), rules: mondayRules()},
		&fakeEventTypeStore{eventType: testEventType()},
		&fakeBusyStore{busy: busy}, &fakeFeedStore{}, nil, nil,
	)

	resp, err := svc.GetSlots(context.Background(), 1, entities.AvailabilityRequest{
		ProviderID: 7, EventTypeID: 3, From: from, To: to,
	})
	require.NoError(t, err)
	require.Len(t, resp.Slots, 14)
	assert.True(t, resp.Slots[0].Start.Equal(time.Date(2025, time.June, 2, 10, 0, 0, 0, loc)))
}

func TestGetSlotsAppliesCalendarBusyTime(t *testing.T) {
	from, to, loc := mondayWindow(t)
	source := fakeBusySource{busy: []availability.BusyInterval{{
		Start:  time.Date(2025, time.June, 2, 16, 0, 0, 0, loc),
		End:    time.Date(2025, time.June, 2, 17, 0, 0, 0, loc),
		Source: availability.BusySourceCalendar,
	}}}

	svc := newTestService(
		&fakeScheduleStore{provider: testProvider(), rules: mondayRules()},
		&fakeEventTypeStore{eventType: testEventType()},
		&fakeBusyStore{},
		&fakeFeedStore{feeds: []db.CalendarFeed{{ID: 1, ProviderID: 7, CalendarID: "ana@example.com"}}},
		source, nil,
	)

	resp, err := svc.GetSlots(context.Background(), 1, entities.AvailabilityRequest{
		ProviderID: 7, EventTypeID: 3, From: from, To: to,
	})
	require.NoError(t, err)
	// 16:00 and 16:30 are gone.
	require.Len(t, resp.Slots, 14)
	last := resp.Slots[len(resp.Slots)-1]
	assert.True(t, last.Start.Equal(time.Date(2025, time.June, 2, 15, 30, 0, 0, loc)))
}

func TestCalendarFailureDoesNotBlockAvailability(t *testing.T) {
	from, to, _ := mondayWindow(t)

	svc := newTestService(
		&fakeScheduleStore{provider: testProvider(), rules: mondayRules()},
		&fakeEventTypeStore{eventType: testEventType()},
		&fakeBusyStore{},
		&fakeFeedStore{feeds: []db.CalendarFeed{{ID: 1, ProviderID: 7, CalendarID: "ana@example.com"}}},
		nil, errors.New("token expired"),
	)

	resp, err := svc.GetSlots(context.Background(), 1, entities.AvailabilityRequest{
		ProviderID: 7, EventTypeID: 3, From: from, To: to,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Slots, 16)
}

func TestBookingStoreFailureFailsTheRequest(t *testing.T) {
	from, to, _ := mondayWindow(t)

	svc := newTestService(
		&fakeScheduleStore{provider: testProvider(), rules: mondayRules()},
		&fakeEventTypeStore{eventType: testEventType()},
		&fakeBusyStore{err: errors.New("connection reset")},
		&fakeFeedStore{}, nil, nil,
	)

	_, err := svc.GetSlots(context.Background(), 1, entities.AvailabilityRequest{
		ProviderID: 7, EventTypeID: 3, From: from, To: to,
	})
	require.Error(t, err)
}

func TestIsSlotBookable(t *testing.T) {
	_, _, loc := mondayWindow(t)
	busy := []availability.BusyInterval{{
		Start:  time.Date(2025, time.June, 2, 10, 0, 0, 0, loc),
		End:    time.Date(2025, time.June, 2, 10, 30, 0, 0, loc),
		Source: availability.BusySourceBooking,
	}}

	svc := newTestService(
		&fakeScheduleStore{provider: testProvider(), rules: mondayRules()},
		&fakeEventTypeStore{eventType: testEventType()},
		&fakeBusyStore{busy: busy}, &fakeFeedStore{}, nil, nil,
	)

	ok, eventType, provider, err := svc.IsSlotBookable(context.Background(), 1, 7, 3, time.Date(2025, time.June, 2, 9, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 30, eventType.DurationMin)
	assert.Equal(t, "Europe/Belgrade", provider.TimeZone)

	// Taken by an existing booking.
	ok, _, _, err = svc.IsSlotBookable(context.Background(), 1, 7, 3, time.Date(2025, time.June, 2, 10, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.False(t, ok)

	// Off the slot grid even though the time itself is free.
	ok, _, _, err = svc.IsSlotBookable(context.Background(), 1, 7, 3, time.Date(2025, time.June, 2, 9, 15, 0, 0, loc))
	require.NoError(t, err)
	assert.False(t, ok)

	// Outside opening hours.
	ok, _, _, err = svc.IsSlotBookable(context.Background(), 1, 7, 3, time.Date(2025, time.June, 2, 8, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsSlotBookableInactiveProvider(t *testing.T) {
	_, _, loc := mondayWindow(t)
	provider := testProvider()
	provider.Active = false

	svc := newTestService(
		&fakeScheduleStore{provider: provider, rules: mondayRules()},
		&fakeEventTypeStore{eventType: testEventType()},
		&fakeBusyStore{}, &fakeFeedStore{}, nil, nil,
	)

	_, _, _, err := svc.IsSlotBookable(context.Background(), 1, 7, 3, time.Date(2025, time.June, 2, 9, 0, 0, 0, loc))
	assert.ErrorIs(t, err, ErrProviderInactive)
}
