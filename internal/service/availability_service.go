package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"salonbook/internal/availability"
	"salonbook/internal/calendar"
	"salonbook/internal/db"
	"salonbook/internal/entities"
	"salonbook/internal/utils"
)

const dateLayout = "2006-01-02"

type ScheduleStore interface {
	GetProvider(salonID, providerID int) (*db.Provider, error)
	ListWeeklyRules(providerID int) ([]db.WeeklyRule, error)
	ListOverrides(providerID int, from, to string) ([]db.DateOverride, error)
}

type EventTypeStore interface {
	GetEventType(salonID, id int) (*db.EventType, error)
}

type BookedIntervalStore interface {
	GetBusyIntervals(providerID int, from, to time.Time) ([]availability.BusyInterval, error)
}

type FeedStore interface {
	ListFeedsByProvider(providerID int) ([]db.CalendarFeed, error)
}

// BusySourceFactory opens a busy source for one stored calendar feed.
type BusySourceFactory func(ctx context.Context, feed db.CalendarFeed) (calendar.BusySource, error)

// AvailabilityService assembles the inputs for the availability engine: the
// provider's schedule and event parameters from the data layer, booked
// intervals from the bookings table and busy time from every linked external
// calendar, then runs the pure computation.
type AvailabilityService struct {
	Schedules  ScheduleStore
	EventTypes EventTypeStore
	Bookings   BookedIntervalStore
	Feeds      FeedStore
	NewSource  BusySourceFactory
	Now        func() time.Time
}

func NewAvailabilityService(schedules ScheduleStore, eventTypes EventTypeStore, bookings BookedIntervalStore, feeds FeedStore, newSource BusySourceFactory) *AvailabilityService {
	return &AvailabilityService{
		Schedules:  schedules,
		EventTypes: eventTypes,
		Bookings:   bookings,
		Feeds:      feeds,
		NewSource:  newSource,
		Now:        time.Now,
	}
}

func (s *AvailabilityService) GetSlots(ctx context.Context, salonID int, req entities.AvailabilityRequest) (*entities.AvailabilityResponse, error) {
	provider, err := s.Schedules.GetProvider(salonID, req.ProviderID)
	if err != nil {
		return nil, err
	}

	resp := &entities.AvailabilityResponse{
		ProviderID:  provider.ID,
		EventTypeID: req.EventTypeID,
		TimeZone:    provider.TimeZone,
		Slots:       []entities.SlotResponse{},
	}
	if !provider.Active {
		return resp, nil
	}

	eventType, err := s.EventTypes.GetEventType(salonID, req.EventTypeID)
	if err != nil {
		return nil, err
	}

	result, err := s.compute(ctx, provider, eventType, req.From, req.To)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(eventType.DurationMin) * time.Minute
	for _, slot := range result.Slots {
		resp.Slots = append(resp.Slots, entities.SlotResponse{Start: slot.Start, End: slot.Start.Add(duration)})
	}
	for _, r := range result.OpenRanges {
		resp.OpenRanges = append(resp.OpenRanges, entities.OpenRangeResponse{Start: r.Start, End: r.End})
	}
	return resp, nil
}

// IsSlotBookable re-runs the availability computation over the whole local
// day of the requested start and checks a slot exists at exactly that
// instant. Computing the full day keeps the slot grid aligned to the
// opening hours rather than to whatever start the client sent. Booking
// creation goes through this before inserting.
func (s *AvailabilityService) IsSlotBookable(ctx context.Context, salonID, providerID, eventTypeID int, start time.Time) (bool, *db.EventType, *db.Provider, error) {
	provider, err := s.Schedules.GetProvider(salonID, providerID)
	if err != nil {
		return false, nil, nil, err
	}
	if !provider.Active {
		return false, nil, nil, ErrProviderInactive
	}

	eventType, err := s.EventTypes.GetEventType(salonID, eventTypeID)
	if err != nil {
		return false, nil, nil, err
	}

	loc, err := time.LoadLocation(provider.TimeZone)
	if err != nil {
		return false, nil, nil, fmt.Errorf("provider %d has invalid time zone %q: %w", provider.ID, provider.TimeZone, err)
	}
	local := start.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	result, err := s.compute(ctx, provider, eventType, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return false, nil, nil, err
	}

	for _, slot := range result.Slots {
		if slot.Start.Equal(start) {
			return true, eventType, provider, nil
		}
	}
	return false, eventType, provider, nil
}

func (s *AvailabilityService) compute(ctx context.Context, provider *db.Provider, eventType *db.EventType, from, to time.Time) (*availability.Result, error) {
	loc, err := time.LoadLocation(provider.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("provider %d has invalid time zone %q: %w", provider.ID, provider.TimeZone, err)
	}

	rules, err := s.loadRules(provider.ID)
	if err != nil {
		return nil, err
	}
	overrides, err := s.loadOverrides(provider.ID, from.In(loc).Format(dateLayout), to.In(loc).Format(dateLayout))
	if err != nil {
		return nil, err
	}

	busy, err := s.gatherBusy(ctx, provider.ID, from, to)
	if err != nil {
		return nil, err
	}

	return availability.Compute(availability.Query{
		Rules:     rules,
		Overrides: overrides,
		Busy:      busy,
		TimeZone:  provider.TimeZone,
		From:      from,
		To:        to,
		Event: availability.EventParams{
			DurationMin:     eventType.DurationMin,
			SlotIntervalMin: eventType.SlotIntervalMin,
			MinNoticeMin:    eventType.MinNoticeMin,
			BufferBeforeMin: eventType.BufferBeforeMin,
			BufferAfterMin:  eventType.BufferAfterMin,
		},
		Now: s.Now(),
	})
}

func (s *AvailabilityService) loadRules(providerID int) ([]availability.WeeklyRule, error) {
	stored, err := s.Schedules.ListWeeklyRules(providerID)
	if err != nil {
		return nil, err
	}
	rules := make([]availability.WeeklyRule, 0, len(stored))
	for _, row := range stored {
		start, err := availability.ParseClock(row.StartTime)
		if err != nil {
			return nil, fmt.Errorf("weekly rule %d: %w", row.ID, err)
		}
		end, err := availability.ParseClock(row.EndTime)
		if err != nil {
			return nil, fmt.Errorf("weekly rule %d: %w", row.ID, err)
		}
		rules = append(rules, availability.WeeklyRule{
			Days:  []time.Weekday{time.Weekday(row.DayOfWeek)},
			Start: start,
			End:   end,
		})
	}
	return rules, nil
}

func (s *AvailabilityService) loadOverrides(providerID int, from, to string) ([]availability.DateOverride, error) {
	stored, err := s.Schedules.ListOverrides(providerID, from, to)
	if err != nil {
		return nil, err
	}
	overrides := make([]availability.DateOverride, 0, len(stored))
	for _, row := range stored {
		start, err := availability.ParseClock(row.StartTime)
		if err != nil {
			return nil, fmt.Errorf("date override %d: %w", row.ID, err)
		}
		end, err := availability.ParseClock(row.EndTime)
		if err != nil {
			return nil, fmt.Errorf("date override %d: %w", row.ID, err)
		}
		overrides = append(overrides, availability.DateOverride{Date: row.Date, Start: start, End: end})
	}
	return overrides, nil
}

// gatherBusy concatenates booked intervals with busy time from every linked
// external calendar. The bookings query is authoritative and fails the whole
// request; calendar sources fail open — a broken feed logs a warning and
// contributes nothing, it never blocks booking-conflict data.
func (s *AvailabilityService) gatherBusy(ctx context.Context, providerID int, from, to time.Time) ([]availability.BusyInterval, error) {
	logger := utils.GetLogger()

	busy, err := s.Bookings.GetBusyIntervals(providerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch booked intervals: %w", err)
	}

	feeds, err := s.Feeds.ListFeedsByProvider(providerID)
	if err != nil {
		logger.Warn("listing calendar feeds failed, continuing without external busy time",
			zap.Int("providerID", providerID), zap.Error(err))
		return busy, nil
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, feed := range feeds {
		wg.Add(1)
		go func(feed db.CalendarFeed) {
			defer wg.Done()
			src, err := s.NewSource(ctx, feed)
			if err != nil {
				logger.Warn("opening calendar feed failed",
					zap.Int("feedID", feed.ID), zap.String("calendarID", feed.CalendarID), zap.Error(err))
				return
			}
			intervals, err := src.Busy(ctx, from, to)
			if err != nil {
				logger.Warn("calendar busy lookup failed, continuing without it",
					zap.Int("feedID", feed.ID), zap.String("calendarID", feed.CalendarID), zap.Error(err))
				return
			}
			mu.Lock()
			busy = append(busy, intervals...)
			mu.Unlock()
		}(feed)
	}
	wg.Wait()

	return busy, nil
}
