package service

import (
	"fmt"
	"time"

	"salonbook/internal/availability"
	"salonbook/internal/db"
	"salonbook/internal/entities"
)

// ScheduleAdminStore extends the read side of ScheduleStore with the
// writes the dashboard performs.
type ScheduleAdminStore interface {
	ScheduleStore
	CreateWeeklyRule(rule *db.WeeklyRule) error
	DeleteWeeklyRule(providerID, ruleID int) error
	UpsertOverride(o *db.DateOverride) error
	DeleteOverride(providerID int, date string) error
}

// EventTypeAdminStore is the catalogue surface the dashboard manages.
type EventTypeAdminStore interface {
	EventTypeStore
	ListEventTypes(salonID int) ([]db.EventType, error)
	CreateEventType(et *db.EventType) error
	UpdateEventType(et *db.EventType) error
	DeleteEventType(salonID, id int) error
}

// CalendarFeedStore manages a provider's linked external calendars.
type CalendarFeedStore interface {
	FeedStore
	CreateFeed(f *db.CalendarFeed) error
	DeleteFeed(providerID, feedID int) error
}

// ScheduleService owns the admin side of a provider's calendar: weekly
// opening rules, per-date overrides, calendar feeds and the event type
// catalogue. All validation happens here so the repositories store only
// well-formed rows, and every provider-scoped operation resolves the
// provider through the caller's salon before touching its data.
type ScheduleService struct {
	Schedules  ScheduleAdminStore
	EventTypes EventTypeAdminStore
	Feeds      CalendarFeedStore
}

func NewScheduleService(schedules ScheduleAdminStore, eventTypes EventTypeAdminStore, feeds CalendarFeedStore) *ScheduleService {
	return &ScheduleService{Schedules: schedules, EventTypes: eventTypes, Feeds: feeds}
}

func (s *ScheduleService) GetProvider(salonID, providerID int) (*db.Provider, error) {
	return s.Schedules.GetProvider(salonID, providerID)
}

func (s *ScheduleService) ListWeeklyRules(salonID, providerID int) ([]db.WeeklyRule, error) {
	if _, err := s.Schedules.GetProvider(salonID, providerID); err != nil {
		return nil, err
	}
	return s.Schedules.ListWeeklyRules(providerID)
}

func (s *ScheduleService) CreateWeeklyRule(salonID int, req entities.WeeklyRuleRequest) (*db.WeeklyRule, error) {
	if _, err := s.Schedules.GetProvider(salonID, req.ProviderID); err != nil {
		return nil, err
	}
	if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
		return nil, fmt.Errorf("day_of_week %d out of range: %w", req.DayOfWeek, availability.ErrInvalidRule)
	}
	start, end, err := parseClockPair(req.StartTime, req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, availability.ErrInvalidRule)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("rule start %s is not before end %s: %w", req.StartTime, req.EndTime, availability.ErrInvalidRule)
	}

	rule := &db.WeeklyRule{
		ProviderID: req.ProviderID,
		DayOfWeek:  req.DayOfWeek,
		StartTime:  start.String(),
		EndTime:    end.String(),
	}
	if err := s.Schedules.CreateWeeklyRule(rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *ScheduleService) DeleteWeeklyRule(salonID, providerID, ruleID int) error {
	if _, err := s.Schedules.GetProvider(salonID, providerID); err != nil {
		return err
	}
	return s.Schedules.DeleteWeeklyRule(providerID, ruleID)
}

func (s *ScheduleService) ListOverrides(salonID, providerID int, from, to string) ([]db.DateOverride, error) {
	if _, err := s.Schedules.GetProvider(salonID, providerID); err != nil {
		return nil, err
	}
	for _, d := range []string{from, to} {
		if _, err := time.Parse(dateLayout, d); err != nil {
			return nil, fmt.Errorf("bad date %q: %w", d, availability.ErrInvalidOverride)
		}
	}
	return s.Schedules.ListOverrides(providerID, from, to)
}

// SetOverride upserts the override for its date. Equal start and end times
// are valid and block the whole day.
func (s *ScheduleService) SetOverride(salonID int, req entities.DateOverrideRequest) (*db.DateOverride, error) {
	if _, err := s.Schedules.GetProvider(salonID, req.ProviderID); err != nil {
		return nil, err
	}
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		return nil, fmt.Errorf("bad date %q: %w", req.Date, availability.ErrInvalidOverride)
	}
	start, end, err := parseClockPair(req.StartTime, req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, availability.ErrInvalidOverride)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("override end %s precedes start %s: %w", req.EndTime, req.StartTime, availability.ErrInvalidOverride)
	}

	override := &db.DateOverride{
		ProviderID: req.ProviderID,
		Date:       req.Date,
		StartTime:  start.String(),
		EndTime:    end.String(),
	}
	if err := s.Schedules.UpsertOverride(override); err != nil {
		return nil, err
	}
	return override, nil
}

func (s *ScheduleService) DeleteOverride(salonID, providerID int, date string) error {
	if _, err := s.Schedules.GetProvider(salonID, providerID); err != nil {
		return err
	}
	return s.Schedules.DeleteOverride(providerID, date)
}

func (s *ScheduleService) ListCalendarFeeds(salonID, providerID int) ([]db.CalendarFeed, error) {
	if _, err := s.Schedules.GetProvider(salonID, providerID); err != nil {
		return nil, err
	}
	return s.Feeds.ListFeedsByProvider(providerID)
}

func (s *ScheduleService) CreateCalendarFeed(salonID, providerID int, calendarID, accessToken string) (*db.CalendarFeed, error) {
	if _, err := s.Schedules.GetProvider(salonID, providerID); err != nil {
		return nil, err
	}
	feed := &db.CalendarFeed{ProviderID: providerID, CalendarID: calendarID, AccessToken: accessToken}
	if err := s.Feeds.CreateFeed(feed); err != nil {
		return nil, err
	}
	return feed, nil
}

func (s *ScheduleService) DeleteCalendarFeed(salonID, providerID, feedID int) error {
	if _, err := s.Schedules.GetProvider(salonID, providerID); err != nil {
		return err
	}
	return s.Feeds.DeleteFeed(providerID, feedID)
}

func (s *ScheduleService) ListEventTypes(salonID int) ([]db.EventType, error) {
	return s.EventTypes.ListEventTypes(salonID)
}

func (s *ScheduleService) CreateEventType(salonID int, req entities.EventTypeRequest) (*db.EventType, error) {
	et := &db.EventType{SalonID: salonID}
	if err := applyEventTypeRequest(et, req); err != nil {
		return nil, err
	}
	if err := s.EventTypes.CreateEventType(et); err != nil {
		return nil, err
	}
	return et, nil
}

func (s *ScheduleService) UpdateEventType(salonID, id int, req entities.EventTypeRequest) (*db.EventType, error) {
	et, err := s.EventTypes.GetEventType(salonID, id)
	if err != nil {
		return nil, err
	}
	if err := applyEventTypeRequest(et, req); err != nil {
		return nil, err
	}
	if err := s.EventTypes.UpdateEventType(et); err != nil {
		return nil, err
	}
	return et, nil
}

func (s *ScheduleService) DeleteEventType(salonID, id int) error {
	return s.EventTypes.DeleteEventType(salonID, id)
}

func applyEventTypeRequest(et *db.EventType, req entities.EventTypeRequest) error {
	if req.Name == "" {
		return fmt.Errorf("event type name cannot be empty")
	}
	if req.DurationMin <= 0 {
		return availability.ErrInvalidDuration
	}
	if req.SlotIntervalMin < 0 {
		return availability.ErrInvalidSlotInterval
	}
	if req.MinNoticeMin < 0 {
		return availability.ErrInvalidNotice
	}
	if req.BufferBeforeMin < 0 || req.BufferAfterMin < 0 {
		return availability.ErrInvalidBuffer
	}
	if req.PriceCents < 0 {
		return fmt.Errorf("price cannot be negative")
	}

	et.Name = req.Name
	et.DurationMin = req.DurationMin
	et.SlotIntervalMin = req.SlotIntervalMin
	et.MinNoticeMin = req.MinNoticeMin
	et.BufferBeforeMin = req.BufferBeforeMin
	et.BufferAfterMin = req.BufferAfterMin
	et.PriceCents = req.PriceCents
	et.Currency = req.Currency
	return nil
}

func parseClockPair(startRaw, endRaw string) (availability.ClockTime, availability.ClockTime, error) {
	start, err := availability.ParseClock(startRaw)
	if err != nil {
		return availability.ClockTime{}, availability.ClockTime{}, fmt.Errorf("bad start time %q: %v", startRaw, err)
	}
	end, err := availability.ParseClock(endRaw)
	if err != nil {
		return availability.ClockTime{}, availability.ClockTime{}, fmt.Errorf("bad end time %q: %v", endRaw, err)
	}
	return start, end, nil
}
