package db

import "time"

type Salon struct {
	ID                   int
	Name                 string
	PlanStatus           string
	StripeCustomerID     string
	StripeSubscriptionID string
	CreatedAt            time.Time
}

type Staff struct {
	ID           int
	SalonID      int
	Email        string
	PasswordHash string
	Phone        string
	Verified     bool
	OTPCode      string
	OTPExpiresAt time.Time
	CreatedAt    time.Time
}

type Provider struct {
	ID       int
	SalonID  int
	Name     string
	TimeZone string
	Active   bool
}

type EventType struct {
	ID              int
	SalonID         int
	Name            string
	DurationMin     int
	SlotIntervalMin int
	MinNoticeMin    int
	BufferBeforeMin int
	BufferAfterMin  int
	PriceCents      int
	Currency        string
}

// WeeklyRule and DateOverride store wall-clock times as "HH:MM" strings in
// the provider's time zone. An override with start_time == end_time marks
// the whole day blocked; the schema fixes that encoding, callers go through
// availability.DateOverride.Blocked instead of comparing the fields.
type WeeklyRule struct {
	ID         int
	ProviderID int
	DayOfWeek  int // 0 = Sunday
	StartTime  string
	EndTime    string
}

type DateOverride struct {
	ID         int
	ProviderID int
	Date       string // "2006-01-02"
	StartTime  string
	EndTime    string
}

type Booking struct {
	ID                    int
	Code                  string
	SalonID               int
	ProviderID            int
	EventTypeID           int
	ClientName            string
	ClientEmail           string
	ClientPhone           string
	Status                string
	StartTime             time.Time
	EndTime               time.Time
	StripeSessionID       string
	StripePaymentIntentID string
	PaymentStatus         string
	Language              string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// CalendarFeed is an external calendar linked to a provider. The engine only
// ever sees the busy intervals it yields; the stored token is opaque.
type CalendarFeed struct {
	ID          int
	ProviderID  int
	CalendarID  string
	AccessToken string
	CreatedAt   time.Time
}
