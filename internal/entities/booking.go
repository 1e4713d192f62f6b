package entities

import "time"

type BookingRequest struct {
	ProviderID  int       `json:"provider_id"`
	EventTypeID int       `json:"event_type_id"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
	ClientPhone string    `json:"client_phone"`
	StartTime   time.Time `json:"start_time"`
	Language    string    `json:"language"`
}

type BookingResponse struct {
	Code          string    `json:"code"`
	ProviderID    int       `json:"provider_id"`
	ProviderName  string    `json:"provider_name,omitempty"`
	EventTypeID   int       `json:"event_type_id"`
	EventTypeName string    `json:"event_type_name,omitempty"`
	ClientName    string    `json:"client_name"`
	ClientEmail   string    `json:"client_email"`
	ClientPhone   string    `json:"client_phone"`
	Status        string    `json:"status"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	PaymentStatus string    `json:"payment_status,omitempty"`
	Language      string    `json:"language,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type BookingsList struct {
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
	Bookings []BookingResponse `json:"bookings"`
}

// CheckoutResponse is what booking creation returns: the booking code plus
// the Stripe Checkout redirect for the deposit.
type CheckoutResponse struct {
	Code      string `json:"code"`
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}
