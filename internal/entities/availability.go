package entities

import "time"

type AvailabilityRequest struct {
	ProviderID  int       `json:"provider_id"`
	EventTypeID int       `json:"event_type_id"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
}

type SlotResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type OpenRangeResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AvailabilityResponse carries the bookable slots plus the open working
// ranges actually considered, so a client can tell "fully booked" (empty
// slots, non-empty ranges) from "no hours configured" (both empty).
type AvailabilityResponse struct {
	ProviderID  int                 `json:"provider_id"`
	EventTypeID int                 `json:"event_type_id"`
	TimeZone    string              `json:"time_zone"`
	Slots       []SlotResponse      `json:"slots"`
	OpenRanges  []OpenRangeResponse `json:"open_ranges,omitempty"`
}
