package entities

type WeeklyRuleRequest struct {
	ProviderID int    `json:"provider_id"`
	DayOfWeek  int    `json:"day_of_week"` // 0 = Sunday
	StartTime  string `json:"start_time"`  // "HH:MM"
	EndTime    string `json:"end_time"`
}

// DateOverrideRequest with equal start and end times blocks the whole day.
type DateOverrideRequest struct {
	ProviderID int    `json:"provider_id"`
	Date       string `json:"date"` // "2006-01-02"
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

type EventTypeRequest struct {
	Name            string `json:"name"`
	DurationMin     int    `json:"duration_min"`
	SlotIntervalMin int    `json:"slot_interval_min"`
	MinNoticeMin    int    `json:"min_notice_min"`
	BufferBeforeMin int    `json:"buffer_before_min"`
	BufferAfterMin  int    `json:"buffer_after_min"`
	PriceCents      int    `json:"price_cents"`
	Currency        string `json:"currency"`
}
