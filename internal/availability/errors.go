package availability

import "errors"

var (
	ErrInvalidRange        = errors.New("availability: query start is after query end")
	ErrInvalidDuration     = errors.New("availability: event duration must be positive")
	ErrInvalidSlotInterval = errors.New("availability: slot interval must not be negative")
	ErrInvalidNotice       = errors.New("availability: minimum notice must not be negative")
	ErrInvalidBuffer       = errors.New("availability: buffers must not be negative")
	ErrInvalidTimeZone     = errors.New("availability: unknown time zone")
	ErrInvalidRule         = errors.New("availability: invalid weekly rule")
	ErrInvalidOverride     = errors.New("availability: invalid date override")
	ErrDuplicateOverride   = errors.New("availability: duplicate override for date")
)
