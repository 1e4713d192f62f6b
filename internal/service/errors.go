package service

import "errors"

var (
	ErrSlotNotAvailable   = errors.New("requested slot is not available")
	ErrProviderInactive   = errors.New("provider is not accepting bookings")
	ErrTooLateToCancel    = errors.New("booking can no longer be cancelled")
	ErrAlreadyCancelled   = errors.New("booking is already cancelled")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotVerified = errors.New("account is not verified")
	ErrOTPInvalid         = errors.New("verification code is invalid or expired")
	ErrEmailTaken         = errors.New("email is already registered")
)
