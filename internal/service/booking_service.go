package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"salonbook/internal/db"
	"salonbook/internal/entities"
	"salonbook/internal/repository"
	"salonbook/internal/utils"
)

const (
	statusPending   = "pending"
	statusConfirmed = "confirmed"
	statusCancelled = "cancelled"

	paymentPending  = "pending"
	paymentPaid     = "paid"
	paymentRefunded = "refunded"
)

// SlotChecker is the slice of AvailabilityService booking creation needs.
type SlotChecker interface {
	IsSlotBookable(ctx context.Context, salonID, providerID, eventTypeID int, start time.Time) (bool, *db.EventType, *db.Provider, error)
}

// BookingStore is the repository surface the booking flow touches.
type BookingStore interface {
	CreateBooking(b *db.Booking) error
	GetBookingByCode(salonID int, code string) (*db.Booking, error)
	GetBookingByStripeSessionID(sessionID string) (*db.Booking, error)
	UpdateBookingAndPaymentStatus(id int, status, paymentStatus string) error
	UpdateBookingTimes(id int, start, end time.Time) error
	ListBookings(salonID, providerID int, date, status string, limit, offset int) (*entities.BookingsList, error)
}

// PaymentProvider abstracts the Stripe calls so booking flow tests can run
// without the Stripe backend.
type PaymentProvider interface {
	CreateCheckoutSession(amount int64, currency, description, customerEmail string) (string, string, error)
	RefundPaymentBySessionID(sessionID string) error
}

// Notifier sends booking status notifications. Implementations must not
// block the request path; failures are logged, never returned.
type Notifier interface {
	NotifyBookingStatus(booking entities.BookingResponse, status string)
}

type BookingService struct {
	Repo         BookingStore
	Availability SlotChecker
	Payments     PaymentProvider
	Notify       Notifier
	CancelNotice time.Duration
}

func NewBookingService(repo BookingStore, availability SlotChecker, payments PaymentProvider, notify Notifier) *BookingService {
	return &BookingService{
		Repo:         repo,
		Availability: availability,
		Payments:     payments,
		Notify:       notify,
		CancelNotice: 12 * time.Hour,
	}
}

// CreateBooking re-checks the slot against the live schedule right before
// inserting, opens a Stripe Checkout session for the deposit, and persists
// the booking as pending until the webhook confirms payment.
func (s *BookingService) CreateBooking(ctx context.Context, salonID int, req *entities.BookingRequest) (*entities.CheckoutResponse, error) {
	logger := utils.GetLogger()

	ok, eventType, _, err := s.Availability.IsSlotBookable(ctx, salonID, req.ProviderID, req.EventTypeID, req.StartTime)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSlotNotAvailable
	}

	code := newBookingCode()
	now := time.Now().UTC()
	booking := &db.Booking{
		Code:          code,
		SalonID:       salonID,
		ProviderID:    req.ProviderID,
		EventTypeID:   req.EventTypeID,
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		ClientPhone:   req.ClientPhone,
		Status:        statusPending,
		StartTime:     req.StartTime,
		EndTime:       req.StartTime.Add(time.Duration(eventType.DurationMin) * time.Minute),
		PaymentStatus: paymentPending,
		Language:      req.Language,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	description := fmt.Sprintf("%s - booking %s", eventType.Name, code)
	sessionURL, sessionID, err := s.Payments.CreateCheckoutSession(
		int64(eventType.PriceCents), eventType.Currency, description, req.ClientEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating checkout session: %w", err)
	}
	booking.StripeSessionID = sessionID

	// A concurrent request for the same slot can pass the re-check above
	// before either row lands; the insert reports the overlap instead.
	if err := s.Repo.CreateBooking(booking); err != nil {
		if errors.Is(err, repository.ErrBookingOverlap) {
			return nil, ErrSlotNotAvailable
		}
		logger.Error("creating booking failed", zap.String("code", code), zap.Error(err))
		return nil, err
	}

	return &entities.CheckoutResponse{Code: code, URL: sessionURL, SessionID: sessionID}, nil
}

func (s *BookingService) GetBookingByCode(salonID int, code string) (*entities.BookingResponse, error) {
	booking, err := s.Repo.GetBookingByCode(salonID, code)
	if err != nil {
		return nil, err
	}
	resp := toBookingResponse(booking)
	return &resp, nil
}

func (s *BookingService) ListBookings(salonID, providerID int, date, status string, limit, offset int) (*entities.BookingsList, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.Repo.ListBookings(salonID, providerID, date, status, limit, offset)
}

// CancelBooking refuses inside the cancellation notice window, refunds a
// paid deposit, marks the row cancelled and fires the notifications.
func (s *BookingService) CancelBooking(salonID int, code string) error {
	logger := utils.GetLogger()

	booking, err := s.Repo.GetBookingByCode(salonID, code)
	if err != nil {
		return err
	}
	if booking.Status == statusCancelled {
		return ErrAlreadyCancelled
	}
	if time.Until(booking.StartTime) < s.CancelNotice {
		return ErrTooLateToCancel
	}

	paymentStatus := booking.PaymentStatus
	if booking.PaymentStatus == paymentPaid && booking.StripeSessionID != "" {
		if err := s.Payments.RefundPaymentBySessionID(booking.StripeSessionID); err != nil {
			return fmt.Errorf("error refunding booking %s: %w", code, err)
		}
		paymentStatus = paymentRefunded
	}

	if err := s.Repo.UpdateBookingAndPaymentStatus(booking.ID, statusCancelled, paymentStatus); err != nil {
		return err
	}

	booking.Status = statusCancelled
	booking.PaymentStatus = paymentStatus
	if s.Notify != nil {
		s.Notify.NotifyBookingStatus(toBookingResponse(booking), statusCancelled)
	}
	logger.Info("booking cancelled", zap.String("code", code), zap.Int("salonID", salonID))
	return nil
}

// RescheduleBooking moves an existing booking to a new start after checking
// the new slot the same way creation does. The booking's own interval still
// counts as busy here, so a reschedule within its current window is refused;
// clients cancel-and-rebook for that case.
func (s *BookingService) RescheduleBooking(ctx context.Context, salonID int, code string, newStart time.Time) (*entities.BookingResponse, error) {
	booking, err := s.Repo.GetBookingByCode(salonID, code)
	if err != nil {
		return nil, err
	}
	if booking.Status == statusCancelled {
		return nil, ErrAlreadyCancelled
	}
	if time.Until(booking.StartTime) < s.CancelNotice {
		return nil, ErrTooLateToCancel
	}

	ok, eventType, _, err := s.Availability.IsSlotBookable(ctx, salonID, booking.ProviderID, booking.EventTypeID, newStart)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSlotNotAvailable
	}

	newEnd := newStart.Add(time.Duration(eventType.DurationMin) * time.Minute)
	if err := s.Repo.UpdateBookingTimes(booking.ID, newStart, newEnd); err != nil {
		return nil, err
	}

	booking.StartTime = newStart
	booking.EndTime = newEnd
	resp := toBookingResponse(booking)
	if s.Notify != nil {
		s.Notify.NotifyBookingStatus(resp, booking.Status)
	}
	return &resp, nil
}

// ConfirmBySessionID flips a pending booking to confirmed once Stripe
// reports the checkout session paid. Called from the webhook handler.
func (s *BookingService) ConfirmBySessionID(sessionID, paymentIntentID string) error {
	booking, err := s.Repo.GetBookingByStripeSessionID(sessionID)
	if err != nil {
		return err
	}
	if booking.Status == statusCancelled {
		return ErrAlreadyCancelled
	}

	if err := s.Repo.UpdateBookingAndPaymentStatus(booking.ID, statusConfirmed, paymentPaid); err != nil {
		return err
	}

	booking.Status = statusConfirmed
	booking.PaymentStatus = paymentPaid
	booking.StripePaymentIntentID = paymentIntentID
	if s.Notify != nil {
		s.Notify.NotifyBookingStatus(toBookingResponse(booking), statusConfirmed)
	}
	return nil
}

// MarkRefundedBySessionID handles the charge.refunded webhook: the deposit
// came back outside our cancel flow, so record it without re-refunding.
func (s *BookingService) MarkRefundedBySessionID(sessionID string) error {
	booking, err := s.Repo.GetBookingByStripeSessionID(sessionID)
	if err != nil {
		return err
	}
	return s.Repo.UpdateBookingAndPaymentStatus(booking.ID, statusCancelled, paymentRefunded)
}

func toBookingResponse(b *db.Booking) entities.BookingResponse {
	return entities.BookingResponse{
		Code:          b.Code,
		ProviderID:    b.ProviderID,
		EventTypeID:   b.EventTypeID,
		ClientName:    b.ClientName,
		ClientEmail:   b.ClientEmail,
		ClientPhone:   b.ClientPhone,
		Status:        b.Status,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		PaymentStatus: b.PaymentStatus,
		Language:      b.Language,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

// newBookingCode returns the short uppercase code clients quote when
// managing a booking.
func newBookingCode() string {
	return strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
}
