package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonbook/internal/db"
	"salonbook/internal/entities"
	"salonbook/internal/repository"
)

type fakeBookingStore struct {
	created       *db.Booking
	createErr     error
	byCode        map[string]*db.Booking
	bySession     map[string]*db.Booking
	updatedID     int
	updatedStatus string
	updatedPay    string
}

func newFakeBookingStore() *fakeBookingStore {
	return &fakeBookingStore{
		byCode:    map[string]*db.Booking{},
		bySession: map[string]*db.Booking{},
	}
}

func (f *fakeBookingStore) CreateBooking(b *db.Booking) error {
	if f.createErr != nil {
		return f.createErr
	}
	b.ID = 1
	f.created = b
	f.byCode[b.Code] = b
	return nil
}

func (f *fakeBookingStore) GetBookingByCode(salonID int, code string) (*db.Booking, error) {
	b, ok := f.byCode[code]
	if !ok || b.SalonID != salonID {
		return nil, errors.New("booking not found")
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookingStore) GetBookingByStripeSessionID(sessionID string) (*db.Booking, error) {
	b, ok := f.bySession[sessionID]
	if !ok {
		return nil, errors.New("booking not found")
	}
	copied := *b
	return &copied, nil
}

func (f *fakeBookingStore) UpdateBookingTimes(id int, start, end time.Time) error {
	for _, b := range f.byCode {
		if b.ID == id {
			b.StartTime = start
			b.EndTime = end
			return nil
		}
	}
	return errors.New("booking not found")
}

func (f *fakeBookingStore) UpdateBookingAndPaymentStatus(id int, status, paymentStatus string) error {
	f.updatedID = id
	f.updatedStatus = status
	f.updatedPay = paymentStatus
	return nil
}

func (f *fakeBookingStore) ListBookings(salonID, providerID int, date, status string, limit, offset int) (*entities.BookingsList, error) {
	return &entities.BookingsList{Limit: limit, Offset: offset}, nil
}

type fakeSlotChecker struct {
	bookable bool
	err      error
}

func (f fakeSlotChecker) IsSlotBookable(ctx context.Context, salonID, providerID, eventTypeID int, start time.Time) (bool, *db.EventType, *db.Provider, error) {
	if f.err != nil {
		return false, nil, nil, f.err
	}
	return f.bookable, testEventType(), testProvider(), nil
}

type fakePayments struct {
	checkoutAmount int64
	checkoutDesc   string
	refundedID     string
	refundErr      error
}

func (f *fakePayments) CreateCheckoutSession(amount int64, currency, description, customerEmail string) (string, string, error) {
	f.checkoutAmount = amount
	f.checkoutDesc = description
	return "https://checkout.test/pay", "cs_test_123", nil
}

func (f *fakePayments) RefundPaymentBySessionID(sessionID string) error {
	if f.refundErr != nil {
		return f.refundErr
	}
	f.refundedID = sessionID
	return nil
}

type fakeNotifier struct {
	lastStatus string
	lastCode   string
}

func (f *fakeNotifier) NotifyBookingStatus(booking entities.BookingResponse, status string) {
	f.lastStatus = status
	f.lastCode = booking.Code
}

func bookingRequest(start time.Time) *entities.BookingRequest {
	return &entities.BookingRequest{
		ProviderID:  7,
		EventTypeID: 3,
		ClientName:  "Mia",
		ClientEmail: "mia@example.com",
		ClientPhone: "+381601234567",
		StartTime:   start,
		Language:    "en",
	}
}

func TestCreateBookingPersistsPendingWithCheckout(t *testing.T) {
	store := newFakeBookingStore()
	payments := &fakePayments{}
	svc := NewBookingService(store, fakeSlotChecker{bookable: true}, payments, &fakeNotifier{})

	start := time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)
	checkout, err := svc.CreateBooking(context.Background(), 1, bookingRequest(start))
	require.NoError(t, err)

	require.NotNil(t, store.created)
	assert.Equal(t, "pending", store.created.Status)
	assert.Equal(t, "pending", store.created.PaymentStatus)
	assert.True(t, store.created.EndTime.Equal(start.Add(30*time.Minute)))
	assert.Equal(t, "cs_test_123", store.created.StripeSessionID)

	assert.Equal(t, int64(3000), payments.checkoutAmount)
	assert.Contains(t, payments.checkoutDesc, "Haircut")

	assert.Len(t, checkout.Code, 8)
	assert.Equal(t, "https://checkout.test/pay", checkout.URL)
	assert.Equal(t, "cs_test_123", checkout.SessionID)
}

func TestCreateBookingRejectsTakenSlot(t *testing.T) {
	store := newFakeBookingStore()
	svc := NewBookingService(store, fakeSlotChecker{bookable: false}, &fakePayments{}, &fakeNotifier{})

	_, err := svc.CreateBooking(context.Background(), 1, bookingRequest(time.Now().Add(48*time.Hour)))
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
	assert.Nil(t, store.created)
}

// A concurrent request can win the slot between the availability re-check
// and the insert; the constraint violation must read as a slot conflict.
func TestCreateBookingOverlapInsertMapsToConflict(t *testing.T) {
	store := newFakeBookingStore()
	store.createErr = repository.ErrBookingOverlap
	svc := NewBookingService(store, fakeSlotChecker{bookable: true}, &fakePayments{}, &fakeNotifier{})

	_, err := svc.CreateBooking(context.Background(), 1, bookingRequest(time.Now().Add(48*time.Hour)))
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestCancelBookingRefundsAndNotifies(t *testing.T) {
	store := newFakeBookingStore()
	store.byCode["ABCD1234"] = &db.Booking{
		ID: 5, Code: "ABCD1234", SalonID: 1,
		Status: "confirmed", PaymentStatus: "paid",
		StripeSessionID: "cs_live_9",
		StartTime:       time.Now().Add(48 * time.Hour),
	}
	payments := &fakePayments{}
	notifier := &fakeNotifier{}
	svc := NewBookingService(store, fakeSlotChecker{}, payments, notifier)

	require.NoError(t, svc.CancelBooking(1, "ABCD1234"))

	assert.Equal(t, "cs_live_9", payments.refundedID)
	assert.Equal(t, 5, store.updatedID)
	assert.Equal(t, "cancelled", store.updatedStatus)
	assert.Equal(t, "refunded", store.updatedPay)
	assert.Equal(t, "cancelled", notifier.lastStatus)
	assert.Equal(t, "ABCD1234", notifier.lastCode)
}

func TestCancelBookingInsideNoticeWindow(t *testing.T) {
	store := newFakeBookingStore()
	store.byCode["SOON1234"] = &db.Booking{
		ID: 6, Code: "SOON1234", SalonID: 1,
		Status: "confirmed", PaymentStatus: "paid",
		StartTime: time.Now().Add(2 * time.Hour),
	}
	payments := &fakePayments{}
	svc := NewBookingService(store, fakeSlotChecker{}, payments, &fakeNotifier{})

	err := svc.CancelBooking(1, "SOON1234")
	assert.ErrorIs(t, err, ErrTooLateToCancel)
	assert.Empty(t, payments.refundedID)
}

func TestCancelBookingAlreadyCancelled(t *testing.T) {
	store := newFakeBookingStore()
	store.byCode["GONE1234"] = &db.Booking{
		ID: 8, Code: "GONE1234", SalonID: 1,
		Status:    "cancelled",
		StartTime: time.Now().Add(48 * time.Hour),
	}
	svc := NewBookingService(store, fakeSlotChecker{}, &fakePayments{}, &fakeNotifier{})

	assert.ErrorIs(t, svc.CancelBooking(1, "GONE1234"), ErrAlreadyCancelled)
}

func TestCancelBookingRefundFailureAborts(t *testing.T) {
	store := newFakeBookingStore()
	store.byCode["PAID1234"] = &db.Booking{
		ID: 9, Code: "PAID1234", SalonID: 1,
		Status: "confirmed", PaymentStatus: "paid",
		StripeSessionID: "cs_live_1",
		StartTime:       time.Now().Add(48 * time.Hour),
	}
	svc := NewBookingService(store, fakeSlotChecker{}, &fakePayments{refundErr: errors.New("stripe down")}, &fakeNotifier{})

	err := svc.CancelBooking(1, "PAID1234")
	require.Error(t, err)
	// Status untouched on refund failure.
	assert.Zero(t, store.updatedID)
}

func TestRescheduleBookingMovesTimes(t *testing.T) {
	store := newFakeBookingStore()
	store.byCode["MOVE1234"] = &db.Booking{
		ID: 20, Code: "MOVE1234", SalonID: 1, ProviderID: 7, EventTypeID: 3,
		Status: "confirmed", PaymentStatus: "paid",
		StartTime: time.Now().Add(48 * time.Hour),
	}
	notifier := &fakeNotifier{}
	svc := NewBookingService(store, fakeSlotChecker{bookable: true}, &fakePayments{}, notifier)

	newStart := time.Now().Add(72 * time.Hour).Truncate(time.Minute)
	resp, err := svc.RescheduleBooking(context.Background(), 1, "MOVE1234", newStart)
	require.NoError(t, err)

	assert.True(t, resp.StartTime.Equal(newStart))
	assert.True(t, resp.EndTime.Equal(newStart.Add(30*time.Minute)))
	assert.True(t, store.byCode["MOVE1234"].StartTime.Equal(newStart))
	assert.Equal(t, "confirmed", notifier.lastStatus)
}

func TestRescheduleBookingRejectsTakenSlot(t *testing.T) {
	store := newFakeBookingStore()
	store.byCode["MOVE5678"] = &db.Booking{
		ID: 21, Code: "MOVE5678", SalonID: 1, ProviderID: 7, EventTypeID: 3,
		Status:    "confirmed",
		StartTime: time.Now().Add(48 * time.Hour),
	}
	svc := NewBookingService(store, fakeSlotChecker{bookable: false}, &fakePayments{}, &fakeNotifier{})

	_, err := svc.RescheduleBooking(context.Background(), 1, "MOVE5678", time.Now().Add(72*time.Hour))
	assert.ErrorIs(t, err, ErrSlotNotAvailable)
}

func TestConfirmBySessionID(t *testing.T) {
	store := newFakeBookingStore()
	store.bySession["cs_test_7"] = &db.Booking{
		ID: 11, Code: "WXYZ9876", SalonID: 1,
		Status: "pending", PaymentStatus: "pending",
		StripeSessionID: "cs_test_7",
	}
	notifier := &fakeNotifier{}
	svc := NewBookingService(store, fakeSlotChecker{}, &fakePayments{}, notifier)

	require.NoError(t, svc.ConfirmBySessionID("cs_test_7", "pi_42"))

	assert.Equal(t, 11, store.updatedID)
	assert.Equal(t, "confirmed", store.updatedStatus)
	assert.Equal(t, "paid", store.updatedPay)
	assert.Equal(t, "confirmed", notifier.lastStatus)
}

func TestConfirmBySessionIDCancelledBooking(t *testing.T) {
	store := newFakeBookingStore()
	store.bySession["cs_test_8"] = &db.Booking{
		ID: 12, Code: "LATE9876", SalonID: 1,
		Status:          "cancelled",
		StripeSessionID: "cs_test_8",
	}
	svc := NewBookingService(store, fakeSlotChecker{}, &fakePayments{}, &fakeNotifier{})

	assert.ErrorIs(t, svc.ConfirmBySessionID("cs_test_8", "pi_43"), ErrAlreadyCancelled)
}

func TestMarkRefundedBySessionID(t *testing.T) {
	store := newFakeBookingStore()
	store.bySession["cs_test_9"] = &db.Booking{
		ID: 13, Code: "REFD9876", SalonID: 1,
		Status: "confirmed", PaymentStatus: "paid",
	}
	svc := NewBookingService(store, fakeSlotChecker{}, &fakePayments{}, &fakeNotifier{})

	require.NoError(t, svc.MarkRefundedBySessionID("cs_test_9"))
	assert.Equal(t, "cancelled", store.updatedStatus)
	assert.Equal(t, "refunded", store.updatedPay)
}
