package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"

	"salonbook/internal/availability"
	"salonbook/internal/db"
	"salonbook/internal/entities"
)

// ErrBookingOverlap reports the bookings_no_overlap exclusion constraint
// firing: another pending or confirmed booking already holds the interval.
var ErrBookingOverlap = errors.New("booking overlaps an existing booking")

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(database *sql.DB) *BookingRepository {
	return &BookingRepository{DB: database}
}

// CreateBooking inserts the row. The availability check callers run first
// is not atomic with this insert; the schema's bookings_no_overlap
// constraint (EXCLUDE on provider_id and the tstzrange of pending and
// confirmed rows) settles concurrent requests for the same slot, and the
// loser gets ErrBookingOverlap.
func (r *BookingRepository) CreateBooking(b *db.Booking) error {
	query := `
		INSERT INTO bookings
		(code, salon_id, provider_id, event_type_id, client_name, client_email, client_phone,
		 status, start_time, end_time, stripe_session_id, stripe_payment_intent_id, payment_status,
		 language, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`
	err := r.DB.QueryRow(query,
		b.Code,
		b.SalonID,
		b.ProviderID,
		b.EventTypeID,
		b.ClientName,
		b.ClientEmail,
		b.ClientPhone,
		b.Status,
		b.StartTime,
		b.EndTime,
		b.StripeSessionID,
		b.StripePaymentIntentID,
		b.PaymentStatus,
		b.Language,
		b.CreatedAt,
		b.UpdatedAt,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23P01" {
		return ErrBookingOverlap
	}
	return err
}

// GetBusyIntervals returns every pending or confirmed booking for the
// provider overlapping [from, to), mapped to engine busy intervals. Only
// those two statuses block availability; cancelled and completed do not.
func (r *BookingRepository) GetBusyIntervals(providerID int, from, to time.Time) ([]availability.BusyInterval, error) {
	query := `
		SELECT start_time, end_time
		FROM bookings
		WHERE provider_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time`

	rows, err := r.DB.Query(query, providerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("error querying booked intervals: %w", err)
	}
	defer rows.Close()

	var busy []availability.BusyInterval
	for rows.Next() {
		var b availability.BusyInterval
		if err := rows.Scan(&b.Start, &b.End); err != nil {
			return nil, fmt.Errorf("error scanning booked interval: %w", err)
		}
		b.Source = availability.BusySourceBooking
		busy = append(busy, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating booked intervals: %w", err)
	}
	return busy, nil
}

func (r *BookingRepository) GetBookingByCode(salonID int, code string) (*db.Booking, error) {
	var b db.Booking
	query := `
		SELECT id, code, salon_id, provider_id, event_type_id, client_name, client_email, client_phone,
		       status, start_time, end_time, stripe_session_id, stripe_payment_intent_id, payment_status,
		       language, created_at, updated_at
		FROM bookings WHERE salon_id = $1 AND code = $2`
	err := r.DB.QueryRow(query, salonID, code).Scan(
		&b.ID, &b.Code, &b.SalonID, &b.ProviderID, &b.EventTypeID, &b.ClientName, &b.ClientEmail, &b.ClientPhone,
		&b.Status, &b.StartTime, &b.EndTime, &b.StripeSessionID, &b.StripePaymentIntentID, &b.PaymentStatus,
		&b.Language, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("booking with code '%s' not found: %w", code, err)
		}
		return nil, fmt.Errorf("error querying booking: %w", err)
	}
	return &b, nil
}

func (r *BookingRepository) GetBookingByStripeSessionID(sessionID string) (*db.Booking, error) {
	var b db.Booking
	query := `
		SELECT id, code, salon_id, provider_id, event_type_id, client_name, client_email, client_phone,
		       status, start_time, end_time, stripe_session_id, stripe_payment_intent_id, payment_status,
		       language, created_at, updated_at
		FROM bookings WHERE stripe_session_id = $1`
	err := r.DB.QueryRow(query, sessionID).Scan(
		&b.ID, &b.Code, &b.SalonID, &b.ProviderID, &b.EventTypeID, &b.ClientName, &b.ClientEmail, &b.ClientPhone,
		&b.Status, &b.StartTime, &b.EndTime, &b.StripeSessionID, &b.StripePaymentIntentID, &b.PaymentStatus,
		&b.Language, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("booking for session '%s' not found: %w", sessionID, err)
		}
		return nil, fmt.Errorf("error querying booking by session: %w", err)
	}
	return &b, nil
}

func (r *BookingRepository) UpdateBookingStatus(id int, status string) error {
	_, err := r.DB.Exec(
		`UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id,
	)
	return err
}

func (r *BookingRepository) UpdateBookingAndPaymentStatus(id int, status, paymentStatus string) error {
	_, err := r.DB.Exec(
		`UPDATE bookings SET status = $1, payment_status = $2, updated_at = NOW() WHERE id = $3`,
		status, paymentStatus, id,
	)
	return err
}

func (r *BookingRepository) UpdateBookingTimes(id int, start, end time.Time) error {
	_, err := r.DB.Exec(
		`UPDATE bookings SET start_time = $1, end_time = $2, updated_at = NOW() WHERE id = $3`,
		start, end, id,
	)
	return err
}

func (r *BookingRepository) DeleteBookingByID(salonID, id int) error {
	res, err := r.DB.Exec(`DELETE FROM bookings WHERE salon_id = $1 AND id = $2`, salonID, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *BookingRepository) ListBookings(salonID int, providerID int, date, status string, limit, offset int) (*entities.BookingsList, error) {
	query := `
	SELECT
		b.code, b.provider_id, p.name AS provider_name, b.event_type_id, et.name AS event_type_name,
		b.client_name, b.client_email, b.client_phone,
		b.status, b.start_time, b.end_time, b.payment_status, b.language, b.created_at, b.updated_at,
		COUNT(*) OVER() AS total
	FROM bookings b
	JOIN providers p ON p.id = b.provider_id
	JOIN event_types et ON et.id = b.event_type_id
	WHERE b.salon_id = $1`
	args := []interface{}{salonID}
	idx := 2

	if providerID != 0 {
		query += " AND b.provider_id = $" + strconv.Itoa(idx)
		args = append(args, providerID)
		idx++
	}
	if date != "" {
		query += " AND DATE(b.start_time AT TIME ZONE p.time_zone) = $" + strconv.Itoa(idx)
		args = append(args, date)
		idx++
	}
	if status != "" {
		query += " AND b.status = $" + strconv.Itoa(idx)
		args = append(args, status)
		idx++
	}
	query += " ORDER BY b.start_time DESC LIMIT $" + strconv.Itoa(idx) + " OFFSET $" + strconv.Itoa(idx+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings: %w", err)
	}
	defer rows.Close()

	list := &entities.BookingsList{Limit: limit, Offset: offset}
	for rows.Next() {
		var b entities.BookingResponse
		err := rows.Scan(
			&b.Code, &b.ProviderID, &b.ProviderName, &b.EventTypeID, &b.EventTypeName,
			&b.ClientName, &b.ClientEmail, &b.ClientPhone,
			&b.Status, &b.StartTime, &b.EndTime, &b.PaymentStatus, &b.Language, &b.CreatedAt, &b.UpdatedAt,
			&list.Total,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking row: %w", err)
		}
		list.Bookings = append(list.Bookings, b)
	}
	return list, rows.Err()
}
