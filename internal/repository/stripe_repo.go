package repository

import (
	"database/sql"
	"fmt"
	"time"
)

type StripeRepository struct {
	DB *sql.DB
}

func NewStripeRepository(database *sql.DB) *StripeRepository {
	return &StripeRepository{DB: database}
}

func (r *StripeRepository) UpdateBookingStripeInfo(bookingID int, paymentIntentID, newStatus, newPaymentStatus string) error {
	query := `
		UPDATE bookings
		SET
			stripe_payment_intent_id = $2,
			status = $3,
			payment_status = $4,
			updated_at = $5
		WHERE id = $1`

	_, err := r.DB.Exec(query, bookingID, paymentIntentID, newStatus, newPaymentStatus, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("error updating booking %d with Stripe info: %w", bookingID, err)
	}
	return nil
}

func (r *StripeRepository) UpdateSalonSubscription(salonID int, customerID, subscriptionID, planStatus string) error {
	_, err := r.DB.Exec(
		`UPDATE salons
		 SET stripe_customer_id = $2, stripe_subscription_id = $3, plan_status = $4
		 WHERE id = $1`,
		salonID, customerID, subscriptionID, planStatus,
	)
	if err != nil {
		return fmt.Errorf("error updating salon %d subscription: %w", salonID, err)
	}
	return nil
}

func (r *StripeRepository) GetSalonIDBySubscription(subscriptionID string) (int, error) {
	var salonID int
	err := r.DB.QueryRow(
		`SELECT id FROM salons WHERE stripe_subscription_id = $1`,
		subscriptionID,
	).Scan(&salonID)
	if err != nil {
		return 0, fmt.Errorf("error finding salon for subscription %s: %w", subscriptionID, err)
	}
	return salonID, nil
}
