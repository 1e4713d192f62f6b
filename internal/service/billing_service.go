package service

import (
	"salonbook/internal/repository"
)

// BillingService handles the salon-side Stripe surface: the SaaS plan
// subscription and the bookkeeping the payment webhooks need.
type BillingService struct {
	Repo   *repository.StripeRepository
	Stripe *StripeService
}

func NewBillingService(repo *repository.StripeRepository, stripe *StripeService) *BillingService {
	return &BillingService{Repo: repo, Stripe: stripe}
}

// StartSubscription opens a checkout session for the salon's plan and
// returns the redirect URL.
func (s *BillingService) StartSubscription(salonID int, customerEmail string) (string, error) {
	url, _, err := s.Stripe.CreateSubscriptionSession(customerEmail, salonID)
	return url, err
}

func (s *BillingService) ActivateSubscription(salonID int, customerID, subscriptionID string) error {
	return s.Repo.UpdateSalonSubscription(salonID, customerID, subscriptionID, "active")
}

func (s *BillingService) CancelSubscription(subscriptionID string) error {
	salonID, err := s.Repo.GetSalonIDBySubscription(subscriptionID)
	if err != nil {
		return err
	}
	return s.Repo.UpdateSalonSubscription(salonID, "", "", "cancelled")
}

func (s *BillingService) RecordBookingPayment(bookingID int, paymentIntentID, status, paymentStatus string) error {
	return s.Repo.UpdateBookingStripeInfo(bookingID, paymentIntentID, status, paymentStatus)
}
