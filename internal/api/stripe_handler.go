package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"go.uber.org/zap"

	"salonbook/internal/service"
	"salonbook/internal/utils"
)

type StripeWebhookHandler struct {
	StripeSecret string
	bookings     *service.BookingService
	billing      *service.BillingService
	stripeSvc    *service.StripeService
}

func NewStripeWebhookHandler(stripeSecret string, bookings *service.BookingService, billing *service.BillingService, stripeSvc *service.StripeService) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		StripeSecret: stripeSecret,
		bookings:     bookings,
		billing:      billing,
		stripeSvc:    stripeSvc,
	}
}

func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	logger := utils.GetLogger()

	const maxBodyBytes = int64(65536)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("reading webhook body failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.StripeSecret)
	if err != nil {
		logger.Warn("webhook signature verification failed", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil || sess.ID == "" {
			logger.Error("parsing checkout.session failed", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.handleCheckoutCompleted(&sess); err != nil {
			logger.Error("handling checkout.session.completed failed",
				zap.String("sessionID", sess.ID), zap.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

	case "charge.refunded":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			logger.Error("parsing charge failed", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if charge.PaymentIntent != nil && charge.PaymentIntent.ID != "" {
			sessionID, err := h.stripeSvc.GetSessionIDByPaymentIntentID(charge.PaymentIntent.ID)
			if err != nil {
				logger.Warn("no session for refunded payment intent",
					zap.String("paymentIntentID", charge.PaymentIntent.ID), zap.Error(err))
				break
			}
			if err := h.bookings.MarkRefundedBySessionID(sessionID); err != nil {
				logger.Error("marking booking refunded failed",
					zap.String("sessionID", sessionID), zap.Error(err))
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
		}

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil || sub.ID == "" {
			logger.Error("parsing subscription failed", zap.Error(err))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := h.billing.CancelSubscription(sub.ID); err != nil {
			logger.Error("cancelling salon subscription failed",
				zap.String("subscriptionID", sub.ID), zap.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

	default:
		logger.Debug("unhandled webhook event", zap.String("type", string(event.Type)))
	}

	w.WriteHeader(http.StatusOK)
}

// handleCheckoutCompleted routes a completed session to either the booking
// deposit flow or the salon subscription flow.
func (h *StripeWebhookHandler) handleCheckoutCompleted(sess *stripe.CheckoutSession) error {
	if sess.Mode == stripe.CheckoutSessionModeSubscription {
		salonID, err := strconv.Atoi(sess.Metadata["salon_id"])
		if err != nil {
			return err
		}
		customerID := ""
		if sess.Customer != nil {
			customerID = sess.Customer.ID
		}
		subscriptionID := ""
		if sess.Subscription != nil {
			subscriptionID = sess.Subscription.ID
		}
		return h.billing.ActivateSubscription(salonID, customerID, subscriptionID)
	}

	paymentIntentID := ""
	if sess.PaymentIntent != nil {
		paymentIntentID = sess.PaymentIntent.ID
	}
	return h.bookings.ConfirmBySessionID(sess.ID, paymentIntentID)
}

// GetBookingBySessionID lets the checkout success page resolve the booking
// it just paid for.
func (h *StripeWebhookHandler) GetBookingBySessionID(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}
	salonID, err := pathInt(r, "salonID")
	if err != nil {
		http.Error(w, "invalid salon id", http.StatusBadRequest)
		return
	}

	booking, err := h.bookings.Repo.GetBookingByStripeSessionID(sessionID)
	if err != nil || booking.SalonID != salonID {
		http.Error(w, "booking not found", http.StatusNotFound)
		return
	}
	resp, err := h.bookings.GetBookingByCode(salonID, booking.Code)
	if err != nil {
		http.Error(w, "booking not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
