package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"salonbook/internal/api"
	"salonbook/internal/auth"
	"salonbook/internal/calendar"
	"salonbook/internal/db"
	"salonbook/internal/repository"
	"salonbook/internal/service"
	"salonbook/internal/utils"
)

func main() {
	godotenv.Load()
	utils.InitLogger()
	logger := utils.GetLogger()
	defer logger.Sync()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL not set")
	}
	database, err := sql.Open("postgres", dbURL)
	if err != nil {
		logger.Fatal("failed to open DB", zap.Error(err))
	}
	if err := database.Ping(); err != nil {
		logger.Fatal("failed to connect to DB", zap.Error(err))
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	bookingRepo := repository.NewBookingRepository(database)
	scheduleRepo := repository.NewScheduleRepository(database)
	eventTypeRepo := repository.NewEventTypeRepository(database)
	feedRepo := repository.NewCalendarFeedRepository(database)
	stripeRepo := repository.NewStripeRepository(database)
	jobRepo := repository.NewJobRepository(database)
	staffAuthRepo := repository.NewStaffAuthRepository(database)

	stripeSvc := service.NewStripeService()
	senderSvc := service.NewSenderService()
	availabilitySvc := service.NewAvailabilityService(
		scheduleRepo, eventTypeRepo, bookingRepo, feedRepo,
		func(ctx context.Context, feed db.CalendarFeed) (calendar.BusySource, error) {
			return calendar.NewGoogleSource(ctx, feed.CalendarID, feed.AccessToken)
		},
	)
	bookingSvc := service.NewBookingService(bookingRepo, availabilitySvc, stripeSvc, senderSvc)
	scheduleSvc := service.NewScheduleService(scheduleRepo, eventTypeRepo, feedRepo)
	billingSvc := service.NewBillingService(stripeRepo, stripeSvc)
	authSvc := service.NewStaffAuthService(staffAuthRepo)
	jobSvc := service.NewJobService(jobRepo)

	bookingHandler := api.NewBookingHandler(availabilitySvc, bookingSvc, scheduleSvc)
	adminHandler := api.NewAdminHandler(scheduleSvc, bookingSvc, billingSvc)
	authHandler := api.NewAuthHandler(authSvc)
	webhookHandler := api.NewStripeWebhookHandler(os.Getenv("STRIPE_WEBHOOK_SECRET"), bookingSvc, billingSvc, stripeSvc)

	c := cron.New()
	c.AddFunc("*/10 * * * *", func() {
		if err := jobSvc.CompleteFinishedBookings(); err != nil {
			logger.Error("completing finished bookings failed", zap.Error(err))
		}
	})
	c.AddFunc("30 3 * * *", func() {
		deleted, err := jobSvc.PurgeStalePendingBookings(24 * time.Hour)
		if err != nil {
			logger.Error("purging stale pending bookings failed", zap.Error(err))
			return
		}
		if deleted > 0 {
			logger.Info("purged stale pending bookings", zap.Int64("count", deleted))
		}
	})
	c.Start()
	defer c.Stop()

	r := mux.NewRouter()

	// Public booking surface
	r.HandleFunc("/api/salons/{salonID}/event-types", bookingHandler.ListEventTypes).Methods("GET")
	r.HandleFunc("/api/salons/{salonID}/availability", bookingHandler.GetAvailability).Methods("POST")
	r.HandleFunc("/api/salons/{salonID}/bookings", bookingHandler.CreateBooking).Methods("POST")
	r.HandleFunc("/api/salons/{salonID}/bookings/{code}", bookingHandler.GetBooking).Methods("GET")
	r.HandleFunc("/api/salons/{salonID}/bookings/{code}", bookingHandler.RescheduleBooking).Methods("PUT")
	r.HandleFunc("/api/salons/{salonID}/bookings/{code}", bookingHandler.CancelBooking).Methods("DELETE")
	r.HandleFunc("/api/salons/{salonID}/checkout", webhookHandler.GetBookingBySessionID).Methods("GET")

	// Auth
	r.HandleFunc("/api/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/api/auth/verify", authHandler.VerifyOTP).Methods("POST")
	r.HandleFunc("/api/auth/resend", authHandler.ResendOTP).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")

	// Stripe webhooks
	r.HandleFunc("/api/webhooks/stripe", webhookHandler.HandleWebhook).Methods("POST")

	// Salon dashboard (token required)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.StaffAuthMiddleware)
	admin.HandleFunc("/providers/{providerID}/rules", adminHandler.ListWeeklyRules).Methods("GET")
	admin.HandleFunc("/providers/{providerID}/rules", adminHandler.CreateWeeklyRule).Methods("POST")
	admin.HandleFunc("/providers/{providerID}/rules/{ruleID}", adminHandler.DeleteWeeklyRule).Methods("DELETE")
	admin.HandleFunc("/providers/{providerID}/overrides", adminHandler.ListOverrides).Methods("GET")
	admin.HandleFunc("/providers/{providerID}/overrides", adminHandler.SetOverride).Methods("PUT")
	admin.HandleFunc("/providers/{providerID}/overrides/{date}", adminHandler.DeleteOverride).Methods("DELETE")
	admin.HandleFunc("/providers/{providerID}/feeds", adminHandler.ListFeeds).Methods("GET")
	admin.HandleFunc("/providers/{providerID}/feeds", adminHandler.CreateFeed).Methods("POST")
	admin.HandleFunc("/providers/{providerID}/feeds/{feedID}", adminHandler.DeleteFeed).Methods("DELETE")
	admin.HandleFunc("/event-types", adminHandler.ListEventTypes).Methods("GET")
	admin.HandleFunc("/event-types", adminHandler.CreateEventType).Methods("POST")
	admin.HandleFunc("/event-types/{id}", adminHandler.UpdateEventType).Methods("PUT")
	admin.HandleFunc("/event-types/{id}", adminHandler.DeleteEventType).Methods("DELETE")
	admin.HandleFunc("/bookings", adminHandler.ListBookings).Methods("GET")
	admin.HandleFunc("/bookings/{code}", adminHandler.CancelBooking).Methods("DELETE")
	admin.HandleFunc("/billing/subscribe", adminHandler.StartSubscription).Methods("POST")

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{os.Getenv("FRONTEND_ORIGIN")}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info("server listening", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, handlers.LoggingHandler(os.Stdout, cors(r))); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
