package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"salonbook/internal/availability"
	"salonbook/internal/db"
	"salonbook/internal/entities"
	httperr "salonbook/internal/errors"
	"salonbook/internal/service"
	"salonbook/internal/utils"
)

// BookingHandler serves the public booking page endpoints: slot discovery,
// booking creation and self-service lookup or cancellation by code.
type BookingHandler struct {
	Availability *service.AvailabilityService
	Bookings     *service.BookingService
	Schedules    *service.ScheduleService
}

func NewBookingHandler(availabilitySvc *service.AvailabilityService, bookingSvc *service.BookingService, scheduleSvc *service.ScheduleService) *BookingHandler {
	return &BookingHandler{Availability: availabilitySvc, Bookings: bookingSvc, Schedules: scheduleSvc}
}

// ListEventTypes is the public catalogue the booking page renders before
// asking for availability.
func (h *BookingHandler) ListEventTypes(w http.ResponseWriter, r *http.Request) {
	salonID, err := pathInt(r, "salonID")
	if err != nil {
		httperr.BadRequest("invalid salon id").Write(w)
		return
	}
	types, err := h.Schedules.ListEventTypes(salonID)
	if err != nil {
		httperr.Internal("error listing event types").Write(w)
		return
	}
	if types == nil {
		types = []db.EventType{}
	}
	writeJSON(w, http.StatusOK, types)
}

func (h *BookingHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	salonID, err := pathInt(r, "salonID")
	if err != nil {
		httperr.BadRequest("invalid salon id").Write(w)
		return
	}

	var req entities.AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest("invalid request body").Write(w)
		return
	}

	resp, err := h.Availability.GetSlots(r.Context(), salonID, req)
	if err != nil {
		if isEngineInputError(err) {
			httperr.BadRequest(err.Error()).Write(w)
			return
		}
		utils.GetLogger().Error("availability lookup failed",
			zap.Int("salonID", salonID), zap.Int("providerID", req.ProviderID), zap.Error(err))
		httperr.Internal("error computing availability").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	salonID, err := pathInt(r, "salonID")
	if err != nil {
		httperr.BadRequest("invalid salon id").Write(w)
		return
	}

	var req entities.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest("invalid request body").Write(w)
		return
	}
	if req.ClientName == "" || req.ClientEmail == "" {
		httperr.BadRequest("client name and email are required").Write(w)
		return
	}

	checkout, err := h.Bookings.CreateBooking(r.Context(), salonID, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkout)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	salonID, err := pathInt(r, "salonID")
	if err != nil {
		httperr.BadRequest("invalid salon id").Write(w)
		return
	}
	code := mux.Vars(r)["code"]

	booking, err := h.Bookings.GetBookingByCode(salonID, code)
	if err != nil {
		httperr.NotFound("booking not found").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	salonID, err := pathInt(r, "salonID")
	if err != nil {
		httperr.BadRequest("invalid salon id").Write(w)
		return
	}
	code := mux.Vars(r)["code"]

	var req struct {
		StartTime time.Time `json:"start_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StartTime.IsZero() {
		httperr.BadRequest("start_time is required").Write(w)
		return
	}

	booking, err := h.Bookings.RescheduleBooking(r.Context(), salonID, code, req.StartTime)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	salonID, err := pathInt(r, "salonID")
	if err != nil {
		httperr.BadRequest("invalid salon id").Write(w)
		return
	}
	code := mux.Vars(r)["code"]

	if err := h.Bookings.CancelBooking(salonID, code); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Booking cancelled"})
}

// isEngineInputError reports whether the failure came from malformed query
// input rather than an internal fault.
func isEngineInputError(err error) bool {
	for _, sentinel := range []error{
		availability.ErrInvalidRange,
		availability.ErrInvalidDuration,
		availability.ErrInvalidSlotInterval,
		availability.ErrInvalidNotice,
		availability.ErrInvalidBuffer,
		availability.ErrInvalidTimeZone,
		availability.ErrInvalidRule,
		availability.ErrInvalidOverride,
		availability.ErrDuplicateOverride,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
