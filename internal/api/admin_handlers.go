package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"salonbook/internal/auth"
	"salonbook/internal/db"
	"salonbook/internal/entities"
	httperr "salonbook/internal/errors"
	"salonbook/internal/service"
)

// AdminHandler serves the authenticated salon dashboard: schedule and
// event type management, booking oversight, calendar feeds and billing.
type AdminHandler struct {
	Schedules *service.ScheduleService
	Bookings  *service.BookingService
	Billing   *service.BillingService
}

func NewAdminHandler(schedules *service.ScheduleService, bookings *service.BookingService, billing *service.BillingService) *AdminHandler {
	return &AdminHandler{Schedules: schedules, Bookings: bookings, Billing: billing}
}

func salonFromRequest(w http.ResponseWriter, r *http.Request) (int, bool) {
	salonID, ok := auth.SalonIDFromContext(r.Context())
	if !ok {
		httperr.Unauthorized("missing salon context").Write(w)
		return 0, false
	}
	return salonID, true
}

// Weekly rules

func (h *AdminHandler) ListWeeklyRules(w http.ResponseWriter, r *http.Request) {
	salonID, ok := salonFromRequest(w, r)
	if !ok {
		return
	}
	providerID, err := pathInt(r, "providerID")
	if err != nil {
		httperr.BadRequest("invalid provider id").Write(w)
		return
	}

	rules, err := h.Schedules.ListWeeklyRules(salonID, providerID)
	if err != nil {
		httperr.NotFound("provider not found").Write(w)
		return
	}
	if rules == nil {
		rules = []db.WeeklyRule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *AdminHandler) CreateWeeklyRule(w http.ResponseWriter, r *http.Request) {
	salonID, ok := salonFromRequest(w, r)
	if !ok {
		return
	}
	providerID, err := pathInt(r, "providerID")
	if err != nil {
		httperr.BadRequest("invalid provider id").Write(w)
		return
	}

	var req entities.WeeklyRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest("invalid request body").Write(w)
		return
	}
	req.ProviderID = providerID

	rule, err := h.Schedules.CreateWeeklyRule(salonID, req)
	if err != nil {
		httperr.BadRequest(err.Error()).Write(w)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (h *AdminHandler) DeleteWeeklyRule(w http.ResponseWriter, r *http.Request) {
	salonID, ok := salonFromRequest(w, r)
	if !ok {
		return
	}
	providerID, err1 := pathInt(r, "providerID")
	ruleID, err2 := pathInt(r, "ruleID")
	if err1 != nil || err2 != nil {
		httperr.BadRequest("invalid id").Write(w)
		return
	}

	if err := h.Schedules.DeleteWeeklyRule(salonID, providerID, ruleID); err != nil {
		httperr.NotFound("rule not found").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Rule deleted"})
}

// Date overrides

func (h *AdminHandler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	salonID, ok := salonFromRequest(w, r)
	if !ok {
		return
	}
	providerID, err := pathInt(r, "providerID")
	if err != nil {
		httperr.BadRequest("invalid provider id").Write(w)
		return
	}
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	overrides, err := h.Schedules.ListOverrides(salonID, providerID, from, to)
	if err != nil {
		httperr.BadRequest(err.Error()).Write(w)
		return
	}
	if overrides == nil {
		overrides = []db.DateOverride{}
	}
	writeJSON(w, http.StatusOK, overrides)
}

func (h *AdminHandler) SetOverride(w http.ResponseWriter, r *http.Request) {
	salonID, ok := salonFromRequest(w, r)
	if !ok {
		return
	}
	providerID, err := pathInt(r, "providerID")
	if err != nil {
		httperr.BadRequest("invalid provider id").Write(w)
		return
	}

	var req entities.DateOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest("invalid request body").Write(w)
		return
	}
	req.ProviderID = providerID

	override, err := h.Schedules.SetOverride(salonID, req)
	if err != nil {
		httperr.BadRequest(err.Error()).Write(w)
		return
	}
	writeJSON(w, http.StatusOK, override)
}

func (h *AdminHandler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	salonID, ok := salonFromRequest(w, r)
	if !ok {
		return
	}
	providerID, err := pathInt(r, "providerID")
	if err != nil {
		httperr.BadRequest("invalid provider id").Write(w)
		return
	}
	date := mux.Vars(r)["date"]

	if err := h.Schedules.DeleteOverride(salonID, providerID, date); err != nil {
		httperr.NotFound("override not found").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Override deleted"})
}

// Event types

func (h *AdminHandler) ListEventTypes(w http.ResponseWriter, r *http.Request) {
	salonID, ok := salonFromRequest(w, r)
	if !ok {
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

func (h *AdminHandler) CreateEventType(w http.ResponseWriter, r *http.Request) {
	salonID, ok := salonFromRequest(w, r)
	if !ok {
		return
	}
	var req entities.EventTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest("invalid request body").Write(w)
		return
	}

	et, err := h.Schedules.CreateEventType(salonID, req)
	if err != nil {
		httperr.BadRequest(err.Error()).Write(w)
		return
	}
	writeJSON(w, http.StatusCreated, et)
}

func (h *AdminHandler) UpdateEventType(w http.ResponseWriter, r *http.Request) {
	salonID, ok := salonFromRequest(w, r)
	if !ok {
		return
	}
	id, err := pathInt(r, "id")
	if err != nil {
		httperr.BadRequest("invalid event type id").Write(w)
		return
	}
	var req entities.EventTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest("invalid request body").Write(w)
		return
	}

	et, err := h.Schedules.UpdateEventType(salonID, id, req)
	if err != nil {
		httperr.BadRequest(err.Error()).Write(w)
		return
	}
	writeJSON(w, http.StatusOK, et)
}

func (h *AdminHandler) DeleteEventType(w http.ResponseWriter, r *http.Request) {
	salonID, ok := salonFromRequest(w, r)
	if !ok {
		return
	}
	id, err := pathInt(r, "id")
	if err != nil {
		httperr.BadRequest("invalid event type id").Write(w)
		return
	}
	if err := h.Schedules.DeleteEventType(salonID, id); err != nil {
		httperr.NotFound("event type not found").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Event type deleted"})
}

// Bookings

func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	salonID, ok := salonFromRequest(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	providerID, _ := strconv.Atoi(q.Get("provider_id"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	list, err := h.Bookings.ListBookings(salonID, providerID, q.Get("date"), q.Get("status"), limit, offset)
	if err != nil {
		httperr.Internal("error listing bookings").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *AdminHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	salonID, ok := salonFromRequest(w, r)
	if !ok {
		return
	}
	code := mux.Vars(r)["code"]

	if err := h.Bookings.CancelBooking(salonID, code); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Booking cancelled"})
}

// Calendar feeds

func (h *AdminHandler) ListFeeds(w http.ResponseWriter, r *http.Request) {
	salonID, ok := salonFromRequest(w, r)
	if !ok {
		return
	}
	providerID, err := pathInt(r, "providerID")
	if err != nil {
		httperr.BadRequest("invalid provider id").Write(w)
		return
	}

	feeds, err := h.Schedules.ListCalendarFeeds(salonID, providerID)
	if err != nil {
		httperr.NotFound("provider not found").Write(w)
		return
	}
	// Tokens never leave the server.
	type feedView struct {
		ID         int    `json:"id"`
		CalendarID string `json:"calendar_id"`
	}
	views := make([]feedView, 0, len(feeds))
	for _, f := range feeds {
		views = append(views, feedView{ID: f.ID, CalendarID: f.CalendarID})
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *AdminHandler) CreateFeed(w http.ResponseWriter, r *http.Request) {
	salonID, ok := salonFromRequest(w, r)
	if !ok {
		return
	}
	providerID, err := pathInt(r, "providerID")
	if err != nil {
		httperr.BadRequest("invalid provider id").Write(w)
		return
	}

	var req struct {
		CalendarID  string `json:"calendar_id"`
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperr.BadRequest("invalid request body").Write(w)
		return
	}
	if req.CalendarID == "" || req.AccessToken == "" {
		httperr.BadRequest("calendar_id and access_token are required").Write(w)
		return
	}

	feed, err := h.Schedules.CreateCalendarFeed(salonID, providerID, req.CalendarID, req.AccessToken)
	if err != nil {
		httperr.BadRequest(err.Error()).Write(w)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"id": feed.ID, "calendar_id": feed.CalendarID})
}

func (h *AdminHandler) DeleteFeed(w http.ResponseWriter, r *http.Request) {
	salonID, ok := salonFromRequest(w, r)
	if !ok {
		return
	}
	providerID, err1 := pathInt(r, "providerID")
	feedID, err2 := pathInt(r, "feedID")
	if err1 != nil || err2 != nil {
		httperr.BadRequest("invalid id").Write(w)
		return
	}

	if err := h.Schedules.DeleteCalendarFeed(salonID, providerID, feedID); err != nil {
		httperr.NotFound("feed not found").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Feed removed"})
}

// Billing

func (h *AdminHandler) StartSubscription(w http.ResponseWriter, r *http.Request) {
	salonID, ok := salonFromRequest(w, r)
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		httperr.BadRequest("email is required").Write(w)
		return
	}

	url, err := h.Billing.StartSubscription(salonID, req.Email)
	if err != nil {
		httperr.Internal("error starting subscription").Write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
