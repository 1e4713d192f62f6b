package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	httperr "salonbook/internal/errors"
	"salonbook/internal/service"
)

// Auth
type SignupRequest struct {
	SalonName string `json:"salon_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
}

type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeServiceError maps the service layer's sentinel errors onto HTTP
// statuses; anything unrecognized is a 500 with a generic body.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSlotNotAvailable):
		httperr.Conflict(err.Error()).Write(w)
	case errors.Is(err, service.ErrProviderInactive):
		httperr.Conflict(err.Error()).Write(w)
	case errors.Is(err, service.ErrAlreadyCancelled):
		httperr.Conflict(err.Error()).Write(w)
	case errors.Is(err, service.ErrTooLateToCancel):
		httperr.Conflict(err.Error()).Write(w)
	case errors.Is(err, service.ErrEmailTaken):
		httperr.Conflict(err.Error()).Write(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		httperr.Unauthorized(err.Error()).Write(w)
	case errors.Is(err, service.ErrAccountNotVerified):
		httperr.Unauthorized(err.Error()).Write(w)
	case errors.Is(err, service.ErrOTPInvalid):
		httperr.BadRequest(err.Error()).Write(w)
	default:
		httperr.Internal("internal server error").Write(w)
	}
}

func pathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(mux.Vars(r)[name])
}
