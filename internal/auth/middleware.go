package auth

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	httperr "salonbook/internal/errors"
)

type contextKey string

const (
	salonIDKey contextKey = "salon_id"
	staffIDKey contextKey = "staff_id"
)

// StaffAuthMiddleware checks the Bearer token and stashes the salon and
// staff IDs from its claims into the request context.
func StaffAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			httperr.Unauthorized("missing bearer token").Write(w)
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			httperr.Internal("server auth misconfigured").Write(w)
			return
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			httperr.Unauthorized("invalid or expired token").Write(w)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			httperr.Unauthorized("invalid token claims").Write(w)
			return
		}
		salonID, okSalon := claims["salon_id"].(float64)
		staffID, okStaff := claims["staff_id"].(float64)
		if !okSalon || !okStaff {
			httperr.Unauthorized("invalid token claims").Write(w)
			return
		}

		ctx := context.WithValue(r.Context(), salonIDKey, int(salonID))
		ctx = context.WithValue(ctx, staffIDKey, int(staffID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SalonIDFromContext returns the authenticated salon ID, or false when the
// request did not pass through the middleware.
func SalonIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(salonIDKey).(int)
	return id, ok
}

func StaffIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(staffIDKey).(int)
	return id, ok
}
