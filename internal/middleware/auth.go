package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clubnova/clubposgo/internal/registry"
	"github.com/clubnova/clubposgo/internal/utils"
)

type contextKey string

const (
	// StaffContextKey holds the staff JWT claims for back-office requests
	StaffContextKey contextKey = "staff"
	// DeviceContextKey holds the authenticated *models.Device
	DeviceContextKey contextKey = "device"
)

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

// StaffAuth verifies staff JWT tokens for the admin API
func StaffAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			claims, err := utils.ValidateToken(tokenString, jwtSecret)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}
			if t, _ := claims["type"].(string); t != "staff" {
				http.Error(w, "Staff credentials required", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), StaffContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route to the listed staff roles. Must run after
// StaffAuth, which puts the verified claims on the context.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(StaffContextKey).(jwt.MapClaims)
			if !ok {
				http.Error(w, "Staff credentials required", http.StatusForbidden)
				return
			}
			got, _ := claims["role"].(string)
			for _, role := range roles {
				if got == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Insufficient permissions", http.StatusForbidden)
		})
	}
}

// DeviceAuth verifies long-lived device credentials issued at pairing time.
// The resolved device is placed on the request context so sync handlers can
// trust its identity without a second lookup.
func DeviceAuth(jwtSecret string, devices *registry.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			deviceUUID, err := utils.DeviceUUIDFromToken(tokenString, jwtSecret)
			if err != nil {
				http.Error(w, "Invalid or expired device token", http.StatusUnauthorized)
				return
			}

			device, err := devices.GetByUUID(deviceUUID)
			if err != nil {
				http.Error(w, "Device not registered", http.StatusUnauthorized)
				return
			}
			if !device.Active {
				http.Error(w, "Device deactivated", http.StatusForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), DeviceContextKey, device)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
