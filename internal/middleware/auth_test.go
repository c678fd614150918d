package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clubnova/clubposgo/internal/config"
	"github.com/clubnova/clubposgo/internal/models"
	"github.com/clubnova/clubposgo/internal/utils"
)

const testSecret = "middleware-test-secret"

func staffToken(t *testing.T, role string) string {
	t.Helper()
	user := &models.UserAuth{ID: "u-1", Username: "back-office", Email: "staff@clubnova.example", Role: role}
	token, err := utils.GenerateStaffToken(user, &config.Config{JWTSecret: testSecret})
	if err != nil {
		t.Fatalf("Failed to generate staff token: %v", err)
	}
	return token
}

func roleGatedRequest(t *testing.T, token string, roles ...string) (*httptest.ResponseRecorder, *bool) {
	t.Helper()
	reached := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})

	chain := StaffAuth(testSecret)(RequireRole(roles...)(handler))

	req := httptest.NewRequest("DELETE", "/api/devices/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	return rec, &reached
}

func TestRequireRoleAdminPasses(t *testing.T) {
	rec, reached := roleGatedRequest(t, staffToken(t, "admin"), "admin")

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !*reached {
		t.Error("Handler was never reached with a valid admin token")
	}
}

func TestRequireRoleAcceptsAnyListedRole(t *testing.T) {
	rec, reached := roleGatedRequest(t, staffToken(t, "manager"), "admin", "manager")

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for manager, got %d", rec.Code)
	}
	if !*reached {
		t.Error("Handler was never reached with a manager token")
	}
}

func TestRequireRoleRejectsDefaultRole(t *testing.T) {
	rec, reached := roleGatedRequest(t, staffToken(t, "user"), "admin", "manager")

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for role 'user', got %d", rec.Code)
	}
	if *reached {
		t.Error("Handler must not run for an unprivileged role")
	}
}

func TestRequireRoleWithoutStaffAuth(t *testing.T) {
	reached := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	})

	req := httptest.NewRequest("DELETE", "/api/devices/1", nil)
	rec := httptest.NewRecorder()
	RequireRole("admin")(handler).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 without claims on the context, got %d", rec.Code)
	}
	if reached {
		t.Error("Handler must not run without staff claims")
	}
}

func TestStaffAuthRejectsDeviceToken(t *testing.T) {
	deviceToken, err := utils.GenerateDeviceToken("11111111-1111-1111-1111-111111111111", time.Hour, testSecret)
	if err != nil {
		t.Fatalf("Failed to generate device token: %v", err)
	}

	rec, reached := roleGatedRequest(t, deviceToken, "admin")
	if rec.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for a device token on a staff route, got %d", rec.Code)
	}
	if *reached {
		t.Error("Handler must not run for a device token")
	}
}
