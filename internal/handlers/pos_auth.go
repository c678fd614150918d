package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clubnova/clubposgo/internal/deviceauth"
	"github.com/clubnova/clubposgo/internal/pairing"
	"github.com/clubnova/clubposgo/internal/registry"
)

// PINAuthRequest carries the stored uuid+PIN credential pair
type PINAuthRequest struct {
	UUID string `json:"uuid"`
	PIN  string `json:"pin"`
}

// PairingAuthRequest redeems either a scanned token or a typed short code
type PairingAuthRequest struct {
	PairingToken string `json:"pairingToken,omitempty"`
	PairingCode  string `json:"pairingCode,omitempty"`
}

// QuickStartRequest identifies an employee by email or national id
type QuickStartRequest struct {
	Identifier string `json:"identifier"`
}

// posAuthPIN handles returning-device login
func (r *Router) posAuthPIN(w http.ResponseWriter, req *http.Request) {
	var body PINAuthRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if body.UUID == "" || body.PIN == "" {
		respondError(w, http.StatusBadRequest, "uuid and pin are required")
		return
	}

	auth, err := r.auth.AuthenticateWithPIN(body.UUID, body.PIN, clientIP(req))
	if err != nil {
		r.respondAuthError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, auth)
}

// posAuthPairing handles first-time terminal setup via QR token or short code
func (r *Router) posAuthPairing(w http.ResponseWriter, req *http.Request) {
	var body PairingAuthRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	var (
		auth *deviceauth.Auth
		err  error
	)
	switch {
	case body.PairingToken != "":
		auth, err = r.auth.AuthenticateWithPairingToken(body.PairingToken, clientIP(req))
	case body.PairingCode != "":
		auth, err = r.auth.AuthenticateWithPairingCode(body.PairingCode, clientIP(req))
	default:
		respondError(w, http.StatusBadRequest, "pairingToken or pairingCode is required")
		return
	}

	if err != nil {
		r.respondAuthError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, auth)
}

// posSetup redeems a pairing token passed as a query parameter. This is
// the landing endpoint for the QR link, so terminals without a JSON client
// can still pair.
func (r *Router) posSetup(w http.ResponseWriter, req *http.Request) {
	token := req.URL.Query().Get("p")
	if token == "" {
		respondError(w, http.StatusBadRequest, "p query parameter is required")
		return
	}

	auth, err := r.auth.AuthenticateWithPairingToken(token, clientIP(req))
	if err != nil {
		r.respondAuthError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, auth)
}

// posPairByCode redeems a typed short code passed as a query parameter
func (r *Router) posPairByCode(w http.ResponseWriter, req *http.Request) {
	code := req.URL.Query().Get("code")
	if code == "" {
		respondError(w, http.StatusBadRequest, "code query parameter is required")
		return
	}

	auth, err := r.auth.AuthenticateWithPairingCode(code, clientIP(req))
	if err != nil {
		r.respondAuthError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, auth)
}

// posAuthQuickStart binds an employee to any free shared device
func (r *Router) posAuthQuickStart(w http.ResponseWriter, req *http.Request) {
	var body QuickStartRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if body.Identifier == "" {
		respondError(w, http.StatusBadRequest, "identifier is required")
		return
	}

	auth, err := r.auth.AuthenticateQuickStart(body.Identifier, clientIP(req))
	if err != nil {
		r.respondAuthError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, auth)
}

// respondAuthError maps service sentinels onto the error codes terminals
// understand. Unknown-device and bad-PIN both surface as the same code so
// responses do not leak which half of the credential failed.
func (r *Router) respondAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrDeviceNotFound), errors.Is(err, deviceauth.ErrInvalidPIN):
		respondErrorCode(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid device credentials")
	case errors.Is(err, pairing.ErrExpired):
		respondErrorCode(w, http.StatusGone, "EXPIRED", "Pairing artifact expired, request a new one")
	case errors.Is(err, pairing.ErrAlreadyRedeemed):
		respondErrorCode(w, http.StatusConflict, "ALREADY_REDEEMED", "Pairing artifact was already used")
	case errors.Is(err, pairing.ErrInvalid):
		respondErrorCode(w, http.StatusUnauthorized, "INVALID", "Pairing artifact is not valid")
	case errors.Is(err, deviceauth.ErrNoEmployeeMatch):
		respondErrorCode(w, http.StatusUnauthorized, "NO_EMPLOYEE_MATCH", "No active employee matches that identifier")
	case errors.Is(err, registry.ErrNoDeviceAvailable):
		respondErrorCode(w, http.StatusConflict, "NO_DEVICE_AVAILABLE", "No free device available for quick start")
	default:
		respondError(w, http.StatusInternalServerError, "Authentication failed")
	}
}
