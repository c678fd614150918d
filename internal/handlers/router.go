package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clubnova/clubposgo/internal/audit"
	"github.com/clubnova/clubposgo/internal/config"
	"github.com/clubnova/clubposgo/internal/database"
	"github.com/clubnova/clubposgo/internal/deviceauth"
	"github.com/clubnova/clubposgo/internal/middleware"
	"github.com/clubnova/clubposgo/internal/pairing"
	"github.com/clubnova/clubposgo/internal/registry"
	"github.com/clubnova/clubposgo/internal/syncqueue"
	"github.com/clubnova/clubposgo/internal/websocket"
)

// Router wraps the mux router and the services behind the HTTP surface
type Router struct {
	*mux.Router
	cfg     *config.Config
	db      *database.DB
	devices *registry.Service
	pairing *pairing.Service
	auth    *deviceauth.Service
	sync    *syncqueue.Service
	audit   *audit.Writer
	hub     *websocket.Hub
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(cfg *config.Config, db *database.DB, devices *registry.Service, pairingSvc *pairing.Service, authSvc *deviceauth.Service, syncSvc *syncqueue.Service, auditWriter *audit.Writer, hub *websocket.Hub) *Router {
	r := &Router{
		Router:  mux.NewRouter(),
		cfg:     cfg,
		db:      db,
		devices: devices,
		pairing: pairingSvc,
		auth:    authSvc,
		sync:    syncSvc,
		audit:   auditWriter,
		hub:     hub,
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Staff auth
	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/login", r.staffLogin).Methods("POST")

	// Public terminal endpoints. Rate limiting lives at the reverse proxy.
	pos := r.PathPrefix("/public/pos").Subrouter()
	pos.HandleFunc("/auth", r.posAuthPIN).Methods("POST")
	pos.HandleFunc("/auth-token", r.posAuthPairing).Methods("POST")
	pos.HandleFunc("/auth-employee", r.posAuthQuickStart).Methods("POST")
	pos.HandleFunc("/setup", r.posSetup).Methods("GET")
	pos.HandleFunc("/pair", r.posPairByCode).Methods("GET")

	// Device-credentialed endpoints
	device := r.PathPrefix("/api/pos").Subrouter()
	device.Use(middleware.DeviceAuth(cfg.JWTSecret, devices))
	device.HandleFunc("/heartbeat", r.posHeartbeat).Methods("POST")
	device.HandleFunc("/sync/sales", r.syncSales).Methods("POST")
	device.HandleFunc("/sync/pending", r.syncPending).Methods("GET")

	// Admin endpoints (staff JWT, admin or manager role)
	admin := r.PathPrefix("/api/devices").Subrouter()
	admin.Use(middleware.StaffAuth(cfg.JWTSecret))
	admin.Use(middleware.RequireRole("admin", "manager"))
	admin.HandleFunc("", r.listDevices).Methods("GET")
	admin.HandleFunc("", r.createDevice).Methods("POST")
	admin.HandleFunc("/{id}", r.getDevice).Methods("GET")
	admin.HandleFunc("/{id}", r.updateDevice).Methods("PUT")
	admin.Handle("/{id}", middleware.RequireRole("admin")(http.HandlerFunc(r.deleteDevice))).Methods("DELETE")
	admin.HandleFunc("/{id}/pairing", r.issuePairing).Methods("POST")
	admin.HandleFunc("/{id}/pairing/qr", r.pairingQR).Methods("POST")
	admin.HandleFunc("/{id}/pairing/sheet", r.pairingSheet).Methods("POST")
	admin.HandleFunc("/{id}/unbind", r.unbindDevice).Methods("POST")
	admin.HandleFunc("/{id}/logs", r.deviceLogs).Methods("GET")
	admin.HandleFunc("/{id}/pending", r.devicePending).Methods("GET")

	// Live monitor feed for the dashboard
	r.HandleFunc("/ws/monitor", func(w http.ResponseWriter, req *http.Request) {
		websocket.ServeWs(hub, w, req)
	})

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"monitors": r.hub.ClientCount(),
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondErrorCode sends an error with a machine-readable code terminals
// switch on
func respondErrorCode(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{
		"code":  code,
		"error": message,
	})
}

func clientIP(req *http.Request) string {
	if fwd := req.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return req.RemoteAddr
}
