package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/clubnova/clubposgo/internal/middleware"
	"github.com/clubnova/clubposgo/internal/models"
	"github.com/clubnova/clubposgo/internal/syncqueue"
)

// SyncBatchRequest is the offline sale batch a terminal uploads after
// regaining connectivity
type SyncBatchRequest struct {
	Sales []syncqueue.SubmittedSale `json:"sales"`
}

func deviceFromContext(req *http.Request) *models.Device {
	device, _ := req.Context().Value(middleware.DeviceContextKey).(*models.Device)
	return device
}

// posHeartbeat stamps the device's last connection time
func (r *Router) posHeartbeat(w http.ResponseWriter, req *http.Request) {
	device := deviceFromContext(req)
	if device == nil {
		respondError(w, http.StatusUnauthorized, "Device credentials required")
		return
	}

	if err := r.devices.Heartbeat(device.UUID, clientIP(req)); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to record heartbeat")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// syncSales ingests an offline sale batch. Each item is settled
// independently; the response carries a per-item outcome in submission
// order so the terminal knows exactly what to purge from its local queue.
func (r *Router) syncSales(w http.ResponseWriter, req *http.Request) {
	device := deviceFromContext(req)
	if device == nil {
		respondError(w, http.StatusUnauthorized, "Device credentials required")
		return
	}

	var body SyncBatchRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if len(body.Sales) == 0 {
		respondError(w, http.StatusBadRequest, "sales batch is empty")
		return
	}

	results := r.sync.SubmitBatch(device.ID, body.Sales)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
	})
}

// syncPending lets a terminal reconcile its local queue against the server
func (r *Router) syncPending(w http.ResponseWriter, req *http.Request) {
	device := deviceFromContext(req)
	if device == nil {
		respondError(w, http.StatusUnauthorized, "Device credentials required")
		return
	}

	sales, err := r.sync.PendingForDevice(device.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch pending sales")
		return
	}
	respondJSON(w, http.StatusOK, sales)
}
