package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/clubnova/clubposgo/internal/pairing"
	"github.com/clubnova/clubposgo/internal/printer"
	"github.com/clubnova/clubposgo/internal/registry"
)

func deviceIDFromPath(req *http.Request) (uint, error) {
	vars := mux.Vars(req)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// listDevices returns every registered device
func (r *Router) listDevices(w http.ResponseWriter, req *http.Request) {
	devices, err := r.devices.List()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch devices")
		return
	}
	respondJSON(w, http.StatusOK, devices)
}

// createDevice registers a new terminal
func (r *Router) createDevice(w http.ResponseWriter, req *http.Request) {
	var input registry.DeviceInput
	if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	device, err := r.devices.Register(input)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrNameTaken):
			respondError(w, http.StatusConflict, err.Error())
		case errors.Is(err, registry.ErrEmployeeAlreadyAssigned):
			respondError(w, http.StatusConflict, err.Error())
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusCreated, device)
}

// getDevice returns a single device by id
func (r *Router) getDevice(w http.ResponseWriter, req *http.Request) {
	id, err := deviceIDFromPath(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid device id")
		return
	}

	device, err := r.devices.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Device not found")
		return
	}
	respondJSON(w, http.StatusOK, device)
}

// updateDevice modifies mutable device attributes
func (r *Router) updateDevice(w http.ResponseWriter, req *http.Request) {
	id, err := deviceIDFromPath(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid device id")
		return
	}

	var input registry.DeviceInput
	if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	device, err := r.devices.Update(id, input)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrDeviceNotFound):
			respondError(w, http.StatusNotFound, "Device not found")
		case errors.Is(err, registry.ErrNameTaken), errors.Is(err, registry.ErrEmployeeAlreadyAssigned):
			respondError(w, http.StatusConflict, err.Error())
		default:
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusOK, device)
}

// deleteDevice removes a device unless it still holds unsynced sales
func (r *Router) deleteDevice(w http.ResponseWriter, req *http.Request) {
	id, err := deviceIDFromPath(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid device id")
		return
	}

	if err := r.devices.Delete(id); err != nil {
		switch {
		case errors.Is(err, registry.ErrDeviceNotFound):
			respondError(w, http.StatusNotFound, "Device not found")
		case errors.Is(err, registry.ErrHasPendingSales):
			respondErrorCode(w, http.StatusConflict, "PENDING_SALES", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "Failed to delete device")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// issuePairing mints a fresh pairing artifact for the device
func (r *Router) issuePairing(w http.ResponseWriter, req *http.Request) {
	id, err := deviceIDFromPath(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid device id")
		return
	}

	artifact, err := r.pairing.Issue(id)
	if err != nil {
		respondIssueError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, artifact)
}

// respondIssueError maps pairing issuance failures onto HTTP statuses
func respondIssueError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrDeviceNotFound):
		respondError(w, http.StatusNotFound, "Device not found")
	case errors.Is(err, pairing.ErrDeviceInactive):
		respondError(w, http.StatusConflict, "Device is deactivated, reactivate it before pairing")
	default:
		respondError(w, http.StatusInternalServerError, "Failed to issue pairing artifact")
	}
}

// pairingQR issues a pairing artifact and returns the redemption link as a
// PNG for on-screen scanning
func (r *Router) pairingQR(w http.ResponseWriter, req *http.Request) {
	id, err := deviceIDFromPath(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid device id")
		return
	}

	artifact, err := r.pairing.Issue(id)
	if err != nil {
		respondIssueError(w, err)
		return
	}

	png, err := printer.GeneratePairingQR(artifact.RedemptionLink)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// pairingSheet issues a pairing artifact and returns the printable PDF
func (r *Router) pairingSheet(w http.ResponseWriter, req *http.Request) {
	id, err := deviceIDFromPath(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid device id")
		return
	}

	device, err := r.devices.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Device not found")
		return
	}

	artifact, err := r.pairing.Issue(id)
	if err != nil {
		respondIssueError(w, err)
		return
	}

	pdf, err := printer.GeneratePairingSheetPDF(printer.SheetConfig{
		DeviceName:     device.Name,
		DeviceLocation: device.Location,
		RedemptionLink: artifact.RedemptionLink,
		ShortCode:      artifact.ShortCode,
		ExpiresAt:      artifact.ExpiresAt,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to render pairing sheet")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"pairing-%s.pdf\"", device.UUID))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// unbindDevice releases a temporary shift binding
func (r *Router) unbindDevice(w http.ResponseWriter, req *http.Request) {
	id, err := deviceIDFromPath(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid device id")
		return
	}

	device, err := r.devices.Unbind(id)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrDeviceNotFound):
			respondError(w, http.StatusNotFound, "Device not found")
		case errors.Is(err, registry.ErrPermanentBinding):
			respondError(w, http.StatusConflict, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "Failed to unbind device")
		}
		return
	}

	respondJSON(w, http.StatusOK, device)
}

// deviceLogs returns the recent event trail for a device
func (r *Router) deviceLogs(w http.ResponseWriter, req *http.Request) {
	id, err := deviceIDFromPath(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid device id")
		return
	}

	limit := 100
	if v := req.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	entries, err := r.audit.ListForDevice(id, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch device logs")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// devicePending lists the device's unsynced offline sales
func (r *Router) devicePending(w http.ResponseWriter, req *http.Request) {
	id, err := deviceIDFromPath(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid device id")
		return
	}

	sales, err := r.sync.PendingForDevice(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch pending sales")
		return
	}
	respondJSON(w, http.StatusOK, sales)
}
