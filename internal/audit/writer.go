package audit

import (
	"log"
	"time"

	"github.com/clubnova/clubposgo/internal/models"
)

// Store persists log entries. Implemented by GormStore in production and by
// in-memory fakes in tests.
type Store interface {
	Create(entry *models.DeviceLogEntry) error
	ListForDevice(deviceID uint, limit int) ([]models.DeviceLogEntry, error)
}

// Broadcaster pushes events to live back-office listeners. Optional.
type Broadcaster interface {
	Broadcast(event interface{})
}

// Event is the shape pushed to the live monitor feed
type Event struct {
	DeviceID  uint                   `json:"deviceId"`
	Kind      models.DeviceEventKind `json:"kind"`
	Detail    string                 `json:"detail,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Writer appends device lifecycle and sync events to the audit trail.
// Append never fails the triggering operation: storage errors are logged
// operationally and swallowed.
type Writer struct {
	store Store
	hub   Broadcaster
}

// NewWriter creates a Writer. hub may be nil.
func NewWriter(store Store, hub Broadcaster) *Writer {
	return &Writer{store: store, hub: hub}
}

// Append records an event attributed to the device itself
func (w *Writer) Append(deviceID uint, kind models.DeviceEventKind, detail string) {
	w.AppendFull(deviceID, kind, detail, nil, nil, "")
}

// AppendFull records an event with actor, metadata and source address
func (w *Writer) AppendFull(deviceID uint, kind models.DeviceEventKind, detail string, employeeID *uint, metadata models.JSONB, ip string) {
	entry := &models.DeviceLogEntry{
		DeviceID:   deviceID,
		Kind:       kind,
		Detail:     detail,
		Metadata:   metadata,
		EmployeeID: employeeID,
		IPAddress:  ip,
	}

	if err := w.store.Create(entry); err != nil {
		// Logging must never propagate into the caller's result
		log.Printf("⚠️ Audit write dropped (device %d, %s): %v", deviceID, kind, err)
		return
	}

	if w.hub != nil {
		w.hub.Broadcast(Event{
			DeviceID:  deviceID,
			Kind:      kind,
			Detail:    detail,
			Timestamp: time.Now().UTC(),
		})
	}
}

// ListForDevice returns the most recent entries for a device
func (w *Writer) ListForDevice(deviceID uint, limit int) ([]models.DeviceLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	return w.store.ListForDevice(deviceID, limit)
}
