package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clubnova/clubposgo/internal/audit"
	"github.com/clubnova/clubposgo/internal/middleware"
	"github.com/clubnova/clubposgo/internal/models"
	"github.com/clubnova/clubposgo/internal/registry"
)

type fakeDeviceStore struct {
	nextID  uint
	devices map[uint]*models.Device
}

func newFakeDeviceStore() *fakeDeviceStore {
	return &fakeDeviceStore{nextID: 1, devices: make(map[uint]*models.Device)}
}

func (f *fakeDeviceStore) FindByID(id uint) (*models.Device, error) {
	if d, ok := f.devices[id]; ok {
		dup := *d
		return &dup, nil
	}
	return nil, nil
}

func (f *fakeDeviceStore) FindByUUID(uuid string) (*models.Device, error) {
	for _, d := range f.devices {
		if d.UUID == uuid {
			dup := *d
			return &dup, nil
		}
	}
	return nil, nil
}

func (f *fakeDeviceStore) ExistsByName(name string, excludeID uint) (bool, error) {
	for _, d := range f.devices {
		if d.Name == name && d.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDeviceStore) FindPermanentForEmployee(employeeID, excludeID uint) (*models.Device, error) {
	return nil, nil
}

func (f *fakeDeviceStore) ListTempBoundTo(employeeID uint) ([]models.Device, error) {
	return nil, nil
}

func (f *fakeDeviceStore) QuickStartCandidates() ([]models.Device, error) {
	return nil, nil
}

func (f *fakeDeviceStore) List() ([]models.Device, error) {
	out := make([]models.Device, 0, len(f.devices))
	for _, d := range f.devices {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDeviceStore) ListActive() ([]models.Device, error) {
	return f.List()
}

func (f *fakeDeviceStore) Create(d *models.Device) error {
	d.ID = f.nextID
	f.nextID++
	dup := *d
	f.devices[d.ID] = &dup
	return nil
}

func (f *fakeDeviceStore) Save(d *models.Device) error {
	dup := *d
	f.devices[d.ID] = &dup
	return nil
}

func (f *fakeDeviceStore) Delete(d *models.Device) error {
	delete(f.devices, d.ID)
	return nil
}

type noPending struct{}

func (noPending) CountUnsyncedForDevice(deviceID uint) (int64, error) { return 0, nil }

type memAuditStore struct {
	entries []models.DeviceLogEntry
}

func (m *memAuditStore) Create(entry *models.DeviceLogEntry) error {
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memAuditStore) ListForDevice(deviceID uint, limit int) ([]models.DeviceLogEntry, error) {
	return m.entries, nil
}

func TestHeartbeatRespondsNoContent(t *testing.T) {
	store := newFakeDeviceStore()
	devices := registry.NewService(store, noPending{}, audit.NewWriter(&memAuditStore{}, nil))

	device, err := devices.Register(registry.DeviceInput{Name: "Main Bar Left", PIN: "4821"})
	if err != nil {
		t.Fatalf("Failed to register device: %v", err)
	}

	router := &Router{devices: devices}

	req := httptest.NewRequest("POST", "/api/pos/heartbeat", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.DeviceContextKey, device))
	rec := httptest.NewRecorder()
	router.posHeartbeat(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("Expected empty body, got %q", rec.Body.String())
	}

	stored, err := store.FindByUUID(device.UUID)
	if err != nil || stored == nil {
		t.Fatalf("Device disappeared: %v", err)
	}
	if stored.LastConnectionAt == nil {
		t.Error("Heartbeat did not stamp the last connection time")
	}
}

func TestHeartbeatWithoutDeviceContext(t *testing.T) {
	router := &Router{}

	req := httptest.NewRequest("POST", "/api/pos/heartbeat", nil)
	rec := httptest.NewRecorder()
	router.posHeartbeat(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without device credentials, got %d", rec.Code)
	}
}
