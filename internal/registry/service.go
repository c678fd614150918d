package registry

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/clubnova/clubposgo/internal/audit"
	"github.com/clubnova/clubposgo/internal/metrics"
	"github.com/clubnova/clubposgo/internal/models"
	"github.com/clubnova/clubposgo/internal/utils"
)

var (
	// ErrDeviceNotFound covers unknown ids, unknown UUIDs and soft-deleted rows
	ErrDeviceNotFound = errors.New("device not found")
	// ErrDeviceInactive is returned when an operation requires an active device
	ErrDeviceInactive = errors.New("device is deactivated")
	// ErrNameTaken guards the unique device display name
	ErrNameTaken = errors.New("a device with that name already exists")
	// ErrPermanentBinding rejects temp-bind/unbind on permanently assigned devices
	ErrPermanentBinding = errors.New("device has a permanent assignment")
	// ErrEmployeeAlreadyAssigned rejects a second permanent assignment for one employee
	ErrEmployeeAlreadyAssigned = errors.New("employee is already permanently assigned to another device")
	// ErrHasPendingSales blocks deletion while unsynced sales reference the device
	ErrHasPendingSales = errors.New("device has sales pending synchronization")
	// ErrNoDeviceAvailable means no free device exists for quick start
	ErrNoDeviceAvailable = errors.New("no device available for quick start")
)

// DeviceStore is the persistence surface the registry needs
type DeviceStore interface {
	FindByID(id uint) (*models.Device, error)
	FindByUUID(uuid string) (*models.Device, error)
	ExistsByName(name string, excludeID uint) (bool, error)
	FindPermanentForEmployee(employeeID uint, excludeID uint) (*models.Device, error)
	ListTempBoundTo(employeeID uint) ([]models.Device, error)
	QuickStartCandidates() ([]models.Device, error)
	List() ([]models.Device, error)
	ListActive() ([]models.Device, error)
	Create(d *models.Device) error
	Save(d *models.Device) error
	Delete(d *models.Device) error
}

// PendingCounter reports unsynced offline sales per device
type PendingCounter interface {
	CountUnsyncedForDevice(deviceID uint) (int64, error)
}

// DeviceInput carries the mutable device attributes for register/update
type DeviceInput struct {
	Name                string             `json:"name"`
	Description         string             `json:"description"`
	Class               models.DeviceClass `json:"class"`
	Location            string             `json:"location"`
	PIN                 string             `json:"pin"`
	AssignedEmployeeID  *uint              `json:"assignedEmployeeId"`
	HasBarcodeReader    bool               `json:"hasBarcodeReader"`
	HasCashDrawer       bool               `json:"hasCashDrawer"`
	HasCustomerDisplay  bool               `json:"hasCustomerDisplay"`
	SharedTabletMode    bool               `json:"sharedTabletMode"`
	PermanentAssignment bool               `json:"permanentAssignment"`
	Permissions         models.StringList  `json:"permissions"`
	DefaultCategories   models.StringList  `json:"defaultCategories"`
}

// Service owns all Device mutation. Binding changes are serialized per
// device id.
type Service struct {
	devices DeviceStore
	pending PendingCounter
	audit   *audit.Writer
	locks   deviceLocks
}

// NewService creates the device registry
func NewService(devices DeviceStore, pending PendingCounter, auditWriter *audit.Writer) *Service {
	return &Service{
		devices: devices,
		pending: pending,
		audit:   auditWriter,
	}
}

// Register creates a new device with a fresh immutable UUID and a hashed PIN
func (s *Service) Register(in DeviceInput) (*models.Device, error) {
	taken, err := s.devices.ExistsByName(in.Name, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrNameTaken
	}

	if in.PermanentAssignment && in.AssignedEmployeeID != nil {
		other, err := s.devices.FindPermanentForEmployee(*in.AssignedEmployeeID, 0)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, fmt.Errorf("%w: %s", ErrEmployeeAlreadyAssigned, other.Name)
		}
	}

	pinHash, err := utils.HashSecret(in.PIN)
	if err != nil {
		return nil, fmt.Errorf("failed to hash PIN: %w", err)
	}

	device := &models.Device{
		UUID:                uuid.NewString(),
		Name:                in.Name,
		Description:         in.Description,
		Class:               in.Class,
		Location:            in.Location,
		AssignedEmployeeID:  in.AssignedEmployeeID,
		PINHash:             pinHash,
		HasBarcodeReader:    in.HasBarcodeReader,
		HasCashDrawer:       in.HasCashDrawer,
		HasCustomerDisplay:  in.HasCustomerDisplay,
		OfflineModeEnabled:  true,
		SharedTabletMode:    in.SharedTabletMode,
		Permissions:         in.Permissions,
		DefaultCategories:   in.DefaultCategories,
		Active:              true,
		Binding:             models.BindingUnassigned,
		PermanentAssignment: in.PermanentAssignment,
	}
	if in.Class == "" {
		device.Class = models.DeviceClassFixed
	}

	if err := s.devices.Create(device); err != nil {
		return nil, err
	}

	log.Printf("✅ Device registered: %s (UUID: %s)", device.Name, device.UUID)
	return device, nil
}

// Update applies mutable attributes. The UUID never changes; the PIN only
// changes when a new one is supplied.
func (s *Service) Update(id uint, in DeviceInput) (*models.Device, error) {
	device, err := s.devices.FindByID(id)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, ErrDeviceNotFound
	}

	if device.Name != in.Name {
		taken, err := s.devices.ExistsByName(in.Name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrNameTaken
		}
	}

	if in.PermanentAssignment && in.AssignedEmployeeID != nil {
		other, err := s.devices.FindPermanentForEmployee(*in.AssignedEmployeeID, id)
		if err != nil {
			return nil, err
		}
		if other != nil {
			return nil, fmt.Errorf("%w: %s", ErrEmployeeAlreadyAssigned, other.Name)
		}
	}

	device.Name = in.Name
	device.Description = in.Description
	device.Class = in.Class
	device.Location = in.Location
	device.AssignedEmployeeID = in.AssignedEmployeeID
	device.HasBarcodeReader = in.HasBarcodeReader
	device.HasCashDrawer = in.HasCashDrawer
	device.HasCustomerDisplay = in.HasCustomerDisplay
	device.SharedTabletMode = in.SharedTabletMode
	device.PermanentAssignment = in.PermanentAssignment
	device.Permissions = in.Permissions
	device.DefaultCategories = in.DefaultCategories

	if in.PIN != "" {
		pinHash, err := utils.HashSecret(in.PIN)
		if err != nil {
			return nil, fmt.Errorf("failed to hash PIN: %w", err)
		}
		device.PINHash = pinHash
	}

	if err := s.devices.Save(device); err != nil {
		return nil, err
	}
	return device, nil
}

// Delete removes a device unless unsynced sales still reference it
func (s *Service) Delete(id uint) error {
	device, err := s.devices.FindByID(id)
	if err != nil {
		return err
	}
	if device == nil {
		return ErrDeviceNotFound
	}

	count, err := s.pending.CountUnsyncedForDevice(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w (%d items)", ErrHasPendingSales, count)
	}

	if err := s.devices.Delete(device); err != nil {
		return err
	}
	log.Printf("🗑️ Device deleted: %s", device.Name)
	return nil
}

// Get returns a device by surrogate id
func (s *Service) Get(id uint) (*models.Device, error) {
	device, err := s.devices.FindByID(id)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, ErrDeviceNotFound
	}
	return device, nil
}

// GetByUUID returns a device by its stable UUID
func (s *Service) GetByUUID(deviceUUID string) (*models.Device, error) {
	device, err := s.devices.FindByUUID(deviceUUID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, ErrDeviceNotFound
	}
	return device, nil
}

// List returns all devices
func (s *Service) List() ([]models.Device, error) {
	return s.devices.List()
}

// ListActive returns devices usable by terminals
func (s *Service) ListActive() ([]models.Device, error) {
	return s.devices.ListActive()
}

// BindPermanent transitions a device to the paired state. Called on
// successful pairing token redemption.
func (s *Service) BindPermanent(deviceID uint, ip string) (*models.Device, error) {
	unlock := s.locks.lock(deviceID)
	defer unlock()

	device, err := s.devices.FindByID(deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, ErrDeviceNotFound
	}
	if !device.Active {
		return nil, ErrDeviceInactive
	}

	now := time.Now().UTC()
	device.Binding = models.BindingPaired
	device.PermanentAssignment = true
	device.LastConnectionAt = &now
	if ip != "" {
		device.LastSeenIP = ip
	}

	if err := s.devices.Save(device); err != nil {
		return nil, err
	}
	return device, nil
}

// AcquireQuickStart finds a free device and temp-binds it to the employee.
// Candidates are tried in ascending id order; the availability check is
// repeated under the device lock so two concurrent requests cannot win the
// same device.
func (s *Service) AcquireQuickStart(employee *models.Employee) (*models.Device, error) {
	candidates, err := s.devices.QuickStartCandidates()
	if err != nil {
		return nil, err
	}

	// Release any previous temporary binding this employee holds
	if err := s.releaseTempBindings(employee.ID); err != nil {
		return nil, err
	}

	for i := range candidates {
		device, err := s.tryTempBind(candidates[i].ID, employee)
		if err != nil {
			return nil, err
		}
		if device != nil {
			log.Printf("✅ Quick start: %s temp-bound to %s", employee.Name, device.Name)
			return device, nil
		}
	}

	return nil, ErrNoDeviceAvailable
}

// tryTempBind binds one candidate if it is still free. Returns (nil, nil)
// when the device was taken in the meantime.
func (s *Service) tryTempBind(deviceID uint, employee *models.Employee) (*models.Device, error) {
	unlock := s.locks.lock(deviceID)
	defer unlock()

	device, err := s.devices.FindByID(deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil || !device.AvailableForQuickStart() {
		return nil, nil
	}

	now := time.Now().UTC()
	device.AssignedEmployeeID = &employee.ID
	device.Binding = models.BindingTempBound
	device.LastConnectionAt = &now

	if err := s.devices.Save(device); err != nil {
		return nil, err
	}
	return device, nil
}

// releaseTempBindings clears any non-permanent binding the employee holds
func (s *Service) releaseTempBindings(employeeID uint) error {
	bound, err := s.devices.ListTempBoundTo(employeeID)
	if err != nil {
		return err
	}
	for i := range bound {
		d := &bound[i]
		if d.PermanentAssignment {
			continue
		}
		unlock := s.locks.lock(d.ID)
		d.AssignedEmployeeID = nil
		d.Binding = models.BindingUnassigned
		err := s.devices.Save(d)
		unlock()
		if err != nil {
			return err
		}
		log.Printf("🔄 Employee %d released from %s", employeeID, d.Name)
	}
	return nil
}

// Unbind releases a temporary binding. Permanently assigned devices are
// never unbound automatically.
func (s *Service) Unbind(deviceID uint) (*models.Device, error) {
	unlock := s.locks.lock(deviceID)
	defer unlock()

	device, err := s.devices.FindByID(deviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, ErrDeviceNotFound
	}
	if device.PermanentAssignment {
		return nil, ErrPermanentBinding
	}

	var employeeID *uint
	if device.AssignedEmployeeID != nil {
		id := *device.AssignedEmployeeID
		employeeID = &id
	}

	device.AssignedEmployeeID = nil
	device.Binding = models.BindingUnassigned

	if err := s.devices.Save(device); err != nil {
		return nil, err
	}

	s.audit.AppendFull(device.ID, models.EventConnect, "temporary binding released", employeeID, nil, "")
	return device, nil
}

// Heartbeat records liveness for an active device. Commutative
// last-writer-wins timestamp update; no locking needed.
func (s *Service) Heartbeat(deviceUUID, ip string) error {
	device, err := s.devices.FindByUUID(deviceUUID)
	if err != nil {
		return err
	}
	if device == nil {
		return ErrDeviceNotFound
	}

	now := time.Now().UTC()
	device.LastConnectionAt = &now
	if ip != "" {
		device.LastSeenIP = ip
	}

	if err := s.devices.Save(device); err != nil {
		return err
	}
	metrics.Heartbeat()
	return nil
}

// TouchLastSync stamps the device after a sync batch completes
func (s *Service) TouchLastSync(deviceID uint) {
	device, err := s.devices.FindByID(deviceID)
	if err != nil || device == nil {
		return
	}
	now := time.Now().UTC()
	device.LastSyncAt = &now
	if err := s.devices.Save(device); err != nil {
		log.Printf("⚠️ Failed to stamp last sync for device %d: %v", deviceID, err)
	}
}
