package store

import (
	"errors"

	"gorm.io/gorm"

	"github.com/clubnova/clubposgo/internal/database"
	"github.com/clubnova/clubposgo/internal/models"
)

// Devices is the PostgreSQL-backed device store
type Devices struct {
	db *database.DB
}

// NewDevices creates the device store
func NewDevices(db *database.DB) *Devices {
	return &Devices{db: db}
}

// FindByID returns (nil, nil) when no row exists
func (s *Devices) FindByID(id uint) (*models.Device, error) {
	var device models.Device
	err := s.db.Preload("AssignedEmployee").First(&device, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// FindByUUID returns (nil, nil) when no row exists
func (s *Devices) FindByUUID(uuid string) (*models.Device, error) {
	var device models.Device
	err := s.db.Preload("AssignedEmployee").Where("uuid = ?", uuid).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// ExistsByName checks display-name uniqueness, optionally excluding one row
func (s *Devices) ExistsByName(name string, excludeID uint) (bool, error) {
	var count int64
	q := s.db.Model(&models.Device{}).Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindPermanentForEmployee finds the device an employee is permanently
// assigned to, if any
func (s *Devices) FindPermanentForEmployee(employeeID uint, excludeID uint) (*models.Device, error) {
	var device models.Device
	q := s.db.Where("assigned_employee_id = ? AND permanent_assignment = ?", employeeID, true)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &device, nil
}

// ListTempBoundTo returns devices temporarily bound to an employee
func (s *Devices) ListTempBoundTo(employeeID uint) ([]models.Device, error) {
	var devices []models.Device
	err := s.db.
		Where("assigned_employee_id = ? AND permanent_assignment = ?", employeeID, false).
		Find(&devices).Error
	return devices, err
}

// QuickStartCandidates returns free devices in ascending id order so that
// selection is deterministic
func (s *Devices) QuickStartCandidates() ([]models.Device, error) {
	var devices []models.Device
	err := s.db.
		Where("active = ? AND permanent_assignment = ? AND assigned_employee_id IS NULL", true, false).
		Order("id ASC").
		Find(&devices).Error
	return devices, err
}

// List returns all devices
func (s *Devices) List() ([]models.Device, error) {
	var devices []models.Device
	err := s.db.Preload("AssignedEmployee").Order("id ASC").Find(&devices).Error
	return devices, err
}

// ListActive returns active devices only
func (s *Devices) ListActive() ([]models.Device, error) {
	var devices []models.Device
	err := s.db.Preload("AssignedEmployee").Where("active = ?", true).Order("id ASC").Find(&devices).Error
	return devices, err
}

// Create inserts a device
func (s *Devices) Create(d *models.Device) error {
	return s.db.Create(d).Error
}

// Save persists all fields of a device
func (s *Devices) Save(d *models.Device) error {
	return s.db.Save(d).Error
}

// Delete soft-deletes a device
func (s *Devices) Delete(d *models.Device) error {
	return s.db.Delete(d).Error
}
