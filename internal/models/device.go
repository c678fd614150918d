package models

import (
	"time"

	"gorm.io/gorm"
)

// DeviceClass describes the physical kind of POS terminal
type DeviceClass string

const (
	DeviceClassFixed  DeviceClass = "fixed"  // Fixed bar terminal
	DeviceClassMobile DeviceClass = "mobile" // Handheld / waiter tablet
	DeviceClassKiosk  DeviceClass = "kiosk"  // Self-service kiosk
)

// BindingStatus is the binding state machine of a device.
// Transitions: unassigned -> paired (pairing token), unassigned/paired ->
// temp_bound (quick start), temp_bound -> unassigned (unbind).
type BindingStatus string

const (
	BindingUnassigned BindingStatus = "unassigned"
	BindingPaired     BindingStatus = "paired"
	BindingTempBound  BindingStatus = "temp_bound"
)

// Device represents a POS terminal registered in the system
// Convention: Go PascalCase -> DB snake_case (GORM auto) -> JSON camelCase
type Device struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	UUID        string      `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	Name        string      `gorm:"uniqueIndex;not null" json:"name"`
	Description string      `json:"description,omitempty"`
	Class       DeviceClass `gorm:"type:varchar(20);default:'fixed'" json:"class"`
	Location    string      `json:"location,omitempty"`

	AssignedEmployeeID *uint     `json:"assignedEmployeeId,omitempty"`
	AssignedEmployee   *Employee `json:"assignedEmployee,omitempty"`

	// PINHash is the bcrypt hash of the quick-access PIN. Never exposed.
	PINHash string `gorm:"not null" json:"-"`

	HasBarcodeReader   bool `json:"hasBarcodeReader"`
	HasCashDrawer      bool `json:"hasCashDrawer"`
	HasCustomerDisplay bool `json:"hasCustomerDisplay"`
	OfflineModeEnabled bool `gorm:"default:true" json:"offlineModeEnabled"`
	SharedTabletMode   bool `json:"sharedTabletMode"`

	Permissions       StringList `gorm:"type:jsonb" json:"permissions"`
	DefaultCategories StringList `gorm:"type:jsonb" json:"defaultCategories"`

	Active              bool          `gorm:"default:true" json:"active"`
	Binding             BindingStatus `gorm:"type:varchar(20);default:'unassigned'" json:"binding"`
	PermanentAssignment bool          `json:"permanentAssignment"`

	LastConnectionAt *time.Time `json:"lastConnectionAt,omitempty"`
	LastSyncAt       *time.Time `json:"lastSyncAt,omitempty"`
	LastSeenIP       string     `json:"lastSeenIp,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Device
func (Device) TableName() string {
	return "devices"
}

// AvailableForQuickStart reports whether the device can receive a temporary
// employee binding
func (d *Device) AvailableForQuickStart() bool {
	return d.Active && !d.PermanentAssignment && d.AssignedEmployeeID == nil
}
