package models

import "time"

// DeviceEventKind classifies device lifecycle and sync events
type DeviceEventKind string

const (
	EventConnect     DeviceEventKind = "connect"
	EventPairIssued  DeviceEventKind = "pair-issued"
	EventPaired      DeviceEventKind = "paired"
	EventLogin       DeviceEventKind = "login"
	EventLoginFailed DeviceEventKind = "login-failed"
	EventHeartbeat   DeviceEventKind = "heartbeat"
	EventSyncAttempt DeviceEventKind = "sync-attempt"
	EventSyncResult  DeviceEventKind = "sync-result"
	EventError       DeviceEventKind = "error"
)

// DeviceLogEntry is an append-only audit record of device activity.
// Rows are created only; retention is handled by an external bulk job.
type DeviceLogEntry struct {
	ID       uint            `gorm:"primaryKey" json:"id"`
	DeviceID uint            `gorm:"index;not null" json:"deviceId"`
	Kind     DeviceEventKind `gorm:"type:varchar(30);not null;index" json:"kind"`
	Detail   string          `gorm:"type:text" json:"detail,omitempty"`
	Metadata JSONB           `gorm:"type:jsonb" json:"metadata,omitempty"`

	// Actor: the employee bound at event time, or nil when the device
	// itself acted
	EmployeeID *uint  `json:"employeeId,omitempty"`
	IPAddress  string `json:"ipAddress,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// TableName specifies the table name for DeviceLogEntry
func (DeviceLogEntry) TableName() string {
	return "device_log_entries"
}
