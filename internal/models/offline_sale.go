package models

import (
	"time"

	"gorm.io/datatypes"
)

// SyncStatus is the lifecycle state of an offline sale in the queue
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "PENDING" // Waiting for a successful apply
	SyncStatusSynced  SyncStatus = "SYNCED"  // Applied exactly once, terminal
	SyncStatusFailed  SyncStatus = "FAILED"  // Attempts exhausted or rejected, needs a human
)

// OfflineSale is a sale captured by a terminal while disconnected, queued
// until the reconciler applies it to the canonical sale path.
//
// SaleUUID is generated on the terminal at capture time, never by the
// server. The unique index is the storage-level idempotency guard: two
// concurrent submissions of the same key collide here, not in application
// code.
type OfflineSale struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	SaleUUID string `gorm:"type:uuid;uniqueIndex;not null" json:"uuidVenta"`

	DeviceID uint    `gorm:"index;not null" json:"deviceId"`
	Device   *Device `json:"-"`

	// Payload is the opaque sale body as observed offline: line items,
	// totals, payment split, timestamps.
	Payload    datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	CapturedAt time.Time      `json:"capturedAt"`

	Status          SyncStatus `gorm:"type:varchar(20);default:'PENDING';index" json:"status"`
	Attempts        int        `gorm:"default:0" json:"attempts"`
	NextRetryAt     *time.Time `gorm:"index" json:"nextRetryAt,omitempty"`
	LastError       *string    `gorm:"type:text" json:"lastError,omitempty"`
	CanonicalSaleID *uint      `json:"canonicalSaleId,omitempty"`
	SyncedAt        *time.Time `json:"syncedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for OfflineSale
func (OfflineSale) TableName() string {
	return "offline_sales"
}
