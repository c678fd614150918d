package models

import "time"

// Sale is the canonical sale record produced by the ingestion path.
// Exactly one row exists per applied idempotency key.
type Sale struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	SaleUUID string `gorm:"type:uuid;uniqueIndex;not null" json:"uuidVenta"`

	DeviceID      uint  `gorm:"index;not null" json:"deviceId"`
	EmployeeID    *uint `json:"employeeId,omitempty"`
	CashSessionID *uint `json:"cashSessionId,omitempty"`

	Total       float64 `gorm:"not null" json:"total"`
	PaymentCash float64 `json:"paymentCash"`
	PaymentCard float64 `json:"paymentCard"`

	// CapturedAt is the terminal-local capture time, which can be well
	// before CreatedAt for offline sales
	CapturedAt time.Time `json:"capturedAt"`
	CreatedAt  time.Time `json:"createdAt"`

	Lines []SaleLine `json:"lines,omitempty"`
}

// TableName specifies the table name for Sale
func (Sale) TableName() string {
	return "sales"
}

// SaleLine is a single product line within a canonical sale
type SaleLine struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	SaleID    uint    `gorm:"index;not null" json:"saleId"`
	ProductID uint    `gorm:"not null" json:"productId"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	UnitPrice float64 `gorm:"not null" json:"unitPrice"`
}

// TableName specifies the table name for SaleLine
func (SaleLine) TableName() string {
	return "sale_lines"
}
