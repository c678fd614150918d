package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a sellable item preloaded onto terminals for offline use
type Product struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Name      string  `gorm:"not null" json:"name"`
	Category  string  `gorm:"index" json:"category,omitempty"`
	SalePrice float64 `gorm:"not null" json:"salePrice"`
	Stock     int     `gorm:"default:0" json:"stock"`
	Active    bool    `gorm:"default:true" json:"active"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Product
func (Product) TableName() string {
	return "products"
}

// CashSession is an open/closed cash register session. Terminals receive the
// currently open session id in their configuration snapshot.
type CashSession struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	OpenedAt time.Time  `gorm:"not null" json:"openedAt"`
	ClosedAt *time.Time `json:"closedAt,omitempty"`
	Status   string     `gorm:"type:varchar(20);default:'open';index" json:"status"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the table name for CashSession
func (CashSession) TableName() string {
	return "cash_sessions"
}
