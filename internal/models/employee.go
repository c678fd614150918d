package models

import (
	"time"

	"gorm.io/gorm"
)

// Employee is the read-side staff directory entry consumed by device
// authentication. Payroll and scheduling live elsewhere.
type Employee struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"not null" json:"name"`
	Surname    string `json:"surname,omitempty"`
	Email      string `gorm:"uniqueIndex;not null" json:"email"`
	NationalID string `gorm:"uniqueIndex" json:"nationalId,omitempty"`
	Position   string `json:"position,omitempty"`
	Active     bool   `gorm:"default:true" json:"active"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for Employee
func (Employee) TableName() string {
	return "employees"
}

// Initials returns the short display initials shown on shared tablets
func (e *Employee) Initials() string {
	initials := ""
	if len(e.Name) > 0 {
		initials += string([]rune(e.Name)[0])
	}
	if len(e.Surname) > 0 {
		initials += string([]rune(e.Surname)[0])
	}
	return initials
}
