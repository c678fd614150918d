package store

import (
	"errors"

	"gorm.io/gorm"

	"github.com/clubnova/clubposgo/internal/database"
	"github.com/clubnova/clubposgo/internal/models"
)

// Employees is the read-only staff directory lookup
type Employees struct {
	db *database.DB
}

// NewEmployees creates the employee directory
func NewEmployees(db *database.DB) *Employees {
	return &Employees{db: db}
}

// FindByID returns (nil, nil) when no row exists
func (s *Employees) FindByID(id uint) (*models.Employee, error) {
	var employee models.Employee
	err := s.db.First(&employee, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// FindByIdentifier resolves an employee by email or national id
func (s *Employees) FindByIdentifier(identifier string) (*models.Employee, error) {
	var employee models.Employee
	err := s.db.Where("email = ? OR national_id = ?", identifier, identifier).First(&employee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// ListActive returns all active employees (shared-tablet roster)
func (s *Employees) ListActive() ([]models.Employee, error) {
	var employees []models.Employee
	err := s.db.Where("active = ?", true).Order("name ASC").Find(&employees).Error
	return employees, err
}

// Catalog serves the preloaded product set and active cash session for
// device configuration snapshots
type Catalog struct {
	db *database.DB
}

// NewCatalog creates the catalog lookup
func NewCatalog(db *database.DB) *Catalog {
	return &Catalog{db: db}
}

// ActiveProducts returns the offline-cacheable product set
func (s *Catalog) ActiveProducts() ([]models.Product, error) {
	var products []models.Product
	err := s.db.Where("active = ?", true).Order("id ASC").Find(&products).Error
	return products, err
}

// OpenCashSession returns the id of the currently open cash session, or nil
func (s *Catalog) OpenCashSession() (*uint, error) {
	var session models.CashSession
	err := s.db.Where("status = ?", "open").Order("opened_at DESC").First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session.ID, nil
}
