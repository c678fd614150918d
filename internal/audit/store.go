package audit

import (
	"github.com/clubnova/clubposgo/internal/database"
	"github.com/clubnova/clubposgo/internal/models"
)

// GormStore persists audit entries in PostgreSQL
type GormStore struct {
	db *database.DB
}

// NewGormStore creates a database-backed audit store
func NewGormStore(db *database.DB) *GormStore {
	return &GormStore{db: db}
}

// Create inserts one log entry
func (s *GormStore) Create(entry *models.DeviceLogEntry) error {
	return s.db.Create(entry).Error
}

// ListForDevice returns the newest entries first
func (s *GormStore) ListForDevice(deviceID uint, limit int) ([]models.DeviceLogEntry, error) {
	var entries []models.DeviceLogEntry
	err := s.db.
		Where("device_id = ?", deviceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
