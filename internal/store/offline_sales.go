package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/clubnova/clubposgo/internal/database"
	"github.com/clubnova/clubposgo/internal/models"
)

// OfflineSales is the queue of offline-captured sales awaiting
// reconciliation. The unique index on sale_uuid is the idempotency guard.
type OfflineSales struct {
	db *database.DB
}

// NewOfflineSales creates the offline sale store
func NewOfflineSales(db *database.DB) *OfflineSales {
	return &OfflineSales{db: db}
}

// FindBySaleUUID returns (nil, nil) when no row exists
func (s *OfflineSales) FindBySaleUUID(saleUUID string) (*models.OfflineSale, error) {
	var sale models.OfflineSale
	err := s.db.Where("sale_uuid = ?", saleUUID).First(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// Create inserts a queue row. A duplicate-key error means another
// submission won the race for this idempotency key.
func (s *OfflineSales) Create(sale *models.OfflineSale) error {
	return s.db.Create(sale).Error
}

// IsDuplicateKey reports whether err is a unique-constraint violation
func (s *OfflineSales) IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// Save persists all fields of a queue row
func (s *OfflineSales) Save(sale *models.OfflineSale) error {
	return s.db.Save(sale).Error
}

// ListUnsyncedForDevice returns a device's PENDING and FAILED items for
// terminal-side reconciliation display
func (s *OfflineSales) ListUnsyncedForDevice(deviceID uint) ([]models.OfflineSale, error) {
	var sales []models.OfflineSale
	err := s.db.
		Where("device_id = ? AND status <> ?", deviceID, models.SyncStatusSynced).
		Order("captured_at ASC").
		Find(&sales).Error
	return sales, err
}

// CountUnsyncedForDevice counts PENDING and FAILED items for a device
func (s *OfflineSales) CountUnsyncedForDevice(deviceID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.OfflineSale{}).
		Where("device_id = ? AND status <> ?", deviceID, models.SyncStatusSynced).
		Count(&count).Error
	return count, err
}

// FindRetryable returns PENDING items whose retry time has passed and whose
// attempt counter is below the ceiling, oldest eligible first
func (s *OfflineSales) FindRetryable(now time.Time, maxAttempts int) ([]models.OfflineSale, error) {
	var sales []models.OfflineSale
	err := s.db.
		Where("status = ? AND attempts < ? AND (next_retry_at IS NULL OR next_retry_at <= ?)",
			models.SyncStatusPending, maxAttempts, now).
		Order("next_retry_at ASC").
		Find(&sales).Error
	return sales, err
}
