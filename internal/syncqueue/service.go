package syncqueue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clubnova/clubposgo/internal/audit"
	"github.com/clubnova/clubposgo/internal/ingest"
	"github.com/clubnova/clubposgo/internal/metrics"
	"github.com/clubnova/clubposgo/internal/models"
)

// Store is the persistence surface of the offline sale queue
type Store interface {
	FindBySaleUUID(saleUUID string) (*models.OfflineSale, error)
	Create(sale *models.OfflineSale) error
	IsDuplicateKey(err error) bool
	Save(sale *models.OfflineSale) error
	ListUnsyncedForDevice(deviceID uint) ([]models.OfflineSale, error)
	FindRetryable(now time.Time, maxAttempts int) ([]models.OfflineSale, error)
}

// Ingestor applies one queued sale to the canonical sale path. It is a
// single atomic external operation from the queue's point of view.
type Ingestor interface {
	Apply(ctx context.Context, sale *models.OfflineSale) (canonicalID uint, err error)
}

// DeviceStamper records that a device completed a sync round
type DeviceStamper interface {
	TouchLastSync(deviceID uint)
}

// Service enforces at-most-once application per idempotency key. Each
// item's dedup-check-then-apply runs under a per-key lock; the unique
// constraint on sale_uuid backstops races the lock cannot see (e.g. two
// processes).
type Service struct {
	store    Store
	ingestor Ingestor
	devices  DeviceStamper
	audit    *audit.Writer

	ingestTimeout time.Duration
	maxAttempts   int

	locksMu  sync.Mutex
	keyLocks map[string]*keyLock
}

// keyLock is reference-counted so the table entry can be dropped once the
// last holder releases; the map stays bounded by in-flight keys, not by
// every sale UUID ever seen.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewService creates the sync queue service
func NewService(store Store, ingestor Ingestor, devices DeviceStamper, auditWriter *audit.Writer, ingestTimeout time.Duration, maxAttempts int) *Service {
	if maxAttempts <= 0 {
		maxAttempts = 10
	}
	if ingestTimeout <= 0 {
		ingestTimeout = 15 * time.Second
	}
	return &Service{
		store:         store,
		ingestor:      ingestor,
		devices:       devices,
		audit:         auditWriter,
		ingestTimeout: ingestTimeout,
		maxAttempts:   maxAttempts,
		keyLocks:      make(map[string]*keyLock),
	}
}

// SubmitBatch processes a device's offline sales item by item. One item's
// failure neither rolls back nor blocks the others; results come back in
// input order.
func (s *Service) SubmitBatch(deviceID uint, items []SubmittedSale) []ItemResult {
	results := make([]ItemResult, 0, len(items))
	applied := 0

	for _, item := range items {
		res := s.processSubmission(deviceID, item)
		if res.Outcome == OutcomeApplied {
			applied++
		}
		results = append(results, res)
	}

	s.devices.TouchLastSync(deviceID)
	s.audit.Append(deviceID, models.EventSyncResult,
		fmt.Sprintf("batch of %d: %d applied", len(items), applied))

	return results
}

// PendingForDevice lists the still-unsynced items a terminal should keep
// holding locally
func (s *Service) PendingForDevice(deviceID uint) ([]models.OfflineSale, error) {
	return s.store.ListUnsyncedForDevice(deviceID)
}

// Retryable returns queue items due for a background retry
func (s *Service) Retryable(now time.Time) ([]models.OfflineSale, error) {
	return s.store.FindRetryable(now, s.maxAttempts)
}

// processSubmission resolves one submitted item to a queue row and runs the
// apply-or-duplicate step
func (s *Service) processSubmission(deviceID uint, item SubmittedSale) ItemResult {
	if err := uuid.Validate(item.SaleUUID); err != nil {
		return ItemResult{
			SaleUUID: item.SaleUUID,
			Outcome:  OutcomePermanentFailure,
			Error:    "invalid idempotency key",
		}
	}

	unlock := s.lockKey(item.SaleUUID)
	defer unlock()

	row, err := s.store.FindBySaleUUID(item.SaleUUID)
	if err != nil {
		return transientResult(item.SaleUUID, err)
	}

	if row == nil {
		row = &models.OfflineSale{
			SaleUUID:   item.SaleUUID,
			DeviceID:   deviceID,
			Payload:    item.Payload,
			CapturedAt: item.CapturedAt,
			Status:     models.SyncStatusPending,
		}
		if err := s.store.Create(row); err != nil {
			if !s.store.IsDuplicateKey(err) {
				return transientResult(item.SaleUUID, err)
			}
			// Another submission inserted this key first; fall through to
			// its row
			row, err = s.store.FindBySaleUUID(item.SaleUUID)
			if err != nil || row == nil {
				return transientResult(item.SaleUUID, err)
			}
		}
	}

	return s.applyRow(row)
}

// RetryRow re-attempts one queue item from the background driver. The row
// is re-read under the key lock because its state may have moved since the
// retryable query ran.
func (s *Service) RetryRow(saleUUID string) ItemResult {
	unlock := s.lockKey(saleUUID)
	defer unlock()

	row, err := s.store.FindBySaleUUID(saleUUID)
	if err != nil {
		return transientResult(saleUUID, err)
	}
	if row == nil {
		return ItemResult{SaleUUID: saleUUID, Outcome: OutcomePermanentFailure, Error: "queue row disappeared"}
	}

	return s.applyRow(row)
}

// applyRow is the atomic unit of work: dedup check then a single bounded
// ingestion attempt. Caller must hold the key lock.
func (s *Service) applyRow(row *models.OfflineSale) ItemResult {
	switch row.Status {
	case models.SyncStatusSynced:
		metrics.SyncItem(string(OutcomeDuplicateIgnored))
		return ItemResult{
			SaleUUID:        row.SaleUUID,
			Outcome:         OutcomeDuplicateIgnored,
			CanonicalSaleID: row.CanonicalSaleID,
		}
	case models.SyncStatusFailed:
		return ItemResult{
			SaleUUID: row.SaleUUID,
			Outcome:  OutcomePermanentFailure,
			Error:    derefOr(row.LastError, "attempts exhausted"),
		}
	}

	s.audit.Append(row.DeviceID, models.EventSyncAttempt,
		fmt.Sprintf("sale %s attempt %d", row.SaleUUID, row.Attempts+1))

	ctx, cancel := context.WithTimeout(context.Background(), s.ingestTimeout)
	defer cancel()

	start := time.Now()
	canonicalID, err := s.ingestor.Apply(ctx, row)
	elapsed := time.Since(start).Seconds()

	if err == nil {
		now := time.Now().UTC()
		row.Status = models.SyncStatusSynced
		row.CanonicalSaleID = &canonicalID
		row.SyncedAt = &now
		row.LastError = nil
		row.NextRetryAt = nil
		if saveErr := s.store.Save(row); saveErr != nil {
			// The canonical sale exists; the queue row must reflect that or
			// a retry would hit the sale table's own unique key
			log.Printf("❌ Failed to mark sale %s synced: %v", row.SaleUUID, saveErr)
		}

		metrics.SyncItem(string(OutcomeApplied))
		metrics.SyncApplyObserved("applied", elapsed)
		return ItemResult{
			SaleUUID:        row.SaleUUID,
			Outcome:         OutcomeApplied,
			CanonicalSaleID: &canonicalID,
		}
	}

	return s.recordFailure(row, err, elapsed)
}

// recordFailure increments the attempt counter and decides between a
// backoff-scheduled retry and the failed terminal state
func (s *Service) recordFailure(row *models.OfflineSale, applyErr error, elapsed float64) ItemResult {
	row.Attempts++
	msg := applyErr.Error()
	row.LastError = &msg

	rejected := errors.Is(applyErr, ingest.ErrRejected)
	exhausted := row.Attempts >= s.maxAttempts

	if rejected || exhausted {
		row.Status = models.SyncStatusFailed
		row.NextRetryAt = nil
		if err := s.store.Save(row); err != nil {
			log.Printf("❌ Failed to park sale %s: %v", row.SaleUUID, err)
		}

		detail := fmt.Sprintf("sale %s failed permanently after %d attempts: %s", row.SaleUUID, row.Attempts, msg)
		s.audit.Append(row.DeviceID, models.EventError, detail)
		log.Printf("❌ %s", detail)

		metrics.SyncItem(string(OutcomePermanentFailure))
		metrics.SyncApplyObserved("rejected", elapsed)
		return ItemResult{SaleUUID: row.SaleUUID, Outcome: OutcomePermanentFailure, Error: msg}
	}

	next := time.Now().UTC().Add(RetryDelay(row.Attempts))
	row.Status = models.SyncStatusPending
	row.NextRetryAt = &next
	if err := s.store.Save(row); err != nil {
		log.Printf("❌ Failed to reschedule sale %s: %v", row.SaleUUID, err)
	}

	metrics.SyncItem(string(OutcomeTransientFailure))
	metrics.SyncApplyObserved("error", elapsed)
	return ItemResult{SaleUUID: row.SaleUUID, Outcome: OutcomeTransientFailure, Error: msg}
}

func (s *Service) lockKey(saleUUID string) func() {
	s.locksMu.Lock()
	l, ok := s.keyLocks[saleUUID]
	if !ok {
		l = &keyLock{}
		s.keyLocks[saleUUID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.keyLocks, saleUUID)
		}
		s.locksMu.Unlock()
	}
}

func transientResult(saleUUID string, err error) ItemResult {
	msg := "storage unavailable"
	if err != nil {
		msg = err.Error()
	}
	metrics.SyncItem(string(OutcomeTransientFailure))
	return ItemResult{SaleUUID: saleUUID, Outcome: OutcomeTransientFailure, Error: msg}
}

func derefOr(s *string, fallback string) string {
	if s != nil && *s != "" {
		return *s
	}
	return fallback
}
