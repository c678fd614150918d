package syncqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/clubnova/clubposgo/internal/audit"
	"github.com/clubnova/clubposgo/internal/ingest"
	"github.com/clubnova/clubposgo/internal/models"
)

var errDuplicate = errors.New("duplicate key")

// fakeQueueStore is an in-memory Store with the same unique-key behavior as
// the real table
type fakeQueueStore struct {
	mu   sync.Mutex
	rows map[string]*models.OfflineSale
}

func newFakeQueueStore() *fakeQueueStore {
	return &fakeQueueStore{rows: make(map[string]*models.OfflineSale)}
}

func (f *fakeQueueStore) FindBySaleUUID(saleUUID string) (*models.OfflineSale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[saleUUID], nil
}

func (f *fakeQueueStore) Create(sale *models.OfflineSale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.rows[sale.SaleUUID]; exists {
		return errDuplicate
	}
	f.rows[sale.SaleUUID] = sale
	return nil
}

func (f *fakeQueueStore) IsDuplicateKey(err error) bool {
	return errors.Is(err, errDuplicate)
}

func (f *fakeQueueStore) Save(sale *models.OfflineSale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[sale.SaleUUID] = sale
	return nil
}

func (f *fakeQueueStore) ListUnsyncedForDevice(deviceID uint) ([]models.OfflineSale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.OfflineSale
	for _, row := range f.rows {
		if row.DeviceID == deviceID && row.Status != models.SyncStatusSynced {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeQueueStore) FindRetryable(now time.Time, maxAttempts int) ([]models.OfflineSale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.OfflineSale
	for _, row := range f.rows {
		if row.Status != models.SyncStatusPending || row.Attempts >= maxAttempts {
			continue
		}
		if row.NextRetryAt == nil || !row.NextRetryAt.After(now) {
			out = append(out, *row)
		}
	}
	return out, nil
}

// fakeIngestor delegates to a per-test apply function and counts calls
type fakeIngestor struct {
	mu    sync.Mutex
	calls int
	apply func(ctx context.Context, sale *models.OfflineSale) (uint, error)
}

func (f *fakeIngestor) Apply(ctx context.Context, sale *models.OfflineSale) (uint, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.apply(ctx, sale)
}

func (f *fakeIngestor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStamper struct {
	mu      sync.Mutex
	touched []uint
}

func (f *fakeStamper) TouchLastSync(deviceID uint) {
	f.mu.Lock()
	f.touched = append(f.touched, deviceID)
	f.mu.Unlock()
}

// memAuditStore satisfies audit.Store for tests
type memAuditStore struct {
	mu      sync.Mutex
	entries []models.DeviceLogEntry
}

func (m *memAuditStore) Create(entry *models.DeviceLogEntry) error {
	m.mu.Lock()
	m.entries = append(m.entries, *entry)
	m.mu.Unlock()
	return nil
}

func (m *memAuditStore) ListForDevice(deviceID uint, limit int) ([]models.DeviceLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DeviceLogEntry
	for _, e := range m.entries {
		if e.DeviceID == deviceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func newTestService(store Store, ingestor Ingestor, maxAttempts int) (*Service, *fakeStamper) {
	stamper := &fakeStamper{}
	writer := audit.NewWriter(&memAuditStore{}, nil)
	return NewService(store, ingestor, stamper, writer, time.Second, maxAttempts), stamper
}

func submission(payload string) SubmittedSale {
	return SubmittedSale{
		SaleUUID:   uuid.NewString(),
		Payload:    datatypes.JSON([]byte(payload)),
		CapturedAt: time.Now().Add(-10 * time.Minute),
	}
}

func TestSubmitBatchApplies(t *testing.T) {
	store := newFakeQueueStore()
	ingestor := &fakeIngestor{apply: func(ctx context.Context, sale *models.OfflineSale) (uint, error) {
		return 101, nil
	}}
	svc, stamper := newTestService(store, ingestor, 10)

	item := submission(`{"total": 12}`)
	results := svc.SubmitBatch(7, []SubmittedSale{item})

	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].Outcome != OutcomeApplied {
		t.Fatalf("Expected APPLIED, got %s (%s)", results[0].Outcome, results[0].Error)
	}
	if results[0].CanonicalSaleID == nil || *results[0].CanonicalSaleID != 101 {
		t.Error("Expected canonical sale id 101 in the result")
	}

	row, _ := store.FindBySaleUUID(item.SaleUUID)
	if row == nil || row.Status != models.SyncStatusSynced {
		t.Error("Queue row should be retained and marked SYNCED")
	}
	if len(stamper.touched) != 1 || stamper.touched[0] != 7 {
		t.Error("Batch should stamp the device's last sync time once")
	}
}

func TestResubmitAfterSuccessIsDuplicate(t *testing.T) {
	store := newFakeQueueStore()
	ingestor := &fakeIngestor{apply: func(ctx context.Context, sale *models.OfflineSale) (uint, error) {
		return 55, nil
	}}
	svc, _ := newTestService(store, ingestor, 10)

	item := submission(`{"total": 8}`)
	svc.SubmitBatch(1, []SubmittedSale{item})

	// Simulates an ACK lost before reaching the device
	results := svc.SubmitBatch(1, []SubmittedSale{item})

	if results[0].Outcome != OutcomeDuplicateIgnored {
		t.Fatalf("Expected DUPLICATE_IGNORED, got %s", results[0].Outcome)
	}
	if results[0].CanonicalSaleID == nil || *results[0].CanonicalSaleID != 55 {
		t.Error("Duplicate result should carry the original canonical sale id")
	}
	if ingestor.callCount() != 1 {
		t.Errorf("Sale must be applied exactly once, ingestor ran %d times", ingestor.callCount())
	}
}

func TestRejectedPayloadFailsPermanently(t *testing.T) {
	store := newFakeQueueStore()
	ingestor := &fakeIngestor{apply: func(ctx context.Context, sale *models.OfflineSale) (uint, error) {
		return 0, ingest.ErrRejected
	}}
	svc, _ := newTestService(store, ingestor, 10)

	item := submission(`{"malformed": true}`)
	results := svc.SubmitBatch(1, []SubmittedSale{item})

	if results[0].Outcome != OutcomePermanentFailure {
		t.Fatalf("Expected PERMANENT_FAILURE, got %s", results[0].Outcome)
	}

	row, _ := store.FindBySaleUUID(item.SaleUUID)
	if row.Status != models.SyncStatusFailed {
		t.Error("Rejected payload should park the row as FAILED even on attempt 1")
	}

	// Resubmission must not re-run the ingestor
	results = svc.SubmitBatch(1, []SubmittedSale{item})
	if results[0].Outcome != OutcomePermanentFailure {
		t.Errorf("Failed row resubmission should stay PERMANENT_FAILURE, got %s", results[0].Outcome)
	}
	if ingestor.callCount() != 1 {
		t.Errorf("Failed row must not be re-applied, ingestor ran %d times", ingestor.callCount())
	}
}

func TestTransientFailureSchedulesRetry(t *testing.T) {
	store := newFakeQueueStore()
	failing := true
	ingestor := &fakeIngestor{apply: func(ctx context.Context, sale *models.OfflineSale) (uint, error) {
		if failing {
			return 0, errors.New("connection refused")
		}
		return 77, nil
	}}
	svc, _ := newTestService(store, ingestor, 10)

	item := submission(`{"total": 20}`)
	results := svc.SubmitBatch(3, []SubmittedSale{item})

	if results[0].Outcome != OutcomeTransientFailure {
		t.Fatalf("Expected TRANSIENT_FAILURE, got %s", results[0].Outcome)
	}

	row, _ := store.FindBySaleUUID(item.SaleUUID)
	if row.Status != models.SyncStatusPending {
		t.Error("Transiently failed row should stay PENDING")
	}
	if row.Attempts != 1 {
		t.Errorf("Expected 1 attempt recorded, got %d", row.Attempts)
	}
	if row.NextRetryAt == nil || !row.NextRetryAt.After(time.Now()) {
		t.Error("Transient failure should schedule a future retry")
	}

	// The background driver later re-runs the row and succeeds
	failing = false
	res := svc.RetryRow(item.SaleUUID)
	if res.Outcome != OutcomeApplied {
		t.Fatalf("Expected retry to apply, got %s (%s)", res.Outcome, res.Error)
	}
	row, _ = store.FindBySaleUUID(item.SaleUUID)
	if row.Status != models.SyncStatusSynced {
		t.Error("Retried row should be SYNCED")
	}
}

func TestAttemptCeilingParksRow(t *testing.T) {
	store := newFakeQueueStore()
	ingestor := &fakeIngestor{apply: func(ctx context.Context, sale *models.OfflineSale) (uint, error) {
		return 0, errors.New("timeout")
	}}
	svc, _ := newTestService(store, ingestor, 3)

	item := submission(`{"total": 5}`)
	svc.SubmitBatch(1, []SubmittedSale{item})

	res := svc.RetryRow(item.SaleUUID)
	if res.Outcome != OutcomeTransientFailure {
		t.Fatalf("Attempt 2 of 3 should still be transient, got %s", res.Outcome)
	}

	res = svc.RetryRow(item.SaleUUID)
	if res.Outcome != OutcomePermanentFailure {
		t.Fatalf("Attempt 3 of 3 should exhaust the ceiling, got %s", res.Outcome)
	}

	row, _ := store.FindBySaleUUID(item.SaleUUID)
	if row.Status != models.SyncStatusFailed {
		t.Error("Exhausted row should be FAILED")
	}
	if row.Attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", row.Attempts)
	}
}

func TestInvalidIdempotencyKey(t *testing.T) {
	store := newFakeQueueStore()
	ingestor := &fakeIngestor{apply: func(ctx context.Context, sale *models.OfflineSale) (uint, error) {
		t.Fatal("Ingestor must not run for an invalid key")
		return 0, nil
	}}
	svc, _ := newTestService(store, ingestor, 10)

	results := svc.SubmitBatch(1, []SubmittedSale{{
		SaleUUID: "not-a-uuid",
		Payload:  datatypes.JSON([]byte(`{}`)),
	}})

	if results[0].Outcome != OutcomePermanentFailure {
		t.Fatalf("Expected PERMANENT_FAILURE, got %s", results[0].Outcome)
	}
	if row, _ := store.FindBySaleUUID("not-a-uuid"); row != nil {
		t.Error("Invalid key must not create a queue row")
	}
}

func TestBatchItemsAreIndependent(t *testing.T) {
	store := newFakeQueueStore()
	ingestor := &fakeIngestor{apply: func(ctx context.Context, sale *models.OfflineSale) (uint, error) {
		if string(sale.Payload) == `"bad"` {
			return 0, ingest.ErrRejected
		}
		return 1, nil
	}}
	svc, _ := newTestService(store, ingestor, 10)

	items := []SubmittedSale{
		submission(`{"total": 1}`),
		submission(`"bad"`),
		submission(`{"total": 3}`),
	}
	results := svc.SubmitBatch(9, items)

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	for i, item := range items {
		if results[i].SaleUUID != item.SaleUUID {
			t.Errorf("Result %d out of order: got %s", i, results[i].SaleUUID)
		}
	}
	if results[0].Outcome != OutcomeApplied || results[2].Outcome != OutcomeApplied {
		t.Error("Items around a failed one should still apply")
	}
	if results[1].Outcome != OutcomePermanentFailure {
		t.Errorf("Bad item should fail alone, got %s", results[1].Outcome)
	}
}

func TestIngestTimeoutIsTransient(t *testing.T) {
	store := newFakeQueueStore()
	ingestor := &fakeIngestor{apply: func(ctx context.Context, sale *models.OfflineSale) (uint, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}}
	stamper := &fakeStamper{}
	writer := audit.NewWriter(&memAuditStore{}, nil)
	svc := NewService(store, ingestor, stamper, writer, 20*time.Millisecond, 10)

	item := submission(`{"total": 2}`)
	results := svc.SubmitBatch(1, []SubmittedSale{item})

	if results[0].Outcome != OutcomeTransientFailure {
		t.Fatalf("Expected timeout to be transient, got %s", results[0].Outcome)
	}
	row, _ := store.FindBySaleUUID(item.SaleUUID)
	if row.Status != models.SyncStatusPending {
		t.Error("Timed-out row should remain PENDING for retry")
	}
}

func TestConcurrentSubmissionsApplyOnce(t *testing.T) {
	store := newFakeQueueStore()
	ingestor := &fakeIngestor{apply: func(ctx context.Context, sale *models.OfflineSale) (uint, error) {
		time.Sleep(5 * time.Millisecond)
		return 42, nil
	}}
	svc, _ := newTestService(store, ingestor, 10)

	item := submission(`{"total": 30}`)

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res := svc.SubmitBatch(1, []SubmittedSale{item})
			outcomes[i] = res[0].Outcome
		}(i)
	}
	wg.Wait()

	if ingestor.callCount() != 1 {
		t.Fatalf("Sale must be applied exactly once under contention, ingestor ran %d times", ingestor.callCount())
	}

	applied := 0
	for _, o := range outcomes {
		switch o {
		case OutcomeApplied:
			applied++
		case OutcomeDuplicateIgnored:
		default:
			t.Errorf("Unexpected outcome under contention: %s", o)
		}
	}
	if applied != 1 {
		t.Errorf("Exactly one submission should report APPLIED, got %d", applied)
	}
}

func TestKeyLockTableDrainsAfterSettlement(t *testing.T) {
	store := newFakeQueueStore()
	ingestor := &fakeIngestor{apply: func(ctx context.Context, sale *models.OfflineSale) (uint, error) {
		return 7, nil
	}}
	svc, _ := newTestService(store, ingestor, 10)

	batch := []SubmittedSale{
		submission(`{"total": 10}`),
		submission(`{"total": 20}`),
		submission(`{"total": 30}`),
	}
	svc.SubmitBatch(1, batch)

	svc.locksMu.Lock()
	residual := len(svc.keyLocks)
	svc.locksMu.Unlock()
	if residual != 0 {
		t.Errorf("Lock table must be empty once no submission is in flight, %d entries remain", residual)
	}
}

func TestKeyLockTableDrainsUnderContention(t *testing.T) {
	store := newFakeQueueStore()
	ingestor := &fakeIngestor{apply: func(ctx context.Context, sale *models.OfflineSale) (uint, error) {
		time.Sleep(2 * time.Millisecond)
		return 7, nil
	}}
	svc, _ := newTestService(store, ingestor, 10)

	item := submission(`{"total": 15}`)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.SubmitBatch(1, []SubmittedSale{item})
		}()
	}
	wg.Wait()

	svc.locksMu.Lock()
	residual := len(svc.keyLocks)
	svc.locksMu.Unlock()
	if residual != 0 {
		t.Errorf("Lock table must drain after contention, %d entries remain", residual)
	}
}
