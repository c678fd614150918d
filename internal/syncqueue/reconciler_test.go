package syncqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clubnova/clubposgo/internal/models"
)

func TestReconcilerAppliesDueRetries(t *testing.T) {
	store := newFakeQueueStore()
	failing := true
	ingestor := &fakeIngestor{apply: func(ctx context.Context, sale *models.OfflineSale) (uint, error) {
		if failing {
			return 0, errors.New("connection refused")
		}
		return 9, nil
	}}
	svc, _ := newTestService(store, ingestor, 10)

	item := submission(`{"total": 4}`)
	svc.SubmitBatch(1, []SubmittedSale{item})

	// Pull the retry forward so the sweep sees it as due
	row, _ := store.FindBySaleUUID(item.SaleUUID)
	past := time.Now().Add(-time.Second)
	row.NextRetryAt = &past
	store.Save(row)

	failing = false
	reconciler := NewReconciler(svc, 10*time.Millisecond)
	reconciler.Start()
	defer reconciler.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		row, _ = store.FindBySaleUUID(item.SaleUUID)
		if row.Status == models.SyncStatusSynced {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Reconciler did not apply the due row, status %s", row.Status)
}

func TestReconcilerStartStopIdempotent(t *testing.T) {
	store := newFakeQueueStore()
	ingestor := &fakeIngestor{apply: func(ctx context.Context, sale *models.OfflineSale) (uint, error) {
		return 1, nil
	}}
	svc, _ := newTestService(store, ingestor, 10)

	reconciler := NewReconciler(svc, time.Hour)
	reconciler.Start()
	reconciler.Start()
	reconciler.Stop()
	reconciler.Stop()

	// Restart after a stop must work
	reconciler.Start()
	reconciler.Stop()
}

func TestReconcilerSkipsParkedRows(t *testing.T) {
	store := newFakeQueueStore()
	ingestor := &fakeIngestor{apply: func(ctx context.Context, sale *models.OfflineSale) (uint, error) {
		return 0, errors.New("still down")
	}}
	svc, _ := newTestService(store, ingestor, 2)

	item := submission(`{"total": 6}`)
	svc.SubmitBatch(1, []SubmittedSale{item})
	svc.RetryRow(item.SaleUUID)

	row, _ := store.FindBySaleUUID(item.SaleUUID)
	if row.Status != models.SyncStatusFailed {
		t.Fatalf("Row should be parked after exhausting attempts, got %s", row.Status)
	}

	due, err := svc.Retryable(time.Now().UTC().Add(time.Hour))
	if err != nil {
		t.Fatalf("Retryable query failed: %v", err)
	}
	for _, d := range due {
		if d.SaleUUID == item.SaleUUID {
			t.Error("Parked row must never be retry-eligible")
		}
	}
}
