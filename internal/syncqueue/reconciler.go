package syncqueue

import (
	"log"
	"sync"
	"time"
)

// Reconciler is the background retry driver. It periodically drains
// retry-eligible queue items through the same apply-or-duplicate step as a
// live submission, and can be stopped between items at any time.
type Reconciler struct {
	mu sync.Mutex

	svc      *Service
	interval time.Duration

	isRunning bool
	stopChan  chan struct{}
}

// NewReconciler creates the retry driver
func NewReconciler(svc *Service, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reconciler{
		svc:      svc,
		interval: interval,
	}
}

// Start launches the sweep loop
func (r *Reconciler) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning {
		return
	}
	r.isRunning = true
	r.stopChan = make(chan struct{})

	go r.sweepLoop(r.stopChan)
	log.Println("🔄 Sync reconciler started")
}

// Stop halts the loop. An in-flight item finishes; nothing is left half
// applied.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRunning {
		return
	}
	r.isRunning = false
	close(r.stopChan)
	log.Println("🛑 Sync reconciler stopped")
}

func (r *Reconciler) sweepLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep(stop)
		case <-stop:
			return
		}
	}
}

// sweep re-attempts every currently eligible item, checking for shutdown
// between items
func (r *Reconciler) sweep(stop <-chan struct{}) {
	items, err := r.svc.Retryable(time.Now().UTC())
	if err != nil {
		log.Printf("⚠️ Reconciler query failed: %v", err)
		return
	}
	if len(items) == 0 {
		return
	}

	log.Printf("🔄 Reconciler: retrying %d queued sale(s)", len(items))
	for i := range items {
		select {
		case <-stop:
			return
		default:
		}

		res := r.svc.RetryRow(items[i].SaleUUID)
		if res.Outcome == OutcomeApplied {
			log.Printf("✅ Reconciler: sale %s applied", res.SaleUUID)
		}
	}
}
