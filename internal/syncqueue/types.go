package syncqueue

import (
	"time"

	"gorm.io/datatypes"
)

// Outcome classifies the result of processing one submitted sale
type Outcome string

const (
	// OutcomeApplied means the sale was newly applied to the canonical path
	OutcomeApplied Outcome = "APPLIED"
	// OutcomeDuplicateIgnored means the idempotency key was already synced;
	// nothing was re-applied. Not an error.
	OutcomeDuplicateIgnored Outcome = "DUPLICATE_IGNORED"
	// OutcomeTransientFailure means the item stays queued and retry-eligible
	OutcomeTransientFailure Outcome = "TRANSIENT_FAILURE"
	// OutcomePermanentFailure means attempts are exhausted or the payload was
	// rejected; a human has to intervene
	OutcomePermanentFailure Outcome = "PERMANENT_FAILURE"
)

// SubmittedSale is one offline sale in a device's sync batch
type SubmittedSale struct {
	SaleUUID   string         `json:"uuidVenta"`
	Payload    datatypes.JSON `json:"payload"`
	CapturedAt time.Time      `json:"capturedAtLocal"`
}

// ItemResult reports the per-item outcome, in input order
type ItemResult struct {
	SaleUUID        string  `json:"uuidVenta"`
	Outcome         Outcome `json:"outcome"`
	CanonicalSaleID *uint   `json:"canonicalSaleId,omitempty"`
	Error           string  `json:"error,omitempty"`
}
