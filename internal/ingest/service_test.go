package ingest

import (
	"context"
	"errors"
	"testing"

	"gorm.io/datatypes"

	"github.com/clubnova/clubposgo/internal/models"
)

// Payload validation runs before any database work, so these cases use a
// service without a connection.

func TestApplyRejectsMalformedPayload(t *testing.T) {
	svc := NewService(nil)

	sale := &models.OfflineSale{
		SaleUUID: "1b671a64-40d5-491e-99b0-da01ff1f3341",
		Payload:  datatypes.JSON([]byte(`{not json`)),
	}

	_, err := svc.Apply(context.Background(), sale)
	if !errors.Is(err, ErrRejected) {
		t.Errorf("Expected ErrRejected for malformed JSON, got %v", err)
	}
}

func TestApplyRejectsEmptySale(t *testing.T) {
	svc := NewService(nil)

	sale := &models.OfflineSale{
		SaleUUID: "1b671a64-40d5-491e-99b0-da01ff1f3341",
		Payload:  datatypes.JSON([]byte(`{"lines": [], "total": 0}`)),
	}

	_, err := svc.Apply(context.Background(), sale)
	if !errors.Is(err, ErrRejected) {
		t.Errorf("Expected ErrRejected for a sale without lines, got %v", err)
	}
}

func TestApplyRejectsNonPositiveQuantity(t *testing.T) {
	svc := NewService(nil)

	sale := &models.OfflineSale{
		SaleUUID: "1b671a64-40d5-491e-99b0-da01ff1f3341",
		Payload:  datatypes.JSON([]byte(`{"lines": [{"productId": 1, "quantity": 0, "unitPrice": 12}], "total": 0}`)),
	}

	_, err := svc.Apply(context.Background(), sale)
	if !errors.Is(err, ErrRejected) {
		t.Errorf("Expected ErrRejected for zero quantity, got %v", err)
	}
}
