package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/clubnova/clubposgo/internal/database"
	"github.com/clubnova/clubposgo/internal/models"
)

// ErrRejected marks a payload the business rules will never accept.
// Callers treat it as a permanent failure, not retry fodder.
var ErrRejected = errors.New("sale payload rejected")

// SalePayload is the offline sale body captured on the terminal
type SalePayload struct {
	Lines []SaleLinePayload `json:"lines"`

	Total       float64 `json:"total"`
	PaymentCash float64 `json:"paymentCash"`
	PaymentCard float64 `json:"paymentCard"`

	EmployeeID    *uint `json:"employeeId,omitempty"`
	CashSessionID *uint `json:"cashSessionId,omitempty"`
}

// SaleLinePayload is one product line of an offline sale
type SaleLinePayload struct {
	ProductID uint    `json:"productId"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// Service applies offline sales to the canonical sale path: one transaction
// creating the sale with its lines and decrementing stock. The sale row,
// stock movement and financial effect stand or fall together.
type Service struct {
	db *database.DB
}

// NewService creates the sale ingestion service
func NewService(db *database.DB) *Service {
	return &Service{db: db}
}

// Apply creates the canonical sale for one offline sale and returns its id.
// The caller bounds ctx; a deadline abort surfaces as a context error, never
// as ErrRejected.
func (s *Service) Apply(ctx context.Context, sale *models.OfflineSale) (uint, error) {
	var payload SalePayload
	if err := json.Unmarshal(sale.Payload, &payload); err != nil {
		return 0, fmt.Errorf("%w: malformed payload: %v", ErrRejected, err)
	}
	if len(payload.Lines) == 0 {
		return 0, fmt.Errorf("%w: sale has no lines", ErrRejected)
	}
	for _, line := range payload.Lines {
		if line.Quantity <= 0 {
			return 0, fmt.Errorf("%w: non-positive quantity for product %d", ErrRejected, line.ProductID)
		}
	}

	canonical := models.Sale{
		SaleUUID:      sale.SaleUUID,
		DeviceID:      sale.DeviceID,
		EmployeeID:    payload.EmployeeID,
		CashSessionID: payload.CashSessionID,
		Total:         payload.Total,
		PaymentCash:   payload.PaymentCash,
		PaymentCard:   payload.PaymentCard,
		CapturedAt:    sale.CapturedAt,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&canonical).Error; err != nil {
			return err
		}

		for _, line := range payload.Lines {
			var product models.Product
			if err := tx.First(&product, line.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: unknown product %d", ErrRejected, line.ProductID)
				}
				return err
			}

			if err := tx.Create(&models.SaleLine{
				SaleID:    canonical.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			}).Error; err != nil {
				return err
			}

			if err := tx.Model(&models.Product{}).
				Where("id = ?", line.ProductID).
				UpdateColumn("stock", gorm.Expr("stock - ?", line.Quantity)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return canonical.ID, nil
}
