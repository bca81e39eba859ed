package quotations

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearhub/gearhub/internal/sales/builder"
	"github.com/gearhub/gearhub/internal/sales/shared"
)

// PriceRequest previews a draft without saving it.
type PriceRequest struct {
	CustomerID *int64           `json:"customer_id" validate:"omitempty,gt=0"`
	TaxRate    *decimal.Decimal `json:"tax_rate"`
	Lines      []builder.Edit   `json:"lines" validate:"required,min=1,dive"`
}

type PriceResponse struct {
	Lines   []builder.LineItem `json:"lines"`
	TaxRate decimal.Decimal    `json:"tax_rate"`
	Totals  shared.Totals      `json:"totals"`
	Notices []builder.Notice   `json:"notices,omitempty"`
}

type CreateQuotationRequest struct {
	CustomerID     int64            `json:"customer_id" validate:"required,gt=0"`
	ContactID      *int64           `json:"contact_id" validate:"omitempty,gt=0"`
	QuoteDate      *time.Time       `json:"quote_date"`
	ValidUntil     *time.Time       `json:"valid_until"`
	Notes          string           `json:"notes"`
	Terms          string           `json:"terms"`
	Comments       string           `json:"comments"`
	TaxRate        *decimal.Decimal `json:"tax_rate"`
	ShowTotal      *bool            `json:"show_total"`
	DiscountAmount decimal.Decimal  `json:"discount_amount"`
	Lines          []builder.Edit   `json:"lines" validate:"required,min=1,dive"`
}

type UpdateQuotationRequest struct {
	CustomerID     *int64           `json:"customer_id" validate:"omitempty,gt=0"`
	ContactID      *int64           `json:"contact_id" validate:"omitempty,gt=0"`
	QuoteDate      *time.Time       `json:"quote_date"`
	ValidUntil     *time.Time       `json:"valid_until"`
	Notes          *string          `json:"notes"`
	Terms          *string          `json:"terms"`
	Comments       *string          `json:"comments"`
	TaxRate        *decimal.Decimal `json:"tax_rate"`
	ShowTotal      *bool            `json:"show_total"`
	DiscountAmount *decimal.Decimal `json:"discount_amount"`
	Lines          *[]builder.Edit  `json:"lines" validate:"omitempty,min=1,dive"`
}

type UpdateStatusRequest struct {
	Status QuotationStatus `json:"status" validate:"required,oneof=draft sent"`
}

type ListQuotationsRequest struct {
	CustomerID *int64
	Status     *QuotationStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}

// SaveResult is returned by create and update.
type SaveResult struct {
	Quotation *Quotation       `json:"quotation"`
	Notices   []builder.Notice `json:"notices,omitempty"`
}
