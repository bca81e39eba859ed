package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearhub/gearhub/internal/sales/builder"
	"github.com/gearhub/gearhub/internal/sales/shared"
)

// PlaceOrderLine is what a portal customer may choose: a product and a
// quantity. Prices always come from the customer's tier.
type PlaceOrderLine struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gte=1"`
}

type PlaceOrderRequest struct {
	Notes string           `json:"notes" validate:"max=2000"`
	Lines []PlaceOrderLine `json:"lines" validate:"required,min=1,dive"`
}

func (r PlaceOrderRequest) edits() []builder.Edit {
	edits := make([]builder.Edit, len(r.Lines))
	for i, l := range r.Lines {
		qty := l.Quantity
		edits[i] = builder.Edit{ProductID: l.ProductID, Quantity: &qty}
	}
	return edits
}

// PricePreview shows a portal customer what an order would cost at their
// tier before it is placed.
type PricePreview struct {
	Lines   []builder.LineItem `json:"lines"`
	TaxRate decimal.Decimal    `json:"tax_rate"`
	Totals  shared.Totals      `json:"totals"`
	Notices []builder.Notice   `json:"notices,omitempty"`
}

type CreateFromQuotationRequest struct {
	QuotationID int64  `json:"quotation_id" validate:"required,gt=0"`
	Notes       string `json:"notes" validate:"max=2000"`
}

type UpdateOrderRequest struct {
	Notes   *string          `json:"notes" validate:"omitempty,max=2000"`
	TaxRate *decimal.Decimal `json:"tax_rate"`
	Lines   *[]builder.Edit  `json:"lines" validate:"omitempty,min=1,dive"`
}

type UpdateStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=pending approved processing shipped completed cancelled"`
	Reason string      `json:"reason" validate:"max=500"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type ListOrdersRequest struct {
	CustomerID *int64
	Status     *OrderStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}

// SaveResult is returned by placement and update.
type SaveResult struct {
	Order   *Order           `json:"order"`
	Notices []builder.Notice `json:"notices,omitempty"`
}
