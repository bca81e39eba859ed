package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearhub/gearhub/internal/sales/builder"
	"github.com/gearhub/gearhub/internal/sales/shared"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusApproved   OrderStatus = "approved"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusApproved, OrderStatusCancelled},
	OrderStatusApproved:   {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusCompleted},
}

// CanTransitionTo reports whether the status may move to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Editable reports whether lines and header may still change.
func (s OrderStatus) Editable() bool {
	return s == OrderStatusPending
}

type Order struct {
	ID              int64           `json:"id"`
	DocNumber       string          `json:"doc_number"`
	CustomerID      int64           `json:"customer_id"`
	QuotationID     *int64          `json:"quotation_id,omitempty"`
	OrderDate       time.Time       `json:"order_date"`
	Status          OrderStatus     `json:"status"`
	Notes           string          `json:"notes,omitempty"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	CreatedBy       int64           `json:"created_by"`
	ApprovedBy      *int64          `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	CancelledReason string          `json:"cancelled_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Lines           []OrderLine     `json:"lines,omitempty"`
}

// Items returns the line snapshots in order.
func (o *Order) Items() []builder.LineItem {
	items := make([]builder.LineItem, len(o.Lines))
	for i, l := range o.Lines {
		items[i] = l.LineItem
	}
	return items
}

func (o *Order) applyTotals() {
	totals := shared.ComputeTotals(o.Lines, o.TaxRate)
	o.Subtotal = totals.Subtotal
	o.TaxAmount = totals.Tax
	o.TotalAmount = totals.Total
}

type OrderLine struct {
	ID        int64 `json:"id"`
	OrderID   int64 `json:"order_id"`
	LineOrder int   `json:"line_order"`
	builder.LineItem
}

func linesFromItems(items []builder.LineItem) []OrderLine {
	lines := make([]OrderLine, len(items))
	for i, item := range items {
		lines[i] = OrderLine{LineOrder: i + 1, LineItem: item}
	}
	return lines
}

type OrderWithDetails struct {
	Order
	CustomerName string `json:"customer_name"`
}
