package quotations

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearhub/gearhub/internal/pricing"
	"github.com/gearhub/gearhub/internal/sales/builder"
	"github.com/gearhub/gearhub/internal/sales/shared"
)

type QuotationStatus string

const (
	QuotationStatusDraft QuotationStatus = "draft"
	QuotationStatusSent  QuotationStatus = "sent"
)

// CanTransitionTo reports whether the status may move to next.
func (s QuotationStatus) CanTransitionTo(next QuotationStatus) bool {
	return s == QuotationStatusDraft && next == QuotationStatusSent
}

type Quotation struct {
	ID             int64           `json:"id"`
	DocNumber      string          `json:"doc_number"`
	CustomerID     int64           `json:"customer_id"`
	ContactID      *int64          `json:"contact_id,omitempty"`
	QuoteDate      time.Time       `json:"quote_date"`
	ValidUntil     *time.Time      `json:"valid_until,omitempty"`
	Status         QuotationStatus `json:"status"`
	Notes          string          `json:"notes,omitempty"`
	Terms          string          `json:"terms,omitempty"`
	Comments       string          `json:"comments,omitempty"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	ShowTotal      bool            `json:"show_total"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	CreatedBy      int64           `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Lines          []QuotationLine `json:"lines,omitempty"`
}

// Items returns the line snapshots in order.
func (q *Quotation) Items() []builder.LineItem {
	items := make([]builder.LineItem, len(q.Lines))
	for i, l := range q.Lines {
		items[i] = l.LineItem
	}
	return items
}

// Draft reopens the saved lines for editing.
func (q *Quotation) Draft(tier *pricing.Tier) builder.Draft {
	return builder.FromItems(tier, q.Items())
}

// applyTotals stores the roll-up of the current lines.
func (q *Quotation) applyTotals() {
	totals := shared.ComputeTotals(q.Lines, q.TaxRate)
	q.Subtotal = totals.Subtotal
	q.TaxAmount = totals.Tax
	q.TotalAmount = totals.Total
}

// QuotationLine is a persisted builder line.
type QuotationLine struct {
	ID          int64 `json:"id"`
	QuotationID int64 `json:"quotation_id"`
	LineOrder   int   `json:"line_order"`
	builder.LineItem
}

func linesFromItems(items []builder.LineItem) []QuotationLine {
	lines := make([]QuotationLine, len(items))
	for i, item := range items {
		lines[i] = QuotationLine{LineOrder: i + 1, LineItem: item}
	}
	return lines
}

type QuotationWithDetails struct {
	Quotation
	CustomerName string `json:"customer_name"`
}
