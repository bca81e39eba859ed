// Package builder assembles quotation and order drafts line by line.
//
// A Draft is a value: every operation returns a new Draft and leaves the
// receiver untouched, so callers can keep earlier states around.
package builder

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gearhub/gearhub/internal/pricing"
	"github.com/gearhub/gearhub/internal/sales/shared"
)

var (
	ErrIndexOutOfRange = errors.New("builder: line index out of range")
	ErrInvalidQuantity = errors.New("builder: quantity must be zero or more")
	ErrUnknownField    = errors.New("builder: unknown editable field")
)

// Field names the per-line value staff may edit directly.
type Field string

const (
	FieldDiscount Field = "discount"
	FieldPrice    Field = "custom_price"
)

// NoticeDuplicateProduct is reported when a product is added twice.
const NoticeDuplicateProduct = "duplicate_product"

// Notice is a user-facing message that does not abort the operation.
type Notice struct {
	Code      string `json:"code"`
	ProductID int64  `json:"product_id"`
	Message   string `json:"message"`
}

// Product is the catalog snapshot a line is built from.
type Product struct {
	ID          int64
	SKU         string
	Name        string
	Description string
	ImageURL    string
	Category    string
	SubCategory string
	Brand       string
	Prices      pricing.ProductPrices
	GSTRate     decimal.Decimal
}

// LineItem is one product entry of a draft.
type LineItem struct {
	ProductID   int64              `json:"product_id"`
	SKU         string             `json:"sku"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	ImageURL    string             `json:"image_url,omitempty"`
	Category    string             `json:"category,omitempty"`
	SubCategory string             `json:"sub_category,omitempty"`
	Brand       string             `json:"brand,omitempty"`
	MRP         decimal.Decimal    `json:"mrp"`
	DealerPrice decimal.Decimal    `json:"dealer_price"`
	Basis       pricing.PriceBasis `json:"basis"`
	Mode        pricing.Mode       `json:"mode"`
	Discount    decimal.Decimal    `json:"discount"`
	CustomPrice decimal.Decimal    `json:"custom_price"`
	Quantity    int                `json:"quantity"`
	GSTRate     decimal.Decimal    `json:"gst_rate"`
	IsDetailed  bool               `json:"is_detailed"`
}

func (l LineItem) UnitAmount() decimal.Decimal { return l.CustomPrice }
func (l LineItem) Qty() int { return l.Quantity }
func (l LineItem) GSTPercent() decimal.Decimal { return l.GSTRate }

// Total is custom price × quantity.
func (l LineItem) Total() decimal.Decimal {
	return shared.LineTotal(l.CustomPrice, l.Quantity)
}

// Draft is an ordered, product-unique list of line items priced for one tier.
type Draft struct {
	tier  *pricing.Tier
	items []LineItem
}

// NewDraft starts an empty draft. A nil tier prices with the catalog fallback.
func NewDraft(tier *pricing.Tier) Draft {
	var t *pricing.Tier
	if tier != nil {
		copied := *tier
		t = &copied
	}
	return Draft{tier: t}
}

// FromItems restores a draft from a saved snapshot.
func FromItems(tier *pricing.Tier, items []LineItem) Draft {
	d := NewDraft(tier)
	d.items = append([]LineItem(nil), items...)
	return d
}

// Items returns a copy of the draft's lines.
func (d Draft) Items() []LineItem {
	return append([]LineItem(nil), d.items...)
}

// Len returns the number of lines.
func (d Draft) Len() int { return len(d.items) }

// Tier returns the tier the draft prices with, if any.
func (d Draft) Tier() (pricing.Tier, bool) {
	if d.tier == nil {
		return pricing.Tier{}, false
	}
	return *d.tier, true
}

// Contains reports whether productID already has a line.
func (d Draft) Contains(productID int64) bool {
	return d.indexOf(productID) >= 0
}

func (d Draft) indexOf(productID int64) int {
	for i, item := range d.items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// AddProduct prices p and appends it with quantity 1. Adding a product that
// is already present leaves the draft unchanged and returns a notice.
func (d Draft) AddProduct(p Product) (Draft, *Notice, error) {
	if d.Contains(p.ID) {
		return d, &Notice{
			Code:      NoticeDuplicateProduct,
			ProductID: p.ID,
			Message:   fmt.Sprintf("%s is already in the list", p.Name),
		}, nil
	}
	quote, err := pricing.Price(p.Prices, d.tier)
	if err != nil {
		return d, nil, fmt.Errorf("price product %d: %w", p.ID, err)
	}
	item := LineItem{
		ProductID:   p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		SubCategory: p.SubCategory,
		Brand:       p.Brand,
		MRP:         p.Prices.MRP,
		DealerPrice: p.Prices.Dealer,
		Basis:       quote.Basis,
		Mode:        quote.Mode,
		Discount:    quote.Adjustment,
		CustomPrice: quote.UnitPrice,
		Quantity:    1,
		GSTRate:     p.GSTRate,
	}
	next := d.clone()
	next.items = append(next.items, item)
	return next, nil, nil
}

// UpdateQuantity sets the quantity of the line at index.
func (d Draft) UpdateQuantity(index, qty int) (Draft, error) {
	if qty < 0 {
		return d, ErrInvalidQuantity
	}
	return d.modify(index, func(item *LineItem) error {
		item.Quantity = qty
		return nil
	})
}

// UpdateDiscountOrPrice edits the discount (recomputing the price) or the
// custom price (back-solving the discount) of the line at index.
func (d Draft) UpdateDiscountOrPrice(index int, field Field, value decimal.Decimal) (Draft, error) {
	switch field {
	case FieldDiscount:
		return d.modify(index, func(item *LineItem) error {
			price, err := pricing.PriceFor(item.Basis, item.Mode, value)
			if err != nil {
				return err
			}
			item.Discount = value
			item.CustomPrice = price
			return nil
		})
	case FieldPrice:
		return d.modify(index, func(item *LineItem) error {
			pct, err := pricing.AdjustmentFor(item.Basis, item.Mode, value)
			if err != nil {
				return err
			}
			item.Discount = pct
			item.CustomPrice = value.Round(2)
			return nil
		})
	default:
		return d, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
}

// RemoveItem drops the line at index, keeping the others in order.
func (d Draft) RemoveItem(index int) (Draft, error) {
	if index < 0 || index >= len(d.items) {
		return d, ErrIndexOutOfRange
	}
	next := NewDraft(d.tier)
	next.items = make([]LineItem, 0, len(d.items)-1)
	next.items = append(next.items, d.items[:index]...)
	next.items = append(next.items, d.items[index+1:]...)
	return next, nil
}

// ToggleDetail flips whether the line renders its description and image.
func (d Draft) ToggleDetail(index int) (Draft, error) {
	return d.modify(index, func(item *LineItem) error {
		item.IsDetailed = !item.IsDetailed
		return nil
	})
}

// Totals aggregates the draft with a single document tax rate.
func (d Draft) Totals(taxRate decimal.Decimal) shared.Totals {
	return shared.ComputeTotals(d.items, taxRate)
}

func (d Draft) modify(index int, fn func(*LineItem) error) (Draft, error) {
	if index < 0 || index >= len(d.items) {
		return d, ErrIndexOutOfRange
	}
	next := d.clone()
	if err := fn(&next.items[index]); err != nil {
		return d, err
	}
	return next, nil
}

func (d Draft) clone() Draft {
	next := NewDraft(d.tier)
	next.items = append(make([]LineItem, 0, len(d.items)+1), d.items...)
	return next
}
