package builder

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Edit describes one requested line: the product plus any staff overrides.
// Overrides are applied in order: quantity, discount, custom price, detail.
type Edit struct {
	ProductID   int64            `json:"product_id" validate:"required,gt=0"`
	Quantity    *int             `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	Discount    *decimal.Decimal `json:"discount,omitempty"`
	CustomPrice *decimal.Decimal `json:"custom_price,omitempty"`
	IsDetailed  bool             `json:"is_detailed,omitempty"`
}

// ProductIDs lists the distinct products referenced by edits.
func ProductIDs(edits []Edit) []int64 {
	seen := make(map[int64]struct{}, len(edits))
	ids := make([]int64, 0, len(edits))
	for _, e := range edits {
		if _, ok := seen[e.ProductID]; ok {
			continue
		}
		seen[e.ProductID] = struct{}{}
		ids = append(ids, e.ProductID)
	}
	return ids
}

// Apply adds each edited product to d and applies its overrides. Duplicate
// products yield notices and are otherwise ignored.
func (d Draft) Apply(products map[int64]Product, edits []Edit) (Draft, []Notice, error) {
	var notices []Notice
	next := d
	for _, e := range edits {
		p, ok := products[e.ProductID]
		if !ok {
			return d, nil, fmt.Errorf("product %d: not in catalog", e.ProductID)
		}
		added, notice, err := next.AddProduct(p)
		if err != nil {
			return d, nil, err
		}
		if notice != nil {
			notices = append(notices, *notice)
			continue
		}
		idx := added.Len() - 1
		if e.Quantity != nil {
			if added, err = added.UpdateQuantity(idx, *e.Quantity); err != nil {
				return d, nil, fmt.Errorf("product %d: %w", e.ProductID, err)
			}
		}
		if e.Discount != nil {
			if added, err = added.UpdateDiscountOrPrice(idx, FieldDiscount, *e.Discount); err != nil {
				return d, nil, fmt.Errorf("product %d: %w", e.ProductID, err)
			}
		}
		if e.CustomPrice != nil {
			if added, err = added.UpdateDiscountOrPrice(idx, FieldPrice, *e.CustomPrice); err != nil {
				return d, nil, fmt.Errorf("product %d: %w", e.ProductID, err)
			}
		}
		if e.IsDetailed {
			if added, err = added.ToggleDetail(idx); err != nil {
				return d, nil, err
			}
		}
		next = added
	}
	return next, notices, nil
}
