package catalog

import "github.com/shopspring/decimal"

// ProductInput is the create/update payload for a product.
type ProductInput struct {
	SKU           string          `json:"sku" validate:"required,max=64"`
	Name          string          `json:"name" validate:"required,max=200"`
	Description   string          `json:"description"`
	ImageURL      string          `json:"image_url" validate:"omitempty,url"`
	MRPPrice      decimal.Decimal `json:"mrp_price"`
	DealerPrice   decimal.Decimal `json:"dealer_price"`
	ShopPrice     decimal.Decimal `json:"shop_price"`
	CategoryID    *int64          `json:"category_id"`
	SubCategoryID *int64          `json:"sub_category_id"`
	BrandID       *int64          `json:"brand_id"`
	TagIDs        []int64         `json:"tag_ids"`
	GSTRate       decimal.Decimal `json:"gst_rate"`
	IsActive      *bool           `json:"is_active"`
}

// NameInput creates a category, brand or tag.
type NameInput struct {
	Name string `json:"name" validate:"required,max=120"`
}

// SubCategoryInput creates a sub-category under a category.
type SubCategoryInput struct {
	CategoryID int64  `json:"category_id" validate:"required,gt=0"`
	Name       string `json:"name" validate:"required,max=120"`
}

// ProductView is the public representation of a product. Dealer price is
// only populated for back-office callers.
type ProductView struct {
	Product
	DealerPrice *decimal.Decimal `json:"dealer_price,omitempty"`
}

// NewProductView builds the response shape for a caller.
func NewProductView(p Product, showDealer bool) ProductView {
	view := ProductView{Product: p}
	if showDealer {
		dealer := p.DealerPrice
		view.DealerPrice = &dealer
	}
	return view
}
