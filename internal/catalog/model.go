// Package catalog manages products and their taxonomy.
package catalog

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gearhub/gearhub/internal/pricing"
	"github.com/gearhub/gearhub/internal/sales/builder"
)

// Product represents a sellable catalog item.
type Product struct {
	ID              int64           `json:"id"`
	SKU             string          `json:"sku"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	ImageURL        string          `json:"image_url"`
	MRPPrice        decimal.Decimal `json:"mrp_price"`
	DealerPrice     decimal.Decimal `json:"dealer_price"`
	ShopPrice       decimal.Decimal `json:"shop_price"`
	CategoryID      *int64          `json:"category_id"`
	CategoryName    string          `json:"category_name"`
	SubCategoryID   *int64          `json:"sub_category_id"`
	SubCategoryName string          `json:"sub_category_name"`
	BrandID         *int64          `json:"brand_id"`
	BrandName       string          `json:"brand_name"`
	TagIDs          []int64         `json:"tag_ids"`
	GSTRate         decimal.Decimal `json:"gst_rate"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Prices returns the price points the pricing engine works from.
func (p Product) Prices() pricing.ProductPrices {
	return pricing.ProductPrices{MRP: p.MRPPrice, Dealer: p.DealerPrice, Shop: p.ShopPrice}
}

// ForBuilder converts the product into the snapshot a draft line is built from.
func (p Product) ForBuilder() builder.Product {
	return builder.Product{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Category:    p.CategoryName,
		SubCategory: p.SubCategoryName,
		Brand:       p.BrandName,
		Prices:      p.Prices(),
		GSTRate:     p.GSTRate,
	}
}

// Category is a top-level product grouping.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// SubCategory belongs to a Category.
type SubCategory struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
}

// Brand is a product manufacturer.
type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Tag is a free-form product label.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ListFilters narrows a product listing.
type ListFilters struct {
	Page          int
	Limit         int
	CategoryID    *int64
	SubCategoryID *int64
	BrandID       *int64
	TagID         *int64
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	Search        string
	ActiveOnly    bool
}

func (f ListFilters) offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

func (f ListFilters) cacheKey() string {
	return fmt.Sprintf("p=%d:l=%d:c=%s:s=%s:b=%s:t=%s:min=%s:max=%s:q=%s:a=%t",
		f.Page, f.Limit,
		optInt(f.CategoryID), optInt(f.SubCategoryID), optInt(f.BrandID), optInt(f.TagID),
		optDec(f.MinPrice), optDec(f.MaxPrice), f.Search, f.ActiveOnly)
}

func optInt(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}

func optDec(v *decimal.Decimal) string {
	if v == nil {
		return "-"
	}
	return v.String()
}

// ProductPage is one page of a listing.
type ProductPage struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
}
