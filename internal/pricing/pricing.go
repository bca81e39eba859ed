// Package pricing resolves customer-tier unit prices for catalog products.
package pricing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNoBasePrice indicates the product carries no usable price for the tier.
	ErrNoBasePrice = errors.New("pricing: product has no base price")
	// ErrNegativePercentage rejects tiers configured below zero.
	ErrNegativePercentage = errors.New("pricing: percentage must not be negative")
	// ErrNegativePrice rejects adjustments that would price below zero.
	ErrNegativePrice = errors.New("pricing: resulting price is negative")
	// ErrUnknownBaseType rejects base price types other than dealer and mrp.
	ErrUnknownBaseType = errors.New("pricing: unknown base price type")
)

const (
	priceScale   = 2
	percentScale = 4
)

var hundred = decimal.NewFromInt(100)

// BaseType selects which catalog price a tier starts from.
type BaseType string

const (
	BaseDealer BaseType = "dealer"
	BaseMRP    BaseType = "mrp"
)

// Valid reports whether the base type is one of the supported values.
func (b BaseType) Valid() bool {
	return b == BaseDealer || b == BaseMRP
}

// ParseBaseType normalises user input into a BaseType.
func ParseBaseType(s string) (BaseType, error) {
	b := BaseType(s)
	if !b.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownBaseType, s)
	}
	return b, nil
}

// Mode tells whether an adjustment percentage is added or subtracted.
type Mode string

const (
	ModeMarkup   Mode = "markup"
	ModeDiscount Mode = "discount"
)

// Tier is a pricing policy: a base price type plus a percentage.
// The percentage is a markup over dealer price or a discount off MRP.
type Tier struct {
	BaseType   BaseType        `json:"base_price_type"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Mode returns the adjustment mode implied by the tier's base type.
func (t Tier) Mode() Mode {
	if t.BaseType == BaseDealer {
		return ModeMarkup
	}
	return ModeDiscount
}

// ResolveTier picks the effective tier. A customer-level tier wins over the
// tier inherited from the customer type.
func ResolveTier(customerTier, typeTier *Tier) (Tier, bool) {
	if customerTier != nil && customerTier.BaseType.Valid() {
		return *customerTier, true
	}
	if typeTier != nil && typeTier.BaseType.Valid() {
		return *typeTier, true
	}
	return Tier{}, false
}

// Quote is the outcome of pricing one product for one tier.
type Quote struct {
	Basis      PriceBasis      `json:"basis"`
	Mode       Mode            `json:"mode"`
	Adjustment decimal.Decimal `json:"adjustment"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// Price computes the unit price of a product for the given tier. A nil tier
// falls back to the dealer price with an implied discount against MRP.
func Price(prices ProductPrices, tier *Tier) (Quote, error) {
	if tier == nil {
		return fallbackQuote(prices)
	}
	if !tier.BaseType.Valid() {
		return Quote{}, fmt.Errorf("%w: %q", ErrUnknownBaseType, tier.BaseType)
	}
	if tier.Percentage.IsNegative() {
		return Quote{}, ErrNegativePercentage
	}
	basis, err := ResolveBasis(prices, tier.BaseType)
	if err != nil {
		return Quote{}, err
	}
	mode := tier.Mode()
	price, err := PriceFor(basis, mode, tier.Percentage)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		Basis:      basis,
		Mode:       mode,
		Adjustment: tier.Percentage.Round(percentScale),
		UnitPrice:  price,
	}, nil
}

func fallbackQuote(prices ProductPrices) (Quote, error) {
	if prices.Dealer.IsPositive() {
		mrp := PriceBasis{Kind: BasisMRP, Amount: prices.MRP}
		implied := decimal.Zero
		if prices.MRP.IsPositive() {
			implied = prices.MRP.Sub(prices.Dealer).Div(prices.MRP).Mul(hundred).Round(percentScale)
		}
		return Quote{
			Basis:      mrp,
			Mode:       ModeDiscount,
			Adjustment: implied,
			UnitPrice:  prices.Dealer.Round(priceScale),
		}, nil
	}
	for _, basis := range []PriceBasis{
		{Kind: BasisShop, Amount: prices.Shop},
		{Kind: BasisMRP, Amount: prices.MRP},
	} {
		if basis.Amount.IsPositive() {
			return Quote{
				Basis:      basis,
				Mode:       ModeDiscount,
				Adjustment: decimal.Zero,
				UnitPrice:  basis.Amount.Round(priceScale),
			}, nil
		}
	}
	return Quote{}, ErrNoBasePrice
}

// PriceFor applies an adjustment percentage to a basis:
// markup gives basis × (1 + pct/100), discount gives basis × (1 − pct/100).
func PriceFor(basis PriceBasis, mode Mode, pct decimal.Decimal) (decimal.Decimal, error) {
	factor := pct.Div(hundred)
	var price decimal.Decimal
	switch mode {
	case ModeMarkup:
		price = basis.Amount.Mul(decimal.NewFromInt(1).Add(factor))
	case ModeDiscount:
		price = basis.Amount.Mul(decimal.NewFromInt(1).Sub(factor))
	default:
		return decimal.Zero, fmt.Errorf("pricing: unknown mode %q", mode)
	}
	if price.IsNegative() {
		return decimal.Zero, ErrNegativePrice
	}
	return price.Round(priceScale), nil
}

// AdjustmentFor back-solves the percentage that turns basis into price under
// mode. It is the inverse of PriceFor up to rounding.
func AdjustmentFor(basis PriceBasis, mode Mode, price decimal.Decimal) (decimal.Decimal, error) {
	if price.IsNegative() {
		return decimal.Zero, ErrNegativePrice
	}
	if !basis.Amount.IsPositive() {
		return decimal.Zero, ErrNoBasePrice
	}
	ratio := price.Div(basis.Amount)
	one := decimal.NewFromInt(1)
	switch mode {
	case ModeMarkup:
		return ratio.Sub(one).Mul(hundred).Round(percentScale), nil
	case ModeDiscount:
		return one.Sub(ratio).Mul(hundred).Round(percentScale), nil
	default:
		return decimal.Zero, fmt.Errorf("pricing: unknown mode %q", mode)
	}
}
