package pricing

import "github.com/shopspring/decimal"

// BasisKind names the catalog price a computation starts from.
type BasisKind string

const (
	BasisDealer BasisKind = "dealer"
	BasisShop   BasisKind = "shop"
	BasisMRP    BasisKind = "mrp"
)

// PriceBasis is one concrete catalog price tagged with its kind.
type PriceBasis struct {
	Kind   BasisKind       `json:"kind"`
	Amount decimal.Decimal `json:"amount"`
}

// ProductPrices carries the reference prices of a catalog product. Zero means
// the price is not set.
type ProductPrices struct {
	MRP    decimal.Decimal
	Dealer decimal.Decimal
	Shop   decimal.Decimal
}

// resolution order per base type; absent prices are skipped.
var basisOrder = map[BaseType][]BasisKind{
	BaseDealer: {BasisDealer, BasisShop, BasisMRP},
	BaseMRP:    {BasisMRP, BasisShop, BasisDealer},
}

// ResolveBasis returns the first positive price in the resolution order for
// baseType.
func ResolveBasis(prices ProductPrices, baseType BaseType) (PriceBasis, error) {
	order, ok := basisOrder[baseType]
	if !ok {
		return PriceBasis{}, ErrUnknownBaseType
	}
	for _, kind := range order {
		amount := prices.amount(kind)
		if amount.IsPositive() {
			return PriceBasis{Kind: kind, Amount: amount}, nil
		}
	}
	return PriceBasis{}, ErrNoBasePrice
}

func (p ProductPrices) amount(kind BasisKind) decimal.Decimal {
	switch kind {
	case BasisDealer:
		return p.Dealer
	case BasisShop:
		return p.Shop
	default:
		return p.MRP
	}
}
