package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPrice_DealerTierAppliesMarkup(t *testing.T) {
	tier := &Tier{BaseType: BaseDealer, Percentage: d("10")}
	q, err := Price(ProductPrices{MRP: d("1500"), Dealer: d("1000")}, tier)
	require.NoError(t, err)

	assert.Equal(t, "1100.00", q.UnitPrice.StringFixed(2))
	assert.Equal(t, ModeMarkup, q.Mode)
	assert.Equal(t, BasisDealer, q.Basis.Kind)
	assert.True(t, q.Adjustment.Equal(d("10")))
}

func TestPrice_MRPTierAppliesDiscount(t *testing.T) {
	tier := &Tier{BaseType: BaseMRP, Percentage: d("15")}
	q, err := Price(ProductPrices{MRP: d("2000"), Dealer: d("1200")}, tier)
	require.NoError(t, err)

	assert.Equal(t, "1700.00", q.UnitPrice.StringFixed(2))
	assert.Equal(t, ModeDiscount, q.Mode)
	assert.Equal(t, BasisMRP, q.Basis.Kind)
}

func TestPrice_NoTierUsesDealerWithImpliedDiscount(t *testing.T) {
	q, err := Price(ProductPrices{MRP: d("1000"), Dealer: d("800")}, nil)
	require.NoError(t, err)

	assert.Equal(t, "800.00", q.UnitPrice.StringFixed(2))
	assert.Equal(t, ModeDiscount, q.Mode)
	assert.Equal(t, BasisMRP, q.Basis.Kind)
	assert.True(t, q.Adjustment.Equal(d("20")), "got %s", q.Adjustment)

	again, err := PriceFor(q.Basis, q.Mode, q.Adjustment)
	require.NoError(t, err)
	assert.True(t, again.Equal(q.UnitPrice))
}

func TestPrice_NoTierWithoutDealerFallsBackToShopThenMRP(t *testing.T) {
	q, err := Price(ProductPrices{MRP: d("1000"), Shop: d("950")}, nil)
	require.NoError(t, err)
	assert.Equal(t, BasisShop, q.Basis.Kind)
	assert.Equal(t, "950.00", q.UnitPrice.StringFixed(2))
	assert.True(t, q.Adjustment.IsZero())

	q, err = Price(ProductPrices{MRP: d("1000")}, nil)
	require.NoError(t, err)
	assert.Equal(t, BasisMRP, q.Basis.Kind)
	assert.Equal(t, "1000.00", q.UnitPrice.StringFixed(2))
}

func TestPrice_NoPrices(t *testing.T) {
	_, err := Price(ProductPrices{}, nil)
	assert.ErrorIs(t, err, ErrNoBasePrice)

	_, err = Price(ProductPrices{}, &Tier{BaseType: BaseMRP, Percentage: d("5")})
	assert.ErrorIs(t, err, ErrNoBasePrice)
}

func TestPrice_DealerTierWithoutDealerPriceUsesShop(t *testing.T) {
	tier := &Tier{BaseType: BaseDealer, Percentage: d("10")}
	q, err := Price(ProductPrices{MRP: d("1000"), Shop: d("500")}, tier)
	require.NoError(t, err)
	assert.Equal(t, BasisShop, q.Basis.Kind)
	assert.Equal(t, "550.00", q.UnitPrice.StringFixed(2))
}

func TestPrice_RejectsInvalidTiers(t *testing.T) {
	prices := ProductPrices{MRP: d("100"), Dealer: d("80")}

	_, err := Price(prices, &Tier{BaseType: BaseMRP, Percentage: d("-1")})
	assert.ErrorIs(t, err, ErrNegativePercentage)

	_, err = Price(prices, &Tier{BaseType: BaseMRP, Percentage: d("120")})
	assert.ErrorIs(t, err, ErrNegativePrice)

	_, err = Price(prices, &Tier{BaseType: "retail", Percentage: d("1")})
	assert.ErrorIs(t, err, ErrUnknownBaseType)
}

func TestResolveTier_CustomerLevelWins(t *testing.T) {
	customer := &Tier{BaseType: BaseMRP, Percentage: d("5")}
	typ := &Tier{BaseType: BaseDealer, Percentage: d("12")}

	got, ok := ResolveTier(customer, typ)
	require.True(t, ok)
	assert.Equal(t, BaseMRP, got.BaseType)

	got, ok = ResolveTier(nil, typ)
	require.True(t, ok)
	assert.Equal(t, BaseDealer, got.BaseType)

	_, ok = ResolveTier(&Tier{}, nil)
	assert.False(t, ok)
}

func TestAdjustmentFor_IsInverseOfPriceFor(t *testing.T) {
	cases := []struct {
		name  string
		basis PriceBasis
		mode  Mode
		pct   string
	}{
		{"markup whole", PriceBasis{Kind: BasisDealer, Amount: d("1000")}, ModeMarkup, "10"},
		{"markup fractional", PriceBasis{Kind: BasisDealer, Amount: d("349.95")}, ModeMarkup, "17.5"},
		{"discount", PriceBasis{Kind: BasisMRP, Amount: d("2000")}, ModeDiscount, "15"},
		{"discount odd", PriceBasis{Kind: BasisMRP, Amount: d("999.99")}, ModeDiscount, "22.2222"},
		{"zero", PriceBasis{Kind: BasisMRP, Amount: d("120")}, ModeDiscount, "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			price, err := PriceFor(tc.basis, tc.mode, d(tc.pct))
			require.NoError(t, err)

			pct, err := AdjustmentFor(tc.basis, tc.mode, price)
			require.NoError(t, err)

			again, err := PriceFor(tc.basis, tc.mode, pct)
			require.NoError(t, err)
			assert.True(t, again.Equal(price), "price %s recomputed as %s", price, again)
		})
	}
}

func TestAdjustmentFor_EditedPrice(t *testing.T) {
	basis := PriceBasis{Kind: BasisDealer, Amount: d("1000")}
	pct, err := AdjustmentFor(basis, ModeMarkup, d("1250"))
	require.NoError(t, err)
	assert.True(t, pct.Equal(d("25")))

	pct, err = AdjustmentFor(basis, ModeMarkup, d("900"))
	require.NoError(t, err)
	assert.True(t, pct.Equal(d("-10")), "price below basis gives a negative markup")

	_, err = AdjustmentFor(PriceBasis{Kind: BasisMRP}, ModeDiscount, d("10"))
	assert.ErrorIs(t, err, ErrNoBasePrice)
}

func TestParseBaseType(t *testing.T) {
	b, err := ParseBaseType("dealer")
	require.NoError(t, err)
	assert.Equal(t, BaseDealer, b)

	_, err = ParseBaseType("wholesale")
	assert.ErrorIs(t, err, ErrUnknownBaseType)
}
