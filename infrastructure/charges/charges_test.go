package charges

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleItems() []LineItem {
	return []LineItem{
		{ID: "a", Description: "Latte", Quantity: 2, UnitPrice: dec("25.00")},
		{ID: "b", Description: "Bagel", Quantity: 1, UnitPrice: dec("15.00")},
	}
}

func requireDecEqual(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "expected %s, got %s", want, got.String())
}

func TestComputeAllChargesDisabled(t *testing.T) {
	b := Compute(sampleItems(), Config{
		TaxRatePercent:           dec("8.5"),
		ServiceChargeRatePercent: dec("5"),
		DiscountAmount:           dec("10"),
		RoundingAmount:           dec("0.5"),
	})

	requireDecEqual(t, "65.00", b.Subtotal)
	requireDecEqual(t, "0", b.Discount)
	requireDecEqual(t, "0", b.ServiceCharge)
	requireDecEqual(t, "0", b.Tax)
	requireDecEqual(t, "0", b.Rounding)
	requireDecEqual(t, "65.00", b.Total)
	assert.Equal(t, 2, b.ItemCount)
}

func TestComputeServiceThenTaxKeepsFullPrecision(t *testing.T) {
	b := Compute(sampleItems(), Config{
		ServiceChargeEnabled:     true,
		ServiceChargeRatePercent: dec("5"),
		TaxEnabled:               true,
		TaxRatePercent:           dec("8.5"),
	})

	requireDecEqual(t, "3.25", b.ServiceCharge)
	requireDecEqual(t, "68.25", b.BeforeTax)
	requireDecEqual(t, "5.80125", b.Tax)
	requireDecEqual(t, "74.05125", b.Total)

	rounded := b.Rounded()
	requireDecEqual(t, "5.80", rounded.Tax)
	requireDecEqual(t, "74.05", rounded.Total)
	assert.Equal(t, "74.05", rounded.Total.StringFixed(2))
}

func TestComputeDiscountLargerThanSubtotalClampsToZero(t *testing.T) {
	cfg := Config{
		DiscountEnabled:          true,
		DiscountAmount:           dec("100"),
		ServiceChargeEnabled:     true,
		ServiceChargeRatePercent: dec("5"),
		TaxEnabled:               true,
		TaxRatePercent:           dec("8.5"),
	}
	b := Compute(sampleItems(), cfg)

	requireDecEqual(t, "100", b.Discount)
	requireDecEqual(t, "0", b.AfterDiscount)
	requireDecEqual(t, "0", b.ServiceCharge)
	requireDecEqual(t, "0", b.BeforeTax)
	requireDecEqual(t, "0", b.Tax)
	requireDecEqual(t, "0", b.Total)

	cfg.RoundingEnabled = true
	cfg.RoundingAmount = dec("-0.25")
	b = Compute(sampleItems(), cfg)
	requireDecEqual(t, "-0.25", b.Total)
}

func TestComputeDisabledFlagsIgnoreStoredValues(t *testing.T) {
	base := Compute(sampleItems(), Config{})
	cases := []struct {
		name string
		cfg  Config
	}{
		{name: "tax", cfg: Config{TaxRatePercent: dec("20")}},
		{name: "service", cfg: Config{ServiceChargeRatePercent: dec("12.5")}},
		{name: "discount", cfg: Config{DiscountAmount: dec("30")}},
		{name: "rounding", cfg: Config{RoundingAmount: dec("-1.11")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(sampleItems(), tc.cfg)
			assert.True(t, base.Total.Equal(got.Total), "total changed to %s", got.Total)
		})
	}
}

func TestComputeSubtotalIsSumOfLineTotals(t *testing.T) {
	items := []LineItem{
		{Quantity: 3, UnitPrice: dec("0.10")},
		{Quantity: 7, UnitPrice: dec("1.99")},
		{Quantity: 0, UnitPrice: dec("1000")},
		{Quantity: 1, UnitPrice: dec("0.01")},
	}
	b := Compute(items, Config{})
	requireDecEqual(t, "14.24", b.Subtotal)
}

func TestComputeIsOrderInvariant(t *testing.T) {
	cfg := Config{
		TaxEnabled:               true,
		TaxRatePercent:           dec("7.25"),
		ServiceChargeEnabled:     true,
		ServiceChargeRatePercent: dec("10"),
		DiscountEnabled:          true,
		DiscountAmount:           dec("3.33"),
	}
	items := []LineItem{
		{Quantity: 3, UnitPrice: dec("4.99")},
		{Quantity: 1, UnitPrice: dec("12.01")},
		{Quantity: 5, UnitPrice: dec("0.35")},
	}
	reversed := []LineItem{items[2], items[1], items[0]}

	assert.True(t, Compute(items, cfg).Total.Equal(Compute(reversed, cfg).Total))
}

func TestComputeEmptyItems(t *testing.T) {
	b := Compute(nil, Config{
		TaxEnabled:      true,
		TaxRatePercent:  dec("8.5"),
		RoundingEnabled: true,
		RoundingAmount:  dec("0.40"),
	})
	requireDecEqual(t, "0", b.Subtotal)
	requireDecEqual(t, "0", b.Tax)
	requireDecEqual(t, "0.40", b.Total)
	assert.Equal(t, 0, b.ItemCount)
}

func TestComputeIsIdempotentAndDoesNotMutateInputs(t *testing.T) {
	items := sampleItems()
	cfg := Config{TaxEnabled: true, TaxRatePercent: dec("8.5")}

	first := Compute(items, cfg)
	second := Compute(items, cfg)

	assert.Equal(t, first, second)
	assert.Equal(t, sampleItems(), items)
}

func TestRoundedHalfAwayFromZero(t *testing.T) {
	b := Breakdown{Total: dec("1.005"), Rounding: dec("-0.125")}.Rounded()
	requireDecEqual(t, "1.01", b.Total)
	requireDecEqual(t, "-0.13", b.Rounding)
}

func TestFromTemplateDefaults(t *testing.T) {
	zero := decimal.Zero
	twelve := dec("12")

	cfg := FromTemplateDefaults(TemplateDefaults{TaxEnabled: true, TaxRatePercent: &zero})
	assert.True(t, cfg.TaxEnabled)
	requireDecEqual(t, "0", cfg.TaxRatePercent)
	requireDecEqual(t, "5", cfg.ServiceChargeRatePercent)

	cfg = FromTemplateDefaults(TemplateDefaults{ServiceChargeEnabled: true, ServiceChargeRatePercent: &twelve})
	requireDecEqual(t, "8.5", cfg.TaxRatePercent)
	requireDecEqual(t, "12", cfg.ServiceChargeRatePercent)
	assert.False(t, cfg.DiscountEnabled)
	assert.False(t, cfg.RoundingEnabled)

	def := DefaultConfig()
	assert.False(t, def.TaxEnabled)
	assert.False(t, def.ServiceChargeEnabled)
	requireDecEqual(t, "8.5", def.TaxRatePercent)
}
