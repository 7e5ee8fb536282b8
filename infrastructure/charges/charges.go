package charges

import (
	"github.com/shopspring/decimal"
)

var (
	DefaultTaxRatePercent           = decimal.RequireFromString("8.5")
	DefaultServiceChargeRatePercent = decimal.NewFromInt(5)
)

// LineItem is one priced row of a receipt.
type LineItem struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// LineTotal returns quantity times unit price.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(li.Quantity))
}

// Config holds the charge toggles and their rates or amounts.
type Config struct {
	TaxEnabled               bool            `json:"tax_enabled"`
	TaxRatePercent           decimal.Decimal `json:"tax_rate"`
	ServiceChargeEnabled     bool            `json:"service_charge_enabled"`
	ServiceChargeRatePercent decimal.Decimal `json:"service_charge_rate"`
	DiscountEnabled          bool            `json:"discount_enabled"`
	DiscountAmount           decimal.Decimal `json:"discount_amount"`
	RoundingEnabled          bool            `json:"rounding_enabled"`
	RoundingAmount           decimal.Decimal `json:"rounding_amount"`
}

// Breakdown is the ordered result of Compute.
type Breakdown struct {
	ItemCount     int             `json:"item_count"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	AfterDiscount decimal.Decimal `json:"after_discount"`
	ServiceCharge decimal.Decimal `json:"service_charge"`
	BeforeTax     decimal.Decimal `json:"before_tax"`
	Tax           decimal.Decimal `json:"tax"`
	Rounding      decimal.Decimal `json:"rounding"`
	Total         decimal.Decimal `json:"total"`
}

// Compute applies discount, service charge, tax and rounding to the item subtotal, in that order.
//
// Amounts keep full precision; call Rounded before persisting or displaying.
func Compute(items []LineItem, cfg Config) Breakdown {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	discount := decimal.Zero
	if cfg.DiscountEnabled {
		discount = cfg.DiscountAmount
	}

	afterDiscount := subtotal.Sub(discount)
	if afterDiscount.IsNegative() {
		afterDiscount = decimal.Zero
	}

	serviceCharge := decimal.Zero
	if cfg.ServiceChargeEnabled {
		serviceCharge = percentOf(afterDiscount, cfg.ServiceChargeRatePercent)
	}

	beforeTax := afterDiscount.Add(serviceCharge)

	tax := decimal.Zero
	if cfg.TaxEnabled {
		tax = percentOf(beforeTax, cfg.TaxRatePercent)
	}

	rounding := decimal.Zero
	if cfg.RoundingEnabled {
		rounding = cfg.RoundingAmount
	}

	return Breakdown{
		ItemCount:     len(items),
		Subtotal:      subtotal,
		Discount:      discount,
		AfterDiscount: afterDiscount,
		ServiceCharge: serviceCharge,
		BeforeTax:     beforeTax,
		Tax:           tax,
		Rounding:      rounding,
		Total:         beforeTax.Add(tax).Add(rounding),
	}
}

// Rounded returns a copy with every amount rounded to cents, half away from zero.
func (b Breakdown) Rounded() Breakdown {
	return Breakdown{
		ItemCount:     b.ItemCount,
		Subtotal:      b.Subtotal.Round(2),
		Discount:      b.Discount.Round(2),
		AfterDiscount: b.AfterDiscount.Round(2),
		ServiceCharge: b.ServiceCharge.Round(2),
		BeforeTax:     b.BeforeTax.Round(2),
		Tax:           b.Tax.Round(2),
		Rounding:      b.Rounding.Round(2),
		Total:         b.Total.Round(2),
	}
}

func percentOf(amount, ratePercent decimal.Decimal) decimal.Decimal {
	return amount.Mul(ratePercent).Shift(-2)
}
