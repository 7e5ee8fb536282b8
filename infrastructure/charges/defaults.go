package charges

import "github.com/shopspring/decimal"

// TemplateDefaults are the charge settings a template stores for new receipts.
// A nil rate means the template never set one.
type TemplateDefaults struct {
	TaxEnabled               bool
	TaxRatePercent           *decimal.Decimal
	ServiceChargeEnabled     bool
	ServiceChargeRatePercent *decimal.Decimal
}

// FromTemplateDefaults seeds the charge config of a new receipt.
// Receipts loaded for editing must not pass through here.
func FromTemplateDefaults(d TemplateDefaults) Config {
	cfg := Config{
		TaxEnabled:               d.TaxEnabled,
		TaxRatePercent:           DefaultTaxRatePercent,
		ServiceChargeEnabled:     d.ServiceChargeEnabled,
		ServiceChargeRatePercent: DefaultServiceChargeRatePercent,
	}
	if d.TaxRatePercent != nil {
		cfg.TaxRatePercent = *d.TaxRatePercent
	}
	if d.ServiceChargeRatePercent != nil {
		cfg.ServiceChargeRatePercent = *d.ServiceChargeRatePercent
	}
	return cfg
}

// DefaultConfig is the config used when no template is selected.
func DefaultConfig() Config {
	return FromTemplateDefaults(TemplateDefaults{})
}
