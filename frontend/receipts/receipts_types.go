package receipts

import (
	"time"

	"github.com/shopspring/decimal"

	"receiptstudio/infrastructure/charges"
	"receiptstudio/infrastructure/layout"
	"receiptstudio/infrastructure/render"
	"receiptstudio/models"
)

// ItemInput is one receipt line as submitted by the form or the preview API.
type ItemInput struct {
	ID          string          `json:"id"`
	Description string          `json:"description" validate:"required,max=200"`
	Quantity    int64           `json:"quantity" validate:"gte=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

// ChargesInput holds the charge toggles of a receipt. Rates are percentages.
type ChargesInput struct {
	TaxEnabled           bool            `json:"tax_enabled"`
	TaxRate              decimal.Decimal `json:"tax_rate" validate:"gte=0,lte=100"`
	ServiceChargeEnabled bool            `json:"service_charge_enabled"`
	ServiceChargeRate    decimal.Decimal `json:"service_charge_rate" validate:"gte=0,lte=100"`
	DiscountEnabled      bool            `json:"discount_enabled"`
	DiscountAmount       decimal.Decimal `json:"discount_amount" validate:"gte=0"`
	RoundingEnabled      bool            `json:"rounding_enabled"`
	RoundingAmount       decimal.Decimal `json:"rounding_amount"`
}

// Config converts the input into the calculator config.
func (c ChargesInput) Config() charges.Config {
	return charges.Config{
		TaxEnabled:               c.TaxEnabled,
		TaxRatePercent:           c.TaxRate,
		ServiceChargeEnabled:     c.ServiceChargeEnabled,
		ServiceChargeRatePercent: c.ServiceChargeRate,
		DiscountEnabled:          c.DiscountEnabled,
		DiscountAmount:           c.DiscountAmount,
		RoundingEnabled:          c.RoundingEnabled,
		RoundingAmount:           c.RoundingAmount,
	}
}

// ChargesFromConfig is the inverse of ChargesInput.Config.
func ChargesFromConfig(cfg charges.Config) ChargesInput {
	return ChargesInput{
		TaxEnabled:           cfg.TaxEnabled,
		TaxRate:              cfg.TaxRatePercent,
		ServiceChargeEnabled: cfg.ServiceChargeEnabled,
		ServiceChargeRate:    cfg.ServiceChargeRatePercent,
		DiscountEnabled:      cfg.DiscountEnabled,
		DiscountAmount:       cfg.DiscountAmount,
		RoundingEnabled:      cfg.RoundingEnabled,
		RoundingAmount:       cfg.RoundingAmount,
	}
}

// ReceiptInput is everything a user edits on a receipt.
type ReceiptInput struct {
	TemplateID    string       `json:"template_id"`
	ReceiptNumber string       `json:"receipt_number" validate:"required,max=64"`
	CustomerName  string       `json:"customer_name" validate:"max=200"`
	CustomerEmail string       `json:"customer_email" validate:"omitempty,email,max=200"`
	CustomerPhone string       `json:"customer_phone" validate:"max=50"`
	ReceiptDate   string       `json:"receipt_date" validate:"max=32"`
	ReceiptTime   string       `json:"receipt_time" validate:"max=32"`
	Notes         string       `json:"notes" validate:"max=2000"`
	IsPublic      bool         `json:"is_public"`
	Items         []ItemInput  `json:"items" validate:"required,min=1,dive"`
	Charges       ChargesInput `json:"charges"`
}

// PreviewRequest is the body of the preview API.
type PreviewRequest struct {
	TemplateID string       `json:"template_id"`
	Items      []ItemInput  `json:"items" validate:"required,min=1,dive"`
	Charges    ChargesInput `json:"charges"`
}

// PreviewResponse carries the rounded breakdown and the resolved document.
type PreviewResponse struct {
	Breakdown charges.Breakdown `json:"breakdown"`
	Document  layout.Document   `json:"document"`
}

// Summary is one row of a receipt list.
type Summary struct {
	ID            string          `bun:"id"`
	ReceiptNumber string          `bun:"receipt_number"`
	TemplateName  string          `bun:"template_name"`
	BusinessName  string          `bun:"business_name"`
	CustomerName  string          `bun:"customer_name"`
	Total         decimal.Decimal `bun:"total"`
	ReceiptDate   string          `bun:"receipt_date"`
	ReceiptTime   string          `bun:"receipt_time"`
	IsPublic      bool            `bun:"is_public"`
	CreatedBy     int64           `bun:"created_by"`
	CreatedByName string          `bun:"created_by_name"`
	CreatedAt     time.Time       `bun:"created_at"`
}

type ListPageData struct {
	Search   string
	Public   bool
	Receipts []Summary
}

type FormPageData struct {
	ReceiptID string
	Input     ReceiptInput
	Templates []models.Template
	MenuItems []models.MenuItem
	CanDelete bool
}

type ViewPageData struct {
	Receipt   models.Receipt
	Render    render.Receipt
	ShareURL  string
	CanModify bool
	MenuItems []models.MenuItem
}
