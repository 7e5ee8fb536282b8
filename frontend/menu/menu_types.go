package menu

import (
	"github.com/shopspring/decimal"

	"receiptstudio/models"
)

// UncategorizedFilter selects items with an empty category.
const UncategorizedFilter = "uncategorized"

// ImportSummary counts the outcome of one CSV import.
type ImportSummary struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Errors   int `json:"errors"`
}

// Filter narrows List. An empty Category matches every item.
type Filter struct {
	Search   string
	Category string
}

// ItemInput is the editable part of a menu item.
type ItemInput struct {
	Name        string          `json:"name" validate:"required,max=120"`
	Description string          `json:"description" validate:"max=500"`
	Price       decimal.Decimal `json:"price" validate:"gte=0"`
	Category    string          `json:"category" validate:"max=60"`
	IsActive    bool            `json:"is_active"`
}

// PickerItem is the JSON shape served to the receipt form's menu picker.
type PickerItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
}

type PageData struct {
	TemplateID   string
	TemplateName string
	CanModify    bool
	Filter       Filter
	Categories   []string
	Items        []models.MenuItem
}
