package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// User represents an authenticated app user.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,unique,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         string    `bun:"role,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Session is used by middleware and auth handlers.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID                string         `bun:"id,pk"`
	UserID            int64          `bun:"user_id,notnull"`
	User              User           `bun:"rel:belongs-to,join:user_id=id"`
	UserRoles         []string       `bun:"-"`
	ScreenPermissions map[string]int `bun:"-"`
	ExpiresAt         time.Time      `bun:"expires_at,notnull"`
	CreatedAt         time.Time      `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt         time.Time      `bun:"updated_at,notnull,default:current_timestamp"`
}

// Expired returns true when the session expiry time has passed.
func (s Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Template holds branding, layout and default charges for receipts.
type Template struct {
	bun.BaseModel `bun:"table:templates,alias:t"`

	ID        string `bun:"id,pk"`
	Name      string `bun:"name,notnull"`
	CreatedBy int64  `bun:"created_by,notnull"`
	IsPublic  bool   `bun:"is_public,notnull"`

	BusinessName    string `bun:"business_name,notnull"`
	BusinessAddress string `bun:"business_address,notnull"`
	BusinessPhone   string `bun:"business_phone,notnull"`
	BusinessEmail   string `bun:"business_email,notnull"`
	BusinessWebsite string `bun:"business_website,notnull"`
	LogoURL         string `bun:"logo_url,notnull"`
	ShowLogo        bool   `bun:"show_logo,notnull"`
	LogoSize        int    `bun:"logo_size,notnull"`
	LogoPosition    string `bun:"logo_position,notnull"`

	BackgroundColor string `bun:"background_color,notnull"`
	TextColor       string `bun:"text_color,notnull"`
	AccentColor     string `bun:"accent_color,notnull"`
	BorderColor     string `bun:"border_color,notnull"`
	FontFamily      string `bun:"font_family,notnull"`
	FontSize        int    `bun:"font_size,notnull"`
	ShowBorder      bool   `bun:"show_border,notnull"`
	HeaderStyle     string `bun:"header_style,notnull"`

	FooterText string `bun:"footer_text,notnull"`
	ShowFooter bool   `bun:"show_footer,notnull"`
	Terms      string `bun:"terms,notnull"`
	ShowTerms  bool   `bun:"show_terms,notnull"`

	CustomHeader1         string `bun:"custom_header1,notnull"`
	CustomHeader2         string `bun:"custom_header2,notnull"`
	ShowCustomHeaders     bool   `bun:"show_custom_headers,notnull"`
	CustomHeaderAlignment string `bun:"custom_header_alignment,notnull"`

	ShowCustomerBlock      bool   `bun:"show_customer_block,notnull"`
	CustomerBlockTitle     string `bun:"customer_block_title,notnull"`
	CustomerBlockText      string `bun:"customer_block_text,notnull"`
	CustomerBlockAlignment string `bun:"customer_block_alignment,notnull"`
	ShowDatetimeInCustomer bool   `bun:"show_datetime_in_customer,notnull"`
	DatetimeFormat         string `bun:"datetime_format,notnull"`

	ShowCustomSection      bool   `bun:"show_custom_section,notnull"`
	CustomSectionTitle     string `bun:"custom_section_title,notnull"`
	CustomSectionText      string `bun:"custom_section_text,notnull"`
	CustomSectionAlignment string `bun:"custom_section_alignment,notnull"`

	ShowItemLabels        bool    `bun:"show_item_labels,notnull"`
	ShowCurrencySymbol    bool    `bun:"show_currency_symbol,notnull"`
	ShowDescriptionColumn bool    `bun:"show_description_column,notnull"`
	ShowQuantityColumn    bool    `bun:"show_quantity_column,notnull"`
	ShowPriceColumn       bool    `bun:"show_price_column,notnull"`
	ShowTotalColumn       bool    `bun:"show_total_column,notnull"`
	ItemDescriptionWidth  float64 `bun:"item_description_width,notnull"`
	ItemQuantityWidth     float64 `bun:"item_quantity_width,notnull"`
	ItemPriceWidth        float64 `bun:"item_price_width,notnull"`
	ItemTotalWidth        float64 `bun:"item_total_width,notnull"`
	ColumnOrder           string  `bun:"column_order,notnull"`

	SummaryLayoutColumns   int     `bun:"summary_layout_columns,notnull"`
	SummaryColumn1Width    float64 `bun:"summary_column1_width,notnull"`
	SummaryColumn2Width    float64 `bun:"summary_column2_width,notnull"`
	SummaryColumn3Width    float64 `bun:"summary_column3_width,notnull"`
	SummaryLabelsAlignment string  `bun:"summary_labels_alignment,notnull"`
	SummaryValuesAlignment string  `bun:"summary_values_alignment,notnull"`
	SummaryLabelsPosition  string  `bun:"summary_labels_position,notnull"`
	SummaryValuesPosition  string  `bun:"summary_values_position,notnull"`

	ShowItemsCount            bool    `bun:"show_items_count,notnull"`
	ItemsCountLayoutColumns   int     `bun:"items_count_layout_columns,notnull"`
	ItemsCountColumn1Width    float64 `bun:"items_count_column1_width,notnull"`
	ItemsCountColumn2Width    float64 `bun:"items_count_column2_width,notnull"`
	ItemsCountColumn3Width    float64 `bun:"items_count_column3_width,notnull"`
	ItemsCountLabelsAlignment string  `bun:"items_count_labels_alignment,notnull"`
	ItemsCountValuesAlignment string  `bun:"items_count_values_alignment,notnull"`
	ItemsCountLabelsPosition  string  `bun:"items_count_labels_position,notnull"`
	ItemsCountValuesPosition  string  `bun:"items_count_values_position,notnull"`

	SeparatorAfterItemsCount    bool `bun:"separator_after_items_count,notnull"`
	SeparatorAfterSubtotal      bool `bun:"separator_after_subtotal,notnull"`
	SeparatorAfterServiceCharge bool `bun:"separator_after_service_charge,notnull"`
	SeparatorAfterBeforeTax     bool `bun:"separator_after_before_tax,notnull"`
	SeparatorAfterTax           bool `bun:"separator_after_tax,notnull"`
	SeparatorAfterTotal         bool `bun:"separator_after_total,notnull"`

	DefaultTaxRate               decimal.NullDecimal `bun:"default_tax_rate,type:text"`
	DefaultServiceChargeRate     decimal.NullDecimal `bun:"default_service_charge_rate,type:text"`
	EnableTaxByDefault           bool                `bun:"enable_tax_by_default,notnull"`
	EnableServiceChargeByDefault bool                `bun:"enable_service_charge_by_default,notnull"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Receipt is a saved receipt. Amount columns hold values rounded to cents.
type Receipt struct {
	bun.BaseModel `bun:"table:receipts,alias:r"`

	ID            string  `bun:"id,pk"`
	ReceiptNumber string  `bun:"receipt_number,notnull"`
	TemplateID    *string `bun:"template_id"`
	CreatedBy     int64   `bun:"created_by,notnull"`
	IsPublic      bool    `bun:"is_public,notnull"`

	CustomerName  string `bun:"customer_name,notnull"`
	CustomerEmail string `bun:"customer_email,notnull"`
	CustomerPhone string `bun:"customer_phone,notnull"`

	TaxEnabled           bool            `bun:"tax_enabled,notnull"`
	TaxRate              decimal.Decimal `bun:"tax_rate,type:text,notnull"`
	ServiceChargeEnabled bool            `bun:"service_charge_enabled,notnull"`
	ServiceChargeRate    decimal.Decimal `bun:"service_charge_rate,type:text,notnull"`
	DiscountEnabled      bool            `bun:"discount_enabled,notnull"`
	DiscountAmount       decimal.Decimal `bun:"discount_amount,type:text,notnull"`
	RoundingEnabled      bool            `bun:"rounding_enabled,notnull"`
	RoundingAmount       decimal.Decimal `bun:"rounding_amount,type:text,notnull"`

	Subtotal            decimal.Decimal `bun:"subtotal,type:text,notnull"`
	DiscountApplied     decimal.Decimal `bun:"discount_applied,type:text,notnull"`
	ServiceChargeAmount decimal.Decimal `bun:"service_charge_amount,type:text,notnull"`
	TaxAmount           decimal.Decimal `bun:"tax_amount,type:text,notnull"`
	RoundingApplied     decimal.Decimal `bun:"rounding_applied,type:text,notnull"`
	Total               decimal.Decimal `bun:"total,type:text,notnull"`

	ReceiptDate string `bun:"receipt_date,notnull"`
	ReceiptTime string `bun:"receipt_time,notnull"`
	Notes       string `bun:"notes,notnull"`

	Items    []ReceiptItem `bun:"rel:has-many,join:id=receipt_id"`
	Template *Template     `bun:"rel:belongs-to,join:template_id=id"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// ReceiptItem is one line of a receipt, ordered by Position.
type ReceiptItem struct {
	bun.BaseModel `bun:"table:receipt_items,alias:ri"`

	ReceiptID   string          `bun:"receipt_id,pk"`
	ID          string          `bun:"id,pk"`
	Position    int             `bun:"position,notnull"`
	Description string          `bun:"description,notnull"`
	Quantity    int64           `bun:"quantity,notnull"`
	UnitPrice   decimal.Decimal `bun:"unit_price,type:text,notnull"`
}

// MenuItem is a template-scoped catalog entry used to prefill receipt lines.
type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items,alias:mi"`

	ID          string          `bun:"id,pk"`
	TemplateID  string          `bun:"template_id,notnull"`
	Name        string          `bun:"name,notnull"`
	Description string          `bun:"description,notnull"`
	Price       decimal.Decimal `bun:"price,type:text,notnull"`
	Category    string          `bun:"category,notnull"`
	IsActive    bool            `bun:"is_active,notnull"`
	SortOrder   int             `bun:"sort_order,notnull"`
	CreatedAt   time.Time       `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time       `bun:"updated_at,notnull,default:current_timestamp"`
}

// AuditLog captures immutable change history for key operations.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID         int64     `bun:"id,pk,autoincrement"`
	UserID     int64     `bun:"user_id,notnull"`
	Action     string    `bun:"action,notnull"`
	EntityType string    `bun:"entity_type,notnull"`
	EntityID   string    `bun:"entity_id,notnull"`
	BeforeJSON string    `bun:"before_json"`
	AfterJSON  string    `bun:"after_json"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
