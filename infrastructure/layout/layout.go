package layout

// ColumnKey names one of the four item table columns.
type ColumnKey string

const (
	ColumnDescription ColumnKey = "description"
	ColumnQuantity    ColumnKey = "quantity"
	ColumnPrice       ColumnKey = "price"
	ColumnTotal       ColumnKey = "total"
)

// DefaultColumnOrder returns a fresh copy of the canonical item column order.
func DefaultColumnOrder() []ColumnKey {
	return []ColumnKey{ColumnDescription, ColumnQuantity, ColumnPrice, ColumnTotal}
}

type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// ParseAlignment returns fallback for anything other than left, center or right.
func ParseAlignment(raw string, fallback Alignment) Alignment {
	switch Alignment(raw) {
	case AlignLeft, AlignCenter, AlignRight:
		return Alignment(raw)
	}
	return fallback
}

// Position is a row layout slot: column1, column2 or column3.
type Position string

const (
	Column1 Position = "column1"
	Column2 Position = "column2"
	Column3 Position = "column3"
)

var positions = []Position{Column1, Column2, Column3}

// Index returns the zero-based slot index, or -1 when unknown.
func (p Position) Index() int {
	for i, pos := range positions {
		if pos == p {
			return i
		}
	}
	return -1
}

// ColumnSetting is the stored visibility and width of one item column.
type ColumnSetting struct {
	Visible      bool    `json:"visible"`
	WidthPercent float64 `json:"width_percent"`
}

// RowLayout places a label and a value into two or three slots.
type RowLayout struct {
	Columns         int        `json:"columns"`
	Widths          [3]float64 `json:"widths"`
	LabelsPosition  Position   `json:"labels_position"`
	ValuesPosition  Position   `json:"values_position"`
	LabelsAlignment Alignment  `json:"labels_alignment"`
	ValuesAlignment Alignment  `json:"values_alignment"`
}

// Separators toggles a divider after each summary line.
type Separators struct {
	AfterItemsCount    bool `json:"after_items_count"`
	AfterSubtotal      bool `json:"after_subtotal"`
	AfterServiceCharge bool `json:"after_service_charge"`
	AfterBeforeTax     bool `json:"after_before_tax"`
	AfterTax           bool `json:"after_tax"`
	AfterTotal         bool `json:"after_total"`
}

// TemplateLayout is the normalized layout intent of a template.
type TemplateLayout struct {
	ShowItemLabels     bool                        `json:"show_item_labels"`
	Columns            map[ColumnKey]ColumnSetting `json:"columns"`
	ColumnOrder        []ColumnKey                 `json:"column_order"`
	Summary            RowLayout                   `json:"summary"`
	ShowItemsCount     bool                        `json:"show_items_count"`
	ItemsCount         RowLayout                   `json:"items_count"`
	Separators         Separators                  `json:"separators"`
	ShowCurrencySymbol bool                        `json:"show_currency_symbol"`
}

const (
	DefaultDescriptionWidth = 50
	DefaultQuantityWidth    = 15
	DefaultPriceWidth       = 17.5
	DefaultTotalWidth       = 17.5
)

// DefaultColumnWidth returns the designer default width for key.
func DefaultColumnWidth(key ColumnKey) float64 {
	switch key {
	case ColumnDescription:
		return DefaultDescriptionWidth
	case ColumnQuantity:
		return DefaultQuantityWidth
	case ColumnPrice:
		return DefaultPriceWidth
	case ColumnTotal:
		return DefaultTotalWidth
	}
	return 0
}

var defaultRowWidths = [3]float64{50, 50, 33.33}

// DefaultRowLayout is two columns, labels left in column1, values right in column2.
func DefaultRowLayout() RowLayout {
	return RowLayout{
		Columns:         2,
		Widths:          defaultRowWidths,
		LabelsPosition:  Column1,
		ValuesPosition:  Column2,
		LabelsAlignment: AlignLeft,
		ValuesAlignment: AlignRight,
	}
}

// NormalizeRowLayout clamps a stored row layout into a usable one.
func NormalizeRowLayout(rl RowLayout) RowLayout {
	if rl.Columns != 2 && rl.Columns != 3 {
		rl.Columns = 2
	}
	for i := range rl.Widths {
		if rl.Widths[i] <= 0 {
			rl.Widths[i] = defaultRowWidths[i]
		}
	}
	if idx := rl.LabelsPosition.Index(); idx < 0 || idx >= rl.Columns {
		rl.LabelsPosition = Column1
	}
	if idx := rl.ValuesPosition.Index(); idx < 0 || idx >= rl.Columns {
		rl.ValuesPosition = Column2
	}
	rl.LabelsAlignment = ParseAlignment(string(rl.LabelsAlignment), AlignLeft)
	rl.ValuesAlignment = ParseAlignment(string(rl.ValuesAlignment), AlignRight)
	return rl
}

// DefaultTemplateLayout matches a freshly created template.
func DefaultTemplateLayout() TemplateLayout {
	cols := make(map[ColumnKey]ColumnSetting, 4)
	for _, key := range DefaultColumnOrder() {
		cols[key] = ColumnSetting{Visible: true, WidthPercent: DefaultColumnWidth(key)}
	}
	return TemplateLayout{
		ShowItemLabels:     true,
		Columns:            cols,
		ColumnOrder:        DefaultColumnOrder(),
		Summary:            DefaultRowLayout(),
		ShowItemsCount:     true,
		ItemsCount:         DefaultRowLayout(),
		ShowCurrencySymbol: true,
	}
}
