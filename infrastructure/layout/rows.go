package layout

// Slot is one cell of a summary or items-count row.
type Slot struct {
	Content      string    `json:"content"`
	WidthPercent float64   `json:"width_percent"`
	Alignment    Alignment `json:"alignment"`
}

// ResolveSummaryRow places label and value into exactly rl.Columns slots.
//
// When labels and values share a position the slot holds "label value" with the labels
// alignment.
func ResolveSummaryRow(label, value string, rl RowLayout) []Slot {
	slots := make([]Slot, 0, rl.Columns)
	for i := 0; i < rl.Columns && i < len(positions); i++ {
		pos := positions[i]
		slot := Slot{WidthPercent: rl.Widths[i], Alignment: AlignLeft}
		switch {
		case pos == rl.LabelsPosition && pos == rl.ValuesPosition:
			slot.Content = label + " " + value
			slot.Alignment = rl.LabelsAlignment
		case pos == rl.LabelsPosition:
			slot.Content = label
			slot.Alignment = rl.LabelsAlignment
		case pos == rl.ValuesPosition:
			slot.Content = value
			slot.Alignment = rl.ValuesAlignment
		}
		slots = append(slots, slot)
	}
	return slots
}

// ResolveItemsCountRow is ResolveSummaryRow over the items-count layout.
func ResolveItemsCountRow(label, value string, l TemplateLayout) []Slot {
	return ResolveSummaryRow(label, value, l.ItemsCount)
}

// Separator is a right-aligned divider spanning the value columns.
type Separator struct {
	WidthPercent      float64 `json:"width_percent"`
	MarginLeftPercent float64 `json:"margin_left_percent"`
	Double            bool    `json:"double"`
}

// SeparatorFor sizes a divider to column2, or column2 plus column3 in a three column layout.
func SeparatorFor(summary RowLayout, double bool) Separator {
	width := summary.Widths[1]
	if summary.Columns == 3 {
		width += summary.Widths[2]
	}
	margin := 100 - width
	if margin < 0 {
		margin = 0
	}
	return Separator{WidthPercent: width, MarginLeftPercent: margin, Double: double}
}
