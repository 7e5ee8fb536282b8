package layout

import (
	"encoding/json"
	"strings"
)

// ItemColumn is one resolved item table column.
type ItemColumn struct {
	Key          ColumnKey `json:"key"`
	Label        string    `json:"label"`
	Visible      bool      `json:"visible"`
	WidthPercent float64   `json:"width_percent"`
	Alignment    Alignment `json:"alignment"`
}

var columnLabels = map[ColumnKey]string{
	ColumnDescription: "Item",
	ColumnQuantity:    "Qty",
	ColumnPrice:       "Price",
	ColumnTotal:       "Total",
}

var columnAlignments = map[ColumnKey]Alignment{
	ColumnDescription: AlignLeft,
	ColumnQuantity:    AlignCenter,
	ColumnPrice:       AlignRight,
	ColumnTotal:       AlignRight,
}

// ResolveItemColumns lists all four columns in the layout's order, hidden ones included.
func ResolveItemColumns(l TemplateLayout) []ItemColumn {
	order := l.ColumnOrder
	if !isPermutation(order) {
		order = DefaultColumnOrder()
	}
	out := make([]ItemColumn, 0, len(order))
	for _, key := range order {
		setting, ok := l.Columns[key]
		if !ok {
			setting = ColumnSetting{Visible: true, WidthPercent: DefaultColumnWidth(key)}
		}
		out = append(out, ItemColumn{
			Key:          key,
			Label:        columnLabels[key],
			Visible:      setting.Visible,
			WidthPercent: setting.WidthPercent,
			Alignment:    columnAlignments[key],
		})
	}
	return out
}

// VisibleItemColumns drops hidden columns from ResolveItemColumns.
func VisibleItemColumns(l TemplateLayout) []ItemColumn {
	all := ResolveItemColumns(l)
	out := all[:0]
	for _, col := range all {
		if col.Visible {
			out = append(out, col)
		}
	}
	return out
}

// NormalizeColumnOrder returns keys as a column order, or the default order unless keys is an
// exact permutation of the four known columns.
func NormalizeColumnOrder(keys []string) []ColumnKey {
	if len(keys) != 4 {
		return DefaultColumnOrder()
	}
	order := make([]ColumnKey, 0, 4)
	for _, k := range keys {
		order = append(order, ColumnKey(strings.TrimSpace(k)))
	}
	if !isPermutation(order) {
		return DefaultColumnOrder()
	}
	return order
}

// ParseColumnOrder decodes a stored JSON array, falling back to the default order on any
// malformed input.
func ParseColumnOrder(raw string) []ColumnKey {
	var keys []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &keys); err != nil {
		return DefaultColumnOrder()
	}
	return NormalizeColumnOrder(keys)
}

// EncodeColumnOrder is the inverse of ParseColumnOrder.
func EncodeColumnOrder(order []ColumnKey) string {
	if !isPermutation(order) {
		order = DefaultColumnOrder()
	}
	b, _ := json.Marshal(order)
	return string(b)
}

func isPermutation(order []ColumnKey) bool {
	if len(order) != 4 {
		return false
	}
	seen := make(map[ColumnKey]struct{}, 4)
	for _, key := range order {
		if _, known := columnLabels[key]; !known {
			return false
		}
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}
