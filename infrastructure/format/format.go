package format

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const CurrencySymbol = "$"

var ErrInvalidAmount = errors.New("invalid amount")

// Money renders d with two decimals, e.g. "$65.00" or "65.00". Negative values render as "-$0.50".
func Money(d decimal.Decimal, withSymbol bool) string {
	symbol := ""
	if withSymbol {
		symbol = CurrencySymbol
	}
	if d.Round(2).IsNegative() {
		return "-" + symbol + d.Abs().StringFixed(2)
	}
	return symbol + d.Abs().StringFixed(2)
}

// SignedMoney is Money with an explicit "+" for zero and positive values.
func SignedMoney(d decimal.Decimal, withSymbol bool) string {
	if d.Round(2).IsNegative() {
		return Money(d, withSymbol)
	}
	return "+" + Money(d, withSymbol)
}

// Percent renders a rate without trailing zeros, e.g. "8.5%".
func Percent(d decimal.Decimal) string {
	return d.String() + "%"
}

// Plain renders d with two decimals and no symbol, for form inputs and CSV.
func Plain(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ParseAmount parses user input such as "12.50", " $3 ", "+$0.50" or "-0.25".
// At most one sign is accepted and it must come before the currency symbol.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	neg := false
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		neg = s[0] == '-'
		s = strings.TrimSpace(s[1:])
	}
	s = strings.TrimPrefix(s, CurrencySymbol)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if neg {
		d = d.Neg()
	}
	return d, nil
}

// ParseOptionalAmount returns nil for blank input.
func ParseOptionalAmount(raw string) (*decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := ParseAmount(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseAmountOrZero treats blank input as zero.
func ParseAmountOrZero(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	return ParseAmount(raw)
}
