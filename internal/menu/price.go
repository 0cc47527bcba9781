package menu

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice reads a menu price such as "2.5", "2,50" or "€ 3" into a decimal.
func ParsePrice(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "€$£ ")
	s = strings.TrimRight(s, "€$£ ")
	if s == "" {
		return decimal.Decimal{}, false
	}
	// Italian menus write decimals with a comma.
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// NormalizePrice formats a parseable price with two decimals.
// Anything else ("market price", "") is returned unchanged.
func NormalizePrice(s string) string {
	d, ok := ParsePrice(s)
	if !ok {
		return s
	}
	return d.StringFixed(2)
}

// FormatPrice normalises the price and prefixes the currency symbol when set.
func FormatPrice(s, currency string) string {
	d, ok := ParsePrice(s)
	if !ok {
		return s
	}
	if currency == "" {
		return d.StringFixed(2)
	}
	return currency + " " + d.StringFixed(2)
}
