// Package money renders amounts for display: rupee prefix, two decimals,
// Indian digit grouping. Engine math stays unrounded; only display formats.
package money

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const symbol = "₹"

var printer = message.NewPrinter(language.MustParse("en-IN"))

// Format renders an amount with the currency symbol, locale-aware grouping,
// and exactly two fraction digits.
func Format(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return symbol + printer.Sprint(number.Decimal(v,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}
