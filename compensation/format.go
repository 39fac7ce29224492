package compensation

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// =============================================================================
// FORMATTING - Human-readable traces and labels
// =============================================================================

var printer = message.NewPrinter(language.English)

var hundred = decimal.NewFromInt(100)

// FormatMoney renders d as dollars with thousands grouping: $12,345.60.
func FormatMoney(d decimal.Decimal) string {
	s := groupDecimal(d.Round(2), 2)
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

// FormatNumber renders a basis value: integers without decimals, anything
// else with two places.
func FormatNumber(d decimal.Decimal) string {
	if d.IsInteger() {
		return groupDecimal(d, 0)
	}
	return groupDecimal(d.Round(2), 2)
}

// FormatRate renders a fraction as a percentage: 0.1 -> "10%".
func FormatRate(fraction decimal.Decimal) string {
	return fraction.Mul(hundred).Round(4).String() + "%"
}

func groupDecimal(d decimal.Decimal, places int32) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	whole := printer.Sprintf("%d", d.IntPart())
	if places == 0 {
		return sign + whole
	}
	fixed := d.StringFixed(places)
	return sign + whole + fixed[strings.IndexByte(fixed, '.'):]
}
