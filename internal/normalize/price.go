package normalize

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// minPriceDecimals is the fraction width every numeric price is padded to.
const minPriceDecimals = 2

var nonNumeric = regexp.MustCompile(`[^0-9.,\-]`)

// ResolvePrice applies the price markup precedence: a non-empty sale price
// wins, then the regular price, otherwise NotFound.
func ResolvePrice(sale, regular string) string {
	if !types.IsMissing(sale) {
		return strings.TrimSpace(sale)
	}
	if !types.IsMissing(regular) {
		return strings.TrimSpace(regular)
	}
	return types.NotFound
}

// CanonicalPrice returns the form prices are stored and compared in.
// Numeric prices become a plain decimal with at least two fraction digits
// ("19,9 €" and "19.90" both give "19.90", "1.299 kr" gives "1299.00").
// Anything that does not parse, including NotFound, is returned trimmed and
// otherwise untouched.
func CanonicalPrice(raw string) string {
	s := strings.TrimSpace(raw)
	if types.IsMissing(s) {
		return types.NotFound
	}

	numeric := decimalPoint(nonNumeric.ReplaceAllString(s, ""))

	d, err := decimal.NewFromString(numeric)
	if err != nil {
		return s
	}
	// String drops trailing zeros, which gives the minimal exponent.
	d, err = decimal.NewFromString(d.String())
	if err != nil {
		return s
	}
	places := int32(minPriceDecimals)
	if -d.Exponent() > places {
		places = -d.Exponent()
	}
	return d.StringFixed(places)
}

// decimalPoint rewrites the separators of a numeric price so "." is the only
// decimal point and no grouping remains. With both separators present the
// last one is the decimal point. A single separator followed by exactly three
// digits groups thousands ("1.299", "1,299") unless the integer part is zero.
func decimalPoint(numeric string) string {
	lastComma := strings.LastIndex(numeric, ",")
	lastDot := strings.LastIndex(numeric, ".")
	switch {
	case lastComma < 0 && lastDot < 0:
		return numeric
	case lastComma > lastDot && lastDot >= 0:
		// 1.234,56
		return strings.Replace(strings.ReplaceAll(numeric, ".", ""), ",", ".", 1)
	case lastDot > lastComma && lastComma >= 0:
		// 1,234.56
		return strings.ReplaceAll(numeric, ",", "")
	}

	sep := "."
	if lastComma >= 0 {
		sep = ","
	}
	parts := strings.Split(numeric, sep)
	if len(parts) > 2 {
		return strings.Join(parts, "")
	}
	whole := strings.Trim(strings.TrimPrefix(parts[0], "-"), "0")
	if len(parts[1]) == 3 && whole != "" {
		return parts[0] + parts[1]
	}
	return parts[0] + "." + parts[1]
}
