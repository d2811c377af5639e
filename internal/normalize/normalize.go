package normalize

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// allAges is the vendor label for products without a minimum age.
const allAges = "all ages"

// MinAge maps the "all ages" label (any case) to "0" and passes every
// other value through verbatim.
func MinAge(raw string) string {
	if cases.Fold().String(strings.TrimSpace(raw)) == allAges {
		return "0"
	}
	return raw
}

// MinAgeYears returns the leading integer of a normalized age text, so
// "3+" yields 3. It reports false when the text does not start with a digit.
func MinAgeYears(ageText string) (int, bool) {
	s := strings.TrimSpace(ageText)
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == -1 {
		end = len(s)
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// SplitMaterials splits a raw material string on "/" and "," and translates
// each trimmed token. Repeated translations are kept once, in first-seen
// order. Empty or NotFound input yields an empty list.
func (v Vocabulary) SplitMaterials(raw string) []string {
	out := []string{}
	if types.IsMissing(raw) {
		return out
	}
	seen := make(map[string]bool)
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == '/' || r == ',' })
	for _, f := range fields {
		token := strings.TrimSpace(f)
		if token == "" {
			continue
		}
		m := v.Material(token)
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
