package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

func TestResolvePrice(t *testing.T) {
	tests := []struct {
		name    string
		sale    string
		regular string
		want    string
	}{
		{"sale wins over regular", "14.99", "19.99", "14.99"},
		{"regular used without sale", "", "19.99", "19.99"},
		{"regular used when sale is sentinel", types.NotFound, "19.99", "19.99"},
		{"neither yields sentinel", "", "", types.NotFound},
		{"both sentinel yields sentinel", types.NotFound, types.NotFound, types.NotFound},
		{"whitespace sale falls back", "  ", "9.50", "9.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePrice(tt.sale, tt.regular))
		})
	}
}

func TestCanonicalPrice(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"19.99", "19.99"},
		{"19.90", "19.90"},
		{"19.9", "19.90"},
		{"19.900", "19900.00"},
		{"20", "20.00"},
		{"19,99", "19.99"},
		{"19,99 €", "19.99"},
		{"€1.234,56", "1234.56"},
		{"$1,234.56", "1234.56"},
		{"0.125", "0.125"},
		{"1.299 kr", "1299.00"},
		{"1,299", "1299.00"},
		{"1.234.567", "1234567.00"},
		{"1.234.567,89 €", "1234567.89"},
		{"19,9", "19.90"},
		{"-0,500", "-0.50"},
		{types.NotFound, types.NotFound},
		{"", types.NotFound},
		{"Preis auf Anfrage", "Preis auf Anfrage"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalPrice(tt.input))
		})
	}
}

func TestCanonicalPriceEquivalence(t *testing.T) {
	same := func(a, b string) bool { return CanonicalPrice(a) == CanonicalPrice(b) }
	assert.True(t, same("19.99", "19.99"))
	assert.True(t, same("19.9", "19.90"))
	assert.True(t, same("19,90 €", "19.9"))
	assert.True(t, same(types.NotFound, types.NotFound))
	assert.False(t, same("19.99", "24.99"))
	assert.False(t, same("19.99", "19.991"))
	assert.False(t, same(types.NotFound, "19.99"))
}
