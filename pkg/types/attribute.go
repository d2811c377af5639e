package types

import "time"

// Attribute categories. A (category, value) pair is globally unique.
const (
	CategoryMaterial      = "material"
	CategoryFilling       = "filling"
	CategoryCare          = "care-instruction"
	CategoryCertification = "certification"
	CategoryOrigin        = "manufacturing-origin"
)

// Attribute is a categorized descriptive value shared across products.
type Attribute struct {
	AttributeID string    // UUID v7; the first insertion wins it.
	Category    string    // One of the Category constants.
	Value       string    // Normalized value, never empty or NotFound.
	CreatedAt   time.Time // Timestamp of creation.
}

// Source is a named origin of price observations. The URL is the key; the
// name is informational and never rewritten.
type Source struct {
	SourceID  string
	Name      string
	URL       string
	CreatedAt time.Time
}
