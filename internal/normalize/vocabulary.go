// Package normalize turns vendor text into the catalog's target vocabulary.
// All tables live in an immutable Vocabulary built once and injected into
// the sync engine; nothing here holds process-wide mutable state.
package normalize

import (
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// Size terms replaced only when both appear in the same descriptor.
const (
	termHeight    = "Height"
	termNetWeight = "Net weight"
)

// defaultSizeTerms maps English size labels to their German labels.
var defaultSizeTerms = map[string]string{
	termHeight:    "Höhe",
	termNetWeight: "Nettogewicht",
	"Width":       "Breite",
	"Depth":       "Tiefe",
}

// defaultMaterials maps English material names to German ones.
var defaultMaterials = map[string]string{
	"Acrylic":            "Acryl",
	"Aluminium":          "Aluminium",
	"Bamboo":             "Bambus",
	"Cardboard":          "Pappe",
	"Ceramic":            "Keramik",
	"Cotton":             "Baumwolle",
	"Elastane":           "Elasthan",
	"Felt":               "Filz",
	"Glass":              "Glas",
	"Iron":               "Eisen",
	"Leather":            "Leder",
	"Linen":              "Leinen",
	"Metal":              "Metall",
	"Nylon":              "Nylon",
	"Organic cotton":     "Bio-Baumwolle",
	"Paper":              "Papier",
	"Plastic":            "Kunststoff",
	"Polyester":          "Polyester",
	"Porcelain":          "Porzellan",
	"Recycled polyester": "Recyceltes Polyester",
	"Rubber":             "Gummi",
	"Silk":               "Seide",
	"Steel":              "Stahl",
	"Tin":                "Zinn",
	"Velvet":             "Samt",
	"Viscose":            "Viskose",
	"Wood":               "Holz",
	"Wool":               "Wolle",
}

// Vocabulary holds the translation tables used by the normalizers.
// The zero value translates nothing; use DefaultVocabulary or NewVocabulary.
type Vocabulary struct {
	sizeTerms   map[string]string
	sizeOrder   []string // independent size terms, sorted for deterministic output
	materials   map[string]string
	foldedIndex map[string]string // case-folded English name -> target name
}

// DefaultVocabulary returns the built-in English to German tables.
func DefaultVocabulary() Vocabulary {
	return NewVocabulary(types.VocabularyConfig{})
}

// NewVocabulary returns the built-in tables with the configured entries
// merged over them. The input maps are copied.
func NewVocabulary(cfg types.VocabularyConfig) Vocabulary {
	sizeTerms := maps.Clone(defaultSizeTerms)
	maps.Copy(sizeTerms, cfg.SizeTerms)

	materials := maps.Clone(defaultMaterials)
	maps.Copy(materials, cfg.Materials)

	fold := cases.Fold()
	folded := make(map[string]string, len(materials))
	for en, target := range materials {
		folded[fold.String(en)] = target
	}

	var order []string
	for term := range sizeTerms {
		if term != termHeight && term != termNetWeight {
			order = append(order, term)
		}
	}
	slices.Sort(order)

	return Vocabulary{
		sizeTerms:   sizeTerms,
		sizeOrder:   order,
		materials:   materials,
		foldedIndex: folded,
	}
}

// Material translates one material token. Exact matches win over
// case-insensitive ones; unknown tokens are returned unchanged.
func (v Vocabulary) Material(token string) string {
	if target, ok := v.materials[token]; ok {
		return target
	}
	if target, ok := v.foldedIndex[cases.Fold().String(token)]; ok {
		return target
	}
	return token
}

// Size replaces English size labels with target labels. Height and Net
// weight are replaced only when both are present; every other term is
// replaced on its own.
func (v Vocabulary) Size(text string) string {
	height, okHeight := v.sizeTerms[termHeight]
	weight, okWeight := v.sizeTerms[termNetWeight]
	if okHeight && okWeight && strings.Contains(text, termHeight) && strings.Contains(text, termNetWeight) {
		text = strings.ReplaceAll(text, termHeight, height)
		text = strings.ReplaceAll(text, termNetWeight, weight)
	}
	for _, term := range v.sizeOrder {
		if strings.Contains(text, term) {
			text = strings.ReplaceAll(text, term, v.sizeTerms[term])
		}
	}
	return text
}
