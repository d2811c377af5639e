package types

import "strings"

// NotFound is the literal the scraping collaborator stores for any field it
// could not extract. It is a comparable, storable value, never an error.
const NotFound = "Nicht gefunden"

// Record is one raw product as delivered by the scraping collaborator.
// Every field is populated; absent data carries NotFound rather than being
// omitted.
type Record struct {
	Title         string `json:"title"`
	ImagePath     string `json:"image_path"`
	ProductURL    string `json:"product_url"`
	ArticleNumber string `json:"article_number"`
	Size          string `json:"size"`
	MinAge        string `json:"min_age"`
	Material      string `json:"material"`
	Filling       string `json:"filling"`
	Care          string `json:"care"`
	Certification string `json:"certification"`
	Origin        string `json:"origin"`
	SalePrice     string `json:"sale_price"`
	RegularPrice  string `json:"regular_price"`
}

// NewListingRecord builds the record used when a detail page could not be
// fetched: listing fields are kept and every detail field is NotFound.
func NewListingRecord(title, imagePath, productURL string) Record {
	return Record{
		Title:         title,
		ImagePath:     imagePath,
		ProductURL:    productURL,
		ArticleNumber: NotFound,
		Size:          NotFound,
		MinAge:        NotFound,
		Material:      NotFound,
		Filling:       NotFound,
		Care:          NotFound,
		Certification: NotFound,
		Origin:        NotFound,
		SalePrice:     NotFound,
		RegularPrice:  NotFound,
	}
}

// IsMissing reports whether a raw value is empty or the NotFound sentinel.
func IsMissing(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || v == NotFound
}

// HasArticleNumber reports whether the record carries a usable natural key.
func (r Record) HasArticleNumber() bool {
	return !IsMissing(r.ArticleNumber)
}
