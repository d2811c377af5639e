package types

import "time"

// Product is the durable identity of one vendor article.
type Product struct {
	ProductID     string    // UUID v7, generated on first sight of the article number.
	ArticleNumber string    // Natural key; unique across the table.
	Title         string    // Listing title.
	ImagePath     string    // Local path of the downloaded image.
	SizeText      string    // Normalized size descriptor.
	AgeText       string    // Normalized minimum-age text ("0" for all ages).
	MinAge        *int      // Leading integer of AgeText; nil when it has none.
	OriginID      *string   // Attribute ID of the manufacturing origin, if known.
	CreatedAt     time.Time // Timestamp of creation.
	UpdatedAt     time.Time // Timestamp of the last upsert.
}

// ProductInput carries the normalized fields of one sync into the product
// store. Empty or NotFound attribute values produce no association.
type ProductInput struct {
	ArticleNumber string
	Title         string
	ImagePath     string
	SizeText      string
	AgeText       string
	MinAge        *int
	Origin        string
	Materials     []string
	Filling       string
	Care          string
	Certification string
}
