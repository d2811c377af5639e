package types

import "time"

// PriceObservation is one entry of the append-only price ledger.
type PriceObservation struct {
	// ObservationID is a UUID v7, generated on write.
	ObservationID string

	// ProductID is the product the price belongs to.
	ProductID string

	// Price is the canonical price text, or NotFound.
	Price string

	// ObservedAt is the UTC wall-clock time of the write.
	ObservedAt time.Time

	// SourceID references the Source the observation came from.
	SourceID string

	// ProductURL is the detail page the price was read from.
	ProductURL string
}

// SyncStatus describes what a sync did with the product row.
type SyncStatus string

// Sync statuses.
const (
	StatusCreated SyncStatus = "created"
	StatusUpdated SyncStatus = "updated"
	StatusSkipped SyncStatus = "skipped"
)

// Outcome is the result of syncing one record.
type Outcome struct {
	Status       SyncStatus `json:"status"`
	ProductID    string     `json:"product_id,omitempty"`
	Price        string     `json:"price,omitempty"`
	PriceChanged bool       `json:"price_changed"`
}
