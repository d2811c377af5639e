package catalog

import (
	"sync/atomic"
	"time"
)

// Stats tracks sync counters. All fields are safe for concurrent reads.
type Stats struct {
	Seen         atomic.Int64
	Created      atomic.Int64
	Updated      atomic.Int64
	PriceChanges atomic.Int64
	Skipped      atomic.Int64
	Failed       atomic.Int64
	StartTime    time.Time
}

// NewStats returns zeroed counters started now.
func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

// Snapshot returns a copy of the counters for logging.
func (s *Stats) Snapshot() map[string]any {
	return map[string]any{
		"seen":          s.Seen.Load(),
		"created":       s.Created.Load(),
		"updated":       s.Updated.Load(),
		"price_changes": s.PriceChanges.Load(),
		"skipped":       s.Skipped.Load(),
		"failed":        s.Failed.Load(),
		"elapsed":       time.Since(s.StartTime).String(),
	}
}
