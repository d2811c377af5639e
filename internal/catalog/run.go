package catalog

import (
	"context"
	"time"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// Pager yields the records of one listing page. Pages are numbered from 1;
// an empty page ends the listing.
type Pager interface {
	Page(ctx context.Context, page int) ([]types.Record, error)
}

// Report summarizes one Run.
type Report struct {
	Pages        int           `json:"pages"`
	Seen         int           `json:"seen"`
	Created      int           `json:"created"`
	Updated      int           `json:"updated"`
	PriceChanges int           `json:"price_changes"`
	Skipped      int           `json:"skipped_no_article"`
	Failed       int           `json:"failed"`
	PageError    string        `json:"page_error,omitempty"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Run pages through pager from page 1 and syncs every record until a page
// comes back empty. A record that fails is logged and counted; the run
// continues with the next one. A page that cannot be read ends the listing
// and is noted in the report. Only context cancellation returns an error.
func (e *Engine) Run(ctx context.Context, pager Pager) (Report, error) {
	start := time.Now()
	var report Report

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			report.Elapsed = time.Since(start)
			return report, err
		}

		records, err := pager.Page(ctx, page)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				report.Elapsed = time.Since(start)
				return report, ctxErr
			}
			e.logger.Warn("page failed, ending listing", "page", page, "error", err)
			report.PageError = err.Error()
			break
		}
		if len(records) == 0 {
			e.logger.Debug("empty page, listing done", "page", page)
			break
		}
		report.Pages++
		e.logger.Debug("page read", "page", page, "records", len(records))

		for _, rec := range records {
			if err := ctx.Err(); err != nil {
				report.Elapsed = time.Since(start)
				return report, err
			}
			report.Seen++
			out, err := e.Sync(ctx, rec)
			if err != nil {
				report.Failed++
				e.logger.Warn("record failed", "page", page, "article_number", rec.ArticleNumber, "error", err)
				continue
			}
			switch out.Status {
			case types.StatusCreated:
				report.Created++
			case types.StatusUpdated:
				report.Updated++
			case types.StatusSkipped:
				report.Skipped++
			}
			if out.PriceChanged {
				report.PriceChanges++
			}
		}
	}

	report.Elapsed = time.Since(start)
	e.logger.Info("run finished", "pages", report.Pages, "seen", report.Seen, "created", report.Created,
		"updated", report.Updated, "price_changes", report.PriceChanges, "skipped", report.Skipped,
		"failed", report.Failed, "stats", e.stats.Snapshot())
	return report, nil
}
