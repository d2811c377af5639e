// Package catalog applies scraped product records to the catalog store.
//
// The Engine normalizes one record at a time, upserts the product with its
// attributes and appends a price observation only when the price moved.
// Records are processed sequentially; a failing record is reported and the
// run goes on.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mesh-intelligence/catalog/internal/normalize"
	"github.com/mesh-intelligence/catalog/pkg/types"
)

var tracer = otel.Tracer("github.com/mesh-intelligence/catalog/internal/catalog")

// ProductStore is the product side of the store.
type ProductStore interface {
	Upsert(ctx context.Context, in types.ProductInput) (id string, created bool, err error)
}

// PriceLedger is the price history side of the store.
type PriceLedger interface {
	RecordIfChanged(ctx context.Context, productID, price, productURL, sourceName, sourceURL string) (bool, error)
}

// Engine synchronizes records into a ProductStore and PriceLedger.
type Engine struct {
	products ProductStore
	ledger   PriceLedger
	vocab    normalize.Vocabulary
	source   types.SyncConfig
	logger   *slog.Logger
	stats    *Stats
}

// Option configures an Engine.
type Option func(*Engine)

// WithVocabulary replaces the built-in translation tables.
func WithVocabulary(v normalize.Vocabulary) Option {
	return func(e *Engine) { e.vocab = v }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Engine. Observations are attributed to the source named in
// cfg, or to the default source when cfg names none.
func New(products ProductStore, ledger PriceLedger, cfg types.SyncConfig, opts ...Option) *Engine {
	if strings.TrimSpace(cfg.SourceURL) == "" {
		cfg.SourceName = types.DefaultSourceName
		cfg.SourceURL = types.DefaultSourceURL
	}
	e := &Engine{
		products: products,
		ledger:   ledger,
		vocab:    normalize.DefaultVocabulary(),
		source:   cfg,
		logger:   slog.Default(),
		stats:    NewStats(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "catalog")
	return e
}

// Stats returns the counters accumulated over the engine's lifetime.
func (e *Engine) Stats() *Stats { return e.stats }

// Sync applies one record. A record without an article number is skipped
// and nothing is written. An error means the product or its price could
// not be stored; the Outcome still describes what was written before it.
func (e *Engine) Sync(ctx context.Context, rec types.Record) (types.Outcome, error) {
	e.stats.Seen.Add(1)

	if !rec.HasArticleNumber() {
		e.stats.Skipped.Add(1)
		e.logger.Debug("record skipped", "reason", "no article number", "title", rec.Title, "url", rec.ProductURL)
		return types.Outcome{Status: types.StatusSkipped}, nil
	}

	in := e.Normalize(rec)
	price := normalize.CanonicalPrice(normalize.ResolvePrice(rec.SalePrice, rec.RegularPrice))

	ctx, span := tracer.Start(ctx, "Engine.Sync",
		trace.WithAttributes(attribute.String("catalog.article_number", in.ArticleNumber)))
	defer span.End()

	id, created, err := e.products.Upsert(ctx, in)
	if err != nil {
		e.stats.Failed.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		return types.Outcome{}, fmt.Errorf("upserting product %s: %w", in.ArticleNumber, err)
	}

	out := types.Outcome{Status: types.StatusUpdated, ProductID: id, Price: price}
	if created {
		out.Status = types.StatusCreated
		e.stats.Created.Add(1)
	} else {
		e.stats.Updated.Add(1)
	}

	changed, err := e.ledger.RecordIfChanged(ctx, id, price, strings.TrimSpace(rec.ProductURL), e.source.SourceName, e.source.SourceURL)
	if err != nil {
		e.stats.Failed.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "price record failed")
		return out, fmt.Errorf("recording price of %s: %w", in.ArticleNumber, err)
	}
	out.PriceChanged = changed
	if changed {
		e.stats.PriceChanges.Add(1)
	}

	span.SetAttributes(
		attribute.String("catalog.status", string(out.Status)),
		attribute.Bool("catalog.price_changed", changed),
	)
	if created || changed {
		e.logger.Info("product synced", "article_number", in.ArticleNumber, "status", out.Status,
			"price", price, "price_changed", changed)
	} else {
		e.logger.Debug("product unchanged", "article_number", in.ArticleNumber)
	}
	return out, nil
}

// Normalize maps a raw record onto the product store input.
func (e *Engine) Normalize(rec types.Record) types.ProductInput {
	ageText := normalize.MinAge(rec.MinAge)
	in := types.ProductInput{
		ArticleNumber: strings.TrimSpace(rec.ArticleNumber),
		Title:         strings.TrimSpace(rec.Title),
		ImagePath:     strings.TrimSpace(rec.ImagePath),
		SizeText:      e.vocab.Size(strings.TrimSpace(rec.Size)),
		AgeText:       ageText,
		Origin:        strings.TrimSpace(rec.Origin),
		Materials:     e.vocab.SplitMaterials(rec.Material),
		Filling:       strings.TrimSpace(rec.Filling),
		Care:          strings.TrimSpace(rec.Care),
		Certification: strings.TrimSpace(rec.Certification),
	}
	if years, ok := normalize.MinAgeYears(ageText); ok {
		in.MinAge = &years
	}
	return in
}
