package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mesh-intelligence/catalog/internal/normalize"
	"github.com/mesh-intelligence/catalog/pkg/types"
)

const observationColumns = "observation_id, product_id, price, observed_at, source_id, product_url"

// PriceLedger is the append-only price history. Rows are never updated or
// deleted.
type PriceLedger struct {
	backend *Backend
}

// RecordIfChanged appends an observation for productID when price differs
// from the latest recorded price, or when none exists. Prices are compared
// and stored in canonical form, so "19.9" and "19,90 €" are the same price.
// The observation is always stamped after the latest one, even if the clock
// went backwards. The source is resolved through the registry. It reports
// whether a row was written.
func (l *PriceLedger) RecordIfChanged(ctx context.Context, productID, price, productURL, sourceName, sourceURL string) (bool, error) {
	if productID == "" {
		return false, types.ErrInvalidID
	}
	if strings.TrimSpace(sourceURL) == "" {
		return false, types.ErrInvalidSourceURL
	}

	price = normalize.CanonicalPrice(price)

	ctx, span := tracer.Start(ctx, "PriceLedger.RecordIfChanged",
		trace.WithAttributes(attribute.String("catalog.product_id", productID)))
	defer span.End()

	var written bool
	err := l.backend.write(ctx, "record price", func(tx *sql.Tx) error {
		latest, latestAt, err := latestPrice(ctx, tx, productID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return &types.StorageError{Op: "latest price", Err: err}
		case normalize.CanonicalPrice(latest) == price:
			return nil
		}

		observedAt := l.backend.now()
		if !latestAt.IsZero() && !observedAt.After(latestAt) {
			observedAt = latestAt.Add(time.Nanosecond)
		}

		sourceID, err := l.backend.resolveSource(ctx, tx, sourceName, sourceURL)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO price_observations ("+observationColumns+") VALUES (?, ?, ?, ?, ?, ?)",
			generateUUID(), productID, price, formatTime(observedAt), sourceID, productURL); err != nil {
			return &types.StorageError{Op: "insert observation", Err: err}
		}
		written = true
		l.backend.logger.Debug("price recorded", "product_id", productID, "price", price, "previous", latest)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record price failed")
		return false, err
	}
	span.SetAttributes(attribute.Bool("catalog.price_changed", written))
	return written, nil
}

// Latest returns the most recent observation for productID. Observations
// with equal timestamps are ordered by insertion.
func (l *PriceLedger) Latest(ctx context.Context, productID string) (*types.PriceObservation, error) {
	if productID == "" {
		return nil, types.ErrInvalidID
	}
	var obs *types.PriceObservation
	err := l.backend.read(func(q querier) error {
		row := q.QueryRowContext(ctx,
			"SELECT "+observationColumns+` FROM price_observations WHERE product_id = ?
			 ORDER BY observed_at DESC, rowid DESC LIMIT 1`, productID)
		var herr error
		obs, herr = hydrateObservation(row)
		if errors.Is(herr, sql.ErrNoRows) {
			return types.ErrNotFound
		}
		if herr != nil {
			return &types.StorageError{Op: "latest observation", Err: herr}
		}
		return nil
	})
	return obs, err
}

// History returns every observation for productID, oldest first.
func (l *PriceLedger) History(ctx context.Context, productID string) ([]types.PriceObservation, error) {
	if productID == "" {
		return nil, types.ErrInvalidID
	}
	var history []types.PriceObservation
	err := l.backend.read(func(q querier) error {
		rows, err := q.QueryContext(ctx,
			"SELECT "+observationColumns+` FROM price_observations WHERE product_id = ?
			 ORDER BY observed_at, rowid`, productID)
		if err != nil {
			return &types.StorageError{Op: "price history", Err: err}
		}
		defer rows.Close()
		for rows.Next() {
			o, err := hydrateObservation(rows)
			if err != nil {
				return &types.StorageError{Op: "price history", Err: err}
			}
			history = append(history, *o)
		}
		if err := rows.Err(); err != nil {
			return &types.StorageError{Op: "price history", Err: err}
		}
		return nil
	})
	return history, err
}

func latestPrice(ctx context.Context, q querier, productID string) (string, time.Time, error) {
	var price, observedAt string
	err := q.QueryRowContext(ctx,
		`SELECT price, observed_at FROM price_observations WHERE product_id = ?
		 ORDER BY observed_at DESC, rowid DESC LIMIT 1`, productID).Scan(&price, &observedAt)
	if err != nil {
		return "", time.Time{}, err
	}
	t, err := parseTime(observedAt)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("parsing observed_at: %w", err)
	}
	return price, t, nil
}

func hydrateObservation(row rowScanner) (*types.PriceObservation, error) {
	var o types.PriceObservation
	var observedAt string
	if err := row.Scan(&o.ObservationID, &o.ProductID, &o.Price, &observedAt, &o.SourceID, &o.ProductURL); err != nil {
		return nil, err
	}
	t, err := parseTime(observedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing observed_at: %w", err)
	}
	o.ObservedAt = t
	return &o, nil
}
