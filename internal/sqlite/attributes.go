package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// AttributeDictionary maps (category, value) pairs to stable attribute IDs.
type AttributeDictionary struct {
	backend *Backend
}

// Resolve returns the ID for (category, value), creating the attribute on
// first sight. A missing value (empty, whitespace or NotFound) resolves to
// no attribute: ok is false and nothing is written.
func (d *AttributeDictionary) Resolve(ctx context.Context, category, value string) (id string, ok bool, err error) {
	if strings.TrimSpace(category) == "" {
		return "", false, types.ErrInvalidCategory
	}
	if types.IsMissing(value) {
		return "", false, nil
	}
	err = d.backend.write(ctx, "resolve attribute", func(tx *sql.Tx) error {
		var rerr error
		id, ok, rerr = d.backend.resolveAttribute(ctx, tx, category, value)
		return rerr
	})
	return id, ok, err
}

// Get retrieves an attribute by ID.
func (d *AttributeDictionary) Get(ctx context.Context, id string) (*types.Attribute, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	var attr *types.Attribute
	err := d.backend.read(func(q querier) error {
		row := q.QueryRowContext(ctx,
			"SELECT attribute_id, category, value, created_at FROM attributes WHERE attribute_id = ?", id)
		a, err := hydrateAttribute(row)
		if errors.Is(err, sql.ErrNoRows) {
			return types.ErrNotFound
		}
		if err != nil {
			return &types.StorageError{Op: "get attribute", Err: err}
		}
		attr = a
		return nil
	})
	return attr, err
}

// List returns every attribute of category ordered by value.
func (d *AttributeDictionary) List(ctx context.Context, category string) ([]types.Attribute, error) {
	var attrs []types.Attribute
	err := d.backend.read(func(q querier) error {
		rows, err := q.QueryContext(ctx,
			"SELECT attribute_id, category, value, created_at FROM attributes WHERE category = ? ORDER BY value", category)
		if err != nil {
			return &types.StorageError{Op: "list attributes", Err: err}
		}
		attrs, err = scanAttributes(rows)
		if err != nil {
			return &types.StorageError{Op: "list attributes", Err: err}
		}
		return nil
	})
	return attrs, err
}

// resolveAttribute is find-or-create inside an open transaction. A lost
// insert race is absorbed by ON CONFLICT and the lookup is repeated.
func (b *Backend) resolveAttribute(ctx context.Context, q querier, category, value string) (string, bool, error) {
	value = strings.TrimSpace(value)
	if types.IsMissing(value) {
		return "", false, nil
	}

	id, err := lookupAttribute(ctx, q, category, value)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", false, &types.StorageError{Op: "lookup attribute", Err: err}
	}

	res, err := q.ExecContext(ctx,
		`INSERT INTO attributes (attribute_id, category, value, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (category, value) DO NOTHING`,
		generateUUID(), category, value, b.timestamp())
	if err != nil {
		return "", false, &types.StorageError{Op: "insert attribute", Err: err}
	}
	if n, _ := res.RowsAffected(); n > 0 {
		b.logger.Debug("attribute created", "category", category, "value", value)
	}

	id, err = lookupAttribute(ctx, q, category, value)
	if err != nil {
		return "", false, &types.StorageError{Op: "lookup attribute", Err: fmt.Errorf("after insert: %w", err)}
	}
	return id, true, nil
}

func lookupAttribute(ctx context.Context, q querier, category, value string) (string, error) {
	var id string
	err := q.QueryRowContext(ctx,
		"SELECT attribute_id FROM attributes WHERE category = ? AND value = ?", category, value).Scan(&id)
	return id, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func hydrateAttribute(row rowScanner) (*types.Attribute, error) {
	var a types.Attribute
	var createdAt string
	if err := row.Scan(&a.AttributeID, &a.Category, &a.Value, &createdAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	a.CreatedAt = t
	return &a, nil
}

func scanAttributes(rows *sql.Rows) ([]types.Attribute, error) {
	defer rows.Close()
	var attrs []types.Attribute
	for rows.Next() {
		a, err := hydrateAttribute(rows)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, *a)
	}
	return attrs, rows.Err()
}
