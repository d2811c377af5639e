package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// SourceRegistry maps source URLs to stable source IDs.
type SourceRegistry struct {
	backend *Backend
}

// Resolve returns the ID of the source at url, registering it under name on
// first sight. The URL is the identity: a later call with another name gets
// the same ID and the stored name is left alone.
func (r *SourceRegistry) Resolve(ctx context.Context, name, url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", types.ErrInvalidSourceURL
	}
	var id string
	err := r.backend.write(ctx, "resolve source", func(tx *sql.Tx) error {
		var rerr error
		id, rerr = r.backend.resolveSource(ctx, tx, name, url)
		return rerr
	})
	return id, err
}

// Get retrieves a source by ID.
func (r *SourceRegistry) Get(ctx context.Context, id string) (*types.Source, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	var src *types.Source
	err := r.backend.read(func(q querier) error {
		var s types.Source
		var createdAt string
		err := q.QueryRowContext(ctx,
			"SELECT source_id, name, url, created_at FROM sources WHERE source_id = ?", id,
		).Scan(&s.SourceID, &s.Name, &s.URL, &createdAt)
		if errors.Is(err, sql.ErrNoRows) {
			return types.ErrNotFound
		}
		if err != nil {
			return &types.StorageError{Op: "get source", Err: err}
		}
		if s.CreatedAt, err = parseTime(createdAt); err != nil {
			return &types.StorageError{Op: "get source", Err: err}
		}
		src = &s
		return nil
	})
	return src, err
}

func (b *Backend) resolveSource(ctx context.Context, q querier, name, url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", types.ErrInvalidSourceURL
	}

	id, err := lookupSource(ctx, q, url)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", &types.StorageError{Op: "lookup source", Err: err}
	}

	res, err := q.ExecContext(ctx,
		`INSERT INTO sources (source_id, name, url, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (url) DO NOTHING`,
		generateUUID(), strings.TrimSpace(name), url, b.timestamp())
	if err != nil {
		return "", &types.StorageError{Op: "insert source", Err: err}
	}
	if n, _ := res.RowsAffected(); n > 0 {
		b.logger.Info("source registered", "name", name, "url", url)
	}

	id, err = lookupSource(ctx, q, url)
	if err != nil {
		return "", &types.StorageError{Op: "lookup source", Err: fmt.Errorf("after insert: %w", err)}
	}
	return id, nil
}

func lookupSource(ctx context.Context, q querier, url string) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, "SELECT source_id FROM sources WHERE url = ?", url).Scan(&id)
	return id, err
}
