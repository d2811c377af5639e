package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

// snapshotTables maps snapshot files to tables and columns. Tables with
// foreign keys come after the tables they reference.
var snapshotTables = []struct {
	file    string
	table   string
	columns []string
}{
	{"attributes.jsonl", "attributes", []string{"attribute_id", "category", "value", "created_at"}},
	{"sources.jsonl", "sources", []string{"source_id", "name", "url", "created_at"}},
	{"products.jsonl", "products", []string{"product_id", "article_number", "title", "image_path",
		"size_text", "age_text", "min_age", "origin_id", "created_at", "updated_at"}},
	{"product_attributes.jsonl", "product_attributes", []string{"product_id", "attribute_id"}},
	{"price_observations.jsonl", "price_observations", []string{"observation_id", "product_id", "price",
		"observed_at", "source_id", "product_url"}},
}

// SnapshotFiles lists the files Export writes, in restore order.
func SnapshotFiles() []string {
	files := make([]string, len(snapshotTables))
	for i, t := range snapshotTables {
		files[i] = t.file
	}
	return files
}

// Export writes every table to dir as one JSONL file per table. Each file is
// replaced atomically. Rows keep their insertion order.
func (b *Backend) Export(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	return b.read(func(q querier) error {
		for _, t := range snapshotTables {
			records, err := exportTable(ctx, q, t.table, t.columns)
			if err != nil {
				return &types.StorageError{Op: "export " + t.table, Err: err}
			}
			if err := writeJSONL(filepath.Join(dir, t.file), records); err != nil {
				return fmt.Errorf("writing %s: %w", t.file, err)
			}
			b.logger.Debug("table exported", "table", t.table, "rows", len(records))
		}
		return nil
	})
}

// Restore loads a snapshot written by Export. Rows whose keys already exist
// are kept as stored and rows that violate a constraint are skipped, so
// restoring into an empty database reproduces the exported one. Missing
// files are treated as empty tables. It returns the number of rows inserted.
func (b *Backend) Restore(ctx context.Context, dir string) (int, error) {
	inserted := 0
	err := b.write(ctx, "restore", func(tx *sql.Tx) error {
		for _, t := range snapshotTables {
			records, err := readJSONL(filepath.Join(dir, t.file))
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				return err
			}
			stmt, err := prepareInsert(ctx, tx, t.table, t.columns)
			if err != nil {
				return &types.StorageError{Op: "restore " + t.table, Err: err}
			}
			n, err := insertRecords(ctx, stmt, t.columns, records)
			stmt.Close()
			if err != nil {
				return &types.StorageError{Op: "restore " + t.table, Err: err}
			}
			b.logger.Debug("table restored", "table", t.table, "rows", n, "read", len(records))
			inserted += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func exportTable(ctx context.Context, q querier, table string, columns []string) ([]json.RawMessage, error) {
	rows, err := q.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(columns, ", "), table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		obj := make(map[string]any, len(columns))
		for i, col := range columns {
			if raw, ok := values[i].([]byte); ok {
				obj[col] = string(raw)
				continue
			}
			obj[col] = values[i]
		}
		rec, err := json.Marshal(obj)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// prepareInsert prepares an insert into table that leaves existing rows
// untouched.
func prepareInsert(ctx context.Context, tx *sql.Tx, table string, columns []string) (*sql.Stmt, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT DO NOTHING",
		table, strings.Join(columns, ", "), placeholders))
	if err != nil {
		return nil, fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	return stmt, nil
}

// insertRecords executes stmt once per JSONL record. Unknown fields are
// ignored and absent columns become NULL. Records that do not decode or that
// violate a constraint are skipped; a cancelled context stops the load.
func insertRecords(ctx context.Context, stmt *sql.Stmt, columns []string, records []json.RawMessage) (int, error) {
	inserted := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			continue
		}
		args := make([]any, len(columns))
		for i, col := range columns {
			args[i] = obj[col]
		}
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return inserted, ctxErr
			}
			continue
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}
