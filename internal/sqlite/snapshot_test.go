package sqlite

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

func TestExportRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := setupBackend(t)

	id, _, err := src.Products().Upsert(ctx, types.ProductInput{
		ArticleNumber: "12345",
		Title:         "Maus",
		AgeText:       "3",
		MinAge:        intPtr(3),
		Origin:        "China",
		Materials:     []string{"Baumwolle"},
	})
	require.NoError(t, err)
	for _, price := range []string{"19.99", "24.99"} {
		_, err := src.Ledger().RecordIfChanged(ctx, id, price, testProductURL, testSourceName, testSourceURL)
		require.NoError(t, err)
	}

	dir := t.TempDir()
	require.NoError(t, src.Export(ctx, dir))
	for _, f := range SnapshotFiles() {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, f)
	}

	dst := setupBackend(t)
	n, err := dst.Restore(ctx, dir)
	require.NoError(t, err)
	// 2 attributes, 1 source, 1 product, 1 link, 2 observations.
	assert.Equal(t, 7, n)

	p, err := dst.Products().Get(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, id, p.ProductID)
	require.NotNil(t, p.MinAge)
	assert.Equal(t, 3, *p.MinAge)

	history, err := dst.Ledger().History(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "24.99", history[1].Price)

	n, err = dst.Restore(ctx, dir)
	require.NoError(t, err)
	assert.Zero(t, n, "restoring twice inserts nothing")
}

func TestRestoreSkipsMalformedLinesAndMissingFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	content := `{"attribute_id":"a1","category":"material","value":"Holz","created_at":"2026-01-01T00:00:00.000000000Z"}
not json
{"attribute_id":"a2","category":"material","value":"Metall","created_at":"2026-01-01T00:00:00.000000000Z","extra":true}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "attributes.jsonl"), []byte(content), 0o644))

	b := setupBackend(t)
	n, err := b.Restore(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	attrs, err := b.Attributes().List(ctx, types.CategoryMaterial)
	require.NoError(t, err)
	assert.Len(t, attrs, 2)
}

func TestWriteJSONLReplacesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	require.NoError(t, writeJSONL(path, nil))
	require.NoError(t, writeJSONL(path, []json.RawMessage{json.RawMessage(`{"a":1}`)}))

	records, err := readJSONL(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.JSONEq(t, `{"a":1}`, string(records[0]))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestRestoreStopsWhenCancelled(t *testing.T) {
	b := setupBackend(t)
	attrs := snapshotTables[0]
	records := []json.RawMessage{
		json.RawMessage(`{"attribute_id":"a1","category":"material","value":"Holz","created_at":"2026-01-01T00:00:00.000000000Z"}`),
		json.RawMessage(`{"attribute_id":"a2","category":"material","value":"Metall","created_at":"2026-01-01T00:00:00.000000000Z"}`),
	}

	tx, err := b.db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	stmt, err := prepareInsert(context.Background(), tx, attrs.table, attrs.columns)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := insertRecords(ctx, stmt, attrs.columns, records)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	require.NoError(t, stmt.Close())
	require.NoError(t, tx.Rollback())

	dir := t.TempDir()
	require.NoError(t, writeJSONL(filepath.Join(dir, attrs.file), records))
	n, err = b.Restore(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)

	list, err := b.Attributes().List(context.Background(), types.CategoryMaterial)
	require.NoError(t, err)
	assert.Empty(t, list)
}
