package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

const (
	testSourceName = "maileg"
	testSourceURL  = "https://maileg.com/de/collections/mause"
	testProductURL = "https://maileg.com/de/products/12345"
)

func seedProduct(t *testing.T, b *Backend, article string) string {
	t.Helper()
	id, _, err := b.Products().Upsert(context.Background(), types.ProductInput{ArticleNumber: article})
	require.NoError(t, err)
	return id
}

func TestRecordIfChanged(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		prices []string
		writes []bool
		want   []string
	}{
		{"first observation is written", []string{"19.99"}, []bool{true}, []string{"19.99"}},
		{"same price is not written", []string{"19.99", "19.99", "19.99"}, []bool{true, false, false}, []string{"19.99"}},
		{"change is written", []string{"19.99", "24.99"}, []bool{true, true}, []string{"19.99", "24.99"}},
		{"return to an older price is written", []string{"19.99", "24.99", "19.99"}, []bool{true, true, true}, []string{"19.99", "24.99", "19.99"}},
		{"equivalent spellings are one price", []string{"19.9", "19.90", " 19.90 €"}, []bool{true, false, false}, []string{"19.90"}},
		{"not found is a price like any other", []string{types.NotFound, types.NotFound, "9.99"}, []bool{true, false, true}, []string{types.NotFound, "9.99"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := setupBackend(t)
			productID := seedProduct(t, b, "12345")

			for i, price := range tt.prices {
				written, err := b.Ledger().RecordIfChanged(ctx, productID, price, testProductURL, testSourceName, testSourceURL)
				require.NoError(t, err)
				assert.Equal(t, tt.writes[i], written, "call %d with %q", i, price)
			}

			history, err := b.Ledger().History(ctx, productID)
			require.NoError(t, err)
			got := make([]string, len(history))
			for i, o := range history {
				got[i] = o.Price
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordIfChangedStoresSourceAndTime(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 5, 4, 12, 30, 0, 0, time.FixedZone("CEST", 2*3600))
	b := setupBackend(t, WithClock(func() time.Time { return at }))
	productID := seedProduct(t, b, "12345")

	_, err := b.Ledger().RecordIfChanged(ctx, productID, "19.99", testProductURL, testSourceName, testSourceURL)
	require.NoError(t, err)

	latest, err := b.Ledger().Latest(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, "19.99", latest.Price)
	assert.Equal(t, testProductURL, latest.ProductURL)
	assert.Equal(t, time.UTC, latest.ObservedAt.Location())
	assert.True(t, latest.ObservedAt.Equal(at))

	sourceID, err := b.Sources().Resolve(ctx, "other name", testSourceURL)
	require.NoError(t, err)
	assert.Equal(t, sourceID, latest.SourceID)
}

func TestRecordIfChangedWithStalledClock(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	b := setupBackend(t, WithClock(func() time.Time { return at }))
	productID := seedProduct(t, b, "12345")

	for _, price := range []string{"1.00", "2.00", "3.00"} {
		written, err := b.Ledger().RecordIfChanged(ctx, productID, price, testProductURL, testSourceName, testSourceURL)
		require.NoError(t, err)
		require.True(t, written)
	}

	latest, err := b.Ledger().Latest(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, "3.00", latest.Price)

	history, err := b.Ledger().History(ctx, productID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i].ObservedAt.After(history[i-1].ObservedAt), "observation %d", i)
	}

	written, err := b.Ledger().RecordIfChanged(ctx, productID, "3.00", testProductURL, testSourceName, testSourceURL)
	require.NoError(t, err)
	assert.False(t, written)
}

func TestRecordIfChangedWithBackwardClock(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	var ticks []time.Time
	b := setupBackend(t, WithClock(func() time.Time {
		if len(ticks) == 0 {
			return base
		}
		next := ticks[0]
		ticks = ticks[1:]
		return next
	}))
	productID := seedProduct(t, b, "12345")
	// The first observation also registers the source, which reads the clock.
	ticks = []time.Time{base.Add(10 * time.Second), base.Add(10 * time.Second), base.Add(12 * time.Second), base.Add(11 * time.Second)}

	for _, price := range []string{"19.99", "24.99", "19.99"} {
		written, err := b.Ledger().RecordIfChanged(ctx, productID, price, testProductURL, testSourceName, testSourceURL)
		require.NoError(t, err)
		require.True(t, written)
	}

	history, err := b.Ledger().History(ctx, productID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []string{"19.99", "24.99", "19.99"}, []string{history[0].Price, history[1].Price, history[2].Price})
	assert.True(t, history[2].ObservedAt.Equal(base.Add(12*time.Second+time.Nanosecond)))

	latest, err := b.Ledger().Latest(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, "19.99", latest.Price)
}

func TestLedgerIsPerProduct(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)
	a := seedProduct(t, b, "1")
	c := seedProduct(t, b, "2")

	_, err := b.Ledger().RecordIfChanged(ctx, a, "5.00", "", testSourceName, testSourceURL)
	require.NoError(t, err)
	written, err := b.Ledger().RecordIfChanged(ctx, c, "5.00", "", testSourceName, testSourceURL)
	require.NoError(t, err)
	assert.True(t, written)
}

func TestLedgerErrors(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	_, err := b.Ledger().RecordIfChanged(ctx, "", "1.00", "", testSourceName, testSourceURL)
	assert.ErrorIs(t, err, types.ErrInvalidID)

	_, err = b.Ledger().RecordIfChanged(ctx, "p", "1.00", "", testSourceName, "")
	assert.ErrorIs(t, err, types.ErrInvalidSourceURL)

	_, err = b.Ledger().RecordIfChanged(ctx, "no-such-product", "1.00", "", testSourceName, testSourceURL)
	var storageErr *types.StorageError
	assert.ErrorAs(t, err, &storageErr, "foreign key violation surfaces as a storage error")

	productID := seedProduct(t, b, "12345")
	_, err = b.Ledger().Latest(ctx, productID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	history, err := b.Ledger().History(ctx, productID)
	require.NoError(t, err)
	assert.Empty(t, history)
}
