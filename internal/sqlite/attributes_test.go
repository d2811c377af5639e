package sqlite

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/catalog/pkg/types"
)

func TestAttributeResolve(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		check func(t *testing.T, d *AttributeDictionary)
	}{
		{
			name: "first sight creates, second returns the same id",
			check: func(t *testing.T, d *AttributeDictionary) {
				first, ok, err := d.Resolve(ctx, types.CategoryMaterial, "Baumwolle")
				require.NoError(t, err)
				require.True(t, ok)
				assert.NotEmpty(t, first)

				second, ok, err := d.Resolve(ctx, types.CategoryMaterial, "Baumwolle")
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, first, second)
			},
		},
		{
			name: "same value in another category is a different attribute",
			check: func(t *testing.T, d *AttributeDictionary) {
				a, _, err := d.Resolve(ctx, types.CategoryMaterial, "Polyester")
				require.NoError(t, err)
				b, _, err := d.Resolve(ctx, types.CategoryFilling, "Polyester")
				require.NoError(t, err)
				assert.NotEqual(t, a, b)
			},
		},
		{
			name: "missing values resolve to nothing",
			check: func(t *testing.T, d *AttributeDictionary) {
				for _, v := range []string{"", "   ", types.NotFound} {
					id, ok, err := d.Resolve(ctx, types.CategoryCare, v)
					require.NoError(t, err)
					assert.False(t, ok, "value %q", v)
					assert.Empty(t, id)
				}
				attrs, err := d.List(ctx, types.CategoryCare)
				require.NoError(t, err)
				assert.Empty(t, attrs, "nothing should be written")
			},
		},
		{
			name: "values are trimmed before lookup",
			check: func(t *testing.T, d *AttributeDictionary) {
				a, _, err := d.Resolve(ctx, types.CategoryOrigin, "Dänemark")
				require.NoError(t, err)
				b, _, err := d.Resolve(ctx, types.CategoryOrigin, "  Dänemark ")
				require.NoError(t, err)
				assert.Equal(t, a, b)
			},
		},
		{
			name: "empty category is rejected",
			check: func(t *testing.T, d *AttributeDictionary) {
				_, _, err := d.Resolve(ctx, "", "Holz")
				assert.ErrorIs(t, err, types.ErrInvalidCategory)
			},
		},
		{
			name: "get returns the stored attribute",
			check: func(t *testing.T, d *AttributeDictionary) {
				id, _, err := d.Resolve(ctx, types.CategoryCertification, "OEKO-TEX")
				require.NoError(t, err)

				attr, err := d.Get(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, types.CategoryCertification, attr.Category)
				assert.Equal(t, "OEKO-TEX", attr.Value)
				assert.False(t, attr.CreatedAt.IsZero())

				_, err = d.Get(ctx, "missing")
				assert.ErrorIs(t, err, types.ErrNotFound)
				_, err = d.Get(ctx, "")
				assert.ErrorIs(t, err, types.ErrInvalidID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, setupBackend(t).Attributes())
		})
	}
}

func TestAttributeResolveConcurrent(t *testing.T) {
	ctx := context.Background()
	d := setupBackend(t).Attributes()

	const workers = 8
	ids := make([]string, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _, err := d.Resolve(ctx, types.CategoryMaterial, "Holz")
			assert.NoError(t, err)
			ids[i] = id
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	attrs, err := d.List(ctx, types.CategoryMaterial)
	require.NoError(t, err)
	assert.Len(t, attrs, 1)
}

func TestSourceResolve(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)
	r := b.Sources()

	first, err := r.Resolve(ctx, "maileg", "https://maileg.com/de/collections/mause")
	require.NoError(t, err)

	second, err := r.Resolve(ctx, "renamed", "https://maileg.com/de/collections/mause")
	require.NoError(t, err)
	assert.Equal(t, first, second, "the url is the key")

	src, err := r.Get(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "maileg", src.Name, "the first name is kept")

	other, err := r.Resolve(ctx, "maileg", "https://maileg.com/en/collections/mice")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)

	_, err = r.Resolve(ctx, "maileg", " ")
	assert.ErrorIs(t, err, types.ErrInvalidSourceURL)
}
