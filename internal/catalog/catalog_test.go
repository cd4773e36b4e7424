package catalog_test

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pp-store-sync/merchant-api/internal/catalog"
)

func TestStore_Load(t *testing.T) {
	store := catalog.NewStore(filepath.Join("testdata", "feed.csv"))
	require.NoError(t, store.Load())

	// Header and the id-less row are skipped; V4's short row still has an id.
	assert.Equal(t, 5, store.Len())

	product, ok := store.Lookup("V1")
	require.True(t, ok)

	expected := catalog.Product{
		ID:           "V1",
		ItemGroupID:  "G1",
		Title:        "Classic Tee",
		Description:  "Soft cotton tee, black",
		Link:         "https://store.test/v1",
		ImageLink:    "https://store.test/v1.jpg",
		Price:        "10.00",
		Availability: catalog.AvailabilityInStock,
	}
	if diff := cmp.Diff(expected, product); diff != "" {
		t.Errorf("Lookup(V1) mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_Load_PriceParsing(t *testing.T) {
	store := catalog.NewStore(filepath.Join("testdata", "feed.csv"))
	require.NoError(t, store.Load())

	tests := []struct {
		name      string
		variantID string
		wantPrice string
	}{
		{name: "currency_suffix_discarded", variantID: "V2", wantPrice: "24.99"},
		{name: "bare_price_kept", variantID: "V3", wantPrice: "19.50"},
		{name: "empty_price_defaults", variantID: "V5", wantPrice: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, ok := store.Lookup(tt.variantID)
			require.True(t, ok)
			assert.Equal(t, tt.wantPrice, product.Price)
		})
	}
}

func TestStore_Load_ShortRowPadded(t *testing.T) {
	store := catalog.NewStore(filepath.Join("testdata", "feed.csv"))
	require.NoError(t, store.Load())

	product, ok := store.Lookup("V4")
	require.True(t, ok)
	assert.Equal(t, "Short Row", product.Title)
	assert.Equal(t, "0.00", product.Price)
	assert.Equal(t, "", product.Availability)
}

func TestStore_Load_MissingFile(t *testing.T) {
	store := catalog.NewStore(filepath.Join("testdata", "does_not_exist.csv"))
	assert.Error(t, store.Load())
}

func TestStore_Lookup_NotFound(t *testing.T) {
	store := catalog.NewStore(filepath.Join("testdata", "feed.csv"))
	require.NoError(t, store.Load())

	_, ok := store.Lookup("NOPE")
	assert.False(t, ok)
}
