package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telaro/tariffa/internal/common"
	"github.com/telaro/tariffa/internal/model"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SetGlobalMarkup(ctx, 12))
	_, err := store.UpdateCategory(ctx, "MOBILI", CategoryUpdate{
		SetCustomMarkup:     true,
		CustomMarkupPercent: floatPtr(40),
	})
	require.NoError(t, err)

	exported, err := store.ExportJSON(ctx)
	require.NoError(t, err)

	// Import into a brand new store in replace mode.
	other, err := NewCategoryStore(filepath.Join(t.TempDir(), "categories.json"))
	require.NoError(t, err)
	require.NoError(t, other.Load(ctx))

	count, err := other.Import(ctx, exported, true)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	markup, err := other.GlobalMarkup(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 12.0, markup, 0.0001)

	mobili, err := other.GetCategory(ctx, "MOBILI")
	require.NoError(t, err)
	require.NotNil(t, mobili.CustomMarkupPercent)
	assert.InDelta(t, 40.0, *mobili.CustomMarkupPercent, 0.0001)
}

func TestImportMerge(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SetGlobalMarkup(ctx, 9))

	doc := `{
		"SATELLITARI": {
			"name": "SATELLITARI",
			"display_name": "Chiamate Satellitari",
			"price_per_minute": 1.5,
			"currency": "EUR",
			"patterns": ["SATELLITARE"],
			"is_active": true
		}
	}`

	count, err := store.Import(ctx, []byte(doc), false)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Existing categories and the current markup survive a merge.
	categories, err := store.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 6)

	markup, err := store.GlobalMarkup(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, markup, 0.0001)

	// The merged category got the next classification slot.
	sat, err := store.GetCategory(ctx, "SATELLITARI")
	require.NoError(t, err)
	assert.Equal(t, 6, sat.SortOrder)
}

func TestImportRejectsInvalidDocument(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	t.Run("unparseable json", func(t *testing.T) {
		_, err := store.Import(ctx, []byte(`{`), false)
		require.Error(t, err)
	})

	t.Run("invalid category aborts whole import", func(t *testing.T) {
		doc := `{
			"GOOD": {"name": "GOOD", "price_per_minute": 0.1, "patterns": ["good"], "is_active": true},
			"BAD": {"name": "BAD", "price_per_minute": -1, "patterns": ["bad"], "is_active": true}
		}`

		_, err := store.Import(ctx, []byte(doc), false)
		require.ErrorIs(t, err, common.ErrInvalidCategory)

		// Nothing was applied.
		_, err = store.GetCategory(ctx, "GOOD")
		require.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := store.Import(ctx, []byte(`{}`), false)
		require.ErrorIs(t, err, common.ErrInvalidCategory)
	})
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	data, err := store.ExportCSV(ctx)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "name,display_name,price_per_minute,currency,custom_markup_percent,is_active,patterns,description", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "FISSI,"))
	assert.Contains(t, lines[1], "FISSO|RETE FISSA")
}

func TestResetDefaults(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.AddCategory(ctx, model.Category{
		Name:           "EXTRA",
		PricePerMinute: 0.5,
		Patterns:       []string{"extra"},
	})
	require.NoError(t, err)
	require.NoError(t, store.SetGlobalMarkup(ctx, 33))

	require.NoError(t, store.ResetDefaults(ctx))

	categories, err := store.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 5)

	markup, err := store.GlobalMarkup(ctx)
	require.NoError(t, err)
	assert.InDelta(t, DefaultGlobalMarkup, markup, 0.0001)

	_, err = store.GetCategory(ctx, "EXTRA")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.UpdateCategory(ctx, "MOBILI", CategoryUpdate{
		SetCustomMarkup:     true,
		CustomMarkupPercent: floatPtr(10),
	})
	require.NoError(t, err)
	_, err = store.UpdateCategory(ctx, "FAX", CategoryUpdate{IsActive: boolPtr(false)})
	require.NoError(t, err)

	stats, err := store.Statistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalCategories)
	assert.Equal(t, 4, stats.ActiveCategories)
	assert.Equal(t, 1, stats.CustomMarkups)
	assert.Equal(t, []string{"EUR"}, stats.Currencies)
	assert.InDelta(t, 0.0, stats.MinPricePerMinute, 0.0001)
	assert.InDelta(t, 0.25, stats.MaxPricePerMinute, 0.0001)
	assert.False(t, stats.LastUpdated.IsZero())
}

func boolPtr(v bool) *bool {
	return &v
}
