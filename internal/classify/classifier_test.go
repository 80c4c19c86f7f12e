package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telaro/tariffa/internal/model"
)

func testCategories() []model.Category {
	return []model.Category{
		{
			Name:           "FISSI",
			DisplayName:    "Chiamate Fisso",
			PricePerMinute: 0.02,
			Currency:       "EUR",
			Patterns:       []string{"FISSO", "URBANE", "LOCALE"},
			SortOrder:      1,
			IsActive:       true,
		},
		{
			Name:           "MOBILI",
			DisplayName:    "Chiamate Mobile",
			PricePerMinute: 0.15,
			Currency:       "EUR",
			Patterns:       []string{"CELLULARE", "MOBILE", "TIM"},
			SortOrder:      2,
			IsActive:       true,
		},
	}
}

func TestMatchFirstCategoryWins(t *testing.T) {
	// Both categories carry the pattern URBANE; the one earlier in
	// classification order must win.
	categories := []model.Category{
		{Name: "FISSI", PricePerMinute: 0.02, Patterns: []string{"URBANE"}, SortOrder: 1, IsActive: true},
		{Name: "SPECIALI", PricePerMinute: 0.50, Patterns: []string{"URBANE"}, SortOrder: 2, IsActive: true},
	}

	classifier := NewClassifier(categories)
	got := classifier.Match("Chiamate Urbane")
	require.NotNil(t, got)
	assert.Equal(t, "FISSI", got.Name)
}

func TestMatchSubstringCaseInsensitive(t *testing.T) {
	classifier := NewClassifier(testCategories())

	tests := []struct {
		name  string
		label string
		want  string
	}{
		{name: "exact pattern", label: "FISSO", want: "FISSI"},
		{name: "lowercase label", label: "rete fisso nazionale", want: "FISSI"},
		{name: "pattern inside label", label: "Chiamata CELLULARE TIM", want: "MOBILI"},
		{name: "mixed case", label: "Cellulare Vodafone", want: "MOBILI"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifier.Match(tt.label)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestMatchNoCategory(t *testing.T) {
	classifier := NewClassifier(testCategories())

	assert.Nil(t, classifier.Match("NUMERAZIONE SPECIALE 899"))
	assert.Nil(t, classifier.Match(""))
	assert.Nil(t, classifier.Match("   "))
}

func TestMatchSkipsInactive(t *testing.T) {
	categories := testCategories()
	categories[0].IsActive = false

	classifier := NewClassifier(categories)
	assert.Nil(t, classifier.Match("FISSO"))
}

func TestClassifyMatched(t *testing.T) {
	classifier := NewClassifier(testCategories())
	calc := NewCalculator(0, BillPerMinute)

	rec := model.CDRRecord{
		RawCallType:     "Chiamata FISSO urbana",
		DurationSeconds: 300,
		ContractCode:    "88001",
	}

	classified := Classify(rec, classifier, calc)

	assert.True(t, classified.Matched)
	assert.Equal(t, "FISSI", classified.CategoryName)
	assert.Equal(t, "Chiamate Fisso", classified.CategoryDisplayName)
	assert.Equal(t, "EUR", classified.Currency)
	assert.Equal(t, model.MarkupSourceGlobal, classified.MarkupSource)
	assert.InDelta(t, 0.02, classified.PricePerMinuteUsed, 0.0001)
	assert.InDelta(t, 5.0, classified.BilledDuration, 0.0001)
	assert.InDelta(t, 0.10, classified.CustomerCost, 0.0001)
	// The source record is embedded untouched.
	assert.Equal(t, model.Code("88001"), classified.ContractCode)
	assert.Equal(t, 300, classified.DurationSeconds)
}

func TestClassifyUnmatchedFallsBack(t *testing.T) {
	classifier := NewClassifier(testCategories())
	calc := NewCalculator(25, BillPerMinute)

	rec := model.CDRRecord{
		RawCallType:     "NUMERAZIONE SPECIALE 899",
		DurationSeconds: 120,
	}

	classified := Classify(rec, classifier, calc)

	assert.False(t, classified.Matched)
	assert.Equal(t, FallbackCategoryName, classified.CategoryName)
	assert.Equal(t, FallbackDisplayName, classified.CategoryDisplayName)
	assert.Equal(t, "EUR", classified.Currency)
	assert.Equal(t, model.MarkupSourceNone, classified.MarkupSource)
	assert.InDelta(t, 0.0, classified.PricePerMinuteUsed, 0.0001)
	assert.InDelta(t, 0.0, classified.CustomerCost, 0.0001)
	// The billed duration is still computed for aggregation.
	assert.InDelta(t, 2.0, classified.BilledDuration, 0.0001)
}

func TestClassifyAllKeepsOrderAndCount(t *testing.T) {
	classifier := NewClassifier(testCategories())
	calc := NewCalculator(0, BillPerMinute)

	records := []model.CDRRecord{
		{RawCallType: "FISSO", DurationSeconds: 60},
		{RawCallType: "sconosciuto", DurationSeconds: 60},
		{RawCallType: "MOBILE", DurationSeconds: 60},
	}

	classified := ClassifyAll(records, classifier, calc)
	require.Len(t, classified, 3)
	assert.Equal(t, "FISSI", classified[0].CategoryName)
	assert.Equal(t, FallbackCategoryName, classified[1].CategoryName)
	assert.Equal(t, "MOBILI", classified[2].CategoryName)
}
