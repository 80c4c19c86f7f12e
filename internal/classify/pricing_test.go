package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telaro/tariffa/internal/model"
)

func TestPricePerMinute(t *testing.T) {
	markup20 := 20.0

	tests := []struct {
		category     *model.Category
		name         string
		globalMarkup float64
		duration     int
		wantRate     float64
		wantBilled   float64
		wantCost     float64
		wantSource   model.MarkupSource
	}{
		{
			name:         "base rate no markup",
			category:     &model.Category{Name: "FISSI", PricePerMinute: 0.02},
			globalMarkup: 0,
			duration:     300,
			wantRate:     0.02,
			wantBilled:   5,
			wantCost:     0.10,
			wantSource:   model.MarkupSourceGlobal,
		},
		{
			name:         "custom markup overrides global",
			category:     &model.Category{Name: "MOBILI", PricePerMinute: 0.15, CustomMarkupPercent: &markup20},
			globalMarkup: 50,
			duration:     300,
			wantRate:     0.18,
			wantBilled:   5,
			wantCost:     0.90,
			wantSource:   model.MarkupSourceCustom,
		},
		{
			name:         "global markup applies",
			category:     &model.Category{Name: "FISSI", PricePerMinute: 0.10},
			globalMarkup: 10,
			duration:     60,
			wantRate:     0.11,
			wantBilled:   1,
			wantCost:     0.11,
			wantSource:   model.MarkupSourceGlobal,
		},
		{
			name:         "negative markup discounts",
			category:     &model.Category{Name: "FISSI", PricePerMinute: 0.10},
			globalMarkup: -50,
			duration:     120,
			wantRate:     0.05,
			wantBilled:   2,
			wantCost:     0.10,
			wantSource:   model.MarkupSourceGlobal,
		},
		{
			name:         "zero duration",
			category:     &model.Category{Name: "FISSI", PricePerMinute: 0.02},
			globalMarkup: 0,
			duration:     0,
			wantRate:     0.02,
			wantBilled:   0,
			wantCost:     0,
			wantSource:   model.MarkupSourceGlobal,
		},
		{
			name:         "nil category prices to zero",
			category:     nil,
			globalMarkup: 25,
			duration:     300,
			wantRate:     0,
			wantBilled:   5,
			wantCost:     0,
			wantSource:   model.MarkupSourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := NewCalculator(tt.globalMarkup, BillPerMinute)
			got := calc.Price(tt.category, tt.duration)

			assert.Equal(t, model.BilledUnitMinutes, got.BilledUnit)
			assert.InDelta(t, tt.wantRate, got.Rate, 0.00001)
			assert.InDelta(t, tt.wantBilled, got.BilledDuration, 0.0001)
			assert.InDelta(t, tt.wantCost, got.CustomerCost, 0.00001)
			assert.Equal(t, tt.wantSource, got.MarkupSource)
		})
	}
}

func TestPricePerSecondAppliesRateUnscaled(t *testing.T) {
	// Per-second billing charges the per-minute rate for every second,
	// matching the legacy biller. 300s at 0.18 prices to 54.00.
	markup20 := 20.0
	cat := &model.Category{Name: "MOBILI", PricePerMinute: 0.15, CustomMarkupPercent: &markup20}

	calc := NewCalculator(0, BillPerSecond)
	got := calc.Price(cat, 300)

	assert.Equal(t, model.BilledUnitSeconds, got.BilledUnit)
	assert.InDelta(t, 300.0, got.BilledDuration, 0.0001)
	assert.InDelta(t, 0.18, got.Rate, 0.00001)
	assert.InDelta(t, 54.0, got.CustomerCost, 0.00001)
}

func TestPriceRoundsToFourDecimals(t *testing.T) {
	cat := &model.Category{Name: "FISSI", PricePerMinute: 0.0123}

	calc := NewCalculator(7, BillPerMinute)
	got := calc.Price(cat, 47)

	// Rate rounds first, then the cost rounds on the rounded rate.
	wantRate := model.RoundMoney(0.0123 * 1.07)
	assert.InDelta(t, wantRate, got.Rate, 1e-9)
	assert.InDelta(t, model.RoundMoney(wantRate*47.0/60.0), got.CustomerCost, 1e-9)
}

func TestPricingIsReproducible(t *testing.T) {
	cat := &model.Category{Name: "MOBILI", PricePerMinute: 0.1537}
	calc := NewCalculator(12.5, BillPerMinute)

	first := calc.Price(cat, 187)
	for i := 0; i < 100; i++ {
		again := calc.Price(cat, 187)
		require.Equal(t, first, again)
	}
}

func TestDefaultModeIsPerMinute(t *testing.T) {
	calc := NewCalculator(0, "")
	got := calc.Price(&model.Category{Name: "FISSI", PricePerMinute: 0.02}, 60)
	assert.Equal(t, model.BilledUnitMinutes, got.BilledUnit)
}

func TestPreviewMarkups(t *testing.T) {
	t.Run("explicit markups", func(t *testing.T) {
		scenarios := PreviewMarkups(0.10, []float64{0, 25, 100})
		require.Len(t, scenarios, 3)
		assert.InDelta(t, 0.10, scenarios[0].PricePerMinute, 0.00001)
		assert.InDelta(t, 0.125, scenarios[1].PricePerMinute, 0.00001)
		assert.InDelta(t, 0.20, scenarios[2].PricePerMinute, 0.00001)
	})

	t.Run("default scenario table", func(t *testing.T) {
		scenarios := PreviewMarkups(0.10, nil)
		require.Len(t, scenarios, len(DefaultPreviewMarkups))
		assert.InDelta(t, -50.0, scenarios[0].MarkupPercent, 0.0001)
		assert.InDelta(t, 0.05, scenarios[0].PricePerMinute, 0.00001)
	})
}
