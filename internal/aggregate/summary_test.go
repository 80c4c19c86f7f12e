package aggregate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telaro/tariffa/internal/model"
)

func TestRankingsDescendingAndCapped(t *testing.T) {
	engine := NewEngine()

	// 12 contracts with strictly increasing call counts so the top 10
	// are the last 12..3 in descending order.
	var records []model.ClassifiedRecord
	for i := 1; i <= 12; i++ {
		code := fmt.Sprintf("C%02d", i)
		for j := 0; j < i; j++ {
			records = append(records, makeRecord(code, "FISSI", 60, 0.01, 0.02, "2025-07-01"))
		}
	}

	grouping := engine.GroupByContract(records)
	summary := engine.BuildGlobalSummary(grouping)

	byCalls := summary.TopContracts.ByCalls
	require.Len(t, byCalls, DefaultRankingSize)
	assert.Equal(t, "C12", byCalls[0].ContractCode)
	assert.InDelta(t, 12, byCalls[0].Value, 0.00001)
	assert.Equal(t, "C03", byCalls[9].ContractCode)
	for i := 1; i < len(byCalls); i++ {
		assert.GreaterOrEqual(t, byCalls[i-1].Value, byCalls[i].Value)
	}
}

func TestRankingsTieOrderIsFirstSeen(t *testing.T) {
	engine := NewEngine()

	records := []model.ClassifiedRecord{
		makeRecord("ZETA", "FISSI", 60, 0.01, 0.02, "2025-07-01"),
		makeRecord("ALFA", "FISSI", 60, 0.01, 0.02, "2025-07-01"),
		makeRecord("MEZZO", "FISSI", 120, 0.02, 0.04, "2025-07-01"),
		makeRecord("MEZZO", "FISSI", 60, 0.01, 0.02, "2025-07-01"),
	}

	grouping := engine.GroupByContract(records)
	summary := engine.BuildGlobalSummary(grouping)

	byCalls := summary.TopContracts.ByCalls
	require.Len(t, byCalls, 3)
	// MEZZO leads on value; the tied contracts keep input order.
	assert.Equal(t, "MEZZO", byCalls[0].ContractCode)
	assert.Equal(t, "ZETA", byCalls[1].ContractCode)
	assert.Equal(t, "ALFA", byCalls[2].ContractCode)
}

func TestRankingsSavings(t *testing.T) {
	engine := NewEngine()

	records := []model.ClassifiedRecord{
		// Positive savings: customer pays more than the carrier charged.
		makeRecord("GAIN", "MOBILI", 300, 1.00, 1.50, "2025-07-01"),
		// Negative savings stay negative, no clamping to zero.
		makeRecord("LOSS", "FISSI", 300, 2.00, 1.00, "2025-07-01"),
	}

	grouping := engine.GroupByContract(records)
	summary := engine.BuildGlobalSummary(grouping)

	bySavings := summary.TopContracts.BySavings
	require.Len(t, bySavings, 2)
	assert.Equal(t, "GAIN", bySavings[0].ContractCode)
	assert.InDelta(t, 0.50, bySavings[0].Value, 0.00001)
	assert.Equal(t, "LOSS", bySavings[1].ContractCode)
	assert.InDelta(t, -1.00, bySavings[1].Value, 0.00001)
}

func TestSavingsPercent(t *testing.T) {
	tests := []struct {
		name     string
		customer float64
		original float64
		want     float64
	}{
		{name: "markup over original", customer: 1.50, original: 1.00, want: 50},
		{name: "discount below original", customer: 0.75, original: 1.00, want: -25},
		{name: "zero original yields zero", customer: 1.50, original: 0, want: 0},
		{name: "equal costs", customer: 1.00, original: 1.00, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SavingsPercent(tt.customer, tt.original), 0.001)
		})
	}
}

func TestGlobalSummaryEmptyGrouping(t *testing.T) {
	engine := NewEngine()

	summary := engine.BuildGlobalSummary(engine.GroupByContract(nil))

	assert.Equal(t, 0, summary.ContractCount)
	assert.Equal(t, 0, summary.RecordCount)
	assert.Empty(t, summary.ContractsSummary)
	assert.Empty(t, summary.TopContracts.ByCalls)
}
