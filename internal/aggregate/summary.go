package aggregate

import (
	"sort"

	"github.com/telaro/tariffa/internal/model"
)

// SummaryAggregate is the whole-batch aggregation outcome backing the
// global summary artifact.
type SummaryAggregate struct {
	GlobalByCategory map[string]*model.CategoryAgg
	ContractsSummary map[string]*model.ContractBrief
	GlobalTotals     model.Totals
	TopContracts     model.Rankings
	ContractCount    int
	RecordCount      int
}

// BuildGlobalSummary re-aggregates every grouped record into global
// totals, a global category breakdown, per-contract briefs and the five
// top-contract rankings.
func (e *Engine) BuildGlobalSummary(grouping *Grouping) *SummaryAggregate {
	all := make([]model.ClassifiedRecord, 0)
	for _, code := range grouping.Order {
		all = append(all, grouping.Groups[code]...)
	}

	summary := &SummaryAggregate{
		GlobalTotals:     sumTotals(all),
		GlobalByCategory: buildCategoryBreakdown(all),
		ContractsSummary: make(map[string]*model.ContractBrief, len(grouping.Order)),
		ContractCount:    len(grouping.Order),
		RecordCount:      len(all),
	}

	for _, code := range grouping.Order {
		records := grouping.Groups[code]
		totals := sumTotals(records)
		summary.ContractsSummary[code] = &model.ContractBrief{
			Calls:           totals.TotalCalls,
			DurationSeconds: totals.TotalDurationSeconds,
			OriginalCost:    totals.TotalOriginalCost,
			CustomerCost:    totals.TotalCustomerCost,
			Savings:         totals.TotalSavings,
		}
	}

	summary.TopContracts = e.buildRankings(grouping, summary.ContractsSummary)

	return summary
}

// buildRankings produces the five descending rankings. Sorting is
// stable over first-seen contract order, so equal values keep the order
// contracts first appeared in the batch.
func (e *Engine) buildRankings(grouping *Grouping, briefs map[string]*model.ContractBrief) model.Rankings {
	rank := func(value func(*model.ContractBrief) float64) []model.RankingEntry {
		entries := make([]model.RankingEntry, 0, len(grouping.Order))
		for _, code := range grouping.Order {
			entries = append(entries, model.RankingEntry{
				ContractCode: code,
				Value:        value(briefs[code]),
			})
		}

		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Value > entries[j].Value
		})

		if len(entries) > e.rankingSize {
			entries = entries[:e.rankingSize]
		}
		return entries
	}

	return model.Rankings{
		ByCalls: rank(func(b *model.ContractBrief) float64 {
			return float64(b.Calls)
		}),
		ByDuration: rank(func(b *model.ContractBrief) float64 {
			return float64(b.DurationSeconds)
		}),
		ByCustomerCost: rank(func(b *model.ContractBrief) float64 {
			return b.CustomerCost
		}),
		BySavings: rank(func(b *model.ContractBrief) float64 {
			return b.Savings
		}),
		BySavingsPercent: rank(func(b *model.ContractBrief) float64 {
			return SavingsPercent(b.CustomerCost, b.OriginalCost)
		}),
	}
}

// SavingsPercent expresses the margin over the carrier cost as a
// percentage of the carrier cost. Defined as 0 when the carrier cost is
// 0 to keep rankings total.
func SavingsPercent(customerCost, originalCost float64) float64 {
	if originalCost == 0 {
		return 0
	}
	return model.RoundQuantity((customerCost - originalCost) / originalCost * 100)
}
