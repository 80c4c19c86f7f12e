// Package aggregate groups classified records by contract and builds the
// per-contract and global billing summaries.
package aggregate

import (
	"github.com/telaro/tariffa/internal/model"
)

// DefaultRankingSize caps every top-contracts ranking.
const DefaultRankingSize = 10

// Engine turns classified records into report aggregates. It is
// stateless; one engine can serve any number of batches.
type Engine struct {
	rankingSize int
}

// NewEngine creates an aggregation engine with the standard ranking cap.
func NewEngine() *Engine {
	return NewEngineWithSize(DefaultRankingSize)
}

// NewEngineWithSize creates an engine with a custom ranking cap.
func NewEngineWithSize(rankingSize int) *Engine {
	if rankingSize <= 0 {
		rankingSize = DefaultRankingSize
	}
	return &Engine{rankingSize: rankingSize}
}

// Grouping is the outcome of splitting a batch by contract code.
// Order preserves the code of each contract at first appearance, which
// downstream iteration and ranking tie-breaks rely on.
type Grouping struct {
	Groups   map[string][]model.ClassifiedRecord
	Order    []string
	Excluded int
}

// ContractAggregate is the aggregation outcome for a single contract.
type ContractAggregate struct {
	CategoryBreakdown map[string]*model.CategoryAgg
	DailyBreakdown    map[string]*model.DailyAgg
	ContractCode      string
	Summary           model.Totals
	Records           []model.ClassifiedRecord
}

// GroupByContract splits records by contract code. Records without a
// contract code are excluded from contract grouping but stay counted in
// the Excluded tally.
func (e *Engine) GroupByContract(records []model.ClassifiedRecord) *Grouping {
	grouping := &Grouping{
		Groups: make(map[string][]model.ClassifiedRecord),
	}

	for _, rec := range records {
		if rec.ContractCode.IsEmpty() {
			grouping.Excluded++
			continue
		}

		code := string(rec.ContractCode)
		if _, seen := grouping.Groups[code]; !seen {
			grouping.Order = append(grouping.Order, code)
		}
		grouping.Groups[code] = append(grouping.Groups[code], rec)
	}

	return grouping
}

// AggregateContract computes the totals and breakdowns for one contract.
func (e *Engine) AggregateContract(code string, records []model.ClassifiedRecord) *ContractAggregate {
	agg := &ContractAggregate{
		ContractCode:      code,
		Summary:           sumTotals(records),
		CategoryBreakdown: buildCategoryBreakdown(records),
		DailyBreakdown:    buildDailyBreakdown(records),
		Records:           records,
	}
	return agg
}

// sumTotals accumulates the headline totals for a record set. Customer
// costs were rounded per record at pricing time, so the sums reproduce
// across runs for the same input order.
func sumTotals(records []model.ClassifiedRecord) model.Totals {
	totals := model.Totals{}

	var originalSum, customerSum float64
	for _, rec := range records {
		totals.TotalCalls++
		totals.TotalDurationSeconds += rec.DurationSeconds
		originalSum += rec.OriginalCost
		customerSum += rec.CustomerCost
		if totals.Currency == "" {
			totals.Currency = rec.Currency
		}
	}

	if totals.Currency == "" {
		totals.Currency = "EUR"
	}

	seconds := float64(totals.TotalDurationSeconds)
	totals.TotalDurationMinutes = model.RoundQuantity(seconds / 60)
	totals.TotalDurationHours = model.RoundQuantity(seconds / 3600)
	totals.TotalOriginalCost = model.RoundMoney(originalSum)
	totals.TotalCustomerCost = model.RoundMoney(customerSum)
	totals.TotalSavings = model.RoundMoney(customerSum - originalSum)

	return totals
}

// buildCategoryBreakdown accumulates per-category rows. Unmatched
// records aggregate under the fallback category like any other.
func buildCategoryBreakdown(records []model.ClassifiedRecord) map[string]*model.CategoryAgg {
	breakdown := make(map[string]*model.CategoryAgg)

	for _, rec := range records {
		row, ok := breakdown[rec.CategoryName]
		if !ok {
			row = &model.CategoryAgg{
				DisplayName:             rec.CategoryDisplayName,
				EffectivePricePerMinute: rec.PricePerMinuteUsed,
			}
			breakdown[rec.CategoryName] = row
		}

		row.Calls++
		row.DurationSeconds += rec.DurationSeconds
		row.OriginalCost += rec.OriginalCost
		row.CustomerCost += rec.CustomerCost
	}

	for _, row := range breakdown {
		row.OriginalCost = model.RoundMoney(row.OriginalCost)
		row.CustomerCost = model.RoundMoney(row.CustomerCost)
	}

	return breakdown
}

// buildDailyBreakdown accumulates per-day rows keyed by YYYY-MM-DD.
// Records without a call timestamp are skipped here but still counted
// in the totals and category rows.
func buildDailyBreakdown(records []model.ClassifiedRecord) map[string]*model.DailyAgg {
	breakdown := make(map[string]*model.DailyAgg)

	for _, rec := range records {
		if rec.CallTime.IsZero() {
			continue
		}

		day := rec.CallTime.Day()
		row, ok := breakdown[day]
		if !ok {
			row = &model.DailyAgg{}
			breakdown[day] = row
		}

		row.Calls++
		row.DurationSeconds += rec.DurationSeconds
		row.OriginalCost += rec.OriginalCost
		row.CustomerCost += rec.CustomerCost
	}

	for _, row := range breakdown {
		row.OriginalCost = model.RoundMoney(row.OriginalCost)
		row.CustomerCost = model.RoundMoney(row.CustomerCost)
	}

	return breakdown
}
