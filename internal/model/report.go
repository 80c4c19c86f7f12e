package model

import "time"

// Totals accumulates the headline figures for a set of classified records.
// Duration totals are exact second sums; minutes and hours are derived for
// display and rounded to 2 decimals.
type Totals struct {
	Currency             string  `json:"currency"`
	TotalCalls           int     `json:"total_calls"`
	TotalDurationSeconds int     `json:"total_duration_seconds"`
	TotalDurationMinutes float64 `json:"total_duration_minutes"`
	TotalDurationHours   float64 `json:"total_duration_hours"`
	TotalOriginalCost    float64 `json:"total_original_cost"`
	TotalCustomerCost    float64 `json:"total_customer_cost"`
	TotalSavings         float64 `json:"total_savings"`
}

// CategoryAgg is one row of a per-category breakdown.
type CategoryAgg struct {
	DisplayName             string  `json:"display_name"`
	Calls                   int     `json:"calls"`
	DurationSeconds         int     `json:"duration_seconds"`
	OriginalCost            float64 `json:"original_cost"`
	CustomerCost            float64 `json:"customer_cost"`
	EffectivePricePerMinute float64 `json:"effective_price_per_minute"`
}

// DailyAgg is one row of a per-day breakdown, keyed by YYYY-MM-DD.
type DailyAgg struct {
	Calls           int     `json:"calls"`
	DurationSeconds int     `json:"duration_seconds"`
	OriginalCost    float64 `json:"original_cost"`
	CustomerCost    float64 `json:"customer_cost"`
}

// ReportMetadata describes the provenance of a generated report artifact.
type ReportMetadata struct {
	GeneratedAt   time.Time `json:"generated_at"`
	RunID         string    `json:"run_id"`
	SourceFile    string    `json:"source_file"`
	ContractCode  string    `json:"contract_code,omitempty"`
	Month         string    `json:"month"`
	Year          int       `json:"year"`
	RecordCount   int       `json:"record_count"`
	ContractCount int       `json:"contract_count,omitempty"`
}

// ContractReport is the full billing report for a single contract.
// Reports are immutable once written; later category or markup changes
// only affect subsequent runs.
type ContractReport struct {
	CategoryBreakdown map[string]*CategoryAgg `json:"category_breakdown"`
	DailyBreakdown    map[string]*DailyAgg    `json:"daily_breakdown"`
	Metadata          ReportMetadata          `json:"metadata"`
	Summary           Totals                  `json:"summary"`
	Records           []ClassifiedRecord      `json:"records"`
}

// ContractBrief is the condensed per-contract entry embedded in the
// global summary.
type ContractBrief struct {
	Calls           int     `json:"calls"`
	DurationSeconds int     `json:"duration_seconds"`
	OriginalCost    float64 `json:"original_cost"`
	CustomerCost    float64 `json:"customer_cost"`
	Savings         float64 `json:"savings"`
}

// RankingEntry is one position in a top-contracts ranking.
type RankingEntry struct {
	ContractCode string  `json:"contract_code"`
	Value        float64 `json:"value"`
}

// Rankings holds the five top-contract lists of the global summary.
// Each list is sorted descending and capped at the ranking size; ties
// preserve the order contracts were first seen in the batch.
type Rankings struct {
	ByCalls          []RankingEntry `json:"by_calls"`
	ByDuration       []RankingEntry `json:"by_duration"`
	ByCustomerCost   []RankingEntry `json:"by_customer_cost"`
	BySavings        []RankingEntry `json:"by_savings"`
	BySavingsPercent []RankingEntry `json:"by_savings_percent"`
}

// GlobalSummary is the cross-contract summary artifact for a batch run.
type GlobalSummary struct {
	GlobalByCategory map[string]*CategoryAgg   `json:"global_by_category"`
	ContractsSummary map[string]*ContractBrief `json:"contracts_summary"`
	Metadata         ReportMetadata            `json:"metadata"`
	GlobalTotals     Totals                    `json:"global_totals"`
	TopContracts     Rankings                  `json:"top_contracts"`
}
