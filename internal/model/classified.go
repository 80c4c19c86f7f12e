package model

// MarkupSource indicates where a record's applied markup came from.
type MarkupSource string

const (
	// MarkupSourceGlobal means the store-wide markup was applied.
	MarkupSourceGlobal MarkupSource = "global"
	// MarkupSourceCustom means a per-category override was applied.
	MarkupSourceCustom MarkupSource = "custom"
	// MarkupSourceNone means no markup applied (unmatched records).
	MarkupSourceNone MarkupSource = "none"
)

// BilledUnit indicates the unit billed durations are expressed in.
type BilledUnit string

const (
	// BilledUnitMinutes bills duration as fractional minutes.
	BilledUnitMinutes BilledUnit = "minutes"
	// BilledUnitSeconds bills duration as whole seconds.
	BilledUnitSeconds BilledUnit = "seconds"
)

// ClassifiedRecord pairs a source record with its classification and
// pricing outcome. Built once per record per batch run.
type ClassifiedRecord struct {
	CDRRecord
	CategoryName         string       `json:"category_name"`
	CategoryDisplayName  string       `json:"category_display_name"`
	Currency             string       `json:"currency"`
	MarkupSource         MarkupSource `json:"markup_source"`
	BilledUnit           BilledUnit   `json:"billed_unit"`
	PricePerMinuteUsed   float64      `json:"price_per_minute_used"`
	MarkupPercentApplied float64      `json:"markup_percent_applied"`
	BilledDuration       float64      `json:"billed_duration"`
	CustomerCost         float64      `json:"customer_cost"`
	Matched              bool         `json:"matched"`
}

// Savings returns the margin over the carrier cost for this record.
// Negative values mean the customer price undercuts the carrier price.
func (r *ClassifiedRecord) Savings() float64 {
	return RoundMoney(r.CustomerCost - r.OriginalCost)
}
