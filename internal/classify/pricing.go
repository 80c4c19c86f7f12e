package classify

import "github.com/telaro/tariffa/internal/model"

// defaultCurrency is used for unmatched records that carry no category.
const defaultCurrency = "EUR"

// BillingMode selects how call duration converts to billed units.
type BillingMode string

const (
	// BillPerMinute bills fractional minutes at the per-minute rate.
	BillPerMinute BillingMode = "per_minute"
	// BillPerSecond bills whole seconds. The per-minute rate is applied
	// to each second unscaled, exactly as the legacy biller did; billing
	// parity matters more than arithmetic intuition here.
	BillPerSecond BillingMode = "per_second"
)

// PriceResult is the pricing outcome for a single record.
type PriceResult struct {
	MarkupSource   model.MarkupSource
	BilledUnit     model.BilledUnit
	Rate           float64
	MarkupPercent  float64
	BilledDuration float64
	CustomerCost   float64
}

// Calculator derives customer prices from category base rates, a markup
// and a billing mode. All monetary values are rounded to 4 decimals at
// calculation time so batch totals are reproducible sums.
type Calculator struct {
	mode         BillingMode
	globalMarkup float64
}

// NewCalculator creates a calculator with the given global markup.
// An empty mode defaults to per-minute billing.
func NewCalculator(globalMarkup float64, mode BillingMode) *Calculator {
	if mode == "" {
		mode = BillPerMinute
	}
	return &Calculator{
		globalMarkup: globalMarkup,
		mode:         mode,
	}
}

// GlobalMarkup returns the markup applied when a category has no override.
func (c *Calculator) GlobalMarkup() float64 {
	return c.globalMarkup
}

// EffectiveRate returns the marked-up per-minute rate for a category,
// along with the markup that produced it and where it came from.
func (c *Calculator) EffectiveRate(cat *model.Category) (rate, markup float64, source model.MarkupSource) {
	if cat == nil {
		return 0, 0, model.MarkupSourceNone
	}

	markup, source = cat.EffectiveMarkup(c.globalMarkup)
	rate = model.RoundMoney(cat.PricePerMinute * (1 + markup/100))
	return rate, markup, source
}

// Price computes the billed duration and customer cost for a duration.
// A nil category prices to zero; the billed duration is still computed
// so unmatched records aggregate like any other.
func (c *Calculator) Price(cat *model.Category, durationSeconds int) PriceResult {
	rate, markup, source := c.EffectiveRate(cat)

	result := PriceResult{
		Rate:          rate,
		MarkupPercent: markup,
		MarkupSource:  source,
	}

	switch c.mode {
	case BillPerSecond:
		result.BilledUnit = model.BilledUnitSeconds
		result.BilledDuration = float64(durationSeconds)
		result.CustomerCost = model.RoundMoney(rate * float64(durationSeconds))
	default:
		minutes := float64(durationSeconds) / 60
		result.BilledUnit = model.BilledUnitMinutes
		result.BilledDuration = model.RoundMoney(minutes)
		result.CustomerCost = model.RoundMoney(rate * minutes)
	}

	return result
}

// DefaultPreviewMarkups are the scenario steps shown by pricing previews.
var DefaultPreviewMarkups = []float64{-50, -25, -10, 0, 10, 25, 50, 100}

// MarkupScenario is one row of a pricing preview table.
type MarkupScenario struct {
	MarkupPercent  float64
	PricePerMinute float64
}

// PreviewMarkups applies each markup to a base per-minute price.
func PreviewMarkups(basePrice float64, markups []float64) []MarkupScenario {
	if len(markups) == 0 {
		markups = DefaultPreviewMarkups
	}

	scenarios := make([]MarkupScenario, 0, len(markups))
	for _, m := range markups {
		scenarios = append(scenarios, MarkupScenario{
			MarkupPercent:  m,
			PricePerMinute: model.RoundMoney(basePrice * (1 + m/100)),
		})
	}
	return scenarios
}
