// Package classify implements category matching and customer pricing for
// call detail records.
package classify

import (
	"strings"

	"github.com/telaro/tariffa/internal/model"
)

// Fallback identity for records no category matches. Unmatched records
// are kept and counted, never dropped.
const (
	FallbackCategoryName = "ALTRO"
	FallbackDisplayName  = "Altro/Sconosciuto"
)

// Classifier assigns raw call type labels to categories by first-match
// substring containment over an ordered category snapshot. The snapshot
// is taken once per batch; primacy belongs to the earlier category, so
// overlapping patterns never double count a record.
type Classifier struct {
	categories []model.Category
	patterns   [][]string
}

// NewClassifier builds a classifier over categories in classification
// order. Patterns are lowercased once up front.
func NewClassifier(categories []model.Category) *Classifier {
	c := &Classifier{
		categories: categories,
		patterns:   make([][]string, len(categories)),
	}

	for i, cat := range categories {
		usable := cat.UsablePatterns()
		lowered := make([]string, len(usable))
		for j, p := range usable {
			lowered[j] = strings.ToLower(p)
		}
		c.patterns[i] = lowered
	}

	return c
}

// Match returns the first active category whose pattern set matches the
// label, or nil when nothing matches. Matching is case-insensitive
// substring containment; there is no specificity ranking.
func (c *Classifier) Match(rawCallType string) *model.Category {
	label := strings.ToLower(strings.TrimSpace(rawCallType))

	for i := range c.categories {
		if !c.categories[i].IsActive {
			continue
		}
		for _, pattern := range c.patterns[i] {
			if strings.Contains(label, pattern) {
				return &c.categories[i]
			}
		}
	}

	return nil
}

// Classify produces the classified, priced form of one record. The
// source record is embedded untouched.
func Classify(rec model.CDRRecord, classifier *Classifier, calc *Calculator) model.ClassifiedRecord {
	cat := classifier.Match(rec.RawCallType)
	price := calc.Price(cat, rec.DurationSeconds)

	out := model.ClassifiedRecord{
		CDRRecord:            rec,
		BilledUnit:           price.BilledUnit,
		BilledDuration:       price.BilledDuration,
		CustomerCost:         price.CustomerCost,
		PricePerMinuteUsed:   price.Rate,
		MarkupPercentApplied: price.MarkupPercent,
		MarkupSource:         price.MarkupSource,
	}

	if cat == nil {
		out.CategoryName = FallbackCategoryName
		out.CategoryDisplayName = FallbackDisplayName
		out.Currency = defaultCurrency
		out.Matched = false
		return out
	}

	out.CategoryName = cat.Name
	out.CategoryDisplayName = cat.DisplayName
	out.Currency = cat.Currency
	out.Matched = true

	return out
}

// ClassifyAll classifies a whole batch in input order.
func ClassifyAll(records []model.CDRRecord, classifier *Classifier, calc *Calculator) []model.ClassifiedRecord {
	classified := make([]model.ClassifiedRecord, 0, len(records))
	for _, rec := range records {
		classified = append(classified, Classify(rec, classifier, calc))
	}
	return classified
}
