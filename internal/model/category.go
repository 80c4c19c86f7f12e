package model

import (
	"fmt"
	"strings"
	"time"
)

// Markup bounds shared by the global markup and per-category overrides.
const (
	MinMarkupPercent = -100.0
	MaxMarkupPercent = 1000.0
)

// Category represents a pricing category for classified calls.
// Names are stored uppercase; patterns match call type labels by
// case-insensitive substring containment.
type Category struct {
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
	CustomMarkupPercent *float64  `json:"custom_markup_percent"`
	Name                string    `json:"name"`
	DisplayName         string    `json:"display_name"`
	Currency            string    `json:"currency"`
	Description         string    `json:"description"`
	Patterns            []string  `json:"patterns"`
	PricePerMinute      float64   `json:"price_per_minute"`
	SortOrder           int       `json:"sort_order"`
	IsActive            bool      `json:"is_active"`
}

// Validate ensures the category has usable pricing data.
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("category name is required")
	}

	if c.PricePerMinute < 0 {
		return fmt.Errorf("price per minute cannot be negative, got %.4f", c.PricePerMinute)
	}

	if len(c.UsablePatterns()) == 0 {
		return fmt.Errorf("at least one non-empty pattern is required")
	}

	if c.CustomMarkupPercent != nil {
		if err := ValidateMarkup(*c.CustomMarkupPercent); err != nil {
			return err
		}
	}

	return nil
}

// UsablePatterns returns the patterns that can actually match, with
// surrounding whitespace trimmed and empty entries dropped.
func (c *Category) UsablePatterns() []string {
	patterns := make([]string, 0, len(c.Patterns))
	for _, p := range c.Patterns {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			patterns = append(patterns, trimmed)
		}
	}
	return patterns
}

// HasCustomMarkup reports whether this category overrides the global markup.
func (c *Category) HasCustomMarkup() bool {
	return c.CustomMarkupPercent != nil
}

// Clone returns a deep copy safe to hand across goroutines.
func (c *Category) Clone() Category {
	dup := *c
	dup.Patterns = append([]string(nil), c.Patterns...)
	if c.CustomMarkupPercent != nil {
		v := *c.CustomMarkupPercent
		dup.CustomMarkupPercent = &v
	}
	return dup
}

// EffectiveMarkup returns this category's markup and its source, falling
// back to the supplied global markup when no override is set.
func (c *Category) EffectiveMarkup(globalMarkup float64) (float64, MarkupSource) {
	if c.CustomMarkupPercent != nil {
		return *c.CustomMarkupPercent, MarkupSourceCustom
	}
	return globalMarkup, MarkupSourceGlobal
}

// ValidateMarkup checks that a markup percentage is within the allowed range.
func ValidateMarkup(percent float64) error {
	if percent < MinMarkupPercent || percent > MaxMarkupPercent {
		return fmt.Errorf("markup must be between %.0f and %.0f percent, got %.2f",
			MinMarkupPercent, MaxMarkupPercent, percent)
	}
	return nil
}

// NormalizeCategoryName returns the canonical uppercase form of a name.
func NormalizeCategoryName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
