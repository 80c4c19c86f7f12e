package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/telaro/tariffa/internal/common"
	"github.com/telaro/tariffa/internal/model"
)

// ExportJSON returns the store contents in the store file format, so an
// export can be fed straight back into Import.
func (s *CategoryStore) ExportJSON(ctx context.Context) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc := make(map[string]any, len(s.categories)+1)
	for name, cat := range s.categories {
		doc[name] = cat
	}
	doc[globalMarkupKey] = s.globalMarkup

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	return append(data, '\n'), nil
}

// ExportCSV returns the categories as CSV rows in classification order.
// Patterns are pipe-joined inside a single column.
func (s *CategoryStore) ExportCSV(ctx context.Context) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	categories := s.sortedCategoriesLocked()
	s.mu.RUnlock()

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"name", "display_name", "price_per_minute", "currency", "custom_markup_percent", "is_active", "patterns", "description"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, cat := range categories {
		markup := ""
		if cat.CustomMarkupPercent != nil {
			markup = strconv.FormatFloat(*cat.CustomMarkupPercent, 'f', -1, 64)
		}

		row := []string{
			cat.Name,
			cat.DisplayName,
			strconv.FormatFloat(cat.PricePerMinute, 'f', -1, 64),
			cat.Currency,
			markup,
			strconv.FormatBool(cat.IsActive),
			strings.Join(cat.Patterns, "|"),
			cat.Description,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row for %s: %w", cat.Name, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return buf.Bytes(), nil
}

// Import loads categories from an exported JSON document. In merge mode
// imported categories are added or overwritten by name and the current
// global markup is kept; in replace mode the whole store, markup
// included, is swapped for the imported contents. The import is atomic:
// one invalid category rejects the whole document.
func (s *CategoryStore) Import(ctx context.Context, data []byte, replace bool) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	imported, markup, err := decodeStoreFile(data)
	if err != nil {
		return 0, fmt.Errorf("failed to parse import document: %v", err)
	}
	if len(imported) == 0 {
		return 0, fmt.Errorf("%w: import document has no categories", common.ErrInvalidCategory)
	}

	for name, cat := range imported {
		if err := cat.Validate(); err != nil {
			return 0, fmt.Errorf("%w: imported category %s: %v", common.ErrInvalidCategory, name, err)
		}
	}
	if err := model.ValidateMarkup(markup); err != nil {
		return 0, fmt.Errorf("%w: imported global markup: %v", common.ErrInvalidCategory, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prevCategories := s.categories
	prevMarkup := s.globalMarkup

	now := time.Now().UTC()
	if replace {
		s.categories = make(map[string]*model.Category, len(imported))
		s.globalMarkup = markup
	} else {
		merged := make(map[string]*model.Category, len(prevCategories)+len(imported))
		for name, cat := range prevCategories {
			merged[name] = cat
		}
		s.categories = merged
	}

	for name, cat := range imported {
		entry := cat.Clone()
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		entry.UpdatedAt = now
		s.categories[name] = &entry
	}
	s.assignMissingSortOrdersLocked()

	if err := s.persistLocked(); err != nil {
		s.categories = prevCategories
		s.globalMarkup = prevMarkup
		return 0, err
	}

	slog.Info("Imported categories", "count", len(imported), "replace", replace)
	return len(imported), nil
}

// ResetDefaults discards all categories and restores the seed set with
// the default global markup.
func (s *CategoryStore) ResetDefaults(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prevCategories := s.categories
	prevMarkup := s.globalMarkup

	s.seedDefaultsLocked()

	if err := s.persistLocked(); err != nil {
		s.categories = prevCategories
		s.globalMarkup = prevMarkup
		return err
	}

	slog.Info("Reset categories to defaults", "categories", len(s.categories))
	return nil
}
