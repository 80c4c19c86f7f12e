package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/telaro/tariffa/internal/common"
	"github.com/telaro/tariffa/internal/model"
)

// globalMarkupKey is the reserved lowercase key that stores the global
// markup alongside the uppercase category entries. Category names are
// uppercased on write, so the key can never collide with a category.
const globalMarkupKey = "global_markup_percent"

// DefaultBackupRetention is the number of store backups kept on disk.
const DefaultBackupRetention = 5

// CategoryStore persists pricing categories and the global markup in a
// single JSON file. Every mutation is validated, applied in memory, and
// persisted immediately; a failed persist rolls the memory state back.
type CategoryStore struct {
	categories    map[string]*model.Category
	path          string
	globalMarkup  float64
	backupsToKeep int
	loaded        bool
	mu            sync.RWMutex
}

// Snapshot is a consistent point-in-time view of the store, taken once
// at the start of a batch run so admin edits cannot shear a batch.
type Snapshot struct {
	Categories   []model.Category
	GlobalMarkup float64
}

// Stats summarizes the store contents for diagnostics.
type Stats struct {
	LastUpdated       time.Time
	Currencies        []string
	TotalCategories   int
	ActiveCategories  int
	TotalPatterns     int
	CustomMarkups     int
	GlobalMarkup      float64
	MinPricePerMinute float64
	MaxPricePerMinute float64
}

// CategoryUpdate describes a partial category update. Nil fields are
// left unchanged. Clearing the custom markup back to the global value
// requires SetCustomMarkup with a nil CustomMarkupPercent.
type CategoryUpdate struct {
	DisplayName         *string
	Description         *string
	Currency            *string
	PricePerMinute      *float64
	IsActive            *bool
	CustomMarkupPercent *float64
	Patterns            []string
	SetCustomMarkup     bool
}

// NewCategoryStore creates a store bound to the given file path. The file
// is not touched until Load is called.
func NewCategoryStore(path string) (*CategoryStore, error) {
	if err := validateString(path, "path"); err != nil {
		return nil, err
	}

	return &CategoryStore{
		path:          path,
		categories:    make(map[string]*model.Category),
		globalMarkup:  DefaultGlobalMarkup,
		backupsToKeep: DefaultBackupRetention,
	}, nil
}

// SetBackupRetention overrides how many store backups are kept on disk.
func (s *CategoryStore) SetBackupRetention(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n >= 0 {
		s.backupsToKeep = n
	}
}

// Path returns the store file path.
func (s *CategoryStore) Path() string {
	return s.path
}

// Load reads the store file. A missing file seeds the default categories
// and persists them; an unreadable or malformed file fails loudly so a
// damaged store is never silently replaced.
func (s *CategoryStore) Load(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.seedDefaultsLocked()
		if persistErr := s.persistLocked(); persistErr != nil {
			return persistErr
		}
		s.loaded = true
		slog.Info("Seeded default categories", "path", s.path, "categories", len(s.categories))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", common.ErrStoreCorrupt, s.path, err)
	}

	categories, markup, err := decodeStoreFile(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrStoreCorrupt, s.path, err)
	}

	s.categories = categories
	s.globalMarkup = markup
	s.assignMissingSortOrdersLocked()
	s.loaded = true

	slog.Debug("Loaded category store",
		"path", s.path,
		"categories", len(s.categories),
		"global_markup", s.globalMarkup)

	return nil
}

// GetCategories returns all categories in classification order.
func (s *CategoryStore) GetCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sortedCategoriesLocked(), nil
}

// GetCategory returns a single category by name.
func (s *CategoryStore) GetCategory(ctx context.Context, name string) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cat, ok := s.categories[model.NormalizeCategoryName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrNotFound, model.NormalizeCategoryName(name))
	}

	dup := cat.Clone()
	return &dup, nil
}

// AddCategory validates and inserts a new category, persisting the store.
func (s *CategoryStore) AddCategory(ctx context.Context, cat model.Category) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	cat.Name = model.NormalizeCategoryName(cat.Name)
	cat.Patterns = cat.UsablePatterns()
	if cat.Currency == "" {
		cat.Currency = "EUR"
	}

	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidCategory, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.categories[cat.Name]; exists {
		return nil, fmt.Errorf("%w: %s", common.ErrDuplicateCategory, cat.Name)
	}

	now := time.Now().UTC()
	cat.CreatedAt = now
	cat.UpdatedAt = now
	cat.IsActive = true
	cat.SortOrder = s.nextSortOrderLocked()

	s.categories[cat.Name] = &cat

	if err := s.persistLocked(); err != nil {
		delete(s.categories, cat.Name)
		return nil, err
	}

	slog.Info("Added category", "name", cat.Name, "price_per_minute", cat.PricePerMinute)

	dup := cat.Clone()
	return &dup, nil
}

// UpdateCategory applies a partial update to an existing category.
func (s *CategoryStore) UpdateCategory(ctx context.Context, name string, update CategoryUpdate) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.NormalizeCategoryName(name)
	existing, ok := s.categories[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrNotFound, key)
	}

	updated := existing.Clone()
	if update.DisplayName != nil {
		updated.DisplayName = *update.DisplayName
	}
	if update.Description != nil {
		updated.Description = *update.Description
	}
	if update.Currency != nil {
		updated.Currency = *update.Currency
	}
	if update.PricePerMinute != nil {
		updated.PricePerMinute = *update.PricePerMinute
	}
	if update.Patterns != nil {
		updated.Patterns = update.Patterns
		updated.Patterns = updated.UsablePatterns()
	}
	if update.IsActive != nil {
		updated.IsActive = *update.IsActive
	}
	if update.SetCustomMarkup {
		if update.CustomMarkupPercent != nil {
			v := *update.CustomMarkupPercent
			updated.CustomMarkupPercent = &v
		} else {
			updated.CustomMarkupPercent = nil
		}
	}

	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidCategory, err)
	}

	updated.UpdatedAt = time.Now().UTC()
	s.categories[key] = &updated

	if err := s.persistLocked(); err != nil {
		s.categories[key] = existing
		return nil, err
	}

	slog.Info("Updated category", "name", key)

	dup := updated.Clone()
	return &dup, nil
}

// DeleteCategory removes a category. Essential categories are protected.
func (s *CategoryStore) DeleteCategory(ctx context.Context, name string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(name, "name"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.NormalizeCategoryName(name)
	if IsEssential(key) {
		return fmt.Errorf("%w: %s", common.ErrProtectedCategory, key)
	}

	existing, ok := s.categories[key]
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrNotFound, key)
	}

	delete(s.categories, key)

	if err := s.persistLocked(); err != nil {
		s.categories[key] = existing
		return err
	}

	slog.Info("Deleted category", "name", key)
	return nil
}

// GlobalMarkup returns the store-wide markup percentage.
func (s *CategoryStore) GlobalMarkup(ctx context.Context) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.globalMarkup, nil
}

// SetGlobalMarkup updates the store-wide markup. Reports already written
// keep the figures they were generated with.
func (s *CategoryStore) SetGlobalMarkup(ctx context.Context, percent float64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := model.ValidateMarkup(percent); err != nil {
		return fmt.Errorf("global markup: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.globalMarkup
	s.globalMarkup = percent

	if err := s.persistLocked(); err != nil {
		s.globalMarkup = previous
		return err
	}

	slog.Info("Updated global markup", "previous", previous, "current", percent)
	return nil
}

// SetMarkupBulk applies the same custom markup to several categories in
// one persisted step. A nil percent clears the overrides back to the
// global markup. Unknown names are skipped.
func (s *CategoryStore) SetMarkupBulk(ctx context.Context, names []string, percent *float64) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if percent != nil {
		if err := model.ValidateMarkup(*percent); err != nil {
			return 0, fmt.Errorf("%w: %v", common.ErrInvalidCategory, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := make(map[string]*model.Category, len(names))
	updated := 0
	now := time.Now().UTC()

	for _, name := range names {
		key := model.NormalizeCategoryName(name)
		existing, ok := s.categories[key]
		if !ok {
			slog.Warn("Skipping unknown category in bulk markup update", "name", key)
			continue
		}

		previous[key] = existing
		next := existing.Clone()
		if percent != nil {
			v := *percent
			next.CustomMarkupPercent = &v
		} else {
			next.CustomMarkupPercent = nil
		}
		next.UpdatedAt = now
		s.categories[key] = &next
		updated++
	}

	if updated == 0 {
		return 0, nil
	}

	if err := s.persistLocked(); err != nil {
		for key, cat := range previous {
			s.categories[key] = cat
		}
		return 0, err
	}

	slog.Info("Applied bulk markup update", "categories", updated)
	return updated, nil
}

// Snapshot captures the categories and global markup under one lock.
func (s *CategoryStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return &Snapshot{
		Categories:   s.sortedCategoriesLocked(),
		GlobalMarkup: s.globalMarkup,
	}, nil
}

// Statistics reports aggregate figures about the store contents.
func (s *CategoryStore) Statistics(ctx context.Context) (*Stats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		TotalCategories: len(s.categories),
		GlobalMarkup:    s.globalMarkup,
	}

	currencySet := make(map[string]bool)
	first := true
	for _, cat := range s.categories {
		if cat.IsActive {
			stats.ActiveCategories++
		}
		stats.TotalPatterns += len(cat.Patterns)
		if cat.CustomMarkupPercent != nil {
			stats.CustomMarkups++
		}
		if cat.Currency != "" {
			currencySet[cat.Currency] = true
		}
		if first || cat.PricePerMinute < stats.MinPricePerMinute {
			stats.MinPricePerMinute = cat.PricePerMinute
		}
		if first || cat.PricePerMinute > stats.MaxPricePerMinute {
			stats.MaxPricePerMinute = cat.PricePerMinute
		}
		if cat.UpdatedAt.After(stats.LastUpdated) {
			stats.LastUpdated = cat.UpdatedAt
		}
		first = false
	}

	stats.Currencies = make([]string, 0, len(currencySet))
	for currency := range currencySet {
		stats.Currencies = append(stats.Currencies, currency)
	}
	sort.Strings(stats.Currencies)

	return stats, nil
}

// Internal helpers. All assume s.mu is held.

func (s *CategoryStore) seedDefaultsLocked() {
	now := time.Now().UTC()
	s.categories = make(map[string]*model.Category)
	for _, cat := range DefaultCategories() {
		cat.CreatedAt = now
		cat.UpdatedAt = now
		entry := cat
		s.categories[cat.Name] = &entry
	}
	s.globalMarkup = DefaultGlobalMarkup
}

func (s *CategoryStore) sortedCategoriesLocked() []model.Category {
	categories := make([]model.Category, 0, len(s.categories))
	for _, cat := range s.categories {
		categories = append(categories, cat.Clone())
	}

	sort.Slice(categories, func(i, j int) bool {
		if categories[i].SortOrder != categories[j].SortOrder {
			return categories[i].SortOrder < categories[j].SortOrder
		}
		return categories[i].Name < categories[j].Name
	})

	return categories
}

func (s *CategoryStore) nextSortOrderLocked() int {
	next := 0
	for _, cat := range s.categories {
		if cat.SortOrder > next {
			next = cat.SortOrder
		}
	}
	return next + 1
}

// assignMissingSortOrdersLocked backfills sort orders for store files
// written before the field existed, keeping name order for stability.
func (s *CategoryStore) assignMissingSortOrdersLocked() {
	var missing []*model.Category
	for _, cat := range s.categories {
		if cat.SortOrder == 0 {
			missing = append(missing, cat)
		}
	}
	if len(missing) == 0 {
		return
	}

	sort.Slice(missing, func(i, j int) bool { return missing[i].Name < missing[j].Name })

	next := s.nextSortOrderLocked()
	for _, cat := range missing {
		cat.SortOrder = next
		next++
	}
}

// decodeStoreFile parses the store file format: a JSON object keyed by
// uppercase category names plus the reserved global markup key.
func decodeStoreFile(data []byte) (map[string]*model.Category, float64, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, fmt.Errorf("parsing store file: %v", err)
	}

	categories := make(map[string]*model.Category, len(raw))
	markup := DefaultGlobalMarkup

	for key, value := range raw {
		if key == globalMarkupKey {
			if err := json.Unmarshal(value, &markup); err != nil {
				return nil, 0, fmt.Errorf("parsing %s: %v", globalMarkupKey, err)
			}
			continue
		}

		var cat model.Category
		if err := json.Unmarshal(value, &cat); err != nil {
			return nil, 0, fmt.Errorf("parsing category %q: %v", key, err)
		}
		cat.Name = model.NormalizeCategoryName(key)
		categories[cat.Name] = &cat
	}

	return categories, markup, nil
}
