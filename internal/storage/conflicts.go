package storage

import (
	"context"
	"sort"
	"strings"

	"github.com/telaro/tariffa/internal/model"
)

// Conflict severity levels.
const (
	ConflictSeverityHigh   = "high"
	ConflictSeverityMedium = "medium"
)

// PatternConflict reports patterns shared by two active categories.
// Conflicts are advisory: at classification time the category earlier in
// classification order wins, records are never double counted.
type PatternConflict struct {
	CategoryA      string
	CategoryB      string
	Severity       string
	SharedPatterns []string
}

// DetectPatternConflicts returns every unordered pair of active
// categories whose pattern sets intersect, compared case-insensitively.
func (s *CategoryStore) DetectPatternConflicts(ctx context.Context) ([]PatternConflict, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	categories := s.sortedCategoriesLocked()
	s.mu.RUnlock()

	var active []model.Category
	for _, cat := range categories {
		if cat.IsActive {
			active = append(active, cat)
		}
	}

	var conflicts []PatternConflict
	for i := 0; i < len(active); i++ {
		for j := i + 1; j < len(active); j++ {
			shared := sharedPatterns(active[i].Patterns, active[j].Patterns)
			if len(shared) == 0 {
				continue
			}

			severity := ConflictSeverityMedium
			if len(shared) > 1 {
				severity = ConflictSeverityHigh
			}

			conflicts = append(conflicts, PatternConflict{
				CategoryA:      active[i].Name,
				CategoryB:      active[j].Name,
				SharedPatterns: shared,
				Severity:       severity,
			})
		}
	}

	return conflicts, nil
}

// sharedPatterns intersects two pattern lists case-insensitively and
// returns the normalized uppercase forms, sorted.
func sharedPatterns(a, b []string) []string {
	setA := make(map[string]bool, len(a))
	for _, p := range a {
		if norm := strings.ToUpper(strings.TrimSpace(p)); norm != "" {
			setA[norm] = true
		}
	}

	sharedSet := make(map[string]bool)
	for _, p := range b {
		if norm := strings.ToUpper(strings.TrimSpace(p)); norm != "" && setA[norm] {
			sharedSet[norm] = true
		}
	}

	shared := make([]string, 0, len(sharedSet))
	for p := range sharedSet {
		shared = append(shared, p)
	}
	sort.Strings(shared)

	return shared
}
