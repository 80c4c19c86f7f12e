package storage

import "github.com/telaro/tariffa/internal/model"

// DefaultGlobalMarkup is the store-wide markup seeded into new stores.
const DefaultGlobalMarkup = 0.0

// essentialCategories cannot be deleted; classification of the standard
// national traffic depends on them.
var essentialCategories = map[string]bool{
	"FISSI":  true,
	"MOBILI": true,
}

// IsEssential reports whether a category name is protected from deletion.
func IsEssential(name string) bool {
	return essentialCategories[model.NormalizeCategoryName(name)]
}

// DefaultCategories returns the seed categories for a new store, in
// classification order.
func DefaultCategories() []model.Category {
	return []model.Category{
		{
			Name:           "FISSI",
			DisplayName:    "Chiamate Fisso",
			PricePerMinute: 0.02,
			Currency:       "EUR",
			Patterns:       []string{"INTERRURBANE URBANE", "INTERURBANE URBANE", "URBANE", "FISSO", "RETE FISSA", "TELEFONIA FISSA", "LOCALE", "DISTRETTUALE"},
			Description:    "Chiamate verso numeri fissi nazionali",
			SortOrder:      1,
			IsActive:       true,
		},
		{
			Name:           "MOBILI",
			DisplayName:    "Chiamate Mobile",
			PricePerMinute: 0.15,
			Currency:       "EUR",
			Patterns:       []string{"CELLULARE", "MOBILE", "RETE MOBILE", "TELEFONIA MOBILE", "GSM", "UMTS", "LTE", "WIND", "TIM", "VODAFONE", "ILIAD"},
			Description:    "Chiamate verso numeri mobili",
			SortOrder:      2,
			IsActive:       true,
		},
		{
			Name:           "FAX",
			DisplayName:    "Servizi Fax",
			PricePerMinute: 0.02,
			Currency:       "EUR",
			Patterns:       []string{"FAX", "TELEFAX", "FACSIMILE"},
			Description:    "Servizi di fax",
			SortOrder:      3,
			IsActive:       true,
		},
		{
			Name:           "NUMERI_VERDI",
			DisplayName:    "Numeri Verdi",
			PricePerMinute: 0.00,
			Currency:       "EUR",
			Patterns:       []string{"NUMERO VERDE", "VERDE", "800", "GRATUITO", "TOLL FREE"},
			Description:    "Numeri verdi e gratuiti",
			SortOrder:      4,
			IsActive:       true,
		},
		{
			Name:           "INTERNAZIONALI",
			DisplayName:    "Chiamate Internazionali",
			PricePerMinute: 0.25,
			Currency:       "EUR",
			Patterns:       []string{"INTERNAZIONALE", "INTERNATIONAL", "ESTERO", "UE", "EUROPA", "MONDO", "ROAMING", "EXTRA UE"},
			Description:    "Chiamate internazionali",
			SortOrder:      5,
			IsActive:       true,
		},
	}
}
