package transfer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var patternNow = time.Date(2025, 7, 15, 14, 30, 45, 0, time.UTC)

func TestExpandPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    string
	}{
		{
			name:    "month and year",
			pattern: "RIV_12345_MESE_%m_%Y-*.CDR",
			want:    "RIV_12345_MESE_07_2025-*.CDR",
		},
		{
			name:    "short year",
			pattern: "report_%y%m%d.csv",
			want:    "report_250715.csv",
		},
		{
			name:    "time tokens",
			pattern: "dump_%H%M%S",
			want:    "dump_143045",
		},
		{
			name:    "no tokens",
			pattern: "plain.CDR",
			want:    "plain.CDR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPattern(tt.pattern, patternNow))
		})
	}
}

func TestMatchName(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		pattern  string
		want     bool
	}{
		{
			name:     "glob with expanded month",
			fileName: "RIV_12345_MESE_07_2025-001.CDR",
			pattern:  "RIV_*_MESE_%m_%Y-*.CDR",
			want:     true,
		},
		{
			name:     "glob wrong month",
			fileName: "RIV_12345_MESE_06_2025-001.CDR",
			pattern:  "RIV_*_MESE_%m_%Y-*.CDR",
			want:     false,
		},
		{
			name:     "case insensitive glob",
			fileName: "riv_12345_mese_07_2025-001.cdr",
			pattern:  "RIV_*_MESE_07_*.CDR",
			want:     true,
		},
		{
			name:     "exact name",
			fileName: "batch.json",
			pattern:  "batch.json",
			want:     true,
		},
		{
			name:     "exact name case fold",
			fileName: "BATCH.JSON",
			pattern:  "batch.json",
			want:     true,
		},
		{
			name:     "empty pattern matches all",
			fileName: "anything.bin",
			pattern:  "",
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchName(tt.fileName, tt.pattern, patternNow))
		})
	}
}

func TestFilterNames(t *testing.T) {
	names := []string{
		"RIV_12345_MESE_07_2025-001.CDR",
		"RIV_12345_MESE_07_2025-002.CDR",
		"RIV_99999_MESE_06_2025-001.CDR",
		".hidden",
		"archive/",
		"notes.txt",
	}

	matched := FilterNames(names, "RIV_*_MESE_07_*.CDR", patternNow)
	assert.Equal(t, []string{
		"RIV_12345_MESE_07_2025-001.CDR",
		"RIV_12345_MESE_07_2025-002.CDR",
	}, matched)

	// Empty pattern keeps all regular entries.
	all := FilterNames(names, "", patternNow)
	assert.Len(t, all, 4)
	assert.NotContains(t, all, ".hidden")
	assert.NotContains(t, all, "archive/")
}
