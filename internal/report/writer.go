// Package report persists billing artifacts as JSON files and lists
// previously generated ones.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/telaro/tariffa/internal/common"
	"github.com/telaro/tariffa/internal/model"
)

const (
	timestampLayout = "20060102_150405"
	summaryPrefix   = "SUMMARY"
)

// Writer writes contract reports and global summaries into a single
// output directory. Existing artifacts are never overwritten; a name
// collision gets a numeric suffix instead.
type Writer struct {
	now func() time.Time
	dir string
}

// NewWriter creates a Writer rooted at dir. The directory is created
// lazily on the first write.
func NewWriter(dir string) *Writer {
	return &Writer{
		dir: dir,
		now: time.Now,
	}
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// ReportInfo describes one artifact found in the output directory.
type ReportInfo struct {
	ModTime   time.Time
	Name      string
	Path      string
	Size      int64
	IsSummary bool
}

// WriteContractReport persists a per-contract report and returns the
// path it was written to.
func (w *Writer) WriteContractReport(ctx context.Context, rep *model.ContractReport) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if rep == nil {
		return "", errors.New("report cannot be nil")
	}
	if rep.Metadata.ContractCode == "" {
		return "", errors.New("contract code cannot be empty")
	}

	now := w.now()
	base := fmt.Sprintf("%s_%s_%s",
		sanitizeName(rep.Metadata.ContractCode),
		now.Format("01"),
		now.Format(timestampLayout))

	path, err := w.writeArtifact(base, rep)
	if err != nil {
		return "", err
	}

	slog.Debug("Wrote contract report",
		"contract_code", rep.Metadata.ContractCode,
		"path", path)
	return path, nil
}

// WriteSummary persists the cross-contract summary and returns the path
// it was written to.
func (w *Writer) WriteSummary(ctx context.Context, sum *model.GlobalSummary) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if sum == nil {
		return "", errors.New("summary cannot be nil")
	}

	now := w.now()
	base := fmt.Sprintf("%s_%s_%s",
		summaryPrefix,
		now.Format("01"),
		now.Format(timestampLayout))

	path, err := w.writeArtifact(base, sum)
	if err != nil {
		return "", err
	}

	slog.Debug("Wrote global summary", "path", path)
	return path, nil
}

// ListReports returns every JSON artifact in the output directory,
// newest first. A missing directory yields an empty list.
func (w *Writer) ListReports(ctx context.Context) ([]ReportInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading report directory: %w", err)
	}

	infos := make([]ReportInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, ReportInfo{
			Name:      entry.Name(),
			Path:      filepath.Join(w.dir, entry.Name()),
			Size:      fi.Size(),
			ModTime:   fi.ModTime(),
			IsSummary: strings.HasPrefix(entry.Name(), summaryPrefix+"_"),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].ModTime.Equal(infos[j].ModTime) {
			// Names embed the write timestamp, so reverse lexical
			// order keeps newest first on equal mtimes.
			return infos[i].Name > infos[j].Name
		}
		return infos[i].ModTime.After(infos[j].ModTime)
	})
	return infos, nil
}

// ReadContractReport loads a previously written per-contract report.
func (w *Writer) ReadContractReport(ctx context.Context, path string) (*model.ContractReport, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: report %s", common.ErrNotFound, filepath.Base(path))
		}
		return nil, fmt.Errorf("reading report: %w", err)
	}

	var rep model.ContractReport
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", filepath.Base(path), err)
	}
	return &rep, nil
}

func (w *Writer) writeArtifact(base string, v any) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating report directory: %v", common.ErrWriteFailure, err)
	}

	path := w.uniquePath(base)

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: marshaling %s: %v", common.ErrWriteFailure, filepath.Base(path), err)
	}
	data = append(data, '\n')

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", common.ErrWriteFailure, filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: finalizing %s: %v", common.ErrWriteFailure, filepath.Base(path), err)
	}
	return path, nil
}

// uniquePath returns dir/base.json, or the first dir/base_N.json (N
// starting at 2) that does not exist yet.
func (w *Writer) uniquePath(base string) string {
	path := filepath.Join(w.dir, base+".json")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return path
	}
	for n := 2; ; n++ {
		candidate := filepath.Join(w.dir, fmt.Sprintf("%s_%d.json", base, n))
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			return candidate
		}
	}
}

// sanitizeName keeps file names portable. Anything outside a small
// safe set becomes a dash.
func sanitizeName(code string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, code)
	if mapped == "" {
		return "UNKNOWN"
	}
	return mapped
}

func validateContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context cannot be nil")
	}
	return ctx.Err()
}
