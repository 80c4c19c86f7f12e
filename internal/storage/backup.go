package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/telaro/tariffa/internal/common"
)

// backupTimestampLayout names store backups so lexical order matches
// chronological order.
const backupTimestampLayout = "20060102_150405"

// persistLocked writes the store file atomically: the current file is
// copied to a timestamped backup, the new contents go to a temp file in
// the same directory, and the temp file is renamed over the target.
// Callers must hold s.mu.
func (s *CategoryStore) persistLocked() error {
	doc := make(map[string]any, len(s.categories)+1)
	for name, cat := range s.categories {
		doc[name] = cat
	}
	doc[globalMarkupKey] = s.globalMarkup

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding store: %v", common.ErrWriteFailure, err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("%w: creating store directory: %v", common.ErrWriteFailure, err)
		}
	}

	if err := s.backupCurrentLocked(); err != nil {
		return err
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("%w: writing %s: %v", common.ErrWriteFailure, tmpPath, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		if rmErr := os.Remove(tmpPath); rmErr != nil {
			slog.Error("failed to remove temporary store file", "error", rmErr)
		}
		return fmt.Errorf("%w: replacing %s: %v", common.ErrWriteFailure, s.path, err)
	}

	return nil
}

// backupCurrentLocked copies the existing store file to a timestamped
// sibling before it is overwritten, then prunes backups beyond the
// retention limit. A retention of 0 disables backups entirely.
func (s *CategoryStore) backupCurrentLocked() error {
	if s.backupsToKeep == 0 {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: reading store for backup: %v", common.ErrWriteFailure, err)
	}

	backupPath := fmt.Sprintf("%s.backup.%s", s.path, time.Now().Format(backupTimestampLayout))
	if err := os.WriteFile(backupPath, data, 0600); err != nil {
		return fmt.Errorf("%w: writing backup %s: %v", common.ErrWriteFailure, backupPath, err)
	}

	s.pruneBackupsLocked()
	return nil
}

// pruneBackupsLocked deletes the oldest backups beyond the retention
// limit. Pruning failures are logged, never fatal.
func (s *CategoryStore) pruneBackupsLocked() {
	backups, err := s.backupPaths()
	if err != nil {
		slog.Warn("Failed to list store backups for pruning", "error", err)
		return
	}

	if len(backups) <= s.backupsToKeep {
		return
	}

	for _, old := range backups[s.backupsToKeep:] {
		if err := os.Remove(old); err != nil {
			slog.Warn("Failed to prune old store backup", "path", old, "error", err)
			continue
		}
		slog.Debug("Pruned old store backup", "path", old)
	}
}

// ListBackups returns the store backup paths, newest first.
func (s *CategoryStore) ListBackups(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.backupPaths()
}

// backupPaths lists backup files next to the store file, newest first.
func (s *CategoryStore) backupPaths() ([]string, error) {
	dir := filepath.Dir(s.path)
	prefix := filepath.Base(s.path) + ".backup."

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read store directory: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		backups = append(backups, filepath.Join(dir, entry.Name()))
	}

	// Timestamped names sort chronologically; reverse for newest first.
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))

	return backups, nil
}
