package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/telaro/tariffa/internal/common"
)

// LocalSource serves feed files from a directory on disk, for spools
// that were already delivered out of band.
type LocalSource struct {
	dir string
}

// NewLocalSource creates a source over the given directory.
func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{dir: dir}
}

// List returns the names of regular files in the directory, sorted.
func (s *LocalSource) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", common.ErrTransferFailed, s.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Fetch copies name into destDir. Fetching into the source directory
// itself is a no-op returning the existing path.
func (s *LocalSource) Fetch(ctx context.Context, name, destDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !validName(name) {
		return "", fmt.Errorf("%w: unsafe file name %q", common.ErrTransferFailed, name)
	}

	srcPath := filepath.Join(s.dir, name)
	destPath := filepath.Join(destDir, name)
	if srcPath == destPath {
		return destPath, nil
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating %s: %v", common.ErrTransferFailed, destDir, err)
	}
	if err := copyFile(srcPath, destPath); err != nil {
		return "", err
	}
	return destPath, nil
}

func copyFile(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", common.ErrTransferFailed, srcPath, err)
	}
	defer src.Close()

	tmpPath := destPath + ".tmp"
	dest, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", common.ErrTransferFailed, tmpPath, err)
	}

	if _, err := io.Copy(dest, src); err != nil {
		dest.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: copying %s: %v", common.ErrTransferFailed, srcPath, err)
	}
	if err := dest.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: closing %s: %v", common.ErrTransferFailed, tmpPath, err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: finalizing %s: %v", common.ErrTransferFailed, destPath, err)
	}
	return nil
}
