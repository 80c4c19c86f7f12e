// Package transfer fetches carrier feed files from remote drops into
// the local input directory.
package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/telaro/tariffa/internal/common"
)

// Source is a location feed files can be listed and fetched from.
type Source interface {
	// List returns the file names available at the source.
	List(ctx context.Context) ([]string, error)
	// Fetch downloads one file into destDir and returns the local path.
	Fetch(ctx context.Context, name, destDir string) (string, error)
}

// FetchMatching lists the source, filters names against the
// strftime-style pattern and downloads every match into destDir. A
// single failed download is logged and skipped; it only fails when
// nothing could be downloaded at all.
func FetchMatching(ctx context.Context, src Source, pattern, destDir string) ([]string, error) {
	names, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing source: %v", common.ErrTransferFailed, err)
	}

	matched := FilterNames(names, pattern, time.Now())
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: pattern %q matched none of %d files",
			common.ErrNoRemoteFiles, pattern, len(names))
	}

	local := make([]string, 0, len(matched))
	for _, name := range matched {
		path, err := src.Fetch(ctx, name, destDir)
		if err != nil {
			slog.Error("Failed to fetch file", "name", name, "error", err)
			continue
		}
		slog.Info("Fetched file", "name", name, "path", path)
		local = append(local, path)
	}

	if len(local) == 0 {
		return nil, fmt.Errorf("%w: all %d downloads failed", common.ErrTransferFailed, len(matched))
	}
	return local, nil
}

// validName rejects names that could escape the destination directory.
func validName(name string) bool {
	if name == "" || len(name) > 255 {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return !strings.Contains(name, "..")
}
