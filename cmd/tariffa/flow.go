package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telaro/tariffa/internal/cdr"
	"github.com/telaro/tariffa/internal/cli"
	"github.com/telaro/tariffa/internal/common"
	"github.com/telaro/tariffa/internal/config"
	"github.com/telaro/tariffa/internal/transfer"
)

func flowCmd() *cobra.Command {
	var (
		pattern     string
		downloadAll bool
		skipFetch   bool
	)

	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Run the full billing flow",
		Long: `Fetch the current feed files from the carrier drop, convert them to
JSON batches, and process every batch into billing reports.

This is the same flow the scheduler runs on its timetable. Without a
configured FTP host the fetch step falls back to the local input
directory.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			handler := cli.NewInterruptHandler(nil)
			ctx := handler.HandleInterrupts(cmd.Context(), false)

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			opts := flowOptions{
				downloadAll: downloadAll,
				skipFetch:   skipFetch,
			}
			if cmd.Flags().Changed("pattern") {
				opts.pattern = &pattern
			}

			return runFullFlow(ctx, settings, opts)
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "", "Override the configured fetch pattern")
	cmd.Flags().BoolVar(&downloadAll, "all", false, "Fetch every file regardless of pattern")
	cmd.Flags().BoolVar(&skipFetch, "skip-fetch", false, "Skip the FTP fetch and use the local input directory")

	return cmd
}

// flowOptions tweaks a single flow run. A nil pattern means the
// configured one.
type flowOptions struct {
	pattern     *string
	downloadAll bool
	skipFetch   bool
}

// runFullFlow executes fetch, convert and process as one run. The
// category store is reopened every time so a long-lived scheduler picks
// up category and markup edits between runs.
func runFullFlow(ctx context.Context, settings *config.Settings, opts flowOptions) error {
	var src transfer.Source
	if opts.skipFetch || settings.FTP.Host == "" {
		if !opts.skipFetch {
			slog.Info("No FTP host configured, using the local input directory")
		}
		src = transfer.NewLocalSource(settings.Paths.InputDir)
	} else {
		src = transfer.NewFTPSource(settings.FTPConfig())
	}

	pattern := settings.FetchPattern()
	if opts.pattern != nil {
		pattern = *opts.pattern
	}
	if opts.downloadAll {
		pattern = ""
	}

	fetched, err := transfer.FetchMatching(ctx, src, pattern, settings.Paths.InputDir)
	if err != nil {
		if errors.Is(err, common.ErrNoRemoteFiles) {
			slog.Warn("Nothing to process", "pattern", pattern)
			return nil
		}
		return fmt.Errorf("fetch failed: %w", err)
	}

	batches := convertBatches(ctx, fetched, settings.Paths.ConvertedDir)
	if len(batches) == 0 {
		return fmt.Errorf("no batches left to process after conversion")
	}

	store, err := openStore(ctx, settings)
	if err != nil {
		return err
	}
	pipe := newPipeline(store, settings)

	failures := 0
	for _, path := range batches {
		res, err := pipe.ProcessFile(ctx, path)
		if err != nil {
			failures++
			slog.Error("Batch failed", "file", filepath.Base(path), "error", err)
			continue
		}
		fmt.Println(renderRunResult(res))

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d batches failed", failures, len(batches))
	}
	return nil
}

// convertBatches turns raw feed files into JSON batch documents in
// destDir. Files that are already JSON pass through untouched; a failed
// conversion is logged and skipped.
func convertBatches(ctx context.Context, files []string, destDir string) []string {
	parser := cdr.NewParser()

	batches := make([]string, 0, len(files))
	for _, path := range files {
		name := filepath.Base(path)
		switch {
		case cdr.IsFeedFile(name):
			converted, err := parser.ConvertFile(ctx, path, destDir)
			if err != nil {
				slog.Error("Failed to convert feed file", "file", name, "error", err)
				continue
			}
			slog.Info("Converted feed file", "file", name, "converted", filepath.Base(converted))
			batches = append(batches, converted)
		case strings.EqualFold(filepath.Ext(name), ".json"):
			batches = append(batches, path)
		default:
			slog.Warn("Skipping unrecognized file", "file", name)
		}
	}
	return batches
}
