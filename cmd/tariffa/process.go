package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/telaro/tariffa/internal/cdr"
	"github.com/telaro/tariffa/internal/cli"
	"github.com/telaro/tariffa/internal/pipeline"
)

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <file|dir>...",
		Short: "Run billing batches from local files",
		Long: `Process one or more batch files through classification, pricing and
aggregation, writing per-contract reports and a global summary.

Raw semicolon feeds are parsed on the fly; converted JSON documents are
read as-is. Directories are expanded to the batch files they contain.

Examples:
  tariffa process RIV_12345_MESE_07_2025-001.CDR
  tariffa process ~/cdr/incoming
  tariffa process batch1.json batch2.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: runProcess,
	}

	return cmd
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	files, err := collectBatchFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no batch files found to process")
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	store, err := openStore(ctx, settings)
	if err != nil {
		return err
	}

	pipe := newPipeline(store, settings)

	slog.Info("Processing batches", "file_count", len(files), "report_dir", settings.Paths.ReportDir)

	var bar *progressbar.ProgressBar
	if len(files) > 1 {
		bar = cli.NewProgressBar(len(files), "Processing batches...", os.Stdout)
	}

	var results []*pipeline.Result
	failures := 0
	for _, path := range files {
		res, err := pipe.ProcessFile(ctx, path)
		if err != nil {
			failures++
			slog.Error("Batch failed", "file", filepath.Base(path), "error", err)
		} else {
			results = append(results, res)
		}

		if bar != nil {
			if err := bar.Add(1); err != nil {
				slog.Warn("Failed to update progress bar", "error", err)
			}
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	for _, res := range results {
		fmt.Println(renderRunResult(res))
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d batches failed", failures, len(files))
	}

	return nil
}

// collectBatchFiles expands the arguments into a sorted list of batch
// files. Arguments may be files, directories or glob patterns.
func collectBatchFiles(args []string) ([]string, error) {
	var files []string

	appendFile := func(path string) {
		name := filepath.Base(path)
		if cdr.IsFeedFile(name) || strings.EqualFold(filepath.Ext(name), ".json") {
			files = append(files, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		switch {
		case err == nil && info.IsDir():
			entries, err := os.ReadDir(arg)
			if err != nil {
				return nil, fmt.Errorf("failed to read directory %s: %w", arg, err)
			}
			for _, entry := range entries {
				if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
					continue
				}
				appendFile(filepath.Join(arg, entry.Name()))
			}
		case err == nil:
			files = append(files, arg)
		default:
			matches, globErr := filepath.Glob(arg)
			if globErr != nil {
				return nil, fmt.Errorf("invalid pattern %s: %w", arg, globErr)
			}
			if len(matches) == 0 {
				return nil, fmt.Errorf("no files found matching %s", arg)
			}
			for _, m := range matches {
				appendFile(m)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}
