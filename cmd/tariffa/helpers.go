package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/telaro/tariffa/internal/cli"
	"github.com/telaro/tariffa/internal/config"
	"github.com/telaro/tariffa/internal/pipeline"
	"github.com/telaro/tariffa/internal/report"
	"github.com/telaro/tariffa/internal/storage"
)

// loadSettings resolves the full application configuration from viper.
func loadSettings() (*config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return settings, nil
}

// openStore opens the category store named by the settings and loads it,
// seeding the default categories when the file does not exist yet.
func openStore(ctx context.Context, settings *config.Settings) (*storage.CategoryStore, error) {
	store, err := storage.NewCategoryStore(settings.Paths.CategoriesFile)
	if err != nil {
		return nil, err
	}

	if err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load category store: %w", err)
	}

	return store, nil
}

// newPipeline wires the batch pipeline against the store and the
// configured report directory.
func newPipeline(store *storage.CategoryStore, settings *config.Settings) *pipeline.Pipeline {
	writer := report.NewWriter(settings.Paths.ReportDir)
	return pipeline.NewWithConfig(store, writer, pipeline.Config{
		BillingMode: settings.BillingMode(),
	})
}

// renderRunResult formats a completed batch run as a styled summary box.
func renderRunResult(res *pipeline.Result) string {
	content := fmt.Sprintf("Records: %d\n", res.RecordCount) +
		fmt.Sprintf("Contracts billed: %d\n", res.ContractCount) +
		fmt.Sprintf("Carrier cost: %s\n", cli.FormatMoney(res.TotalOriginalCost, res.Currency)) +
		fmt.Sprintf("Customer cost: %s\n", cli.FormatMoney(res.TotalCustomerCost, res.Currency)) +
		fmt.Sprintf("Duration: %s", res.Duration)

	if res.ExcludedRecords > 0 {
		content += fmt.Sprintf("\nExcluded (no contract): %d", res.ExcludedRecords)
	}
	if res.UnmatchedRecords > 0 {
		content += fmt.Sprintf("\nUnmatched call types: %d (%s)",
			res.UnmatchedRecords, strings.Join(res.UnmatchedLabels, ", "))
	}
	if res.SummaryPath != "" {
		content += fmt.Sprintf("\nSummary: %s", res.SummaryPath)
	}

	return cli.RenderBox(fmt.Sprintf("%s Batch Complete", cli.ReportIcon), content)
}
