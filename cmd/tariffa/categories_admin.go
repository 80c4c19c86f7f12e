package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/telaro/tariffa/internal/cli"
	"github.com/telaro/tariffa/internal/storage"
)

func conflictsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "Detect overlapping category patterns",
		Long: `Report pairs of active categories that share a pattern. Overlaps are
advisory: at classification time the category earlier in sort order wins.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			store, err := openStore(ctx, settings)
			if err != nil {
				return err
			}

			conflicts, err := store.DetectPatternConflicts(ctx)
			if err != nil {
				return fmt.Errorf("failed to detect conflicts: %w", err)
			}

			if len(conflicts) == 0 {
				fmt.Println(cli.FormatSuccess("No pattern conflicts found."))
				return nil
			}

			fmt.Println(cli.FormatWarning(fmt.Sprintf("Found %d pattern conflict(s):", len(conflicts))))
			for _, c := range conflicts {
				severity := cli.StyleWarning(c.Severity)
				if c.Severity == storage.ConflictSeverityHigh {
					severity = cli.StyleError(c.Severity)
				}
				fmt.Printf("  %s %s ↔ %s (%s): %s\n",
					cli.WarningIcon, c.CategoryA, c.CategoryB, severity,
					strings.Join(c.SharedPatterns, ", "))
			}

			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show category store statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			store, err := openStore(ctx, settings)
			if err != nil {
				return err
			}

			stats, err := store.Statistics(ctx)
			if err != nil {
				return fmt.Errorf("failed to compute statistics: %w", err)
			}

			content := fmt.Sprintf("Categories: %d (%d active)\n", stats.TotalCategories, stats.ActiveCategories) +
				fmt.Sprintf("Patterns: %d\n", stats.TotalPatterns) +
				fmt.Sprintf("Global markup: %s\n", cli.FormatPercent(stats.GlobalMarkup)) +
				fmt.Sprintf("Custom markups: %d\n", stats.CustomMarkups) +
				fmt.Sprintf("Price range: %.4f - %.4f /min\n", stats.MinPricePerMinute, stats.MaxPricePerMinute) +
				fmt.Sprintf("Currencies: %s\n", strings.Join(stats.Currencies, ", ")) +
				fmt.Sprintf("Last updated: %s\n", stats.LastUpdated.Format("2006-01-02 15:04:05")) +
				fmt.Sprintf("Store file: %s", store.Path())

			fmt.Println(cli.RenderBox(fmt.Sprintf("%s Category Store", cli.PhoneIcon), content))
			return nil
		},
	}
}

func exportCategoriesCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export categories to JSON or CSV",
		Long: `Write the category store to stdout or a file. The JSON form is the
store file format and can be fed back into 'tariffa categories import'.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			store, err := openStore(ctx, settings)
			if err != nil {
				return err
			}

			var data []byte
			switch format {
			case "json":
				data, err = store.ExportJSON(ctx)
			case "csv":
				data, err = store.ExportCSV(ctx)
			default:
				return fmt.Errorf("invalid export format %q (json, csv)", format)
			}
			if err != nil {
				return fmt.Errorf("failed to export categories: %w", err)
			}

			if output == "" {
				fmt.Print(string(data))
				return nil
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported categories to %s", output)))
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "Export format (json, csv)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")

	return cmd
}

func importCategoriesCmd() *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import categories from a JSON export",
		Long: `Load categories from an exported JSON document. By default imported
categories are merged over the existing ones by name; --replace swaps
the whole store, global markup included.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			store, err := openStore(ctx, settings)
			if err != nil {
				return err
			}

			count, err := store.Import(ctx, data, replace)
			if err != nil {
				return fmt.Errorf("failed to import categories: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d categories from %s", count, args[0])))
			return nil
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the whole store instead of merging")

	return cmd
}

func resetCategoriesCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the store to the default categories",
		Long:  `Drop every category and markup override and reseed the built-in defaults.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if !force {
				ok, err := cli.Confirm(ctx, os.Stdin, os.Stdout,
					"Reset the category store? All custom categories and markups will be lost.")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println(cli.FormatInfo("Aborted."))
					return nil
				}
			}

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			store, err := openStore(ctx, settings)
			if err != nil {
				return err
			}

			if err := store.ResetDefaults(ctx); err != nil {
				return fmt.Errorf("failed to reset categories: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Category store reset to defaults."))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}
