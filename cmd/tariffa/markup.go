package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/telaro/tariffa/internal/cli"
)

func markupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markup",
		Short: "Manage markup percentages",
		Long: `View and change the global markup and per-category overrides applied
on top of carrier base prices.`,
	}

	cmd.AddCommand(getMarkupCmd())
	cmd.AddCommand(setMarkupCmd())
	cmd.AddCommand(clearMarkupCmd())

	return cmd
}

func getMarkupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show the global markup and category overrides",
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

			markup, err := store.GlobalMarkup(ctx)
			if err != nil {
				return fmt.Errorf("failed to get global markup: %w", err)
			}

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			fmt.Println(cli.FormatInfo(fmt.Sprintf("Global markup: %s", cli.FormatPercent(markup))))

			overrides := 0
			for _, cat := range categories {
				if cat.CustomMarkupPercent == nil {
					continue
				}
				if overrides == 0 {
					fmt.Println()
					fmt.Println(cli.BoldStyle.Render("Category overrides:"))
				}
				overrides++
				fmt.Printf("  %s: %s\n", cat.Name, cli.FormatPercent(*cat.CustomMarkupPercent))
			}

			if overrides == 0 {
				fmt.Println(cli.SubtleStyle.Render("No category overrides, every category uses the global markup."))
			}

			return nil
		},
	}
}

func setMarkupCmd() *cobra.Command {
	var categories []string

	cmd := &cobra.Command{
		Use:   "set <percent>",
		Short: "Set the global markup or category overrides",
		Long: `Without flags the global markup changes and applies to every category
that has no override. With --category the given categories get a custom
markup instead; the global value stays untouched.

Already-written reports never change: markups apply from the next batch run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			percent, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid markup percent %q: %w", args[0], err)
			}

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			store, err := openStore(ctx, settings)
			if err != nil {
				return err
			}

			if len(categories) == 0 {
				if err := store.SetGlobalMarkup(ctx, percent); err != nil {
					return fmt.Errorf("failed to set global markup: %w", err)
				}
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Global markup set to %s", cli.FormatPercent(percent))))
				return nil
			}

			count, err := store.SetMarkupBulk(ctx, categories, &percent)
			if err != nil {
				return fmt.Errorf("failed to set category markup: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Set markup %s on %d categories",
				cli.FormatPercent(percent), count)))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&categories, "category", nil, "Category to override, repeatable")

	return cmd
}

func clearMarkupCmd() *cobra.Command {
	var categories []string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove category markup overrides",
		Long:  `Clear custom markups so the categories fall back to the global markup.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if len(categories) == 0 {
				return fmt.Errorf("pass at least one --category to clear")
			}

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			store, err := openStore(ctx, settings)
			if err != nil {
				return err
			}

			count, err := store.SetMarkupBulk(ctx, categories, nil)
			if err != nil {
				return fmt.Errorf("failed to clear category markup: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Cleared markup overrides on %d categories", count)))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&categories, "category", nil, "Category to clear, repeatable")

	return cmd
}
