package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/telaro/tariffa/internal/cli"
	"github.com/telaro/tariffa/internal/model"
	"github.com/telaro/tariffa/internal/storage"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage pricing categories",
		Long:  `List, add, update, and delete the pricing categories used to classify and price calls.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())
	cmd.AddCommand(conflictsCmd())
	cmd.AddCommand(statsCmd())
	cmd.AddCommand(exportCategoriesCmd())
	cmd.AddCommand(importCategoriesCmd())
	cmd.AddCommand(resetCategoriesCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	var showInactive bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		Long:  `Display the pricing categories in classification order with their rates and patterns.`,
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

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			markup, err := store.GlobalMarkup(ctx)
			if err != nil {
				return fmt.Errorf("failed to get global markup: %w", err)
			}

			if len(categories) == 0 {
				fmt.Println(cli.InfoStyle.Render("No categories found. Use 'tariffa categories add' to create one."))
				return nil
			}

			fmt.Println(cli.FormatInfo(fmt.Sprintf("Global markup: %s", cli.FormatPercent(markup))))
			fmt.Println()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Name"),
				cli.TableHeaderStyle.Render("Display"),
				cli.TableHeaderStyle.Render("Price/min"),
				cli.TableHeaderStyle.Render("Markup"),
				cli.TableHeaderStyle.Render("Active"),
				cli.TableHeaderStyle.Render("Patterns"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 16),
				strings.Repeat("-", 20),
				strings.Repeat("-", 10),
				strings.Repeat("-", 8),
				strings.Repeat("-", 6),
				strings.Repeat("-", 40))

			for _, cat := range categories {
				if !cat.IsActive && !showInactive {
					continue
				}

				markupCol := cli.SubtleStyle.Render("(global)")
				if cat.CustomMarkupPercent != nil {
					markupCol = cli.FormatPercent(*cat.CustomMarkupPercent)
				}

				active := cli.SuccessIcon
				if !cat.IsActive {
					active = cli.SubtleStyle.Render("off")
				}

				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					cat.Name,
					cat.DisplayName,
					cli.FormatMoney(cat.PricePerMinute, cat.Currency),
					markupCol,
					active,
					strings.Join(cat.Patterns, ", "))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&showInactive, "all", false, "Include inactive categories")

	return cmd
}

func addCategoryCmd() *cobra.Command {
	var (
		displayName string
		description string
		currency    string
		patterns    []string
		price       float64
		markup      float64
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Long: `Create a new pricing category. Patterns are matched case-insensitively
against the raw call type label; the first category in sort order wins.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			store, err := openStore(ctx, settings)
			if err != nil {
				return err
			}

			cat := model.Category{
				Name:           args[0],
				DisplayName:    displayName,
				Description:    description,
				Currency:       currency,
				PricePerMinute: price,
				Patterns:       patterns,
			}
			if cat.DisplayName == "" {
				cat.DisplayName = args[0]
			}
			if cmd.Flags().Changed("markup") {
				cat.CustomMarkupPercent = &markup
			}

			created, err := store.AddCategory(ctx, cat)
			if err != nil {
				return fmt.Errorf("failed to add category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created category %q at %s",
				created.Name, cli.FormatMoney(created.PricePerMinute, created.Currency))))
			return nil
		},
	}

	cmd.Flags().StringVar(&displayName, "display", "", "Human-readable name shown in reports (defaults to the name)")
	cmd.Flags().StringVar(&description, "description", "", "Category description")
	cmd.Flags().StringVar(&currency, "currency", "", "Currency code (default EUR)")
	cmd.Flags().Float64Var(&price, "price", 0, "Base carrier price per minute")
	cmd.Flags().StringSliceVar(&patterns, "pattern", nil, "Call type pattern, repeatable (at least one required)")
	cmd.Flags().Float64Var(&markup, "markup", 0, "Custom markup percent overriding the global markup")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("pattern")

	return cmd
}

func updateCategoryCmd() *cobra.Command {
	var (
		displayName string
		description string
		currency    string
		patterns    []string
		price       float64
		active      bool
	)

	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Update a category",
		Long:  `Update fields of an existing category. Only the flags you pass are changed.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			update := storage.CategoryUpdate{}
			changed := false
			if cmd.Flags().Changed("display") {
				update.DisplayName = &displayName
				changed = true
			}
			if cmd.Flags().Changed("description") {
				update.Description = &description
				changed = true
			}
			if cmd.Flags().Changed("currency") {
				update.Currency = &currency
				changed = true
			}
			if cmd.Flags().Changed("price") {
				update.PricePerMinute = &price
				changed = true
			}
			if cmd.Flags().Changed("pattern") {
				update.Patterns = patterns
				changed = true
			}
			if cmd.Flags().Changed("active") {
				update.IsActive = &active
				changed = true
			}

			if !changed {
				return fmt.Errorf("nothing to update, pass at least one flag")
			}

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			store, err := openStore(ctx, settings)
			if err != nil {
				return err
			}

			updated, err := store.UpdateCategory(ctx, args[0], update)
			if err != nil {
				return fmt.Errorf("failed to update category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated category %q", updated.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&displayName, "display", "", "New display name")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&currency, "currency", "", "New currency code")
	cmd.Flags().Float64Var(&price, "price", 0, "New base price per minute")
	cmd.Flags().StringSliceVar(&patterns, "pattern", nil, "Replacement pattern set, repeatable")
	cmd.Flags().BoolVar(&active, "active", true, "Activate or deactivate the category")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a category",
		Long:  `Delete a category. The fallback category and other essential categories cannot be deleted.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			name := model.NormalizeCategoryName(args[0])

			if !force {
				ok, err := cli.Confirm(ctx, os.Stdin, os.Stdout,
					fmt.Sprintf("Delete category %q? This cannot be undone.", name))
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

			if err := store.DeleteCategory(ctx, name); err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted category %q", name)))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}
