package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/telaro/tariffa/internal/classify"
	"github.com/telaro/tariffa/internal/cli"
)

func priceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Preview customer pricing",
	}

	cmd.AddCommand(pricePreviewCmd())

	return cmd
}

func pricePreviewCmd() *cobra.Command {
	var (
		basePrice float64
		markups   []float64
	)

	cmd := &cobra.Command{
		Use:   "preview [category]",
		Short: "Show customer rates for a range of markups",
		Long: `Print the per-minute customer rate a base price yields under a range
of markup percentages. Pass a category name to preview its configured
base price, or --price for an arbitrary one.

Examples:
  tariffa price preview URBANE
  tariffa price preview --price 0.15
  tariffa price preview CELLULARE --markup 10 --markup 35`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			label := "base price"
			if len(args) == 1 {
				settings, err := loadSettings()
				if err != nil {
					return err
				}

				store, err := openStore(ctx, settings)
				if err != nil {
					return err
				}

				cat, err := store.GetCategory(ctx, args[0])
				if err != nil {
					return fmt.Errorf("failed to get category: %w", err)
				}

				basePrice = cat.PricePerMinute
				label = cat.Name
			} else if !cmd.Flags().Changed("price") {
				return fmt.Errorf("pass a category name or --price")
			}

			scenarios := classify.PreviewMarkups(basePrice, markups)

			fmt.Println(cli.FormatInfo(fmt.Sprintf("Markup scenarios for %s at %.4f/min", label, basePrice)))

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\n",
				cli.TableHeaderStyle.Render("Markup"),
				cli.TableHeaderStyle.Render("Customer rate/min"))
			fmt.Fprintf(w, "%s\t%s\n", strings.Repeat("-", 8), strings.Repeat("-", 18))

			for _, s := range scenarios {
				fmt.Fprintf(w, "%s\t%.4f\n", cli.FormatPercent(s.MarkupPercent), s.PricePerMinute)
			}

			return nil
		},
	}

	cmd.Flags().Float64Var(&basePrice, "price", 0, "Base carrier price per minute")
	cmd.Flags().Float64SliceVar(&markups, "markup", nil, "Markup percent to preview, repeatable (default scenario range)")

	return cmd
}
