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

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Test call type classification",
	}

	cmd.AddCommand(classifyTestCmd())

	return cmd
}

func classifyTestCmd() *cobra.Command {
	var duration int

	cmd := &cobra.Command{
		Use:   "test <label>...",
		Short: "Classify call type labels and preview their pricing",
		Long: `Run one or more raw call type labels through the classifier and show
which category wins and what a call of the given duration would cost.

Examples:
  tariffa classify test "URBANE"
  tariffa classify test "CELLULARE TIM" "NUMERO VERDE" --duration 90`,
		Args: cobra.MinimumNArgs(1),
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

			snap, err := store.Snapshot(ctx)
			if err != nil {
				return fmt.Errorf("failed to snapshot categories: %w", err)
			}

			classifier := classify.NewClassifier(snap.Categories)
			calc := classify.NewCalculator(snap.GlobalMarkup, settings.BillingMode())

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Label"),
				cli.TableHeaderStyle.Render("Category"),
				cli.TableHeaderStyle.Render("Rate/min"),
				cli.TableHeaderStyle.Render("Markup"),
				cli.TableHeaderStyle.Render(fmt.Sprintf("Cost (%ds)", duration)))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 24),
				strings.Repeat("-", 16),
				strings.Repeat("-", 10),
				strings.Repeat("-", 8),
				strings.Repeat("-", 12))

			for _, label := range args {
				cat := classifier.Match(label)
				price := calc.Price(cat, duration)

				name := cli.StyleWarning(classify.FallbackCategoryName)
				currency := ""
				if cat != nil {
					name = cat.Name
					currency = cat.Currency
				}

				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					label,
					name,
					cli.FormatMoney(price.Rate, currency),
					cli.FormatPercent(price.MarkupPercent),
					cli.FormatMoney(price.CustomerCost, currency))
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&duration, "duration", 300, "Call duration in seconds for the cost preview")

	return cmd
}
