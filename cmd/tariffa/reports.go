package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/telaro/tariffa/internal/aggregate"
	"github.com/telaro/tariffa/internal/cli"
	"github.com/telaro/tariffa/internal/report"
)

func reportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Inspect generated billing reports",
	}

	cmd.AddCommand(listReportsCmd())
	cmd.AddCommand(showReportCmd())

	return cmd
}

func listReportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List generated reports, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			writer := report.NewWriter(settings.Paths.ReportDir)
			reports, err := writer.ListReports(ctx)
			if err != nil {
				return fmt.Errorf("failed to list reports: %w", err)
			}

			if len(reports) == 0 {
				fmt.Println(cli.InfoStyle.Render(fmt.Sprintf("No reports in %s yet. Run 'tariffa process' first.", writer.Dir())))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Name"),
				cli.TableHeaderStyle.Render("Kind"),
				cli.TableHeaderStyle.Render("Size"),
				cli.TableHeaderStyle.Render("Written"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 40),
				strings.Repeat("-", 8),
				strings.Repeat("-", 8),
				strings.Repeat("-", 19))

			for _, info := range reports {
				kind := "contract"
				if info.IsSummary {
					kind = cli.BoldStyle.Render("summary")
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
					info.Name, kind, info.Size, info.ModTime.Format("2006-01-02 15:04:05"))
			}

			return nil
		},
	}
}

func showReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Show the headline figures of a contract report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}

			writer := report.NewWriter(settings.Paths.ReportDir)

			path := args[0]
			if !filepath.IsAbs(path) && filepath.Dir(path) == "." {
				path = filepath.Join(writer.Dir(), path)
			}

			rep, err := writer.ReadContractReport(ctx, path)
			if err != nil {
				return fmt.Errorf("failed to read report: %w", err)
			}

			t := rep.Summary
			content := fmt.Sprintf("Contract: %s\n", rep.Metadata.ContractCode) +
				fmt.Sprintf("Period: %s/%d\n", rep.Metadata.Month, rep.Metadata.Year) +
				fmt.Sprintf("Calls: %d\n", t.TotalCalls) +
				fmt.Sprintf("Talk time: %d s\n", t.TotalDurationSeconds) +
				fmt.Sprintf("Carrier cost: %s\n", cli.FormatMoney(t.TotalOriginalCost, t.Currency)) +
				fmt.Sprintf("Customer cost: %s\n", cli.FormatMoney(t.TotalCustomerCost, t.Currency)) +
				fmt.Sprintf("Margin: %s (%s)",
					cli.FormatMoney(t.TotalSavings, t.Currency),
					cli.FormatPercent(aggregate.SavingsPercent(t.TotalCustomerCost, t.TotalOriginalCost)))

			fmt.Println(cli.RenderBox(fmt.Sprintf("%s %s", cli.ReportIcon, filepath.Base(path)), content))

			if len(rep.CategoryBreakdown) > 0 {
				names := make([]string, 0, len(rep.CategoryBreakdown))
				for name := range rep.CategoryBreakdown {
					names = append(names, name)
				}
				sort.Strings(names)

				fmt.Println(cli.BoldStyle.Render("Categories:"))
				for _, name := range names {
					cb := rep.CategoryBreakdown[name]
					fmt.Printf("  %s: %d calls, %s\n",
						cb.DisplayName, cb.Calls, cli.FormatMoney(cb.CustomerCost, t.Currency))
				}
			}

			return nil
		},
	}
}
