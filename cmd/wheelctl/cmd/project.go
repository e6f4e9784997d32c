package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wheelplan/projection-engine/api"
	"github.com/wheelplan/projection-engine/projection"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatJSON  = "json"
)

var ledgerColumns = []string{
	"day", "date", "capital_before", "contribution", "capital_after",
	"return_pct", "interest", "final_capital", "total_contributed",
}

func newProjectCmd() *cobra.Command {
	var (
		path        string
		format      string
		summaryOnly bool
	)

	c := &cobra.Command{
		Use:   "project",
		Short: "Print the day-by-day ledger of a plan",
		Long: `Project a plan and print its ledger. Values are rounded for display
(money to 2 places, percentages to 4); the computation itself is exact.

Custom values are marked with * in table output.

Example:
  wheelctl project -f plan.yaml --format csv > ledger.csv
  wheelctl project -f plan.yaml --summary`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatTable, formatCSV, formatJSON:
			default:
				return fmt.Errorf("unknown format %q (table, csv, json)", format)
			}

			cfg, ov, err := loadValidPlan(path)
			if err != nil {
				return err
			}
			ledger, err := projection.Project(cfg, ov)
			if err != nil {
				return err
			}
			resp := api.Present(cfg, ledger)

			out := cmd.OutOrStdout()
			if summaryOnly {
				if format == formatJSON {
					return writeJSONTo(out, resp.Summary)
				}
				return writeSummary(out, resp.Summary)
			}

			switch format {
			case formatCSV:
				return writeLedgerCSV(out, resp.Entries)
			case formatJSON:
				return writeJSONTo(out, resp)
			default:
				if err := writeLedgerTable(out, resp.Entries); err != nil {
					return err
				}
				fmt.Fprintln(out)
				return writeSummary(out, resp.Summary)
			}
		},
	}

	c.Flags().StringVarP(&path, "file", "f", "", "path to plan file (required)")
	c.Flags().StringVar(&format, "format", formatTable, "output format: table, csv, json")
	c.Flags().BoolVar(&summaryOnly, "summary", false, "print only the summary")
	c.MarkFlagRequired("file")
	return c
}

func marked(v string, custom bool) string {
	if custom {
		return v + "*"
	}
	return v
}

func writeLedgerTable(w io.Writer, entries []api.LedgerEntryDTO) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, col := range ledgerColumns {
		fmt.Fprintf(tw, "%s\t", col)
	}
	fmt.Fprintln(tw)
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			e.Day, e.Date, e.CapitalBeforeContribution,
			marked(e.ContributionAmount, e.IsCustomContribution),
			e.CapitalAfterContribution,
			marked(e.DailyReturnPercent, e.IsCustomReturn),
			e.InterestEarned, e.FinalCapital, e.TotalContributedToDate)
	}
	return tw.Flush()
}

func writeLedgerCSV(w io.Writer, entries []api.LedgerEntryDTO) error {
	cw := csv.NewWriter(w)
	header := append(append([]string{}, ledgerColumns...), "custom_contribution", "custom_return")
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			strconv.Itoa(e.Day), e.Date, e.CapitalBeforeContribution, e.ContributionAmount,
			e.CapitalAfterContribution, e.DailyReturnPercent, e.InterestEarned,
			e.FinalCapital, e.TotalContributedToDate,
			strconv.FormatBool(e.IsCustomContribution), strconv.FormatBool(e.IsCustomReturn),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeSummary(w io.Writer, s api.SummaryDTO) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Days:\t%d\n", s.Days)
	fmt.Fprintf(tw, "Initial capital:\t%s %s\n", s.InitialCapital, s.Currency)
	fmt.Fprintf(tw, "Total contributed:\t%s (%d days)\n", s.TotalContributed, s.ContributionDays)
	fmt.Fprintf(tw, "Total interest:\t%s\n", s.TotalInterest)
	fmt.Fprintf(tw, "Final capital:\t%s %s\n", s.FinalCapital, s.Currency)
	fmt.Fprintf(tw, "Net gain:\t%s\n", s.NetGain)
	fmt.Fprintf(tw, "ROI:\t%s%%\n", s.ROIPercent)
	fmt.Fprintf(tw, "Range:\t%s .. %s\n", s.MinFinalCapital, s.MaxFinalCapital)
	if s.CustomReturnDays > 0 || s.CustomContributionDays > 0 {
		fmt.Fprintf(tw, "Overrides:\t%d return, %d contribution\n", s.CustomReturnDays, s.CustomContributionDays)
	}
	if s.RuinDay > 0 {
		fmt.Fprintf(tw, "Ruin:\tcapital exhausted on day %d\n", s.RuinDay)
	}
	return tw.Flush()
}

func writeJSONTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
