package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wheelplan/projection-engine/projection"
)

func newScheduleCmd() *cobra.Command {
	var (
		path string
		asOf string
	)

	c := &cobra.Command{
		Use:   "schedule",
		Short: "List contribution due dates",
		Long: `Print every day a scheduled contribution falls on, ignoring overrides,
and the next one due from --as-of.

Example:
  wheelctl schedule -f plan.yaml --as-of 2024-03-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadValidPlan(path)
			if err != nil {
				return err
			}

			ref := projection.Today()
			if asOf != "" {
				if ref, err = projection.ParseDate(asOf); err != nil {
					return fmt.Errorf("--as-of: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			plan := cfg.ContributionPlan
			due := projection.DueDates(plan, cfg.TimeHorizonDays)
			if len(due) == 0 {
				fmt.Fprintln(out, "No scheduled contributions.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "day\tdate\tamount")
			for _, d := range due {
				fmt.Fprintf(tw, "%d\t%s\t%s %s\n", d.Day, d.Date, plan.Amount.StringFixed(2), cfg.Currency)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(out, "\n%d contributions", len(due))
			if next, ok := projection.NextDueDate(plan, cfg.TimeHorizonDays, ref); ok {
				fmt.Fprintf(out, ", next on %s (day %d)\n", next.Date, next.Day)
			} else {
				fmt.Fprintf(out, ", none left after %s\n", ref)
			}
			return nil
		},
	}

	c.Flags().StringVarP(&path, "file", "f", "", "path to plan file (required)")
	c.Flags().StringVar(&asOf, "as-of", "", "reference date for the next due date (default: today)")
	c.MarkFlagRequired("file")
	return c
}
