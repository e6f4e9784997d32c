package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wheelplan/projection-engine/projection"
)

func newValidateCmd() *cobra.Command {
	var path string

	c := &cobra.Command{
		Use:   "validate",
		Short: "Validate a plan file",
		Long: `Check a plan file and list every problem found, not just the first.

Example:
  wheelctl validate -f plan.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			cfg, _, err := loadValidPlan(path)
			var verr *projection.ValidationError
			switch {
			case errors.As(err, &verr):
				fmt.Fprintf(out, "✗ %s has %d problem(s):\n", path, len(verr.Violations))
				for _, v := range verr.Violations {
					fmt.Fprintf(out, "  - %s\n", v)
				}
				return errors.New("validation failed")
			case err != nil:
				return err
			}

			fmt.Fprintf(out, "✓ Plan valid: %s\n", path)
			fmt.Fprintf(out, "  Capital: %s %s over %d days\n",
				cfg.InitialCapital.StringFixed(2), cfg.Currency, cfg.TimeHorizonDays)
			fmt.Fprintf(out, "  Baseline: %s%% per day\n", cfg.BaselineDailyReturnPercent.String())
			if plan := cfg.ContributionPlan; plan != nil {
				fmt.Fprintf(out, "  Contributions: %s %s from %s\n",
					plan.Amount.StringFixed(2), plan.Frequency, plan.StartDate)
			}
			return nil
		},
	}

	c.Flags().StringVarP(&path, "file", "f", "", "path to plan file (required)")
	c.MarkFlagRequired("file")
	return c
}
