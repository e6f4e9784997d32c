/*
Package cmd implements wheelctl, the offline companion to the server.

COMMANDS:
  init      write a starter plan file (optionally from a preset)
  validate  check a plan file and list every problem
  project   print the ledger (table, csv or json)
  schedule  print contribution due dates

Plan files are the same documents the API accepts. A .yaml or .yml
extension selects YAML; anything else is read as JSON.

SEE ALSO:
  - factory/plan.go: document format
  - api/dto.go: display rounding shared with the API
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wheelplan/projection-engine/factory"
	"github.com/wheelplan/projection-engine/projection"
)

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wheelctl",
		Short: "Project wheel-strategy capital plans from the command line",
		Long: `wheelctl validates and projects investment plans offline.

It provides tools for:
  - Generating plan files from presets
  - Validating plans with every problem listed
  - Printing day-by-day ledgers and summaries
  - Listing contribution due dates

Example:
  wheelctl init -o plan.yaml --preset conservative
  wheelctl project -f plan.yaml --summary`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newInitCmd(),
		newValidateCmd(),
		newProjectCmd(),
		newScheduleCmd(),
	)
	return root
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// isYAML reports whether path names a YAML document.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// loadPlan reads a plan file into engine inputs. Shape problems come back
// as *projection.ValidationError.
func loadPlan(path string) (projection.Configuration, projection.Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return projection.Configuration{}, projection.Overrides{}, fmt.Errorf("read plan: %w", err)
	}

	f := factory.NewPlanFactory()
	if isYAML(path) {
		return f.ParsePlanYAML(data)
	}
	return f.ParsePlan(string(data))
}

// loadValidPlan is loadPlan plus the validator.
func loadValidPlan(path string) (projection.Configuration, projection.Overrides, error) {
	cfg, ov, err := loadPlan(path)
	if err != nil {
		return cfg, ov, err
	}
	if err := projection.Validate(cfg).Err(); err != nil {
		return cfg, ov, err
	}
	return cfg, ov, nil
}
