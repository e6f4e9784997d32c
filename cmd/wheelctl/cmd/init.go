package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wheelplan/projection-engine/factory"
	"github.com/wheelplan/projection-engine/projection"
)

func newInitCmd() *cobra.Command {
	var (
		output string
		preset string
		start  string
		force  bool
	)

	c := &cobra.Command{
		Use:   "init",
		Short: "Generate a starter plan file",
		Long: `Create a plan file from a preset.

Available presets: ` + presetKeys() + `

Example:
  wheelctl init -o plan.yaml --preset drawdown --start 2024-01-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := factory.LookupPreset(preset)
			if !ok {
				return fmt.Errorf("unknown preset %q (available: %s)", preset, presetKeys())
			}
			if start == "" {
				start = projection.Today().String()
			}

			if !force {
				if _, err := os.Stat(output); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", output)
				} else if !errors.Is(err, os.ErrNotExist) {
					return err
				}
			}

			var pj factory.PlanJSON
			if err := json.Unmarshal([]byte(p.JSON("", p.Name, start)), &pj); err != nil {
				return fmt.Errorf("decode preset: %w", err)
			}

			var data []byte
			var err error
			if isYAML(output) {
				data, err = pj.EncodeYAML()
			} else {
				var s string
				s, err = pj.Encode()
				data = []byte(s + "\n")
			}
			if err != nil {
				return fmt.Errorf("encode plan: %w", err)
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write plan: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Created %s plan: %s\n", p.Key, output)
			fmt.Fprintln(out, "\nEdit the file and run with:")
			fmt.Fprintf(out, "  wheelctl project -f %s\n", output)
			return nil
		},
	}

	c.Flags().StringVarP(&output, "output", "o", "plan.yaml", "output plan file path")
	c.Flags().StringVarP(&preset, "preset", "p", "conservative", "preset to start from")
	c.Flags().StringVar(&start, "start", "", "contribution start date YYYY-MM-DD (default: today)")
	c.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return c
}

func presetKeys() string {
	presets := factory.Presets()
	keys := make([]string, len(presets))
	for i, p := range presets {
		keys[i] = p.Key
	}
	return strings.Join(keys, ", ")
}
