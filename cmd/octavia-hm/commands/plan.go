package commands

import (
	"fmt"
	"io"

	"github.com/openfroyo/octavia/pkg/engine"
	"github.com/openfroyo/octavia/pkg/inifile"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the config file changes apply would make",
		Long: `Compile the catalog and compare its entries with the config file.

Literal entries that differ are reported as add or modify. Entries left at
<SERVICE DEFAULT> are reported as remove when the key is present. The file
is not modified.`,
		Example: `  # Plan against the default octavia.conf
  octavia-hm plan -p params.yaml

  # Plan against a copy
  octavia-hm plan -p params.yaml --config-path ./octavia.conf -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			catalog, err := compileFromFlags(ctx)
			if err != nil {
				return err
			}
			eng, err := newPolicyEngine(ctx)
			if err != nil {
				return err
			}
			if _, err := checkPolicies(ctx, eng, catalog, "plan", true); err != nil {
				return err
			}

			changes, err := inifile.Plan(ctx, configPath, catalog.Entries)
			if err != nil {
				return err
			}

			log.Info().
				Str("path", configPath).
				Int("changes", len(changes)).
				Msg("Plan computed")

			if outputFormat == "text" {
				printChanges(cmd.OutOrStdout(), configPath, changes)
				return nil
			}
			return writeStructured(cmd.OutOrStdout(), outputFormat, changes)
		},
	}

	return cmd
}

func printChanges(out io.Writer, path string, changes []engine.Change) {
	if len(changes) == 0 {
		fmt.Fprintf(out, "%s is up to date\n", path)
		return
	}

	fmt.Fprintf(out, "%s: %d change(s)\n", path, len(changes))
	for _, c := range changes {
		switch c.Action {
		case engine.ChangeActionAdd:
			fmt.Fprintf(out, "  + %s = %s\n", c.Path, formatValue(c.After))
		case engine.ChangeActionRemove:
			fmt.Fprintf(out, "  - %s (was %s)\n", c.Path, formatValue(c.Before))
		default:
			fmt.Fprintf(out, "  ~ %s: %s -> %s\n", c.Path, formatValue(c.Before), formatValue(c.After))
		}
	}
}
