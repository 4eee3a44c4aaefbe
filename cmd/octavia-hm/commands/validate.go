package commands

import (
	"fmt"

	"github.com/openfroyo/octavia/pkg/config"
	"github.com/openfroyo/octavia/pkg/engine"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	var listOptions bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate parameters and policies",
		Long: `Validate parameter sources without touching the host.

This command checks:
  - every option name is recognized
  - heartbeat_key is a non-empty string
  - option types and ranges (ports, thread counts, addresses)
  - the OS family has a platform profile
  - policies do not report blocking violations`,
		Example: `  # Validate parameters for a RedHat host
  octavia-hm validate -p params.yaml --os-family RedHat

  # List recognized options
  octavia-hm validate --list-options`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if listOptions {
				for _, name := range config.RecognizedOptions() {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			ctx := cmd.Context()
			catalog, err := compileFromFlags(ctx)
			if err != nil {
				log.Error().
					Str("code", engine.ErrorCode(err)).
					Msg("Parameters rejected")
				return err
			}

			eng, err := newPolicyEngine(ctx)
			if err != nil {
				return err
			}
			result, err := checkPolicies(ctx, eng, catalog, "validate", true)
			if err != nil {
				return err
			}

			defaults := 0
			for _, e := range catalog.Entries {
				if e.Value.IsServiceDefault() {
					defaults++
				}
			}

			fmt.Fprintf(out, "parameters valid for %s: %d entries (%d service defaults), %d policy findings\n",
				catalog.OSFamily, len(catalog.Entries), defaults, len(result.Violations))
			return nil
		},
	}

	cmd.Flags().BoolVar(&listOptions, "list-options", false, "print recognized option names and exit")

	return cmd
}
