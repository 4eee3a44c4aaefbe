package commands

import (
	"fmt"

	"github.com/openfroyo/octavia/pkg/inifile"
	"github.com/spf13/cobra"
)

func newApplyCommand() *cobra.Command {
	var (
		dryRun bool
		backup bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Enforce the catalog's config entries",
		Long: `Compile the catalog and enforce its entries against the config file.

The file is rewritten through a temporary file and a rename, and only when
at least one key changes. Package and service assertions are printed for
the host's package manager and init system; they are not enforced here.`,
		Example: `  # Apply with a backup of the previous file
  octavia-hm apply -p params.yaml --backup

  # Show what would change
  octavia-hm apply -p params.yaml --dry-run`,
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
			if _, err := checkPolicies(ctx, eng, catalog, "apply", dryRun); err != nil {
				return err
			}

			result, err := inifile.Apply(ctx, configPath, catalog.Entries, inifile.ApplyOptions{
				DryRun: dryRun,
				Backup: backup,
			})
			if err != nil {
				return err
			}

			if outputFormat != "text" {
				return writeStructured(cmd.OutOrStdout(), outputFormat, result)
			}

			out := cmd.OutOrStdout()
			printChanges(out, result.Path, result.Changes)
			switch {
			case result.Written:
				fmt.Fprintf(out, "wrote %s (sha256 %s)\n", result.Path, result.Checksum)
			case dryRun && len(result.Changes) > 0:
				fmt.Fprintln(out, "dry run: nothing written")
			}
			if result.BackupPath != "" {
				fmt.Fprintf(out, "previous file saved to %s\n", result.BackupPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute changes without writing")
	cmd.Flags().BoolVar(&backup, "backup", false, "keep the previous file as <path>.bak")

	return cmd
}
