package commands

import (
	"fmt"

	"github.com/openfroyo/octavia/pkg/engine"
	"github.com/spf13/cobra"
)

func newRenderCommand() *cobra.Command {
	var skipPolicy bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Compile and print the catalog",
		Long: `Compile the catalog and print it.

The catalog holds the package assertion, the service assertion and one
entry per recognized option. Policies are evaluated before printing;
a blocking violation fails the command.`,
		Example: `  # Render for the local host as YAML
  octavia-hm render -p params.yaml -o yaml

  # Render for RedHat with an override
  octavia-hm render -p params.cue --os-family RedHat --set debug=true`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			catalog, err := compileFromFlags(ctx)
			if err != nil {
				return err
			}

			if !skipPolicy {
				eng, err := newPolicyEngine(ctx)
				if err != nil {
					return err
				}
				if _, err := checkPolicies(ctx, eng, catalog, "render", true); err != nil {
					return err
				}
			}

			if outputFormat == "text" {
				printCatalog(cmd, catalog)
				return nil
			}
			return writeStructured(cmd.OutOrStdout(), outputFormat, catalog)
		},
	}

	cmd.Flags().BoolVar(&skipPolicy, "skip-policy", false, "do not evaluate policies")

	return cmd
}

func printCatalog(cmd *cobra.Command, catalog *engine.Catalog) {
	out := cmd.OutOrStdout()

	ensure := string(catalog.Service.Ensure)
	if ensure == "" {
		ensure = "(unmanaged)"
	}

	fmt.Fprintf(out, "# %s on %s\n", catalog.Component, catalog.OSFamily)
	fmt.Fprintf(out, "package %s ensure=%s tags=%v\n", catalog.Package.Name, catalog.Package.Ensure, catalog.Package.Tags)
	fmt.Fprintf(out, "service %s ensure=%s enable=%t tags=%v\n", catalog.Service.Name, ensure, catalog.Service.Enable, catalog.Service.Tags)
	fmt.Fprintf(out, "\n# %s\n", catalog.ConfigPath)
	for _, e := range catalog.Entries {
		fmt.Fprintf(out, "%s = %s\n", e.Name(), e.Value)
	}
}
