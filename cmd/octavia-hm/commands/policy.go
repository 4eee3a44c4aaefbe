package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newPolicyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect catalog policies",
		Long: `Inspect the Rego policies evaluated against every compiled catalog.

Built-in policies ship with the tool. Additional .rego and .json policies
are loaded from --policy paths.`,
	}

	cmd.AddCommand(newPolicyListCommand())

	return cmd
}

func newPolicyListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List built-in and loaded policies",
		Example: `  # List built-in policies
  octavia-hm policy list

  # Include site policies
  octavia-hm policy list --policy /etc/octavia-hm/policies -o yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newPolicyEngine(cmd.Context())
			if err != nil {
				return err
			}
			policies := eng.ListPolicies()

			if outputFormat != "text" {
				return writeStructured(cmd.OutOrStdout(), outputFormat, policies)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSEVERITY\tSOURCE\tDESCRIPTION")
			for _, p := range policies {
				source := p.Source
				if p.Builtin {
					source = "builtin"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.Severity, source, p.Description)
			}
			return w.Flush()
		},
	}

	return cmd
}
