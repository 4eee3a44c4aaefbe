package commands

import (
	"fmt"
	"os"

	"github.com/openfroyo/octavia/pkg/engine"
	"github.com/openfroyo/octavia/pkg/platform"
	"github.com/spf13/cobra"
)

// hostFacts is what the facts command reports.
type hostFacts struct {
	Release *platform.Release `json:"os_release" yaml:"os_release"`
	Family  string            `json:"os_family" yaml:"os_family"`
	Profile *platform.Profile `json:"profile,omitempty" yaml:"profile,omitempty"`
}

func newFactsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Show the detected platform",
		Long: `Read os-release and show the OS family and the package and service
names the health manager is distributed under on this host.`,
		Example: `  # Facts for the local host
  octavia-hm facts

  # Facts for another root filesystem
  octavia-hm facts --os-release /mnt/target/etc/os-release -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(osReleasePath)
			if err != nil {
				return engine.NewIOError("failed to read os-release", err).WithDetail("path", osReleasePath)
			}
			defer f.Close()

			release, err := platform.ParseRelease(f)
			if err != nil {
				return err
			}

			facts := hostFacts{Release: release, Family: "unknown"}
			if family, err := release.Family(); err == nil {
				facts.Family = family.String()
				if profile, err := platform.Resolve(family); err == nil {
					facts.Profile = &profile
				}
			}

			if outputFormat != "text" {
				return writeStructured(cmd.OutOrStdout(), outputFormat, facts)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "distribution: %s\n", release.PrettyName)
			fmt.Fprintf(out, "id:           %s (like: %s)\n", release.ID, release.IDLike)
			fmt.Fprintf(out, "os_family:    %s\n", facts.Family)
			if facts.Profile != nil {
				fmt.Fprintf(out, "package:      %s\n", facts.Profile.PackageName)
				fmt.Fprintf(out, "service:      %s\n", facts.Profile.ServiceName)
			}
			return nil
		},
	}

	return cmd
}
