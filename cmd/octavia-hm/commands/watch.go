package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/openfroyo/octavia/pkg/config"
	"github.com/openfroyo/octavia/pkg/engine"
	"github.com/openfroyo/octavia/pkg/inifile"
	"github.com/openfroyo/octavia/pkg/octavia"
	"github.com/openfroyo/octavia/pkg/platform"
	"github.com/openfroyo/octavia/pkg/policy"
	"github.com/openfroyo/octavia/pkg/telemetry"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	var applyChanges bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Recompile whenever parameter or policy files change",
		Long: `Compile once, then watch the --param sources and --policy paths and
recompile after every change. With --apply the config file is enforced
after each successful compile.

Changes are debounced for 500ms. Compiles run one at a time; reloads that
arrive during a compile are merged and the newest parameters are used.`,
		Example: `  # Watch and print plans
  octavia-hm watch -p params.yaml --config-path ./octavia.conf

  # Watch and enforce
  octavia-hm watch -p params.yaml --policy ./policies --apply`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(paramFiles) == 0 {
				return errors.New("watch needs at least one --param source")
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			family, err := resolveFamily()
			if err != nil {
				return err
			}
			eng, err := newPolicyEngine(ctx)
			if err != nil {
				return err
			}

			loader := config.NewLoader(log.Logger)
			queue := newReloadQueue()

			raw, err := loader.LoadFiles(ctx, paramFiles)
			queue.params(raw, err)

			errCh := make(chan error, 2)
			go func() {
				errCh <- config.NewWatcher(loader, paramFiles).Watch(ctx, queue.params)
			}()

			if len(policyPaths) > 0 {
				go func() {
					errCh <- policy.NewLoader(log.Logger).Watch(ctx, policyPaths, func(policies []policy.Policy) error {
						if err := eng.ReplaceCustom(ctx, policies); err != nil {
							return err
						}
						queue.policies()
						return nil
					})
				}()
			}

			log.Info().
				Strs("params", paramFiles).
				Strs("policies", policyPaths).
				Str("os_family", family.String()).
				Bool("apply", applyChanges).
				Msg("Watching for changes")

			var current config.RawParameters
			for {
				select {
				case <-ctx.Done():
					return nil
				case err := <-errCh:
					if err != nil {
						return err
					}
				case <-queue.ready:
					r := queue.take()
					if r.paramsChanged {
						if r.err != nil {
							log.Error().Err(r.err).Msg("Failed to load parameters")
						} else {
							current = r.raw
						}
					}
					if current == nil || !r.needsCompile() {
						continue
					}
					if err := recompile(ctx, cmd, eng, current, family, applyChanges); err != nil {
						log.Error().Err(err).Str("code", engine.ErrorCode(err)).Msg("Recompile failed")
					}
					// Long-running: keep the metrics textfile current.
					if t := telemetry.FromTelemetryContext(ctx); t != nil {
						if err := t.Flush(ctx); err != nil {
							log.Warn().Err(err).Msg("Failed to flush telemetry")
						}
					}
				}
			}
		},
	}

	cmd.Flags().BoolVar(&applyChanges, "apply", false, "enforce the config file after each compile")

	return cmd
}

// recompile runs one compile, policy check and plan or apply cycle.
func recompile(ctx context.Context, cmd *cobra.Command, eng *policy.Engine, raw config.RawParameters, family platform.OSFamily, applyChanges bool) error {
	raw, err := applyOverrides(raw)
	if err != nil {
		return err
	}

	catalog, err := octavia.Compile(ctx, raw, family)
	if err != nil {
		return err
	}
	if _, err := checkPolicies(ctx, eng, catalog, "watch", !applyChanges); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !applyChanges {
		changes, err := inifile.Plan(ctx, configPath, catalog.Entries)
		if err != nil {
			return err
		}
		printChanges(out, configPath, changes)
		return nil
	}

	result, err := inifile.Apply(ctx, configPath, catalog.Entries, inifile.ApplyOptions{})
	if err != nil {
		return err
	}
	printChanges(out, result.Path, result.Changes)
	if result.Written {
		fmt.Fprintf(out, "wrote %s\n", result.Path)
	}
	return nil
}
