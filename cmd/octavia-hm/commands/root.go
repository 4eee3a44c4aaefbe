package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/openfroyo/octavia/pkg/octavia"
	"github.com/openfroyo/octavia/pkg/telemetry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	paramFiles    []string
	setFlags      []string
	osFamilyFlag  string
	osReleasePath string
	policyPaths   []string
	environment   string
	configPath    string
	metricsFile   string
	outputFormat  string

	// tel is created before every command and shut down by Execute.
	tel *telemetry.Telemetry
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	err := rootCmd.ExecuteContext(ctx)

	if tel != nil {
		if shutdownErr := tel.Shutdown(context.Background()); shutdownErr != nil {
			log.Warn().Err(shutdownErr).Msg("Failed to flush telemetry")
		}
	}

	return err
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "octavia-hm",
		Short: "Octavia health manager catalog compiler",
		Long: `octavia-hm compiles the desired state of the Octavia health manager:
the package to install, the service to run, and every key of the
[DEFAULT] logging and [health_manager] sections of octavia.conf.

Parameters come from YAML, JSON, CUE or Starlark files plus --set overrides.
Options that are not supplied are written as <SERVICE DEFAULT>, which removes
the key so the service uses its compiled-in default.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupTelemetry(cmd, version)
		},
	}

	rootCmd.PersistentFlags().StringSliceVarP(&paramFiles, "param", "p", nil, "parameter source (.yaml, .json, .cue, .star); repeatable, later files win")
	rootCmd.PersistentFlags().StringArrayVar(&setFlags, "set", nil, "override a single option as key=value; repeatable")
	rootCmd.PersistentFlags().StringVar(&osFamilyFlag, "os-family", "auto", "OS family (Debian, RedHat) or auto to read --os-release")
	rootCmd.PersistentFlags().StringVar(&osReleasePath, "os-release", "/etc/os-release", "os-release file used by --os-family auto")
	rootCmd.PersistentFlags().StringSliceVar(&policyPaths, "policy", nil, "additional .rego/.json policy files or directories")
	rootCmd.PersistentFlags().StringVar(&environment, "environment", "", "deployment environment exposed to policies (e.g. production)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config-path", octavia.ConfigPath, "INI file targeted by plan and apply")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json or yaml")

	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newApplyCommand())
	rootCmd.AddCommand(newFactsCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newPolicyCommand())

	return rootCmd
}

// setupTelemetry attaches telemetry and a fresh run ID to the command context.
func setupTelemetry(cmd *cobra.Command, version string) error {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = version
	cfg.Metrics.TextfilePath = metricsFile
	if environment != "" {
		cfg.Environment = environment
	}
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		cfg.Logging.Level = lvl.String()
	}

	var err error
	tel, err = telemetry.NewTelemetry(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	runID := uuid.NewString()
	log.Logger = log.With().Str("run_id", runID).Logger()

	ctx := tel.WithContext(cmd.Context())
	ctx = telemetry.WithRunContext(ctx, runID)
	cmd.SetContext(ctx)

	log.Debug().Str("command", cmd.Name()).Msg("Run started")
	return nil
}
