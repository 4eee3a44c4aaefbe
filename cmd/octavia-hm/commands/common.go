package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/openfroyo/octavia/pkg/config"
	"github.com/openfroyo/octavia/pkg/engine"
	"github.com/openfroyo/octavia/pkg/octavia"
	"github.com/openfroyo/octavia/pkg/platform"
	"github.com/openfroyo/octavia/pkg/policy"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// loadParameters reads every --param source and applies --set overrides.
func loadParameters(ctx context.Context, loader *config.Loader) (config.RawParameters, error) {
	raw, err := loader.LoadFiles(ctx, paramFiles)
	if err != nil {
		return nil, err
	}
	return applyOverrides(raw)
}

func applyOverrides(raw config.RawParameters) (config.RawParameters, error) {
	overrides := config.RawParameters{}
	for _, s := range setFlags {
		key, value, err := config.ParseSetFlag(s)
		if err != nil {
			return nil, err
		}
		overrides[key] = value
	}
	return config.Merge(raw, overrides), nil
}

// resolveFamily returns the --os-family value, reading os-release for "auto".
func resolveFamily() (platform.OSFamily, error) {
	if osFamilyFlag != "" && !strings.EqualFold(osFamilyFlag, "auto") {
		return platform.ParseOSFamily(osFamilyFlag)
	}

	f, err := os.Open(osReleasePath)
	if err != nil {
		return platform.Unknown, engine.NewIOError("failed to read os-release", err).
			WithDetail("path", osReleasePath)
	}
	defer f.Close()

	family, err := platform.DetectFamily(f)
	if err != nil {
		return platform.Unknown, err
	}
	log.Debug().Str("os_family", family.String()).Str("source", osReleasePath).Msg("OS family detected")
	return family, nil
}

// compileFromFlags loads parameters, resolves the platform and compiles.
func compileFromFlags(ctx context.Context) (*engine.Catalog, error) {
	raw, err := loadParameters(ctx, config.NewLoader(log.Logger))
	if err != nil {
		return nil, err
	}
	family, err := resolveFamily()
	if err != nil {
		return nil, err
	}
	return octavia.Compile(ctx, raw, family)
}

// newPolicyEngine returns an engine with the built-ins and every --policy path.
func newPolicyEngine(ctx context.Context) (*policy.Engine, error) {
	eng, err := policy.NewEngine(log.Logger)
	if err != nil {
		return nil, err
	}
	if len(policyPaths) > 0 {
		if err := eng.LoadPolicies(ctx, policyPaths); err != nil {
			return nil, err
		}
	}
	return eng, nil
}

// checkPolicies evaluates catalog, logs every violation and fails on blocking ones.
func checkPolicies(ctx context.Context, eng *policy.Engine, catalog *engine.Catalog, operation string, dryRun bool) (*policy.PolicyResult, error) {
	result, err := eng.Evaluate(ctx, catalog, &policy.PolicyContext{
		Environment: environment,
		Operation:   operation,
		DryRun:      dryRun,
	})
	if err != nil {
		return nil, err
	}

	for _, v := range result.Violations {
		event := log.Warn()
		if v.Severity.Blocking() {
			event = log.Error()
		} else if v.Severity == policy.SeverityInfo {
			event = log.Info()
		}
		event.Str("policy", v.Policy).
			Str("entry", v.Entry).
			Str("severity", string(v.Severity)).
			Str("remediation", v.Remediation).
			Msg(v.Message)
	}
	for _, w := range result.Warnings {
		log.Warn().Msg(w)
	}

	return result, result.Err()
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func formatValue(v interface{}) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%q", v)
}
