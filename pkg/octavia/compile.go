package octavia

import (
	"context"

	"github.com/openfroyo/octavia/pkg/config"
	"github.com/openfroyo/octavia/pkg/engine"
	"github.com/openfroyo/octavia/pkg/platform"
	"github.com/openfroyo/octavia/pkg/telemetry"
	"go.opentelemetry.io/otel/trace"
)

// Compile validates raw, resolves the names for family and emits the catalog.
// Any error aborts the compile; no partial catalog is returned.
func Compile(ctx context.Context, raw config.RawParameters, family platform.OSFamily) (*engine.Catalog, error) {
	timer := telemetry.NewTimer()
	logger := telemetry.FromContext(ctx).NewComponentLogger("compiler").WithOSFamily(family.String())

	tel := telemetry.FromTelemetryContext(ctx)
	var span trace.Span
	if tel != nil {
		ctx, span = tel.Tracer.StartCompileSpan(ctx, Component, family.String())
		defer span.End()
	}

	catalog, err := compile(raw, family)

	status := "success"
	if err != nil {
		status = "error"
	}
	if tel != nil {
		tel.Metrics.RecordCompile(family.String(), status, timer.Duration())
	}

	if err != nil {
		if span != nil {
			telemetry.RecordError(span, err)
		}
		telemetry.RecordEngineError(ctx, err)
		logger.WithError(err).Debug("Catalog compilation failed")
		return nil, err
	}

	defaults := 0
	for _, e := range catalog.Entries {
		if e.Value.IsServiceDefault() {
			defaults++
		}
	}

	if tel != nil {
		telemetry.RecordSuccess(span)
		telemetry.SetAttributes(span, telemetry.AttrAssertionCount.Int(len(catalog.Entries)+2))
		tel.Metrics.RecordAssertions("package", 1)
		tel.Metrics.RecordAssertions("service", 1)
		tel.Metrics.RecordAssertions("config_entry", len(catalog.Entries))
		tel.Metrics.SetServiceDefaultEntries(defaults)
	}

	logger.WithFields(map[string]interface{}{
		"package":          catalog.Package.Name,
		"service":          catalog.Service.Name,
		"entries":          len(catalog.Entries),
		"service_defaults": defaults,
		"duration_ms":      timer.Duration().Milliseconds(),
	}).Debug("Catalog compiled")

	return catalog, nil
}

func compile(raw config.RawParameters, family platform.OSFamily) (*engine.Catalog, error) {
	params, err := config.Validate(raw)
	if err != nil {
		return nil, err
	}

	profile, err := platform.Resolve(family)
	if err != nil {
		return nil, err
	}

	entries := LoggingEntries(params.Logging)
	entries = append(entries, HealthManagerEntries(params)...)

	catalog := &engine.Catalog{
		Component:  Component,
		OSFamily:   family.String(),
		ConfigPath: ConfigPath,
		Package:    BuildPackage(profile, params.PackageEnsure),
		Service:    BuildService(profile, params.Enabled, params.ManageService),
		Entries:    entries,
	}

	if err := config.Validator().Struct(catalog); err != nil {
		return nil, engine.NewValidationError("compiled catalog is incomplete", err).
			WithCode(engine.ErrCodeInternal).
			WithOperation("compile")
	}

	return catalog, nil
}
