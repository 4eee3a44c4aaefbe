package telemetry_test

import (
	"context"
	"fmt"
	"time"

	"github.com/openfroyo/octavia/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Example_basicSetup demonstrates basic telemetry setup.
func Example_basicSetup() {
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = "1.0.0"

	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		panic(err)
	}
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	logger := telemetry.FromContext(ctx)
	logger.Info("Application started")

	// Output varies, no output specified
}

// Example_structuredLogging demonstrates structured logging features.
func Example_structuredLogging() {
	cfg := telemetry.DevelopmentConfig()
	cfg.Tracing.Enabled = false

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	logger := tel.Logger.NewComponentLogger("compiler").
		WithRunID("2f1c0c44-7d8e-4c55-9a7e-0b4f6c1d2e3f").
		WithOSFamily("Debian")

	logger.Debug("Resolving platform profile")
	logger.Info("Catalog compiled")

	err := fmt.Errorf("heartbeat_key is missing")
	logger.WithError(err).Error("Compilation failed")

	// Output varies, no output specified
}

// Example_distributedTracing demonstrates tracing a compile and apply.
func Example_distributedTracing() {
	cfg := telemetry.DevelopmentConfig()

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	ctx, span := tel.Tracer.StartCompileSpan(ctx, "octavia-health-manager", "Debian")
	defer span.End()

	span.SetAttributes(telemetry.AttrAssertionCount.Int(22))
	span.AddEvent("parameters.validated")

	_, applySpan := tel.Tracer.StartApplySpan(ctx, "/etc/octavia/octavia.conf", true)
	applySpan.SetAttributes(attribute.Int("config.changes", 3))
	telemetry.RecordSuccess(applySpan)
	applySpan.End()

	// Output varies, no output specified
}

// Example_metricsCollection demonstrates metrics collection.
func Example_metricsCollection() {
	cfg := telemetry.DefaultConfig()
	cfg.Metrics.Enabled = true

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	tel.Metrics.RecordCompile("Debian", "succeeded", 2*time.Millisecond)
	tel.Metrics.RecordAssertions("package", 1)
	tel.Metrics.RecordAssertions("service", 1)
	tel.Metrics.RecordAssertions("config_entry", 20)
	tel.Metrics.SetServiceDefaultEntries(14)
	tel.Metrics.RecordValidationError("MISSING_REQUIRED_OPTION")
	tel.Metrics.RecordPolicyViolation("debug-in-production", "warning")
	tel.Metrics.RecordConfigChange("modify", false)

	families, _ := tel.Metrics.Gather()
	fmt.Println(len(families) > 0)
	// Output: true
}

// Example_instrumentedOperation demonstrates the operation helper.
func Example_instrumentedOperation() {
	cfg := telemetry.DefaultConfig()

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	op := telemetry.StartOperation(ctx, "compile",
		telemetry.AttrOSFamily.String("RedHat"),
	)
	op.Logger.Info("Compiling catalog")
	op.End(nil)

	fmt.Println(op.Timer.Duration() >= 0)
	// Output: true
}

// Example_productionConfiguration demonstrates the production preset.
func Example_productionConfiguration() {
	cfg := telemetry.ProductionConfig()

	fmt.Println(cfg.Logging.Format)
	fmt.Println(cfg.Tracing.Exporter)
	fmt.Println(cfg.Validate() == nil)
	// Output:
	// json
	// otlp
	// true
}
