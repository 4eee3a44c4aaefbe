// Package telemetry provides observability instrumentation for octavia-hm.
//
// The telemetry package integrates structured logging (zerolog), distributed
// tracing (OpenTelemetry) and metrics (Prometheus) behind one Telemetry value
// that travels in a context.Context.
//
// # Usage
//
// Initialize telemetry at startup and attach it to the context:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = version
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	ctx = tel.WithContext(ctx)
//
// Library code never requires telemetry. StartOperation and FromContext fall
// back to a plain logger and no span when the context carries none.
//
// # Structured Logging
//
//	logger := tel.Logger.NewComponentLogger("compiler")
//	logger = logger.WithRunID(runID).WithOSFamily("Debian")
//	logger.Info("Catalog compiled")
//
// Log levels: trace, debug, info, warn, error, fatal
//
// # Distributed Tracing
//
//	ctx, span := tel.Tracer.StartCompileSpan(ctx, "octavia-health-manager", "Debian")
//	defer span.End()
//
// Supported exporters: OTLP over gRPC (production) and stdout (development).
// The stdout exporter writes to stderr so rendered output stays clean.
//
// # Metrics
//
// Metrics live in a private registry. The tool is short-lived and opens no
// listener, so metrics are written on Shutdown or Flush to
// MetricsConfig.TextfilePath for the node_exporter textfile collector:
//
//	octavia_hm_compiles_total{os_family,status}
//	octavia_hm_compile_duration_seconds{status}
//	octavia_hm_assertions_emitted_total{kind}
//	octavia_hm_service_default_entries
//	octavia_hm_validation_errors_total{code}
//	octavia_hm_policy_violations_total{policy,severity}
//	octavia_hm_config_changes_total{action,applied}
//	octavia_hm_errors_by_class_total{class}
package telemetry
