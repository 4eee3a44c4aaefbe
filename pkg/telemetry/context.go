package telemetry

import (
	"context"
	"errors"

	"github.com/openfroyo/octavia/pkg/engine"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry provides a unified telemetry interface combining logging, tracing and metrics.
type Telemetry struct {
	Logger  *Logger
	Tracer  *Tracer
	Metrics *Metrics
	Config  *Config
}

// telemetryContextKey is the context key for telemetry instances.
type telemetryContextKey struct{}

// NewTelemetry creates a new telemetry instance from configuration.
func NewTelemetry(cfg *Config) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	tracer, err := NewTracer(cfg.Tracing, cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, err
	}

	metrics, err := NewMetrics(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		Logger:  logger,
		Tracer:  tracer,
		Metrics: metrics,
		Config:  cfg,
	}, nil
}

// WithContext adds the telemetry instance to the context.
func (t *Telemetry) WithContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, telemetryContextKey{}, t)
	ctx = t.Logger.WithContext(ctx)
	return ctx
}

// FromTelemetryContext retrieves the telemetry instance from the context.
// If no telemetry is found, it returns nil.
func FromTelemetryContext(ctx context.Context) *Telemetry {
	if t, ok := ctx.Value(telemetryContextKey{}).(*Telemetry); ok {
		return t
	}
	return nil
}

// Shutdown flushes metrics to the textfile and shuts down the tracer.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	metricsErr := t.Metrics.WriteTextfile()
	if err := t.Tracer.Shutdown(ctx); err != nil {
		return err
	}
	return metricsErr
}

// Flush forces all pending telemetry data to be exported.
func (t *Telemetry) Flush(ctx context.Context) error {
	if err := t.Tracer.ForceFlush(ctx); err != nil {
		return err
	}
	return t.Metrics.WriteTextfile()
}

// InstrumentedContext holds the span, logger and timer of one operation.
type InstrumentedContext struct {
	Ctx    context.Context
	Span   trace.Span
	Logger *Logger
	Timer  *Timer
}

// StartOperation begins an instrumented operation with logging, tracing, and timing.
func StartOperation(ctx context.Context, operation string, attrs ...attribute.KeyValue) *InstrumentedContext {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return &InstrumentedContext{
			Ctx:    ctx,
			Logger: FromContext(ctx),
			Timer:  NewTimer(),
		}
	}

	spanCtx, span := tel.Tracer.StartSpan(ctx, operation, attrs...)

	logger := FromContext(ctx).WithField("operation", operation)

	if span.SpanContext().IsValid() {
		logger = logger.WithFields(map[string]interface{}{
			"trace_id": span.SpanContext().TraceID().String(),
			"span_id":  span.SpanContext().SpanID().String(),
		})
	}

	return &InstrumentedContext{
		Ctx:    logger.WithContext(spanCtx),
		Span:   span,
		Logger: logger,
		Timer:  NewTimer(),
	}
}

// End finishes the instrumented operation, recording success or failure.
func (ic *InstrumentedContext) End(err error) {
	if ic.Span != nil {
		if err != nil {
			annotateError(ic.Span, err)
			RecordError(ic.Span, err)
		} else {
			RecordSuccess(ic.Span)
		}
		ic.Span.End()
	}
}

// annotateError copies EngineError classification onto the span.
func annotateError(span trace.Span, err error) {
	var engErr *engine.EngineError
	if !errors.As(err, &engErr) {
		return
	}
	span.SetAttributes(
		AttrErrorClass.String(string(engErr.Class)),
		AttrErrorCode.String(engErr.Code),
	)
	if engErr.Option != "" {
		span.SetAttributes(AttrErrorOption.String(engErr.Option))
	}
}

// WithRunContext returns a context whose logger carries the run ID.
func WithRunContext(ctx context.Context, runID string) context.Context {
	logger := FromContext(ctx).WithRunID(runID)
	ctx = logger.WithContext(ctx)
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		span.SetAttributes(AttrRunID.String(runID))
	}
	return ctx
}

// RecordEngineError counts err by class and, for validation errors, by code.
func RecordEngineError(ctx context.Context, err error) {
	tel := FromTelemetryContext(ctx)
	if tel == nil || err == nil {
		return
	}
	var engErr *engine.EngineError
	if !errors.As(err, &engErr) {
		tel.Metrics.RecordError("internal")
		return
	}
	tel.Metrics.RecordError(string(engErr.Class))
	if engErr.Class == engine.ErrorClassValidation {
		tel.Metrics.RecordValidationError(engErr.Code)
	}
}
