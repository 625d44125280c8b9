package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartCommandSpan creates a span for a CLI command execution.
//
//	ctx, span := telemetry.StartCommandSpan(ctx, "auth.login")
//	defer span.End()
func StartCommandSpan(ctx context.Context, cmdName string) (context.Context, trace.Span) {
	tracer := GetTracerProvider().Tracer("stayadmin/commands")
	ctx, span := tracer.Start(ctx, "command."+cmdName)

	span.SetAttributes(
		attribute.String("command", cmdName),
		attribute.String("component", "cli"),
	)

	return ctx, span
}

// StartAPISpan creates a client span for a call to the booking API.
// operation names the call ("identity", "login", "protected").
func StartAPISpan(ctx context.Context, operation, method, path string) (context.Context, trace.Span) {
	tracer := GetTracerProvider().Tracer("stayadmin/platform")
	ctx, span := tracer.Start(ctx, "api."+operation, trace.WithSpanKind(trace.SpanKindClient))

	span.SetAttributes(
		attribute.String("api.operation", operation),
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
	)

	return ctx, span
}

// StartSessionSpan creates a span around a session transition such as
// "start", "login" or "refresh".
func StartSessionSpan(ctx context.Context, transition string) (context.Context, trace.Span) {
	tracer := GetTracerProvider().Tracer("stayadmin/session")
	ctx, span := tracer.Start(ctx, "session."+transition)

	span.SetAttributes(
		attribute.String("session.transition", transition),
		attribute.String("component", "session"),
	)

	return ctx, span
}

// RecordSuccess marks a span as successful with optional result attributes.
func RecordSuccess(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Ok, "")
}

// RecordError records an error in a span and sets error status.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.Bool("error", true))
}
