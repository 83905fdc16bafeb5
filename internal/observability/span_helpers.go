package observability

import (
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// FinishSpan ends the span, recording the error a named return points at.
// Pair it with a deferred call: `defer observability.FinishSpan(span, &err)`.
func FinishSpan(span trace.Span, errPtr *error) {
	if span == nil {
		return
	}
	defer span.End()

	if errPtr == nil || *errPtr == nil {
		return
	}
	span.RecordError(*errPtr, trace.WithStackTrace(true))
	span.SetStatus(codes.Error, (*errPtr).Error())
}
