package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var globalTracer trace.Tracer

// InitGlobalTracer initializes the global tracer for the application.
func InitGlobalTracer() {
	globalTracer = otel.Tracer("reader-app")
}

// GetGlobalTracer returns the global tracer instance for the application.
func GetGlobalTracer() trace.Tracer {
	if globalTracer == nil {
		// Fallback to default tracer if not initialized
		globalTracer = otel.Tracer("reader-app")
	}
	return globalTracer
}

// TraceFunction starts a new span with a descriptive name for the given service and function.
func TraceFunction(ctx context.Context, serviceName, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := GetGlobalTracer()
	spanName := fmt.Sprintf("%s.%s", serviceName, functionName)
	return tracer.Start(ctx, spanName, trace.WithAttributes(attributes...))
}

// TraceFunctionWithErrorHandling starts a new span and automatically adds error attributes if the function panics or returns an error.
func TraceFunctionWithErrorHandling(ctx context.Context, serviceName, functionName string, fn func() error, attributes ...attribute.KeyValue) error {
	_, span := TraceFunction(ctx, serviceName, functionName, attributes...)
	defer func() {
		if err := recover(); err != nil {
			span.SetAttributes(
				attribute.Bool("error", true),
				attribute.String("error.type", "panic"),
				attribute.String("error.message", fmt.Sprintf("%v", err)),
			)
			span.End()
			panic(err) // re-panic
		}
	}()

	err := fn()
	if err != nil {
		span.SetAttributes(
			attribute.Bool("error", true),
			attribute.String("error.message", err.Error()),
		)
	}
	span.End()
	return err
}

// TraceFeedbackFunction starts a new span for a feedback service function.
func TraceFeedbackFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "feedback", functionName, attributes...)
}

// TraceReaderFunction starts a new span for a reader service function.
func TraceReaderFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "reader", functionName, attributes...)
}

// TraceAnnotationFunction starts a new span for an annotation service function.
func TraceAnnotationFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "annotation", functionName, attributes...)
}

// TraceStatsFunction starts a new span for a statistics service function.
func TraceStatsFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "stats", functionName, attributes...)
}

// TraceAuthFunction starts a new span for an auth/session service function.
func TraceAuthFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "auth", functionName, attributes...)
}

// TraceUserFunction starts a new span for a user service function.
func TraceUserFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "user", functionName, attributes...)
}

// TraceDictionaryFunction starts a new span for a dictionary service function.
func TraceDictionaryFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "dictionary", functionName, attributes...)
}

// TraceHandlerFunction starts a new span for a handler function.
func TraceHandlerFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "handler", functionName, attributes...)
}

// TraceDatabaseFunction starts a new span for a database function.
func TraceDatabaseFunction(ctx context.Context, functionName string, attributes ...attribute.KeyValue) (context.Context, trace.Span) {
	return TraceFunction(ctx, "database", functionName, attributes...)
}

// AttributeUserID returns a tracing attribute for a user ID.
func AttributeUserID(id int) attribute.KeyValue {
	return attribute.Int("user.id", id)
}

// AttributeFeedbackID returns a tracing attribute for a feedback item ID.
func AttributeFeedbackID(id int) attribute.KeyValue {
	return attribute.Int("feedback.id", id)
}

// AttributeDocumentID returns a tracing attribute for a document ID.
func AttributeDocumentID(id int) attribute.KeyValue {
	return attribute.Int("document.id", id)
}

// AttributePageNumber returns a tracing attribute for a document page number.
func AttributePageNumber(page int) attribute.KeyValue {
	return attribute.Int("document.page", page)
}

// AttributePage returns a tracing attribute for a pagination page value.
func AttributePage(page int) attribute.KeyValue {
	return attribute.Int("page", page)
}

// AttributePageSize returns a tracing attribute for a page size value.
func AttributePageSize(size int) attribute.KeyValue {
	return attribute.Int("page_size", size)
}

// AttributeKeyword returns a tracing attribute for a search keyword.
func AttributeKeyword(keyword string) attribute.KeyValue {
	return attribute.String("keyword", keyword)
}

// AttributeTypeFilter returns a tracing attribute for a type filter value.
func AttributeTypeFilter(typeFilter string) attribute.KeyValue {
	return attribute.String("type_filter", typeFilter)
}

// AttributeStatusFilter returns a tracing attribute for a status filter value.
func AttributeStatusFilter(statusFilter string) attribute.KeyValue {
	return attribute.String("status_filter", statusFilter)
}
