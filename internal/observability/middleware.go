package observability

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	contextutils "readerapp/internal/utils"
)

// GinMiddleware returns the plain otelgin request tracing middleware.
func GinMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// GinMiddlewareWithErrorHandling traces requests via otelgin and, for 4xx/5xx
// responses, enriches the request span with the AppError details handlers
// attached through c.Error.
func GinMiddlewareWithErrorHandling(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		otelgin.Middleware(serviceName)(c)
		c.Next()

		status := c.Writer.Status()
		if status < 400 {
			return
		}
		span := trace.SpanFromContext(c.Request.Context())
		if span == nil {
			return
		}
		annotateErrorSpan(span, c, status)
	}
}

func annotateErrorSpan(span trace.Span, c *gin.Context, status int) {
	msg := "client error"
	if status >= 500 {
		msg = "server error"
	}
	severity := severityForStatus(status)

	var appErr *contextutils.AppError
	for _, ginErr := range c.Errors {
		if contextutils.AsError(ginErr.Err, &appErr) {
			msg = appErr.Message
			severity = string(appErr.Severity)
			break
		}
		msg = ginErr.Error()
	}

	span.RecordError(errors.New(msg), trace.WithStackTrace(true))
	span.SetStatus(codes.Error, msg)
	span.SetAttributes(
		attribute.Int("http.status_code", status),
		attribute.String("http.method", c.Request.Method),
		attribute.String("http.path", c.Request.URL.Path),
		attribute.String("error.handler", c.HandlerName()),
		attribute.String("error.severity", severity),
	)

	if appErr != nil {
		span.SetAttributes(
			attribute.String("error.code", string(appErr.Code)),
			attribute.Bool("error.retryable", contextutils.IsRetryable(appErr)),
		)
	}
	if rawID, exists := c.Get("user_id"); exists {
		if userID, ok := rawID.(int); ok {
			span.SetAttributes(attribute.Int("error.user_id", userID))
		}
	}
	if c.Request.ContentLength > 0 {
		span.SetAttributes(attribute.Int64("error.request_size", c.Request.ContentLength))
	}
	if status >= 500 {
		span.SetAttributes(attribute.Bool("error.server_error", true))
	}
}

func severityForStatus(status int) string {
	switch {
	case status >= 500:
		return string(contextutils.SeverityError)
	case status >= 400:
		return string(contextutils.SeverityWarn)
	default:
		return string(contextutils.SeverityInfo)
	}
}
