// Package observability provides OpenTelemetry tracing, metrics, and structured logging
// with trace correlation for the reader application.
package observability

import (
	"context"
	"os"

	"readerapp/internal/config"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a zap logger that stamps every record with the active trace and
// span ids and optionally tees records to an OTLP log exporter.
type Logger struct {
	*zap.Logger
}

// NewLogger creates an info-level logger from the telemetry config.
func NewLogger(cfg *config.OpenTelemetryConfig) *Logger {
	return NewLoggerWithLevel(cfg, zap.InfoLevel)
}

// NewLoggerWithLevel creates a logger at the given level. When logging is
// disabled the returned logger is a no-op, which keeps test output quiet.
func NewLoggerWithLevel(cfg *config.OpenTelemetryConfig, level zapcore.Level) *Logger {
	if cfg == nil || !cfg.EnableLogging {
		return &Logger{Logger: zap.NewNop()}
	}

	zapConfig := zap.NewProductionConfig()
	if os.Getenv("ENV") == "development" {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.StacktraceKey = "stacktrace"

	zapLogger, err := zapConfig.Build()
	if err != nil {
		zapLogger = zap.NewExample()
	}

	if cfg.Endpoint != "" {
		if withOTLP, err := teeOTLPCore(zapLogger, cfg); err != nil {
			// Export failures must not take logging down with them
			zapLogger.Error("Failed to set up OTLP logging", zap.Error(err), zap.String("endpoint", cfg.Endpoint))
		} else {
			zapLogger = withOTLP
			zapLogger.Info("OTLP logging configured", zap.String("endpoint", cfg.Endpoint))
		}
	}

	return &Logger{Logger: zapLogger}
}

// teeOTLPCore duplicates log records to an OTLP gRPC exporter alongside the
// stdout core.
func teeOTLPCore(zapLogger *zap.Logger, cfg *config.OpenTelemetryConfig) (*zap.Logger, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	exporter, err := otlploggrpc.New(context.Background(),
		otlploggrpc.WithEndpoint(cfg.Endpoint),
		otlploggrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	provider := log.NewLoggerProvider(
		log.WithProcessor(log.NewBatchProcessor(exporter)),
		log.WithResource(res),
	)
	otelCore := otelzap.NewCore("readerapp", otelzap.WithLoggerProvider(provider))
	return zap.New(zapcore.NewTee(zapLogger.Core(), otelCore)), nil
}

// Debug logs a debug message with trace correlation.
func (l *Logger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logWithContext(ctx, zap.DebugLevel, msg, fields...)
}

// Info logs an info message with trace correlation.
func (l *Logger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logWithContext(ctx, zap.InfoLevel, msg, fields...)
}

// Warn logs a warning with trace correlation.
func (l *Logger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.logWithContext(ctx, zap.WarnLevel, msg, fields...)
}

// Error logs an error with trace correlation; err may be nil.
func (l *Logger) Error(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	allFields := mergeFields(fields...)
	if err != nil {
		allFields["error"] = err.Error()
	}
	l.logWithContext(ctx, zap.ErrorLevel, msg, allFields)
}

func (l *Logger) logWithContext(ctx context.Context, level zapcore.Level, msg string, fields ...map[string]interface{}) {
	allFields := mergeFields(fields...)

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			allFields["trace_id"] = sc.TraceID().String()
			allFields["span_id"] = sc.SpanID().String()
		}
	}

	zapFields := make([]zap.Field, 0, len(allFields))
	for k, v := range allFields {
		zapFields = append(zapFields, zap.Any(k, v))
	}

	switch level {
	case zap.DebugLevel:
		l.Logger.Debug(msg, zapFields...)
	case zap.WarnLevel:
		l.Logger.Warn(msg, zapFields...)
	case zap.ErrorLevel:
		l.Logger.Error(msg, zapFields...)
	default:
		l.Logger.Info(msg, zapFields...)
	}
}

func mergeFields(fields ...map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{})
	for _, fieldMap := range fields {
		for k, v := range fieldMap {
			merged[k] = v
		}
	}
	return merged
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.Logger.Sync()
}
