package observability

import (
	"context"
	"os"

	"readerapp/internal/config"

	autosdk "go.opentelemetry.io/auto/sdk"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
)

// SetupObservability wires up tracing, metrics and logging for a service.
// Disabled subsystems return nil providers; the logger is always usable.
func SetupObservability(cfg *config.OpenTelemetryConfig, serviceName string) (result0 trace.TracerProvider, result1 *metric.MeterProvider, result2 *Logger, err error) {
	if serviceName != "" {
		cfg.ServiceName = serviceName
	}

	if err := os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName); err != nil {
		return nil, nil, nil, err
	}
	if err := os.Setenv("OTEL_SERVICE_VERSION", cfg.ServiceVersion); err != nil {
		return nil, nil, nil, err
	}

	logger := NewLogger(cfg)

	var tp trace.TracerProvider
	if cfg.EnableTracing {
		if cfg.UseAutoSDK {
			// Zero-instrumentation agents own the pipeline in this mode
			tp = autosdk.TracerProvider()
			otel.SetTracerProvider(tp)
			logger.Info(context.Background(), "Tracing enabled with Auto SDK", map[string]interface{}{"service_name": cfg.ServiceName})
		} else {
			tp, err = InitStandardTracing(cfg)
			if err != nil {
				return nil, nil, nil, err
			}
			otel.SetTracerProvider(tp)
			logger.Info(context.Background(), "Tracing enabled with standard SDK", map[string]interface{}{"service_name": cfg.ServiceName})
		}

		if err := InitTracing(cfg); err != nil {
			return nil, nil, nil, err
		}
		InitGlobalTracer()
	}

	var mp *metric.MeterProvider
	if cfg.EnableMetrics {
		if mp, err = InitMetrics(cfg); err != nil {
			return nil, nil, nil, err
		}
	}

	return tp, mp, logger, nil
}
