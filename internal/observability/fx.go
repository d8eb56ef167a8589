package observability

import (
	"github.com/smallbiznis/adopet/internal/observability/logger"
	"github.com/smallbiznis/adopet/internal/observability/metrics"
	"github.com/smallbiznis/adopet/internal/observability/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		NewResource,
		func(cfg Config) logger.Config {
			return logger.Config{
				ServiceName: cfg.ServiceName,
				Environment: cfg.Environment,
				Version:     cfg.Version,
				Level:       cfg.LogLevel,
				Format:      cfg.LogFormat,
				Development: cfg.Development(),
			}
		},
		logger.New,
		func(cfg Config, res *resource.Resource) tracing.Config {
			return tracing.Config{
				Enabled:       cfg.OTLP.Enabled,
				Resource:      res,
				Endpoint:      cfg.OTLP.Endpoint,
				Protocol:      cfg.OTLP.Protocol,
				SamplingRatio: cfg.OTLP.SamplingRatio,
			}
		},
		tracing.NewProvider,
		func(cfg Config, res *resource.Resource) metrics.Config {
			return metrics.Config{
				Enabled:  cfg.OTLP.Enabled,
				Resource: res,
				Endpoint: cfg.OTLP.Endpoint,
				Protocol: cfg.OTLP.Protocol,
			}
		},
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	// Nothing in the graph consumes the tracer provider or the store
	// collectors; force their construction.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
	fx.Invoke(func(cfg metrics.Config) { metrics.StoreWithConfig(cfg) }),
)

// NewResource describes this process to trace and metric backends.
func NewResource(cfg Config) *resource.Resource {
	return resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.Version),
		attribute.String("deployment.environment", cfg.Environment),
	)
}
