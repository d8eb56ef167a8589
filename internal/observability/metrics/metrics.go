package metrics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Config struct {
	Enabled  bool
	Resource *resource.Resource
	Endpoint string
	Protocol string
}

// Metrics holds the OTLP domain counters. A nil *Metrics records nothing,
// which is what services get when observability is not wired.
type Metrics struct {
	searches         metric.Int64Counter
	expensesCreated  metric.Int64Counter
	adoptions        metric.Int64Counter
	rateLimitAllowed metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
}

func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.Protocol, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	opts := []sdkmetric.Option{
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))),
	}
	if cfg.Resource != nil {
		opts = append(opts, sdkmetric.WithResource(cfg.Resource))
	}
	provider := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.StopHook(provider.Shutdown))
	}
	if log != nil {
		log.Info("metric export enabled", zap.String("endpoint", cfg.Endpoint), zap.String("protocol", cfg.Protocol))
	}
	return provider, nil
}

func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(serviceName(cfg))

	var errs []error
	counter := func(name, description string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(description))
		errs = append(errs, err)
		return c
	}
	m := &Metrics{
		searches:         counter("adopet.search.requests", "Public proximity searches by kind."),
		expensesCreated:  counter("adopet.expenses.created", "Expenses accepted by the tenant guard."),
		adoptions:        counter("adopet.adoption.transitions", "Adoption records opened, closed or rejected."),
		rateLimitAllowed: counter("adopet.ratelimit.allowed", "Public requests admitted by the token bucket."),
		rateLimitDenied:  counter("adopet.ratelimit.denied", "Public requests refused by the token bucket."),
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordSearch counts an animal or organization search; geo tells whether a
// reference coordinate was supplied.
func (m *Metrics) RecordSearch(ctx context.Context, kind string, geo bool) {
	if m == nil {
		return
	}
	outcome := "plain"
	if geo {
		outcome = "geo"
	}
	m.searches.Add(ctx, 1, withAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordExpenseCreated(ctx context.Context, orgID string) {
	if m == nil {
		return
	}
	m.expensesCreated.Add(ctx, 1, withAttributes(attribute.String("org_id", orgID)))
}

// RecordAdoption counts a transition: created, closed or rejected.
func (m *Metrics) RecordAdoption(ctx context.Context, orgID, outcome string) {
	if m == nil {
		return
	}
	m.adoptions.Add(ctx, 1, withAttributes(
		attribute.String("org_id", orgID),
		attribute.String("outcome", outcome),
	))
}

func (m *Metrics) RecordRateLimitAllowed(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.rateLimitAllowed.Add(ctx, 1, withAttributes(attribute.String("endpoint", endpoint)))
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint, reason string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.Add(ctx, 1, withAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("reason", reason),
	))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf", "http/json":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(ctx, opts...)
	case "", "grpc", "grpc/protobuf":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	}
	return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
}

// Label keys allowed on domain counters. Animal, expense and adopter ids
// would explode cardinality and adopter data is personal.
var allowedLabelKeys = map[attribute.Key]struct{}{
	"org_id":      {},
	"endpoint":    {},
	"status_code": {},
	"kind":        {},
	"outcome":     {},
	"reason":      {},
}

// FilterAttributes keeps the allowed keys and drops empty values.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		if attr.Value.Type() == attribute.STRING {
			value := strings.TrimSpace(attr.Value.AsString())
			if value == "" {
				continue
			}
			attr = attr.Key.String(value)
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

func withAttributes(attrs ...attribute.KeyValue) metric.AddOption {
	return metric.WithAttributes(FilterAttributes(attrs...)...)
}

func serviceName(cfg Config) string {
	return resourceValue(cfg.Resource, "service.name", "adopet")
}

func resourceValue(res *resource.Resource, key attribute.Key, def string) string {
	if res == nil {
		return def
	}
	if value, ok := res.Set().Value(key); ok {
		if s := strings.TrimSpace(value.AsString()); s != "" {
			return s
		}
	}
	return def
}
