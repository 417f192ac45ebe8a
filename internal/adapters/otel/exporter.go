package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/emiliopalmerini/agentpulse/internal/domain"
)

const (
	serviceName    = "agentpulse"
	serviceVersion = "1.0.0"
)

// Exporter publishes ingestion counters to an OTEL Collector.
type Exporter struct {
	provider    *sdkmetric.MeterProvider
	meter       metric.Meter
	eventsTotal metric.Int64Counter
	tokensTotal metric.Int64Counter
	costTotal   metric.Float64Counter
}

// NewExporter creates a new OTEL metrics exporter.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, fmt.Errorf("OTEL exporter is disabled or endpoint not configured")
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	eventsTotal, err := meter.Int64Counter(
		"agentpulse_events_total",
		metric.WithDescription("Total ingested telemetry events"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events counter: %w", err)
	}

	tokensTotal, err := meter.Int64Counter(
		"agentpulse_tokens_total",
		metric.WithDescription("Total tokens consumed by model requests"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tokens counter: %w", err)
	}

	costTotal, err := meter.Float64Counter(
		"agentpulse_cost_usd",
		metric.WithDescription("Total estimated cost in USD"),
		metric.WithUnit("USD"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cost counter: %w", err)
	}

	return &Exporter{
		provider:    provider,
		meter:       meter,
		eventsTotal: eventsTotal,
		tokensTotal: tokensTotal,
		costTotal:   costTotal,
	}, nil
}

// RecordEvent counts one successfully ingested event.
func (e *Exporter) RecordEvent(ctx context.Context, kind string) {
	e.eventsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordUsage adds a request's measurement delta to the token and cost
// counters. Deltas can be negative when a stale report is redelivered; OTEL
// counters reject negative increments, so those are skipped.
func (e *Exporter) RecordUsage(ctx context.Context, providerID, modelID string, delta domain.Measurements) {
	opt := metric.WithAttributes(
		attribute.String("provider_id", providerID),
		attribute.String("model_id", modelID),
	)

	tokens := delta.TokensInput + delta.TokensOutput + delta.TokensReasoning
	if tokens > 0 {
		e.tokensTotal.Add(ctx, tokens, opt)
	}
	if delta.CostUSD > 0 {
		e.costTotal.Add(ctx, delta.CostUSD, opt)
	}
}

// Shutdown flushes any pending metrics and stops the provider.
func (e *Exporter) Shutdown(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
