// Package metrics exports delivery and GitHub API counters in Prometheus
// format through an OpenTelemetry meter provider.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/garrettladley/checkrun/internal/version"
)

const meterName = "github.com/garrettladley/checkrun"

type Metrics struct {
	provider *sdkmetric.MeterProvider
	registry *prometheus.Registry

	deliveries metric.Int64Counter
	requests   metric.Int64Counter
}

// New registers the instruments on a private registry and leaves the global
// otel meter provider untouched, so several instances can coexist in one
// process.
func New() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	meter := provider.Meter(meterName, metric.WithInstrumentationVersion(version.Get()))

	deliveries, err := meter.Int64Counter(
		"webhook.deliveries",
		metric.WithDescription("Webhook deliveries by event, action and outcome"),
		metric.WithUnit("{delivery}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create deliveries counter: %w", err)
	}

	requests, err := meter.Int64Counter(
		"github.requests",
		metric.WithDescription("GitHub REST requests by method and response status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create requests counter: %w", err)
	}

	return &Metrics{
		provider:   provider,
		registry:   registry,
		deliveries: deliveries,
		requests:   requests,
	}, nil
}

func (m *Metrics) RecordDelivery(ctx context.Context, event, action, status string) {
	m.deliveries.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event", event),
		attribute.String("action", action),
		attribute.String("status", status),
	))
}

// ObserveRequest counts one GitHub call. A zero status is recorded as "error".
func (m *Metrics) ObserveRequest(ctx context.Context, method string, status int) {
	statusLabel := "error"
	if status != 0 {
		statusLabel = strconv.Itoa(status)
	}
	m.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("status", statusLabel),
	))
}

// Handler serves GET /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}
