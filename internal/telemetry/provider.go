package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ProviderConfig configures the OpenTelemetry metrics SDK for one process.
type ProviderConfig struct {
	// ServiceName is the service name reported on exported metrics. Default:
	// "enrich".
	ServiceName string

	// ServiceVersion is the service version reported on exported metrics.
	ServiceVersion string

	// MetricsAddr is the address an HTTP server exposing the Prometheus
	// "/metrics" endpoint listens on, e.g. ":9090". Leave empty to build the
	// provider without starting a listener — useful when a caller wants to
	// mount the handler on its own mux.
	MetricsAddr string
}

// InitProvider builds an [sdkmetric.MeterProvider] backed by a Prometheus
// exporter, registers it as the global OTel meter provider so
// [DefaultMetrics] picks it up, and — if cfg.MetricsAddr is set — starts an
// HTTP server exposing "/metrics" in the background.
//
// Returns a shutdown function that flushes and closes the provider. Call it
// in a defer from main().
func InitProvider(ctx context.Context, cfg ProviderConfig) (shutdown func(context.Context) error, err error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "enrich"
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	promExp, err := promexporter.New()
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExp),
	)
	otel.SetMeterProvider(mp)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() { _ = srv.ListenAndServe() }()
		return func(shutCtx context.Context) error {
			_ = srv.Shutdown(shutCtx)
			return mp.Shutdown(shutCtx)
		}, nil
	}

	return mp.Shutdown, nil
}
