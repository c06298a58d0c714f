// Package telemetry provides application-wide observability primitives for
// an enrichment run: OpenTelemetry metrics exposed through the Metrics API,
// with a Prometheus exporter bridge available via the caller's
// [metric.MeterProvider]. A package-level default [Metrics] instance
// ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all enrichment
// metrics.
const meterName = "github.com/glyphmatch/enrich"

// Metrics holds all OpenTelemetry metric instruments for one enrichment
// run, replacing the reference implementation's ad hoc module-level
// times_dict/bytes_sent_dict bookkeeping with proper counters and
// histograms. All fields are safe for concurrent use — the underlying OTel
// types handle their own synchronisation.
type Metrics struct {
	// VertexComparisonDuration tracks how long a single h_v/h_p round trip
	// against the peer oracle takes, end to end.
	VertexComparisonDuration metric.Float64Histogram

	// OracleRoundTrips counts every request sent to the peer oracle. Use
	// with attribute.String("message_type", ...).
	OracleRoundTrips metric.Int64Counter

	// BytesSent counts bytes written to the peer connection.
	BytesSent metric.Int64Counter

	// BytesReceived counts bytes read from the peer connection.
	BytesReceived metric.Int64Counter

	// VerticesCompared counts every vertex pair ParaMatch evaluated,
	// matched or not. Use with attribute.Bool("matched", ...).
	VerticesCompared metric.Int64Counter

	// MatchesFound counts vertex pairs ParaMatch decided denote the same
	// entity.
	MatchesFound metric.Int64Counter

	// EnrichedVertices counts vertices newly added to a graph by the merge
	// phase.
	EnrichedVertices metric.Int64Counter

	// ActiveSessions tracks the number of enrichment runs currently in
	// progress in this process.
	ActiveSessions metric.Int64UpDownCounter
}

// roundTripBuckets defines histogram bucket boundaries (in seconds)
// appropriate for a single encrypted round trip over a local or LAN
// connection.
var roundTripBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation
// fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.VertexComparisonDuration, err = m.Float64Histogram("enrich.vertex_comparison.duration",
		metric.WithDescription("Latency of a single h_v/h_p round trip against the peer oracle."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(roundTripBuckets...),
	); err != nil {
		return nil, err
	}
	if met.OracleRoundTrips, err = m.Int64Counter("enrich.oracle.round_trips",
		metric.WithDescription("Total requests sent to the peer oracle, by message type."),
	); err != nil {
		return nil, err
	}
	if met.BytesSent, err = m.Int64Counter("enrich.bytes_sent",
		metric.WithDescription("Total bytes written to the peer connection."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.BytesReceived, err = m.Int64Counter("enrich.bytes_received",
		metric.WithDescription("Total bytes read from the peer connection."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.VerticesCompared, err = m.Int64Counter("enrich.vertices_compared",
		metric.WithDescription("Total vertex pairs evaluated by ParaMatch, by match outcome."),
	); err != nil {
		return nil, err
	}
	if met.MatchesFound, err = m.Int64Counter("enrich.matches_found",
		metric.WithDescription("Total vertex pairs ParaMatch decided denote the same entity."),
	); err != nil {
		return nil, err
	}
	if met.EnrichedVertices, err = m.Int64Counter("enrich.enriched_vertices",
		metric.WithDescription("Total vertices newly added to a graph by the merge phase."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("enrich.active_sessions",
		metric.WithDescription("Number of enrichment runs currently in progress in this process."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("telemetry: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordOracleRoundTrip records one oracle request/reply cycle: the round
// trip counter, its latency, and the bytes exchanged.
func (m *Metrics) RecordOracleRoundTrip(ctx context.Context, messageType string, elapsed time.Duration, bytesSent, bytesReceived int) {
	m.OracleRoundTrips.Add(ctx, 1, metric.WithAttributes(Attr("message_type", messageType)))
	m.VertexComparisonDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(Attr("message_type", messageType)))
	if bytesSent > 0 {
		m.BytesSent.Add(ctx, int64(bytesSent))
	}
	if bytesReceived > 0 {
		m.BytesReceived.Add(ctx, int64(bytesReceived))
	}
}

// RecordComparison records one ParaMatch vertex-pair evaluation and its
// outcome.
func (m *Metrics) RecordComparison(ctx context.Context, matched bool) {
	m.VerticesCompared.Add(ctx, 1, metric.WithAttributes(attribute.Bool("matched", matched)))
	if matched {
		m.MatchesFound.Add(ctx, 1)
	}
}

// RecordEnrichedVertices records how many vertices a merge phase added to a
// graph.
func (m *Metrics) RecordEnrichedVertices(ctx context.Context, count int) {
	if count > 0 {
		m.EnrichedVertices.Add(ctx, int64(count))
	}
}
