package telemetry

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetricsCreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestRecordOracleRoundTrip(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordOracleRoundTrip(ctx, "vertex_similarity", 12*time.Millisecond, 64, 4)
	m.RecordOracleRoundTrip(ctx, "vertex_similarity", 8*time.Millisecond, 64, 4)

	rm := collect(t, reader)

	rt := findMetric(rm, "enrich.oracle.round_trips")
	if rt == nil {
		t.Fatal("round_trips metric not found")
	}
	sum, ok := rt.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("round_trips is not a sum")
	}
	if len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 2 {
		t.Errorf("round_trips value = %+v, want 2", sum.DataPoints)
	}

	dur := findMetric(rm, "enrich.vertex_comparison.duration")
	if dur == nil {
		t.Fatal("duration metric not found")
	}
	hist, ok := dur.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("duration is not a histogram")
	}
	if len(hist.DataPoints) == 0 || hist.DataPoints[0].Count != 2 {
		t.Errorf("duration sample count = %+v, want 2", hist.DataPoints)
	}

	sent := findMetric(rm, "enrich.bytes_sent")
	sentSum, ok := sent.Data.(metricdata.Sum[int64])
	if !ok || len(sentSum.DataPoints) == 0 || sentSum.DataPoints[0].Value != 128 {
		t.Errorf("bytes_sent = %+v, want 128", sentSum.DataPoints)
	}

	recv := findMetric(rm, "enrich.bytes_received")
	recvSum, ok := recv.Data.(metricdata.Sum[int64])
	if !ok || len(recvSum.DataPoints) == 0 || recvSum.DataPoints[0].Value != 8 {
		t.Errorf("bytes_received = %+v, want 8", recvSum.DataPoints)
	}
}

func TestRecordComparison(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordComparison(ctx, false)
	m.RecordComparison(ctx, true)
	m.RecordComparison(ctx, true)

	rm := collect(t, reader)

	compared := findMetric(rm, "enrich.vertices_compared")
	if compared == nil {
		t.Fatal("vertices_compared metric not found")
	}
	sum, ok := compared.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("vertices_compared is not a sum")
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 3 {
		t.Errorf("vertices_compared total = %d, want 3", total)
	}

	matched := findMetric(rm, "enrich.matches_found")
	matchedSum, ok := matched.Data.(metricdata.Sum[int64])
	if !ok || len(matchedSum.DataPoints) == 0 || matchedSum.DataPoints[0].Value != 2 {
		t.Errorf("matches_found = %+v, want 2", matchedSum.DataPoints)
	}
}

func TestRecordEnrichedVertices(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordEnrichedVertices(ctx, 0)
	m.RecordEnrichedVertices(ctx, 7)

	rm := collect(t, reader)
	enriched := findMetric(rm, "enrich.enriched_vertices")
	if enriched == nil {
		t.Fatal("enriched_vertices metric not found")
	}
	sum, ok := enriched.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 7 {
		t.Errorf("enriched_vertices = %+v, want 7", sum.DataPoints)
	}
}

func TestActiveSessionsGauge(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, -1)

	rm := collect(t, reader)
	active := findMetric(rm, "enrich.active_sessions")
	if active == nil {
		t.Fatal("active_sessions metric not found")
	}
	sum, ok := active.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 1 {
		t.Errorf("active_sessions = %+v, want 1", sum.DataPoints)
	}
}

func TestDefaultMetricsReturnsSameInstance(t *testing.T) {
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different pointers")
	}
}
