package telemetry

import (
	"context"
	"testing"
)

// TestInitProvider exercises InitProvider end to end: building the SDK meter
// provider, starting the "/metrics" listener, and shutting both down cleanly.
//
// Only one InitProvider call happens per test binary run — the Prometheus
// bridge registers its collector against the global default registerer, and
// a second call in the same process would panic on duplicate registration.
func TestInitProvider(t *testing.T) {
	// Port 0 lets the OS pick a free port; InitProvider doesn't report it
	// back, but this still exercises the listener/shutdown path end to end.
	shutdown, err := InitProvider(context.Background(), ProviderConfig{
		ServiceName: "enrich-test",
		MetricsAddr: "127.0.0.1:0",
	})
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	if shutdown == nil {
		t.Fatal("InitProvider: want non-nil shutdown func")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}
