package embedenc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glyphmatch/enrich/internal/embedenc"
	"github.com/glyphmatch/enrich/internal/embedenc/mock"
	"github.com/glyphmatch/enrich/internal/resilience"
)

func fallbackConfig() resilience.FallbackConfig {
	return resilience.FallbackConfig{
		CircuitBreaker: resilience.CircuitBreakerConfig{
			MaxFailures:  1,
			ResetTimeout: time.Minute,
			HalfOpenMax:  1,
		},
	}
}

func TestFallbackEncoderUsesPrimaryWhenHealthy(t *testing.T) {
	primary := &mock.Encoder{ModelIDValue: "primary-model", DimensionsValue: 4}
	secondary := &mock.Encoder{ModelIDValue: "secondary-model", DimensionsValue: 4}

	fe := embedenc.NewFallbackEncoder(primary, "primary", fallbackConfig())
	fe.AddFallback("secondary", secondary)

	if _, err := fe.Encode(context.Background(), "hello"); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(primary.EncodeCalls) != 1 {
		t.Errorf("primary.EncodeCalls = %d, want 1", len(primary.EncodeCalls))
	}
	if len(secondary.EncodeCalls) != 0 {
		t.Errorf("secondary.EncodeCalls = %d, want 0", len(secondary.EncodeCalls))
	}
	if fe.ModelID() != "primary-model" {
		t.Errorf("ModelID() = %q, want primary-model", fe.ModelID())
	}
	if fe.Dimensions() != 4 {
		t.Errorf("Dimensions() = %d, want 4", fe.Dimensions())
	}
}

func TestFallbackEncoderDegradesToSecondaryOnPrimaryFailure(t *testing.T) {
	primary := &mock.Encoder{EncodeErr: errors.New("provider down")}
	secondary := &mock.Encoder{DimensionsValue: 4}

	fe := embedenc.NewFallbackEncoder(primary, "primary", fallbackConfig())
	fe.AddFallback("secondary", secondary)

	if _, err := fe.Encode(context.Background(), "hello"); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(secondary.EncodeCalls) != 1 {
		t.Errorf("secondary.EncodeCalls = %d, want 1", len(secondary.EncodeCalls))
	}
}

func TestFallbackEncoderReturnsErrAllFailedWhenEveryBackendFails(t *testing.T) {
	primary := &mock.Encoder{EncodeErr: errors.New("primary down")}
	secondary := &mock.Encoder{EncodeErr: errors.New("secondary down")}

	fe := embedenc.NewFallbackEncoder(primary, "primary", fallbackConfig())
	fe.AddFallback("secondary", secondary)

	if _, err := fe.Encode(context.Background(), "hello"); !errors.Is(err, resilience.ErrAllFailed) {
		t.Errorf("Encode err = %v, want wrapping ErrAllFailed", err)
	}
}

func TestFallbackEncoderEncodeBatchDegrades(t *testing.T) {
	primary := &mock.Encoder{EncodeErr: errors.New("primary down")}
	secondary := &mock.Encoder{DimensionsValue: 4}

	fe := embedenc.NewFallbackEncoder(primary, "primary", fallbackConfig())
	fe.AddFallback("secondary", secondary)

	out, err := fe.EncodeBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("EncodeBatch: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	if len(secondary.EncodeCalls) != 2 {
		t.Errorf("secondary.EncodeCalls = %d, want 2 (one per text)", len(secondary.EncodeCalls))
	}
}
