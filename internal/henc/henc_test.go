package henc

import "testing"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	ctx, err := NewContext(DefaultParamsConfig())
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	vec := []float64{0.5, -0.25, 0.125, 0.0625}
	ev, err := ctx.Encrypt(vec)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	got, err := ev.Decrypt()
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if diff := got - vec[0]; diff > 1e-2 || diff < -1e-2 {
		t.Errorf("Decrypt() first slot = %v, want approx %v", got, vec[0])
	}
}

func TestDotProductOfOrthogonalVectorsIsNearZero(t *testing.T) {
	ctx, err := NewContext(DefaultParamsConfig())
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	a, err := ctx.Encrypt([]float64{1, 0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	b, err := ctx.Encrypt([]float64{0, 1, 0, 0})
	if err != nil {
		t.Fatal(err)
	}

	dot, err := a.Dot(b)
	if err != nil {
		t.Fatalf("Dot: %v", err)
	}
	got, err := dot.Decrypt()
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got > 0.1 || got < -0.1 {
		t.Errorf("dot product of orthogonal vectors = %v, want ~0", got)
	}
}

func TestLoadPublicContextCanEncryptAndEvaluate(t *testing.T) {
	owner, err := NewContext(DefaultParamsConfig())
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}

	wire, err := owner.SerializeContext()
	if err != nil {
		t.Fatalf("SerializeContext: %v", err)
	}

	peer, err := LoadPublicContext(DefaultParamsConfig(), wire)
	if err != nil {
		t.Fatalf("LoadPublicContext: %v", err)
	}

	a, err := peer.Encrypt([]float64{1, 0, 0, 0})
	if err != nil {
		t.Fatalf("Encrypt on loaded public context: %v", err)
	}
	b, err := owner.Encrypt([]float64{1, 0, 0, 0})
	if err != nil {
		t.Fatalf("Encrypt on owner: %v", err)
	}

	// a and b were encrypted by different Context values, but under the
	// same key material, so ciphertexts round-tripped through
	// Serialize/Deserialize must be interchangeable for homomorphic ops.
	aData, err := a.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	aOnOwner, err := owner.Deserialize(aData)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	dot, err := aOnOwner.Dot(b)
	if err != nil {
		t.Fatalf("Dot: %v", err)
	}
	got, err := dot.Decrypt()
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if diff := got - 1; diff > 1e-2 || diff < -1e-2 {
		t.Errorf("dot product of identical unit vectors = %v, want ~1", got)
	}

	if _, err := a.Decrypt(); err == nil {
		t.Error("Decrypt should fail against a loaded public-only context")
	}
}

func TestSerializeWithoutSecretKey(t *testing.T) {
	ctx, err := NewContext(DefaultParamsConfig())
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	pub := ctx.PublicContext()

	ev, err := pub.Encrypt([]float64{1, 2, 3})
	if err != nil {
		t.Fatalf("Encrypt with public context: %v", err)
	}
	if _, err := ev.Decrypt(); err == nil {
		t.Error("Decrypt should fail against a public-only context")
	}
}
