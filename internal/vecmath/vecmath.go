// Package vecmath provides the dense-vector arithmetic shared by the
// encrypted and plaintext similarity engines: normalization, dot product,
// cosine similarity, and an orthogonal-rotation "scale-and-perturb" style
// obfuscation helper. The rotation helpers are not called by either engine;
// only this package's tests exercise them.
package vecmath

import (
	"crypto/rand"
	"fmt"
	"math"
	mathrand "math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Dot returns the dot product of a and b. Panics if the slices differ in
// length, matching gonum's own convention for mismatched dimensions.
func Dot(a, b []float64) float64 {
	if len(a) != len(b) {
		panic(fmt.Sprintf("vecmath: dot: length mismatch %d != %d", len(a), len(b)))
	}
	va := mat.NewVecDense(len(a), a)
	vb := mat.NewVecDense(len(b), b)
	return mat.Dot(va, vb)
}

// Norm returns the Euclidean (L2) norm of v.
func Norm(v []float64) float64 {
	vv := mat.NewVecDense(len(v), v)
	return mat.Norm(vv, 2)
}

// Normalize returns a copy of v scaled to unit L2 norm. A zero vector is
// returned unchanged (dividing by a zero norm would produce NaNs).
func Normalize(v []float64) []float64 {
	n := Norm(v)
	out := make([]float64, len(v))
	if n == 0 {
		copy(out, v)
		return out
	}
	for i, x := range v {
		out[i] = x / n
	}
	return out
}

// Cosine returns the cosine similarity between a and b, in [-1, 1]. Returns 0
// if either vector has zero norm.
func Cosine(a, b []float64) float64 {
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (na * nb)
}

// GenerateOrthogonalMatrix builds a random dim×dim orthogonal matrix via QR
// decomposition of a ChaCha8-seeded Gaussian random matrix, deterministic in
// seed. Rotating vectors by the result hides their raw coordinates while
// preserving pairwise dot products.
func GenerateOrthogonalMatrix(seed [32]byte, dim int) (*mat.Dense, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("vecmath: orthogonal matrix: dimension must be positive, got %d", dim)
	}

	rng := mathrand.New(mathrand.NewChaCha8(seed))
	data := make([]float64, dim*dim)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	randomMatrix := mat.NewDense(dim, dim, data)

	var qr mat.QR
	qr.Factorize(randomMatrix)
	var q mat.Dense
	qr.QTo(&q)
	return &q, nil
}

// RandomSeed draws 32 bytes of cryptographic entropy suitable for
// [GenerateOrthogonalMatrix].
func RandomSeed() ([32]byte, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return seed, fmt.Errorf("vecmath: random seed: %w", err)
	}
	return seed, nil
}

// Rotate applies the orthogonal matrix q to v and returns the result. Because
// q is orthogonal, rotation preserves norms and pairwise dot products, so two
// vectors rotated by the same q compare identically before and after.
func Rotate(q *mat.Dense, v []float64) []float64 {
	vv := mat.NewVecDense(len(v), v)
	var out mat.VecDense
	out.MulVec(q, vv)
	result := make([]float64, out.Len())
	for i := range result {
		result[i] = out.AtVec(i)
	}
	return result
}

// ApproxEqual reports whether a and b agree within epsilon, used by tests
// that compare floating-point similarity scores.
func ApproxEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}
