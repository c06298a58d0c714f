package henc

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
)

// RandomMask draws a uniformly random float64 strictly between lb and ub,
// used to blind the magnitude of a decrypted similarity value before it
// crosses the wire: the oracle on the other side only ever sees
// (value - threshold) * mask, never the value itself, so it can answer a
// ranking question without learning the plaintext similarity.
func RandomMask(lb, ub float64) (float64, error) {
	if ub <= lb {
		return 0, fmt.Errorf("henc: random mask: upper bound %v must exceed lower bound %v", ub, lb)
	}
	for {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, fmt.Errorf("henc: random mask: %w", err)
		}
		// Map the uniform 64-bit sample into [0, 1) the same way
		// math/rand's Float64 does, then scale into (lb, ub).
		u := float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53)
		mask := lb + u*(ub-lb)
		if mask > lb && mask < ub && !math.IsNaN(mask) {
			return mask, nil
		}
	}
}
