package henc

import "testing"

func TestRandomMaskStaysWithinOpenInterval(t *testing.T) {
	for i := 0; i < 100; i++ {
		m, err := RandomMask(1, 2)
		if err != nil {
			t.Fatalf("RandomMask: %v", err)
		}
		if m <= 1 || m >= 2 {
			t.Fatalf("RandomMask() = %v, want strictly between 1 and 2", m)
		}
	}
}

func TestRandomMaskRejectsInvertedBounds(t *testing.T) {
	if _, err := RandomMask(2, 1); err == nil {
		t.Error("RandomMask(2, 1) should error")
	}
}
