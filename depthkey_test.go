package depthsort

import (
	"testing"
)

func TestDepthKeyMonotonic(t *testing.T) {
	rng := newTestRNG(t)
	const iterations = 100000
	for i := 0; i < iterations; i++ {
		a := rng.Float32() * (MaxDepth - MinDepth)
		b := rng.Float32() * (MaxDepth - MinDepth)
		if a > b {
			a, b = b, a
		}
		ka, kb := DepthKey(a), DepthKey(b)
		switch {
		case a < b && ka >= kb:
			t.Fatalf("DepthKey(%v)=%d >= DepthKey(%v)=%d", a, ka, b, kb)
		case a == b && ka != kb:
			t.Fatalf("equal depths %v mapped to different keys %d, %d", a, ka, kb)
		}
	}
}

func TestDepthKeyDomainEdges(t *testing.T) {
	lo := DepthKey(MinDepth)
	hi := DepthKey(495.99)
	if lo >= hi {
		t.Fatalf("domain edges not ordered: %d >= %d", lo, hi)
	}
	if lo < 0 || hi < 0 {
		t.Fatalf("keys negative at domain edges: %d, %d", lo, hi)
	}
}

// TestDepthKeyRadixWidth pins the property the radix strategy relies on:
// across the whole depth domain, only the low 26 bits of the key vary.
func TestDepthKeyRadixWidth(t *testing.T) {
	rng := newTestRNG(t)
	high := uint32(DepthKey(MinDepth)) >> defaultKeyBits
	for i := 0; i < 100000; i++ {
		d := MinDepth + rng.Float32()*(MaxDepth-MinDepth)
		if got := uint32(DepthKey(d)) >> defaultKeyBits; got != high {
			t.Fatalf("depth %v: high bits %#x, want %#x", d, got, high)
		}
	}
}
