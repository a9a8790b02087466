package intmap

import (
	"fmt"
	"testing"
)

func TestPreHashNeverZero(t *testing.T) {
	// Deterministic and never the empty sentinel, across many inputs.
	seen := make(map[int32]int)
	for i := 0; i < 100000; i++ {
		key := PreHash([]byte(fmt.Sprintf("entity/%d", i)))
		if key == 0 {
			t.Fatalf("PreHash produced the 0 sentinel for input %d", i)
		}
		seen[key]++
	}
	// A few 32-bit collisions in 1e5 inputs are plausible; a flood is not.
	collisions := 0
	for _, n := range seen {
		if n > 1 {
			collisions += n - 1
		}
	}
	if collisions > 5 {
		t.Fatalf("%d collisions in 100000 keys, distribution looks broken", collisions)
	}
}

func TestPreHashDeterministic(t *testing.T) {
	a := PreHash([]byte("hello"))
	b := PreHash([]byte("hello"))
	if a != b {
		t.Fatalf("PreHash not deterministic: %d != %d", a, b)
	}
	if PreHashSeed([]byte("hello"), 1) == PreHashSeed([]byte("hello"), 2) {
		t.Fatal("different seeds produced identical keys")
	}
}

func TestPreHashWithMap(t *testing.T) {
	m := NewDefault()
	names := []string{"grass", "stone", "water", "lava", "sand"}
	for i, name := range names {
		m.Put(PreHash([]byte(name)), int32(i))
	}
	if got := m.Size(); got != len(names) {
		t.Fatalf("Size = %d, want %d", got, len(names))
	}
	for i, name := range names {
		if got := m.Get(PreHash([]byte(name)), -1); got != int32(i) {
			t.Fatalf("Get(%q) = %d, want %d", name, got, i)
		}
	}
}
