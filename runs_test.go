package depthsort

import (
	"testing"
)

func TestEncodeRuns(t *testing.T) {
	cases := []struct {
		name string
		keys []int32
		want []run
	}{
		{
			name: "single_key",
			keys: []int32{4, 4, 4},
			want: []run{{4, 0, 3}},
		},
		{
			name: "distinct_keys",
			keys: []int32{1, 2, 3},
			want: []run{{1, 0, 1}, {2, 1, 1}, {3, 2, 1}},
		},
		{
			name: "mixed",
			keys: []int32{5, 5, 5, 3, 3, 8},
			want: []run{{5, 0, 3}, {3, 3, 2}, {8, 5, 1}},
		},
		{
			// Non-adjacent spans sharing a key stay distinct descriptors.
			name: "repeated_key_separate_runs",
			keys: []int32{1, 1, 2, 1, 1},
			want: []run{{1, 0, 2}, {2, 2, 1}, {1, 3, 2}},
		},
		{
			name: "one_item",
			keys: []int32{9},
			want: []run{{9, 0, 1}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := encodeRuns(tc.keys, nil)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d runs %v, want %v", len(got), got, tc.want)
			}
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("run %d = %+v, want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

// TestEncodeRunsPartitions checks the partition invariant on random inputs:
// runs cover [0, N) in order without gaps or overlap and adjacent runs have
// different keys.
func TestEncodeRunsPartitions(t *testing.T) {
	rng := newTestRNG(t)
	var arena []run
	for iter := 0; iter < 100; iter++ {
		n := rng.IntN(5000) + 1
		keys := genRunKeys(rng, n, rng.IntN(30)+1, rng.IntN(50)+1)
		arena = encodeRuns(keys, arena)

		var next int32
		for i, r := range arena {
			if r.start != next {
				t.Fatalf("run %d starts at %d, want %d", i, r.start, next)
			}
			if r.length <= 0 {
				t.Fatalf("run %d has length %d", i, r.length)
			}
			if i > 0 && arena[i-1].key == r.key {
				t.Fatalf("adjacent runs %d and %d share key %d", i-1, i, r.key)
			}
			for j := r.start; j < r.start+r.length; j++ {
				if keys[j] != r.key {
					t.Fatalf("run %d covers index %d with key %d, want %d", i, j, keys[j], r.key)
				}
			}
			next = r.start + r.length
		}
		if int(next) != n {
			t.Fatalf("runs cover [0, %d), want [0, %d)", next, n)
		}
	}
}
