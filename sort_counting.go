package depthsort

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"github.com/zxtej/depthsort/intmap"
)

// keyID pairs a distinct key with the dense id assigned on first sight.
type keyID struct {
	key int32
	id  int32
}

// countingSorter stable-sorts runs with a counting sort whose buckets are
// discovered through a cuckoo map: each distinct key gets a dense id in
// first-seen order, per-id occupancy counts become a prefix chain in
// key-sorted order, and a reverse scan scatters runs into place. The
// comparison sort touches only the distinct-key set, which for typical
// submission patterns is orders of magnitude smaller than the run count.
//
// All scratch (map, counts, ids, distinct entries) belongs to this instance
// and is reused across flushes.
type countingSorter struct {
	counts  *intmap.Map
	locs    []int32 // per dense id: count, then cumulative end offset
	ids     []int32 // dense id per run index
	entries []keyID // distinct (key, id) pairs, sorted by key per flush
}

func newCountingSorter(mapCapacity int, loadFactor float64, seed uint64) (*countingSorter, error) {
	m, err := intmap.New(mapCapacity, loadFactor)
	if err != nil {
		return nil, err
	}
	m.WithRand(rand.New(rand.NewPCG(seed, seed>>1|1)))
	return &countingSorter{
		counts: m,
		locs:   make([]int32, mapCapacity),
	}, nil
}

func (s *countingSorter) sortRuns(arr, swap []run) ([]run, error) {
	end := len(arr)
	s.counts.Clear()
	s.ids = grow32(s.ids, end)
	ids := s.ids
	locs := s.locs

	var unique int32
	for i := 0; i < end; i++ {
		loc := s.counts.GetOrPut(arr[i].key, unique)
		ids[i] = loc
		if loc == unique {
			if int(unique) >= len(locs) {
				locs = grow32(locs, int(unique)+1)
			}
			locs[unique] = 1
			unique++
		} else {
			locs[loc]++
		}
	}
	s.locs = locs

	// Collect and order the distinct keys.
	entries := s.entries[:0]
	it := s.counts.Entries()
	for it.Next() {
		e := it.Entry()
		entries = append(entries, keyID{key: e.Key, id: e.Value})
	}
	s.entries = entries
	slices.SortFunc(entries, func(a, b keyID) int {
		return cmp.Compare(a.key, b.key)
	})

	// Chain counts into cumulative end offsets in key order.
	prev := entries[0].id
	for i := 1; i < len(entries); i++ {
		next := entries[i].id
		locs[next] += locs[prev]
		prev = next
	}

	// Stable placement: scanning runs back to front while filling each
	// bucket from its end preserves submission order among equal keys.
	for i := end - 1; i >= 0; i-- {
		id := ids[i]
		locs[id]--
		swap[locs[id]] = arr[i]
	}
	return swap, nil
}
