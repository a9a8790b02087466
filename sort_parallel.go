package depthsort

import (
	"cmp"
	"math/rand/v2"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/zxtej/depthsort/intmap"
)

// shardGrain is the minimum number of runs worth handing to one shard.
const shardGrain = 4096

// keyIDShard is a distinct key observed by one shard, with the shard-local
// dense id it was assigned.
type keyIDShard struct {
	key   int32
	id    int32
	shard int32
}

// countShard is one worker's private counting state: a local key-discovery
// map and local per-id counts. Workers touch only their own shard until the
// merge barrier, so no locking is needed.
type countShard struct {
	counts *intmap.Map
	locs   []int32
}

// shardedCountingSorter is the parallel variant of countingSorter. Each of
// up to `workers` shards counts its slice of the run list independently;
// after a barrier the per-shard (key, id) pairs are merged in shard order,
// stable-sorted by key once, and folded into a global prefix sum indexed by
// (shard, local id). Every shard then scatters its own runs using only its
// precomputed offsets, so concurrent writes never share a destination slot.
//
// Stability across shards holds because the merge appends shards in index
// order and the key sort is stable: equal keys keep shard order, shards
// partition the run list in submission order, and the per-shard reverse
// scan preserves order within a shard.
type shardedCountingSorter struct {
	workers     int
	mapCapacity int
	loadFactor  float64
	seed        uint64

	shards  []countShard
	ids     []int32      // shard-local dense id per run index
	triples []keyIDShard // merged distinct keys, sorted by key per flush
}

func newShardedCountingSorter(workers, mapCapacity int, loadFactor float64, seed uint64) (*shardedCountingSorter, error) {
	// Validate the map parameters once, up front; shards are created lazily.
	if _, err := intmap.New(mapCapacity, loadFactor); err != nil {
		return nil, err
	}
	return &shardedCountingSorter{
		workers:     workers,
		mapCapacity: mapCapacity,
		loadFactor:  loadFactor,
		seed:        seed,
	}, nil
}

// ensureShards lazily constructs shard state up to n shards. Each shard map
// gets an independent seeded randomness source so shards never share state.
func (s *shardedCountingSorter) ensureShards(n int) {
	for len(s.shards) < n {
		i := len(s.shards)
		m, err := intmap.New(s.mapCapacity, s.loadFactor)
		if err != nil {
			// Parameters were validated at construction.
			panic(err)
		}
		m.WithRand(rand.New(rand.NewPCG(s.seed, uint64(i)*2+1)))
		s.shards = append(s.shards, countShard{
			counts: m,
			locs:   make([]int32, s.mapCapacity),
		})
	}
}

func (s *shardedCountingSorter) sortRuns(arr, swap []run) ([]run, error) {
	end := len(arr)
	threads := min(s.workers, (end+shardGrain-1)/shardGrain)
	if threads < 1 {
		threads = 1
	}
	chunk := end/threads + 1
	s.ensureShards(threads)
	s.ids = grow32(s.ids, end)

	// Phase 1: per-shard counting.
	var g errgroup.Group
	for t := 0; t < threads; t++ {
		shard := &s.shards[t]
		lo := t * chunk
		hi := min(lo+chunk, end)
		g.Go(func() error {
			return retryOnce(func() {
				s.countShardRange(shard, arr, lo, hi)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Barrier: merge distinct keys in shard order, then one stable sort by
	// key over the distinct set only.
	triples := s.triples[:0]
	for t := 0; t < threads; t++ {
		it := s.shards[t].counts.Entries()
		for it.Next() {
			e := it.Entry()
			triples = append(triples, keyIDShard{key: e.Key, id: e.Value, shard: int32(t)})
		}
	}
	s.triples = triples
	slices.SortStableFunc(triples, func(a, b keyIDShard) int {
		return cmp.Compare(a.key, b.key)
	})

	// Global prefix pass. Sequential on purpose: it fixes every (shard, id)
	// bucket's destination range before any worker writes.
	var pos int32
	for i := range triples {
		tr := &triples[i]
		locs := s.shards[tr.shard].locs
		locs[tr.id] += pos
		pos = locs[tr.id]
	}

	// Phase 2: per-shard scatter into disjoint destination ranges.
	for t := 0; t < threads; t++ {
		shard := &s.shards[t]
		lo := t * chunk
		hi := min(lo+chunk, end)
		// No retry here: the scatter consumes the prefix sums destructively,
		// so a partial attempt cannot be rerun.
		g.Go(func() error {
			return runTask(func() {
				s.scatterShardRange(shard, arr, swap, lo, hi)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return swap, nil
}

func (s *shardedCountingSorter) countShardRange(shard *countShard, arr []run, lo, hi int) {
	shard.counts.Clear()
	ids := s.ids
	locs := shard.locs
	var unique int32
	for i := lo; i < hi; i++ {
		loc := shard.counts.GetOrPut(arr[i].key, unique)
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
	shard.locs = locs
}

func (s *shardedCountingSorter) scatterShardRange(shard *countShard, arr, swap []run, lo, hi int) {
	ids := s.ids
	locs := shard.locs
	for i := hi - 1; i >= lo; i-- {
		id := ids[i]
		locs[id]--
		swap[locs[id]] = arr[i]
	}
}
