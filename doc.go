// Package depthsort implements a depth-stable batch reordering engine:
// given a growing sequence of items tagged with numeric depth keys, it
// produces the sequence sorted ascending by depth with ties broken by
// submission order, using an allocation-free, optionally multi-threaded
// pipeline.
//
// The engine is specialized for the run shape typical of rendering
// submission order, where many consecutive items share a depth. Each flush
// run-length encodes the key sequence, stable-sorts the compact run
// descriptors (counting sort over the distinct-key set, or fixed-width
// radix), converts run lengths into prefix-sum destination offsets, and
// scatters item payloads into sorted order with a recursive, work-balanced
// parallel copy.
//
// # Basic Usage
//
//	batch, err := depthsort.New[Sprite]()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, s := range sprites {
//	    batch.Add(s.Z, s)
//	}
//	err = batch.Flush(func(s Sprite) error {
//	    draw(s)
//	    return nil
//	})
//
// # Package Structure
//
//   - Public API: batch.go (New, Add, Sort, Flush), options.go (Option, With* functions)
//   - Depth keys: depthkey.go (DepthKey, valid depth domain)
//   - Pipeline stages: runs.go (run encoding), sort_counting.go, sort_parallel.go,
//     sort_radix.go (strategies), scatter.go (offsets, parallel populate)
//   - Supporting map: intmap/ (cuckoo hash map used by the counting strategies
//     and available standalone)
//   - Errors: errors/ (exported sentinels)
//
// A Batch is not safe for concurrent use: submissions and flushes must come
// from one goroutine at a time, and a flush must complete before the next
// begins. Internally a flush may fan work out across goroutines; the output
// is deterministic regardless of worker count.
package depthsort
