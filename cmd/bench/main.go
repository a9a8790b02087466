// Bench is a benchmarking tool for measuring depthsort flush performance
// across sort strategies and worker counts.
//
// Usage:
//
//	go run ./cmd/bench -items 1000000 -depths 256 -strategy counting -workers 8
//
// Flags:
//
//	-items     Number of draw requests per flush (default: 1,000,000)
//	-depths    Number of distinct depth layers (default: 256)
//	-maxrun    Maximum contiguous same-depth run length (default: 64)
//	-strategy  Sort strategy: counting or radix (default: counting)
//	-workers   Number of parallel workers, 0 = single-threaded (default: 0)
//	-flushes   Number of timed flushes (default: 20)
//	-seed      Workload seed (default: 1)
//
// The tool prints per-flush timings and an xxHash64 checksum of the sorted
// key order, so different strategy/worker configurations can be diffed for
// output equivalence.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"

	"github.com/zxtej/depthsort"
)

func main() {
	itemsFlag := flag.Int("items", 1_000_000, "number of draw requests per flush")
	depthsFlag := flag.Int("depths", 256, "number of distinct depth layers")
	maxRunFlag := flag.Int("maxrun", 64, "maximum contiguous same-depth run length")
	strategyFlag := flag.String("strategy", "counting", "sort strategy: counting or radix")
	workersFlag := flag.Int("workers", 0, "number of parallel workers (0 = single-threaded)")
	flushesFlag := flag.Int("flushes", 20, "number of timed flushes")
	seedFlag := flag.Uint64("seed", 1, "workload seed")
	flag.Parse()

	var strategy depthsort.Strategy
	switch *strategyFlag {
	case "counting":
		strategy = depthsort.StrategyCounting
	case "radix":
		strategy = depthsort.StrategyRadix
	default:
		fmt.Printf("unknown strategy %q\n", *strategyFlag)
		os.Exit(1)
	}

	fmt.Println("Generating workload...")
	depths := generateDepths(*itemsFlag, *depthsFlag, *maxRunFlag, *seedFlag)

	batch, err := depthsort.New[int32](
		depthsort.WithStrategy(strategy),
		depthsort.WithWorkers(*workersFlag),
		depthsort.WithMapCapacity(*depthsFlag),
	)
	if err != nil {
		fmt.Printf("Failed to create batch: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Flushing %d items x %d (strategy=%s workers=%d)...\n",
		*itemsFlag, *flushesFlag, strategy, *workersFlag)

	var total time.Duration
	var checksum uint64
	for f := 0; f < *flushesFlag; f++ {
		batch.Reset()
		for i, z := range depths {
			batch.Add(z, int32(i))
		}

		start := time.Now()
		if err := batch.Sort(); err != nil {
			fmt.Printf("Sort failed: %v\n", err)
			os.Exit(1)
		}
		elapsed := time.Since(start)
		total += elapsed

		sum := orderChecksum(batch.Items(), depths)
		if f == 0 {
			checksum = sum
		} else if sum != checksum {
			fmt.Printf("Checksum mismatch on flush %d: %016x != %016x\n", f, sum, checksum)
			os.Exit(1)
		}
		fmt.Printf("  flush %2d: %v\n", f, elapsed)
	}

	avg := total / time.Duration(*flushesFlag)
	fmt.Printf("Average: %v (%.1f Mitems/s)\n", avg,
		float64(*itemsFlag)/avg.Seconds()/1e6)
	fmt.Printf("Order checksum: %016x\n", checksum)
}

// generateDepths builds a submission-order depth sequence shaped like real
// rendering workloads: contiguous same-depth runs of varying length drawn
// from a bounded layer set. murmur3 drives all choices so a given seed is
// reproducible across runs and configurations.
func generateDepths(n, layers, maxRun int, seed uint64) []float32 {
	depths := make([]float32, 0, n)
	var buf [8]byte
	counter := uint64(0)
	next := func() uint64 {
		binary.LittleEndian.PutUint64(buf[:], counter^seed)
		counter++
		return murmur3.Sum64(buf[:])
	}
	for len(depths) < n {
		layer := next() % uint64(layers)
		z := float32(layer) * 480 / float32(layers)
		runLen := int(next()%uint64(maxRun)) + 1
		for j := 0; j < runLen && len(depths) < n; j++ {
			depths = append(depths, z)
		}
	}
	return depths
}

// orderChecksum hashes the depth keys of the sorted payload order. Equal
// checksums mean two configurations produced the identical permutation up
// to key level; including the payload index catches tie-order differences.
func orderChecksum(sorted []int32, depths []float32) uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, idx := range sorted {
		binary.LittleEndian.PutUint32(buf[:4], uint32(depthsort.DepthKey(depths[idx])))
		binary.LittleEndian.PutUint32(buf[4:], uint32(idx))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}
