package depthsort

import (
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	dserrors "github.com/zxtej/depthsort/errors"
)

// sortStrategy stable-sorts a run list ascending by key. arr and swap are
// equal-length arenas owned by the caller; the returned slice is one of the
// two. Implementations keep their own scratch and are not safe for
// concurrent use.
type sortStrategy interface {
	sortRuns(arr, swap []run) ([]run, error)
}

// Batch accumulates depth-keyed items and reorders them in place, ascending
// by depth key with ties preserving submission order.
//
// A Batch owns all scratch storage for the sort pipeline (copy buffer, run
// arenas, offset array, counting state). Buffers grow geometrically and are
// never shrunk, so steady-state flushes allocate nothing. A Batch is not
// safe for concurrent use, and a flush must complete before the next one
// begins; independent batches may run concurrently on different goroutines.
type Batch[T any] struct {
	cfg      *config
	strategy sortStrategy

	items []T
	keys  []int32
	n     int

	copyBuf []T
	runs    []run
	swap    []run
	offsets []int32

	active bool
}

// New creates a Batch configured by opts.
func New[T any](opts ...Option) (*Batch[T], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.workers < 0 {
		return nil, fmt.Errorf("%w: %d", dserrors.ErrInvalidWorkers, cfg.workers)
	}
	if cfg.scatterThreshold <= 0 {
		return nil, fmt.Errorf("%w: %d", dserrors.ErrInvalidThreshold, cfg.scatterThreshold)
	}
	if cfg.keyBits < 1 || cfg.keyBits > 31 {
		return nil, fmt.Errorf("%w: %d", dserrors.ErrInvalidKeyBits, cfg.keyBits)
	}

	var strategy sortStrategy
	var err error
	switch {
	case cfg.strategy == StrategyRadix:
		strategy = newRadixSorter(cfg.keyBits, cfg.digitBits)
	case cfg.workers > 0:
		strategy, err = newShardedCountingSorter(cfg.workers, cfg.mapCapacity, cfg.loadFactor, cfg.randSeed)
	default:
		strategy, err = newCountingSorter(cfg.mapCapacity, cfg.loadFactor, cfg.randSeed)
	}
	if err != nil {
		return nil, err
	}

	return &Batch[T]{cfg: cfg, strategy: strategy}, nil
}

// Add submits an item at the given depth. The depth must lie in
// [MinDepth, MaxDepth); see DepthKey.
func (b *Batch[T]) Add(depth float32, item T) {
	b.AddKeyed(DepthKey(depth), item)
}

// AddKeyed submits an item with a pre-converted sortable key. Use this when
// depths come from a wider domain than DepthKey covers.
func (b *Batch[T]) AddKeyed(key int32, item T) {
	if b.n == len(b.items) {
		b.expand()
	}
	b.items[b.n] = item
	b.keys[b.n] = key
	b.n++
}

// expand grows the submission arenas by 7/4.
func (b *Batch[T]) expand() {
	newCap := len(b.items) * 7 / 4
	if newCap < 16 {
		newCap = 16
	}
	items := make([]T, newCap)
	copy(items, b.items[:b.n])
	b.items = items

	keys := make([]int32, newCap)
	copy(keys, b.keys[:b.n])
	b.keys = keys
}

// Len returns the number of submitted items.
func (b *Batch[T]) Len() int { return b.n }

// Items returns the submitted items: submission order before Sort, depth
// order after. The slice aliases the batch's storage and is invalidated by
// the next Add, Sort or Reset.
func (b *Batch[T]) Items() []T { return b.items[:b.n] }

// Reset discards all submitted items, retaining storage.
func (b *Batch[T]) Reset() { b.n = 0 }

// Sort reorders the submitted items in place, ascending by key with ties
// preserving submission order. An empty or single-item batch is a no-op and
// spawns no tasks. Sorting an already sorted batch leaves it unchanged.
func (b *Batch[T]) Sort() error {
	if b.active {
		return dserrors.ErrSortInProgress
	}
	b.active = true
	defer func() { b.active = false }()

	n := b.n
	if n <= 1 {
		return nil
	}
	parallel := b.cfg.workers > 0
	start := time.Now()

	// The copy may run concurrently with run detection on this goroutine.
	// If the task fails the caller falls back to a synchronous copy; the
	// copy never fails the flush.
	if len(b.copyBuf) < n {
		b.copyBuf = make([]T, n+n/8)
	}
	src := b.copyBuf
	items := b.items
	var copyG errgroup.Group
	if parallel {
		copyG.Go(func() error {
			return capturePanic(func() { copy(src[:n], items[:n]) })
		})
	}

	b.runs = encodeRuns(b.keys[:n], b.runs)
	rs := b.runs
	nRuns := len(rs)
	if len(b.swap) < nRuns {
		b.swap = make([]run, cap(rs))
	}
	tEncode := time.Now()

	sorted, err := b.strategy.sortRuns(rs, b.swap[:nRuns])
	if err != nil {
		return err
	}
	tSort := time.Now()

	if len(b.offsets) < nRuns+1 {
		b.offsets = make([]int32, nRuns+1+nRuns/10)
	}
	fillOffsets(sorted, b.offsets)

	if parallel {
		if cerr := copyG.Wait(); cerr != nil {
			copy(src[:n], items[:n])
		}
	} else {
		copy(src[:n], items[:n])
	}

	if err := scatter(sorted, b.offsets, src[:n], items[:n], b.keys[:n], b.cfg.scatterThreshold, parallel); err != nil {
		return err
	}

	b.logFlush(flushStats{
		size:    n,
		runs:    nRuns,
		encode:  tEncode.Sub(start),
		sort:    tSort.Sub(tEncode),
		scatter: time.Since(tSort),
		total:   time.Since(start),
	})
	return nil
}

// Flush sorts the batch, calls visit for every item in depth order, then
// resets the batch. The batch is reset even when visit returns an error;
// a flush consumes its submissions either way.
func (b *Batch[T]) Flush(visit func(T) error) error {
	defer b.Reset()
	if err := b.Sort(); err != nil {
		return err
	}
	for i := 0; i < b.n; i++ {
		if err := visit(b.items[i]); err != nil {
			return err
		}
	}
	return nil
}
