package depthsort

import (
	"log/slog"
)

const (
	// defaultScatterThreshold is the output span, in item slots, above which
	// the scatter stage splits a run range into parallel subtasks.
	defaultScatterThreshold = 2048

	// defaultMapCapacity sizes the counting strategies' key-discovery maps.
	defaultMapCapacity = 100

	// defaultKeyBits and defaultDigitBits configure the radix strategy:
	// two 13-bit passes cover the 26 sortable bits produced by DepthKey
	// for depths inside the documented domain.
	defaultKeyBits   = 26
	defaultDigitBits = 13

	// defaultRandSeed seeds the counting maps' eviction walks. Arbitrary;
	// overridden via WithRandSeed.
	defaultRandSeed = 0x1234567890abcdef
)

// Strategy selects the run sort algorithm. All strategies produce identical
// output for identical input; the choice only affects performance.
type Strategy uint8

const (
	// StrategyCounting sorts runs with a counting sort keyed through a
	// cuckoo hash map. With workers configured it shards the counting and
	// scattering phases. Handles the full int32 key domain.
	StrategyCounting Strategy = iota

	// StrategyRadix sorts runs with a fixed-width least-significant-digit
	// radix sort over a bounded key width (see WithKeyBits).
	StrategyRadix
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyCounting:
		return "counting"
	case StrategyRadix:
		return "radix"
	default:
		return "unknown"
	}
}

// Option is a functional option for configuring a Batch.
type Option func(*config)

type config struct {
	workers          int
	strategy         Strategy
	scatterThreshold int
	mapCapacity      int
	loadFactor       float64
	randSeed         uint64
	keyBits          int
	digitBits        int
	logger           *slog.Logger
}

func defaultConfig() *config {
	return &config{
		workers:          0, // Single-threaded by default; use WithWorkers(n) to parallelize
		strategy:         StrategyCounting,
		scatterThreshold: defaultScatterThreshold,
		mapCapacity:      defaultMapCapacity,
		loadFactor:       0.8,
		randSeed:         defaultRandSeed,
		keyBits:          defaultKeyBits,
		digitBits:        defaultDigitBits,
	}
}

// WithWorkers sets the number of parallel workers. Zero keeps every stage on
// the calling goroutine. With n > 0 the initial copy, the sharded counting
// sort and the scatter stage run on up to n concurrent goroutines.
func WithWorkers(n int) Option {
	return func(c *config) {
		c.workers = n
	}
}

// WithStrategy selects the run sort algorithm.
func WithStrategy(s Strategy) Option {
	return func(c *config) {
		c.strategy = s
	}
}

// WithScatterThreshold sets the output span, in item slots, above which the
// scatter stage splits into parallel subtasks. Only used with workers.
func WithScatterThreshold(slots int) Option {
	return func(c *config) {
		c.scatterThreshold = slots
	}
}

// WithMapCapacity sets the initial capacity of the counting strategies'
// key-discovery maps. Size it near the expected distinct-key count to avoid
// rehashing during the first flushes.
func WithMapCapacity(n int) Option {
	return func(c *config) {
		c.mapCapacity = n
	}
}

// WithLoadFactor sets the load factor of the counting strategies' maps.
func WithLoadFactor(f float64) Option {
	return func(c *config) {
		c.loadFactor = f
	}
}

// WithRandSeed seeds the randomness used by the counting maps' eviction
// walks, making flush-internal map behavior deterministic for tests. The
// sorted output is deterministic regardless of this seed.
func WithRandSeed(seed uint64) Option {
	return func(c *config) {
		c.randSeed = seed
	}
}

// WithKeyBits sets the sortable key width, in bits, assumed by the radix
// strategy. Keys outside [0, 2^bits) sort correctly only in their low bits,
// so widen this when feeding AddKeyed with keys beyond the DepthKey domain.
// The counting strategies ignore it.
func WithKeyBits(bits int) Option {
	return func(c *config) {
		c.keyBits = bits
	}
}

// WithLogger sets a logger for per-flush debug instrumentation (stage
// timings and sizes at slog.LevelDebug). Nil disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}
