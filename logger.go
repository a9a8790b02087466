package depthsort

import (
	"log/slog"
	"time"
)

// flushStats captures per-flush instrumentation: stage durations and the
// size reduction from items to runs.
type flushStats struct {
	size    int
	runs    int
	encode  time.Duration
	sort    time.Duration
	scatter time.Duration
	total   time.Duration
}

// logFlush emits one debug event per flush when a logger is configured.
func (b *Batch[T]) logFlush(s flushStats) {
	if b.cfg.logger == nil {
		return
	}
	b.cfg.logger.Debug("batch flush",
		slog.Int("size", s.size),
		slog.Int("runs", s.runs),
		slog.String("strategy", b.cfg.strategy.String()),
		slog.Int("workers", b.cfg.workers),
		slog.Duration("encode", s.encode),
		slog.Duration("sort", s.sort),
		slog.Duration("scatter", s.scatter),
		slog.Duration("total", s.total),
	)
}
