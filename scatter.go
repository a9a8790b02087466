package depthsort

import (
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	dserrors "github.com/zxtej/depthsort/errors"
)

// smallRunCopy is the run length below which the scatter copies element by
// element instead of using a bulk copy.
const smallRunCopy = 10

// fillOffsets converts sorted run lengths into destination offsets:
// offsets[i] is the total length of all runs before i, offsets[len(runs)]
// equals the item count. The offsets are the sole coordination device for
// the parallel scatter; every subtask's destination range is fixed here,
// before any task writes.
func fillOffsets(runs []run, offsets []int32) {
	offsets[0] = 0
	for i, r := range runs {
		offsets[i+1] = offsets[i] + r.length
	}
}

// capturePanic runs fn, converting a panic into an error.
func capturePanic(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	fn()
	return nil
}

// retryOnce runs fn, resubmitting it once if it fails. A second failure is
// fatal for the invocation. Only idempotent tasks may be retried.
func retryOnce(fn func()) error {
	if err := capturePanic(fn); err != nil {
		if err = capturePanic(fn); err != nil {
			return fmt.Errorf("%w: %v", dserrors.ErrSortFailed, err)
		}
	}
	return nil
}

// runTask runs fn exactly once, mapping a panic to a sort failure.
func runTask(fn func()) error {
	if err := capturePanic(fn); err != nil {
		return fmt.Errorf("%w: %v", dserrors.ErrSortFailed, err)
	}
	return nil
}

// scatter copies every sorted run's payload slots from src into dst order
// and rewrites dstKeys to match. With parallel set, run ranges whose output
// span exceeds threshold are bisected near the midpoint of the output range
// (binary search on the offset array, so subtasks are balanced by copied
// slots, not run count) and executed as independent subtasks. Range
// disjointness is guaranteed by the offsets, so no two tasks write the same
// destination slot.
func scatter[T any](sorted []run, offsets []int32, src, dst []T, dstKeys []int32, threshold int, parallel bool) error {
	if !parallel {
		populateSeq(sorted, offsets, src, dst, dstKeys, 0, len(sorted))
		return nil
	}
	var g errgroup.Group
	populate(&g, sorted, offsets, src, dst, dstKeys, 0, len(sorted), threshold)
	return g.Wait()
}

func populate[T any](g *errgroup.Group, sorted []run, offsets []int32, src, dst []T, dstKeys []int32, from, to, threshold int) {
	for to-from > 1 && int(offsets[to])-int(offsets[from]) > threshold {
		half := int32((int(offsets[from]) + int(offsets[to])) / 2)
		mid := from + sort.Search(to-from, func(i int) bool {
			return offsets[from+i] >= half
		})
		if mid == from || mid == to {
			// One run dominates the whole span; no useful split exists.
			break
		}
		lo, hi := from, mid
		g.Go(func() error {
			populate(g, sorted, offsets, src, dst, dstKeys, lo, hi, threshold)
			return nil
		})
		from = mid
	}
	f, t := from, to
	g.Go(func() error {
		return retryOnce(func() {
			populateSeq(sorted, offsets, src, dst, dstKeys, f, t)
		})
	})
}

func populateSeq[T any](sorted []run, offsets []int32, src, dst []T, dstKeys []int32, from, to int) {
	for i := from; i < to; i++ {
		r := sorted[i]
		d := int(offsets[i])
		s := int(r.start)
		length := int(r.length)
		if length < smallRunCopy {
			for j := 0; j < length; j++ {
				dst[d+j] = src[s+j]
			}
		} else {
			copy(dst[d:d+length], src[s:s+length])
		}
		for j := 0; j < length; j++ {
			dstKeys[d+j] = r.key
		}
	}
}
