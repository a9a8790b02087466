// Package errors defines all exported error sentinels for the depthsort library.
//
// This is the single source of truth for error values. Both the top-level
// depthsort package and the intmap package import from here, ensuring
// errors.Is checks work across package boundaries.
package errors

import "errors"

// Construction errors
var (
	ErrInvalidCapacity   = errors.New("depthsort: initial capacity must be >= 0")
	ErrCapacityTooLarge  = errors.New("depthsort: initial capacity exceeds maximum (2^30)")
	ErrInvalidLoadFactor = errors.New("depthsort: load factor must be > 0")
	ErrInvalidWorkers    = errors.New("depthsort: worker count must be >= 0")
	ErrInvalidKeyBits    = errors.New("depthsort: radix key width must be in [1, 31]")
	ErrInvalidThreshold  = errors.New("depthsort: scatter threshold must be > 0")
)

// Iterator misuse errors
var (
	ErrNestedIteration   = errors.New("depthsort: iterator invalidated by a newer iterator on the same map")
	ErrRemoveBeforeNext  = errors.New("depthsort: Next must be called before Remove")
	ErrIterationFinished = errors.New("depthsort: iterator is exhausted")
)

// Sort errors
var (
	ErrSortInProgress = errors.New("depthsort: a sort is already in progress on this batch")
	ErrSortFailed     = errors.New("depthsort: parallel sort task failed")
)
