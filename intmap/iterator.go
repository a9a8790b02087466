package intmap

import (
	dserrors "github.com/zxtej/depthsort/errors"
)

const (
	indexIllegal = -2
	indexZero    = -1
)

// Entries iterates the map's key/value pairs in arbitrary bucket/stash
// order, following the bufio.Scanner shape:
//
//	it := m.Entries()
//	for it.Next() {
//		e := it.Entry()
//		...
//	}
//	if err := it.Err(); err != nil { ... }
//
// Entries supports Remove of the current entry. The iterator does not
// allocate: the same two instances alternate across Entries calls, so
// obtaining a second iterator invalidates the first. Using an invalidated
// iterator sets ErrNestedIteration.
type Entries struct {
	m     *Map
	valid bool

	hasNext      bool
	nextIndex    int
	currentIndex int

	entry Entry
	err   error
}

// Entries returns an iterator over the map. The same two iterator instances
// are reused in alternation; the previously returned iterator becomes
// invalid.
func (m *Map) Entries() *Entries {
	if m.entriesA == nil {
		m.entriesA = &Entries{m: m}
		m.entriesB = &Entries{m: m}
	}
	if !m.entriesA.valid {
		m.entriesA.reset()
		m.entriesA.valid = true
		m.entriesB.valid = false
		return m.entriesA
	}
	m.entriesB.reset()
	m.entriesB.valid = true
	m.entriesA.valid = false
	return m.entriesB
}

func (e *Entries) reset() {
	e.currentIndex = indexIllegal
	e.nextIndex = indexZero
	e.err = nil
	if e.m.hasZeroValue {
		e.hasNext = true
	} else {
		e.findNextIndex()
	}
}

func (e *Entries) findNextIndex() {
	e.hasNext = false
	keyTable := e.m.keyTable
	n := e.m.capacity + e.m.stashSize
	for e.nextIndex++; e.nextIndex < n; e.nextIndex++ {
		if keyTable[e.nextIndex] != empty {
			e.hasNext = true
			break
		}
	}
}

// Next advances to the next entry. It returns false when the iteration is
// exhausted or the iterator has been invalidated; check Err to distinguish.
func (e *Entries) Next() bool {
	if !e.valid {
		e.err = dserrors.ErrNestedIteration
		return false
	}
	if !e.hasNext {
		return false
	}
	if e.nextIndex == indexZero {
		e.entry = Entry{Key: 0, Value: e.m.zeroValue}
	} else {
		e.entry = Entry{Key: e.m.keyTable[e.nextIndex], Value: e.m.valueTable[e.nextIndex]}
	}
	e.currentIndex = e.nextIndex
	e.findNextIndex()
	return true
}

// Entry returns the entry positioned by the last successful Next.
func (e *Entries) Entry() Entry { return e.entry }

// Err returns the first misuse error encountered, if any.
func (e *Entries) Err() error { return e.err }

// Remove deletes the entry returned by the last Next from the underlying
// map. Calling Remove before the first Next, twice for one entry, or on an
// invalidated iterator is an error.
func (e *Entries) Remove() error {
	if !e.valid {
		e.err = dserrors.ErrNestedIteration
		return e.err
	}
	switch {
	case e.currentIndex == indexZero && e.m.hasZeroValue:
		e.m.hasZeroValue = false
	case e.currentIndex < 0:
		return dserrors.ErrRemoveBeforeNext
	case e.currentIndex >= e.m.capacity:
		// Stash removal swaps the last stash slot down, so re-scan from the
		// removed position.
		e.m.removeStashIndex(e.currentIndex)
		e.nextIndex = e.currentIndex - 1
		e.findNextIndex()
	default:
		e.m.keyTable[e.currentIndex] = empty
	}
	e.currentIndex = indexIllegal
	e.m.size--
	return nil
}
