// Package intmap implements an unordered int32-keyed map backed by cuckoo
// hashing with three hash functions, a bounded random-walk eviction process,
// and a small stash for problematic keys.
//
// Get, ContainsKey and Remove are typically O(1) with a worst case of
// O(log n) under heavy collision. Put may be slower depending on hash
// collisions. No allocation is done except when growing the table.
//
// The key 0 is stored in a dedicated slot rather than the table, so the full
// int32 key domain is usable. A Map is not safe for concurrent use.
package intmap

import (
	"fmt"
	"math"
	"math/bits"
	"math/rand/v2"
	"strings"

	dserrors "github.com/zxtej/depthsort/errors"
)

const (
	prime2 = 0xb4b82e39
	prime3 = 0xced1c241

	empty = 0

	// maxCapacity bounds the table size to a sane power of two.
	maxCapacity = 1 << 30

	// DefaultCapacity and DefaultLoadFactor are used by NewDefault.
	// Load factors greater than 0.91 greatly increase the chance that an
	// insert has to rehash to the next power-of-two size.
	DefaultCapacity   = 51
	DefaultLoadFactor = 0.8
)

// Default seeds for the eviction walk PCG. Overridden via WithRand.
const (
	defaultSeed1 = 0x9e3779b97f4a7c15
	defaultSeed2 = 0x1234567890abcdef
)

// Entry is a single key/value pair.
type Entry struct {
	Key   int32
	Value int32
}

// Map is an int32 -> int32 cuckoo hash map with a stash.
type Map struct {
	size int

	keyTable   []int32
	valueTable []int32
	capacity   int
	stashSize  int

	zeroValue    int32
	hasZeroValue bool

	loadFactor     float64
	hashShift      uint32
	mask           int
	threshold      int
	stashCapacity  int
	pushIterations int

	rng *rand.Rand

	entriesA, entriesB *Entries
}

// New creates a map that holds initialCapacity items before growing the
// backing table. The capacity is rounded up to the next power of two after
// dividing by the load factor.
func New(initialCapacity int, loadFactor float64) (*Map, error) {
	if initialCapacity < 0 {
		return nil, fmt.Errorf("%w: %d", dserrors.ErrInvalidCapacity, initialCapacity)
	}
	if loadFactor <= 0 {
		return nil, fmt.Errorf("%w: %v", dserrors.ErrInvalidLoadFactor, loadFactor)
	}
	capacity := nextPowerOfTwo(int(math.Ceil(float64(initialCapacity) / loadFactor)))
	if capacity > maxCapacity {
		return nil, fmt.Errorf("%w: %d", dserrors.ErrCapacityTooLarge, capacity)
	}

	m := &Map{
		loadFactor: loadFactor,
		rng:        rand.New(rand.NewPCG(defaultSeed1, defaultSeed2)),
	}
	m.applyCapacity(capacity)
	m.keyTable = make([]int32, capacity+m.stashCapacity)
	m.valueTable = make([]int32, capacity+m.stashCapacity)
	return m, nil
}

// NewDefault creates a map with an initial capacity of 51 and a load factor
// of 0.8.
func NewDefault() *Map {
	m, err := New(DefaultCapacity, DefaultLoadFactor)
	if err != nil {
		// Unreachable: the defaults are valid by construction.
		panic(err)
	}
	return m
}

// WithRand replaces the randomness source used by the eviction walk and
// returns the map. Inject a seeded source for deterministic behavior in
// tests. The source is never used concurrently by the map.
func (m *Map) WithRand(rng *rand.Rand) *Map {
	m.rng = rng
	return m
}

// applyCapacity derives the mask, growth threshold, stash capacity and push
// iteration bound for a power-of-two capacity.
func (m *Map) applyCapacity(capacity int) {
	m.capacity = capacity
	m.threshold = int(float64(capacity) * m.loadFactor)
	m.mask = capacity - 1
	m.hashShift = uint32(31 - bits.TrailingZeros32(uint32(capacity)))
	m.stashCapacity = max(3, int(math.Ceil(math.Log(float64(capacity))))*2)
	m.pushIterations = max(min(capacity, 8), int(math.Sqrt(float64(capacity)))/8)
}

func nextPowerOfTwo(v int) int {
	if v <= 1 {
		return 1
	}
	return 1 << (bits.Len(uint(v - 1)))
}

func (m *Map) hash2(k int32) int {
	h := uint32(k) * prime2
	return int((h ^ h>>m.hashShift) & uint32(m.mask))
}

func (m *Map) hash3(k int32) int {
	h := uint32(k) * prime3
	return int((h ^ h>>m.hashShift) & uint32(m.mask))
}

// Size returns the number of live keys, including the zero key.
func (m *Map) Size() int { return m.size }

// IsEmpty reports whether the map has no keys.
func (m *Map) IsEmpty() bool { return m.size == 0 }

// Put associates key with value, replacing any previous value.
func (m *Map) Put(key, value int32) {
	if key == 0 {
		m.zeroValue = value
		if !m.hasZeroValue {
			m.hasZeroValue = true
			m.size++
		}
		return
	}

	keyTable := m.keyTable

	// Check for existing keys.
	index1 := int(key) & m.mask
	key1 := keyTable[index1]
	if key == key1 {
		m.valueTable[index1] = value
		return
	}

	index2 := m.hash2(key)
	key2 := keyTable[index2]
	if key == key2 {
		m.valueTable[index2] = value
		return
	}

	index3 := m.hash3(key)
	key3 := keyTable[index3]
	if key == key3 {
		m.valueTable[index3] = value
		return
	}

	// Update key in the stash.
	for i, n := m.capacity, m.capacity+m.stashSize; i < n; i++ {
		if key == keyTable[i] {
			m.valueTable[i] = value
			return
		}
	}

	m.insertNew(key, value, index1, key1, index2, key2, index3, key3)
}

// GetOrPut inserts value only if key is absent. It returns the value already
// associated with key if present, else the inserted value.
func (m *Map) GetOrPut(key, value int32) int32 {
	if key == 0 {
		if !m.hasZeroValue {
			m.zeroValue = value
			m.hasZeroValue = true
			m.size++
		}
		return m.zeroValue
	}

	keyTable := m.keyTable

	index1 := int(key) & m.mask
	key1 := keyTable[index1]
	if key == key1 {
		return m.valueTable[index1]
	}

	index2 := m.hash2(key)
	key2 := keyTable[index2]
	if key == key2 {
		return m.valueTable[index2]
	}

	index3 := m.hash3(key)
	key3 := keyTable[index3]
	if key == key3 {
		return m.valueTable[index3]
	}

	for i, n := m.capacity, m.capacity+m.stashSize; i < n; i++ {
		if key == keyTable[i] {
			return m.valueTable[i]
		}
	}

	m.insertNew(key, value, index1, key1, index2, key2, index3, key3)
	return value
}

// insertNew places a key that is known to be absent. The three candidate
// slots have already been probed; empty ones are taken directly, otherwise
// the eviction walk starts.
func (m *Map) insertNew(key, value int32, index1 int, key1 int32, index2 int, key2 int32, index3 int, key3 int32) {
	switch {
	case key1 == empty:
		m.keyTable[index1] = key
		m.valueTable[index1] = value
		m.grewOnInsert()
	case key2 == empty:
		m.keyTable[index2] = key
		m.valueTable[index2] = value
		m.grewOnInsert()
	case key3 == empty:
		m.keyTable[index3] = key
		m.valueTable[index3] = value
		m.grewOnInsert()
	default:
		m.push(key, value, index1, key1, index2, key2, index3, key3)
	}
}

// grewOnInsert bumps size and doubles the table when the load threshold is
// crossed. The check is post-placement, so a map constructed for n items
// holds exactly n before growing.
func (m *Map) grewOnInsert() {
	m.size++
	if m.size-1 >= m.threshold {
		m.resize(m.capacity << 1)
	}
}

// putResize is the fast insertion path used during rehashing. It skips
// existing-key checks because every key is known to be unique.
func (m *Map) putResize(key, value int32) {
	if key == 0 {
		m.zeroValue = value
		m.hasZeroValue = true
		return
	}

	index1 := int(key) & m.mask
	key1 := m.keyTable[index1]
	if key1 == empty {
		m.keyTable[index1] = key
		m.valueTable[index1] = value
		m.grewOnInsert()
		return
	}

	index2 := m.hash2(key)
	key2 := m.keyTable[index2]
	if key2 == empty {
		m.keyTable[index2] = key
		m.valueTable[index2] = value
		m.grewOnInsert()
		return
	}

	index3 := m.hash3(key)
	key3 := m.keyTable[index3]
	if key3 == empty {
		m.keyTable[index3] = key
		m.valueTable[index3] = value
		m.grewOnInsert()
		return
	}

	m.push(key, value, index1, key1, index2, key2, index3, key3)
}

// push performs the bounded random-walk eviction: replace the occupant of a
// randomly chosen candidate slot, then re-probe the evicted key's candidates,
// until an empty slot is found or the iteration cap is hit. Keys that cannot
// be placed go to the stash.
func (m *Map) push(insertKey, insertValue int32, index1 int, key1 int32, index2 int, key2 int32, index3 int, key3 int32) {
	keyTable := m.keyTable
	valueTable := m.valueTable
	mask := m.mask

	var evictedKey, evictedValue int32
	i, pushIterations := 0, m.pushIterations
	for {
		// Replace the key and value for one of the hashes.
		switch m.rng.IntN(3) {
		case 0:
			evictedKey = key1
			evictedValue = valueTable[index1]
			keyTable[index1] = insertKey
			valueTable[index1] = insertValue
		case 1:
			evictedKey = key2
			evictedValue = valueTable[index2]
			keyTable[index2] = insertKey
			valueTable[index2] = insertValue
		default:
			evictedKey = key3
			evictedValue = valueTable[index3]
			keyTable[index3] = insertKey
			valueTable[index3] = insertValue
		}

		// If the evicted key hashes to an empty slot, put it there and stop.
		index1 = int(evictedKey) & mask
		key1 = keyTable[index1]
		if key1 == empty {
			keyTable[index1] = evictedKey
			valueTable[index1] = evictedValue
			m.grewOnInsert()
			return
		}

		index2 = m.hash2(evictedKey)
		key2 = keyTable[index2]
		if key2 == empty {
			keyTable[index2] = evictedKey
			valueTable[index2] = evictedValue
			m.grewOnInsert()
			return
		}

		index3 = m.hash3(evictedKey)
		key3 = keyTable[index3]
		if key3 == empty {
			keyTable[index3] = evictedKey
			valueTable[index3] = evictedValue
			m.grewOnInsert()
			return
		}

		i++
		if i == pushIterations {
			break
		}

		insertKey = evictedKey
		insertValue = evictedValue
	}

	m.putStash(evictedKey, evictedValue)
}

// putStash appends a key the walk could not place. A full stash forces the
// table to double, after which the key is reinserted via the resize path.
func (m *Map) putStash(key, value int32) {
	if m.stashSize == m.stashCapacity {
		m.resize(m.capacity << 1)
		m.putResize(key, value)
		return
	}
	index := m.capacity + m.stashSize
	m.keyTable[index] = key
	m.valueTable[index] = value
	m.stashSize++
	m.size++
}

// Get returns the value for key, or defaultValue if the key is absent.
func (m *Map) Get(key, defaultValue int32) int32 {
	if key == 0 {
		if !m.hasZeroValue {
			return defaultValue
		}
		return m.zeroValue
	}
	index := int(key) & m.mask
	if m.keyTable[index] != key {
		index = m.hash2(key)
		if m.keyTable[index] != key {
			index = m.hash3(key)
			if m.keyTable[index] != key {
				return m.getStash(key, defaultValue)
			}
		}
	}
	return m.valueTable[index]
}

func (m *Map) getStash(key, defaultValue int32) int32 {
	keyTable := m.keyTable
	for i, n := m.capacity, m.capacity+m.stashSize; i < n; i++ {
		if key == keyTable[i] {
			return m.valueTable[i]
		}
	}
	return defaultValue
}

// Increment adds delta to the value stored for key and returns the previous
// value. If the key is absent, defaultValue+delta is inserted and
// defaultValue is returned.
func (m *Map) Increment(key, defaultValue, delta int32) int32 {
	if key == 0 {
		if m.hasZeroValue {
			value := m.zeroValue
			m.zeroValue += delta
			return value
		}
		m.hasZeroValue = true
		m.zeroValue = defaultValue + delta
		m.size++
		return defaultValue
	}
	index := int(key) & m.mask
	if key != m.keyTable[index] {
		index = m.hash2(key)
		if key != m.keyTable[index] {
			index = m.hash3(key)
			if key != m.keyTable[index] {
				return m.incrementStash(key, defaultValue, delta)
			}
		}
	}
	value := m.valueTable[index]
	m.valueTable[index] = value + delta
	return value
}

func (m *Map) incrementStash(key, defaultValue, delta int32) int32 {
	keyTable := m.keyTable
	for i, n := m.capacity, m.capacity+m.stashSize; i < n; i++ {
		if key == keyTable[i] {
			value := m.valueTable[i]
			m.valueTable[i] = value + delta
			return value
		}
	}
	m.Put(key, defaultValue+delta)
	return defaultValue
}

// Remove deletes key and returns its value, or defaultValue if absent.
func (m *Map) Remove(key, defaultValue int32) int32 {
	if key == 0 {
		if !m.hasZeroValue {
			return defaultValue
		}
		m.hasZeroValue = false
		m.size--
		return m.zeroValue
	}

	index := int(key) & m.mask
	if key == m.keyTable[index] {
		m.keyTable[index] = empty
		oldValue := m.valueTable[index]
		m.size--
		return oldValue
	}

	index = m.hash2(key)
	if key == m.keyTable[index] {
		m.keyTable[index] = empty
		oldValue := m.valueTable[index]
		m.size--
		return oldValue
	}

	index = m.hash3(key)
	if key == m.keyTable[index] {
		m.keyTable[index] = empty
		oldValue := m.valueTable[index]
		m.size--
		return oldValue
	}

	return m.removeStash(key, defaultValue)
}

func (m *Map) removeStash(key, defaultValue int32) int32 {
	keyTable := m.keyTable
	for i, n := m.capacity, m.capacity+m.stashSize; i < n; i++ {
		if key == keyTable[i] {
			oldValue := m.valueTable[i]
			m.removeStashIndex(i)
			m.size--
			return oldValue
		}
	}
	return defaultValue
}

// removeStashIndex swaps the last stash entry into the removed position to
// keep the stash dense.
func (m *Map) removeStashIndex(index int) {
	m.stashSize--
	lastIndex := m.capacity + m.stashSize
	if index < lastIndex {
		m.keyTable[index] = m.keyTable[lastIndex]
		m.valueTable[index] = m.valueTable[lastIndex]
	}
}

// ContainsKey reports whether key is present.
func (m *Map) ContainsKey(key int32) bool {
	if key == 0 {
		return m.hasZeroValue
	}
	index := int(key) & m.mask
	if m.keyTable[index] != key {
		index = m.hash2(key)
		if m.keyTable[index] != key {
			index = m.hash3(key)
			if m.keyTable[index] != key {
				return m.containsKeyStash(key)
			}
		}
	}
	return true
}

func (m *Map) containsKeyStash(key int32) bool {
	keyTable := m.keyTable
	for i, n := m.capacity, m.capacity+m.stashSize; i < n; i++ {
		if key == keyTable[i] {
			return true
		}
	}
	return false
}

// ContainsValue reports whether any key maps to value. This traverses the
// entire table.
func (m *Map) ContainsValue(value int32) bool {
	if m.hasZeroValue && m.zeroValue == value {
		return true
	}
	for i := m.capacity + m.stashSize; i > 0; {
		i--
		if m.keyTable[i] != empty && m.valueTable[i] == value {
			return true
		}
	}
	return false
}

// FindKey returns some key mapped to value, or notFound if none exists. This
// traverses the entire table.
func (m *Map) FindKey(value, notFound int32) int32 {
	if m.hasZeroValue && m.zeroValue == value {
		return 0
	}
	for i := m.capacity + m.stashSize; i > 0; {
		i--
		if m.keyTable[i] != empty && m.valueTable[i] == value {
			return m.keyTable[i]
		}
	}
	return notFound
}

// PutAll copies every entry of other into m.
func (m *Map) PutAll(other *Map) {
	if other.hasZeroValue {
		m.Put(0, other.zeroValue)
	}
	keyTable := other.keyTable
	for i, n := 0, other.capacity+other.stashSize; i < n; i++ {
		if keyTable[i] != empty {
			m.Put(keyTable[i], other.valueTable[i])
		}
	}
}

// Clear removes all entries. The backing storage is retained.
func (m *Map) Clear() {
	if m.size == 0 {
		return
	}
	keyTable := m.keyTable
	for i := m.capacity + m.stashSize; i > 0; {
		i--
		keyTable[i] = empty
	}
	m.size = 0
	m.stashSize = 0
	m.hasZeroValue = false
}

// ClearResize clears the map and shrinks the backing arrays to
// maximumCapacity if they are larger.
func (m *Map) ClearResize(maximumCapacity int) {
	if m.capacity <= maximumCapacity {
		m.Clear()
		return
	}
	m.hasZeroValue = false
	m.size = 0
	m.resize(nextPowerOfTwo(maximumCapacity))
}

// Shrink reduces the backing arrays to maximumCapacity or the next power of
// two above the live entry count, whichever is larger.
func (m *Map) Shrink(maximumCapacity int) error {
	if maximumCapacity < 0 {
		return fmt.Errorf("%w: %d", dserrors.ErrInvalidCapacity, maximumCapacity)
	}
	if m.size > maximumCapacity {
		maximumCapacity = m.size
	}
	if m.capacity <= maximumCapacity {
		return nil
	}
	m.resize(nextPowerOfTwo(maximumCapacity))
	return nil
}

// EnsureCapacity grows the backing arrays to accommodate additional more
// entries before the next threshold-triggered rehash. Useful before bulk
// inserts.
func (m *Map) EnsureCapacity(additional int) error {
	if additional < 0 {
		return fmt.Errorf("%w: %d", dserrors.ErrInvalidCapacity, additional)
	}
	sizeNeeded := m.size + additional
	if sizeNeeded >= m.threshold {
		m.resize(nextPowerOfTwo(int(math.Ceil(float64(sizeNeeded) / m.loadFactor))))
	}
	return nil
}

// resize rehashes every live entry (table, stash and zero slot) into fresh
// backing storage via the fast insertion path.
func (m *Map) resize(newCapacity int) {
	oldEndIndex := m.capacity + m.stashSize
	oldKeyTable := m.keyTable
	oldValueTable := m.valueTable

	m.applyCapacity(newCapacity)
	m.keyTable = make([]int32, newCapacity+m.stashCapacity)
	m.valueTable = make([]int32, newCapacity+m.stashCapacity)

	oldSize := m.size
	m.size = 0
	if m.hasZeroValue {
		m.size = 1
	}
	m.stashSize = 0
	if oldSize > 0 {
		for i := 0; i < oldEndIndex; i++ {
			if key := oldKeyTable[i]; key != empty {
				m.putResize(key, oldValueTable[i])
			}
		}
	}
}

// Equal reports whether other holds exactly the same entries.
func (m *Map) Equal(other *Map) bool {
	if other == nil || other.size != m.size || other.hasZeroValue != m.hasZeroValue {
		return false
	}
	if m.hasZeroValue && other.zeroValue != m.zeroValue {
		return false
	}
	for i, n := 0, m.capacity+m.stashSize; i < n; i++ {
		key := m.keyTable[i]
		if key == empty {
			continue
		}
		otherValue := other.Get(key, 0)
		if otherValue == 0 && !other.ContainsKey(key) {
			return false
		}
		if otherValue != m.valueTable[i] {
			return false
		}
	}
	return true
}

// String formats the map as {k=v, ...} in iteration order.
func (m *Map) String() string {
	if m.size == 0 {
		return "{}"
	}
	var sb strings.Builder
	sb.WriteByte('{')
	first := true
	if m.hasZeroValue {
		fmt.Fprintf(&sb, "0=%d", m.zeroValue)
		first = false
	}
	for i, n := 0, m.capacity+m.stashSize; i < n; i++ {
		key := m.keyTable[i]
		if key == empty {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d=%d", key, m.valueTable[i])
		first = false
	}
	sb.WriteByte('}')
	return sb.String()
}
