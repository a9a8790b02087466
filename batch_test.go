package depthsort

import (
	"encoding/binary"
	goerrors "errors"
	"hash/fnv"
	"math/rand/v2"
	"sort"
	"testing"

	dserrors "github.com/zxtej/depthsort/errors"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// genRunKeys produces a submission-order key sequence shaped like rendering
// workloads: contiguous same-key runs of random length over a bounded set
// of layers.
func genRunKeys(rng *rand.Rand, n, layers, maxRun int) []int32 {
	keys := make([]int32, 0, n)
	for len(keys) < n {
		k := int32(rng.IntN(layers))
		runLen := rng.IntN(maxRun) + 1
		for j := 0; j < runLen && len(keys) < n; j++ {
			keys = append(keys, k)
		}
	}
	return keys
}

// referenceSort returns the payload order a stable ascending sort by key
// would produce.
func referenceSort(keys []int32) []int32 {
	order := make([]int32, len(keys))
	for i := range order {
		order[i] = int32(i)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return keys[order[i]] < keys[order[j]]
	})
	return order
}

func sortAndCheck(t *testing.T, b *Batch[int32], keys []int32) {
	t.Helper()
	b.Reset()
	for i, k := range keys {
		b.AddKeyed(k, int32(i))
	}
	if err := b.Sort(); err != nil {
		t.Fatalf("Sort: %v", err)
	}
	got := b.Items()
	if len(got) != len(keys) {
		t.Fatalf("length changed: %d -> %d", len(keys), len(got))
	}
	want := referenceSort(keys)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: payload %d, want %d (keys %d vs %d)",
				i, got[i], want[i], keys[got[i]], keys[want[i]])
		}
	}
}

func TestSortScenario(t *testing.T) {
	b, err := New[string]()
	if err != nil {
		t.Fatal(err)
	}
	keys := []int32{5, 5, 5, 3, 3, 8}
	tags := []string{"a", "b", "c", "d", "e", "f"}
	for i := range keys {
		b.AddKeyed(keys[i], tags[i])
	}
	if err := b.Sort(); err != nil {
		t.Fatal(err)
	}
	want := []string{"d", "e", "a", "b", "c", "f"}
	got := b.Items()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("output %v, want %v", got, want)
		}
	}
}

func TestEmptyBatch(t *testing.T) {
	b, err := New[int32](WithWorkers(4))
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Sort(); err != nil {
		t.Fatalf("Sort on empty batch: %v", err)
	}
	if b.Len() != 0 {
		t.Fatalf("Len = %d", b.Len())
	}
	visited := false
	if err := b.Flush(func(int32) error { visited = true; return nil }); err != nil {
		t.Fatal(err)
	}
	if visited {
		t.Fatal("visit called for empty batch")
	}
}

func TestSingleItem(t *testing.T) {
	b, err := New[string]()
	if err != nil {
		t.Fatal(err)
	}
	b.Add(10, "only")
	if err := b.Sort(); err != nil {
		t.Fatal(err)
	}
	if got := b.Items(); len(got) != 1 || got[0] != "only" {
		t.Fatalf("Items = %v", got)
	}
}

func TestSortProperties(t *testing.T) {
	rng := newTestRNG(t)
	b, err := New[int32]()
	if err != nil {
		t.Fatal(err)
	}
	for iter := 0; iter < 50; iter++ {
		n := rng.IntN(3000) + 1
		keys := genRunKeys(rng, n, rng.IntN(40)+1, rng.IntN(30)+1)
		sortAndCheck(t, b, keys)
	}
}

func TestSortAllEqualKeys(t *testing.T) {
	b, err := New[int32]()
	if err != nil {
		t.Fatal(err)
	}
	keys := make([]int32, 5000)
	for i := range keys {
		keys[i] = 77
	}
	sortAndCheck(t, b, keys)
}

func TestSortAlreadySortedIsNoop(t *testing.T) {
	rng := newTestRNG(t)
	b, err := New[int32](WithWorkers(4))
	if err != nil {
		t.Fatal(err)
	}
	keys := genRunKeys(rng, 10000, 32, 20)
	b.Reset()
	for i, k := range keys {
		b.AddKeyed(k, int32(i))
	}
	if err := b.Sort(); err != nil {
		t.Fatal(err)
	}
	once := append([]int32(nil), b.Items()...)

	// Re-sorting the sorted batch must not move anything.
	if err := b.Sort(); err != nil {
		t.Fatal(err)
	}
	twice := b.Items()
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("re-sort moved position %d: %d -> %d", i, once[i], twice[i])
		}
	}
}

func TestDepthOrdering(t *testing.T) {
	rng := newTestRNG(t)
	b, err := New[int]()
	if err != nil {
		t.Fatal(err)
	}
	depths := make([]float32, 2000)
	for i := range depths {
		depths[i] = rng.Float32() * 400
		b.Add(depths[i], i)
	}
	if err := b.Sort(); err != nil {
		t.Fatal(err)
	}
	items := b.Items()
	for i := 1; i < len(items); i++ {
		if depths[items[i-1]] > depths[items[i]] {
			t.Fatalf("position %d: depth %v after %v", i, depths[items[i]], depths[items[i-1]])
		}
	}
}

func TestFlushVisitsInOrderAndResets(t *testing.T) {
	b, err := New[int32]()
	if err != nil {
		t.Fatal(err)
	}
	b.AddKeyed(3, 30)
	b.AddKeyed(1, 10)
	b.AddKeyed(2, 20)

	var got []int32
	if err := b.Flush(func(v int32) error { got = append(got, v); return nil }); err != nil {
		t.Fatal(err)
	}
	want := []int32{10, 20, 30}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("visited %v, want %v", got, want)
		}
	}
	if b.Len() != 0 {
		t.Fatalf("batch not reset after Flush: Len = %d", b.Len())
	}
}

func TestFlushVisitErrorStillResets(t *testing.T) {
	b, err := New[int32]()
	if err != nil {
		t.Fatal(err)
	}
	b.AddKeyed(1, 1)
	b.AddKeyed(2, 2)
	sentinel := goerrors.New("stop")
	if err := b.Flush(func(int32) error { return sentinel }); !goerrors.Is(err, sentinel) {
		t.Fatalf("Flush error = %v, want sentinel", err)
	}
	if b.Len() != 0 {
		t.Fatalf("batch not reset after failed visit: Len = %d", b.Len())
	}
}

func TestSortReentrancyGuard(t *testing.T) {
	b, err := New[int32]()
	if err != nil {
		t.Fatal(err)
	}
	b.AddKeyed(1, 1)
	b.active = true
	if err := b.Sort(); !goerrors.Is(err, dserrors.ErrSortInProgress) {
		t.Fatalf("Sort while active = %v, want ErrSortInProgress", err)
	}
	b.active = false
	if err := b.Sort(); err != nil {
		t.Fatalf("Sort after release: %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New[int](WithWorkers(-1)); !goerrors.Is(err, dserrors.ErrInvalidWorkers) {
		t.Fatalf("negative workers: %v", err)
	}
	if _, err := New[int](WithScatterThreshold(0)); !goerrors.Is(err, dserrors.ErrInvalidThreshold) {
		t.Fatalf("zero threshold: %v", err)
	}
	if _, err := New[int](WithKeyBits(0)); !goerrors.Is(err, dserrors.ErrInvalidKeyBits) {
		t.Fatalf("zero key bits: %v", err)
	}
	if _, err := New[int](WithKeyBits(32)); !goerrors.Is(err, dserrors.ErrInvalidKeyBits) {
		t.Fatalf("oversized key bits: %v", err)
	}
	if _, err := New[int](WithLoadFactor(0)); !goerrors.Is(err, dserrors.ErrInvalidLoadFactor) {
		t.Fatalf("zero load factor: %v", err)
	}
	if _, err := New[int](WithMapCapacity(-1)); !goerrors.Is(err, dserrors.ErrInvalidCapacity) {
		t.Fatalf("negative map capacity: %v", err)
	}
}

func TestSubmissionGrowth(t *testing.T) {
	b, err := New[int32]()
	if err != nil {
		t.Fatal(err)
	}
	const n = 100000
	for i := 0; i < n; i++ {
		b.AddKeyed(int32(i%97), int32(i))
	}
	if b.Len() != n {
		t.Fatalf("Len = %d, want %d", b.Len(), n)
	}
	if err := b.Sort(); err != nil {
		t.Fatal(err)
	}
	if len(b.Items()) != n {
		t.Fatalf("length changed after sort: %d", len(b.Items()))
	}
}
