package depthsort

// radixSorter stable-sorts runs with a least-significant-digit radix sort:
// fixed-width digit passes over a bounded key width, each pass a standard
// stable counting pass over the digit's buckets, ping-ponging between the
// two run arenas.
//
// With the defaults (26-bit keys, 13-bit digits) a flush costs two passes
// over 8192 buckets. Key bits above the configured width are ignored, which
// is exactly the DepthKey domain guarantee; AddKeyed callers with wider keys
// must raise WithKeyBits.
type radixSorter struct {
	digitBits int
	passes    int
	buckets   []int32
}

func newRadixSorter(keyBits, digitBits int) *radixSorter {
	if digitBits > keyBits {
		digitBits = keyBits
	}
	return &radixSorter{
		digitBits: digitBits,
		passes:    (keyBits + digitBits - 1) / digitBits,
		buckets:   make([]int32, 1<<digitBits),
	}
}

func (s *radixSorter) sortRuns(arr, swap []run) ([]run, error) {
	end := len(arr)
	buckets := s.buckets
	mask := uint32(len(buckets) - 1)
	for d := 0; d < s.passes; d++ {
		shift := uint(d * s.digitBits)
		clear(buckets)
		for i := 0; i < end; i++ {
			buckets[uint32(arr[i].key)>>shift&mask]++
		}
		for i := 1; i < len(buckets); i++ {
			buckets[i] += buckets[i-1]
		}
		for i := end - 1; i >= 0; i-- {
			b := uint32(arr[i].key) >> shift & mask
			buckets[b]--
			swap[buckets[b]] = arr[i]
		}
		arr, swap = swap, arr
	}
	return arr, nil
}
