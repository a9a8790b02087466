package depthsort

// run describes a maximal contiguous span of equal keys in the submitted
// sequence: items [start, start+length) all carry key. The runs of one flush
// partition [0, N) without gaps or overlap.
type run struct {
	key    int32
	start  int32
	length int32
}

// encodeRuns scans keys once and appends one run per maximal contiguous
// same-key span to dst. Two non-adjacent spans sharing a key stay distinct.
// dst is an arena: it is truncated and reused, growing geometrically through
// append when exhausted.
func encodeRuns(keys []int32, dst []run) []run {
	dst = dst[:0]
	k := keys[0]
	start := 0
	for i := 1; i < len(keys); i++ {
		if keys[i] != k {
			dst = append(dst, run{key: k, start: int32(start), length: int32(i - start)})
			k = keys[i]
			start = i
		}
	}
	return append(dst, run{key: k, start: int32(start), length: int32(len(keys) - start)})
}

// grow32 returns s with length at least n, expanding by half-steps to keep
// reallocation amortized.
func grow32(s []int32, n int) []int32 {
	if len(s) >= n {
		return s
	}
	newCap := len(s) + len(s)/2
	if newCap < n {
		newCap = n + n/2
	}
	grown := make([]int32, newCap)
	copy(grown, s)
	return grown
}
