package depthsort

import "math"

// depthBias is added to every depth before its bits are reinterpreted as an
// integer key. Pinning depths into [16, 512) pins the float exponent field
// so that the top 6 bits of the bit pattern are constant across the whole
// domain, which both preserves ascending order under integer comparison and
// leaves a 26-bit payload the radix strategy can sort in two 13-bit passes.
const depthBias = 16.0

// MinDepth and MaxDepth bound the depth domain for which DepthKey yields
// keys that are totally ordered and fit the default radix key width.
// Depths outside the domain must be pre-converted by the caller with a
// scheme matching their range, submitted via AddKeyed, and paired with
// WithKeyBits when the radix strategy is in use.
const (
	MinDepth float32 = 0
	MaxDepth float32 = 496
)

// DepthKey converts a depth in [MinDepth, MaxDepth) to a sortable integer
// key: for a, b in the domain, a < b implies DepthKey(a) < DepthKey(b), and
// a == b implies equal keys.
func DepthKey(depth float32) int32 {
	return int32(math.Float32bits(depth + depthBias))
}
