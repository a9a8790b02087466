package intmap

import (
	"github.com/zeebo/xxh3"
)

// prehashZero replaces an xxHash3 result whose low 32 bits are zero, so a
// pre-hashed key never collides with the reserved empty sentinel.
const prehashZero = 0x27d4eb2f

// PreHash maps an arbitrary byte key onto the int32 key domain using
// xxHash3. Use this to key a Map by strings, composite identifiers or any
// other non-integer data.
//
// The mapping is not injective: distinct byte keys can produce the same
// int32 key with probability ~2^-32 per pair. Callers that cannot tolerate
// that must keep their own collision check. A hash of 0 is remapped to a
// fixed non-zero constant because 0 is the Map's empty-slot sentinel.
func PreHash(key []byte) int32 {
	h := int32(uint32(xxh3.Hash(key)))
	if h == 0 {
		return prehashZero
	}
	return h
}

// PreHashSeed is PreHash with an explicit seed, for callers that need
// several independent key derivations from the same byte keys.
func PreHashSeed(key []byte, seed uint64) int32 {
	h := int32(uint32(xxh3.HashSeed(key, seed)))
	if h == 0 {
		return prehashZero
	}
	return h
}
