package plaincache

import "hash/maphash"

// defaultHasher returns a collision-resistant hash function over any
// comparable key type, seeded once so that two caches (or two runs) don't
// share bucket layouts. It is the default New uses when the caller
// doesn't supply WithHasher.
func defaultHasher[K comparable]() func(K) uint64 {
	seed := maphash.MakeSeed()
	return func(k K) uint64 {
		return maphash.Comparable(seed, k)
	}
}
