package plaincache

// cacheOptions holds the construction-time knobs a Cache accepts beyond its
// capacity. Unexported: callers only reach it through Option.
type cacheOptions[K comparable] struct {
	hasher func(K) uint64
}

// Option is a functional option for configuring a Cache.
type Option[K comparable] func(*cacheOptions[K])

// WithHasher supplies the hash function the cache uses to route keys to
// shards and to the ghost set's buckets. This is the Go equivalent of the
// source's with_capacity_and_hasher constructor: any collision-resistant
// function over K works, so callers with a cheaper or better-distributed
// hash for their key type can supply it instead of the built-in
// maphash.Comparable-based default.
func WithHasher[K comparable](hasher func(K) uint64) Option[K] {
	return func(o *cacheOptions[K]) {
		o.hasher = hasher
	}
}
