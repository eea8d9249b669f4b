package plaincache

import "sync/atomic"

// Stats is a point-in-time snapshot of a Cache's hit/miss/eviction counts
// since the previous call to Stats (or, for the first call, since the
// cache was constructed).
type Stats struct {
	Hits                 uint64
	Misses               uint64
	Evictions            uint64
	MillisSinceLastStats int64
}

// counters holds one shard's running hit/miss/eviction totals as atomics,
// so that get (shared lock) and insert/eviction (exclusive lock) can both
// update them without additional synchronization.
type counters struct {
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// snapshotAndReset reads and zeroes each of the three counters with its own
// atomic swap; the three swaps together are not one atomic step.
func (c *counters) snapshotAndReset() (hits, misses, evictions uint64) {
	return c.hits.Swap(0), c.misses.Swap(0), c.evictions.Swap(0)
}
