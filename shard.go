package plaincache

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// queueKind discriminates which ring buffer an entryPointer addresses.
type queueKind uint8

const (
	queueSmall queueKind = iota
	queueMain
)

// entryPointer is the discriminated index into either the small or the main
// queue that the shard's index map stores for each live key.
type entryPointer struct {
	index int
	queue queueKind
}

// shard is one partition of the cache: a small FIFO admission queue, a main
// FIFO queue, a ghost set of recently-evicted-from-small keys, and a map
// tying keys to their physical slot in whichever queue currently holds them.
//
// mu is a reader-biased read/write lock: get takes it shared and only ever
// mutates an entry's atomic access counter; insert (and the eviction it may
// cascade) takes it exclusive and is the only path that mutates small, main,
// ghost, or index. No lock is ever held across shards.
type shard[K comparable, V any] struct {
	mu     *xsync.RBMutex
	index  map[K]entryPointer
	small  *ringBuffer[*entry[K, V]]
	main   *ringBuffer[*entry[K, V]]
	ghost  *ghostSet[K]
	hasher func(K) uint64
	counters
}

// newShard builds a shard sized off capacity: the small queue gets a tenth
// of capacity (floored at 1), the main queue gets the rest (floored at 1),
// and the ghost set is sized to match main.
func newShard[K comparable, V any](capacity int, hasher func(K) uint64) *shard[K, V] {
	smallCap := max(capacity/10, 1)
	mainCap := max(capacity-smallCap, 1)

	return &shard[K, V]{
		mu:     xsync.NewRBMutex(),
		index:  make(map[K]entryPointer, capacity),
		small:  newRingBuffer[*entry[K, V]](smallCap),
		main:   newRingBuffer[*entry[K, V]](mainCap),
		ghost:  newGhostSet[K](mainCap, hasher),
		hasher: hasher,
	}
}

// get looks up key, bumping its access counter (saturating at
// accessCountCeiling) on a hit. It never mutates small, main, ghost, or
// index, so it only needs the shared lock.
func (s *shard[K, V]) get(key K) (V, bool) {
	tok := s.mu.RLock()
	defer s.mu.RUnlock(tok)

	ptr, ok := s.index[key]
	if !ok {
		s.misses.Add(1)
		var zero V
		return zero, false
	}

	e := s.entryAt(ptr)
	c := e.count()
	if c < accessCountCeiling {
		e.incrementFrom(c)
	}
	s.hits.Add(1)
	return e.value, true
}

// entryAt dereferences a pointer into its queue's slot. A miss here means an
// index entry outlived its queue slot, which every mutation path forbids by
// updating index and queue in lockstep; it is a programming error, not a
// recoverable condition.
func (s *shard[K, V]) entryAt(ptr entryPointer) *entry[K, V] {
	var (
		e  *entry[K, V]
		ok bool
	)
	if ptr.queue == queueMain {
		e, ok = s.main.get(ptr.index)
	} else {
		e, ok = s.small.get(ptr.index)
	}
	if !ok {
		panic("plaincache: entry pointer referenced an empty queue slot")
	}
	return e
}

// insert adds or overwrites key, returning the prior value if any. The
// access counter is always reset to 0 on admission, including on overwrite.
func (s *shard[K, V]) insert(key K, value V) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		prev    V
		hadPrev bool
	)
	if ptr, ok := s.index[key]; ok {
		var removed *entry[K, V]
		if ptr.queue == queueMain {
			removed, hadPrev = s.main.remove(ptr.index)
		} else {
			removed, hadPrev = s.small.remove(ptr.index)
		}
		if hadPrev {
			prev = removed.value
		}
	}

	e := newEntry[K, V](key, value)
	if s.ghost.contains(key) {
		s.insertIntoMain(e)
	} else {
		s.insertIntoSmall(e)
	}

	return prev, hadPrev
}

func (s *shard[K, V]) insertIntoMain(e *entry[K, V]) {
	if s.main.isFull() {
		s.evictMain()
	}
	idx, ok := s.main.pushBack(e)
	if !ok {
		panic("plaincache: main queue still full after eviction")
	}
	s.index[e.key] = entryPointer{queue: queueMain, index: idx}
}

func (s *shard[K, V]) insertIntoSmall(e *entry[K, V]) {
	if s.small.isFull() {
		s.evictSmall()
	}
	idx, ok := s.small.pushBack(e)
	if !ok {
		panic("plaincache: small queue still full after eviction")
	}
	s.index[e.key] = entryPointer{queue: queueSmall, index: idx}
}

// evictMain pops from the head of main until it can either reinsert a
// still-warm entry (access count > 0, decremented by one) or drop a fully
// cold one (access count == 0), at which point it returns. Each loop
// iteration either exits or strictly reduces the popped entry's access
// count, so it terminates within main.len*4 steps.
func (s *shard[K, V]) evictMain() {
	for {
		e, ok := s.main.popFront()
		if !ok {
			return
		}

		if n := e.count(); n > 0 {
			e.setCount(n - 1)
			idx, pushed := s.main.pushBack(e)
			if !pushed {
				panic("plaincache: main queue still full immediately after a pop")
			}
			s.index[e.key] = entryPointer{queue: queueMain, index: idx}
			continue
		}

		delete(s.index, e.key)
		s.evictions.Add(1)
		return
	}
}

// evictSmall pops (at most) one entry from the head of small. An entry
// with access count > 1 is promoted to main with its counter reset;
// otherwise it is retired to the ghost set. Unlike evictMain this never
// loops: one pop always frees a slot, whichever way the entry goes.
func (s *shard[K, V]) evictSmall() {
	e, ok := s.small.popFront()
	if !ok {
		return
	}

	if e.count() > 1 {
		if s.main.isFull() {
			s.evictMain()
		}
		e.setCount(0)
		idx, pushed := s.main.pushBack(e)
		if !pushed {
			panic("plaincache: main queue still full after eviction")
		}
		s.index[e.key] = entryPointer{queue: queueMain, index: idx}
		return
	}

	delete(s.index, e.key)
	s.ghost.insert(e.key)
	s.evictions.Add(1)
}

// len reports the number of live keys in the shard. Cheap: it's the size of
// the index map, not a queue walk.
func (s *shard[K, V]) len() int {
	tok := s.mu.RLock()
	defer s.mu.RUnlock(tok)
	return len(s.index)
}
