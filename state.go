package omap

import (
	"math/rand/v2"
	"unsafe"
)

// orderedState is everything the map's lock protects. Moving a map hands
// the whole state to the destination; the source gets a fresh one.
type orderedState[K comparable, V any] struct {
	store *recordStore[K, V]
	index bucketIndex

	keyHash        HashFunc
	seed           uintptr
	initialBuckets int
	maxBucketSize  int
	maxGrowths     int
	growths        uint32
}

func newOrderedState[K comparable, V any](options ...func(*MapConfig)) *orderedState[K, V] {
	c := &MapConfig{
		MaxBucketSize: defaultMaxBucketSize,
		MaxGrowths:    defaultMaxGrowths,
	}
	for _, o := range options {
		o(c)
	}

	s := &orderedState[K, V]{
		keyHash:        c.KeyHash,
		seed:           uintptr(rand.Uint64()),
		initialBuckets: presizedBucketCount(c.SizeHint),
		maxBucketSize:  c.MaxBucketSize,
		maxGrowths:     c.MaxGrowths,
	}
	if s.keyHash == nil {
		s.keyHash = defaultHasher[K]()
	}
	s.store = newRecordStore[K, V](c.SizeHint)
	s.index = newBucketIndex(s.initialBuckets)
	return s
}

// emptyLike returns an empty state with the same configuration, hasher and
// seed.
func (s *orderedState[K, V]) emptyLike() *orderedState[K, V] {
	e := *s
	e.store = newRecordStore[K, V](0)
	e.index = newBucketIndex(s.initialBuckets)
	e.growths = 0
	return &e
}

// clone deep-copies the state. The source already satisfies every bound,
// so the index is rebuilt at the same bucket count without re-validation.
func (s *orderedState[K, V]) clone() *orderedState[K, V] {
	c := *s
	c.store = s.store.clone()
	c.index = newBucketIndex(s.index.count())
	c.store.rangeSlots(func(i uint32, sl *recordSlot[K, V]) bool {
		c.index.insertRef(i, sl.hash)
		return true
	})
	return &c
}

func (s *orderedState[K, V]) hash(key *K) uintptr {
	return s.keyHash(noescape(unsafe.Pointer(key)), s.seed)
}

func (s *orderedState[K, V]) find(key *K) uint32 {
	return lookup(&s.index, s.store, s.hash(key), key)
}

// insert is the whole find-or-append sequence and must run under the write
// lock as a single critical section. It panics with a *RehashError, after
// rolling the new entry back, when the index can not be brought back under
// its bounds.
func (s *orderedState[K, V]) insert(key K, value V) (uint32, bool) {
	hash := s.hash(&key)
	if i := lookup(&s.index, s.store, hash, &key); i != nilSlot {
		return i, false
	}

	i := s.store.push(key, value, hash)
	if s.needsRehash(s.index.insertRef(i, hash)) {
		if err := s.rehash(); err != nil {
			s.index.removeRef(i, hash)
			s.store.remove(i)
			panic(err)
		}
	}
	return i, true
}

// erase removes slot i from both structures and returns its successor.
func (s *orderedState[K, V]) erase(i uint32) uint32 {
	s.index.removeRef(i, s.store.at(i).hash)
	return s.store.remove(i)
}
