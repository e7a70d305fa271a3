package omap

// growBucketCount returns the next bucket count in the golden-ratio
// sequence 8, 12, 19, 30, 48, 77, 124, ...
func growBucketCount(n int) int {
	return max(n+1, int(float64(n)*growthFactor))
}

// overLoaded reports whether size entries exceed 90% of buckets.
func overLoaded(size, buckets int) bool {
	return size*loadFactorDen > buckets*loadFactorNum
}

// needsRehash is checked after every insertion. chainLen is the length of
// the chain the new entry went into; no other chain changed.
func (s *orderedState[K, V]) needsRehash(chainLen int) bool {
	return chainLen > s.maxBucketSize || overLoaded(s.store.size, s.index.count())
}

// rehash grows the bucket index until every chain holds at most
// maxBucketSize entries and the load factor is back under 0.9. Both bounds
// are re-checked after every growth step. The current index is replaced
// only on success; on failure it is left untouched and a *RehashError is
// returned.
func (s *orderedState[K, V]) rehash() error {
	count := s.index.count()
	for growths := 1; ; growths++ {
		if growths > s.maxGrowths {
			return &RehashError{
				BucketCount:   count,
				Size:          s.store.size,
				MaxBucketSize: s.maxBucketSize,
				Growths:       growths - 1,
			}
		}
		count = growBucketCount(count)
		if overLoaded(s.store.size, count) {
			continue
		}

		idx, overflow := s.rebuild(count)
		if overflow == nilSlot {
			s.index = idx
			s.growths++
			return nil
		}
		if n := s.sameHash(&idx, overflow); n > s.maxBucketSize {
			return &RehashError{
				BucketCount:   count,
				Size:          s.store.size,
				MaxBucketSize: s.maxBucketSize,
				Growths:       growths,
				Collisions:    n,
			}
		}
	}
}

// rebuild indexes every live entry into a new index of count buckets. It
// stops at the first chain that grows past maxBucketSize and returns the
// slot that overflowed it, or nilSlot when the whole store fit.
func (s *orderedState[K, V]) rebuild(count int) (bucketIndex, uint32) {
	idx := newBucketIndex(count)
	overflow := nilSlot
	s.store.rangeSlots(func(i uint32, sl *recordSlot[K, V]) bool {
		if idx.insertRef(i, sl.hash) > s.maxBucketSize {
			overflow = i
			return false
		}
		return true
	})
	return idx, overflow
}

// sameHash counts the entries in the overflowing chain that share the
// overflowing slot's full hash. No bucket count can split those apart.
func (s *orderedState[K, V]) sameHash(idx *bucketIndex, overflow uint32) int {
	hash := s.store.at(overflow).hash
	n := 0
	for _, i := range idx.chains[idx.bucketOf(hash)] {
		if s.store.at(i).hash == hash {
			n++
		}
	}
	return n
}
