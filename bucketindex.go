package omap

// bucketIndex maps hashes to chains of record store slots. It holds no
// entries itself, only slot numbers.
type bucketIndex struct {
	chains [][]uint32
}

func newBucketIndex(bucketCount int) bucketIndex {
	return bucketIndex{chains: make([][]uint32, max(bucketCount, minBucketCount))}
}

func (b *bucketIndex) count() int {
	return len(b.chains)
}

// bucketOf is safe because the chain count is never zero.
func (b *bucketIndex) bucketOf(hash uintptr) int {
	return int(hash % uintptr(len(b.chains)))
}

// insertRef appends slot i to its chain and returns the new chain length.
func (b *bucketIndex) insertRef(i uint32, hash uintptr) int {
	bidx := b.bucketOf(hash)
	b.chains[bidx] = append(b.chains[bidx], i)
	return len(b.chains[bidx])
}

// removeRef drops slot i from its chain. Chain order carries no meaning, so
// the last reference takes its place.
func (b *bucketIndex) removeRef(i uint32, hash uintptr) bool {
	bidx := b.bucketOf(hash)
	chain := b.chains[bidx]
	for j, ref := range chain {
		if ref == i {
			last := len(chain) - 1
			chain[j] = chain[last]
			b.chains[bidx] = chain[:last]
			return true
		}
	}
	return false
}

// maxChain returns the length of the longest chain.
func (b *bucketIndex) maxChain() int {
	longest := 0
	for _, chain := range b.chains {
		longest = max(longest, len(chain))
	}
	return longest
}

// lookup scans the chain for hash and returns the slot holding key, or
// nilSlot. The cached hash is compared first so most mismatches never touch
// the key.
func lookup[K comparable, V any](b *bucketIndex, s *recordStore[K, V], hash uintptr, key *K) uint32 {
	for _, i := range b.chains[b.bucketOf(hash)] {
		sl := s.at(i)
		if sl.hash == hash && sl.entry.Key == *key {
			return i
		}
	}
	return nilSlot
}
