package omap

// Iterator is a handle to one entry of an OrderedMapOf, or to its end
// marker. It is a small value and comparable with ==: two iterators are
// equal when they refer to the same entry of the same map, or are both the
// end marker of the same map.
//
// An iterator stays valid across unrelated insertions and erasures. It
// becomes invalid once its entry is erased, or when the map is cleared,
// moved or copy-assigned over; using it afterwards panics with an error
// wrapping ErrInvalidIterator. The end marker never becomes invalid.
type Iterator[K comparable, V any] struct {
	m     *OrderedMapOf[K, V]
	store *recordStore[K, V]
	idx   uint32
	gen   uint32
}

// IsEnd reports whether it is the end marker.
func (it Iterator[K, V]) IsEnd() bool {
	return it.idx == nilSlot
}

// check validates it against map m with state st. Caller holds m's lock.
func (it Iterator[K, V]) check(m *OrderedMapOf[K, V], st *orderedState[K, V]) error {
	switch {
	case it.m != m:
		return invalidIterator("iterator belongs to another map")
	case it.idx == nilSlot:
		return invalidIterator("end iterator does not refer to an entry")
	case st == nil || st.store != it.store:
		return invalidIterator("map was cleared, moved or reassigned")
	case !it.store.contains(it.idx, it.gen):
		return invalidIterator("entry was erased")
	}
	return nil
}

// slot returns the entry slot after validation. Caller holds a lock.
func (it Iterator[K, V]) slot() *recordSlot[K, V] {
	if it.m == nil {
		panic(invalidIterator("zero iterator"))
	}
	if err := it.check(it.m, it.m.st); err != nil {
		panic(err)
	}
	return it.store.at(it.idx)
}

// Key returns the entry's key.
func (it Iterator[K, V]) Key() K {
	it.rlock()
	defer it.m.mu.RUnlock()
	return it.slot().entry.Key
}

// Value returns the entry's current value.
func (it Iterator[K, V]) Value() V {
	it.rlock()
	defer it.m.mu.RUnlock()
	return it.slot().entry.Value
}

// Entry returns a copy of the entry.
func (it Iterator[K, V]) Entry() EntryOf[K, V] {
	it.rlock()
	defer it.m.mu.RUnlock()
	return it.slot().entry
}

// SetValue replaces the entry's value under the map's write lock. The key
// and the entry's position are unchanged.
func (it Iterator[K, V]) SetValue(value V) {
	if it.m == nil {
		panic(invalidIterator("zero iterator"))
	}
	it.m.mu.Lock()
	defer it.m.mu.Unlock()
	it.slot().entry.Value = value
}

// Next returns the iterator to the following entry in insertion order, or
// the end marker after the last one. Next of the end marker is the end
// marker.
func (it Iterator[K, V]) Next() Iterator[K, V] {
	if it.IsEnd() {
		return it
	}
	it.rlock()
	defer it.m.mu.RUnlock()
	return it.m.iterAt(it.m.st, it.slot().next)
}

// Prev returns the iterator to the preceding entry. Prev of the end marker
// is the newest entry; Prev of the oldest entry is the end marker.
func (it Iterator[K, V]) Prev() Iterator[K, V] {
	it.rlock()
	defer it.m.mu.RUnlock()
	st := it.m.st
	if it.IsEnd() {
		return it.m.iterAt(st, tailOf(st))
	}
	return it.m.iterAt(st, it.slot().prev)
}

func (it Iterator[K, V]) rlock() {
	if it.m == nil {
		panic(invalidIterator("zero iterator"))
	}
	it.m.mu.RLock()
}

func tailOf[K comparable, V any](st *orderedState[K, V]) uint32 {
	if st == nil {
		return nilSlot
	}
	return st.store.tail
}
