package omap

// Clone creates a deep copy of the map.
//
// Returns:
//   - A new OrderedMapOf with the same entries in the same order, the same
//     bucket count and the same configuration.
//
// Notes:
//   - The source is read under its read lock; the copy shares nothing with
//     it, so later changes to either are invisible to the other.
//   - Iterators of the source do not refer to entries of the clone.
func (m *OrderedMapOf[K, V]) Clone() *OrderedMapOf[K, V] {
	return &OrderedMapOf[K, V]{st: m.snapshot()}
}

// CopyFrom replaces the contents of m with a deep copy of src. Iterators
// previously obtained from m become invalid. Copying a map onto itself is a
// no-op.
//
// src is copied under its read lock, which is released before m's write
// lock is taken, so the two locks are never held together.
func (m *OrderedMapOf[K, V]) CopyFrom(src *OrderedMapOf[K, V]) {
	if src == m {
		return
	}
	st := src.snapshot()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = st
}

// MoveFrom transfers all entries of src to m, replacing the contents of m.
// src is left empty and usable, with its initial bucket count. Iterators
// of either map obtained before the move become invalid. Moving a map onto
// itself is a no-op.
func (m *OrderedMapOf[K, V]) MoveFrom(src *OrderedMapOf[K, V]) {
	if src == m {
		return
	}

	src.mu.Lock()
	st := src.state()
	src.st = st.emptyLike()
	src.mu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = st
}

func (m *OrderedMapOf[K, V]) snapshot() *orderedState[K, V] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.st == nil {
		return newOrderedState[K, V]()
	}
	return m.st.clone()
}
