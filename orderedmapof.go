// Package omap provides OrderedMapOf, a hash map that iterates in insertion
// order, keeps every bucket chain short by rehashing eagerly, and is safe
// for concurrent use through a single reader/writer lock.
package omap

import (
	"fmt"
	"iter"
	"strings"
	"sync"
	"unsafe"
)

// OrderedMapOf is a concurrent hash map that remembers insertion order.
//
// Entries live in an arena of stable slots linked in insertion order; the
// bucket index only refers to slots by number. After every insertion each
// bucket chain holds at most MaxBucketSize entries (10 by default) and the
// map holds at most 0.9 entries per bucket; the index grows by the golden
// ratio until both hold.
//
// All state is guarded by one sync.RWMutex: lookups, accessors and
// iteration take the read lock, every mutation takes the write lock, and no
// operation ever holds more than one lock.
//
// The zero value is an empty map ready to use with default options.
// An OrderedMapOf must not be copied after first use; use Clone, CopyFrom
// or MoveFrom instead.
type OrderedMapOf[K comparable, V any] struct {
	//lint:ignore U1000 prevents false sharing
	pad [(CacheLineSize - unsafe.Sizeof(struct {
		mu sync.RWMutex
		st unsafe.Pointer
	}{})%CacheLineSize) % CacheLineSize]byte

	mu sync.RWMutex
	st *orderedState[K, V]
}

// NewOrderedMapOf creates a new OrderedMapOf instance.
//
// Parameters:
//   - WithPresize option for initial bucket count
//   - WithKeyHasher / WithKeyHasherUnsafe to replace the built-in hasher
//   - WithMaxBucketSize, WithMaxGrowths to tune the rehash policy
func NewOrderedMapOf[K comparable, V any](options ...func(*MapConfig)) *OrderedMapOf[K, V] {
	return &OrderedMapOf[K, V]{st: newOrderedState[K, V](options...)}
}

// NewOrderedMapOfFrom creates a map holding pairs in order. The bucket index
// is presized for len(pairs) unless WithPresize says otherwise. When a key
// repeats, the first occurrence wins and later ones are ignored.
func NewOrderedMapOfFrom[K comparable, V any](
	pairs []EntryOf[K, V],
	options ...func(*MapConfig),
) *OrderedMapOf[K, V] {
	st := newOrderedState[K, V](append([]func(*MapConfig){WithPresize(len(pairs))}, options...)...)
	for _, p := range pairs {
		st.insert(p.Key, p.Value)
	}
	return &OrderedMapOf[K, V]{st: st}
}

// Collect creates a map from seq with the same first-wins semantics as
// NewOrderedMapOfFrom.
func Collect[K comparable, V any](seq iter.Seq2[K, V], options ...func(*MapConfig)) *OrderedMapOf[K, V] {
	st := newOrderedState[K, V](options...)
	for k, v := range seq {
		st.insert(k, v)
	}
	return &OrderedMapOf[K, V]{st: st}
}

// state returns the lazily created state. Caller must hold the write lock.
func (m *OrderedMapOf[K, V]) state() *orderedState[K, V] {
	if m.st == nil {
		m.st = newOrderedState[K, V]()
	}
	return m.st
}

func (m *OrderedMapOf[K, V]) iterAt(st *orderedState[K, V], i uint32) Iterator[K, V] {
	if st == nil || i == nilSlot {
		return m.endOf()
	}
	return Iterator[K, V]{m: m, store: st.store, idx: i, gen: st.store.at(i).gen}
}

// endOf returns the end marker. It carries no store, so an end marker taken
// before the state exists, or before a Clear, still equals the one Next
// walks to afterwards.
func (m *OrderedMapOf[K, V]) endOf() Iterator[K, V] {
	return Iterator[K, V]{m: m, idx: nilSlot}
}

// Insert adds key with value unless key is already present. It returns an
// iterator to the entry holding key and whether a new entry was created.
// An existing entry is left untouched.
//
// Insert panics with a *RehashError if the configured hasher maps more than
// MaxBucketSize distinct keys to one hash value; the map is left as it was
// before the call.
func (m *OrderedMapOf[K, V]) Insert(key K, value V) (Iterator[K, V], bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state()
	i, inserted := st.insert(key, value)
	return m.iterAt(st, i), inserted
}

// Find returns an iterator to the entry for key, or End() if absent.
func (m *OrderedMapOf[K, V]) Find(key K) Iterator[K, V] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := m.st
	if st == nil {
		return m.endOf()
	}
	return m.iterAt(st, st.find(&key))
}

// Erase removes the entry it refers to and returns an iterator to the entry
// that followed it in insertion order, or End().
//
// it must come from this map and its entry must still be present; erasing
// the end iterator, an erased entry, or an entry of another map panics with
// an error wrapping ErrInvalidIterator.
func (m *OrderedMapOf[K, V]) Erase(it Iterator[K, V]) Iterator[K, V] {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.st
	if err := it.check(m, st); err != nil {
		panic(err)
	}
	return m.iterAt(st, st.erase(it.idx))
}

// Index returns a pointer to the value for key, inserting the zero value
// first when key is absent.
//
// The pointer stays valid until the entry is erased. Reads and writes
// through it are not guarded by the map's lock; use Store, SetValue or
// Compute when other goroutines access the same entry.
func (m *OrderedMapOf[K, V]) Index(key K) *V {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state()
	var zero V
	i, _ := st.insert(key, zero)
	return &st.store.at(i).entry.Value
}

// Begin returns an iterator to the oldest entry, or End() if empty.
func (m *OrderedMapOf[K, V]) Begin() Iterator[K, V] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.st == nil {
		return m.endOf()
	}
	return m.iterAt(m.st, m.st.store.head)
}

// End returns the end marker. It never refers to an entry, and the marker
// of a map stays the same across every change to it.
func (m *OrderedMapOf[K, V]) End() Iterator[K, V] {
	return m.endOf()
}

// Size returns the number of entries.
func (m *OrderedMapOf[K, V]) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.st == nil {
		return 0
	}
	return m.st.store.size
}

// IsZero reports whether the map is empty.
func (m *OrderedMapOf[K, V]) IsZero() bool {
	return m.Size() == 0
}

// BucketCount returns the number of buckets in the index. It is never
// below 8.
func (m *OrderedMapOf[K, V]) BucketCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.st == nil {
		return minBucketCount
	}
	return m.st.index.count()
}

// Load returns the value stored for key.
func (m *OrderedMapOf[K, V]) Load(key K) (value V, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.st == nil {
		return
	}
	if i := m.st.find(&key); i != nilSlot {
		return m.st.store.at(i).entry.Value, true
	}
	return
}

// HasKey reports whether key is present.
func (m *OrderedMapOf[K, V]) HasKey(key K) bool {
	_, ok := m.Load(key)
	return ok
}

// LoadOrStore returns the existing value for key if present. Otherwise, it
// stores value at the end of the insertion order and returns it. The
// loaded result is true if the value was loaded, false if stored.
func (m *OrderedMapOf[K, V]) LoadOrStore(key K, value V) (actual V, loaded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state()
	i, inserted := st.insert(key, value)
	return st.store.at(i).entry.Value, !inserted
}

// LoadOrStoreFn is like LoadOrStore but calls valueFn, under the write
// lock, only when key is absent.
func (m *OrderedMapOf[K, V]) LoadOrStoreFn(key K, valueFn func() V) (actual V, loaded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state()
	if i := st.find(&key); i != nilSlot {
		return st.store.at(i).entry.Value, true
	}
	value := valueFn()
	st.insert(key, value)
	return value, false
}

// Store sets the value for key. A new key is appended to the insertion
// order; an existing key keeps its position.
func (m *OrderedMapOf[K, V]) Store(key K, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state()
	if i, inserted := st.insert(key, value); !inserted {
		st.store.at(i).entry.Value = value
	}
}

// Compute calls fn with the current value for key, if any, under the write
// lock. fn returns the new value and whether the entry should be deleted.
// A new key is appended to the insertion order.
func (m *OrderedMapOf[K, V]) Compute(
	key K,
	fn func(oldValue V, loaded bool) (newValue V, delete bool),
) (actual V, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.state()
	i := st.find(&key)
	if i == nilSlot {
		var zero V
		newValue, del := fn(zero, false)
		if del {
			return zero, false
		}
		st.insert(key, newValue)
		return newValue, true
	}
	sl := st.store.at(i)
	newValue, del := fn(sl.entry.Value, true)
	if del {
		st.erase(i)
		var zero V
		return zero, false
	}
	sl.entry.Value = newValue
	return newValue, true
}

// Delete removes key and reports whether it was present.
func (m *OrderedMapOf[K, V]) Delete(key K) bool {
	_, ok := m.LoadAndDelete(key)
	return ok
}

// LoadAndDelete removes key, returning its previous value if any.
func (m *OrderedMapOf[K, V]) LoadAndDelete(key K) (value V, loaded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.st == nil {
		return
	}
	i := m.st.find(&key)
	if i == nilSlot {
		return
	}
	value = m.st.store.at(i).entry.Value
	m.st.erase(i)
	return value, true
}

// Clear removes every entry and resets the bucket index to its initial
// size. Iterators obtained before Clear become invalid.
func (m *OrderedMapOf[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.st != nil {
		m.st = m.st.emptyLike()
	}
}

// Range calls yield for each entry in insertion order until it returns
// false.
//
// Range walks a snapshot taken under the read lock, and the lock is
// released before yield runs, so yield may call any method of the map,
// including ones that modify it. Changes made during the walk are not
// reflected in the remaining entries.
func (m *OrderedMapOf[K, V]) Range(yield func(key K, value V) bool) {
	for _, e := range m.Entries() {
		if !yield(e.Key, e.Value) {
			return
		}
	}
}

// All returns an iterator over key-value pairs in insertion order.
// It is subject to the same restrictions as Range.
func (m *OrderedMapOf[K, V]) All() iter.Seq2[K, V] {
	return m.Range
}

// Keys returns an iterator over keys in insertion order.
func (m *OrderedMapOf[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		m.Range(func(key K, _ V) bool {
			return yield(key)
		})
	}
}

// Values returns an iterator over values in insertion order.
func (m *OrderedMapOf[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		m.Range(func(_ K, value V) bool {
			return yield(value)
		})
	}
}

// Entries returns a snapshot of all entries in insertion order.
func (m *OrderedMapOf[K, V]) Entries() []EntryOf[K, V] {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.st == nil {
		return nil
	}
	entries := make([]EntryOf[K, V], 0, m.st.store.size)
	m.st.store.rangeSlots(func(_ uint32, sl *recordSlot[K, V]) bool {
		entries = append(entries, sl.entry)
		return true
	})
	return entries
}

// ToMap collects all entries into a Go map. Order is lost.
func (m *OrderedMapOf[K, V]) ToMap() map[K]V {
	out := make(map[K]V, m.Size())
	m.Range(func(key K, value V) bool {
		out[key] = value
		return true
	})
	return out
}

// String returns the entries in insertion order, formatted like a Go map.
func (m *OrderedMapOf[K, V]) String() string {
	var sb strings.Builder
	sb.WriteString("map[")
	first := true
	m.Range(func(key K, value V) bool {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		fmt.Fprintf(&sb, "%v:%v", key, value)
		return true
	})
	sb.WriteByte(']')
	return sb.String()
}
