package omap

const (
	// nilSlot marks the absence of a slot: list ends, empty free list and
	// the end iterator.
	nilSlot = ^uint32(0)

	// Slots are allocated in fixed-size chunks so that a slot never moves
	// once handed out; pointers into it (see OrderedMapOf.Index) stay valid
	// while the arena grows.
	slotChunkBits = 8
	slotChunkSize = 1 << slotChunkBits
	slotChunkMask = slotChunkSize - 1
)

// EntryOf is a key-value pair as stored in the map.
type EntryOf[K comparable, V any] struct {
	Key   K
	Value V
}

// recordSlot is one arena cell. Live slots form a doubly-linked list in
// insertion order; free slots form a singly-linked list through next.
type recordSlot[K comparable, V any] struct {
	entry EntryOf[K, V]
	hash  uintptr
	prev  uint32
	next  uint32
	// gen is bumped every time the slot is released, invalidating
	// iterators that still point at it.
	gen  uint32
	live bool
}

// recordStore owns every entry of the map and defines iteration order.
type recordStore[K comparable, V any] struct {
	chunks [][]recordSlot[K, V]
	used   uint32 // slots ever handed out; the arena high-water mark
	free   uint32
	head   uint32
	tail   uint32
	size   int
}

func newRecordStore[K comparable, V any](sizeHint int) *recordStore[K, V] {
	s := &recordStore[K, V]{free: nilSlot, head: nilSlot, tail: nilSlot}
	if sizeHint > 0 {
		s.chunks = make([][]recordSlot[K, V], 0, (sizeHint+slotChunkMask)>>slotChunkBits)
	}
	return s
}

func (s *recordStore[K, V]) at(i uint32) *recordSlot[K, V] {
	return &s.chunks[i>>slotChunkBits][i&slotChunkMask]
}

// contains reports whether i addresses a live slot of generation gen.
func (s *recordStore[K, V]) contains(i, gen uint32) bool {
	if i >= s.used {
		return false
	}
	sl := s.at(i)
	return sl.live && sl.gen == gen
}

func (s *recordStore[K, V]) alloc() uint32 {
	if i := s.free; i != nilSlot {
		s.free = s.at(i).next
		return i
	}
	if s.used == nilSlot {
		panic("omap: record store exhausted")
	}
	i := s.used
	if int(i>>slotChunkBits) == len(s.chunks) {
		s.chunks = append(s.chunks, make([]recordSlot[K, V], slotChunkSize))
	}
	s.used++
	return i
}

// push appends a new entry at the tail and returns its slot.
func (s *recordStore[K, V]) push(key K, value V, hash uintptr) uint32 {
	i := s.alloc()
	sl := s.at(i)
	sl.entry = EntryOf[K, V]{Key: key, Value: value}
	sl.hash = hash
	sl.live = true
	sl.prev = s.tail
	sl.next = nilSlot
	if s.tail == nilSlot {
		s.head = i
	} else {
		s.at(s.tail).next = i
	}
	s.tail = i
	s.size++
	return i
}

// remove unlinks slot i, releases it to the free list and returns the slot
// that followed it in insertion order.
func (s *recordStore[K, V]) remove(i uint32) uint32 {
	sl := s.at(i)
	next := sl.next
	if sl.prev == nilSlot {
		s.head = next
	} else {
		s.at(sl.prev).next = next
	}
	if next == nilSlot {
		s.tail = sl.prev
	} else {
		s.at(next).prev = sl.prev
	}

	// drop references so the GC can reclaim key and value
	sl.entry = EntryOf[K, V]{}
	sl.hash = 0
	sl.live = false
	sl.gen++
	sl.prev = nilSlot
	sl.next = s.free
	s.free = i
	s.size--
	return next
}

// rangeSlots visits live slots in insertion order until fn returns false.
func (s *recordStore[K, V]) rangeSlots(fn func(i uint32, sl *recordSlot[K, V]) bool) {
	for i := s.head; i != nilSlot; {
		sl := s.at(i)
		next := sl.next
		if !fn(i, sl) {
			return
		}
		i = next
	}
}

// clone returns a compacted copy: the same entries in the same order, with
// slot numbers reassigned from zero.
func (s *recordStore[K, V]) clone() *recordStore[K, V] {
	c := newRecordStore[K, V](s.size)
	s.rangeSlots(func(_ uint32, sl *recordSlot[K, V]) bool {
		c.push(sl.entry.Key, sl.entry.Value, sl.hash)
		return true
	})
	return c
}
