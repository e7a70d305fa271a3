package omap

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// panicErr runs fn and returns the error it panicked with.
func panicErr(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		e, ok := r.(error)
		require.Truef(t, ok, "panic value %v (%T) is not an error", r, r)
		err = e
	}()
	fn()
	return nil
}

// checkInvariants verifies the bounds every completed insertion restores
// and that each live entry is reachable through the index.
func checkInvariants[K comparable, V any](t *testing.T, m *OrderedMapOf[K, V]) {
	t.Helper()
	s := m.Stats()
	require.GreaterOrEqual(t, s.Buckets, minBucketCount)
	require.LessOrEqual(t, s.MaxEntries, s.MaxBucketSize, "chain bound violated")
	require.LessOrEqual(t, s.Size*loadFactorDen, s.Buckets*loadFactorNum, "load factor violated")
	require.Equal(t, s.Size, s.References)
	for _, e := range m.Entries() {
		it := m.Find(e.Key)
		require.False(t, it.IsEnd(), "key %v not indexed", e.Key)
		require.Equal(t, e.Value, it.Value())
	}
}

func keysOf[K comparable, V any](m *OrderedMapOf[K, V]) []K {
	var keys []K
	for k := range m.Keys() {
		keys = append(keys, k)
	}
	return keys
}

func TestOrderedMapOf_FirstWriteWins(t *testing.T) {
	m := NewOrderedMapOf[string, int]()

	_, inserted := m.Insert("a", 1)
	require.True(t, inserted)
	_, inserted = m.Insert("b", 2)
	require.True(t, inserted)
	it, inserted := m.Insert("a", 3)
	require.False(t, inserted)
	assert.Equal(t, "a", it.Key())
	assert.Equal(t, 1, it.Value())

	assert.Equal(t, 2, m.Size())
	assert.Equal(t, 1, m.Find("a").Value())

	want := []EntryOf[string, int]{{"a", 1}, {"b", 2}}
	if diff := cmp.Diff(want, m.Entries()); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderedMapOf_DistinctKeys(t *testing.T) {
	const n = 5000
	m := NewOrderedMapOf[string, int]()
	for i := 0; i < n; i++ {
		_, inserted := m.Insert(strconv.Itoa(i), i)
		require.True(t, inserted)
	}
	require.Equal(t, n, m.Size())
	for i := 0; i < n; i++ {
		v, ok := m.Load(strconv.Itoa(i))
		require.True(t, ok, "key %d missing", i)
		require.Equal(t, i, v)
	}
	_, ok := m.Load("missing")
	assert.False(t, ok)
	assert.True(t, m.Find("missing").IsEnd())
	checkInvariants(t, m)
}

func TestOrderedMapOf_InsertionOrder(t *testing.T) {
	m := NewOrderedMapOf[string, int]()
	var want []string
	for i := 0; i < 300; i++ {
		k := fmt.Sprintf("k%03d", (i*37)%300)
		m.Insert(k, i)
		want = append(want, k)
	}
	if diff := cmp.Diff(want, keysOf(m)); diff != "" {
		t.Fatalf("iteration order mismatch (-want +got):\n%s", diff)
	}
}

func TestOrderedMapOf_GoldenRatioGrowth(t *testing.T) {
	m := NewOrderedMapOf[int, int]()
	require.Equal(t, 8, m.BucketCount())

	seen := []int{m.BucketCount()}
	for i := 0; i < 100; i++ {
		m.Insert(i, i)
		if c := m.BucketCount(); c != seen[len(seen)-1] {
			seen = append(seen, c)
		}
		checkInvariants(t, m)
	}
	assert.Equal(t, []int{8, 12, 19, 30, 48, 77, 124}, seen)
	assert.Equal(t, uint32(6), m.Stats().TotalGrowths)
}

func TestOrderedMapOf_BoundsWithStringKeys(t *testing.T) {
	m := NewOrderedMapOf[string, int]()
	for i := 0; i < 100; i++ {
		m.Insert("key-"+strconv.Itoa(i), i)
		s := m.Stats()
		require.LessOrEqual(t, s.MaxEntries, 10)
		require.GreaterOrEqual(t, s.Buckets, 8)
	}
	assert.GreaterOrEqual(t, m.BucketCount(), 112)

	// every bucket count is a member of the growth sequence
	c := 8
	for c < m.BucketCount() {
		c = growBucketCount(c)
	}
	assert.Equal(t, c, m.BucketCount())
}

func TestOrderedMapOf_EraseResumesInOrder(t *testing.T) {
	m := NewOrderedMapOf[int, string]()
	for i := 0; i < 10; i++ {
		m.Insert(i, strconv.Itoa(i))
	}

	it := m.Find(4)
	next := m.Erase(it)
	require.False(t, next.IsEnd())
	assert.Equal(t, 5, next.Key())

	var rest []int
	for ; !next.IsEnd(); next = next.Next() {
		rest = append(rest, next.Key())
	}
	assert.Equal(t, []int{5, 6, 7, 8, 9}, rest)
	assert.Equal(t, []int{0, 1, 2, 3, 5, 6, 7, 8, 9}, keysOf(m))
	assert.Equal(t, 9, m.Size())
	checkInvariants(t, m)

	last := m.Find(9)
	assert.True(t, m.Erase(last).IsEnd())
}

func TestOrderedMapOf_EraseAllWhileIterating(t *testing.T) {
	m := NewOrderedMapOf[int, int]()
	for i := 0; i < 1000; i++ {
		m.Insert(i, i)
	}
	for it := m.Begin(); !it.IsEnd(); {
		if it.Key()%2 == 0 {
			it = m.Erase(it)
		} else {
			it = it.Next()
		}
	}
	require.Equal(t, 500, m.Size())
	for i, k := range keysOf(m) {
		require.Equal(t, 2*i+1, k)
	}
	checkInvariants(t, m)
}

func TestOrderedMapOf_ReinsertGoesToTail(t *testing.T) {
	m := NewOrderedMapOf[string, int]()
	m.Insert("a", 1)
	m.Insert("b", 2)
	m.Insert("c", 3)
	require.True(t, m.Delete("a"))
	require.False(t, m.Delete("a"))
	m.Insert("a", 4)
	assert.Equal(t, []string{"b", "c", "a"}, keysOf(m))
	assert.Equal(t, 4, m.Find("a").Value())
}

func TestOrderedMapOf_Index(t *testing.T) {
	m := NewOrderedMapOf[string, int]()
	*m.Index("x") += 5
	*m.Index("x") += 5
	*m.Index("y") = 1

	assert.Equal(t, 2, m.Size())
	v, ok := m.Load("x")
	assert.True(t, ok)
	assert.Equal(t, 10, v)
	assert.Equal(t, []string{"x", "y"}, keysOf(m))

	// the pointer survives growth of the arena and the index
	p := m.Index("x")
	for i := 0; i < 2000; i++ {
		m.Insert(strconv.Itoa(i), i)
	}
	*p = 42
	v, _ = m.Load("x")
	assert.Equal(t, 42, v)
}

func TestOrderedMapOf_StoreKeepsPosition(t *testing.T) {
	m := NewOrderedMapOf[string, int]()
	m.Store("a", 1)
	m.Store("b", 2)
	m.Store("a", 10)
	assert.Equal(t, []EntryOf[string, int]{{"a", 10}, {"b", 2}}, m.Entries())
}

func TestOrderedMapOf_LoadOrStore(t *testing.T) {
	m := NewOrderedMapOf[string, int]()
	v, loaded := m.LoadOrStore("k", 1)
	assert.False(t, loaded)
	assert.Equal(t, 1, v)
	v, loaded = m.LoadOrStore("k", 2)
	assert.True(t, loaded)
	assert.Equal(t, 1, v)

	calls := 0
	v, loaded = m.LoadOrStoreFn("k", func() int { calls++; return 3 })
	assert.True(t, loaded)
	assert.Equal(t, 1, v)
	v, loaded = m.LoadOrStoreFn("j", func() int { calls++; return 3 })
	assert.False(t, loaded)
	assert.Equal(t, 3, v)
	assert.Equal(t, 1, calls)
}

func TestOrderedMapOf_Compute(t *testing.T) {
	m := NewOrderedMapOf[string, int]()
	inc := func(old int, _ bool) (int, bool) { return old + 1, false }

	v, ok := m.Compute("a", inc)
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	v, _ = m.Compute("a", inc)
	assert.Equal(t, 2, v)

	_, ok = m.Compute("a", func(int, bool) (int, bool) { return 0, true })
	assert.False(t, ok)
	assert.False(t, m.HasKey("a"))

	_, ok = m.Compute("b", func(int, bool) (int, bool) { return 0, true })
	assert.False(t, ok)
	assert.Zero(t, m.Size())
}

func TestOrderedMapOf_LoadAndDelete(t *testing.T) {
	m := NewOrderedMapOf[int, string]()
	m.Insert(1, "one")
	v, loaded := m.LoadAndDelete(1)
	assert.True(t, loaded)
	assert.Equal(t, "one", v)
	_, loaded = m.LoadAndDelete(1)
	assert.False(t, loaded)
	assert.True(t, m.IsZero())
}

func TestOrderedMapOf_Clear(t *testing.T) {
	m := NewOrderedMapOf[int, int]()
	for i := 0; i < 100; i++ {
		m.Insert(i, i)
	}
	it := m.Find(3)
	m.Clear()
	assert.Zero(t, m.Size())
	assert.Equal(t, 8, m.BucketCount())
	assert.True(t, m.Begin().IsEnd())
	require.ErrorIs(t, panicErr(t, func() { it.Value() }), ErrInvalidIterator)

	m.Insert(1, 1)
	assert.Equal(t, 1, m.Size())
}

func TestOrderedMapOf_ZeroValue(t *testing.T) {
	var m OrderedMapOf[string, int]
	assert.Zero(t, m.Size())
	assert.Equal(t, 8, m.BucketCount())
	assert.True(t, m.Find("a").IsEnd())
	assert.True(t, m.Begin().IsEnd())
	assert.Equal(t, m.Begin(), m.End())
	_, ok := m.Load("a")
	assert.False(t, ok)
	assert.False(t, m.Delete("a"))
	assert.Empty(t, m.Entries())

	m.Insert("a", 1)
	assert.Equal(t, 1, m.Size())
	assert.Equal(t, 1, m.Find("a").Value())
}

func TestNewOrderedMapOfFrom(t *testing.T) {
	m := NewOrderedMapOfFrom([]EntryOf[string, int]{
		{"x", 1}, {"y", 2}, {"x", 3}, {"z", 4},
	})
	assert.Equal(t, 3, m.Size())
	assert.Equal(t, 1, m.Find("x").Value())
	assert.Equal(t, []string{"x", "y", "z"}, keysOf(m))
	assert.Equal(t, 8, m.BucketCount())

	pairs := make([]EntryOf[int, int], 300)
	for i := range pairs {
		pairs[i] = EntryOf[int, int]{Key: i, Value: -i}
	}
	big := NewOrderedMapOfFrom(pairs)
	assert.Equal(t, 400, big.BucketCount(), "presized to 4/3 of the pairs")
	assert.Zero(t, big.Stats().TotalGrowths)
	checkInvariants(t, big)
}

func TestCollect(t *testing.T) {
	src := NewOrderedMapOf[string, int]()
	for i := 0; i < 50; i++ {
		src.Insert(strconv.Itoa(i), i)
	}
	dst := Collect(src.All())
	if diff := cmp.Diff(src.Entries(), dst.Entries()); diff != "" {
		t.Fatalf("collect mismatch (-src +dst):\n%s", diff)
	}
}

func TestOrderedMapOf_RangeEarlyStop(t *testing.T) {
	m := NewOrderedMapOf[int, int]()
	for i := 0; i < 10; i++ {
		m.Insert(i, i*i)
	}
	var got []int
	for _, v := range m.All() {
		got = append(got, v)
		if len(got) == 3 {
			break
		}
	}
	assert.Equal(t, []int{0, 1, 4}, got)

	var values []int
	for v := range m.Values() {
		values = append(values, v)
	}
	assert.Len(t, values, 10)
	assert.Equal(t, 81, values[9])
}

func TestOrderedMapOf_ToMapAndString(t *testing.T) {
	m := NewOrderedMapOf[string, int]()
	m.Insert("b", 2)
	m.Insert("a", 1)
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, m.ToMap())
	assert.Equal(t, "map[b:2 a:1]", m.String())
	assert.Equal(t, "map[]", NewOrderedMapOf[string, int]().String())
}

func TestOrderedMapOf_MaxBucketSizeOption(t *testing.T) {
	m := NewOrderedMapOf[string, int](WithMaxBucketSize(1))
	for i := 0; i < 40; i++ {
		m.Insert(strconv.Itoa(i), i)
		require.LessOrEqual(t, m.Stats().MaxEntries, 1)
	}
	checkInvariants(t, m)

	// invalid values keep the default
	d := NewOrderedMapOf[string, int](WithMaxBucketSize(0), WithMaxGrowths(-1), WithPresize(-5))
	s := d.Stats()
	assert.Equal(t, defaultMaxBucketSize, s.MaxBucketSize)
	assert.Equal(t, 8, s.Buckets)
}
