package omap

import (
	"fmt"
	"math"
	"strings"
)

// Stats returns statistics for the OrderedMapOf. Just like other map
// methods, this one is thread-safe. Yet it's an O(N) operation,
// so it should be used only for diagnostics or debugging purposes.
func (m *OrderedMapOf[K, V]) Stats() *MapStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := m.st
	if st == nil {
		return &MapStats{Buckets: minBucketCount, EmptyBuckets: minBucketCount, MaxBucketSize: defaultMaxBucketSize}
	}
	stats := &MapStats{
		Buckets:       st.index.count(),
		Size:          st.store.size,
		MaxBucketSize: st.maxBucketSize,
		ArenaSlots:    int(st.store.used),
		TotalGrowths:  st.growths,
		MinEntries:    math.MaxInt,
	}
	for _, chain := range st.index.chains {
		n := len(chain)
		stats.References += n
		if n == 0 {
			stats.EmptyBuckets++
		}
		stats.MinEntries = min(stats.MinEntries, n)
		stats.MaxEntries = max(stats.MaxEntries, n)
	}
	stats.FreeSlots = stats.ArenaSlots - stats.Size
	stats.LoadFactor = float64(stats.Size) / float64(stats.Buckets)
	return stats
}

// MapStats is OrderedMapOf statistics.
//
// Warning: map statistics are intended to be used for diagnostic
// purposes, not for production code. This means that breaking changes
// may be introduced into this struct even between minor releases.
type MapStats struct {
	// Buckets is the number of chains in the bucket index.
	Buckets int
	// EmptyBuckets is the number of chains holding no entries.
	EmptyBuckets int
	// Size is the number of entries in the record store.
	Size int
	// References is the total number of slot references across all
	// chains. It equals Size unless the map is corrupted.
	References int
	// MinEntries is the length of the shortest chain.
	MinEntries int
	// MaxEntries is the length of the longest chain.
	MaxEntries int
	// MaxBucketSize is the configured chain bound.
	MaxBucketSize int
	// LoadFactor is Size divided by Buckets.
	LoadFactor float64
	// ArenaSlots is the number of record slots ever handed out.
	ArenaSlots int
	// FreeSlots is the number of released slots awaiting reuse.
	FreeSlots int
	// TotalGrowths is the number of completed rehashes.
	TotalGrowths uint32
}

// ToString returns string representation of map stats.
func (s *MapStats) ToString() string {
	var sb strings.Builder
	sb.WriteString("MapStats{\n")
	sb.WriteString(fmt.Sprintf("Buckets:       %d\n", s.Buckets))
	sb.WriteString(fmt.Sprintf("EmptyBuckets:  %d\n", s.EmptyBuckets))
	sb.WriteString(fmt.Sprintf("Size:          %d\n", s.Size))
	sb.WriteString(fmt.Sprintf("References:    %d\n", s.References))
	sb.WriteString(fmt.Sprintf("MinEntries:    %d\n", s.MinEntries))
	sb.WriteString(fmt.Sprintf("MaxEntries:    %d\n", s.MaxEntries))
	sb.WriteString(fmt.Sprintf("MaxBucketSize: %d\n", s.MaxBucketSize))
	sb.WriteString(fmt.Sprintf("LoadFactor:    %.3f\n", s.LoadFactor))
	sb.WriteString(fmt.Sprintf("ArenaSlots:    %d\n", s.ArenaSlots))
	sb.WriteString(fmt.Sprintf("FreeSlots:     %d\n", s.FreeSlots))
	sb.WriteString(fmt.Sprintf("TotalGrowths:  %d\n", s.TotalGrowths))
	sb.WriteString("}\n")
	return sb.String()
}
