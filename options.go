package omap

import "unsafe"

const (
	// minBucketCount is the floor for the bucket index size. An empty map
	// still has this many chains.
	minBucketCount = 8
	// defaultMaxBucketSize bounds the length of every chain once an
	// insertion has completed.
	defaultMaxBucketSize = 10
	// defaultMaxGrowths caps the number of growth steps a single rehash may
	// take before it is declared non-convergent.
	defaultMaxGrowths = 32
	// loadFactorNum/loadFactorDen is the highest allowed entries per bucket.
	loadFactorNum = 9
	loadFactorDen = 10
	// growthFactor is applied to the bucket count on every growth step.
	growthFactor = 1.618
)

// MapConfig defines configurable OrderedMapOf options.
type MapConfig struct {
	// SizeHint presizes the bucket index; see WithPresize.
	SizeHint int
	// KeyHash overrides the built-in key hasher; see WithKeyHasher.
	KeyHash HashFunc
	// MaxBucketSize is the per-chain bound; see WithMaxBucketSize.
	MaxBucketSize int
	// MaxGrowths limits growth steps per rehash; see WithMaxGrowths.
	MaxGrowths int
}

// WithPresize configures the initial bucket count to hold sizeHint entries
// without rehashing, using the 4/3 headroom of the initializer-list
// constructor. If sizeHint is zero or negative, the value is ignored.
func WithPresize(sizeHint int) func(*MapConfig) {
	return func(c *MapConfig) {
		c.SizeHint = sizeHint
	}
}

// WithKeyHasher sets a custom key hashing function. A nil keyHash keeps the
// built-in hasher.
//
// The hash is reduced modulo the bucket count, so it must be well spread in
// its low-order digits. A function that maps more than the max bucket size
// distinct keys to one value makes insertion panic with a *RehashError.
func WithKeyHasher[K comparable](keyHash func(key K, seed uintptr) uintptr) func(*MapConfig) {
	return func(c *MapConfig) {
		if keyHash == nil {
			return
		}
		c.KeyHash = func(ptr unsafe.Pointer, seed uintptr) uintptr {
			return keyHash(*(*K)(ptr), seed)
		}
	}
}

// WithKeyHasherUnsafe sets a custom key hashing function that receives a
// pointer to the key. A nil keyHash keeps the built-in hasher.
func WithKeyHasherUnsafe(keyHash HashFunc) func(*MapConfig) {
	return func(c *MapConfig) {
		if keyHash != nil {
			c.KeyHash = keyHash
		}
	}
}

// WithMaxBucketSize sets the maximum number of entries a bucket chain may
// hold after an insertion completes (default 10). Values below 1 are
// ignored.
func WithMaxBucketSize(n int) func(*MapConfig) {
	return func(c *MapConfig) {
		if n > 0 {
			c.MaxBucketSize = n
		}
	}
}

// WithMaxGrowths sets how many times a single rehash may grow the bucket
// index before giving up with a *RehashError (default 32). Values below 1
// are ignored.
func WithMaxGrowths(n int) func(*MapConfig) {
	return func(c *MapConfig) {
		if n > 0 {
			c.MaxGrowths = n
		}
	}
}

// presizedBucketCount mirrors the initializer-list constructor's 4/3
// headroom, floored at minBucketCount.
func presizedBucketCount(sizeHint int) int {
	if sizeHint <= 0 {
		return minBucketCount
	}
	return max(minBucketCount, sizeHint*4/3)
}
