package omap

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIterator is the panic value (wrapped) raised when an
	// iterator is used after its entry was erased, belongs to another map,
	// or is the end marker where an entry is required.
	ErrInvalidIterator = errors.New("omap: invalid iterator")

	// ErrRehashNotConverged is wrapped by RehashError.
	ErrRehashNotConverged = errors.New("omap: rehash did not converge")
)

// RehashError is the panic value raised when growing the bucket index can
// not bring every chain back under the configured bound, which happens when
// more than MaxBucketSize keys share one hash value. The insertion that
// triggered the rehash has been rolled back when this is raised.
type RehashError struct {
	BucketCount   int
	Size          int
	MaxBucketSize int
	Growths       int
	// Collisions is the number of entries sharing the longest chain's hash,
	// zero when the growth limit was hit instead.
	Collisions int
}

func (e *RehashError) Error() string {
	if e.Collisions > 0 {
		return fmt.Sprintf(
			"%v: %d keys share one hash, max bucket size is %d (size=%d buckets=%d)",
			ErrRehashNotConverged, e.Collisions, e.MaxBucketSize, e.Size, e.BucketCount)
	}
	return fmt.Sprintf(
		"%v: gave up after %d growths (size=%d buckets=%d max bucket size=%d)",
		ErrRehashNotConverged, e.Growths, e.Size, e.BucketCount, e.MaxBucketSize)
}

func (e *RehashError) Unwrap() error {
	return ErrRehashNotConverged
}

func invalidIterator(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidIterator, reason)
}
