package omap

import (
	"math/bits"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// HashFunc hashes the key stored at ptr. seed is the per-map random seed.
type HashFunc func(ptr unsafe.Pointer, seed uintptr) uintptr

// XXHashString hashes string keys with xxHash64. It can be passed to
// WithKeyHasher for OrderedMapOf[string, V] when a hash that is stable
// across processes is wanted; the seed is ignored for that reason.
func XXHashString(key string, _ uintptr) uintptr {
	h := xxhash.Sum64String(key)
	if bits.UintSize == 32 {
		return uintptr(h) ^ uintptr(h>>32)
	}
	return uintptr(h)
}

// defaultHasher picks the identity hash for integer keys, which spreads
// sequential integers perfectly under modulo bucket selection, and Go's
// built-in map hasher for everything else.
func defaultHasher[K comparable]() HashFunc {
	switch any(*new(K)).(type) {
	case uint, int, uintptr:
		return func(value unsafe.Pointer, _ uintptr) uintptr {
			return *(*uintptr)(value)
		}
	case uint64, int64:
		if bits.UintSize == 32 {
			return func(value unsafe.Pointer, _ uintptr) uintptr {
				v := *(*uint64)(value)
				return uintptr(v) ^ uintptr(v>>32)
			}
		}
		return func(value unsafe.Pointer, _ uintptr) uintptr {
			return uintptr(*(*uint64)(value))
		}
	case uint32, int32:
		return func(value unsafe.Pointer, _ uintptr) uintptr {
			return uintptr(*(*uint32)(value))
		}
	case uint16, int16:
		return func(value unsafe.Pointer, _ uintptr) uintptr {
			return uintptr(*(*uint16)(value))
		}
	case uint8, int8:
		return func(value unsafe.Pointer, _ uintptr) uintptr {
			return uintptr(*(*uint8)(value))
		}
	default:
		return builtInHasher[K]()
	}
}

// builtInHasher obtains the runtime's hash function for K from the type
// descriptor of map[K]struct{}.
//
// Notes:
//   - This relies on Go's internal type representation
//   - It should be verified for compatibility with each Go version upgrade
func builtInHasher[K comparable]() HashFunc {
	var m map[K]struct{}
	return iTypeOf(m).MapType().Hasher
}

type iTFlag uint8
type iKind uint8
type iNameOff int32

// TypeOff is the offset to a type from moduledata.types.  See resolveTypeOff in runtime.
type iTypeOff int32

// iType mirrors internal/abi.Type. The layout must match the running Go
// version for builtInHasher to find the map hasher.
type iType struct {
	Size_       uintptr
	PtrBytes    uintptr // number of (prefix) bytes in the type that can contain pointers
	Hash        uint32  // hash of type; avoids computation in hash tables
	TFlag       iTFlag  // extra type information flags
	Align_      uint8   // alignment of variable with this type
	FieldAlign_ uint8   // alignment of struct field with this type
	Kind_       iKind   // enumeration for C
	// function for comparing objects of this type
	// (ptr to object A, ptr to object B) -> ==?
	Equal func(unsafe.Pointer, unsafe.Pointer) bool
	// GCData stores the GC type data for the garbage collector.
	// Normally, GCData points to a bitmask that describes the
	// ptr/nonptr fields of the type. The bitmask will have at
	// least PtrBytes/ptrSize bits.
	// If the TFlagGCMaskOnDemand bit is set, GCData is instead a
	// **byte and the pointer to the bitmask is one dereference away.
	GCData    *byte
	Str       iNameOff // string form
	PtrToThis iTypeOff // type for pointer to this type, may be zero
}

func (t *iType) MapType() *iMapType {
	return (*iMapType)(unsafe.Pointer(t))
}

// iMapType mirrors internal/abi.SwissMapType (Go 1.24+). Group only exists
// in the swiss table layout; older layouts put Hasher at another offset.
type iMapType struct {
	iType
	Key   *iType
	Elem  *iType
	Group *iType // internal type representing a slot group
	// function for hashing keys (ptr to key, seed) -> hash
	Hasher func(unsafe.Pointer, uintptr) uintptr
}

type iEmptyInterface struct {
	Type *iType
	Data unsafe.Pointer
}

func iTypeOf(a any) *iType {
	eface := *(*iEmptyInterface)(unsafe.Pointer(&a))
	// Types are either static (for compiler-created types) or
	// heap-allocated but always reachable (for reflection-created
	// types, held in the central map). So there is no need to
	// escape types. noescape here help avoid unnecessary escape
	// of v.
	return (*iType)(noescape(unsafe.Pointer(eface.Type)))
}

// noescape hides a pointer from escape analysis.
//
//go:nosplit
func noescape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}
