package cell

import (
	"iter"

	"github.com/pkg/errors"
)

// ArrayKind tags the container family of a constant array.
type ArrayKind uint8

const (
	// Plain is a plain (non-v, non-d) array.
	Plain ArrayKind = iota
	VArr
	DArr
	Vec
	Dict
	Keyset
)

func (k ArrayKind) String() string {
	switch k {
	case Plain:
		return "Arr"
	case VArr:
		return "VArr"
	case DArr:
		return "DArr"
	case Vec:
		return "Vec"
	case Dict:
		return "Dict"
	case Keyset:
		return "Keyset"
	}
	return "ArrayKind(?)"
}

// IsPHP reports whether the kind belongs to the plain-array family
// (plain, varray or darray) rather than vec/dict/keyset.
func (k ArrayKind) IsPHP() bool {
	return k == Plain || k == VArr || k == DArr
}

// KV is one (key, value) entry of a constant container.
type KV struct {
	Key Value
	Val Value
}

// Array is an immutable constant container with an ordered key space. All
// constant containers are static. Construct with NewArray; the zero value
// is not valid.
type Array struct {
	kind  ArrayKind
	elems []KV
}

// NewArray builds a constant container, validating the family invariants:
// keys are int or static string with no duplicates, vec keys are the
// contiguous integers from zero, and keyset entries are their own keys.
// Values must themselves be constants (no Uninit, Ref, Obj or Res).
func NewArray(kind ArrayKind, elems []KV) (*Array, error) {
	seen := make(map[Value]struct{}, len(elems))
	for i, kv := range elems {
		switch kv.Key.(type) {
		case Int, Str:
		default:
			return nil, errors.Errorf("array key %d has kind %s, want Int or Str", i, kv.Key.Kind())
		}
		if _, dup := seen[kv.Key]; dup {
			return nil, errors.Errorf("duplicate array key at index %d", i)
		}
		seen[kv.Key] = struct{}{}
		switch kv.Val.Kind() {
		case KUninit, KRef, KObj, KRes:
			return nil, errors.Errorf("array value %d has non-constant kind %s", i, kv.Val.Kind())
		}
		if kind == Vec || kind == VArr {
			if k, ok := kv.Key.(Int); !ok || int64(k) != int64(i) {
				return nil, errors.Errorf("%s key at index %d is not the next packed key", kind, i)
			}
		}
		if kind == Keyset && !Same(kv.Key, kv.Val) {
			return nil, errors.Errorf("keyset entry %d differs from its key", i)
		}
	}
	out := &Array{kind: kind, elems: make([]KV, len(elems))}
	copy(out.elems, elems)
	return out, nil
}

// MustArray is NewArray for statically known-good literals.
func MustArray(kind ArrayKind, elems []KV) *Array {
	a, err := NewArray(kind, elems)
	if err != nil {
		panic(err)
	}
	return a
}

func (a *Array) Kind() Kind {
	switch a.kind {
	case Vec:
		return KVec
	case Dict:
		return KDict
	case Keyset:
		return KKeyset
	}
	return KArr
}

func (a *Array) ArrayKind() ArrayKind { return a.kind }
func (a *Array) Size() int            { return len(a.elems) }

// At looks up a value by key.
func (a *Array) At(key Value) (Value, bool) {
	for _, kv := range a.elems {
		if Same(kv.Key, key) {
			return kv.Val, true
		}
	}
	return nil, false
}

// AtInt and AtStr are key lookups for the two legal key kinds.
func (a *Array) AtInt(i int64) (Value, bool) { return a.At(Int(i)) }
func (a *Array) AtStr(s string) (Value, bool) { return a.At(Str(s)) }

// All iterates entries in insertion order.
func (a *Array) All() iter.Seq2[Value, Value] {
	return func(yield func(Value, Value) bool) {
		for _, kv := range a.elems {
			if !yield(kv.Key, kv.Val) {
				return
			}
		}
	}
}

// Same is deep structural equality including kind and entry order.
func (a *Array) Same(b *Array) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.kind != b.kind || len(a.elems) != len(b.elems) {
		return false
	}
	for i := range a.elems {
		if !Same(a.elems[i].Key, b.elems[i].Key) || !Same(a.elems[i].Val, b.elems[i].Val) {
			return false
		}
	}
	return true
}
