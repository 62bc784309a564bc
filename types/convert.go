package types

import (
	"strings"

	"github.com/ActindoForks/hhvm/cell"
)

func cellToBool(v cell.Value) bool { return cell.ToBool(v) }

//////////////////////////////////////////////////////////////////////
// Literal extraction.

// tvArrayKind picks the constant container family a pattern denotes, if
// the pattern pins one down.
func tvArrayKind(bits Bits) (cell.ArrayKind, bool) {
	switch {
	case bits&BVecN == bits:
		return cell.Vec, true
	case bits&BDictN == bits:
		return cell.Dict, true
	case bits&BKeysetN == bits:
		return cell.Keyset, true
	case bits&BPArrN == bits:
		return cell.Plain, true
	case bits&BVArrN == bits:
		return cell.VArr, true
	case bits&BDArrN == bits:
		return cell.DArr, true
	}
	return cell.Plain, false
}

func packedToValue(kind cell.ArrayKind, elems []Type) (cell.Value, bool) {
	kvs := make([]cell.KV, 0, len(elems))
	for i, e := range elems {
		v, ok := TV(e)
		if !ok {
			return nil, false
		}
		if kind == cell.Keyset {
			kvs = append(kvs, cell.KV{Key: v, Val: v})
		} else {
			kvs = append(kvs, cell.KV{Key: cell.Int(int64(i)), Val: v})
		}
	}
	ar, err := cell.NewArray(kind, kvs)
	if err != nil {
		return nil, false
	}
	return ar, true
}

func mapToValue(kind cell.ArrayKind, m MapElems) (cell.Value, bool) {
	kvs := make([]cell.KV, 0, len(m))
	for i := range m {
		v, ok := TV(m[i].Val)
		if !ok {
			return nil, false
		}
		kvs = append(kvs, cell.KV{Key: m[i].Key, Val: v})
	}
	ar, err := cell.NewArray(kind, kvs)
	if err != nil {
		return nil, false
	}
	return ar, true
}

func packedScalar(elems []Type) bool {
	for _, e := range elems {
		if !IsScalar(e) {
			return false
		}
	}
	return true
}

func mapScalar(m MapElems) bool {
	for i := range m {
		if !IsScalar(m[i].Val) {
			return false
		}
	}
	return true
}

// TV extracts the single concrete value of a fully determined type.
func TV(t Type) (cell.Value, bool) {
	switch t.bits {
	case BUninit:
		return cell.Uninit{}, true
	case BInitNull:
		return cell.Null{}, true
	case BTrue:
		return cell.Bool(true), true
	case BFalse:
		return cell.Bool(false), true
	case BPArrE, BSPArrE:
		return cell.MustArray(cell.Plain, nil), true
	case BVArrE, BSVArrE:
		return cell.MustArray(cell.VArr, nil), true
	case BDArrE, BSDArrE:
		return cell.MustArray(cell.DArr, nil), true
	case BVecE, BSVecE:
		return cell.MustArray(cell.Vec, nil), true
	case BDictE, BSDictE:
		return cell.MustArray(cell.Dict, nil), true
	case BKeysetE, BSKeysetE:
		return cell.MustArray(cell.Keyset, nil), true
	}

	if IsOpt(t) {
		return nil, false
	}

	switch d := t.data.(type) {
	case ivalData:
		return cell.Int(d.v), true
	case dvalData:
		return cell.Dbl(d.v), true
	case svalData:
		return cell.Str(d.v), true
	case avalData:
		if t.bits&BArrN == t.bits || t.bits&BVecN == t.bits ||
			t.bits&BDictN == t.bits || t.bits&BKeysetN == t.bits {
			return d.v, true
		}
	case *mapData:
		switch {
		case t.bits&BDictN == t.bits:
			return mapToValue(cell.Dict, d.elems)
		case t.bits&BKeysetN == t.bits:
			return mapToValue(cell.Keyset, d.elems)
		case t.bits&BPArrN == t.bits:
			return mapToValue(cell.Plain, d.elems)
		case t.bits&BDArrN == t.bits:
			return mapToValue(cell.DArr, d.elems)
		}
	case *packedData:
		if kind, ok := tvArrayKind(t.bits); ok {
			return packedToValue(kind, d.elems)
		}
	}
	return nil, false
}

// IsScalar reports whether t denotes exactly one value.
func IsScalar(t Type) bool {
	switch t.bits {
	case BUninit, BInitNull, BTrue, BFalse,
		BPArrE, BSPArrE, BVArrE, BSVArrE, BDArrE, BSDArrE,
		BVecE, BSVecE, BDictE, BSDictE, BKeysetE, BSKeysetE:
		return true
	}
	if IsOpt(t) {
		return false
	}
	switch d := t.data.(type) {
	case ivalData, dvalData, svalData:
		return true
	case avalData:
		return t.bits&BArrN == t.bits || t.bits&BVecN == t.bits ||
			t.bits&BDictN == t.bits || t.bits&BKeysetN == t.bits
	case *mapData:
		switch {
		case t.bits&BDictN == t.bits, t.bits&BKeysetN == t.bits,
			t.bits&BPArrN == t.bits, t.bits&BDArrN == t.bits:
			return mapScalar(d.elems)
		}
		return false
	case *packedData:
		if _, ok := tvArrayKind(t.bits); ok {
			return packedScalar(d.elems)
		}
		return false
	}
	return false
}

// Scalarize canonicalizes a fully determined type so immaterial
// representation differences (countedness, map vs container payload) do
// not distinguish equal scalars. Pre: IsScalar(t)
func Scalarize(t Type) Type {
	assertx(IsScalar(t), "Scalarize on non-scalar %s", t)
	switch t.data.(type) {
	case ivalData, dvalData, svalData:
		return t
	case avalData:
		t.bits &= BSArrN | BSVecN | BSDictN | BSKeysetN
		return t
	case *mapData, *packedData, nil:
		v, ok := TV(t)
		assertx(ok, "scalar type with no extractable value: %s", t)
		return FromCell(v)
	}
	assertx(false, "Scalarize on unexpected payload")
	return t
}

//////////////////////////////////////////////////////////////////////
// Conversions.

// FromCell is the exact type of a concrete constant value.
func FromCell(v cell.Value) Type {
	switch v := v.(type) {
	case cell.Uninit:
		return TUninit
	case cell.Null:
		return TInitNull
	case cell.Bool:
		if v {
			return TTrue
		}
		return TFalse
	case cell.Int:
		return IVal(int64(v))
	case cell.Dbl:
		return DVal(float64(v))
	case cell.Str:
		return SVal(string(v))
	case *cell.Array:
		switch v.ArrayKind() {
		case cell.Vec:
			return VecVal(v)
		case cell.Dict:
			return DictVal(v)
		case cell.Keyset:
			return KeysetVal(v)
		default:
			return AVal(v)
		}
	}
	assertx(false, "reference counted or class value in FromCell")
	return TBottom
}

// FromDataType is the type of any value with the given runtime kind.
func FromDataType(k cell.Kind) Type {
	switch k {
	case cell.KUninit:
		return TUninit
	case cell.KNull:
		return TInitNull
	case cell.KBool:
		return TBool
	case cell.KInt:
		return TInt
	case cell.KDbl:
		return TDbl
	case cell.KStr:
		return TStr
	case cell.KVec:
		return TVec
	case cell.KDict:
		return TDict
	case cell.KKeyset:
		return TKeyset
	case cell.KArr:
		return TArr
	case cell.KRef:
		return TRef
	case cell.KObj:
		return TObj
	case cell.KRes:
		return TRes
	}
	assertx(false, "FromDataType on unknown kind")
	return TBottom
}

// FromHNIConstraint translates a native-interface type-constraint name.
// The empty string means unconstrained. Unknown names (possibly class
// names or aliases) conservatively yield TGen.
func FromHNIConstraint(s string) Type {
	if s == "" {
		return TGen
	}
	ret := TBottom
	if strings.HasPrefix(s, "?") {
		ret = Union(ret, TInitNull)
		s = s[1:]
	}
	eq := func(name string) bool { return strings.EqualFold(s, name) }
	switch {
	case eq(`HH\resource`):
		return Union(ret, TRes)
	case eq(`HH\bool`):
		return Union(ret, TBool)
	case eq(`HH\int`):
		return Union(ret, TInt)
	case eq(`HH\float`):
		return Union(ret, TDbl)
	case eq(`HH\num`):
		return Union(ret, TNum)
	case eq(`HH\string`):
		return Union(ret, TStr)
	case eq(`HH\dict`):
		return Union(ret, TDict)
	case eq(`HH\vec`):
		return Union(ret, TVec)
	case eq(`HH\keyset`):
		return Union(ret, TKeyset)
	case eq(`HH\varray`), eq(`HH\darray`), eq(`HH\varray_or_darray`), eq("array"):
		return Union(ret, TArr)
	case eq(`HH\arraykey`):
		return Union(ret, TArrKey)
	case eq(`HH\mixed`):
		return TInitGen
	}
	return TGen
}

// IsTypeOp is the bytecode-level type predicate vocabulary.
type IsTypeOp uint8

const (
	IsTypeUninit IsTypeOp = iota
	IsTypeNull
	IsTypeBool
	IsTypeInt
	IsTypeDbl
	IsTypeStr
	IsTypeArr
	IsTypeVec
	IsTypeDict
	IsTypeKeyset
	IsTypeObj
	IsTypeVArray
	IsTypeDArray
	IsTypeScalar
)

// TypeOfIsType is the lattice point an is-type check tests against.
// Pre: op != IsTypeScalar
func TypeOfIsType(op IsTypeOp) Type {
	switch op {
	case IsTypeUninit:
		return TUninit
	case IsTypeNull:
		return TNull
	case IsTypeBool:
		return TBool
	case IsTypeInt:
		return TInt
	case IsTypeDbl:
		return TDbl
	case IsTypeStr:
		return TStr
	case IsTypeArr:
		return TArr
	case IsTypeVec:
		return TVec
	case IsTypeDict:
		return TDict
	case IsTypeKeyset:
		return TKeyset
	case IsTypeObj:
		return TObj
	case IsTypeVArray:
		return TVArr
	case IsTypeDArray:
		return TDArr
	}
	assertx(false, "TypeOfIsType on scalar op")
	return TBottom
}

//////////////////////////////////////////////////////////////////////
// Array introspection.

// ArrSize is the known element count of a fixed-shape array type.
func ArrSize(t Type) (int64, bool) {
	switch d := t.data.(type) {
	case avalData:
		return int64(d.v.Size()), true
	case *mapData:
		return int64(len(d.elems)), true
	case *packedData:
		return int64(len(d.elems)), true
	}
	return 0, false
}

// ArrayCatKind is the coarse key-shape of an array's contents.
type ArrayCatKind uint8

const (
	ArrayCatNone ArrayCatKind = iota
	ArrayCatEmpty
	ArrayCatPacked
	ArrayCatStruct
	ArrayCatMixed
)

// ArrayCat is the categorization of a specialized array: the key shape and
// whether the whole array value is statically known.
type ArrayCat struct {
	Cat      ArrayCatKind
	HasValue bool
}

// CategorizeArray reports the key shape of t's specialization.
func CategorizeArray(t Type) ArrayCat {
	hasInts := false
	hasStrs := false
	isPacked := true
	// A constant array needs a definitely known plain-array variant.
	val := t.SubtypeOfAny(TPArr, TVArr, TDArr)
	idx := int64(0)
	checkKey := func(k cell.Value) bool {
		if _, isStr := k.(cell.Str); isStr {
			hasStrs = true
			isPacked = false
			return hasInts
		}
		hasInts = true
		if ki, ok := k.(cell.Int); !ok || int64(ki) != idx {
			isPacked = false
		}
		idx++
		return hasStrs && !isPacked
	}

	switch d := t.data.(type) {
	case avalData:
		for k := range d.v.All() {
			if checkKey(k) {
				break
			}
		}
	case *mapData:
		for i := range d.elems {
			if checkKey(d.elems[i].Key) && !val {
				break
			}
			if val {
				_, known := TV(d.elems[i].Val)
				val = known
			}
		}
	case *packedData:
		for _, e := range d.elems {
			hasInts = true
			if val {
				_, known := TV(e)
				val = known
			}
			if !val {
				break
			}
		}
	default:
		return ArrayCat{}
	}

	cat := ArrayCatEmpty
	switch {
	case hasInts && isPacked:
		cat = ArrayCatPacked
	case hasInts:
		cat = ArrayCatMixed
	case hasStrs:
		cat = ArrayCatStruct
	}
	return ArrayCat{Cat: cat, HasValue: val}
}

// GetStringKeys lists the string keys of a struct-like array type.
// Pre: every key is a string (eg CategorizeArray said Struct).
func GetStringKeys(t Type) []string {
	var strs []string
	switch d := t.data.(type) {
	case avalData:
		for k := range d.v.All() {
			ks, ok := k.(cell.Str)
			assertx(ok, "GetStringKeys hit a non-string key")
			strs = append(strs, string(ks))
		}
	case *mapData:
		for i := range d.elems {
			ks, ok := d.elems[i].Key.(cell.Str)
			assertx(ok, "GetStringKeys hit a non-string key")
			strs = append(strs, string(ks))
		}
	default:
		assertx(false, "GetStringKeys on non-struct array type")
	}
	return strs
}
