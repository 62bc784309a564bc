// Package types implements the abstract value lattice a whole-program
// bytecode optimizer interprets function bodies over. A Type is a pair of a
// coarse bit pattern (see Bits) and an optional specialized payload
// refining it: a literal, a constant container, a class or object
// constraint, a reference inner type, or one of four array shapes.
//
// Types are value-typed: copy freely, compare with Equals, never mutate a
// payload reached through a shared Type. All operators construct new
// values.
package types

import (
	"fmt"
	"log/slog"

	"github.com/ActindoForks/hhvm/cell"
	"github.com/ActindoForks/hhvm/index"
	ilog "github.com/ActindoForks/hhvm/internal/log"
)

var logger = ilog.DefaultLogger.With("section", "types")

// assertx halts on broken lattice invariants. These are programmer errors,
// never recoverable conditions.
func assertx(cond bool, msg string, args ...any) {
	if cond {
		return
	}
	rendered := fmt.Sprintf(msg, args...)
	logger.Error("lattice invariant violated", slog.String("detail", rendered))
	panic("types: " + rendered)
}

// kTypeWidenMaxDepth bounds payload nesting after widening; no specialized
// information survives deeper than this.
const kTypeWidenMaxDepth = 8

// HackArrCompatNotices mirrors the runtime option of the same name: when
// set, array key coercions that would raise a compatibility notice are
// flagged as possibly throwing.
var HackArrCompatNotices = false

//////////////////////////////////////////////////////////////////////

// TagKind says whether a class or object constraint is exact or admits
// subclasses.
type TagKind uint8

const (
	Exact TagKind = iota
	Sub
)

// DCls is the payload of a specialized class type.
type DCls struct {
	Tag TagKind
	Cls index.Class
}

// DObj is the payload of a specialized object type. WH, when present, is
// the type produced by awaiting the object; it only occurs on the
// designated awaitable class.
type DObj struct {
	Tag TagKind
	Cls index.Class
	WH  *Type
}

//////////////////////////////////////////////////////////////////////

// data is the payload sum. Scalar payloads are stored by value; composite
// payloads by pointer and shared structurally, so writers must clone first
// (each composite has a copy method).
type data interface {
	isData()
}

type ivalData struct{ v int64 }
type dvalData struct{ v float64 }
type svalData struct{ v string }
type avalData struct{ v *cell.Array }

type objData struct {
	tag TagKind
	cls index.Class
	wh  *Type
}

type clsData struct {
	tag TagKind
	cls index.Class
}

type refData struct{ inner Type }

type packedData struct{ elems []Type }
type packedNData struct{ elem Type }
type mapData struct{ elems MapElems }
type mapNData struct{ key, val Type }

func (ivalData) isData()     {}
func (dvalData) isData()     {}
func (svalData) isData()     {}
func (avalData) isData()     {}
func (*objData) isData()     {}
func (*clsData) isData()     {}
func (*refData) isData()     {}
func (*packedData) isData()  {}
func (*packedNData) isData() {}
func (*mapData) isData()     {}
func (*mapNData) isData()    {}

func (d *objData) copy() *objData {
	c := *d
	return &c
}
func (d *refData) copy() *refData {
	c := *d
	return &c
}
func (d *packedData) copy() *packedData {
	elems := make([]Type, len(d.elems))
	copy(elems, d.elems)
	return &packedData{elems: elems}
}
func (d *packedNData) copy() *packedNData {
	c := *d
	return &c
}
func (d *mapData) copy() *mapData {
	return &mapData{elems: d.elems.copy()}
}
func (d *mapNData) copy() *mapNData {
	c := *d
	return &c
}

//////////////////////////////////////////////////////////////////////

// MapElem is one fixed entry of a map-shaped array payload. The key is a
// literal: a cell.Int or cell.Str.
type MapElem struct {
	Key cell.Value
	Val Type
}

// MapElems is an insertion-ordered key/value sequence with unique keys.
type MapElems []MapElem

func (m MapElems) find(key cell.Value) (int, bool) {
	for i := range m {
		if cell.Same(m[i].Key, key) {
			return i, true
		}
	}
	return 0, false
}

// add appends unless the key exists; reports the entry index and whether a
// new entry was created.
func (m *MapElems) add(key cell.Value, val Type) (int, bool) {
	if i, ok := m.find(key); ok {
		return i, false
	}
	*m = append(*m, MapElem{Key: key, Val: val})
	return len(*m) - 1, true
}

func (m MapElems) copy() MapElems {
	out := make(MapElems, len(m))
	copy(out, m)
	return out
}

// isPackedLike reports whether the keys are exactly 0,1,…,len-1, in which
// case the sequence must be represented packed instead.
func (m MapElems) isPackedLike() bool {
	for i := range m {
		k, ok := m[i].Key.(cell.Int)
		if !ok || int64(k) != int64(i) {
			return false
		}
	}
	return true
}

//////////////////////////////////////////////////////////////////////

// Type is a point in the lattice. The zero value is Bottom.
type Type struct {
	bits Bits
	data data
}

// NewType makes an unspecialized type from a predefined bit pattern.
func NewType(bits Bits) Type {
	t := Type{bits: bits}
	t.checkInvariants()
	return t
}

func (t Type) hasData() bool { return t.data != nil }

// Bits exposes the coarse pattern, mostly for diagnostics.
func (t Type) Bits() Bits { return t.bits }

//////////////////////////////////////////////////////////////////////
// Singletons, one per predefined pattern.

var (
	TBottom   = Type{bits: BBottom}
	TUninit   = Type{bits: BUninit}
	TInitNull = Type{bits: BInitNull}
	TFalse    = Type{bits: BFalse}
	TTrue     = Type{bits: BTrue}
	TInt      = Type{bits: BInt}
	TDbl      = Type{bits: BDbl}
	TSStr     = Type{bits: BSStr}
	TSArrE    = Type{bits: BSArrE}
	TSArrN    = Type{bits: BSArrN}
	TObj      = Type{bits: BObj}
	TRes      = Type{bits: BRes}
	TCls      = Type{bits: BCls}
	TRef      = Type{bits: BRef}
	TSVecE    = Type{bits: BSVecE}
	TSVecN    = Type{bits: BSVecN}
	TSDictE   = Type{bits: BSDictE}
	TSDictN   = Type{bits: BSDictN}
	TSKeysetE = Type{bits: BSKeysetE}
	TSKeysetN = Type{bits: BSKeysetN}

	TNull    = Type{bits: BNull}
	TBool    = Type{bits: BBool}
	TNum     = Type{bits: BNum}
	TStr     = Type{bits: BStr}
	TSArr    = Type{bits: BSArr}
	TArrE    = Type{bits: BArrE}
	TArrN    = Type{bits: BArrN}
	TArr     = Type{bits: BArr}
	TSVec    = Type{bits: BSVec}
	TVecE    = Type{bits: BVecE}
	TVecN    = Type{bits: BVecN}
	TVec     = Type{bits: BVec}
	TSDict   = Type{bits: BSDict}
	TDictE   = Type{bits: BDictE}
	TDictN   = Type{bits: BDictN}
	TDict    = Type{bits: BDict}
	TSKeyset = Type{bits: BSKeyset}
	TKeysetE = Type{bits: BKeysetE}
	TKeysetN = Type{bits: BKeysetN}
	TKeyset  = Type{bits: BKeyset}

	TSPArrE = Type{bits: BSPArrE}
	TSPArrN = Type{bits: BSPArrN}
	TSPArr  = Type{bits: BSPArr}
	TPArrE  = Type{bits: BPArrE}
	TPArrN  = Type{bits: BPArrN}
	TPArr   = Type{bits: BPArr}

	TSVArrE = Type{bits: BSVArrE}
	TSVArrN = Type{bits: BSVArrN}
	TSVArr  = Type{bits: BSVArr}
	TVArrE  = Type{bits: BVArrE}
	TVArrN  = Type{bits: BVArrN}
	TVArr   = Type{bits: BVArr}

	TSDArrE = Type{bits: BSDArrE}
	TSDArrN = Type{bits: BSDArrN}
	TSDArr  = Type{bits: BSDArr}
	TDArrE  = Type{bits: BDArrE}
	TDArrN  = Type{bits: BDArrN}
	TDArr   = Type{bits: BDArr}

	TUncArrKey = Type{bits: BUncArrKey}
	TArrKey    = Type{bits: BArrKey}
	TInitPrim  = Type{bits: BInitPrim}
	TPrim      = Type{bits: BPrim}
	TInitUnc   = Type{bits: BInitUnc}
	TUnc       = Type{bits: BUnc}

	TOptTrue     = Type{bits: BOptTrue}
	TOptFalse    = Type{bits: BOptFalse}
	TOptBool     = Type{bits: BOptBool}
	TOptInt      = Type{bits: BOptInt}
	TOptDbl      = Type{bits: BOptDbl}
	TOptNum      = Type{bits: BOptNum}
	TOptSStr     = Type{bits: BOptSStr}
	TOptStr      = Type{bits: BOptStr}
	TOptSArrE    = Type{bits: BOptSArrE}
	TOptSArrN    = Type{bits: BOptSArrN}
	TOptSArr     = Type{bits: BOptSArr}
	TOptArrE     = Type{bits: BOptArrE}
	TOptArrN     = Type{bits: BOptArrN}
	TOptArr      = Type{bits: BOptArr}
	TOptObj      = Type{bits: BOptObj}
	TOptRes      = Type{bits: BOptRes}
	TOptSVecE    = Type{bits: BOptSVecE}
	TOptSVecN    = Type{bits: BOptSVecN}
	TOptSVec     = Type{bits: BOptSVec}
	TOptVecE     = Type{bits: BOptVecE}
	TOptVecN     = Type{bits: BOptVecN}
	TOptVec      = Type{bits: BOptVec}
	TOptSDictE   = Type{bits: BOptSDictE}
	TOptSDictN   = Type{bits: BOptSDictN}
	TOptSDict    = Type{bits: BOptSDict}
	TOptDictE    = Type{bits: BOptDictE}
	TOptDictN    = Type{bits: BOptDictN}
	TOptDict     = Type{bits: BOptDict}
	TOptSKeysetE = Type{bits: BOptSKeysetE}
	TOptSKeysetN = Type{bits: BOptSKeysetN}
	TOptSKeyset  = Type{bits: BOptSKeyset}
	TOptKeysetE  = Type{bits: BOptKeysetE}
	TOptKeysetN  = Type{bits: BOptKeysetN}
	TOptKeyset   = Type{bits: BOptKeyset}

	TOptSPArrE = Type{bits: BOptSPArrE}
	TOptSPArrN = Type{bits: BOptSPArrN}
	TOptSPArr  = Type{bits: BOptSPArr}
	TOptPArrE  = Type{bits: BOptPArrE}
	TOptPArrN  = Type{bits: BOptPArrN}
	TOptPArr   = Type{bits: BOptPArr}

	TOptSVArrE = Type{bits: BOptSVArrE}
	TOptSVArrN = Type{bits: BOptSVArrN}
	TOptSVArr  = Type{bits: BOptSVArr}
	TOptVArrE  = Type{bits: BOptVArrE}
	TOptVArrN  = Type{bits: BOptVArrN}
	TOptVArr   = Type{bits: BOptVArr}

	TOptSDArrE = Type{bits: BOptSDArrE}
	TOptSDArrN = Type{bits: BOptSDArrN}
	TOptSDArr  = Type{bits: BOptSDArr}
	TOptDArrE  = Type{bits: BOptDArrE}
	TOptDArrN  = Type{bits: BOptDArrN}
	TOptDArr   = Type{bits: BOptDArr}

	TOptUncArrKey = Type{bits: BOptUncArrKey}
	TOptArrKey    = Type{bits: BOptArrKey}

	TInitCell = Type{bits: BInitCell}
	TCell     = Type{bits: BCell}
	TInitGen  = Type{bits: BInitGen}
	TGen      = Type{bits: BGen}
	TTop      = Type{bits: BTop}
)

//////////////////////////////////////////////////////////////////////
// Literal and specialized constructors.

// IVal is the type of one known integer.
func IVal(v int64) Type {
	return Type{bits: BInt, data: ivalData{v: v}}
}

// DVal is the type of one known double. NaN payloads compare equal to
// themselves; positive and negative zero are distinct.
func DVal(v float64) Type {
	return Type{bits: BDbl, data: dvalData{v: v}}
}

// SVal is the type of one known static string.
func SVal(v string) Type {
	return Type{bits: BSStr, data: svalData{v: v}}
}

// SEmpty is the known empty string.
func SEmpty() Type { return SVal("") }

// AVal is the type of one known constant plain-family array.
func AVal(v *cell.Array) Type {
	assertx(v.ArrayKind().IsPHP(), "AVal wants a plain-family array, got %s", v.ArrayKind())
	if v.Size() == 0 {
		switch v.ArrayKind() {
		case cell.DArr:
			return AEmptyDArr()
		case cell.VArr:
			return AEmptyVArr()
		default:
			return AEmpty()
		}
	}
	bits := BSPArrN
	switch v.ArrayKind() {
	case cell.DArr:
		bits = BSDArrN
	case cell.VArr:
		bits = BSVArrN
	}
	t := Type{bits: bits, data: avalData{v: v}}
	t.checkInvariants()
	return t
}

// VecVal, DictVal and KeysetVal are the constant-container constructors for
// the remaining families.
func VecVal(v *cell.Array) Type {
	assertx(v.ArrayKind() == cell.Vec, "VecVal wants a vec")
	if v.Size() == 0 {
		return VecEmpty()
	}
	t := Type{bits: BSVecN, data: avalData{v: v}}
	t.checkInvariants()
	return t
}

func DictVal(v *cell.Array) Type {
	assertx(v.ArrayKind() == cell.Dict, "DictVal wants a dict")
	if v.Size() == 0 {
		return DictEmpty()
	}
	t := Type{bits: BSDictN, data: avalData{v: v}}
	t.checkInvariants()
	return t
}

func KeysetVal(v *cell.Array) Type {
	assertx(v.ArrayKind() == cell.Keyset, "KeysetVal wants a keyset")
	if v.Size() == 0 {
		return KeysetEmpty()
	}
	t := Type{bits: BSKeysetN, data: avalData{v: v}}
	t.checkInvariants()
	return t
}

// Empty-array singleton constructors, static and any-countedness forms.
func AEmpty() Type          { return Type{bits: BSPArrE} }
func AEmptyVArr() Type      { return Type{bits: BSVArrE} }
func AEmptyDArr() Type      { return Type{bits: BSDArrE} }
func SomeAEmpty() Type      { return Type{bits: BPArrE} }
func SomeAEmptyDArr() Type  { return Type{bits: BDArrE} }
func VecEmpty() Type        { return Type{bits: BSVecE} }
func SomeVecEmpty() Type    { return Type{bits: BVecE} }
func DictEmpty() Type       { return Type{bits: BSDictE} }
func SomeDictEmpty() Type   { return Type{bits: BDictE} }
func KeysetEmpty() Type     { return Type{bits: BSKeysetE} }
func SomeKeysetEmpty() Type { return Type{bits: BKeysetE} }

// SubObj is an object of cls or any subclass; it degrades to an exact
// constraint when the index proves no override can exist.
func SubObj(cls index.Class) Type {
	tag := Exact
	if cls.CouldBeOverridden() {
		tag = Sub
	}
	return Type{bits: BObj, data: &objData{tag: tag, cls: cls}}
}

// ObjExact is an object of exactly cls.
func ObjExact(cls index.Class) Type {
	return Type{bits: BObj, data: &objData{tag: Exact, cls: cls}}
}

// SubCls and ClsExact are the class-value analogues.
func SubCls(cls index.Class) Type {
	tag := Exact
	if cls.CouldBeOverridden() {
		tag = Sub
	}
	return Type{bits: BCls, data: &clsData{tag: tag, cls: cls}}
}

func ClsExact(cls index.Class) Type {
	return Type{bits: BCls, data: &clsData{tag: Exact, cls: cls}}
}

// WaitHandle is the awaitable object type whose completion produces inner.
func WaitHandle(idx index.Index, inner Type) Type {
	cls := idx.WaitHandleClass()
	t := SubObj(cls)
	d := t.data.(*objData).copy()
	d.wh = &inner
	t.data = d
	return t
}

// IsSpecializedWaitHandle reports an object payload carrying an inner
// awaited type.
func IsSpecializedWaitHandle(t Type) bool {
	d, ok := t.data.(*objData)
	return ok && d.wh != nil
}

// WaitHandleInner returns T from an awaitable known to produce T.
// Pre: IsSpecializedWaitHandle(t)
func WaitHandleInner(t Type) Type {
	d, ok := t.data.(*objData)
	assertx(ok && d.wh != nil, "WaitHandleInner on a non-awaitable type")
	return *d.wh
}

// RefTo is a reference whose referent is known to be t.
func RefTo(t Type) Type {
	assertx(t.SubtypeOf(TInitCell), "RefTo inner must be a cell, got %s", t)
	r := Type{bits: BRef, data: &refData{inner: t}}
	r.checkInvariants()
	return r
}

// IsRefWithInner reports a reference payload.
func IsRefWithInner(t Type) bool {
	_, ok := t.data.(*refData)
	return ok
}

//////////////////////////////////////////////////////////////////////
// Array-shape constructors.

func packedImpl(bits Bits, elems []Type) Type {
	assertx(len(elems) > 0, "packed payload must be non-empty")
	t := Type{bits: bits, data: &packedData{elems: elems}}
	t.checkInvariants()
	return t
}

func packedNImpl(bits Bits, elem Type) Type {
	t := Type{bits: bits, data: &packedNData{elem: elem}}
	t.checkInvariants()
	return t
}

func mapImpl(bits Bits, m MapElems) Type {
	assertx(len(m) > 0, "map payload must be non-empty")
	// A map never has packed keys; normalize to the packed shape instead.
	if m.isPackedLike() {
		elems := make([]Type, len(m))
		for i := range m {
			elems[i] = m[i].Val
		}
		return packedImpl(bits, elems)
	}
	t := Type{bits: bits, data: &mapData{elems: m}}
	t.checkInvariants()
	return t
}

func mapNImpl(bits Bits, k, v Type) Type {
	assertx(k.SubtypeOf(TArrKey), "mapN key domain must be ArrKey")
	// A constant key means every array in the set has exactly that one
	// key, which is the map shape's territory.
	if kv, ok := TV(k); ok {
		m := MapElems{}
		m.add(kv, v)
		return mapImpl(bits, m)
	}
	t := Type{bits: bits, data: &mapNData{key: k, val: v}}
	t.checkInvariants()
	return t
}

// ArrPacked and friends: fixed-size array shapes per family.
func ArrPacked(elems []Type) Type     { return packedImpl(BPArrN, elems) }
func ArrPackedVArr(elems []Type) Type { return packedImpl(BVArrN, elems) }
func SArrPacked(elems []Type) Type    { return packedImpl(BSPArrN, elems) }
func Vec(elems []Type) Type           { return packedImpl(BVecN, elems) }
func SVec(elems []Type) Type          { return packedImpl(BSVecN, elems) }

// ArrPackedN and friends: homogeneous non-empty array shapes.
func ArrPackedN(elem Type) Type  { return packedNImpl(BPArrN, elem) }
func SArrPackedN(elem Type) Type { return packedNImpl(BSPArrN, elem) }
func VecN(elem Type) Type        { return packedNImpl(BVecN, elem) }
func SVecN(elem Type) Type       { return packedNImpl(BSVecN, elem) }

// ArrMap and friends: fixed-key struct-like shapes.
func ArrMap(m MapElems) Type     { return mapImpl(BPArrN, m) }
func ArrMapDArr(m MapElems) Type { return mapImpl(BDArrN, m) }
func SArrMap(m MapElems) Type    { return mapImpl(BSPArrN, m) }
func DictMap(m MapElems) Type    { return mapImpl(BDictN, m) }
func KeysetMap(m MapElems) Type  { return mapImpl(BKeysetN, m) }

// ArrMapN and friends: homogeneous keyed shapes.
func ArrMapN(k, v Type) Type  { return mapNImpl(BPArrN, k, v) }
func SArrMapN(k, v Type) Type { return mapNImpl(BSPArrN, k, v) }
func DictN(k, v Type) Type    { return mapNImpl(BDictN, k, v) }
func SDictN(k, v Type) Type   { return mapNImpl(BSDictN, k, v) }

// KeysetN is the homogeneous keyset: the array is its own key set, so key
// and value coincide.
func KeysetN(kv Type) Type {
	assertx(kv.SubtypeOf(TArrKey), "keyset element must be an array key")
	return mapNImpl(BKeysetN, kv, kv)
}

func SKeysetN(kv Type) Type {
	assertx(kv.SubtypeOf(TUncArrKey), "static keyset element must be uncounted")
	return mapNImpl(BSKeysetN, kv, kv)
}

//////////////////////////////////////////////////////////////////////
// Optionality.

// Opt admits null. Pre: canBeOptional(t.bits).
func Opt(t Type) Type {
	assertx(canBeOptional(t.bits), "no optional form of %s", showBits(t.bits))
	t.bits |= BInitNull
	return t
}

// Unopt removes the admitted null. Pre: IsOpt(t).
func Unopt(t Type) Type {
	assertx(IsOpt(t), "Unopt on non-optional %s", t)
	t.bits &^= BInitNull
	return t
}

// IsOpt reports whether t is one of the nullable-admitting predefined
// forms (not InitNull itself, and not wider unions like InitUnc).
func IsOpt(t Type) bool {
	if t.bits == BInitNull {
		return false
	}
	if !t.CouldBe(TInitNull) {
		return false
	}
	nonNull := t.bits &^ BInitNull
	return isPredefined(nonNull) && canBeOptional(nonNull)
}

//////////////////////////////////////////////////////////////////////
// Specialization queries.

func IsSpecializedObj(t Type) bool {
	_, ok := t.data.(*objData)
	return ok
}

func IsSpecializedCls(t Type) bool {
	_, ok := t.data.(*clsData)
	return ok
}

func isSpecializedArrLike(t Type) bool {
	switch t.data.(type) {
	case avalData, *packedData, *packedNData, *mapData, *mapNData:
		return true
	}
	return false
}

func IsSpecializedArray(t Type) bool  { return t.SubtypeOf(TOptArr) && isSpecializedArrLike(t) }
func IsSpecializedVec(t Type) bool    { return t.SubtypeOf(TOptVec) && isSpecializedArrLike(t) }
func IsSpecializedDict(t Type) bool   { return t.SubtypeOf(TOptDict) && isSpecializedArrLike(t) }
func IsSpecializedKeyset(t Type) bool { return t.SubtypeOf(TOptKeyset) && isSpecializedArrLike(t) }

// DObjOf returns the object constraint. Pre: IsSpecializedObj(t)
func DObjOf(t Type) DObj {
	d, ok := t.data.(*objData)
	assertx(ok, "DObjOf on non-specialized object %s", t)
	return DObj{Tag: d.tag, Cls: d.cls, WH: d.wh}
}

// DClsOf returns the class constraint. Pre: IsSpecializedCls(t)
func DClsOf(t Type) DCls {
	d, ok := t.data.(*clsData)
	assertx(ok, "DClsOf on non-specialized class %s", t)
	return DCls{Tag: d.tag, Cls: d.cls}
}

// ObjCls is the best known class type for an object type.
// Pre: t.SubtypeOf(TObj)
func ObjCls(t Type) Type {
	if t.SubtypeOf(TObj) && IsSpecializedObj(t) {
		d := DObjOf(t)
		if d.Tag == Exact {
			return ClsExact(d.Cls)
		}
		return SubCls(d.Cls)
	}
	return TCls
}

//////////////////////////////////////////////////////////////////////
// Re-binning helpers.

// setBits moves a specialized type to a new bit pattern. A constant
// container whose plain-array variant no longer agrees with the new bits is
// reified into the equivalent packed or map shape first.
func setBits(t Type, bits Bits) Type {
	if av, ok := t.data.(avalData); ok {
		disagrees := (t.SubtypeOf(TOptPArr) && bits&BOptPArr != bits) ||
			(t.SubtypeOf(TOptVArr) && bits&BOptVArr != bits) ||
			(t.SubtypeOf(TOptDArr) && bits&BOptDArr != bits)
		if disagrees {
			if p, ok := toPacked(av.v); ok {
				return packedImpl(bits, p)
			}
			m, ok := toMap(av.v)
			assertx(ok, "constant container is neither packed nor map shaped")
			return mapImpl(bits, m)
		}
	}
	if md, ok := t.data.(*mapNData); ok && bits&BSArrLike == bits && !md.key.SubtypeOf(TUncArrKey) {
		// Static-only patterns admit only uncounted keys.
		nd := md.copy()
		nd.key = Intersect(nd.key, TUncArrKey)
		if bits&BOptKeyset == bits {
			nd.val = nd.key
		}
		t.data = nd
	}
	t.bits = bits
	t.checkInvariants()
	return t
}

//////////////////////////////////////////////////////////////////////
// Invariants.

func (t Type) checkInvariants() {
	assertx(isPredefined(t.bits), "bits %#x are not a predefined pattern", uint64(t.bits))
	assertx(!t.hasData() || mayHaveData(t.bits), "%s may not carry a payload", showBits(t.bits))

	check := func(c, s Bits, what string) {
		if t.bits&c != 0 {
			assertx(t.bits&s != 0, "counted %s bit without its static sibling", what)
		}
	}
	check(BCStr, BSStr, "string")
	check(BCPArrE, BSPArrE, "plain array")
	check(BCPArrN, BSPArrN, "plain array")
	check(BCVArrE, BSVArrE, "varray")
	check(BCVArrN, BSVArrN, "varray")
	check(BCDArrE, BSDArrE, "darray")
	check(BCDArrN, BSDArrN, "darray")
	check(BCVecE, BSVecE, "vec")
	check(BCVecN, BSVecN, "vec")
	check(BCDictE, BSDictE, "dict")
	check(BCDictN, BSDictN, "dict")
	check(BCKeysetE, BSKeysetE, "keyset")
	check(BCKeysetN, BSKeysetN, "keyset")

	keyType := TArrKey
	if t.bits&BSArrLike == t.bits {
		keyType = TUncArrKey
	}
	valType := TInitCell
	isPHPArray := t.bits&BOptArr == t.bits
	isKeyset := t.bits&BOptKeyset == t.bits
	isVector := t.bits&BOptVec == t.bits
	isVArray := t.bits&BOptVArr == t.bits
	if isPHPArray {
		valType = TInitGen
	} else if isKeyset {
		valType = TArrKey
	}

	switch d := t.data.(type) {
	case nil, ivalData, dvalData, svalData:
	case *clsData, *objData:
	case *refData:
		assertx(!d.inner.CouldBe(TRef), "reference inner type admits reference")
	case avalData:
		assertx(d.v.Size() > 0, "constant container payload must be non-empty")
		if isPHPArray {
			isDArray := t.bits&BOptDArr == t.bits
			isNotDV := t.bits&BOptPArr == t.bits
			assertx(isVArray || isDArray || isNotDV, "constant plain array with unknown variant")
			assertx(d.v.ArrayKind().IsPHP(), "plain-array bits with non-plain container")
			assertx(!isVArray || d.v.ArrayKind() == cell.VArr, "varray bits with non-varray container")
			assertx(!isDArray || d.v.ArrayKind() == cell.DArr, "darray bits with non-darray container")
			assertx(!isNotDV || d.v.ArrayKind() == cell.Plain, "plain bits with d/varray container")
		}
		assertx(!isVector || d.v.ArrayKind() == cell.Vec, "vec bits with non-vec container")
		assertx(!isKeyset || d.v.ArrayKind() == cell.Keyset, "keyset bits with non-keyset container")
		isDict := t.bits&BOptDict == t.bits
		assertx(!isDict || d.v.ArrayKind() == cell.Dict, "dict bits with non-dict container")
	case *packedData:
		assertx(len(d.elems) > 0, "packed payload must be non-empty")
		for i, v := range d.elems {
			assertx(v.SubtypeOf(valType) && !v.Equals(TBottom), "packed element %d out of domain", i)
			if isKeyset {
				assertx(v.Equals(IVal(int64(i))), "keyset packed element %d is not its key", i)
			}
		}
	case *packedNData:
		assertx(d.elem.SubtypeOf(valType), "packedN element out of domain")
		assertx(!d.elem.Equals(TBottom), "packedN element is bottom")
		if isKeyset {
			assertx(d.elem.Equals(TInt), "keyset packedN element must be Int")
		}
	case *mapData:
		assertx(!isVector && !isVArray, "map payload on a vector family")
		assertx(len(d.elems) > 0, "map payload must be non-empty")
		for i, kv := range d.elems {
			switch kv.Key.(type) {
			case cell.Int, cell.Str:
			default:
				assertx(false, "map key %d is not a literal int or string", i)
			}
			assertx(kv.Val.SubtypeOf(valType) && !kv.Val.Equals(TBottom), "map value %d out of domain", i)
			if isKeyset {
				assertx(FromCell(kv.Key).Equals(kv.Val), "keyset map value %d differs from key", i)
			}
		}
		assertx(!d.elems.isPackedLike(), "map payload has packed keys; must be packed")
	case *mapNData:
		assertx(!isVector && !isVArray, "mapN payload on a vector family")
		assertx(d.key.SubtypeOf(keyType), "mapN key out of domain")
		assertx(!d.key.hasData(), "mapN key must not be specialized")
		assertx(d.val.SubtypeOf(valType), "mapN value out of domain")
		assertx(!d.key.Equals(TBottom) && !d.val.Equals(TBottom), "mapN key or value is bottom")
		if isKeyset {
			assertx(d.key.Equals(d.val), "keyset mapN key and value differ")
		}
	default:
		assertx(false, "unknown payload variant")
	}
}
