package types

import (
	"math"

	"github.com/ActindoForks/hhvm/cell"
)

// ThrowMode describes what the modeled program may do at a read or write
// site — not whether the lattice operation failed (it cannot).
type ThrowMode uint8

const (
	// ThrowNone: in bounds, key kind matches, no coercion notice.
	ThrowNone ThrowMode = iota
	// ThrowMaybeMissingElement: the read may miss.
	ThrowMaybeMissingElement
	// ThrowMaybeBadKey: key coercion may warn.
	ThrowMaybeBadKey
	// ThrowMissingElement: the read will miss.
	ThrowMissingElement
	// ThrowBadOperation: statically ill-typed; the value result is bottom.
	ThrowBadOperation
)

func (m ThrowMode) String() string {
	switch m {
	case ThrowNone:
		return "None"
	case ThrowMaybeMissingElement:
		return "MaybeMissingElement"
	case ThrowMaybeBadKey:
		return "MaybeBadKey"
	case ThrowMissingElement:
		return "MissingElement"
	case ThrowBadOperation:
		return "BadOperation"
	}
	return "ThrowMode(?)"
}

//////////////////////////////////////////////////////////////////////
// Per-payload element lookup. Each returns the element type and whether
// the element definitely exists.

func arrValElem(aval Type, key ArrKey) (Type, bool) {
	ar := aval.data.(avalData).v
	isPHPArray := aval.SubtypeOf(TOptArr)
	missing := TBottom
	if isPHPArray {
		missing = TInitNull
	}
	if key.I != nil {
		if v, ok := ar.AtInt(*key.I); ok {
			return FromCell(v), true
		}
		return missing, false
	}
	if key.S != nil {
		if v, ok := ar.AtStr(*key.S); ok {
			return FromCell(v), true
		}
		return missing, false
	}

	couldBeInt := key.Type.CouldBe(TInt)
	couldBeStr := key.Type.CouldBe(TStr)
	ty := missing
	for k, v := range ar.All() {
		_, isStr := k.(cell.Str)
		if (isStr && couldBeStr) || (!isStr && couldBeInt) {
			ty = Union(ty, FromCell(v))
			if TInitCell.SubtypeOf(ty) {
				break
			}
		}
	}
	return ty, false
}

func arrMapElem(m Type, key ArrKey) (Type, bool) {
	md := m.data.(*mapData)
	isPHPArray := m.SubtypeOf(TOptArr)
	missing := TBottom
	if isPHPArray {
		missing = TInitNull
	}
	if kv, ok := key.TV(); ok {
		if i, found := md.elems.find(kv); found {
			return md.elems[i].Val, true
		}
		return missing, false
	}
	couldBeInt := key.Type.CouldBe(TInt)
	couldBeStr := key.Type.CouldBe(TStr)
	ty := missing
	for i := range md.elems {
		_, isStr := md.elems[i].Key.(cell.Str)
		if (isStr && couldBeStr) || (!isStr && couldBeInt) {
			ty = Union(ty, md.elems[i].Val)
			if TInitCell.SubtypeOf(ty) {
				break
			}
		}
	}
	return ty, false
}

func arrPackedElem(pack Type, key ArrKey) (Type, bool) {
	pd := pack.data.(*packedData)
	isPHPArray := pack.SubtypeOf(TOptArr)
	missing := TBottom
	if isPHPArray {
		missing = TInitNull
	}
	if key.I != nil {
		if *key.I >= 0 && *key.I < int64(len(pd.elems)) {
			return pd.elems[*key.I], true
		}
		return missing, false
	}
	if !key.Type.CouldBe(TInt) {
		return missing, false
	}
	ret := packedValues(pd)
	if isPHPArray {
		ret = Union(ret, TInitNull)
	}
	return ret, false
}

func arrPackedNElem(pack Type, key ArrKey) (Type, bool) {
	pd := pack.data.(*packedNData)
	isPHPArray := pack.bits&BOptArr == pack.bits
	if key.S != nil || !key.Type.CouldBe(TInt) || (key.I != nil && *key.I < 0) {
		if isPHPArray {
			return TInitNull, false
		}
		return TBottom, false
	}
	if isPHPArray {
		return Union(pd.elem, TInitNull), false
	}
	return pd.elem, false
}

//////////////////////////////////////////////////////////////////////
// Per-payload set. Each mutates t in place (cloning payloads first) and
// reports whether the key is known to hit.

func arrPackedNSet(t *Type, key ArrKey, val Type, maybeEmpty bool) bool {
	pd := t.data.(*packedNData)
	isPHPArray := t.bits&BOptArr == t.bits
	isVecArray := t.bits&BOptVec == t.bits

	ty := Union(pd.elem, val)
	nd := pd.copy()
	nd.elem = ty
	t.data = nd

	if key.I != nil {
		// A key known to be in range keeps the packedN shape.
		if isPHPArray {
			if *key.I == 0 {
				return true
			}
			if !maybeEmpty && *key.I == 1 {
				return true
			}
		} else if !maybeEmpty && *key.I == 0 {
			return true
		}
		if *key.I < 0 {
			t.bits = promoteVArr(t.bits)
		} else {
			t.bits = maybePromoteVArr(t.bits)
		}
	} else {
		if key.Type.SubtypeOf(TStr) {
			t.bits = promoteVArr(t.bits)
		} else {
			t.bits = maybePromoteVArr(t.bits)
		}
	}

	if !isVecArray {
		*t = mapNImpl(t.bits, Union(TInt, key.Type), ty)
	}
	return false
}

func arrMapSet(t *Type, key ArrKey, val Type) bool {
	md := t.data.(*mapData)
	assertx(key.Type.SubtypeOf(TArrKey), "map set with non-key type")
	assertx(!t.SubtypeOf(TVArr), "map set on a varray")

	if kv, ok := key.TV(); ok {
		nd := md.copy()
		idx, added := nd.elems.add(kv, val)
		// An existing reference element stays a reference after the
		// assignment.
		if !added && nd.elems[idx].Val.SubtypeOf(TInitCell) {
			nd.elems[idx].Val = val
		}
		t.data = nd
		t.checkInvariants()
		return true
	}
	mkv := mapKeyValues(md.elems)
	*t = mapNImpl(t.bits, Union(mkv.Fst, key.Type), Union(mkv.Snd, val))
	return true
}

func arrPackedSet(t *Type, key ArrKey, val Type) bool {
	pd := t.data.(*packedData)
	assertx(key.Type.SubtypeOf(TArrKey), "packed set with non-key type")
	isVecArray := t.SubtypeOf(TOptVec)

	if key.I != nil {
		if *key.I >= 0 {
			if *key.I < int64(len(pd.elems)) {
				nd := pd.copy()
				if nd.elems[*key.I].SubtypeOf(TInitCell) {
					nd.elems[*key.I] = val
				}
				t.data = nd
				return true
			}
			if !isVecArray && *key.I == int64(len(pd.elems)) {
				nd := pd.copy()
				nd.elems = append(nd.elems, val)
				t.data = nd
				return true
			}
		}
		if isVecArray {
			*t = TBottom
			return false
		}
		t.bits = promoteVArr(t.bits)
	} else {
		if key.Type.SubtypeOf(TStr) {
			t.bits = promoteVArr(t.bits)
		} else {
			t.bits = maybePromoteVArr(t.bits)
		}
	}

	if !isVecArray {
		if kv, ok := key.TV(); ok {
			elems := MapElems{}
			for i, e := range pd.elems {
				elems.add(cell.Int(int64(i)), e)
			}
			elems.add(kv, val)
			*t = mapImpl(t.bits, elems)
			return true
		}
		ty := Union(packedValues(pd), val)
		*t = mapNImpl(t.bits, Union(TInt, key.Type), ty)
		return false
	}

	*t = packedNImpl(t.bits, Union(packedValues(pd), val))
	return false
}

func arrMapNSet(t *Type, key ArrKey, val Type) bool {
	md := t.data.(*mapNData)
	assertx(key.Type.SubtypeOf(TArrKey), "mapN set with non-key type")
	assertx(!t.SubtypeOf(TVArr), "mapN set on a varray")
	nd := md.copy()
	nd.val = Union(nd.val, val)
	nd.key = Union(nd.key, key.Type)
	t.data = nd
	t.checkInvariants()
	return true
}

// arrMapNewElem appends at the next unused integer key; the returned type
// is the appended key.
func arrMapNewElem(t *Type, val Type) Type {
	md := t.data.(*mapData)
	lastK := int64(-1)
	for i := range md.elems {
		if k, ok := md.elems[i].Key.(cell.Int); ok && int64(k) > lastK {
			lastK = int64(k)
		}
	}
	if lastK == math.MaxInt64 {
		return TInt
	}
	nd := md.copy()
	nd.elems.add(cell.Int(lastK+1), val)
	t.data = nd
	return IVal(lastK + 1)
}

//////////////////////////////////////////////////////////////////////

// ArrayLikeElem is the refined type of arr[key] for an already-disected
// key.
func ArrayLikeElem(arr Type, key ArrKey) (Type, ThrowMode) {
	maybeEmpty := arr.bits&BArrLikeE != 0
	mustBeStatic := arr.bits&BSArrLike == arr.bits
	isPHPArray := arr.SubtypeOf(TOptArr)

	if arr.bits&BArrLikeN == 0 {
		assertx(maybeEmpty, "array-like bits with neither E nor N")
		if isPHPArray {
			return TInitNull, ThrowMissingElement
		}
		return TBottom, ThrowMissingElement
	}

	ty, present := func() (Type, bool) {
		switch arr.data.(type) {
		case nil:
			if mustBeStatic {
				return TInitUnc, false
			}
			return TInitCell, false
		case avalData:
			return arrValElem(arr, key)
		case *packedData:
			return arrPackedElem(arr, key)
		case *packedNData:
			return arrPackedNElem(arr, key)
		case *mapData:
			return arrMapElem(arr, key)
		case *mapNData:
			v := arr.data.(*mapNData).val
			if isPHPArray {
				return Union(v, TInitNull), false
			}
			return v, false
		}
		assertx(false, "array-like elem on non-array payload")
		return TBottom, false
	}()

	mode := ThrowMaybeMissingElement
	if key.MayThrow {
		mode = ThrowMaybeBadKey
	} else if present {
		mode = ThrowNone
	}

	if !ty.SubtypeOf(TInitCell) {
		ty = TInitCell
	}

	if maybeEmpty {
		if isPHPArray {
			ty = Union(ty, TInitNull)
		}
		if mode == ThrowNone {
			mode = ThrowMaybeMissingElement
		}
	}
	// Outside the plain-array family a miss does not read null, it faults:
	// a bottom result means the read is statically ill-typed.
	if !isPHPArray && ty.Equals(TBottom) {
		mode = ThrowBadOperation
	}
	return ty, mode
}

// ArrayElem refines arr[key] under plain-array key semantics.
// Pre: arr.SubtypeOf(TArr)
func ArrayElem(arr, key Type) (Type, ThrowMode) {
	assertx(arr.SubtypeOf(TArr), "ArrayElem on non-array %s", arr)
	return ArrayLikeElem(arr, DisectArrayKey(key))
}

// VecElem refines vec[key]; only integer keys can hit.
func VecElem(vec, key Type) (Type, ThrowMode) {
	k := DisectVecKey(key)
	if k.Type.Equals(TBottom) {
		return TBottom, ThrowBadOperation
	}
	return ArrayLikeElem(vec, k)
}

// DictElem refines dict[key].
func DictElem(dict, key Type) (Type, ThrowMode) {
	k := DisectStrictKey(key)
	if k.Type.Equals(TBottom) {
		return TBottom, ThrowBadOperation
	}
	return ArrayLikeElem(dict, k)
}

// KeysetElem refines keyset[key].
func KeysetElem(keyset, key Type) (Type, ThrowMode) {
	k := DisectStrictKey(key)
	if k.Type.Equals(TBottom) {
		return TBottom, ThrowBadOperation
	}
	return ArrayLikeElem(keyset, k)
}

//////////////////////////////////////////////////////////////////////

// ArrayLikeSet models arr[key] = val over an already-disected key,
// promoting the shape as needed.
func ArrayLikeSet(arr Type, key ArrKey, valIn Type) (Type, ThrowMode) {
	maybeEmpty := arr.bits&BArrLikeE != 0
	isVector := arr.bits&BOptVec != 0
	isPHPArray := arr.bits&BOptArr != 0
	validKey := key.Type.SubtypeOf(TArrKey)
	if isVector {
		validKey = key.Type.SubtypeOf(TInt)
	}

	bits := combineDVArrLikeBits(arr.bits, BArrLikeN)
	if validKey {
		bits &^= BArrLikeE
	}

	fixRef := !isPHPArray && valIn.CouldBe(TRef)
	throwMode := ThrowBadOperation
	if !fixRef && validKey && !key.MayThrow {
		throwMode = ThrowNone
	}
	val := valIn
	if fixRef {
		val = TInitCell
	}
	// A strange key type would leak past TArrKey into specialized keys;
	// clamp it.
	fixedKey := key
	if !validKey {
		fixedKey = ArrKey{Type: TArrKey, MayThrow: true}
	}

	if arr.bits&BArrLikeN == 0 {
		assertx(maybeEmpty, "array-like bits with neither E nor N")
		if isVector {
			return TBottom, ThrowBadOperation
		}
		if fixedKey.I != nil {
			if *fixedKey.I == 0 {
				return packedImpl(bits, []Type{val}), throwMode
			}
			bits = promoteVArr(bits)
		} else {
			if fixedKey.Type.SubtypeOf(TStr) {
				bits = promoteVArr(bits)
			} else {
				bits = maybePromoteVArr(bits)
			}
		}
		if kv, ok := fixedKey.TV(); ok {
			m := MapElems{}
			m.add(kv, val)
			return mapImpl(bits, m), throwMode
		}
		return mapNImpl(bits, fixedKey.Type, val), throwMode
	}

	emptyHelper := func(inKey, inVal Type) (Type, ThrowMode) {
		if fixedKey.Type.SubtypeOf(TStr) {
			bits = promoteVArr(bits)
		} else {
			bits = maybePromoteVArr(bits)
		}
		return mapNImpl(bits, Union(inKey, fixedKey.Type), Union(inVal, val)), throwMode
	}

	arr.bits = bits

	switch d := arr.data.(type) {
	case nil:
		if fixedKey.Type.SubtypeOf(TStr) {
			arr.bits = promoteVArr(arr.bits)
		} else {
			arr.bits = maybePromoteVArr(arr.bits)
		}
		return arr, ThrowBadOperation

	case avalData:
		if maybeEmpty && !isVector {
			kv := valKeyValues(d.v)
			return emptyHelper(kv.Fst, kv.Snd)
		}
		if p, ok := toPacked(d.v); ok {
			return ArrayLikeSet(packedImpl(bits, p), key, valIn)
		}
		assertx(!isVector, "vec constant container must be packed")
		m, ok := toMap(d.v)
		assertx(ok, "constant container is neither packed nor map shaped")
		return ArrayLikeSet(mapImpl(bits, m), key, valIn)

	case *packedData:
		// Setting element zero of a maybe-empty one-element packed array
		// still yields a one-element packed array.
		if maybeEmpty && !isVector &&
			(fixedKey.I == nil || *fixedKey.I != 0 || len(d.elems) != 1) {
			return emptyHelper(TInt, packedValues(d))
		}
		inRange := arrPackedSet(&arr, fixedKey, val)
		if !inRange {
			return arr, ThrowBadOperation
		}
		return arr, throwMode

	case *packedNData:
		if maybeEmpty && !isVector {
			return emptyHelper(TInt, d.elem)
		}
		inRange := arrPackedNSet(&arr, fixedKey, val, false)
		if !inRange {
			return arr, ThrowBadOperation
		}
		return arr, throwMode

	case *mapData:
		assertx(!isVector, "map payload on vec bits")
		if maybeEmpty {
			mkv := mapKeyValues(d.elems)
			return emptyHelper(mkv.Fst, mkv.Snd)
		}
		inRange := arrMapSet(&arr, fixedKey, val)
		if !inRange {
			return arr, ThrowBadOperation
		}
		return arr, throwMode

	case *mapNData:
		assertx(!isVector, "mapN payload on vec bits")
		if maybeEmpty {
			return emptyHelper(d.key, d.val)
		}
		inRange := arrMapNSet(&arr, fixedKey, val)
		if !inRange {
			return arr, ThrowBadOperation
		}
		return arr, throwMode
	}

	assertx(false, "array-like set on non-array payload")
	return TBottom, ThrowBadOperation
}

// ArraySet models arr[key] = val for plain arrays.
// Pre: arr.SubtypeOf(TArr)
func ArraySet(arr, key, val Type) (Type, ThrowMode) {
	assertx(arr.SubtypeOf(TArr), "ArraySet on non-array %s", arr)
	assertx(val.Equals(TBottom) || !val.SubtypeOf(TRef),
		"reference types do not belong in arrays")
	k := DisectArrayKey(key)
	assertx(!k.Type.Equals(TBottom), "array key disected to bottom")
	return ArrayLikeSet(arr, k, val)
}

// VecSet models vec[key] = val.
func VecSet(vec, key, val Type) (Type, ThrowMode) {
	if !val.CouldBe(TInitCell) {
		return TBottom, ThrowBadOperation
	}
	k := DisectVecKey(key)
	if k.Type.Equals(TBottom) {
		return TBottom, ThrowBadOperation
	}
	return ArrayLikeSet(vec, k, val)
}

// DictSet models dict[key] = val.
func DictSet(dict, key, val Type) (Type, ThrowMode) {
	if !val.CouldBe(TInitCell) {
		return TBottom, ThrowBadOperation
	}
	k := DisectStrictKey(key)
	if k.Type.Equals(TBottom) {
		return TBottom, ThrowBadOperation
	}
	return ArrayLikeSet(dict, k, val)
}

// KeysetSet is not a legal operation; a keyset has no keyed writes.
func KeysetSet(Type, Type, Type) (Type, ThrowMode) {
	return TBottom, ThrowBadOperation
}

//////////////////////////////////////////////////////////////////////

// ArrayLikeNewElem models arr[] = val; the second result is the type of
// the key the append used.
func ArrayLikeNewElem(arr Type, val Type) (Type, Type) {
	if arr.bits&BKeyset != 0 {
		// Appending to a keyset inserts the value as its own key.
		key := DisectStrictKey(val)
		if key.Type.Equals(TBottom) {
			return TBottom, TInitCell
		}
		out, _ := ArrayLikeSet(arr, key, key.Type)
		return out, val
	}

	maybeEmpty := arr.bits&BArrLikeE != 0
	isVector := arr.bits&BOptVec != 0
	isVArray := arr.bits&BOptVArr == arr.bits

	bits := combineDVArrLikeBits(arr.bits, BArrLikeN)
	bits &^= BArrLikeE

	if arr.bits&BArrLikeN == 0 {
		assertx(maybeEmpty, "array-like bits with neither E nor N")
		return packedImpl(bits, []Type{val}), IVal(0)
	}

	emptyHelper := func(inKey, inVal Type) (Type, Type) {
		if isVector || isVArray {
			assertx(inKey.SubtypeOf(TInt), "vector family with non-int keys")
			return packedNImpl(bits, Union(inVal, val)), TInt
		}
		return mapNImpl(bits, Union(inKey, TInt), Union(inVal, val)), TInt
	}

	switch d := arr.data.(type) {
	case nil:
		arr.bits = bits
		return arr, TInt

	case avalData:
		if maybeEmpty {
			kv := valKeyValues(d.v)
			return emptyHelper(kv.Fst, kv.Snd)
		}
		if p, ok := toPacked(d.v); ok {
			return ArrayLikeNewElem(packedImpl(bits, p), val)
		}
		assertx(!isVector, "vec constant container must be packed")
		m, ok := toMap(d.v)
		assertx(ok, "constant container is neither packed nor map shaped")
		return ArrayLikeNewElem(mapImpl(bits, m), val)

	case *packedData:
		if maybeEmpty {
			return emptyHelper(TInt, packedValues(d))
		}
		arr.bits = bits
		length := len(d.elems)
		nd := d.copy()
		nd.elems = append(nd.elems, val)
		arr.data = nd
		return arr, IVal(int64(length))

	case *packedNData:
		if maybeEmpty {
			return emptyHelper(TInt, d.elem)
		}
		arr.bits = bits
		nd := d.copy()
		nd.elem = Union(nd.elem, val)
		arr.data = nd
		return arr, TInt

	case *mapData:
		assertx(!isVector && !isVArray, "map payload on vector family")
		if maybeEmpty {
			mkv := mapKeyValues(d.elems)
			return emptyHelper(mkv.Fst, mkv.Snd)
		}
		arr.bits = bits
		idx := arrMapNewElem(&arr, val)
		return arr, idx

	case *mapNData:
		assertx(!isVector && !isVArray, "mapN payload on vector family")
		if maybeEmpty {
			return emptyHelper(d.key, d.val)
		}
		return mapNImpl(bits, Union(d.key, TInt), Union(d.val, val)), TInt
	}

	assertx(false, "array-like newelem on non-array payload")
	return TBottom, TBottom
}

// ArrayNewElem models arr[] = val for plain arrays.
func ArrayNewElem(arr, val Type) (Type, Type) {
	assertx(arr.SubtypeOf(TArr), "ArrayNewElem on non-array %s", arr)
	assertx(val.Equals(TBottom) || !val.SubtypeOf(TRef),
		"reference types do not belong in arrays")
	return ArrayLikeNewElem(arr, val)
}

func VecNewElem(vec, val Type) (Type, Type) {
	if !val.SubtypeOf(TInitCell) {
		val = TInitCell
	}
	return ArrayLikeNewElem(vec, val)
}

func DictNewElem(dict, val Type) (Type, Type) {
	if !val.SubtypeOf(TInitCell) {
		val = TInitCell
	}
	return ArrayLikeNewElem(dict, val)
}

func KeysetNewElem(keyset, val Type) (Type, Type) {
	return ArrayLikeNewElem(keyset, val)
}

//////////////////////////////////////////////////////////////////////

// IterCount bounds the number of elements a loop will see.
type IterCount uint8

const (
	IterEmpty IterCount = iota
	IterSingle
	IterZeroOrOne
	IterNonEmpty
	IterAny
)

// IterTypes is the refinement for iterating a value: key and value types,
// a count bound, and whether loop entry or stepping may throw.
type IterTypes struct {
	Key            Type
	Value          Type
	Count          IterCount
	MayThrowOnInit bool
	MayThrowOnNext bool
}

// IterTypesOf computes iteration refinement for t. Only array-likes and
// objects iterate; everything else warns and skips the loop.
func IterTypesOf(iterable Type) IterTypes {
	if !iterable.CouldBeAny(TArr, TVec, TDict, TKeyset, TObj) {
		return IterTypes{TBottom, TBottom, IterEmpty, true, true}
	}

	// A null base does not set any locals, so optional array-likes stay
	// precise here; they only add a potential throw on entry.
	if !iterable.SubtypeOfAny(TOptArr, TOptVec, TOptDict, TOptKeyset) {
		return IterTypes{
			TInitCell,
			TInitCell,
			IterAny,
			true,
			iterable.CouldBe(TObj),
		}
	}

	mayThrow := IsOpt(iterable)

	if iterable.SubtypeOfAny(TOptArrE, TOptVecE, TOptDictE, TOptKeysetE) {
		return IterTypes{TBottom, TBottom, IterEmpty, mayThrow, false}
	}

	maybeEmpty := mayThrow ||
		!iterable.SubtypeOfAny(TOptArrN, TOptVecN, TOptDictN, TOptKeysetN)

	count := func(size int, sizeKnown bool) IterCount {
		if sizeKnown {
			assertx(size > 0, "known-size iterable with zero size")
			if size == 1 {
				if maybeEmpty {
					return IterZeroOrOne
				}
				return IterSingle
			}
		}
		if maybeEmpty {
			return IterAny
		}
		return IterNonEmpty
	}

	if !isSpecializedArrLike(iterable) {
		var k, v Type
		switch {
		case iterable.SubtypeOf(TOptSVec):
			k, v = TInt, TInitUnc
		case iterable.SubtypeOf(TOptSDict):
			k, v = TUncArrKey, TInitUnc
		case iterable.SubtypeOf(TOptSKeyset):
			k, v = TUncArrKey, TUncArrKey
		case iterable.SubtypeOf(TOptSVArr):
			k, v = TInt, TInitUnc
		case iterable.SubtypeOf(TOptSArr):
			k, v = TUncArrKey, TInitUnc
		case iterable.SubtypeOf(TOptVec):
			k, v = TInt, TInitCell
		case iterable.SubtypeOf(TOptDict):
			k, v = TArrKey, TInitCell
		case iterable.SubtypeOf(TOptKeyset):
			k, v = TArrKey, TArrKey
		case iterable.SubtypeOf(TOptVArr):
			k, v = TInt, TInitCell
		case iterable.SubtypeOf(TOptArr):
			k, v = TArrKey, TInitCell
		default:
			assertx(false, "unspecialized iterable fell through: %s", iterable)
		}
		return IterTypes{k, v, count(0, false), mayThrow, false}
	}

	switch d := iterable.data.(type) {
	case avalData:
		kv := valKeyValues(d.v)
		return IterTypes{kv.Fst, kv.Snd, count(d.v.Size(), true), mayThrow, false}
	case *packedData:
		return IterTypes{TInt, packedValues(d), count(len(d.elems), true), mayThrow, false}
	case *packedNData:
		return IterTypes{TInt, d.elem, count(0, false), mayThrow, false}
	case *mapData:
		kv := mapKeyValues(d.elems)
		return IterTypes{kv.Fst, kv.Snd, count(len(d.elems), true), mayThrow, false}
	case *mapNData:
		return IterTypes{d.key, d.val, count(0, false), mayThrow, false}
	}
	assertx(false, "specialized iterable with non-array payload")
	return IterTypes{}
}

//////////////////////////////////////////////////////////////////////

// CouldRunDestructor reports whether destroying a value of t could run
// arbitrary code (objects, or counted containers holding them).
func CouldRunDestructor(t Type) bool {
	if t.CouldBe(TObj) {
		return true
	}

	couldBeArrWithDestructors := t.bits&(BCArrN|BCVecN|BCDictN) != 0

	if t.CouldBe(TRef) {
		if !couldBeArrWithDestructors && IsRefWithInner(t) {
			return CouldRunDestructor(t.data.(*refData).inner)
		}
		return true
	}

	if !couldBeArrWithDestructors {
		return false
	}

	switch d := t.data.(type) {
	case avalData:
		return false
	case *packedData:
		for _, e := range d.elems {
			if CouldRunDestructor(e) {
				return true
			}
		}
		return false
	case *packedNData:
		return CouldRunDestructor(d.elem)
	case *mapData:
		for i := range d.elems {
			if CouldRunDestructor(d.elems[i].Val) {
				return true
			}
		}
		return false
	case *mapNData:
		return CouldRunDestructor(d.val)
	}
	return true
}

// CouldCopyOnWrite reports whether writing through a value of t could
// trigger a copy of shared storage.
func CouldCopyOnWrite(t Type) bool {
	return t.bits&(BCStr|BCArrN|BCVecN|BCDictN|BCKeysetN) != 0
}
