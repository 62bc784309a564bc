package types

import (
	"github.com/ActindoForks/hhvm/cell"
)

// Intersect is the greatest lower bound: the type of values belonging to
// both a and b.
func Intersect(a, b Type) Type {
	isect := a.bits & b.bits
	if !mayHaveData(isect) {
		return Type{bits: isect}
	}

	fix := func(t Type) Type {
		return setBits(t, isect)
	}

	t := func() Type {
		if !b.hasData() {
			return fix(a)
		}
		if !a.hasData() {
			return fix(b)
		}
		if a.subtypeData(b) {
			return fix(a)
		}
		if b.subtypeData(a) {
			return fix(b)
		}

		if dtag(a.data) == dtag(b.data) {
			switch ad := a.data.(type) {
			case *objData:
				bd := b.data.(*objData)
				fixWh := func(t Type) Type {
					td := t.data.(*objData).copy()
					switch {
					case ad.wh == nil:
						td.wh = bd.wh
					case bd.wh == nil:
						td.wh = ad.wh
					default:
						whType := Intersect(*ad.wh, *bd.wh)
						if whType.Equals(TBottom) {
							return TBottom
						}
						td.wh = &whType
					}
					t.data = td
					return fix(t)
				}
				if ad.tag == bd.tag && ad.cls.Same(bd.cls) {
					return fixWh(a)
				}
				if bd.tag == Sub && ad.cls.SubtypeOf(bd.cls) {
					return fixWh(a)
				}
				if ad.tag == Sub && bd.cls.SubtypeOf(ad.cls) {
					return fixWh(b)
				}
				if ad.tag == Sub && bd.tag == Sub {
					// Two open interface-side constraints can overlap in a
					// class implementing both; admit the overlap without
					// picking a side.
					if ad.cls.CouldBeInterface() {
						if !bd.cls.CouldBeInterface() {
							return fixWh(b)
						}
						return Type{bits: isect}
					}
					if bd.cls.CouldBeInterface() {
						return fixWh(a)
					}
				}
				return TBottom
			case *clsData, svalData, avalData, ivalData, dvalData:
				// Neither is a subtype of the other, so no value is in both.
				return TBottom
			case *refData:
				inner := Intersect(ad.inner, b.data.(*refData).inner)
				if inner.Equals(TBottom) {
					return TBottom
				}
				na := a
				na.data = &refData{inner: inner}
				return fix(na)
			}
		}
		return dualIntersect(a.data, b.data, isect)
	}()

	if !t.Equals(TBottom) {
		return t
	}
	// The payloads are incompatible: keep the shell without refinement by
	// dropping every payload-supporting cell from the overlap.
	bits := isect &^ (BInt | BDbl | BSStr | BArrN | BVecN | BDictN | BKeysetN | BObj | BCls | BRef)
	return Type{bits: bits}
}

// dualIntersect meets two array-shape payloads of (possibly) different
// variants; isect is the already-computed bit overlap. Pre: neither payload
// subsumes the other.
func dualIntersect(a, b data, isect Bits) Type {
	assertx(specRank(a) >= 0 && specRank(b) >= 0, "dualIntersect on non-array payloads")
	if specRank(a) > specRank(b) {
		a, b = b, a
	}

	intersectPacked := func(elems []Type, next func(int) Type) Type {
		out := make([]Type, len(elems))
		for i, e := range elems {
			m := Intersect(e, next(i))
			if m.Equals(TBottom) {
				return TBottom
			}
			out[i] = m
		}
		return packedImpl(isect, out)
	}

	switch x := a.(type) {
	case *packedData:
		switch y := b.(type) {
		case *packedData:
			if len(x.elems) != len(y.elems) {
				return TBottom
			}
			return intersectPacked(x.elems, func(i int) Type { return y.elems[i] })
		case *packedNData:
			return intersectPacked(x.elems, func(int) Type { return y.elem })
		case *mapData:
			// A valid map is never packed.
			return TBottom
		case *mapNData:
			if y.key.CouldBe(TInt) {
				return intersectPacked(x.elems, func(int) Type { return y.val })
			}
			return TBottom
		case avalData:
			// The container was not a subtype, so the meet is empty.
			return TBottom
		}

	case *packedNData:
		switch y := b.(type) {
		case *packedNData:
			is := Intersect(x.elem, y.elem)
			if is.Equals(TBottom) {
				return TBottom
			}
			return packedNImpl(isect, is)
		case *mapData:
			return TBottom
		case *mapNData:
			if y.key.CouldBe(TInt) {
				val := Intersect(y.val, x.elem)
				if !val.Equals(TBottom) {
					return packedNImpl(isect, val)
				}
			}
			return TBottom
		case avalData:
			return TBottom
		}

	case *mapData:
		switch y := b.(type) {
		case *mapData:
			if len(x.elems) != len(y.elems) {
				return TBottom
			}
			return meetMap(isect, x.elems, func(i int) (Type, Type) {
				return FromCell(y.elems[i].Key), y.elems[i].Val
			})
		case *mapNData:
			return meetMap(isect, x.elems, func(int) (Type, Type) { return y.key, y.val })
		case avalData:
			return TBottom
		}

	case *mapNData:
		switch y := b.(type) {
		case *mapNData:
			k := Intersect(x.key, y.key)
			v := Intersect(x.val, y.val)
			if k.Equals(TBottom) || v.Equals(TBottom) {
				return TBottom
			}
			return mapNImpl(isect, k, v)
		case avalData:
			return TBottom
		}

	case avalData:
		if _, ok := b.(avalData); ok {
			return TBottom
		}
	}
	assertx(false, "dualIntersect fell through the variant matrix")
	return TBottom
}

// meetMap intersects a fixed-key map element-wise against a stream of
// (key-domain, value) pairs. Any bottom element makes the whole meet
// bottom, as does a key whose kind the other side excludes.
func meetMap(bits Bits, m MapElems, next func(int) (Type, Type)) Type {
	out := m.copy()
	for i := range out {
		otherKey, otherVal := next(i)
		keyOK := false
		switch out[i].Key.(type) {
		case cell.Int:
			keyOK = otherKey.CouldBe(TInt)
		case cell.Str:
			keyOK = otherKey.CouldBe(TStr)
		}
		if !keyOK {
			return TBottom
		}
		val := Intersect(out[i].Val, otherVal)
		if val.Equals(TBottom) {
			return TBottom
		}
		out[i].Val = val
	}
	return mapImpl(bits, out)
}

//////////////////////////////////////////////////////////////////////

// unionArrLike joins two specialized same-family array types.
func unionArrLike(a, b Type) Type {
	newBits := combineArrLikeBits(a.bits, b.bits)
	if a.subtypeData(b) {
		return setBits(b, newBits)
	}
	if b.subtypeData(a) {
		return setBits(a, newBits)
	}
	return dualUnion(a.data, b.data, newBits)
}

// dualUnion joins two array-shape payloads under the combined bits.
func dualUnion(a, b data, bits Bits) Type {
	assertx(specRank(a) >= 0 && specRank(b) >= 0, "dualUnion on non-array payloads")
	if specRank(a) > specRank(b) {
		a, b = b, a
	}

	packedPacked := func(x, y *packedData) Type {
		if len(x.elems) != len(y.elems) {
			return packedNImpl(bits, Union(packedValues(x), packedValues(y)))
		}
		out := make([]Type, len(x.elems))
		for i := range x.elems {
			out[i] = Union(x.elems[i], y.elems[i])
		}
		return packedImpl(bits, out)
	}
	packedNPackedN := func(x, y *packedNData) Type {
		return packedNImpl(bits, Union(x.elem, y.elem))
	}
	mapMap := func(x, y *mapData) Type {
		toMapN := func() Type {
			mkva := mapKeyValues(x.elems)
			mkvb := mapKeyValues(y.elems)
			return mapNImpl(bits, Union(mkva.Fst, mkvb.Fst), Union(mkva.Snd, mkvb.Snd))
		}
		// Fixed-key shapes assert the exact key set, so differing keys
		// force the homogeneous form.
		if len(x.elems) != len(y.elems) {
			return toMapN()
		}
		out := MapElems{}
		for i := range x.elems {
			if !cell.Same(x.elems[i].Key, y.elems[i].Key) {
				return toMapN()
			}
			out.add(x.elems[i].Key, Union(x.elems[i].Val, y.elems[i].Val))
		}
		return mapImpl(bits, out)
	}
	mapNMapN := func(x, y *mapNData) Type {
		return mapNImpl(bits, Union(x.key, y.key), Union(x.val, y.val))
	}
	packedMap := func(x *packedData, y *mapData) Type {
		mkv := mapKeyValues(y.elems)
		return mapNImpl(bits, Union(TInt, mkv.Fst), Union(packedValues(x), mkv.Snd))
	}
	packedMapN := func(x *packedData, y *mapNData) Type {
		return mapNImpl(bits, Union(y.key, TInt), Union(packedValues(x), y.val))
	}
	packedNMap := func(x *packedNData, y *mapData) Type {
		mkv := mapKeyValues(y.elems)
		return mapNImpl(bits, Union(TInt, mkv.Fst), Union(x.elem, mkv.Snd))
	}
	packedNMapN := func(x *packedNData, y *mapNData) Type {
		return mapNImpl(bits, Union(TInt, y.key), Union(x.elem, y.val))
	}
	mapMapN := func(x *mapData, y *mapNData) Type {
		mkv := mapKeyValues(x.elems)
		return mapNImpl(bits, Union(mkv.Fst, y.key), Union(mkv.Snd, y.val))
	}

	// A constant container joins as whatever shapes it reifies to.
	reify := func(ar avalData, other data) Type {
		switch y := other.(type) {
		case *packedData:
			if p, ok := toPacked(ar.v); ok {
				return packedPacked(y, &packedData{elems: p})
			}
			m, ok := toMap(ar.v)
			assertx(ok, "constant container is neither packed nor map shaped")
			return packedMap(y, &mapData{elems: m})
		case *packedNData:
			if p, ok := toPackedN(ar.v); ok {
				return packedNPackedN(y, &packedNData{elem: p})
			}
			m, ok := toMap(ar.v)
			assertx(ok, "constant container is neither packedN nor map shaped")
			return packedNMap(y, &mapData{elems: m})
		case *mapData:
			if m, ok := toMap(ar.v); ok {
				return mapMap(y, &mapData{elems: m})
			}
			p, ok := toPacked(ar.v)
			assertx(ok, "constant container is neither map nor packed shaped")
			return packedMap(&packedData{elems: p}, y)
		case *mapNData:
			if k, v, ok := toMapN(ar.v); ok {
				return mapNMapN(y, &mapNData{key: k, val: v})
			}
			if m, ok := toMap(ar.v); ok {
				return mapMapN(&mapData{elems: m}, y)
			}
			p, ok := toPackedN(ar.v)
			assertx(ok, "constant container did not reify for mapN union")
			return packedNMapN(&packedNData{elem: p}, y)
		}
		assertx(false, "reify with non-shape payload")
		return TBottom
	}

	switch x := a.(type) {
	case *packedData:
		switch y := b.(type) {
		case *packedData:
			return packedPacked(x, y)
		case *packedNData:
			return packedNPackedN(&packedNData{elem: packedValues(x)}, y)
		case *mapData:
			return packedMap(x, y)
		case *mapNData:
			return packedMapN(x, y)
		case avalData:
			return reify(y, x)
		}
	case *packedNData:
		switch y := b.(type) {
		case *packedNData:
			return packedNPackedN(x, y)
		case *mapData:
			return packedNMap(x, y)
		case *mapNData:
			return packedNMapN(x, y)
		case avalData:
			return reify(y, x)
		}
	case *mapData:
		switch y := b.(type) {
		case *mapData:
			return mapMap(x, y)
		case *mapNData:
			return mapMapN(x, y)
		case avalData:
			return reify(y, x)
		}
	case *mapNData:
		switch y := b.(type) {
		case *mapNData:
			return mapNMapN(x, y)
		case avalData:
			return reify(y, x)
		}
	case avalData:
		if y, ok := b.(avalData); ok {
			// Identical containers were handled by the subtype
			// short-circuit; reify the left one and retry.
			if p, ok := toPacked(x.v); ok {
				return dualUnion(&packedData{elems: p}, y, bits)
			}
			m, ok := toMap(x.v)
			assertx(ok, "constant container is neither packed nor map shaped")
			return dualUnion(&mapData{elems: m}, y, bits)
		}
	}
	assertx(false, "dualUnion fell through the variant matrix")
	return TBottom
}

// specArrayLikeUnion unions a specialized array-like specA with a type b of
// the same family (optE/opt are the family's nullable-empty and nullable
// patterns). Bottom signals "not the same family, handle elsewhere".
func specArrayLikeUnion(specA, b, optE, opt Type) Type {
	if !b.SubtypeOf(opt) {
		return TBottom
	}
	bits := combineArrLikeBits(specA.bits, b.bits)
	if !isSpecializedArrLike(b) {
		// An empty (or nullable empty) other side keeps the
		// specialization.
		if b.SubtypeOf(optE) {
			return setBits(specA, bits)
		}
		return Type{bits: bits}
	}
	shouldBeOpt := IsOpt(specA) || IsOpt(b)
	t := unionArrLike(specA, b)
	assertx(!shouldBeOpt || IsOpt(t), "array-like union dropped optionality")
	return t
}

// namedUnions is the ordered table of predefined unions Union falls back
// to: the first entry that is a supertype of both operands wins.
var namedUnions = []Type{
	TInt, TDbl, TSStr,
	TSPArr, TPArrE, TPArrN, TPArr,
	TSVArr, TVArrE, TVArrN, TVArr,
	TSDArr, TDArrE, TDArrN, TDArr,
	TSArrE, TSArrN, TSArr, TArrE, TArrN, TArr,
	TObj, TCls, TNull, TBool, TNum, TStr,
	TSVec, TVecE, TVecN, TVec,
	TSDict, TDictE, TDictN, TDict,
	TSKeyset, TKeysetE, TKeysetN, TKeyset,
	TUncArrKey, TArrKey,
}

// namedOptUnions continues the table after the InitNull re-optionalizing
// case: optional forms first, then the wide stack unions.
var namedOptUnions = []Type{
	TOptBool, TOptInt, TOptDbl, TOptNum, TOptSStr, TOptStr, TOptObj,
	TOptSPArr, TOptPArrE, TOptPArrN, TOptPArr,
	TOptSVArr, TOptVArrE, TOptVArrN, TOptVArr,
	TOptSDArr, TOptDArrE, TOptDArrN, TOptDArr,
	TOptSArrE, TOptSArrN, TOptSArr, TOptArrE, TOptArrN, TOptArr,
	TOptSVec, TOptVecE, TOptVecN, TOptVec,
	TOptSDict, TOptDictE, TOptDictN, TOptDict,
	TOptSKeyset, TOptKeysetE, TOptKeysetN, TOptKeyset,
	TOptUncArrKey, TOptArrKey,
	TInitPrim, TPrim, TInitUnc, TUnc, TInitCell, TCell, TInitGen, TGen,
}

// Union is the least upper bound that preserves specialization where a
// predefined pattern can carry it.
func Union(a, b Type) Type {
	if a.SubtypeOf(b) {
		return b
	}
	if b.SubtypeOf(a) {
		return a
	}

	// Check wait handles before general specialized objects (including the
	// null side) so the inner type survives the merge.
	if IsSpecializedWaitHandle(a) {
		if IsSpecializedWaitHandle(b) {
			ad := a.data.(*objData).copy()
			merged := Union(*ad.wh, *b.data.(*objData).wh)
			ad.wh = &merged
			a.data = ad
			return a
		}
		if b.Equals(TInitNull) {
			return Opt(a)
		}
	}
	if IsSpecializedWaitHandle(b) {
		if a.Equals(TInitNull) {
			return Opt(b)
		}
	}

	if IsSpecializedObj(a) && IsSpecializedObj(b) {
		keepOpt := IsOpt(a) || IsOpt(b)
		if anc, ok := a.data.(*objData).cls.CommonAncestor(DObjOf(b).Cls); ok {
			// Obj<=Ancestor is the one type containing both children, so
			// exactness is not preserved.
			if keepOpt {
				return Opt(SubObj(anc))
			}
			return SubObj(anc)
		}
		if keepOpt {
			return TOptObj
		}
		return TObj
	}
	if a.StrictSubtypeOf(TCls) && b.StrictSubtypeOf(TCls) {
		if anc, ok := a.data.(*clsData).cls.CommonAncestor(DClsOf(b).Cls); ok {
			return SubCls(anc)
		}
		return TCls
	}

	for _, fam := range []struct {
		isSpec     func(Type) bool
		optE, optT Type
	}{
		{IsSpecializedArray, TOptArrE, TOptArr},
		{IsSpecializedVec, TOptVecE, TOptVec},
		{IsSpecializedDict, TOptDictE, TOptDict},
		{IsSpecializedKeyset, TOptKeysetE, TOptKeyset},
	} {
		if fam.isSpec(a) {
			if t := specArrayLikeUnion(a, b, fam.optE, fam.optT); !t.Equals(TBottom) {
				return t
			}
		} else if fam.isSpec(b) {
			if t := specArrayLikeUnion(b, a, fam.optE, fam.optT); !t.Equals(TBottom) {
				return t
			}
		}
	}

	if IsRefWithInner(a) && IsRefWithInner(b) {
		return RefTo(Union(a.data.(*refData).inner, b.data.(*refData).inner))
	}

	for _, u := range namedUnions {
		if a.SubtypeOf(u) && b.SubtypeOf(u) {
			return u
		}
	}

	// Preserve subtype information when merging against null: InitNull
	// with Obj<=Foo gives ?Obj<=Foo.
	if a.Equals(TInitNull) && canBeOptional(b.bits) {
		return Opt(b)
	}
	if b.Equals(TInitNull) && canBeOptional(a.bits) {
		return Opt(a)
	}

	for _, u := range namedOptUnions {
		if a.SubtypeOf(u) && b.SubtypeOf(u) {
			return u
		}
	}

	return TTop
}

// PromoteEmptyish unions a and b while dropping the emptyish parts of a
// (null, false, the empty string) where that is easy; member instructions
// use it to model promotion of empty bases.
func PromoteEmptyish(a, b Type) Type {
	if IsOpt(a) {
		a = Unopt(a)
	}
	if a.SubtypeOf(SEmpty()) {
		return b
	}
	t := a.bits &^ (BNull | BFalse)
	if !isPredefined(t) {
		switch {
		case t&BInitPrim == t:
			t = BInitPrim
		case t&BInitUnc == t:
			t = BInitUnc
		case t&BInitCell == t:
			t = BInitCell
		default:
			t = BInitGen
		}
		return Union(Type{bits: t}, b)
	}
	a.bits = t
	return Union(a, b)
}
