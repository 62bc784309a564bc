package types

// Emptiness classifies what a truthiness test can learn about t.
type Emptiness uint8

const (
	EmptinessEmpty Emptiness = iota
	EmptinessNonEmpty
	EmptinessMaybe
)

func (e Emptiness) String() string {
	switch e {
	case EmptinessEmpty:
		return "Empty"
	case EmptinessNonEmpty:
		return "NonEmpty"
	case EmptinessMaybe:
		return "Maybe"
	}
	return "Emptiness(?)"
}

// CouldHaveMagicBoolConversion reports whether t could hold an object with
// a custom boolean conversion.
func CouldHaveMagicBoolConversion(t Type) bool {
	if !t.CouldBe(TObj) {
		return false
	}
	if t.StrictSubtypeOf(TObj) || (IsOpt(t) && Unopt(t).StrictSubtypeOf(TObj)) {
		return DObjOf(t).Cls.CouldHaveMagicBool()
	}
	return true
}

// EmptinessOf is what we know about the truthiness of t.
func EmptinessOf(t Type) Emptiness {
	emptyMask := BNull | BFalse | BArrE | BVecE | BDictE | BKeysetE
	if t.bits&emptyMask == t.bits {
		return EmptinessEmpty
	}
	nonEmptyMask := BTrue | BArrN | BVecN | BDictN | BKeysetN
	if t.bits&nonEmptyMask == t.bits {
		return EmptinessNonEmpty
	}
	if t.StrictSubtypeOf(TObj) {
		if !CouldHaveMagicBoolConversion(t) {
			return EmptinessNonEmpty
		}
	} else if v, ok := TV(t); ok {
		if cellToBool(v) {
			return EmptinessNonEmpty
		}
		return EmptinessEmpty
	}
	return EmptinessMaybe
}

// StackFlav is the coarsest stack discipline for t: one of TUninit,
// TInitCell, TRef, TGen (or TCls).
func StackFlav(a Type) Type {
	switch {
	case a.SubtypeOf(TUninit):
		return TUninit
	case a.SubtypeOf(TInitCell):
		return TInitCell
	case a.SubtypeOf(TRef):
		return TRef
	case a.SubtypeOf(TGen):
		return TGen
	case a.SubtypeOf(TCls):
		return TCls
	}
	assertx(false, "StackFlav passed invalid type %s", a)
	return TGen
}

//////////////////////////////////////////////////////////////////////

// LoosenStaticness discards countedness: wherever a static or counted bit
// is set, both become set. A string literal cannot survive since TStr
// carries no value.
func LoosenStaticness(t Type) Type {
	if t.CouldBe(TStr) {
		t = Union(t, TStr)
	}
	check := func(a Bits) {
		if t.bits&a != 0 {
			t.bits |= a
		}
	}
	check(BPArrE)
	check(BPArrN)
	check(BVArrE)
	check(BVArrN)
	check(BDArrE)
	check(BDArrN)
	check(BVecE)
	check(BVecN)
	check(BDictE)
	check(BDictN)
	check(BKeysetE)
	check(BKeysetN)
	return t
}

// LoosenDVArrayness collapses the plain-array variant tags into the
// generic family. A constant container cannot live under a variant-unknown
// pattern, so it reifies to its packed or map shape first.
func LoosenDVArrayness(t Type) Type {
	if t.CouldBe(TArr) {
		if av, ok := t.data.(avalData); ok {
			if p, ok := toPacked(av.v); ok {
				t = packedImpl(t.bits, p)
			} else {
				m, ok := toMap(av.v)
				assertx(ok, "constant container is neither packed nor map shaped")
				t = mapImpl(t.bits, m)
			}
		}
	}
	check := func(a Bits) {
		if t.bits&a != 0 {
			t.bits |= a
		}
	}
	check(BSArrE)
	check(BCArrE)
	check(BSArrN)
	check(BCArrN)
	return t
}

// LoosenArrays admits every array-like family wherever one is admitted.
func LoosenArrays(a Type) Type {
	if a.CouldBe(TArr) {
		a = Union(a, TArr)
	}
	if a.CouldBe(TVec) {
		a = Union(a, TVec)
	}
	if a.CouldBe(TDict) {
		a = Union(a, TDict)
	}
	if a.CouldBe(TKeyset) {
		a = Union(a, TKeyset)
	}
	return a
}

// LoosenValues drops scalar, array and reference payloads (class and
// object constraints survive) and widens known booleans to TBool.
func LoosenValues(a Type) Type {
	t := func() Type {
		switch a.data.(type) {
		case svalData, ivalData, dvalData, *refData, avalData,
			*packedData, *packedNData, *mapData, *mapNData:
			return Type{bits: a.bits}
		}
		return a
	}()
	if t.CouldBe(TFalse) || t.CouldBe(TTrue) {
		t = Union(t, TBool)
	}
	return t
}

// LoosenEmptiness admits both emptiness cells wherever either is admitted,
// also re-admitting staticness for the counted halves it touches.
func LoosenEmptiness(t Type) Type {
	check := func(a, b Bits) {
		if t.bits&a != 0 {
			t.bits |= b
		}
	}
	check(BSPArr, BSPArr)
	check(BCPArr, BPArr)
	check(BSVArr, BSVArr)
	check(BCVArr, BVArr)
	check(BSDArr, BSDArr)
	check(BCDArr, BDArr)
	check(BSVec, BSVec)
	check(BCVec, BVec)
	check(BSDict, BSDict)
	check(BCDict, BDict)
	check(BSKeyset, BSKeyset)
	check(BCKeyset, BKeyset)
	return t
}

// LoosenAll forces a type to its most basic form, keeping only class and
// object constraints.
func LoosenAll(t Type) Type {
	return LoosenDVArrayness(LoosenStaticness(LoosenEmptiness(LoosenValues(t))))
}

// AddNonEmptiness admits the non-empty cells matching any admitted empty
// cells.
func AddNonEmptiness(t Type) Type {
	check := func(a, b Bits) {
		if t.bits&a != 0 {
			t.bits |= b
		}
	}
	check(BSPArrE, BSPArrN)
	check(BCPArrE, BPArrN)
	check(BSVArrE, BSVArrN)
	check(BCVArrE, BVArrN)
	check(BSDArrE, BSDArrN)
	check(BCDArrE, BDArrN)
	check(BSVecE, BSVecN)
	check(BCVecE, BVecN)
	check(BSDictE, BSDictN)
	check(BCDictE, BDictN)
	check(BSKeysetE, BSKeysetN)
	check(BCKeysetE, BKeysetN)
	return t
}

// RemoveUninit is the tightest predefined supertype of t that excludes
// Uninit. Pre: t.SubtypeOf(TCell)
func RemoveUninit(t Type) Type {
	assertx(t.SubtypeOf(TCell), "RemoveUninit outside Cell: %s", t)
	if !t.CouldBe(TUninit) {
		return t
	}
	if t.SubtypeOf(TUninit) {
		return TBottom
	}
	if t.SubtypeOf(TNull) {
		return TInitNull
	}
	if t.SubtypeOf(TPrim) {
		return TInitPrim
	}
	if t.SubtypeOf(TUnc) {
		return TInitUnc
	}
	return TInitCell
}

// AssertEmptiness refines t by a passed emptiness (falsy) test.
func AssertEmptiness(t Type) Type {
	if t.SubtypeOfAny(TTrue, TArrN, TVecN, TDictN, TKeysetN) {
		return TBottom
	}
	if !CouldHaveMagicBoolConversion(t) && t.SubtypeOf(TOptObj) {
		return TInitNull
	}

	remove := func(m, e Bits) bool {
		if t.bits&m == t.bits {
			bits := t.bits & e
			if t.hasData() && !mayHaveData(bits) {
				t = Type{bits: bits}
			} else {
				t.bits = bits
			}
			return true
		}
		return false
	}

	if remove(BOptArr, BOptArrE) || remove(BOptVec, BOptVecE) ||
		remove(BOptDict, BOptDictE) || remove(BOptKeyset, BOptKeysetE) {
		return t
	}

	switch {
	case t.SubtypeOf(TInt):
		return IVal(0)
	case t.SubtypeOf(TBool):
		return TFalse
	case t.SubtypeOf(TDbl):
		return DVal(0)
	case t.SubtypeOf(TSStr):
		return SEmpty()
	case t.SubtypeOf(TOptInt):
		return Opt(IVal(0))
	case t.SubtypeOf(TOptBool):
		return Opt(TFalse)
	case t.SubtypeOf(TOptDbl):
		return Opt(DVal(0))
	case t.SubtypeOf(TOptSStr):
		return Opt(SEmpty())
	}
	return t
}

// AssertNonEmptiness refines t by a passed non-emptiness (truthy) test.
func AssertNonEmptiness(t Type) Type {
	if IsOpt(t) {
		t = Unopt(t)
	}
	if t.SubtypeOfAny(TNull, TFalse, TArrE, TVecE, TDictE, TKeysetE) {
		return TBottom
	}
	if t.SubtypeOf(TBool) {
		return TTrue
	}

	remove := func(m, e Bits) bool {
		if t.bits&m == t.bits {
			t.bits &= e
			return true
		}
		return false
	}

	if remove(BOptArr, BOptArrN) || remove(BOptVec, BOptVecN) ||
		remove(BOptDict, BOptDictN) || remove(BOptKeyset, BOptKeysetN) {
		return t
	}

	return RemoveUninit(t)
}
