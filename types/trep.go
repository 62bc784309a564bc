package types

// Bits is the coarse axis of the lattice: a bitset over disjoint
// kind/staticness/emptiness cells. Unions of atoms name sub-lattices; only
// the predefined combinations below may ever be constructed.
type Bits uint64

const (
	BBottom Bits = 0

	BUninit   Bits = 1 << 0
	BInitNull Bits = 1 << 1
	BFalse    Bits = 1 << 2
	BTrue     Bits = 1 << 3
	BInt      Bits = 1 << 4
	BDbl      Bits = 1 << 5
	BSStr     Bits = 1 << 6 // static string
	BCStr     Bits = 1 << 7 // counted string

	BSPArrE Bits = 1 << 8  // static empty plain array
	BCPArrE Bits = 1 << 9  // counted empty plain array
	BSPArrN Bits = 1 << 10 // static non-empty plain array
	BCPArrN Bits = 1 << 11 // counted non-empty plain array

	BSVArrE Bits = 1 << 12 // static empty varray
	BCVArrE Bits = 1 << 13 // counted empty varray
	BSVArrN Bits = 1 << 14 // static non-empty varray
	BCVArrN Bits = 1 << 15 // counted non-empty varray

	BSDArrE Bits = 1 << 16 // static empty darray
	BCDArrE Bits = 1 << 17 // counted empty darray
	BSDArrN Bits = 1 << 18 // static non-empty darray
	BCDArrN Bits = 1 << 19 // counted non-empty darray

	BObj Bits = 1 << 20
	BRes Bits = 1 << 21
	BCls Bits = 1 << 22
	BRef Bits = 1 << 23

	BSVecE    Bits = 1 << 24
	BCVecE    Bits = 1 << 25
	BSVecN    Bits = 1 << 26
	BCVecN    Bits = 1 << 27
	BSDictE   Bits = 1 << 28
	BCDictE   Bits = 1 << 29
	BSDictN   Bits = 1 << 30
	BCDictN   Bits = 1 << 31
	BSKeysetE Bits = 1 << 32
	BCKeysetE Bits = 1 << 33
	BSKeysetN Bits = 1 << 34
	BCKeysetN Bits = 1 << 35

	BSPArr = BSPArrE | BSPArrN
	BCPArr = BCPArrE | BCPArrN
	BPArrE = BSPArrE | BCPArrE
	BPArrN = BSPArrN | BCPArrN
	BPArr  = BPArrE | BPArrN

	BSVArr = BSVArrE | BSVArrN
	BCVArr = BCVArrE | BCVArrN
	BVArrE = BSVArrE | BCVArrE
	BVArrN = BSVArrN | BCVArrN
	BVArr  = BVArrE | BVArrN

	BSDArr = BSDArrE | BSDArrN
	BCDArr = BCDArrE | BCDArrN
	BDArrE = BSDArrE | BCDArrE
	BDArrN = BSDArrN | BCDArrN
	BDArr  = BDArrE | BDArrN

	BSArrE = BSPArrE | BSVArrE | BSDArrE
	BCArrE = BCPArrE | BCVArrE | BCDArrE
	BSArrN = BSPArrN | BSVArrN | BSDArrN
	BCArrN = BCPArrN | BCVArrN | BCDArrN

	BNull = BUninit | BInitNull
	BBool = BFalse | BTrue
	BNum  = BInt | BDbl
	BStr  = BSStr | BCStr
	BSArr = BSArrE | BSArrN
	BCArr = BCArrE | BCArrN
	BArrE = BSArrE | BCArrE
	BArrN = BSArrN | BCArrN
	BArr  = BArrE | BArrN

	BSVec    = BSVecE | BSVecN
	BCVec    = BCVecE | BCVecN
	BVecE    = BSVecE | BCVecE
	BVecN    = BSVecN | BCVecN
	BVec     = BVecE | BVecN
	BSDict   = BSDictE | BSDictN
	BCDict   = BCDictE | BCDictN
	BDictE   = BSDictE | BCDictE
	BDictN   = BSDictN | BCDictN
	BDict    = BDictE | BDictN
	BSKeyset = BSKeysetE | BSKeysetN
	BCKeyset = BCKeysetE | BCKeysetN
	BKeysetE = BSKeysetE | BCKeysetE
	BKeysetN = BSKeysetN | BCKeysetN
	BKeyset  = BKeysetE | BKeysetN

	BOptTrue     = BInitNull | BTrue
	BOptFalse    = BInitNull | BFalse
	BOptBool     = BInitNull | BBool
	BOptInt      = BInitNull | BInt
	BOptDbl      = BInitNull | BDbl
	BOptNum      = BInitNull | BNum
	BOptSStr     = BInitNull | BSStr
	BOptCStr     = BInitNull | BCStr
	BOptStr      = BInitNull | BStr
	BOptSArrE    = BInitNull | BSArrE
	BOptCArrE    = BInitNull | BCArrE
	BOptSArrN    = BInitNull | BSArrN
	BOptCArrN    = BInitNull | BCArrN
	BOptSArr     = BInitNull | BSArr
	BOptCArr     = BInitNull | BCArr
	BOptArrE     = BInitNull | BArrE
	BOptArrN     = BInitNull | BArrN
	BOptArr      = BInitNull | BArr
	BOptObj      = BInitNull | BObj
	BOptRes      = BInitNull | BRes
	BOptSVecE    = BInitNull | BSVecE
	BOptCVecE    = BInitNull | BCVecE
	BOptSVecN    = BInitNull | BSVecN
	BOptCVecN    = BInitNull | BCVecN
	BOptSVec     = BInitNull | BSVec
	BOptCVec     = BInitNull | BCVec
	BOptVecE     = BInitNull | BVecE
	BOptVecN     = BInitNull | BVecN
	BOptVec      = BInitNull | BVec
	BOptSDictE   = BInitNull | BSDictE
	BOptCDictE   = BInitNull | BCDictE
	BOptSDictN   = BInitNull | BSDictN
	BOptCDictN   = BInitNull | BCDictN
	BOptSDict    = BInitNull | BSDict
	BOptCDict    = BInitNull | BCDict
	BOptDictE    = BInitNull | BDictE
	BOptDictN    = BInitNull | BDictN
	BOptDict     = BInitNull | BDict
	BOptSKeysetE = BInitNull | BSKeysetE
	BOptCKeysetE = BInitNull | BCKeysetE
	BOptSKeysetN = BInitNull | BSKeysetN
	BOptCKeysetN = BInitNull | BCKeysetN
	BOptSKeyset  = BInitNull | BSKeyset
	BOptCKeyset  = BInitNull | BCKeyset
	BOptKeysetE  = BInitNull | BKeysetE
	BOptKeysetN  = BInitNull | BKeysetN
	BOptKeyset   = BInitNull | BKeyset

	BOptSPArrE = BInitNull | BSPArrE
	BOptCPArrE = BInitNull | BCPArrE
	BOptSPArrN = BInitNull | BSPArrN
	BOptCPArrN = BInitNull | BCPArrN
	BOptSPArr  = BInitNull | BSPArr
	BOptCPArr  = BInitNull | BCPArr
	BOptPArrE  = BInitNull | BPArrE
	BOptPArrN  = BInitNull | BPArrN
	BOptPArr   = BInitNull | BPArr

	BOptSVArrE = BInitNull | BSVArrE
	BOptCVArrE = BInitNull | BCVArrE
	BOptSVArrN = BInitNull | BSVArrN
	BOptCVArrN = BInitNull | BCVArrN
	BOptSVArr  = BInitNull | BSVArr
	BOptCVArr  = BInitNull | BCVArr
	BOptVArrE  = BInitNull | BVArrE
	BOptVArrN  = BInitNull | BVArrN
	BOptVArr   = BInitNull | BVArr

	BOptSDArrE = BInitNull | BSDArrE
	BOptCDArrE = BInitNull | BCDArrE
	BOptSDArrN = BInitNull | BSDArrN
	BOptCDArrN = BInitNull | BCDArrN
	BOptSDArr  = BInitNull | BSDArr
	BOptCDArr  = BInitNull | BCDArr
	BOptDArrE  = BInitNull | BDArrE
	BOptDArrN  = BInitNull | BDArrN
	BOptDArr   = BInitNull | BDArr

	BUncArrKey    = BInt | BSStr
	BArrKey       = BUncArrKey | BCStr
	BOptUncArrKey = BInitNull | BUncArrKey
	BOptArrKey    = BInitNull | BArrKey

	BInitPrim = BInitNull | BBool | BNum
	BPrim     = BInitPrim | BUninit
	BInitUnc  = BInitPrim | BSStr | BSArr | BSVec | BSDict | BSKeyset
	BUnc      = BInitUnc | BUninit
	BInitCell = BInitNull | BBool | BInt | BDbl | BStr | BArr | BObj | BRes |
		BVec | BDict | BKeyset
	BCell    = BUninit | BInitCell
	BInitGen = BInitCell | BRef
	BGen     = BUninit | BInitGen

	BTop = ^Bits(0)
)

// Masks that cannot occur as types on their own but are convenient when
// testing bits.
const (
	BArrLikeE = BArrE | BVecE | BDictE | BKeysetE
	BArrLikeN = BArrN | BVecN | BDictN | BKeysetN
	BSArrLike = BSArr | BSVec | BSDict | BSKeyset
)

// predefEntry is one row of the allow-list. The optional flag records
// whether the pattern admits an explicit nullable form; data whether a
// payload may be attached.
type predefEntry struct {
	bits     Bits
	name     string
	data     bool
	optional bool
}

// predefTable enumerates every legal bit pattern. Everything else —
// including any counted bit without its static sibling — is rejected by the
// invariant checker. The rows are ordered from the atoms upward; showBits
// relies on an exact-match lookup, not on ordering.
var predefTable = []predefEntry{
	{BBottom, "Bottom", false, false},
	{BUninit, "Uninit", false, false},
	{BInitNull, "InitNull", false, false},
	{BFalse, "False", false, true},
	{BTrue, "True", false, true},
	{BInt, "Int", true, true},
	{BDbl, "Dbl", true, true},
	{BSStr, "SStr", true, true},
	{BSArrE, "SArrE", false, true},
	{BSArrN, "SArrN", true, true},
	{BObj, "Obj", true, true},
	{BRes, "Res", false, true},
	{BCls, "Cls", true, false},
	{BRef, "Ref", true, false},
	{BSVecE, "SVecE", false, true},
	{BSVecN, "SVecN", true, true},
	{BSDictE, "SDictE", false, true},
	{BSDictN, "SDictN", true, true},
	{BSKeysetE, "SKeysetE", false, true},
	{BSKeysetN, "SKeysetN", true, true},
	{BNull, "Null", false, true},
	{BBool, "Bool", false, true},
	{BNum, "Num", false, true},
	{BStr, "Str", false, true},
	{BSArr, "SArr", true, true},
	{BArrE, "ArrE", false, true},
	{BArrN, "ArrN", true, true},
	{BArr, "Arr", true, true},
	{BSVec, "SVec", true, true},
	{BVecE, "VecE", false, true},
	{BVecN, "VecN", true, true},
	{BVec, "Vec", true, true},
	{BSDict, "SDict", true, true},
	{BDictE, "DictE", false, true},
	{BDictN, "DictN", true, true},
	{BDict, "Dict", true, true},
	{BSKeyset, "SKeyset", true, true},
	{BKeysetE, "KeysetE", false, true},
	{BKeysetN, "KeysetN", true, true},
	{BKeyset, "Keyset", true, true},
	{BSPArrE, "SPArrE", false, true},
	{BSPArrN, "SPArrN", true, true},
	{BSPArr, "SPArr", true, true},
	{BPArrE, "PArrE", false, true},
	{BPArrN, "PArrN", true, true},
	{BPArr, "PArr", true, true},
	{BSVArrE, "SVArrE", false, true},
	{BSVArrN, "SVArrN", true, true},
	{BSVArr, "SVArr", true, true},
	{BVArrE, "VArrE", false, true},
	{BVArrN, "VArrN", true, true},
	{BVArr, "VArr", true, true},
	{BSDArrE, "SDArrE", false, true},
	{BSDArrN, "SDArrN", true, true},
	{BSDArr, "SDArr", true, true},
	{BDArrE, "DArrE", false, true},
	{BDArrN, "DArrN", true, true},
	{BDArr, "DArr", true, true},
	{BUncArrKey, "UncArrKey", false, true},
	{BArrKey, "ArrKey", false, true},
	{BInitPrim, "InitPrim", false, false},
	{BPrim, "Prim", false, false},
	{BInitUnc, "InitUnc", false, false},
	{BUnc, "Unc", false, false},
	{BOptTrue, "OptTrue", false, false},
	{BOptFalse, "OptFalse", false, false},
	{BOptBool, "OptBool", false, false},
	{BOptInt, "OptInt", true, false},
	{BOptDbl, "OptDbl", true, false},
	{BOptNum, "OptNum", false, false},
	{BOptSStr, "OptSStr", true, false},
	{BOptStr, "OptStr", false, false},
	{BOptSArrE, "OptSArrE", false, false},
	{BOptSArrN, "OptSArrN", true, false},
	{BOptSArr, "OptSArr", true, false},
	{BOptArrE, "OptArrE", false, false},
	{BOptArrN, "OptArrN", true, false},
	{BOptArr, "OptArr", true, false},
	{BOptObj, "OptObj", true, false},
	{BOptRes, "OptRes", false, false},
	{BOptSVec, "OptSVec", true, false},
	{BOptSVecE, "OptSVecE", false, false},
	{BOptSVecN, "OptSVecN", true, false},
	{BOptVecE, "OptVecE", false, false},
	{BOptVecN, "OptVecN", true, false},
	{BOptVec, "OptVec", true, false},
	{BOptSDict, "OptSDict", true, false},
	{BOptSDictE, "OptSDictE", false, false},
	{BOptSDictN, "OptSDictN", true, false},
	{BOptDictE, "OptDictE", false, false},
	{BOptDictN, "OptDictN", true, false},
	{BOptDict, "OptDict", true, false},
	{BOptSKeyset, "OptSKeyset", true, false},
	{BOptSKeysetE, "OptSKeysetE", false, false},
	{BOptSKeysetN, "OptSKeysetN", true, false},
	{BOptKeysetE, "OptKeysetE", false, false},
	{BOptKeysetN, "OptKeysetN", true, false},
	{BOptKeyset, "OptKeyset", true, false},
	{BOptSPArrE, "OptSPArrE", false, false},
	{BOptSPArrN, "OptSPArrN", true, false},
	{BOptSPArr, "OptSPArr", true, false},
	{BOptPArrE, "OptPArrE", false, false},
	{BOptPArrN, "OptPArrN", true, false},
	{BOptPArr, "OptPArr", true, false},
	{BOptSVArrE, "OptSVArrE", false, false},
	{BOptSVArrN, "OptSVArrN", true, false},
	{BOptSVArr, "OptSVArr", true, false},
	{BOptVArrE, "OptVArrE", false, false},
	{BOptVArrN, "OptVArrN", true, false},
	{BOptVArr, "OptVArr", true, false},
	{BOptSDArrE, "OptSDArrE", false, false},
	{BOptSDArrN, "OptSDArrN", true, false},
	{BOptSDArr, "OptSDArr", true, false},
	{BOptDArrE, "OptDArrE", false, false},
	{BOptDArrN, "OptDArrN", true, false},
	{BOptDArr, "OptDArr", true, false},
	{BOptUncArrKey, "OptUncArrKey", false, false},
	{BOptArrKey, "OptArrKey", false, false},
	{BInitCell, "InitCell", false, false},
	{BCell, "Cell", false, false},
	{BInitGen, "InitGen", false, false},
	{BGen, "Gen", false, false},
	{BTop, "Top", false, false},
}

var (
	predefSet  = make(map[Bits]predefEntry, len(predefTable))
	mayDataSet = make(map[Bits]bool, 256)
)

func init() {
	for _, e := range predefTable {
		if _, dup := predefSet[e.bits]; dup {
			panic("duplicate predefined bit pattern " + e.name)
		}
		predefSet[e.bits] = e
		if e.data {
			mayDataSet[e.bits] = true
		}
	}
	// Counted-only and mixed-countedness combinations may carry data even
	// though they are not themselves constructible patterns; they show up
	// transiently while computing intersections.
	families := []struct{ e, n Bits }{
		{BArrE, BArrN},
		{BPArrE, BPArrN},
		{BVArrE, BVArrN},
		{BDArrE, BDArrN},
		{BVecE, BVecN},
		{BDictE, BDictN},
		{BKeysetE, BKeysetN},
	}
	staticHalf := func(b Bits) Bits { return b & (BSArrLike | BSStr) }
	countedHalf := func(b Bits) Bits { return b &^ staticHalf(b) }
	for _, f := range families {
		all := f.e | f.n
		for _, b := range []Bits{
			all, staticHalf(all), countedHalf(all),
			f.n, staticHalf(f.n), countedHalf(f.n),
		} {
			mayDataSet[b] = true
			mayDataSet[b|BInitNull] = true
		}
	}
}

// isPredefined reports membership in the allow-list.
func isPredefined(bits Bits) bool {
	_, ok := predefSet[bits]
	return ok
}

// mayHaveData reports whether a payload may be attached to the pattern.
// Unlike the other predicates it is legal to call on non-predefined bits.
func mayHaveData(bits Bits) bool {
	return mayDataSet[bits]
}

// canBeOptional reports whether bits|BInitNull is itself a legal pattern
// that Opt may produce. Pre: isPredefined(bits).
func canBeOptional(bits Bits) bool {
	e, ok := predefSet[bits]
	if !ok {
		panic("canBeOptional called on non-predefined bits")
	}
	return e.optional
}

// showBits names a predefined pattern.
func showBits(bits Bits) string {
	if e, ok := predefSet[bits]; ok {
		return e.name
	}
	return "?"
}

//////////////////////////////////////////////////////////////////////

// combineArrishBits ORs two patterns that both lie inside fam (possibly
// with BInitNull); when the family part of the OR is not itself legal it
// widens to the whole family, keeping staticness, emptiness, and null.
func combineArrishBits(fam, a, b Bits) Bits {
	combined := a | b
	assertx(combined&(fam|BInitNull) == combined, "combineArrishBits: bits outside family")
	if !isPredefined(combined & fam) {
		combined |= fam
	}
	assertx(isPredefined(combined), "combineArrishBits left non-predefined bits")
	return combined
}

// combineDVArrishBits combines bits of two different plain-array variants,
// promoting to the narrowest Arr union that keeps the staticness and
// emptiness of the inputs.
func combineDVArrishBits(a, b Bits) Bits {
	combined := a | b
	nonopt := combined &^ BInitNull
	ret := func(x Bits) Bits {
		if combined&BInitNull != 0 {
			return x | BInitNull
		}
		return x
	}
	for _, x := range []Bits{BSArrE, BSArrN, BSArr, BArrE, BArrN, BArr} {
		if nonopt&x == nonopt {
			return ret(x)
		}
	}
	assertx(false, "combineDVArrishBits: bits outside the plain-array family")
	return BBottom
}

func combineArrBits(a, b Bits) Bits    { return combineArrishBits(BArr, a, b) }
func combinePArrBits(a, b Bits) Bits   { return combineArrishBits(BPArr, a, b) }
func combineVArrBits(a, b Bits) Bits   { return combineArrishBits(BVArr, a, b) }
func combineDArrBits(a, b Bits) Bits   { return combineArrishBits(BDArr, a, b) }
func combineVecBits(a, b Bits) Bits    { return combineArrishBits(BVec, a, b) }
func combineDictBits(a, b Bits) Bits   { return combineArrishBits(BDict, a, b) }
func combineKeysetBits(a, b Bits) Bits { return combineArrishBits(BKeyset, a, b) }

// combineArrLikeBits combines a (a valid non-nullable array-like pattern)
// with whatever array-like bits b contributes to a's family. Plain-array
// variants that disagree promote to an Arr union.
func combineArrLikeBits(a, b Bits) Bits {
	check := func(x, of Bits) bool { return x&of == x }
	assertx(a != 0 && isPredefined(a) && !check(a, BInitNull), "combineArrLikeBits: invalid lhs")
	switch {
	case check(a, BOptPArr) && check(b, BOptPArr):
		return combinePArrBits(a, b)
	case check(a, BOptVArr) && check(b, BOptVArr):
		return combineVArrBits(a, b)
	case check(a, BOptDArr) && check(b, BOptDArr):
		return combineDArrBits(a, b)
	case check(a, BOptArr):
		return combineDVArrishBits(a, b&BOptArr)
	case check(a, BOptVec):
		return combineVecBits(a, b&BOptVec)
	case check(a, BOptDict):
		return combineDictBits(a, b&BOptDict)
	case check(a, BOptKeyset):
		return combineKeysetBits(a, b&BOptKeyset)
	}
	assertx(false, "combineArrLikeBits: lhs is not array-like")
	return BBottom
}

// combineDVArrLikeBits is combineArrLikeBits except plain-array variants
// stay separate families and never promote to an Arr union.
func combineDVArrLikeBits(a, b Bits) Bits {
	check := func(x, of Bits) bool { return x&of == x }
	assertx(a != 0 && isPredefined(a) && !check(a, BInitNull), "combineDVArrLikeBits: invalid lhs")
	switch {
	case check(a, BOptPArr):
		return combinePArrBits(a, b&BOptPArr)
	case check(a, BOptVArr):
		return combineVArrBits(a, b&BOptVArr)
	case check(a, BOptDArr):
		return combineDArrBits(a, b&BOptDArr)
	case check(a, BOptArr):
		return combineArrBits(a, b&BOptArr)
	case check(a, BOptVec):
		return combineVecBits(a, b&BOptVec)
	case check(a, BOptDict):
		return combineDictBits(a, b&BOptDict)
	case check(a, BOptKeyset):
		return combineKeysetBits(a, b&BOptKeyset)
	}
	assertx(false, "combineDVArrLikeBits: lhs is not array-like")
	return BBottom
}

// maybePromoteVArr admits the whole plain-array Arr bits (plain, varray and
// darray) matching any varray bits present, without removing the varray ones.
func maybePromoteVArr(a Bits) Bits {
	check := func(b, c Bits) {
		if a&b != 0 {
			a |= c
		}
	}
	assertx(isPredefined(a), "maybePromoteVArr: non-predefined input")
	check(BSVArrE, BSArrE)
	check(BCVArrE, BCArrE)
	check(BSVArrN, BSArrN)
	check(BCVArrN, BCArrN)
	assertx(isPredefined(a), "maybePromoteVArr left non-predefined bits")
	return a
}

// promoteVArr reclassifies varray bits as darray bits, used when an
// operation (eg writing a non-next integer key) forces the variant change.
// When the input is wider than a varray the maybe path keeps the pattern
// legal.
func promoteVArr(a Bits) Bits {
	assertx(isPredefined(a), "promoteVArr: non-predefined input")
	if a&BOptVArr != a {
		return maybePromoteVArr(a)
	}
	check := func(b, c Bits) {
		if a&b != 0 {
			a = (a | c) &^ b
		}
	}
	check(BSVArrE, BSDArrE)
	check(BCVArrE, BCDArrE)
	check(BSVArrN, BSDArrN)
	check(BCVArrN, BCDArrN)
	assertx(isPredefined(a), "promoteVArr left non-predefined bits")
	return a
}
