package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ActindoForks/hhvm/cell"
)

func TestMapWithPackedKeysNormalizes(t *testing.T) {
	// A single entry keyed by integer zero is the one-element packed shape.
	m := MapElems{}
	m.add(cell.Int(0), TStr)
	ty := ArrMap(m)
	assert.Equal(t, tagPacked, dtag(ty.data))
	assert.True(t, ty.Equals(ArrPacked([]Type{TStr})))

	// Contiguous keys 0,1 normalize too.
	m2 := MapElems{}
	m2.add(cell.Int(0), TStr)
	m2.add(cell.Int(1), TInt)
	assert.Equal(t, tagPacked, dtag(ArrMap(m2).data))

	// A gap keeps the map shape.
	m3 := MapElems{}
	m3.add(cell.Int(0), TStr)
	m3.add(cell.Int(2), TInt)
	assert.Equal(t, tagMap, dtag(ArrMap(m3).data))

	// A known key collapses the homogeneous keyed form to a map (and then
	// to packed when the key is zero).
	ty = mapNImpl(BPArrN, IVal(0), TStr)
	assert.Equal(t, tagPacked, dtag(ty.data))
}

func TestPackedSubtypingAcrossShapes(t *testing.T) {
	// Fixed shapes relate to homogeneous shapes element-wise.
	assert.True(t, ArrPacked([]Type{TInt, TStr}).SubtypeOf(ArrPackedN(TArrKey)))
	assert.False(t, ArrPackedN(TInt).SubtypeOf(ArrPacked([]Type{TInt})))
	assert.True(t, ArrPacked([]Type{TInt}).SubtypeOf(ArrMapN(TInt, TNum)))
	assert.False(t, ArrPacked([]Type{TInt, TStr}).SubtypeOf(ArrPackedN(TInt)))

	// Maps never contain packed arrays and vice versa.
	m := MapElems{}
	m.add(cell.Str("k"), TInt)
	assert.False(t, ArrPacked([]Type{TInt}).SubtypeOf(ArrMap(m)))
	assert.False(t, ArrMap(m).SubtypeOf(ArrPackedN(TInt)))
	assert.False(t, ArrPacked([]Type{TInt}).CouldBe(ArrMap(m)))
	assert.True(t, Intersect(ArrPacked([]Type{TInt}), ArrMap(m)).Equals(TBottom))
}

func TestOptRoundTrip(t *testing.T) {
	for _, ty := range []Type{TInt, TStr, TObj, TArr, IVal(4), SVal("s")} {
		o := Opt(ty)
		require.True(t, IsOpt(o), "%s should be optional", o)
		assert.True(t, Unopt(o).Equals(ty))
		assert.True(t, TInitNull.SubtypeOf(o))
	}
	assert.False(t, IsOpt(TInitNull))
	assert.False(t, IsOpt(TInitCell))
	assert.False(t, IsOpt(TInt))
}

func TestSpecializationQueries(t *testing.T) {
	cls := newTestClasses(t)

	obj := SubObj(cls.a)
	require.True(t, IsSpecializedObj(obj))
	assert.Equal(t, Sub, DObjOf(obj).Tag)
	assert.True(t, ObjCls(obj).Equals(SubCls(cls.a)))
	assert.True(t, ObjCls(TObj).Equals(TCls))

	exact := ObjExact(cls.leaf)
	assert.Equal(t, Exact, DObjOf(exact).Tag)
	assert.True(t, ObjCls(exact).Equals(ClsExact(cls.leaf)))

	// A final class resolves a sub constraint to exact.
	assert.Equal(t, Exact, DObjOf(SubObj(cls.leaf)).Tag)

	assert.True(t, IsSpecializedArray(ArrPackedN(TInt)))
	assert.False(t, IsSpecializedArray(Vec([]Type{TInt})))
	assert.True(t, IsSpecializedVec(Vec([]Type{TInt})))
	assert.False(t, IsSpecializedArray(TArr))

	ref := RefTo(TInt)
	assert.True(t, IsRefWithInner(ref))
	assert.False(t, IsRefWithInner(TRef))
}

func TestWaitHandleCarriesInner(t *testing.T) {
	cls := newTestClasses(t)
	wh := WaitHandle(cls.idx, TInt)
	require.True(t, IsSpecializedWaitHandle(wh))
	assert.True(t, WaitHandleInner(wh).Equals(TInt))
	assert.True(t, wh.SubtypeOf(TObj))

	// The inner type participates in subtyping.
	whNum := WaitHandle(cls.idx, TNum)
	assert.True(t, wh.SubtypeOf(whNum))
	assert.False(t, whNum.SubtypeOf(wh))

	// An object of the same class without inner tracking is wider.
	bare := SubObj(cls.idx.WaitHandleClass())
	assert.True(t, wh.SubtypeOf(bare))
	assert.False(t, bare.SubtypeOf(wh))
	assert.False(t, IsSpecializedWaitHandle(bare))
}

func TestInvariantCheckerRejectsIllegalPatterns(t *testing.T) {
	// A counted bit without its static sibling is not predefined.
	assert.Panics(t, func() { NewType(BCStr) })
	assert.Panics(t, func() { NewType(BCVecN) })
	assert.Panics(t, func() { NewType(BInt | BObj) })
	// Keyset shapes must be their own keys.
	assert.Panics(t, func() { mapNImpl(BKeysetN, TInt, TStr) })
	// Reference inners cannot admit references.
	assert.Panics(t, func() { RefTo(TGen) })
}

func TestMapElemsPreserveInsertionOrder(t *testing.T) {
	m := MapElems{}
	m.add(cell.Str("z"), TInt)
	m.add(cell.Str("a"), TStr)
	idx, added := m.add(cell.Str("z"), TDbl)
	assert.False(t, added)
	assert.Equal(t, 0, idx)
	require.Len(t, m, 2)
	assert.True(t, cell.Same(m[0].Key, cell.Str("z")))
	assert.True(t, cell.Same(m[1].Key, cell.Str("a")))
}

func TestSharedPayloadsAreNotAliased(t *testing.T) {
	base := ArrPacked([]Type{TStr})
	// Writing through a derived value must not disturb the original.
	derived, _ := ArraySet(base, IVal(0), TInt)
	assert.True(t, base.Equals(ArrPacked([]Type{TStr})), "base mutated to %s", base)
	assert.True(t, derived.Equals(ArrPacked([]Type{TInt})))

	appended, _ := ArrayNewElem(base, TInt)
	assert.True(t, base.Equals(ArrPacked([]Type{TStr})))
	assert.True(t, appended.Equals(ArrPacked([]Type{TStr, TInt})))
}
