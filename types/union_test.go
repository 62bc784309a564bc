package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ActindoForks/hhvm/cell"
)

func TestUnionOfLiterals(t *testing.T) {
	assert.True(t, Union(IVal(1), IVal(2)).Equals(TInt))
	assert.True(t, Union(IVal(1), IVal(1)).Equals(IVal(1)))
	assert.True(t, Union(SVal("a"), SVal("b")).Equals(TSStr))
	assert.True(t, Union(IVal(1), SVal("a")).Equals(TUncArrKey))
	assert.True(t, Union(TTrue, TFalse).Equals(TBool))
	assert.True(t, Union(TInt, TDbl).Equals(TNum))
}

func TestIntersectionOfLiterals(t *testing.T) {
	assert.True(t, Intersect(IVal(1), TInt).Equals(IVal(1)))
	assert.True(t, Intersect(IVal(1), IVal(2)).Equals(TBottom))
	assert.True(t, Intersect(TInt, TStr).Equals(TBottom))
	assert.True(t, Intersect(TOptInt, TOptStr).Equals(TInitNull))
}

func TestUnionWithNullPreservesSpecialization(t *testing.T) {
	cls := newTestClasses(t)
	u := Union(TInitNull, SubObj(cls.a))
	assert.True(t, IsOpt(u))
	require.True(t, IsSpecializedObj(u))
	assert.True(t, DObjOf(u).Cls.Same(cls.a))

	u = Union(Opt(IVal(1)), IVal(1))
	assert.True(t, u.Equals(Opt(IVal(1))))
}

func TestUnionOfObjectsUsesCommonAncestor(t *testing.T) {
	cls := newTestClasses(t)

	u := Union(SubObj(cls.a), SubObj(cls.b))
	require.True(t, IsSpecializedObj(u))
	d := DObjOf(u)
	assert.Equal(t, Sub, d.Tag)
	assert.True(t, d.Cls.Same(cls.base))

	// No common ancestor: generic object.
	assert.True(t, Union(SubObj(cls.a), SubObj(cls.unrelated)).Equals(TObj))

	// Optionality survives the ancestor merge.
	u = Union(Opt(SubObj(cls.a)), SubObj(cls.b))
	assert.True(t, IsOpt(u))
	require.True(t, IsSpecializedObj(u))
	assert.True(t, DObjOf(u).Cls.Same(cls.base))

	// Classes behave alike.
	uc := Union(SubCls(cls.a), ClsExact(cls.b))
	require.True(t, IsSpecializedCls(uc))
	assert.True(t, DClsOf(uc).Cls.Same(cls.base))
}

func TestUnionOfWaitHandlesMergesInner(t *testing.T) {
	cls := newTestClasses(t)
	wh := Union(WaitHandle(cls.idx, TInt), WaitHandle(cls.idx, TStr))
	require.True(t, IsSpecializedWaitHandle(wh))
	assert.True(t, WaitHandleInner(wh).Equals(Union(TInt, TStr)))

	opt := Union(WaitHandle(cls.idx, TInt), TInitNull)
	assert.True(t, IsOpt(opt))
	require.True(t, IsSpecializedWaitHandle(opt))
	assert.True(t, WaitHandleInner(opt).Equals(TInt))
}

func TestIntersectionOfObjects(t *testing.T) {
	cls := newTestClasses(t)

	// Exact below an open constraint keeps the exact side.
	i := Intersect(ObjExact(cls.leaf), SubObj(cls.a))
	require.True(t, IsSpecializedObj(i))
	assert.Equal(t, Exact, DObjOf(i).Tag)
	assert.True(t, DObjOf(i).Cls.Same(cls.leaf))

	// Disjoint concrete classes meet at bottom.
	assert.True(t, Intersect(SubObj(cls.a), SubObj(cls.b)).Equals(TBottom))

	// An interface constraint does not narrow a concrete one.
	i = Intersect(SubObj(cls.iface), SubObj(cls.a))
	require.True(t, IsSpecializedObj(i))
	assert.True(t, DObjOf(i).Cls.Same(cls.a))
}

func TestUnionOfArrayShapes(t *testing.T) {
	// Same-length packed shapes join element-wise.
	u := Union(ArrPacked([]Type{IVal(1)}), ArrPacked([]Type{IVal(2)}))
	assert.True(t, u.Equals(ArrPacked([]Type{TInt})))

	// Different lengths fall back to the homogeneous shape.
	u = Union(ArrPacked([]Type{TInt}), ArrPacked([]Type{TInt, TInt}))
	assert.True(t, u.Equals(ArrPackedN(TInt)))

	// Packed against map gives the homogeneous keyed form.
	m := MapElems{}
	m.add(cell.Str("k"), TStr)
	u = Union(ArrPacked([]Type{TInt}), ArrMap(m))
	require.True(t, dtag(u.data) == tagMapN)

	// An empty same-family side keeps the specialization.
	u = Union(Vec([]Type{TInt}), SomeVecEmpty())
	require.True(t, dtag(u.data) == tagPacked)
	assert.Equal(t, BVec, u.bits)
}

func TestPromoteEmptyish(t *testing.T) {
	cls := newTestClasses(t)
	obj := SubObj(cls.a)
	assert.True(t, PromoteEmptyish(TInitNull, obj).Equals(obj))
	assert.True(t, PromoteEmptyish(SEmpty(), obj).Equals(obj))
	assert.True(t, PromoteEmptyish(TFalse, obj).Equals(obj))

	got := PromoteEmptyish(TOptInt, obj)
	assert.True(t, TInt.SubtypeOf(got))
	assert.True(t, obj.SubtypeOf(got))
	assert.True(t, got.Equals(TInitCell))
}
