package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ActindoForks/hhvm/cell"
)

func TestArrayElemOnPacked(t *testing.T) {
	arr := ArrPacked([]Type{TStr, TInt})

	ty, mode := ArrayElem(arr, IVal(1))
	assert.True(t, ty.Equals(TInt))
	assert.Equal(t, ThrowNone, mode)

	// Out of range on a plain array reads null and may miss.
	ty, mode = ArrayElem(arr, IVal(5))
	assert.True(t, ty.Equals(TInitNull))
	assert.Equal(t, ThrowMaybeMissingElement, mode)

	// Same read on a vec faults.
	vec := Vec([]Type{TStr, TInt})
	ty, mode = VecElem(vec, IVal(5))
	assert.True(t, ty.Equals(TBottom))
	assert.Equal(t, ThrowBadOperation, mode)

	// Unknown integer key unions the elements.
	ty, _ = ArrayElem(arr, TInt)
	assert.True(t, Union(TStr, TInt).SubtypeOf(ty))
}

func TestArrayElemOnMapShapes(t *testing.T) {
	m := MapElems{}
	m.add(cell.Str("a"), TInt)
	m.add(cell.Str("b"), TStr)
	arr := ArrMap(m)

	ty, mode := ArrayElem(arr, SVal("a"))
	assert.True(t, ty.Equals(TInt))
	assert.Equal(t, ThrowNone, mode)

	ty, mode = ArrayElem(arr, SVal("zzz"))
	assert.True(t, ty.Equals(TInitNull))
	assert.Equal(t, ThrowMaybeMissingElement, mode)

	// Key kind filtering: an integer key cannot hit string-keyed entries.
	ty, _ = ArrayElem(arr, TInt)
	assert.True(t, ty.Equals(TInitNull))

	mapN := ArrMapN(TInt, TStr)
	ty, _ = ArrayElem(mapN, TInt)
	assert.True(t, ty.Equals(Union(TStr, TInitNull)))
}

func TestArrayElemOnConstantContainers(t *testing.T) {
	ar := mustArr(t, cell.Plain, []cell.KV{
		{Key: cell.Int(0), Val: cell.Str("x")},
		{Key: cell.Str("k"), Val: cell.Int(7)},
	})
	arr := AVal(ar)

	ty, mode := ArrayElem(arr, IVal(0))
	assert.True(t, ty.Equals(SVal("x")))
	assert.Equal(t, ThrowNone, mode)

	ty, mode = ArrayElem(arr, SVal("k"))
	assert.True(t, ty.Equals(IVal(7)))
	assert.Equal(t, ThrowNone, mode)

	ty, mode = ArrayElem(arr, IVal(9))
	assert.True(t, ty.Equals(TInitNull))
	assert.Equal(t, ThrowMaybeMissingElement, mode)
}

func TestArraySetOnPacked(t *testing.T) {
	arr := ArrPacked([]Type{TStr})

	// Append at the current length stays packed.
	got, mode := ArraySet(arr, IVal(1), TInt)
	assert.True(t, got.Equals(ArrPacked([]Type{TStr, TInt})))
	assert.Equal(t, ThrowNone, mode)

	// Replace in range.
	got, _ = ArraySet(arr, IVal(0), TInt)
	assert.True(t, got.Equals(ArrPacked([]Type{TInt})))

	// A gap forces a map shape.
	got, _ = ArraySet(arr, IVal(5), TInt)
	require.Equal(t, tagMap, dtag(got.data))
	n, known := ArrSize(got)
	require.True(t, known)
	assert.Equal(t, int64(2), n)

	// A string key forces a map shape too.
	got, _ = ArraySet(arr, SVal("k"), TInt)
	require.Equal(t, tagMap, dtag(got.data))
}

func TestVecSetRejectsBadKeys(t *testing.T) {
	vec := Vec([]Type{TStr})

	_, mode := VecSet(vec, SVal("k"), TInt)
	assert.Equal(t, ThrowBadOperation, mode)

	got, mode := VecSet(vec, IVal(5), TInt)
	assert.True(t, got.Equals(TBottom))
	assert.Equal(t, ThrowBadOperation, mode)

	got, mode = VecSet(vec, IVal(0), TInt)
	assert.Equal(t, ThrowNone, mode)
	assert.True(t, got.Equals(Vec([]Type{TInt})))
}

func TestKeysetOperations(t *testing.T) {
	// Keyed writes are never legal.
	_, mode := KeysetSet(TKeyset, IVal(0), TInt)
	assert.Equal(t, ThrowBadOperation, mode)

	// Appending inserts the value as its own key.
	got, key := KeysetNewElem(KeysetEmpty(), SVal("k"))
	assert.True(t, key.Equals(SVal("k")))
	assert.True(t, got.SubtypeOf(TKeysetN))

	got, key = KeysetNewElem(KeysetN(TInt), IVal(3))
	assert.True(t, key.Equals(IVal(3)))
	assert.True(t, got.SubtypeOf(TKeysetN))
}

func TestArrayNewElem(t *testing.T) {
	got, key := ArrayNewElem(AEmpty(), TStr)
	assert.True(t, key.Equals(IVal(0)))
	assert.True(t, got.Equals(packedImpl(BPArrN, []Type{TStr})))

	got, key = ArrayNewElem(ArrPacked([]Type{TInt}), TStr)
	assert.True(t, key.Equals(IVal(1)))
	assert.True(t, got.Equals(ArrPacked([]Type{TInt, TStr})))

	m := MapElems{}
	m.add(cell.Str("a"), TInt)
	m.add(cell.Int(7), TStr)
	got, key = ArrayNewElem(ArrMap(m), TDbl)
	assert.True(t, key.Equals(IVal(8)))
	n, known := ArrSize(got)
	require.True(t, known)
	assert.Equal(t, int64(3), n)
}

func TestSetThenElemIsSupertypeOfWritten(t *testing.T) {
	bases := []Type{
		ArrPacked([]Type{TStr}),
		ArrPackedN(TInt),
		ArrMapN(TInt, TStr),
		AEmpty(),
	}
	keys := []Type{IVal(0), IVal(1), SVal("k")}
	vals := []Type{TInt, SVal("v"), TInitCell}
	for _, base := range bases {
		for _, key := range keys {
			for _, val := range vals {
				set, mode := ArraySet(base, key, val)
				if mode == ThrowBadOperation || set.Equals(TBottom) {
					continue
				}
				got, _ := ArrayElem(set, key)
				assert.True(t, val.SubtypeOf(got),
					"wrote %s at %s into %s, read back %s", val, key, base, got)
			}
		}
	}
}

func TestDisectArrayKeyCoercions(t *testing.T) {
	prev := HackArrCompatNotices
	defer func() { HackArrCompatNotices = prev }()

	for _, notices := range []bool{false, true} {
		HackArrCompatNotices = notices

		k := DisectArrayKey(IVal(3))
		require.NotNil(t, k.I)
		assert.Equal(t, int64(3), *k.I)
		assert.False(t, k.MayThrow)

		// An integer-looking string acts as the integer.
		k = DisectArrayKey(SVal("42"))
		require.NotNil(t, k.I)
		assert.Equal(t, int64(42), *k.I)
		assert.Equal(t, notices, k.MayThrow)

		k = DisectArrayKey(SVal("x"))
		require.NotNil(t, k.S)
		assert.Equal(t, "x", *k.S)
		assert.False(t, k.MayThrow)

		// Doubles truncate toward zero; the flag decides the observable.
		k = DisectArrayKey(DVal(3.7))
		require.NotNil(t, k.I)
		assert.Equal(t, int64(3), *k.I)
		assert.Equal(t, notices, k.MayThrow)

		// Null becomes the empty string.
		k = DisectArrayKey(TNull)
		require.NotNil(t, k.S)
		assert.Equal(t, "", *k.S)

		// An initialized null alone takes the int-or-null path, which only
		// pins the uncounted key domain.
		k = DisectArrayKey(TInitNull)
		assert.Nil(t, k.S)
		assert.True(t, k.Type.Equals(TUncArrKey))

		// Bool literals coerce to 0/1.
		k = DisectArrayKey(TTrue)
		require.NotNil(t, k.I)
		assert.Equal(t, int64(1), *k.I)

		// Strange keys stay as-is and always may throw.
		k = DisectArrayKey(TArr)
		assert.True(t, k.MayThrow)
	}
}

func TestDisectStrictKey(t *testing.T) {
	k := DisectStrictKey(SVal("a"))
	require.NotNil(t, k.S)
	assert.False(t, k.MayThrow)

	k = DisectStrictKey(Opt(IVal(2)))
	require.NotNil(t, k.I)
	assert.True(t, k.MayThrow)
	assert.True(t, k.Type.Equals(IVal(2)))

	k = DisectStrictKey(TDbl)
	assert.True(t, k.Type.Equals(TBottom))
	assert.True(t, k.MayThrow)
}

func TestIterTypes(t *testing.T) {
	it := IterTypesOf(ArrPacked([]Type{TInt, TStr}))
	assert.True(t, it.Key.Equals(TInt))
	assert.True(t, it.Value.Equals(Union(TInt, TStr)))
	assert.Equal(t, IterNonEmpty, it.Count)
	assert.False(t, it.MayThrowOnInit)

	it = IterTypesOf(ArrPackedN(TInt))
	assert.Equal(t, IterNonEmpty, it.Count)
	assert.True(t, it.Value.Equals(TInt))

	it = IterTypesOf(SomeVecEmpty())
	assert.Equal(t, IterEmpty, it.Count)
	assert.True(t, it.Key.Equals(TBottom))

	it = IterTypesOf(Opt(ArrPackedN(TInt)))
	assert.Equal(t, IterAny, it.Count)
	assert.True(t, it.MayThrowOnInit)

	it = IterTypesOf(SArrPacked([]Type{IVal(7)}))
	assert.Equal(t, IterSingle, it.Count)
	assert.True(t, it.Value.Equals(IVal(7)))

	it = IterTypesOf(TInt)
	assert.Equal(t, IterEmpty, it.Count)
	assert.True(t, it.MayThrowOnInit)

	it = IterTypesOf(TSDict)
	assert.True(t, it.Key.Equals(TUncArrKey))
	assert.True(t, it.Value.Equals(TInitUnc))
}

func TestCouldCopyOnWrite(t *testing.T) {
	assert.True(t, CouldCopyOnWrite(TStr))
	assert.True(t, CouldCopyOnWrite(TArrN))
	assert.False(t, CouldCopyOnWrite(TSStr))
	assert.False(t, CouldCopyOnWrite(TInt))
}

func TestCouldRunDestructor(t *testing.T) {
	cls := newTestClasses(t)
	assert.True(t, CouldRunDestructor(SubObj(cls.a)))
	assert.True(t, CouldRunDestructor(TRef))
	assert.False(t, CouldRunDestructor(TInt))
	assert.False(t, CouldRunDestructor(TSArrN))
	assert.False(t, CouldRunDestructor(ArrPacked([]Type{TInt})))
	assert.True(t, CouldRunDestructor(ArrPacked([]Type{TObj})))
	assert.False(t, CouldRunDestructor(RefTo(TInt)))
	assert.True(t, CouldRunDestructor(RefTo(TObj)))
}
