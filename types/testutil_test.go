package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ActindoForks/hhvm/cell"
	"github.com/ActindoForks/hhvm/index"
)

// testClasses is a small closed-world hierarchy shared by the tests:
//
//	Base ── A ── Leaf (final)
//	   └─── B
//	   └─── Impl (implements IFace)
//	Unrelated
//	Magic (declares a boolean conversion)
//	IFace (interface)
type testClasses struct {
	idx              *index.Hierarchy
	base, a, b, leaf index.Class
	unrelated, magic index.Class
	iface, impl      index.Class
}

func newTestClasses(t *testing.T) testClasses {
	t.Helper()
	h := index.NewHierarchy()
	require.NoError(t, h.Register("Base", "", nil, index.ClassFlags{}))
	require.NoError(t, h.Register("A", "Base", nil, index.ClassFlags{}))
	require.NoError(t, h.Register("B", "Base", nil, index.ClassFlags{}))
	require.NoError(t, h.Register("Leaf", "A", nil, index.ClassFlags{Final: true}))
	require.NoError(t, h.Register("Unrelated", "", nil, index.ClassFlags{}))
	require.NoError(t, h.Register("Magic", "", nil, index.ClassFlags{MagicBool: true}))
	require.NoError(t, h.Register("IFace", "", nil, index.ClassFlags{Interface: true}))
	require.NoError(t, h.Register("Impl", "Base", []string{"IFace"}, index.ClassFlags{}))

	resolve := func(name string) index.Class {
		c, ok := h.Resolve(name)
		require.True(t, ok, "class %s must resolve", name)
		return c
	}
	return testClasses{
		idx:       h,
		base:      resolve("Base"),
		a:         resolve("A"),
		b:         resolve("B"),
		leaf:      resolve("Leaf"),
		unrelated: resolve("Unrelated"),
		magic:     resolve("Magic"),
		iface:     resolve("IFace"),
		impl:      resolve("Impl"),
	}
}

func mustArr(t *testing.T, kind cell.ArrayKind, kvs []cell.KV) *cell.Array {
	t.Helper()
	a, err := cell.NewArray(kind, kvs)
	require.NoError(t, err)
	return a
}

// corpus is a spread of well-formed lattice points the law tests quantify
// over.
func corpus(t *testing.T) []Type {
	t.Helper()
	cls := newTestClasses(t)

	packedVal := mustArr(t, cell.Plain, []cell.KV{
		{Key: cell.Int(0), Val: cell.Int(1)},
		{Key: cell.Int(1), Val: cell.Int(2)},
	})
	structVal := mustArr(t, cell.Plain, []cell.KV{
		{Key: cell.Str("x"), Val: cell.Int(1)},
	})
	vecVal := mustArr(t, cell.Vec, []cell.KV{
		{Key: cell.Int(0), Val: cell.Str("a")},
	})
	dictVal := mustArr(t, cell.Dict, []cell.KV{
		{Key: cell.Str("k"), Val: cell.Int(1)},
		{Key: cell.Int(0), Val: cell.Int(2)},
	})
	keysetVal := mustArr(t, cell.Keyset, []cell.KV{
		{Key: cell.Int(5), Val: cell.Int(5)},
		{Key: cell.Str("a"), Val: cell.Str("a")},
	})

	structMap := MapElems{}
	structMap.add(cell.Str("a"), TInt)
	structMap.add(cell.Str("b"), TStr)
	dictElems := MapElems{}
	dictElems.add(cell.Str("k"), TInt)

	return []Type{
		TBottom, TUninit, TInitNull, TTrue, TFalse, TBool,
		TInt, TDbl, TNum, TSStr, TStr, TRes, TCls, TRef,
		TArrE, TArrN, TArr, TSArr, TPArrN, TVArrN, TDArr,
		TVec, TVecN, TDict, TKeyset, TKeysetN,
		TOptInt, TOptStr, TUncArrKey, TArrKey,
		TInitPrim, TInitUnc, TInitCell, TCell, TInitGen, TGen, TTop,
		IVal(0), IVal(1), IVal(2), DVal(0), DVal(2.5),
		SVal(""), SVal("a"), SVal("123"),
		Opt(IVal(1)), Opt(SVal("a")),
		AVal(packedVal), AVal(structVal),
		VecVal(vecVal), DictVal(dictVal), KeysetVal(keysetVal),
		ArrPacked([]Type{TInt, TStr}),
		SArrPacked([]Type{IVal(1)}),
		ArrPackedN(TInt),
		ArrMap(structMap),
		ArrMapN(TInt, TStr),
		ArrMapN(TArrKey, TInitCell),
		Vec([]Type{TInt}),
		VecN(TStr),
		DictMap(dictElems),
		DictN(TArrKey, TInitCell),
		KeysetN(TInt),
		SubObj(cls.a), SubObj(cls.b), ObjExact(cls.leaf), SubObj(cls.iface),
		Opt(SubObj(cls.a)),
		SubCls(cls.a), ClsExact(cls.b),
		RefTo(TInt), RefTo(TDbl),
		WaitHandle(cls.idx, TInt), WaitHandle(cls.idx, TStr),
	}
}
