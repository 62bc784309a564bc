package types

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubtypeReflexive(t *testing.T) {
	for _, a := range corpus(t) {
		assert.True(t, a.SubtypeOf(a), "%s must be a subtype of itself", a)
		assert.False(t, a.StrictSubtypeOf(a), "%s must not be a strict subtype of itself", a)
	}
}

func TestSubtypeAntisymmetric(t *testing.T) {
	ts := corpus(t)
	for _, a := range ts {
		for _, b := range ts {
			if a.SubtypeOf(b) && b.SubtypeOf(a) {
				assert.True(t, a.Equals(b), "%s and %s are mutual subtypes but differ", a, b)
			}
		}
	}
}

func TestSubtypeTransitive(t *testing.T) {
	ts := corpus(t)
	for _, a := range ts {
		for _, b := range ts {
			if !a.SubtypeOf(b) {
				continue
			}
			for _, c := range ts {
				if b.SubtypeOf(c) {
					assert.True(t, a.SubtypeOf(c),
						"%s <: %s <: %s but the ends are unrelated", a, b, c)
				}
			}
		}
	}
}

func TestUnionIsUpperBound(t *testing.T) {
	ts := corpus(t)
	for _, a := range ts {
		for _, b := range ts {
			u := Union(a, b)
			assert.True(t, a.SubtypeOf(u), "%s not below union %s of (%s, %s)", a, u, a, b)
			assert.True(t, b.SubtypeOf(u), "%s not below union %s of (%s, %s)", b, u, a, b)
		}
	}
}

func TestIntersectionIsLowerBound(t *testing.T) {
	ts := corpus(t)
	for _, a := range ts {
		for _, b := range ts {
			i := Intersect(a, b)
			assert.True(t, i.SubtypeOf(a), "intersection %s of (%s, %s) not below %s", i, a, b, a)
			assert.True(t, i.SubtypeOf(b), "intersection %s of (%s, %s) not below %s", i, a, b, b)
		}
	}
}

func TestUnionAndIntersectionCommute(t *testing.T) {
	ts := corpus(t)
	for _, a := range ts {
		for _, b := range ts {
			assert.True(t, Union(a, b).Equals(Union(b, a)),
				"union of %s and %s differs by order: %s vs %s", a, b, Union(a, b), Union(b, a))
			assert.True(t, Intersect(a, b).Equals(Intersect(b, a)),
				"intersection of %s and %s differs by order", a, b)
			assert.Equal(t, a.CouldBe(b), b.CouldBe(a),
				"couldBe of %s and %s differs by order", a, b)
		}
	}
}

func TestCouldBeMatchesIntersection(t *testing.T) {
	ts := corpus(t)
	for _, a := range ts {
		for _, b := range ts {
			nonEmpty := !Intersect(a, b).Equals(TBottom)
			assert.Equal(t, nonEmpty, a.CouldBe(b),
				"couldBe(%s, %s) disagrees with intersection %s", a, b, Intersect(a, b))
		}
	}
}

func TestSubtypeImpliesCouldBe(t *testing.T) {
	ts := corpus(t)
	for _, a := range ts {
		if a.Equals(TBottom) {
			continue
		}
		for _, b := range ts {
			if a.SubtypeOf(b) {
				assert.True(t, a.CouldBe(b), "%s <: %s but couldBe denies it", a, b)
			}
		}
	}
}

func TestWidenIsSupertype(t *testing.T) {
	for _, a := range corpus(t) {
		w := Widen(a)
		assert.True(t, a.SubtypeOf(w), "%s not below its widening %s", a, w)
		assert.True(t, w.Equals(Widen(w)), "widening of %s is not idempotent", a)
	}
}

func TestWideningUnionTerminates(t *testing.T) {
	// Iterating widening-union against ever deeper singletons must reach a
	// fixed point within the widening depth plus slack.
	deeper := func(depth int) Type {
		inner := IVal(int64(depth))
		for i := 0; i < depth; i++ {
			inner = ArrPacked([]Type{inner})
		}
		return inner
	}
	acc := TBottom
	stableAt := -1
	for i := 0; i < kTypeWidenMaxDepth+8; i++ {
		next := WideningUnion(acc, deeper(i))
		if next.Equals(acc) {
			stableAt = i
			break
		}
		acc = next
	}
	require.GreaterOrEqual(t, stableAt, 0,
		"widening union did not stabilize within %d steps (last %s)", kTypeWidenMaxDepth+8, acc)
}

func TestPredefinedPatternsSatisfyChecker(t *testing.T) {
	for _, e := range predefTable {
		e := e
		t.Run(e.name, func(t *testing.T) {
			assert.NotPanics(t, func() { NewType(e.bits) })
			if e.optional {
				assert.True(t, isPredefined(e.bits|BInitNull),
					"optional form of %s must itself be predefined", e.name)
			}
		})
	}
}

func TestCountedBitsRequireStatic(t *testing.T) {
	for _, e := range predefTable {
		pairs := []struct{ c, s Bits }{
			{BCStr, BSStr},
			{BCPArrE, BSPArrE}, {BCPArrN, BSPArrN},
			{BCVArrE, BSVArrE}, {BCVArrN, BSVArrN},
			{BCDArrE, BSDArrE}, {BCDArrN, BSDArrN},
			{BCVecE, BSVecE}, {BCVecN, BSVecN},
			{BCDictE, BSDictE}, {BCDictN, BSDictN},
			{BCKeysetE, BSKeysetE}, {BCKeysetN, BSKeysetN},
		}
		for _, p := range pairs {
			if e.bits&p.c != 0 {
				assert.NotZero(t, e.bits&p.s,
					"%s has a counted bit without its static sibling", e.name)
			}
		}
	}
}

func TestEqualityAgreesWithHash(t *testing.T) {
	ts := corpus(t)
	for _, a := range ts {
		for _, b := range ts {
			if a.Equals(b) {
				assert.Equal(t, a.Hash(), b.Hash(),
					"%s equals %s but hashes differ", a, b)
			}
		}
	}
}

func TestStringsAreStable(t *testing.T) {
	seen := map[string]Type{}
	for _, a := range corpus(t) {
		s := a.String()
		require.NotEmpty(t, s)
		if prev, dup := seen[s]; dup {
			assert.True(t, prev.Equals(a), "distinct types %v and %v render alike as %q",
				prev.bits, a.bits, s)
		}
		seen[s] = a
	}
	assert.Equal(t, "Int=1", IVal(1).String())
	assert.Equal(t, "?Int", TOptInt.String())
	assert.Equal(t, fmt.Sprintf("SStr=%q", "a"), SVal("a").String())
}
