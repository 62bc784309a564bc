package cell

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSame(t *testing.T) {
	testCases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"ints equal", Int(3), Int(3), true},
		{"ints differ", Int(3), Int(4), false},
		{"kind mismatch", Int(3), Str("3"), false},
		{"strings", Str("a"), Str("a"), true},
		{"bools", Bool(true), Bool(true), true},
		{"null", Null{}, Null{}, true},
		{"uninit vs null", Uninit{}, Null{}, false},
		{"nan equals itself", Dbl(math.NaN()), Dbl(math.NaN()), true},
		{"signed zeroes differ", Dbl(0.0), Dbl(math.Copysign(0, -1)), false},
		{"doubles", Dbl(2.5), Dbl(2.5), true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Same(tc.a, tc.b))
			assert.Equal(t, tc.want, Same(tc.b, tc.a))
		})
	}
}

func TestToBool(t *testing.T) {
	assert.False(t, ToBool(Null{}))
	assert.False(t, ToBool(Int(0)))
	assert.False(t, ToBool(Str("")))
	assert.False(t, ToBool(Str("0")))
	assert.True(t, ToBool(Str("00")))
	assert.True(t, ToBool(Int(-1)))
	assert.True(t, ToBool(Dbl(0.1)))
	assert.False(t, ToBool(Dbl(0)))

	empty := MustArray(Plain, nil)
	assert.False(t, ToBool(empty))
	one := MustArray(Plain, []KV{{Key: Int(0), Val: Int(1)}})
	assert.True(t, ToBool(one))
}

func TestStrictlyInteger(t *testing.T) {
	testCases := []struct {
		in   string
		i    int64
		want bool
	}{
		{"0", 0, true},
		{"42", 42, true},
		{"-5", -5, true},
		{"007", 0, false},
		{"0x1", 0, false},
		{"+1", 0, false},
		{"1.0", 0, false},
		{"", 0, false},
		{"-", 0, false},
		{"-0", 0, false},
		{"9223372036854775807", math.MaxInt64, true},
		{"9223372036854775808", 0, false},
		{"abc", 0, false},
	}
	for _, tc := range testCases {
		i, ok := StrictlyInteger(tc.in)
		assert.Equal(t, tc.want, ok, "input %q", tc.in)
		if tc.want {
			assert.Equal(t, tc.i, i, "input %q", tc.in)
		}
	}
}

func TestDblToInt(t *testing.T) {
	assert.Equal(t, int64(3), DblToInt(3.9))
	assert.Equal(t, int64(-3), DblToInt(-3.9))
	assert.Equal(t, int64(0), DblToInt(math.NaN()))
	assert.Equal(t, int64(math.MinInt64), DblToInt(math.Inf(1)))
	assert.Equal(t, int64(math.MinInt64), DblToInt(1e30))
}

func TestNewArrayValidation(t *testing.T) {
	_, err := NewArray(Plain, []KV{{Key: Dbl(1), Val: Int(1)}})
	require.Error(t, err)

	_, err = NewArray(Plain, []KV{
		{Key: Int(0), Val: Int(1)},
		{Key: Int(0), Val: Int(2)},
	})
	require.Error(t, err)

	_, err = NewArray(Vec, []KV{{Key: Int(1), Val: Int(1)}})
	require.Error(t, err)

	_, err = NewArray(Keyset, []KV{{Key: Int(1), Val: Int(2)}})
	require.Error(t, err)

	_, err = NewArray(Plain, []KV{{Key: Int(0), Val: Uninit{}}})
	require.Error(t, err)

	ar, err := NewArray(Dict, []KV{
		{Key: Str("k"), Val: Int(1)},
		{Key: Int(3), Val: Str("v")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ar.Size())
	v, ok := ar.AtStr("k")
	require.True(t, ok)
	assert.True(t, Same(v, Int(1)))
	_, ok = ar.AtInt(9)
	assert.False(t, ok)
}

func TestArrayIterationOrder(t *testing.T) {
	ar := MustArray(Dict, []KV{
		{Key: Str("b"), Val: Int(1)},
		{Key: Str("a"), Val: Int(2)},
	})
	var keys []Value
	for k := range ar.All() {
		keys = append(keys, k)
	}
	require.Len(t, keys, 2)
	assert.True(t, Same(keys[0], Str("b")))
	assert.True(t, Same(keys[1], Str("a")))
}

func TestArraySame(t *testing.T) {
	a := MustArray(Vec, []KV{{Key: Int(0), Val: Str("x")}})
	b := MustArray(Vec, []KV{{Key: Int(0), Val: Str("x")}})
	c := MustArray(Vec, []KV{{Key: Int(0), Val: Str("y")}})
	assert.True(t, a.Same(b))
	assert.False(t, a.Same(c))
	// Kind participates in identity.
	d := MustArray(VArr, []KV{{Key: Int(0), Val: Str("x")}})
	assert.False(t, a.Same(d))
	assert.Equal(t, KVec, a.Kind())
	assert.Equal(t, KArr, d.Kind())
}
