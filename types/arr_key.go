package types

import (
	"github.com/ActindoForks/hhvm/cell"
)

// ArrKey is a disected array key: the literal value when known, the
// effective type the key acts as after coercion, and whether the coercion
// could raise.
type ArrKey struct {
	I *int64
	S *string
	// Type is the effective key type. When the key might coerce to an
	// integer, TInt is part of it; a plain TStr therefore cannot coerce.
	Type Type
	// MayThrow is set when the coercion could raise a notice or error.
	MayThrow bool
}

// TV is the literal key as a value, when fully known.
func (k ArrKey) TV() (cell.Value, bool) {
	assertx(k.I == nil || k.S == nil, "ArrKey with both int and string literal")
	if k.I != nil {
		return cell.Int(*k.I), true
	}
	if k.S != nil {
		return cell.Str(*k.S), true
	}
	return nil, false
}

func intKey(i int64) ArrKey {
	v := i
	return ArrKey{I: &v, Type: IVal(i)}
}

func strKey(s string, t Type) ArrKey {
	v := s
	return ArrKey{S: &v, Type: t}
}

// DisectArrayKey normalizes a key type against plain-array semantics:
// null, bool, double and resource keys coerce to int or string; a string
// that spells an integer acts as that integer. Strange keys (arrays,
// objects) keep their type so the set site can detect them, and always may
// throw.
func DisectArrayKey(keyTy Type) ArrKey {
	var ret ArrKey

	if keyTy.SubtypeOf(TOptInt) {
		if keyTy.SubtypeOf(TInt) {
			if keyTy.StrictSubtypeOf(TInt) {
				return intKey(keyTy.data.(ivalData).v)
			}
			ret.Type = keyTy
			return ret
		}
		// Int or null; null becomes the empty string. Either way the key
		// stays uncounted.
		ret.Type = TUncArrKey
		ret.MayThrow = HackArrCompatNotices
		return ret
	}

	if keyTy.SubtypeOf(TOptStr) {
		if keyTy.SubtypeOf(TStr) {
			if keyTy.StrictSubtypeOf(TStr) && dtag(keyTy.data) == tagStr {
				s := keyTy.data.(svalData).v
				if i, ok := cell.StrictlyInteger(s); ok {
					k := intKey(i)
					k.MayThrow = HackArrCompatNotices
					return k
				}
				return strKey(s, keyTy)
			}
			// Might stay a string or become an integer; uncounted when the
			// string is static.
			if keyTy.SubtypeOf(TSStr) {
				ret.Type = TUncArrKey
			} else {
				ret.Type = TArrKey
			}
			ret.MayThrow = HackArrCompatNotices
			return ret
		}
		// A known string value at least excludes integer-like strings, but
		// the null side may act as the empty string, which is static; an
		// OptCStr must therefore incorporate SStr.
		if keyTy.StrictSubtypeOf(TOptStr) && dtag(keyTy.data) == tagStr {
			if _, isInt := cell.StrictlyInteger(keyTy.data.(svalData).v); !isInt {
				if keyTy.StrictSubtypeOf(TOptSStr) {
					ret.Type = TSStr
				} else {
					ret.Type = TStr
				}
				ret.MayThrow = HackArrCompatNotices
				return ret
			}
		}
		if keyTy.SubtypeOf(TOptSStr) {
			ret.Type = TUncArrKey
		} else {
			ret.Type = TArrKey
		}
		ret.MayThrow = HackArrCompatNotices
		return ret
	}

	if keyTy.SubtypeOf(TOptArrKey) {
		if IsOpt(keyTy) {
			ret.Type = Unopt(keyTy)
		} else {
			ret.Type = keyTy
		}
		return ret
	}

	if keyTy.StrictSubtypeOf(TDbl) {
		k := intKey(cell.DblToInt(keyTy.data.(dvalData).v))
		k.MayThrow = HackArrCompatNotices
		return k
	}
	if keyTy.SubtypeOf(TNum) {
		ret.Type = TInt
		ret.MayThrow = HackArrCompatNotices
		return ret
	}
	if keyTy.SubtypeOf(TNull) {
		k := strKey("", SEmpty())
		k.MayThrow = HackArrCompatNotices
		return k
	}
	if keyTy.SubtypeOf(TRes) {
		ret.Type = TInt
		ret.MayThrow = HackArrCompatNotices
		return ret
	}
	if keyTy.SubtypeOf(TTrue) {
		k := intKey(1)
		k.MayThrow = HackArrCompatNotices
		return k
	}
	if keyTy.SubtypeOf(TFalse) {
		k := intKey(0)
		k.MayThrow = HackArrCompatNotices
		return k
	}
	if keyTy.SubtypeOf(TBool) {
		ret.Type = TInt
		ret.MayThrow = HackArrCompatNotices
		return ret
	}
	if keyTy.SubtypeOf(TPrim) {
		ret.Type = TUncArrKey
		ret.MayThrow = HackArrCompatNotices
		return ret
	}

	// The key could be something strange like an array or an object; keep
	// the type as-is so the set can detect it.
	if !keyTy.SubtypeOf(TInitCell) {
		ret.Type = TInitCell
		ret.MayThrow = true
		return ret
	}
	ret.Type = keyTy
	ret.MayThrow = true
	return ret
}

// DisectVecKey normalizes a key against vector semantics: anything but an
// integer throws.
func DisectVecKey(keyTy Type) ArrKey {
	var ret ArrKey

	if !keyTy.CouldBe(TInt) {
		ret.Type = TBottom
		ret.MayThrow = true
		return ret
	}

	// A null key throws, so assume int for the effective type and flag the
	// throw; this keeps ?Int=123 usable as 123.
	if keyTy.SubtypeOf(TOptInt) {
		if dtag(keyTy.data) == tagInt {
			k := intKey(keyTy.data.(ivalData).v)
			k.MayThrow = !keyTy.SubtypeOf(TInt)
			return k
		}
		ret.Type = TInt
		ret.MayThrow = !keyTy.SubtypeOf(TInt)
		return ret
	}

	ret.Type = TInt
	ret.MayThrow = true
	return ret
}

// DisectStrictKey normalizes a key against dict/keyset semantics: only
// exact int or string keys are accepted, nothing coerces.
func DisectStrictKey(keyTy Type) ArrKey {
	var ret ArrKey

	if !keyTy.CouldBe(TArrKey) {
		ret.Type = TBottom
		ret.MayThrow = true
		return ret
	}

	if keyTy.SubtypeOf(TOptArrKey) {
		switch d := keyTy.data.(type) {
		case ivalData:
			v := d.v
			ret.I = &v
		case svalData:
			v := d.v
			ret.S = &v
		}
		if IsOpt(keyTy) {
			ret.Type = Unopt(keyTy)
		} else {
			ret.Type = keyTy
		}
		ret.MayThrow = !keyTy.SubtypeOf(TArrKey)
		return ret
	}

	ret.Type = TArrKey
	ret.MayThrow = true
	return ret
}
