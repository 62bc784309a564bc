package types

// widenImpl strips specialization nested deeper than the fixed limit so
// chains of unions cannot grow a type forever. Scalar, class and object
// payloads are left alone; wait-handle inners, reference inners, packed
// elements and map values are walked.
func widenImpl(t Type, depth int) Type {
	checkDepth := func() bool {
		return depth >= kTypeWidenMaxDepth
	}

	switch d := t.data.(type) {
	case nil, svalData, ivalData, dvalData, *clsData, avalData:
		return t

	case *objData:
		if d.wh != nil {
			nd := d.copy()
			wh := widenImpl(*d.wh, depth+1)
			nd.wh = &wh
			t.data = nd
		}
		return t

	case *refData:
		nd := d.copy()
		nd.inner = widenImpl(d.inner, depth+1)
		t.data = nd
		return t

	case *packedData:
		if checkDepth() {
			return Type{bits: t.bits}
		}
		nd := d.copy()
		for i := range nd.elems {
			nd.elems[i] = widenImpl(nd.elems[i], depth+1)
		}
		t.data = nd
		return t

	case *packedNData:
		if checkDepth() {
			return Type{bits: t.bits}
		}
		nd := d.copy()
		nd.elem = widenImpl(nd.elem, depth+1)
		t.data = nd
		return t

	case *mapData:
		if checkDepth() {
			return Type{bits: t.bits}
		}
		nd := d.copy()
		for i := range nd.elems {
			nd.elems[i].Val = widenImpl(nd.elems[i].Val, depth+1)
		}
		t.data = nd
		return t

	case *mapNData:
		if checkDepth() {
			return Type{bits: t.bits}
		}
		nd := d.copy()
		// The key is at worst ArrKey, which needs no widening.
		nd.val = widenImpl(nd.val, depth+1)
		t.data = nd
		return t
	}

	assertx(false, "widen on unknown payload")
	return t
}

// Widen returns a supertype of t whose chains under Union are finite.
func Widen(t Type) Type {
	return widenImpl(t, 0)
}

// WideningUnion is the join fixed-point iteration must use: every chain of
// successive applications reaches a stable point.
func WideningUnion(a, b Type) Type {
	if a.SubtypeOf(b) {
		return b
	}
	if b.SubtypeOf(a) {
		return a
	}
	return Widen(Union(a, b))
}
