package types

import (
	"math"

	"github.com/ActindoForks/hhvm/cell"
	"github.com/ActindoForks/hhvm/util"
)

// dataTag identifies the payload variant for dispatch.
type dataTag uint8

const (
	tagNone dataTag = iota
	tagInt
	tagDbl
	tagStr
	tagArrVal
	tagObj
	tagCls
	tagRefInner
	tagPacked
	tagPackedN
	tagMap
	tagMapN
)

func dtag(d data) dataTag {
	switch d.(type) {
	case nil:
		return tagNone
	case ivalData:
		return tagInt
	case dvalData:
		return tagDbl
	case svalData:
		return tagStr
	case avalData:
		return tagArrVal
	case *objData:
		return tagObj
	case *clsData:
		return tagCls
	case *refData:
		return tagRefInner
	case *packedData:
		return tagPacked
	case *packedNData:
		return tagPackedN
	case *mapData:
		return tagMap
	case *mapNData:
		return tagMapN
	}
	assertx(false, "unknown payload variant")
	return tagNone
}

// specRank orders the array-shape variants for the commutative dispatch
// shuffle: the lower rank always comes first, so only the upper triangle of
// the variant matrix needs cases.
func specRank(d data) int {
	switch d.(type) {
	case *packedData:
		return 0
	case *packedNData:
		return 1
	case *mapData:
		return 2
	case *mapNData:
		return 3
	case avalData:
		return 4
	}
	return -1
}

//////////////////////////////////////////////////////////////////////
// Reifying constant containers into shape descriptions. A false return is
// not conservative: it means the container definitely does not have that
// shape.

func toPacked(ar *cell.Array) ([]Type, bool) {
	assertx(ar.Size() > 0, "toPacked on empty container")
	elems := make([]Type, 0, ar.Size())
	idx := int64(0)
	for k, v := range ar.All() {
		ki, ok := k.(cell.Int)
		if !ok || int64(ki) != idx {
			return nil, false
		}
		idx++
		elems = append(elems, FromCell(v))
	}
	return elems, true
}

func toPackedN(ar *cell.Array) (Type, bool) {
	assertx(ar.Size() > 0, "toPackedN on empty container")
	t := TBottom
	idx := int64(0)
	for k, v := range ar.All() {
		ki, ok := k.(cell.Int)
		if !ok || int64(ki) != idx {
			return Type{}, false
		}
		idx++
		t = Union(t, FromCell(v))
	}
	return t, true
}

func toMap(ar *cell.Array) (MapElems, bool) {
	assertx(ar.Size() > 0, "toMap on empty container")
	m := MapElems{}
	idx := int64(0)
	packed := true
	for k, v := range ar.All() {
		if packed {
			ki, ok := k.(cell.Int)
			packed = ok && int64(ki) == idx
			idx++
		}
		m.add(k, FromCell(v))
	}
	if packed {
		return nil, false
	}
	return m, true
}

func toMapN(ar *cell.Array) (Type, Type, bool) {
	assertx(ar.Size() > 0, "toMapN on empty container")
	k, v := TBottom, TBottom
	idx := int64(0)
	packed := true
	for key, val := range ar.All() {
		k = Union(k, FromCell(key))
		v = Union(v, FromCell(val))
		if packed {
			ki, ok := key.(cell.Int)
			packed = ok && int64(ki) == idx
			idx++
		}
	}
	if packed {
		return Type{}, Type{}, false
	}
	if _, known := TV(k); known {
		return Type{}, Type{}, false
	}
	return k, v, true
}

//////////////////////////////////////////////////////////////////////
// Element-wise helpers.

func subtypePacked(a, b *packedData) bool {
	if len(a.elems) != len(b.elems) {
		return false
	}
	for i := range a.elems {
		if !a.elems[i].SubtypeOf(b.elems[i]) {
			return false
		}
	}
	return true
}

func subtypeMap(a, b *mapData) bool {
	if len(a.elems) != len(b.elems) {
		return false
	}
	for i := range a.elems {
		if !cell.Same(a.elems[i].Key, b.elems[i].Key) {
			return false
		}
		if !a.elems[i].Val.SubtypeOf(b.elems[i].Val) {
			return false
		}
	}
	return true
}

func couldBePacked(a, b *packedData) bool {
	if len(a.elems) != len(b.elems) {
		return false
	}
	for i := range a.elems {
		if !a.elems[i].CouldBe(b.elems[i]) {
			return false
		}
	}
	return true
}

func couldBeMap(a, b *mapData) bool {
	if len(a.elems) != len(b.elems) {
		return false
	}
	for i := range a.elems {
		if !cell.Same(a.elems[i].Key, b.elems[i].Key) {
			return false
		}
		if !a.elems[i].Val.CouldBe(b.elems[i].Val) {
			return false
		}
	}
	return true
}

// valKeyValues unions the key and value types of a constant container.
func valKeyValues(ar *cell.Array) util.Pair[Type, Type] {
	ret := util.NewPair(TBottom, TBottom)
	for k, v := range ar.All() {
		ret.Fst = Union(ret.Fst, FromCell(k))
		ret.Snd = Union(ret.Snd, FromCell(v))
	}
	return ret
}

func mapKeyValues(m MapElems) util.Pair[Type, Type] {
	ret := util.NewPair(TBottom, TBottom)
	for i := range m {
		ret.Fst = Union(ret.Fst, FromCell(m[i].Key))
		ret.Snd = Union(ret.Snd, m[i].Val)
	}
	return ret
}

func packedValues(p *packedData) Type {
	ret := TBottom
	for _, e := range p.elems {
		ret = Union(ret, e)
	}
	return ret
}

//////////////////////////////////////////////////////////////////////
// Equality.

func (t Type) equivData(o Type) bool {
	if dtag(t.data) != dtag(o.data) {
		return dualEq(t.data, o.data)
	}
	switch a := t.data.(type) {
	case svalData:
		return a == o.data.(svalData)
	case avalData:
		return a.v.Same(o.data.(avalData).v)
	case ivalData:
		return a == o.data.(ivalData)
	case dvalData:
		// NaNs are equal for type identity; +0 and -0 are not.
		b := o.data.(dvalData)
		if a.v == b.v {
			return math.Signbit(a.v) == math.Signbit(b.v)
		}
		return math.IsNaN(a.v) && math.IsNaN(b.v)
	case *objData:
		b := o.data.(*objData)
		if (a.wh == nil) != (b.wh == nil) {
			return false
		}
		if a.wh != nil && !a.wh.Equals(*b.wh) {
			return false
		}
		return a.tag == b.tag && a.cls.Same(b.cls)
	case *clsData:
		b := o.data.(*clsData)
		return a.tag == b.tag && a.cls.Same(b.cls)
	case *refData:
		return a.inner.Equals(o.data.(*refData).inner)
	case *packedData:
		b := o.data.(*packedData)
		if len(a.elems) != len(b.elems) {
			return false
		}
		for i := range a.elems {
			if !a.elems[i].Equals(b.elems[i]) {
				return false
			}
		}
		return true
	case *packedNData:
		return a.elem.Equals(o.data.(*packedNData).elem)
	case *mapData:
		b := o.data.(*mapData)
		if len(a.elems) != len(b.elems) {
			return false
		}
		for i := range a.elems {
			if !cell.Same(a.elems[i].Key, b.elems[i].Key) {
				return false
			}
			if !a.elems[i].Val.Equals(b.elems[i].Val) {
				return false
			}
		}
		return true
	case *mapNData:
		b := o.data.(*mapNData)
		return a.key.Equals(b.key) && a.val.Equals(b.val)
	}
	assertx(false, "equivData on unknown payloads")
	return false
}

// dualEq compares payloads of different array-shape variants. Only a fixed
// shape can equal a constant container (when the container reifies to the
// same shape); all other cross-variant pairs denote different sets.
func dualEq(a, b data) bool {
	if specRank(a) < 0 || specRank(b) < 0 {
		return false
	}
	if specRank(a) > specRank(b) {
		a, b = b, a
	}
	switch x := a.(type) {
	case *packedData:
		if y, ok := b.(avalData); ok {
			if len(x.elems) != y.v.Size() {
				return false
			}
			p, ok := toPacked(y.v)
			if !ok {
				return false
			}
			for i := range p {
				if !x.elems[i].Equals(p[i]) {
					return false
				}
			}
			return true
		}
	case *mapData:
		if y, ok := b.(avalData); ok {
			if len(x.elems) != y.v.Size() {
				return false
			}
			m, ok := toMap(y.v)
			if !ok {
				return false
			}
			for i := range m {
				if !cell.Same(x.elems[i].Key, m[i].Key) || !x.elems[i].Val.Equals(m[i].Val) {
					return false
				}
			}
			return true
		}
	}
	return false
}

//////////////////////////////////////////////////////////////////////
// Subtype on payloads.

func (t Type) subtypeData(o Type) bool {
	if dtag(t.data) != dtag(o.data) {
		return dualSubtype(t.data, o.data)
	}
	switch a := t.data.(type) {
	case *objData:
		b := o.data.(*objData)
		outerOK := func() bool {
			if a.tag == b.tag && a.cls.Same(b.cls) {
				return true
			}
			if b.tag == Sub {
				return a.cls.SubtypeOf(b.cls)
			}
			return false
		}()
		if !outerOK {
			return false
		}
		if b.wh == nil {
			return true
		}
		if a.wh == nil {
			return false
		}
		return a.wh.SubtypeOf(*b.wh)
	case *clsData:
		b := o.data.(*clsData)
		if a.tag == b.tag && a.cls.Same(b.cls) {
			return true
		}
		if b.tag == Sub {
			return a.cls.SubtypeOf(b.cls)
		}
		return false
	case svalData, avalData, ivalData, dvalData:
		return t.equivData(o)
	case *refData:
		return a.inner.SubtypeOf(o.data.(*refData).inner)
	case *packedData:
		return subtypePacked(a, o.data.(*packedData))
	case *packedNData:
		return a.elem.SubtypeOf(o.data.(*packedNData).elem)
	case *mapData:
		return subtypeMap(a, o.data.(*mapData))
	case *mapNData:
		b := o.data.(*mapNData)
		return a.key.SubtypeOf(b.key) && a.val.SubtypeOf(b.val)
	}
	assertx(false, "subtypeData on unknown payloads")
	return false
}

// dualSubtype is the cross-variant subtype matrix. Not commutative, so all
// ordered pairs appear. The rationale per row:
//   - a fixed shape relates to a homogeneous one element-wise;
//   - the homogeneous shapes contain arrays of every size, so they are
//     never subtypes of a fixed shape or of a single constant container;
//   - map shapes contain no packed arrays and vice versa.
func dualSubtype(a, b data) bool {
	switch x := a.(type) {
	case *mapData:
		switch y := b.(type) {
		case avalData:
			if len(x.elems) != y.v.Size() {
				return false
			}
			m, ok := toMap(y.v)
			if !ok {
				return false
			}
			return subtypeMap(x, &mapData{elems: m})
		case *mapNData:
			for i := range x.elems {
				if !FromCell(x.elems[i].Key).SubtypeOf(y.key) {
					return false
				}
				if !x.elems[i].Val.SubtypeOf(y.val) {
					return false
				}
			}
			return true
		}
		return false

	case *packedData:
		switch y := b.(type) {
		case avalData:
			if len(x.elems) != y.v.Size() {
				return false
			}
			p, ok := toPacked(y.v)
			if !ok {
				return false
			}
			return subtypePacked(x, &packedData{elems: p})
		case *packedNData:
			for _, e := range x.elems {
				if !e.SubtypeOf(y.elem) {
					return false
				}
			}
			return true
		case *mapNData:
			if !y.key.CouldBe(TInt) {
				return false
			}
			for _, e := range x.elems {
				if !e.SubtypeOf(y.val) {
					return false
				}
			}
			return true
		}
		return false

	case avalData:
		switch y := b.(type) {
		case *mapData:
			if x.v.Size() != len(y.elems) {
				return false
			}
			m, ok := toMap(x.v)
			if !ok {
				return false
			}
			return subtypeMap(&mapData{elems: m}, y)
		case *packedData:
			if x.v.Size() != len(y.elems) {
				return false
			}
			p, ok := toPacked(x.v)
			if !ok {
				return false
			}
			return subtypePacked(&packedData{elems: p}, y)
		case *packedNData:
			p, ok := toPackedN(x.v)
			return ok && p.SubtypeOf(y.elem)
		case *mapNData:
			bad := false
			for k, v := range x.v.All() {
				if !y.key.CouldBe(FromCell(k)) || !y.val.CouldBe(FromCell(v)) {
					bad = true
					break
				}
			}
			return !bad
		}
		return false

	case *packedNData:
		if y, ok := b.(*mapNData); ok {
			return y.key.CouldBe(TInt) && x.elem.SubtypeOf(y.val)
		}
		return false

	case *mapNData:
		return false
	}
	return false
}

//////////////////////////////////////////////////////////////////////
// Could-be on payloads.

func (t Type) couldBeData(o Type) bool {
	if dtag(t.data) != dtag(o.data) {
		return dualCouldBe(t.data, o.data)
	}
	switch a := t.data.(type) {
	case *objData:
		b := o.data.(*objData)
		couldBe := func() bool {
			if a.tag == b.tag && a.cls.Same(b.cls) {
				return true
			}
			if a.tag == Sub {
				if b.tag == Sub {
					return b.cls.CouldBe(a.cls)
				}
				return b.cls.SubtypeOf(a.cls)
			}
			if b.tag == Sub {
				return a.cls.SubtypeOf(b.cls)
			}
			return false
		}()
		return couldBe && (b.wh == nil || a.wh == nil || a.wh.CouldBe(*b.wh))
	case *clsData:
		b := o.data.(*clsData)
		if a.tag == b.tag && a.cls.Same(b.cls) {
			return true
		}
		if a.tag == Sub || b.tag == Sub {
			return a.cls.CouldBe(b.cls)
		}
		return false
	case *refData:
		return a.inner.CouldBe(o.data.(*refData).inner)
	case svalData, avalData, ivalData, dvalData:
		return t.equivData(o)
	case *packedData:
		return couldBePacked(a, o.data.(*packedData))
	case *packedNData:
		return a.elem.CouldBe(o.data.(*packedNData).elem)
	case *mapData:
		return couldBeMap(a, o.data.(*mapData))
	case *mapNData:
		b := o.data.(*mapNData)
		return a.key.CouldBe(b.key) && a.val.CouldBe(b.val)
	}
	assertx(false, "couldBeData on unknown payloads")
	return false
}

// dualCouldBe is the cross-variant overlap matrix; commutative, so the
// arguments are shuffled into rank order first.
func dualCouldBe(a, b data) bool {
	if specRank(a) < 0 || specRank(b) < 0 {
		return false
	}
	if specRank(a) > specRank(b) {
		a, b = b, a
	}
	switch x := a.(type) {
	case *packedData:
		switch y := b.(type) {
		case avalData:
			if len(x.elems) != y.v.Size() {
				return false
			}
			p, ok := toPacked(y.v)
			return ok && couldBePacked(x, &packedData{elems: p})
		case *packedNData:
			for _, e := range x.elems {
				if !e.CouldBe(y.elem) {
					return false
				}
			}
			return true
		case *mapData:
			// A map never holds a packed array.
			return false
		case *mapNData:
			if !TInt.CouldBe(y.key) {
				return false
			}
			for _, e := range x.elems {
				if !e.CouldBe(y.val) {
					return false
				}
			}
			return true
		}

	case *packedNData:
		switch y := b.(type) {
		case avalData:
			p, ok := toPackedN(y.v)
			return ok && x.elem.CouldBe(p)
		case *mapData:
			return false
		case *mapNData:
			return TInt.CouldBe(y.key) && x.elem.CouldBe(y.val)
		}

	case *mapData:
		switch y := b.(type) {
		case avalData:
			if len(x.elems) != y.v.Size() {
				return false
			}
			m, ok := toMap(y.v)
			return ok && couldBeMap(x, &mapData{elems: m})
		case *mapNData:
			for i := range x.elems {
				if !FromCell(x.elems[i].Key).CouldBe(y.key) {
					return false
				}
				if !x.elems[i].Val.CouldBe(y.val) {
					return false
				}
			}
			return true
		}

	case *mapNData:
		if y, ok := b.(avalData); ok {
			assertx(y.v.Size() > 0, "constant container payload must be non-empty")
			for k, v := range y.v.All() {
				if !x.key.CouldBe(FromCell(k)) || !x.val.CouldBe(FromCell(v)) {
					return false
				}
			}
			return true
		}
	}
	return false
}

//////////////////////////////////////////////////////////////////////
// Top-level relations.

// Equals is exact structural identity of lattice points.
func (t Type) Equals(o Type) bool {
	if t.bits != o.bits {
		return false
	}
	if t.hasData() != o.hasData() {
		return false
	}
	if !t.hasData() {
		return true
	}
	return t.equivData(o)
}

// Hash folds the pattern and payload variant; payload contents of scalar
// literals participate so literal-heavy tables spread.
func (t Type) Hash() uint64 {
	const prime = 1099511628211
	h := uint64(t.bits)*prime ^ uint64(dtag(t.data))
	switch d := t.data.(type) {
	case ivalData:
		h = h*prime ^ uint64(d.v)
	case dvalData:
		h = h*prime ^ math.Float64bits(d.v)
	case svalData:
		for i := 0; i < len(d.v); i++ {
			h = h*prime ^ uint64(d.v[i])
		}
	}
	return h
}

// SubtypeOf reports that every value of t is a value of o.
func (t Type) SubtypeOf(o Type) bool {
	isect := t.bits & o.bits
	if isect != t.bits {
		return false
	}
	// No data is always more general.
	if !o.hasData() {
		return true
	}
	if !t.hasData() {
		return !mayHaveData(t.bits)
	}
	return t.subtypeData(o)
}

func (t Type) StrictSubtypeOf(o Type) bool {
	return !t.Equals(o) && t.SubtypeOf(o)
}

// SubtypeOfAny reports subtype of at least one of the arguments.
func (t Type) SubtypeOfAny(os ...Type) bool {
	for _, o := range os {
		if t.SubtypeOf(o) {
			return true
		}
	}
	return false
}

// CouldBe probes for a non-empty intersection. It may conservatively
// return true, is reflexive and symmetric, and is NOT transitive: never
// chain it.
func (t Type) CouldBe(o Type) bool {
	isect := t.bits & o.bits
	if isect == 0 {
		return false
	}
	// If the overlap admits a data-free cell we are done; those families
	// cannot be constrained away by payloads.
	if isect&(BNull|BBool|BArrLikeE|BCStr) != 0 {
		return true
	}
	if !t.hasData() || !o.hasData() {
		return true
	}
	if !mayHaveData(isect) {
		return true
	}
	return t.couldBeData(o)
}

func (t Type) CouldBeAny(os ...Type) bool {
	for _, o := range os {
		if t.CouldBe(o) {
			return true
		}
	}
	return false
}
