// Package repo holds the persistent type-annotation vocabulary a later
// compilation stage reads back. The lattice compresses a type into an
// AuthType; array shapes are interned through a Builder so equal
// descriptors share one node in the emitted unit.
package repo

import (
	"fmt"
	"strings"
)

// Tag is the coarse on-disk classification of a type.
type Tag uint8

const (
	TagUninit Tag = iota
	TagInitNull
	TagNull
	TagInt
	TagOptInt
	TagDbl
	TagOptDbl
	TagRes
	TagOptRes
	TagBool
	TagOptBool
	TagSStr
	TagOptSStr
	TagStr
	TagOptStr
	TagSVArr
	TagOptSVArr
	TagVArr
	TagOptVArr
	TagSDArr
	TagOptSDArr
	TagDArr
	TagOptDArr
	TagSArr
	TagOptSArr
	TagArr
	TagOptArr
	TagSVec
	TagOptSVec
	TagVec
	TagOptVec
	TagSDict
	TagOptSDict
	TagDict
	TagOptDict
	TagSKeyset
	TagOptSKeyset
	TagKeyset
	TagOptKeyset
	TagObj
	TagOptObj
	TagUncArrKey
	TagArrKey
	TagOptUncArrKey
	TagOptArrKey
	TagInitUnc
	TagUnc
	TagInitCell
	TagCell
	TagRef
	TagInitGen
	TagGen
	TagExactObj
	TagSubObj
	TagOptExactObj
	TagOptSubObj
)

// Emptiness is the two-valued emptiness annotation on array descriptors.
type Emptiness uint8

const (
	EmptyNo Emptiness = iota
	EmptyMaybe
)

// AuthType is one encoded type annotation. ClassName is set for the object
// tags; Arr for array tags with shape information.
type AuthType struct {
	Tag       Tag
	ClassName string
	Arr       *ArrayType
}

// ArrayType describes an array shape: either a fixed tuple of element
// annotations or a homogeneous element annotation.
type ArrayType struct {
	Emptiness Emptiness
	// Packed holds the per-index annotations of a fixed-size shape; nil
	// for the homogeneous form.
	Packed []AuthType
	// Elem is the homogeneous element annotation; only meaningful when
	// Packed is nil.
	Elem AuthType
}

func (a *ArrayType) key() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "e%d", a.Emptiness)
	if a.Packed != nil {
		sb.WriteString(";p")
		for _, t := range a.Packed {
			fmt.Fprintf(&sb, ":%d/%s/%p", t.Tag, t.ClassName, t.Arr)
		}
	} else {
		fmt.Fprintf(&sb, ";n:%d/%s/%p", a.Elem.Tag, a.Elem.ClassName, a.Elem.Arr)
	}
	return sb.String()
}

// Builder interns array shape descriptors for a unit being emitted.
type Builder interface {
	Packed(e Emptiness, elems []AuthType) *ArrayType
	PackedN(e Emptiness, elem AuthType) *ArrayType
}

// TableBuilder is the in-memory Builder; intern keys are structural, so
// building the same shape twice yields the same node.
type TableBuilder struct {
	interned map[string]*ArrayType
}

func NewTableBuilder() *TableBuilder {
	return &TableBuilder{interned: make(map[string]*ArrayType)}
}

var _ Builder = (*TableBuilder)(nil)

func (b *TableBuilder) intern(a *ArrayType) *ArrayType {
	k := a.key()
	if got, ok := b.interned[k]; ok {
		return got
	}
	b.interned[k] = a
	return a
}

func (b *TableBuilder) Packed(e Emptiness, elems []AuthType) *ArrayType {
	cp := make([]AuthType, len(elems))
	copy(cp, elems)
	return b.intern(&ArrayType{Emptiness: e, Packed: cp})
}

func (b *TableBuilder) PackedN(e Emptiness, elem AuthType) *ArrayType {
	return b.intern(&ArrayType{Emptiness: e, Elem: elem})
}

// Size reports how many distinct shapes have been interned.
func (b *TableBuilder) Size() int { return len(b.interned) }
