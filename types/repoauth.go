package types

import (
	"github.com/ActindoForks/hhvm/repo"
)

func makeRepoTypeArr(b repo.Builder, t Type) repo.AuthType {
	emptiness := repo.EmptyNo
	if TArrE.CouldBe(t) {
		emptiness = repo.EmptyMaybe
	}

	arr := func() *repo.ArrayType {
		switch d := t.data.(type) {
		case *packedData:
			elems := make([]repo.AuthType, len(d.elems))
			for i, e := range d.elems {
				elems[i] = MakeRepoType(b, e)
			}
			return b.Packed(emptiness, elems)
		case *packedNData:
			return b.PackedN(emptiness, MakeRepoType(b, d.elem))
		}
		// Constant containers, map shapes and unspecialized arrays have no
		// shape encoding; the tag alone is recorded.
		return nil
	}()

	tag := func() repo.Tag {
		switch {
		case t.SubtypeOf(TSVArr):
			return repo.TagSVArr
		case t.SubtypeOf(TVArr):
			return repo.TagVArr
		case t.SubtypeOf(TOptSVArr):
			return repo.TagOptSVArr
		case t.SubtypeOf(TOptVArr):
			return repo.TagOptVArr
		case t.SubtypeOf(TSDArr):
			return repo.TagSDArr
		case t.SubtypeOf(TDArr):
			return repo.TagDArr
		case t.SubtypeOf(TOptSDArr):
			return repo.TagOptSDArr
		case t.SubtypeOf(TOptDArr):
			return repo.TagOptDArr
		case t.SubtypeOf(TSArr):
			return repo.TagSArr
		case t.SubtypeOf(TArr):
			return repo.TagArr
		case t.SubtypeOf(TOptSArr):
			return repo.TagOptSArr
		case t.SubtypeOf(TOptArr):
			return repo.TagOptArr
		}
		assertx(false, "array type out of the repo tag vocabulary: %s", t)
		return repo.TagArr
	}()

	return repo.AuthType{Tag: tag, Arr: arr}
}

// MakeRepoType compresses a lattice point into its persistent annotation.
// Pre: !t.CouldBe(TCls) && !t.SubtypeOf(TBottom)
func MakeRepoType(b repo.Builder, t Type) repo.AuthType {
	assertx(!t.CouldBe(TCls), "class types have no repo encoding")
	assertx(!t.SubtypeOf(TBottom), "bottom has no repo encoding")

	if t.StrictSubtypeOf(TObj) || (IsOpt(t) && t.StrictSubtypeOf(TOptObj)) {
		dobj := DObjOf(t)
		var tag repo.Tag
		if IsOpt(t) {
			if dobj.Tag == Exact {
				tag = repo.TagOptExactObj
			} else {
				tag = repo.TagOptSubObj
			}
		} else {
			if dobj.Tag == Exact {
				tag = repo.TagExactObj
			} else {
				tag = repo.TagSubObj
			}
		}
		return repo.AuthType{Tag: tag, ClassName: dobj.Cls.Name()}
	}

	if t.StrictSubtypeOf(TArr) || (IsOpt(t) && t.StrictSubtypeOf(TOptArr)) {
		return makeRepoTypeArr(b, t)
	}

	for _, m := range repoTagTable {
		if t.SubtypeOf(m.ty) {
			return repo.AuthType{Tag: m.tag}
		}
	}
	assertx(false, "type out of the repo tag vocabulary: %s", t)
	return repo.AuthType{}
}

// repoTagTable is ordered: the first supertype wins, so narrower tags come
// first.
var repoTagTable = []struct {
	ty  Type
	tag repo.Tag
}{
	{TUninit, repo.TagUninit},
	{TInitNull, repo.TagInitNull},
	{TNull, repo.TagNull},
	{TInt, repo.TagInt},
	{TOptInt, repo.TagOptInt},
	{TDbl, repo.TagDbl},
	{TOptDbl, repo.TagOptDbl},
	{TRes, repo.TagRes},
	{TOptRes, repo.TagOptRes},
	{TBool, repo.TagBool},
	{TOptBool, repo.TagOptBool},
	{TSStr, repo.TagSStr},
	{TOptSStr, repo.TagOptSStr},
	{TStr, repo.TagStr},
	{TOptStr, repo.TagOptStr},
	{TSVArr, repo.TagSVArr},
	{TOptSVArr, repo.TagOptSVArr},
	{TVArr, repo.TagVArr},
	{TOptVArr, repo.TagOptVArr},
	{TSDArr, repo.TagSDArr},
	{TOptSDArr, repo.TagOptSDArr},
	{TDArr, repo.TagDArr},
	{TOptDArr, repo.TagOptDArr},
	{TSArr, repo.TagSArr},
	{TOptSArr, repo.TagOptSArr},
	{TArr, repo.TagArr},
	{TOptArr, repo.TagOptArr},
	{TSVec, repo.TagSVec},
	{TOptSVec, repo.TagOptSVec},
	{TVec, repo.TagVec},
	{TOptVec, repo.TagOptVec},
	{TSDict, repo.TagSDict},
	{TOptSDict, repo.TagOptSDict},
	{TDict, repo.TagDict},
	{TOptDict, repo.TagOptDict},
	{TSKeyset, repo.TagSKeyset},
	{TOptSKeyset, repo.TagOptSKeyset},
	{TKeyset, repo.TagKeyset},
	{TOptKeyset, repo.TagOptKeyset},
	{TObj, repo.TagObj},
	{TOptObj, repo.TagOptObj},
	{TUncArrKey, repo.TagUncArrKey},
	{TArrKey, repo.TagArrKey},
	{TOptUncArrKey, repo.TagOptUncArrKey},
	{TOptArrKey, repo.TagOptArrKey},
	{TInitUnc, repo.TagInitUnc},
	{TUnc, repo.TagUnc},
	{TInitCell, repo.TagInitCell},
	{TCell, repo.TagCell},
	{TRef, repo.TagRef},
	{TInitGen, repo.TagInitGen},
	{TGen, repo.TagGen},
}
