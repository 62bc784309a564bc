package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ActindoForks/hhvm/cell"
)

func showValue(v cell.Value) string {
	switch v := v.(type) {
	case cell.Uninit:
		return "uninit"
	case cell.Null:
		return "null"
	case cell.Bool:
		return strconv.FormatBool(bool(v))
	case cell.Int:
		return strconv.FormatInt(int64(v), 10)
	case cell.Dbl:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case cell.Str:
		return strconv.Quote(string(v))
	case *cell.Array:
		return fmt.Sprintf("%s[%d]", v.ArrayKind(), v.Size())
	}
	return "?"
}

// String renders a type for diagnostics: the pattern name, decorated with
// whatever specialization it carries.
func (t Type) String() string {
	if IsOpt(t) {
		return "?" + Unopt(t).String()
	}
	if !t.hasData() {
		return showBits(t.bits)
	}
	name := showBits(t.bits)
	switch d := t.data.(type) {
	case ivalData:
		return name + "=" + strconv.FormatInt(d.v, 10)
	case dvalData:
		return name + "=" + strconv.FormatFloat(d.v, 'g', -1, 64)
	case svalData:
		return name + "=" + strconv.Quote(d.v)
	case avalData:
		return name + "=" + showValue(d.v)
	case *objData:
		rel := "<="
		if d.tag == Exact {
			rel = "="
		}
		if d.wh != nil {
			return "WaitH<" + d.wh.String() + ">"
		}
		return name + rel + d.cls.Name()
	case *clsData:
		rel := "<="
		if d.tag == Exact {
			rel = "="
		}
		return name + rel + d.cls.Name()
	case *refData:
		return name + "(" + d.inner.String() + ")"
	case *packedData:
		parts := make([]string, len(d.elems))
		for i, e := range d.elems {
			parts[i] = e.String()
		}
		return name + "(" + strings.Join(parts, ",") + ")"
	case *packedNData:
		return name + "([" + d.elem.String() + "])"
	case *mapData:
		parts := make([]string, len(d.elems))
		for i := range d.elems {
			parts[i] = showValue(d.elems[i].Key) + ":" + d.elems[i].Val.String()
		}
		return name + "(" + strings.Join(parts, ",") + ")"
	case *mapNData:
		return name + "([" + d.key.String() + ":" + d.val.String() + "])"
	}
	return name
}
