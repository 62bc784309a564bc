package index

import (
	"log/slog"
	"sort"

	hashset "github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
	"github.com/xtgo/set"

	ilog "github.com/ActindoForks/hhvm/internal/log"
)

// WaitHandleName is the class name Hierarchy treats as the awaitable class.
const WaitHandleName = `HH\WaitHandle`

var logger = ilog.DefaultLogger.With("section", "index")

// ClassFlags declare properties of a class that cannot be derived from the
// graph alone.
type ClassFlags struct {
	Interface bool
	Final     bool
	MagicBool bool
}

type node struct {
	name  string
	flags ClassFlags
	// parents holds the direct parent class (if any) and the declared
	// interfaces.
	parents *hashset.Set[string]
	// ancestors is the inheritance chain, nearest first, excluding the
	// class itself. Interfaces contribute in sorted name order after the
	// class chain.
	ancestors []string
	h         *Hierarchy
}

// Hierarchy is an in-memory class graph implementing Index. Register every
// class before resolving; resolution hands out stable Class handles.
type Hierarchy struct {
	nodes map[string]*node
}

func NewHierarchy() *Hierarchy {
	h := &Hierarchy{nodes: make(map[string]*node)}
	// The awaitable class is always present so WaitHandleClass never
	// fails.
	_ = h.Register(WaitHandleName, "", nil, ClassFlags{})
	return h
}

// Register declares a class with an optional parent and declared
// interfaces. The parent and interfaces must already be registered.
func (h *Hierarchy) Register(name, parent string, interfaces []string, flags ClassFlags) error {
	if _, dup := h.nodes[name]; dup {
		return errors.Errorf("class %q registered twice", name)
	}
	n := &node{
		name:    name,
		flags:   flags,
		parents: hashset.New[string](1 + len(interfaces)),
		h:       h,
	}
	if parent != "" {
		p, ok := h.nodes[parent]
		if !ok {
			return errors.Errorf("class %q extends unknown class %q", name, parent)
		}
		if p.flags.Final {
			return errors.Errorf("class %q extends final class %q", name, parent)
		}
		n.parents.Insert(parent)
		n.ancestors = append(n.ancestors, parent)
		n.ancestors = append(n.ancestors, p.ancestors...)
	}
	// Normalize the declared interface list: sorted, deduplicated.
	ifaces := make([]string, len(interfaces))
	copy(ifaces, interfaces)
	sort.Strings(ifaces)
	ifaces = ifaces[:set.Uniq(sort.StringSlice(ifaces))]
	for _, i := range ifaces {
		in, ok := h.nodes[i]
		if !ok {
			return errors.Errorf("class %q implements unknown interface %q", name, i)
		}
		if !in.flags.Interface {
			return errors.Errorf("class %q implements non-interface %q", name, i)
		}
		if n.parents.Insert(i) {
			n.ancestors = append(n.ancestors, i)
			for _, anc := range in.ancestors {
				if !containsName(n.ancestors, anc) {
					n.ancestors = append(n.ancestors, anc)
				}
			}
		}
	}
	h.nodes[name] = n
	logger.Debug("registered class", slog.String("class", name), slog.Int("ancestors", len(n.ancestors)))
	return nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// Resolve returns the Class handle for a registered name.
func (h *Hierarchy) Resolve(name string) (Class, bool) {
	n, ok := h.nodes[name]
	if !ok {
		return nil, false
	}
	return wrapClass(n), true
}

func (h *Hierarchy) WaitHandleClass() Class {
	c, ok := h.Resolve(WaitHandleName)
	if !ok {
		panic("hierarchy lost its awaitable class")
	}
	return c
}

func (h *Hierarchy) BuiltinClass(name string) (Class, bool) {
	return h.Resolve(name)
}

var _ Index = (*Hierarchy)(nil)

type hierarchyClass struct {
	n *node
}

func wrapClass(n *node) *hierarchyClass { return &hierarchyClass{n: n} }

var _ Class = (*hierarchyClass)(nil)

func (c *hierarchyClass) Name() string { return c.n.name }

func (c *hierarchyClass) Same(other Class) bool {
	o, ok := other.(*hierarchyClass)
	return ok && o.n == c.n
}

func (c *hierarchyClass) SubtypeOf(other Class) bool {
	o, ok := other.(*hierarchyClass)
	if !ok {
		return false
	}
	if o.n == c.n {
		return true
	}
	return containsName(c.n.ancestors, o.n.name)
}

func (c *hierarchyClass) CouldBe(other Class) bool {
	o, ok := other.(*hierarchyClass)
	if !ok {
		return false
	}
	if c.SubtypeOf(o) || o.SubtypeOf(c) {
		return true
	}
	// Unrelated concrete classes cannot overlap under single inheritance,
	// but an interface may be implemented anywhere below either side.
	return c.CouldBeInterface() || o.CouldBeInterface()
}

func (c *hierarchyClass) CouldBeOverridden() bool { return !c.n.flags.Final }

// CouldHaveMagicBool: the hierarchy is closed-world, so the conversion is
// possible only when the class or an ancestor declares it, or when the
// handle is an interface (any implementor might declare it).
func (c *hierarchyClass) CouldHaveMagicBool() bool {
	if c.n.flags.MagicBool || c.n.flags.Interface {
		return true
	}
	for _, anc := range c.n.ancestors {
		if c.n.h.nodes[anc].flags.MagicBool {
			return true
		}
	}
	return false
}
func (c *hierarchyClass) CouldBeInterface() bool { return c.n.flags.Interface }

func (c *hierarchyClass) CommonAncestor(other Class) (Class, bool) {
	o, ok := other.(*hierarchyClass)
	if !ok {
		return nil, false
	}
	if c.n == o.n {
		return c, true
	}
	chain := append([]string{c.n.name}, c.n.ancestors...)
	for _, name := range chain {
		candidate := c.n.h.nodes[name]
		if candidate.flags.Interface {
			continue
		}
		if o.n.name == name || containsName(o.n.ancestors, name) {
			return wrapClass(candidate), true
		}
	}
	return nil, false
}
