package option

import "github.com/jtulak/xfsprogs-dev/internal/unitconv"

// entry is the dynamic state of one (group, suboption) pair, per §3.2.
type entry struct {
	value Value
	seen  bool
	raw   string
}

// Context is the dynamic option state for one mkfs run: the schema plus a
// mutable table of entries. It is built once by NewContext, mutated by the
// parser (Set) during argv processing and by FillDefaultIfUnseen during
// default fill-in, and is read-only from the start of the geometry solver
// onward, matching §3.4's ownership rule.
type Context struct {
	Schema  *Schema
	entries map[SubOptRef]*entry
	Bases   unitconv.Bases
}

// NewContext builds option state with every suboption initialized to its
// schema default and seen=false.
func NewContext(sch *Schema) *Context {
	ctx := &Context{Schema: sch, entries: map[SubOptRef]*entry{}}
	for _, g := range sch.Groups {
		for _, so := range g.SubOptions {
			ctx.entries[SubOptRef{g.Name, so.Name}] = &entry{value: so.Default}
		}
	}
	return ctx
}

func (c *Context) lookup(group byte, name string) (*SubOption, *entry, bool) {
	g, ok := c.Schema.Groups[group]
	if !ok {
		return nil, nil, false
	}
	for i := range g.SubOptions {
		if g.SubOptions[i].Name == name {
			return &g.SubOptions[i], c.entries[SubOptRef{group, name}], true
		}
	}
	return nil, nil, false
}

// Seen reports whether the user explicitly wrote this suboption.
func (c *Context) Seen(group byte, name string) bool {
	if _, e, ok := c.lookup(group, name); ok {
		return e.seen
	}
	return false
}

// Value returns the current value (user-written or default) of a suboption.
func (c *Context) Value(group byte, name string) Value {
	if _, e, ok := c.lookup(group, name); ok {
		return e.value
	}
	return Value{}
}

// Bool, Uint and String are typed convenience readers over Value.
func (c *Context) Bool(group byte, name string) bool  { return c.Value(group, name).Bool }
func (c *Context) Uint(group byte, name string) uint64 { return c.Value(group, name).Num }
func (c *Context) String(group byte, name string) string {
	return c.Value(group, name).Str
}

// setInternal assigns a value without touching the seen flag; used by the
// alias propagator to update shadow aliases of the suboption the user
// actually wrote.
func (c *Context) setInternal(group byte, name string, v Value) {
	if _, e, ok := c.lookup(group, name); ok {
		e.value = v
	}
}

// Set records a user-supplied assignment: marks the entry seen (returning
// false if it was already seen, so the parser can raise Respecified), sets
// the raw literal for error messages, stores the value, and propagates
// alias equivalences.
func (c *Context) Set(group byte, name string, v Value, raw string) (firstTime bool) {
	_, e, ok := c.lookup(group, name)
	if !ok {
		return false
	}
	firstTime = !e.seen
	e.seen = true
	e.raw = raw
	e.value = v
	propagateAlias(c, SubOptRef{group, name}, v)
	return firstTime
}

// SubOption returns the static schema entry for a suboption.
func (c *Context) SubOption(group byte, name string) (*SubOption, bool) {
	so, _, ok := c.lookup(group, name)
	return so, ok
}

// FillDefaultIfUnseen is invoked by internal/geometry after parsing to turn
// computed defaults (sector size from topology, etc.) into entry values for
// suboptions that were never seen. It never marks an entry seen: defaults
// remain distinguishable from user input for conflict re-evaluation
// (§4.2's IncludeDefaults).
func (c *Context) FillDefaultIfUnseen(group byte, name string, v Value) {
	if _, e, ok := c.lookup(group, name); ok && !e.seen {
		e.value = v
	}
}
