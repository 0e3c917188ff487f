package option

import "github.com/jtulak/xfsprogs-dev/internal/unitconv"

// propagateAlias implements the §4.1 alias-equivalence rules: writing one
// member of an alias family updates the shadow value of every other member,
// without marking them seen (so respecification is still detected against
// the literal suboption name the user typed, per §9's "alias ordering" note).
func propagateAlias(c *Context, ref SubOptRef, v Value) {
	switch {
	case ref == (SubOptRef{'b', "log"}):
		c.setInternal('b', "size", Uint64Value(1<<v.Num))
	case ref == (SubOptRef{'b', "size"}):
		c.setInternal('b', "log", UintValue(uint32(unitconv.Log2(v.Num))))

	case ref == (SubOptRef{'i', "log"}):
		c.setInternal('i', "size", Uint64Value(1<<v.Num))
	case ref == (SubOptRef{'i', "size"}):
		c.setInternal('i', "log", UintValue(uint32(unitconv.Log2(v.Num))))

	case ref == (SubOptRef{'n', "log"}):
		c.setInternal('n', "size", Uint64Value(1<<v.Num))
	case ref == (SubOptRef{'n', "size"}):
		c.setInternal('n', "log", UintValue(uint32(unitconv.Log2(v.Num))))

	case ref == (SubOptRef{'l', "sectlog"}):
		c.setInternal('l', "sectsize", Uint64Value(1<<v.Num))
	case ref == (SubOptRef{'l', "sectsize"}):
		c.setInternal('l', "sectlog", UintValue(uint32(unitconv.Log2(v.Num))))

	// d{sectlog,sectsize} <-> s{log,sectlog,size,sectsize}: a single
	// logical "data sector size" shared by two option groups for
	// historical reasons (xfs_mkfs lets the user spell it either way).
	case ref == (SubOptRef{'d', "sectlog"}):
		sz := Uint64Value(1 << v.Num)
		c.setInternal('d', "sectsize", sz)
		c.setInternal('s', "log", v)
		c.setInternal('s', "sectlog", v)
		c.setInternal('s', "size", sz)
		c.setInternal('s', "sectsize", sz)
	case ref == (SubOptRef{'d', "sectsize"}):
		lg := UintValue(uint32(unitconv.Log2(v.Num)))
		c.setInternal('d', "sectlog", lg)
		c.setInternal('s', "log", lg)
		c.setInternal('s', "sectlog", lg)
		c.setInternal('s', "size", v)
		c.setInternal('s', "sectsize", v)
	case ref == (SubOptRef{'s', "log"}) || ref == (SubOptRef{'s', "sectlog"}):
		sz := Uint64Value(1 << v.Num)
		c.setInternal('d', "sectlog", v)
		c.setInternal('d', "sectsize", sz)
		c.setInternal('s', "log", v)
		c.setInternal('s', "sectlog", v)
		c.setInternal('s', "size", sz)
		c.setInternal('s', "sectsize", sz)
	case ref == (SubOptRef{'s', "size"}) || ref == (SubOptRef{'s', "sectsize"}):
		lg := UintValue(uint32(unitconv.Log2(v.Num)))
		c.setInternal('d', "sectlog", lg)
		c.setInternal('d', "sectsize", v)
		c.setInternal('s', "log", lg)
		c.setInternal('s', "sectlog", lg)
		c.setInternal('s', "size", v)
		c.setInternal('s', "sectsize", v)
	}
}

// aliasPeers lists, for a given suboption, the other (group, name) pairs
// that share its storage. Used by the parser to detect cross-group
// respecification: writing -d sectlog=9 then -d sectsize=512 must both
// count against the same underlying value even though only the literally
// written name sets `seen`.
func aliasPeers(ref SubOptRef) []SubOptRef {
	switch ref {
	case SubOptRef{'b', "log"}:
		return []SubOptRef{{'b', "size"}}
	case SubOptRef{'b', "size"}:
		return []SubOptRef{{'b', "log"}}
	case SubOptRef{'i', "log"}:
		return []SubOptRef{{'i', "size"}}
	case SubOptRef{'i', "size"}:
		return []SubOptRef{{'i', "log"}}
	case SubOptRef{'n', "log"}:
		return []SubOptRef{{'n', "size"}}
	case SubOptRef{'n', "size"}:
		return []SubOptRef{{'n', "log"}}
	case SubOptRef{'l', "sectlog"}:
		return []SubOptRef{{'l', "sectsize"}}
	case SubOptRef{'l', "sectsize"}:
		return []SubOptRef{{'l', "sectlog"}}
	case SubOptRef{'d', "sectlog"}, SubOptRef{'d', "sectsize"}:
		return []SubOptRef{{'d', "sectlog"}, {'d', "sectsize"}, {'s', "log"}, {'s', "sectlog"}, {'s', "size"}, {'s', "sectsize"}}
	case SubOptRef{'s', "log"}, SubOptRef{'s', "sectlog"}, SubOptRef{'s', "size"}, SubOptRef{'s', "sectsize"}:
		return []SubOptRef{{'d', "sectlog"}, {'d', "sectsize"}, {'s', "log"}, {'s', "sectlog"}, {'s', "size"}, {'s', "sectsize"}}
	default:
		return nil
	}
}
