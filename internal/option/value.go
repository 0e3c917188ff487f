// Package option implements §3.1-3.2 and §4.1 of the specification: the
// static option schema, the per-run option state, the suboption parser, the
// alias-equivalence rewriter, and (in conflict.go) the conflict engine.
package option

import "fmt"

// Kind is a suboption's value type.
type Kind int

const (
	Int Kind = iota
	Uint
	Uint64
	Bool
	String
)

// Value is a tagged union over the five value kinds a suboption may carry.
// Only the field matching Kind is meaningful (Num for all three numeric kinds).
type Value struct {
	Kind Kind
	Num  uint64
	Bool bool
	Str  string
}

// IntValue, UintValue, Uint64Value, BoolValue and StringValue are
// constructors for the matching Value kind.
func IntValue(v int64) Value    { return Value{Kind: Int, Num: uint64(v)} }
func UintValue(v uint32) Value  { return Value{Kind: Uint, Num: uint64(v)} }
func Uint64Value(v uint64) Value { return Value{Kind: Uint64, Num: v} }
func BoolValue(v bool) Value    { return Value{Kind: Bool, Bool: v} }
func StringValue(v string) Value { return Value{Kind: String, Str: v} }

// Equal reports whether two values of the same Kind are equal. Values of
// differing Kind are never equal.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Bool:
		return v.Bool == o.Bool
	case String:
		return v.Str == o.Str
	default:
		return v.Num == o.Num
	}
}

// String renders a Value for error messages.
func (v Value) String() string {
	switch v.Kind {
	case Bool:
		if v.Bool {
			return "1"
		}
		return "0"
	case String:
		return v.Str
	default:
		return fmt.Sprintf("%d", v.Num)
	}
}

// AsUint64 extracts the numeric payload regardless of Int/Uint/Uint64 kind.
func (v Value) AsUint64() uint64 { return v.Num }
