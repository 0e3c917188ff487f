package option

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jtulak/xfsprogs-dev/internal/mkfserr"
	"github.com/jtulak/xfsprogs-dev/internal/unitconv"
)

// ParseGroup consumes one `-X sub1=v1,sub2=v2,...` argument: splits on
// commas, splits each token on the first '=', resolves the suboption in
// group's schema, parses and validates the value, and applies it to ctx.
// It is the entry point described by §4.1.
func ParseGroup(ctx *Context, group byte, arg string) error {
	if arg == "" {
		return nil
	}
	for _, tok := range strings.Split(arg, ",") {
		if tok == "" {
			continue
		}
		name, rawVal, hasEq := strings.Cut(tok, "=")
		if err := parseOne(ctx, group, name, rawVal, hasEq); err != nil {
			return err
		}
	}
	return nil
}

func parseOne(ctx *Context, group byte, name, rawVal string, hasEq bool) error {
	so, ok := ctx.SubOption(group, name)
	if !ok {
		return mkfserr.Newf(mkfserr.ParseSyntax, "-%c %s: unknown suboption", group, name)
	}

	ref := SubOptRef{group, name}

	if !hasEq {
		if so.NeedsValue {
			return mkfserr.Newf(mkfserr.RequiredValueMissing, "-%c %s option requires a value", group, name)
		}
		return assign(ctx, ref, so, so.FlagValue, name)
	}

	val, err := parseValue(so, rawVal, ctx.Bases)
	if err != nil {
		return err
	}
	return assign(ctx, ref, so, val, rawVal)
}

func parseValue(so *SubOption, raw string, bases unitconv.Bases) (Value, error) {
	switch so.Kind {
	case Bool:
		switch raw {
		case "0":
			return BoolValue(false), nil
		case "1":
			return BoolValue(true), nil
		case "true":
			return BoolValue(true), nil
		case "false":
			return BoolValue(false), nil
		default:
			return Value{}, mkfserr.Newf(mkfserr.ParseSyntax, "illegal value %q, expected 0 or 1", raw)
		}
	case String:
		if raw == "" {
			return Value{}, mkfserr.New(mkfserr.ParseSyntax, "value must not be empty")
		}
		if len(so.Enum) > 0 && !contains(so.Enum, raw) {
			return Value{}, mkfserr.Newf(mkfserr.ParseSyntax, "illegal value %q, expected one of %v", raw, so.Enum)
		}
		return StringValue(raw), nil
	default: // Int, Uint, Uint64
		var n uint64
		var err error
		if so.AcceptsSuffix {
			n, err = unitconv.Parse(raw, bases)
		} else {
			n, err = strconv.ParseUint(raw, 10, 64)
			if err != nil {
				err = mkfserr.Newf(mkfserr.ParseSyntax, "illegal value %q", raw)
			}
		}
		if err != nil {
			return Value{}, err
		}
		v := Value{Kind: so.Kind, Num: n}
		if n < so.Min.Num || n > so.Max.Num {
			return Value{}, mkfserr.Newf(mkfserr.RangeViolation,
				"value %d for suboption is out of range %d-%d", n, so.Min.Num, so.Max.Num)
		}
		if so.PowerOfTwo && n != 0 && n&(n-1) != 0 {
			return Value{}, mkfserr.Newf(mkfserr.PowerOfTwoViolation, "value %d must be a power of 2", n)
		}
		return v, nil
	}
}

func assign(ctx *Context, ref SubOptRef, so *SubOption, v Value, raw string) error {
	if e := ctx.entries[ref]; e != nil && e.seen {
		return mkfserr.Newf(mkfserr.Respecified, "-%c %s option respecified", ref.Group, ref.Name)
	}
	for _, peer := range aliasPeers(ref) {
		if peer == ref {
			continue
		}
		if pe := ctx.entries[peer]; pe != nil && pe.seen {
			return mkfserr.Newf(mkfserr.Respecified, "-%c %s option respecified", peer.Group, peer.Name)
		}
	}

	ctx.Set(ref.Group, ref.Name, v, raw)
	return CheckWrite(ctx, ref.Group, ref.Name)
}

// FormatValue is a tiny helper for building conflict messages consistently.
func FormatValue(v Value) string {
	return fmt.Sprintf("%v", v)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
