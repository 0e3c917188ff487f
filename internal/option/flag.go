package option

// GroupValue adapts one option-group letter (-b, -d, -i, -l, -n, -r, -s, -m)
// to github.com/spf13/pflag's pflag.Value interface, the way
// docker/go-units-based CLI options in the wider ecosystem implement
// Set/String/Type to plug a domain-specific parser into a generic flag
// library (see the schmitthub-clawker internal-docker-opts grounding in
// SPEC_FULL.md).
// Each time the flag is seen on the command line, Set feeds the raw
// "key=val,key2=val2" text straight to option.ParseGroup.
type GroupValue struct {
	Ctx   *Context
	Group byte
	raw   []string
}

// Set implements pflag.Value. It is called once per occurrence of the flag;
// xfs_mkfs.c-style option groups are regularly repeated on one command line
// (e.g. "-d agcount=4 -d file"), so occurrences accumulate rather than
// overwrite.
func (g *GroupValue) Set(s string) error {
	if err := ParseGroup(g.Ctx, g.Group, s); err != nil {
		return err
	}
	g.raw = append(g.raw, s)
	// "b" and "s" literal suffixes (§4.4) resolve against whatever block/
	// sector size is known so far; refreshing after every group keeps that
	// current regardless of the order -b/-d/-s are given on the line.
	g.Ctx.Bases.BlockSize = g.Ctx.Value('b', "size").AsUint64()
	g.Ctx.Bases.SectorSize = g.Ctx.Value('d', "sectsize").AsUint64()
	return nil
}

// String implements pflag.Value.
func (g *GroupValue) String() string {
	if g == nil {
		return ""
	}
	out := ""
	for i, r := range g.raw {
		if i > 0 {
			out += " "
		}
		out += r
	}
	return out
}

// Type implements pflag.Value.
func (g *GroupValue) Type() string { return "key=value,..." }
