package option

// SubOptRef names a suboption by its owning group letter and its name, for
// use in conflict declarations that reach across or within a group.
type SubOptRef struct {
	Group byte
	Name  string
}

// Conflict is the sum type from §3.1/§9: either an unconditional veto on a
// peer suboption having been seen, or a conditional veto that fires only
// when the peer (or its default, if IncludeDefaults) holds a specific value
// while the suboption carrying this Conflict holds AndSelfEquals.
//
// Predicate is an escape hatch for the one rule in §4.2 that is not a
// simple peer-value comparison (rmapbt vs. "a realtime device is present",
// which is a property of an entire option group rather than one suboption's
// value). When Predicate is non-nil it replaces the WhenOtherEquals/
// IncludeDefaults comparison; Other and AndSelfEquals are unused in that case.
type Conflict struct {
	Unconditional   bool
	Other           SubOptRef
	WhenOtherEquals Value
	AndSelfEquals   Value
	IncludeDefaults bool
	Message         string
	Predicate       func(*Context) bool
}

// SubOption is the static, declarative description of one suboption.
type SubOption struct {
	Name          string
	Kind          Kind
	NeedsValue    bool
	FlagValue     Value
	AcceptsSuffix bool
	PowerOfTwo    bool
	Min, Max      Value
	Default       Value
	Conflicts     []Conflict
	// Enum, when non-empty, restricts a String-kind suboption to this
	// fixed set of literal values (e.g. "-n version=2|ci") instead of
	// accepting arbitrary text.
	Enum []string
}

// Group is one top-level CLI option letter and its suboptions.
type Group struct {
	Name       byte
	SubOptions []SubOption
}

// Schema is the full, process-wide, immutable option schema: §6.1 rendered
// as data.
type Schema struct {
	Groups map[byte]*Group
}

func u(v uint32) Value   { return UintValue(v) }
func u64(v uint64) Value { return Uint64Value(v) }
func b(v bool) Value     { return BoolValue(v) }
func s(v string) Value   { return StringValue(v) }

const maxU64 = ^uint64(0)

// BuildSchema constructs the static schema described by §6.1 of the
// specification. It is built fresh per process (not a global var) so tests
// can mutate a private copy without disturbing others, but its contents
// never change after NewContext copies it into dynamic state.
func BuildSchema() *Schema {
	sch := &Schema{Groups: map[byte]*Group{}}

	sch.Groups['b'] = &Group{Name: 'b', SubOptions: []SubOption{
		{Name: "log", Kind: Uint, NeedsValue: true, PowerOfTwo: false,
			Min: u(9), Max: u(16), Default: u(12)},
		{Name: "size", Kind: Uint64, NeedsValue: true, AcceptsSuffix: true, PowerOfTwo: true,
			Min: u64(512), Max: u64(65536), Default: u64(4096)},
	}}

	sch.Groups['d'] = &Group{Name: 'd', SubOptions: []SubOption{
		{Name: "agcount", Kind: Uint, NeedsValue: true, Min: u(1), Max: u(1 << 31), Default: u(0)},
		{Name: "agsize", Kind: Uint64, NeedsValue: true, AcceptsSuffix: true, Min: u64(0), Max: u64(maxU64), Default: u64(0)},
		{Name: "file", Kind: Bool, NeedsValue: false, FlagValue: b(true), Min: b(false), Max: b(true), Default: b(false)},
		{Name: "name", Kind: String, NeedsValue: true, Default: s("")},
		{Name: "size", Kind: Uint64, NeedsValue: true, AcceptsSuffix: true, Min: u64(0), Max: u64(maxU64), Default: u64(0)},
		{Name: "sunit", Kind: Uint, NeedsValue: true, Min: u(0), Max: u(1 << 30), Default: u(0)},
		{Name: "swidth", Kind: Uint, NeedsValue: true, Min: u(0), Max: u(1 << 30), Default: u(0)},
		{Name: "su", Kind: Uint64, NeedsValue: true, AcceptsSuffix: true, Min: u64(0), Max: u64(maxU64), Default: u64(0)},
		{Name: "sw", Kind: Uint, NeedsValue: true, Min: u(0), Max: u(65536), Default: u(0)},
		{Name: "sectlog", Kind: Uint, NeedsValue: true, Min: u(9), Max: u(15), Default: u(9)},
		{Name: "sectsize", Kind: Uint64, NeedsValue: true, AcceptsSuffix: true, PowerOfTwo: true,
			Min: u64(512), Max: u64(32768), Default: u64(512)},
		{Name: "noalign", Kind: Bool, NeedsValue: false, FlagValue: b(true), Min: b(false), Max: b(true), Default: b(false)},
		{Name: "rtinherit", Kind: Bool, NeedsValue: true, Min: b(false), Max: b(true), Default: b(false)},
		{Name: "projinherit", Kind: Uint, NeedsValue: true, Min: u(0), Max: u(1 << 24), Default: u(0)},
		{Name: "extszinherit", Kind: Uint, NeedsValue: true, Min: u(0), Max: u(1 << 31), Default: u(0)},
	}}

	sch.Groups['i'] = &Group{Name: 'i', SubOptions: []SubOption{
		{Name: "align", Kind: Bool, NeedsValue: true, Min: b(false), Max: b(true), Default: b(true), Conflicts: []Conflict{
			{Other: SubOptRef{'m', "crc"}, WhenOtherEquals: b(true), AndSelfEquals: b(false), IncludeDefaults: true,
				Message: "Inodes always aligned for CRC enabled filesystems"},
		}},
		{Name: "log", Kind: Uint, NeedsValue: true, Min: u(8), Max: u(11), Default: u(9)},
		{Name: "maxpct", Kind: Uint, NeedsValue: true, Min: u(0), Max: u(100), Default: u(25)},
		{Name: "perblock", Kind: Uint, NeedsValue: true, Min: u(0), Max: u(1 << 16), Default: u(0)},
		{Name: "size", Kind: Uint64, NeedsValue: true, AcceptsSuffix: true, PowerOfTwo: true,
			Min: u64(256), Max: u64(2048), Default: u64(512)},
		{Name: "attr", Kind: Uint, NeedsValue: true, Min: u(0), Max: u(2), Default: u(2), Conflicts: []Conflict{
			{Other: SubOptRef{'m', "crc"}, WhenOtherEquals: b(true), AndSelfEquals: u(0), IncludeDefaults: true,
				Message: "V2 attributes always enabled for CRC enabled filesystems"},
			{Other: SubOptRef{'m', "crc"}, WhenOtherEquals: b(true), AndSelfEquals: u(1), IncludeDefaults: true,
				Message: "V2 attributes always enabled for CRC enabled filesystems"},
		}},
		{Name: "projid32bit", Kind: Bool, NeedsValue: true, Min: b(false), Max: b(true), Default: b(true), Conflicts: []Conflict{
			{Other: SubOptRef{'m', "crc"}, WhenOtherEquals: b(true), AndSelfEquals: b(false), IncludeDefaults: true,
				Message: "32-bit project IDs always enabled for CRC enabled filesystems"},
		}},
		{Name: "sparse", Kind: Bool, NeedsValue: true, Min: b(false), Max: b(true), Default: b(false), Conflicts: []Conflict{
			{Other: SubOptRef{'m', "crc"}, WhenOtherEquals: b(false), AndSelfEquals: b(true), IncludeDefaults: true,
				Message: "sparse inodes not supported without CRC support"},
		}},
	}}

	sch.Groups['l'] = &Group{Name: 'l', SubOptions: []SubOption{
		{Name: "agnum", Kind: Uint, NeedsValue: true, Min: u(0), Max: u(1 << 31), Default: u(0), Conflicts: []Conflict{
			{Unconditional: true, Other: SubOptRef{'l', "logdev"}, Message: "Cannot specify both -l agnum and -l logdev"},
		}},
		{Name: "internal", Kind: Bool, NeedsValue: false, FlagValue: b(true), Min: b(false), Max: b(true), Default: b(true), Conflicts: []Conflict{
			{Unconditional: true, Other: SubOptRef{'l', "logdev"}, Message: "Cannot specify both -l internal and -l logdev"},
		}},
		{Name: "size", Kind: Uint64, NeedsValue: true, AcceptsSuffix: true, Min: u64(0), Max: u64(maxU64), Default: u64(0)},
		{Name: "version", Kind: Uint, NeedsValue: true, Min: u(1), Max: u(2), Default: u(2), Conflicts: []Conflict{
			{Other: SubOptRef{'m', "crc"}, WhenOtherEquals: b(true), AndSelfEquals: u(1), IncludeDefaults: true,
				Message: "V2 logs required for CRC enabled filesystems"},
		}},
		{Name: "sunit", Kind: Uint, NeedsValue: true, Min: u(0), Max: u(1 << 30), Default: u(0)},
		{Name: "su", Kind: Uint64, NeedsValue: true, AcceptsSuffix: true, Min: u64(0), Max: u64(maxU64), Default: u64(0)},
		{Name: "logdev", Kind: String, NeedsValue: true, Default: s(""), Conflicts: []Conflict{
			{Unconditional: true, Other: SubOptRef{'l', "internal"}, Message: "Cannot specify both -l logdev and -l internal"},
			{Unconditional: true, Other: SubOptRef{'l', "agnum"}, Message: "Cannot specify both -l logdev and -l agnum"},
		}},
		{Name: "sectlog", Kind: Uint, NeedsValue: true, Min: u(9), Max: u(15), Default: u(9)},
		{Name: "sectsize", Kind: Uint64, NeedsValue: true, AcceptsSuffix: true, PowerOfTwo: true,
			Min: u64(512), Max: u64(32768), Default: u64(512)},
		{Name: "file", Kind: Bool, NeedsValue: false, FlagValue: b(true), Min: b(false), Max: b(true), Default: b(false)},
		{Name: "name", Kind: String, NeedsValue: true, Default: s("")},
		{Name: "lazy-count", Kind: Bool, NeedsValue: true, Min: b(false), Max: b(true), Default: b(true), Conflicts: []Conflict{
			{Other: SubOptRef{'m', "crc"}, WhenOtherEquals: b(true), AndSelfEquals: b(false), IncludeDefaults: true,
				Message: "Lazy superblock counting always enabled for CRC enabled filesystems"},
		}},
	}}

	sch.Groups['n'] = &Group{Name: 'n', SubOptions: []SubOption{
		{Name: "log", Kind: Uint, NeedsValue: true, Min: u(9), Max: u(16), Default: u(12)},
		{Name: "size", Kind: Uint64, NeedsValue: true, AcceptsSuffix: true, PowerOfTwo: true,
			Min: u64(512), Max: u64(65536), Default: u64(4096)},
		{Name: "version", Kind: String, NeedsValue: true, Enum: []string{"2", "ci"}, Default: s("2")},
		{Name: "ftype", Kind: Bool, NeedsValue: true, Min: b(false), Max: b(true), Default: b(true), Conflicts: []Conflict{
			{Other: SubOptRef{'m', "crc"}, WhenOtherEquals: b(true), AndSelfEquals: b(false), IncludeDefaults: true,
				Message: "Cannot disable ftype with crcs enabled"},
		}},
	}}

	sch.Groups['r'] = &Group{Name: 'r', SubOptions: []SubOption{
		{Name: "extsize", Kind: Uint64, NeedsValue: true, AcceptsSuffix: true, Min: u64(0), Max: u64(maxU64), Default: u64(0)},
		{Name: "size", Kind: Uint64, NeedsValue: true, AcceptsSuffix: true, Min: u64(0), Max: u64(maxU64), Default: u64(0)},
		{Name: "rtdev", Kind: String, NeedsValue: true, Default: s("")},
		{Name: "file", Kind: Bool, NeedsValue: false, FlagValue: b(true), Min: b(false), Max: b(true), Default: b(false)},
		{Name: "name", Kind: String, NeedsValue: true, Default: s("")},
		{Name: "noalign", Kind: Bool, NeedsValue: false, FlagValue: b(true), Min: b(false), Max: b(true), Default: b(false)},
	}}

	sch.Groups['s'] = &Group{Name: 's', SubOptions: []SubOption{
		{Name: "log", Kind: Uint, NeedsValue: true, Min: u(9), Max: u(16), Default: u(12)},
		{Name: "sectlog", Kind: Uint, NeedsValue: true, Min: u(9), Max: u(15), Default: u(9)},
		{Name: "size", Kind: Uint64, NeedsValue: true, AcceptsSuffix: true, PowerOfTwo: true,
			Min: u64(512), Max: u64(65536), Default: u64(512)},
		{Name: "sectsize", Kind: Uint64, NeedsValue: true, AcceptsSuffix: true, PowerOfTwo: true,
			Min: u64(512), Max: u64(32768), Default: u64(512)},
	}}

	sch.Groups['m'] = &Group{Name: 'm', SubOptions: []SubOption{
		{Name: "crc", Kind: Bool, NeedsValue: true, Min: b(false), Max: b(true), Default: b(true)},
		{Name: "finobt", Kind: Bool, NeedsValue: true, Min: b(false), Max: b(true), Default: b(true), Conflicts: []Conflict{
			{Other: SubOptRef{'m', "crc"}, WhenOtherEquals: b(false), AndSelfEquals: b(true), IncludeDefaults: true,
				Message: "finobt not supported without CRC support"},
		}},
		{Name: "uuid", Kind: String, NeedsValue: true, Default: s("")},
		{Name: "rmapbt", Kind: Bool, NeedsValue: true, Min: b(false), Max: b(true), Default: b(false), Conflicts: []Conflict{
			{Other: SubOptRef{'m', "crc"}, WhenOtherEquals: b(false), AndSelfEquals: b(true), IncludeDefaults: true,
				Message: "rmapbt not supported without CRC support"},
			{Predicate: func(c *Context) bool {
				return c.Bool('m', "rmapbt") && (c.Bool('r', "file") || c.Seen('r', "name") || c.Seen('r', "rtdev"))
			}, Message: "rmapbt not supported with realtime devices"},
		}},
		{Name: "reflink", Kind: Bool, NeedsValue: true, Min: b(false), Max: b(true), Default: b(false), Conflicts: []Conflict{
			{Other: SubOptRef{'m', "crc"}, WhenOtherEquals: b(false), AndSelfEquals: b(true), IncludeDefaults: true,
				Message: "reflink not supported without CRC support"},
		}},
	}}

	return sch
}
