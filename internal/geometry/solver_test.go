package geometry

import (
	"testing"

	"github.com/jtulak/xfsprogs-dev/internal/option"
	"github.com/jtulak/xfsprogs-dev/internal/topology"
)

func solve(t *testing.T, args map[byte]string, dev DeviceSizes) (*Geometry, *option.Context) {
	t.Helper()
	ctx := option.NewContext(option.BuildSchema())
	// Groups are parsed in a fixed order with -m first, so a -m crc= given
	// alongside a CRC-dependent suboption is in place before that
	// suboption's write-time conflict check runs.
	for _, g := range []byte{'m', 'b', 'd', 'i', 'l', 'n', 'r', 's'} {
		arg, ok := args[g]
		if !ok {
			continue
		}
		if err := option.ParseGroup(ctx, g, arg); err != nil {
			t.Fatalf("ParseGroup(%c, %q): %v", g, arg, err)
		}
	}
	topo, err := FillDefaults(ctx, topology.Info{})
	if err != nil {
		t.Fatalf("FillDefaults: %v", err)
	}
	geo, err := Solve(ctx, topo, dev, "")
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	return geo, ctx
}

// TestScenario1FreshImage reproduces the first end-to-end scenario: a fresh
// 256 MiB image with every default left in place.
func TestScenario1FreshImage(t *testing.T) {
	const size = 256 << 20
	geo, _ := solve(t, map[byte]string{'d': "name=/tmp/img,file,size=256m"}, DeviceSizes{DataBytes: size})

	if geo.BlockSize != 4096 {
		t.Errorf("BlockSize = %d, want 4096", geo.BlockSize)
	}
	if geo.AGCount != 4 {
		t.Errorf("AGCount = %d, want 4", geo.AGCount)
	}
	if geo.AGSize != 16384 {
		t.Errorf("AGSize = %d, want 16384", geo.AGSize)
	}
	if !geo.Features.CRC {
		t.Errorf("CRC should default to true")
	}
	if !geo.Features.FinoBT {
		t.Errorf("FinoBT should default to true")
	}
	if geo.InodeSize != 512 {
		t.Errorf("InodeSize = %d, want 512", geo.InodeSize)
	}
}

// TestScenario2CRCDisabled reproduces the second scenario: CRC explicitly
// disabled forces finobt off and halves the default inode size.
func TestScenario2CRCDisabled(t *testing.T) {
	const size = 256 << 20
	geo, _ := solve(t, map[byte]string{'b': "size=1024", 'm': "crc=0"}, DeviceSizes{DataBytes: size})

	if geo.Features.CRC {
		t.Errorf("CRC should be false")
	}
	if geo.Features.FinoBT {
		t.Errorf("FinoBT must be false when CRC is disabled")
	}
	if geo.InodeSize != 256 {
		t.Errorf("InodeSize = %d, want 256", geo.InodeSize)
	}
	if err := checkInvariants(geo); err != nil {
		t.Errorf("invariant violation: %v", err)
	}
}

// TestScenario3FtypeConflict reproduces the third scenario: ftype=0 with
// CRC enabled must be rejected by the conflict engine before the solver
// ever runs.
func TestScenario3FtypeConflict(t *testing.T) {
	ctx := option.NewContext(option.BuildSchema())
	if err := option.ParseGroup(ctx, 'm', "crc=1"); err != nil {
		t.Fatalf("ParseGroup m: %v", err)
	}
	err := option.ParseGroup(ctx, 'n', "ftype=0")
	if err == nil {
		t.Fatalf("expected a conflict error for -n ftype=0 with -m crc=1")
	}
}

// TestScenario4RespecifiedAlias reproduces the fourth scenario: writing -b
// size then -b log is a respecification via the alias equivalence.
func TestScenario4RespecifiedAlias(t *testing.T) {
	ctx := option.NewContext(option.BuildSchema())
	if err := option.ParseGroup(ctx, 'b', "size=4096"); err != nil {
		t.Fatalf("ParseGroup b size: %v", err)
	}
	err := option.ParseGroup(ctx, 'b', "log=12")
	if err == nil {
		t.Fatalf("expected a respecification error for -b log after -b size")
	}
}

// TestScenario5StripedAGCount reproduces the fifth scenario: a striped
// layout must keep the AG size a multiple of the data stripe unit.
func TestScenario5StripedAGCount(t *testing.T) {
	const size = 4 << 30
	geo, _ := solve(t, map[byte]string{'d': "su=64k,sw=4,agcount=4,size=4g"}, DeviceSizes{DataBytes: size})

	sunitFSB := uint64(geo.DSunit) * 512 / uint64(geo.BlockSize)
	if uint64(geo.AGSize)%sunitFSB != 0 {
		t.Errorf("AGSize %d is not a multiple of the stripe unit %d fs blocks", geo.AGSize, sunitFSB)
	}
	if geo.AGCount == 0 {
		t.Errorf("AGCount must be positive")
	}
}

// TestScenario6LogTooLargeForData reproduces the sixth scenario: a log
// larger than the data volume must be rejected.
func TestScenario6LogTooLargeForData(t *testing.T) {
	const dataSize = 1 << 30
	ctx := option.NewContext(option.BuildSchema())
	for g, arg := range map[byte]string{'l': "size=512m", 'd': "size=1g"} {
		if err := option.ParseGroup(ctx, g, arg); err != nil {
			t.Fatalf("ParseGroup(%c): %v", g, err)
		}
	}
	topo, err := FillDefaults(ctx, topology.Info{})
	if err != nil {
		t.Fatalf("FillDefaults: %v", err)
	}
	_, err = Solve(ctx, topo, DeviceSizes{DataBytes: dataSize}, "")
	if err == nil {
		t.Fatalf("expected an error when the internal log is too large for the data volume")
	}
}

// checkInvariants re-checks a subset of §8's P1-P9 invariants against a
// solved geometry.
func checkInvariants(g *Geometry) error {
	for _, v := range []uint64{uint64(g.BlockSize), uint64(g.SectorSize), uint64(g.InodeSize), uint64(g.DirBlockSize)} {
		if v != 0 && v&(v-1) != 0 {
			return errPowerOfTwo(v)
		}
	}
	if g.AGSize < AGMinBlocks(g.BlockLog) || g.AGSize > AGMaxBlocks(g.BlockLog) {
		return errAGBounds(g.AGSize)
	}
	if g.AGCount > MaxAGNumber+1 {
		return errAGCount(g.AGCount)
	}
	if !g.Features.CRC {
		if g.Features.FinoBT || g.Features.RmapBT || g.Features.Reflink {
			return errCRCLock()
		}
	}
	return nil
}

type invariantError struct{ msg string }

func (e invariantError) Error() string { return e.msg }

func errPowerOfTwo(v uint64) error {
	return invariantError{msg: "value " + itoa(v) + " is not a power of two"}
}
func errAGBounds(v uint32) error { return invariantError{msg: "AG size " + itoa(uint64(v)) + " out of bounds"} }
func errAGCount(v uint32) error  { return invariantError{msg: "AG count " + itoa(uint64(v)) + " too large"} }
func errCRCLock() error          { return invariantError{msg: "CRC-dependent feature enabled without CRC"} }

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// TestNVersionCIWiresDirV2CI reproduces spec.md §6.1's "-n version=2|ci":
// requesting the case-insensitive form must reach Features.DirV2CI.
func TestNVersionCIWiresDirV2CI(t *testing.T) {
	const size = 256 << 20
	geo, _ := solve(t, map[byte]string{'n': "version=ci"}, DeviceSizes{DataBytes: size})

	if !geo.Features.DirV2CI {
		t.Errorf("Features.DirV2CI should be true for -n version=ci")
	}
}

// TestNVersionPlainLeavesDirV2CIOff is the converse of
// TestNVersionCIWiresDirV2CI: the default "2" form must not set it.
func TestNVersionPlainLeavesDirV2CIOff(t *testing.T) {
	const size = 256 << 20
	geo, _ := solve(t, map[byte]string{'n': "version=2"}, DeviceSizes{DataBytes: size})

	if geo.Features.DirV2CI {
		t.Errorf("Features.DirV2CI should be false for -n version=2")
	}
}

// TestAttrV1DoesNotSetAttrV2 guards against conflating -i attr=1 (the V1
// attribute format) with attr=2 (ATTR2): only the latter should turn on
// Features.AttrV2.
func TestAttrV1DoesNotSetAttrV2(t *testing.T) {
	const size = 256 << 20
	geo, _ := solve(t, map[byte]string{'m': "crc=0", 'i': "attr=1"}, DeviceSizes{DataBytes: size})

	if geo.Features.AttrV2 {
		t.Errorf("Features.AttrV2 should be false for -i attr=1")
	}
}

func TestAGMinBlocks(t *testing.T) {
	if AGMinBlocks(12) != 4096 { // 16MiB / 4096
		t.Errorf("AGMinBlocks(12) = %d, want 4096", AGMinBlocks(12))
	}
}

func TestDataBelowMinimumRejected(t *testing.T) {
	ctx := option.NewContext(option.BuildSchema())
	if err := option.ParseGroup(ctx, 'd', "size=64k"); err != nil {
		t.Fatalf("ParseGroup: %v", err)
	}
	topo, err := FillDefaults(ctx, topology.Info{})
	if err != nil {
		t.Fatalf("FillDefaults: %v", err)
	}
	_, err = Solve(ctx, topo, DeviceSizes{DataBytes: 64 << 10}, "")
	if err == nil {
		t.Fatalf("expected an error for a filesystem below XFS_MIN_DATA_BLOCKS")
	}
}
