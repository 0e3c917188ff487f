package writer

import (
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/jtulak/xfsprogs-dev/internal/device"
	"github.com/jtulak/xfsprogs-dev/internal/geometry"
	"github.com/jtulak/xfsprogs-dev/internal/xfsfmt"
)

// testGeometry builds a small, internally-consistent single-AG Geometry by
// hand, bypassing the option/solver stack, the way the teacher's own tests
// construct a minimal Opts/header fixture directly rather than going
// through its CLI flag parsing.
func testGeometry(crc bool) *geometry.Geometry {
	g := &geometry.Geometry{
		BlockSize:     4096,
		BlockLog:      12,
		SectorSize:    512,
		SectorLog:     9,
		LogSectorSize: 512,
		LogSectorLog:  9,
		InodeSize:     256,
		InodeLog:      8,
		DirBlockSize:  4096,
		DirBlockLog:   12,
		DataBlocks:    64,
		AGSize:        64,
		AGCount:       1,
		LogBlocks:     8,
		LogStart:      12,
		LogAgno:       0,
		LogInternal:   true,
		IMaxPct:       25,
		Label:         "test",
	}
	g.Features.CRC = crc
	g.PreallocBlocks = 7 // 4 headers + BNO/CNT/INO roots, no finobt/rmapbt/reflink
	return g
}

func openTempDevice(t *testing.T) *device.Device {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.img")
	d, err := device.Open(device.RoleData, device.Target{Path: path, IsFile: true}, false)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestWriteProducesCleanPrimarySuperblock(t *testing.T) {
	g := testGeometry(false)
	d := openTempDevice(t)

	w := New(g, d, nil, nil)
	if err := w.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf := make([]byte, xfsfmt.SuperBlockSize)
	if err := d.ReadAt(buf, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	sb := xfsfmt.UnmarshalSuperBlock(buf)

	if sb.MagicNum != xfsfmt.SBMagic {
		t.Errorf("MagicNum = %#x, want %#x", sb.MagicNum, xfsfmt.SBMagic)
	}
	if sb.InProgress != 0 {
		t.Errorf("InProgress = %d, want 0 after a completed write", sb.InProgress)
	}
	if sb.DBlocks != g.DataBlocks {
		t.Errorf("DBlocks = %d, want %d", sb.DBlocks, g.DataBlocks)
	}
	if sb.AGCount != g.AGCount {
		t.Errorf("AGCount = %d, want %d", sb.AGCount, g.AGCount)
	}
	// RootIno must be the number the allocator path assigned, not left
	// unset at the zero Go default.
	if want := (DefaultRootInodeAllocator{}).AllocateRootInode(g); sb.RootIno != want {
		t.Errorf("RootIno = %d, want %d from the default allocator", sb.RootIno, want)
	}
}

func TestWriteFormatsRootDirectory(t *testing.T) {
	g := testGeometry(false)
	d := openTempDevice(t)

	w := New(g, d, nil, nil)
	if err := w.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}

	dirAGBno := g.PreallocBlocks + rootInoChunkBlocks(g)
	buf := make([]byte, 4)
	if err := d.ReadAt(buf, blockOffset(g, 0, dirAGBno)); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if got := binary.BigEndian.Uint32(buf); got != xfsfmt.Dir2DataMagic {
		t.Errorf("directory block magic = %#x, want %#x", got, xfsfmt.Dir2DataMagic)
	}

	inoBuf := make([]byte, 2)
	if err := d.ReadAt(inoBuf, blockOffset(g, 0, g.PreallocBlocks)); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if got := binary.BigEndian.Uint16(inoBuf); got != xfsfmt.InodeMagic {
		t.Errorf("root inode magic = %#x, want %#x", got, xfsfmt.InodeMagic)
	}
}

func TestWriteChecksumsV5Superblock(t *testing.T) {
	g := testGeometry(true)
	d := openTempDevice(t)

	w := New(g, d, nil, nil)
	if err := w.Write(); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf := make([]byte, xfsfmt.SuperBlockSize)
	if err := d.ReadAt(buf, 0); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !xfsfmt.VerifyChecksum(buf) {
		t.Errorf("primary superblock CRC does not verify for a CRC-enabled filesystem")
	}
}

func TestPatchSecondarySuperblocksSkippedForSingleAG(t *testing.T) {
	g := testGeometry(false)
	d := openTempDevice(t)
	w := New(g, d, nil, nil)

	if err := w.patchSecondarySuperblocks(123); err != nil {
		t.Fatalf("patchSecondarySuperblocks on a single-AG filesystem should be a no-op: %v", err)
	}
}
