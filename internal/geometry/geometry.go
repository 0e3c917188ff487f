// Package geometry implements default fill-in (§4.3) and the geometry
// solver (§4.6): deriving a complete, self-consistent on-disk layout from
// parsed option state and resolved device topology.
package geometry

import (
	"fmt"

	"github.com/google/uuid"
)

// Features is the feature-bit set §6.2 describes, collapsed into one
// struct of booleans rather than the raw bitfields; internal/xfsfmt turns
// this into the actual on-disk version/features2/features_ro_compat words.
type Features struct {
	CRC         bool
	InodeAlign  bool
	LogV2       bool
	AttrV2      bool
	ProjID32Bit bool
	LazySBCount bool
	FType       bool
	FinoBT      bool
	RmapBT      bool
	Reflink     bool
	Sparse      bool
	DirV2CI     bool // -n version=ci (case-insensitive ASCII directories)
}

// Geometry is the solved record described by §3.3. It is built and filled
// in by Solve, and is read-only once writing begins (§3.4).
type Geometry struct {
	BlockSize uint32
	BlockLog  uint8

	SectorSize uint16
	SectorLog  uint8

	LogSectorSize uint16
	LogSectorLog  uint8

	InodeSize uint16
	InodeLog  uint8

	DirBlockSize uint32
	DirBlockLog  uint8

	DataBlocks uint64
	RtBlocks   uint64

	AGSize  uint32
	AGCount uint32

	LogBlocks uint32
	LogStart  uint64 // FSB
	LogAgno   uint32
	LogInternal bool

	DSunit  uint32
	DSwidth uint32
	LSunit  uint32 // fs blocks during solving; converted to bytes for v2 logs (0 for v1) in solver phase 9

	RtExtBlocks uint32
	RtExtents   uint64
	RtBmBlocks  uint32

	Features Features

	UUID  uuid.UUID
	Label string

	IMaxPct uint8

	// InoAlignMt / SpinoAlign are the superblock inode-alignment fields
	// computed in solver phase 10.
	InoAlignMt uint32
	SpinoAlign uint32

	// PreallocBlocks is the fixed per-AG header reservation at low block
	// addresses (AGF/AGFL/AGI/root btree blocks), used by the log
	// placement and fit checks.
	PreallocBlocks uint32

	Warnings []string
}

func (g *Geometry) warnf(format string, a ...interface{}) {
	g.Warnings = append(g.Warnings, fmt.Sprintf(format, a...))
}
