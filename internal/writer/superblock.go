package writer

import (
	"github.com/google/uuid"

	"github.com/jtulak/xfsprogs-dev/internal/geometry"
	"github.com/jtulak/xfsprogs-dev/internal/xfsfmt"
)

// defaultSectorSize is the schema default for -d sectsize; VersionSectorBit
// only needs to be set when the filesystem departs from it.
const defaultSectorSize = 512

// featureSet maps a solved Geometry onto xfsfmt.FeatureSet, the boundary
// the two packages intentionally don't share a type across. It takes the
// whole Geometry, not just its Features, because VersionNum()'s
// VersionDalignBit/VersionSectorBit depend on the stripe unit and sector
// size rather than a named feature flag.
func featureSet(g *geometry.Geometry) xfsfmt.FeatureSet {
	f := g.Features
	return xfsfmt.FeatureSet{
		CRC:                  f.CRC,
		InodeAlign:           f.InodeAlign,
		LogV2:                f.LogV2,
		AttrV2:               f.AttrV2,
		ProjID32Bit:          f.ProjID32Bit,
		LazySBCount:          f.LazySBCount,
		FType:                f.FType,
		FinoBT:               f.FinoBT,
		RmapBT:               f.RmapBT,
		Reflink:              f.Reflink,
		Sparse:               f.Sparse,
		DirV2CI:              f.DirV2CI,
		StripeAlign:          g.DSunit != 0,
		NonDefaultSectorSize: g.SectorSize != defaultSectorSize,
	}
}

// buildSuperBlock renders g into the on-disk SuperBlock record, shared by
// every copy (primary and secondary); only sb_inprogress differs between
// copies, once the primary is rewritten clean at the end of Write.
func buildSuperBlock(g *geometry.Geometry, fs xfsfmt.FeatureSet, rootIno uint64, inProgress bool) *xfsfmt.SuperBlock {
	var fname [12]byte
	copy(fname[:], g.Label)

	sb := &xfsfmt.SuperBlock{
		MagicNum:    xfsfmt.SBMagic,
		BlockSize:   g.BlockSize,
		DBlocks:     g.DataBlocks,
		RBlocks:     g.RtBlocks,
		RExtents:    g.RtExtents,
		UUID:        g.UUID,
		RootIno:     rootIno,
		RBmIno:      0,
		RSumIno:     0,
		RExtSize:    g.RtExtBlocks,
		AGBlocks:    g.AGSize,
		AGCount:     g.AGCount,
		RBmBlocks:   g.RtBmBlocks,
		LogBlocks:   g.LogBlocks,
		VersionNum:  fs.VersionNum(),
		SectSize:    g.SectorSize,
		InodeSize:   g.InodeSize,
		InopBlock:   uint16(uint32(g.BlockSize) / uint32(g.InodeSize)),
		FName:       fname,
		BlockLog:    g.BlockLog,
		SectLog:     g.SectorLog,
		InodeLog:    g.InodeLog,
		InopBlog:    ceilLog2(uint32(g.BlockSize) / uint32(g.InodeSize)),
		AGBlklog:    ceilLog2(g.AGSize),
		RExtslog:    ceilLog2(g.RtExtBlocks),
		ImaxPct:     g.IMaxPct,
		InoAlignMt:  g.InoAlignMt,
		UnitSize:    g.DSunit,
		WidthSize:   g.DSwidth,
		DirBlkLog:   g.DirBlockLog - g.BlockLog,
		LogSectLog:  g.LogSectorLog,
		LogSectSize: g.LogSectorSize,
		LogSunit:    g.LSunit,
		Features2:   fs.Features2(),
	}
	if g.LogInternal {
		sb.LogStart = g.LogStart
	}
	if inProgress {
		sb.InProgress = 1
	}
	if fs.CRC {
		sb.FeaturesCompat = fs.CompatFeatures()
		sb.FeaturesROCompat = fs.ROCompatFeatures()
		sb.FeaturesIncompat = fs.IncompatFeatures()
		sb.SpinoAlign = g.SpinoAlign
		sb.MetaUUID = uuid.UUID{} // metadata UUID tracking is out of scope; left zero
	}
	return sb
}
