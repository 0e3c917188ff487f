package geometry

import (
	"github.com/google/uuid"

	"github.com/jtulak/xfsprogs-dev/internal/mkfserr"
	"github.com/jtulak/xfsprogs-dev/internal/option"
	"github.com/jtulak/xfsprogs-dev/internal/topology"
)

// DeviceSizes carries the byte size of each backing store the caller
// opened, as reported by internal/device. LogBytes/RtBytes are zero when
// no external log or realtime device was given.
type DeviceSizes struct {
	DataBytes uint64
	LogBytes  uint64
	RtBytes   uint64
}

// Solve implements §4.6, the eleven-phase geometry solver. ctx must already
// have passed FillDefaults; topo is its companion topology.Result. label is
// the raw -L argument (empty if none was given); it is not modeled in the
// option schema because it has no suboptions and no conflicts.
func Solve(ctx *option.Context, topo *topology.Result, dev DeviceSizes, label string) (*Geometry, error) {
	g := &Geometry{Label: label}

	g.BlockSize = uint32(ctx.Value('b', "size").AsUint64())
	g.BlockLog = uint8(ctx.Value('b', "log").AsUint64())
	g.SectorSize = uint16(topo.SectorSize)
	g.SectorLog = topo.SectorLog
	g.LogSectorSize = uint16(ctx.Value('l', "sectsize").AsUint64())
	g.LogSectorLog = uint8(ctx.Value('l', "sectlog").AsUint64())
	g.InodeSize = uint16(1 << ctx.Value('i', "log").AsUint64())
	g.InodeLog = uint8(ctx.Value('i', "log").AsUint64())
	g.DirBlockSize = uint32(ctx.Value('n', "size").AsUint64())
	g.DirBlockLog = uint8(ctx.Value('n', "log").AsUint64())

	g.Features = readFeatures(ctx)
	g.DSunit, g.DSwidth = topo.Sunit, topo.Swidth
	g.LSunit = uint32(uint64(topo.LogSunit) * 512 / uint64(g.BlockSize)) // basic blocks -> fs blocks
	g.PreallocBlocks = preallocBlocks(g.Features)

	if err := resolveUUID(ctx, g); err != nil {
		return nil, err
	}

	logExternal := ctx.Seen('l', "logdev")
	rtPresent := ctx.Bool('r', "file") || ctx.Seen('r', "name") || ctx.Seen('r', "rtdev")

	// Phase 1: size-block conversion.
	dataBytes := ctx.Value('d', "size").AsUint64()
	if ctx.Seen('d', "size") {
		g.DataBlocks = roundToBlocks(g, dataBytes, "data")
	}
	var logBytesUser uint64
	logSizeSeen := ctx.Seen('l', "size")
	if logSizeSeen {
		logBytesUser = ctx.Value('l', "size").AsUint64()
	}
	var rtBytesUser uint64
	rtSizeSeen := ctx.Seen('r', "size")
	if rtSizeSeen {
		rtBytesUser = ctx.Value('r', "size").AsUint64()
		g.RtBlocks = roundToBlocks(g, rtBytesUser, "realtime")
	}

	// Phase 2: device-size reconciliation.
	sectorOrKiB := uint64(g.SectorSize)
	if sectorOrKiB < 1024 {
		sectorOrKiB = 1024
	}
	effectiveDataBytes := dev.DataBytes
	if ctx.Seen('d', "size") {
		if dev.DataBytes != 0 && dataBytes > dev.DataBytes {
			return nil, mkfserr.Newf(mkfserr.GeometryImpossible,
				"size %d specified for data subvolume is too large, maximum size is %d blocks",
				dataBytes, dev.DataBytes/uint64(g.BlockSize))
		}
		effectiveDataBytes = dataBytes
	} else {
		effectiveDataBytes = dev.DataBytes
	}
	effectiveDataBytes -= effectiveDataBytes % sectorOrKiB
	g.DataBlocks = effectiveDataBytes / uint64(g.BlockSize)

	if g.DataBlocks < MinDataBlocks {
		return nil, mkfserr.Newf(mkfserr.GeometryImpossible,
			"size %d blocks too small, minimum is %d blocks", g.DataBlocks, MinDataBlocks)
	}

	g.IMaxPct = imaxpctDefaultOrUser(ctx, effectiveDataBytes)

	// Phase 3: AG sizing.
	if err := solveAGSize(ctx, g); err != nil {
		return nil, err
	}

	// Phase 4: stripe alignment of AGs.
	alignAGsToStripe(ctx, g)

	// Phase 5: last-AG cleanup.
	lastAGCleanup(g)

	// Phase 6: AG geometry validation.
	if err := validateAGGeometry(g); err != nil {
		return nil, err
	}

	// Phase 7: log sizing.
	minLogBlocks := computeMinLogBlocks(g)
	if err := solveLogSize(ctx, g, dev, logExternal, logSizeSeen, logBytesUser, minLogBlocks); err != nil {
		return nil, err
	}

	// Phase 8: internal-log placement.
	if !logExternal {
		if err := placeInternalLog(ctx, g); err != nil {
			return nil, err
		}
	}

	// Phase 9: log-stripe byte conversion.
	if ctx.Value('l', "version").AsUint64() == 2 {
		g.LSunit = uint32(uint64(g.LSunit) * uint64(g.BlockSize))
	} else {
		g.LSunit = 0
	}

	// Phase 10: inode alignment.
	solveInodeAlignment(ctx, g)

	// Phase 11: realtime geometry.
	solveRealtimeGeometry(ctx, g, dev, rtPresent, rtSizeSeen)

	return g, nil
}

// preallocBlocks is the fixed per-AG low-block-address reservation: the AG
// headers (superblock copy, AGF, AGFL, AGI) plus the always-present BNO/
// CNT/INO btree roots, plus whichever of FINO/RMAP/REFC roots the chosen
// features add.
func preallocBlocks(f Features) uint32 {
	n := uint32(4 + 3)
	if f.FinoBT {
		n++
	}
	if f.RmapBT {
		n++
	}
	if f.Reflink {
		n++
	}
	return n
}

func readFeatures(ctx *option.Context) Features {
	return Features{
		CRC:         ctx.Bool('m', "crc"),
		InodeAlign:  ctx.Bool('i', "align"),
		LogV2:       ctx.Value('l', "version").AsUint64() == 2,
		AttrV2:      ctx.Value('i', "attr").AsUint64() == 2,
		ProjID32Bit: ctx.Bool('i', "projid32bit"),
		LazySBCount: ctx.Bool('l', "lazy-count"),
		FType:       ctx.Bool('n', "ftype"),
		DirV2CI:     ctx.String('n', "version") == "ci",
		FinoBT:      ctx.Bool('m', "finobt"),
		RmapBT:      ctx.Bool('m', "rmapbt"),
		Reflink:     ctx.Bool('m', "reflink"),
		Sparse:      ctx.Bool('i', "sparse"),
	}
}

// resolveUUID parses an explicit -m uuid=. UUID generation itself is an
// out-of-scope external collaborator (§1): when the user gives none,
// g.UUID is left as the zero UUID for the caller to fill in.
func resolveUUID(ctx *option.Context, g *Geometry) error {
	s := ctx.String('m', "uuid")
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return mkfserr.Wrap(mkfserr.ParseSyntax, err, "invalid UUID")
	}
	g.UUID = id
	return nil
}

func roundToBlocks(g *Geometry, bytes uint64, label string) uint64 {
	blocks := bytes / uint64(g.BlockSize)
	if bytes%uint64(g.BlockSize) != 0 {
		g.warnf("%s size %d is not a multiple of the block size %d, truncating to %d blocks",
			label, bytes, g.BlockSize, blocks)
	}
	return blocks
}

func imaxpctDefaultOrUser(ctx *option.Context, dataBytes uint64) uint8 {
	if ctx.Seen('i', "maxpct") {
		return uint8(ctx.Value('i', "maxpct").AsUint64())
	}
	return imaxpctDefault(dataBytes)
}

// defaultAGSize implements the documented heuristic for "auto" AG sizing
// (§4.6 phase 3, calc_default_ag_geometry): target an AG near 1 GiB, but
// scaled down for small filesystems so a tiny image still gets a handful of
// AGs, and never bigger than a quarter of the filesystem unless that would
// fall below the 16 MiB minimum AG size.
func defaultAGSize(g *Geometry) uint32 {
	dataBytes := g.DataBlocks * uint64(g.BlockSize)
	target := dataBytes / 4
	const minTarget = 16 << 20
	const maxTarget = 1 << 30
	if target < minTarget {
		target = minTarget
	}
	if target > maxTarget {
		target = maxTarget
	}
	agSizeBlocks := target / uint64(g.BlockSize)
	if agSizeBlocks == 0 {
		agSizeBlocks = 1
	}
	return uint32(agSizeBlocks)
}

func ceilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

func solveAGSize(ctx *option.Context, g *Geometry) error {
	userAGSize := ctx.Seen('d', "agsize")
	userAGCount := ctx.Seen('d', "agcount")

	switch {
	case userAGSize:
		agSizeBytes := ctx.Value('d', "agsize").AsUint64()
		if agSizeBytes%uint64(g.BlockSize) != 0 {
			return mkfserr.Newf(mkfserr.RangeViolation, "agsize %d is not a multiple of block size %d", agSizeBytes, g.BlockSize)
		}
		g.AGSize = uint32(agSizeBytes / uint64(g.BlockSize))
		g.AGCount = uint32(ceilDiv(g.DataBlocks, uint64(g.AGSize)))

	case userAGCount:
		g.AGCount = uint32(ctx.Value('d', "agcount").AsUint64())
		g.AGSize = uint32(ceilDiv(g.DataBlocks, uint64(g.AGCount)))

	default:
		g.AGSize = defaultAGSize(g)
		g.AGCount = uint32(ceilDiv(g.DataBlocks, uint64(g.AGSize)))
	}
	return nil
}

// alignAGsToStripe implements phase 4. It mutates g.AGSize/g.AGCount in
// place; on an alignment overshoot it either drops alignment (NoAlign) or
// leaves the unaligned values, matching the "silently does nothing for tiny
// filesystems" behavior the specification's design notes call out as
// intentionally preserved, not fixed.
func alignAGsToStripe(ctx *option.Context, g *Geometry) {
	if g.DSunit == 0 {
		return
	}
	sunitFSB := uint64(g.DSunit) * 512 / uint64(g.BlockSize)
	if sunitFSB == 0 || (uint64(g.DSunit)*512)%uint64(g.BlockSize) != 0 {
		return
	}

	maxAGBlocks := uint64(AGMaxBlocks(g.BlockLog))
	aligned := ((uint64(g.AGSize) + sunitFSB - 1) / sunitFSB) * sunitFSB
	if aligned > maxAGBlocks {
		aligned = (uint64(g.AGSize) / sunitFSB) * sunitFSB
	}
	if aligned < uint64(AGMinBlocks(g.BlockLog)) || aligned > maxAGBlocks {
		if topologyNoAlign(ctx) {
			return
		}
		return
	}
	g.AGSize = uint32(aligned)

	swidthFSB := uint64(g.DSwidth) * 512 / uint64(g.BlockSize)
	if swidthFSB > 0 && uint64(g.AGSize)%swidthFSB == 0 && g.AGCount > 1 && g.DataBlocks >= uint64(g.AGSize) {
		candidate := uint64(g.AGSize) - sunitFSB
		if candidate < uint64(AGMinBlocks(g.BlockLog)) {
			candidate = uint64(g.AGSize) + sunitFSB
		}
		g.AGSize = uint32(candidate)
	}

	if !ctx.Seen('d', "agcount") {
		g.AGCount = uint32(ceilDiv(g.DataBlocks, uint64(g.AGSize)))
	}
}

func topologyNoAlign(ctx *option.Context) bool {
	return ctx.Bool('d', "noalign")
}

func lastAGCleanup(g *Geometry) {
	if g.AGCount == 0 {
		return
	}
	rem := g.DataBlocks % uint64(g.AGSize)
	if rem != 0 && rem < uint64(AGMinBlocks(g.BlockLog)) && g.AGCount > 1 {
		g.AGCount--
		g.DataBlocks = uint64(g.AGCount) * uint64(g.AGSize)
	}
}

func validateAGGeometry(g *Geometry) error {
	if g.AGSize < AGMinBlocks(g.BlockLog) || g.AGSize > AGMaxBlocks(g.BlockLog) {
		return mkfserr.Newf(mkfserr.GeometryImpossible,
			"AG size %d blocks is out of range [%d, %d]", g.AGSize, AGMinBlocks(g.BlockLog), AGMaxBlocks(g.BlockLog))
	}
	if g.AGCount > MaxAGNumber+1 {
		return mkfserr.Newf(mkfserr.GeometryImpossible, "AG count %d exceeds the maximum of %d", g.AGCount, MaxAGNumber+1)
	}
	return nil
}

// computeMinLogBlocks is the one-time computation the design notes insist
// on (§9's third open question): a transaction-reservation worst case,
// approximated here as a function of AG size and the feature set that most
// affects transaction size, scaled up for CRC/rmapbt/reflink/finobt's
// larger per-transaction logged metadata.
func computeMinLogBlocks(g *Geometry) uint32 {
	base := uint64(g.AGSize) / 4
	if g.Features.CRC {
		base = base * 5 / 4
	}
	if g.Features.FinoBT {
		base += base / 8
	}
	if g.Features.RmapBT {
		base += base / 8
	}
	if g.Features.Reflink {
		base += base / 8
	}
	min := uint64(MinLogBlocks)
	if base > min {
		min = base
	}
	if g.DataBlocks*uint64(g.BlockSize) >= oneGiBBytes {
		byBytes := uint64(MinLogBytes) / uint64(g.BlockSize)
		if byBytes > min {
			min = byBytes
		}
	}
	return uint32(min)
}

func solveLogSize(ctx *option.Context, g *Geometry, dev DeviceSizes, logExternal, logSizeSeen bool, logBytesUser uint64, minLogBlocks uint32) error {
	var logBlocks uint64

	switch {
	case logSizeSeen:
		logBlocks = roundToBlocks(g, logBytesUser, "log")
		if logBlocks > MaxLogBlocks || logBlocks*uint64(g.BlockSize) > MaxLogBytes {
			return mkfserr.Newf(mkfserr.GeometryImpossible, "size %d too large for internal log", logBlocks)
		}
		if !logExternal {
			maxInAG := uint64(g.AGSize) - uint64(g.PreallocBlocks)
			if logBlocks >= uint64(g.AGSize) || logBlocks >= maxInAG {
				return mkfserr.Newf(mkfserr.GeometryImpossible, "size %d too large for internal log", logBlocks)
			}
		}
	case logExternal:
		logBlocks = dev.LogBytes / uint64(g.BlockSize)
	default:
		dataBytes := g.DataBlocks * uint64(g.BlockSize)
		switch {
		case dataBytes < oneGiBBytes:
			logBlocks = uint64(minLogBlocks)
		case dataBytes < sixteenGiBBytes:
			byBytes := uint64(MinLogBytes) / uint64(g.BlockSize)
			byFactor := uint64(minLogBlocks) * DflLogFactor
			logBlocks = byBytes
			if byFactor < logBlocks {
				logBlocks = byFactor
			}
		default:
			logBlocks = g.DataBlocks / 2048
			maxByBytes := uint64(MaxLogBytes) / uint64(g.BlockSize)
			if logBlocks > maxByBytes {
				logBlocks = maxByBytes
			}
		}
	}

	maxAllowed := uint64(g.AGSize) - uint64(g.PreallocBlocks)
	if uint64(MaxLogBlocks) < maxAllowed {
		maxAllowed = uint64(MaxLogBlocks)
	}
	if byBytes := uint64(MaxLogBytes) / uint64(g.BlockSize); byBytes < maxAllowed {
		maxAllowed = byBytes
	}
	if logBlocks < uint64(minLogBlocks) {
		logBlocks = uint64(minLogBlocks)
	}
	if logBlocks > maxAllowed {
		logBlocks = maxAllowed
	}
	if logBlocks >= uint64(g.AGSize) {
		logBlocks = uint64(minLogBlocks)
	}

	if logBlocks < uint64(minLogBlocks) {
		return mkfserr.Newf(mkfserr.GeometryImpossible,
			"log size %d blocks too small, minimum is %d blocks", logBlocks, minLogBlocks)
	}
	g.LogBlocks = uint32(logBlocks)
	return nil
}

// AGBToFSB converts an (AG number, AG-relative block) pair to a global
// filesystem block number, given an AG size.
func AGBToFSB(agno, agbno uint32, agSize uint32) uint64 {
	return uint64(agno)*uint64(agSize) + uint64(agbno)
}

func placeInternalLog(ctx *option.Context, g *Geometry) error {
	g.LogInternal = true

	logAgno := g.AGCount / 2
	if ctx.Seen('l', "agnum") {
		logAgno = uint32(ctx.Value('l', "agnum").AsUint64())
	}
	g.LogAgno = logAgno
	g.LogStart = AGBToFSB(logAgno, g.PreallocBlocks, g.AGSize)

	shouldAlign := g.LSunit > 0 || (!ctx.Seen('l', "sunit") && !ctx.Seen('l', "su") && g.DSunit > 0)
	if shouldAlign {
		stripe := g.LSunit
		if stripe == 0 {
			stripe = uint32(uint64(g.DSunit) * 512 / uint64(g.BlockSize))
		}
		if stripe > 0 {
			agRelStart := g.LogStart - AGBToFSB(logAgno, 0, g.AGSize)
			alignedStart := ((agRelStart + uint64(stripe) - 1) / uint64(stripe)) * uint64(stripe)
			g.LogStart = AGBToFSB(logAgno, uint32(alignedStart), g.AGSize)

			alignedBlocks := ((uint64(g.LogBlocks) + uint64(stripe) - 1) / uint64(stripe)) * uint64(stripe)
			agRelEnd := alignedStart + alignedBlocks
			if agRelEnd > uint64(g.AGSize) {
				alignedBlocks = (uint64(g.LogBlocks) / uint64(stripe)) * uint64(stripe)
				agRelEnd = alignedStart + alignedBlocks
			}
			g.LogBlocks = uint32(alignedBlocks)
			if agRelEnd > uint64(g.AGSize) {
				return mkfserr.New(mkfserr.LogTooLargeForAG, "internal log too large, must fit in AG")
			}
		}
	}

	agRelStart := g.LogStart - AGBToFSB(logAgno, 0, g.AGSize)
	if agRelStart+uint64(g.LogBlocks) > uint64(g.AGSize) {
		return mkfserr.New(mkfserr.LogTooLargeForAG, "internal log too large, must fit in AG")
	}
	return nil
}

func solveInodeAlignment(ctx *option.Context, g *Geometry) {
	if !ctx.Bool('i', "align") {
		g.InoAlignMt = 0
		g.SpinoAlign = 0
		return
	}

	mult := uint32(1)
	if g.Features.CRC {
		mult = uint32(g.InodeSize) / DinodeMinSize
	}
	g.InoAlignMt = InodeBigClusterSize * mult / g.BlockSize

	if g.Features.Sparse {
		g.SpinoAlign = g.InoAlignMt
		g.InoAlignMt = InodesPerChunk * uint32(g.InodeSize) / g.BlockSize
	}
}

func solveRealtimeGeometry(ctx *option.Context, g *Geometry, dev DeviceSizes, rtPresent, rtSizeSeen bool) {
	if !rtPresent {
		return
	}
	if !rtSizeSeen {
		g.RtBlocks = dev.RtBytes / uint64(g.BlockSize)
	}

	var rtExtBlocks uint64
	if ctx.Seen('r', "extsize") {
		rtExtBytes := ctx.Value('r', "extsize").AsUint64()
		rtExtBlocks = rtExtBytes / uint64(g.BlockSize)
	} else if g.DSwidth > 0 && !topologyNoAlign(ctx) {
		stripeBytes := uint64(g.DSwidth) * 512
		if stripeBytes >= MinRtExtSize && stripeBytes <= MaxRtExtSize {
			rtExtBlocks = stripeBytes / uint64(g.BlockSize)
		}
	}
	if rtExtBlocks == 0 {
		rtExtBlocks = uint64(MinRtExtSize) / uint64(g.BlockSize)
		if rtExtBlocks == 0 {
			rtExtBlocks = 1
		}
	}
	g.RtExtBlocks = uint32(rtExtBlocks)
	if rtExtBlocks > 0 {
		g.RtExtents = g.RtBlocks / rtExtBlocks
	}
	g.RtBmBlocks = uint32(ceilDiv(g.RtExtents, 8*uint64(g.BlockSize)))
}
