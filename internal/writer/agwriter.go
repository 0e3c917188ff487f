package writer

import (
	"github.com/jtulak/xfsprogs-dev/internal/geometry"
	"github.com/jtulak/xfsprogs-dev/internal/xfsfmt"
)

// Fixed per-AG block layout (§4.7): the superblock copy, AGF, AGFL and AGI
// each occupy one whole filesystem block at the start of every AG,
// followed by the always-present BNO/CNT/INO btree roots and then
// whichever of FINO/RMAP/REFC the chosen features add, in that order.
// This matches geometry.preallocBlocks' count exactly.
const (
	agbSuperBlock = 0
	agbAGF        = 1
	agbAGFL       = 2
	agbAGI        = 3
	agbBNORoot    = 4
	agbCNTRoot    = 5
	agbINORoot    = 6
	agbFirstOpt   = 7 // FINO, then RMAP, then REFC, as enabled
)

// freeRange is one AG-relative free-block extent.
type freeRange struct {
	start, length uint32
}

// agLength returns the actual number of blocks AG ag spans. All AGs but
// the last are exactly g.AGSize; the last is clamped to whatever remains
// of DataBlocks (§4.3's last-AG sizing note).
func agLength(g *geometry.Geometry, ag uint32) uint32 {
	if ag == g.AGCount-1 {
		return uint32(g.DataBlocks - uint64(g.AGCount-1)*uint64(g.AGSize))
	}
	return g.AGSize
}

// agFreeRanges returns the free-space extents of AG ag once its header
// reservation (and, for AG 0, the root inode chunk, and for the log AG, an
// internal log) are carved out. At most two ranges come back, since only
// one internal log can split a single AG's free space in two.
func (w *Writer) agFreeRanges(ag uint32) []freeRange {
	g := w.g
	start := g.PreallocBlocks
	if ag == 0 {
		start += rootInoChunkBlocks(g) + rootDirBlocks(g)
	}
	end := agLength(g, ag)

	if g.LogInternal && ag == g.LogAgno {
		agStart := geometry.AGBToFSB(ag, 0, g.AGSize)
		logRelStart := uint32(g.LogStart - agStart)
		logRelEnd := logRelStart + g.LogBlocks
		var ranges []freeRange
		if logRelStart > start {
			ranges = append(ranges, freeRange{start, logRelStart - start})
		}
		if logRelEnd < end {
			ranges = append(ranges, freeRange{logRelEnd, end - logRelEnd})
		}
		return ranges
	}

	if end <= start {
		return nil
	}
	return []freeRange{{start, end - start}}
}

// rmapRecords returns the static-metadata rmapbt seed records for AG ag:
// the header reservation, the root inode chunk (AG 0 only) and, on the
// log AG, the internal log extent. Free space itself is never rmap'd;
// that is BNO/CNT's job.
func (w *Writer) rmapRecords(ag uint32) []xfsfmt.RmapRecord {
	g := w.g
	recs := []xfsfmt.RmapRecord{
		{StartBlock: 0, BlockCount: g.PreallocBlocks, Owner: xfsfmt.RmapOwnAGHeader},
	}
	if ag == 0 {
		recs = append(recs, xfsfmt.RmapRecord{
			StartBlock: g.PreallocBlocks,
			BlockCount: rootInoChunkBlocks(g),
			Owner:      xfsfmt.RmapOwnInodes,
		})
		// The root directory's single data block is real file data, owned
		// by the inode that holds it rather than one of the reserved
		// negative metadata tags.
		recs = append(recs, xfsfmt.RmapRecord{
			StartBlock: g.PreallocBlocks + rootInoChunkBlocks(g),
			BlockCount: rootDirBlocks(g),
			Owner:      int64(w.rootIno),
		})
	}
	if g.LogInternal && ag == g.LogAgno {
		agStart := geometry.AGBToFSB(ag, 0, g.AGSize)
		recs = append(recs, xfsfmt.RmapRecord{
			StartBlock: uint32(g.LogStart - agStart),
			BlockCount: g.LogBlocks,
			Owner:      xfsfmt.RmapOwnLog,
		})
	}
	return recs
}

func sumFree(ranges []freeRange) uint32 {
	var total uint32
	for _, r := range ranges {
		total += r.length
	}
	return total
}

func longestFree(ranges []freeRange) uint32 {
	var longest uint32
	for _, r := range ranges {
		if r.length > longest {
			longest = r.length
		}
	}
	return longest
}

func blockOffset(g *geometry.Geometry, ag, agbno uint32) int64 {
	return int64(geometry.AGBToFSB(ag, agbno, g.AGSize)) * int64(g.BlockSize)
}

// writeWholeBlock zero-pads payload up to the filesystem block size and
// writes it at the AG-relative block agbno of AG ag.
func (w *Writer) writeWholeBlock(ag, agbno uint32, payload []byte) error {
	blk := make([]byte, w.g.BlockSize)
	copy(blk, payload)
	return w.data.WriteAt(blk, blockOffset(w.g, ag, agbno))
}

// nullAGIno is the AG-relative NULLAGINO sentinel (all-ones), marking an
// empty per-AG inode list.
const nullAGIno = 0xffffffff

// optSlot returns the btree-root slot index, relative to agbFirstOpt, of
// the named optional btree given the current feature set; the on-disk
// order is always FINO, then RMAP, then REFC.
func optSlot(fs xfsfmt.FeatureSet, which string) uint32 {
	var n uint32
	if which == "fino" {
		return n
	}
	if fs.FinoBT {
		n++
	}
	if which == "rmap" {
		return n
	}
	if fs.RmapBT {
		n++
	}
	return n // "refc"
}

// writeAGHeaders writes the superblock copy, AGF, AGFL and AGI for AG ag.
// inProgress is only ever cleared on the primary copy's final pass (§4.7);
// every secondary copy is written with sb_inprogress=1 and never revisited
// except by the root-inode patch-up.
func (w *Writer) writeAGHeaders(ag uint32, rootIno uint64, inProgress bool) error {
	sb := buildSuperBlock(w.g, w.fs, rootIno, inProgress)
	if err := w.writeWholeBlock(ag, agbSuperBlock, sb.Marshal(w.fs.CRC)); err != nil {
		return err
	}

	free := w.agFreeRanges(ag)
	agf := &xfsfmt.AGF{
		Magic:   xfsfmt.AGFMagic,
		Version: 1,
		SeqNo:   ag,
		Length:  agLength(w.g, ag),
		BNOLevel: 1,
		CNTLevel: 1,
		BNORoot:  agbBNORoot,
		CNTRoot:  agbCNTRoot,
		FreeBlocks: sumFree(free),
		Longest:    longestFree(free),
	}
	if w.fs.RmapBT {
		agf.RmapLevel = 1
		agf.RmapRoot = agbFirstOpt + optSlot(w.fs, "rmap")
	}
	if err := w.writeWholeBlock(ag, agbAGF, agf.Marshal(w.fs.CRC)); err != nil {
		return err
	}

	agi := &xfsfmt.AGI{
		Magic:   xfsfmt.AGIMagic,
		Version: 1,
		SeqNo:   ag,
		Length:  agLength(w.g, ag),
		Level:   1,
		Root:    agbINORoot,
		DirIno:  nullAGIno,
	}
	if ag == 0 {
		agi.Count = geometry.InodesPerChunk
		agi.FreeCount = geometry.InodesPerChunk - 1
		agi.NewIno = uint32(rootIno)
	} else {
		agi.NewIno = nullAGIno
	}
	for i := range agi.Unlinked {
		agi.Unlinked[i] = nullAGIno
	}
	if w.fs.FinoBT {
		agi.FinoLevel = 1
		agi.FinoRoot = agbFirstOpt + optSlot(w.fs, "fino")
	}
	if err := w.writeWholeBlock(ag, agbAGI, agi.Marshal(w.fs.CRC, w.fs.FinoBT)); err != nil {
		return err
	}

	agfl := &xfsfmt.AGFL{Magic: xfsfmt.AGFLMagic, SeqNo: ag}
	return w.data.WriteAt(agfl.Marshal(w.fs.CRC, w.g.BlockSize), blockOffset(w.g, ag, agbAGFL))
}

// writeAGBtreeRoots writes the BNO/CNT free-space roots, the INO (and
// optional FINO) inode roots, the optional RMAP root and the optional
// REFC root for AG ag.
func (w *Writer) writeAGBtreeRoots(ag uint32) error {
	free := w.agFreeRanges(ag)

	bno := &xfsfmt.BTreeRootBlock{Magic: xfsfmt.BNOMagic, Level: 0, NumRecs: uint16(len(free)), Owner: uint64(ag)}
	if err := w.data.WriteAt(marshalAllocRoot(bno, free, w.fs.CRC, w.g), blockOffset(w.g, ag, agbBNORoot)); err != nil {
		return err
	}

	cnt := &xfsfmt.BTreeRootBlock{Magic: xfsfmt.CNTMagic, Level: 0, NumRecs: uint16(len(free)), Owner: uint64(ag)}
	if err := w.data.WriteAt(marshalAllocRoot(cnt, free, w.fs.CRC, w.g), blockOffset(w.g, ag, agbCNTRoot)); err != nil {
		return err
	}

	var inoRecs []xfsfmt.InodeBTRecord
	if ag == 0 {
		// Every inode but 0 (the just-allocated root) is free in its chunk.
		const allFree = ^uint64(0) &^ 1
		inoRecs = []xfsfmt.InodeBTRecord{{
			StartIno:  uint32(w.rootIno), // AG 0: absolute and AG-relative numbers coincide
			FreeCount: geometry.InodesPerChunk - 1,
			Free:      allFree,
		}}
	}
	ino := &xfsfmt.BTreeRootBlock{Magic: xfsfmt.INOMagic, Level: 0, NumRecs: uint16(len(inoRecs)), Owner: uint64(ag)}
	if err := w.data.WriteAt(marshalInoRoot(ino, inoRecs, w.fs.CRC, w.g), blockOffset(w.g, ag, agbINORoot)); err != nil {
		return err
	}

	slot := uint32(0)
	if w.fs.FinoBT {
		// FINO root is seeded empty, a conservative simplification —
		// see DESIGN.md's internal/writer ledger ("Simplification, flagged").
		fino := &xfsfmt.BTreeRootBlock{Magic: xfsfmt.FINOMagic, Level: 0, NumRecs: 0, Owner: uint64(ag)}
		if err := w.data.WriteAt(marshalInoRoot(fino, nil, w.fs.CRC, w.g), blockOffset(w.g, ag, agbFirstOpt+slot)); err != nil {
			return err
		}
		slot++
	}
	if w.fs.RmapBT {
		recs := w.rmapRecords(ag)
		rmap := &xfsfmt.BTreeRootBlock{Magic: xfsfmt.RMAPMagic, Level: 0, NumRecs: uint16(len(recs)), Owner: uint64(ag)}
		if err := w.data.WriteAt(marshalRmapRoot(rmap, recs, w.fs.CRC, w.g), blockOffset(w.g, ag, agbFirstOpt+slot)); err != nil {
			return err
		}
		slot++
	}
	if w.fs.Reflink {
		refc := &xfsfmt.BTreeRootBlock{Magic: xfsfmt.REFCMagic, Level: 0, NumRecs: 0, Owner: uint64(ag)}
		buf := refc.Marshal(w.fs.CRC, w.g.BlockSize)
		refc.Finalize(buf, w.fs.CRC)
		if err := w.data.WriteAt(buf, blockOffset(w.g, ag, agbFirstOpt+slot)); err != nil {
			return err
		}
	}
	return nil
}

func marshalAllocRoot(b *xfsfmt.BTreeRootBlock, free []freeRange, crc bool, g *geometry.Geometry) []byte {
	buf := b.Marshal(crc, g.BlockSize)
	off := b.HeaderLen(crc)
	for _, r := range free {
		rec := xfsfmt.AllocRecord{StartBlock: r.start, BlockCount: r.length}
		rec.Marshal(buf[off:])
		off += 8
	}
	b.Finalize(buf, crc)
	return buf
}

func marshalInoRoot(b *xfsfmt.BTreeRootBlock, recs []xfsfmt.InodeBTRecord, crc bool, g *geometry.Geometry) []byte {
	buf := b.Marshal(crc, g.BlockSize)
	off := b.HeaderLen(crc)
	for _, r := range recs {
		r.Marshal(buf[off:])
		off += 16
	}
	b.Finalize(buf, crc)
	return buf
}

func marshalRmapRoot(b *xfsfmt.BTreeRootBlock, recs []xfsfmt.RmapRecord, crc bool, g *geometry.Geometry) []byte {
	buf := b.Marshal(crc, g.BlockSize)
	off := b.HeaderLen(crc)
	for _, r := range recs {
		r.Marshal(buf[off:])
		off += 24
	}
	b.Finalize(buf, crc)
	return buf
}
