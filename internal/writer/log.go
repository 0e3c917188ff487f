package writer

import "github.com/jtulak/xfsprogs-dev/internal/xfsfmt"

// writeLog zeroes the log's extent and stamps it with a single, clean
// record header, so a first mount's log-recovery scan sees an already-
// quiesced log rather than scanning uninitialized disk content (§4.7).
func (w *Writer) writeLog() error {
	dev := w.data
	if !w.g.LogInternal {
		dev = w.logDev
	}

	off := w.logByteOffset()
	size := int64(w.g.LogBlocks) * int64(w.g.BlockSize)
	if err := dev.ZeroRange(off, size); err != nil {
		return err
	}

	hdr := &xfsfmt.XLogRecHeader{
		Magic:   xfsfmt.XLogMagic,
		Cycle:   1,
		Version: logVersion(w.fs),
		FSUUID:  w.g.UUID,
		Fmt:     1, // XLOG_FMT_XFS, the only format this core ever writes
		Size:    w.g.BlockSize,
	}
	return dev.WriteAt(hdr.Marshal(w.fs.CRC), off)
}

func logVersion(fs xfsfmt.FeatureSet) uint32 {
	if fs.LogV2 {
		return 2
	}
	return 1
}

// logByteOffset returns the byte offset of the log's first block, on
// whichever device actually holds it.
func (w *Writer) logByteOffset() int64 {
	if w.g.LogInternal {
		return int64(w.g.LogStart) * int64(w.g.BlockSize)
	}
	return 0
}
