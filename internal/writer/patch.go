package writer

import "github.com/jtulak/xfsprogs-dev/internal/xfsfmt"

// patchSecondarySuperblocks performs §4.7's secondary-superblock
// root-inode patch-up: repair tools that only trust xfs_repair's own
// root-inode search scan the last AG (and, with three or more AGs, the
// middle one too) for a plausible root inode, so those two secondary
// copies get their sb_rootino field rewritten with the primary's value
// after the rest of the filesystem is written.
func (w *Writer) patchSecondarySuperblocks(rootIno uint64) error {
	if w.g.AGCount <= 1 {
		return nil
	}
	if err := w.patchOneSuperblock(w.g.AGCount-1, rootIno); err != nil {
		return err
	}
	if w.g.AGCount > 2 {
		mid := w.g.AGCount / 2
		if err := w.patchOneSuperblock(mid, rootIno); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) patchOneSuperblock(ag uint32, rootIno uint64) error {
	off := blockOffset(w.g, ag, agbSuperBlock)
	buf := make([]byte, xfsfmt.SuperBlockSize)
	if err := w.data.ReadAt(buf, off); err != nil {
		return err
	}
	sb := xfsfmt.UnmarshalSuperBlock(buf)
	sb.RootIno = rootIno
	return w.data.WriteAt(sb.Marshal(w.fs.CRC), off)
}
