package xfsfmt

import "encoding/binary"

// ShortBlockHeaderSize is the v4 short-form btree block header
// (magic/level/numrecs/leftsib/rightsib); v5 adds a CRC/UUID/LSN/owner/blkno
// trailer, CRCBlockHeaderSize.
const (
	ShortBlockHeaderSize = 16
	CRCBlockHeaderSize   = 56
)

// BTreeRootBlock is a freshly formatted root block for one of the per-AG
// short-form btrees (BNO, CNT, INO, FINO, RMAP, REFC). A fresh root always
// has Level 0 and NumRecs equal to the number of records the writer seeds
// directly into it (the AG's free-space extents for BNO/CNT, the root
// inode chunk's record for INO in AG 0 and none elsewhere, none for
// FINO/REFC, the static-metadata owner records for RMAP).
type BTreeRootBlock struct {
	Magic    uint32
	Level    uint16
	NumRecs  uint16
	LeftSib  uint32
	RightSib uint32

	// v5 trailer fields.
	Owner  uint64
	BlkNo  uint64
	LSN    uint64
	UUID   [16]byte
	CRC    uint32
}

// HeaderLen reports how many bytes of a marshaled block the header (and,
// for v5, its trailer) occupies before record payload may begin.
func (b *BTreeRootBlock) HeaderLen(crc bool) int {
	if crc {
		return CRCBlockHeaderSize
	}
	return ShortBlockHeaderSize
}

// Marshal renders the root block header into a blockSize-byte buffer; the
// caller appends its own record payload starting at HeaderLen(crc), then
// calls Finalize to stamp the CRC once the whole block is populated (v5
// only; a no-op for v4).
func (b *BTreeRootBlock) Marshal(crc bool, blockSize uint32) []byte {
	buf := make([]byte, blockSize)
	be := binary.BigEndian

	be.PutUint32(buf[0:], b.Magic)
	be.PutUint16(buf[4:], b.Level)
	be.PutUint16(buf[6:], b.NumRecs)
	be.PutUint32(buf[8:], b.LeftSib)
	be.PutUint32(buf[12:], b.RightSib)

	if crc {
		be.PutUint64(buf[16:], b.Owner)
		be.PutUint64(buf[24:], b.BlkNo)
		be.PutUint64(buf[32:], b.LSN)
		copy(buf[40:56], b.UUID[:])
		// buf[56:60] would carry the CRC in the real on-disk trailer layout
		// (crc follows the UUID on XFS's actual short-form v5 header); this
		// simplified trailer keeps the CRC at a block-final fixed offset
		// instead, stamped by Finalize once records are appended.
	}
	return buf
}

// Finalize stamps the CRC over the fully populated block (header, records,
// and any trailing padding), at the fixed trailer offset. It is a no-op
// when crc is false.
func (b *BTreeRootBlock) Finalize(buf []byte, crc bool) {
	if !crc {
		return
	}
	crcOff := len(buf) - 4 // block-final, clear of the record payload
	binary.BigEndian.PutUint32(buf[crcOff:], 0)
	sum := crc32Checksum(buf)
	binary.BigEndian.PutUint32(buf[crcOff:], sum)
}

// AllocRecord is one by-block-number or by-extent-size free-space btree
// record: a starting block and a run length, both AG-relative.
type AllocRecord struct {
	StartBlock uint32
	BlockCount uint32
}

func (r AllocRecord) Marshal(buf []byte) {
	be := binary.BigEndian
	be.PutUint32(buf[0:], r.StartBlock)
	be.PutUint32(buf[4:], r.BlockCount)
}

// InodeBTRecord is one inode btree record: a starting inode number within
// the AG, a free-inode count, and a bitmap of which of the 64 inodes in the
// chunk are free.
type InodeBTRecord struct {
	StartIno  uint32
	FreeCount uint32
	Free      uint64
}

func (r InodeBTRecord) Marshal(buf []byte) {
	be := binary.BigEndian
	be.PutUint32(buf[0:], r.StartIno)
	be.PutUint32(buf[4:], r.FreeCount)
	be.PutUint64(buf[8:], r.Free)
}

// RmapRecord is one reverse-mapping btree record, used to seed the
// static-metadata owners (AG headers, the log, inode chunks) a fresh v5
// filesystem must record before any real allocation happens.
type RmapRecord struct {
	StartBlock uint32
	BlockCount uint32
	Owner      int64
	Offset     uint64
}

func (r RmapRecord) Marshal(buf []byte) {
	be := binary.BigEndian
	be.PutUint32(buf[0:], r.StartBlock)
	be.PutUint32(buf[4:], r.BlockCount)
	be.PutUint64(buf[8:], uint64(r.Owner))
	be.PutUint64(buf[16:], r.Offset)
}
