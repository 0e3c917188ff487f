package xfsfmt

import "encoding/binary"

// XLogRecHeaderSize is the fixed size of a log record header; a freshly
// formatted log needs exactly one of these, marking cycle 1 with zero
// outstanding transactions, so that the kernel's log-recovery scan finds a
// clean, already-quiesced log on first mount.
const XLogRecHeaderSize = 512

// XLogRecHeader is the header stamped at the start of a fresh log.
type XLogRecHeader struct {
	Magic     uint32
	Cycle     uint32
	Version   uint32
	Len       uint32
	LSN       uint64
	TailLSN   uint64
	CRC       uint32
	PrevBlock int32
	NumLogOps uint32
	FSUUID    [16]byte
	Fmt       uint32
	Size      uint32
}

func (h *XLogRecHeader) Marshal(crc bool) []byte {
	buf := make([]byte, XLogRecHeaderSize)
	be := binary.BigEndian

	be.PutUint32(buf[0:], h.Magic)
	be.PutUint32(buf[4:], h.Cycle)
	be.PutUint32(buf[8:], h.Version)
	be.PutUint32(buf[12:], h.Len)
	be.PutUint64(buf[16:], h.LSN)
	be.PutUint64(buf[24:], h.TailLSN)
	// buf[32:36] (h_crc) stays zero until the checksum pass below.
	be.PutUint32(buf[36:], uint32(h.PrevBlock))
	be.PutUint32(buf[40:], h.NumLogOps)
	be.PutUint32(buf[300:], h.Fmt)
	copy(buf[304:320], h.FSUUID[:])
	be.PutUint32(buf[320:], h.Size)

	if crc {
		sum := crc32Checksum(buf)
		be.PutUint32(buf[32:], sum)
	}
	return buf
}

// InodeCoreSize is the fixed size of the v4 inode core (literal-core dinode
// header, before the data/extent/btree fork payload); v5 appends a further
// CRC/UUID/times/generation-counter trailer, InodeCoreV5Size.
const (
	InodeCoreSize   = 96
	InodeCoreV5Size = 176
)

// InodeCore is the dinode header every on-disk inode carries ahead of its
// fork data. The root directory inode a fresh filesystem seeds is the only
// inode this module constructs directly.
type InodeCore struct {
	Magic     uint16
	Mode      uint16
	Version   uint8
	Format    uint8
	OnLink    uint16
	UID       uint32
	GID       uint32
	NLink     uint32
	ProjID    uint16
	FlushIter uint16
	ATime     uint32
	MTime     uint32
	CTime     uint32
	Size      int64
	NBlocks   uint64
	ExtSize   uint32
	NExtents  int32
	ANExtents int16
	ForkOff   uint8
	AFormat   int8
	Flags     uint16
	Gen       uint32

	// v5-only trailer.
	CRC     uint32
	ChangeCount uint64
	LSN     uint64
	Flags2  uint64
	UUID    [16]byte
}

func (c *InodeCore) Marshal(crc bool) []byte {
	size := InodeCoreSize
	if crc {
		size = InodeCoreV5Size
	}
	buf := make([]byte, size)
	be := binary.BigEndian

	be.PutUint16(buf[0:], c.Magic)
	be.PutUint16(buf[2:], c.Mode)
	buf[4] = c.Version
	buf[5] = c.Format
	be.PutUint16(buf[6:], c.OnLink)
	be.PutUint32(buf[8:], c.UID)
	be.PutUint32(buf[12:], c.GID)
	be.PutUint32(buf[16:], c.NLink)
	be.PutUint16(buf[20:], c.ProjID)
	be.PutUint16(buf[30:], c.FlushIter)
	be.PutUint32(buf[32:], c.ATime)
	be.PutUint32(buf[40:], c.MTime)
	be.PutUint32(buf[48:], c.CTime)
	be.PutUint64(buf[56:], uint64(c.Size))
	be.PutUint64(buf[64:], c.NBlocks)
	be.PutUint32(buf[72:], c.ExtSize)
	be.PutUint32(buf[76:], uint32(c.NExtents))
	be.PutUint16(buf[80:], uint16(c.ANExtents))
	buf[82] = c.ForkOff
	buf[83] = uint8(c.AFormat)
	be.PutUint16(buf[90:], c.Flags)
	be.PutUint32(buf[92:], c.Gen)

	if crc {
		be.PutUint64(buf[100:], c.ChangeCount)
		be.PutUint64(buf[108:], c.LSN)
		be.PutUint64(buf[116:], c.Flags2)
		copy(buf[160:176], c.UUID[:])
		sum := crc32Checksum(buf)
		be.PutUint32(buf[124:], sum)
	}
	return buf
}
