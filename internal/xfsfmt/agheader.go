package xfsfmt

import "encoding/binary"

// AGFSize and AGISize are the fixed on-disk sizes of the AGF and AGI
// sectors; both pad out to a full sector on write, matching the
// superblock's own fixed-size sector convention.
const (
	AGFSize = 224
	AGISize = 336
)

// AGF is the §6.2 allocation-group free-space header: roots and levels of
// the two free-space btrees (by-block and by-size), the AG's freelist
// bounds, and summary counters.
type AGF struct {
	Magic   uint32
	Version uint32
	SeqNo   uint32
	Length  uint32

	BNORoot uint32
	CNTRoot uint32
	RmapRoot uint32

	BNOLevel uint32
	CNTLevel uint32
	RmapLevel uint32

	FLFirst uint32
	FLLast  uint32
	FLCount uint32

	FreeBlocks uint32
	Longest    uint32
	BTreeBlocks uint32

	UUID [16]byte
	CRC  uint32
	LSN  uint64
}

func (agf *AGF) Marshal(crc bool) []byte {
	buf := make([]byte, AGFSize)
	be := binary.BigEndian

	be.PutUint32(buf[0:], agf.Magic)
	be.PutUint32(buf[4:], agf.Version)
	be.PutUint32(buf[8:], agf.SeqNo)
	be.PutUint32(buf[12:], agf.Length)
	be.PutUint32(buf[16:], agf.BNORoot)
	be.PutUint32(buf[20:], agf.CNTRoot)
	be.PutUint32(buf[24:], agf.RmapRoot)
	be.PutUint32(buf[28:], agf.BNOLevel)
	be.PutUint32(buf[32:], agf.CNTLevel)
	be.PutUint32(buf[36:], agf.RmapLevel)
	be.PutUint32(buf[40:], agf.FLFirst)
	be.PutUint32(buf[44:], agf.FLLast)
	be.PutUint32(buf[48:], agf.FLCount)
	be.PutUint32(buf[52:], agf.FreeBlocks)
	be.PutUint32(buf[56:], agf.Longest)
	be.PutUint32(buf[60:], agf.BTreeBlocks)

	if crc {
		copy(buf[64:80], agf.UUID[:])
		// buf[80:84] (crc) stays zero until the checksum pass below.
		be.PutUint64(buf[84:], agf.LSN)
		sum := crc32Checksum(buf)
		be.PutUint32(buf[80:], sum)
	}
	return buf
}

// AGI is the §6.2 allocation-group inode-management header: the inode
// btree root/level, counts, and the unlinked-inode hash buckets.
type AGI struct {
	Magic   uint32
	Version uint32
	SeqNo   uint32
	Length  uint32

	Count     uint32
	Root      uint32
	Level     uint32
	FreeCount uint32
	NewIno    uint32
	DirIno    uint32

	Unlinked [64]uint32

	FinoRoot  uint32
	FinoLevel uint32

	UUID [16]byte
	CRC  uint32
	LSN  uint64
}

func (agi *AGI) Marshal(crc, finobt bool) []byte {
	buf := make([]byte, AGISize)
	be := binary.BigEndian

	be.PutUint32(buf[0:], agi.Magic)
	be.PutUint32(buf[4:], agi.Version)
	be.PutUint32(buf[8:], agi.SeqNo)
	be.PutUint32(buf[12:], agi.Length)
	be.PutUint32(buf[16:], agi.Count)
	be.PutUint32(buf[20:], agi.Root)
	be.PutUint32(buf[24:], agi.Level)
	be.PutUint32(buf[28:], agi.FreeCount)
	be.PutUint32(buf[32:], agi.NewIno)
	be.PutUint32(buf[36:], agi.DirIno)
	for i, v := range agi.Unlinked {
		be.PutUint32(buf[40+i*4:], v)
	}

	off := 40 + len(agi.Unlinked)*4
	if finobt {
		be.PutUint32(buf[off:], agi.FinoRoot)
		be.PutUint32(buf[off+4:], agi.FinoLevel)
		off += 8
	}
	if crc {
		copy(buf[off:off+16], agi.UUID[:])
		be.PutUint64(buf[off+20:], agi.LSN)
		sum := crc32Checksum(buf)
		be.PutUint32(buf[off+16:], sum)
	}
	return buf
}

// AGFLSize is the fixed size of the AG freelist's v5 header; v4 freelists
// have no header at all and start directly with the block-number array.
const AGFLSize = 36

// AGFL is the per-AG freelist block. On v5 it carries a magic/UUID/CRC/LSN
// header ahead of the free block-number array; on v4 the block is bare.
type AGFL struct {
	Magic uint32
	SeqNo uint32
	UUID  [16]byte
	LSN   uint64
	CRC   uint32
}

func (fl *AGFL) Marshal(crc bool, blockSize uint32) []byte {
	buf := make([]byte, blockSize)
	if !crc {
		return buf
	}
	be := binary.BigEndian
	be.PutUint32(buf[0:], fl.Magic)
	be.PutUint32(buf[4:], fl.SeqNo)
	copy(buf[8:24], fl.UUID[:])
	be.PutUint64(buf[24:], fl.LSN)
	sum := crc32Checksum(buf[:AGFLSize])
	be.PutUint32(buf[32:], sum)
	return buf
}
