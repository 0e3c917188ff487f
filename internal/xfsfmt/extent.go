package xfsfmt

import "encoding/binary"

// BMBTRecSize is the fixed size of one packed data-fork extent record.
const BMBTRecSize = 16

// BMBTRec is one direct (non-btree-fork) data-fork extent record: a file-
// relative starting offset, an absolute starting filesystem block, a run
// length, and whether the extent is unwritten (preallocated but not yet
// holding real data).
type BMBTRec struct {
	StartOffset uint64
	StartBlock  uint64
	BlockCount  uint32
	Unwritten   bool
}

// Marshal packs the record into the real on-disk 128-bit layout: a 1-bit
// unwritten flag, a 54-bit startoff, a 52-bit startblock, and a 21-bit
// blockcount, split across two big-endian uint64 words.
func (r BMBTRec) Marshal(buf []byte) {
	var flag uint64
	if r.Unwritten {
		flag = 1
	}
	l0 := (flag << 63) | ((r.StartOffset & 0x3fffffffffffff) << 9) | (r.StartBlock >> 43)
	l1 := (r.StartBlock << 21) | (uint64(r.BlockCount) & 0x1fffff)

	binary.BigEndian.PutUint64(buf[0:], l0)
	binary.BigEndian.PutUint64(buf[8:], l1)
}

// UnmarshalBMBTRec is the inverse of Marshal, used by tests to verify the
// packing round-trips.
func UnmarshalBMBTRec(buf []byte) BMBTRec {
	l0 := binary.BigEndian.Uint64(buf[0:])
	l1 := binary.BigEndian.Uint64(buf[8:])

	return BMBTRec{
		Unwritten:   l0>>63 != 0,
		StartOffset: (l0 >> 9) & 0x3fffffffffffff,
		StartBlock:  ((l0 & 0x1ff) << 43) | (l1 >> 21),
		BlockCount:  uint32(l1 & 0x1fffff),
	}
}
