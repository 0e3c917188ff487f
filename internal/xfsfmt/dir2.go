package xfsfmt

import "encoding/binary"

// Dir2DataFDCount is the number of "best free" entries tracked at the head
// of a directory data block.
const Dir2DataFDCount = 3

// Dir2FreeEntry is one "best free" slot: the offset and length of one of
// the block's largest unused spans, kept sorted so the allocator doesn't
// have to scan the whole block to place a new entry.
type Dir2FreeEntry struct {
	Offset uint16
	Length uint16
}

// Dir2BlockHeaderSize is the fixed header a single-block directory (the
// only shape a freshly made, still-empty root directory needs) carries
// ahead of its entries.
const Dir2BlockHeaderSize = 16

// Dir2BlockHeader is the combined data/block header for a directory that
// fits in one block: magic number plus the best-free table. The root
// directory of a fresh filesystem is always exactly this shape, with "."
// and ".." as its only two entries.
type Dir2BlockHeader struct {
	Magic    uint32
	BestFree [Dir2DataFDCount]Dir2FreeEntry
}

func (h *Dir2BlockHeader) Marshal(buf []byte) {
	be := binary.BigEndian
	be.PutUint32(buf[0:], h.Magic)
	for i, e := range h.BestFree {
		off := 4 + i*4
		be.PutUint16(buf[off:], e.Offset)
		be.PutUint16(buf[off+2:], e.Length)
	}
}

// Dir2BlockTail sits at the very end of a single-block directory, after
// the leaf entries that index it by hash.
type Dir2BlockTail struct {
	Count uint32
	Stale uint32
}

func (t Dir2BlockTail) Marshal(buf []byte) {
	be := binary.BigEndian
	be.PutUint32(buf[0:], t.Count)
	be.PutUint32(buf[4:], t.Stale)
}

// Dir2LeafEntry indexes one directory entry by its name hash, for the
// leaf section appended after the data entries in a single-block
// directory.
type Dir2LeafEntry struct {
	Hashval uint32
	Address uint32
}

func (e Dir2LeafEntry) Marshal(buf []byte) {
	be := binary.BigEndian
	be.PutUint32(buf[0:], e.Hashval)
	be.PutUint32(buf[4:], e.Address)
}

// Dir2DataEntry is one on-disk "." / ".." / named-child directory entry:
// inode number, name, and (when the ftype feature is on) a trailing
// file-type byte, all followed by a tag that points back at the entry's
// own offset so the leaf section's Address field can be validated.
type Dir2DataEntry struct {
	Inode uint64
	Name  []byte
	FType uint8
}

// Marshal writes the entry at buf[0:], tagging it with blockOffset (its own
// byte offset within the containing directory block, which a leaf entry's
// Address field needs to reference it), and returns the number of bytes it
// occupies (always 8-byte aligned, per the on-disk format's padding rule).
func (e Dir2DataEntry) Marshal(buf []byte, ftype bool, blockOffset uint16) int {
	be := binary.BigEndian
	be.PutUint64(buf[0:], e.Inode)
	buf[8] = uint8(len(e.Name))
	n := copy(buf[9:], e.Name)
	off := 9 + n
	if ftype {
		buf[off] = e.FType
		off++
	}
	aligned := (off + 2 + 7) &^ 7
	be.PutUint16(buf[aligned-2:], blockOffset)
	return aligned
}
