package xfsfmt

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/google/uuid"
)

// crc32cTable is the Castagnoli CRC-32 polynomial table, the checksum every
// v5 on-disk structure uses. The standard library's hash/crc32 already
// implements Castagnoli directly; no third-party crc32c package is needed,
// the same call other filesystem tooling in the retrieval pack makes for
// ext4's identical crc32c(superblock) field.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// SuperBlockSize is the fixed on-disk size of the superblock sector,
// covering both the v4 layout and the v5 extension fields.
const SuperBlockSize = 512

// crcOffset is the byte offset of the sb_crc field within the superblock;
// the checksum is computed over the whole sector with this field zeroed.
const crcOffset = 224

// SuperBlock is the §3.3 geometry record rendered as the exact on-disk
// layout (§6.2), v4 and v5 fields both present; v5-only fields are left
// zero when the CRC feature is off.
type SuperBlock struct {
	MagicNum   uint32
	BlockSize  uint32
	DBlocks    uint64
	RBlocks    uint64
	RExtents   uint64
	UUID       uuid.UUID
	LogStart   uint64
	RootIno    uint64
	RBmIno     uint64
	RSumIno    uint64
	RExtSize   uint32
	AGBlocks   uint32
	AGCount    uint32
	RBmBlocks  uint32
	LogBlocks  uint32
	VersionNum uint16
	SectSize   uint16
	InodeSize  uint16
	InopBlock  uint16
	FName      [12]byte
	BlockLog   uint8
	SectLog    uint8
	InodeLog   uint8
	InopBlog   uint8
	AGBlklog   uint8
	RExtslog   uint8
	InProgress uint8
	ImaxPct    uint8

	ICount   uint64
	IFree    uint64
	FDBlocks uint64
	FrExtents uint64

	UQuotIno uint64
	GQuotIno uint64
	QFlags   uint16
	Flags    uint8
	Shared   uint8

	InoAlignMt uint32
	UnitSize   uint32
	WidthSize  uint32
	DirBlkLog  uint8
	LogSectLog uint8
	LogSectSize uint16
	LogSunit   uint32
	Features2  uint32
	BadFeatures2 uint32

	// v5-only fields, valid only when Features.CRC is set.
	FeaturesCompat   uint32
	FeaturesROCompat uint32
	FeaturesIncompat uint32
	FeaturesLogIncompat uint32
	CRC              uint32
	SpinoAlign       uint32
	PQuotIno         uint64
	LSN              uint64
	MetaUUID         uuid.UUID
}

// Marshal renders the superblock into a SuperBlockSize-byte big-endian
// sector, computing and embedding the CRC when crc is true.
func (sb *SuperBlock) Marshal(crc bool) []byte {
	buf := make([]byte, SuperBlockSize)
	be := binary.BigEndian

	be.PutUint32(buf[0:], sb.MagicNum)
	be.PutUint32(buf[4:], sb.BlockSize)
	be.PutUint64(buf[8:], sb.DBlocks)
	be.PutUint64(buf[16:], sb.RBlocks)
	be.PutUint64(buf[24:], sb.RExtents)
	copy(buf[32:48], sb.UUID[:])
	be.PutUint64(buf[48:], sb.LogStart)
	be.PutUint64(buf[56:], sb.RootIno)
	be.PutUint64(buf[64:], sb.RBmIno)
	be.PutUint64(buf[72:], sb.RSumIno)
	be.PutUint32(buf[80:], sb.RExtSize)
	be.PutUint32(buf[84:], sb.AGBlocks)
	be.PutUint32(buf[88:], sb.AGCount)
	be.PutUint32(buf[92:], sb.RBmBlocks)
	be.PutUint32(buf[96:], sb.LogBlocks)
	be.PutUint16(buf[100:], sb.VersionNum)
	be.PutUint16(buf[102:], sb.SectSize)
	be.PutUint16(buf[104:], sb.InodeSize)
	be.PutUint16(buf[106:], sb.InopBlock)
	copy(buf[108:120], sb.FName[:])
	buf[120] = sb.BlockLog
	buf[121] = sb.SectLog
	buf[122] = sb.InodeLog
	buf[123] = sb.InopBlog
	buf[124] = sb.AGBlklog
	buf[125] = sb.RExtslog
	buf[126] = sb.InProgress
	buf[127] = sb.ImaxPct
	be.PutUint64(buf[128:], sb.ICount)
	be.PutUint64(buf[136:], sb.IFree)
	be.PutUint64(buf[144:], sb.FDBlocks)
	be.PutUint64(buf[152:], sb.FrExtents)
	be.PutUint64(buf[160:], sb.UQuotIno)
	be.PutUint64(buf[168:], sb.GQuotIno)
	be.PutUint16(buf[176:], sb.QFlags)
	buf[178] = sb.Flags
	buf[179] = sb.Shared
	be.PutUint32(buf[180:], sb.InoAlignMt)
	be.PutUint32(buf[184:], sb.UnitSize)
	be.PutUint32(buf[188:], sb.WidthSize)
	buf[192] = sb.DirBlkLog
	buf[193] = sb.LogSectLog
	be.PutUint16(buf[194:], sb.LogSectSize)
	be.PutUint32(buf[196:], sb.LogSunit)
	be.PutUint32(buf[200:], sb.Features2)
	be.PutUint32(buf[204:], sb.BadFeatures2)

	if crc {
		be.PutUint32(buf[208:], sb.FeaturesCompat)
		be.PutUint32(buf[212:], sb.FeaturesROCompat)
		be.PutUint32(buf[216:], sb.FeaturesIncompat)
		be.PutUint32(buf[220:], sb.FeaturesLogIncompat)
		// buf[224:228] (sb_crc) stays zero until the checksum pass below.
		be.PutUint32(buf[228:], sb.SpinoAlign)
		be.PutUint64(buf[232:], sb.PQuotIno)
		be.PutUint64(buf[240:], sb.LSN)
		copy(buf[248:264], sb.MetaUUID[:])

		sum := crc32.Checksum(buf, crc32cTable)
		be.PutUint32(buf[crcOffset:], sum)
	}

	return buf
}

// UnmarshalSuperBlock parses a SuperBlockSize-byte sector back into a
// SuperBlock, the inverse of Marshal. It does not itself verify the CRC;
// callers that care call VerifyChecksum on the raw bytes first.
func UnmarshalSuperBlock(buf []byte) *SuperBlock {
	be := binary.BigEndian
	sb := &SuperBlock{}

	sb.MagicNum = be.Uint32(buf[0:])
	sb.BlockSize = be.Uint32(buf[4:])
	sb.DBlocks = be.Uint64(buf[8:])
	sb.RBlocks = be.Uint64(buf[16:])
	sb.RExtents = be.Uint64(buf[24:])
	copy(sb.UUID[:], buf[32:48])
	sb.LogStart = be.Uint64(buf[48:])
	sb.RootIno = be.Uint64(buf[56:])
	sb.RBmIno = be.Uint64(buf[64:])
	sb.RSumIno = be.Uint64(buf[72:])
	sb.RExtSize = be.Uint32(buf[80:])
	sb.AGBlocks = be.Uint32(buf[84:])
	sb.AGCount = be.Uint32(buf[88:])
	sb.RBmBlocks = be.Uint32(buf[92:])
	sb.LogBlocks = be.Uint32(buf[96:])
	sb.VersionNum = be.Uint16(buf[100:])
	sb.SectSize = be.Uint16(buf[102:])
	sb.InodeSize = be.Uint16(buf[104:])
	sb.InopBlock = be.Uint16(buf[106:])
	copy(sb.FName[:], buf[108:120])
	sb.BlockLog = buf[120]
	sb.SectLog = buf[121]
	sb.InodeLog = buf[122]
	sb.InopBlog = buf[123]
	sb.AGBlklog = buf[124]
	sb.RExtslog = buf[125]
	sb.InProgress = buf[126]
	sb.ImaxPct = buf[127]
	sb.ICount = be.Uint64(buf[128:])
	sb.IFree = be.Uint64(buf[136:])
	sb.FDBlocks = be.Uint64(buf[144:])
	sb.FrExtents = be.Uint64(buf[152:])
	sb.UQuotIno = be.Uint64(buf[160:])
	sb.GQuotIno = be.Uint64(buf[168:])
	sb.QFlags = be.Uint16(buf[176:])
	sb.Flags = buf[178]
	sb.Shared = buf[179]
	sb.InoAlignMt = be.Uint32(buf[180:])
	sb.UnitSize = be.Uint32(buf[184:])
	sb.WidthSize = be.Uint32(buf[188:])
	sb.DirBlkLog = buf[192]
	sb.LogSectLog = buf[193]
	sb.LogSectSize = be.Uint16(buf[194:])
	sb.LogSunit = be.Uint32(buf[196:])
	sb.Features2 = be.Uint32(buf[200:])
	sb.BadFeatures2 = be.Uint32(buf[204:])

	if sb.VersionNum == VersionNum5 {
		sb.FeaturesCompat = be.Uint32(buf[208:])
		sb.FeaturesROCompat = be.Uint32(buf[212:])
		sb.FeaturesIncompat = be.Uint32(buf[216:])
		sb.FeaturesLogIncompat = be.Uint32(buf[220:])
		sb.CRC = be.Uint32(buf[224:])
		sb.SpinoAlign = be.Uint32(buf[228:])
		sb.PQuotIno = be.Uint64(buf[232:])
		sb.LSN = be.Uint64(buf[240:])
		copy(sb.MetaUUID[:], buf[248:264])
	}

	return sb
}

// crc32Checksum is the shared Castagnoli checksum helper every v5 on-disk
// structure in this package uses (AGF/AGI/AGFL/btree blocks), not just the
// superblock.
func crc32Checksum(buf []byte) uint32 {
	return crc32.Checksum(buf, crc32cTable)
}

// VerifyChecksum reports whether buf's embedded sb_crc matches a freshly
// computed checksum of the sector with that field zeroed.
func VerifyChecksum(buf []byte) bool {
	want := binary.BigEndian.Uint32(buf[crcOffset:])
	scratch := make([]byte, len(buf))
	copy(scratch, buf)
	binary.BigEndian.PutUint32(scratch[crcOffset:], 0)
	return crc32.Checksum(scratch, crc32cTable) == want
}
