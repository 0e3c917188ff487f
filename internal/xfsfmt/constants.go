// Package xfsfmt implements §3.3/§6.2's on-disk structures: the superblock,
// per-AG headers, btree root blocks, the empty root directory block, and the
// feature-bit words that gate which of those fields v5 filesystems carry.
package xfsfmt

// Magic numbers, named the way the on-disk format itself names them
// ("XFSB" unpacked as a big-endian uint32, etc).
const (
	SBMagic  = 0x58465342 // "XFSB"
	AGFMagic = 0x58414746 // "XAGF"
	AGIMagic = 0x58414749 // "XAGI"
	AGFLMagic = 0x5841464c // "XAFL", v5 only

	BNOMagic  = 0x41425442 // "ABTB"
	CNTMagic  = 0x41425443 // "ABTC"
	INOMagic  = 0x49414254 // "IABT"
	FINOMagic = 0x46494254 // "FIBT"
	RMAPMagic = 0x524d4150 // "RMAP"
	REFCMagic = 0x52454642 // "REFB"

	Dir2BlockMagic = 0x58443242 // "XD2B"
	Dir2DataMagic  = 0x58443244 // "XD2D"

	XLogMagic = 0xfeedbabe

	InodeMagic = 0x494e // "IN"
)

// Superblock version number and v4 feature bits (sb_versionnum).
const (
	VersionNum4    = 4
	VersionAttrBit = 0x0010
	VersionNlinkBit = 0x0020
	VersionQuotaBit = 0x0040
	VersionAlignBit = 0x0080
	VersionDalignBit = 0x0100
	VersionSharedBit = 0x0200
	VersionLogV2Bit = 0x0400
	VersionSectorBit = 0x0800
	VersionExtFlgBit = 0x1000
	VersionDirV2Bit  = 0x2000
	VersionMoreBitsBit = 0x8000

	VersionNum5 = 5 // v5 (CRC-enabled) filesystems report this instead of the bit-packed v4 field

	Version2LazySBCountBit = 0x00000002
	Version2Attr2Bit       = 0x00000008
	Version2ProjID32Bit    = 0x00000080
	Version2CRCBit         = 0x00000100
	Version2FTypeBit       = 0x00000200
)

// V5 compat/ro_compat/incompat/log_incompat feature words (sb_features2
// is retired in v5; these replace it, per §6.2).
const (
	CompatFeatAttr = 0x00000001

	ROCompatFeatFinoBT  = 0x00000001
	ROCompatFeatRmapBT  = 0x00000002
	ROCompatFeatReflink = 0x00000004

	IncompatFeatFType    = 0x00000001
	IncompatFeatASCIICI  = 0x00000002
	IncompatFeatSparse   = 0x00000004
	IncompatFeatMetaUUID = 0x00000008

	LogIncompatFeatNone = 0x00000000
)

// Directory entry file-type tags (§6.2's ftype byte).
const (
	FTypeRegularFile  = 1
	FTypeDirectory    = 2
	FTypeCharSpecial  = 3
	FTypeBlockSpecial = 4
	FTypeFIFO         = 5
	FTypeSocket       = 6
	FTypeSymlink      = 7
)

// rmap owner tags used by the static-metadata rmapbt records the writer
// seeds for the log, AG headers, and inode chunks.
const (
	RmapOwnLog     = -9
	RmapOwnAGHeader = -1
	RmapOwnInodes  = -5
)
