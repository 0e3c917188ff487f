package xfsfmt

// FeatureSet mirrors internal/geometry's Features, kept as its own type
// here so this package stays independent of the geometry package and only
// deals in on-disk bit layout; internal/writer is what maps one to the
// other.
type FeatureSet struct {
	CRC         bool
	InodeAlign  bool
	LogV2       bool
	AttrV2      bool
	ProjID32Bit bool
	LazySBCount bool
	FType       bool
	FinoBT      bool
	RmapBT      bool
	Reflink     bool
	Sparse      bool
	DirV2CI     bool

	// StripeAlign and NonDefaultSectorSize record whether the v4
	// version-num word needs VersionDalignBit/VersionSectorBit set;
	// both describe on-disk geometry the version-num word flags rather
	// than a named feature, so they aren't part of geometry.Features.
	StripeAlign          bool
	NonDefaultSectorSize bool
}

// VersionNum returns the sb_versionnum field: the bit-packed v4 form, or
// the plain 5 for CRC-enabled filesystems (v5 keeps the rest of its
// feature bits in the compat/ro_compat/incompat words instead).
func (f FeatureSet) VersionNum() uint16 {
	if f.CRC {
		return VersionNum5
	}
	v := uint16(VersionNum4) | VersionDirV2Bit | VersionExtFlgBit | VersionMoreBitsBit
	if f.InodeAlign {
		v |= VersionAlignBit
	}
	if f.LogV2 {
		v |= VersionLogV2Bit
	}
	if f.StripeAlign {
		v |= VersionDalignBit
	}
	if f.NonDefaultSectorSize {
		v |= VersionSectorBit
	}
	return v
}

// Features2 returns the sb_features2 word used by both v4 (as the sole
// home for the bits it carries) and v5 (where it is kept for
// compatibility with tools that still read it instead of the split
// compat/ro_compat words).
func (f FeatureSet) Features2() uint32 {
	var v uint32
	if f.LazySBCount {
		v |= Version2LazySBCountBit
	}
	if f.AttrV2 {
		v |= Version2Attr2Bit
	}
	if f.ProjID32Bit {
		v |= Version2ProjID32Bit
	}
	if f.CRC {
		v |= Version2CRCBit
	}
	if f.FType {
		v |= Version2FTypeBit
	}
	return v
}

// CompatFeatures, ROCompatFeatures, and IncompatFeatures are the v5-only
// feature words; all return zero when CRC is off.
func (f FeatureSet) CompatFeatures() uint32 {
	if !f.CRC {
		return 0
	}
	var v uint32
	if f.AttrV2 {
		v |= CompatFeatAttr
	}
	return v
}

func (f FeatureSet) ROCompatFeatures() uint32 {
	if !f.CRC {
		return 0
	}
	var v uint32
	if f.FinoBT {
		v |= ROCompatFeatFinoBT
	}
	if f.RmapBT {
		v |= ROCompatFeatRmapBT
	}
	if f.Reflink {
		v |= ROCompatFeatReflink
	}
	return v
}

func (f FeatureSet) IncompatFeatures() uint32 {
	if !f.CRC {
		return 0
	}
	var v uint32
	if f.FType {
		v |= IncompatFeatFType
	}
	if f.Sparse {
		v |= IncompatFeatSparse
	}
	if f.DirV2CI {
		v |= IncompatFeatASCIICI
	}
	return v
}
