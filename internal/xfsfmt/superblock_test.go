package xfsfmt

import (
	"testing"

	"github.com/google/uuid"
)

func TestSuperBlockMarshalUnmarshalRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		crc  bool
	}{
		{"v4", false},
		{"v5", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id := uuid.New()
			sb := &SuperBlock{
				MagicNum:   SBMagic,
				BlockSize:  4096,
				DBlocks:    65536,
				AGBlocks:   16384,
				AGCount:    4,
				VersionNum: VersionNum4,
				SectSize:   512,
				InodeSize:  256,
				InopBlock:  16,
				BlockLog:   12,
				SectLog:    9,
				InodeLog:   8,
				ImaxPct:    25,
				UUID:       id,
			}
			if tc.crc {
				sb.VersionNum = VersionNum5
				sb.FeaturesROCompat = ROCompatFeatFinoBT
				sb.MetaUUID = id
			}

			buf := sb.Marshal(tc.crc)
			if len(buf) != SuperBlockSize {
				t.Fatalf("Marshal produced %d bytes, want %d", len(buf), SuperBlockSize)
			}

			if tc.crc && !VerifyChecksum(buf) {
				t.Fatalf("VerifyChecksum failed on a freshly marshaled v5 superblock")
			}

			got := UnmarshalSuperBlock(buf)
			if got.MagicNum != sb.MagicNum {
				t.Errorf("MagicNum = %#x, want %#x", got.MagicNum, sb.MagicNum)
			}
			if got.BlockSize != sb.BlockSize {
				t.Errorf("BlockSize = %d, want %d", got.BlockSize, sb.BlockSize)
			}
			if got.DBlocks != sb.DBlocks {
				t.Errorf("DBlocks = %d, want %d", got.DBlocks, sb.DBlocks)
			}
			if got.AGCount != sb.AGCount {
				t.Errorf("AGCount = %d, want %d", got.AGCount, sb.AGCount)
			}
			if got.UUID != sb.UUID {
				t.Errorf("UUID = %s, want %s", got.UUID, sb.UUID)
			}
			if tc.crc && got.FeaturesROCompat != sb.FeaturesROCompat {
				t.Errorf("FeaturesROCompat = %#x, want %#x", got.FeaturesROCompat, sb.FeaturesROCompat)
			}
		})
	}
}

func TestVerifyChecksumDetectsCorruption(t *testing.T) {
	sb := &SuperBlock{MagicNum: SBMagic, BlockSize: 4096, VersionNum: VersionNum5}
	buf := sb.Marshal(true)

	buf[10] ^= 0xff
	if VerifyChecksum(buf) {
		t.Fatalf("VerifyChecksum must fail after corrupting a byte outside the crc field")
	}
}

func TestFeatureSetVersionNum(t *testing.T) {
	v4 := FeatureSet{}
	if v4.VersionNum() == VersionNum5 {
		t.Errorf("a feature set with CRC off must not report v5")
	}

	v5 := FeatureSet{CRC: true, FinoBT: true, RmapBT: true}
	if v5.VersionNum() != VersionNum5 {
		t.Errorf("VersionNum() = %d, want %d", v5.VersionNum(), VersionNum5)
	}
	if v5.ROCompatFeatures()&ROCompatFeatFinoBT == 0 {
		t.Errorf("expected ROCompatFeatFinoBT set")
	}
	if v5.ROCompatFeatures()&ROCompatFeatRmapBT == 0 {
		t.Errorf("expected ROCompatFeatRmapBT set")
	}

	off := FeatureSet{CRC: false, FinoBT: true}
	if off.ROCompatFeatures() != 0 {
		t.Errorf("RO-compat words must be zero when CRC is off, got %#x", off.ROCompatFeatures())
	}
}

func TestFeatureSetVersionNumStripeAndSectorBits(t *testing.T) {
	plain := FeatureSet{}
	if v := plain.VersionNum(); v&VersionDalignBit != 0 || v&VersionSectorBit != 0 {
		t.Errorf("VersionNum() = %#x, want neither VersionDalignBit nor VersionSectorBit set", v)
	}

	aligned := FeatureSet{StripeAlign: true}
	if v := aligned.VersionNum(); v&VersionDalignBit == 0 {
		t.Errorf("VersionNum() = %#x, want VersionDalignBit set for a stripe-aligned v4 filesystem", v)
	}

	nonDefaultSector := FeatureSet{NonDefaultSectorSize: true}
	if v := nonDefaultSector.VersionNum(); v&VersionSectorBit == 0 {
		t.Errorf("VersionNum() = %#x, want VersionSectorBit set for a non-default sector size", v)
	}
}

func TestFeatureSetIncompatASCIICI(t *testing.T) {
	ci := FeatureSet{CRC: true, DirV2CI: true}
	if ci.IncompatFeatures()&IncompatFeatASCIICI == 0 {
		t.Errorf("expected IncompatFeatASCIICI set for a case-insensitive-directory v5 filesystem")
	}

	off := FeatureSet{CRC: false, DirV2CI: true}
	if off.IncompatFeatures() != 0 {
		t.Errorf("incompat word must be zero when CRC is off, got %#x", off.IncompatFeatures())
	}
}
