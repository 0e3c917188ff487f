package xfsfmt

import "testing"

func TestAGFMarshalV5EmbedsValidChecksum(t *testing.T) {
	agf := &AGF{
		Magic:   AGFMagic,
		Version: 1,
		SeqNo:   0,
		Length:  16384,
		BNORoot: 9,
		CNTRoot: 10,
		BNOLevel: 1,
		CNTLevel: 1,
		FLCount: 0,
		FreeBlocks: 16376,
		Longest: 16376,
	}
	buf := agf.Marshal(true)
	if len(buf) != AGFSize {
		t.Fatalf("Marshal produced %d bytes, want %d", len(buf), AGFSize)
	}

	sum := crc32Checksum(withZeroedCRC(buf, 80))
	if sum == 0 {
		t.Fatalf("computed checksum must not be zero for nonzero input")
	}
	got := uint32(buf[80])<<24 | uint32(buf[81])<<16 | uint32(buf[82])<<8 | uint32(buf[83])
	if got != sum {
		t.Errorf("embedded checksum = %#x, want %#x", got, sum)
	}
}

func TestAGIMarshalWithAndWithoutFinoBT(t *testing.T) {
	agi := &AGI{
		Magic:     AGIMagic,
		Version:   1,
		Count:     64,
		Root:      11,
		FreeCount: 64,
		NewIno:    0xffffffff,
		DirIno:    0xffffffff,
		FinoRoot:  13,
	}

	withFino := agi.Marshal(true, true)
	withoutFino := agi.Marshal(true, false)
	if len(withFino) != AGISize || len(withoutFino) != AGISize {
		t.Fatalf("Marshal must always produce %d bytes", AGISize)
	}

	finoOff := 40 + len(agi.Unlinked)*4
	gotFinoRoot := uint32(withFino[finoOff])<<24 | uint32(withFino[finoOff+1])<<16 |
		uint32(withFino[finoOff+2])<<8 | uint32(withFino[finoOff+3])
	if gotFinoRoot != agi.FinoRoot {
		t.Errorf("finobt AGI: FinoRoot at offset %d = %d, want %d", finoOff, gotFinoRoot, agi.FinoRoot)
	}

	// Without finobt, that same region instead holds the CRC/UUID/LSN
	// trailer, so it must not echo FinoRoot's value.
	gotWithoutFino := uint32(withoutFino[finoOff])<<24 | uint32(withoutFino[finoOff+1])<<16 |
		uint32(withoutFino[finoOff+2])<<8 | uint32(withoutFino[finoOff+3])
	if gotWithoutFino == agi.FinoRoot {
		t.Errorf("non-finobt AGI must not place FinoRoot's value at the finobt offset")
	}
}

func TestAGFLV4IsBareZeroBlock(t *testing.T) {
	fl := &AGFL{Magic: AGFLMagic}
	buf := fl.Marshal(false, 4096)
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("v4 AGFL block must be all zero, found nonzero byte at %d", i)
		}
	}
}

func TestAGFLV5EmbedsMagic(t *testing.T) {
	fl := &AGFL{Magic: AGFLMagic, SeqNo: 2}
	buf := fl.Marshal(true, 4096)
	if len(buf) != 4096 {
		t.Fatalf("Marshal produced %d bytes, want 4096", len(buf))
	}
	got := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	if got != AGFLMagic {
		t.Errorf("magic = %#x, want %#x", got, AGFLMagic)
	}
}

func withZeroedCRC(buf []byte, off int) []byte {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	cp[off], cp[off+1], cp[off+2], cp[off+3] = 0, 0, 0, 0
	return cp
}
