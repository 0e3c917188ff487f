package xfsfmt

import "testing"

func TestXLogRecHeaderMarshalSize(t *testing.T) {
	h := &XLogRecHeader{Magic: XLogMagic, Cycle: 1, Version: 2}
	buf := h.Marshal(true)
	if len(buf) != XLogRecHeaderSize {
		t.Fatalf("Marshal produced %d bytes, want %d", len(buf), XLogRecHeaderSize)
	}
	got := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])
	if got != XLogMagic {
		t.Errorf("magic = %#x, want %#x", got, XLogMagic)
	}
}

func TestXLogRecHeaderCRCOnlyWhenRequested(t *testing.T) {
	h := &XLogRecHeader{Magic: XLogMagic, Cycle: 1}
	v4 := h.Marshal(false)
	v5 := h.Marshal(true)

	allZero := true
	for _, b := range v4[32:36] {
		if b != 0 {
			allZero = false
		}
	}
	if !allZero {
		t.Errorf("v4 log header must leave the crc field zero")
	}

	anyNonZero := false
	for _, b := range v5[32:36] {
		if b != 0 {
			anyNonZero = true
		}
	}
	if !anyNonZero {
		t.Errorf("v5 log header must stamp a nonzero crc field")
	}
}

func TestInodeCoreMarshalSizeByVersion(t *testing.T) {
	c := &InodeCore{Magic: InodeMagic, Mode: 0100644, Format: 2, NLink: 1}
	v4 := c.Marshal(false)
	v5 := c.Marshal(true)
	if len(v4) != InodeCoreSize {
		t.Errorf("v4 inode core = %d bytes, want %d", len(v4), InodeCoreSize)
	}
	if len(v5) != InodeCoreV5Size {
		t.Errorf("v5 inode core = %d bytes, want %d", len(v5), InodeCoreV5Size)
	}
}
