package xfsfmt

import "testing"

func TestBMBTRecRoundTrip(t *testing.T) {
	cases := []BMBTRec{
		{StartOffset: 0, StartBlock: 9, BlockCount: 1},
		{StartOffset: 8, StartBlock: 100000, BlockCount: 512, Unwritten: true},
		{StartOffset: 1 << 40, StartBlock: (1 << 51) - 1, BlockCount: (1 << 21) - 1},
	}
	for _, rec := range cases {
		buf := make([]byte, BMBTRecSize)
		rec.Marshal(buf)
		got := UnmarshalBMBTRec(buf)
		if got != rec {
			t.Errorf("round trip mismatch: got %+v, want %+v", got, rec)
		}
	}
}
