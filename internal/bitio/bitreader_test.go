package bitio

import "testing"

func TestReadBitsZero(t *testing.T) {
	r := New([]byte{0xFF})
	v, err := r.ReadBits(0, 0)
	if err != nil {
		t.Fatalf("ReadBits(0,0) error: %v", err)
	}
	if v != 0 {
		t.Errorf("ReadBits(0,0): got %d, want 0", v)
	}
}

func TestReadBitsMSBFirst(t *testing.T) {
	r := New([]byte{0b10000000})
	v, err := r.ReadBits(0, 1)
	if err != nil {
		t.Fatalf("ReadBits error: %v", err)
	}
	if v != 1 {
		t.Errorf("ReadBits(0,1): got %d, want 1", v)
	}
	v, err = r.ReadBits(1, 1)
	if err != nil {
		t.Fatalf("ReadBits error: %v", err)
	}
	if v != 0 {
		t.Errorf("ReadBits(1,1): got %d, want 0", v)
	}
}

func TestReadBitsCrossesBytes(t *testing.T) {
	r := New([]byte{0x01, 0x80})
	v, err := r.ReadBits(0, 10)
	if err != nil {
		t.Fatalf("ReadBits error: %v", err)
	}
	if v != 0b0000000110 {
		t.Errorf("ReadBits(0,10): got %010b, want 0000000110", v)
	}
}

func TestReadBitsOutOfBounds(t *testing.T) {
	r := New([]byte{0xFF})
	if _, err := r.ReadBits(0, 9); err == nil {
		t.Error("expected out-of-bounds error for 9 bits from 1 byte")
	}
}

func TestReadBits64SpansThirtyTwo(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	r := New(buf)
	v, err := r.ReadBits64(0, 64)
	if err != nil {
		t.Fatalf("ReadBits64 error: %v", err)
	}
	want := uint64(0x0102030405060708)
	if v != want {
		t.Errorf("ReadBits64(0,64): got 0x%016X, want 0x%016X", v, want)
	}
}

func TestReadU32BigEndian(t *testing.T) {
	r := New([]byte{0x00, 0x00, 0x01, 0x00})
	v, err := r.ReadU32(0)
	if err != nil {
		t.Fatalf("ReadU32 error: %v", err)
	}
	if v != 256 {
		t.Errorf("ReadU32: got %d, want 256", v)
	}
}

func TestReadSignMagnitudeI16(t *testing.T) {
	r := New([]byte{0x80, 0x05}) // sign bit set, magnitude 5
	v, err := r.ReadSignMagnitudeI16(0)
	if err != nil {
		t.Fatalf("ReadSignMagnitudeI16 error: %v", err)
	}
	if v != -5 {
		t.Errorf("ReadSignMagnitudeI16: got %d, want -5", v)
	}
}

func TestReadSignMagnitudeI16Positive(t *testing.T) {
	r := New([]byte{0x00, 0x05})
	v, err := r.ReadSignMagnitudeI16(0)
	if err != nil {
		t.Fatalf("ReadSignMagnitudeI16 error: %v", err)
	}
	if v != 5 {
		t.Errorf("ReadSignMagnitudeI16: got %d, want 5", v)
	}
}

func TestBitCursorSequentialReads(t *testing.T) {
	c := NewCursor([]byte{0xB3, 0x20})
	cases := []struct {
		bits int
		want uint64
	}{
		{5, 22},
		{5, 12},
		{5, 16},
	}
	for i, tc := range cases {
		v, err := c.Read(tc.bits)
		if err != nil {
			t.Fatalf("case %d Read(%d) error: %v", i, tc.bits, err)
		}
		if v != tc.want {
			t.Errorf("case %d Read(%d): got %d, want %d", i, tc.bits, v, tc.want)
		}
	}
}

func TestBitCursorAlign(t *testing.T) {
	c := NewCursor([]byte{0xFF, 0x00})
	if _, err := c.Read(3); err != nil {
		t.Fatalf("Read error: %v", err)
	}
	c.Align()
	if c.Pos != 8 {
		t.Errorf("Align(): pos=%d, want 8", c.Pos)
	}
}

func TestBitCursorAlignNoOpOnBoundary(t *testing.T) {
	c := NewCursor([]byte{0xFF, 0x00})
	if _, err := c.Read(8); err != nil {
		t.Fatalf("Read error: %v", err)
	}
	before := c.Pos
	c.Align()
	if c.Pos != before {
		t.Errorf("Align() on boundary moved pos from %d to %d", before, c.Pos)
	}
}

func TestBytesZeroCopy(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	r := New(buf)
	b, err := r.Bytes(1, 2)
	if err != nil {
		t.Fatalf("Bytes error: %v", err)
	}
	if len(b) != 2 || b[0] != 2 || b[1] != 3 {
		t.Errorf("Bytes(1,2): got %v, want [2 3]", b)
	}
}
