package bitio

import "testing"

func TestReadBitsLSBFirst(t *testing.T) {
	// 0b10110010 read 8 bits LSB-first should reassemble the original byte.
	r := NewReader([]byte{0xB2})
	v, err := r.ReadBits(8, LSBFirst)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xB2 {
		t.Fatalf("got %#x, want %#x", v, 0xB2)
	}
}

func TestReadBitsMSBFirst(t *testing.T) {
	r := NewReader([]byte{0xB2})
	v, err := r.ReadBits(8, MSBFirst)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xB2 {
		t.Fatalf("got %#x, want %#x", v, 0xB2)
	}
}

func TestReadBitsSplitAcrossBoundary(t *testing.T) {
	// LSBFirst: low 3 bits of byte 0, then low 5 bits of byte 1, concatenated
	// with later bits in higher positions.
	r := NewReader([]byte{0x07, 0x01}) // 0b00000111, 0b00000001
	v, err := r.ReadBits(3, LSBFirst)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x7 {
		t.Fatalf("first 3 bits: got %#x want %#x", v, 0x7)
	}
	v, err = r.ReadBits(8, LSBFirst)
	if err != nil {
		t.Fatal(err)
	}
	// remaining 5 bits of byte0 (all 0) then 3 bits of byte1 (0b001 -> bits 0,0,1)
	if v != 0x20 {
		t.Fatalf("got %#x want %#x", v, 0x20)
	}
}

func TestAlignToByteBoundary(t *testing.T) {
	r := NewReader([]byte{0xFF, 0xAA})
	if _, err := r.ReadBits(3, LSBFirst); err != nil {
		t.Fatal(err)
	}
	r.AlignToByteBoundary()
	if r.BytesConsumed() != 1 {
		t.Fatalf("BytesConsumed = %d, want 1", r.BytesConsumed())
	}
	v, err := r.ReadBits(8, LSBFirst)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xAA {
		t.Fatalf("got %#x want %#x", v, 0xAA)
	}
}

func TestBytesConsumedRoundsUp(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	if _, err := r.ReadBits(1, LSBFirst); err != nil {
		t.Fatal(err)
	}
	if got := r.BytesConsumed(); got != 1 {
		t.Fatalf("BytesConsumed = %d, want 1", got)
	}
}

func TestUnexpectedEOF(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.ReadBits(16, LSBFirst); err != ErrUnexpectedEOF {
		t.Fatalf("err = %v, want ErrUnexpectedEOF", err)
	}
}

func TestNewMSBFirstReaderReversesByteOrder(t *testing.T) {
	// 0b10110010 (0xB2) read high-bit-first should yield 1,0,1,1,0,0,1,0.
	r := NewMSBFirstReader([]byte{0xB2})
	want := []uint8{1, 0, 1, 1, 0, 0, 1, 0}
	for i, w := range want {
		b, err := r.ReadBit()
		if err != nil {
			t.Fatal(err)
		}
		if b != w {
			t.Fatalf("bit %d = %d, want %d", i, b, w)
		}
	}
}

func TestReadBitSequential(t *testing.T) {
	r := NewReader([]byte{0b10000001})
	bits := make([]uint8, 0, 8)
	for i := 0; i < 8; i++ {
		b, err := r.ReadBit()
		if err != nil {
			t.Fatal(err)
		}
		bits = append(bits, b)
	}
	want := []uint8{1, 0, 0, 0, 0, 0, 0, 1}
	for i := range want {
		if bits[i] != want[i] {
			t.Fatalf("bit %d = %d, want %d", i, bits[i], want[i])
		}
	}
}
