package bytescan

import "testing"

func TestSliceReads(t *testing.T) {
	s := Slice{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}

	u16, err := s.U16(0)
	if err != nil || u16 != 0x0201 {
		t.Fatalf("U16(0) = %#x, %v", u16, err)
	}
	u32, err := s.U32(0)
	if err != nil || u32 != 0x04030201 {
		t.Fatalf("U32(0) = %#x, %v", u32, err)
	}
	u64, err := s.U64(0)
	if err != nil || u64 != 0x0807060504030201 {
		t.Fatalf("U64(0) = %#x, %v", u64, err)
	}
}

func TestSliceOverrun(t *testing.T) {
	s := Slice{0x01, 0x02}
	if _, err := s.U32(0); err == nil {
		t.Fatal("expected truncation error")
	}
	if _, err := s.Bytes(1, 5); err == nil {
		t.Fatal("expected truncation error")
	}
}

func TestCursorAdvances(t *testing.T) {
	s := Slice{0xaa, 0xbb, 0x01, 0x00, 'h', 'i'}
	c := NewCursor(s)

	u16, err := c.ReadU16()
	if err != nil || u16 != 0xbbaa {
		t.Fatalf("ReadU16 = %#x, %v", u16, err)
	}
	if c.Pos() != 2 {
		t.Fatalf("Pos() = %d, want 2", c.Pos())
	}
	n, err := c.ReadU16()
	if err != nil || n != 1 {
		t.Fatalf("ReadU16 = %d, %v", n, err)
	}
	name, err := c.ReadBytes(2)
	if err != nil || string(name) != "hi" {
		t.Fatalf("ReadBytes = %q, %v", name, err)
	}
	if err := c.Skip(1); err == nil {
		t.Fatal("expected truncation error skipping past end")
	}
}
