// Package bytescan provides bounds-checked little-endian reads over an
// immutable byte range, the way internal/zip/zip.go indexes its central
// directory slice directly but with an explicit error instead of a panic on
// overrun.
package bytescan

import (
	"encoding/binary"
	"fmt"

	"github.com/parazip/parazip/internal/archiveerr"
)

// Slice is a read-only view into a byte range. It never copies or allocates.
type Slice []byte

func (s Slice) need(off, n int) error {
	if off < 0 || n < 0 || off+n > len(s) {
		return fmt.Errorf("%w: need %d bytes at %d, have %d", archiveerr.ErrTruncated, n, off, len(s))
	}
	return nil
}

// U16 reads a little-endian uint16 at off.
func (s Slice) U16(off int) (uint16, error) {
	if err := s.need(off, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(s[off:]), nil
}

// U32 reads a little-endian uint32 at off.
func (s Slice) U32(off int) (uint32, error) {
	if err := s.need(off, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(s[off:]), nil
}

// U64 reads a little-endian uint64 at off.
func (s Slice) U64(off int) (uint64, error) {
	if err := s.need(off, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(s[off:]), nil
}

// Bytes returns the n-byte sub-slice starting at off, sharing storage with s.
func (s Slice) Bytes(off, n int) (Slice, error) {
	if err := s.need(off, n); err != nil {
		return nil, err
	}
	return s[off : off+n], nil
}

// Cursor reads fixed-layout records sequentially, advancing as it goes.
// It is the StructuredReader of the spec: every Read* call both validates
// bounds and moves the cursor forward, so a record's fields can be read in
// declaration order without recomputing offsets by hand.
type Cursor struct {
	s   Slice
	pos int
}

// NewCursor starts a cursor at the beginning of s.
func NewCursor(s Slice) *Cursor { return &Cursor{s: s} }

// Pos returns the cursor's current offset into the underlying slice.
func (c *Cursor) Pos() int { return c.pos }

// Seek moves the cursor to an absolute offset within the slice.
func (c *Cursor) Seek(off int) { c.pos = off }

func (c *Cursor) ReadU16() (uint16, error) {
	v, err := c.s.U16(c.pos)
	if err != nil {
		return 0, err
	}
	c.pos += 2
	return v, nil
}

func (c *Cursor) ReadU32() (uint32, error) {
	v, err := c.s.U32(c.pos)
	if err != nil {
		return 0, err
	}
	c.pos += 4
	return v, nil
}

func (c *Cursor) ReadU64() (uint64, error) {
	v, err := c.s.U64(c.pos)
	if err != nil {
		return 0, err
	}
	c.pos += 8
	return v, nil
}

// ReadBytes consumes and returns the next n bytes.
func (c *Cursor) ReadBytes(n int) (Slice, error) {
	v, err := c.s.Bytes(c.pos, n)
	if err != nil {
		return nil, err
	}
	c.pos += n
	return v, nil
}

// Skip advances the cursor by n bytes without reading, still bounds-checked.
func (c *Cursor) Skip(n int) error {
	if err := c.s.need(c.pos, n); err != nil {
		return err
	}
	c.pos += n
	return nil
}
