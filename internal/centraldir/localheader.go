package centraldir

import (
	"fmt"

	"github.com/parazip/parazip/internal/archiveerr"
	"github.com/parazip/parazip/internal/bytescan"
)

const (
	sigLocal      = 0x04034b50
	localFixedLen = 30
)

// LocalHeaderInfo reads the fixed portion of the Local File Header at the
// metadata's (already prefix-corrected) header_offset and returns the
// absolute offset where the entry's payload begins. Local name/extra
// regions may differ in content from the central directory's; only their
// lengths matter here, per spec §4.7 step 2.
func LocalHeaderInfo(b []byte, headerOffset uint64) (payloadStart int64, err error) {
	s := bytescan.Slice(b)
	off := int(headerOffset)

	sig, err := s.U32(off)
	if err != nil {
		return 0, fmt.Errorf("%w: reading local file header signature", archiveerr.ErrTruncated)
	}
	if sig != sigLocal {
		return 0, fmt.Errorf("%w: expected local file header signature at %d, got %#08x", archiveerr.ErrMalformed, off, sig)
	}
	nameLen, err := s.U16(off + 26)
	if err != nil {
		return 0, err
	}
	extraLen, err := s.U16(off + 28)
	if err != nil {
		return 0, err
	}
	start := int64(off) + localFixedLen + int64(nameLen) + int64(extraLen)
	if start > int64(len(b)) {
		return 0, fmt.Errorf("%w: local file header payload start %d exceeds archive length %d", archiveerr.ErrTruncated, start, len(b))
	}
	return start, nil
}

// CheckLocalHeader re-reads the Local File Header for m and verifies its
// sizes agree with the central directory, unless m.NeedsDataDescriptor is
// set (in which case local sizes may legitimately be zero).
func CheckLocalHeader(b []byte, m Metadata) error {
	s := bytescan.Slice(b)
	off := int(m.HeaderOffset)

	sig, err := s.U32(off)
	if err != nil {
		return fmt.Errorf("%w: reading local file header signature", archiveerr.ErrTruncated)
	}
	if sig != sigLocal {
		return fmt.Errorf("%w: expected local file header signature at %d, got %#08x", archiveerr.ErrMalformed, off, sig)
	}
	if m.NeedsDataDescriptor {
		return nil
	}

	localCRC, err := s.U32(off + 14)
	if err != nil {
		return err
	}
	localCompSize, err := s.U32(off + 18)
	if err != nil {
		return err
	}
	localUncompSize, err := s.U32(off + 22)
	if err != nil {
		return err
	}

	mismatch := func(field string, local uint32, central uint64) error {
		return fmt.Errorf("%w: %s: local header has %d, central directory has %d", archiveerr.ErrLocalHeaderMismatch, field, local, central)
	}

	if uint64(localCRC) != uint64(m.CRC32) {
		return mismatch("crc32", localCRC, uint64(m.CRC32))
	}
	// A 32-bit local header field that reads the Zip64 sentinel doesn't
	// disagree with a central directory value that required Zip64 to
	// express; only compare when the local field isn't itself punting to
	// an extra record.
	if localCompSize != sentinel32 && uint64(localCompSize) != m.CompressedSize {
		return mismatch("compressed_size", localCompSize, m.CompressedSize)
	}
	if localUncompSize != sentinel32 && uint64(localUncompSize) != m.UncompressedSize {
		return mismatch("uncompressed_size", localUncompSize, m.UncompressedSize)
	}
	return nil
}
