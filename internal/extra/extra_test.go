package extra

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/parazip/parazip/internal/archiveerr"
)

func record(tag, size uint16, body []byte) []byte {
	buf := make([]byte, 4+len(body))
	binary.LittleEndian.PutUint16(buf[0:2], tag)
	binary.LittleEndian.PutUint16(buf[2:4], size)
	copy(buf[4:], body)
	return buf
}

func TestZip64FieldOrder(t *testing.T) {
	// uncompressed, compressed, offset, disk — only the requested ones,
	// in that fixed order, per spec §4.3.
	body := make([]byte, 0, 32)
	put64 := func(v uint64) {
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, v)
		body = append(body, b...)
	}
	put64(5_000_000_000) // uncompressed
	put64(1_234_567_890) // compressed
	put64(999)           // offset
	// disk_number not requested, omitted entirely.

	data := record(Zip64Tag, uint16(len(body)), body)

	want := Sentinels{UncompressedSize: true, CompressedSize: true, HeaderOffset: true}
	got, err := Zip64(data, want)
	if err != nil {
		t.Fatalf("Zip64: %v", err)
	}
	if got.UncompressedSize != 5_000_000_000 || got.CompressedSize != 1_234_567_890 || got.HeaderOffset != 999 {
		t.Fatalf("Zip64 = %+v", got)
	}
}

func TestZip64OnlyCompressedRequested(t *testing.T) {
	body := make([]byte, 8)
	binary.LittleEndian.PutUint64(body, 6_000_000_000)
	data := record(Zip64Tag, 8, body)

	got, err := Zip64(data, Sentinels{CompressedSize: true})
	if err != nil {
		t.Fatalf("Zip64: %v", err)
	}
	if got.CompressedSize != 6_000_000_000 {
		t.Fatalf("CompressedSize = %d", got.CompressedSize)
	}
	if got.UncompressedSize != 0 {
		t.Fatalf("UncompressedSize = %d, want 0", got.UncompressedSize)
	}
}

func TestZip64TruncatedRecord(t *testing.T) {
	data := record(Zip64Tag, 4, []byte{1, 2, 3, 4}) // need 8 for one field
	_, err := Zip64(data, Sentinels{UncompressedSize: true})
	if !errors.Is(err, archiveerr.ErrMalformedZip64) {
		t.Fatalf("Zip64 error = %v, want ErrMalformedZip64", err)
	}
}

func TestZip64OverrunSize(t *testing.T) {
	data := record(Zip64Tag, 100, []byte{1, 2}) // declares 100 bytes, has 2
	_, err := Zip64(data, Sentinels{UncompressedSize: true})
	if !errors.Is(err, archiveerr.ErrMalformedZip64) {
		t.Fatalf("Zip64 error = %v, want ErrMalformedZip64", err)
	}
}

func TestWalkVisitsUnknownTags(t *testing.T) {
	data := append(record(0x9999, 2, []byte{1, 2}), record(TagUnix, 8, make([]byte, 8))...)
	var seen []uint16
	Walk(data, func(tag uint16, body []byte) { seen = append(seen, tag) })
	if len(seen) != 2 || seen[0] != 0x9999 || seen[1] != TagUnix {
		t.Fatalf("Walk saw %v", seen)
	}
}
