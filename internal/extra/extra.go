// Package extra walks a ZIP extra-field region (tag/size/data records) and
// resolves the Zip64 overrides a central directory header's 32-bit sentinel
// values point to, the way
// _examples/other_examples/0ed51eff_tektoncd-chains__...zipslicer-directory.go.go's
// ReadWithDirectory consumes the positionally-compacted Zip64 record.
package extra

import (
	"encoding/binary"
	"fmt"

	"github.com/parazip/parazip/internal/archiveerr"
)

// Zip64Tag is the extra-field tag identifying the Zip64 Extended Information record.
const Zip64Tag = 0x0001

// Sentinels reports which fixed-header fields read their 32-/16-bit sentinel
// maximum, meaning their real value lives in the Zip64 extra record instead.
type Sentinels struct {
	UncompressedSize bool
	CompressedSize   bool
	HeaderOffset     bool
	DiskNumber       bool
}

// Any reports whether at least one field needs a Zip64 override.
func (s Sentinels) Any() bool {
	return s.UncompressedSize || s.CompressedSize || s.HeaderOffset || s.DiskNumber
}

// Overrides holds the Zip64 values resolved from the extra field, zero where
// the corresponding sentinel wasn't set.
type Overrides struct {
	UncompressedSize uint64
	CompressedSize   uint64
	HeaderOffset     uint64
	DiskNumber       uint64
}

// Zip64 walks the extra-field byte slice looking for tag 0x0001 and decodes
// the fields the sentinels call for, in the fixed order the format mandates:
// uncompressed size, compressed size, header offset, disk number — each
// present in the record iff its sentinel flag is set. Record sizes that
// overrun the slice fail with ErrMalformedZip64. If no Zip64 record is
// present but sentinels were requested, Overrides is returned zeroed; the
// caller decides whether that is itself malformed.
func Zip64(data []byte, want Sentinels) (Overrides, error) {
	var out Overrides
	if !want.Any() {
		return out, nil
	}

	for rec := data; len(rec) > 0; {
		if len(rec) < 4 {
			return out, fmt.Errorf("%w: truncated extra-field record header", archiveerr.ErrMalformedZip64)
		}
		tag := binary.LittleEndian.Uint16(rec[0:2])
		size := int(binary.LittleEndian.Uint16(rec[2:4]))
		if size > len(rec)-4 {
			return out, fmt.Errorf("%w: extra-field record declares size %d beyond remaining %d bytes", archiveerr.ErrMalformedZip64, size, len(rec)-4)
		}
		body := rec[4 : 4+size]
		rec = rec[4+size:]

		if tag != Zip64Tag {
			continue
		}

		need := 0
		if want.UncompressedSize {
			need += 8
		}
		if want.CompressedSize {
			need += 8
		}
		if want.HeaderOffset {
			need += 8
		}
		if want.DiskNumber {
			need += 8
		}
		if len(body) < need {
			return out, fmt.Errorf("%w: zip64 record has %d bytes, need %d for requested fields", archiveerr.ErrMalformedZip64, len(body), need)
		}

		pos := 0
		if want.UncompressedSize {
			out.UncompressedSize = binary.LittleEndian.Uint64(body[pos:])
			pos += 8
		}
		if want.CompressedSize {
			out.CompressedSize = binary.LittleEndian.Uint64(body[pos:])
			pos += 8
		}
		if want.HeaderOffset {
			out.HeaderOffset = binary.LittleEndian.Uint64(body[pos:])
			pos += 8
		}
		if want.DiskNumber {
			out.DiskNumber = binary.LittleEndian.Uint64(body[pos:])
			pos += 8
		}
		return out, nil
	}

	return out, nil
}

// Walk invokes fn for every tag/size/data record in the extra field, for
// callers interested in non-Zip64 records (timestamps, Unix mode). A record
// whose declared size overruns the slice stops the walk without error, the
// way the wire format's own consumers silently give up on trailing garbage.
func Walk(data []byte, fn func(tag uint16, body []byte)) {
	for rec := data; len(rec) >= 4; {
		tag := binary.LittleEndian.Uint16(rec[0:2])
		size := int(binary.LittleEndian.Uint16(rec[2:4]))
		if size > len(rec)-4 {
			return
		}
		fn(tag, rec[4:4+size])
		rec = rec[4+size:]
	}
}
