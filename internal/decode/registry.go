// Package decode implements EntryReaderFactory and DecoderStack: given
// Metadata and the shared archive bytes, it returns an independent
// streaming reader that decompresses the payload and verifies CRC-32 and
// size at EOF. Grounded on elliotnunn-BeHierarchic/internal/zip/zip.go's
// per-method dispatch (Stored/Deflate/Bzip2/default-unsupported) and
// internal/zip/checksum.go's checksum-on-last-read wrapper.
package decode

import (
	"compress/flate"
	"io"

	"github.com/parazip/parazip/internal/centraldir"
)

// Decompressor opens a raw decompression stream over r.
type Decompressor func(r io.Reader) (io.ReadCloser, error)

// registry maps compression methods to decompressors. Stored and Deflate
// are always present; RegisterMethod adds more. Registration is meant to
// happen from init() functions before any Open call, the way build-tagged
// files in the teacher's tree add optional formats — it is not safe to call
// concurrently with Open.
var registry = map[centraldir.Method]Decompressor{
	centraldir.MethodStored: func(r io.Reader) (io.ReadCloser, error) {
		return io.NopCloser(r), nil
	},
	centraldir.MethodDeflate: func(r io.Reader) (io.ReadCloser, error) {
		return flate.NewReader(r), nil
	},
}

// RegisterMethod adds a decompressor for a compression method id beyond
// the two shipped by default. This is the extensibility point spec §1 and
// §4.8 require: additional methods can be added without touching the
// factory or the CRC/size verification wrapper.
func RegisterMethod(id uint16, d Decompressor) {
	registry[centraldir.Method(id)] = d
}

func lookup(m centraldir.Method) (Decompressor, bool) {
	d, ok := registry[m]
	return d, ok
}
