package decode

import (
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/parazip/parazip/internal/archiveerr"
	"github.com/parazip/parazip/internal/centraldir"
)

// Options configures a single Open call.
type Options struct {
	// Cache, if non-nil, is consulted for and fed whole small decompressed
	// payloads so repeat readers of the same entry skip re-inflating it.
	Cache *Cache
}

// Open builds an independent streaming reader over the full archive byte
// range b for the entry described by m. b is the complete, prefix-included
// byte range; m.HeaderOffset is already prefix-corrected, per spec §4.7.
func Open(b []byte, m centraldir.Metadata, opts Options) (io.ReadCloser, error) {
	if m.Encrypted {
		return nil, fmt.Errorf("%w: entry %q is encrypted", archiveerr.ErrUnsupported, m.Path)
	}

	if opts.Cache != nil {
		if cached, ok := opts.Cache.Get(m.HeaderOffset); ok {
			return io.NopCloser(bytes.NewReader(cached)), nil
		}
	}

	payloadStart, err := centraldir.LocalHeaderInfo(b, m.HeaderOffset)
	if err != nil {
		return nil, err
	}
	payloadEnd := payloadStart + int64(m.CompressedSize)
	if payloadEnd < payloadStart || payloadEnd > int64(len(b)) {
		return nil, fmt.Errorf("%w: entry %q payload extends past archive end", archiveerr.ErrTruncated, m.Path)
	}
	raw := b[payloadStart:payloadEnd]

	factory, ok := lookup(m.Method)
	if !ok {
		return nil, fmt.Errorf("%w: compression method %s (%d)", archiveerr.ErrUnsupported, m.Method, uint16(m.Method))
	}
	stream, err := factory(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", archiveerr.ErrIO, err)
	}

	r := &checkedReader{
		inner:    stream,
		path:     m.Path,
		wantCRC:  m.CRC32,
		wantSize: m.UncompressedSize,
		hash:     crc32.NewIEEE(),
	}
	if opts.Cache != nil && m.UncompressedSize <= cacheableSize {
		r.cacheKey = m.HeaderOffset
		r.cache = opts.Cache
		r.buf = make([]byte, 0, m.UncompressedSize)
	}
	return r, nil
}

// cacheableSize bounds which payloads get buffered for the shared block
// cache; large entries (zip64.zip's 5 GiB member, per spec §8) stream
// straight through instead of being copied into memory twice.
const cacheableSize = 1 << 20

// checkedReader wraps a decoder's output stream, accumulating CRC-32 and a
// byte count, and verifies both on the read that observes EOF. It holds
// only its own state: no locking, no shared mutation, independent of any
// other reader over the same archive bytes, per spec §4.7/§5.
type checkedReader struct {
	inner    io.ReadCloser
	path     string
	wantCRC  uint32
	wantSize uint64
	hash     hashWriter
	n        uint64
	done     bool
	verifyErr error

	cache    *Cache
	cacheKey uint64
	buf      []byte
}

// hashWriter is the subset of hash.Hash32 this reader needs.
type hashWriter interface {
	Write(p []byte) (int, error)
	Sum32() uint32
}

func (r *checkedReader) Read(p []byte) (int, error) {
	if r.done {
		if r.verifyErr != nil {
			return 0, r.verifyErr
		}
		return 0, io.EOF
	}

	n, err := r.inner.Read(p)
	if n > 0 {
		r.hash.Write(p[:n])
		r.n += uint64(n)
		if r.buf != nil {
			r.buf = append(r.buf, p[:n]...)
		}
	}
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("%w: entry %q: %v", archiveerr.ErrIO, r.path, err)
	}

	r.done = true
	if r.hash.Sum32() != r.wantCRC {
		r.verifyErr = fmt.Errorf("%w: entry %q: got %#08x, want %#08x", archiveerr.ErrChecksumMismatch, r.path, r.hash.Sum32(), r.wantCRC)
	} else if r.n != r.wantSize {
		r.verifyErr = fmt.Errorf("%w: entry %q: decoded %d bytes, want %d", archiveerr.ErrSizeMismatch, r.path, r.n, r.wantSize)
	} else if r.cache != nil && r.buf != nil {
		r.cache.Add(r.cacheKey, r.buf)
	}

	if r.verifyErr != nil {
		return n, r.verifyErr
	}
	if n > 0 {
		return n, nil
	}
	return 0, io.EOF
}

func (r *checkedReader) Close() error {
	return r.inner.Close()
}
