// Package parazip decodes read-only ZIP archives: a robust central
// directory parser (Zip64, prefix-offset correction for leading junk) and a
// concurrent per-entry decompression engine. The caller supplies an
// immutable byte range; the package performs no I/O of its own.
//
// Grounded on elliotnunn-BeHierarchic's internal/zip package, generalized
// from a read-only filesystem adapter into a standalone archive decoder.
package parazip

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/parazip/parazip/internal/archiveerr"
	"github.com/parazip/parazip/internal/centraldir"
	"github.com/parazip/parazip/internal/decode"
	"github.com/parazip/parazip/internal/eocd"
	"github.com/parazip/parazip/internal/filetree"
)

// Metadata describes one archive member, immutable after parse.
type Metadata = centraldir.Metadata

// Method identifies a ZIP compression method.
type Method = centraldir.Method

// The two compression methods the decoder actually decodes. Any other
// Method value is rejected by Read, not by New, per spec §6.
const (
	MethodStored  = centraldir.MethodStored
	MethodDeflate = centraldir.MethodDeflate
)

// FileTree is the validated hierarchical namespace built over an Archive's
// entries: directories, uniqueness, and path lookup.
type FileTree = filetree.Tree

// Node is a directory or file leaf within a FileTree.
type Node = filetree.Node

// Error taxonomy (spec §7), re-exported so callers only need to import this
// package and compare with errors.Is.
var (
	ErrTruncated           = archiveerr.ErrTruncated
	ErrMissingEOCDR        = archiveerr.ErrMissingEOCDR
	ErrMalformed           = archiveerr.ErrMalformed
	ErrMalformedZip64      = archiveerr.ErrMalformedZip64
	ErrLocalHeaderMismatch = archiveerr.ErrLocalHeaderMismatch
	ErrInvalidName         = archiveerr.ErrInvalidName
	ErrDuplicatePath       = archiveerr.ErrDuplicatePath
	ErrPathConflict        = archiveerr.ErrPathConflict
	ErrNotFound            = archiveerr.ErrNotFound
	ErrUnsupported         = archiveerr.ErrUnsupported
	ErrChecksumMismatch    = archiveerr.ErrChecksumMismatch
	ErrSizeMismatch        = archiveerr.ErrSizeMismatch
	ErrIO                  = archiveerr.ErrIO
)

// Archive holds the backing byte range B and the parsed Metadata vector.
// Metadata references into B are valid for as long as B is; readers
// returned by Read borrow B immutably and may be handed to other
// goroutines.
type Archive struct {
	b       []byte
	entries []Metadata
	comment string
	cache   *decode.Cache

	cdOffset    int64
	cdSize      int64
	fingerprint uint64
	haveFP      bool
}

// options collects the construction-time toggles (functional-options
// pattern, matching the teacher's preference for explicit parameters over
// a config struct).
type options struct {
	validateLocalHeaders bool
	cacheCapacity        int
}

// Option configures New.
type Option func(*options)

// WithLocalHeaderValidation enables the optional per-entry Local File
// Header cross-check against the central directory (spec §4.5, §9 open
// question). Off by default: it forces a seek per entry before any
// extraction has even been requested, and the central directory alone is
// sufficient to decode correctly.
func WithLocalHeaderValidation(enabled bool) Option {
	return func(o *options) { o.validateLocalHeaders = enabled }
}

// WithBlockCache enables a bounded cache of whole small decompressed
// payloads shared across every reader opened from the resulting Archive,
// sized to approximately capacity cached entries. Disabled by default
// (capacity 0): most callers read each entry once and gain nothing from it.
func WithBlockCache(capacity int) Option {
	return func(o *options) { o.cacheCapacity = capacity }
}

// New parses b eagerly: locates the End Of Central Directory Record,
// resolves Zip64 and the prefix offset, and reads every central directory
// record into a Metadata vector. It returns an error from the taxonomy in
// §7 if b is not a well-formed (or well-formed-enough) ZIP archive.
func New(b []byte, opts ...Option) (*Archive, error) {
	var o options
	for _, apply := range opts {
		apply(&o)
	}

	loc, err := eocd.Locate(b)
	if err != nil {
		return nil, err
	}

	entries, err := centraldir.ParseAll(b, loc.CentralDirOffset, loc.TotalEntries, loc.Prefix, centraldir.Options{
		ValidateLocalHeaders: o.validateLocalHeaders,
	})
	if err != nil {
		return nil, err
	}

	a := &Archive{
		b:        b,
		entries:  entries,
		comment:  string(loc.Comment),
		cdOffset: loc.CentralDirOffset,
		cdSize:   loc.CentralDirSize,
	}
	if o.cacheCapacity > 0 {
		a.cache = decode.NewCache(o.cacheCapacity)
	}
	return a, nil
}

// Entries returns every Metadata record in central-directory order, the
// definitive iteration order: local file headers may be reordered or
// interleaved, but entries() never is.
func (a *Archive) Entries() []Metadata {
	return a.entries
}

// Comment returns the archive-level comment recorded in the End Of Central
// Directory Record.
func (a *Archive) Comment() string {
	return a.comment
}

// Read returns an independent streaming reader for m: an identity stream
// for Stored, raw DEFLATE for Deflate, CRC-32 and size verified on EOF.
// Multiple readers, over the same or different entries, may be driven
// concurrently on separate goroutines: each holds only an immutable borrow
// of the archive bytes plus its own small decoder state, with no locking
// and no shared mutation on the hot path.
func (a *Archive) Read(m Metadata) (io.ReadCloser, error) {
	return decode.Open(a.b, m, decode.Options{Cache: a.cache})
}

// LinkTarget reads a symlink entry's payload eagerly — targets are always
// tiny — and returns it as a string.
func (a *Archive) LinkTarget(m Metadata) (string, error) {
	if !m.IsSymlink {
		return "", fmt.Errorf("%w: entry %q is not a symlink", archiveerr.ErrUnsupported, m.Path)
	}
	r, err := a.Read(m)
	if err != nil {
		return "", err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FileTree builds the validated hierarchical namespace over a.Entries().
// It is a separate step from New so a caller that only wants entries() and
// read() need not pay for path validation and tree construction.
func (a *Archive) FileTree() (*FileTree, error) {
	return filetree.New(a.entries)
}

// Fingerprint is a cheap content-addressable identity for the archive,
// computed over the raw central directory bytes (the region between the
// resolved central directory offset and the End Of Central Directory
// Record). Two archives with byte-identical central directories — even if
// their leading junk or payload bytes differ, which the prefix-offset
// protocol tolerates — share a fingerprint.
func (a *Archive) Fingerprint() uint64 {
	if !a.haveFP {
		a.fingerprint = xxhash.Sum64(a.b[a.cdOffset : a.cdOffset+a.cdSize])
		a.haveFP = true
	}
	return a.fingerprint
}
