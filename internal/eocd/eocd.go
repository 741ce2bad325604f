// Package eocd locates the End Of Central Directory Record, resolves its
// Zip64 extension, and computes the prefix offset for archives with leading
// junk. The backward scan is grounded on
// _examples/other_examples/8870e483_nguyengg-xy3__zip-scan-eocd.go.go's
// findEOCD, and the Zip64 locator/EOCD64 follow-up on
// elliotnunn-BeHierarchic/internal/zip/zip.go's getEOCD.
package eocd

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/parazip/parazip/internal/archiveerr"
	"github.com/parazip/parazip/internal/bytescan"
)

const (
	sigEOCDR     = 0x06054b50
	sigZip64Loc  = 0x07064b50
	sigZip64EOCD = 0x06064b50
	sigCentral   = 0x02014b50

	eocdrFixedLen    = 22
	zip64LocatorLen  = 20
	zip64EOCDFixed   = 56
	maxCommentLen    = 65535
	cdSigScanWindow  = 4096 // tolerance window for locating C when E-S doesn't land exactly on a signature
	sentinel32       = 0xffffffff
	sentinel16       = 0xffff
)

// Result is what the backward scan and Zip64 resolution produce.
type Result struct {
	// EOCDOffset is the absolute offset of the EOCDR within B.
	EOCDOffset int64
	// CentralDirOffset is C, the corrected physical start of the central directory in B.
	CentralDirOffset int64
	// CentralDirSize is S, the central directory's byte length.
	CentralDirSize int64
	// TotalEntries is the number of central directory records to read.
	TotalEntries uint64
	// Prefix is P, added to every stored offset before indexing B.
	Prefix int64
	// Comment is the EOCDR's archive comment bytes.
	Comment []byte
}

// Locate runs the full algorithm of spec §4.4 against the byte range b.
func Locate(b []byte) (Result, error) {
	eocdOff, _ := findEOCDR(b)
	if eocdOff < 0 {
		return Result{}, archiveerr.ErrMissingEOCDR
	}

	s := bytescan.Slice(b)

	totalEntries32, err := s.U16(eocdOff + 10)
	if err != nil {
		return Result{}, fmt.Errorf("%w: reading eocdr total entries", archiveerr.ErrMalformed)
	}
	cdSize32, err := s.U32(eocdOff + 12)
	if err != nil {
		return Result{}, fmt.Errorf("%w: reading eocdr central directory size", archiveerr.ErrMalformed)
	}
	cdOffset32, err := s.U32(eocdOff + 16)
	if err != nil {
		return Result{}, fmt.Errorf("%w: reading eocdr central directory offset", archiveerr.ErrMalformed)
	}
	commentLen, err := s.U16(eocdOff + 20)
	if err != nil {
		return Result{}, fmt.Errorf("%w: reading eocdr comment length", archiveerr.ErrMalformed)
	}
	comment, err := s.Bytes(eocdOff+eocdrFixedLen, int(commentLen))
	if err != nil {
		comment = nil
	}

	totalEntries := uint64(totalEntries32)
	cdSize := uint64(cdSize32)
	cdOffset := uint64(cdOffset32)

	if zOff, ok := findZip64Locator(s, int64(eocdOff)); ok {
		slog.Debug("parazip: zip64 locator found, resolving zip64 eocdr", "offset", zOff)
		entries, size, offset, err := readZip64EOCD(s, zOff)
		if err != nil {
			return Result{}, err
		}
		totalEntries, cdSize, cdOffset = entries, size, offset
	} else if totalEntries32 == sentinel16 || cdSize32 == sentinel32 || cdOffset32 == sentinel32 {
		return Result{}, fmt.Errorf("%w: eocdr carries zip64 sentinels but no zip64 locator found", archiveerr.ErrMalformed)
	}

	centralDirOffset, err := resolveCentralDirStart(s, int64(eocdOff), int64(cdSize))
	if err != nil {
		return Result{}, err
	}

	prefix := centralDirOffset - int64(cdOffset)
	if prefix < 0 {
		return Result{}, fmt.Errorf("%w: negative prefix offset (central dir at %d, stored offset %d)", archiveerr.ErrMalformed, centralDirOffset, cdOffset)
	}

	return Result{
		EOCDOffset:       int64(eocdOff),
		CentralDirOffset: centralDirOffset,
		CentralDirSize:   int64(cdSize),
		TotalEntries:     totalEntries,
		Prefix:           prefix,
		Comment:          comment,
	}, nil
}

// findEOCDR scans backward over the last min(len(b), 65557) bytes for the
// EOCDR signature. It prefers the occurrence whose declared comment makes
// the record end exactly at len(b); failing that, it falls back to the last
// occurrence found, tolerating trailing junk after the comment.
func findEOCDR(b []byte) (offset int, sig uint32) {
	l := len(b)
	scanStart := 0
	maxScan := eocdrFixedLen + maxCommentLen
	if l > maxScan {
		scanStart = l - maxScan
	}
	window := b[scanStart:]

	sigBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(sigBytes, sigEOCDR)

	lastFound := -1
	for idx := bytes.LastIndex(window, sigBytes); idx >= 0; {
		abs := scanStart + idx
		if lastFound < 0 {
			lastFound = abs
		}
		if abs+eocdrFixedLen <= l {
			commentLen := int(binary.LittleEndian.Uint16(b[abs+20 : abs+22]))
			if abs+eocdrFixedLen+commentLen == l {
				return abs, sigEOCDR
			}
		}
		if idx == 0 {
			break
		}
		idx = bytes.LastIndex(window[:idx], sigBytes)
	}
	if lastFound >= 0 {
		return lastFound, sigEOCDR
	}
	return -1, 0
}

// findZip64Locator checks the 20 bytes immediately before the EOCDR for the
// Zip64 EOCD Locator signature.
func findZip64Locator(s bytescan.Slice, eocdOff int64) (zip64EOCDOffset int64, ok bool) {
	locOff := eocdOff - zip64LocatorLen
	if locOff < 0 {
		return 0, false
	}
	sig, err := s.U32(int(locOff))
	if err != nil || sig != sigZip64Loc {
		return 0, false
	}
	z, err := s.U64(int(locOff) + 8)
	if err != nil {
		return 0, false
	}
	return int64(z), true
}

func readZip64EOCD(s bytescan.Slice, zOff int64) (entries, size, offset uint64, err error) {
	sig, err := s.U32(int(zOff))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: reading zip64 eocdr signature", archiveerr.ErrMalformed)
	}
	if sig != sigZip64EOCD {
		return 0, 0, 0, fmt.Errorf("%w: zip64 eocdr signature mismatch at %d", archiveerr.ErrMalformed, zOff)
	}
	entries, err = s.U64(int(zOff) + 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: reading zip64 eocdr entry count", archiveerr.ErrMalformed)
	}
	size, err = s.U64(int(zOff) + 40)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: reading zip64 eocdr central directory size", archiveerr.ErrMalformed)
	}
	offset, err = s.U64(int(zOff) + 48)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: reading zip64 eocdr central directory offset", archiveerr.ErrMalformed)
	}
	return entries, size, offset, nil
}

// resolveCentralDirStart computes C, the physical offset the central
// directory actually starts at. It first tries E-S directly; if that offset
// doesn't carry the Central Directory File Header signature (archives whose
// comment or trailer doesn't abut the EOCDR exactly), it scans a small
// window around E-S for the signature.
func resolveCentralDirStart(s bytescan.Slice, eocdOff, cdSize int64) (int64, error) {
	candidate := eocdOff - cdSize
	if candidate < 0 {
		return 0, fmt.Errorf("%w: central directory start %d is negative", archiveerr.ErrMalformed, candidate)
	}
	if cdSize == 0 {
		return candidate, nil
	}
	if sig, err := s.U32(int(candidate)); err == nil && sig == sigCentral {
		return candidate, nil
	}

	lo := candidate - cdSigScanWindow
	if lo < 0 {
		lo = 0
	}
	hi := candidate + cdSigScanWindow
	if hi > int64(len(s)) {
		hi = int64(len(s))
	}
	best := int64(-1)
	for off := lo; off+4 <= hi; off++ {
		sig, err := s.U32(int(off))
		if err != nil {
			break
		}
		if sig == sigCentral {
			best = off
		}
	}
	if best < 0 {
		return 0, fmt.Errorf("%w: no central directory file header found near offset %d", archiveerr.ErrMalformed, candidate)
	}
	slog.Debug("parazip: central directory start resolved by scan, not by e-s arithmetic", "expected", candidate, "found", best)
	return best, nil
}
