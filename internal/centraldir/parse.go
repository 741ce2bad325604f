package centraldir

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/parazip/parazip/internal/archiveerr"
	"github.com/parazip/parazip/internal/bytescan"
	"github.com/parazip/parazip/internal/codepage"
	"github.com/parazip/parazip/internal/extra"
)

const (
	sigCentral  = 0x02014b50
	fixedLen    = 46
	sentinel32  = 0xffffffff
	sentinel16  = 0xffff

	flagEncrypted     = 1 << 0
	flagDataDescriptor = 1 << 3
	flagUTF8          = 1 << 11

	dosDirBit = 0x10
)

// Options controls the optional behaviors CentralDirectoryParser exposes.
type Options struct {
	// ValidateLocalHeaders re-verifies each entry's Local File Header
	// against the central directory record. Off by default (spec open
	// question), since it forces a seek per entry before any extraction
	// is requested.
	ValidateLocalHeaders bool
}

// ParseAll reads exactly totalEntries Central Directory File Header records
// starting at centralDirOffset, applying prefix to every stored offset.
func ParseAll(b []byte, centralDirOffset int64, totalEntries uint64, prefix int64, opts Options) ([]Metadata, error) {
	s := bytescan.Slice(b)
	c := bytescan.NewCursor(s)
	c.Seek(int(centralDirOffset))

	out := make([]Metadata, 0, totalEntries)
	for i := uint64(0); i < totalEntries; i++ {
		m, err := parseOne(s, c, prefix)
		if err != nil {
			return nil, fmt.Errorf("central directory entry %d: %w", i, err)
		}
		if opts.ValidateLocalHeaders {
			if err := CheckLocalHeader(b, m); err != nil {
				return nil, fmt.Errorf("central directory entry %d (%s): %w", i, m.Path, err)
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func parseOne(s bytescan.Slice, c *bytescan.Cursor, prefix int64) (Metadata, error) {
	recordStart := c.Pos()

	sig, err := c.ReadU32()
	if err != nil {
		return Metadata{}, err
	}
	if sig != sigCentral {
		return Metadata{}, fmt.Errorf("%w: expected central directory signature at %d, got %#08x", archiveerr.ErrMalformed, recordStart, sig)
	}

	if _, err := c.ReadU16(); err != nil { // version made by
		return Metadata{}, err
	}
	if _, err := c.ReadU16(); err != nil { // version needed
		return Metadata{}, err
	}
	gpFlag, err := c.ReadU16()
	if err != nil {
		return Metadata{}, err
	}
	methodRaw, err := c.ReadU16()
	if err != nil {
		return Metadata{}, err
	}
	modTime, err := c.ReadU16()
	if err != nil {
		return Metadata{}, err
	}
	modDate, err := c.ReadU16()
	if err != nil {
		return Metadata{}, err
	}
	crc, err := c.ReadU32()
	if err != nil {
		return Metadata{}, err
	}
	compSize32, err := c.ReadU32()
	if err != nil {
		return Metadata{}, err
	}
	uncompSize32, err := c.ReadU32()
	if err != nil {
		return Metadata{}, err
	}
	nameLen, err := c.ReadU16()
	if err != nil {
		return Metadata{}, err
	}
	extraLen, err := c.ReadU16()
	if err != nil {
		return Metadata{}, err
	}
	commentLen, err := c.ReadU16()
	if err != nil {
		return Metadata{}, err
	}
	diskStart, err := c.ReadU16()
	if err != nil {
		return Metadata{}, err
	}
	if _, err := c.ReadU16(); err != nil { // internal attrs
		return Metadata{}, err
	}
	extAttrs, err := c.ReadU32()
	if err != nil {
		return Metadata{}, err
	}
	localOffset32, err := c.ReadU32()
	if err != nil {
		return Metadata{}, err
	}

	nameBytes, err := c.ReadBytes(int(nameLen))
	if err != nil {
		return Metadata{}, err
	}
	extraBytes, err := c.ReadBytes(int(extraLen))
	if err != nil {
		return Metadata{}, err
	}
	commentBytes, err := c.ReadBytes(int(commentLen))
	if err != nil {
		return Metadata{}, err
	}

	utf8Flag := gpFlag&flagUTF8 != 0
	name, err := codepage.Decode(nameBytes, utf8Flag)
	if err != nil {
		return Metadata{}, err
	}
	comment, err := codepage.Decode(commentBytes, utf8Flag)
	if err != nil {
		comment = codepage.DecodeCP437(commentBytes)
	}

	sentinels := extra.Sentinels{
		UncompressedSize: uncompSize32 == sentinel32,
		CompressedSize:   compSize32 == sentinel32,
		HeaderOffset:     localOffset32 == sentinel32,
		DiskNumber:       diskStart == sentinel16,
	}
	var overrides extra.Overrides
	if sentinels.Any() {
		overrides, err = extra.Zip64(extraBytes, sentinels)
		if err != nil {
			return Metadata{}, err
		}
		slog.Debug("parazip: zip64 override applied", "name", name, "sentinels", sentinels)
	}

	uncompSize := uint64(uncompSize32)
	if sentinels.UncompressedSize {
		uncompSize = overrides.UncompressedSize
	}
	compSize := uint64(compSize32)
	if sentinels.CompressedSize {
		compSize = overrides.CompressedSize
	}
	localOffset := uint64(localOffset32)
	if sentinels.HeaderOffset {
		localOffset = overrides.HeaderOffset
	}
	disk := uint64(diskStart)
	if sentinels.DiskNumber {
		disk = overrides.DiskNumber
	}

	isDir := len(name) > 0 && name[len(name)-1] == '/'
	if extAttrs&dosDirBit != 0 {
		isDir = true
	}

	lastModified := msDosToTime(modDate, modTime)
	if t, ok := extra.ModTime(extraBytes); ok {
		lastModified = t
	}

	m := Metadata{
		Path:                name,
		IsDirectory:         isDir,
		IsSymlink:           isUnixSymlink(extAttrs),
		LastModified:        lastModified,
		CRC32:               crc,
		CompressedSize:      compSize,
		UncompressedSize:    uncompSize,
		Method:              Method(methodRaw),
		HeaderOffset:        localOffset + uint64(prefix),
		DiskNumber:          disk,
		Encrypted:           gpFlag&flagEncrypted != 0,
		NeedsDataDescriptor: gpFlag&flagDataDescriptor != 0,
		Comment:             comment,
		ExternalAttrs:       extAttrs,
		GeneralPurpose:      gpFlag,
	}
	return m, nil
}

// msDosToTime converts MS-DOS packed date/time fields to a calendar
// timestamp, falling back to the ZIP epoch when both are zero.
func msDosToTime(date, t uint16) time.Time {
	if date == 0 && t == 0 {
		return Epoch
	}
	year := int(date>>9) + 1980
	month := int(date >> 5 & 0xf)
	day := int(date & 0x1f)
	hour := int(t >> 11)
	min := int(t >> 5 & 0x3f)
	sec := int(t&0x1f) * 2
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
}

const (
	unixModeShift = 16
	sIFLNK        = 0xa000
	sIFMTMask     = 0xf000
)

func isUnixSymlink(externalAttrs uint32) bool {
	mode := externalAttrs >> unixModeShift
	return mode&sIFMTMask == sIFLNK
}
