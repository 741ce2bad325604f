package extra

import (
	"encoding/binary"
	"time"
)

// Tag IDs for the extended-timestamp extra fields, as consumed by
// internal/zip/times.go's timeFromExtraField.
const (
	TagNTFS          = 0x000a
	TagUnix          = 0x000d
	TagExtendedStamp = 0x5455
	TagInfoZipUnix1  = 0x5855
)

// ModTime resolves an extended-timestamp override from the extra field,
// preferring NTFS (100ns ticks since 1601, UTC) over the Unix-second
// varieties when both are present. It returns ok=false when no recognized
// timestamp tag is found, leaving the caller to fall back to the MS-DOS
// date/time fields.
func ModTime(data []byte) (t time.Time, ok bool) {
	Walk(data, func(tag uint16, body []byte) {
		if ok && tag != TagNTFS {
			return
		}
		switch tag {
		case TagNTFS:
			if mt, good := ntfsModTime(body); good {
				t, ok = mt, true
			}
		case TagExtendedStamp:
			if !ok {
				if mt, good := extendedStampModTime(body); good {
					t, ok = mt, true
				}
			}
		case TagUnix, TagInfoZipUnix1:
			if !ok {
				if mt, good := unixModTime(body); good {
					t, ok = mt, true
				}
			}
		}
	})
	return t, ok
}

// ntfsEpoch is 1601-01-01 00:00:00 UTC, the NTFS FILETIME epoch.
var ntfsEpoch = time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC)

func ntfsModTime(body []byte) (time.Time, bool) {
	// Reserved(4) + Tag1(2)=0x0001 + Size1(2)=24 + Mtime(8) + Atime(8) + Ctime(8)
	if len(body) < 4+2+2+8 {
		return time.Time{}, false
	}
	attrs := body[4:]
	if binary.LittleEndian.Uint16(attrs[0:2]) != 0x0001 {
		return time.Time{}, false
	}
	if len(attrs) < 4+8 {
		return time.Time{}, false
	}
	ticks := binary.LittleEndian.Uint64(attrs[4:12])
	return ntfsEpoch.Add(time.Duration(ticks) * 100), true
}

func extendedStampModTime(body []byte) (time.Time, bool) {
	if len(body) < 1 {
		return time.Time{}, false
	}
	flags := body[0]
	if flags&0x01 == 0 || len(body) < 5 {
		return time.Time{}, false
	}
	sec := int32(binary.LittleEndian.Uint32(body[1:5]))
	return time.Unix(int64(sec), 0).UTC(), true
}

func unixModTime(body []byte) (time.Time, bool) {
	// InfoZip old Unix extra field: Atime(4) Mtime(4) Uid(2) Gid(2) [devmajor/minor].
	if len(body) < 8 {
		return time.Time{}, false
	}
	sec := int32(binary.LittleEndian.Uint32(body[4:8]))
	return time.Unix(int64(sec), 0).UTC(), true
}
