// Package archiveerr defines the error taxonomy shared by every parazip
// component. Call sites wrap these sentinels with fmt.Errorf("%w: ...") for
// context; callers compare with errors.Is.
package archiveerr

import "errors"

var (
	// ErrTruncated means a bounds-checked read would exceed the backing byte range.
	ErrTruncated = errors.New("parazip: truncated")

	// ErrMissingEOCDR means no plausible end-of-central-directory record was found.
	ErrMissingEOCDR = errors.New("parazip: end of central directory not found")

	// ErrMalformed means a signature mismatch or structurally impossible value.
	ErrMalformed = errors.New("parazip: malformed archive")

	// ErrMalformedZip64 means a Zip64 extra record declared a size inconsistent with its sentinels.
	ErrMalformedZip64 = errors.New("parazip: malformed zip64 extra field")

	// ErrLocalHeaderMismatch means the optional local-header cross-check found disagreement.
	ErrLocalHeaderMismatch = errors.New("parazip: local file header disagrees with central directory")

	// ErrInvalidName means a path failed UTF-8 validation or contained a forbidden component.
	ErrInvalidName = errors.New("parazip: invalid name")

	// ErrDuplicatePath means two entries normalize to the same path.
	ErrDuplicatePath = errors.New("parazip: duplicate path")

	// ErrPathConflict means a path component collides with an existing file leaf.
	ErrPathConflict = errors.New("parazip: path conflict")

	// ErrNotFound means a FileTree lookup found nothing at the given path.
	ErrNotFound = errors.New("parazip: not found")

	// ErrUnsupported means the entry is encrypted or uses a compression method with no registered decoder.
	ErrUnsupported = errors.New("parazip: unsupported")

	// ErrChecksumMismatch means the CRC-32 of the decoded payload didn't match the central directory.
	ErrChecksumMismatch = errors.New("parazip: checksum mismatch")

	// ErrSizeMismatch means the decoded byte count didn't match the central directory.
	ErrSizeMismatch = errors.New("parazip: size mismatch")

	// ErrIO means the underlying decompressor surfaced a stream error.
	ErrIO = errors.New("parazip: decompression error")
)
