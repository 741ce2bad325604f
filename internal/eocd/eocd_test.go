package eocd

import (
	"strings"
	"testing"

	"github.com/parazip/parazip/internal/ziptest"
)

func TestLocateSimpleArchive(t *testing.T) {
	b := ziptest.Build([]ziptest.File{
		{Name: "hello/README", Body: []byte("hi there")},
		{Name: "hello/a.txt", Body: []byte("aaaa")},
	})

	res, err := Locate(b)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if res.TotalEntries != 2 {
		t.Fatalf("TotalEntries = %d, want 2", res.TotalEntries)
	}
	if res.Prefix != 0 {
		t.Fatalf("Prefix = %d, want 0", res.Prefix)
	}
	if res.CentralDirOffset <= 0 {
		t.Fatalf("CentralDirOffset = %d, want > 0", res.CentralDirOffset)
	}
}

func TestLocateWithPrefixJunk(t *testing.T) {
	inner := ziptest.Build([]ziptest.File{{Name: "a", Body: []byte("x")}})
	b := ziptest.WithPrefix("Some junk up front\n", inner)

	res, err := Locate(b)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if res.Prefix != int64(len("Some junk up front\n")) {
		t.Fatalf("Prefix = %d, want %d", res.Prefix, len("Some junk up front\n"))
	}
}

func TestLocateMissingEOCDR(t *testing.T) {
	_, err := Locate([]byte("not a zip file at all"))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestLocateMaxLengthComment(t *testing.T) {
	inner := ziptest.Build([]ziptest.File{{Name: "a", Body: []byte("x")}})

	// Graft a 65535-byte comment onto the EOCDR by rewriting its comment
	// length field and appending the comment bytes, the way a real
	// archiver would when asked for a max-length comment.
	comment := strings.Repeat("c", 65535)
	withComment := append(append([]byte{}, inner...), comment...)
	// Patch the comment-length field (bytes 20:22 of the EOCDR, which is
	// the last 22 bytes of inner before the appended comment).
	eocdrStart := len(inner) - 22
	withComment[eocdrStart+20] = byte(65535 & 0xff)
	withComment[eocdrStart+21] = byte(65535 >> 8)

	res, err := Locate(withComment)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if len(res.Comment) != 65535 {
		t.Fatalf("Comment length = %d, want 65535", len(res.Comment))
	}
}
