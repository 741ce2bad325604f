package decode

import (
	"errors"
	"io"
	"testing"

	"github.com/parazip/parazip/internal/archiveerr"
	"github.com/parazip/parazip/internal/centraldir"
	"github.com/parazip/parazip/internal/eocd"
	"github.com/parazip/parazip/internal/ziptest"
)

func buildAndParse(t *testing.T, files []ziptest.File) ([]byte, []centraldir.Metadata) {
	t.Helper()
	b := ziptest.Build(files)
	res, err := eocd.Locate(b)
	if err != nil {
		t.Fatalf("eocd.Locate: %v", err)
	}
	entries, err := centraldir.ParseAll(b, res.CentralDirOffset, res.TotalEntries, res.Prefix, centraldir.Options{})
	if err != nil {
		t.Fatalf("centraldir.ParseAll: %v", err)
	}
	return b, entries
}

func TestOpenRoundTripsDeflateAndStored(t *testing.T) {
	b, entries := buildAndParse(t, []ziptest.File{
		{Name: "deflated.txt", Body: []byte("the quick brown fox jumps over the lazy dog, repeatedly, to give deflate something to chew on")},
		{Name: "stored.txt", Body: []byte("raw bytes"), Store: true},
	})

	for _, m := range entries {
		r, err := Open(b, m, Options{})
		if err != nil {
			t.Fatalf("Open(%q): %v", m.Path, err)
		}
		got, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("ReadAll(%q): %v", m.Path, err)
		}
		if err := r.Close(); err != nil {
			t.Fatalf("Close(%q): %v", m.Path, err)
		}
		if uint64(len(got)) != m.UncompressedSize {
			t.Fatalf("%q: got %d bytes, want %d", m.Path, len(got), m.UncompressedSize)
		}
	}
}

func TestOpenChecksumMismatch(t *testing.T) {
	b, entries := buildAndParse(t, []ziptest.File{{Name: "a.txt", Body: []byte("hello world"), Store: true}})
	m := entries[0]

	payloadStart, err := centraldir.LocalHeaderInfo(b, m.HeaderOffset)
	if err != nil {
		t.Fatalf("LocalHeaderInfo: %v", err)
	}
	corrupted := append([]byte{}, b...)
	corrupted[payloadStart] ^= 0xff

	r, err := Open(corrupted, m, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, err = io.ReadAll(r)
	if !errors.Is(err, archiveerr.ErrChecksumMismatch) {
		t.Fatalf("ReadAll error = %v, want ErrChecksumMismatch", err)
	}
}

func TestOpenEncryptedRejected(t *testing.T) {
	b, entries := buildAndParse(t, []ziptest.File{{Name: "a.txt", Body: []byte("x")}})
	m := entries[0]
	m.Encrypted = true

	if _, err := Open(b, m, Options{}); !errors.Is(err, archiveerr.ErrUnsupported) {
		t.Fatalf("Open error = %v, want ErrUnsupported", err)
	}
}

func TestOpenUnsupportedMethod(t *testing.T) {
	b, entries := buildAndParse(t, []ziptest.File{{Name: "a.txt", Body: []byte("x")}})
	m := entries[0]
	m.Method = centraldir.Method(99)

	if _, err := Open(b, m, Options{}); !errors.Is(err, archiveerr.ErrUnsupported) {
		t.Fatalf("Open error = %v, want ErrUnsupported", err)
	}
}

func TestOpenWithCacheServesSecondReadFromCache(t *testing.T) {
	b, entries := buildAndParse(t, []ziptest.File{{Name: "a.txt", Body: []byte("cached payload"), Store: true}})
	m := entries[0]
	cache := NewCache(16)

	r1, err := Open(b, m, Options{Cache: cache})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	first, err := io.ReadAll(r1)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	r1.Close()

	if _, ok := cache.Get(m.HeaderOffset); !ok {
		t.Fatal("expected payload to be cached after first full read")
	}

	r2, err := Open(b, m, Options{Cache: cache})
	if err != nil {
		t.Fatalf("Open (cached): %v", err)
	}
	second, err := io.ReadAll(r2)
	if err != nil {
		t.Fatalf("ReadAll (cached): %v", err)
	}
	r2.Close()

	if string(first) != string(second) {
		t.Fatalf("cached read mismatch: %q vs %q", first, second)
	}
}

func TestConcurrentReadersAreIndependent(t *testing.T) {
	b, entries := buildAndParse(t, []ziptest.File{
		{Name: "one.txt", Body: []byte("first entry payload, long enough to deflate meaningfully")},
		{Name: "two.txt", Body: []byte("second entry payload, also long enough to deflate meaningfully")},
	})

	results := make(chan []byte, len(entries))
	for _, m := range entries {
		m := m
		go func() {
			r, err := Open(b, m, Options{})
			if err != nil {
				results <- nil
				return
			}
			data, _ := io.ReadAll(r)
			r.Close()
			results <- data
		}()
	}
	for range entries {
		if got := <-results; got == nil {
			t.Fatal("concurrent Open/ReadAll failed")
		}
	}
}
