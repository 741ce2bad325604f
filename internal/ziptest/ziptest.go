// Package ziptest builds small ZIP byte ranges in memory with the standard
// library's archive/zip writer, for tests to decode with parazip, the same
// differential-testing shape as elliotnunn-BeHierarchic/internal/zip/zip_test.go's
// TestVsStdlib.
package ziptest

import (
	"archive/zip"
	"bytes"
)

// File is one member to write into a test archive.
type File struct {
	Name string
	Body []byte
	// Store, when true, writes the entry uncompressed instead of deflated.
	Store bool
}

// Build writes files into a ZIP archive and returns its bytes.
func Build(files []File) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, f := range files {
		method := zip.Deflate
		if f.Store {
			method = zip.Store
		}
		hdr := &zip.FileHeader{Name: f.Name, Method: method}
		fw, err := w.CreateHeader(hdr)
		if err != nil {
			panic(err)
		}
		if _, err := fw.Write(f.Body); err != nil {
			panic(err)
		}
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// WithPrefix prepends junk bytes containing no ZIP signature before a
// built archive, for prefix-offset tests (spec §8 scenario 2).
func WithPrefix(junk string, archive []byte) []byte {
	out := make([]byte, 0, len(junk)+len(archive))
	out = append(out, junk...)
	out = append(out, archive...)
	return out
}
