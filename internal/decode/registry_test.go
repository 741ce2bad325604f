package decode

import (
	"bytes"
	"io"
	"testing"

	"github.com/parazip/parazip/internal/centraldir"
)

func TestRegisterMethodExtendsDispatch(t *testing.T) {
	const methodID = 200
	RegisterMethod(methodID, func(r io.Reader) (io.ReadCloser, error) {
		// A trivial "decoder" that just uppercases nothing and passes
		// bytes through, enough to prove the registry dispatches to it.
		return io.NopCloser(r), nil
	})

	d, ok := lookup(centraldir.Method(methodID))
	if !ok {
		t.Fatal("expected registered method to be found")
	}
	rc, err := d(bytes.NewReader([]byte("abc")))
	if err != nil {
		t.Fatalf("decompressor: %v", err)
	}
	got, err := io.ReadAll(rc)
	if err != nil || string(got) != "abc" {
		t.Fatalf("ReadAll = %q, %v", got, err)
	}
}
