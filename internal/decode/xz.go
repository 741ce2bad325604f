//go:build parazipxz

package decode

import (
	"io"

	"github.com/therootcompany/xz"
)

// methodXZ is the vendor-extension compression method id some tools use for
// xz-compressed entries. It is not part of the ZIP standard; registering it
// demonstrates the registry's extensibility point rather than promising
// interoperability with any particular producer.
const methodXZ = 95

func init() {
	RegisterMethod(methodXZ, func(r io.Reader) (io.ReadCloser, error) {
		xr, err := xz.NewReader(r, xz.DefaultDictMax)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	})
}
