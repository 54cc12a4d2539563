//go:build !linux

package hostmem

import "github.com/bytedance/gopkg/lang/dirtmake"

// Reserve allocates a range from the Go heap, skipping the zeroing
// pass.
func Reserve(size int) ([]byte, error) {
	return dirtmake.Bytes(size, size), nil
}

// Release drops the range back to the Go heap.
func Release(window []byte) error {
	return nil
}
