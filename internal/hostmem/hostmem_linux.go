//go:build linux

package hostmem

import "golang.org/x/sys/unix"

// Reserve maps an anonymous private range of the given size.
func Reserve(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
}

// Release unmaps a range returned by Reserve.
func Release(window []byte) error {
	return unix.Munmap(window)
}
