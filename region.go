package smalloc

import (
	"encoding/binary"
	"unsafe"
)

// Chunk header layout, written at the base of every carved unit:
//
//	+-------------+------------+------------+
//	|  size (8B)  | block (4B) | flags (4B) |
//	+-------------+------------+------------+
//
// size is inclusive of the header itself, so a payload pointer and its
// unit offset are exact inverses of each other. Freed units keep two
// link offsets in the payload area right after the header:
//
//	+--- header ---+-------------+-------------+----
//	|   16 bytes   |  next (8B)  |  prev (8B)  | ...
//	+--------------+-------------+-------------+----
//
// Writing the links there is only legal once the caller has given the
// payload back.
const (
	chunkHeaderSize = 16

	// minChunkSize is the floor on any unit: header plus room for the
	// free-list links once the unit is released.
	minChunkSize = chunkHeaderSize + 16

	// chunkLive is set in flags while the unit belongs to the caller.
	chunkLive = uint32(1)
)

// nilOff marks an empty link. Offset 0 can never address a unit: the
// lowest block reserves blockHeaderSize bytes at its base before any
// unit is carved.
const nilOff = uint64(0)

// region is the raw-memory boundary of the heap. Every header and
// link access, and the one pointer-to-offset recovery in Free, lives
// here; the rest of the allocator only handles offsets.
type region struct {
	buf []byte
}

func (r region) size() uint64 { return uint64(len(r.buf)) }

func (r region) writeHeader(off, size uint64, blockIdx, flags uint32) {
	binary.LittleEndian.PutUint64(r.buf[off:], size)
	binary.LittleEndian.PutUint32(r.buf[off+8:], blockIdx)
	binary.LittleEndian.PutUint32(r.buf[off+12:], flags)
}

func (r region) chunkSize(off uint64) uint64 {
	return binary.LittleEndian.Uint64(r.buf[off:])
}

func (r region) chunkBlock(off uint64) uint32 {
	return binary.LittleEndian.Uint32(r.buf[off+8:])
}

func (r region) chunkFlags(off uint64) uint32 {
	return binary.LittleEndian.Uint32(r.buf[off+12:])
}

func (r region) setChunkFlags(off uint64, flags uint32) {
	binary.LittleEndian.PutUint32(r.buf[off+12:], flags)
}

func (r region) next(off uint64) uint64 {
	return binary.LittleEndian.Uint64(r.buf[off+chunkHeaderSize:])
}

func (r region) prev(off uint64) uint64 {
	return binary.LittleEndian.Uint64(r.buf[off+chunkHeaderSize+8:])
}

func (r region) setNext(off, next uint64) {
	binary.LittleEndian.PutUint64(r.buf[off+chunkHeaderSize:], next)
}

func (r region) setPrev(off, prev uint64) {
	binary.LittleEndian.PutUint64(r.buf[off+chunkHeaderSize+8:], prev)
}

// payload returns the caller-visible slice of a unit: n bytes of
// length, capacity capped at the unit's end so append cannot run into
// the next unit's header.
func (r region) payload(off, unitSize uint64, n int) []byte {
	return r.buf[off+chunkHeaderSize : off+unitSize : off+unitSize][:n]
}

// offsetOf maps a payload slice handed back by the caller to the
// offset of its unit header, reading the slice data pointer directly
// so zero-length payloads still recover. ok is false when the slice
// does not point into the window at all; anything subtler a caller may
// have done to the pointer is undefined behavior per the Free
// contract.
func (r region) offsetOf(p []byte) (off uint64, ok bool) {
	if cap(p) == 0 || len(r.buf) == 0 {
		return 0, false
	}
	data := *(*uintptr)(unsafe.Pointer(&p))
	base := uintptr(unsafe.Pointer(&r.buf[0]))
	if data < base+chunkHeaderSize || data >= base+uintptr(len(r.buf)) {
		return 0, false
	}
	return uint64(data-base) - chunkHeaderSize, true
}
