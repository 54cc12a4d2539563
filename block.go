package smalloc

// blockHeaderSize is the span every block reserves at its base for its
// directory record. It counts toward the block's size and is never
// handed out.
const blockHeaderSize = 32

const noBlock = int32(-1)

// block owns a contiguous span of the heap window. Records live in
// Heap.blocks; prev and next are indices into that slice, so the
// directory is a doubly linked list ordered from first-created to
// most-recently-created without raw pointers. Blocks are never merged,
// split, or returned to the window.
type block struct {
	prev, next int32

	base      uint64 // lowest offset of the span
	size      uint64 // whole span, header included
	remaining uint64 // untouched bytes between top and the span end
	top       uint64 // carve cursor, grows upward from the base
	free      uint64 // head of the freed-unit list, nilOff when empty
}

// findSpace returns the first block, in creation order, with enough
// untouched space. Linear first-fit, no balancing.
func (h *Heap) findSpace(size uint64) int32 {
	for i := h.first; i != noBlock; i = h.blocks[i].next {
		if h.blocks[i].remaining >= size {
			return i
		}
	}
	return noBlock
}

// grow appends a new block immediately below the lowest existing one,
// or just below the window top when the directory is empty. Returns
// noBlock when the candidate base would fall below the window bottom;
// the directory is untouched in that case.
func (h *Heap) grow(requested uint64) int32 {
	size := requested + blockHeaderSize
	if size < h.pageSize {
		size = h.pageSize
	}

	floor := h.region.size()
	if h.last != noBlock {
		floor = h.blocks[h.last].base
	}
	if size > floor {
		return noBlock // would cross the window bottom
	}
	base := floor - size

	idx := int32(len(h.blocks))
	h.blocks = append(h.blocks, block{
		prev:      h.last,
		next:      noBlock,
		base:      base,
		size:      size,
		remaining: size - blockHeaderSize,
		top:       base + blockHeaderSize,
		free:      nilOff,
	})
	if h.first == noBlock {
		h.first = idx
	} else {
		h.blocks[h.last].next = idx
	}
	h.last = idx
	return idx
}

// BlockRef is a read-only view of one directory entry, for inspection
// and tests. Callers must not hold one across Configure.
type BlockRef struct {
	h   *Heap
	idx int32
}

// FirstBlock returns a handle on the head of the block directory, or
// nil when no block has been carved yet.
func (h *Heap) FirstBlock() *BlockRef {
	if h.first == noBlock {
		return nil
	}
	return &BlockRef{h: h, idx: h.first}
}

// Base is the logical address of the block's lowest byte.
func (b *BlockRef) Base() uint64 { return b.h.bottom + b.h.blocks[b.idx].base }

// Size is the whole span of the block, header included.
func (b *BlockRef) Size() uint64 { return b.h.blocks[b.idx].size }

// Remaining is the untouched space left between the carve cursor and
// the end of the block.
func (b *BlockRef) Remaining() uint64 { return b.h.blocks[b.idx].remaining }

// FreeBytes sums the freed units currently queued on this block.
func (b *BlockRef) FreeBytes() uint64 {
	var n uint64
	h := b.h
	for off := h.blocks[b.idx].free; off != nilOff; off = h.region.next(off) {
		n += h.region.chunkSize(off)
	}
	return n
}

// Next moves toward the most recently created block, returning nil at
// the end of the directory.
func (b *BlockRef) Next() *BlockRef {
	n := b.h.blocks[b.idx].next
	if n == noBlock {
		return nil
	}
	return &BlockRef{h: b.h, idx: n}
}
