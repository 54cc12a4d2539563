package smalloc

// takeFreed scans blocks in creation order and each block's freed list
// from most recently freed toward the tail, consuming and returning
// the offset of the first unit whose size falls within
// [minSize, maxSize] inclusive. There is no peek: a successful lookup
// always unlinks the unit.
func (h *Heap) takeFreed(minSize, maxSize uint64) (uint64, bool) {
	for i := h.first; i != noBlock; i = h.blocks[i].next {
		for off := h.blocks[i].free; off != nilOff; off = h.region.next(off) {
			size := h.region.chunkSize(off)
			if size < minSize || size > maxSize {
				continue
			}
			h.unlinkFreed(i, off)
			return off, true
		}
	}
	return nilOff, false
}

func (h *Heap) unlinkFreed(blockIdx int32, off uint64) {
	next, prev := h.region.next(off), h.region.prev(off)
	if h.blocks[blockIdx].free == off {
		h.blocks[blockIdx].free = next
	}
	if next != nilOff {
		h.region.setPrev(next, prev)
	}
	if prev != nilOff {
		h.region.setNext(prev, next)
	}
}

// pushFreed makes the unit the new head of its block's freed list and
// clears the live flag. The link words land in the payload area, which
// the caller has just given up.
func (h *Heap) pushFreed(blockIdx uint32, off uint64) {
	head := h.blocks[blockIdx].free
	h.region.setNext(off, head)
	h.region.setPrev(off, nilOff)
	if head != nilOff {
		h.region.setPrev(head, off)
	}
	h.blocks[blockIdx].free = off
	h.region.setChunkFlags(off, h.region.chunkFlags(off)&^chunkLive)
}
