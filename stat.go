package smalloc

import "github.com/bytedance/sonic"

// UsedStat aggregates the space the allocator has claimed from the
// window.
type UsedStat struct {
	// TotalBlockBytes sums every block's span, headers included.
	TotalBlockBytes uint64
	// BlockCount is the number of blocks carved from the window.
	BlockCount int
	// CarvedBytes counts bytes that are no longer untouched: every
	// carved unit with its header, whether currently live or sitting
	// on a freed list.
	CarvedBytes uint64
}

// Used walks the block directory and sums its spans. Read-only, no
// caching, safe to call at any time.
func (h *Heap) Used() UsedStat {
	var s UsedStat
	for i := h.first; i != noBlock; i = h.blocks[i].next {
		b := &h.blocks[i]
		s.BlockCount++
		s.TotalBlockBytes += b.size
		s.CarvedBytes += b.size - b.remaining
	}
	return s
}

// AvailStat aggregates the space still open to allocation.
type AvailStat struct {
	// UnreservedBytes is the distance between the lowest block's base
	// and the window bottom: space no block has claimed yet.
	UnreservedBytes uint64
	// RemainingBytes sums the untouched cursor space of every block.
	RemainingBytes uint64
	// FreedBytes sums the sizes of the units sitting on freed lists.
	FreedBytes uint64
}

// Avail walks the directory and every freed list. Read-only.
func (h *Heap) Avail() AvailStat {
	var s AvailStat
	s.UnreservedBytes = h.region.size()
	if h.last != noBlock {
		s.UnreservedBytes = h.blocks[h.last].base
	}
	for i := h.first; i != noBlock; i = h.blocks[i].next {
		b := &h.blocks[i]
		s.RemainingBytes += b.remaining
		for off := b.free; off != nilOff; off = h.region.next(off) {
			s.FreedBytes += h.region.chunkSize(off)
		}
	}
	return s
}

// HeapStat bundles both summaries for host-side reporting.
type HeapStat struct {
	Used  UsedStat
	Avail AvailStat
}

// Stat takes both summaries in one call.
func (h *Heap) Stat() HeapStat {
	return HeapStat{Used: h.Used(), Avail: h.Avail()}
}

type heapStatJSON HeapStat

// MarshalJSON renders the summaries for hosts that ship diagnostics as
// JSON. The heap itself performs no I/O.
func (s HeapStat) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(heapStatJSON(s))
}
