// Package smalloc implements a heap allocator for fixed, pre-reserved
// memory windows: environments with no paging hardware and no sbrk.
// The host hands over a byte range that nothing else may write into
// for the heap's lifetime; the allocator carves it into blocks growing
// downward from the window top and serves allocations out of them.
//
// Freed units are queued per block and reused whole. There is no
// coalescing of neighbors, no splitting of oversized units, and no
// alignment guarantee on returned payloads; a freed unit is reused
// only when its size falls within [want, 2*want]. These are deliberate
// simplicity trade-offs of the design, not gaps.
//
// A Heap is not safe for concurrent use. A host that needs concurrency
// must serialize access externally.
package smalloc

import "fmt"

// Heap is one allocator instance over one window. Independent heaps
// share nothing.
type Heap struct {
	region region
	window []byte // full backing slice; region covers [bottom, top)

	bottom   uint64 // logical address of region offset 0
	pageSize uint64

	blocks      []block
	first, last int32
}

// New builds a heap over the whole backing slice with DefaultOptions.
func New(window []byte) (*Heap, error) {
	return NewWithOptions(window, DefaultOptions)
}

// NewWithOptions builds a heap over the backing slice. The slice is
// the heap window: the host guarantees nothing else writes into it for
// the heap's lifetime.
func NewWithOptions(window []byte, opts Options) (*Heap, error) {
	if opts.PageSize == 0 {
		opts.PageSize = DefaultOptions.PageSize
	}
	if err := checkOptions(opts); err != nil {
		return nil, err
	}
	if uint64(len(window)) < opts.PageSize {
		return nil, fmt.Errorf("smalloc: window size %d smaller than page size %d", len(window), opts.PageSize)
	}
	return &Heap{
		region:   region{buf: window},
		window:   window,
		bottom:   0,
		pageSize: opts.PageSize,
		first:    noBlock,
		last:     noBlock,
	}, nil
}

// Configure sets the logical window [bottom, top) and the page size,
// and resets the entire block directory. Call it at most once, before
// the first allocation: every prior allocation's bookkeeping is
// discarded, so it must never run while live allocations exist.
// Invalid bounds — bottom above top, a window smaller than pageSize,
// or a span larger than the backing slice — are rejected silently and
// leave prior state untouched.
func (h *Heap) Configure(bottom, top, pageSize uint64) {
	if bottom > top || top-bottom < pageSize {
		return
	}
	if top-bottom > uint64(len(h.window)) {
		return
	}
	h.bottom = bottom
	h.pageSize = pageSize
	h.region = region{buf: h.window[:top-bottom]}
	h.blocks = h.blocks[:0]
	h.first, h.last = noBlock, noBlock
}

// Alloc returns a payload of length size, or nil when the window is
// exhausted or the request cannot fit even a freshly grown block. nil
// is the only out-of-memory signal; callers may release other units
// and retry. The slice's capacity is capped at its unit, so append
// stays inside it.
func (h *Heap) Alloc(size int) []byte {
	if size < 0 {
		return nil
	}
	unit := uint64(size) + chunkHeaderSize
	if unit < minChunkSize {
		unit = minChunkSize
	}

	// Reuse window: a freed unit qualifies between unit and unit*2 —
	// large enough to serve, not so oversized that most of it would
	// sit idle inside the reused unit.
	if off, ok := h.takeFreed(unit, unit*2); ok {
		h.region.setChunkFlags(off, h.region.chunkFlags(off)|chunkLive)
		return h.region.payload(off, h.region.chunkSize(off), size)
	}

	idx := h.findSpace(unit)
	if idx == noBlock {
		idx = h.grow(unit)
	}
	if idx == noBlock {
		return nil // out of memory
	}

	b := &h.blocks[idx]
	off := b.top
	h.region.writeHeader(off, unit, uint32(idx), chunkLive)
	b.top += unit
	b.remaining -= unit
	return h.region.payload(off, unit, size)
}

// Free returns a payload obtained from Alloc to its owning block's
// freed list. Freeing an already-freed unit is a safe no-op; the live
// flag is the only guard there is. Passing a slice that did not come
// from Alloc on this heap is undefined behavior.
func (h *Heap) Free(p []byte) {
	off, ok := h.region.offsetOf(p)
	if !ok {
		return
	}
	if h.region.chunkFlags(off)&chunkLive == 0 {
		return // double free
	}
	h.pushFreed(h.region.chunkBlock(off), off)
}

// Address reports the logical address of a payload returned by Alloc,
// for host diagnostics and placement inspection. Returns 0 for a slice
// that does not point into the window.
func (h *Heap) Address(p []byte) uint64 {
	off, ok := h.region.offsetOf(p)
	if !ok {
		return 0
	}
	return h.bottom + off + chunkHeaderSize
}
