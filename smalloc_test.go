package smalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestNewWithOptions(t *testing.T) {
	tests := []struct {
		name    string
		window  int
		opts    Options
		wantErr bool
	}{
		{"default_ok", 8192, Options{}, false},
		{"nil_window", 0, Options{}, true},
		{"window_below_page", 4096, Options{}, true},
		{"custom_page", 2048, Options{PageSize: 1024}, false},
		{"page_too_small", 8192, Options{PageSize: 32}, true},
		{"window_exactly_page", 1024, Options{PageSize: 1024}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var window []byte
			if tt.window > 0 {
				window = make([]byte, tt.window)
			}
			_, err := NewWithOptions(window, tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAllocFloor(t *testing.T) {
	h, err := New(make([]byte, 64*1024))
	require.NoError(t, err)

	p := h.Alloc(1)
	require.NotNil(t, p)
	assert.Equal(t, 1, len(p))
	// Rounded up to the minimum unit: header + link room.
	assert.Equal(t, int(minChunkSize-chunkHeaderSize), cap(p))

	q := h.Alloc(0)
	require.NotNil(t, q)
	assert.Equal(t, 0, len(q))
	// The zero-size unit still occupies a full minimum unit right
	// above the first one.
	assert.Equal(t, h.Address(p)+minChunkSize, h.Address(q))
}

func TestInversePointerLaw(t *testing.T) {
	h, err := New(make([]byte, 256*1024))
	require.NoError(t, err)

	for _, size := range []int{0, 1, 15, 16, 17, 100, 1000, 4096} {
		p := h.Alloc(size)
		require.NotNil(t, p, "size=%d", size)
		assert.Equal(t, size, len(p), "size=%d", size)

		off, ok := h.region.offsetOf(p)
		require.True(t, ok, "size=%d", size)
		unit := h.region.chunkSize(off)
		assert.GreaterOrEqual(t, unit, uint64(size)+chunkHeaderSize, "size=%d", size)
		assert.GreaterOrEqual(t, unit, uint64(minChunkSize), "size=%d", size)
		assert.Equal(t, h.bottom+off+chunkHeaderSize, h.Address(p), "size=%d", size)
	}
}

func TestReusePreference(t *testing.T) {
	h, err := New(make([]byte, 64*1024))
	require.NoError(t, err)

	p := h.Alloc(100)
	require.NotNil(t, p)
	addr := h.Address(p)

	h.Free(p)
	require.Equal(t, uint64(116), h.Avail().FreedBytes)

	q := h.Alloc(100)
	require.NotNil(t, q)
	assert.Equal(t, addr, h.Address(q), "freed unit must be reused, not a fresh carve")
	assert.Zero(t, h.Avail().FreedBytes)
}

func TestDoubleFreeIsNoOp(t *testing.T) {
	h, err := New(make([]byte, 64*1024))
	require.NoError(t, err)

	p := h.Alloc(64)
	require.NotNil(t, p)
	addr := h.Address(p)

	h.Free(p)
	require.Equal(t, uint64(80), h.Avail().FreedBytes)

	// Second release must not enqueue the unit twice.
	h.Free(p)
	require.Equal(t, uint64(80), h.Avail().FreedBytes)

	q := h.Alloc(64)
	require.NotNil(t, q)
	assert.Equal(t, addr, h.Address(q))
	assert.Zero(t, h.Avail().FreedBytes)

	r := h.Alloc(64)
	require.NotNil(t, r)
	assert.NotEqual(t, addr, h.Address(r), "the freed unit must exist on the list only once")
}

func TestFreeForeignSliceIgnored(t *testing.T) {
	h, err := New(make([]byte, 64*1024))
	require.NoError(t, err)

	p := h.Alloc(40)
	require.NotNil(t, p)
	h.Free(make([]byte, 40))
	assert.Zero(t, h.Avail().FreedBytes)
	assert.Zero(t, h.Address(make([]byte, 8)))
}

func TestReuseWindowBound(t *testing.T) {
	h, err := New(make([]byte, 64*1024))
	require.NoError(t, err)

	a := h.Alloc(184) // unit size 200
	require.NotNil(t, a)
	addr := h.Address(a)
	h.Free(a)

	// Upper bound is inclusive: want-unit 100, window [100, 200].
	b := h.Alloc(84)
	require.NotNil(t, b)
	assert.Equal(t, addr, h.Address(b))
	h.Free(b)

	// want-unit 50, window [50, 100]: 200 is too oversized to reuse.
	c := h.Alloc(34)
	require.NotNil(t, c)
	assert.NotEqual(t, addr, h.Address(c))
	assert.Equal(t, uint64(200), h.Avail().FreedBytes)

	// want-unit 316: 200 is too small, a fresh carve again.
	d := h.Alloc(300)
	require.NotNil(t, d)
	assert.NotEqual(t, addr, h.Address(d))
	assert.Equal(t, uint64(200), h.Avail().FreedBytes)

	// want-unit 108, window [108, 216]: reused at last.
	e := h.Alloc(92)
	require.NotNil(t, e)
	assert.Equal(t, addr, h.Address(e))
	assert.Zero(t, h.Avail().FreedBytes)
}

func TestExhaustionBoundary(t *testing.T) {
	h, err := NewWithOptions(make([]byte, 1024), Options{PageSize: 1024})
	require.NoError(t, err)

	// Unit plus block header cannot fit the window at all.
	p := h.Alloc(1024)
	assert.Nil(t, p)
	assert.Zero(t, h.Used().BlockCount, "failed growth must not touch the directory")

	q := h.Alloc(100)
	require.NotNil(t, q)
	assert.Equal(t, 1, h.Used().BlockCount)
	assert.Equal(t, uint64(1024), h.Used().TotalBlockBytes)

	// Window bottom reached: no second block can be placed.
	r := h.Alloc(900)
	assert.Nil(t, r)
	assert.Equal(t, 1, h.Used().BlockCount)

	// The existing block still serves what fits.
	s := h.Alloc(800)
	require.NotNil(t, s)
	assert.Equal(t, 1, h.Used().BlockCount)
}

func TestAccountingIdentity(t *testing.T) {
	h, err := NewWithOptions(make([]byte, 128*1024), Options{PageSize: 4096})
	require.NoError(t, err)

	check := func() {
		used := h.Used()
		avail := h.Avail()
		require.Equal(t, used.TotalBlockBytes, used.CarvedBytes+avail.RemainingBytes)
	}

	r := rand.New(rand.NewSource(1))
	live := make([][]byte, 0, 256)
	for i := 0; i < 2000; i++ {
		if len(live) > 0 && r.Intn(3) == 0 {
			j := r.Intn(len(live))
			h.Free(live[j])
			live = append(live[:j], live[j+1:]...)
		} else {
			if p := h.Alloc(r.Intn(600)); p != nil {
				live = append(live, p)
			}
		}
		check()
	}
	for _, p := range live {
		h.Free(p)
		check()
	}
}

func TestConfigure(t *testing.T) {
	h, err := New(make([]byte, 64*1024))
	require.NoError(t, err)

	p := h.Alloc(10)
	require.NotNil(t, p)
	require.Equal(t, 1, h.Used().BlockCount)

	// Each invalid call is rejected silently, prior state retained.
	h.Configure(100, 50, 1024)          // bottom above top
	h.Configure(0, 512, 1024)           // window smaller than page size
	h.Configure(0, 1<<20, 4096)         // span larger than the backing slice
	assert.Equal(t, 1, h.Used().BlockCount)

	// A valid call resets the directory and shifts the address base.
	h.Configure(0x050000, 0x058000, 4096)
	assert.Zero(t, h.Used().BlockCount)
	assert.Equal(t, uint64(0x8000), h.Avail().UnreservedBytes)

	q := h.Alloc(100)
	require.NotNil(t, q)
	addr := h.Address(q)
	assert.GreaterOrEqual(t, addr, uint64(0x050000))
	assert.Less(t, addr, uint64(0x058000))
}

// TestScenario reproduces a full host run: a 0x2ffff-byte window at
// [0x050000, 0x07ffff), page size 1024, and 512 allocations of
// strictly increasing sizes. Addresses climb within a block and wrap
// downward whenever usage forces a new block.
func TestScenario(t *testing.T) {
	const (
		bottom = uint64(0x050000)
		top    = uint64(0x07ffff)
	)
	h, err := NewWithOptions(make([]byte, top-bottom), Options{PageSize: 1024})
	require.NoError(t, err)
	h.Configure(bottom, top, 1024)

	prevAddr := uint64(0)
	prevBlocks := 0
	for i := 0; i < 512; i++ {
		p := h.Alloc(13 + i)
		require.NotNil(t, p, "allocation %d", i)

		addr := h.Address(p)
		require.GreaterOrEqual(t, addr, bottom)
		require.Less(t, addr, top)

		blocks := h.Used().BlockCount
		require.GreaterOrEqual(t, blocks, prevBlocks)
		if addr < prevAddr {
			require.Greater(t, blocks, prevBlocks, "a falling address means a freshly grown block")
		}
		prevAddr, prevBlocks = addr, blocks
	}

	used := h.Used()
	avail := h.Avail()
	assert.Equal(t, 188, used.BlockCount)
	assert.Equal(t, uint64(188*1024), used.TotalBlockBytes)
	assert.Equal(t, uint64(4095), avail.UnreservedBytes)
	assert.Equal(t, used.TotalBlockBytes, used.CarvedBytes+avail.RemainingBytes)
}
