// Command smalloc-demo drives a heap under a synthetic backing window
// and prints its accounting, standing in for a freestanding host. It
// only calls the allocator's public entry points and reads its
// diagnostic counters.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cloudwego/smalloc"
	"github.com/cloudwego/smalloc/internal/hostmem"
)

const windowSize = 256 * 1024

func main() {
	window, err := hostmem.Reserve(windowSize)
	if err != nil {
		slog.Error("reserve window", "error", err)
		os.Exit(1)
	}
	defer hostmem.Release(window)

	heap, err := smalloc.NewWithOptions(window, smalloc.Options{PageSize: 8 * 1024})
	if err != nil {
		slog.Error("new heap", "error", err)
		os.Exit(1)
	}

	held := make([][]byte, 0, 512)
	for i := 0; i < 512; i++ {
		p := heap.Alloc(13 + i)
		if p == nil {
			slog.Error("window exhausted", "allocation", i)
			os.Exit(1)
		}
		held = append(held, p)
	}

	// Release every other payload, then allocate again: most requests
	// are now served from the freed lists instead of fresh carving.
	for i := 0; i < len(held); i += 2 {
		heap.Free(held[i])
	}
	reused := 0
	for i := 0; i < 512; i += 2 {
		if p := heap.Alloc(13 + i); p != nil {
			reused++
		}
	}

	used := heap.Used()
	avail := heap.Avail()
	fmt.Printf("blocks=%d blockBytes=%d carved=%d\n",
		used.BlockCount, used.TotalBlockBytes, used.CarvedBytes)
	fmt.Printf("unreserved=%d remaining=%d freed=%d reallocated=%d\n",
		avail.UnreservedBytes, avail.RemainingBytes, avail.FreedBytes, reused)

	dump, err := heap.Stat().MarshalJSON()
	if err != nil {
		slog.Error("marshal stat", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(dump))
}
