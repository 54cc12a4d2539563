package smalloc

import "fmt"

// Options tunes a heap at construction time.
type Options struct {
	// PageSize is the minimum span of a freshly grown block. A request
	// too large for it gets a block sized to its exact need.
	PageSize uint64
}

// DefaultOptions is a small-machine profile.
var DefaultOptions = Options{
	PageSize: 8 * 1024,
}

func checkOptions(opts Options) error {
	if opts.PageSize < blockHeaderSize+minChunkSize {
		return fmt.Errorf("smalloc: page size %d cannot hold a block header and one unit", opts.PageSize)
	}
	return nil
}
