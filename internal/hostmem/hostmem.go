// Package hostmem reserves backing windows for a heap. The allocator
// never claims its own backing: the host hands it a pre-reserved byte
// range and guarantees nothing else writes into it. On Linux the range
// comes from an anonymous private mapping; elsewhere it comes from the
// Go heap without a zeroing pass, since the allocator never assumes
// zeroed backing.
package hostmem
