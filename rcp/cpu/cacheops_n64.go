//go:build n64

package cpu

// Writeback causes the cache to be written back to RAM. Call this before
// requesting another component to read from this address range. If the
// specified address is currently not cached, this is a no-op.
func Writeback(addr uintptr, length int)

// Invalidate causes the cache to be read from RAM before next access. Call
// this before the address range is to be written by another component. If
// the specified address is currently not cached, this is a no-op.
func Invalidate(addr uintptr, length int)
