//go:build !n64

package cpu

// Host targets have no components writing to RAM behind the CPU's back,
// cache maintenance is a no-op.

func Writeback(addr uintptr, length int) {}

func Invalidate(addr uintptr, length int) {}
