//go:build n64

package periph

import (
	"github.com/n64brew/sdcart/debug"
	"github.com/n64brew/sdcart/rcp/cpu"
)

// dmaLoad loads bytes from the PI bus into RDRAM via DMA. Transfers are
// polled, the PI interrupt stays masked.
func dmaLoad(piAddr cpu.Addr, p []byte) {
	if len(p) == 0 {
		return
	}

	addr := cpu.PhysicalAddressSlice(p)
	debug.Assert(piAddr%2 == 0, "PI start address unaligned")
	debug.Assert(len(p)%2 == 0, "PI end address unaligned")
	debug.Assert(cpu.IsPadded(p), "Unpadded destination slice")
	debug.Assert(addr%8 == 0, "RDRAM address unaligned")

	waitDMA()

	regs.dramAddr.Store(uint32(addr))
	regs.cartAddr.Store(uint32(piAddr))

	cpu.InvalidateSlice(p)

	regs.writeLen.Store(uint32(len(p) - 1))

	waitDMA()
	regs.status.Store(clearInterrupt)
}

// dmaStore stores bytes from RDRAM to the PI bus via DMA.
func dmaStore(piAddr cpu.Addr, p []byte) {
	if len(p) == 0 {
		return
	}

	addr := cpu.PhysicalAddressSlice(p)
	debug.Assert(piAddr%2 == 0, "PI start address unaligned")
	debug.Assert(len(p)%2 == 0, "PI end address unaligned")
	debug.Assert(cpu.IsPadded(p), "Unpadded source slice")
	debug.Assert(addr%8 == 0, "RDRAM address unaligned")

	waitDMA()

	regs.dramAddr.Store(uint32(addr))
	regs.cartAddr.Store(uint32(piAddr))

	cpu.WritebackSlice(p)

	regs.readLen.Store(uint32(len(p) - 1))

	waitDMA()
	regs.status.Store(clearInterrupt)
}

// waitDMA blocks until the PI bus is idle.
func waitDMA() {
	for {
		if regs.status.Load()&(dmaBusy|ioBusy) == 0 {
			break
		}
	}
}
