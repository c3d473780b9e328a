//go:build n64

package periph

import (
	"embedded/rtos"
	"sync"
	"unsafe"

	"github.com/n64brew/sdcart/rcp/cpu"
)

const sectorSize = 512

// BusPort exposes a flashcart's command and scratch windows as a register
// and DMA port, the hardware implementation of [sdcard.Port].
//
// Register accesses go through [U32] cells, which carry the PI bus io sync.
// DMA transfers land in a cache-line padded bounce buffer before being
// copied out, so callers may pass arbitrary destination slices.
type BusPort struct {
	cmdBase     cpu.Addr
	scratchBase cpu.Addr
	buf         []byte
}

func NewBusPort(cmdBase, scratchBase cpu.Addr) *BusPort {
	return &BusPort{
		cmdBase:     cmdBase,
		scratchBase: scratchBase,
		buf:         cpu.MakePaddedSlice[byte](sectorSize),
	}
}

func (v *BusPort) reg(offset uint32) *U32 {
	return (*U32)(unsafe.Pointer(cpu.KSEG1 | uintptr(v.cmdBase+cpu.Addr(offset))))
}

func (v *BusPort) ReadRegister(offset uint32) uint32 {
	return v.reg(offset).Load()
}

func (v *BusPort) WriteRegister(offset uint32, value uint32) {
	v.reg(offset).Store(value)
}

// ReadSector copies one sector from the scratch window into p.
func (v *BusPort) ReadSector(p []byte) {
	dmaLoad(v.scratchBase, v.buf)
	copy(p, v.buf)
}

// WriteWindow stages bytes in the scratch window, for carts that consume
// data from it (uart logging). At most one sector per call.
func (v *BusPort) WriteWindow(p []byte) {
	n := copy(v.buf, p)
	dmaStore(v.scratchBase, v.buf[:(n+1)&^1])
}

// CartIRQGuard returns a locker that masks the cartridge interrupt line.
// Held by drivers around register sequences that must not be preempted.
func CartIRQGuard() sync.Locker {
	return cartIRQGuard{}
}

// Interrupt caused by a peripheral on the cartridge
const irqCart rtos.IRQ = 4

type cartIRQGuard struct{}

func (cartIRQGuard) Lock() {
	irqCart.Disable(0)
}

func (cartIRQGuard) Unlock() {
	irqCart.Enable(rtos.IntPrioLow, 0)
}
