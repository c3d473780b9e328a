// Package sdcard provides sector read access to the SD card slot of
// supported flashcarts.
//
// The flashcart firmware exposes the card through a small command window on
// the cartridge bus: the driver programs a sector number, triggers a read
// and busy-polls until the firmware has landed the sector payload in a
// scratch window, from where it is DMA-copied into the destination buffer.
// The firmware implements no writes and no sector sizes other than 512
// bytes.
//
// A Device drives one request at a time; callers (usually the FAT engine
// mounted on top) must serialize access.
package sdcard

import (
	"errors"
	"sync"

	"github.com/n64brew/sdcart/debug"
)

// SectorSize is the only transfer unit supported by the cart firmware.
const SectorSize = 512

// Calibrated empirically against the original firmware. PollLimit assumes a
// roughly constant polling rate and must be recalibrated for different
// clock speeds.
const (
	DefaultPollLimit = 10_000_000 // busy reads per attempt
	DefaultRetries   = 2          // trigger attempts per request
)

var (
	ErrTimeout          = errors.New("sdcard: busy flag stuck, retries exhausted")
	ErrWriteUnsupported = errors.New("sdcard: card is read-only")
)

// A Port gives register and DMA access to one flashcart's SD command
// interface. Register offsets are relative to the cart's command window.
// Implementations must order register stores with the required memory
// barriers and keep DMA destinations cache coherent.
type Port interface {
	ReadRegister(offset uint32) uint32
	WriteRegister(offset uint32, value uint32)

	// ReadSector copies one sector out of the scratch window into p.
	// Valid only after the busy flag has read zero following a trigger,
	// earlier reads observe stale or partial DMA data.
	ReadSector(p []byte)
}

// A RegisterMap locates the SD registers inside a cart's command window.
// Both supported carts share this layout at different base addresses.
type RegisterMap struct {
	StartRead   uint32 // write 1 to trigger a sector read
	ROMSelect   uint32 // rom boot command, unrelated to sector I/O
	Busy        uint32 // 1 while the firmware owns the scratch window
	SectorHi    uint32 // upper half of the 64 bit sector number
	SectorLo    uint32 // lower half of the 64 bit sector number
	SectorCount uint32
}

type Config struct {
	Name string
	Regs RegisterMap

	// PollLimit and Retries fall back to the defaults if zero.
	PollLimit int
	Retries   int

	// Guard is held for the duration of each sector transaction. On
	// hardware it masks the cartridge interrupt line, which must not
	// preempt the register sequence.
	Guard sync.Locker
}

// Device represents the SD card behind one flashcart backend. Created once
// by the cart's Probe and kept for the lifetime of the mounted volume,
// there is no teardown.
type Device struct {
	name string
	port Port
	regs RegisterMap

	pollLimit int
	retries   int
	guard     sync.Locker

	bounce []byte // for unaligned ReadAt edges
}

func New(port Port, cfg Config) *Device {
	debug.Assert(SectorSize == 512, "unsupported sector size")

	v := &Device{
		name:      cfg.Name,
		port:      port,
		regs:      cfg.Regs,
		pollLimit: cfg.PollLimit,
		retries:   cfg.Retries,
		guard:     cfg.Guard,
		bounce:    make([]byte, SectorSize),
	}
	if v.pollLimit == 0 {
		v.pollLimit = DefaultPollLimit
	}
	if v.retries == 0 {
		v.retries = DefaultRetries
	}
	if v.guard == nil {
		v.guard = nopLocker{}
	}
	return v
}

func (v *Device) Name() string { return v.name }

// Initialize reports the card ready. There is no hardware state to prepare,
// calling it multiple times is safe.
func (v *Device) Initialize() error { return nil }

func (v *Device) Status() error { return nil }

func (v *Device) GetSectorSize() uint64 { return SectorSize }

// GetSectorCount returns zero. The command interface can't query the card's
// geometry.
func (v *Device) GetSectorCount() uint64 { return 0 }

// ReadSectors reads count sectors starting at sector into p.
//
// Each hardware transaction transfers exactly one sector. A fixed retry
// budget is shared across the whole request: a card that stalls once on two
// different sectors fails the request just like one that stalls twice on
// the same sector. On ErrTimeout the sectors transferred so far hold
// correct data, the remainder of p is unspecified.
func (v *Device) ReadSectors(sector uint64, count uint32, p []byte) error {
	debug.Assert(len(p) >= int(count)*SectorSize, "short destination buffer")

	retries := v.retries
	for i := uint32(0); i < count; {
		current := sector + uint64(i)

		v.guard.Lock()
		v.port.WriteRegister(v.regs.SectorHi, uint32(current>>32))
		v.port.WriteRegister(v.regs.SectorLo, uint32(current))

		// The count register accepts larger values, but the firmware
		// is only reliable with single sector bursts.
		v.port.WriteRegister(v.regs.SectorCount, 1)
		v.port.WriteRegister(v.regs.StartRead, 1)

		ok := v.waitReady()
		if ok {
			v.port.ReadSector(p[i*SectorSize : (i+1)*SectorSize])
		}
		v.guard.Unlock()

		if !ok {
			retries--
			if retries <= 0 {
				return ErrTimeout
			}
			continue
		}
		i++
	}

	return nil
}

// WriteSectors fails unconditionally without touching the hardware. This is
// a permanent limitation of the cart firmware, not a transient error, don't
// retry.
func (v *Device) WriteSectors(sector uint64, count uint32, p []byte) error {
	return ErrWriteUnsupported
}

// waitReady busy-polls until the firmware releases the scratch window.
// There is no completion interrupt, the poll ceiling is the only way out of
// a stuck transaction.
func (v *Device) waitReady() bool {
	for i := 0; i < v.pollLimit; i++ {
		if v.port.ReadRegister(v.regs.Busy) == 0 {
			return true
		}
	}
	return false
}

type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}
