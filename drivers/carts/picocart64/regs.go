// Package picocart64 implements SD card and uart logging support for the
// PicoCart64 flashcart.
package picocart64

import (
	"github.com/n64brew/sdcart/drivers/sdcard"
	"github.com/n64brew/sdcart/rcp/cpu"
)

// The firmware lands sector payloads in the scratch window, the command
// window behind it holds the registers. The scratch window doubles as the
// uart tx buffer.
const (
	scratchBase cpu.Addr = 0x1ffe_0000
	scratchSize          = 0x800
	commandBase          = scratchBase + scratchSize
)

// Register offsets in the command window.
const (
	regMagic       = 0x00 // reads firmwareMagic
	regUARTTx      = 0x04 // number of bytes to print from the tx buffer
	regRandSeed    = 0x08 // seeds the firmware's random register range
	regStartRead   = 0x0c // write 1 to start an SD read
	regROMSelect   = 0x10 // load the selected rom into memory and boot
	regBusy        = 0x14 // 1 while the SD card is busy
	regSectorHi    = 0x18
	regSectorLo    = 0x1c
	regSectorCount = 0x20
	regSelectROM   = 0x24 // rom filename to load, 255 bytes
)

const firmwareMagic = 0xdead6400

// Config returns the SD block device configuration for this cart. The
// port passed to [sdcard.New] must map the cart's command window.
func Config() sdcard.Config {
	return sdcard.Config{
		Name: "PicoCart64",
		Regs: sdcard.RegisterMap{
			StartRead:   regStartRead,
			ROMSelect:   regROMSelect,
			Busy:        regBusy,
			SectorHi:    regSectorHi,
			SectorLo:    regSectorLo,
			SectorCount: regSectorCount,
		},
	}
}
