// Package dreamdrive64 implements SD card support for the DreamDrive64
// flashcart.
package dreamdrive64

import (
	"github.com/n64brew/sdcart/drivers/sdcard"
	"github.com/n64brew/sdcart/rcp/cpu"
)

// The firmware lands sector payloads in the scratch window, the command
// window behind it holds the registers.
const (
	scratchBase cpu.Addr = 0x1ffe_0000
	scratchSize          = 0x1000
	commandBase          = scratchBase + scratchSize
)

// Register offsets in the command window. The firmware is a PicoCart64
// fork and keeps its identification register.
const (
	regMagic       = 0x00 // reads firmwareMagic
	regStartRead   = 0x0c // write 1 to start an SD read
	regROMSelect   = 0x10 // load the selected rom into memory and boot
	regBusy        = 0x14 // 1 while the SD card is busy
	regSectorHi    = 0x18
	regSectorLo    = 0x1c
	regSectorCount = 0x20
	regSelectROM   = 0x24 // rom filename to load, 255 bytes
	regROMMeta     = 0x28 // cic (0xff00) and save type (0x00ff) of the rom
)

const firmwareMagic = 0xdead6400

// Config returns the SD block device configuration for this cart. The
// port passed to [sdcard.New] must map the cart's command window.
func Config() sdcard.Config {
	return sdcard.Config{
		Name: "DreamDrive64",
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
