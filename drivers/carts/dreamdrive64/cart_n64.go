//go:build n64

package dreamdrive64

import (
	"github.com/n64brew/sdcart/drivers/sdcard"
	"github.com/n64brew/sdcart/rcp/periph"
)

// Cart provides access to a probed DreamDrive64.
type Cart struct {
	sd *sdcard.Device
}

// Probe detects the cart by its firmware identification register. Returns
// nil if no DreamDrive64 answers.
func Probe() *Cart {
	port := periph.NewBusPort(commandBase, scratchBase)
	if port.ReadRegister(regMagic) != firmwareMagic {
		return nil
	}

	cfg := Config()
	cfg.Guard = periph.CartIRQGuard()
	return &Cart{sd: sdcard.New(port, cfg)}
}

// SDCard returns the cart's SD card slot as a block device.
func (v *Cart) SDCard() *sdcard.Device { return v.sd }
