//go:build n64

package picocart64

import (
	"github.com/n64brew/sdcart/drivers/sdcard"
	"github.com/n64brew/sdcart/rcp/periph"
)

// Cart provides access to a probed PicoCart64.
type Cart struct {
	port *periph.BusPort
	sd   *sdcard.Device
}

// Probe detects the cart by its firmware identification register. Returns
// nil if no PicoCart64 answers.
func Probe() *Cart {
	port := periph.NewBusPort(commandBase, scratchBase)
	if port.ReadRegister(regMagic) != firmwareMagic {
		return nil
	}

	cfg := Config()
	cfg.Guard = periph.CartIRQGuard()
	return &Cart{
		port: port,
		sd:   sdcard.New(port, cfg),
	}
}

// SDCard returns the cart's SD card slot as a block device.
func (v *Cart) SDCard() *sdcard.Device { return v.sd }

// Write implements the cart's uart logging: stage the bytes in the tx
// buffer, then tell the firmware how many of them to print.
func (v *Cart) Write(p []byte) (n int, err error) {
	return uartWrite(v.port, sdcard.DefaultPollLimit, p)
}
