package picocart64

import "errors"

// uartPort is the register access uart logging needs, satisfied by
// *periph.BusPort.
type uartPort interface {
	ReadRegister(offset uint32) uint32
	WriteRegister(offset uint32, value uint32)
	WriteWindow(p []byte)
}

var errUARTTimeout = errors.New("uart timeout")

// uartWrite stages p in the tx buffer in scratch window sized chunks and
// tells the firmware how many bytes to print. The busy wait is bounded by
// the same kind of iteration ceiling as sector reads.
func uartWrite(port uartPort, pollLimit int, p []byte) (n int, err error) {
	for len(p) > 0 {
		nn := min(len(p), scratchSize)

		// The firmware owns the scratch window while busy is set.
		ready := false
		for i := 0; i < pollLimit; i++ {
			if port.ReadRegister(regBusy) == 0 {
				ready = true
				break
			}
		}
		if !ready {
			return n, errUARTTimeout
		}

		port.WriteWindow(p[:nn])
		port.WriteRegister(regUARTTx, uint32(nn))

		p = p[nn:]
		n += nn
	}

	return
}
