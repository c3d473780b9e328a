package sdcard_test

import (
	"bytes"
	"testing"

	"github.com/n64brew/sdcart/drivers/carts/dreamdrive64"
	"github.com/n64brew/sdcart/drivers/carts/picocart64"
	"github.com/n64brew/sdcart/drivers/sdcard"
)

// simPort simulates a flashcart's SD command interface in memory. It
// records all register traffic and can be scripted to time out on selected
// sectors.
type simPort struct {
	regs sdcard.RegisterMap

	card []byte // card contents, sectorData() pattern beyond its end

	sectorHi, sectorLo uint32
	count              uint32
	scratch            [sdcard.SectorSize]byte
	stuck              bool // busy flag never clears

	// timeouts maps a sector number to how many trigger attempts for it
	// should time out before the firmware answers again.
	timeouts map[uint64]int

	writes   []regWrite
	reads    int
	triggers []uint64 // sector number at each trigger
	copies   int
}

type regWrite struct{ off, val uint32 }

func newSimPort(regs sdcard.RegisterMap) *simPort {
	return &simPort{regs: regs, timeouts: make(map[uint64]int)}
}

// sectorData returns the byte at index i of the simulated sector's payload.
func sectorData(sector uint64, i int) byte {
	return byte(uint64(i) + sector*7 + 1)
}

func (v *simPort) ReadRegister(offset uint32) uint32 {
	v.reads++
	if offset != v.regs.Busy {
		return 0
	}
	if v.stuck {
		return 1
	}
	return 0
}

func (v *simPort) WriteRegister(offset uint32, value uint32) {
	v.writes = append(v.writes, regWrite{offset, value})

	switch offset {
	case v.regs.SectorHi:
		v.sectorHi = value
	case v.regs.SectorLo:
		v.sectorLo = value
	case v.regs.SectorCount:
		v.count = value
	case v.regs.StartRead:
		sector := uint64(v.sectorHi)<<32 | uint64(v.sectorLo)
		v.triggers = append(v.triggers, sector)

		if v.timeouts[sector] > 0 {
			v.timeouts[sector]--
			v.stuck = true
			return
		}
		v.stuck = false
		for i := range v.scratch {
			if off := int(sector)*sdcard.SectorSize + i; off < len(v.card) {
				v.scratch[i] = v.card[off]
			} else {
				v.scratch[i] = sectorData(sector, i)
			}
		}
	}
}

func (v *simPort) ReadSector(p []byte) {
	v.copies++
	copy(p, v.scratch[:])
}

// countingGuard counts how often the transaction guard was taken.
type countingGuard struct {
	locks, unlocks int
}

func (g *countingGuard) Lock()   { g.locks++ }
func (g *countingGuard) Unlock() { g.unlocks++ }

// newTestDevice builds a Device on a simulated PicoCart64 with a small poll
// ceiling, so timeout tests don't spin millions of iterations.
func newTestDevice(t *testing.T) (*sdcard.Device, *simPort, *countingGuard) {
	t.Helper()

	cfg := picocart64.Config()
	cfg.PollLimit = 32
	cfg.Guard = &countingGuard{}

	port := newSimPort(cfg.Regs)
	return sdcard.New(port, cfg), port, cfg.Guard.(*countingGuard)
}

func wantSector(t *testing.T, p []byte, sector uint64) {
	t.Helper()
	for i := range p {
		if p[i] != sectorData(sector, i) {
			t.Fatalf("sector %d: byte %d = %#02x, want %#02x",
				sector, i, p[i], sectorData(sector, i))
		}
	}
}

func TestReadSequential(t *testing.T) {
	dev, port, guard := newTestDevice(t)

	buf := make([]byte, 3*sdcard.SectorSize)
	if err := dev.ReadSectors(10, 3, buf); err != nil {
		t.Fatal(err)
	}

	for i, sector := range []uint64{10, 11, 12} {
		wantSector(t, buf[i*sdcard.SectorSize:(i+1)*sdcard.SectorSize], sector)
	}

	// One transaction per sector, each programmed as hi, lo, count=1,
	// trigger.
	regs := port.regs
	var want []regWrite
	for _, sector := range []uint64{10, 11, 12} {
		want = append(want,
			regWrite{regs.SectorHi, uint32(sector >> 32)},
			regWrite{regs.SectorLo, uint32(sector)},
			regWrite{regs.SectorCount, 1},
			regWrite{regs.StartRead, 1},
		)
	}
	if len(port.writes) != len(want) {
		t.Fatalf("got %d register writes, want %d", len(port.writes), len(want))
	}
	for i := range want {
		if port.writes[i] != want[i] {
			t.Errorf("write %d: got %v, want %v", i, port.writes[i], want[i])
		}
	}

	if port.copies != 3 {
		t.Errorf("got %d sector copies, want 3", port.copies)
	}
	if guard.locks != 3 || guard.unlocks != 3 {
		t.Errorf("guard taken %d/%d times, want 3/3", guard.locks, guard.unlocks)
	}
}

func TestReadZeroCount(t *testing.T) {
	dev, port, _ := newTestDevice(t)

	if err := dev.ReadSectors(42, 0, nil); err != nil {
		t.Fatal(err)
	}
	if len(port.writes) != 0 || port.reads != 0 || port.copies != 0 {
		t.Errorf("hardware touched: %d writes, %d reads, %d copies",
			len(port.writes), port.reads, port.copies)
	}
}

func TestReadLargeSectorNumber(t *testing.T) {
	dev, port, _ := newTestDevice(t)

	const sector = uint64(5)<<32 | 123
	buf := make([]byte, sdcard.SectorSize)
	if err := dev.ReadSectors(sector, 1, buf); err != nil {
		t.Fatal(err)
	}

	regs := port.regs
	if got := port.writes[0]; got != (regWrite{regs.SectorHi, 5}) {
		t.Errorf("sector high half: got %v", got)
	}
	if got := port.writes[1]; got != (regWrite{regs.SectorLo, 123}) {
		t.Errorf("sector low half: got %v", got)
	}
}

func TestTimeoutEveryAttempt(t *testing.T) {
	dev, port, _ := newTestDevice(t)
	port.timeouts[10] = 2 // both attempts

	buf := make([]byte, 3*sdcard.SectorSize)
	err := dev.ReadSectors(10, 3, buf)
	if err != sdcard.ErrTimeout {
		t.Fatalf("got %v, want ErrTimeout", err)
	}

	if len(port.triggers) != 2 {
		t.Fatalf("got %d trigger attempts, want 2", len(port.triggers))
	}
	for _, sector := range port.triggers {
		if sector != 10 {
			t.Errorf("triggered sector %d, want 10", sector)
		}
	}
	if port.copies != 0 {
		t.Errorf("got %d sector copies, want 0", port.copies)
	}
}

// The retry budget is shared across the whole request: one stall each on
// two different sectors exhausts it just like two stalls on the same one.
func TestRetryBudgetShared(t *testing.T) {
	dev, port, _ := newTestDevice(t)
	port.timeouts[10] = 1
	port.timeouts[11] = 1

	buf := make([]byte, 3*sdcard.SectorSize)
	err := dev.ReadSectors(10, 3, buf)
	if err != sdcard.ErrTimeout {
		t.Fatalf("got %v, want ErrTimeout", err)
	}

	// Sector 10 stalls once and succeeds on retry, its data must be
	// intact. Sector 11's first stall exhausts the budget, sector 12 is
	// never attempted.
	wantSector(t, buf[:sdcard.SectorSize], 10)

	want := []uint64{10, 10, 11}
	if len(port.triggers) != len(want) {
		t.Fatalf("triggers %v, want %v", port.triggers, want)
	}
	for i := range want {
		if port.triggers[i] != want[i] {
			t.Fatalf("triggers %v, want %v", port.triggers, want)
		}
	}
}

func TestTimeoutMidRequest(t *testing.T) {
	dev, port, _ := newTestDevice(t)
	port.timeouts[11] = 2

	buf := make([]byte, 3*sdcard.SectorSize)
	err := dev.ReadSectors(10, 3, buf)
	if err != sdcard.ErrTimeout {
		t.Fatalf("got %v, want ErrTimeout", err)
	}

	wantSector(t, buf[:sdcard.SectorSize], 10)

	attempts := map[uint64]int{}
	for _, sector := range port.triggers {
		attempts[sector]++
	}
	if attempts[11] != 2 {
		t.Errorf("got %d attempts for sector 11, want 2", attempts[11])
	}
	if attempts[12] != 0 {
		t.Errorf("got %d attempts for sector 12, want 0", attempts[12])
	}
}

func TestWriteUnsupported(t *testing.T) {
	dev, port, _ := newTestDevice(t)

	buf := make([]byte, 4*sdcard.SectorSize)
	for _, tc := range []struct {
		sector uint64
		count  uint32
	}{
		{0, 0},
		{0, 1},
		{1 << 40, 4},
	} {
		if err := dev.WriteSectors(tc.sector, tc.count, buf); err != sdcard.ErrWriteUnsupported {
			t.Errorf("WriteSectors(%d, %d): got %v, want ErrWriteUnsupported",
				tc.sector, tc.count, err)
		}
	}

	if len(port.writes) != 0 || port.reads != 0 || port.copies != 0 {
		t.Errorf("hardware touched: %d writes, %d reads, %d copies",
			len(port.writes), port.reads, port.copies)
	}
}

func TestPollCeiling(t *testing.T) {
	// A port whose busy flag never clears must consume exactly PollLimit
	// reads per attempt.
	cfg := dreamdrive64.Config()
	cfg.PollLimit = 8

	port := newSimPort(cfg.Regs)
	port.timeouts[0] = 2
	dev := sdcard.New(port, cfg)

	buf := make([]byte, sdcard.SectorSize)
	if err := dev.ReadSectors(0, 1, buf); err != sdcard.ErrTimeout {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
	if port.reads != 2*8 {
		t.Errorf("got %d busy reads, want %d", port.reads, 2*8)
	}
}

func TestDiskContract(t *testing.T) {
	dev, _, _ := newTestDevice(t)

	// Initialization is idempotent, there is no hardware state to reset.
	for i := 0; i < 3; i++ {
		if err := dev.Initialize(); err != nil {
			t.Fatal(err)
		}
	}
	if err := dev.Status(); err != nil {
		t.Fatal(err)
	}
	if got := dev.GetSectorSize(); got != 512 {
		t.Errorf("sector size %d, want 512", got)
	}
	if dev.Name() != "PicoCart64" {
		t.Errorf("name %q", dev.Name())
	}
}

func TestReadAt(t *testing.T) {
	dev, _, _ := newTestDevice(t)

	// Two sectors of known pattern as reference.
	ref := make([]byte, 2*sdcard.SectorSize)
	for i := range ref {
		sector := uint64(i / sdcard.SectorSize)
		ref[i] = sectorData(sector, i%sdcard.SectorSize)
	}

	for _, tc := range []struct{ off, n int }{
		{0, 512},   // aligned whole sector
		{0, 1024},  // two sectors
		{100, 12},  // inside one sector
		{500, 24},  // crossing a sector boundary
		{512, 100}, // aligned start, short read
		{1, 1023},  // unaligned both ends
	} {
		got := make([]byte, tc.n)
		n, err := dev.ReadAt(got, int64(tc.off))
		if err != nil {
			t.Fatalf("ReadAt(%d, %d): %v", tc.off, tc.n, err)
		}
		if n != tc.n {
			t.Fatalf("ReadAt(%d, %d): n = %d", tc.off, tc.n, n)
		}
		if !bytes.Equal(got, ref[tc.off:tc.off+tc.n]) {
			t.Errorf("ReadAt(%d, %d): content mismatch", tc.off, tc.n)
		}
	}

	if _, err := dev.ReadAt(nil, -1); err != sdcard.ErrInvalidOffset {
		t.Errorf("negative offset: got %v", err)
	}
}
