package sdcard

import "errors"

var ErrInvalidOffset = errors.New("sdcard: negative offset")

// ReadAt implements io.ReaderAt on top of the sector interface for
// byte-oriented consumers like filesystem parsers. Unaligned edges are
// bounced through an internal sector buffer, whole sectors are transferred
// directly into p.
//
// ReadAt shares the Device's single-request contract, it must not be called
// concurrently with other reads.
func (v *Device) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 {
		return 0, ErrInvalidOffset
	}

	sector := uint64(off) / SectorSize
	skip := int(uint64(off) % SectorSize)

	if skip != 0 {
		if err = v.ReadSectors(sector, 1, v.bounce); err != nil {
			return
		}
		nn := copy(p, v.bounce[skip:])
		n += nn
		p = p[nn:]
		sector++
	}

	if whole := uint32(len(p) / SectorSize); whole > 0 {
		if err = v.ReadSectors(sector, whole, p[:whole*SectorSize]); err != nil {
			return
		}
		n += int(whole) * SectorSize
		p = p[whole*SectorSize:]
		sector += uint64(whole)
	}

	if len(p) > 0 {
		if err = v.ReadSectors(sector, 1, v.bounce); err != nil {
			return
		}
		n += copy(p, v.bounce)
	}

	return
}
