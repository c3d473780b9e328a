// Mkcard creates SD card images readable by the sdcard driver: an MBR
// partition table with a single FAT32 partition, populated with the given
// files.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/disk"
	"github.com/diskfs/go-diskfs/filesystem"
	"github.com/diskfs/go-diskfs/partition/mbr"
)

func must[T any](ret T, err error) T {
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return ret
}

const usageString = `SD Card Image Utility.

Usage:

	%s [flags] <image> [files...]

Creates an MBR partitioned FAT32 image and copies the files into its root
directory.

`

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), usageString, os.Args[0])
	flag.PrintDefaults()
}

// Partition start in sectors, the usual 1MiB alignment.
const partStart = 2048

func main() {
	sizeMB := flag.Int64("size", 64, "image size in MiB")
	label := flag.String("label", "SDCART", "volume label")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	image := flag.Arg(0)
	size := *sizeMB << 20

	d := must(diskfs.Create(image, size, diskfs.Raw, diskfs.SectorSizeDefault))
	must(0, d.Partition(&mbr.Table{
		LogicalSectorSize:  512,
		PhysicalSectorSize: 512,
		Partitions: []*mbr.Partition{{
			Type:  mbr.Fat32LBA,
			Start: partStart,
			Size:  uint32(size/512 - partStart),
		}},
	}))
	fs := must(d.CreateFilesystem(disk.FilesystemSpec{
		Partition:   1,
		FSType:      filesystem.TypeFat32,
		VolumeLabel: *label,
	}))

	for _, name := range flag.Args()[1:] {
		src := must(os.Open(name))
		dst := must(fs.OpenFile("/"+filepath.Base(name), os.O_CREATE|os.O_RDWR))
		must(io.Copy(dst, src))
		src.Close()
	}
}
