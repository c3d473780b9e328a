//go:build n64

// Package carts provides probing for flashcarts with SD card support.
//
// See the subdirectories for supported flashcarts.
package carts

import (
	"github.com/n64brew/sdcart/drivers/carts/dreamdrive64"
	"github.com/n64brew/sdcart/drivers/carts/picocart64"
	"github.com/n64brew/sdcart/drivers/sdcard"
)

// ProbeAll returns the SD card of the first detected flashcart, or nil if
// no supported hardware answers.
//
// DreamDrive64 is probed first: PicoCart64's command window lies inside
// DreamDrive64's scratch range, so probing it first could mistake leftover
// scratch data for the identification magic.
func ProbeAll() *sdcard.Device {
	if dd := dreamdrive64.Probe(); dd != nil {
		return dd.SDCard()
	}
	if pc := picocart64.Probe(); pc != nil {
		return pc.SDCard()
	}
	return nil
}
