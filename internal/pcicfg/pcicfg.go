// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package pcicfg reads PCI configuration space through sysfs.
package pcicfg

import (
	"encoding/binary"
	"fmt"
	"os"
)

var SysBusPciPath = "/sys/bus/pci/devices"

// Bus reads config space of devices on PCI domain 0000. An empty Dir
// means SysBusPciPath.
type Bus struct {
	Dir string
}

func (b Bus) configName(bus, dev, fn int) string {
	dir := b.Dir
	if dir == "" {
		dir = SysBusPciPath
	}
	return fmt.Sprintf("%s/0000:%02x:%02x.%x/config", dir, bus, dev, fn)
}

// ReadDword returns the 32-bit config space field at the given offset.
func (b Bus) ReadDword(bus, dev, fn int, off int64) (uint32, error) {
	name := b.configName(bus, dev, fn)
	f, err := os.Open(name)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	var buf [4]byte
	if _, err = f.ReadAt(buf[:], off); err != nil {
		return 0, fmt.Errorf("%s: rd 0x%x: %v", name, off, err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}
