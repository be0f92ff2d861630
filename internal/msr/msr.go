// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// +build linux,amd64

// Package msr reads and writes model specific registers through the
// msr kernel module's per-cpu character devices.
package msr

import (
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

type Dev struct {
	cpu int
	f   *os.File
}

func DevName(cpu int) string {
	return fmt.Sprintf("/dev/cpu/%d/msr", cpu)
}

func Open(cpu int) (*Dev, error) {
	f, err := os.OpenFile(DevName(cpu), os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	return &Dev{cpu: cpu, f: f}, nil
}

func (d *Dev) Close() error { return d.f.Close() }

// Read returns the 64-bit contents of the given register.
func (d *Dev) Read(reg int64) (uint64, error) {
	var b [8]byte
	n, err := unix.Pread(int(d.f.Fd()), b[:], reg)
	if err != nil {
		return 0, fmt.Errorf("%s: rd 0x%x: %v", DevName(d.cpu), reg, err)
	}
	if n != 8 {
		return 0, fmt.Errorf("%s: rd 0x%x: short read: %d bytes",
			DevName(d.cpu), reg, n)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// Write replaces the 64-bit contents of the given register.
func (d *Dev) Write(reg int64, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	n, err := unix.Pwrite(int(d.f.Fd()), b[:], reg)
	if err != nil {
		return fmt.Errorf("%s: wr 0x%x: %v", DevName(d.cpu), reg, err)
	}
	if n != 8 {
		return fmt.Errorf("%s: wr 0x%x: short write: %d bytes",
			DevName(d.cpu), reg, n)
	}
	return nil
}
