// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// +build linux,amd64

// Package mmio reads and writes 32-bit words of physical memory mapped
// registers through /dev/mem.
package mmio

import (
	"fmt"
	"os"
	"unsafe"

	"github.com/platinasystems/elib/hw"
	"golang.org/x/sys/unix"
)

const DevMem = "/dev/mem"

type window struct {
	mem  []byte
	virt uintptr
}

type Mem struct {
	f *os.File
	// one mapped window per physical page, two pages long so a word
	// near the end of a page stays in bounds
	windows map[uint64]window
}

func Open() (*Mem, error) {
	f, err := os.OpenFile(DevMem, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	return &Mem{f: f, windows: make(map[uint64]window)}, nil
}

func (m *Mem) Close() error {
	for _, w := range m.windows {
		unix.Munmap(w.mem)
	}
	m.windows = nil
	return m.f.Close()
}

func (m *Mem) virt(addr uint64) (uintptr, error) {
	pg := uint64(os.Getpagesize())
	base := addr &^ (pg - 1)
	w, found := m.windows[base]
	if !found {
		mem, err := unix.Mmap(int(m.f.Fd()), int64(base), int(2*pg),
			unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
		if err != nil {
			return 0, fmt.Errorf("%s: mmap 0x%x: %v",
				DevMem, base, err)
		}
		w = window{mem: mem, virt: uintptr(unsafe.Pointer(&mem[0]))}
		m.windows[base] = w
	}
	return w.virt + uintptr(addr-base), nil
}

// ReadWord returns the 32-bit word at the given physical address.
func (m *Mem) ReadWord(addr uint64) (uint32, error) {
	va, err := m.virt(addr)
	if err != nil {
		return 0, err
	}
	return hw.LoadUint32(va), nil
}

// WriteWord stores a 32-bit word at the given physical address.
func (m *Mem) WriteWord(addr uint64, v uint32) error {
	va, err := m.virt(addr)
	if err != nil {
		return err
	}
	hw.StoreUint32(va, v)
	return nil
}
