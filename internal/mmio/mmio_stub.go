// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// +build !linux, linux,!amd64

package mmio

const DevMem = "/dev/mem"

type Mem struct{}

func Open() (*Mem, error) {
	panic("Unexpected mmio.Open")
}

func (m *Mem) Close() error { panic("Unexpected mmio.Close") }

func (m *Mem) ReadWord(addr uint64) (uint32, error) {
	panic("Unexpected mmio.ReadWord")
}

func (m *Mem) WriteWord(addr uint64, v uint32) error {
	panic("Unexpected mmio.WriteWord")
}
