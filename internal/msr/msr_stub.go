// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// +build !linux, linux,!amd64

package msr

import "fmt"

type Dev struct{ cpu int }

func DevName(cpu int) string {
	return fmt.Sprintf("/dev/cpu/%d/msr", cpu)
}

func Open(cpu int) (*Dev, error) {
	panic("Unexpected msr.Open")
}

func (d *Dev) Close() error { panic("Unexpected msr.Close") }

func (d *Dev) Read(reg int64) (uint64, error) {
	panic("Unexpected msr.Read")
}

func (d *Dev) Write(reg int64, v uint64) error {
	panic("Unexpected msr.Write")
}
