// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package rapl reconciles the two redundant package power limit
// registers: the PKG_POWER_LIMIT msr and its memory mapped mirror in
// the MCHBAR window. The processor enforces the lower of the two, so
// raising the sustained ceiling takes both the msr enable bits and a
// mirror that either agrees or is out of the way.
package rapl

import (
	"errors"

	"github.com/platinasystems/log"
	"github.com/platinasystems/rapl/internal/bitfield"
)

const (
	// PKG RAPL Power Limit Control (R/W)
	MsrPkgPowerLimit int64 = 0x610
	// MCHBAR base register of device 00:00.0
	MchbarReg int64 = 0x48
	// mirror of PKG_POWER_LIMIT within the MCHBAR window
	MmioPkgPowerLimit uint64 = 0x59a0

	Pl1EnableBit uint = 15
	Pl2EnableBit uint = 47
	// one way until the next power cycle
	LockBit uint = 63
)

var ErrMchbarDisabled = errors.New("mchbar: base register disabled")

// MsrIO reads and writes a 64-bit model specific register.
type MsrIO interface {
	Read(reg int64) (uint64, error)
	Write(reg int64, v uint64) error
}

// WordIO reads and writes a 32-bit word of physical memory.
type WordIO interface {
	ReadWord(addr uint64) (uint32, error)
	WriteWord(addr uint64, v uint32) error
}

// ConfigIO reads a 32-bit PCI configuration space field.
type ConfigIO interface {
	ReadDword(bus, dev, fn int, off int64) (uint32, error)
}

// LimitWriter sets a power capping constraint in microwatts;
// constraint 0 is PL1 and constraint 1 is PL2.
type LimitWriter interface {
	SetLimit(constraint int, microwatts uint64) error
}

// Policy selects what a writable mirror register becomes.
type Policy int

const (
	// Disable zeros the mirror's enable bits, taking the redundant
	// path out of enforcement.
	Disable Policy = iota
	// Mirror copies the msr image into the mirror instead.
	Mirror
)

func (p Policy) String() string {
	if p == Mirror {
		return "mirror"
	}
	return "disable"
}

// Outcome classifies what ReconcileMmio did, or why it could not act.
type Outcome int

const (
	// Applied: the mirror was rewritten per policy and locked.
	Applied Outcome = iota
	// AlreadyReconciled: locked with no enable bits set, the state
	// a prior disable run leaves behind for the rest of the power
	// cycle.
	AlreadyReconciled
	// LockedLimitsActive: locked with a limit enabled; nothing can
	// be done until the next power cycle.
	LockedLimitsActive
	// LockedCannotMirror: locked and disabled, but the mirror
	// policy wanted it rewritten.
	LockedCannotMirror
)

func (o Outcome) String() string {
	switch o {
	case AlreadyReconciled:
		return "already-reconciled"
	case LockedLimitsActive:
		return "locked-with-limits-active"
	case LockedCannotMirror:
		return "locked-but-cannot-mirror"
	}
	return "applied"
}

// Warning is true for the outcomes reported at warn priority.
func (o Outcome) Warning() bool {
	return o == LockedLimitsActive || o == LockedCannotMirror
}

// Microwatts converts whole watts to exact microwatts.
func Microwatts(watts uint64) uint64 { return watts * 1000000 }

func enableMask() uint64 {
	m := bitfield.With(0, Pl1EnableBit, true)
	return bitfield.With(m, Pl2EnableBit, true)
}

// ReconcileMsr makes sure both enable bits of PKG_POWER_LIMIT are set,
// preserving every other bit, and returns the resulting image. At most
// one write is issued, and none if the register already complies.
func ReconcileMsr(m MsrIO) (image uint64, wrote bool, err error) {
	image, err = m.Read(MsrPkgPowerLimit)
	if err != nil {
		return 0, false, err
	}
	mask := enableMask()
	if image&mask == mask {
		return image, false, nil
	}
	image |= mask
	if err = m.Write(MsrPkgPowerLimit, image); err != nil {
		return 0, false, err
	}
	return image, true, nil
}

// ResolveMchbar returns the physical base of the MCHBAR register
// window from PCI config space, or ErrMchbarDisabled if the base
// register's enable bit is clear.
func ResolveMchbar(c ConfigIO) (uint64, error) {
	v, err := c.ReadDword(0, 0, 0, MchbarReg)
	if err != nil {
		return 0, err
	}
	if !bitfield.Enabled(uint64(v), 0) {
		return 0, ErrMchbarDisabled
	}
	return uint64(v) &^ 1, nil
}

// ReconcileMmio classifies the mirror register at addr and, when it is
// writable, rewrites it per policy and locks it. A register locked on
// entry is never written; the hardware would reject the write, but the
// engine does not rely on that.
func ReconcileMmio(w WordIO, addr uint64, msrImage uint64, policy Policy) (Outcome, error) {
	lo, err := w.ReadWord(addr)
	if err != nil {
		return 0, err
	}
	hi, err := w.ReadWord(addr + 4)
	if err != nil {
		return 0, err
	}
	image := bitfield.Join(hi, lo)
	if bitfield.Enabled(image, LockBit) {
		if bitfield.Enabled(image, Pl1EnableBit) ||
			bitfield.Enabled(image, Pl2EnableBit) {
			return LockedLimitsActive, nil
		}
		if policy == Mirror {
			return LockedCannotMirror, nil
		}
		return AlreadyReconciled, nil
	}
	var next uint64
	if policy == Mirror {
		next = msrImage
	}
	next = bitfield.With(next, LockBit, true)
	if err = w.WriteWord(addr, bitfield.Lo(next)); err != nil {
		return 0, err
	}
	// the lock takes effect with the high word
	if err = w.WriteWord(addr+4, bitfield.Hi(next)); err != nil {
		return 0, err
	}
	return Applied, nil
}

// Request is one reconciliation run: raise both limits to the given
// watts, then keep the mirror register from undercutting them.
type Request struct {
	PL1, PL2 uint64 // watts
	Policy   Policy
}

// Run sequences a full reconciliation: power capping writes, then the
// msr, then the mirror. The first fatal error aborts what remains.
func Run(req Request, m MsrIO, c ConfigIO, w WordIO, lim LimitWriter) error {
	for constraint, watts := range []uint64{req.PL1, req.PL2} {
		err := lim.SetLimit(constraint, Microwatts(watts))
		if err != nil {
			return err
		}
	}
	image, wrote, err := ReconcileMsr(m)
	if err != nil {
		return err
	}
	if wrote {
		log.Printf("msr 0x%x: enabled pl1 and pl2", MsrPkgPowerLimit)
	} else {
		log.Printf("msr 0x%x: already enabled", MsrPkgPowerLimit)
	}
	base, err := ResolveMchbar(c)
	if err != nil {
		return err
	}
	addr := base + MmioPkgPowerLimit
	outcome, err := ReconcileMmio(w, addr, image, req.Policy)
	if err != nil {
		return err
	}
	if outcome.Warning() {
		log.Printf("warn", "mmio 0x%x: %v", addr, outcome)
	} else if outcome == Applied {
		log.Printf("mmio 0x%x: %v and locked", addr, req.Policy)
	} else {
		log.Printf("mmio 0x%x: %v", addr, outcome)
	}
	return nil
}
