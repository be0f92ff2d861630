// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Rapl raises the sustained power ceiling of the first CPU package.
// It writes the requested PL1 and PL2 limits through the kernel's
// power capping interface, then reconciles the two redundant hardware
// registers that gate enforcement: the PKG_POWER_LIMIT msr and its
// memory mapped mirror in the MCHBAR window.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/log"
	"github.com/platinasystems/parms"

	"github.com/platinasystems/rapl/internal/mmio"
	"github.com/platinasystems/rapl/internal/msr"
	"github.com/platinasystems/rapl/internal/pcicfg"
	"github.com/platinasystems/rapl/internal/powercap"
	"github.com/platinasystems/rapl/internal/rapl"
)

const Usage = "rapl [-m] [-s] [-C CPU] PL1-WATTS PL2-WATTS"

func main() {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Tee(os.Stderr)
	}
	if err := Main(os.Args[1:]...); err != nil {
		fmt.Fprintln(os.Stderr, "rapl:", err)
		os.Exit(1)
	}
}

func Main(args ...string) error {
	flag, args := flags.New(args, []string{"-m", "-mirror"}, "-s")
	parm, args := parms.New(args, "-C")
	if parm.ByName["-C"] == "" {
		parm.ByName["-C"] = "0"
	}
	cpu, err := strconv.Atoi(parm.ByName["-C"])
	if err != nil {
		return fmt.Errorf("%s: %v\nusage: %s",
			parm.ByName["-C"], err, Usage)
	}
	if flag.ByName["-s"] {
		return printStatus(os.Stdout)
	}
	if len(args) != 2 {
		return fmt.Errorf("usage: %s", Usage)
	}
	pl1, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("PL1 %s: %v", args[0], err)
	}
	pl2, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return fmt.Errorf("PL2 %s: %v", args[1], err)
	}
	policy := rapl.Disable
	if flag.ByName["-m"] {
		policy = rapl.Mirror
	}

	if os.Geteuid() != 0 {
		return errors.New("permission denied: must be root")
	}
	if _, err = os.Stat(msr.DevName(cpu)); err != nil {
		return fmt.Errorf("%v: is the msr module loaded?", err)
	}
	if _, err = os.Stat(powercap.RaplZonePath); err != nil {
		return fmt.Errorf("%v: is the intel_rapl module loaded?", err)
	}
	if _, err = os.Stat(mmio.DevMem); err != nil {
		return err
	}

	m, err := msr.Open(cpu)
	if err != nil {
		return err
	}
	defer m.Close()
	w, err := mmio.Open()
	if err != nil {
		return err
	}
	defer w.Close()

	err = rapl.Run(rapl.Request{PL1: pl1, PL2: pl2, Policy: policy},
		m, pcicfg.Bus{}, w, powercap.Zone{})
	if err != nil {
		return err
	}
	if isatty.IsTerminal(os.Stdout.Fd()) {
		printStatus(os.Stdout)
	}
	return nil
}

func printStatus(w io.Writer) error {
	text, err := powercap.Zone{}.Telemetry()
	if err != nil {
		return err
	}
	fmt.Fprint(w, text)
	return nil
}
