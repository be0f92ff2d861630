// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package powercap writes package power limits through the kernel's
// power capping sysfs interface and reports the zone's telemetry.
package powercap

import (
	"fmt"
	"io/ioutil"
	"strings"
)

var RaplZonePath = "/sys/class/powercap/intel-rapl:0"

// Zone is a power capping control zone. An empty Dir means RaplZonePath,
// the package domain of the first socket. Constraint 0 is the sustained
// (PL1) limit and constraint 1 the short term (PL2) limit.
type Zone struct {
	Dir string
}

func (z Zone) dir() string {
	if z.Dir == "" {
		return RaplZonePath
	}
	return z.Dir
}

// SetLimit writes a constraint's power limit in microwatts. The value
// is handed to the kernel as is.
func (z Zone) SetLimit(constraint int, microwatts uint64) error {
	name := fmt.Sprintf("%s/constraint_%d_power_limit_uw",
		z.dir(), constraint)
	err := ioutil.WriteFile(name,
		[]byte(fmt.Sprintf("%d\n", microwatts)), 0644)
	if err != nil {
		return fmt.Errorf("%s: %v", name, err)
	}
	return nil
}

// Telemetry returns a text report of the zone's current limits and
// energy counter. The report is informational only.
func (z Zone) Telemetry() (string, error) {
	sb := new(strings.Builder)
	name, err := z.attr("name")
	if err != nil {
		return "", err
	}
	fmt.Fprintln(sb, "zone:", name)
	for _, constraint := range []int{0, 1} {
		limit, err := z.attr(fmt.Sprintf(
			"constraint_%d_power_limit_uw", constraint))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(sb, "constraint %d: %s uW", constraint, limit)
		window, err := z.attr(fmt.Sprintf(
			"constraint_%d_time_window_us", constraint))
		if err == nil {
			fmt.Fprintf(sb, " over %s us", window)
		}
		fmt.Fprintln(sb)
	}
	if energy, err := z.attr("energy_uj"); err == nil {
		fmt.Fprintln(sb, "energy:", energy, "uJ")
	}
	return sb.String(), nil
}

func (z Zone) attr(name string) (string, error) {
	b, err := ioutil.ReadFile(z.dir() + "/" + name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
