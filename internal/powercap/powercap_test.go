// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package powercap

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func zoneDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "powercap")
	if err != nil {
		t.Fatal(err)
	}
	for name, value := range map[string]string{
		"name":                        "package-0\n",
		"constraint_0_power_limit_uw": "15000000\n",
		"constraint_0_time_window_us": "27983872\n",
		"constraint_1_power_limit_uw": "25000000\n",
		"constraint_1_time_window_us": "2440\n",
		"energy_uj":                   "53393982\n",
	} {
		err = ioutil.WriteFile(filepath.Join(dir, name),
			[]byte(value), 0644)
		if err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestSetLimit(t *testing.T) {
	dir := zoneDir(t)
	defer os.RemoveAll(dir)

	z := Zone{Dir: dir}
	if err := z.SetLimit(0, 25000000); err != nil {
		t.Fatal(err)
	}
	b, err := ioutil.ReadFile(
		filepath.Join(dir, "constraint_0_power_limit_uw"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "25000000\n" {
		t.Error("wrong:", string(b))
	}
}

func TestSetLimitNoZone(t *testing.T) {
	z := Zone{Dir: "/nonesuch"}
	if err := z.SetLimit(0, 25000000); err == nil {
		t.Error("wrong: expected error")
	}
}

func TestTelemetry(t *testing.T) {
	dir := zoneDir(t)
	defer os.RemoveAll(dir)

	z := Zone{Dir: dir}
	text, err := z.Telemetry()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"zone: package-0",
		"constraint 0: 15000000 uW over 27983872 us",
		"constraint 1: 25000000 uW over 2440 us",
		"energy: 53393982 uJ",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("wrong: %q missing from %q", want, text)
		}
	}
}
