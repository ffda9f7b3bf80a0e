package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Jon-Bright/rgpio/reg"
)

func runTest(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv(CONFIG_ENV, "")
	var out, errb bytes.Buffer
	code := run(args, &out, &errb)
	return code, out.String(), errb.String()
}

func TestParseAssign(t *testing.T) {
	tests := []struct {
		in   string
		want assignment
	}{
		{"Ctl.Drive=7", assignment{"Ctl", "Drive", 7}},
		{"Div=0x2000", assignment{"Div", "", 0x2000}},
		{"Cntrl1.Gpio17=0b10", assignment{"Cntrl1", "Gpio17", 2}},
		{"Rng1=4294967295", assignment{"Rng1", "", 0xffffffff}},
	}
	for _, test := range tests {
		got, err := parseAssign(test.in)
		if err != nil {
			t.Errorf("parseAssign(%q) failed: %v", test.in, err)
			continue
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("parseAssign(%q) mismatch (-want +got):\n%s", test.in, diff)
		}
	}
	for _, bad := range []string{"Ctl.Drive", "=3", "Ctl=", "Ctl=x", "Rng1=4294967296"} {
		if _, err := parseAssign(bad); err == nil {
			t.Errorf("parseAssign(%q) succeeded", bad)
		}
	}
}

func TestFieldStringColor(t *testing.T) {
	r := &reg.Register{}
	r.Put(0x1f)
	n := reg.Named{
		Name: "Ctl",
		Reg:  r,
		Fields: []reg.Field{
			{Name: "Passwd", Pos: 24, Width: 8, Access: reg.WO},
			{Name: "Slew", Pos: 4, Width: 1},
			{Name: "Drive", Pos: 0, Width: 3},
		},
		Reset: 0x1b,
	}
	if got, want := fieldString(n, false), "Slew=0x1 Drive=0x7"; got != want {
		t.Errorf("fieldString, got: %q, want: %q", got, want)
	}
	got := fieldString(n, true)
	if !strings.HasPrefix(got, "Slew=0x1 ") || !strings.Contains(got, "\x1b[") {
		t.Errorf("fieldString with color, got: %q, want only Drive highlighted", got)
	}
}

func TestRunInfo(t *testing.T) {
	code, out, errs := runTest(t, "-sim", "rpi4", "info")
	if code != 0 {
		t.Fatalf("info exited %d: %s", code, errs)
	}
	if !strings.Contains(out, "BCM2711 (RPi4)") || !strings.Contains(out, "simulated") {
		t.Errorf("info output:\n%s", out)
	}
}

func TestRunConfigFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "rgpio.yaml")
	if err := os.WriteFile(name, []byte("sim: rpi5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	code, out, errs := runTest(t, "-config", name, "info")
	if code != 0 {
		t.Fatalf("info exited %d: %s", code, errs)
	}
	if !strings.Contains(out, "BCM2712") {
		t.Errorf("info with config, got:\n%s", out)
	}
	code, out, errs = runTest(t, "-config", name, "-sim", "rpi3", "info")
	if code != 0 {
		t.Fatalf("info exited %d: %s", code, errs)
	}
	if !strings.Contains(out, "BCM2837") {
		t.Errorf("-sim didn't override config, got:\n%s", out)
	}
}

func TestRunList(t *testing.T) {
	code, out, errs := runTest(t, "-sim", "rpi0", "list")
	if code != 0 {
		t.Fatalf("list exited %d: %s", code, errs)
	}
	for _, want := range []string{"clk", "iocon", "pads5", "RP1 IO bank"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}
}

func TestRunDumpAndSet(t *testing.T) {
	code, out, errs := runTest(t, "-sim", "rpi4", "dump", "pads", "-n", "1")
	if code != 0 {
		t.Fatalf("dump exited %d: %s", code, errs)
	}
	if !strings.Contains(out, "Drive=0x0") {
		t.Errorf("dump output:\n%s", out)
	}

	code, out, errs = runTest(t, "-sim", "rpi4", "set", "pads", "-n", "2", "-reset", "Ctl.Drive=7")
	if code != 0 {
		t.Fatalf("set exited %d: %s", code, errs)
	}
	if !strings.Contains(out, "5a00001f") || !strings.Contains(out, "Drive=0x7") {
		t.Errorf("set output:\n%s", out)
	}

	code, out, errs = runTest(t, "-sim", "rpi3", "set", "clk", "-n", "1", "Ctl.Source=6", "Ctl.Enable=1", "Div.Divi=2")
	if code != 0 {
		t.Fatalf("set clk exited %d: %s", code, errs)
	}
	if !strings.Contains(out, "Source=0x6") || !strings.Contains(out, "Divi=0x2") {
		t.Errorf("set clk output:\n%s", out)
	}

	code, out, errs = runTest(t, "-sim", "rpi4", "set", "pads", "-n", "1", "ctl.drive=3")
	if code != 0 {
		t.Fatalf("set pads lower case exited %d: %s", code, errs)
	}
	if !strings.Contains(out, "Drive=0x3") {
		t.Errorf("set pads lower case output:\n%s", out)
	}

	code, out, errs = runTest(t, "-sim", "rpi4", "set", "level", "Set0.Gpio3=1")
	if code != 0 {
		t.Fatalf("set level exited %d: %s", code, errs)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		args []string
		code int
		want string
	}{
		{[]string{"-sim", "rpi5", "dump", "clk"}, 1, "requires RPi4 or earlier"},
		{[]string{"-sim", "rpi4", "dump", "iocon"}, 1, "requires RPi5"},
		{[]string{"-sim", "rpi5", "dump", "iocon", "-n", "3"}, 1, "requires bank in {0,1,2}, got 3"},
		{[]string{"-sim", "rpi4", "dump", "nope"}, 1, "unknown feature"},
		{[]string{"-sim", "rpi4", "set", "pads", "Ctl.Drive=8"}, 1, "exceeds"},
		{[]string{"-sim", "rpi4", "set", "level", "Lev0=1"}, 1, "read-only"},
		{[]string{"-sim", "rpi4", "set", "clk", "Ctl.Busy=1"}, 1, "read-only"},
		{[]string{"-sim", "rpi4", "set", "pads", "Ctl.Nope=1"}, 1, "no field"},
		{[]string{"-sim", "rpi6", "info"}, 1, "unknown platform"},
		{[]string{"-sim", "rpi4", "raw", "-op", "set", "0x7e200000", "1"}, 1, "requires RPi5"},
		{[]string{"-sim", "rpi4", "frob"}, 2, "unknown command"},
		{[]string{"-sim", "rpi4"}, 2, "Available commands"},
	}
	for _, test := range tests {
		code, _, errs := runTest(t, test.args...)
		if code != test.code {
			t.Errorf("%v exited %d, want %d", test.args, code, test.code)
		}
		if !strings.Contains(errs, test.want) {
			t.Errorf("%v stderr, got: %q, want it to contain %q", test.args, errs, test.want)
		}
	}
}

func TestRunRaw(t *testing.T) {
	code, out, errs := runTest(t, "-sim", "rpi4", "raw", "0x7e200004")
	if code != 0 {
		t.Fatalf("raw exited %d: %s", code, errs)
	}
	if want := "0x7e200004: 0x00000000\n"; out != want {
		t.Errorf("raw read, got: %q, want: %q", out, want)
	}
	for _, op := range []string{"write", "set", "clr", "flip"} {
		code, _, errs := runTest(t, "-sim", "rpi5", "raw", "-op", op, "0x400e0000", "4")
		if code != 0 {
			t.Errorf("raw -op %s exited %d: %s", op, code, errs)
		}
	}
}

func TestRunPin(t *testing.T) {
	code, out, errs := runTest(t, "-sim", "rpi4", "pin", "-mode", "out", "-pull", "up", "-level", "1", "17")
	if code != 0 {
		t.Fatalf("pin exited %d: %s", code, errs)
	}
	if out != "gpio 17: 0\n" {
		t.Errorf("pin output, got: %q", out)
	}
	for _, plat := range []string{"rpi2", "rpi5"} {
		code, _, errs = runTest(t, "-sim", plat, "pin", "-mode", "in", "-pull", "down", "-wait", "0", "4")
		if code != 0 {
			t.Errorf("pin -wait 0 on %s exited %d: %s", plat, code, errs)
		}
	}
	code, _, errs = runTest(t, "-sim", "rpi3", "pin", "-wait", "1", "-timeout", "0", "4")
	if code != 1 || !strings.Contains(errs, "timed out") {
		t.Errorf("pin -wait 1, got: %d %q, want a timeout", code, errs)
	}
	code, _, errs = runTest(t, "-sim", "rpi5", "pin", "-mode", "out", "28")
	if code != 1 || !strings.Contains(errs, "not in 0..27") {
		t.Errorf("pin 28 on RPi5, got: %d %q", code, errs)
	}
}
