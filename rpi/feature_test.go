package rpi

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Jon-Bright/rgpio/reg"
)

// featureSocs is a platform each feature can be built on.
var featureSocs = map[string]Soc{
	"clk":   BCM2711,
	"pwm":   BCM2711,
	"spi0":  BCM2711,
	"fsel":  BCM2837,
	"level": BCM2711,
	"pud":   BCM2837,
	"pull":  BCM2711,
	"pads":  BCM2835,
	"iocon": BCM2712,
	"rio":   BCM2712,
	"pads5": BCM2712,
}

func newFeature(t *testing.T, tm *testMapper, name string, unit int) Feature {
	t.Helper()
	f, err := Features[name].New(tm, unit)
	if err != nil {
		t.Fatalf("%s unit %d: %v", name, unit, err)
	}
	return f
}

func TestFeatureNames(t *testing.T) {
	want := []string{"clk", "fsel", "iocon", "level", "pads", "pads5", "pud", "pull", "pwm", "rio", "spi0"}
	if diff := cmp.Diff(want, FeatureNames()); diff != "" {
		t.Errorf("FeatureNames mismatch (-want +got):\n%s", diff)
	}
	for _, n := range want {
		if _, ok := featureSocs[n]; !ok {
			t.Errorf("no test platform for feature %s", n)
		}
		if Features[n].Name != n {
			t.Errorf("Features[%s].Name, got: %s, want: %s", n, Features[n].Name, n)
		}
	}
}

func TestFeatureFieldTables(t *testing.T) {
	for name, soc := range featureSocs {
		f := newFeature(t, newTestMapper(soc), name, 0)
		seen := map[string]bool{}
		for _, n := range f.Regs() {
			if seen[n.Name] {
				t.Errorf("%s: register %s listed twice", name, n.Name)
			}
			seen[n.Name] = true
			if !n.Reg.Bound() {
				t.Errorf("%s.%s: not bound", name, n.Name)
			}
			if len(n.Fields) == 0 {
				t.Errorf("%s.%s: no fields", name, n.Name)
			}
			if err := reg.ValidateFields(n.Fields); err != nil {
				t.Errorf("%s.%s: %v", name, n.Name, err)
			}
		}
	}
}

func TestInitPutReset(t *testing.T) {
	for name, soc := range featureSocs {
		tm := newTestMapper(soc)
		f := newFeature(t, tm, name, 0)
		for _, n := range f.Regs() {
			n.Reg.Put(0xdeadbeef)
		}
		f.InitPutReset()
		for _, n := range f.Regs() {
			if got := n.Reg.Get(); got != n.Reset {
				t.Errorf("%s.%s after InitPutReset, got: %08X, want: %08X", name, n.Name, got, n.Reset)
			}
		}
		if len(tm.stores) != 0 {
			t.Errorf("%s: InitPutReset wrote hardware: %v", name, tm.stores)
		}
	}
}

func TestGrabPushDirections(t *testing.T) {
	for name, soc := range featureSocs {
		tm := newTestMapper(soc)
		f := newFeature(t, tm, name, 0)
		for _, n := range f.Regs() {
			n.Reg.Write(0x01010101)
			n.Reg.Put(0x02020202)
		}
		tm.stores = nil
		f.GrabRegs()
		for _, n := range f.Regs() {
			want := uint32(0x01010101)
			if n.NoBulk || n.Access == reg.WO {
				want = 0x02020202
			}
			if name == "iocon" && strings.HasPrefix(n.Name, "Status") {
				want = 0 // grabbed through the untouched peek aperture
			}
			if got := n.Reg.Get(); got != want {
				t.Errorf("%s.%s after GrabRegs, got: %08X, want: %08X", name, n.Name, got, want)
			}
		}
		for _, n := range f.Regs() {
			n.Reg.Put(0x00000004)
		}
		f.PushRegs()
		for _, n := range f.Regs() {
			want := uint32(0x00000004)
			if n.NoBulk || n.Access == reg.RO {
				want = 0x01010101
			}
			got := n.Reg.Read()
			if name == "clk" || name == "pads" {
				got &^= 0xff000000 // password
			}
			if got != want {
				t.Errorf("%s.%s after PushRegs, got: %08X, want: %08X", name, n.Name, got, want)
			}
		}
	}
}

func TestFeatureGating(t *testing.T) {
	tests := []struct {
		name  string
		soc   Soc
		unit  int
		want  error
		words string
	}{
		{"clk", BCM2712, 0, reg.ErrDomain, "requires RPi4 or earlier"},
		{"clk", BCM2711, 5, reg.ErrRange, "clock 5"},
		{"pwm", BCM2712, 0, reg.ErrDomain, "requires RPi4 or earlier"},
		{"pwm", BCM2711, 1, nil, ""},
		{"pwm", BCM2837, 1, reg.ErrRange, "requires RPi4"},
		{"pwm", BCM2711, 2, reg.ErrRange, "not in {0,1}"},
		{"spi0", BCM2711, 3, nil, ""},
		{"spi0", BCM2711, 6, nil, ""},
		{"spi0", BCM2711, 1, reg.ErrRange, "not in {0,3,4,5,6}"},
		{"spi0", BCM2837, 3, reg.ErrRange, "not in {0} on RPi3"},
		{"fsel", BCM2712, 0, reg.ErrDomain, "requires RPi4 or earlier"},
		{"fsel", BCM2711, 1, reg.ErrRange, "only unit 0"},
		{"level", BCM2712, 0, reg.ErrDomain, "requires RPi4 or earlier"},
		{"pud", BCM2711, 0, reg.ErrDomain, "requires RPi3 or earlier"},
		{"pull", BCM2837, 0, reg.ErrDomain, "requires RPi4"},
		{"pads", BCM2711, 2, nil, ""},
		{"pads", BCM2711, 3, reg.ErrRange, "requires bank in {0,1,2}, got 3"},
		{"pads", BCM2712, 0, reg.ErrDomain, "requires RPi4 or earlier"},
		{"iocon", BCM2711, 0, reg.ErrDomain, "requires RPi5"},
		{"iocon", BCM2712, 2, nil, ""},
		{"iocon", BCM2712, 3, reg.ErrRange, "requires bank in {0,1,2}, got 3"},
		{"iocon", BCM2712, -1, reg.ErrRange, "got -1"},
		{"rio", BCM2837, 0, reg.ErrDomain, "requires RPi5"},
		{"rio", BCM2712, 1, nil, ""},
		{"pads5", BCM2711, 0, reg.ErrDomain, "requires RPi5"},
		{"pads5", BCM2712, 4, reg.ErrRange, "got 4"},
	}
	for _, test := range tests {
		tm := newTestMapper(test.soc)
		f, err := Features[test.name].New(tm, test.unit)
		if test.want == nil {
			if err != nil {
				t.Errorf("%s unit %d on %v failed: %v", test.name, test.unit, test.soc, err)
			}
			continue
		}
		if f != nil {
			t.Errorf("%s unit %d on %v returned a feature with an error", test.name, test.unit, test.soc)
		}
		if !errors.Is(err, test.want) {
			t.Errorf("%s unit %d on %v, got: %v, want: %v", test.name, test.unit, test.soc, err, test.want)
			continue
		}
		if !strings.Contains(err.Error(), test.words) {
			t.Errorf("%s unit %d on %v, got: %q, want it to contain %q", test.name, test.unit, test.soc, err, test.words)
		}
		if len(tm.stores) != 0 {
			t.Errorf("%s unit %d on %v: failed construction wrote hardware", test.name, test.unit, test.soc)
		}
	}
}

func TestUnitAddresses(t *testing.T) {
	tm := newTestMapper(BCM2711)
	p, err := NewPwm(tm, 1)
	if err != nil {
		t.Fatal(err)
	}
	p.Rng2.Put(0x1234)
	p.Rng2.Push()
	s, err := NewSpi0(tm, 4)
	if err != nil {
		t.Fatal(err)
	}
	s.Clk.Put(0x80)
	s.Clk.Push()
	want := []store{{0x7e20c820, 0x1234}, {0x7e204808, 0x80}}
	if diff := cmp.Diff(want, tm.stores); diff != "" {
		t.Errorf("stores mismatch (-want +got):\n%s", diff)
	}
}

func TestPwmChannels(t *testing.T) {
	p, err := NewPwm(newTestMapper(BCM2837), 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Ctl.PutPwen(Chan2, 1); err != nil {
		t.Fatal(err)
	}
	if err := p.Ctl.PutMsen(Chan1, 1); err != nil {
		t.Fatal(err)
	}
	if got, want := p.Ctl.Get(), uint32(0x0180); got != want {
		t.Errorf("Ctl, got: %08X, want: %08X", got, want)
	}
	if err := p.Ctl.PutPwen(3, 1); !errors.Is(err, reg.ErrRange) {
		t.Errorf("PutPwen(3), got: %v, want: %v", err, reg.ErrRange)
	}
	if err := p.Ctl.PutMode(Chan1, 2); !errors.Is(err, reg.ErrRange) {
		t.Errorf("PutMode(1, 2), got: %v, want: %v", err, reg.ErrRange)
	}
	if got, want := p.Ctl.Get(), uint32(0x0180); got != want {
		t.Errorf("Ctl after failed puts, got: %08X, want: %08X", got, want)
	}
}

func TestPwmStaIndex(t *testing.T) {
	p, err := NewPwm(newTestMapper(BCM2837), 0)
	if err != nil {
		t.Fatal(err)
	}
	// Berr sits right below Sta1 and Rerr1 right below Gapo1.
	p.Sta.Put(1<<9 | 1<<8 | 1<<3)
	if got, err := p.Sta.GetSta(1); err != nil || got != 1 {
		t.Errorf("GetSta(1), got: %d, %v, want: 1, nil", got, err)
	}
	if got, err := p.Sta.GetGapo(1); err != nil || got != 0 {
		t.Errorf("GetGapo(1), got: %d, %v, want: 0, nil", got, err)
	}
	for _, n := range []uint{0, 5} {
		if _, err := p.Sta.GetSta(n); !errors.Is(err, reg.ErrRange) {
			t.Errorf("GetSta(%d), got: %v, want: %v", n, err, reg.ErrRange)
		}
		if _, err := p.Sta.GetGapo(n); !errors.Is(err, reg.ErrRange) {
			t.Errorf("GetGapo(%d), got: %v, want: %v", n, err, reg.ErrRange)
		}
		if err := p.Sta.PutGapo(n, 1); !errors.Is(err, reg.ErrRange) {
			t.Errorf("PutGapo(%d), got: %v, want: %v", n, err, reg.ErrRange)
		}
	}
}

func TestPadsPassword(t *testing.T) {
	tm := newTestMapper(BCM2711)
	p, err := NewPads(tm, 1)
	if err != nil {
		t.Fatal(err)
	}
	p.InitPutReset()
	if err := p.Ctl.PutDrive(7); err != nil {
		t.Fatal(err)
	}
	if err := p.Ctl.PutDrive(8); !errors.Is(err, reg.ErrRange) {
		t.Errorf("PutDrive(8), got: %v, want: %v", err, reg.ErrRange)
	}
	p.PushRegs()
	want := []store{{PADS_DOC_BASE + 4, 0x5a00001f}}
	if diff := cmp.Diff(want, tm.stores); diff != "" {
		t.Errorf("PushRegs stores mismatch (-want +got):\n%s", diff)
	}
}

func TestFselModes(t *testing.T) {
	tm := newTestMapper(BCM2837)
	f, err := NewFsel(tm)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.PutMode(17, FselAlt5); err != nil {
		t.Fatal(err)
	}
	if err := f.PutMode(53, FselAlt0); err != nil {
		t.Fatal(err)
	}
	if got, want := f.Fsel[1].Get(), uint32(2<<21); got != want {
		t.Errorf("Fsel1, got: %08X, want: %08X", got, want)
	}
	if got, want := f.Fsel[5].Get(), uint32(4<<9); got != want {
		t.Errorf("Fsel5, got: %08X, want: %08X", got, want)
	}
	if m, err := f.GetMode(17); err != nil || m != FselAlt5 {
		t.Errorf("GetMode(17), got: %v %v, want: %v", m, err, FselAlt5)
	}
	if _, err := f.GetMode(54); !errors.Is(err, reg.ErrRange) {
		t.Errorf("GetMode(54), got: %v, want: %v", err, reg.ErrRange)
	}
	if err := f.PutMode(-1, FselInput); !errors.Is(err, reg.ErrRange) {
		t.Errorf("PutMode(-1), got: %v, want: %v", err, reg.ErrRange)
	}
	if err := f.PutMode(0, 8); !errors.Is(err, reg.ErrRange) {
		t.Errorf("PutMode(0, 8), got: %v, want: %v", err, reg.ErrRange)
	}
	f.PushRegs()
	if got := peek(t, tm.AddrMap, GPIO_DOC_BASE+4); got != 2<<21 {
		t.Errorf("GPFSEL1, got: %08X, want: %08X", got, 2<<21)
	}
	if FselAlt3.String() != "alt3" {
		t.Errorf("FselAlt3.String, got: %s, want: alt3", FselAlt3)
	}
}

func TestPinLevel(t *testing.T) {
	tm := newTestMapper(BCM2711)
	p, err := NewPinLevel(tm)
	if err != nil {
		t.Fatal(err)
	}
	poke(t, tm.AddrMap, GPIO_DOC_BASE+LEV_OFFSET+4, 1<<(40-32))
	p.GrabRegs()
	if v, err := p.GetLevel(40); err != nil || v != 1 {
		t.Errorf("GetLevel(40), got: %d %v, want: 1", v, err)
	}
	if v, err := p.GetLevel(39); err != nil || v != 0 {
		t.Errorf("GetLevel(39), got: %d %v, want: 0", v, err)
	}
	if err := p.PutSet(3, 1); err != nil {
		t.Fatal(err)
	}
	if err := p.PutClr(33, 1); err != nil {
		t.Fatal(err)
	}
	if err := p.PutSet(54, 1); !errors.Is(err, reg.ErrRange) {
		t.Errorf("PutSet(54), got: %v, want: %v", err, reg.ErrRange)
	}
	tm.stores = nil
	p.PushRegs()
	if len(tm.stores) != 0 {
		t.Errorf("PushRegs wrote strobes or status: %v", tm.stores)
	}
	p.PushOutputs()
	want := []store{
		{GPIO_DOC_BASE + SET_OFFSET, 1 << 3},
		{GPIO_DOC_BASE + CLR_OFFSET, 0},
		{GPIO_DOC_BASE + SET_OFFSET + 4, 0},
		{GPIO_DOC_BASE + CLR_OFFSET + 4, 1 << 1},
	}
	if diff := cmp.Diff(want, tm.stores); diff != "" {
		t.Errorf("PushOutputs stores mismatch (-want +got):\n%s", diff)
	}
}

func TestPull(t *testing.T) {
	tm := newTestMapper(BCM2711)
	p, err := NewPull(tm)
	if err != nil {
		t.Fatal(err)
	}
	p.InitPutReset()
	tests := []struct {
		gpio int
		want PullMode
	}{
		{0, PullUp},
		{8, PullUp},
		{9, PullDown},
		{15, PullDown},
		{53, PullUp},
	}
	for _, test := range tests {
		got, err := p.GetPull(test.gpio)
		if err != nil || got != test.want {
			t.Errorf("GetPull(%d) after reset, got: %v %v, want: %v", test.gpio, got, err, test.want)
		}
	}
	if err := p.PutPull(17, PullNone); err != nil {
		t.Fatal(err)
	}
	if got, want := p.Cntrl[1].Get(), uint32(0xa0aaaaa2); got != want {
		t.Errorf("Cntrl1, got: %08X, want: %08X", got, want)
	}
	if err := p.PutPull(17, 3); !errors.Is(err, reg.ErrRange) {
		t.Errorf("PutPull(17, 3), got: %v, want: %v", err, reg.ErrRange)
	}
	if _, err := p.GetPull(54); !errors.Is(err, reg.ErrRange) {
		t.Errorf("GetPull(54), got: %v, want: %v", err, reg.ErrRange)
	}
}

func TestPudProgramPins(t *testing.T) {
	tm := newTestMapper(BCM2837)
	p, err := NewPud(tm)
	if err != nil {
		t.Fatal(err)
	}
	p.SettleNs = 0
	if err := p.ProgramPins(PullUp, 3, 40); err != nil {
		t.Fatal(err)
	}
	pud := uint32(GPIO_DOC_BASE + PUD_OFFSET)
	clk := uint32(GPIO_DOC_BASE + PUDCLK_OFFSET)
	want := []store{
		{pud, 2},
		{clk, 1 << 3},
		{clk + 4, 1 << 8},
		{pud, 0},
		{clk, 0},
		{clk + 4, 0},
	}
	if diff := cmp.Diff(want, tm.stores); diff != "" {
		t.Errorf("ProgramPins stores mismatch (-want +got):\n%s", diff)
	}

	tm.stores = nil
	if err := p.ProgramPins(PullDown, 3, 54); !errors.Is(err, reg.ErrRange) {
		t.Errorf("ProgramPins(54), got: %v, want: %v", err, reg.ErrRange)
	}
	if err := p.ProgramPins(PullMode(3), 3); !errors.Is(err, reg.ErrRange) {
		t.Errorf("ProgramPins(mode 3), got: %v, want: %v", err, reg.ErrRange)
	}
	if len(tm.stores) != 0 {
		t.Errorf("failed ProgramPins wrote hardware: %v", tm.stores)
	}
}
