package rpi

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Jon-Bright/rgpio/reg"
)

func TestIoConLayout(t *testing.T) {
	for bank, n := range rp1BankGpios {
		io, err := NewIoCon(newTestMapper(BCM2712), bank)
		if err != nil {
			t.Fatal(err)
		}
		if len(io.Status) != n || len(io.Ctrl) != n {
			t.Errorf("bank %d, got: %d/%d registers, want: %d", bank, len(io.Status), len(io.Ctrl), n)
		}
		last := n - 1
		if got, want := io.Ctrl[last].Addr(), uint32(last*2+1); got != want {
			t.Errorf("bank %d Ctrl%d word, got: %X, want: %X", bank, last, got, want)
		}
		if got, want := io.Ctrl[last].AddrSet(), uint32(last*2+1+reg.SetOffset); got != want {
			t.Errorf("bank %d Ctrl%d set word, got: %X, want: %X", bank, last, got, want)
		}
	}
}

func TestIoConGrabPeeksStatus(t *testing.T) {
	tm := newTestMapper(BCM2712)
	io, err := NewIoCon(tm, 0)
	if err != nil {
		t.Fatal(err)
	}
	poke(t, tm.AddrMap, IOCON_DOC_BASE+8*4, 0x00300000)        // GPIO4 STATUS, normal
	poke(t, tm.AddrMap, IOCON_DOC_BASE+0x1000+8*4, 0x00020200) // GPIO4 STATUS, peek
	poke(t, tm.AddrMap, IOCON_DOC_BASE+8*4+4, 0x85)            // GPIO4 CTRL
	io.GrabRegs()
	if got := io.Status[4].Get(); got != 0x00020200 {
		t.Errorf("Status4, got: %08X, want: %08X", got, 0x00020200)
	}
	if io.Status[4].GetInOfPad() != 1 || io.Status[4].GetOutToPad() != 1 || io.Status[4].GetEventEdgeLow() != 0 {
		t.Errorf("Status4 fields wrong: %08X", io.Status[4].Get())
	}
	if got := io.Ctrl[4].GetFuncsel(); got != 5 {
		t.Errorf("Ctrl4 Funcsel, got: %d, want: %d", got, 5)
	}
	if got := io.Ctrl[4].GetFilterM(); got != 4 {
		t.Errorf("Ctrl4 FilterM, got: %d, want: %d", got, 4)
	}
}

func TestIoConSetFunc(t *testing.T) {
	tm := newTestMapper(BCM2712)
	io, err := NewIoCon(tm, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := io.SetFunc(3, 5); err != nil {
		t.Fatal(err)
	}
	base := uint32(IOCON_DOC_BASE + 2*RP1_BANK_DELTA + 3*8 + 4)
	// Disconnect first, then clear down to the wanted function.
	want := []store{{base + 0x2000, 0x1f}, {base + 0x3000, 0x1a}}
	if diff := cmp.Diff(want, tm.stores); diff != "" {
		t.Errorf("SetFunc stores mismatch (-want +got):\n%s", diff)
	}
	tm.stores = nil
	if err := io.SetFunc(3, IOCON_FUNC_NULL); err != nil {
		t.Fatal(err)
	}
	want = []store{{base + 0x2000, 0x1f}}
	if diff := cmp.Diff(want, tm.stores); diff != "" {
		t.Errorf("SetFunc(NULL) stores mismatch (-want +got):\n%s", diff)
	}
	if err := io.SetFunc(20, 5); !errors.Is(err, reg.ErrRange) {
		t.Errorf("SetFunc(20) on bank 2, got: %v, want: %v", err, reg.ErrRange)
	}
	if err := io.SetFunc(3, 0x20); !errors.Is(err, reg.ErrRange) {
		t.Errorf("SetFunc(3, 0x20), got: %v, want: %v", err, reg.ErrRange)
	}
}

func TestIoConCtrlFields(t *testing.T) {
	io, err := NewIoCon(newTestMapper(BCM2712), 1)
	if err != nil {
		t.Fatal(err)
	}
	io.InitPutReset()
	c := &io.Ctrl[5]
	if got := c.GetFuncsel(); got != IOCON_FUNC_NULL {
		t.Errorf("Funcsel after reset, got: %X, want: %X", got, IOCON_FUNC_NULL)
	}
	if err := c.PutIrqmask(0xff); err != nil {
		t.Fatal(err)
	}
	if err := c.PutOutover(3); err != nil {
		t.Fatal(err)
	}
	if err := c.PutOeover(4); !errors.Is(err, reg.ErrRange) {
		t.Errorf("PutOeover(4), got: %v, want: %v", err, reg.ErrRange)
	}
	if got, want := c.Get(), uint32(0x0ff0309f); got != want {
		t.Errorf("Ctrl5, got: %08X, want: %08X", got, want)
	}
}

func TestRio(t *testing.T) {
	tm := newTestMapper(BCM2712)
	r, err := NewRio(tm, 1)
	if err != nil {
		t.Fatal(err)
	}
	base := uint32(RIO_DOC_BASE + RP1_BANK_DELTA)
	if err := r.Enable(2, true); err != nil {
		t.Fatal(err)
	}
	if err := r.Drive(2, true); err != nil {
		t.Fatal(err)
	}
	if err := r.Drive(5, false); err != nil {
		t.Fatal(err)
	}
	if err := r.Toggle(0); err != nil {
		t.Fatal(err)
	}
	want := []store{
		{base + 0x2004, 1 << 2},
		{base + 0x2000, 1 << 2},
		{base + 0x3000, 1 << 5},
		{base + 0x1000, 1 << 0},
	}
	if diff := cmp.Diff(want, tm.stores); diff != "" {
		t.Errorf("Rio stores mismatch (-want +got):\n%s", diff)
	}
	if err := r.Drive(6, true); !errors.Is(err, reg.ErrRange) {
		t.Errorf("Drive(6) on bank 1, got: %v, want: %v", err, reg.ErrRange)
	}

	poke(t, tm.AddrMap, base+0xc, 1<<4)
	if v, err := r.Level(4); err != nil || v != 1 {
		t.Errorf("Level(4), got: %d %v, want: 1", v, err)
	}
	if v, err := r.Level(3); err != nil || v != 0 {
		t.Errorf("Level(3), got: %d %v, want: 0", v, err)
	}
}

func TestPads5(t *testing.T) {
	tm := newTestMapper(BCM2712)
	p, err := NewPads5(tm, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Pad) != 28 {
		t.Fatalf("pads, got: %d, want: %d", len(p.Pad), 28)
	}
	p.InitPutReset()
	pad := &p.Pad[14]
	if err := pad.PutPull(PullUp); err != nil {
		t.Fatal(err)
	}
	if err := pad.PutDrive(3); err != nil {
		t.Fatal(err)
	}
	if got, want := pad.Get(), uint32(0x7a); got != want {
		t.Errorf("Pad14, got: %08X, want: %08X", got, want)
	}
	if err := pad.PutPull(PullMode(3)); !errors.Is(err, reg.ErrRange) {
		t.Errorf("PutPull(3), got: %v, want: %v", err, reg.ErrRange)
	}
	if err := p.PutVsel(1); err != nil {
		t.Fatal(err)
	}
	tm.stores = nil
	p.PushRegs()
	if got, want := len(tm.stores), 29; got != want {
		t.Errorf("PushRegs stores, got: %d, want: %d", got, want)
	}
	if got := peek(t, tm.AddrMap, PADS5_DOC_BASE+4+14*4); got != 0x7a {
		t.Errorf("PADS GPIO14, got: %08X, want: %08X", got, 0x7a)
	}
	if got := peek(t, tm.AddrMap, PADS5_DOC_BASE); got != 1 {
		t.Errorf("VOLTAGE_SELECT, got: %08X, want: %08X", got, 1)
	}
}
