package rpi

import (
	"github.com/Jon-Bright/rgpio/reg"
)

// Clock manager general-purpose clocks, BCM2835 ARM Peripherals p107.

const (
	CM_DOC_BASE = 0x7e101000
	CM_PASSWD   = 0x5a

	// Defaults for the busy poll in ApplyRegs.
	CM_WAIT_COUNT   = 100
	CM_WAIT_TIME_NS = 1000
)

type ClockID int

const (
	ClkGp0 ClockID = iota
	ClkGp1
	ClkGp2
	ClkPcm
	ClkPwm
)

var clockOffsets = [...]uint32{
	ClkGp0: 0x70,
	ClkGp1: 0x78,
	ClkGp2: 0x80,
	ClkPcm: 0x98,
	ClkPwm: 0xa0,
}

var clockNames = [...]string{"gp0", "gp1", "gp2", "pcm", "pwm"}

func (id ClockID) String() string {
	if id < 0 || int(id) >= len(clockNames) {
		return "clock?"
	}
	return clockNames[id]
}

var (
	clkCtlPasswd = reg.Field{Name: "Passwd", Pos: 24, Width: 8, Access: reg.WO}
	clkCtlMash   = reg.Field{Name: "Mash", Pos: 9, Width: 2}
	clkCtlFlip   = reg.Field{Name: "Flip", Pos: 8, Width: 1}
	clkCtlBusy   = reg.Field{Name: "Busy", Pos: 7, Width: 1, Access: reg.RO}
	clkCtlKill   = reg.Field{Name: "Kill", Pos: 5, Width: 1}
	clkCtlEnable = reg.Field{Name: "Enable", Pos: 4, Width: 1}
	clkCtlSource = reg.Field{Name: "Source", Pos: 0, Width: 4}

	clkDivPasswd = reg.Field{Name: "Passwd", Pos: 24, Width: 8, Access: reg.WO}
	clkDivDivi   = reg.Field{Name: "Divi", Pos: 12, Width: 12}
	clkDivDivf   = reg.Field{Name: "Divf", Pos: 0, Width: 12}

	clkCtlFields = []reg.Field{clkCtlPasswd, clkCtlMash, clkCtlFlip, clkCtlBusy, clkCtlKill, clkCtlEnable, clkCtlSource}
	clkDivFields = []reg.Field{clkDivPasswd, clkDivDivi, clkDivDivf}
)

// ClkCtl is CM_xxCTL.
type ClkCtl struct{ reg.Register }

func (r *ClkCtl) PutPasswd(v uint32) error { return clkCtlPasswd.Put(&r.Register, v) }
func (r *ClkCtl) GetMash() uint32          { return clkCtlMash.Get(&r.Register) }
func (r *ClkCtl) PutMash(v uint32) error   { return clkCtlMash.Put(&r.Register, v) }
func (r *ClkCtl) GetFlip() uint32          { return clkCtlFlip.Get(&r.Register) }
func (r *ClkCtl) PutFlip(v uint32) error   { return clkCtlFlip.Put(&r.Register, v) }
func (r *ClkCtl) GetBusy() uint32          { return clkCtlBusy.Get(&r.Register) }
func (r *ClkCtl) GetKill() uint32          { return clkCtlKill.Get(&r.Register) }
func (r *ClkCtl) PutKill(v uint32) error   { return clkCtlKill.Put(&r.Register, v) }
func (r *ClkCtl) GetEnable() uint32        { return clkCtlEnable.Get(&r.Register) }
func (r *ClkCtl) PutEnable(v uint32) error { return clkCtlEnable.Put(&r.Register, v) }
func (r *ClkCtl) GetSource() uint32        { return clkCtlSource.Get(&r.Register) }
func (r *ClkCtl) PutSource(v uint32) error { return clkCtlSource.Put(&r.Register, v) }

// ClkDiv is CM_xxDIV.
type ClkDiv struct{ reg.Register }

func (r *ClkDiv) PutPasswd(v uint32) error { return clkDivPasswd.Put(&r.Register, v) }
func (r *ClkDiv) GetDivi() uint32          { return clkDivDivi.Get(&r.Register) }
func (r *ClkDiv) PutDivi(v uint32) error   { return clkDivDivi.Put(&r.Register, v) }
func (r *ClkDiv) GetDivf() uint32          { return clkDivDivf.Get(&r.Register) }
func (r *ClkDiv) PutDivf(v uint32) error   { return clkDivDivf.Put(&r.Register, v) }

// Clock is one clock manager generator.
//
// The generator must not have its source or divisor changed while it's
// running, and clearing Enable only stops it some cycles later, as reported
// by Busy. ApplyRegs handles that; PushRegs writes blindly.
type Clock struct {
	ID  ClockID
	Ctl ClkCtl
	Div ClkDiv

	// WaitCount is the maximum number of Busy polls ApplyRegs makes, and
	// WaitTimeNs the pause between them.
	WaitCount  int
	WaitTimeNs int64
	// BusyCount is the number of polls the last ApplyRegs used.
	BusyCount int
}

// NewClock maps the registers of clock id. Clocks are only reachable this
// way on RPi4 and earlier.
func NewClock(m Mapper, id ClockID) (*Clock, error) {
	if err := m.Platform().RequireRPi4OrEarlier(); err != nil {
		return nil, err
	}
	if id < 0 || int(id) >= len(clockOffsets) {
		return nil, reg.Rangef("clock %d not in 0..%d", int(id), len(clockOffsets)-1)
	}
	w, err := m.MemBlock(CM_DOC_BASE+clockOffsets[id], 2)
	if err != nil {
		return nil, err
	}
	c := &Clock{ID: id, WaitCount: CM_WAIT_COUNT, WaitTimeNs: CM_WAIT_TIME_NS}
	if err := bind(w, at{&c.Ctl.Register, 0x0}, at{&c.Div.Register, 0x4}); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Clock) Regs() []reg.Named {
	return []reg.Named{
		{Name: "Ctl", Reg: &c.Ctl.Register, Fields: clkCtlFields},
		{Name: "Div", Reg: &c.Div.Register, Fields: clkDivFields},
	}
}

func (c *Clock) GrabRegs() { grabAll(c.Regs()) }

// PushRegs writes Ctl then Div, inserting the password.
func (c *Clock) PushRegs() {
	c.pushCtl()
	c.pushDiv()
}

func (c *Clock) InitPutReset() { resetAll(c.Regs()) }

// pushCtl writes Ctl with the password and without the Busy bit a Grab may
// have picked up.
func (c *Clock) pushCtl() {
	clkCtlBusy.Put(&c.Ctl.Register, 0) // Can't fail
	c.Ctl.PutPasswd(CM_PASSWD)         // Can't fail
	c.Ctl.Push()
}

func (c *Clock) pushDiv() {
	c.Div.PutPasswd(CM_PASSWD) // Can't fail
	c.Div.Push()
}

// structural covers the fields that mustn't change while the clock runs.
var clkCtlStructural = clkCtlMash.Mask()<<clkCtlMash.Pos |
	clkCtlFlip.Mask()<<clkCtlFlip.Pos |
	clkCtlSource.Mask()<<clkCtlSource.Pos

var clkDivStructural = clkDivDivi.Mask()<<clkDivDivi.Pos | clkDivDivf.Mask()<<clkDivDivf.Pos

// busy reads Busy live from hardware.
func (c *Clock) busy() bool {
	var r reg.Register
	r.Put(c.Ctl.Read())
	return clkCtlBusy.Get(&r) != 0
}

// ApplyRegs applies the Ctl and Div shadows to a possibly running clock.
//
// If the clock is running and the new state keeps it running with the same
// source, mash, flip and divisor, the registers are pushed directly.
// Otherwise the clock is disabled and Busy is polled up to WaitCount times;
// once it's clear the requested state is written. If Busy never clears,
// ApplyRegs returns false and the requested state is left unapplied (but
// still in the shadows, ready for a retry).
func (c *Clock) ApplyRegs() bool {
	ctl := c.Ctl.Get()
	div := c.Div.Get()
	c.GrabRegs()
	hwCtl := c.Ctl.Get()
	hwDiv := c.Div.Get()

	var want reg.Register
	want.Put(ctl)
	running := c.Ctl.GetEnable() != 0
	wantOn := clkCtlEnable.Get(&want) != 0
	same := hwCtl&clkCtlStructural == ctl&clkCtlStructural &&
		hwDiv&clkDivStructural == div&clkDivStructural
	if running && wantOn && same {
		c.BusyCount = 0
		c.Ctl.Put(ctl)
		c.Div.Put(div)
		c.PushRegs()
		return true
	}

	// Stop the clock without killing it.
	c.Ctl.PutEnable(0) // Can't fail
	c.Ctl.PutKill(0)   // Can't fail
	c.pushCtl()

	busy := c.busy()
	n := 0
	for busy && n < c.WaitCount {
		nanosleep(c.WaitTimeNs)
		n++
		busy = c.busy()
	}
	c.BusyCount = n

	c.Ctl.Put(ctl)
	c.Div.Put(div)
	if busy {
		return false
	}

	// Source and divisor go in with the clock still disabled; enabling is a
	// separate write.
	c.pushDiv()
	clkCtlEnable.Put(&c.Ctl.Register, 0) // Can't fail
	c.pushCtl()
	if wantOn {
		c.Ctl.Put(ctl)
		c.pushCtl()
	}
	c.Ctl.Put(ctl)
	return true
}
