package rpi

import (
	"fmt"

	"github.com/Jon-Bright/rgpio/reg"
)

// PWM controller, BCM2835 ARM Peripherals p138.

const (
	PWM_DOC_BASE   = 0x7e20c000
	PWM_UNIT_DELTA = 0x800 // PWM1 on BCM2711
)

// PwmChan is a PWM channel, 1 or 2.
type PwmChan uint

const (
	Chan1 PwmChan = 1
	Chan2 PwmChan = 2
)

// Channel 1 CTL fields; channel 2 is the same 8 bits up, except CLRF which
// only exists once.
var (
	pwmCtlMsen = reg.Field{Name: "Msen", Pos: 7, Width: 1}
	pwmCtlClrf = reg.Field{Name: "Clrf1", Pos: 6, Width: 1, Access: reg.WO}
	pwmCtlUsef = reg.Field{Name: "Usef", Pos: 5, Width: 1}
	pwmCtlPola = reg.Field{Name: "Pola", Pos: 4, Width: 1}
	pwmCtlSbit = reg.Field{Name: "Sbit", Pos: 3, Width: 1}
	pwmCtlRptl = reg.Field{Name: "Rptl", Pos: 2, Width: 1}
	pwmCtlMode = reg.Field{Name: "Mode", Pos: 1, Width: 1}
	pwmCtlPwen = reg.Field{Name: "Pwen", Pos: 0, Width: 1}

	pwmCtlChanFields = []reg.Field{pwmCtlMsen, pwmCtlUsef, pwmCtlPola, pwmCtlSbit, pwmCtlRptl, pwmCtlMode, pwmCtlPwen}
)

// Status: STAn at 8+n and GAPOn at 3+n for channels 1..4.
var (
	pwmStaSta   = reg.Field{Name: "Sta", Pos: 8, Width: 1, Access: reg.RO}
	pwmStaBerr  = reg.Field{Name: "Berr", Pos: 8, Width: 1}
	pwmStaGapo  = reg.Field{Name: "Gapo", Pos: 3, Width: 1}
	pwmStaRerr1 = reg.Field{Name: "Rerr1", Pos: 3, Width: 1}
	pwmStaWerr1 = reg.Field{Name: "Werr1", Pos: 2, Width: 1}
	pwmStaEmpt1 = reg.Field{Name: "Empt1", Pos: 1, Width: 1, Access: reg.RO}
	pwmStaFull1 = reg.Field{Name: "Full1", Pos: 0, Width: 1, Access: reg.RO}
)

var (
	pwmDmacEnab  = reg.Field{Name: "Enab", Pos: 31, Width: 1}
	pwmDmacPanic = reg.Field{Name: "Panic", Pos: 8, Width: 8}
	pwmDmacDreq  = reg.Field{Name: "Dreq", Pos: 0, Width: 8}

	pwmDmacFields = []reg.Field{pwmDmacEnab, pwmDmacPanic, pwmDmacDreq}
	pwmRngFields  = []reg.Field{{Name: "Range", Pos: 0, Width: 32}}
	pwmDatFields  = []reg.Field{{Name: "Data", Pos: 0, Width: 32}}
	pwmFifFields  = []reg.Field{{Name: "Fifo", Pos: 0, Width: 32, Access: reg.WO}}
)

// chanField moves a channel 1 field to channel ch.
func chanField(f reg.Field, ch PwmChan, stride uint) reg.Field {
	f.Pos += stride * uint(ch-1)
	f.Name = fmt.Sprintf("%s%d", f.Name, ch)
	return f
}

func pwmCtlField(f reg.Field, ch PwmChan) reg.Field { return chanField(f, ch, 8) }

func pwmStaIndexed(f reg.Field, n uint) reg.Field {
	f.Pos += n
	f.Name = fmt.Sprintf("%s%d", f.Name, n)
	return f
}

var pwmCtlFields, pwmStaFields = func() ([]reg.Field, []reg.Field) {
	var ctl []reg.Field
	for _, ch := range []PwmChan{Chan1, Chan2} {
		for _, f := range pwmCtlChanFields {
			ctl = append(ctl, pwmCtlField(f, ch))
		}
	}
	ctl = append(ctl, pwmCtlClrf)
	var sta []reg.Field
	for n := uint(1); n <= 4; n++ {
		sta = append(sta, pwmStaIndexed(pwmStaSta, n), pwmStaIndexed(pwmStaGapo, n))
	}
	sta = append(sta, pwmStaBerr, pwmStaRerr1, pwmStaWerr1, pwmStaEmpt1, pwmStaFull1)
	return ctl, sta
}()

func checkChan(ch PwmChan) error {
	if ch != Chan1 && ch != Chan2 {
		return reg.Rangef("pwm channel %d not in {1,2}", ch)
	}
	return nil
}

// PwmCtl is PWM CTL. Per-channel accessors take the channel number.
type PwmCtl struct{ reg.Register }

func (r *PwmCtl) get(f reg.Field, ch PwmChan) (uint32, error) {
	if err := checkChan(ch); err != nil {
		return 0, err
	}
	return pwmCtlField(f, ch).Get(&r.Register), nil
}

func (r *PwmCtl) put(f reg.Field, ch PwmChan, v uint32) error {
	if err := checkChan(ch); err != nil {
		return err
	}
	return pwmCtlField(f, ch).Put(&r.Register, v)
}

func (r *PwmCtl) GetMsen(ch PwmChan) (uint32, error) { return r.get(pwmCtlMsen, ch) }
func (r *PwmCtl) PutMsen(ch PwmChan, v uint32) error { return r.put(pwmCtlMsen, ch, v) }
func (r *PwmCtl) GetUsef(ch PwmChan) (uint32, error) { return r.get(pwmCtlUsef, ch) }
func (r *PwmCtl) PutUsef(ch PwmChan, v uint32) error { return r.put(pwmCtlUsef, ch, v) }
func (r *PwmCtl) GetPola(ch PwmChan) (uint32, error) { return r.get(pwmCtlPola, ch) }
func (r *PwmCtl) PutPola(ch PwmChan, v uint32) error { return r.put(pwmCtlPola, ch, v) }
func (r *PwmCtl) GetSbit(ch PwmChan) (uint32, error) { return r.get(pwmCtlSbit, ch) }
func (r *PwmCtl) PutSbit(ch PwmChan, v uint32) error { return r.put(pwmCtlSbit, ch, v) }
func (r *PwmCtl) GetRptl(ch PwmChan) (uint32, error) { return r.get(pwmCtlRptl, ch) }
func (r *PwmCtl) PutRptl(ch PwmChan, v uint32) error { return r.put(pwmCtlRptl, ch, v) }
func (r *PwmCtl) GetMode(ch PwmChan) (uint32, error) { return r.get(pwmCtlMode, ch) }
func (r *PwmCtl) PutMode(ch PwmChan, v uint32) error { return r.put(pwmCtlMode, ch, v) }
func (r *PwmCtl) GetPwen(ch PwmChan) (uint32, error) { return r.get(pwmCtlPwen, ch) }
func (r *PwmCtl) PutPwen(ch PwmChan, v uint32) error { return r.put(pwmCtlPwen, ch, v) }

// PutClrf1 sets the clear-FIFO strobe. It reads back as 0.
func (r *PwmCtl) PutClrf1(v uint32) error { return pwmCtlClrf.Put(&r.Register, v) }

// PwmSta is PWM STA. The error and gap bits are write-1-to-clear.
type PwmSta struct{ reg.Register }

func checkStaIndex(what string, n uint) error {
	if n < 1 || n > 4 {
		return reg.Rangef("pwm %s %d not in 1..4", what, n)
	}
	return nil
}

func (r *PwmSta) GetSta(n uint) (uint32, error) {
	if err := checkStaIndex("sta", n); err != nil {
		return 0, err
	}
	return pwmStaIndexed(pwmStaSta, n).Get(&r.Register), nil
}

func (r *PwmSta) GetGapo(n uint) (uint32, error) {
	if err := checkStaIndex("gapo", n); err != nil {
		return 0, err
	}
	return pwmStaIndexed(pwmStaGapo, n).Get(&r.Register), nil
}

func (r *PwmSta) PutGapo(n uint, v uint32) error {
	if err := checkStaIndex("gapo", n); err != nil {
		return err
	}
	return pwmStaIndexed(pwmStaGapo, n).Put(&r.Register, v)
}

func (r *PwmSta) GetBerr() uint32         { return pwmStaBerr.Get(&r.Register) }
func (r *PwmSta) PutBerr(v uint32) error  { return pwmStaBerr.Put(&r.Register, v) }
func (r *PwmSta) GetRerr1() uint32        { return pwmStaRerr1.Get(&r.Register) }
func (r *PwmSta) PutRerr1(v uint32) error { return pwmStaRerr1.Put(&r.Register, v) }
func (r *PwmSta) GetWerr1() uint32        { return pwmStaWerr1.Get(&r.Register) }
func (r *PwmSta) PutWerr1(v uint32) error { return pwmStaWerr1.Put(&r.Register, v) }
func (r *PwmSta) GetEmpt1() uint32        { return pwmStaEmpt1.Get(&r.Register) }
func (r *PwmSta) GetFull1() uint32        { return pwmStaFull1.Get(&r.Register) }

// PwmDmac is PWM DMAC.
type PwmDmac struct{ reg.Register }

func (r *PwmDmac) GetEnab() uint32         { return pwmDmacEnab.Get(&r.Register) }
func (r *PwmDmac) PutEnab(v uint32) error  { return pwmDmacEnab.Put(&r.Register, v) }
func (r *PwmDmac) GetPanic() uint32        { return pwmDmacPanic.Get(&r.Register) }
func (r *PwmDmac) PutPanic(v uint32) error { return pwmDmacPanic.Put(&r.Register, v) }
func (r *PwmDmac) GetDreq() uint32         { return pwmDmacDreq.Get(&r.Register) }
func (r *PwmDmac) PutDreq(v uint32) error  { return pwmDmacDreq.Put(&r.Register, v) }

// Pwm is one PWM controller with two channels.
type Pwm struct {
	Unit int
	Ctl  PwmCtl
	Sta  PwmSta
	Dmac PwmDmac
	Rng1 reg.Register
	Dat1 reg.Register
	// Fif1 is the channel FIFO. Writing it queues data; it's never part of
	// GrabRegs or PushRegs.
	Fif1 reg.Register
	Rng2 reg.Register
	Dat2 reg.Register
}

// NewPwm maps PWM controller unit: 0 everywhere, 1 as well on RPi4.
func NewPwm(m Mapper, unit int) (*Pwm, error) {
	plat := m.Platform()
	if err := plat.RequireRPi4OrEarlier(); err != nil {
		return nil, err
	}
	switch {
	case unit == 0:
	case unit == 1 && plat.Soc == BCM2711:
	case unit == 1:
		return nil, reg.Rangef("pwm unit 1 requires RPi4")
	default:
		return nil, reg.Rangef("pwm unit %d not in {0,1}", unit)
	}
	w, err := m.MemBlock(PWM_DOC_BASE+uint32(unit)*PWM_UNIT_DELTA, 10)
	if err != nil {
		return nil, err
	}
	p := &Pwm{Unit: unit}
	err = bind(w,
		at{&p.Ctl.Register, 0x00},
		at{&p.Sta.Register, 0x04},
		at{&p.Dmac.Register, 0x08},
		at{&p.Rng1, 0x10},
		at{&p.Dat1, 0x14},
		at{&p.Fif1, 0x18},
		at{&p.Rng2, 0x20},
		at{&p.Dat2, 0x24},
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pwm) Regs() []reg.Named {
	return []reg.Named{
		{Name: "Ctl", Reg: &p.Ctl.Register, Fields: pwmCtlFields},
		{Name: "Sta", Reg: &p.Sta.Register, Fields: pwmStaFields},
		{Name: "Dmac", Reg: &p.Dmac.Register, Fields: pwmDmacFields, Reset: 0x00000707},
		{Name: "Rng1", Reg: &p.Rng1, Fields: pwmRngFields, Reset: 0x20},
		{Name: "Dat1", Reg: &p.Dat1, Fields: pwmDatFields},
		{Name: "Fif1", Reg: &p.Fif1, Fields: pwmFifFields, NoBulk: true},
		{Name: "Rng2", Reg: &p.Rng2, Fields: pwmRngFields, Reset: 0x20},
		{Name: "Dat2", Reg: &p.Dat2, Fields: pwmDatFields},
	}
}

func (p *Pwm) GrabRegs()     { grabAll(p.Regs()) }
func (p *Pwm) PushRegs()     { pushAll(p.Regs()) }
func (p *Pwm) InitPutReset() { resetAll(p.Regs()) }
