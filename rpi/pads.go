package rpi

import (
	"github.com/Jon-Bright/rgpio/reg"
)

// Pad control, one register per bank of GPIOs (0..27, 28..45, 46..53).

const (
	PADS_DOC_BASE = 0x7e10002c
	PADS_PASSWD   = 0x5a
	PADS_RESET    = 0x1b
)

var (
	padsPasswd = reg.Field{Name: "Passwd", Pos: 24, Width: 8, Access: reg.WO}
	padsSlew   = reg.Field{Name: "Slew", Pos: 4, Width: 1}
	padsHyst   = reg.Field{Name: "Hyst", Pos: 3, Width: 1}
	padsDrive  = reg.Field{Name: "Drive", Pos: 0, Width: 3}

	padsFields = []reg.Field{padsPasswd, padsSlew, padsHyst, padsDrive}
)

// PadsCtl is PADS_GPIO_xx.
type PadsCtl struct{ reg.Register }

func (r *PadsCtl) PutPasswd(v uint32) error { return padsPasswd.Put(&r.Register, v) }
func (r *PadsCtl) GetSlew() uint32          { return padsSlew.Get(&r.Register) }
func (r *PadsCtl) PutSlew(v uint32) error   { return padsSlew.Put(&r.Register, v) }
func (r *PadsCtl) GetHyst() uint32          { return padsHyst.Get(&r.Register) }
func (r *PadsCtl) PutHyst(v uint32) error   { return padsHyst.Put(&r.Register, v) }
func (r *PadsCtl) GetDrive() uint32         { return padsDrive.Get(&r.Register) }
func (r *PadsCtl) PutDrive(v uint32) error  { return padsDrive.Put(&r.Register, v) }

type Pads struct {
	Bank int
	Ctl  PadsCtl
}

func NewPads(m Mapper, bank int) (*Pads, error) {
	if err := m.Platform().RequireRPi4OrEarlier(); err != nil {
		return nil, err
	}
	if err := checkBank(bank); err != nil {
		return nil, err
	}
	w, err := m.MemBlock(PADS_DOC_BASE+4*uint32(bank), 1)
	if err != nil {
		return nil, err
	}
	p := &Pads{Bank: bank}
	if err := bind(w, at{&p.Ctl.Register, 0}); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pads) Regs() []reg.Named {
	return []reg.Named{{Name: "Ctl", Reg: &p.Ctl.Register, Fields: padsFields, Reset: PADS_RESET}}
}

func (p *Pads) GrabRegs() { grabAll(p.Regs()) }

// PushRegs writes Ctl with the password inserted.
func (p *Pads) PushRegs() {
	p.Ctl.PutPasswd(PADS_PASSWD) // Can't fail
	p.Ctl.Push()
}

func (p *Pads) InitPutReset() { resetAll(p.Regs()) }
