package rpi

import (
	"fmt"

	"github.com/Jon-Bright/rgpio/reg"
)

// RP1 PADS_BANKn. Word 0 selects the bank voltage, then one pad control
// word per GPIO.

const (
	PADS5_DOC_BASE = 0x400f0000
	PADS5_RESET    = 0x56
)

var (
	pads5Vsel     = reg.Field{Name: "Vsel", Pos: 0, Width: 1}
	pads5Od       = reg.Field{Name: "Od", Pos: 7, Width: 1}
	pads5Ie       = reg.Field{Name: "Ie", Pos: 6, Width: 1}
	pads5Drive    = reg.Field{Name: "Drive", Pos: 4, Width: 2}
	pads5Pue      = reg.Field{Name: "Pue", Pos: 3, Width: 1}
	pads5Pde      = reg.Field{Name: "Pde", Pos: 2, Width: 1}
	pads5Schmitt  = reg.Field{Name: "Schmitt", Pos: 1, Width: 1}
	pads5Slewfast = reg.Field{Name: "Slewfast", Pos: 0, Width: 1}

	pads5Fields = []reg.Field{pads5Od, pads5Ie, pads5Drive, pads5Pue, pads5Pde, pads5Schmitt, pads5Slewfast}
)

// Pad5 is one GPIO's pad control word.
type Pad5 struct{ reg.Atomic }

func (r *Pad5) GetOd() uint32              { return pads5Od.Get(&r.Register) }
func (r *Pad5) PutOd(v uint32) error       { return pads5Od.Put(&r.Register, v) }
func (r *Pad5) GetIe() uint32              { return pads5Ie.Get(&r.Register) }
func (r *Pad5) PutIe(v uint32) error       { return pads5Ie.Put(&r.Register, v) }
func (r *Pad5) GetDrive() uint32           { return pads5Drive.Get(&r.Register) }
func (r *Pad5) PutDrive(v uint32) error    { return pads5Drive.Put(&r.Register, v) }
func (r *Pad5) GetPue() uint32             { return pads5Pue.Get(&r.Register) }
func (r *Pad5) PutPue(v uint32) error      { return pads5Pue.Put(&r.Register, v) }
func (r *Pad5) GetPde() uint32             { return pads5Pde.Get(&r.Register) }
func (r *Pad5) PutPde(v uint32) error      { return pads5Pde.Put(&r.Register, v) }
func (r *Pad5) GetSchmitt() uint32         { return pads5Schmitt.Get(&r.Register) }
func (r *Pad5) PutSchmitt(v uint32) error  { return pads5Schmitt.Put(&r.Register, v) }
func (r *Pad5) GetSlewfast() uint32        { return pads5Slewfast.Get(&r.Register) }
func (r *Pad5) PutSlewfast(v uint32) error { return pads5Slewfast.Put(&r.Register, v) }

// PutPull sets Pue and Pde for mode.
func (r *Pad5) PutPull(mode PullMode) error {
	switch mode {
	case PullNone:
		r.PutPue(0)
		r.PutPde(0)
	case PullUp:
		r.PutPue(1)
		r.PutPde(0)
	case PullDown:
		r.PutPue(0)
		r.PutPde(1)
	default:
		return reg.Rangef("pull mode %d not in 0..2", uint32(mode))
	}
	return nil
}

type Pads5 struct {
	Bank          int
	VoltageSelect reg.Atomic
	Pad           []Pad5
}

func NewPads5(m Mapper, bank int) (*Pads5, error) {
	if err := m.Platform().RequireRPi5(); err != nil {
		return nil, err
	}
	if err := checkBank(bank); err != nil {
		return nil, err
	}
	w, err := m.MemBlock(PADS5_DOC_BASE+uint32(bank)*RP1_BANK_DELTA, RP1_BLOCK_WORDS)
	if err != nil {
		return nil, err
	}
	p := &Pads5{Bank: bank, Pad: make([]Pad5, rp1BankGpios[bank])}
	if err := bind(w, at{&p.VoltageSelect.Register, 0}); err != nil {
		return nil, err
	}
	for i := range p.Pad {
		if err := bind(w, at{&p.Pad[i].Register, 4 + 4*uint32(i)}); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Pads5) GetVsel() uint32        { return pads5Vsel.Get(&p.VoltageSelect.Register) }
func (p *Pads5) PutVsel(v uint32) error { return pads5Vsel.Put(&p.VoltageSelect.Register, v) }

func (p *Pads5) Regs() []reg.Named {
	regs := []reg.Named{{Name: "VoltageSelect", Reg: &p.VoltageSelect.Register, Fields: []reg.Field{pads5Vsel}}}
	for i := range p.Pad {
		regs = append(regs, reg.Named{Name: fmt.Sprintf("Pad%d", i), Reg: &p.Pad[i].Register, Fields: pads5Fields, Reset: PADS5_RESET})
	}
	return regs
}

func (p *Pads5) GrabRegs()     { grabAll(p.Regs()) }
func (p *Pads5) PushRegs()     { pushAll(p.Regs()) }
func (p *Pads5) InitPutReset() { resetAll(p.Regs()) }
