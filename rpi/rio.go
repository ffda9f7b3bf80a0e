package rpi

import (
	"fmt"

	"github.com/Jon-Bright/rgpio/reg"
)

// RP1 SYS_RIO, registered IO. One bit per GPIO of the bank.

const RIO_DOC_BASE = 0x400e0000

type Rio struct {
	Bank     int
	Out      reg.Atomic
	OE       reg.Atomic
	NosyncIn reg.Atomic
	SyncIn   reg.Atomic
}

func NewRio(m Mapper, bank int) (*Rio, error) {
	if err := m.Platform().RequireRPi5(); err != nil {
		return nil, err
	}
	if err := checkBank(bank); err != nil {
		return nil, err
	}
	w, err := m.MemBlock(RIO_DOC_BASE+uint32(bank)*RP1_BANK_DELTA, RP1_BLOCK_WORDS)
	if err != nil {
		return nil, err
	}
	r := &Rio{Bank: bank}
	err = bind(w,
		at{&r.Out.Register, 0x0},
		at{&r.OE.Register, 0x4},
		at{&r.NosyncIn.Register, 0x8},
		at{&r.SyncIn.Register, 0xc},
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Rio) bit(gpio int) (uint32, error) {
	n := rp1BankGpios[r.Bank]
	if gpio < 0 || gpio >= n {
		return 0, reg.Rangef("gpio %d not in 0..%d of bank %d", gpio, n-1, r.Bank)
	}
	return 1 << uint(gpio), nil
}

// Drive sets or clears gpio's output through the atomic apertures.
func (r *Rio) Drive(gpio int, high bool) error {
	b, err := r.bit(gpio)
	if err != nil {
		return err
	}
	if high {
		r.Out.WriteSet(b)
	} else {
		r.Out.WriteClr(b)
	}
	return nil
}

// Toggle flips gpio's output.
func (r *Rio) Toggle(gpio int) error {
	b, err := r.bit(gpio)
	if err != nil {
		return err
	}
	r.Out.WriteFlip(b)
	return nil
}

// Enable sets or clears gpio's output enable.
func (r *Rio) Enable(gpio int, on bool) error {
	b, err := r.bit(gpio)
	if err != nil {
		return err
	}
	if on {
		r.OE.WriteSet(b)
	} else {
		r.OE.WriteClr(b)
	}
	return nil
}

// Level reads gpio's synchronised input live.
func (r *Rio) Level(gpio int) (uint32, error) {
	b, err := r.bit(gpio)
	if err != nil {
		return 0, err
	}
	if r.SyncIn.Read()&b != 0 {
		return 1, nil
	}
	return 0, nil
}

func (r *Rio) Regs() []reg.Named {
	bits := make([]reg.Field, rp1BankGpios[r.Bank])
	for i := range bits {
		bits[i] = reg.Field{Name: fmt.Sprintf("Gpio%d", i), Pos: uint(i), Width: 1}
	}
	return []reg.Named{
		{Name: "Out", Reg: &r.Out.Register, Fields: bits},
		{Name: "OE", Reg: &r.OE.Register, Fields: bits},
		{Name: "NosyncIn", Reg: &r.NosyncIn.Register, Fields: bits, Access: reg.RO},
		{Name: "SyncIn", Reg: &r.SyncIn.Register, Fields: bits, Access: reg.RO},
	}
}

func (r *Rio) GrabRegs()     { grabAll(r.Regs()) }
func (r *Rio) PushRegs()     { pushAll(r.Regs()) }
func (r *Rio) InitPutReset() { resetAll(r.Regs()) }
