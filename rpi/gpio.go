package rpi

import (
	"fmt"

	"github.com/Jon-Bright/rgpio/reg"
)

// GPIO block, BCM2835 ARM Peripherals p89.

const (
	GPIO_MAX = 53 // p94

	FSEL_OFFSET = 0x00
	SET_OFFSET  = 0x1c
	CLR_OFFSET  = 0x28
	LEV_OFFSET  = 0x34
	EDS_OFFSET  = 0x40
)

func checkGpio(gpio int) error {
	if gpio < 0 || gpio > GPIO_MAX {
		return reg.Rangef("gpio %d not in 0..%d", gpio, GPIO_MAX)
	}
	return nil
}

// FselMode is a GPFSEL function code. See p92 in datasheet: the alt function
// numbers don't follow the codes.
type FselMode uint32

const (
	FselInput  FselMode = 0
	FselOutput FselMode = 1
	FselAlt5   FselMode = 2
	FselAlt4   FselMode = 3
	FselAlt0   FselMode = 4
	FselAlt1   FselMode = 5
	FselAlt2   FselMode = 6
	FselAlt3   FselMode = 7
)

var fselNames = [...]string{"in", "out", "alt5", "alt4", "alt0", "alt1", "alt2", "alt3"}

func (m FselMode) String() string {
	if int(m) < len(fselNames) {
		return fselNames[m]
	}
	return fmt.Sprintf("FselMode(%d)", uint32(m))
}

// fselField is the 3-bit field for gpio in its GPFSELn register.
func fselField(gpio int) reg.Field {
	return reg.Field{Name: fmt.Sprintf("Gpio%d", gpio), Pos: uint(gpio%10) * 3, Width: 3}
}

// Fsel is the GPIO function select registers GPFSEL0..5.
type Fsel struct {
	Fsel [6]reg.Register
}

func NewFsel(m Mapper) (*Fsel, error) {
	if err := m.Platform().RequireRPi4OrEarlier(); err != nil {
		return nil, err
	}
	w, err := m.MemBlock(GPIO_DOC_BASE+FSEL_OFFSET, 6)
	if err != nil {
		return nil, err
	}
	f := &Fsel{}
	for i := range f.Fsel {
		if err := bind(w, at{&f.Fsel[i], uint32(i) * 4}); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// GetMode returns gpio's function from the shadow.
func (f *Fsel) GetMode(gpio int) (FselMode, error) {
	if err := checkGpio(gpio); err != nil {
		return 0, err
	}
	return FselMode(fselField(gpio).Get(&f.Fsel[gpio/10])), nil
}

// PutMode sets gpio's function in the shadow.
func (f *Fsel) PutMode(gpio int, mode FselMode) error {
	if err := checkGpio(gpio); err != nil {
		return err
	}
	return fselField(gpio).Put(&f.Fsel[gpio/10], uint32(mode))
}

func (f *Fsel) Regs() []reg.Named {
	regs := make([]reg.Named, len(f.Fsel))
	for i := range f.Fsel {
		var fields []reg.Field
		for g := i * 10; g < i*10+10 && g <= GPIO_MAX; g++ {
			fields = append(fields, fselField(g))
		}
		regs[i] = reg.Named{Name: fmt.Sprintf("Fsel%d", i), Reg: &f.Fsel[i], Fields: fields}
	}
	return regs
}

func (f *Fsel) GrabRegs()     { grabAll(f.Regs()) }
func (f *Fsel) PushRegs()     { pushAll(f.Regs()) }
func (f *Fsel) InitPutReset() { resetAll(f.Regs()) }

// bitFields names one bit per gpio, for registers with a bit per pin.
func bitFields(first, n int) []reg.Field {
	fs := make([]reg.Field, n)
	for i := range fs {
		fs[i] = reg.Field{Name: fmt.Sprintf("Gpio%d", first+i), Pos: uint(i), Width: 1}
	}
	return fs
}

func bankBit(gpio int) reg.Field {
	return reg.Field{Name: fmt.Sprintf("Gpio%d", gpio), Pos: uint(gpio % 32), Width: 1}
}

// PinLevel is the GPIO output set/clear, pin level and event status
// registers. Each is a pair: word 0 covers gpio 0..31, word 1 gpio 32..53.
type PinLevel struct {
	// Set and Clr are write-only strobes: writing 1 drives the pin, 0 does
	// nothing.
	Set [2]reg.Register
	Clr [2]reg.Register
	Lev [2]reg.Register
	// Eds is write-1-to-clear, so PushRegs never writes it.
	Eds [2]reg.Register
}

func NewPinLevel(m Mapper) (*PinLevel, error) {
	if err := m.Platform().RequireRPi4OrEarlier(); err != nil {
		return nil, err
	}
	w, err := m.MemBlock(GPIO_DOC_BASE, (EDS_OFFSET+8)/4)
	if err != nil {
		return nil, err
	}
	p := &PinLevel{}
	for i := uint32(0); i < 2; i++ {
		err := bind(w,
			at{&p.Set[i], SET_OFFSET + 4*i},
			at{&p.Clr[i], CLR_OFFSET + 4*i},
			at{&p.Lev[i], LEV_OFFSET + 4*i},
			at{&p.Eds[i], EDS_OFFSET + 4*i},
		)
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *PinLevel) bit(regs *[2]reg.Register, gpio int) (*reg.Register, reg.Field, error) {
	if err := checkGpio(gpio); err != nil {
		return nil, reg.Field{}, err
	}
	return &regs[gpio/32], bankBit(gpio), nil
}

// GetLevel returns gpio's level from the Lev shadow.
func (p *PinLevel) GetLevel(gpio int) (uint32, error) {
	r, f, err := p.bit(&p.Lev, gpio)
	if err != nil {
		return 0, err
	}
	return f.Get(r), nil
}

// GetEvent returns gpio's event status bit from the Eds shadow.
func (p *PinLevel) GetEvent(gpio int) (uint32, error) {
	r, f, err := p.bit(&p.Eds, gpio)
	if err != nil {
		return 0, err
	}
	return f.Get(r), nil
}

// PutSet marks gpio in the Set shadow.
func (p *PinLevel) PutSet(gpio int, v uint32) error {
	r, f, err := p.bit(&p.Set, gpio)
	if err != nil {
		return err
	}
	return f.Put(r, v)
}

// PutClr marks gpio in the Clr shadow.
func (p *PinLevel) PutClr(gpio int, v uint32) error {
	r, f, err := p.bit(&p.Clr, gpio)
	if err != nil {
		return err
	}
	return f.Put(r, v)
}

// PushOutputs writes the Set then Clr shadows, driving every marked pin.
func (p *PinLevel) PushOutputs() {
	for i := range p.Set {
		p.Set[i].Push()
		p.Clr[i].Push()
	}
}

func (p *PinLevel) Regs() []reg.Named {
	var regs []reg.Named
	for i := range p.Set {
		n := 32
		if i == 1 {
			n = GPIO_MAX + 1 - 32
		}
		bits := bitFields(32*i, n)
		regs = append(regs,
			reg.Named{Name: fmt.Sprintf("Set%d", i), Reg: &p.Set[i], Fields: bits, NoBulk: true},
			reg.Named{Name: fmt.Sprintf("Clr%d", i), Reg: &p.Clr[i], Fields: bits, NoBulk: true},
			reg.Named{Name: fmt.Sprintf("Lev%d", i), Reg: &p.Lev[i], Fields: bits, Access: reg.RO},
			reg.Named{Name: fmt.Sprintf("Eds%d", i), Reg: &p.Eds[i], Fields: bits, Access: reg.RO},
		)
	}
	return regs
}

func (p *PinLevel) GrabRegs()     { grabAll(p.Regs()) }
func (p *PinLevel) PushRegs()     { pushAll(p.Regs()) }
func (p *PinLevel) InitPutReset() { resetAll(p.Regs()) }
