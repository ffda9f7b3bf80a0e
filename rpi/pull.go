package rpi

import (
	"fmt"

	"github.com/Jon-Bright/rgpio/reg"
)

// Pull up/down control. RPi3 and earlier use the GPPUD/GPPUDCLK sequence
// (BCM2835 ARM Peripherals p100), RPi4 has direct per-pin controls
// (BCM2711 ARM Peripherals p94).

const (
	PUD_OFFSET     = 0x94
	PUDCLK_OFFSET  = 0x98
	PULL_OFFSET    = 0xe4
	PUD_SETTLE_NS  = 5000 // "150 cycles", generously
	PULL_REG_COUNT = 4
)

// PullMode is a pull setting. The encodings differ between GPPUD and
// GPIO_PUP_PDN_CNTRL, so each feature converts.
type PullMode uint32

const (
	PullNone PullMode = iota
	PullUp
	PullDown
)

var pullNames = [...]string{"none", "up", "down"}

func (p PullMode) String() string {
	if int(p) < len(pullNames) {
		return pullNames[p]
	}
	return fmt.Sprintf("PullMode(%d)", uint32(p))
}

var pudPud = reg.Field{Name: "Pud", Pos: 0, Width: 2}

// GPPUD codes.
const (
	pudOff  = 0
	pudDown = 1
	pudUp   = 2
)

// Pud is the GPPUD/GPPUDCLK pull sequencer.
type Pud struct {
	Pud    reg.Register
	PudClk [2]reg.Register

	// SettleNs is the wait ProgramPins makes after each step.
	SettleNs int64
}

func NewPud(m Mapper) (*Pud, error) {
	if err := m.Platform().RequireRPi3OrEarlier(); err != nil {
		return nil, err
	}
	w, err := m.MemBlock(GPIO_DOC_BASE+PUD_OFFSET, 3)
	if err != nil {
		return nil, err
	}
	p := &Pud{SettleNs: PUD_SETTLE_NS}
	err = bind(w, at{&p.Pud, 0x0}, at{&p.PudClk[0], 0x4}, at{&p.PudClk[1], 0x8})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pud) GetPud() uint32        { return pudPud.Get(&p.Pud) }
func (p *Pud) PutPud(v uint32) error { return pudPud.Put(&p.Pud, v) }

// ProgramPins applies mode to every gpio in gpios: write GPPUD, wait, clock
// the pins in with GPPUDCLK, wait, then remove the control signal and clock.
// The shadows end up holding the idle (zero) values.
func (p *Pud) ProgramPins(mode PullMode, gpios ...int) error {
	var code uint32
	switch mode {
	case PullNone:
		code = pudOff
	case PullUp:
		code = pudUp
	case PullDown:
		code = pudDown
	default:
		return reg.Rangef("pull mode %d not in 0..2", uint32(mode))
	}
	var clk [2]uint32
	for _, g := range gpios {
		if err := checkGpio(g); err != nil {
			return err
		}
		clk[g/32] |= 1 << uint(g%32)
	}

	p.PutPud(code) // Can't fail
	p.Pud.Push()
	nanosleep(p.SettleNs)
	for i := range p.PudClk {
		p.PudClk[i].Put(clk[i])
		p.PudClk[i].Push()
	}
	nanosleep(p.SettleNs)
	p.PutPud(pudOff) // Can't fail
	p.Pud.Push()
	for i := range p.PudClk {
		p.PudClk[i].Put(0)
		p.PudClk[i].Push()
	}
	return nil
}

func (p *Pud) Regs() []reg.Named {
	return []reg.Named{
		{Name: "Pud", Reg: &p.Pud, Fields: []reg.Field{pudPud}},
		{Name: "PudClk0", Reg: &p.PudClk[0], Fields: bitFields(0, 32)},
		{Name: "PudClk1", Reg: &p.PudClk[1], Fields: bitFields(32, GPIO_MAX+1-32)},
	}
}

func (p *Pud) GrabRegs()     { grabAll(p.Regs()) }
func (p *Pud) PushRegs()     { pushAll(p.Regs()) }
func (p *Pud) InitPutReset() { resetAll(p.Regs()) }

// GPIO_PUP_PDN_CNTRL codes, which happen to match PullMode.
var pullResets = [PULL_REG_COUNT]uint32{0xaaa95555, 0xa0aaaaaa, 0x50aaa95a, 0x00055555}

func pullField(gpio int) reg.Field {
	return reg.Field{Name: fmt.Sprintf("Gpio%d", gpio), Pos: uint(gpio%16) * 2, Width: 2}
}

// Pull is GPIO_PUP_PDN_CNTRL_REG0..3.
type Pull struct {
	Cntrl [PULL_REG_COUNT]reg.Register
}

func NewPull(m Mapper) (*Pull, error) {
	if err := m.Platform().RequireRPi4(); err != nil {
		return nil, err
	}
	w, err := m.MemBlock(GPIO_DOC_BASE+PULL_OFFSET, PULL_REG_COUNT)
	if err != nil {
		return nil, err
	}
	p := &Pull{}
	for i := range p.Cntrl {
		if err := bind(w, at{&p.Cntrl[i], uint32(i) * 4}); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// GetPull returns gpio's pull from the shadow.
func (p *Pull) GetPull(gpio int) (PullMode, error) {
	if err := checkGpio(gpio); err != nil {
		return 0, err
	}
	return PullMode(pullField(gpio).Get(&p.Cntrl[gpio/16])), nil
}

// PutPull sets gpio's pull in the shadow. Code 3 is reserved.
func (p *Pull) PutPull(gpio int, mode PullMode) error {
	if err := checkGpio(gpio); err != nil {
		return err
	}
	if mode > PullDown {
		return reg.Rangef("pull mode %d not in 0..2", uint32(mode))
	}
	return pullField(gpio).Put(&p.Cntrl[gpio/16], uint32(mode))
}

func (p *Pull) Regs() []reg.Named {
	regs := make([]reg.Named, len(p.Cntrl))
	for i := range p.Cntrl {
		var fields []reg.Field
		for g := i * 16; g < i*16+16 && g <= GPIO_MAX; g++ {
			fields = append(fields, pullField(g))
		}
		regs[i] = reg.Named{Name: fmt.Sprintf("Cntrl%d", i), Reg: &p.Cntrl[i], Fields: fields, Reset: pullResets[i]}
	}
	return regs
}

func (p *Pull) GrabRegs()     { grabAll(p.Regs()) }
func (p *Pull) PushRegs()     { pushAll(p.Regs()) }
func (p *Pull) InitPutReset() { resetAll(p.Regs()) }
