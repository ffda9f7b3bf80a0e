package rpi

import (
	"sort"

	"golang.org/x/sys/unix"

	"github.com/Jon-Bright/rgpio/reg"
)

// Feature is a register map for one documented hardware feature.
type Feature interface {
	// GrabRegs copies hardware into every register's shadow, except FIFO
	// and strobe registers.
	GrabRegs()
	// PushRegs copies every writable register's shadow to hardware, except
	// FIFO and strobe registers.
	PushRegs()
	// InitPutReset sets every shadow to its power-on value. Hardware isn't
	// touched.
	InitPutReset()
	// Regs lists the registers in grab/push order.
	Regs() []reg.Named
}

// Applier is implemented by features that need a sequenced update rather
// than a plain PushRegs. ApplyRegs returns false if the hardware didn't
// become ready in time and nothing was applied.
type Applier interface {
	ApplyRegs() bool
}

// FeatureInfo describes a feature for tools that pick one by name.
type FeatureInfo struct {
	Name  string
	Descr string
	Units string
	New   func(m Mapper, unit int) (Feature, error)
}

// Features lists every feature by its short name.
var Features = map[string]FeatureInfo{
	"clk": {"clk", "Clock manager general-purpose clocks", "0..4 (gp0 gp1 gp2 pcm pwm)",
		func(m Mapper, u int) (Feature, error) { return asFeature(NewClock(m, ClockID(u))) }},
	"pwm": {"pwm", "PWM controller", "0, 1 on RPi4",
		func(m Mapper, u int) (Feature, error) { return asFeature(NewPwm(m, u)) }},
	"spi0": {"spi0", "SPI0 master", "0, 3..6 on RPi4",
		func(m Mapper, u int) (Feature, error) { return asFeature(NewSpi0(m, u)) }},
	"fsel": {"fsel", "GPIO function select", "0",
		func(m Mapper, u int) (Feature, error) { return newSingle(m, u, NewFsel) }},
	"level": {"level", "GPIO output set/clear, level and event status", "0",
		func(m Mapper, u int) (Feature, error) { return newSingle(m, u, NewPinLevel) }},
	"pud": {"pud", "GPIO pull up/down sequencer (RPi3 and earlier)", "0",
		func(m Mapper, u int) (Feature, error) { return newSingle(m, u, NewPud) }},
	"pull": {"pull", "GPIO pull up/down control (RPi4)", "0",
		func(m Mapper, u int) (Feature, error) { return newSingle(m, u, NewPull) }},
	"pads": {"pads", "Pad drive strength, slew and hysteresis", "0..2",
		func(m Mapper, u int) (Feature, error) { return asFeature(NewPads(m, u)) }},
	"iocon": {"iocon", "RP1 IO bank status and control (RPi5)", "0..2",
		func(m Mapper, u int) (Feature, error) { return asFeature(NewIoCon(m, u)) }},
	"rio": {"rio", "RP1 registered IO (RPi5)", "0..2",
		func(m Mapper, u int) (Feature, error) { return asFeature(NewRio(m, u)) }},
	"pads5": {"pads5", "RP1 pad control (RPi5)", "0..2",
		func(m Mapper, u int) (Feature, error) { return asFeature(NewPads5(m, u)) }},
}

// FeatureNames returns the keys of Features, sorted.
func FeatureNames() []string {
	names := make([]string, 0, len(Features))
	for n := range Features {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// asFeature keeps a failed constructor's nil pointer out of the interface.
func asFeature[F Feature](f F, err error) (Feature, error) {
	if err != nil {
		return nil, err
	}
	return f, nil
}

func newSingle[F Feature](m Mapper, unit int, fn func(Mapper) (F, error)) (Feature, error) {
	if unit != 0 {
		return nil, reg.Rangef("unit %d not supported, feature has only unit 0", unit)
	}
	return asFeature(fn(m))
}

// RPi5 banks and the number of GPIOs in each.
var rp1BankGpios = [...]int{28, 6, 20}

func checkBank(bank int) error {
	if bank < 0 || bank >= len(rp1BankGpios) {
		return reg.Rangef("requires bank in {0,1,2}, got %d", bank)
	}
	return nil
}

// at places a register at a byte offset within a feature's block.
type at struct {
	r   *reg.Register
	off uint32
}

func bind(w reg.Window, regs ...at) error {
	for _, a := range regs {
		if err := a.r.InitAddr(w, a.off/4); err != nil {
			return err
		}
	}
	return nil
}

func grabAll(regs []reg.Named) {
	for _, n := range regs {
		if !n.NoBulk && n.Access != reg.WO {
			n.Reg.Grab()
		}
	}
}

func pushAll(regs []reg.Named) {
	for _, n := range regs {
		if !n.NoBulk && n.Access != reg.RO {
			n.Reg.Push()
		}
	}
}

func resetAll(regs []reg.Named) {
	for _, n := range regs {
		n.Reg.Put(n.Reset)
	}
}

// nanosleep pauses between hardware steps that need settling time.
func nanosleep(ns int64) {
	if ns <= 0 {
		return
	}
	ts := unix.NsecToTimespec(ns)
	for unix.Nanosleep(&ts, &ts) == unix.EINTR {
	}
}
