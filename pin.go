package main

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/Jon-Bright/rgpio/reg"
	"github.com/Jon-Bright/rgpio/rpi"
)

// pins is single-GPIO control on top of the register features.
type pins interface {
	setMode(gpio int, out bool) error
	setPull(gpio int, p rpi.PullMode) error
	drive(gpio int, high bool) error
	level(gpio int) (bool, error)
}

func newPins(m rpi.Mapper) (pins, error) {
	if m.Platform().Soc == rpi.BCM2712 {
		return newRp1Pins(m)
	}
	return newBcmPins(m)
}

type bcmPins struct {
	fsel *rpi.Fsel
	lev  *rpi.PinLevel
	pull *rpi.Pull // RPi4
	pud  *rpi.Pud  // RPi3 and earlier
}

func newBcmPins(m rpi.Mapper) (*bcmPins, error) {
	var (
		p   bcmPins
		err error
	)
	p.fsel, err = rpi.NewFsel(m)
	if err != nil {
		return nil, err
	}
	p.lev, err = rpi.NewPinLevel(m)
	if err != nil {
		return nil, err
	}
	if m.Platform().Soc == rpi.BCM2711 {
		p.pull, err = rpi.NewPull(m)
	} else {
		p.pud, err = rpi.NewPud(m)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *bcmPins) setMode(gpio int, out bool) error {
	mode := rpi.FselInput
	if out {
		mode = rpi.FselOutput
	}
	p.fsel.GrabRegs()
	if err := p.fsel.PutMode(gpio, mode); err != nil {
		return err
	}
	p.fsel.PushRegs()
	return nil
}

func (p *bcmPins) setPull(gpio int, pm rpi.PullMode) error {
	if p.pud != nil {
		return p.pud.ProgramPins(pm, gpio)
	}
	p.pull.GrabRegs()
	if err := p.pull.PutPull(gpio, pm); err != nil {
		return err
	}
	p.pull.PushRegs()
	return nil
}

func (p *bcmPins) drive(gpio int, high bool) error {
	p.lev.InitPutReset()
	var err error
	if high {
		err = p.lev.PutSet(gpio, 1)
	} else {
		err = p.lev.PutClr(gpio, 1)
	}
	if err != nil {
		return err
	}
	p.lev.PushOutputs()
	return nil
}

func (p *bcmPins) level(gpio int) (bool, error) {
	p.lev.GrabRegs()
	v, err := p.lev.GetLevel(gpio)
	return v != 0, err
}

// rp1Pins drives bank 0, the GPIOs on the 40-pin header, through RIO.
type rp1Pins struct {
	io   *rpi.IoCon
	rio  *rpi.Rio
	pads *rpi.Pads5
}

func newRp1Pins(m rpi.Mapper) (*rp1Pins, error) {
	var (
		p   rp1Pins
		err error
	)
	p.io, err = rpi.NewIoCon(m, 0)
	if err != nil {
		return nil, err
	}
	p.rio, err = rpi.NewRio(m, 0)
	if err != nil {
		return nil, err
	}
	p.pads, err = rpi.NewPads5(m, 0)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *rp1Pins) pad(gpio int) (*rpi.Pad5, error) {
	if gpio < 0 || gpio >= len(p.pads.Pad) {
		return nil, reg.Rangef("gpio %d not in 0..%d", gpio, len(p.pads.Pad)-1)
	}
	return &p.pads.Pad[gpio], nil
}

func (p *rp1Pins) setMode(gpio int, out bool) error {
	pad, err := p.pad(gpio)
	if err != nil {
		return err
	}
	if err := p.rio.Enable(gpio, out); err != nil {
		return err
	}
	if err := p.io.SetFunc(gpio, rpi.IOCON_FUNC_SYS_RIO); err != nil {
		return err
	}
	pad.Grab()
	pad.PutIe(1) // Can't fail
	pad.PutOd(0) // Can't fail
	pad.Push()
	return nil
}

func (p *rp1Pins) setPull(gpio int, pm rpi.PullMode) error {
	pad, err := p.pad(gpio)
	if err != nil {
		return err
	}
	pad.Grab()
	if err := pad.PutPull(pm); err != nil {
		return err
	}
	pad.Push()
	return nil
}

func (p *rp1Pins) drive(gpio int, high bool) error { return p.rio.Drive(gpio, high) }

func (p *rp1Pins) level(gpio int) (bool, error) {
	v, err := p.rio.Level(gpio)
	return v != 0, err
}

var pullModes = map[string]rpi.PullMode{
	"none": rpi.PullNone,
	"up":   rpi.PullUp,
	"down": rpi.PullDown,
}

// waitLevel polls gpio until it reads want or timeout passes.
func waitLevel(log *zap.Logger, p pins, gpio int, want bool, timeout time.Duration) error {
	start := time.Now()
	for {
		val, err := p.level(gpio)
		if err != nil {
			return xerrors.Errorf("couldn't query gpio %d: %w", gpio, err)
		}
		t := time.Now()
		if val == want {
			log.Info("level reached", zap.Int("gpio", gpio), zap.Bool("high", want), zap.Duration("after", t.Sub(start)))
			return nil
		}
		if t.Sub(start) > timeout {
			return xerrors.Errorf("timed out waiting for gpio %d, started %v, now %v", gpio, start, t)
		}
		time.Sleep(50 * time.Millisecond) // No point overdoing it
	}
}

func pinMain(e *env, args []string) error {
	fs := newFlagSet(e, "pin", "[-mode in|out] [-pull none|up|down] [-level 0|1] [-wait 0|1 [-timeout D]] GPIO")
	mode := fs.String("mode", "", "Make the GPIO an input or an output")
	pull := fs.String("pull", "", "The pull to apply: none, up or down")
	level := fs.Int("level", -1, "Drive the GPIO low (0) or high (1)")
	wait := fs.Int("wait", -1, "Wait for the GPIO to read 0 or 1")
	timeout := fs.Duration("timeout", 2*time.Second, "How long -wait waits")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return xerrors.New("need exactly one GPIO")
	}
	var gpio int
	if _, err := fmt.Sscan(fs.Arg(0), &gpio); err != nil {
		return xerrors.Errorf("bad GPIO %q: %w", fs.Arg(0), err)
	}
	if err := checkLevelFlag("level", *level); err != nil {
		return err
	}
	if err := checkLevelFlag("wait", *wait); err != nil {
		return err
	}

	p, err := newPins(e.m)
	if err != nil {
		return err
	}
	switch *mode {
	case "":
	case "in", "out":
		if err := p.setMode(gpio, *mode == "out"); err != nil {
			return xerrors.Errorf("couldn't set mode: %w", err)
		}
	default:
		return xerrors.Errorf("unknown -mode %q", *mode)
	}
	if *pull != "" {
		pm, ok := pullModes[*pull]
		if !ok {
			return xerrors.Errorf("unknown -pull %q", *pull)
		}
		if err := p.setPull(gpio, pm); err != nil {
			return xerrors.Errorf("couldn't set pull: %w", err)
		}
	}
	if *level >= 0 {
		if err := p.drive(gpio, *level == 1); err != nil {
			return xerrors.Errorf("couldn't drive: %w", err)
		}
	}
	if *wait >= 0 {
		if err := waitLevel(e.log, p, gpio, *wait == 1, *timeout); err != nil {
			return err
		}
	}
	v, err := p.level(gpio)
	if err != nil {
		return err
	}
	l := 0
	if v {
		l = 1
	}
	fmt.Fprintf(e.out, "gpio %d: %d\n", gpio, l)
	return nil
}

func checkLevelFlag(name string, v int) error {
	if v < -1 || v > 1 {
		return xerrors.Errorf("-%s must be 0 or 1", name)
	}
	return nil
}
