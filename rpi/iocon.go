package rpi

import (
	"fmt"

	"github.com/Jon-Bright/rgpio/reg"
)

// RP1 IO_BANKn, RP1 Peripherals section 3.1.4. Each GPIO has a STATUS and
// CTRL pair; every register has the atomic apertures.

const (
	IOCON_DOC_BASE   = 0x400d0000
	RP1_BANK_DELTA   = 0x4000
	RP1_BLOCK_WORDS  = RP1_BANK_DELTA / 4
	IOCON_CTRL_RESET = 0x9f
)

var (
	ioStatIrqToProc      = reg.Field{Name: "IrqToProc", Pos: 29, Width: 1, Access: reg.RO}
	ioStatIrqCombined    = reg.Field{Name: "IrqCombined", Pos: 28, Width: 1, Access: reg.RO}
	ioStatEventDbLevHigh = reg.Field{Name: "EventDbLevHigh", Pos: 27, Width: 1, Access: reg.RO}
	ioStatEventDbLevLow  = reg.Field{Name: "EventDbLevLow", Pos: 26, Width: 1, Access: reg.RO}
	ioStatEventFRise     = reg.Field{Name: "EventFRise", Pos: 25, Width: 1, Access: reg.RO}
	ioStatEventFFall     = reg.Field{Name: "EventFFall", Pos: 24, Width: 1, Access: reg.RO}
	ioStatEventLevHigh   = reg.Field{Name: "EventLevHigh", Pos: 23, Width: 1, Access: reg.RO}
	ioStatEventLevLow    = reg.Field{Name: "EventLevLow", Pos: 22, Width: 1, Access: reg.RO}
	ioStatEventEdgeHigh  = reg.Field{Name: "EventEdgeHigh", Pos: 21, Width: 1, Access: reg.RO}
	ioStatEventEdgeLow   = reg.Field{Name: "EventEdgeLow", Pos: 20, Width: 1, Access: reg.RO}
	ioStatInToPeri       = reg.Field{Name: "InToPeri", Pos: 19, Width: 1, Access: reg.RO}
	ioStatInFiltered     = reg.Field{Name: "InFiltered", Pos: 18, Width: 1, Access: reg.RO}
	ioStatInOfPad        = reg.Field{Name: "InOfPad", Pos: 17, Width: 1, Access: reg.RO}
	ioStatInIsDirect     = reg.Field{Name: "InIsDirect", Pos: 16, Width: 1, Access: reg.RO}
	ioStatOeToPad        = reg.Field{Name: "OeToPad", Pos: 13, Width: 1, Access: reg.RO}
	ioStatOeFromPeri     = reg.Field{Name: "OeFromPeri", Pos: 12, Width: 1, Access: reg.RO}
	ioStatOutToPad       = reg.Field{Name: "OutToPad", Pos: 9, Width: 1, Access: reg.RO}
	ioStatOutFromPeri    = reg.Field{Name: "OutFromPeri", Pos: 8, Width: 1, Access: reg.RO}

	ioStatusFields = []reg.Field{
		ioStatIrqToProc, ioStatIrqCombined,
		ioStatEventDbLevHigh, ioStatEventDbLevLow, ioStatEventFRise, ioStatEventFFall,
		ioStatEventLevHigh, ioStatEventLevLow, ioStatEventEdgeHigh, ioStatEventEdgeLow,
		ioStatInToPeri, ioStatInFiltered, ioStatInOfPad, ioStatInIsDirect,
		ioStatOeToPad, ioStatOeFromPeri, ioStatOutToPad, ioStatOutFromPeri,
	}

	ioCtrlIrqover  = reg.Field{Name: "Irqover", Pos: 30, Width: 2}
	ioCtrlIrqreset = reg.Field{Name: "Irqreset", Pos: 28, Width: 1}
	ioCtrlIrqmask  = reg.Field{Name: "Irqmask", Pos: 20, Width: 8}
	ioCtrlInover   = reg.Field{Name: "Inover", Pos: 16, Width: 2}
	ioCtrlOeover   = reg.Field{Name: "Oeover", Pos: 14, Width: 2}
	ioCtrlOutover  = reg.Field{Name: "Outover", Pos: 12, Width: 2}
	ioCtrlFilterM  = reg.Field{Name: "FilterM", Pos: 5, Width: 7}
	ioCtrlFuncsel  = reg.Field{Name: "Funcsel", Pos: 0, Width: 5}
	ioCtrlFields   = []reg.Field{ioCtrlIrqover, ioCtrlIrqreset, ioCtrlIrqmask, ioCtrlInover, ioCtrlOeover, ioCtrlOutover, ioCtrlFilterM, ioCtrlFuncsel}
)

const (
	IOCON_FUNC_SYS_RIO = 5    // Pad driven by RIO
	IOCON_FUNC_NULL    = 0x1f // Pad disconnected from every peripheral
)

// IoStatus is GPIOn_STATUS. It's read-only; GrabRegs reads it through the
// peek aperture so event bits aren't disturbed.
type IoStatus struct{ reg.Atomic }

func (r *IoStatus) GetIrqToProc() uint32      { return ioStatIrqToProc.Get(&r.Register) }
func (r *IoStatus) GetIrqCombined() uint32    { return ioStatIrqCombined.Get(&r.Register) }
func (r *IoStatus) GetEventDbLevHigh() uint32 { return ioStatEventDbLevHigh.Get(&r.Register) }
func (r *IoStatus) GetEventDbLevLow() uint32  { return ioStatEventDbLevLow.Get(&r.Register) }
func (r *IoStatus) GetEventFRise() uint32     { return ioStatEventFRise.Get(&r.Register) }
func (r *IoStatus) GetEventFFall() uint32     { return ioStatEventFFall.Get(&r.Register) }
func (r *IoStatus) GetEventLevHigh() uint32   { return ioStatEventLevHigh.Get(&r.Register) }
func (r *IoStatus) GetEventLevLow() uint32    { return ioStatEventLevLow.Get(&r.Register) }
func (r *IoStatus) GetEventEdgeHigh() uint32  { return ioStatEventEdgeHigh.Get(&r.Register) }
func (r *IoStatus) GetEventEdgeLow() uint32   { return ioStatEventEdgeLow.Get(&r.Register) }
func (r *IoStatus) GetInToPeri() uint32       { return ioStatInToPeri.Get(&r.Register) }
func (r *IoStatus) GetInFiltered() uint32     { return ioStatInFiltered.Get(&r.Register) }
func (r *IoStatus) GetInOfPad() uint32        { return ioStatInOfPad.Get(&r.Register) }
func (r *IoStatus) GetInIsDirect() uint32     { return ioStatInIsDirect.Get(&r.Register) }
func (r *IoStatus) GetOeToPad() uint32        { return ioStatOeToPad.Get(&r.Register) }
func (r *IoStatus) GetOeFromPeri() uint32     { return ioStatOeFromPeri.Get(&r.Register) }
func (r *IoStatus) GetOutToPad() uint32       { return ioStatOutToPad.Get(&r.Register) }
func (r *IoStatus) GetOutFromPeri() uint32    { return ioStatOutFromPeri.Get(&r.Register) }

// IoCtrl is GPIOn_CTRL.
type IoCtrl struct{ reg.Atomic }

func (r *IoCtrl) GetIrqover() uint32         { return ioCtrlIrqover.Get(&r.Register) }
func (r *IoCtrl) PutIrqover(v uint32) error  { return ioCtrlIrqover.Put(&r.Register, v) }
func (r *IoCtrl) GetIrqreset() uint32        { return ioCtrlIrqreset.Get(&r.Register) }
func (r *IoCtrl) PutIrqreset(v uint32) error { return ioCtrlIrqreset.Put(&r.Register, v) }
func (r *IoCtrl) GetIrqmask() uint32         { return ioCtrlIrqmask.Get(&r.Register) }
func (r *IoCtrl) PutIrqmask(v uint32) error  { return ioCtrlIrqmask.Put(&r.Register, v) }
func (r *IoCtrl) GetInover() uint32          { return ioCtrlInover.Get(&r.Register) }
func (r *IoCtrl) PutInover(v uint32) error   { return ioCtrlInover.Put(&r.Register, v) }
func (r *IoCtrl) GetOeover() uint32          { return ioCtrlOeover.Get(&r.Register) }
func (r *IoCtrl) PutOeover(v uint32) error   { return ioCtrlOeover.Put(&r.Register, v) }
func (r *IoCtrl) GetOutover() uint32         { return ioCtrlOutover.Get(&r.Register) }
func (r *IoCtrl) PutOutover(v uint32) error  { return ioCtrlOutover.Put(&r.Register, v) }
func (r *IoCtrl) GetFilterM() uint32         { return ioCtrlFilterM.Get(&r.Register) }
func (r *IoCtrl) PutFilterM(v uint32) error  { return ioCtrlFilterM.Put(&r.Register, v) }
func (r *IoCtrl) GetFuncsel() uint32         { return ioCtrlFuncsel.Get(&r.Register) }
func (r *IoCtrl) PutFuncsel(v uint32) error  { return ioCtrlFuncsel.Put(&r.Register, v) }

// IoCon is one RP1 IO bank.
type IoCon struct {
	Bank   int
	Status []IoStatus
	Ctrl   []IoCtrl
}

// NewIoCon maps IO bank 0..2. The bank's register count follows its number
// of GPIOs.
func NewIoCon(m Mapper, bank int) (*IoCon, error) {
	if err := m.Platform().RequireRPi5(); err != nil {
		return nil, err
	}
	if err := checkBank(bank); err != nil {
		return nil, err
	}
	w, err := m.MemBlock(IOCON_DOC_BASE+uint32(bank)*RP1_BANK_DELTA, RP1_BLOCK_WORDS)
	if err != nil {
		return nil, err
	}
	n := rp1BankGpios[bank]
	io := &IoCon{Bank: bank, Status: make([]IoStatus, n), Ctrl: make([]IoCtrl, n)}
	for i := 0; i < n; i++ {
		err := bind(w,
			at{&io.Status[i].Register, uint32(i) * 8},
			at{&io.Ctrl[i].Register, uint32(i)*8 + 4},
		)
		if err != nil {
			return nil, err
		}
	}
	return io, nil
}

func (io *IoCon) checkGpio(gpio int) error {
	if gpio < 0 || gpio >= len(io.Ctrl) {
		return reg.Rangef("gpio %d not in 0..%d of bank %d", gpio, len(io.Ctrl)-1, io.Bank)
	}
	return nil
}

// SetFunc selects gpio's function in hardware, leaving the rest of CTRL
// untouched. Funcsel passes through IOCON_FUNC_NULL on the way, never
// through function 0.
func (io *IoCon) SetFunc(gpio int, fn uint32) error {
	if err := io.checkGpio(gpio); err != nil {
		return err
	}
	if fn > IOCON_FUNC_NULL {
		return reg.Rangef("funcsel %d not in 0..%d", fn, uint32(IOCON_FUNC_NULL))
	}
	c := &io.Ctrl[gpio]
	c.WriteSet(IOCON_FUNC_NULL << ioCtrlFuncsel.Pos)
	if clr := IOCON_FUNC_NULL &^ fn; clr != 0 {
		c.WriteClr(clr << ioCtrlFuncsel.Pos)
	}
	c.Grab()
	return nil
}

func (io *IoCon) Regs() []reg.Named {
	regs := make([]reg.Named, 0, 2*len(io.Ctrl))
	for i := range io.Ctrl {
		regs = append(regs,
			reg.Named{Name: fmt.Sprintf("Status%d", i), Reg: &io.Status[i].Register, Fields: ioStatusFields, Access: reg.RO},
			reg.Named{Name: fmt.Sprintf("Ctrl%d", i), Reg: &io.Ctrl[i].Register, Fields: ioCtrlFields, Reset: IOCON_CTRL_RESET},
		)
	}
	return regs
}

// GrabRegs reads Status through the peek aperture and Ctrl normally.
func (io *IoCon) GrabRegs() {
	for i := range io.Ctrl {
		io.Status[i].GrabPeek()
		io.Ctrl[i].Grab()
	}
}

func (io *IoCon) PushRegs()     { pushAll(io.Regs()) }
func (io *IoCon) InitPutReset() { resetAll(io.Regs()) }
