package rpi

import (
	"github.com/Jon-Bright/rgpio/reg"
)

// SPI0 master, BCM2835 ARM Peripherals p148. BCM2711 adds SPI3..6 with the
// same layout.

const (
	SPI0_DOC_BASE   = 0x7e204000
	SPI0_UNIT_DELTA = 0x200
)

var (
	spiCsLenLong = reg.Field{Name: "LenLong", Pos: 25, Width: 1}
	spiCsDmaLen  = reg.Field{Name: "DmaLen", Pos: 24, Width: 1}
	spiCsCspol2  = reg.Field{Name: "Cspol2", Pos: 23, Width: 1}
	spiCsCspol1  = reg.Field{Name: "Cspol1", Pos: 22, Width: 1}
	spiCsCspol0  = reg.Field{Name: "Cspol0", Pos: 21, Width: 1}
	spiCsRxf     = reg.Field{Name: "Rxf", Pos: 20, Width: 1, Access: reg.RO}
	spiCsRxr     = reg.Field{Name: "Rxr", Pos: 19, Width: 1, Access: reg.RO}
	spiCsTxd     = reg.Field{Name: "Txd", Pos: 18, Width: 1, Access: reg.RO}
	spiCsRxd     = reg.Field{Name: "Rxd", Pos: 17, Width: 1, Access: reg.RO}
	spiCsDone    = reg.Field{Name: "Done", Pos: 16, Width: 1, Access: reg.RO}
	spiCsLen     = reg.Field{Name: "Len", Pos: 13, Width: 1}
	spiCsRen     = reg.Field{Name: "Ren", Pos: 12, Width: 1}
	spiCsAdcs    = reg.Field{Name: "Adcs", Pos: 11, Width: 1}
	spiCsIntr    = reg.Field{Name: "Intr", Pos: 10, Width: 1}
	spiCsIntd    = reg.Field{Name: "Intd", Pos: 9, Width: 1}
	spiCsDmaen   = reg.Field{Name: "Dmaen", Pos: 8, Width: 1}
	spiCsTa      = reg.Field{Name: "Ta", Pos: 7, Width: 1}
	spiCsCspol   = reg.Field{Name: "Cspol", Pos: 6, Width: 1}
	spiCsClear   = reg.Field{Name: "Clear", Pos: 4, Width: 2, Access: reg.WO}
	spiCsCpol    = reg.Field{Name: "Cpol", Pos: 3, Width: 1}
	spiCsCpha    = reg.Field{Name: "Cpha", Pos: 2, Width: 1}
	spiCsCs      = reg.Field{Name: "Cs", Pos: 0, Width: 2}

	spiCsFields = []reg.Field{
		spiCsLenLong, spiCsDmaLen, spiCsCspol2, spiCsCspol1, spiCsCspol0,
		spiCsRxf, spiCsRxr, spiCsTxd, spiCsRxd, spiCsDone,
		spiCsLen, spiCsRen, spiCsAdcs, spiCsIntr, spiCsIntd, spiCsDmaen,
		spiCsTa, spiCsCspol, spiCsClear, spiCsCpol, spiCsCpha, spiCsCs,
	}

	spiClkCdiv  = reg.Field{Name: "Cdiv", Pos: 0, Width: 16}
	spiDlenLen  = reg.Field{Name: "Len", Pos: 0, Width: 16}
	spiLtohToh  = reg.Field{Name: "Toh", Pos: 0, Width: 4}
	spiDcRpanic = reg.Field{Name: "Rpanic", Pos: 24, Width: 8}
	spiDcRdreq  = reg.Field{Name: "Rdreq", Pos: 16, Width: 8}
	spiDcTpanic = reg.Field{Name: "Tpanic", Pos: 8, Width: 8}
	spiDcTdreq  = reg.Field{Name: "Tdreq", Pos: 0, Width: 8}

	spiFifoFields = []reg.Field{{Name: "Data", Pos: 0, Width: 32}}
	spiDcFields   = []reg.Field{spiDcRpanic, spiDcRdreq, spiDcTpanic, spiDcTdreq}
)

// SpiCs is SPI CS.
type SpiCs struct{ reg.Register }

func (r *SpiCs) GetLenLong() uint32        { return spiCsLenLong.Get(&r.Register) }
func (r *SpiCs) PutLenLong(v uint32) error { return spiCsLenLong.Put(&r.Register, v) }
func (r *SpiCs) GetDmaLen() uint32         { return spiCsDmaLen.Get(&r.Register) }
func (r *SpiCs) PutDmaLen(v uint32) error  { return spiCsDmaLen.Put(&r.Register, v) }
func (r *SpiCs) GetCspol2() uint32         { return spiCsCspol2.Get(&r.Register) }
func (r *SpiCs) PutCspol2(v uint32) error  { return spiCsCspol2.Put(&r.Register, v) }
func (r *SpiCs) GetCspol1() uint32         { return spiCsCspol1.Get(&r.Register) }
func (r *SpiCs) PutCspol1(v uint32) error  { return spiCsCspol1.Put(&r.Register, v) }
func (r *SpiCs) GetCspol0() uint32         { return spiCsCspol0.Get(&r.Register) }
func (r *SpiCs) PutCspol0(v uint32) error  { return spiCsCspol0.Put(&r.Register, v) }
func (r *SpiCs) GetRxf() uint32            { return spiCsRxf.Get(&r.Register) }
func (r *SpiCs) GetRxr() uint32            { return spiCsRxr.Get(&r.Register) }
func (r *SpiCs) GetTxd() uint32            { return spiCsTxd.Get(&r.Register) }
func (r *SpiCs) GetRxd() uint32            { return spiCsRxd.Get(&r.Register) }
func (r *SpiCs) GetDone() uint32           { return spiCsDone.Get(&r.Register) }
func (r *SpiCs) GetLen() uint32            { return spiCsLen.Get(&r.Register) }
func (r *SpiCs) PutLen(v uint32) error     { return spiCsLen.Put(&r.Register, v) }
func (r *SpiCs) GetRen() uint32            { return spiCsRen.Get(&r.Register) }
func (r *SpiCs) PutRen(v uint32) error     { return spiCsRen.Put(&r.Register, v) }
func (r *SpiCs) GetAdcs() uint32           { return spiCsAdcs.Get(&r.Register) }
func (r *SpiCs) PutAdcs(v uint32) error    { return spiCsAdcs.Put(&r.Register, v) }
func (r *SpiCs) GetIntr() uint32           { return spiCsIntr.Get(&r.Register) }
func (r *SpiCs) PutIntr(v uint32) error    { return spiCsIntr.Put(&r.Register, v) }
func (r *SpiCs) GetIntd() uint32           { return spiCsIntd.Get(&r.Register) }
func (r *SpiCs) PutIntd(v uint32) error    { return spiCsIntd.Put(&r.Register, v) }
func (r *SpiCs) GetDmaen() uint32          { return spiCsDmaen.Get(&r.Register) }
func (r *SpiCs) PutDmaen(v uint32) error   { return spiCsDmaen.Put(&r.Register, v) }
func (r *SpiCs) GetTa() uint32             { return spiCsTa.Get(&r.Register) }
func (r *SpiCs) PutTa(v uint32) error      { return spiCsTa.Put(&r.Register, v) }
func (r *SpiCs) GetCspol() uint32          { return spiCsCspol.Get(&r.Register) }
func (r *SpiCs) PutCspol(v uint32) error   { return spiCsCspol.Put(&r.Register, v) }
func (r *SpiCs) PutClear(v uint32) error   { return spiCsClear.Put(&r.Register, v) }
func (r *SpiCs) GetCpol() uint32           { return spiCsCpol.Get(&r.Register) }
func (r *SpiCs) PutCpol(v uint32) error    { return spiCsCpol.Put(&r.Register, v) }
func (r *SpiCs) GetCpha() uint32           { return spiCsCpha.Get(&r.Register) }
func (r *SpiCs) PutCpha(v uint32) error    { return spiCsCpha.Put(&r.Register, v) }
func (r *SpiCs) GetCs() uint32             { return spiCsCs.Get(&r.Register) }
func (r *SpiCs) PutCs(v uint32) error      { return spiCsCs.Put(&r.Register, v) }

type SpiClk struct{ reg.Register }

func (r *SpiClk) GetCdiv() uint32        { return spiClkCdiv.Get(&r.Register) }
func (r *SpiClk) PutCdiv(v uint32) error { return spiClkCdiv.Put(&r.Register, v) }

type SpiDlen struct{ reg.Register }

func (r *SpiDlen) GetLen() uint32        { return spiDlenLen.Get(&r.Register) }
func (r *SpiDlen) PutLen(v uint32) error { return spiDlenLen.Put(&r.Register, v) }

type SpiLtoh struct{ reg.Register }

func (r *SpiLtoh) GetToh() uint32        { return spiLtohToh.Get(&r.Register) }
func (r *SpiLtoh) PutToh(v uint32) error { return spiLtohToh.Put(&r.Register, v) }

type SpiDc struct{ reg.Register }

func (r *SpiDc) GetRpanic() uint32        { return spiDcRpanic.Get(&r.Register) }
func (r *SpiDc) PutRpanic(v uint32) error { return spiDcRpanic.Put(&r.Register, v) }
func (r *SpiDc) GetRdreq() uint32         { return spiDcRdreq.Get(&r.Register) }
func (r *SpiDc) PutRdreq(v uint32) error  { return spiDcRdreq.Put(&r.Register, v) }
func (r *SpiDc) GetTpanic() uint32        { return spiDcTpanic.Get(&r.Register) }
func (r *SpiDc) PutTpanic(v uint32) error { return spiDcTpanic.Put(&r.Register, v) }
func (r *SpiDc) GetTdreq() uint32         { return spiDcTdreq.Get(&r.Register) }
func (r *SpiDc) PutTdreq(v uint32) error  { return spiDcTdreq.Put(&r.Register, v) }

// Spi0 is an SPI0-style master.
type Spi0 struct {
	Unit int
	Cs   SpiCs
	// Fifo reads pop the RX FIFO and writes push the TX FIFO, so it's never
	// part of GrabRegs or PushRegs.
	Fifo reg.Register
	Clk  SpiClk
	Dlen SpiDlen
	Ltoh SpiLtoh
	Dc   SpiDc
}

// NewSpi0 maps SPI unit: 0 everywhere, 3..6 as well on RPi4.
func NewSpi0(m Mapper, unit int) (*Spi0, error) {
	plat := m.Platform()
	if err := plat.RequireRPi4OrEarlier(); err != nil {
		return nil, err
	}
	switch {
	case unit == 0:
	case unit >= 3 && unit <= 6 && plat.Soc == BCM2711:
	case plat.Soc == BCM2711:
		return nil, reg.Rangef("spi unit %d not in {0,3,4,5,6}", unit)
	default:
		return nil, reg.Rangef("spi unit %d not in {0} on %s", unit, plat.Soc.Board())
	}
	w, err := m.MemBlock(SPI0_DOC_BASE+uint32(unit)*SPI0_UNIT_DELTA, 6)
	if err != nil {
		return nil, err
	}
	s := &Spi0{Unit: unit}
	err = bind(w,
		at{&s.Cs.Register, 0x00},
		at{&s.Fifo, 0x04},
		at{&s.Clk.Register, 0x08},
		at{&s.Dlen.Register, 0x0c},
		at{&s.Ltoh.Register, 0x10},
		at{&s.Dc.Register, 0x14},
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Spi0) Regs() []reg.Named {
	return []reg.Named{
		{Name: "Cs", Reg: &s.Cs.Register, Fields: spiCsFields, Reset: 0x00041000},
		{Name: "Fifo", Reg: &s.Fifo, Fields: spiFifoFields, NoBulk: true},
		{Name: "Clk", Reg: &s.Clk.Register, Fields: []reg.Field{spiClkCdiv}},
		{Name: "Dlen", Reg: &s.Dlen.Register, Fields: []reg.Field{spiDlenLen}},
		{Name: "Ltoh", Reg: &s.Ltoh.Register, Fields: []reg.Field{spiLtohToh}, Reset: 0x1},
		{Name: "Dc", Reg: &s.Dc.Register, Fields: spiDcFields, Reset: 0x30201020},
	}
}

func (s *Spi0) GrabRegs()     { grabAll(s.Regs()) }
func (s *Spi0) PushRegs()     { pushAll(s.Regs()) }
func (s *Spi0) InitPutReset() { resetAll(s.Regs()) }
