package reg

// Word offsets of the RP1 atomic access apertures. The same register appears
// at base (normal), base+0x1000 (xor), base+0x2000 (set) and base+0x3000
// (clear) bytes. Windows used with Atomic must cover all four.
const (
	FlipOffset = 0x1000 / 4
	SetOffset  = 0x2000 / 4
	ClrOffset  = 0x3000 / 4
)

// Atomic is a Register on the RPi5 RP1 I/O controller. Writes through the
// flip, set and clear apertures are applied by hardware without a
// read-modify-write cycle; don't emulate them in software.
type Atomic struct {
	Register
}

func (r *Atomic) AddrFlip() uint32 { return r.word + FlipOffset }
func (r *Atomic) AddrSet() uint32  { return r.word + SetOffset }
func (r *Atomic) AddrClr() uint32  { return r.word + ClrOffset }

// ReadPeek reads the register through the xor aperture. Per RP1
// documentation this returns the current value without the side effects
// (e.g. clearing edge detectors) a read of the normal address may have.
func (r *Atomic) ReadPeek() uint32 { return r.win.Load(r.AddrFlip()) }
func (r *Atomic) ReadSet() uint32  { return r.win.Load(r.AddrSet()) }
func (r *Atomic) ReadClr() uint32  { return r.win.Load(r.AddrClr()) }

// WriteFlip toggles the bits set in mask.
func (r *Atomic) WriteFlip(mask uint32) { r.win.Store(r.AddrFlip(), mask) }

// WriteSet sets the bits set in mask.
func (r *Atomic) WriteSet(mask uint32) { r.win.Store(r.AddrSet(), mask) }

// WriteClr clears the bits set in mask.
func (r *Atomic) WriteClr(mask uint32) { r.win.Store(r.AddrClr(), mask) }

func (r *Atomic) GrabPeek() { r.shadow = r.ReadPeek() }
func (r *Atomic) GrabSet()  { r.shadow = r.ReadSet() }
func (r *Atomic) GrabClr()  { r.shadow = r.ReadClr() }

// PushFlip writes the shadow as an xor mask.
func (r *Atomic) PushFlip() { r.WriteFlip(r.shadow) }

// PushSet writes the shadow as a mask of bits to set.
func (r *Atomic) PushSet() { r.WriteSet(r.shadow) }

// PushClr writes the shadow as a mask of bits to clear.
func (r *Atomic) PushClr() { r.WriteClr(r.shadow) }
