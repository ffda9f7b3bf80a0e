// Package reg models 32-bit memory-mapped hardware registers.
//
// A Register pairs one hardware word with a software shadow value. Nothing
// moves between the two unless Grab (hardware to shadow) or Push (shadow to
// hardware) is called, so a caller always knows exactly when hardware I/O
// happens. Field access only ever touches the shadow.
package reg

// Register is one 32-bit hardware word plus its shadow. The zero value is an
// unbound register; InitAddr must be called before Read, Write, Grab or Push.
type Register struct {
	win    Window
	word   uint32
	shadow uint32
}

// InitAddr binds the register to word offset word of w. A register can only be
// bound once.
func (r *Register) InitAddr(w Window, word uint32) error {
	if r.win != nil {
		return Domainf("register already bound at word 0x%x", r.word)
	}
	if w == nil {
		return Domainf("nil window for word 0x%x", word)
	}
	r.win = w
	r.word = word
	return nil
}

// Bound reports whether InitAddr has been called.
func (r *Register) Bound() bool { return r.win != nil }

// Addr is the register's word offset within its window.
func (r *Register) Addr() uint32 { return r.word }

// Read returns the live hardware value. Some status registers change state
// when read; that's documented on the field, not here.
func (r *Register) Read() uint32 { return r.win.Load(r.word) }

// Write stores v to hardware. The shadow is untouched.
func (r *Register) Write(v uint32) { r.win.Store(r.word, v) }

// Get returns the shadow value.
func (r *Register) Get() uint32 { return r.shadow }

// Put sets the shadow value.
func (r *Register) Put(v uint32) { r.shadow = v }

// Grab copies hardware into the shadow.
func (r *Register) Grab() { r.shadow = r.Read() }

// Push copies the shadow to hardware.
func (r *Register) Push() { r.Write(r.shadow) }

// GetField extracts (shadow >> pos) & mask.
func (r *Register) GetField(pos uint, mask uint32) uint32 {
	return (r.shadow >> pos) & mask
}

// PutField inserts v at pos in the shadow. It fails with a RangeError, leaving
// the shadow unchanged, if v doesn't fit in mask.
func (r *Register) PutField(pos uint, mask uint32, v uint32) error {
	if v > mask {
		return Rangef("value 0x%x exceeds field mask 0x%x", v, mask)
	}
	r.shadow = (r.shadow &^ (mask << pos)) | (v << pos)
	return nil
}
