package reg

import (
	"sort"
	"strings"
)

// Access is the direction a field can be used in.
type Access uint8

const (
	RW Access = iota
	RO        // status or constant; no Put accessor
	WO        // password gate or strobe; no Get accessor
)

func (a Access) String() string {
	switch a {
	case RO:
		return "RO"
	case WO:
		return "WO"
	}
	return "RW"
}

// Field describes a bit field in a register, as given in the vendor's
// peripheral documentation.
type Field struct {
	Name   string
	Pos    uint
	Width  uint
	Access Access
}

// Mask is (1<<Width)-1.
func (f Field) Mask() uint32 {
	if f.Width >= 32 {
		return 0xffffffff
	}
	return (1 << f.Width) - 1
}

// Get extracts the field from r's shadow.
func (f Field) Get(r *Register) uint32 { return r.GetField(f.Pos, f.Mask()) }

// Put inserts v into r's shadow.
func (f Field) Put(r *Register, v uint32) error {
	if v > f.Mask() {
		return Rangef("%s: value 0x%x exceeds %d-bit field (max 0x%x)", f.Name, v, f.Width, f.Mask())
	}
	return r.PutField(f.Pos, f.Mask(), v)
}

// ValidateFields checks that every field fits in 32 bits and that no two
// fields overlap.
func ValidateFields(fields []Field) error {
	fs := append([]Field(nil), fields...)
	sort.Slice(fs, func(i, j int) bool { return fs[i].Pos < fs[j].Pos })
	var used uint32
	for _, f := range fs {
		if f.Width == 0 || f.Pos+f.Width > 32 {
			return Rangef("%s: bits [%d+%d] outside register", f.Name, f.Pos, f.Width)
		}
		m := f.Mask() << f.Pos
		if used&m != 0 {
			return Rangef("%s: bits [%d+%d] overlap another field", f.Name, f.Pos, f.Width)
		}
		used |= m
	}
	return nil
}

// Named describes one register of a feature for generic tooling.
type Named struct {
	Name   string
	Reg    *Register
	Fields []Field
	// Reset is the documented power-on value.
	Reset uint32
	// Access limits bulk transfers: RO registers are only grabbed, WO
	// registers only pushed.
	Access Access
	// NoBulk marks FIFO and strobe registers that bulk grab/push must skip,
	// since touching them consumes or corrupts hardware state.
	NoBulk bool
}

// Field looks up a field by name, ignoring case.
func (n Named) Field(name string) (Field, bool) {
	for _, f := range n.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Field{}, false
}
