package rpi

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/Jon-Bright/rgpio/reg"
	"golang.org/x/xerrors"
)

// Soc identifies the Raspberry Pi system-on-chip. Values are ordered by chip
// generation, so platform checks can compare them.
type Soc int

const (
	SocUnknown Soc = iota
	BCM2835        // RPi1, Zero
	BCM2836        // RPi2
	BCM2837        // RPi3, Zero 2
	BCM2711        // RPi4, 400, CM4
	BCM2712        // RPi5, 500, CM5 (GPIO via RP1)
)

var socNames = map[Soc]string{
	BCM2835: "BCM2835",
	BCM2836: "BCM2836",
	BCM2837: "BCM2837",
	BCM2711: "BCM2711",
	BCM2712: "BCM2712",
}

var socBoards = map[Soc]string{
	BCM2835: "RPi1",
	BCM2836: "RPi2",
	BCM2837: "RPi3",
	BCM2711: "RPi4",
	BCM2712: "RPi5",
}

func (s Soc) String() string {
	if n, ok := socNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Soc(%d)", int(s))
}

// Board is the board generation name used in error messages, e.g. "RPi4".
func (s Soc) Board() string {
	if n, ok := socBoards[s]; ok {
		return n
	}
	return "unknown"
}

// ParseSoc accepts board names (rpi0..rpi5) and chip names (bcm2835..bcm2712).
func ParseSoc(name string) (Soc, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "rpi0", "rpi1":
		return BCM2835, nil
	}
	for s, b := range socBoards {
		if n == strings.ToLower(b) || n == strings.ToLower(socNames[s]) {
			return s, nil
		}
	}
	return SocUnknown, reg.Rangef("unknown platform %q, want one of rpi0..rpi5 or bcm2835..bcm2712", name)
}

const (
	PERIPH_BASE_RPI  = 0x20000000
	PERIPH_BASE_RPI2 = 0x3f000000
	PERIPH_BASE_RPI4 = 0xfe000000
	PERIPH_BASE_RPI5 = 0x1f00000000 // RP1 peripherals on BCM2712

	// Addresses in the peripheral documentation are bus addresses in these
	// windows.
	DOC_BASE_BCM = 0x7e000000
	DOC_SIZE_BCM = 0x01000000
	DOC_BASE_RP1 = 0x40000000
	DOC_SIZE_RP1 = 0x00400000

	DT_REVISION_FILE = "/proc/device-tree/system/linux,revision"
)

// Platform is the detected (or simulated) hardware. It's resolved once at
// start-up and handed to everything that needs to check compatibility.
type Platform struct {
	Soc      Soc
	Revision uint32
	Model    string
}

func (p Platform) String() string {
	if p.Model == "" {
		return fmt.Sprintf("%v (%s)", p.Soc, p.Soc.Board())
	}
	return fmt.Sprintf("%s, %v", p.Model, p.Soc)
}

// SimPlatform returns a Platform for simulating the given SoC.
func SimPlatform(s Soc) Platform {
	return Platform{Soc: s, Model: "simulated " + s.Board()}
}

func (p Platform) requireRange(lo, hi Soc, what string) error {
	if p.Soc < lo || p.Soc > hi {
		return reg.Domainf("requires %s, platform is %v", what, p)
	}
	return nil
}

// RequireRPi5 fails unless the platform has the RP1 I/O controller.
func (p Platform) RequireRPi5() error {
	return p.requireRange(BCM2712, BCM2712, "RPi5")
}

// RequireRPi4OrEarlier fails unless the platform has the BCM GPIO block.
func (p Platform) RequireRPi4OrEarlier() error {
	return p.requireRange(BCM2835, BCM2711, "RPi4 or earlier")
}

// RequireRPi3OrEarlier fails unless the platform has the GPPUD pull sequencer.
func (p Platform) RequireRPi3OrEarlier() error {
	return p.requireRange(BCM2835, BCM2837, "RPi3 or earlier")
}

// RequireRPi4 fails unless the platform is a BCM2711.
func (p Platform) RequireRPi4() error {
	return p.requireRange(BCM2711, BCM2711, "RPi4")
}

// PhysAddr translates a documentation address into an ARM physical address.
func (p Platform) PhysAddr(doc uint32) (uint64, error) {
	if p.Soc == BCM2712 {
		if doc < DOC_BASE_RP1 || doc >= DOC_BASE_RP1+DOC_SIZE_RP1 {
			return 0, reg.Rangef("address 0x%08x not in RP1 space 0x%08x..0x%08x", doc, DOC_BASE_RP1, DOC_BASE_RP1+DOC_SIZE_RP1-1)
		}
		return PERIPH_BASE_RPI5 + uint64(doc-DOC_BASE_RP1), nil
	}
	var base uint64
	switch p.Soc {
	case BCM2835:
		base = PERIPH_BASE_RPI
	case BCM2836, BCM2837:
		base = PERIPH_BASE_RPI2
	case BCM2711:
		base = PERIPH_BASE_RPI4
	default:
		return 0, reg.Domainf("no address map for platform %v", p)
	}
	if doc < DOC_BASE_BCM || doc >= DOC_BASE_BCM+DOC_SIZE_BCM {
		return 0, reg.Rangef("address 0x%08x not in peripheral space 0x%08x..0x%08x", doc, DOC_BASE_BCM, DOC_BASE_BCM+DOC_SIZE_BCM-1)
	}
	return base + uint64(doc-DOC_BASE_BCM), nil
}

// Revision code fields, see
// https://www.raspberrypi.com/documentation/computers/raspberry-pi.html#new-style-revision-codes
var (
	revNewStyle  = reg.Field{Name: "NewStyle", Pos: 23, Width: 1, Access: reg.RO}
	revProcessor = reg.Field{Name: "Processor", Pos: 12, Width: 4, Access: reg.RO}
	revType      = reg.Field{Name: "Type", Pos: 4, Width: 8, Access: reg.RO}
	revRevision  = reg.Field{Name: "Revision", Pos: 0, Width: 4, Access: reg.RO}
)

var revProcessors = map[uint32]Soc{
	0: BCM2835,
	1: BCM2836,
	2: BCM2837,
	3: BCM2711,
	4: BCM2712,
}

var revTypes = map[uint32]string{
	0x00: "Model A",
	0x01: "Model B",
	0x02: "Model A+",
	0x03: "Model B+",
	0x04: "Pi 2 Model B",
	0x06: "Compute Module 1",
	0x08: "Pi 3 Model B",
	0x09: "Pi Zero",
	0x0a: "Compute Module 3",
	0x0c: "Pi Zero W",
	0x0d: "Pi 3 Model B+",
	0x0e: "Pi 3 Model A+",
	0x10: "Compute Module 3+",
	0x11: "Pi 4 Model B",
	0x12: "Pi Zero 2 W",
	0x13: "Pi 400",
	0x14: "Compute Module 4",
	0x15: "Compute Module 4S",
	0x17: "Pi 5",
	0x18: "Compute Module 5",
	0x19: "Pi 500",
	0x1a: "Compute Module 5 Lite",
}

// DecodeRevision works out the platform from a board revision code. Old-style
// codes (bit 23 clear) only ever appeared on BCM2835 boards.
func DecodeRevision(rev uint32) (Platform, error) {
	var r reg.Register
	r.Put(rev)
	if revNewStyle.Get(&r) == 0 {
		return Platform{Soc: BCM2835, Revision: rev, Model: fmt.Sprintf("Pi 1 (old-style revision %04x)", rev&0xffff)}, nil
	}
	soc, ok := revProcessors[revProcessor.Get(&r)]
	if !ok {
		return Platform{}, reg.Rangef("revision %06x has unknown processor %d", rev, revProcessor.Get(&r))
	}
	name, ok := revTypes[revType.Get(&r)]
	if !ok {
		name = fmt.Sprintf("type 0x%02x", revType.Get(&r))
	}
	return Platform{
		Soc:      soc,
		Revision: rev,
		Model:    fmt.Sprintf("%s v1.%d", name, revRevision.Get(&r)),
	}, nil
}

// Detect works out which Raspberry Pi we're running on. The device tree is
// tried first, then the VideoCore mailbox.
func Detect() (Platform, error) {
	rev, err := readRevisionFile(DT_REVISION_FILE)
	if err != nil {
		var merr error
		rev, merr = mboxRevision()
		if merr != nil {
			return Platform{}, xerrors.Errorf("couldn't detect RPi hardware (%v): %w", err, merr)
		}
	}
	return DecodeRevision(rev)
}

func readRevisionFile(name string) (uint32, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return 0, xerrors.Errorf("couldn't read revision: %w", err)
	}
	if len(b) != 4 {
		return 0, xerrors.Errorf("revision file got %d instead of 4 bytes", len(b))
	}
	return binary.BigEndian.Uint32(b), nil
}
