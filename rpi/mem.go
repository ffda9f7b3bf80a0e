package rpi

import (
	"os"
	"sync/atomic"
	"unsafe"

	mmap "github.com/edsrzf/mmap-go"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"github.com/Jon-Bright/rgpio/reg"
)

const (
	PAGE_SIZE    = 4096 // Theoretically, we could get this via whatever getconf does
	MEM_FILE     = "/dev/mem"
	GPIOMEM_FILE = "/dev/gpiomem"

	GPIO_DOC_BASE = 0x7e200000
)

// Mapper is the address-map service features are built on. MemBlock returns
// a window onto words 32-bit words of peripheral memory starting at the
// documentation address doc.
type Mapper interface {
	Platform() Platform
	MemBlock(doc uint32, words uint32) (reg.Window, error)
}

// arena is one mapping owned by an AddrMap. Windows refer to it rather than
// to raw memory, and it's only unmapped by AddrMap.Close.
type arena struct {
	phys uint64
	buf  mmap.MMap
}

func (a *arena) covers(phys uint64, size int) bool {
	return a.buf != nil && phys >= a.phys && phys+uint64(size) <= a.phys+uint64(len(a.buf))
}

func (a *arena) word(i uint32) *uint32 {
	return (*uint32)(unsafe.Pointer(&a.buf[i*4]))
}

type mmapWindow struct {
	a    *arena
	base uint32
}

func (w mmapWindow) Load(word uint32) uint32 {
	return atomic.LoadUint32(w.a.word(w.base + word))
}

func (w mmapWindow) Store(word uint32, v uint32) {
	atomic.StoreUint32(w.a.word(w.base+word), v)
}

type simPage [PAGE_SIZE / 4]uint32

// simWindow resolves every access through the page table, so windows onto
// overlapping simulated regions always agree.
type simWindow struct {
	am   *AddrMap
	phys uint64
}

func (w simWindow) Load(word uint32) uint32 {
	p, i := w.am.simWord(w.phys + uint64(word)*4)
	return p[i]
}

func (w simWindow) Store(word uint32, v uint32) {
	p, i := w.am.simWord(w.phys + uint64(word)*4)
	p[i] = v
}

// AddrMap maps peripheral memory on behalf of features. Mappings are cached
// and shared: every window onto the same physical word sees the same memory.
// It does no locking; one process, one goroutine owns the hardware.
type AddrMap struct {
	plat    Platform
	dev     string
	f       *os.File
	arenas  []*arena
	sim     map[uint64]*simPage
	log     *zap.Logger
	gpioMem bool
}

type Option func(*AddrMap)

// WithLogger sets the logger used to report mappings.
func WithLogger(l *zap.Logger) Option {
	return func(am *AddrMap) { am.log = l }
}

// WithDevice maps through dev instead of /dev/mem. With /dev/gpiomem only the
// GPIO block is reachable.
func WithDevice(dev string) Option {
	return func(am *AddrMap) { am.dev = dev }
}

// NewAddrMap opens the memory device for plat.
func NewAddrMap(plat Platform, opts ...Option) (*AddrMap, error) {
	am := &AddrMap{plat: plat, dev: MEM_FILE, log: zap.NewNop()}
	for _, o := range opts {
		o(am)
	}
	am.gpioMem = am.dev == GPIOMEM_FILE
	fd, err := unix.Open(am.dev, unix.O_RDWR|unix.O_SYNC|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, xerrors.Errorf("couldn't open %s: %w", am.dev, err)
	}
	am.f = os.NewFile(uintptr(fd), am.dev)
	am.log.Debug("opened memory device", zap.String("dev", am.dev), zap.Stringer("platform", plat))
	return am, nil
}

// NewSimAddrMap returns an AddrMap backed by zeroed process memory, for
// running without hardware.
func NewSimAddrMap(plat Platform, opts ...Option) *AddrMap {
	am := &AddrMap{plat: plat, dev: "sim", log: zap.NewNop(), sim: map[uint64]*simPage{}}
	for _, o := range opts {
		o(am)
	}
	return am
}

func (am *AddrMap) Platform() Platform { return am.plat }

// Simulated reports whether the map is backed by process memory.
func (am *AddrMap) Simulated() bool { return am.sim != nil }

func (am *AddrMap) simWord(phys uint64) (*simPage, uint32) {
	pa := phys &^ (PAGE_SIZE - 1)
	p, ok := am.sim[pa]
	if !ok {
		p = new(simPage)
		am.sim[pa] = p
	}
	return p, uint32(phys-pa) / 4
}

// MemBlock implements Mapper.
func (am *AddrMap) MemBlock(doc uint32, words uint32) (reg.Window, error) {
	if doc%4 != 0 {
		return nil, reg.Rangef("address 0x%08x is not word aligned", doc)
	}
	if words == 0 {
		return nil, reg.Rangef("empty block at 0x%08x", doc)
	}
	phys, err := am.plat.PhysAddr(doc)
	if err != nil {
		return nil, err
	}
	if am.sim != nil {
		return simWindow{am, phys}, nil
	}
	if am.gpioMem {
		if doc < GPIO_DOC_BASE || doc+words*4 > GPIO_DOC_BASE+PAGE_SIZE {
			return nil, reg.Domainf("address 0x%08x is outside the GPIO block %s can map", doc, am.dev)
		}
		phys = uint64(doc - GPIO_DOC_BASE)
	}
	return am.window(phys, int(words)*4)
}

func (am *AddrMap) window(phys uint64, size int) (reg.Window, error) {
	if am.f == nil {
		return nil, reg.Domainf("address map is closed")
	}
	for _, a := range am.arenas {
		if a.covers(phys, size) {
			return mmapWindow{a, uint32(phys-a.phys) / 4}, nil
		}
	}
	mapAddr := phys &^ (PAGE_SIZE - 1)
	mapSize := int(phys-mapAddr) + size
	mapSize = (mapSize + PAGE_SIZE - 1) &^ (PAGE_SIZE - 1)
	mm, err := mmap.MapRegion(am.f, mapSize, mmap.RDWR, 0, int64(mapAddr))
	if err != nil {
		return nil, xerrors.Errorf("couldn't map region (%08X, %d): %w", phys, mapSize, err)
	}
	am.log.Debug("mapped region",
		zap.String("dev", am.dev),
		zap.Uint64("phys", mapAddr),
		zap.Int("size", mapSize))
	a := &arena{phys: mapAddr, buf: mm}
	am.arenas = append(am.arenas, a)
	return mmapWindow{a, uint32(phys-mapAddr) / 4}, nil
}

// Close unmaps everything. Windows handed out earlier must not be used
// afterwards.
func (am *AddrMap) Close() error {
	var err error
	for _, a := range am.arenas {
		if te := a.buf.Unmap(); te != nil && err == nil {
			err = xerrors.Errorf("couldn't unmap %08X: %w", a.phys, te)
		}
		a.buf = nil
	}
	am.arenas = nil
	if am.f != nil {
		if te := am.f.Close(); te != nil && err == nil {
			err = te
		}
		am.f = nil
	}
	return err
}
