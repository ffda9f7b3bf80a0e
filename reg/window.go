package reg

// Window is a word-addressable view of one block of peripheral memory. Offsets
// are in 32-bit words from the start of the view. Implementations must perform
// each Load and Store as a single aligned 32-bit access; no caching.
type Window interface {
	Load(word uint32) uint32
	Store(word uint32, v uint32)
}

// Words is an in-process Window, used to simulate hardware when no real
// memory is mapped.
type Words []uint32

func (w Words) Load(word uint32) uint32 { return w[word] }

func (w Words) Store(word uint32, v uint32) { w[word] = v }
