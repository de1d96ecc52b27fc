package emu

// SlotKind identifies the kind of backing a Slot provides.
type SlotKind int

const (
	SlotEmpty SlotKind = iota
	SlotROM
	SlotRAM
)

// pageSize is the size of one of the four address-space pages.
const pageSize = 0x4000

// Slot is one of the four hardware memory slots a page can be mapped to.
// It is logically 64 KiB regardless of how much real content it carries:
// reads and writes index the backing data modulo its length, so content
// shorter than 64 KiB mirrors across the window. Only an Empty slot (or
// one with no data) reads as 0xFF everywhere.
type Slot struct {
	kind SlotKind
	data []byte // nil for Empty
}

// NewEmptySlot returns a slot that reads 0xFF everywhere and discards writes.
func NewEmptySlot() *Slot {
	return &Slot{kind: SlotEmpty}
}

// NewROMSlot returns a ROM slot rounded up to a multiple of pageSize.
// Content shorter than the padded size is padded with 0xFF.
func NewROMSlot(rom []byte) *Slot {
	size := romPadSize(len(rom))
	data := make([]byte, size)
	for i := range data {
		data[i] = 0xFF
	}
	copy(data, rom)
	return &Slot{kind: SlotROM, data: data}
}

// romPadSize rounds up to the next multiple of pageSize, with a floor of one page.
func romPadSize(n int) int {
	if n == 0 {
		return pageSize
	}
	pages := (n + pageSize - 1) / pageSize
	return pages * pageSize
}

// NewRAMSlot returns a readable/writable slot of the given size in bytes.
func NewRAMSlot(size int) *Slot {
	return &Slot{kind: SlotRAM, data: make([]byte, size)}
}

// Read returns the byte at address within this slot's own window (0-based,
// already page-relative-free: slots are addressed with the full 16-bit
// guest address and index directly, since each slot mirrors across its
// whole window in multiples of its data length).
func (s *Slot) Read(addr uint16) uint8 {
	switch s.kind {
	case SlotEmpty:
		return 0xFF
	default:
		if len(s.data) == 0 {
			return 0xFF
		}
		return s.data[int(addr)%len(s.data)]
	}
}

// Write stores value at addr if the slot is writable; ROM and Empty slots discard it.
func (s *Slot) Write(addr uint16, value uint8) {
	if s.kind != SlotRAM || len(s.data) == 0 {
		return
	}
	s.data[int(addr)%len(s.data)] = value
}

func (s *Slot) Kind() SlotKind { return s.kind }

// Raw exposes the backing bytes directly; used by the disk-ROM patcher,
// which must rewrite specific ROM offsets in place.
func (s *Slot) Raw() []byte { return s.data }
