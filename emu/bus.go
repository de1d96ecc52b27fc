package emu

// Bus is the single owner of every memory and I/O device: the four slots,
// the VDP, the PSG, the PPI, and (when present) the disk-BIOS extension
// registry. The CPU talks to guest memory and ports only through Bus,
// which keeps the slot/VDP/PSG/PPI graph a tree rather than a web of
// shared pointers.
type Bus struct {
	slots [4]*Slot
	ppi   *PPI
	vdp   *VDP
	psg   *PSG

	joystickFire bool

	extensions *ExtensionRegistry
}

// NewBus assembles a Bus from its already-constructed devices. Slot 0
// conventionally carries the MSX BIOS ROM; callers fill in the remaining
// slots with cartridge ROM, disk ROM, or RAM as the configuration demands.
func NewBus(slots [4]*Slot, ppi *PPI, vdp *VDP, psg *PSG, extensions *ExtensionRegistry) *Bus {
	return &Bus{slots: slots, ppi: ppi, vdp: vdp, psg: psg, extensions: extensions}
}

// Slot returns the backing memory component currently plugged into one of
// the four hardware slots (not to be confused with a page's active slot
// selection), for ROM-patching and inspection purposes.
func (b *Bus) Slot(n int) *Slot { return b.slots[n] }

// pageSlot reports which of the four slots page p (0-3) is currently wired
// to, per the PPI's primary slot-select register.
func (b *Bus) pageSlot(page uint8) uint8 {
	cfg := b.ppi.PrimarySlotConfig()
	return (cfg >> (page * 2)) & 0x03
}

// Fetch and Read are identical on this bus (no separate opcode-fetch
// behavior to model); Fetch exists because go-chip-z80's Bus interface
// distinguishes instruction fetches from data reads.
func (b *Bus) Fetch(addr uint16) uint8 { return b.Read(addr) }

func (b *Bus) Read(addr uint16) uint8 {
	page := uint8(addr >> 14)
	return b.slots[b.pageSlot(page)].Read(addr)
}

func (b *Bus) Write(addr uint16, val uint8) {
	page := uint8(addr >> 14)
	b.slots[b.pageSlot(page)].Write(addr, val)
}

// ReadByte/WriteByte satisfy MemoryAccess, the view disk-BIOS trap handlers
// use; they are identical to Read/Write, just named for that narrower role.
func (b *Bus) ReadByte(addr uint16) uint8         { return b.Read(addr) }
func (b *Bus) WriteByte(addr uint16, value uint8) { b.Write(addr, value) }

// SetJoystickFireAsserted feeds the host's fire-button state into the
// keyboard/joystick OR-combine the PPI implements on port B row 8.
func (b *Bus) SetJoystickFireAsserted(asserted bool) { b.joystickFire = asserted }

// In dispatches an I/O port read to the owning device, per the fixed port
// map: 0x98/0x99 VDP, 0xA0-0xA2 PSG, 0xA8-0xAB PPI. Unmapped ports read
// as 0xFF, matching an MSX bus with nothing pulling the line low.
func (b *Bus) In(addr uint8) uint8 {
	switch addr {
	case 0x98:
		return b.vdp.ReadData()
	case 0x99:
		return b.vdp.ReadControl()
	case 0xA2:
		return b.psg.ReadData()
	case 0xA8:
		return b.ppi.ReadPortA()
	case 0xA9:
		return b.ppi.ReadPortB(b.joystickFire)
	case 0xAA:
		return b.ppi.ReadPortC()
	}
	return 0xFF
}

// Out dispatches an I/O port write to the owning device.
func (b *Bus) Out(addr uint8, val uint8) {
	switch addr {
	case 0x98:
		b.vdp.WriteData(val)
	case 0x99:
		b.vdp.WriteControl(val)
	case 0xA0:
		b.psg.SelectRegister(val)
	case 0xA1:
		b.psg.WriteData(val)
	case 0xA8:
		b.ppi.WritePortA(val)
	case 0xAA:
		b.ppi.WritePortC(val)
	case 0xAB:
		b.ppi.WriteControl(val)
	}
}

// ExtensionRegistry exposes the disk-BIOS trap registry for the CPU
// collaborator to dispatch `ED nn` opcodes against.
func (b *Bus) ExtensionRegistry() *ExtensionRegistry { return b.extensions }
