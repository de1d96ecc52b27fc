package emu

// Fixed offsets for a standard MSX-DOS disk ROM's BIOS routines, relative
// to the start of the ROM's own data (i.e. already converted from the
// absolute 0x4000-based guest address the routine lives at). The one
// exception is diskROMSignatureOffset, which is the guest address of the
// signature (ROM offset 0).
const (
	diskROMSignatureOffset = 0x4000
	diskROMINIHRDOffset    = 0x3786
	diskROMDRIVESOffset    = 0x37B6
	diskROMChoiceStrOffset = 0x3893
	diskROMJumpTableOffset = 0x0010
)

// diskROMJumpTableEntry describes one 3-byte `JP nnnn` slot in the
// standard disk-BIOS jump table, and the extension opcode that should
// replace its target routine.
type diskROMJumpTableEntry struct {
	slotOffset int
	extNum     uint8
	isChoice   bool
}

var diskROMJumpTable = []diskROMJumpTableEntry{
	{0, ExtDSKIO, false},
	{3, ExtDSKCHG, false},
	{6, ExtGETDPB, false},
	{9, ExtCHOICE, true},
	{12, ExtDSKFMT, false},
	{15, ExtMTOFF, false},
}

// HasDiskROMSignature reports whether slot carries a disk ROM, identified
// by the 0x41 0x42 signature bytes at guest offset 0x4000 (ROM offset 0,
// since slot 1's window starts at 0x4000).
func HasDiskROMSignature(slot *Slot) bool {
	raw := slot.Raw()
	return len(raw) >= 2 && raw[0] == 0x41 && raw[1] == 0x42
}

// PatchDiskROM rewrites a disk ROM's BIOS entry points in place so that
// INIHRD, DRIVES, and the six jump-table routines trap into driver
// instead of running the ROM's native disk code. It mutates slot's
// backing bytes directly and records the CHOICE routine's string-address
// mapping on driver.
func PatchDiskROM(slot *Slot, driver *DiskDriver) {
	raw := slot.Raw()
	if !HasDiskROMSignature(slot) {
		return
	}

	patchRoutine(raw, diskROMINIHRDOffset, ExtINIHRD)
	patchRoutine(raw, diskROMDRIVESOffset, ExtDRIVES)

	for _, entry := range diskROMJumpTable {
		jpOffset := diskROMJumpTableOffset + entry.slotOffset
		if jpOffset+2 >= len(raw) || raw[jpOffset] != 0xC3 {
			continue
		}
		destAddr := uint16(raw[jpOffset+1]) | uint16(raw[jpOffset+2])<<8
		if destAddr < 0x4000 || destAddr >= 0x8000 {
			continue
		}
		romOffset := int(destAddr - 0x4000)
		patchRoutine(raw, romOffset, entry.extNum)

		if entry.isChoice {
			driver.SetChoiceString(destAddr, diskROMChoiceStrOffset+0x4000)
		}
	}
}

// patchRoutine overwrites a 3-byte routine entry with `ED ext_num C9`,
// turning a call into that routine into a trap followed by a return.
func patchRoutine(raw []byte, offset int, extNum uint8) {
	if offset+2 >= len(raw) {
		return
	}
	raw[offset+0] = 0xED
	raw[offset+1] = extNum
	raw[offset+2] = 0xC9
}
