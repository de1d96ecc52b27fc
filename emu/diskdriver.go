package emu

// DiskParameterBlock is the 18-byte structure DOS's GETDPB call fills in at
// the caller-supplied address, one per media type, per spec §4.7.
type DiskParameterBlock struct {
	MediaType       uint8
	BytesPerSector  uint16
	DirMask         uint8
	DirShift        uint8
	ClusterMask     uint8
	ClusterShift    uint8
	FATStart        uint16
	FATCopies       uint8
	DirEntries      uint16
	DataStart       uint16
	Clusters        uint16
	SectorsPerFAT   uint8
	DirStart        uint16
}

// defaultDPB returns the static parameter block for a media descriptor when
// the image's own boot sector doesn't parse as a recognized BPB. The
// cluster count, FAT size, and directory/data start sectors come from
// spec's literal default table; the remaining fields are constant across
// both supported media types.
func defaultDPB(media uint8) DiskParameterBlock {
	dpb := DiskParameterBlock{
		MediaType:      media,
		BytesPerSector: SectorSize,
		DirMask:        0x0F,
		DirShift:       4,
		ClusterMask:    0x01,
		ClusterShift:   1,
		FATStart:       1,
		FATCopies:      2,
		DirEntries:     112,
	}
	switch media {
	case Media360K:
		dpb.Clusters = 354
		dpb.SectorsPerFAT = 2
		dpb.DirStart = 5
		dpb.DataStart = 12
	default:
		dpb.Clusters = 712
		dpb.SectorsPerFAT = 3
		dpb.DirStart = 7
		dpb.DataStart = 14
	}
	return dpb
}

// dpbFromImage prefers the disk image's own boot-sector BPB over the static
// default, falling back when the image carries an unrecognized media byte.
func dpbFromImage(img *DiskImage) DiskParameterBlock {
	bpb, err := img.ParseBootSectorBPB()
	if err != nil {
		return defaultDPB(img.GetMediaType())
	}
	dpb := defaultDPB(bpb.MediaType)
	dpb.BytesPerSector = bpb.BytesPerSector
	dpb.FATCopies = bpb.FATCopies
	dpb.DirEntries = bpb.RootDirEntries
	dpb.SectorsPerFAT = uint8(bpb.SectorsPerFAT)
	dpb.DirStart = bpb.ReservedSectors + uint16(bpb.FATCopies)*bpb.SectorsPerFAT
	dpb.DataStart = dpb.DirStart + (bpb.RootDirEntries*32+bpb.BytesPerSector-1)/bpb.BytesPerSector
	return dpb
}

// WriteDPB serializes a parameter block into guest memory starting at
// addr+1, matching the MSX-DOS DPB layout (byte 0 of the caller's buffer is
// the drive number, left untouched here).
func WriteDPB(mem MemoryAccess, addr uint16, dpb DiskParameterBlock) {
	w8 := func(off uint16, v uint8) { mem.WriteByte(addr+off, v) }
	w16 := func(off uint16, v uint16) {
		mem.WriteByte(addr+off, uint8(v))
		mem.WriteByte(addr+off+1, uint8(v>>8))
	}
	w8(1, dpb.MediaType)
	w16(2, dpb.BytesPerSector)
	w8(4, dpb.DirMask)
	w8(5, dpb.DirShift)
	w8(6, dpb.ClusterMask)
	w8(7, dpb.ClusterShift)
	w16(8, dpb.FATStart)
	w8(10, dpb.FATCopies)
	w8(11, uint8(dpb.DirEntries))
	w16(12, dpb.DataStart)
	w16(14, dpb.Clusters)
	w8(16, dpb.SectorsPerFAT)
	w16(17, dpb.DirStart)
}

// mtoffDelayCycles is the scheduled motor-off delay MTOFF arms, per spec's
// "~2300 ticks" note.
const mtoffDelayCycles = 2300

// DiskDriver implements the disk-BIOS CPU-trap extension handlers described
// in spec §4.7. It owns no CPU or bus state of its own beyond the drive set
// and the per-instance CHOICE string-address table the ROM patcher fills in.
type DiskDriver struct {
	drives *DiskDriveSet

	// choiceStringAddresses maps a disk-BIOS routine's entry address (the
	// jump-table slot's original target, i.e. the trapping ED byte's own
	// address, available at trap time as ExtPC) to the guest address of
	// its CHOICE help string.
	choiceStringAddresses map[uint16]uint16
}

func NewDiskDriver(drives *DiskDriveSet) *DiskDriver {
	return &DiskDriver{
		drives:                drives,
		choiceStringAddresses: make(map[uint16]uint16),
	}
}

// SetChoiceString registers the CHOICE help-string address for the routine
// entered at routineAddr, populated by the ROM patcher once it knows where
// each trapped routine originally lived.
func (d *DiskDriver) SetChoiceString(routineAddr uint16, stringAddr uint16) {
	d.choiceStringAddresses[routineAddr] = stringAddr
}

// Extension opcodes, per spec §4.6/§4.7.
const (
	ExtINIHRD = 0xE0
	ExtDRIVES = 0xE2
	ExtDSKIO  = 0xE4
	ExtDSKCHG = 0xE5
	ExtGETDPB = 0xE6
	ExtCHOICE = 0xE7
	ExtDSKFMT = 0xE8
	ExtDSKSTP = 0xE9
	ExtMTOFF  = 0xEA
)

// RegisterAll wires every disk-BIOS trap opcode this driver implements into
// registry.
func (d *DiskDriver) RegisterAll(registry *ExtensionRegistry) {
	registry.Register(ExtINIHRD, d)
	registry.Register(ExtDRIVES, d)
	registry.Register(ExtDSKIO, d)
	registry.Register(ExtDSKCHG, d)
	registry.Register(ExtGETDPB, d)
	registry.Register(ExtCHOICE, d)
	registry.Register(ExtDSKFMT, d)
	registry.Register(ExtDSKSTP, d)
	registry.Register(ExtMTOFF, d)
}

func (d *DiskDriver) HandleExtension(state *CPUExtensionState, mem MemoryAccess) bool {
	switch state.ExtNum {
	case ExtINIHRD:
		return d.handleINIHRD(state, mem)
	case ExtDRIVES:
		return d.handleDRIVES(state, mem)
	case ExtDSKIO:
		return d.handleDSKIO(state, mem)
	case ExtDSKCHG:
		return d.handleDSKCHG(state, mem)
	case ExtGETDPB:
		return d.handleGETDPB(state, mem)
	case ExtCHOICE:
		return d.handleCHOICE(state, mem)
	case ExtDSKFMT:
		return d.handleDSKFMT(state, mem)
	case ExtDSKSTP:
		return d.handleDSKSTP(state, mem)
	case ExtMTOFF:
		return d.handleMTOFF(state, mem)
	}
	return false
}

// diskWorkAreaSentinel is the fixed scratch address INIHRD reports as the
// driver's private RAM work area.
const diskWorkAreaSentinel = 0xF380

// handleINIHRD performs driver-level hardware init and reports a safe RAM
// work-area address in HL.
func (d *DiskDriver) handleINIHRD(state *CPUExtensionState, mem MemoryAccess) bool {
	d.drives.AllMotorsOff()
	state.HL = diskWorkAreaSentinel
	state.SetCarryFlag(false)
	return true
}

// handleDRIVES reports the number of floppy drives in register L.
func (d *DiskDriver) handleDRIVES(state *CPUExtensionState, mem MemoryAccess) bool {
	state.SetL(uint8(d.drives.DriveCount()))
	return true
}

// Guest-visible DOS error codes DSKIO returns in A with carry set.
const (
	dosErrNotReady  = 0x02
	dosErrSeekError = 0x08
	dosErrDiskError = 0x0C
)

// handleDSKIO reads or writes sectors for DOS. Register layout on entry:
//
//	A.bit0  drive number
//	B       sector count
//	DE      logical start sector
//	HL      memory destination
//	Cy      clear=read, set=write
//
// On a successful read: count*512 bytes land at HL, A is set to the media
// descriptor, B is cleared, and Cy is cleared. Writes always fail: disks
// are read-preferred and write-protected by default, so a write request
// returns Cy set with A=0.
func (d *DiskDriver) handleDSKIO(state *CPUExtensionState, mem MemoryAccess) bool {
	drive := state.A & 0x01
	count := state.B()
	sector := state.DE
	addr := state.HL
	write := state.CarryFlag()

	if write {
		state.SetCarryFlag(true)
		state.A = 0
		return true
	}

	data, err := d.drives.ReadSectors(drive, sector, count)
	if err != nil {
		state.SetCarryFlag(true)
		state.A = dskioError(err)
		return true
	}
	for i, b := range data {
		mem.WriteByte(addr+uint16(i), b)
	}

	state.A = d.drives.Image(drive).GetMediaType()
	state.SetB(0)
	state.SetCarryFlag(false)
	return true
}

func dskioError(err error) uint8 {
	switch err {
	case DiskErrorNoDisk, DiskErrorInvalidDrive:
		return dosErrNotReady
	case DiskErrorInvalidSector:
		return dosErrSeekError
	default:
		return dosErrDiskError
	}
}

// handleDSKCHG reports whether the media in a drive has changed since the
// last query. Register layout on entry: A.bit0=drive number. On return:
// B=0xFF if changed, B=0x00 otherwise; Cy clear. Cy set with A=0x02 when
// the drive holds no disk.
func (d *DiskDriver) handleDSKCHG(state *CPUExtensionState, mem MemoryAccess) bool {
	drive := state.A & 0x01
	if !d.drives.HasDisk(drive) {
		state.SetCarryFlag(true)
		state.A = dosErrNotReady
		return true
	}
	changed, known := d.drives.DiskChanged(drive)
	state.SetCarryFlag(false)
	if known && changed {
		state.SetB(0xFF)
	} else {
		state.SetB(0x00)
	}
	return true
}

// handleGETDPB fills in the 18-byte disk parameter block at HL+1 for the
// media descriptor in register C (or B, when B names a recognized media
// and C does not), preferring the drive's own boot-sector BPB over the
// static default table when a matching disk is present.
func (d *DiskDriver) handleGETDPB(state *CPUExtensionState, mem MemoryAccess) bool {
	media := state.C()
	if media != Media360K && media != Media720K && state.B() >= Media360K {
		media = state.B()
	}
	if media != Media360K && media != Media720K {
		state.SetCarryFlag(true)
		return true
	}
	addr := state.HL

	var dpb DiskParameterBlock
	if img := d.driveImageForMedia(media); img != nil {
		dpb = dpbFromImage(img)
	} else {
		dpb = defaultDPB(media)
	}
	WriteDPB(mem, addr, dpb)
	state.A = dpb.MediaType
	state.BC = dpb.DirStart
	state.DE = 0xFFFF
	state.SetCarryFlag(false)
	return true
}

// driveImageForMedia finds an inserted image matching the requested media
// descriptor, so GETDPB can read the real BPB instead of guessing.
func (d *DiskDriver) driveImageForMedia(media uint8) *DiskImage {
	for drive := uint8(0); drive < 2; drive++ {
		if img := d.drives.Image(drive); img != nil && img.GetMediaType() == media {
			return img
		}
	}
	return nil
}

// handleCHOICE returns the address of a drive-format help string for the
// DOS FORMAT command's menu, keyed by the calling routine's entry address
// (the patched ED byte's address, which is where the jump table sends
// control). Returns HL=0 when no string is registered for this routine,
// matching vanilla DOS's "no format choices" behavior for drivers that
// don't offer a format menu.
func (d *DiskDriver) handleCHOICE(state *CPUExtensionState, mem MemoryAccess) bool {
	addr, ok := d.choiceStringAddresses[state.ExtPC]
	if !ok {
		state.HL = 0
		return true
	}
	state.HL = addr
	return true
}

// handleDSKFMT always refuses: this core is read-preferred and every disk
// is write-protected by default, so formatting is unconditionally rejected.
func (d *DiskDriver) handleDSKFMT(state *CPUExtensionState, mem MemoryAccess) bool {
	state.SetCarryFlag(true)
	state.A = 0
	return true
}

// handleDSKSTP stops every drive's motor immediately.
func (d *DiskDriver) handleDSKSTP(state *CPUExtensionState, mem MemoryAccess) bool {
	d.drives.AllMotorsOff()
	return true
}

// handleMTOFF schedules the last-accessed drive's motor to stop after a
// short delay, rather than cutting it immediately as DSKSTP does.
func (d *DiskDriver) handleMTOFF(state *CPUExtensionState, mem MemoryAccess) bool {
	d.drives.ScheduleMotorOff(d.drives.LastAccessedDrive(), mtoffDelayCycles)
	return true
}
