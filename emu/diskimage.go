package emu

import (
	"fmt"

	"github.com/spf13/afero"
)

const (
	SectorSize = 512

	Media360K = 0xF8
	Media720K = 0xF9

	size360K = 368640
	size720K = 737280
)

// DiskGeometry describes a FAT12 volume's physical layout.
type DiskGeometry struct {
	MediaType       uint8
	TotalSectors    uint16
	SectorsPerTrack uint16
	Tracks          uint16
	Sides           uint8
}

func geometryFor(media uint8) DiskGeometry {
	switch media {
	case Media360K:
		return DiskGeometry{MediaType: Media360K, TotalSectors: size360K / SectorSize, SectorsPerTrack: 9, Tracks: 80, Sides: 1}
	default:
		return DiskGeometry{MediaType: Media720K, TotalSectors: size720K / SectorSize, SectorsPerTrack: 9, Tracks: 80, Sides: 2}
	}
}

// DiskImage is a raw, sequential sector-addressable FAT12 volume image.
type DiskImage struct {
	geometry DiskGeometry
	data     []byte
}

// LoadDiskImage validates the byte length against the known media sizes
// and wraps it as a DiskImage. The media type is derived from the size
// alone; the boot sector is not inspected.
func LoadDiskImage(bytes []byte) (*DiskImage, error) {
	var media uint8
	switch len(bytes) {
	case size360K:
		media = Media360K
	case size720K:
		media = Media720K
	default:
		return nil, fmt.Errorf("disk image: unsupported size %d bytes", len(bytes))
	}
	return &DiskImage{geometry: geometryFor(media), data: bytes}, nil
}

// NewEmptyDiskImage creates a freshly formatted image: a minimal BPB in
// the boot sector, both FAT copies seeded with the media-descriptor
// cluster markers, and the data region filled with 0xFF.
func NewEmptyDiskImage(media uint8) (*DiskImage, error) {
	if media != Media360K && media != Media720K {
		return nil, fmt.Errorf("disk image: unsupported media descriptor 0x%02X", media)
	}
	geom := geometryFor(media)
	size := int(geom.TotalSectors) * SectorSize
	data := make([]byte, size)
	for i := range data {
		data[i] = 0xFF
	}

	img := &DiskImage{geometry: geom, data: data}
	img.writeBootSectorBPB()

	dpb := defaultDPB(media)
	fatCopy := []byte{media, 0xFF, 0xFF}
	fatStart := int(dpb.FATStart) * SectorSize
	copy(data[fatStart:], fatCopy)
	secondFAT := fatStart + int(dpb.SectorsPerFAT)*SectorSize
	copy(data[secondFAT:], fatCopy)

	return img, nil
}

// writeBootSectorBPB fills in the subset of BPB fields GetDPB's BPB-parsing
// path reads back out.
func (d *DiskImage) writeBootSectorBPB() {
	b := d.data
	dpb := defaultDPB(d.geometry.MediaType)

	putU16(b[0x0B:], SectorSize)                 // bytes per sector
	b[0x0D] = uint8(1 << dpb.ClusterShift)        // sectors per cluster
	putU16(b[0x0E:], 1)                           // reserved sectors
	b[0x10] = dpb.FATCopies                       // number of FATs
	putU16(b[0x11:], dpb.DirEntries)              // root dir entries
	putU16(b[0x13:], d.geometry.TotalSectors)     // total sectors
	b[0x15] = d.geometry.MediaType                // media descriptor
	putU16(b[0x16:], uint16(dpb.SectorsPerFAT))   // sectors per FAT
	putU16(b[0x18:], d.geometry.SectorsPerTrack)  // sectors per track
	putU16(b[0x1A:], uint16(d.geometry.Sides))    // number of sides
}

func putU16(b []byte, v uint16) {
	b[0] = uint8(v)
	b[1] = uint8(v >> 8)
}

func getU16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

// LoadDiskImageFile reads a disk image through an afero filesystem and
// wraps it with LoadDiskImage. fs is injected rather than assumed to be the
// OS filesystem so callers can substitute afero.NewMemMapFs() in tests or
// layer read-only/union filesystems without this package knowing about it.
func LoadDiskImageFile(fs afero.Fs, path string) (*DiskImage, error) {
	bytes, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("disk image: %w", err)
	}
	return LoadDiskImage(bytes)
}

func (d *DiskImage) GetMediaType() uint8        { return d.geometry.MediaType }
func (d *DiskImage) GetTotalSectors() uint16    { return d.geometry.TotalSectors }
func (d *DiskImage) GetSectorsPerTrack() uint16 { return d.geometry.SectorsPerTrack }
func (d *DiskImage) GetTracks() uint16          { return d.geometry.Tracks }
func (d *DiskImage) GetSides() uint8            { return d.geometry.Sides }

// sectorOffset converts a logical sector number to a byte offset using the
// track/side/sector-on-track CHS decomposition from spec §4.8.
func (d *DiskImage) sectorOffset(logical uint16) int {
	spt := int(d.geometry.SectorsPerTrack)
	sides := int(d.geometry.Sides)
	perCylinder := spt * sides

	track := int(logical) / perCylinder
	rem := int(logical) % perCylinder
	side := rem / spt
	sectorOnTrack := rem % spt

	return (track*sides*spt + side*spt + sectorOnTrack) * SectorSize
}

func (d *DiskImage) ReadSectors(start uint16, count uint8) ([]byte, error) {
	if int(start)+int(count) > int(d.geometry.TotalSectors) {
		return nil, DiskErrorInvalidSector
	}
	offset := d.sectorOffset(start)
	length := int(count) * SectorSize
	if offset+length > len(d.data) {
		return nil, DiskErrorInvalidSector
	}
	out := make([]byte, length)
	copy(out, d.data[offset:offset+length])
	return out, nil
}

func (d *DiskImage) WriteSectors(start uint16, bytes []byte) error {
	offset := d.sectorOffset(start)
	if offset+len(bytes) > len(d.data) {
		return DiskErrorInvalidSector
	}
	copy(d.data[offset:], bytes)
	return nil
}

// BootSectorBPB parses the subset of BPB fields GETDPB needs directly from
// sector 0, preferred over the static per-media defaults when available.
type BootSectorBPB struct {
	BytesPerSector  uint16
	SectorsPerClust uint8
	ReservedSectors uint16
	FATCopies       uint8
	RootDirEntries  uint16
	TotalSectors    uint16
	MediaType       uint8
	SectorsPerFAT   uint16
	SectorsPerTrack uint16
	Sides           uint16
}

// ParseBootSectorBPB reads the BPB fields from a disk image's boot sector.
// It returns an error if the media descriptor byte is not one this core
// recognizes, so callers can fall back to the static defaults.
func (d *DiskImage) ParseBootSectorBPB() (BootSectorBPB, error) {
	b := d.data
	if len(b) < 0x1C {
		return BootSectorBPB{}, fmt.Errorf("disk image: boot sector too short")
	}
	bpb := BootSectorBPB{
		BytesPerSector:  getU16(b[0x0B:]),
		SectorsPerClust: b[0x0D],
		ReservedSectors: getU16(b[0x0E:]),
		FATCopies:       b[0x10],
		RootDirEntries:  getU16(b[0x11:]),
		TotalSectors:    getU16(b[0x13:]),
		MediaType:       b[0x15],
		SectorsPerFAT:   getU16(b[0x16:]),
		SectorsPerTrack: getU16(b[0x18:]),
		Sides:           getU16(b[0x1A:]),
	}
	if bpb.MediaType != Media360K && bpb.MediaType != Media720K {
		return BootSectorBPB{}, fmt.Errorf("disk image: unrecognized media descriptor 0x%02X", bpb.MediaType)
	}
	return bpb, nil
}
