package emu

import (
	"testing"

	"github.com/spf13/afero"
)

func TestLoadDiskImage_RejectsUnsupportedSize(t *testing.T) {
	if _, err := LoadDiskImage(make([]byte, 1234)); err == nil {
		t.Fatal("expected an error for a non-360K/720K image size")
	}
}

func TestNewEmptyDiskImage_RoundTripsThroughBPB(t *testing.T) {
	img, err := NewEmptyDiskImage(Media360K)
	if err != nil {
		t.Fatalf("NewEmptyDiskImage: %v", err)
	}
	bpb, err := img.ParseBootSectorBPB()
	if err != nil {
		t.Fatalf("ParseBootSectorBPB: %v", err)
	}
	if bpb.MediaType != Media360K {
		t.Errorf("expected media type 0x%02X, got 0x%02X", Media360K, bpb.MediaType)
	}
	if bpb.BytesPerSector != SectorSize {
		t.Errorf("expected %d bytes/sector, got %d", SectorSize, bpb.BytesPerSector)
	}
}

func TestLoadDiskImageFile_ReadsThroughAferoFs(t *testing.T) {
	fs := afero.NewMemMapFs()
	seed, err := NewEmptyDiskImage(Media720K)
	if err != nil {
		t.Fatalf("NewEmptyDiskImage: %v", err)
	}
	raw, err := seed.ReadSectors(0, 1)
	if err != nil {
		t.Fatalf("ReadSectors: %v", err)
	}
	full := make([]byte, size720K)
	copy(full, raw)
	if err := afero.WriteFile(fs, "disk0.dsk", full, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	img, err := LoadDiskImageFile(fs, "disk0.dsk")
	if err != nil {
		t.Fatalf("LoadDiskImageFile: %v", err)
	}
	if img.GetMediaType() != Media720K {
		t.Errorf("expected media type 0x%02X, got 0x%02X", Media720K, img.GetMediaType())
	}
}

func TestLoadDiskImageFile_MissingFileIsAnError(t *testing.T) {
	fs := afero.NewMemMapFs()
	if _, err := LoadDiskImageFile(fs, "nope.dsk"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
