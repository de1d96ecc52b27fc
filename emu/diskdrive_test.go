package emu

import "testing"

func TestDiskDriveSet_InsertNewDiskIsReadable(t *testing.T) {
	d := NewDiskDriveSet()
	if err := d.InsertNewDisk(0, Media360K); err != nil {
		t.Fatalf("InsertNewDisk: %v", err)
	}
	if !d.HasDisk(0) {
		t.Fatal("expected drive 0 to report a disk present")
	}
	if d.Image(0).GetMediaType() != Media360K {
		t.Errorf("expected media type 0x%02X, got 0x%02X", Media360K, d.Image(0).GetMediaType())
	}
	changed, known := d.DiskChanged(0)
	if !known || !changed {
		t.Error("expected a freshly inserted disk to report changed=true")
	}
}

func TestDiskDriveSet_EjectClearsDiskState(t *testing.T) {
	d := NewDiskDriveSet()
	_ = d.InsertNewDisk(1, Media720K)
	if err := d.EjectDisk(1); err != nil {
		t.Fatalf("EjectDisk: %v", err)
	}
	if d.HasDisk(1) {
		t.Error("expected drive 1 to report no disk after eject")
	}
	if _, err := d.ReadSectors(1, 0, 1); err != DiskErrorNoDisk {
		t.Errorf("expected DiskErrorNoDisk reading an empty drive, got %v", err)
	}
}

func TestDiskDriveSet_InvalidDriveNumberIsAnError(t *testing.T) {
	d := NewDiskDriveSet()
	if err := d.InsertNewDisk(2, Media360K); err != DiskErrorInvalidDrive {
		t.Errorf("expected DiskErrorInvalidDrive for drive 2, got %v", err)
	}
}

func TestDiskDriveSet_MotorOffScheduleCountsDownWithCycles(t *testing.T) {
	d := NewDiskDriveSet()
	_ = d.InsertNewDisk(0, Media360K)
	_, _ = d.ReadSectors(0, 0, 1)
	if !d.IsMotorOn(0) {
		t.Fatal("expected motor on after a sector read")
	}

	d.ScheduleMotorOff(0, 2300)
	d.AdvanceMotorTimers(1000)
	if !d.IsMotorOn(0) {
		t.Error("expected motor still on before the full delay elapses")
	}
	d.AdvanceMotorTimers(1300)
	if d.IsMotorOn(0) {
		t.Error("expected motor off once the scheduled delay has fully elapsed")
	}
}

func TestDiskDriveSet_AllMotorsOffIsImmediate(t *testing.T) {
	d := NewDiskDriveSet()
	_ = d.InsertNewDisk(0, Media360K)
	_ = d.InsertNewDisk(1, Media720K)
	_, _ = d.ReadSectors(0, 0, 1)
	_, _ = d.ReadSectors(1, 0, 1)

	d.AllMotorsOff()

	if d.IsMotorOn(0) || d.IsMotorOn(1) {
		t.Error("expected both drive motors off immediately")
	}
}

func TestDiskDriveSet_LastAccessedTracksMostRecentDrive(t *testing.T) {
	d := NewDiskDriveSet()
	_ = d.InsertNewDisk(0, Media360K)
	_ = d.InsertNewDisk(1, Media720K)
	_, _ = d.ReadSectors(0, 0, 1)
	_, _ = d.ReadSectors(1, 0, 1)

	if d.LastAccessedDrive() != 1 {
		t.Errorf("expected last accessed drive 1, got %d", d.LastAccessedDrive())
	}
}
