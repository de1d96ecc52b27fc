package emu

// irqMessage is the one kind of message that crosses the VDP→CPU back-edge:
// an instruction to assert or clear the maskable interrupt line. Routing it
// through a queue instead of a shared pointer keeps Bus the single owner of
// every device.
type irqMessage struct {
	assert bool
}

// Machine owns the whole device graph and drives it one CPU instruction at
// a time, fanning out cycles to the PSG and Clock and translating Clock
// events into VDP state changes and IRQ messages.
type Machine struct {
	Bus    *Bus
	CPU    *CPU
	Clock  *Clock
	VDP    *VDP
	PSG    *PSG
	Drives *DiskDriveSet

	queue      []irqMessage
	cycleCount uint64
	frameReady bool
}

// NewMachine assembles a Machine from its devices. slots[1] is inspected
// for a disk ROM signature and patched in place if found, with driver
// registered against the shared extension registry.
func NewMachine(slots [4]*Slot) *Machine {
	ppi := NewPPI()
	vdp := NewVDP()
	psg := NewPSG()
	registry := NewExtensionRegistry()
	drives := NewDiskDriveSet()
	driver := NewDiskDriver(drives)
	driver.RegisterAll(registry)

	if slots[1] != nil && HasDiskROMSignature(slots[1]) {
		PatchDiskROM(slots[1], driver)
	}

	ppi.onPulseSignalChange = psg.SetPulseSignal
	ppi.onMotorChange = func(asserted bool) {
		if asserted {
			drives.MotorOn(drives.LastAccessedDrive())
		} else {
			drives.AllMotorsOff()
		}
	}

	bus := NewBus(slots, ppi, vdp, psg, registry)
	cpu := NewCPU(bus, registry)
	clock := NewClock()

	return &Machine{
		Bus:    bus,
		CPU:    cpu,
		Clock:  clock,
		VDP:    vdp,
		PSG:    psg,
		Drives: drives,
	}
}

// KeyDown forwards a host key-press to the keyboard matrix and, for keys
// that double as joystick directions, to the PSG's joystick port state.
func (m *Machine) KeyDown(name string) {
	m.Bus.ppi.Keyboard().KeyDown(name)
	m.PSG.JoystickKeyDown(name)
}

// KeyUp is KeyDown's release counterpart.
func (m *Machine) KeyUp(name string) {
	m.Bus.ppi.Keyboard().KeyUp(name)
	m.PSG.JoystickKeyUp(name)
}

// postIRQ enqueues an IRQ-line change for the next step's message drain.
func (m *Machine) postIRQ(assert bool) {
	m.queue = append(m.queue, irqMessage{assert: assert})
}

func (m *Machine) drainQueue() {
	for _, msg := range m.queue {
		if msg.assert {
			m.CPU.AssertIRQ()
		} else {
			m.CPU.ClearIRQ()
		}
	}
	m.queue = m.queue[:0]
}

// step executes exactly one CPU instruction plus its device fan-out and
// returns the number of cycles consumed.
func (m *Machine) step() int {
	m.drainQueue()

	cycles := m.CPU.Step()
	if m.VDP.ConsumeIRQClear() {
		m.postIRQ(false)
	}

	m.PSG.Clock(uint32(cycles))
	m.Drives.AdvanceMotorTimers(cycles)

	for _, ev := range m.Clock.Tick(uint32(cycles)) {
		switch ev.Event {
		case EventVBlankStart:
			if irqAssert := m.VDP.SetVBlank(true); irqAssert {
				m.postIRQ(true)
			}
		case EventVBlankEnd:
			m.VDP.SetVBlank(false)
		case EventScanlineStart:
			m.VDP.SetScanline(ev.Scanline & 0xFF)
			m.VDP.RenderScanline()
		case EventFrameEnd:
			m.frameReady = true
		}
	}

	m.cycleCount += uint64(cycles)
	return cycles
}

// StepFor runs instructions until at least n cycles have been consumed,
// returning the actual number executed (which may overshoot n by the
// last instruction's length).
func (m *Machine) StepFor(n int) int {
	executed := 0
	for executed < n {
		executed += m.step()
	}
	return executed
}

// StepFrame runs until the Clock signals FrameEnd, targeting exactly one
// frame's worth of cycles (262 scanlines * 228 cycles).
func (m *Machine) StepFrame() {
	m.frameReady = false
	for !m.frameReady {
		m.step()
	}
}

// FrameReady reports whether a frame has completed since the last check,
// consuming the flag.
func (m *Machine) FrameReady() bool {
	ready := m.frameReady
	m.frameReady = false
	return ready
}

// CycleCount reports the total number of CPU cycles this Machine has
// executed since construction.
func (m *Machine) CycleCount() uint64 { return m.cycleCount }
