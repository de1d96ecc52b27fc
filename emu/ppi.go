package emu

import "log"

// PPI is the i8255-class parallel peripheral interface mediating the
// primary slot-select register, keyboard row select, and auxiliary
// control bits (motor/drive pulses, caps LED, PSG pulse signal).
type PPI struct {
	primarySlotConfig uint8
	registerC         uint8
	keyboard          *Keyboard

	// Callbacks into the subsystems register C bits drive. Left nil in
	// tests that only exercise register state.
	onPulseSignalChange func(asserted bool)
	onMotorChange       func(asserted bool)
}

func NewPPI() *PPI {
	return &PPI{
		registerC: 0x50, // motor and caps LED default OFF (active states are inverted)
		keyboard:  NewKeyboard(),
	}
}

func (p *PPI) Reset() {
	kb := p.keyboard
	onPulse := p.onPulseSignalChange
	onMotor := p.onMotorChange
	*p = PPI{registerC: 0x50, keyboard: kb, onPulseSignalChange: onPulse, onMotorChange: onMotor}
}

func (p *PPI) Keyboard() *Keyboard { return p.keyboard }

func (p *PPI) PrimarySlotConfig() uint8 { return p.primarySlotConfig }

// --- Port access -----------------------------------------------------------

// ReadPortA implements port 0xA8: the primary slot-select register.
func (p *PPI) ReadPortA() uint8 { return p.primarySlotConfig }

// WritePortA implements port 0xA8 writes.
func (p *PPI) WritePortA(value uint8) { p.primarySlotConfig = value }

// ReadPortB implements port 0xA9: the selected keyboard row, with the
// space-key bit forced low when row 8 is selected and joystick fire is
// asserted (per spec §4.1's combine rule).
func (p *PPI) ReadPortB(joystickFireAsserted bool) uint8 {
	row := p.registerC & 0x0F
	value := p.keyboard.Row(row)
	if row == 8 && joystickFireAsserted {
		value &^= 0x01
	}
	return value
}

// ReadPortC implements port 0xAA reads.
func (p *PPI) ReadPortC() uint8 { return p.registerC }

// WritePortC implements port 0xAA writes: replaces register C wholesale.
func (p *PPI) WritePortC(value uint8) {
	p.setRegisterC(value)
}

// WriteControl implements port 0xAB writes: a bit-set/reset command where
// bits 1-3 select a target bit 0-7 of register C and bit 0 is its new value.
func (p *PPI) WriteControl(value uint8) {
	bit := (value & 0x0E) >> 1
	next := p.registerC
	if value&0x01 != 0 {
		next |= 1 << bit
	} else {
		next &^= 1 << bit
	}
	p.setRegisterC(next)
}

func capsLEDState(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func (p *PPI) setRegisterC(next uint8) {
	changed := p.registerC ^ next
	if changed == 0 {
		return
	}
	p.registerC = next

	if changed&0x0F != 0 {
		// keyboard row select changed; nothing to recompute eagerly, the
		// next ReadPortB call reads the new row.
	}
	if changed&0x40 != 0 {
		log.Printf("caps LED %s", capsLEDState(p.registerC&0x40 == 0))
	}
	if changed&0xA0 != 0 && p.onPulseSignalChange != nil {
		p.onPulseSignalChange(p.registerC&0xA0 != 0)
	}
	if changed&0x30 != 0 && p.onMotorChange != nil {
		p.onMotorChange(p.registerC&0x10 == 0) // motor bit is active-low
	}
}
