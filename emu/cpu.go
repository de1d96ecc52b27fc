package emu

import "github.com/user-none/go-chip-z80"

// CPU wraps the go-chip-z80 core and adds the one behavior the stock
// decoder doesn't know about: the `ED nn` disk-BIOS trap convention
// (opcodes 0xE0-0xEF sit in the Z80's undefined opcode space, where real
// hardware just burns a NOP; MSX BIOS patches exploit exactly that gap).
// Everything else — timing, flags, the instruction set itself — is the
// external collaborator's responsibility.
type CPU struct {
	core *z80.CPU
	bus  *Bus
	ext  *ExtensionRegistry
}

// NewCPU builds a CPU collaborator wired to bus for both memory and I/O,
// and to registry for ED-trap dispatch.
func NewCPU(bus *Bus, registry *ExtensionRegistry) *CPU {
	return &CPU{core: z80.New(bus), bus: bus, ext: registry}
}

func (c *CPU) PC() uint16 { return c.core.PC }
func (c *CPU) SP() uint16 { return c.core.SP }

// Halted reports whether the core is parked in a HALT instruction's
// wait-for-interrupt state.
func (c *CPU) Halted() bool { return c.core.HALT }

// AssertIRQ raises a level-triggered IM1 interrupt line, mirroring the
// VDP's IRQ output; ClearIRQ lowers it again once the guest acknowledges.
func (c *CPU) AssertIRQ() { c.core.Interrupt = z80.IM1Interrupt() }
func (c *CPU) ClearIRQ()  { c.core.Interrupt = nil }

// Step executes one instruction (or services a pending trap) and returns
// the number of T-states consumed.
func (c *CPU) Step() int {
	pc := c.core.PC
	op1 := c.bus.Fetch(pc)
	if op1 == 0xED {
		op2 := c.bus.Fetch(pc + 1)
		if op2 >= 0xE0 && op2 <= 0xEF {
			return c.dispatchTrap(pc, op2)
		}
	}
	return c.core.Step()
}

// dispatchTrap builds a register snapshot, runs the matching handler
// (falling through to a bare NOP if none is registered, matching real
// Z80 behavior for this opcode range), applies any mutations back to the
// CPU, and advances PC past the two trap bytes so the following RET
// (C9, patched in by the ROM patcher) returns normally.
func (c *CPU) dispatchTrap(pc uint16, opcode uint8) int {
	state := &CPUExtensionState{
		ExtNum: opcode,
		ExtPC:  pc,
		PC:     pc + 2,
		SP:     c.core.SP,
		A:      c.core.A,
		F:      c.core.F,
		BC:     c.core.BC,
		DE:     c.core.DE,
		HL:     c.core.HL,
		IX:     c.core.IX,
		IY:     c.core.IY,
	}

	cycles, handled := c.ext.Dispatch(state, c.bus)
	if !handled {
		c.core.PC = pc + 2
		return cycles
	}

	c.core.PC = state.PC
	c.core.SP = state.SP
	c.core.A = state.A
	c.core.F = state.F
	c.core.BC = state.BC
	c.core.DE = state.DE
	c.core.HL = state.HL
	c.core.IX = state.IX
	c.core.IY = state.IY
	return cycles
}
