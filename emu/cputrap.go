package emu

// CPUExtensionState is the register snapshot passed to a trap handler for
// the `ED nn` extended-opcode mechanism. Handlers mutate it freely; the
// dispatcher applies it back to the CPU after the handler returns.
type CPUExtensionState struct {
	ExtNum uint8
	ExtPC  uint16 // address of the ED byte that triggered this trap
	PC     uint16
	SP     uint16
	A, F   uint8
	BC, DE, HL uint16
	IX, IY     uint16
}

func (s *CPUExtensionState) B() uint8 { return uint8(s.BC >> 8) }
func (s *CPUExtensionState) C() uint8 { return uint8(s.BC) }
func (s *CPUExtensionState) D() uint8 { return uint8(s.DE >> 8) }
func (s *CPUExtensionState) E() uint8 { return uint8(s.DE) }
func (s *CPUExtensionState) H() uint8 { return uint8(s.HL >> 8) }
func (s *CPUExtensionState) L() uint8 { return uint8(s.HL) }

func (s *CPUExtensionState) SetB(v uint8) { s.BC = s.BC&0x00FF | uint16(v)<<8 }
func (s *CPUExtensionState) SetC(v uint8) { s.BC = s.BC&0xFF00 | uint16(v) }
func (s *CPUExtensionState) SetD(v uint8) { s.DE = s.DE&0x00FF | uint16(v)<<8 }
func (s *CPUExtensionState) SetE(v uint8) { s.DE = s.DE&0xFF00 | uint16(v) }
func (s *CPUExtensionState) SetH(v uint8) { s.HL = s.HL&0x00FF | uint16(v)<<8 }
func (s *CPUExtensionState) SetL(v uint8) { s.HL = s.HL&0xFF00 | uint16(v) }

func (s *CPUExtensionState) CarryFlag() bool { return s.F&0x01 != 0 }
func (s *CPUExtensionState) SetCarryFlag(carry bool) {
	if carry {
		s.F |= 0x01
	} else {
		s.F &^= 0x01
	}
}

// ExtensionHandler is a capability registered against one or more trap
// opcodes. A handler receives bus memory access and the register snapshot;
// it reports whether it recognized the opcode.
type ExtensionHandler interface {
	HandleExtension(state *CPUExtensionState, mem MemoryAccess) bool
}

// MemoryAccess is the narrow view of guest memory trap handlers need;
// satisfied by Bus.
type MemoryAccess interface {
	ReadByte(addr uint16) uint8
	WriteByte(addr uint16, value uint8)
}

// ExtensionRegistry dispatches `ED nn` opcodes (nn in 0xE0..0xEF) to
// registered handlers.
type ExtensionRegistry struct {
	handlers map[uint8]ExtensionHandler
}

func NewExtensionRegistry() *ExtensionRegistry {
	return &ExtensionRegistry{handlers: make(map[uint8]ExtensionHandler)}
}

func (r *ExtensionRegistry) Register(opcode uint8, handler ExtensionHandler) {
	r.handlers[opcode] = handler
}

// Dispatch looks up a handler for state.ExtNum and invokes it, applying its
// register mutations. It returns the trap's fixed consumed-cycle count (4)
// and whether a handler was found.
func (r *ExtensionRegistry) Dispatch(state *CPUExtensionState, mem MemoryAccess) (cycles int, handled bool) {
	h, ok := r.handlers[state.ExtNum]
	if !ok {
		return 4, false
	}
	h.HandleExtension(state, mem)
	return 4, true
}
