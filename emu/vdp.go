package emu

// DisplayMode is one of the four TMS9918A-class modes this core renders.
type DisplayMode int

const (
	ModeGraphic1 DisplayMode = iota
	ModeGraphic2
	ModeMulticolor
	ModeText1
)

const (
	vramSize       = 0x4000
	screenWidth    = 256
	screenHeight   = 192
	maxSprites     = 32
	spritesPerLine = 4
)

// spriteLineCache holds, for one scanline, the indices of visible sprites
// in attribute-table order (index 0 is highest priority). Rebuilt once per
// frame at VBlankStart so per-scanline rendering never re-scans attributes.
type spriteLineCache struct {
	indices [spritesPerLine]int
	count   int
}

// VDP is the TMS9918A-class video display processor: register/address
// latch state machine, 16 KiB VRAM, four display modes, sprite evaluation
// and per-scanline rendering, and the F/5S status flags that feed the
// Machine's IRQ routing.
type VDP struct {
	vram      [vramSize]byte
	registers [8]byte

	address      uint16
	addressLatch uint8
	writeLatch   bool // true after the first byte of a control-port pair
	codeReg      uint8
	readBuffer   uint8

	statusF         bool // vertical-interrupt-pending flag
	statusCollision bool
	status5SInvalid bool
	status5SIndex   uint8

	currentScanline int

	spriteLines [screenHeight]spriteLineCache

	framebuffer [screenHeight][screenWidth]uint8

	irqAsserted bool // true while this VDP wants the CPU IRQ line held
}

func NewVDP() *VDP {
	return &VDP{}
}

func (v *VDP) Reset() {
	*v = VDP{}
}

// --- Port protocol --------------------------------------------------------

// ReadData implements port 0x98 reads: returns the read-ahead buffer, then
// pre-fetches VRAM at the (now advanced) address.
func (v *VDP) ReadData() uint8 {
	value := v.readBuffer
	v.readBuffer = v.vram[v.address]
	v.address = (v.address + 1) & 0x3FFF
	v.writeLatch = false
	return value
}

// WriteData implements port 0x98 writes: stores to VRAM and advances the address.
func (v *VDP) WriteData(value uint8) {
	v.vram[v.address] = value
	v.readBuffer = value
	v.address = (v.address + 1) & 0x3FFF
	v.writeLatch = false
}

// WriteControl implements port 0x99's two-step latch protocol.
func (v *VDP) WriteControl(value uint8) {
	if !v.writeLatch {
		v.addressLatch = value
		v.writeLatch = true
		return
	}
	v.writeLatch = false

	switch value >> 6 {
	case 0: // 00: complete a VRAM read pointer, pre-fetch
		v.address = (uint16(value&0x3F)<<8 | uint16(v.addressLatch)) & 0x3FFF
		v.readBuffer = v.vram[v.address]
		v.address = (v.address + 1) & 0x3FFF
		v.codeReg = 0
	case 1: // 01: complete a VRAM write pointer, no pre-fetch
		v.address = (uint16(value&0x3F)<<8 | uint16(v.addressLatch)) & 0x3FFF
		v.codeReg = 1
	case 2: // 10: register write
		reg := value & 0x07
		v.registers[reg] = v.addressLatch
		v.codeReg = 2
	default: // 11: reserved on TMS9918A; accepted, ignored
		v.codeReg = 3
	}
}

// ReadControl implements status-port reads: composes F/5S/collision and
// clears F plus the write latch, per the one-shot status-read contract.
func (v *VDP) ReadControl() uint8 {
	var b uint8
	if v.statusF {
		b |= 0x80
	}
	if v.statusCollision {
		b |= 0x20
	}
	if v.status5SInvalid {
		b |= 0x40
		b |= v.status5SIndex & 0x1F
	}
	v.statusF = false
	v.writeLatch = false
	return b
}

// --- Register/mode helpers -------------------------------------------------

func (v *VDP) Register(n int) uint8 { return v.registers[n] }

func (v *VDP) DisplayMode() DisplayMode {
	m1 := v.registers[1]&0x10 != 0
	m2 := v.registers[1]&0x08 != 0
	m3 := v.registers[0]&0x02 != 0

	switch {
	case m1 && !m2 && !m3:
		return ModeText1
	case !m1 && m2 && !m3:
		return ModeMulticolor
	case !m1 && !m2 && m3:
		return ModeGraphic2
	default:
		return ModeGraphic1
	}
}

func (v *VDP) nameTableBase() uint16 {
	switch v.DisplayMode() {
	case ModeText1:
		return uint16(v.registers[2]&0x0F) * 0x400
	case ModeMulticolor:
		return 0x800
	default: // Graphic1, Graphic2
		return uint16(v.registers[2]&0x7F) * 0x400
	}
}

func (v *VDP) patternTableBase() uint16 {
	switch v.DisplayMode() {
	case ModeText1:
		return uint16(v.registers[4]&0x07) * 0x800
	case ModeMulticolor:
		return 0
	default: // Graphic1, Graphic2: bit2 of R4 selects base 0 or 0x2000
		return uint16(v.registers[4]&0x04) << 11
	}
}

// colorTableBase follows spec's Design Notes: treat R3.bit7 as the sole
// bank selector for Graphic2 (base 0 or 0x2000), ignoring R10 which is
// V9938+-only. Graphic1 uses the full 32-byte-granular R3 value.
func (v *VDP) colorTableBase() uint16 {
	switch v.DisplayMode() {
	case ModeGraphic1:
		return uint16(v.registers[3]) << 6
	case ModeGraphic2:
		return uint16(v.registers[3]&0x80) << 6
	default:
		return 0
	}
}

func (v *VDP) spriteAttributeBase() uint16 { return uint16(v.registers[5]&0x7F) << 7 }
func (v *VDP) spritePatternBase() uint16   { return uint16(v.registers[6]&0x07) << 11 }
func (v *VDP) spriteSizeLarge() bool       { return v.registers[1]&0x02 != 0 }
func (v *VDP) spriteMagnified() bool       { return v.registers[1]&0x01 != 0 }
func (v *VDP) screenEnabled() bool         { return v.registers[1]&0x40 != 0 }
func (v *VDP) irqEnabledByReg() bool       { return v.registers[1]&0x20 != 0 }

// --- Interrupts -------------------------------------------------------------

// SetVBlank signals VBlank entry; it sets the F flag, rebuilds the sprite
// cache, and reports whether the Machine should assert CPU IRQ.
func (v *VDP) SetVBlank(active bool) (irqAssert bool) {
	if !active {
		return false
	}
	v.statusF = true
	v.EvaluateSprites()
	if v.irqEnabledByReg() {
		v.irqAsserted = true
		return true
	}
	return false
}

// ConsumeIRQClear reports whether a prior IRQ assertion should now be
// cleared (the status-port read already cleared statusF).
func (v *VDP) ConsumeIRQClear() bool {
	if v.irqAsserted && !v.statusF {
		v.irqAsserted = false
		return true
	}
	return false
}

// SetScanline updates the VDP's view of the current scanline for rendering.
func (v *VDP) SetScanline(line uint32) {
	v.currentScanline = int(line & 0xFF)
}

// --- Sprite evaluation -------------------------------------------------------

// EvaluateSprites rebuilds the per-scanline visible-sprite cache. Called
// once per frame at VBlankStart.
func (v *VDP) EvaluateSprites() {
	for i := range v.spriteLines {
		v.spriteLines[i] = spriteLineCache{}
	}
	v.status5SInvalid = false
	v.status5SIndex = 0

	base := v.spriteAttributeBase()
	size := 8
	if v.spriteSizeLarge() {
		size = 16
	}
	mag := 1
	if v.spriteMagnified() {
		mag = 2
	}
	height := size * mag

	for i := 0; i < maxSprites; i++ {
		entry := base + uint16(i*4)
		y := v.vram[entry]
		if y == 0xD0 || y == 0xD8 {
			break
		}
		top := int(y) + 1
		for line := top; line < top+height; line++ {
			if line < 0 || line >= screenHeight {
				continue
			}
			cache := &v.spriteLines[line]
			if cache.count < spritesPerLine {
				cache.indices[cache.count] = i
				cache.count++
			} else if !v.status5SInvalid {
				v.status5SInvalid = true
				v.status5SIndex = uint8(i)
			}
		}
	}
}

// --- Rendering ---------------------------------------------------------------

// RenderScanline rasterizes the current scanline into the framebuffer as
// palette-index pixels (0-15).
func (v *VDP) RenderScanline() {
	line := v.currentScanline
	if line < 0 || line >= screenHeight {
		return
	}
	row := &v.framebuffer[line]

	if !v.screenEnabled() {
		for x := range row {
			row[x] = 0
		}
		return
	}

	switch v.DisplayMode() {
	case ModeText1:
		v.renderText1(line, row)
	case ModeGraphic1:
		v.renderGraphic1(line, row)
	case ModeGraphic2:
		v.renderGraphic2(line, row)
	case ModeMulticolor:
		v.renderMulticolor(line, row)
	}

	v.renderSprites(line, row)
}

func (v *VDP) renderText1(line int, row *[screenWidth]uint8) {
	nameBase := v.nameTableBase()
	patternBase := v.patternTableBase()
	fg := v.registers[7] >> 4
	bg := v.registers[7] & 0x0F

	rowInChar := line % 8
	for col := 0; col < 40; col++ {
		ch := v.vram[nameBase+uint16(col)]
		patByte := v.vram[patternBase+uint16(ch)*8+uint16(rowInChar)]
		for bit := 0; bit < 6; bit++ {
			px := col*6 + bit
			if patByte&(0x80>>uint(bit)) != 0 {
				row[px] = fg
			} else {
				row[px] = bg
			}
		}
	}
	for px := 240; px < screenWidth; px++ {
		row[px] = bg
	}
}

func (v *VDP) renderGraphic1(line int, row *[screenWidth]uint8) {
	nameBase := v.nameTableBase()
	patternBase := v.patternTableBase()
	colorBase := v.colorTableBase()

	charRow := line / 8
	rowInChar := line % 8
	for col := 0; col < 32; col++ {
		ch := v.vram[nameBase+uint16(charRow*32+col)]
		patByte := v.vram[patternBase+uint16(ch)*8+uint16(rowInChar)]
		colorByte := v.vram[colorBase+uint16(ch)/8]
		fg := colorByte >> 4
		bg := colorByte & 0x0F
		for bit := 0; bit < 8; bit++ {
			px := col*8 + bit
			if patByte&(0x80>>uint(bit)) != 0 {
				row[px] = fg
			} else {
				row[px] = bg
			}
		}
	}
}

func (v *VDP) renderGraphic2(line int, row *[screenWidth]uint8) {
	nameBase := v.nameTableBase()
	patternBase := v.patternTableBase()
	colorBase := v.colorTableBase()

	bank := uint16(line/64) & 0x03 // three 64-line banks: 0, 1, 2
	charRow := line / 8
	rowInChar := line % 8

	for col := 0; col < 32; col++ {
		ch := v.vram[nameBase+uint16(charRow*32+col)]
		cellIndex := bank*256 + uint16(ch)
		patByte := v.vram[patternBase+cellIndex*8+uint16(rowInChar)]
		colorByte := v.vram[colorBase+cellIndex*8+uint16(rowInChar)]
		fg := colorByte >> 4
		bg := colorByte & 0x0F
		for bit := 0; bit < 8; bit++ {
			px := col*8 + bit
			if patByte&(0x80>>uint(bit)) != 0 {
				row[px] = fg
			} else {
				row[px] = bg
			}
		}
	}
}

// renderMulticolor renders 4x4-pixel blocks: each pattern byte's high
// nibble colors the block's left half, low nibble the right half. A
// character row uses two of the character's eight pattern bytes, chosen
// by the row number modulo 4; the top 4 lines of the row read the first
// of the two and the bottom 4 lines the second.
func (v *VDP) renderMulticolor(line int, row *[screenWidth]uint8) {
	nameBase := v.nameTableBase()
	patternBase := v.patternTableBase()

	charRow := (line / 8) % 4
	patByteRow := (line % 8) / 4 // 0 or 1: picks which byte of the pair
	for col := 0; col < 32; col++ {
		ch := v.vram[nameBase+uint16((line/8)*32+col)]
		colorByte := v.vram[patternBase+uint16(ch)*8+uint16(charRow*2)+uint16(patByteRow)]
		fg := colorByte >> 4
		bg := colorByte & 0x0F
		for bit := 0; bit < 8; bit++ {
			px := col*8 + bit
			if bit < 4 {
				row[px] = fg
			} else {
				row[px] = bg
			}
		}
	}
}

func (v *VDP) renderSprites(line int, row *[screenWidth]uint8) {
	if line < 0 || line >= screenHeight {
		return
	}
	cache := v.spriteLines[line]
	if cache.count == 0 {
		return
	}

	patternBase := v.spritePatternBase()
	large := v.spriteSizeLarge()
	mag := 1
	if v.spriteMagnified() {
		mag = 2
	}
	size := 8
	if large {
		size = 16
	}

	// Reverse index order: index 0 is highest priority and must be drawn
	// last so it overwrites lower-priority sprites already painted.
	for i := cache.count - 1; i >= 0; i-- {
		idx := cache.indices[i]
		entry := v.spriteAttributeBase() + uint16(idx*4)
		y := int(v.vram[entry])
		x := int(v.vram[entry+1])
		pattern := v.vram[entry+2]
		colorByte := v.vram[entry+3]
		color := colorByte & 0x0F
		if colorByte&0x80 != 0 {
			x -= 32 // early-clock bit
		}

		rowInSprite := (line - (y + 1)) / mag
		if rowInSprite < 0 || rowInSprite >= size {
			continue
		}
		if color == 0 {
			continue // transparent
		}

		patIndex := uint16(pattern)
		if large {
			patIndex &^= 0x03
		}

		for px := 0; px < size; px++ {
			var bitByte uint8
			bit := px % 8
			if large {
				quadRow := rowInSprite % 8
				quadOffset := uint16(0)
				if rowInSprite >= 8 {
					quadOffset++
				}
				if px >= 8 {
					quadOffset += 2
				}
				bitByte = v.vram[patternBase+(patIndex+quadOffset)*8+uint16(quadRow)]
			} else {
				bitByte = v.vram[patternBase+patIndex*8+uint16(rowInSprite)]
			}
			if bitByte&(0x80>>uint(bit)) == 0 {
				continue
			}

			for m := 0; m < mag; m++ {
				screenX := x + px*mag + m
				if screenX < 0 || screenX >= screenWidth {
					continue
				}
				row[screenX] = color
			}
		}
	}
}

// Framebuffer returns the current 256x192 palette-index buffer.
func (v *VDP) Framebuffer() *[screenHeight][screenWidth]uint8 { return &v.framebuffer }

// --- Test/debug accessors, matching the teacher's accessor-for-testability style ---

func (v *VDP) GetVRAM() []byte         { return v.vram[:] }
func (v *VDP) GetRegister(n int) uint8 { return v.registers[n] }
func (v *VDP) GetAddress() uint16      { return v.address }
func (v *VDP) GetCodeReg() uint8       { return v.codeReg }
func (v *VDP) GetWriteLatch() bool     { return v.writeLatch }
func (v *VDP) GetStatusF() bool        { return v.statusF }
func (v *VDP) Get5SInvalid() bool      { return v.status5SInvalid }
func (v *VDP) Get5SIndex() uint8       { return v.status5SIndex }
func (v *VDP) GetReadBuffer() uint8    { return v.readBuffer }
