package emu

import "testing"

func TestVDP_ControlWriteSequence(t *testing.T) {
	vdp := NewVDP()

	if vdp.GetWriteLatch() {
		t.Error("write latch should be false initially")
	}

	vdp.WriteControl(0x00)
	if !vdp.GetWriteLatch() {
		t.Error("write latch should be true after first byte")
	}

	vdp.WriteControl(0x00)
	if vdp.GetWriteLatch() {
		t.Error("write latch should be false after second byte")
	}
}

// TestVDP_AddressLatch exercises end-to-end scenario 2 from the spec.
func TestVDP_AddressLatch(t *testing.T) {
	vdp := NewVDP()

	vdp.WriteControl(0x34)
	vdp.WriteControl(0x80) // register write, reg 0
	if got := vdp.GetRegister(0); got != 0x34 {
		t.Errorf("R0: expected 0x34, got 0x%02X", got)
	}

	vdp.WriteControl(0x12)
	vdp.WriteControl(0x01) // read-pointer set: (0x01&0x3F)<<8 | 0x12
	wantAddr := uint16(0x0112)
	// The read-pointer-set path (code 00) pre-fetches and advances by one.
	if got := vdp.GetAddress(); got != (wantAddr+1)&0x3FFF {
		t.Errorf("address after read-pointer set: expected 0x%04X, got 0x%04X", (wantAddr+1)&0x3FFF, got)
	}

	vdp.WriteControl(0x34)
	vdp.WriteControl(0x41) // write-pointer set: (0x41&0x3F)<<8 | 0x34, no pre-fetch
	if got := vdp.GetAddress(); got != 0x0134 {
		t.Errorf("address after write-pointer set: expected 0x0134, got 0x%04X", got)
	}
}

func TestVDP_RegisterWrite(t *testing.T) {
	vdp := NewVDP()

	vdp.WriteControl(0x7E)
	vdp.WriteControl(0x85) // code 2, reg 5
	if got := vdp.GetRegister(5); got != 0x7E {
		t.Errorf("R5: expected 0x7E, got 0x%02X", got)
	}
}

func TestVDP_DataPortReadAhead(t *testing.T) {
	vdp := NewVDP()

	vdp.WriteControl(0x00)
	vdp.WriteControl(0x40) // write-pointer set to 0x0000
	vdp.WriteData(0xAA)
	vdp.WriteData(0xBB)

	vdp.WriteControl(0x00)
	vdp.WriteControl(0x00) // read-pointer set to 0x0000, pre-fetches VRAM[0]

	if got := vdp.ReadData(); got != 0xAA {
		t.Errorf("first read: expected 0xAA, got 0x%02X", got)
	}
	if got := vdp.ReadData(); got != 0xBB {
		t.Errorf("second read: expected 0xBB, got 0x%02X", got)
	}
}

func TestVDP_DisplayModeDerivation(t *testing.T) {
	vdp := NewVDP()
	if vdp.DisplayMode() != ModeGraphic1 {
		t.Errorf("default mode: expected Graphic1, got %v", vdp.DisplayMode())
	}

	vdp.registers[1] |= 0x10 // M1
	if vdp.DisplayMode() != ModeText1 {
		t.Errorf("M1 set: expected Text1, got %v", vdp.DisplayMode())
	}

	vdp.registers[1] = 0x08 // M2
	if vdp.DisplayMode() != ModeMulticolor {
		t.Errorf("M2 set: expected Multicolor, got %v", vdp.DisplayMode())
	}

	vdp.registers[1] = 0
	vdp.registers[0] = 0x02 // M3
	if vdp.DisplayMode() != ModeGraphic2 {
		t.Errorf("M3 set: expected Graphic2, got %v", vdp.DisplayMode())
	}
}

// TestVDP_FifthSprite exercises end-to-end scenario 4 from the spec.
func TestVDP_FifthSprite(t *testing.T) {
	vdp := NewVDP()
	base := vdp.spriteAttributeBase()
	for i := 0; i < 5; i++ {
		entry := base + uint16(i*4)
		vdp.vram[entry] = 0x10   // y
		vdp.vram[entry+1] = 0    // x
		vdp.vram[entry+2] = 0    // pattern
		vdp.vram[entry+3] = 0x0F // color, opaque
	}
	vdp.vram[base+5*4] = 0xD0 // terminator

	vdp.EvaluateSprites()

	line := 0x10 + 1
	cache := vdp.spriteLines[line]
	if cache.count != spritesPerLine {
		t.Fatalf("expected %d visible sprites on line %d, got %d", spritesPerLine, line, cache.count)
	}

	status := vdp.ReadControl()
	if status&0x40 == 0 {
		t.Error("expected 5S flag set")
	}
	if status&0x1F != 4 {
		t.Errorf("expected fifth-sprite index 4, got %d", status&0x1F)
	}
}

func TestVDP_SpriteTerminator(t *testing.T) {
	vdp := NewVDP()
	base := vdp.spriteAttributeBase()
	vdp.vram[base] = 0xD0

	vdp.EvaluateSprites()

	for _, line := range vdp.spriteLines {
		if line.count != 0 {
			t.Fatal("expected no visible sprites when first entry is a terminator")
		}
	}
}

func TestVDP_RenderScanline_ScreenDisabledBlanksRow(t *testing.T) {
	vdp := NewVDP()
	vdp.registers[1] = 0 // screen disabled
	vdp.vram[0] = 0xFF   // would otherwise paint something if rendered
	vdp.SetScanline(0)
	vdp.RenderScanline()

	row := vdp.Framebuffer()[0]
	for x, v := range row {
		if v != 0 {
			t.Fatalf("expected blanked row when screen disabled, got nonzero at %d", x)
			break
		}
	}
}

func TestVDP_RenderScanline_Graphic1(t *testing.T) {
	vdp := NewVDP()
	vdp.registers[1] = 0x40 // screen enabled, Graphic1 (default mode)
	vdp.registers[2] = 1    // name table base = 0x400
	vdp.registers[3] = 0x20 // color table base = 0x800
	vdp.registers[4] = 0    // pattern table base = 0

	vdp.vram[0x400] = 5    // character at (row0,col0) = 5
	vdp.vram[5*8+0] = 0xF0 // pattern byte: top 4 pixels set
	vdp.vram[0x800+0] = 0x1A

	vdp.SetScanline(0)
	vdp.RenderScanline()

	row := vdp.Framebuffer()[0]
	if row[0] != 1 || row[3] != 1 {
		t.Errorf("expected foreground color 1 for pixels 0-3, got %d,%d", row[0], row[3])
	}
	if row[4] != 0x0A || row[7] != 0x0A {
		t.Errorf("expected background color 10 for pixels 4-7, got %d,%d", row[4], row[7])
	}
}

func TestVDP_RenderScanline_Graphic2(t *testing.T) {
	vdp := NewVDP()
	vdp.registers[0] = 0x02 // M3
	vdp.registers[1] = 0x40 // screen enabled
	vdp.registers[2] = 0    // name table base = 0
	vdp.registers[3] = 0x80 // color table bank 1 (base 0x2000)
	vdp.registers[4] = 0    // pattern table bank 0

	vdp.vram[0] = 7           // character at (row0,col0) = 7
	vdp.vram[7*8+0] = 0x0F    // pattern byte: bottom 4 pixels set
	vdp.vram[0x2000+7*8+0] = 0x23

	vdp.SetScanline(0)
	vdp.RenderScanline()

	row := vdp.Framebuffer()[0]
	if row[0] != 3 || row[3] != 3 {
		t.Errorf("expected background color 3 for pixels 0-3, got %d,%d", row[0], row[3])
	}
	if row[4] != 2 || row[7] != 2 {
		t.Errorf("expected foreground color 2 for pixels 4-7, got %d,%d", row[4], row[7])
	}
}

func TestVDP_RenderScanline_Multicolor(t *testing.T) {
	vdp := NewVDP()
	vdp.registers[1] = 0x48 // screen enabled, M2 (multicolor)

	vdp.vram[0x800] = 9    // character at (row0,col0) = 9, name table fixed at 0x800
	vdp.vram[9*8+0] = 0x5C // colorByte: fg=5, bg=12

	vdp.SetScanline(0)
	vdp.RenderScanline()

	row := vdp.Framebuffer()[0]
	if row[0] != 5 || row[3] != 5 {
		t.Errorf("expected left-half color 5, got %d,%d", row[0], row[3])
	}
	if row[4] != 12 || row[7] != 12 {
		t.Errorf("expected right-half color 12, got %d,%d", row[4], row[7])
	}
}

func TestVDP_RenderScanline_Text1(t *testing.T) {
	vdp := NewVDP()
	vdp.registers[1] = 0x50 // screen enabled, M1 (text)
	vdp.registers[2] = 0    // name table base = 0
	vdp.registers[4] = 0    // pattern table base = 0
	vdp.registers[7] = 0x3A // fg=3, bg=10

	vdp.vram[0] = 3        // character at col0 = 3
	vdp.vram[3*8+0] = 0xC0 // pattern byte: top 2 of 6 rendered bits set

	vdp.SetScanline(0)
	vdp.RenderScanline()

	row := vdp.Framebuffer()[0]
	if row[0] != 3 || row[1] != 3 {
		t.Errorf("expected foreground color 3 at pixels 0-1, got %d,%d", row[0], row[1])
	}
	if row[2] != 10 || row[5] != 10 {
		t.Errorf("expected background color 10 at pixels 2-5, got %d,%d", row[2], row[5])
	}
	if row[250] != 10 {
		t.Errorf("expected the 240-255 border region to carry the background color, got %d", row[250])
	}
}

func TestVDP_RenderScanline_Sprite(t *testing.T) {
	vdp := NewVDP()
	vdp.registers[1] = 0x40 // screen enabled, Graphic1 background
	vdp.registers[5] = 0x70 // sprite attribute table base = 0x3800
	vdp.registers[6] = 0    // sprite pattern table base = 0

	vdp.vram[0x3800] = 0x10 // y = 16
	vdp.vram[0x3801] = 0    // x = 0
	vdp.vram[0x3802] = 0    // pattern index 0
	vdp.vram[0x3803] = 5    // color 5, no early clock

	vdp.vram[0] = 0x80 // pattern row 0: leftmost pixel set

	vdp.EvaluateSprites()
	vdp.SetScanline(17) // y+1
	vdp.RenderScanline()

	row := vdp.Framebuffer()[17]
	if row[0] != 5 {
		t.Errorf("expected sprite color 5 at pixel 0, got %d", row[0])
	}
}
