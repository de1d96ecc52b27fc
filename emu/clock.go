package emu

// ClockEvent is one of the timing transitions the master Clock emits from tick.
type ClockEvent int

const (
	EventHBlankStart ClockEvent = iota
	EventHBlankEnd
	EventScanlineStart
	EventVBlankStart
	EventVBlankEnd
	EventFrameEnd
)

// ScanlineEvent pairs an event with the new scanline number, valid only
// when Event == EventScanlineStart.
type ScanlineEvent struct {
	Event    ClockEvent
	Scanline uint32
}

const (
	CyclesPerScanline  = 228
	ScanlinesPerFrame  = 262
	VBlankStartLine    = 192
	HBlankStartCycle   = 171
)

// Clock is the master cycle-to-scanline/HBlank/VBlank/frame-end event source.
// It owns no device references; the Machine routes its events to the VDP
// and CPU IRQ line.
type Clock struct {
	totalCycles    uint64
	scanline       uint32 // 0..261
	scanlineCycle  uint32 // 0..227
	frameCount     uint64
	vblankActive   bool
	hblankActive   bool
}

func NewClock() *Clock {
	return &Clock{}
}

func (c *Clock) Reset() {
	*c = Clock{}
}

// Tick advances the clock by cycles CPU cycles and returns the events
// triggered, in the order their underlying transitions occurred.
func (c *Clock) Tick(cycles uint32) []ScanlineEvent {
	var events []ScanlineEvent

	for i := uint32(0); i < cycles; i++ {
		c.totalCycles++
		c.scanlineCycle++

		if c.scanlineCycle == HBlankStartCycle && !c.hblankActive {
			c.hblankActive = true
			events = append(events, ScanlineEvent{Event: EventHBlankStart})
		}

		if c.scanlineCycle >= CyclesPerScanline {
			c.scanlineCycle = 0
			c.hblankActive = false
			events = append(events, ScanlineEvent{Event: EventHBlankEnd})

			c.scanline++

			if c.scanline == VBlankStartLine && !c.vblankActive {
				c.vblankActive = true
				events = append(events, ScanlineEvent{Event: EventVBlankStart})
			}

			if c.scanline >= ScanlinesPerFrame {
				c.scanline = 0
				c.frameCount++

				if c.vblankActive {
					c.vblankActive = false
					events = append(events, ScanlineEvent{Event: EventVBlankEnd})
				}

				events = append(events, ScanlineEvent{Event: EventFrameEnd})
			}

			events = append(events, ScanlineEvent{Event: EventScanlineStart, Scanline: c.scanline})
		}
	}

	return events
}

func (c *Clock) CurrentScanline() uint32 { return c.scanline }
func (c *Clock) FrameCount() uint64      { return c.frameCount }
func (c *Clock) IsVBlank() bool          { return c.vblankActive }
func (c *Clock) IsHBlank() bool          { return c.hblankActive }
func (c *Clock) TotalCycles() uint64     { return c.totalCycles }
