package video

import (
	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/bit"
	"github.com/valerio/dmgcore/dmg/memory"
)

// Mode is the PPU state, as exposed in the low 2 bits of STAT.
type Mode uint8

const (
	HBlank Mode = iota
	VBlank
	OAMScan
	PixelTransfer
)

func (m Mode) String() string {
	switch m {
	case HBlank:
		return "HBlank"
	case VBlank:
		return "VBlank"
	case OAMScan:
		return "OAMScan"
	default:
		return "PixelTransfer"
	}
}

const (
	oamScanCycles       = 80
	pixelTransferCycles = 172
	hblankCycles        = 204
	scanlineCycles      = oamScanCycles + pixelTransferCycles + hblankCycles

	visibleLines = 144
	totalLines   = 154

	// FrameCycles is the length of a frame in CPU cycles.
	FrameCycles = scanlineCycles * totalLines
)

// LCDC (LCD Control) Register bit values
// Bit 7 - LCD Display Enable (0=Off, 1=On)
// Bit 6 - Window Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 5 - Window Display Enable (0=Off, 1=On)
// Bit 4 - BG & Window Tile Data Select (0=8800-97FF, 1=8000-8FFF)
// Bit 3 - BG Tile Map Display Select (0=9800-9BFF, 1=9C00-9FFF)
// Bit 2 - OBJ (Sprite) Size (0=8x8, 1=8x16)
// Bit 1 - OBJ (Sprite) Display Enable (0=Off, 1=On)
// Bit 0 - BG Display (0=Off, 1=On)
type lcdcFlag uint8

const (
	lcdDisplayEnable       lcdcFlag = 7
	windowTileMapSelect    lcdcFlag = 6
	windowDisplayEnable    lcdcFlag = 5
	bgWindowTileDataSelect lcdcFlag = 4
	bgTileMapDisplaySelect lcdcFlag = 3
	spriteSize             lcdcFlag = 2
	spriteDisplayEnable    lcdcFlag = 1
	bgDisplay              lcdcFlag = 0
)

// STAT register bits
const (
	statCoincidence     = 2
	statHBlankInterrupt = 3
	statVBlankInterrupt = 4
	statOAMInterrupt    = 5
	statLYCInterrupt    = 6
)

// PPU renders scanlines into a back buffer and publishes it at VBlank.
type PPU struct {
	memory *memory.MMU

	front *FrameBuffer
	back  *FrameBuffer

	mode   Mode
	line   uint8
	cycles int

	// windowLine counts the window rows drawn so far in this frame
	windowLine int
	// bgLine keeps the background colour indices of the current line,
	// needed by sprites that sit behind the background
	bgLine [FramebufferWidth]uint8

	lcdEnabled bool
	frameReady bool
}

func NewPPU(mmu *memory.MMU) *PPU {
	p := &PPU{
		memory:     mmu,
		front:      NewFrameBuffer(),
		back:       NewFrameBuffer(),
		lcdEnabled: true,
	}
	p.setMode(OAMScan)
	mmu.SetLY(0)
	return p
}

// Step advances the PPU by the given amount of CPU cycles.
func (p *PPU) Step(cycles int) {
	if !p.readLCDC(lcdDisplayEnable) {
		p.stepDisabled(cycles)
		return
	}

	if !p.lcdEnabled {
		// the LCD was just turned back on, a new frame starts at line 0
		p.lcdEnabled = true
		p.cycles = 0
		p.windowLine = 0
		p.setLine(0)
		p.setMode(OAMScan)
	}

	p.cycles += cycles
	for p.cycles >= p.modeLength() {
		p.cycles -= p.modeLength()
		p.advance()
	}
}

// FrameReady reports whether a new frame was completed since the last call.
func (p *PPU) FrameReady() bool {
	ready := p.frameReady
	p.frameReady = false
	return ready
}

// Frame returns the last completed frame.
func (p *PPU) Frame() *FrameBuffer {
	return p.front
}

func (p *PPU) Mode() Mode {
	return p.mode
}

func (p *PPU) LY() uint8 {
	return p.line
}

func (p *PPU) modeLength() int {
	switch p.mode {
	case OAMScan:
		return oamScanCycles
	case PixelTransfer:
		return pixelTransferCycles
	case HBlank:
		return hblankCycles
	default:
		return scanlineCycles
	}
}

func (p *PPU) advance() {
	switch p.mode {
	case OAMScan:
		p.setMode(PixelTransfer)
	case PixelTransfer:
		p.renderScanline()
		p.setMode(HBlank)
		p.statInterrupt(statHBlankInterrupt)
	case HBlank:
		p.setLine(p.line + 1)
		if p.line == visibleLines {
			p.enterVBlank()
			return
		}
		p.setMode(OAMScan)
		p.statInterrupt(statOAMInterrupt)
	case VBlank:
		if p.line+1 == totalLines {
			p.windowLine = 0
			p.setLine(0)
			p.setMode(OAMScan)
			p.statInterrupt(statOAMInterrupt)
			return
		}
		p.setLine(p.line + 1)
	}
}

func (p *PPU) enterVBlank() {
	p.setMode(VBlank)
	p.memory.RequestInterrupt(addr.VBlankInterrupt)
	p.statInterrupt(statVBlankInterrupt)
	p.swapBuffers()
}

// stepDisabled keeps the PPU in mode 0 at line 0. Frames still complete every
// FrameCycles so the host keeps presenting, showing a blank screen.
func (p *PPU) stepDisabled(cycles int) {
	if p.lcdEnabled {
		p.lcdEnabled = false
		p.cycles = 0
		p.line = 0
		p.memory.SetLY(0)
		p.setMode(HBlank)
	}

	p.cycles += cycles
	for p.cycles >= FrameCycles {
		p.cycles -= FrameCycles
		p.back.Clear(WhiteColor)
		p.swapBuffers()
	}
}

func (p *PPU) swapBuffers() {
	p.front, p.back = p.back, p.front
	p.frameReady = true
}

// setLine updates LY and the coincidence flag, raising the STAT interrupt
// when LY matches LYC and bit 6 is enabled.
func (p *PPU) setLine(line uint8) {
	p.line = line
	p.memory.SetLY(line)

	stat := p.stat()
	match := line == p.memory.Read(addr.LYC)
	p.memory.SetSTAT(bit.SetTo(statCoincidence, stat, match))

	if match && bit.IsSet(statLYCInterrupt, stat) {
		p.memory.RequestInterrupt(addr.LCDSTATInterrupt)
	}
}

func (p *PPU) setMode(mode Mode) {
	p.mode = mode
	p.memory.SetSTAT(p.stat()&^0x03 | uint8(mode))
}

func (p *PPU) statInterrupt(source uint8) {
	if bit.IsSet(source, p.stat()) {
		p.memory.RequestInterrupt(addr.LCDSTATInterrupt)
	}
}

// stat returns STAT without the unused bit 7.
func (p *PPU) stat() uint8 {
	return p.memory.Read(addr.STAT) & 0x7F
}

func (p *PPU) readLCDC(flag lcdcFlag) bool {
	return bit.IsSet(uint8(flag), p.memory.Read(addr.LCDC))
}
