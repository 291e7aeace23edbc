package memory

import (
	"fmt"
	"log/slog"

	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/serial"
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionIO
)

// BootROMSize is the size of the DMG boot ROM overlay.
const BootROMSize = 0x100

const dmaLength = 160

// SerialPort is the minimal interface for a serial device connected to SB/SC.
// Implementations MUST only accept reads/writes to addr.SB and addr.SC.
type SerialPort interface {
	Write(address uint16, value byte)
	Read(address uint16) byte
	Tick(cycles int)
	Reset()
}

// MMU allows access to all memory mapped I/O and data/registers
type MMU struct {
	mbc       *Controller
	memory    []byte
	regionMap [256]memRegion

	bootROM        []byte
	bootROMEnabled bool

	tiles    [TileCount]Tile
	sprites  [SpriteCount]Sprite
	palettes [3]Palette // BGP, OBP0, OBP1

	joypad *Joypad
	serial SerialPort
	timer  Timer
}

// New creates a new memory unit with no cartridge loaded.
// Equivalent to turning on a Gameboy without a cartridge in.
func New() *MMU {
	mmu := &MMU{
		memory: make([]byte, 0x10000),
		joypad: NewJoypad(),
	}
	mmu.serial = serial.NewLogSink(func() { mmu.RequestInterrupt(addr.SerialInterrupt) })
	mmu.timer.TimerInterruptHandler = func() { mmu.RequestInterrupt(addr.TimerInterrupt) }
	initRegionMap(mmu)
	return mmu
}

// NewWithCartridge creates a new memory unit with the provided cartridge loaded.
func NewWithCartridge(cart *Cartridge) *MMU {
	mmu := New()
	mmu.mbc = cart.Controller()
	return mmu
}

func initRegionMap(m *MMU) {
	for i := 0x00; i <= 0xFF; i++ {
		switch {
		case i < 0x80:
			m.regionMap[i] = regionROM
		case i < 0xA0:
			m.regionMap[i] = regionVRAM
		case i < 0xC0:
			m.regionMap[i] = regionExtRAM
		case i < 0xE0:
			m.regionMap[i] = regionWRAM
		case i < 0xFE:
			m.regionMap[i] = regionEcho
		case i == 0xFE:
			m.regionMap[i] = regionOAM
		default:
			m.regionMap[i] = regionIO
		}
	}
}

// LoadBootROM maps a 256 byte boot ROM over 0x0000-0x00FF until 0xFF50 is written.
func (m *MMU) LoadBootROM(data []byte) error {
	if len(data) != BootROMSize {
		return fmt.Errorf("boot rom must be %d bytes, got %d", BootROMSize, len(data))
	}
	m.bootROM = append([]byte(nil), data...)
	m.bootROMEnabled = true
	return nil
}

// BootROMEnabled reports whether the boot ROM overlay is still mapped.
func (m *MMU) BootROMEnabled() bool {
	return m.bootROMEnabled
}

// Timer returns the timer owned by the MMU.
func (m *MMU) Timer() *Timer {
	return &m.timer
}

// Serial returns the device attached to SB/SC.
func (m *MMU) Serial() SerialPort {
	return m.serial
}

// SetSerial replaces the device attached to SB/SC.
func (m *MMU) SetSerial(port SerialPort) {
	m.serial = port
}

// RequestInterrupt sets the interrupt flag (IF register) of the chosen interrupt to 1.
func (m *MMU) RequestInterrupt(interrupt addr.Interrupt) {
	if uint8(interrupt)&addr.InterruptMask == 0 {
		panic(fmt.Sprintf("Unknown interrupt: 0x%02X", uint8(interrupt)))
	}
	m.memory[addr.IF] |= uint8(interrupt)
}

// PendingInterrupts returns IE & IF restricted to the five interrupt bits.
func (m *MMU) PendingInterrupts() uint8 {
	return m.memory[addr.IE] & m.memory[addr.IF] & addr.InterruptMask
}

// Tile returns the decoded tile at index (0-383).
func (m *MMU) Tile(index int) *Tile {
	return &m.tiles[index]
}

// Sprite returns the decoded OAM entry at index (0-39).
func (m *MMU) Sprite(index int) Sprite {
	return m.sprites[index]
}

// BGPalette returns the decoded BGP register.
func (m *MMU) BGPalette() Palette {
	return m.palettes[0]
}

// OBJPalette returns the decoded OBP0 (n=0) or OBP1 (n=1) register.
func (m *MMU) OBJPalette(n int) Palette {
	return m.palettes[1+n&1]
}

// SetLY stores the current scanline, bypassing the CPU write rules.
func (m *MMU) SetLY(value byte) {
	m.memory[addr.LY] = value
}

// SetSTAT stores the full STAT register, bypassing the CPU write rules.
func (m *MMU) SetSTAT(value byte) {
	m.memory[addr.STAT] = value
}

func (m *MMU) Read(address uint16) byte {
	switch m.regionMap[address>>8] {
	case regionROM:
		if m.bootROMEnabled && address < BootROMSize {
			return m.bootROM[address]
		}
		fallthrough
	case regionExtRAM:
		if m.mbc == nil {
			slog.Warn("Reading from ROM/external RAM with no cartridge", "addr", fmt.Sprintf("0x%04X", address))
			return 0xFF
		}
		return m.mbc.Read(address)
	case regionVRAM, regionWRAM:
		return m.memory[address]
	case regionEcho:
		return m.memory[address-0x2000]
	case regionOAM:
		if address >= addr.UnusableStart {
			return 0x00
		}
		return m.memory[address]
	case regionIO:
		return m.readIO(address)
	default:
		panic(fmt.Sprintf("Attempted read at unmapped address: 0x%X", address))
	}
}

func (m *MMU) readIO(address uint16) byte {
	switch address {
	case addr.P1:
		return m.joypad.Read()
	case addr.SB, addr.SC:
		return m.serial.Read(address)
	case addr.DIV, addr.TIMA, addr.TMA, addr.TAC:
		return m.timer.Read(address)
	case addr.IF:
		// upper 3 bits are unused and always read as 1
		return m.memory[address] | 0xE0
	case addr.STAT:
		return m.memory[address] | 0x80
	default:
		return m.memory[address]
	}
}

func (m *MMU) Write(address uint16, value byte) {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		if m.mbc == nil {
			slog.Warn("Writing to cartridge with no cartridge", "addr", fmt.Sprintf("0x%04X", address), "value", fmt.Sprintf("0x%02X", value))
			return
		}
		m.mbc.Write(address, value)
	case regionVRAM:
		m.memory[address] = value
		if address <= addr.TileDataEnd {
			m.decodeTileRow(address)
		}
	case regionWRAM:
		m.memory[address] = value
	case regionEcho:
		m.memory[address-0x2000] = value
	case regionOAM:
		if address >= addr.UnusableStart {
			return
		}
		m.memory[address] = value
		m.decodeSprite(int(address-addr.OAMStart) / 4)
	case regionIO:
		m.writeIO(address, value)
	default:
		panic(fmt.Sprintf("Attempted write at unmapped address: 0x%X", address))
	}
}

func (m *MMU) writeIO(address uint16, value byte) {
	switch address {
	case addr.P1:
		m.joypad.Write(value)
	case addr.SB, addr.SC:
		m.serial.Write(address, value)
	case addr.DIV, addr.TIMA, addr.TMA, addr.TAC:
		m.timer.Write(address, value)
	case addr.IF:
		m.memory[address] = value & addr.InterruptMask
	case addr.STAT:
		// mode and coincidence bits are owned by the PPU
		m.memory[address] = (m.memory[address] & 0x07) | (value & 0x78)
	case addr.LY:
		// read only
	case addr.DMA:
		m.memory[address] = value
		m.dmaTransfer(value)
	case addr.BGP, addr.OBP0, addr.OBP1:
		m.memory[address] = value
		m.palettes[address-addr.BGP] = decodePalette(value)
	case addr.BootROMDisable:
		m.memory[address] = value
		if value != 0 && m.bootROMEnabled {
			m.bootROMEnabled = false
			slog.Debug("boot rom unmapped")
		}
	default:
		m.memory[address] = value
	}
}

// dmaTransfer copies 160 bytes from value<<8 into OAM.
func (m *MMU) dmaTransfer(value byte) {
	source := uint16(value) << 8
	for i := uint16(0); i < dmaLength; i++ {
		m.memory[addr.OAMStart+i] = m.Read(source + i)
	}
	for i := range m.sprites {
		m.decodeSprite(i)
	}
}

func (m *MMU) decodeTileRow(address uint16) {
	offset := address - addr.TileData0
	index := int(offset / 16)
	row := int(offset%16) / 2
	base := address &^ 1
	m.tiles[index].decodeRow(row, m.memory[base], m.memory[base+1])
}

func (m *MMU) decodeSprite(index int) {
	base := addr.OAMStart + uint16(index)*4
	m.sprites[index] = Sprite{
		Y:     m.memory[base],
		X:     m.memory[base+1],
		Tile:  m.memory[base+2],
		Flags: m.memory[base+3],
	}
}

// HandleKeyPress marks the key as pressed and requests the joypad interrupt
// on a high to low transition.
func (m *MMU) HandleKeyPress(key JoypadKey) {
	if m.joypad.Press(key) {
		m.RequestInterrupt(addr.JoypadInterrupt)
	}
}

// HandleKeyRelease marks the key as released.
func (m *MMU) HandleKeyRelease(key JoypadKey) {
	m.joypad.Release(key)
}
