package debug

import (
	"fmt"

	"github.com/valerio/dmgcore/dmg/cpu"
	"github.com/valerio/dmgcore/dmg/memory"
	"github.com/valerio/dmgcore/dmg/video"
)

// SnapshotSize is the number of bytes captured around PC.
const SnapshotSize = 16

// CPUState contains all CPU register information for debugging
type CPUState struct {
	A uint8
	F uint8
	B uint8
	C uint8
	D uint8
	E uint8
	H uint8
	L uint8

	SP     uint16
	PC     uint16
	IME    bool
	Halted bool
	Cycles uint64
	Flags  string
}

// MemorySnapshot contains a snapshot of memory for disassembly
type MemorySnapshot struct {
	StartAddr uint16
	Bytes     []uint8
}

// Data contains all debug information needed by debug displays
type Data struct {
	CPU             *CPUState
	Memory          *MemorySnapshot
	LY              uint8
	Mode            video.Mode
	InterruptEnable uint8 // IE register at 0xFFFF
	InterruptFlags  uint8 // IF register at 0xFF0F
}

// Reader is the read side of the bus.
type Reader interface {
	Read(addr uint16) uint8
}

func CaptureCPU(c *cpu.CPU) *CPUState {
	return &CPUState{
		A:      c.GetA(),
		F:      c.GetF(),
		B:      c.GetB(),
		C:      c.GetC(),
		D:      c.GetD(),
		E:      c.GetE(),
		H:      c.GetH(),
		L:      c.GetL(),
		SP:     c.GetSP(),
		PC:     c.GetPC(),
		IME:    c.GetIME(),
		Halted: c.IsHalted(),
		Cycles: c.GetCycles(),
		Flags:  c.GetFlagString(),
	}
}

// CaptureMemory copies size bytes starting at start, wrapping at 0xFFFF.
func CaptureMemory(r Reader, start uint16, size int) *MemorySnapshot {
	snap := &MemorySnapshot{StartAddr: start, Bytes: make([]uint8, size)}
	for i := range snap.Bytes {
		snap.Bytes[i] = r.Read(start + uint16(i))
	}
	return snap
}

// Disassemble decodes up to count instructions from the snapshot. Decoding
// stops early when an instruction would run past the captured bytes.
func (s *MemorySnapshot) Disassemble(count int) []string {
	lines := make([]string, 0, count)
	offset := 0
	for len(lines) < count && offset < len(s.Bytes) {
		text, length := cpu.Disassemble(s, s.StartAddr+uint16(offset))
		if offset+length > len(s.Bytes) {
			break
		}
		lines = append(lines, fmt.Sprintf("%04X  %s", s.StartAddr+uint16(offset), text))
		offset += length
	}
	return lines
}

// Read implements cpu.Reader over the captured window. Addresses outside it
// read as 0xFF.
func (s *MemorySnapshot) Read(address uint16) uint8 {
	i := int(address - s.StartAddr)
	if i < 0 || i >= len(s.Bytes) {
		return 0xFF
	}
	return s.Bytes[i]
}

// SpriteInfo is an OAM entry with screen coordinates.
type SpriteInfo struct {
	Index     int
	X         int
	Y         int
	Sprite    memory.Sprite
	IsVisible bool
}

func (s SpriteInfo) String() string {
	status := "OFF"
	if s.IsVisible {
		status = "ACTIVE"
	}
	return fmt.Sprintf("Sprite %2d: Y=%3d X=%3d  Tile=0x%02X Flags=0x%02X [%s]",
		s.Index, s.Y, s.X, s.Sprite.Tile, s.Sprite.Flags, status)
}

// ListSprites returns every OAM entry, marking those that intersect line.
func ListSprites(mem *memory.MMU, line, height int) []SpriteInfo {
	sprites := make([]SpriteInfo, memory.SpriteCount)
	for i := range sprites {
		s := mem.Sprite(i)
		y := int(s.Y) - 16
		sprites[i] = SpriteInfo{
			Index:     i,
			X:         int(s.X) - 8,
			Y:         y,
			Sprite:    s,
			IsVisible: y <= line && line < y+height,
		}
	}
	return sprites
}
