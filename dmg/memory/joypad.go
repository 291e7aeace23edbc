package memory

import "github.com/valerio/dmgcore/dmg/bit"

// JoypadKey represents a key on the Gameboy joypad
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

// Joypad tracks button state and the P1 selection lines.
// Note that 1 -> button released, 0 -> button pressed.
type Joypad struct {
	buttons uint8 // A/B/Select/Start
	dpad    uint8 // Right/Left/Up/Down
	line    uint8 // selection bits 4-5 as last written
}

// NewJoypad creates a joypad with every key released and no group selected.
func NewJoypad() *Joypad {
	return &Joypad{
		buttons: 0x0F,
		dpad:    0x0F,
		line:    0x30,
	}
}

// Read returns P1 as the CPU sees it.
//
// A group is selected by writing 0 to its bit: bit 4 selects the d-pad, bit 5
// the buttons. With both selected the lines are ANDed, with none the low bits
// float high. Bits 6-7 always read as 1.
func (j *Joypad) Read() uint8 {
	result := uint8(0xC0) | j.line

	selectDpad := !bit.IsSet(4, j.line)
	selectButtons := !bit.IsSet(5, j.line)

	switch {
	case selectButtons && selectDpad:
		result |= j.buttons & j.dpad
	case selectButtons:
		result |= j.buttons
	case selectDpad:
		result |= j.dpad
	default:
		result |= 0x0F
	}

	return result
}

// Write sets the joypad line to be read
func (j *Joypad) Write(value uint8) {
	j.line = value & 0x30
}

// Press updates the joypad state when a key is pressed.
// Returns true on a released -> pressed transition.
func (j *Joypad) Press(key JoypadKey) bool {
	group, index := j.group(key)
	was := bit.IsSet(index, *group)
	*group = bit.Reset(index, *group)
	return was
}

// Release updates the joypad state when a key is released
func (j *Joypad) Release(key JoypadKey) {
	group, index := j.group(key)
	*group = bit.Set(index, *group)
}

func (j *Joypad) group(key JoypadKey) (*uint8, uint8) {
	if key >= JoypadA {
		return &j.buttons, uint8(key - JoypadA)
	}
	return &j.dpad, uint8(key)
}
