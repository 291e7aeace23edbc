package action

import "github.com/valerio/dmgcore/dmg/memory"

// Action represents input actions that can be performed in the emulator
type Action int

const (
	// Game Boy hardware controls
	GBButtonA Action = iota
	GBButtonB
	GBButtonStart
	GBButtonSelect
	GBDPadUp
	GBDPadDown
	GBDPadLeft
	GBDPadRight

	// Emulator features
	EmulatorSnapshot
	EmulatorPauseToggle
	EmulatorStepFrame
	EmulatorQuit
)

// Category groups actions by who consumes them.
type Category int

const (
	// CategoryGameInput actions are forwarded to the joypad.
	CategoryGameInput Category = iota
	// CategoryEmulator actions control the host loop.
	CategoryEmulator
)

// Info describes an action for logs and help text.
type Info struct {
	Description string
	Category    Category
}

var infos = map[Action]Info{
	GBButtonA:           {"A", CategoryGameInput},
	GBButtonB:           {"B", CategoryGameInput},
	GBButtonStart:       {"Start", CategoryGameInput},
	GBButtonSelect:      {"Select", CategoryGameInput},
	GBDPadUp:            {"Up", CategoryGameInput},
	GBDPadDown:          {"Down", CategoryGameInput},
	GBDPadLeft:          {"Left", CategoryGameInput},
	GBDPadRight:         {"Right", CategoryGameInput},
	EmulatorSnapshot:    {"Snapshot", CategoryEmulator},
	EmulatorPauseToggle: {"Pause", CategoryEmulator},
	EmulatorStepFrame:   {"Step frame", CategoryEmulator},
	EmulatorQuit:        {"Quit", CategoryEmulator},
}

// GetInfo returns the description of act. Unknown actions are reported as
// emulator actions named "Unknown".
func GetInfo(act Action) Info {
	if info, ok := infos[act]; ok {
		return info
	}
	return Info{Description: "Unknown", Category: CategoryEmulator}
}

func (a Action) String() string {
	return GetInfo(a).Description
}

// JoypadKey maps a Game Boy control to its joypad line.
func JoypadKey(act Action) (memory.JoypadKey, bool) {
	switch act {
	case GBButtonA:
		return memory.JoypadA, true
	case GBButtonB:
		return memory.JoypadB, true
	case GBButtonStart:
		return memory.JoypadStart, true
	case GBButtonSelect:
		return memory.JoypadSelect, true
	case GBDPadUp:
		return memory.JoypadUp, true
	case GBDPadDown:
		return memory.JoypadDown, true
	case GBDPadLeft:
		return memory.JoypadLeft, true
	case GBDPadRight:
		return memory.JoypadRight, true
	default:
		return 0, false
	}
}
