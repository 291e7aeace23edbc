package backend

import (
	"github.com/valerio/dmgcore/dmg/debug"
	"github.com/valerio/dmgcore/dmg/input/action"
	"github.com/valerio/dmgcore/dmg/input/event"
	"github.com/valerio/dmgcore/dmg/video"
)

// Backend represents a presentation platform (rendering + input).
// Backends are responsible for:
// - Rendering frames to their specific output (terminal, window, PNG files)
// - Translating platform-specific input events to Actions
type Backend interface {
	// Init configures the backend. This is a required step before calling Update.
	Init(config Config) error

	// Update renders the frame and returns the input events collected since
	// the previous call.
	Update(frame *video.FrameBuffer) ([]InputEvent, error)

	// Cleanup resources when shutting down
	Cleanup() error
}

// Config holds configuration for backends
type Config struct {
	Title     string
	Scale     int
	ShowDebug bool // Backends may ignore unsupported features

	// DebugProvider is optional, backends with a debug view read from it.
	DebugProvider DebugDataProvider
}

// DebugDataProvider exposes emulator state to debug views.
type DebugDataProvider interface {
	ExtractDebugData() *debug.Data
}

// InputEvent is an action with its edge.
type InputEvent struct {
	Action action.Action
	Type   event.Type
}

// Runner is implemented by backends whose toolkit owns the main loop. Run
// calls tick once per host frame until it reports done or fails.
type Runner interface {
	Run(tick func() (done bool, err error)) error
}
