package window

import (
	"errors"
	"log/slog"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/valerio/dmgcore/dmg/backend"
	"github.com/valerio/dmgcore/dmg/input"
	"github.com/valerio/dmgcore/dmg/input/action"
	"github.com/valerio/dmgcore/dmg/input/event"
	"github.com/valerio/dmgcore/dmg/timing"
	"github.com/valerio/dmgcore/dmg/video"
)

const defaultScale = 3

// ebitenKeyNames converts ebiten keys to key names used in default mappings
var ebitenKeyNames = map[ebiten.Key]string{
	ebiten.KeyZ:          "z",
	ebiten.KeyX:          "x",
	ebiten.KeyW:          "w",
	ebiten.KeyA:          "a",
	ebiten.KeyS:          "s",
	ebiten.KeyD:          "d",
	ebiten.KeyF:          "f",
	ebiten.KeyP:          "p",
	ebiten.KeyQ:          "q",
	ebiten.KeyEnter:      "Enter",
	ebiten.KeyShift:      "Shift",
	ebiten.KeySpace:      "Space",
	ebiten.KeyArrowUp:    "Up",
	ebiten.KeyArrowDown:  "Down",
	ebiten.KeyArrowLeft:  "Left",
	ebiten.KeyArrowRight: "Right",
	ebiten.KeyEscape:     "Escape",
	ebiten.KeyF9:         "F9",
}

// Backend presents frames in a desktop window. ebiten owns the main loop, so
// the host loop runs inside Run.
type Backend struct {
	config  backend.Config
	keys    map[ebiten.Key]action.Action
	texture *ebiten.Image
	pixels  []byte
	events  []backend.InputEvent
	tick    func() (bool, error)
}

func New() *Backend {
	keys := make(map[ebiten.Key]action.Action)
	for key, name := range ebitenKeyNames {
		if act, ok := input.GetDefaultMapping(name); ok {
			keys[key] = act
		}
	}

	pixels := make([]byte, video.FramebufferSize*4)
	video.NewFrameBuffer().WriteRGBA(pixels)

	return &Backend{
		keys:   keys,
		pixels: pixels,
	}
}

func (w *Backend) Init(config backend.Config) error {
	if config.Scale <= 0 {
		config.Scale = defaultScale
	}
	w.config = config

	ebiten.SetWindowTitle(config.Title)
	ebiten.SetWindowSize(video.FramebufferWidth*config.Scale, video.FramebufferHeight*config.Scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetTPS(int(timing.TargetFPS() + 0.5))

	slog.Info("Window backend initialized", "scale", config.Scale)
	return nil
}

// Update copies the frame for the next Draw and hands over the input events
// collected since the previous call.
func (w *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	if frame != nil {
		frame.WriteRGBA(w.pixels)
	}
	events := w.events
	w.events = nil
	return events, nil
}

func (w *Backend) Cleanup() error {
	if w.texture != nil {
		w.texture.Deallocate()
	}
	return nil
}

// Run blocks in the ebiten loop, calling tick once per ebiten update.
func (w *Backend) Run(tick func() (bool, error)) error {
	w.tick = tick
	err := ebiten.RunGame(&game{w})
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// game adapts the backend to ebiten.Game without exporting its methods.
type game struct {
	w *Backend
}

func (g *game) Update() error {
	w := g.w
	for key, act := range w.keys {
		switch {
		case inpututil.IsKeyJustPressed(key):
			w.events = append(w.events, backend.InputEvent{Action: act, Type: event.Press})
		case inpututil.IsKeyJustReleased(key):
			w.events = append(w.events, backend.InputEvent{Action: act, Type: event.Release})
		}
	}
	if ebiten.IsWindowBeingClosed() {
		w.events = append(w.events, backend.InputEvent{Action: action.EmulatorQuit, Type: event.Press})
	}

	done, err := w.tick()
	if err != nil {
		return err
	}
	if done {
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	w := g.w
	if w.texture == nil {
		w.texture = ebiten.NewImage(video.FramebufferWidth, video.FramebufferHeight)
	}
	w.texture.WritePixels(w.pixels)
	screen.DrawImage(w.texture, nil)
}

func (g *game) Layout(_, _ int) (int, int) {
	return video.FramebufferWidth, video.FramebufferHeight
}
