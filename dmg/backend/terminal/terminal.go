package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/valerio/dmgcore/dmg/backend"
	"github.com/valerio/dmgcore/dmg/backend/terminal/render"
	"github.com/valerio/dmgcore/dmg/debug"
	"github.com/valerio/dmgcore/dmg/input"
	"github.com/valerio/dmgcore/dmg/input/action"
	"github.com/valerio/dmgcore/dmg/input/event"
	"github.com/valerio/dmgcore/dmg/video"
)

const (
	width  = video.FramebufferWidth
	height = video.FramebufferHeight

	// the game area uses one cell per two pixel rows
	gameAreaHeight = height / 2

	registerHeight = 8
	disasmHeight   = 9
	minTermWidth   = width + 2
	minTermHeight  = gameAreaHeight + 2

	// keyTimeout is slightly longer than a typical key repeat interval.
	// Terminals report no key releases, a key counts as held while repeats
	// keep arriving.
	keyTimeout = 100 * time.Millisecond
)

var shadeColors = [4]tcell.Color{
	tcell.ColorWhite,
	tcell.ColorSilver,
	tcell.ColorGray,
	tcell.ColorBlack,
}

// Backend renders frames with half-block characters, with a side panel for
// registers, disassembly and logs.
type Backend struct {
	screen    tcell.Screen
	newScreen func() (tcell.Screen, error)
	config    backend.Config
	now       func() time.Time

	logBuffer *render.LogBuffer
	logLevel  *slog.LevelVar

	interrupted context.Context
	stopSignals context.CancelFunc

	eventQueue []backend.InputEvent
	keyStates  map[action.Action]time.Time // last time each key was seen
	activeKeys map[action.Action]bool      // keys reported as pressed last frame
}

func New() *Backend {
	return &Backend{
		newScreen: tcell.NewScreen,
		now:       time.Now,
	}
}

func (t *Backend) Init(config backend.Config) error {
	t.config = config
	t.keyStates = make(map[action.Action]time.Time)
	t.activeKeys = make(map[action.Action]bool)

	screen, err := t.newScreen()
	if err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}
	t.screen = screen

	t.logBuffer = render.NewLogBuffer(100)
	t.logLevel = new(slog.LevelVar)
	slog.SetDefault(slog.New(render.NewLogBufferHandler(t.logBuffer, t.logLevel)))

	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	t.interrupted, t.stopSignals = signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT)

	slog.Info("Terminal backend initialized")
	return nil
}

// Update polls key events, renders frame and returns the input events.
func (t *Backend) Update(frame *video.FrameBuffer) ([]backend.InputEvent, error) {
	now := t.now()

	for t.screen.HasPendingEvent() {
		switch ev := t.screen.PollEvent().(type) {
		case *tcell.EventKey:
			t.processKeyEvent(ev, now)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}

	events := t.gameInputEvents(now)
	events = append(events, t.eventQueue...)
	t.eventQueue = nil

	if t.interrupted.Err() != nil {
		events = append(events, backend.InputEvent{Action: action.EmulatorQuit, Type: event.Press})
	}

	t.render(frame)
	t.screen.Show()

	return events, nil
}

func (t *Backend) Cleanup() error {
	if t.stopSignals != nil {
		t.stopSignals()
	}
	if t.screen != nil {
		t.screen.Fini()
	}
	return nil
}

// gameInputEvents turns the key timestamps into Press, Hold and Release edges.
func (t *Backend) gameInputEvents(now time.Time) []backend.InputEvent {
	var events []backend.InputEvent
	active := make(map[action.Action]bool)

	for act, lastSeen := range t.keyStates {
		if now.Sub(lastSeen) >= keyTimeout {
			delete(t.keyStates, act)
			continue
		}

		active[act] = true
		if t.activeKeys[act] {
			events = append(events, backend.InputEvent{Action: act, Type: event.Hold})
		} else {
			slog.Debug("Key press", "action", act)
			events = append(events, backend.InputEvent{Action: act, Type: event.Press})
		}
	}

	for act := range t.activeKeys {
		if !active[act] {
			slog.Debug("Key release", "action", act)
			events = append(events, backend.InputEvent{Action: act, Type: event.Release})
		}
	}

	t.activeKeys = active
	return events
}

func (t *Backend) processKeyEvent(ev *tcell.EventKey, now time.Time) {
	var act action.Action
	var ok bool
	if ev.Key() == tcell.KeyRune {
		act, ok = runeMapping[ev.Rune()]
	} else {
		act, ok = keyMapping[ev.Key()]
	}
	if !ok {
		return
	}

	if action.GetInfo(act).Category != action.CategoryGameInput {
		t.eventQueue = append(t.eventQueue, backend.InputEvent{Action: act, Type: event.Press})
		return
	}

	// a terminal can only report one direction at a time
	if isDirection(act) {
		for _, dir := range []action.Action{action.GBDPadUp, action.GBDPadDown, action.GBDPadLeft, action.GBDPadRight} {
			delete(t.keyStates, dir)
		}
	}
	t.keyStates[act] = now
}

func isDirection(act action.Action) bool {
	switch act {
	case action.GBDPadUp, action.GBDPadDown, action.GBDPadLeft, action.GBDPadRight:
		return true
	}
	return false
}

// SetLogLevel filters the log panel.
func (t *Backend) SetLogLevel(level slog.Level) {
	t.logLevel.Set(level)
}

// tcellKeyNames converts tcell keys to key names used in default mappings
var tcellKeyNames = map[tcell.Key]string{
	tcell.KeyEnter:  "Enter",
	tcell.KeyUp:     "Up",
	tcell.KeyDown:   "Down",
	tcell.KeyLeft:   "Left",
	tcell.KeyRight:  "Right",
	tcell.KeyEscape: "Escape",
	tcell.KeyF9:     "F9",
}

var keyMapping = buildKeyMapping()

var runeMapping = buildRuneMapping()

func buildKeyMapping() map[tcell.Key]action.Action {
	mapping := make(map[tcell.Key]action.Action)
	for key, name := range tcellKeyNames {
		if act, ok := input.GetDefaultMapping(name); ok {
			mapping[key] = act
		}
	}
	mapping[tcell.KeyCtrlC] = action.EmulatorQuit
	return mapping
}

// buildRuneMapping picks every single character key of the default map.
func buildRuneMapping() map[rune]action.Action {
	mapping := make(map[rune]action.Action)
	for name, act := range input.DefaultKeyMap {
		if r := []rune(name); len(r) == 1 {
			mapping[r[0]] = act
		}
	}
	if act, ok := input.GetDefaultMapping("Space"); ok {
		mapping[' '] = act
	}
	return mapping
}

func (t *Backend) render(frame *video.FrameBuffer) {
	t.screen.Clear()

	termWidth, termHeight := t.screen.Size()
	if termWidth < minTermWidth || termHeight < minTermHeight {
		msg := fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight)
		t.drawText(0, termHeight/2, termWidth, msg, tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	dividerX := width + 1
	panelX := dividerX + 2
	panelWidth := termWidth - panelX

	t.drawBorders(termWidth, termHeight, dividerX)
	if frame != nil {
		t.drawGameBoy(frame)
	}

	logsY := 1
	if t.config.ShowDebug && t.config.DebugProvider != nil {
		if data := t.config.DebugProvider.ExtractDebugData(); data != nil && data.Memory != nil {
			t.drawRegisters(panelX, 1, panelWidth, data.CPU, data.InterruptEnable, data.InterruptFlags)
			t.drawDisassembly(panelX, registerHeight+2, panelWidth, data.Memory.Disassemble(disasmHeight))
			logsY = registerHeight + disasmHeight + 3
		}
	}
	t.drawLogs(panelX, logsY, panelWidth, termHeight-logsY-1)
}

func (t *Backend) drawBorders(termWidth, termHeight, dividerX int) {
	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	titleStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)

	for y := 0; y < termHeight-1; y++ {
		t.screen.SetContent(dividerX, y, '│', nil, borderStyle)
	}

	t.drawText(1, 0, dividerX-1, " "+t.config.Title+" ", titleStyle)
	t.drawText(0, termHeight-1, termWidth,
		" Z/X=A/B Enter=Start Shift=Select arrows=D-pad | Space=pause F=frame F9=snapshot Q=quit ", borderStyle)
}

func (t *Backend) drawGameBoy(frame *video.FrameBuffer) {
	for y := 0; y < height; y += 2 {
		for x := 0; x < width; x++ {
			top := render.Shade(frame.GetPixel(x, y))
			bottom := render.Shade(frame.GetPixel(x, y+1))
			ch, fg, bg := render.HalfBlock(top, bottom)

			style := tcell.StyleDefault.Foreground(shadeColors[fg]).Background(shadeColors[bg])
			t.screen.SetContent(x, y/2+1, ch, nil, style)
		}
	}
}

func (t *Backend) drawRegisters(x, y, w int, cpu *debug.CPUState, ie, ifl uint8) {
	if cpu == nil {
		return
	}

	ime := "OFF"
	if cpu.IME {
		ime = "ON"
	}

	lines := []string{
		fmt.Sprintf("A: 0x%02X  F: 0x%02X  [%s]", cpu.A, cpu.F, cpu.Flags),
		fmt.Sprintf("B: 0x%02X  C: 0x%02X", cpu.B, cpu.C),
		fmt.Sprintf("D: 0x%02X  E: 0x%02X", cpu.D, cpu.E),
		fmt.Sprintf("H: 0x%02X  L: 0x%02X", cpu.H, cpu.L),
		fmt.Sprintf("SP: 0x%04X  PC: 0x%04X", cpu.SP, cpu.PC),
		fmt.Sprintf("IME: %s  IE: 0x%02X  IF: 0x%02X", ime, ie, ifl),
		fmt.Sprintf("Cycles: %d  Halted: %t", cpu.Cycles, cpu.Halted),
	}

	style := tcell.StyleDefault.Foreground(tcell.ColorBlue)
	for i, line := range lines {
		t.drawText(x, y+i, w, line, style)
	}
}

func (t *Backend) drawDisassembly(x, y, w int, lines []string) {
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
	current := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)

	for i, line := range lines {
		if i == 0 {
			t.drawText(x, y+i, w, "→ "+line, current)
			continue
		}
		t.drawText(x, y+i, w, "  "+line, style)
	}
}

func (t *Backend) drawLogs(x, y, w, h int) {
	if h <= 0 {
		return
	}

	styles := map[slog.Level]tcell.Style{
		slog.LevelDebug: tcell.StyleDefault.Foreground(tcell.ColorGray),
		slog.LevelInfo:  tcell.StyleDefault.Foreground(tcell.ColorBlue),
		slog.LevelWarn:  tcell.StyleDefault.Foreground(tcell.ColorYellow),
		slog.LevelError: tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true),
	}

	for i, entry := range t.logBuffer.GetRecent(h) {
		text := render.FormatLogEntry(entry)
		if len(text) > w && w > 3 {
			text = text[:w-3] + "..."
		}
		t.drawText(x, y+i, w, text, styles[entry.Level])
	}
}

func (t *Backend) drawText(x, y, w int, text string, style tcell.Style) {
	i := 0
	for _, ch := range text {
		if i >= w {
			return
		}
		t.screen.SetContent(x+i, y, ch, nil, style)
		i++
	}
}
