package dmg

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/cpu"
	"github.com/valerio/dmgcore/dmg/debug"
	"github.com/valerio/dmgcore/dmg/input/action"
	"github.com/valerio/dmgcore/dmg/memory"
	"github.com/valerio/dmgcore/dmg/serial"
	"github.com/valerio/dmgcore/dmg/video"
)

// DMG wires CPU, memory, timer, serial and PPU together and drives them in
// lock step. It is not safe for concurrent use.
type DMG struct {
	cpu *cpu.CPU
	mem *memory.MMU
	ppu *video.PPU

	serial *serial.LogSink
	trace  bool

	frames       uint64
	instructions uint64
}

// Option configures a DMG at construction time.
type Option func(*options)

type options struct {
	bootROM    []byte
	trace      bool
	serialOpts []serial.LogSinkOption
}

// WithBootROM maps a 256 byte boot ROM at 0x0000 and starts execution there.
func WithBootROM(data []byte) Option {
	return func(o *options) { o.bootROM = data }
}

// WithTrace logs every executed instruction at debug level.
func WithTrace(enabled bool) Option {
	return func(o *options) { o.trace = enabled }
}

// WithSerial configures the serial log sink attached to the link port.
func WithSerial(opts ...serial.LogSinkOption) Option {
	return func(o *options) { o.serialOpts = append(o.serialOpts, opts...) }
}

// New creates an emulator for the given cartridge. A nil cartridge behaves
// like a console with an empty slot.
func New(cart *memory.Cartridge, opts ...Option) (*DMG, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var mem *memory.MMU
	if cart != nil {
		mem = memory.NewWithCartridge(cart)
	} else {
		mem = memory.New()
	}

	sink := serial.NewLogSink(func() { mem.RequestInterrupt(addr.SerialInterrupt) }, o.serialOpts...)
	mem.SetSerial(sink)

	d := &DMG{
		mem:    mem,
		serial: sink,
		trace:  o.trace,
	}

	if o.bootROM != nil {
		if err := mem.LoadBootROM(o.bootROM); err != nil {
			return nil, fmt.Errorf("loading boot rom: %w", err)
		}
		d.cpu = cpu.NewWithBootROM(mem)
	} else {
		d.cpu = cpu.New(mem)
	}
	d.ppu = video.NewPPU(mem)

	return d, nil
}

// NewWithFile creates a new emulator instance and loads the file specified into it.
func NewWithFile(path string, opts ...Option) (*DMG, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cart, err := memory.NewCartridge(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	return New(cart, opts...)
}

// Step executes one instruction (or services one interrupt, or idles one HALT
// tick) and advances timer, serial port and PPU by the cycles it took.
func (d *DMG) Step() (int, error) {
	if d.trace && slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		slog.Debug("exec",
			"pc", fmt.Sprintf("0x%04X", d.cpu.GetPC()),
			"instr", d.cpu.CurrentInstruction(),
			"flags", d.cpu.GetFlagString())
	}

	cycles, err := d.cpu.Step()
	if err != nil {
		return 0, err
	}
	d.instructions++

	d.mem.Timer().Advance(cycles)
	d.mem.Serial().Tick(cycles)
	d.ppu.Step(cycles)

	return cycles, nil
}

// RunUntilFrame steps until the PPU completes a frame. A CPU fault stops the
// loop and is returned as is.
func (d *DMG) RunUntilFrame() error {
	for {
		if _, err := d.Step(); err != nil {
			return err
		}
		if d.ppu.FrameReady() {
			d.frames++
			return nil
		}
	}
}

// GetCurrentFrame returns the last completed frame.
func (d *DMG) GetCurrentFrame() *video.FrameBuffer {
	return d.ppu.Frame()
}

// HandleAction presses or releases a Game Boy button. Emulator actions are
// ignored, the host loop handles those.
func (d *DMG) HandleAction(act action.Action, pressed bool) {
	key, ok := action.JoypadKey(act)
	if !ok {
		return
	}

	if pressed {
		d.mem.HandleKeyPress(key)
	} else {
		d.mem.HandleKeyRelease(key)
	}
}

// SerialOutput returns everything sent over the link port so far.
func (d *DMG) SerialOutput() string {
	return d.serial.Output()
}

func (d *DMG) Frames() uint64 {
	return d.frames
}

func (d *DMG) Instructions() uint64 {
	return d.instructions
}

func (d *DMG) CPU() *cpu.CPU {
	return d.cpu
}

func (d *DMG) MMU() *memory.MMU {
	return d.mem
}

// ExtractDebugData snapshots CPU registers, interrupt state and the memory
// around PC for debug displays.
func (d *DMG) ExtractDebugData() *debug.Data {
	if d.cpu == nil || d.mem == nil {
		return nil
	}

	return &debug.Data{
		CPU:             debug.CaptureCPU(d.cpu),
		Memory:          debug.CaptureMemory(d.mem, d.cpu.GetPC(), debug.SnapshotSize),
		LY:              d.ppu.LY(),
		Mode:            d.ppu.Mode(),
		InterruptEnable: d.mem.Read(addr.IE),
		InterruptFlags:  d.mem.Read(addr.IF),
	}
}
