package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli"
	"github.com/valerio/dmgcore/dmg"
	"github.com/valerio/dmgcore/dmg/backend"
	"github.com/valerio/dmgcore/dmg/backend/headless"
	"github.com/valerio/dmgcore/dmg/backend/terminal"
	"github.com/valerio/dmgcore/dmg/backend/window"
	"github.com/valerio/dmgcore/dmg/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "dmg"
	app.Description = "A cycle-locked Game Boy (DMG) emulator"
	app.Usage = "dmg [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "rom",
			Usage: "Path to the ROM file",
		},
		cli.StringFlag{
			Name:  "backend",
			Usage: "Presentation backend: terminal, window or headless",
			Value: "terminal",
		},
		cli.IntFlag{
			Name:  "frames",
			Usage: "Number of frames to run in headless mode (required for headless)",
		},
		cli.IntFlag{
			Name:  "snapshot-interval",
			Usage: "Save PNG snapshots every N frames in headless mode (0 = disabled)",
		},
		cli.StringFlag{
			Name:  "snapshot-dir",
			Usage: "Directory to save frame snapshots (default: temp directory in headless mode, working directory otherwise)",
		},
		cli.StringFlag{
			Name:  "boot-rom",
			Usage: "Path to a 256 byte DMG boot ROM to run before the cartridge",
		},
		cli.BoolFlag{
			Name:  "trace",
			Usage: "Log every executed instruction at debug level",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Show registers and disassembly next to the screen (terminal backend)",
		},
		cli.IntFlag{
			Name:  "scale",
			Usage: "Window scale factor (window backend)",
			Value: 3,
		},
		cli.StringFlag{
			Name:  "limiter",
			Usage: "Frame pacing: adaptive, ticker or none",
			Value: "adaptive",
		},
	}
	app.Action = runEmulator

	if err := app.Run(os.Args); err != nil {
		// backends may have redirected logging to a screen that is gone by now
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func runEmulator(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() == 0 {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
		romPath = c.Args().Get(0)
	}

	opts := []dmg.Option{dmg.WithTrace(c.Bool("trace"))}
	if path := c.String("boot-rom"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading boot rom: %w", err)
		}
		opts = append(opts, dmg.WithBootROM(data))
	}

	be, limiter, err := newBackend(c, romPath)
	if err != nil {
		return err
	}

	emu, err := dmg.NewWithFile(romPath, opts...)
	if err != nil {
		return err
	}

	config := backend.Config{
		Title:     "dmg - " + romName(romPath),
		Scale:     c.Int("scale"),
		ShowDebug: c.Bool("debug"),
	}
	config.DebugProvider = emu

	if err := be.Init(config); err != nil {
		return err
	}
	defer be.Cleanup()

	if c.Bool("trace") {
		if lv, ok := be.(interface{ SetLogLevel(slog.Level) }); ok {
			lv.SetLogLevel(slog.LevelDebug)
		}
	}

	snapshotDir := c.String("snapshot-dir")
	s := newSession(emu, be, limiter, romName(romPath), snapshotDir)
	return s.run()
}

func newBackend(c *cli.Context, romPath string) (backend.Backend, timing.Limiter, error) {
	switch name := c.String("backend"); name {
	case "headless":
		frames := c.Int("frames")
		if frames <= 0 {
			return nil, nil, errors.New("headless mode requires --frames option with a positive value")
		}
		snapshots, err := headless.CreateSnapshotConfig(c.Int("snapshot-interval"), c.String("snapshot-dir"), romPath)
		if err != nil {
			return nil, nil, err
		}
		return headless.New(frames, snapshots), timing.NewNoOpLimiter(), nil

	case "terminal", "window":
		limiter, err := timing.New(c.String("limiter"))
		if err != nil {
			return nil, nil, err
		}
		if name == "window" {
			return window.New(), limiter, nil
		}
		return terminal.New(), limiter, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", name)
	}
}

func romName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
