package main

import (
	"log/slog"

	"github.com/valerio/dmgcore/dmg"
	"github.com/valerio/dmgcore/dmg/backend"
	"github.com/valerio/dmgcore/dmg/debug"
	"github.com/valerio/dmgcore/dmg/input"
	"github.com/valerio/dmgcore/dmg/input/action"
	"github.com/valerio/dmgcore/dmg/input/event"
	"github.com/valerio/dmgcore/dmg/timing"
)

// session is the host loop: run a frame, present it, apply input.
type session struct {
	emu     *dmg.DMG
	backend backend.Backend
	inputs  *input.Manager
	limiter timing.Limiter

	name        string
	snapshotDir string

	paused    bool
	stepFrame bool
	quit      bool
}

func newSession(emu *dmg.DMG, be backend.Backend, limiter timing.Limiter, name, snapshotDir string) *session {
	s := &session{
		emu:         emu,
		backend:     be,
		inputs:      input.NewManager(emu),
		limiter:     limiter,
		name:        name,
		snapshotDir: snapshotDir,
	}

	s.inputs.On(action.EmulatorQuit, event.Press, func() { s.quit = true })
	s.inputs.On(action.EmulatorPauseToggle, event.Press, s.togglePause)
	s.inputs.On(action.EmulatorStepFrame, event.Press, func() { s.stepFrame = true })
	s.inputs.On(action.EmulatorSnapshot, event.Press, s.snapshot)

	return s
}

func (s *session) run() error {
	if r, ok := s.backend.(backend.Runner); ok {
		return r.Run(s.tick)
	}

	for {
		done, err := s.tick()
		if err != nil || done {
			return err
		}
		s.limiter.WaitForNextFrame()
	}
}

// tick runs one frame unless paused, presents it and dispatches the input
// events the backend collected. It reports whether the session is over.
func (s *session) tick() (bool, error) {
	if !s.paused || s.stepFrame {
		s.stepFrame = false
		if err := s.emu.RunUntilFrame(); err != nil {
			return true, err
		}
	}

	events, err := s.backend.Update(s.emu.GetCurrentFrame())
	if err != nil {
		return true, err
	}
	for _, e := range events {
		s.inputs.Trigger(e.Action, e.Type)
	}

	return s.quit, nil
}

func (s *session) togglePause() {
	s.paused = !s.paused
	if !s.paused {
		s.limiter.Reset()
	}
	slog.Info("Pause toggled", "paused", s.paused, "frame", s.emu.Frames())
}

func (s *session) snapshot() {
	if _, err := debug.SaveFramePNG(s.emu.GetCurrentFrame(), s.name, s.snapshotDir); err != nil {
		slog.Error("Failed to save snapshot", "error", err)
	}
}
