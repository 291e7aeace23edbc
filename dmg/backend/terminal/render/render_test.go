package render

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/dmgcore/dmg/video"
)

func TestHalfBlock(t *testing.T) {
	testCases := []struct {
		desc        string
		top, bottom uint8
		ch          rune
		fg, bg      uint8
	}{
		{desc: "same shade", top: 2, bottom: 2, ch: fullBlock, fg: 2, bg: 2},
		{desc: "white over black", top: 0, bottom: 3, ch: lowerHalf, fg: 3, bg: 0},
		{desc: "black over white", top: 3, bottom: 0, ch: upperHalf, fg: 3, bg: 0},
		{desc: "grey over grey", top: 1, bottom: 2, ch: upperHalf, fg: 1, bg: 2},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			ch, fg, bg := HalfBlock(tC.top, tC.bottom)
			assert.Equal(t, tC.ch, ch)
			assert.Equal(t, tC.fg, fg)
			assert.Equal(t, tC.bg, bg)
		})
	}
}

func TestShade(t *testing.T) {
	assert.Equal(t, uint8(0), Shade(uint32(video.WhiteColor)))
	assert.Equal(t, uint8(3), Shade(uint32(video.BlackColor)))
	assert.Equal(t, uint8(1), Shade(uint32(video.LightGreyColor)))
}

func TestLogBuffer(t *testing.T) {
	lb := NewLogBuffer(3)
	assert.Nil(t, lb.GetRecent(10))

	for _, msg := range []string{"a", "b", "c", "d"} {
		lb.Add(LogEntry{Message: msg})
	}

	recent := lb.GetRecent(10)
	require.Len(t, recent, 3)
	assert.Equal(t, "d", recent[0].Message)
	assert.Equal(t, "b", recent[2].Message)
	assert.Len(t, lb.GetRecent(2), 2)

	lb.Clear()
	assert.Nil(t, lb.GetRecent(10))
}

func TestLogBufferHandler(t *testing.T) {
	lb := NewLogBuffer(10)
	logger := slog.New(NewLogBufferHandler(lb, slog.LevelInfo))

	logger.Debug("hidden")
	logger.Info("loaded", "title", "TETRIS")
	logger.With("pc", 256).WithGroup("cpu").Warn("fault", "opcode", "D3")

	recent := lb.GetRecent(10)
	require.Len(t, recent, 2)
	assert.Equal(t, "fault pc=256 cpu.opcode=D3", recent[0].Message)
	assert.Equal(t, slog.LevelWarn, recent[0].Level)
	assert.Equal(t, "loaded title=TETRIS", recent[1].Message)
}

func TestFormatLogEntry(t *testing.T) {
	entry := LogEntry{
		Time:    time.Date(2024, 1, 1, 13, 4, 5, 0, time.UTC),
		Level:   slog.LevelError,
		Message: "boom",
	}
	assert.Equal(t, "13:04:05 [ERR] boom", FormatLogEntry(entry))
}
