package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/memory"
)

func newTestPPU() (*PPU, *memory.MMU) {
	mmu := memory.New()
	mmu.Write(addr.LCDC, 0x91)
	mmu.Write(addr.BGP, 0xE4)
	mmu.Write(addr.OBP0, 0xE4)
	mmu.Write(addr.IF, 0x00)
	return NewPPU(mmu), mmu
}

func interruptRequested(mmu *memory.MMU, interrupt addr.Interrupt) bool {
	return mmu.Read(addr.IF)&uint8(interrupt) != 0
}

func TestPPU_FrameTiming(t *testing.T) {
	t.Run("small steps", func(t *testing.T) {
		ppu, mmu := newTestPPU()

		vblanks := 0
		for elapsed := 0; elapsed < FrameCycles; elapsed += 4 {
			ppu.Step(4)
			if interruptRequested(mmu, addr.VBlankInterrupt) {
				vblanks++
				mmu.Write(addr.IF, 0x00)
			}
		}

		assert.Equal(t, 1, vblanks)
		assert.Equal(t, uint8(0), ppu.LY())
		assert.Equal(t, OAMScan, ppu.Mode())
		assert.Equal(t, byte(0), mmu.Read(addr.LY))
		assert.True(t, ppu.FrameReady())
		assert.False(t, ppu.FrameReady(), "cleared by the first call")
	})

	t.Run("single step of a whole frame", func(t *testing.T) {
		ppu, mmu := newTestPPU()

		ppu.Step(FrameCycles)

		assert.Equal(t, uint8(0), ppu.LY())
		assert.Equal(t, OAMScan, ppu.Mode())
		assert.True(t, interruptRequested(mmu, addr.VBlankInterrupt))
		assert.True(t, ppu.FrameReady())
	})

	t.Run("VBlank starts at line 144", func(t *testing.T) {
		ppu, mmu := newTestPPU()

		ppu.Step(visibleLines*scanlineCycles - 1)
		assert.Equal(t, uint8(143), ppu.LY())
		assert.Equal(t, HBlank, ppu.Mode())
		assert.False(t, interruptRequested(mmu, addr.VBlankInterrupt))
		assert.False(t, ppu.FrameReady())

		ppu.Step(1)
		assert.Equal(t, uint8(144), ppu.LY())
		assert.Equal(t, VBlank, ppu.Mode())
		assert.True(t, interruptRequested(mmu, addr.VBlankInterrupt))
		assert.True(t, ppu.FrameReady())
	})
}

func TestPPU_ModeSequence(t *testing.T) {
	ppu, mmu := newTestPPU()

	testCases := []struct {
		desc   string
		cycles int
		mode   Mode
		line   uint8
	}{
		{"still scanning OAM", 79, OAMScan, 0},
		{"pixel transfer", 1, PixelTransfer, 0},
		{"hblank", pixelTransferCycles, HBlank, 0},
		{"next line", hblankCycles, OAMScan, 1},
		{"mid transfer", oamScanCycles + 100, PixelTransfer, 1},
	}

	for _, tC := range testCases {
		ppu.Step(tC.cycles)
		assert.Equal(t, tC.mode, ppu.Mode(), tC.desc)
		assert.Equal(t, tC.line, ppu.LY(), tC.desc)
		assert.Equal(t, uint8(tC.mode), mmu.Read(addr.STAT)&0x03, tC.desc)
	}
}

func TestPPU_LYCoincidence(t *testing.T) {
	ppu, mmu := newTestPPU()
	mmu.Write(addr.LYC, 2)
	mmu.Write(addr.STAT, 0x40)

	ppu.Step(scanlineCycles)
	assert.Equal(t, uint8(1), ppu.LY())
	assert.False(t, interruptRequested(mmu, addr.LCDSTATInterrupt))
	assert.Zero(t, mmu.Read(addr.STAT)&0x04)

	ppu.Step(scanlineCycles)
	assert.Equal(t, uint8(2), ppu.LY())
	assert.True(t, interruptRequested(mmu, addr.LCDSTATInterrupt))
	assert.NotZero(t, mmu.Read(addr.STAT)&0x04)

	mmu.Write(addr.IF, 0x00)
	ppu.Step(scanlineCycles)
	assert.False(t, interruptRequested(mmu, addr.LCDSTATInterrupt))
	assert.Zero(t, mmu.Read(addr.STAT)&0x04)
}

func TestPPU_LYCoincidenceWithoutInterrupt(t *testing.T) {
	ppu, mmu := newTestPPU()
	mmu.Write(addr.LYC, 1)

	ppu.Step(scanlineCycles)

	assert.NotZero(t, mmu.Read(addr.STAT)&0x04)
	assert.False(t, interruptRequested(mmu, addr.LCDSTATInterrupt))
}

func TestPPU_ModeInterrupts(t *testing.T) {
	testCases := []struct {
		desc   string
		stat   byte
		cycles int
	}{
		{"hblank", 0x08, oamScanCycles + pixelTransferCycles},
		{"oam", 0x20, scanlineCycles},
		{"vblank", 0x10, visibleLines * scanlineCycles},
	}

	for _, tC := range testCases {
		t.Run(tC.desc, func(t *testing.T) {
			ppu, mmu := newTestPPU()
			mmu.Write(addr.STAT, tC.stat)

			ppu.Step(tC.cycles - 1)
			assert.False(t, interruptRequested(mmu, addr.LCDSTATInterrupt))

			ppu.Step(1)
			assert.True(t, interruptRequested(mmu, addr.LCDSTATInterrupt))
		})
	}

	t.Run("vblank interrupt without STAT source", func(t *testing.T) {
		ppu, mmu := newTestPPU()

		ppu.Step(visibleLines * scanlineCycles)

		assert.True(t, interruptRequested(mmu, addr.VBlankInterrupt))
		assert.False(t, interruptRequested(mmu, addr.LCDSTATInterrupt))
	})
}

func TestPPU_LCDDisabled(t *testing.T) {
	ppu, mmu := newTestPPU()
	ppu.Step(3 * scanlineCycles)
	require.Equal(t, uint8(3), ppu.LY())

	mmu.Write(addr.LCDC, 0x11)
	ppu.Step(1000)

	assert.Equal(t, HBlank, ppu.Mode())
	assert.Equal(t, uint8(0), ppu.LY())
	assert.Equal(t, byte(0), mmu.Read(addr.LY))
	assert.Equal(t, byte(0), mmu.Read(addr.STAT)&0x03)

	// frames keep completing, blank and without interrupts
	ppu.Step(FrameCycles)
	assert.True(t, ppu.FrameReady())
	assert.Equal(t, uint32(WhiteColor), ppu.Frame().GetPixel(80, 72))
	assert.Equal(t, byte(0xE0), mmu.Read(addr.IF))
	assert.Equal(t, uint8(0), ppu.LY())

	mmu.Write(addr.LCDC, 0x91)
	ppu.Step(4)
	assert.Equal(t, OAMScan, ppu.Mode())
	assert.Equal(t, uint8(0), ppu.LY())

	ppu.Step(scanlineCycles)
	assert.Equal(t, uint8(1), ppu.LY())
}

func TestPPU_FrameIsPublishedAtVBlank(t *testing.T) {
	ppu, mmu := newTestPPU()
	fillTile(mmu, 0x8000, 3)

	ppu.Step(visibleLines*scanlineCycles - 1)
	assert.Equal(t, uint32(WhiteColor), ppu.Frame().GetPixel(0, 0), "front buffer untouched while drawing")

	ppu.Step(1)
	require.True(t, ppu.FrameReady())
	assert.Equal(t, uint32(BlackColor), ppu.Frame().GetPixel(0, 0))
	assert.Equal(t, uint32(BlackColor), ppu.Frame().GetPixel(159, 143))
}

func TestMode_String(t *testing.T) {
	assert.Equal(t, "HBlank", HBlank.String())
	assert.Equal(t, "VBlank", VBlank.String())
	assert.Equal(t, "OAMScan", OAMScan.String())
	assert.Equal(t, "PixelTransfer", PixelTransfer.String())
}
