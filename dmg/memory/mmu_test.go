package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valerio/dmgcore/dmg/addr"
)

func newTestMMU(t *testing.T) *MMU {
	t.Helper()
	cart, err := NewCartridge(testROM(0x8000, 0x00, 0x00, 0x00, "MMU"))
	require.NoError(t, err)
	return NewWithCartridge(cart)
}

func TestMMURouting(t *testing.T) {
	mmu := newTestMMU(t)

	t.Run("work RAM and echo", func(t *testing.T) {
		mmu.Write(0xC123, 0x42)
		assert.Equal(t, byte(0x42), mmu.Read(0xE123))

		mmu.Write(0xFDFF, 0x24)
		assert.Equal(t, byte(0x24), mmu.Read(0xDDFF))
	})

	t.Run("unusable region", func(t *testing.T) {
		mmu.Write(0xFEA0, 0x42)
		mmu.Write(0xFEFF, 0x42)
		assert.Equal(t, byte(0x00), mmu.Read(0xFEA0))
		assert.Equal(t, byte(0x00), mmu.Read(0xFEFF))
	})

	t.Run("ROM is read only", func(t *testing.T) {
		mmu.Write(0x0150, 0x42)
		assert.Equal(t, byte(0x00), mmu.Read(0x0150))
		assert.Equal(t, byte('M'), mmu.Read(0x0134))
	})

	t.Run("HRAM and IE", func(t *testing.T) {
		mmu.Write(0xFF80, 0x11)
		mmu.Write(addr.IE, 0x1F)
		assert.Equal(t, byte(0x11), mmu.Read(0xFF80))
		assert.Equal(t, byte(0x1F), mmu.Read(addr.IE))
	})

	t.Run("LY ignores CPU writes", func(t *testing.T) {
		mmu.SetLY(0x10)
		mmu.Write(addr.LY, 0x99)
		assert.Equal(t, byte(0x10), mmu.Read(addr.LY))
	})

	t.Run("STAT low bits are read only", func(t *testing.T) {
		mmu.SetSTAT(0x06)
		mmu.Write(addr.STAT, 0xFF)
		assert.Equal(t, byte(0xFE), mmu.Read(addr.STAT))
	})

	t.Run("every address is mapped", func(t *testing.T) {
		assert.NotPanics(t, func() {
			for a := 0; a <= 0xFFFF; a++ {
				mmu.Read(uint16(a))
			}
		})
	})
}

func TestMMUInterruptFlags(t *testing.T) {
	mmu := New()

	assert.Equal(t, byte(0xE0), mmu.Read(addr.IF))

	mmu.RequestInterrupt(addr.TimerInterrupt)
	mmu.RequestInterrupt(addr.VBlankInterrupt)
	assert.Equal(t, byte(0xE5), mmu.Read(addr.IF))

	assert.Equal(t, byte(0), mmu.PendingInterrupts())
	mmu.Write(addr.IE, 0x04)
	assert.Equal(t, byte(0x04), mmu.PendingInterrupts())

	mmu.Write(addr.IF, 0xFF)
	assert.Equal(t, byte(0xFF), mmu.Read(addr.IF))
	assert.Equal(t, byte(0x04), mmu.PendingInterrupts())

	assert.Panics(t, func() { mmu.RequestInterrupt(addr.Interrupt(0x20)) })
}

func TestMMUTileCache(t *testing.T) {
	mmu := New()

	// tile 1, row 2
	mmu.Write(0x8014, 0x3C)
	mmu.Write(0x8015, 0x7E)

	tile := mmu.Tile(1)
	want := [8]uint8{0, 2, 3, 3, 3, 3, 2, 0}
	for x, color := range want {
		assert.Equal(t, color, tile.Pixel(x, 2), "pixel %d", x)
	}
	assert.Equal(t, uint8(0), tile.Pixel(0, 0))

	// last tile
	mmu.Write(0x97FE, 0xFF)
	assert.Equal(t, uint8(1), mmu.Tile(383).Pixel(7, 7))

	// tile maps are not decoded
	mmu.Write(0x9800, 0xFF)
	assert.Equal(t, byte(0xFF), mmu.Read(0x9800))
}

func TestMMUSpriteCache(t *testing.T) {
	mmu := New()

	mmu.Write(0xFE04, 0x20)
	mmu.Write(0xFE05, 0x18)
	mmu.Write(0xFE06, 0x07)
	mmu.Write(0xFE07, 0xF0)

	s := mmu.Sprite(1)
	assert.Equal(t, Sprite{Y: 0x20, X: 0x18, Tile: 0x07, Flags: 0xF0}, s)
	assert.Equal(t, 1, s.Palette())
	assert.True(t, s.FlipX())
	assert.True(t, s.FlipY())
	assert.True(t, s.BehindBackground())

	mmu.Write(0xFE07, 0x20)
	s = mmu.Sprite(1)
	assert.Equal(t, 0, s.Palette())
	assert.True(t, s.FlipX())
	assert.False(t, s.FlipY())
	assert.False(t, s.BehindBackground())
}

func TestMMUDMA(t *testing.T) {
	mmu := New()
	for i := uint16(0); i < 160; i++ {
		mmu.Write(0xC000+i, byte(i))
	}

	mmu.Write(addr.DMA, 0xC0)

	assert.Equal(t, byte(0), mmu.Read(0xFE00))
	assert.Equal(t, byte(159), mmu.Read(0xFE9F))
	assert.Equal(t, Sprite{Y: 156, X: 157, Tile: 158, Flags: 159}, mmu.Sprite(39))
}

func TestMMUPalettes(t *testing.T) {
	mmu := New()

	mmu.Write(addr.BGP, 0xE4)
	mmu.Write(addr.OBP0, 0x1B)
	mmu.Write(addr.OBP1, 0xFF)

	assert.Equal(t, Palette{0, 1, 2, 3}, mmu.BGPalette())
	assert.Equal(t, Palette{3, 2, 1, 0}, mmu.OBJPalette(0))
	assert.Equal(t, Palette{3, 3, 3, 3}, mmu.OBJPalette(1))
	assert.Equal(t, byte(0xE4), mmu.Read(addr.BGP))
}

func TestMMUBootROM(t *testing.T) {
	mmu := newTestMMU(t)

	boot := make([]byte, BootROMSize)
	boot[0x00] = 0x31
	boot[0xFF] = 0x50
	require.NoError(t, mmu.LoadBootROM(boot))
	assert.Error(t, mmu.LoadBootROM(make([]byte, 10)))

	assert.Equal(t, byte(0x31), mmu.Read(0x0000))
	assert.Equal(t, byte(0x50), mmu.Read(0x00FF))
	assert.Equal(t, byte('M'), mmu.Read(0x0134), "cartridge visible past the overlay")

	mmu.Write(addr.BootROMDisable, 0x01)
	assert.False(t, mmu.BootROMEnabled())
	assert.Equal(t, byte(0x00), mmu.Read(0x0000))
}

func TestMMUJoypad(t *testing.T) {
	mmu := New()

	assert.Equal(t, byte(0xFF), mmu.Read(addr.P1), "nothing selected")

	// select buttons
	mmu.Write(addr.P1, 0x10)
	assert.Equal(t, byte(0xDF), mmu.Read(addr.P1))

	mmu.HandleKeyPress(JoypadStart)
	assert.Equal(t, byte(0xD7), mmu.Read(addr.P1))
	assert.Equal(t, byte(0xF0), mmu.Read(addr.IF))

	// holding does not raise the interrupt again
	mmu.Write(addr.IF, 0x00)
	mmu.HandleKeyPress(JoypadStart)
	assert.Equal(t, byte(0xE0), mmu.Read(addr.IF))

	// d-pad selected instead
	mmu.HandleKeyPress(JoypadUp)
	mmu.Write(addr.P1, 0x20)
	assert.Equal(t, byte(0xEB), mmu.Read(addr.P1))

	mmu.HandleKeyRelease(JoypadUp)
	assert.Equal(t, byte(0xEF), mmu.Read(addr.P1))
}

func TestMMUTimerAndSerial(t *testing.T) {
	mmu := New()

	mmu.Write(addr.TAC, 0x05)
	mmu.Write(addr.TIMA, 0xFF)
	mmu.Timer().Advance(16)
	assert.Equal(t, byte(0xE4), mmu.Read(addr.IF))

	mmu.Write(addr.SB, 'A')
	mmu.Write(addr.SC, 0x81)
	assert.Equal(t, byte(0xEC), mmu.Read(addr.IF))
	assert.Equal(t, byte(0xFF), mmu.Read(addr.SB))
}
