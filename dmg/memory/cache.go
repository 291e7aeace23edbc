package memory

import "github.com/valerio/dmgcore/dmg/bit"

const (
	// TileCount is the number of tiles addressable in VRAM (0x8000-0x97FF).
	TileCount = 384
	// SpriteCount is the number of OAM entries.
	SpriteCount = 40
)

// Tile is an 8x8 pattern of 2 bit colour indices, decoded from VRAM.
//
// Each row is stored as two bit planes: the first byte provides bit 0 of every
// pixel's colour and the second byte bit 1, bit 7 being the leftmost pixel.
//
//	Low  (0x3C): 0 0 1 1 1 1 0 0
//	High (0x7E): 0 1 1 1 1 1 1 0
//	            -----------------
//	Colors:      0 2 3 3 3 3 2 0
type Tile [8][8]uint8

// Pixel returns the colour index at (x, y), both in 0-7.
func (t *Tile) Pixel(x, y int) uint8 {
	return t[y][x]
}

func (t *Tile) decodeRow(row int, low, high byte) {
	for x := 0; x < 8; x++ {
		index := uint8(7 - x)
		t[row][x] = bit.Value(index, high)<<1 | bit.Value(index, low)
	}
}

// Sprite is a decoded OAM entry. Y and X keep the hardware offsets (+16, +8).
type Sprite struct {
	Y     uint8
	X     uint8
	Tile  uint8
	Flags uint8
}

// Sprite attribute bits.
const (
	spritePaletteBit  = 4
	spriteFlipXBit    = 5
	spriteFlipYBit    = 6
	spritePriorityBit = 7
)

// Palette returns 1 when the sprite uses OBP1, 0 for OBP0.
func (s Sprite) Palette() int {
	return int(bit.Value(spritePaletteBit, s.Flags))
}

// FlipX reports whether the sprite is mirrored horizontally.
func (s Sprite) FlipX() bool {
	return bit.IsSet(spriteFlipXBit, s.Flags)
}

// FlipY reports whether the sprite is mirrored vertically.
func (s Sprite) FlipY() bool {
	return bit.IsSet(spriteFlipYBit, s.Flags)
}

// BehindBackground reports whether background colours 1-3 cover the sprite.
func (s Sprite) BehindBackground() bool {
	return bit.IsSet(spritePriorityBit, s.Flags)
}

// Palette maps the four colour indices to shades, 0 being white and 3 black.
type Palette [4]uint8

func decodePalette(value byte) Palette {
	var p Palette
	for i := range p {
		p[i] = (value >> (uint(i) * 2)) & 0x03
	}
	return p
}
