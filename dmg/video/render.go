package video

import (
	"github.com/valerio/dmgcore/dmg/addr"
	"github.com/valerio/dmgcore/dmg/memory"
)

const maxSpritesPerLine = 10

func (p *PPU) renderScanline() {
	line := int(p.line)

	// on DMG, LCDC bit 0 blanks both background and window
	if !p.readLCDC(bgDisplay) {
		for x := 0; x < FramebufferWidth; x++ {
			p.bgLine[x] = 0
			p.back.SetPixel(x, line, ShadeColor(p.memory.BGPalette()[0]))
		}
	} else {
		p.renderBackground(line)
		if p.readLCDC(windowDisplayEnable) {
			p.renderWindow(line)
		}
	}

	if p.readLCDC(spriteDisplayEnable) {
		p.renderSprites(line)
	}
}

// tileIndex resolves a tile map entry to an index in the tile cache. With
// LCDC bit 4 cleared tile numbers are signed and based at 0x9000.
func (p *PPU) tileIndex(tileNumber uint8) int {
	if p.readLCDC(bgWindowTileDataSelect) {
		return int(tileNumber)
	}
	return 256 + int(int8(tileNumber))
}

func (p *PPU) tileMap(flag lcdcFlag) uint16 {
	if p.readLCDC(flag) {
		return addr.TileMap1
	}
	return addr.TileMap0
}

func (p *PPU) renderBackground(line int) {
	scrollX := p.memory.Read(addr.SCX)
	scrollY := p.memory.Read(addr.SCY)
	mapBase := p.tileMap(bgTileMapDisplaySelect)
	palette := p.memory.BGPalette()

	// the 256x256 background wraps around in both directions
	y := uint8(line) + scrollY
	rowBase := mapBase + uint16(y/8)*32

	for x := 0; x < FramebufferWidth; x++ {
		px := uint8(x) + scrollX
		tile := p.memory.Tile(p.tileIndex(p.memory.Read(rowBase + uint16(px/8))))
		color := tile.Pixel(int(px%8), int(y%8))

		p.bgLine[x] = color
		p.back.SetPixel(x, line, ShadeColor(palette[color]))
	}
}

func (p *PPU) renderWindow(line int) {
	windowY := int(p.memory.Read(addr.WY))
	windowX := int(p.memory.Read(addr.WX)) - 7
	if line < windowY || windowX >= FramebufferWidth {
		return
	}

	mapBase := p.tileMap(windowTileMapSelect)
	palette := p.memory.BGPalette()
	rowBase := mapBase + uint16(p.windowLine/8)*32
	row := p.windowLine % 8

	for x := max(windowX, 0); x < FramebufferWidth; x++ {
		wx := x - windowX
		tile := p.memory.Tile(p.tileIndex(p.memory.Read(rowBase + uint16(wx/8))))
		color := tile.Pixel(wx%8, row)

		p.bgLine[x] = color
		p.back.SetPixel(x, line, ShadeColor(palette[color]))
	}

	p.windowLine++
}

// spritesForLine returns the OAM indices of the first 10 sprites, in OAM
// order, that overlap the line.
func (p *PPU) spritesForLine(line, height int) []int {
	visible := make([]int, 0, maxSpritesPerLine)
	for i := 0; i < memory.SpriteCount && len(visible) < maxSpritesPerLine; i++ {
		top := int(p.memory.Sprite(i).Y) - 16
		if line >= top && line < top+height {
			visible = append(visible, i)
		}
	}
	return visible
}

func (p *PPU) renderSprites(line int) {
	height := 8
	if p.readLCDC(spriteSize) {
		height = 16
	}

	visible := p.spritesForLine(line, height)

	// drawn back to front, lower OAM indices end up on top
	for n := len(visible) - 1; n >= 0; n-- {
		sprite := p.memory.Sprite(visible[n])
		palette := p.memory.OBJPalette(sprite.Palette())

		row := line - (int(sprite.Y) - 16)
		if sprite.FlipY() {
			row = height - 1 - row
		}

		tileNumber := int(sprite.Tile)
		if height == 16 {
			tileNumber &^= 1
		}
		tile := p.memory.Tile(tileNumber + row/8)
		row %= 8

		left := int(sprite.X) - 8
		for col := 0; col < 8; col++ {
			x := left + col
			if x < 0 || x >= FramebufferWidth {
				continue
			}

			tileX := col
			if sprite.FlipX() {
				tileX = 7 - col
			}

			color := tile.Pixel(tileX, row)
			if color == 0 {
				continue
			}
			if sprite.BehindBackground() && p.bgLine[x] != 0 {
				continue
			}

			p.back.SetPixel(x, line, ShadeColor(palette[color]))
		}
	}
}
