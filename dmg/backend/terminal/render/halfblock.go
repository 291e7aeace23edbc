package render

import "github.com/valerio/dmgcore/dmg/video"

const (
	upperHalf = '▀'
	lowerHalf = '▄'
	fullBlock = '█'
)

// Shade returns the DMG shade (0 white to 3 black) of a framebuffer pixel.
func Shade(pixel uint32) uint8 {
	return video.GBColor(pixel).Shade()
}

// HalfBlock packs two vertically stacked pixels into one terminal cell.
// The returned shades are the foreground and background to draw it with.
func HalfBlock(top, bottom uint8) (ch rune, fg, bg uint8) {
	switch {
	case top == bottom:
		return fullBlock, top, top
	case top == 0:
		// white on top, keep the cell background white
		return lowerHalf, bottom, top
	default:
		return upperHalf, top, bottom
	}
}
