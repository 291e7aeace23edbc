package video

// GBColor is an RGBA colour packed as 0xRRGGBBAA.
type GBColor uint32

const (
	WhiteColor     GBColor = 0xFFFFFFFF
	LightGreyColor GBColor = 0x989898FF
	DarkGreyColor  GBColor = 0x4C4C4CFF
	BlackColor     GBColor = 0x000000FF
)

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
	FramebufferSize   = FramebufferWidth * FramebufferHeight
)

var shadeColors = [4]GBColor{WhiteColor, LightGreyColor, DarkGreyColor, BlackColor}

// ShadeColor returns the colour of a DMG shade, 0 (white) to 3 (black).
func ShadeColor(shade uint8) GBColor {
	return shadeColors[shade&0x03]
}

// Shade is the inverse of ShadeColor. Unknown colours map to black.
func (c GBColor) Shade() uint8 {
	switch c {
	case WhiteColor:
		return 0
	case LightGreyColor:
		return 1
	case DarkGreyColor:
		return 2
	default:
		return 3
	}
}

// RGBA splits the colour into its components.
func (c GBColor) RGBA() (r, g, b, a uint8) {
	return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// FrameBuffer holds one 160x144 frame.
type FrameBuffer struct {
	buffer []uint32
}

func NewFrameBuffer() *FrameBuffer {
	fb := &FrameBuffer{buffer: make([]uint32, FramebufferSize)}
	fb.Clear(WhiteColor)
	return fb
}

func (fb *FrameBuffer) GetPixel(x, y int) uint32 {
	return fb.buffer[y*FramebufferWidth+x]
}

func (fb *FrameBuffer) SetPixel(x, y int, color GBColor) {
	fb.buffer[y*FramebufferWidth+x] = uint32(color)
}

// Clear fills the whole frame with color.
func (fb *FrameBuffer) Clear(color GBColor) {
	for i := range fb.buffer {
		fb.buffer[i] = uint32(color)
	}
}

// ToSlice exposes the pixels in row-major order. The slice is owned by the
// frame buffer and is overwritten on the next frame.
func (fb *FrameBuffer) ToSlice() []uint32 {
	return fb.buffer
}

// ToGrayscale packs the frame as 2 bit shades, four pixels per byte with the
// leftmost pixel in the high bits.
func (fb *FrameBuffer) ToGrayscale() []byte {
	packed := make([]byte, FramebufferSize/4)
	for i, pixel := range fb.buffer {
		shift := uint(6 - 2*(i%4))
		packed[i/4] |= GBColor(pixel).Shade() << shift
	}
	return packed
}

// WriteRGBA writes the frame as 8 bit RGBA into dst, which must hold at least
// FramebufferSize*4 bytes.
func (fb *FrameBuffer) WriteRGBA(dst []byte) {
	for i, pixel := range fb.buffer {
		r, g, b, a := GBColor(pixel).RGBA()
		dst[i*4] = r
		dst[i*4+1] = g
		dst[i*4+2] = b
		dst[i*4+3] = a
	}
}
