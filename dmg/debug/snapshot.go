package debug

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/valerio/dmgcore/dmg/video"
)

// FrameImage converts a framebuffer to an RGBA image.
func FrameImage(frame *video.FrameBuffer) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, video.FramebufferWidth, video.FramebufferHeight))
	frame.WriteRGBA(img.Pix)
	return img
}

// EncodePNG writes frame to w as a PNG image.
func EncodePNG(w io.Writer, frame *video.FrameBuffer) error {
	return png.Encode(w, FrameImage(frame))
}

// SaveFramePNG saves a framebuffer as <baseName>_<timestamp>.png in directory,
// or in the working directory if it is empty. Returns the written path.
func SaveFramePNG(frame *video.FrameBuffer, baseName, directory string) (string, error) {
	if frame == nil {
		return "", fmt.Errorf("no frame data available")
	}

	filename := fmt.Sprintf("%s_%s.png", baseName, time.Now().Format("20060102_150405.000"))
	path := filepath.Join(directory, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer file.Close()

	if err := EncodePNG(file, frame); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}

	slog.Info("Snapshot saved", "path", path, "size", fmt.Sprintf("%dx%d", video.FramebufferWidth, video.FramebufferHeight))
	return path, nil
}
