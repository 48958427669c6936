// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
// It is produced by DecodeTexture and consumed by the graphics backend when
// creating the GPU texture for a sprite.
type TextureStagingData struct {
	// Pixels is the byte slice representing the actual pixel data for the texture. It is in RGBA format, with 4 bytes per pixel.
	Pixels []byte
	// Width is the width of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Width uint32
	// Height is the height of the texture in pixels. This is required to correctly create the GPU texture and interpret the pixel data.
	Height uint32
}

// DecodeTexture reads an image file from disk and decodes it to raw RGBA
// pixel data. Supports PNG and JPEG formats.
// Reference: https://pkg.go.dev/image
//
// Parameters:
//   - path: the image file path
//
// Returns:
//   - TextureStagingData: raw RGBA pixel data (4 bytes per pixel, row-major order) with dimensions
//   - error: error if the file cannot be opened or decoded
func DecodeTexture(path string) (TextureStagingData, error) {
	file, err := os.Open(path)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to open texture file %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to decode texture file %s: %w", path, err)
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}
