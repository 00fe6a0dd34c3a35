// package common contains common types that are used throughout this module. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/HugoSmits86/nativewebp"
	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/image/draw"
)

// ImportedMaterial represents material properties from an imported model file.
type ImportedMaterial struct {
	// Name is the material identifier as referenced by polylists.
	Name string

	// EffectID is the id of the effect the material instantiates (text scenes only).
	EffectID string

	// BaseColor is the diffuse color (RGBA). Materials with a diffuse texture use white.
	BaseColor [4]float32

	// TextureRef is the sampler or image reference named by the effect's diffuse slot.
	TextureRef string

	// DiffuseTexturePath is the file path for the diffuse texture, bound from the texture table.
	DiffuseTexturePath string

	// DiffuseTexture holds the diffuse texture once resolved.
	DiffuseTexture *ImportedTexture
}

// ImportedTexture represents texture data referenced by a model file.
// For in-memory textures the Data field contains raw image bytes.
// For external textures, the Path field contains the file path.
type ImportedTexture struct {
	// Name is an identifier for this texture (e.g., "diffuse").
	Name string

	// Path is the file path for external textures (empty for in-memory).
	Path string

	// Data contains raw encoded image bytes.
	Data []byte

	// Format is the image format reported by the decoder (e.g., "png", "tga", "webp").
	Format string

	// Width is the texture width in pixels (populated after Decode).
	Width int

	// Height is the texture height in pixels (populated after Decode).
	Height int
}

// Decode decodes the texture to raw RGBA pixel data.
// Uses either in-memory Data bytes or loads from Path on disk.
// Supports PNG, JPEG, TGA, BMP and WebP.
//
// Returns:
//   - []byte: raw RGBA pixel data (4 bytes per pixel, row-major order)
//   - uint32: texture width in pixels
//   - uint32: texture height in pixels
//   - error: error if decoding fails
func (t *ImportedTexture) Decode() ([]byte, uint32, uint32, error) {
	rgba, err := t.decodeRGBA()
	if err != nil {
		return nil, 0, 0, err
	}
	return rgba.Pix, uint32(t.Width), uint32(t.Height), nil
}

// EncodeWebP decodes the texture and writes it to w as a lossless WebP image.
//
// Parameters:
//   - w: the destination writer
//
// Returns:
//   - error: error if decoding or encoding fails
func (t *ImportedTexture) EncodeWebP(w io.Writer) error {
	rgba, err := t.decodeRGBA()
	if err != nil {
		return err
	}
	if err := nativewebp.Encode(w, rgba, nil); err != nil {
		return fmt.Errorf("failed to encode webp for %s: %w", Coalesce(t.Path, t.Name), err)
	}
	return nil
}

// decodeRGBA decodes the texture source and converts it to *image.RGBA.
func (t *ImportedTexture) decodeRGBA() (*image.RGBA, error) {
	if t == nil {
		return nil, fmt.Errorf("texture is nil")
	}

	var img image.Image
	var err error

	if len(t.Data) > 0 {
		img, t.Format, err = image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode embedded image: %w", err)
		}
	} else if t.Path != "" {
		file, fileErr := os.Open(t.Path)
		if fileErr != nil {
			return nil, fmt.Errorf("failed to open texture file %s: %w", t.Path, fileErr)
		}
		defer file.Close()

		img, t.Format, err = image.Decode(file)
		if err != nil {
			return nil, fmt.Errorf("failed to decode texture file %s: %w", t.Path, err)
		}
	} else {
		return nil, fmt.Errorf("texture has neither data nor path")
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)

	t.Width = bounds.Dx()
	t.Height = bounds.Dy()

	return rgba, nil
}
