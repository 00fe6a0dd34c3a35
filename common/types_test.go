package common

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(2, 1, color.NRGBA{B: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestImportedTextureDecode(t *testing.T) {
	tex := &ImportedTexture{Name: "diffuse", Data: testPNG(t)}
	pix, w, h, err := tex.Decode()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if w != 3 || h != 2 || len(pix) != 3*2*4 {
		t.Fatalf("expected 3x2 RGBA pixels, got %dx%d with %d bytes", w, h, len(pix))
	}
	if tex.Format != "png" {
		t.Fatalf("expected format png, got %q", tex.Format)
	}
	if pix[0] != 255 || pix[3] != 255 {
		t.Fatalf("expected opaque red first pixel, got %v", pix[:4])
	}
}

func TestImportedTextureDecodeFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skin.png")
	if err := os.WriteFile(path, testPNG(t), 0o644); err != nil {
		t.Fatalf("failed to write texture: %v", err)
	}
	tex := &ImportedTexture{Path: path}
	if _, w, _, err := tex.Decode(); err != nil || w != 3 {
		t.Fatalf("expected width 3 and no error, got %d, %v", w, err)
	}

	if _, _, _, err := (&ImportedTexture{}).Decode(); err == nil {
		t.Fatalf("expected an error for a texture without data or path")
	}
	var missing *ImportedTexture
	if _, _, _, err := missing.Decode(); err == nil {
		t.Fatalf("expected an error for a nil texture")
	}
}

func TestImportedTextureEncodeWebP(t *testing.T) {
	tex := &ImportedTexture{Name: "diffuse", Data: testPNG(t)}
	var buf bytes.Buffer
	if err := tex.EncodeWebP(&buf); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	back := &ImportedTexture{Data: buf.Bytes()}
	pix, w, h, err := back.Decode()
	if err != nil {
		t.Fatalf("expected the webp output to decode, got %v", err)
	}
	if back.Format != "webp" || w != 3 || h != 2 {
		t.Fatalf("expected a 3x2 webp, got %q %dx%d", back.Format, w, h)
	}
	// Lossless encoding keeps the last pixel blue.
	last := pix[len(pix)-4:]
	if last[0] != 0 || last[2] != 255 || last[3] != 255 {
		t.Fatalf("expected opaque blue last pixel, got %v", last)
	}
}
