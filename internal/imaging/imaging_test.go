package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeJPEG(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, solid(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func encodePNG(w, h int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, solid(w, h, color.RGBA{0, 0, 255, 255}))
	return buf.Bytes()
}

func encodeGIF(w, h int) []byte {
	var buf bytes.Buffer
	gif.Encode(&buf, solid(w, h, color.RGBA{0, 255, 0, 255}), nil)
	return buf.Bytes()
}

func TestProcessFormats(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"jpeg", encodeJPEG(100, 80)},
		{"png", encodePNG(100, 80)},
		{"gif", encodeGIF(100, 80)},
	}

	for _, tt := range tests {
		img, err := Normalizer{}.Process(bytes.NewReader(tt.data))
		if err != nil {
			t.Fatalf("%s: Process: %v", tt.name, err)
		}
		if img.MIME != "image/jpeg" {
			t.Errorf("%s: expected image/jpeg, got %s", tt.name, img.MIME)
		}
		if img.Width != 100 || img.Height != 80 {
			t.Errorf("%s: expected 100x80, got %dx%d", tt.name, img.Width, img.Height)
		}
	}
}

func TestProcessDownscale(t *testing.T) {
	n := Normalizer{MaxDimension: 200}
	img, err := n.Process(bytes.NewReader(encodeJPEG(800, 400)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if img.Width != 200 || img.Height != 100 {
		t.Errorf("expected 200x100, got %dx%d", img.Width, img.Height)
	}

	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("stored image is %dx%d", b.Dx(), b.Dy())
	}
}

func TestProcessTallImage(t *testing.T) {
	img, err := Normalizer{MaxDimension: 100}.Process(bytes.NewReader(encodePNG(50, 400)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if img.Height != 100 || img.Width != 12 {
		t.Errorf("expected 12x100, got %dx%d", img.Width, img.Height)
	}
}

func TestProcessRejects(t *testing.T) {
	if _, err := (Normalizer{}).Process(bytes.NewReader([]byte("just some text"))); !errors.Is(err, ErrUnsupported) {
		t.Errorf("text: expected ErrUnsupported, got %v", err)
	}

	data := encodePNG(64, 64)
	n := Normalizer{MaxBytes: int64(len(data) - 1)}
	if _, err := n.Process(bytes.NewReader(data)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("oversized: expected ErrTooLarge, got %v", err)
	}

	// Right magic bytes, broken body.
	broken := append([]byte{}, data[:32]...)
	if _, err := (Normalizer{}).Process(bytes.NewReader(broken)); err == nil {
		t.Error("expected error for truncated PNG")
	}
}
