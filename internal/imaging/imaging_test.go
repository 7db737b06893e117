package imaging

import (
	"bytes"
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

func encode(t *testing.T, format string, w, h int) []byte {
	t.Helper()
	img := solid(w, h, color.RGBA{200, 30, 30, 255})
	var buf bytes.Buffer
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	}
	if err != nil {
		t.Fatalf("encoding %s: %v", format, err)
	}
	return buf.Bytes()
}

func TestProcessFormats(t *testing.T) {
	for _, format := range []string{"jpeg", "png", "gif"} {
		photo, err := Process(bytes.NewReader(encode(t, format, 80, 60)))
		if err != nil {
			t.Errorf("%s: %v", format, err)
			continue
		}
		if _, got, err := image.Decode(bytes.NewReader(photo.Data)); err != nil || got != "jpeg" {
			t.Errorf("%s: expected JPEG output, got %q (%v)", format, got, err)
		}
		if photo.Width != 80 || photo.Height != 60 {
			t.Errorf("%s: expected 80x60, got %dx%d", format, photo.Width, photo.Height)
		}
	}
}

func TestProcessDownscale(t *testing.T) {
	tests := []struct {
		w, h         int
		wantW, wantH int
	}{
		{2048, 1024, 1024, 512},
		{1000, 3000, 341, 1024},
		{1024, 1024, 1024, 1024},
		{50, 50, 50, 50},
	}

	for _, tt := range tests {
		photo, err := Process(bytes.NewReader(encode(t, "png", tt.w, tt.h)))
		if err != nil {
			t.Fatalf("%dx%d: %v", tt.w, tt.h, err)
		}
		if photo.Width != tt.wantW || photo.Height != tt.wantH {
			t.Errorf("%dx%d: expected %dx%d, got %dx%d", tt.w, tt.h, tt.wantW, tt.wantH, photo.Width, photo.Height)
		}
	}
}

func TestProcessRejectsNonImages(t *testing.T) {
	inputs := map[string][]byte{
		"text":      []byte("not an image"),
		"html":      []byte("<html><script>alert(1)</script></html>"),
		"truncated": []byte("\x89PNG\r\n\x1a\n"),
	}
	for name, data := range inputs {
		if _, err := Process(bytes.NewReader(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestProcessRejectsOversized(t *testing.T) {
	data := make([]byte, MaxUploadSize+10)
	copy(data, "\xff\xd8\xff")
	if _, err := Process(bytes.NewReader(data)); err == nil {
		t.Error("expected error for oversized upload")
	}
}
