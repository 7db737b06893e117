package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// MaxDimension is the maximum width or height of a stored photo.
const MaxDimension = 1024

// JPEGQuality is the compression quality for stored photos.
const JPEGQuality = 85

// MaxUploadSize caps the number of bytes read from an upload.
const MaxUploadSize = 5 << 20

// AllowedMIME lists the accepted input formats, as sniffed from content.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// Photo is a normalized item photo.
type Photo struct {
	Data   []byte
	Width  int
	Height int
}

// Process reads an uploaded photo, checks its real format, downscales it to
// fit within MaxDimension and re-encodes it as JPEG.
func Process(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("photo exceeds %d bytes", MaxUploadSize)
	}

	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("unsupported photo format: %s", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding photo: %w", err)
	}

	img = fit(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	b := img.Bounds()
	return &Photo{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// fit scales img down so that neither side exceeds maxDim, keeping the
// aspect ratio. Smaller images are returned as is.
func fit(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
	image.RegisterFormat("gif", "GIF8?a", gif.Decode, gif.DecodeConfig)
}
