// Package imaging prepares uploaded listing photos for storage.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// MaxWidth is the maximum stored photo width. Heights follow the card ratio.
const MaxWidth = 800

// CardAspectW and CardAspectH give the 4:5 ratio of feed cards.
const (
	CardAspectW = 4
	CardAspectH = 5
)

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// MaxUploadBytes bounds the accepted upload size.
const MaxUploadBytes = 5 << 20

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Photo is a processed listing photo.
type Photo struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Process reads image data, validates the format by sniffing bytes, crops it
// to the card ratio around the centre, downscales it to MaxWidth and
// re-encodes it as JPEG.
func Process(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("image larger than %d bytes", MaxUploadBytes)
	}

	// Sniff actual MIME type from bytes (not trusting client headers).
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("unsupported image format: %s (only JPEG and PNG accepted)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = scaleToWidth(cropToCard(img), MaxWidth)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}

	b := img.Bounds()
	return &Photo{
		Data:   buf.Bytes(),
		MIME:   "image/jpeg",
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

// cropToCard returns the largest centred 4:5 region of img.
func cropToCard(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	cw, ch := w, w*CardAspectH/CardAspectW
	if ch > h {
		ch = h
		cw = h * CardAspectW / CardAspectH
	}
	if cw < 1 || ch < 1 || (cw == w && ch == h) {
		return img
	}

	x0 := b.Min.X + (w-cw)/2
	y0 := b.Min.Y + (h-ch)/2
	dst := image.NewRGBA(image.Rect(0, 0, cw, ch))
	draw.Draw(dst, dst.Bounds(), img, image.Pt(x0, y0), draw.Src)
	return dst
}

// scaleToWidth shrinks img to maxW keeping its ratio, using Catmull-Rom.
// Smaller images are returned unchanged.
func scaleToWidth(img image.Image, maxW int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW {
		return img
	}

	newH := int(float64(h) * float64(maxW) / float64(w))
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, maxW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
