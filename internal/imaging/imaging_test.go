package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestProcessPNGOutputsJPEG(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestPNG(80, 100)))
	if err != nil {
		t.Fatalf("Process PNG: %v", err)
	}
	if result.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg (always outputs JPEG), got %s", result.MIME)
	}
	if len(result.Data) == 0 {
		t.Error("expected non-empty data")
	}
}

func TestProcessCropsLandscapeToCard(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestJPEG(200, 100)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	// 100 high limits the crop to 80x100.
	if result.Width != 80 || result.Height != 100 {
		t.Errorf("expected 80x100, got %dx%d", result.Width, result.Height)
	}
}

func TestProcessCropsPortraitToCard(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestJPEG(100, 300)))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if result.Width != 100 || result.Height != 125 {
		t.Errorf("expected 100x125, got %dx%d", result.Width, result.Height)
	}
}

func TestProcessDownscale(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestJPEG(1600, 2000)))
	if err != nil {
		t.Fatalf("Process large image: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != MaxWidth || bounds.Dy() != 1000 {
		t.Errorf("expected %dx1000, got %dx%d", MaxWidth, bounds.Dx(), bounds.Dy())
	}
}

func TestProcessSmallImageNotUpscaled(t *testing.T) {
	result, err := Process(bytes.NewReader(createTestJPEG(40, 50)))
	if err != nil {
		t.Fatalf("Process small image: %v", err)
	}
	if result.Width != 40 || result.Height != 50 {
		t.Errorf("small image should not be resized: got %dx%d", result.Width, result.Height)
	}
}

func TestProcessInvalidFormat(t *testing.T) {
	if _, err := Process(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestProcessGIFRejected(t *testing.T) {
	if _, err := Process(bytes.NewReader([]byte("GIF89a..."))); err == nil {
		t.Error("expected error for GIF")
	}
}
