package processor

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func encodeTestImage(t *testing.T, width, height int, format imaging.Format) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, format); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestResizeToHeight(t *testing.T) {
	r := NewResizer()

	t.Run("keeps aspect ratio", func(t *testing.T) {
		src := encodeTestImage(t, 1024, 768, imaging.PNG)

		tests := []struct {
			height    int
			wantWidth int
		}{
			{200, 267},
			{400, 533},
			{768, 1024},
		}
		for _, tt := range tests {
			data, width, err := r.ResizeToHeight(src, tt.height)
			if err != nil {
				t.Fatalf("ResizeToHeight(%d): %v", tt.height, err)
			}
			if width != tt.wantWidth {
				t.Errorf("ResizeToHeight(%d) width = %d, want %d", tt.height, width, tt.wantWidth)
			}
			decoded, err := imaging.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("output is not decodable: %v", err)
			}
			if got := decoded.Bounds().Dy(); got != tt.height {
				t.Errorf("output height = %d, want %d", got, tt.height)
			}
		}
	})

	t.Run("png input yields jpeg output", func(t *testing.T) {
		src := encodeTestImage(t, 300, 300, imaging.PNG)

		data, _, err := r.ResizeToHeight(src, 100)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(false)); err != nil {
			t.Fatalf("output is not decodable: %v", err)
		}
		// JPEG SOI marker.
		if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
			t.Error("output does not start with a JPEG marker")
		}
	})

	t.Run("upscales past the source height", func(t *testing.T) {
		src := encodeTestImage(t, 100, 50, imaging.JPEG)

		data, width, err := r.ResizeToHeight(src, 200)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if width != 400 {
			t.Errorf("width = %d, want 400", width)
		}
		decoded, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("output is not decodable: %v", err)
		}
		if got := decoded.Bounds().Dy(); got != 200 {
			t.Errorf("output height = %d, want 200", got)
		}
	})

	t.Run("rejects undecodable bytes", func(t *testing.T) {
		_, _, err := r.ResizeToHeight([]byte("definitely not an image"), 200)
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("expected ErrDecode, got %v", err)
		}
	})
}

func TestDimensions(t *testing.T) {
	src := encodeTestImage(t, 640, 480, imaging.JPEG)

	width, height, err := Dimensions(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if width != 640 || height != 480 {
		t.Errorf("Dimensions = %dx%d, want 640x480", width, height)
	}

	if _, _, err := Dimensions([]byte{0x00}); !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode for garbage input, got %v", err)
	}
}
