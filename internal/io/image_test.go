package ioutils

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if path != "" {
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return buf.Bytes()
}

func TestImageService_PixelWidth(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cover.png")
	writePNG(t, path, 120, 40)

	svc := NewImageService()
	width, err := svc.PixelWidth(path)
	if err != nil {
		t.Fatal(err)
	}
	if width != 120 {
		t.Errorf("PixelWidth = %d, want 120", width)
	}
}

func TestImageService_PixelWidthNotAnImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cover.jpg")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewImageService().PixelWidth(path)
	var probeErr *ProbeError
	if !errors.As(err, &probeErr) {
		t.Fatalf("expected ProbeError, got %v", err)
	}
	if probeErr.Path != path {
		t.Errorf("ProbeError.Path = %q, want %q", probeErr.Path, path)
	}
}

func TestImageService_ResizeImage(t *testing.T) {
	data := writePNG(t, "", 600, 400)

	out, err := NewImageService().ResizeImage(context.Background(), data, 300, 300)
	if err != nil {
		t.Fatal(err)
	}

	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("resized output is not JPEG: %v", err)
	}
	if got := img.Bounds().Dx(); got != 300 {
		t.Errorf("width = %d, want 300", got)
	}
	if got := img.Bounds().Dy(); got != 200 {
		t.Errorf("height = %d, want 200", got)
	}
}
