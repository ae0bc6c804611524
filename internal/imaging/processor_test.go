package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
)

// createTestImage creates a simple test image with the given dimensions.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg magic bytes", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg"},
		{"png magic bytes", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "png"},
		{"gif magic bytes", []byte{0x47, 0x49, 0x46, 0x38, 0x39, 0x61}, "gif"},
		{"unknown", []byte{0x00, 0x01, 0x02, 0x03}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectFormat(tt.data); got != tt.want {
				t.Errorf("detectFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectFormatFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"foto.jpg", "jpeg"},
		{"foto.jpeg", "jpeg"},
		{"foto.JPG", "jpeg"},
		{"foto.png", "png"},
		{"foto.PNG", "png"},
		{"foto.gif", "gif"},
		{"foto.webp", "webp"},
		{"foto.unknown", "jpeg"},
		{"noextension", "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := detectFormatFromFilename(tt.filename); got != tt.want {
				t.Errorf("detectFormatFromFilename(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestIsImageFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"foto.jpg", true},
		{"foto.jpeg", true},
		{"foto.PNG", true},
		{"foto.gif", true},
		{"foto.webp", true},
		{"documento.pdf", false},
		{"script.sh", false},
		{"noextension", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := IsImageFilename(tt.filename); got != tt.want {
				t.Errorf("IsImageFilename(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestApplyOrientation(t *testing.T) {
	// Verify the transform doesn't panic for all orientations 1-8 and
	// out-of-range values.
	tests := []int{1, 2, 3, 4, 5, 6, 7, 8, 0, 9}

	for _, orientation := range tests {
		t.Run("orientation_"+string(rune('0'+orientation)), func(t *testing.T) {
			img := createTestImage(10, 10)
			result := applyOrientation(img, orientation)
			if result == nil {
				t.Error("applyOrientation returned nil")
			}
		})
	}
}

func TestProcessPhotoAndThumbnail(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(dir)

	var buf bytes.Buffer
	if err := png.Encode(&buf, createTestImage(400, 300)); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}

	result, err := p.ProcessPhoto(&buf, "produto.png")
	if err != nil {
		t.Fatalf("ProcessPhoto() error = %v", err)
	}
	if result.Width != 400 || result.Height != 300 {
		t.Errorf("ProcessPhoto() dimensions = %dx%d, want 400x300", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("ProcessPhoto() mime type = %q, want image/png", result.MimeType)
	}
	if result.FilePath != filepath.Join(dir, "produto.png") {
		t.Errorf("ProcessPhoto() path = %q", result.FilePath)
	}

	thumbPath, err := p.CreateThumbnail(result.FilePath, "produto.png")
	if err != nil {
		t.Fatalf("CreateThumbnail() error = %v", err)
	}
	if thumbPath != filepath.Join(dir, ThumbsDirName, "produto.png") {
		t.Errorf("CreateThumbnail() path = %q", thumbPath)
	}

	width, height, err := p.GetImageDimensions(thumbPath)
	if err != nil {
		t.Fatalf("GetImageDimensions() error = %v", err)
	}
	if width != ThumbWidth || height != ThumbHeight {
		t.Errorf("thumbnail dimensions = %dx%d, want %dx%d", width, height, ThumbWidth, ThumbHeight)
	}
}

func TestProcessPhotoRejectsNonImage(t *testing.T) {
	p := NewProcessor(t.TempDir())

	if _, err := p.ProcessPhoto(bytes.NewReader([]byte("not an image")), "foto.png"); err == nil {
		t.Error("ProcessPhoto() accepted non-image data")
	}
}
