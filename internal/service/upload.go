// Package service holds application services sitting between handlers and
// the lower level packages.
package service

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/gestorhq/gestor-go/internal/imaging"
	"github.com/gestorhq/gestor-go/internal/util"
)

// UploadService stores product photos on disk under the uploads directory
// and generates listing thumbnails.
type UploadService struct {
	uploadsDir string
	maxBytes   int64
	processor  *imaging.Processor
}

// NewUploadService creates an UploadService rooted at uploadsDir.
func NewUploadService(uploadsDir string, maxBytes int64) *UploadService {
	return &UploadService{
		uploadsDir: uploadsDir,
		maxBytes:   maxBytes,
		processor:  imaging.NewProcessor(uploadsDir),
	}
}

// SavePhoto stores an uploaded product photo under a random filename and
// returns the relative path to record on the product, e.g. "uploads/ab12.png".
// The original extension is preserved in lowercase.
func (s *UploadService) SavePhoto(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > s.maxBytes {
		return "", fmt.Errorf("photo exceeds maximum size of %d bytes", s.maxBytes)
	}

	original, err := util.SanitizeFilename(header.Filename)
	if err != nil {
		return "", fmt.Errorf("invalid photo filename: %w", err)
	}

	if !imaging.IsImageFilename(original) {
		return "", fmt.Errorf("unsupported photo type: %s", filepath.Ext(original))
	}

	ext := strings.ToLower(filepath.Ext(original))
	name := strings.ReplaceAll(uuid.New().String(), "-", "") + ext

	result, err := s.processor.ProcessPhoto(io.LimitReader(file, s.maxBytes), name)
	if err != nil {
		return "", fmt.Errorf("processing photo: %w", err)
	}

	// Thumbnail failure is not fatal, listings fall back to the original
	if _, err := s.processor.CreateThumbnail(result.FilePath, name); err != nil {
		slog.Warn("thumbnail generation failed", "file", name, "error", err)
	}

	slog.Info("photo stored",
		"file", name,
		"original", original,
		"size", result.Size,
		"dimensions", fmt.Sprintf("%dx%d", result.Width, result.Height),
	)

	return "uploads/" + name, nil
}
