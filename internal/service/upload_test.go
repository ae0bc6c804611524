package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartPhoto(t *testing.T, fieldName, filename string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/produtos/criar", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	file, header, err := req.FormFile(fieldName)
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })

	return file, header
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSavePhoto(t *testing.T) {
	dir := t.TempDir()
	svc := NewUploadService(dir, 5<<20)

	file, header := multipartPhoto(t, "imagem", "Foto do Produto.PNG", pngBytes(t, 300, 200))

	relPath, err := svc.SavePhoto(file, header)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(relPath, "uploads/"), "path %q should start with uploads/", relPath)
	assert.True(t, strings.HasSuffix(relPath, ".png"), "path %q should keep a lowercase extension", relPath)

	name := strings.TrimPrefix(relPath, "uploads/")
	assert.NotContains(t, name, "-", "filename should be a compact random name")
	assert.Len(t, name, 32+len(".png"))

	_, err = os.Stat(filepath.Join(dir, name))
	assert.NoError(t, err, "photo should exist on disk")

	_, err = os.Stat(filepath.Join(dir, "thumbs", name))
	assert.NoError(t, err, "thumbnail should exist on disk")
}

func TestSavePhotoUniqueNames(t *testing.T) {
	svc := NewUploadService(t.TempDir(), 5<<20)

	content := pngBytes(t, 50, 50)

	fileA, headerA := multipartPhoto(t, "imagem", "foto.png", content)
	pathA, err := svc.SavePhoto(fileA, headerA)
	require.NoError(t, err)

	fileB, headerB := multipartPhoto(t, "imagem", "foto.png", content)
	pathB, err := svc.SavePhoto(fileB, headerB)
	require.NoError(t, err)

	assert.NotEqual(t, pathA, pathB)
}

func TestSavePhotoRejectsOversize(t *testing.T) {
	svc := NewUploadService(t.TempDir(), 100)

	file, header := multipartPhoto(t, "imagem", "foto.png", pngBytes(t, 300, 200))

	_, err := svc.SavePhoto(file, header)
	assert.Error(t, err)
}

func TestSavePhotoRejectsUnsupportedType(t *testing.T) {
	svc := NewUploadService(t.TempDir(), 5<<20)

	file, header := multipartPhoto(t, "imagem", "script.sh", []byte("#!/bin/sh"))

	_, err := svc.SavePhoto(file, header)
	assert.Error(t, err)
}

func TestSavePhotoRejectsMismatchedContent(t *testing.T) {
	svc := NewUploadService(t.TempDir(), 5<<20)

	file, header := multipartPhoto(t, "imagem", "foto.png", []byte("plain text, not a png"))

	_, err := svc.SavePhoto(file, header)
	assert.Error(t, err)
}
