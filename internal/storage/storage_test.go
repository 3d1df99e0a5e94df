package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "golang.org/x/image/webp"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestObjectPath(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	assert.Equal(t, "projects/1700000000123-My-Photo.png", ObjectPath("/projects/", "My Photo.png", now))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"cover.jpg", "cover.jpg"},
		{"My Photo (1).png", "My-Photo-1-.png"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\avatar.webp`, "avatar.webp"},
		{"日本語.png", "png"},
		{"???", "file"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.in))
		})
	}
}

func TestCleanObjectPath(t *testing.T) {
	ok, err := CleanObjectPath("posts/./1-a.png")
	require.NoError(t, err)
	assert.Equal(t, "posts/1-a.png", ok)

	for _, bad := range []string{"", "/etc/passwd", "../secret", "a/../../b", `a\b`} {
		_, err := CleanObjectPath(bad)
		assert.ErrorIs(t, err, ErrInvalidObjectPath, bad)
	}
}

func TestLocalStore_UploadAndDelete(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, "/media/")
	ctx := context.Background()

	url, err := store.Upload(ctx, "projects/1-a.txt", []byte("hello"), "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "/media/projects/1-a.txt", url)

	data, err := os.ReadFile(filepath.Join(root, "projects", "1-a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, store.Delete(ctx, "projects/1-a.txt"))
	_, err = os.Stat(filepath.Join(root, "projects", "1-a.txt"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, "projects/1-a.txt"))

	_, err = store.Upload(ctx, "../escape.txt", []byte("x"), "text/plain")
	assert.ErrorIs(t, err, ErrInvalidObjectPath)
}

func TestDetectContentType(t *testing.T) {
	data := pngBytes(t, 4, 4)

	ct, err := DetectContentType(data, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	_, err = DetectContentType(data, "image/jpeg")
	assert.ErrorIs(t, err, ErrContentTypeMismatch)

	ct, err = DetectContentType([]byte("%PDF-1.4 resume"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", ct)
}

func TestPreviewVariant(t *testing.T) {
	out, ok, err := PreviewVariant(pngBytes(t, 1280, 320))
	require.NoError(t, err)
	require.True(t, ok)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 160, cfg.Height)

	_, ok, err = PreviewVariant([]byte("plain text"))
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, "projects/1-a.preview.webp", VariantPath("projects/1-a.png"))
}

func TestPreviewVariant_SkipsOversizedImages(t *testing.T) {
	data := pngBytes(t, 4, 4)
	// Rewrite the IHDR chunk to declare 60000x60000 and fix up its CRC.
	binary.BigEndian.PutUint32(data[16:20], 60000)
	binary.BigEndian.PutUint32(data[20:24], 60000)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 60000, cfg.Width)

	out, ok, err := PreviewVariant(data)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, out)
}
