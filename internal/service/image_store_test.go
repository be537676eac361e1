package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ripple/internal/config"
	"ripple/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestImageStore(t *testing.T, maxMB int) *LocalImageStore {
	t.Helper()
	return NewLocalImageStore(&config.Config{
		ImageUploadDir:       t.TempDir(),
		ImageMaxUploadSizeMB: maxMB,
	})
}

// encodePNG renders a small solid image as PNG bytes.
func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLocalImageStore_Upload(t *testing.T) {
	store := newTestImageStore(t, 10)
	ctx := context.Background()

	url, err := store.Upload(ctx, encodePNG(t, 64, 64), "posts")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/media/posts/"), "unexpected url %q", url)
	assert.True(t, strings.HasSuffix(url, ".webp"), "unexpected url %q", url)

	// The file must exist under the upload dir.
	rel := strings.TrimPrefix(url, "/media/")
	path := filepath.Join(store.Dir(), filepath.FromSlash(rel))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestLocalImageStore_Upload_Dedupes(t *testing.T) {
	store := newTestImageStore(t, 10)
	ctx := context.Background()
	data := encodePNG(t, 32, 32)

	first, err := store.Upload(ctx, data, "posts")
	require.NoError(t, err)
	second, err := store.Upload(ctx, data, "posts")
	require.NoError(t, err)
	assert.Equal(t, first, second, "same bytes must address the same file")

	entries, err := os.ReadDir(filepath.Join(store.Dir(), "posts"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLocalImageStore_Upload_RejectsGarbage(t *testing.T) {
	store := newTestImageStore(t, 10)

	_, err := store.Upload(context.Background(), []byte("definitely not an image"), "posts")
	require.Error(t, err)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestLocalImageStore_Upload_RejectsEmpty(t *testing.T) {
	store := newTestImageStore(t, 10)

	_, err := store.Upload(context.Background(), nil, "posts")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestLocalImageStore_Upload_RejectsOversize(t *testing.T) {
	store := newTestImageStore(t, 1)

	// 2 MiB of zeroes trips the cap before decoding is attempted.
	_, err := store.Upload(context.Background(), make([]byte, 2*1024*1024), "posts")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestCapSize(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		wantW      int
		wantH      int
		downscaled bool
	}{
		{name: "small untouched", w: 640, h: 480, wantW: 640, wantH: 480},
		{name: "wide capped", w: 4096, h: 1024, wantW: 2048, wantH: 512, downscaled: true},
		{name: "tall capped", w: 1000, h: 4000, wantW: 512, wantH: 2048, downscaled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))
			out := capSize(src, MasterMaxSize)
			bounds := out.Bounds()
			assert.Equal(t, tt.wantW, bounds.Dx())
			assert.Equal(t, tt.wantH, bounds.Dy())
			if !tt.downscaled {
				assert.Equal(t, image.Image(src), out, "images within bounds must not be rescaled")
			}
		})
	}
}
