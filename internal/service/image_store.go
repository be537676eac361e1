package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"image"
	"os"
	"path/filepath"

	"ripple/internal/config"
	"ripple/internal/models"
	"ripple/internal/observability"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageUploadDir       = "/tmp/ripple/uploads/images"
	DefaultImageMaxUploadSizeMB = 10
	MasterMaxSize               = 2048
	WebPQuality                 = 70
)

// LocalImageStore is a content-addressed image store on the local filesystem.
// Files are keyed by the SHA-256 of the uploaded bytes, so re-uploads of the
// same image dedupe to one file.
type LocalImageStore struct {
	uploadDir          string
	maxUploadSizeBytes int64
}

// NewLocalImageStore creates an image store using the configured upload
// directory and size cap.
func NewLocalImageStore(cfg *config.Config) *LocalImageStore {
	uploadDir := DefaultImageUploadDir
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB

	if cfg != nil {
		if cfg.ImageUploadDir != "" {
			uploadDir = cfg.ImageUploadDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
	}

	return &LocalImageStore{
		uploadDir:          uploadDir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// Dir returns the root upload directory, for static serving.
func (s *LocalImageStore) Dir() string {
	return s.uploadDir
}

// Upload validates, normalizes, and stores the image, returning its URL path.
func (s *LocalImageStore) Upload(ctx context.Context, data []byte, folder string) (string, error) {
	if len(data) == 0 {
		observability.ImageUploads.WithLabelValues("invalid").Inc()
		return "", models.NewValidationError("Image data is empty")
	}
	if int64(len(data)) > s.maxUploadSizeBytes {
		observability.ImageUploads.WithLabelValues("too_large").Inc()
		return "", models.NewValidationError("Image exceeds the maximum upload size")
	}
	if err := ctx.Err(); err != nil {
		return "", models.NewInternalError(err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		observability.ImageUploads.WithLabelValues("invalid").Inc()
		return "", models.NewValidationError("Unsupported or corrupt image data")
	}
	img = capSize(img, MasterMaxSize)

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	dir := filepath.Join(s.uploadDir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		observability.ImageUploads.WithLabelValues("error").Inc()
		return "", models.NewInternalError(err)
	}

	filename := hash + ".webp"
	path := filepath.Join(dir, filename)
	url := "/media/" + folder + "/" + filename

	if _, err := os.Stat(path); err == nil {
		observability.ImageUploads.WithLabelValues("dedup").Inc()
		return url, nil
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: WebPQuality}); err != nil {
		observability.ImageUploads.WithLabelValues("error").Inc()
		return "", models.NewInternalError(err)
	}

	// Write through a temp file and rename so readers never see a partial file.
	tmp := path + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		observability.ImageUploads.WithLabelValues("error").Inc()
		return "", models.NewInternalError(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		observability.ImageUploads.WithLabelValues("error").Inc()
		return "", models.NewInternalError(err)
	}

	observability.ImageUploads.WithLabelValues("ok").Inc()
	return url, nil
}

// capSize downscales img so neither dimension exceeds maxSize.
func capSize(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxSize && h <= maxSize {
		return img
	}

	scale := float64(maxSize) / float64(w)
	if h > w {
		scale = float64(maxSize) / float64(h)
	}
	dw := int(float64(w) * scale)
	dh := int(float64(h) * scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
	return dst
}
