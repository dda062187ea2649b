package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"net/http"
	"os"
	"path/filepath"

	"recipebox/internal/models"
	"recipebox/internal/validation"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageUploadDir       = "/tmp/recipebox/uploads"
	DefaultImageMaxUploadSizeMB = 5
	RecipeImageMaxSize          = 1280
	WebPQuality                 = 75

	// MaxImagePixels bounds the decoded size of an upload.
	MaxImagePixels = 40_000_000
)

// ImageService normalizes uploaded recipe photos into WebP files under the upload dir.
type ImageService struct {
	uploadDir          string
	maxUploadSizeBytes int64
}

// NewImageService returns an ImageService. Zero values fall back to the defaults.
func NewImageService(uploadDir string, maxUploadSizeMB int) *ImageService {
	if uploadDir == "" {
		uploadDir = DefaultImageUploadDir
	}
	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = DefaultImageMaxUploadSizeMB
	}
	return &ImageService{
		uploadDir:          uploadDir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// UploadDir is the directory processed images are written to.
func (s *ImageService) UploadDir() string {
	return s.uploadDir
}

// MaxUploadBytes is the largest accepted upload.
func (s *ImageService) MaxUploadBytes() int64 {
	return s.maxUploadSizeBytes
}

// Process decodes content, fits it into RecipeImageMaxSize and stores it as WebP.
// It returns the public URL of the stored file. Identical output is stored once.
func (s *ImageService) Process(_ context.Context, content []byte) (string, error) {
	if len(content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > s.maxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	switch http.DetectContentType(content) {
	case "image/jpeg", "image/png", "image/webp":
	default:
		return "", models.NewValidationError("Invalid image type")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return "", models.NewValidationError("Image dimensions too large")
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return "", models.NewValidationError("Invalid image file")
	}

	resized := resizeToFit(decoded, RecipeImageMaxSize, RecipeImageMaxSize)
	encoded, err := encodeWebP(resized, WebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	sum := sha256.Sum256(encoded)
	name := hex.EncodeToString(sum[:]) + ".webp"
	path := filepath.Join(s.uploadDir, name)
	if _, statErr := os.Stat(path); statErr != nil {
		if err := writeBytesToFile(path, encoded); err != nil {
			return "", models.NewInternalError(err)
		}
	}
	return validation.UploadsPathPrefix + name, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
