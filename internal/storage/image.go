package storage

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	PreviewMaxSize = 640
	WebPQuality    = 70
	// MaxPreviewPixels bounds the decoded size of an image the preview pipeline accepts.
	MaxPreviewPixels = 40_000_000
)

// ErrContentTypeMismatch is returned when a declared image type disagrees with the bytes.
var ErrContentTypeMismatch = errors.New("image content type mismatch")

// DetectContentType sniffs data and checks it against the declared type.
// Only a declared image/* type is compared; other declarations are ignored.
func DetectContentType(data []byte, declared string) (string, error) {
	detected := normalizeContentType(http.DetectContentType(data))
	provided := normalizeContentType(declared)
	if IsImage(provided) && IsImage(detected) && !isMatchingContentType(provided, detected) {
		return "", ErrContentTypeMismatch
	}
	return detected, nil
}

// IsImage reports whether contentType is a raster format the pipeline decodes.
func IsImage(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

// PreviewVariant renders data as a WebP no larger than PreviewMaxSize on
// either side. ok is false when data is not a decodable image or its header
// declares more than MaxPreviewPixels.
func PreviewVariant(data []byte) (out []byte, ok bool, err error) {
	if !IsImage(http.DetectContentType(data)) {
		return nil, false, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, false, nil
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPreviewPixels {
		return nil, false, nil
	}
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, nil
	}
	encoded, err := encodeWebP(resizeToFit(decoded, PreviewMaxSize, PreviewMaxSize), WebPQuality)
	if err != nil {
		return nil, false, err
	}
	return encoded, true, nil
}

// VariantPath returns the object path of the preview for objectPath.
func VariantPath(objectPath string) string {
	return strings.TrimSuffix(objectPath, path.Ext(objectPath)) + ".preview.webp"
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

	scale := float64(maxWidth) / float64(w)
	if scaleH := float64(maxHeight) / float64(h); scaleH < scale {
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

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	if provided == detected {
		return true
	}
	return (provided == "image/jpg" && detected == "image/jpeg") || (provided == "image/jpeg" && detected == "image/jpg")
}
