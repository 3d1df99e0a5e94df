package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"folio/internal/featureflags"
	"folio/internal/models"
	"folio/internal/observability"
	"folio/internal/storage"
)

// DefaultMaxUploadSizeMB bounds editor uploads when no limit is configured.
const DefaultMaxUploadSizeMB = 10

// UploadInput is one file sent by an editor.
type UploadInput struct {
	Scope       string
	Filename    string
	ContentType string
	Data        []byte
	// Subject is the editor session subject, used for flag rollout.
	Subject string
}

// UploadResult describes a stored object.
type UploadResult struct {
	URL         string `json:"url"`
	Path        string `json:"path"`
	ContentType string `json:"contentType"`
	PreviewURL  string `json:"previewUrl,omitempty"`
}

// MediaService stores editor uploads in the object store.
type MediaService struct {
	store    storage.ObjectStore
	flags    *featureflags.Manager
	maxBytes int64
	now      func() time.Time
	logger   *slog.Logger
}

// NewMediaService creates a media service. A non-positive maxUploadSizeMB uses DefaultMaxUploadSizeMB.
func NewMediaService(store storage.ObjectStore, flags *featureflags.Manager, maxUploadSizeMB int, logger *slog.Logger) *MediaService {
	if maxUploadSizeMB <= 0 {
		maxUploadSizeMB = DefaultMaxUploadSizeMB
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaService{
		store:    store,
		flags:    flags,
		maxBytes: int64(maxUploadSizeMB) * 1024 * 1024,
		now:      time.Now,
		logger:   logger,
	}
}

// MaxUploadBytes returns the upload size limit.
func (s *MediaService) MaxUploadBytes() int64 {
	return s.maxBytes
}

// Upload stores the file unchanged under "<scope>/<millis>-<name>". When the
// image_variants flag is on and the file is a raster image, a WebP preview is
// stored next to it. A failed preview never fails the upload.
func (s *MediaService) Upload(ctx context.Context, in UploadInput) (result *UploadResult, err error) {
	scope := strings.Trim(strings.TrimSpace(in.Scope), "/")
	ctx, span := observability.StartSpan(ctx, "media", "upload")
	defer func() {
		observability.MediaUploads.WithLabelValues(scope, observability.OutcomeOf(err)).Inc()
		span.End(err)
	}()

	if scope == "" {
		return nil, models.NewValidationError("upload scope is required")
	}
	if len(in.Data) == 0 {
		return nil, models.NewValidationError("file is empty")
	}
	if int64(len(in.Data)) > s.maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("file exceeds %d MB limit", s.maxBytes/(1024*1024)))
	}

	contentType, err := storage.DetectContentType(in.Data, in.ContentType)
	if err != nil {
		return nil, translate(err)
	}

	objectPath := storage.ObjectPath(scope, in.Filename, s.now())
	url, err := s.store.Upload(ctx, objectPath, in.Data, contentType)
	if err != nil {
		return nil, translate(fmt.Errorf("upload %s: %w", objectPath, err))
	}
	result = &UploadResult{URL: url, Path: objectPath, ContentType: contentType}

	if storage.IsImage(contentType) && s.flags.Enabled(featureflags.ImageVariants, in.Subject) {
		result.PreviewURL = s.storePreview(ctx, objectPath, in.Data)
	}
	return result, nil
}

func (s *MediaService) storePreview(ctx context.Context, objectPath string, data []byte) string {
	preview, ok, err := storage.PreviewVariant(data)
	if err != nil {
		s.logger.WarnContext(ctx, "preview variant failed", "path", objectPath, "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	url, err := s.store.Upload(ctx, storage.VariantPath(objectPath), preview, "image/webp")
	if err != nil {
		s.logger.WarnContext(ctx, "preview upload failed", "path", objectPath, "error", err)
		return ""
	}
	return url
}

// Delete removes an object and any preview stored next to it.
func (s *MediaService) Delete(ctx context.Context, objectPath string) error {
	cleaned, err := storage.CleanObjectPath(objectPath)
	if err != nil {
		return translate(err)
	}
	if err := s.store.Delete(ctx, cleaned); err != nil {
		return translate(fmt.Errorf("delete %s: %w", cleaned, err))
	}
	if err := s.store.Delete(ctx, storage.VariantPath(cleaned)); err != nil {
		s.logger.WarnContext(ctx, "preview delete failed", "path", cleaned, "error", err)
	}
	return nil
}
