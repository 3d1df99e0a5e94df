package service

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"
	"time"

	"folio/internal/auth"
	"folio/internal/content"
	"folio/internal/featureflags"
	"folio/internal/models"
	"folio/internal/observability"
	"folio/internal/publish"
	"folio/internal/storage"
	"folio/internal/validation"
)

// PublishConfig locates published files in the content store.
type PublishConfig struct {
	AdminPassword     string
	AdminPasswordHash string
	PostsDir          string
	UploadsDir        string
	UploadsBaseURL    string
	MaxUploadSizeMB   int
}

// LoginResult is returned by a successful admin login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PublishService backs the admin API: password login, Markdown posts and
// uploads committed to the site repository.
type PublishService struct {
	cfg       PublishConfig
	tokens    *auth.AdminTokens
	committer publish.Committer
	hook      *publish.RebuildHook
	flags     *featureflags.Manager
	now       func() time.Time
	logger    *slog.Logger
}

// NewPublishService creates the admin publishing service.
func NewPublishService(
	cfg PublishConfig,
	tokens *auth.AdminTokens,
	committer publish.Committer,
	hook *publish.RebuildHook,
	flags *featureflags.Manager,
	logger *slog.Logger,
) *PublishService {
	if cfg.PostsDir == "" {
		cfg.PostsDir = "content/posts"
	}
	if cfg.UploadsDir == "" {
		cfg.UploadsDir = "public/uploads"
	}
	if cfg.UploadsBaseURL == "" {
		cfg.UploadsBaseURL = "/uploads"
	}
	if cfg.MaxUploadSizeMB <= 0 {
		cfg.MaxUploadSizeMB = DefaultMaxUploadSizeMB
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishService{
		cfg:       cfg,
		tokens:    tokens,
		committer: committer,
		hook:      hook,
		flags:     flags,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *PublishService) configured() bool {
	hasPassword := s.cfg.AdminPassword != "" || s.cfg.AdminPasswordHash != ""
	return hasPassword && s.tokens != nil
}

// Login exchanges the admin password for a signed token.
func (s *PublishService) Login(ctx context.Context, req *models.LoginRequest) (*LoginResult, error) {
	if !s.configured() {
		return nil, models.NewInternalError(auth.ErrNotConfigured)
	}
	if err := validation.ValidateLogin(req); err != nil {
		return nil, models.NewUnauthorizedError("Invalid password")
	}
	if !auth.CheckPassword(req.Password, s.cfg.AdminPassword, s.cfg.AdminPasswordHash) {
		s.logger.WarnContext(ctx, "admin login rejected")
		return nil, models.NewUnauthorizedError("Invalid password")
	}

	token, expires, err := s.tokens.Issue()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expires}, nil
}

// Authorize verifies an admin bearer token.
func (s *PublishService) Authorize(token string) error {
	if token == "" {
		return models.NewUnauthorizedError("Authorization required")
	}
	if _, err := s.tokens.Verify(token); err != nil {
		if errors.Is(err, auth.ErrNotConfigured) {
			return models.NewInternalError(err)
		}
		return models.NewUnauthorizedError("Invalid or expired token")
	}
	return nil
}

// PublishPost renders a Markdown post and commits it as "<posts dir>/<slug>.md".
// It returns the committed path.
func (s *PublishService) PublishPost(ctx context.Context, req *models.AdminPostRequest) (filePath string, err error) {
	if err := validation.ValidateAdminPost(req); err != nil {
		return "", translate(err)
	}

	now := s.now()
	slug := content.Slugify(req.Title, now)
	filePath = path.Join(s.cfg.PostsDir, slug+".md")

	ctx, span := observability.StartSpan(ctx, "publish", "post")
	defer func() {
		observability.PublishCommits.WithLabelValues("post", observability.OutcomeOf(err)).Inc()
		span.End(err)
	}()

	body, err := publish.RenderPost(strings.TrimSpace(req.Title), slug, now, req.Content)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	if err := s.committer.CommitFile(ctx, filePath, body, "Add post: "+strings.TrimSpace(req.Title)); err != nil {
		s.logger.ErrorContext(ctx, "post commit failed", "path", filePath, "error", err)
		return "", models.NewInternalError(err)
	}

	s.triggerRebuild(ctx)
	return filePath, nil
}

// UploadFile commits a file as "<uploads dir>/<millis>-<name>" and returns its public URL.
func (s *PublishService) UploadFile(ctx context.Context, filename string, data []byte) (url string, err error) {
	if len(data) == 0 {
		return "", models.NewValidationError("file is empty")
	}
	if len(data) > s.cfg.MaxUploadSizeMB*1024*1024 {
		return "", models.NewValidationError("file is too large")
	}

	objectPath := storage.ObjectPath(s.cfg.UploadsDir, filename, s.now())

	ctx, span := observability.StartSpan(ctx, "publish", "upload")
	defer func() {
		observability.PublishCommits.WithLabelValues("upload", observability.OutcomeOf(err)).Inc()
		span.End(err)
	}()

	if err := s.committer.CommitFile(ctx, objectPath, data, "Upload "+path.Base(objectPath)); err != nil {
		s.logger.ErrorContext(ctx, "upload commit failed", "path", objectPath, "error", err)
		return "", models.NewInternalError(err)
	}

	name := strings.TrimPrefix(objectPath, strings.Trim(s.cfg.UploadsDir, "/")+"/")
	return strings.TrimRight(s.cfg.UploadsBaseURL, "/") + "/" + name, nil
}

// triggerRebuild notifies the site builder. Failures are logged only.
func (s *PublishService) triggerRebuild(ctx context.Context) {
	if !s.hook.Configured() || !s.flags.On(featureflags.RebuildHook) {
		return
	}
	if err := s.hook.Trigger(ctx); err != nil {
		s.logger.WarnContext(ctx, "rebuild hook failed", "error", err)
	}
}
