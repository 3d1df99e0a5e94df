// Package server contains the HTTP handlers and middleware wiring for the public,
// editor and admin APIs.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"folio/internal/auth"
	"folio/internal/cache"
	"folio/internal/config"
	"folio/internal/database"
	"folio/internal/featureflags"
	"folio/internal/middleware"
	"folio/internal/models"
	"folio/internal/publish"
	"folio/internal/repository"
	"folio/internal/service"
	"folio/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	featureFlags   *featureflags.Manager
	identity       auth.IdentityVerifier
	editors        auth.Allowlist
	mediaRoot      string
	contentService *service.ContentService
	postService    *service.PostService
	publishService *service.PublishService
	mediaService   *service.MediaService
}

// Deps are the externally constructed collaborators of a Server.
type Deps struct {
	DB    *gorm.DB
	Redis *redis.Client
	// Identity verifies editor sessions. Nil rejects every editor request.
	Identity  auth.IdentityVerifier
	Committer publish.Committer
	Store     storage.ObjectStore
	// MediaRoot is served under /media when set.
	MediaRoot  string
	HookClient *http.Client
}

// NewServer connects every store named by cfg and builds the server.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	deps := Deps{
		DB:        db,
		Redis:     cache.Connect(cfg.RedisURL),
		Committer: newCommitter(cfg),
		Store:     storage.NewLocalStore(cfg.MediaDir, cfg.MediaBaseURL),
		MediaRoot: cfg.MediaDir,
	}

	if cfg.IdentityJWKSURL != "" {
		verifier, err := auth.NewJWKSVerifier(cfg.IdentityJWKSURL, auth.IdentityOptions{
			Issuer:   cfg.IdentityIssuer,
			Audience: cfg.IdentityAudience,
		}, middleware.Logger)
		if err != nil {
			return nil, fmt.Errorf("identity verifier: %w", err)
		}
		deps.Identity = verifier
	} else {
		log.Println("IDENTITY_JWKS_URL not set: editor API disabled")
	}

	return NewServerWithDeps(cfg, deps)
}

func newCommitter(cfg *config.Config) publish.Committer {
	if cfg.GitHubConfigured() {
		return publish.NewGitHubCommitter(cfg.GitHubToken, cfg.GitHubOwner, cfg.GitHubRepo, cfg.GitHubBranch)
	}
	log.Printf("GitHub publishing not configured: committing to %s", cfg.PublishDir)
	return publish.NewDirCommitter(cfg.PublishDir)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and optionally
// performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.DB == nil {
		return nil, errors.New("server requires a database")
	}
	if deps.Store == nil {
		return nil, errors.New("server requires an object store")
	}
	if deps.Committer == nil {
		return nil, errors.New("server requires a content committer")
	}

	flags := featureflags.NewManager(cfg.FeatureFlags)

	// Public reads go through Redis only while the public_cache flag is on.
	var readCache *cache.Cache
	if flags.On(featureflags.PublicCache) {
		readCache = cache.New(deps.Redis)
	}

	docRepo := repository.NewDocumentRepository(deps.DB, readCache)
	postRepo := repository.NewPostRepository(deps.DB, readCache)

	media := service.NewMediaService(deps.Store, flags, cfg.MediaMaxUploadSizeMB, middleware.Logger)
	publishSvc := service.NewPublishService(
		service.PublishConfig{
			AdminPassword:     cfg.AdminPassword,
			AdminPasswordHash: cfg.AdminPasswordHash,
			PostsDir:          cfg.PostsDir,
			UploadsDir:        cfg.UploadsDir,
			UploadsBaseURL:    cfg.UploadsBaseURL,
			MaxUploadSizeMB:   cfg.MediaMaxUploadSizeMB,
		},
		auth.NewAdminTokens(cfg.AdminTokenSecret, cfg.AdminTokenTTL()),
		deps.Committer,
		publish.NewRebuildHook(cfg.RebuildHookURL, deps.HookClient),
		flags,
		middleware.Logger,
	)

	return &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		promMiddleware: middleware.InitMetrics("folio-api"),
		featureFlags:   flags,
		identity:       deps.Identity,
		editors:        auth.NewAllowlist(cfg.EditorAllowlist()),
		mediaRoot:      deps.MediaRoot,
		contentService: service.NewContentService(docRepo, media, middleware.Logger),
		postService:    service.NewPostService(postRepo),
		publishService: publishSvc,
		mediaService:   media,
	}, nil
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}
	app := fiber.New(fiber.Config{
		AppName:   "Folio API",
		BodyLimit: int(s.mediaService.MaxUploadBytes()) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())

	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: origins != "*",
		MaxAge:           86400, // 24 hours
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	if s.mediaRoot != "" {
		app.Static("/media", s.mediaRoot, fiber.Static{ByteRange: true, MaxAge: 3600})
	}

	admin := app.Group("/admin")
	admin.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "admin_login"), s.AdminLogin)
	admin.Post("/posts", s.AdminRequired(), s.AdminCreatePost)
	admin.Post("/upload", s.AdminRequired(), middleware.RateLimit(
		s.redis, 30, time.Minute, "admin_upload"), s.AdminUpload)
	for _, route := range []string{"/login", "/posts", "/upload"} {
		admin.All(route, methodNotAllowed(fiber.MethodPost))
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Folio Metrics Dashboard",
	}))

	api.Get("/documents/:name", s.GetDocument)
	api.Get("/schemas", s.ListSchemas)
	api.Get("/schemas/:name", s.GetSchema)
	api.Get("/home", s.GetHome)

	api.Get("/posts", s.GetPosts)
	api.Get("/posts/:id", s.GetPost)
	api.Post("/posts", s.SessionRequired(), middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	api.Put("/posts/:id", s.SessionRequired(), s.UpdatePost)
	api.Delete("/posts/:id", s.SessionRequired(), s.DeletePost)

	editor := api.Group("/editor", s.EditorRequired())
	editor.Get("/feature-flags", s.GetFeatureFlags)
	editor.Get("/documents/:name", s.GetEditorDocument)
	editor.Put("/documents/:name", s.SaveDocument)
	editor.Post("/documents/:name/ops", s.ApplyOperation)
	editor.Post("/documents/:name/featured", s.ToggleFeatured)
	editor.Post("/documents/:name/image", middleware.RateLimit(
		s.redis, 30, time.Minute, "editor_upload"), s.UploadDocumentImage)
	editor.Put("/home", s.SaveHome)
	editor.Post("/media", middleware.RateLimit(
		s.redis, 30, time.Minute, "editor_upload"), s.UploadMedia)
	editor.Delete("/media", s.DeleteMedia)
}

func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := cache.Status(ctx, s.redis)

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != cache.StatusHealthy {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and listens on the configured port.
func (s *Server) Start() error {
	log.Printf("Server starting on port %s...", s.config.Port)
	return s.App().Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if s.identity != nil {
		if err := s.identity.Close(); err != nil {
			log.Printf("error closing identity verifier: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
