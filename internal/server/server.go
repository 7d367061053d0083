// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "showcase/docs" // swagger docs
	"showcase/internal/blobstore"
	"showcase/internal/cache"
	"showcase/internal/config"
	"showcase/internal/database"
	"showcase/internal/featureflags"
	"showcase/internal/middleware"
	"showcase/internal/models"
	"showcase/internal/notifications"
	"showcase/internal/repository"
	"showcase/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
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
	auth           *middleware.Authenticator
	featureFlags   *featureflags.Manager
	notifier       *notifications.Notifier
	blobs          blobstore.Store

	userService       *service.UserService
	postService       *service.PostService
	commentService    *service.CommentService
	portfolioService  *service.PortfolioService
	listingService    *service.ListingService
	reviewService     *service.ReviewService
	preferenceService *service.PreferenceService
	moderationService *service.ModerationService
	accountService    *service.AccountService
	uploadService     *service.UploadService
}

// Option customizes a Server built by NewServerWithDeps.
type Option func(*Server)

// WithBlobStore replaces the blob store picked from configuration.
func WithBlobStore(store blobstore.Store) Option {
	return func(s *Server) { s.blobs = store }
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.Connect(context.Background(), cfg.RedisURL))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
// redisClient may be nil; caching, revocation checks and activity events are
// then skipped.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, opts ...Option) (*Server, error) {
	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("showcase-api"),
		auth:           middleware.NewAuthenticator(cfg.JWTSecret, redisClient),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.blobs == nil {
		store, err := blobstore.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("blob store: %w", err)
		}
		s.blobs = store
	}

	// A nil *Notifier must not reach the services as a non-nil Publisher.
	var events service.Publisher
	if redisClient != nil {
		s.notifier = notifications.NewNotifier(redisClient)
		events = s.notifier
	}

	users := repository.NewUserRepository(db)
	portfolios := repository.NewPortfolioRepository(db)
	posts := repository.NewPostRepository(db)
	listings := repository.NewListingRepository(db)
	prefs := repository.NewPreferenceRepository(db)
	ledger := repository.NewEngagementRepository(db)
	comments := repository.NewCommentRepository(db)
	reviews := repository.NewReviewRepository(db)
	snapshots := repository.NewSnapshotRepository(db)

	blobTimeout := time.Duration(cfg.BlobDeleteTimeoutSeconds) * time.Second
	ranker := service.NewRanker(prefs, s.featureFlags)
	propagator := service.NewSnapshotPropagator(snapshots, s.featureFlags)

	s.userService = service.NewUserService(users, s.auth)
	isAdmin := s.userService.IsAdmin

	s.postService = service.NewPostService(posts, portfolios, users, ledger, comments, ranker, s.blobs, events,
		service.PostOptions{
			RequireApproval: cfg.PostsRequireApproval,
			LocationBonus:   cfg.RankingPostLocationBonus,
			BlobTimeout:     blobTimeout,
		}, isAdmin)
	s.commentService = service.NewCommentService(comments, posts, users, portfolios, ledger, events, isAdmin)
	s.portfolioService = service.NewPortfolioService(portfolios, ledger, ranker, propagator, s.blobs, blobTimeout, cfg.RankingPortfolioLocationBonus)
	s.listingService = service.NewListingService(listings, portfolios, users, s.blobs, blobTimeout, isAdmin)
	s.reviewService = service.NewReviewService(reviews, users, portfolios, events)
	s.preferenceService = service.NewPreferenceService(prefs)
	s.moderationService = service.NewModerationService(posts, listings, events)
	s.accountService = service.NewAccountService(users, portfolios, posts, listings, prefs, comments, ledger, s.blobs, blobTimeout)
	s.uploadService = service.NewUploadService(s.blobs, int64(cfg.ImageMaxUploadSizeMB)<<20)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
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

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Showcase Backend Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	required := s.auth.RequireAuth()
	optional := s.auth.OptionalAuth()

	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	users := api.Group("/users", required)
	users.Get("/me", s.GetMe)
	users.Delete("/me", s.DeleteMe)

	// Specific paths are registered before /:id.
	portfolios := api.Group("/portfolios")
	portfolios.Post("/", required, s.CreatePortfolio)
	portfolios.Get("/me", required, s.GetMyPortfolio)
	portfolios.Put("/me", required, s.UpdateMyPortfolio)
	portfolios.Get("/saved", required, s.GetSavedPortfolios)
	portfolios.Get("/suggestions", optional, s.GetPortfolioSuggestions)
	portfolios.Get("/", optional, middleware.RateLimit(s.redis, 30, time.Minute, "search"), s.SearchPortfolios)
	portfolios.Post("/:id/save", required, s.ToggleSavePortfolio)
	portfolios.Get("/:id", optional, s.GetPortfolio)

	posts := api.Group("/posts")
	posts.Post("/", required, s.CreatePost)
	posts.Get("/feed", optional, s.GetFeed)
	posts.Get("/me", required, s.GetMyPosts)
	posts.Get("/saved", required, s.GetSavedPosts)
	posts.Get("/user/:userId", optional, s.GetUserPosts)
	posts.Post("/:id/save", required, s.ToggleSavePost)
	posts.Post("/:id/pin", required, s.TogglePinPost)
	posts.Post("/:id/like", required, s.ToggleLikePost)
	posts.Get("/:id/likes", optional, s.GetPostLikers)
	posts.Post("/:id/comments", required, middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	posts.Get("/:id/comments", optional, s.GetComments)
	posts.Put("/:id", required, s.UpdatePost)
	posts.Delete("/:id", required, s.DeletePost)

	comments := api.Group("/comments", required)
	comments.Post("/:commentId/like", s.ToggleLikeComment)
	comments.Delete("/:commentId", s.DeleteComment)

	listings := api.Group("/listings")
	listings.Post("/", required, s.CreateListing)
	listings.Get("/", optional, middleware.RateLimit(s.redis, 30, time.Minute, "search"), s.GetListings)
	listings.Get("/user/:userId", optional, s.GetUserListings)
	listings.Get("/:id", optional, s.GetListing)
	listings.Put("/:id", required, s.UpdateListing)
	listings.Delete("/:id", required, s.DeleteListing)

	reviews := api.Group("/reviews")
	reviews.Post("/:userId", required, s.CreateReview)
	reviews.Get("/:userId/stats", optional, s.GetReviewStats)
	reviews.Get("/:userId", optional, s.GetReviews)

	prefs := api.Group("/preferences", required)
	prefs.Get("/", s.GetPreferences)
	prefs.Put("/", s.UpdatePreferences)

	upload := api.Group("/upload", required)
	upload.Post("/single", middleware.RateLimit(s.redis, 20, time.Minute, "upload"), s.UploadSingle)
	upload.Post("/multiple", middleware.RateLimit(s.redis, 10, time.Minute, "upload"), s.UploadMultiple)

	admin := api.Group("/admin", required, s.AdminRequired())
	admin.Get("/posts/pending", s.GetPendingPosts)
	admin.Put("/posts/:id/status", s.SetPostStatus)
	admin.Get("/listings/pending", s.GetPendingListings)
	admin.Put("/listings/:id/status", s.SetListingStatus)
	admin.Get("/feature-flags", s.GetFeatureFlags)
}

// LivenessCheck handles liveness checks
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness checks. Redis is optional: the
// service degrades to uncached reads without it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
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

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after RequireAuth so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := middleware.UserID(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		admin, err := s.userService.IsAdmin(c.UserContext(), userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}

		return c.Next()
	}
}

// App builds the Fiber application with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:     "Showcase API",
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
		BodyLimit:   (s.config.ImageMaxUploadSizeMB*service.MaxUploadFiles + 1) << 20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.App()

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
