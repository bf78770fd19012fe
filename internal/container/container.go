package container

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/devcamper-api/app/db"
	"github.com/FACorreiaa/devcamper-api/app/geocoder"
	"github.com/FACorreiaa/devcamper-api/app/mailer"
	"github.com/FACorreiaa/devcamper-api/app/storage"
	"github.com/FACorreiaa/devcamper-api/config"
	"github.com/FACorreiaa/devcamper-api/internal/api/auth"
	"github.com/FACorreiaa/devcamper-api/internal/api/bootcamp"
	"github.com/FACorreiaa/devcamper-api/internal/api/course"
	"github.com/FACorreiaa/devcamper-api/internal/api/query"
	"github.com/FACorreiaa/devcamper-api/internal/api/review"
	"github.com/FACorreiaa/devcamper-api/internal/api/user"
	"github.com/FACorreiaa/devcamper-api/internal/router"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool

	Tokens  *auth.TokenManager
	Guard   func(http.Handler) http.Handler
	Builder *query.Builder

	AuthHandler     *auth.HandlerImpl
	UserHandler     *user.HandlerImpl
	BootcampHandler *bootcamp.HandlerImpl
	CourseHandler   *course.HandlerImpl
	ReviewHandler   *review.HandlerImpl
}

// NewContainer opens the pool and wires every repository, service and handler on it.
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	c, err := Wire(cfg, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	c.Pool = pool
	return c, nil
}

// Wire builds the object graph over db. NewContainer calls it with the pool;
// tests call it with a pgxmock pool.
func Wire(cfg *config.Config, db database.DB, logger *slog.Logger) (*Container, error) {
	store, err := storage.New(cfg.Uploads, logger)
	if err != nil {
		logger.Error("Failed to initialize upload storage", slog.Any("error", err))
		return nil, err
	}

	tokens := auth.NewTokenManager(cfg.JWT)
	hasher := auth.NewBcryptHasher(cfg.Security.BcryptCost)
	builder := query.NewBuilder(db, logger)

	userRepo := user.NewPostgresUserRepo(db, logger)
	guard := auth.Authenticate(tokens, userRepo, logger)

	authService := auth.NewAuthService(userRepo, tokens, hasher,
		mailer.NewSMTPMailer(cfg.Mail, logger), cfg.Security.ResetTokenTTL, logger)
	authHandler := auth.NewHandlerImpl(authService, cfg, logger)

	userService := user.NewUserService(userRepo, hasher, logger)
	userHandler := user.NewHandlerImpl(userService, logger)

	bootcampRepo := bootcamp.NewPostgresBootcampRepo(db, logger)
	bootcampService := bootcamp.NewBootcampService(bootcampRepo, userRepo,
		geocoder.NewMapQuest(cfg.Geocoder, logger), store, cfg.Uploads.MaxBytes, logger)
	bootcampHandler := bootcamp.NewHandlerImpl(bootcampService, cfg.Uploads.MaxBytes, logger)

	courseRepo := course.NewPostgresCourseRepo(db, logger)
	courseService := course.NewCourseService(courseRepo, bootcampRepo, logger)
	courseHandler := course.NewHandlerImpl(courseService, logger)

	reviewRepo := review.NewPostgresReviewRepo(db, logger)
	reviewService := review.NewReviewService(reviewRepo, bootcampRepo, logger)
	reviewHandler := review.NewHandlerImpl(reviewService, logger)

	return &Container{
		Config:          cfg,
		Logger:          logger,
		Tokens:          tokens,
		Guard:           guard,
		Builder:         builder,
		AuthHandler:     authHandler,
		UserHandler:     userHandler,
		BootcampHandler: bootcampHandler,
		CourseHandler:   courseHandler,
		ReviewHandler:   reviewHandler,
	}, nil
}

// Router assembles the HTTP surface from the wired handlers.
func (c *Container) Router() chi.Router {
	uploadsDir := ""
	if c.Config.Uploads.Driver == "" || c.Config.Uploads.Driver == "local" {
		uploadsDir = c.Config.Uploads.Path
	}
	return router.SetupRouter(&router.Config{
		Logger:          c.Logger,
		Production:      c.Config.IsProduction(),
		CORSOrigins:     c.Config.Security.CORSAllowedOrigins,
		RateLimit:       c.Config.Security.RateLimitRequests,
		RateWindow:      c.Config.Security.RateLimitWindow,
		RequestTimeout:  c.Config.Server.Timeout,
		UploadsDir:      uploadsDir,
		Guard:           c.Guard,
		Builder:         c.Builder,
		AuthHandler:     c.AuthHandler,
		UserHandler:     c.UserHandler,
		BootcampHandler: c.BootcampHandler,
		CourseHandler:   c.CourseHandler,
		ReviewHandler:   c.ReviewHandler,
	})
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
