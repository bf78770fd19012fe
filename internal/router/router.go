package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	appLogger "github.com/FACorreiaa/devcamper-api/app/logger"
	appMiddleware "github.com/FACorreiaa/devcamper-api/app/middleware"
	"github.com/FACorreiaa/devcamper-api/internal/api"
	"github.com/FACorreiaa/devcamper-api/internal/api/auth"
	"github.com/FACorreiaa/devcamper-api/internal/api/bootcamp"
	"github.com/FACorreiaa/devcamper-api/internal/api/course"
	"github.com/FACorreiaa/devcamper-api/internal/api/query"
	"github.com/FACorreiaa/devcamper-api/internal/api/review"
	"github.com/FACorreiaa/devcamper-api/internal/api/user"
	"github.com/FACorreiaa/devcamper-api/internal/types"
)

// Config contains dependencies needed for the router setup
type Config struct {
	Logger         *slog.Logger
	Production     bool
	CORSOrigins    []string
	RateLimit      int
	RateWindow     time.Duration
	RequestTimeout time.Duration
	// UploadsDir is served under /uploads when photos are kept on local disk.
	UploadsDir string

	Guard   func(http.Handler) http.Handler
	Builder *query.Builder

	AuthHandler     *auth.HandlerImpl
	UserHandler     *user.HandlerImpl
	BootcampHandler *bootcamp.HandlerImpl
	CourseHandler   *course.HandlerImpl
	ReviewHandler   *review.HandlerImpl
}

// SetupRouter initializes and configures the main application router.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appLogger.StructuredLogger(cfg.Logger))
	r.Use(appMiddleware.Recoverer(cfg.Logger))
	r.Use(middleware.StripSlashes)
	r.Use(appMiddleware.SecureHeaders(cfg.Production))
	r.Use(appMiddleware.CORS(cfg.CORSOrigins))
	if cfg.RateLimit > 0 && cfg.RateWindow > 0 {
		r.Use(appMiddleware.RateLimit(cfg.RateLimit, cfg.RateWindow))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.ErrorResponse(w, r, http.StatusNotFound, "Route not found")
	})

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	if cfg.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", cfg.AuthHandler.Routes(cfg.Guard))

		r.Group(func(r chi.Router) {
			r.Use(cfg.Guard, auth.RequireRoles(cfg.Logger, types.RoleAdmin))
			r.Mount("/users", cfg.UserHandler.Routes(cfg.Builder))
		})

		r.Mount("/bootcamps", cfg.BootcampHandler.Routes(cfg.Builder, cfg.Guard,
			cfg.CourseHandler.BootcampRoutes(cfg.Guard),
			cfg.ReviewHandler.BootcampRoutes(cfg.Guard)))
		r.Mount("/courses", cfg.CourseHandler.Routes(cfg.Builder, cfg.Guard))
		r.Mount("/reviews", cfg.ReviewHandler.Routes(cfg.Builder, cfg.Guard))
	})

	return r
}
