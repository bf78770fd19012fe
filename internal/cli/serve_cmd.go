package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	database "github.com/FACorreiaa/devcamper-api/app/db"
	"github.com/FACorreiaa/devcamper-api/app/observability/metrics"
	"github.com/FACorreiaa/devcamper-api/app/tracer"
	"github.com/FACorreiaa/devcamper-api/config"
	"github.com/FACorreiaa/devcamper-api/internal/container"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before serving")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metricsHandler, shutdownTelemetry, err := tracer.InitTracingAndMetrics(serviceName)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	metrics.InitAppMetrics()
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		if err := shutdownTelemetry(sctx); err != nil {
			logger.Error("Telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	if migrate {
		dbConfig, err := database.NewDatabaseConfig(cfg, logger)
		if err != nil {
			return err
		}
		if err = database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
			return err
		}
	}

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if !c.WaitForDB(ctx) {
		return errors.New("database not ready after waiting")
	}

	servers := []*http.Server{newServer(cfg.Server, ":"+cfg.Server.HTTPPort, c.Router(), logger)}
	if cfg.Metrics.Enabled {
		mr := chi.NewRouter()
		mr.Handle("/metrics", metricsHandler)
		servers = append(servers, newServer(cfg.Server, ":"+cfg.Metrics.Port, mr, logger))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("Starting HTTP server", slog.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("listening on %s: %w", srv.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, starting graceful shutdown...")
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(sctx); err != nil {
				errs = append(errs, fmt.Errorf("shutting down %s: %w", srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	if err = g.Wait(); err != nil {
		return err
	}
	logger.Info("Application shut down complete.")
	return nil
}

func newServer(cfg config.ServerConfig, addr string, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  orDefault(cfg.ReadTimeout, 5*time.Second),
		WriteTimeout: orDefault(cfg.WriteTimeout, 10*time.Second),
		IdleTimeout:  orDefault(cfg.IdleTimeout, 120*time.Second),
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
