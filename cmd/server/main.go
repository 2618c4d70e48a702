// Command server starts the Orientis career orientation HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/orientis/orientis/internal/adapter/ai/ollama"
	httpserver "github.com/orientis/orientis/internal/adapter/httpserver"
	"github.com/orientis/orientis/internal/adapter/observability"
	"github.com/orientis/orientis/internal/adapter/repo/postgres"
	"github.com/orientis/orientis/internal/adapter/textextractor/local"
	"github.com/orientis/orientis/internal/app"
	"github.com/orientis/orientis/internal/config"
	"github.com/orientis/orientis/internal/usecase"
)

// connectDB opens the pool and pings it with exponential backoff so the
// server survives the database coming up slightly later (compose startup).
func connectDB(ctx context.Context, dsn string, maxElapsed time.Duration) (*pgxpool.Pool, error) {
	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	expo := backoff.NewExponentialBackOff()
	expo.MaxElapsedTime = maxElapsed
	op := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return pool.Ping(pingCtx)
	}
	if err := backoff.Retry(op, backoff.WithContext(expo, ctx)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("op=main.connectDB: %w", err)
	}
	return pool, nil
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := connectDB(ctx, cfg.DBURL, cfg.DBConnectMaxElapsed)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		slog.Error("migration failed", slog.Any("error", err))
		os.Exit(1)
	}

	// Repositories
	userRepo := postgres.NewUserRepo(pool)
	docRepo := postgres.NewDocumentRepo(pool)
	skillRepo := postgres.NewSkillRepo(pool)
	convRepo := postgres.NewConversationRepo(pool)

	// Model client and extraction
	model := ollama.New(cfg.ModelBaseURL, cfg.ModelName, cfg.ModelTimeout)
	extractor := local.New()

	// Usecases
	analyzeSvc := usecase.NewAnalyzeService(model)
	docSvc := usecase.NewDocumentService(docRepo, skillRepo, extractor, analyzeSvc)
	authSvc := usecase.NewAuthService(userRepo)
	chatSvc := usecase.NewChatService(convRepo, docRepo, model)

	jwtSvc := httpserver.NewJWTService(cfg.JWTSecret, cfg.JWTLifetime)

	dbCheck := func(ctx context.Context) error { return pool.Ping(ctx) }
	modelCheck := func(ctx context.Context) error { return model.Ping(ctx) }

	srv := httpserver.NewServer(cfg, authSvc, docSvc, chatSvc, jwtSvc, dbCheck, modelCheck)
	handler := app.BuildRouter(cfg, srv, jwtSvc)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
