package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tutoring-orders-api/config"
	"github.com/kendall-kelly/tutoring-orders-api/logging"
	"github.com/kendall-kelly/tutoring-orders-api/middleware"
	"github.com/kendall-kelly/tutoring-orders-api/observability"
	"github.com/kendall-kelly/tutoring-orders-api/services"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		log.Fatalf("tutoring-orders-api: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.GoEnv)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.GoEnv, version)
	if err != nil {
		logger.Warn("sentry disabled", zap.Error(err))
	}
	defer flush()

	logger.Info("starting tutoring orders API", zap.String("env", cfg.GoEnv), zap.String("version", version))

	if err := config.ConnectDatabase(cfg); err != nil {
		return err
	}
	db := config.GetDB()
	if err := config.RunMigrations(db); err != nil {
		return err
	}
	logger.Info("database migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	directory := services.InitDirectory(db)
	orderService := services.InitOrderService(db, directory, logger)

	if cfg.S3Enabled() {
		s3Service, err := services.NewS3Service(ctx, cfg)
		if err != nil {
			return err
		}
		services.InitAttachmentService(s3Service, orderService)
		logger.Info("attachment storage enabled", zap.String("bucket", cfg.AWSS3Bucket))
	} else {
		logger.Warn("AWS_S3_BUCKET not set, attachment endpoints are disabled")
	}

	auth, err := middleware.EnsureValidToken(cfg, logger)
	if err != nil {
		return fmt.Errorf("set up token validation: %w", err)
	}

	switch {
	case cfg.IsProduction():
		gin.SetMode(gin.ReleaseMode)
	case cfg.IsTest():
		gin.SetMode(gin.TestMode)
	}
	router := setupRouter(cfg, logger, auth)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
