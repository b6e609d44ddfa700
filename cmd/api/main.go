package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/image-caption/internal/application"
	appcaption "github.com/bryanwahyu/image-caption/internal/application/caption"
	"github.com/bryanwahyu/image-caption/internal/config"
	"github.com/bryanwahyu/image-caption/internal/domain/audit"
	mysqlp "github.com/bryanwahyu/image-caption/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/image-caption/internal/infra/db/postgres"
	"github.com/bryanwahyu/image-caption/internal/infra/ai/provider"
	"github.com/bryanwahyu/image-caption/internal/infra/httpserver"
	"github.com/bryanwahyu/image-caption/internal/logger"
	"github.com/bryanwahyu/image-caption/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		logger.WithError(err).Fatal("config load error")
	}
	logger.Setup(os.Stdout, cfg.Log.Level)

	ctx := context.Background()

	client, closeClient, err := provider.New(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("ai provider init error")
	}
	defer closeClient()

	repo, db, err := openAudit(ctx, cfg)
	if err != nil {
		logger.WithError(err).WithField("driver", cfg.Audit.Driver).Fatal("audit store init error")
	}
	if db != nil {
		defer db.Close()
	}

	svc := appcaption.NewService(client, cfg.AI.Timeout).WithClock(application.SystemClock{})

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window)
	stopSweep := make(chan struct{})
	go limiter.Run(stopSweep)
	defer close(stopSweep)

	handler := httpserver.NewRouter(svc, httpserver.Options{
		MaxUploadBytes: cfg.Upload.MaxBytes,
		StaticDir:      cfg.Server.StaticDir,
		APIKeys:        cfg.APIKeySet(),
		RateLimiter:    limiter,
		RateWindow:     cfg.Server.RateLimit.Window,
		Audit:          repo,
		Secrets:        provider.Secrets(cfg),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		// provider timeout plus room to write the response
		WriteTimeout: cfg.AI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":     addr,
			"provider": svc.Provider(),
			"model":    svc.Model(),
			"audit":    cfg.Audit.Driver,
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), cfg.AI.Timeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.WithError(err).Error("shutdown error")
	}
	// audit writes must land before the deferred db.Close
	if err := handler.Wait(ctx2); err != nil {
		logger.WithError(err).Warn("pending audit writes abandoned")
	}
}

// openAudit connects the optional audit store. Both results are nil when
// auditing is disabled.
func openAudit(ctx context.Context, cfg *config.Config) (audit.Repository, *sql.DB, error) {
	switch cfg.Audit.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.Audit.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := mysqlp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return mysqlp.NewAuditRepository(db), db, nil
	case "postgres":
		db, err := pgp.Connect(ctx, cfg.Audit.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := pgp.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return pgp.NewAuditRepository(db), db, nil
	default:
		return nil, nil, nil
	}
}
