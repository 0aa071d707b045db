// Package main runs the openboard API server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	app "github.com/openboard/openboard/internal/app"
	"github.com/openboard/openboard/internal/app/httpapi"
	"github.com/openboard/openboard/internal/app/metrics"
	"github.com/openboard/openboard/internal/app/storage/postgres"
	"github.com/openboard/openboard/internal/config"
	"github.com/openboard/openboard/internal/middleware"
	"github.com/openboard/openboard/internal/platform/migrations"
	"github.com/openboard/openboard/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()
	if v := os.Getenv("CONFIG_PATH"); v != "" && *configPath == "" {
		*configPath = v
	}

	log := logger.NewDefault("server")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Error("load configuration")
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	stores := app.Stores{}
	if cfg.Database.URL != "" {
		db, err := openDatabase(cfg.Database.URL)
		if err != nil {
			log.WithError(err).Error("connect to postgres")
			os.Exit(1)
		}
		defer db.Close()

		store := postgres.New(db)
		stores = app.Stores{
			Users:    store,
			Posts:    store,
			Comments: store,
			Likes:    store,
			Views:    store,
			Images:   store,
		}
		log.Info("using postgres storage")
	} else {
		log.Warn("DATABASE_URL not set; using in-memory storage")
	}

	application := app.New(stores, app.Options{
		JWTSecret:      cfg.Auth.JWTSecret,
		TokenTTL:       cfg.TokenTTL(),
		UploadsDir:     cfg.Uploads.Dir,
		UploadsBaseURL: cfg.Uploads.BaseURL,
	}, log)

	authMW := middleware.NewAuthMiddleware(application.Issuer, log,
		[]string{
			"/api/v2/users/register",
			"/api/v2/users/login",
			"/healthz",
			"/metrics",
		},
		[]string{
			"/api/v2/posts",
			"/api/v2/users",
			"/api/v2/images",
			"/uploads",
		},
	)
	corsMW := middleware.NewCORSMiddleware(cfg.Server.AllowedOrigins)

	mux := http.NewServeMux()
	mux.Handle("/uploads/", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(cfg.Uploads.Dir))))
	mux.Handle("/", httpapi.NewHandler(application))

	handler := metrics.InstrumentHandler(
		corsMW.Handler(
			middleware.LoggingMiddleware(log)(
				authMW.Handler(mux))))

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("server listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.WithError(err).Error("server failed")
		os.Exit(1)
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
		os.Exit(1)
	}
	log.Info("server stopped")
}

func openDatabase(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrations.Apply(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
