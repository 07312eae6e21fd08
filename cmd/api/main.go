package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"mapcreator/api/internal/app"
	"mapcreator/api/internal/archive"
	"mapcreator/api/internal/artifacts"
	"mapcreator/api/internal/authpw"
	"mapcreator/api/internal/config"
	"mapcreator/api/internal/search"
	"mapcreator/api/internal/session"
	"mapcreator/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	if err := os.MkdirAll(cfg.ArchiveDir, 0o755); err != nil {
		log.Fatalf("failed to create archive dir: %v", err)
	}

	dataStore := store.NewPostgresStore(db)
	archiveService := archive.New(cfg.ArchiveDir)

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient, err = search.NewMeili(ctx, cfg.MeiliURL, cfg.MeiliMasterKey)
		if err != nil {
			log.Printf("WARNING: meilisearch unavailable, falling back to in-memory search: %v", err)
		}
	}
	searchService := search.NewService(meiliClient)

	var artifactStore *artifacts.Store
	if strings.TrimSpace(cfg.MinIOEndpoint) != "" {
		artifactStore, err = artifacts.NewStore(ctx, artifacts.Config{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
		})
		if err != nil {
			log.Fatalf("artifact storage connection failed: %v", err)
		}
	}

	var refresh *session.RedisStore
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for refresh token storage")
		refresh, err = session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer refresh.Close()
	} else {
		log.Printf("Using PostgreSQL for refresh token storage")
	}

	var service *app.Service
	if refresh != nil {
		service = app.NewService(cfg, dataStore, refresh, authpw.NewService(dataStore), searchService, archiveService, artifactStore)
	} else {
		service = app.NewService(cfg, dataStore, nil, authpw.NewService(dataStore), searchService, archiveService, artifactStore)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("MapCreator API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	// Flushes any debounced edits before the process exits.
	service.Close()
}
