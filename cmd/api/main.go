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

	"turnover/api/internal/app"
	"turnover/api/internal/attach"
	"turnover/api/internal/config"
	"turnover/api/internal/mirror"
	"turnover/api/internal/search"
	"turnover/api/internal/session"
	"turnover/api/internal/sheet"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if problems := cfg.Check(); len(problems) > 0 {
		log.Printf("WARNING: configuration problems:\n  - %s", strings.Join(problems, "\n  - "))
	}

	var (
		store     sheet.Store
		mirrorSvc *mirror.Service
	)
	switch cfg.SheetBackend {
	case "postgres":
		db, err := sheet.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer db.Close()
		if err := sheet.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
		store = sheet.NewPostgresStore(db)
	default:
		var snapshotter sheet.Snapshotter
		if cfg.GitMirror {
			if err := os.MkdirAll(cfg.SheetDir, 0o755); err != nil {
				log.Fatalf("failed to create sheet dir: %v", err)
			}
			var err error
			mirrorSvc, err = mirror.New(cfg.SheetDir, "turnover-api")
			if err != nil {
				log.Fatalf("git mirror init failed: %v", err)
			}
			snapshotter = mirrorSvc
		}
		csvStore, err := sheet.NewCSVStore(cfg.SheetDir, snapshotter)
		if err != nil {
			log.Fatalf("csv store init failed: %v", err)
		}
		store = csvStore
	}
	store = sheet.NewRetrying(store)

	var files attach.Store
	if cfg.AttachBackend == "minio" {
		minioStore, err := attach.NewMinioStore(ctx, attach.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatalf("minio connection failed: %v", err)
		}
		files = minioStore
	} else {
		dirStore, err := attach.NewDirStore(cfg.AttachDir)
		if err != nil {
			log.Fatalf("attachment dir init failed: %v", err)
		}
		files = dirStore
	}

	var sessions session.Store
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for remember-me token storage")
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		sessions = redisStore
	} else {
		log.Printf("Using in-memory remember-me token storage")
		sessions = session.NewMemoryStore()
	}

	service := app.New(cfg, store, files, sessions, mirrorSvc)

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, service)
	service.SetSearch(searchService)
	if meiliClient != nil {
		go searchService.ReindexAll(ctx)
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
		log.Printf("Turnover API listening on %s", cfg.Addr)
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
}
