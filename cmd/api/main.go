package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"classcheckin/internal/api"
	"classcheckin/internal/camera"
	"classcheckin/internal/checkin"
	"classcheckin/internal/config"
	"classcheckin/internal/httpmiddleware"
	"classcheckin/internal/live"
	"classcheckin/internal/queue"
	"classcheckin/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewDB(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := checkin.NewRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		return err
	}

	health := map[string]api.HealthCheck{"db": db.Healthy}

	var redisClient *store.Redis
	if cfg.BusBackend == "redis" || cfg.RateLimitStore == "redis" {
		redisClient, err = store.NewRedis(cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		health["redis"] = redisClient.Healthy
	}

	var bus queue.Queue
	if cfg.BusBackend == "redis" {
		bus = queue.NewRedisQueue(redisClient.Client, cfg.BusChannel)
	} else {
		bus = queue.NewInMemory(64)
	}

	var limiter httpmiddleware.Limiter
	if cfg.RateLimitStore == "redis" {
		limiter = httpmiddleware.NewRedisWindow(redisClient.Client, cfg.RateLimitPerMin)
	} else {
		limiter = httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	}

	svc := checkin.NewService(repo, bus, cfg.DedupWindow)

	hub := live.NewHub(svc, bus)
	if err := hub.Start(ctx); err != nil {
		return err
	}
	defer hub.Close()

	poller := camera.NewPoller(cfg.CameraURL(), nil)
	if err := poller.Start(cfg.CameraSchedule); err != nil {
		return err
	}
	defer poller.Stop()
	log.Printf("polling camera at %s (%s)", cfg.CameraURL(), cfg.CameraSchedule)

	r := api.NewRouter(api.Deps{
		Service:  svc,
		Hub:      hub,
		Camera:   poller,
		Limiter:  limiter,
		Health:   health,
		Location: cfg.Location(),
		Now:      time.Now,
		WebDir:   cfg.WebDir,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s (db=%s bus=%s)", cfg.HTTPPort, cfg.DBDriver, cfg.BusBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Live sessions are hijacked connections; close them before Shutdown waits.
	_ = hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}
