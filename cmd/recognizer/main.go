package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"classcheckin/internal/camera"
	"classcheckin/internal/checkin"
	"classcheckin/internal/config"
	"classcheckin/internal/faceclient"
	"classcheckin/internal/queue"
	"classcheckin/internal/recognizer"
	"classcheckin/internal/store"
)

// Recognizer polls the camera, asks the face service who is in frame and
// records a check-in for every recognised person.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	repo := checkin.NewRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	var bus queue.Queue
	if cfg.BusBackend == "redis" {
		redisClient, err := store.NewRedis(cfg.RedisAddr)
		if err != nil {
			log.Fatalf("redis config invalid: %v", err)
		}
		defer redisClient.Close()
		bus = queue.NewRedisQueue(redisClient.Client, cfg.BusChannel)
	} else {
		log.Println("BUS_BACKEND is not redis; live feeds in the api process will not see recognizer check-ins until their next change")
		bus = queue.NewInMemory(1)
	}

	svc := checkin.NewService(repo, bus, cfg.DedupWindow)
	face := faceclient.New(cfg.FaceServiceURL, cfg.FaceSkip)

	if !cfg.FaceSkip {
		if err := face.Health(ctx); err != nil {
			log.Printf("WARNING: Face service not available: %v", err)
			log.Println("Recognizer will keep polling and retry on every frame")
		} else {
			log.Println("Face service connected")
		}
	}

	rec := recognizer.New(face, svc, recognizer.WithStates(bus))
	rec.Announce(ctx, recognizer.StateIdle)
	poller := camera.NewPoller(cfg.CameraURL(), func(ctx context.Context, frame camera.Frame) {
		r, err := rec.HandleFrame(ctx, frame)
		if err != nil {
			log.Printf("frame %d: %v", frame.Key, err)
			return
		}
		if r != nil {
			log.Printf("checked in %s <%s> as %s", r.Name, r.Email, r.ID)
		}
	})
	if err := poller.Start(cfg.CameraSchedule); err != nil {
		log.Fatalf("camera poller failed: %v", err)
	}

	log.Printf("recognizer started, polling %s (%s)", cfg.CameraURL(), cfg.CameraSchedule)
	<-ctx.Done()
	poller.Stop()
	rec.Announce(context.Background(), recognizer.StateIdle)
	log.Println("recognizer stopped")
}
