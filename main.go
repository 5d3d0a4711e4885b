package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caselane/docforge/internal/config"
	"github.com/caselane/docforge/internal/distribute"
	"github.com/caselane/docforge/internal/gelf"
	"github.com/caselane/docforge/internal/handler"
	"github.com/caselane/docforge/internal/registry"
	"github.com/caselane/docforge/internal/render"
	"github.com/caselane/docforge/internal/router"
	"github.com/caselane/docforge/internal/service"
	"github.com/caselane/docforge/internal/worker"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// GELF UDP logging
	if cfg.GelfAddr != "" {
		gelfWriter, err := gelf.New(cfg.GelfAddr)
		if err != nil {
			log.Printf("Warning: GELF init failed: %v", err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stderr, gelfWriter))
			log.Printf("GELF logging: enabled (%s)", cfg.GelfAddr)
		}
	}

	// Job registry: in-memory by default, Firestore when configured.
	var reg registry.Registry
	if cfg.FirestoreProject != "" {
		fsReg, err := registry.NewFirestoreRegistry(ctx, cfg.FirestoreProject, cfg.FirestoreCollection)
		if err != nil {
			log.Fatalf("Failed to create Firestore registry: %v", err)
		}
		defer fsReg.Close()
		reg = fsReg
		log.Printf("Job registry: firestore (%s/%s)", cfg.FirestoreProject, cfg.FirestoreCollection)
	} else {
		reg = registry.NewMemoryRegistry()
		log.Printf("Job registry: in-memory")
	}

	// Render engine client
	renderer := render.NewClient(cfg.RenderURL, cfg.RenderAPIKey, cfg.RenderTimeout)
	log.Printf("Render engine: %s (timeout %s)", cfg.RenderURL, cfg.RenderTimeout)

	// Artifact destinations
	var destinations []distribute.Destination
	if cfg.GCSBucket != "" {
		gcs, err := distribute.NewGCSDestination(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile, cfg.GCSContinueOnFail)
		if err != nil {
			log.Fatalf("Failed to create GCS destination: %v", err)
		}
		destinations = append(destinations, gcs)
		log.Printf("Destination: gcs bucket %s (continueOnFailure=%v)", cfg.GCSBucket, cfg.GCSContinueOnFail)
	}
	if cfg.FileshareURL != "" {
		fs := distribute.NewFileshareDestination(cfg.FileshareURL, cfg.FileshareToken, cfg.FileshareBasePath, cfg.FileshareContinueOnFail)
		destinations = append(destinations, fs)
		log.Printf("Destination: fileshare %s (continueOnFailure=%v)", cfg.FileshareURL, cfg.FileshareContinueOnFail)
	}

	distributor, err := distribute.NewDistributor(cfg.StagingDir, destinations...)
	if err != nil {
		log.Fatalf("Failed to create distributor: %v", err)
	}
	log.Printf("Staging dir: %s", cfg.StagingDir)

	// Worker pool for orchestration
	pool := worker.NewPool(cfg.Workers)
	pool.Start()

	// Services
	jobSvc := service.NewJobService(reg, renderer, distributor, pool)
	intakeSvc := service.NewIntakeService()

	// Handlers
	authH := handler.NewAuthHandler(cfg.JWTSecret)
	jobH := handler.NewJobHandler(jobSvc, intakeSvc)
	intakeH := handler.NewIntakeHandler(intakeSvc)

	// Router
	r := router.New(cfg.JWTSecret, cfg.MaxRequestBytes, authH, jobH, intakeH)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		log.Printf("docforge server starting on %s (%d workers)", cfg.HTTPAddr, cfg.Workers)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: server shutdown failed: %v", err)
	}

	// Let in-flight render/distribute attempts finish.
	pool.Shutdown()
	log.Printf("Server exited")
}
