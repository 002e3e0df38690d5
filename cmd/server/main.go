package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transcript-sync/internal/media"
	"transcript-sync/internal/orchestrator"
	"transcript-sync/internal/platform/config"
	"transcript-sync/internal/platform/logger"
	"transcript-sync/internal/platform/metrics"
	"transcript-sync/internal/transcribe"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	transcriberURL := config.GetEnv("TRANSCRIBER_URL", "http://localhost:8000")
	submitTimeout := config.GetEnvDuration("SUBMIT_TIMEOUT", 0)
	maxUploadMB := config.GetEnvInt64("MAX_UPLOAD_MB", 100)
	mediaDir := config.GetEnv("MEDIA_DIR", "")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")

	log := logger.New(logLevel, logFormat)

	handles, err := media.NewHandles(mediaDir)
	if err != nil {
		log.Error("media dir error", "error", err)
		os.Exit(1)
	}

	met := metrics.New()
	repo := orchestrator.NewInMemoryRepository()
	client := transcribe.NewClient(transcriberURL, nil)
	svc := orchestrator.NewService(repo, client, handles, orchestrator.Options{
		SubmitTimeout:  submitTimeout,
		MaxUploadBytes: maxUploadMB << 20,
		Log:            log,
		Metrics:        met,
	})
	h := orchestrator.NewHandler(svc, log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() {
			met.SetActiveSessions(repo.ActiveSessionCount())
			met.SetMediaHandles(handles.Count())
		}).ServeHTTP(w, r)
	})
	h.Routes(r)

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"transcriber_url", transcriberURL,
		"submit_timeout", submitTimeout.String(),
		"max_upload_mb", maxUploadMB,
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	// Ending sessions closes their event streams so Shutdown can drain.
	if err := svc.Close(); err != nil {
		log.Error("session teardown error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	if err := handles.Close(); err != nil {
		log.Error("media cleanup error", "error", err)
	}

	log.Info("server stopped")
}
