package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/oliveplex/oliveplex/internal/api"
	"github.com/oliveplex/oliveplex/internal/catalog"
	"github.com/oliveplex/oliveplex/internal/config"
	"github.com/oliveplex/oliveplex/internal/directory"
	"github.com/oliveplex/oliveplex/internal/jobs"
	"github.com/oliveplex/oliveplex/internal/metadata"
	"github.com/oliveplex/oliveplex/internal/probe"
	"github.com/oliveplex/oliveplex/internal/scheduler"
	"github.com/oliveplex/oliveplex/internal/store"
	"github.com/oliveplex/oliveplex/internal/surprise"
	"github.com/oliveplex/oliveplex/internal/version"
	"github.com/oliveplex/oliveplex/internal/watcher"
	"github.com/oliveplex/oliveplex/internal/watchprogress"
)

func main() {
	ver := version.Load()
	log.Printf("OlivePlex %s starting...", ver.Version)

	cfg := config.Load()

	resolver, err := directory.NewResolver(cfg.MediaDir)
	if err != nil {
		log.Fatalf("media root check failed: %v", err)
	}

	flushInterval := time.Duration(cfg.DataWriteInterval) * time.Millisecond

	progressStore, err := store.Open(
		filepath.Join(cfg.DataDir, "watch_progress.json"),
		watchprogress.StateVersion, watchprogress.NewState(), nil)
	if err != nil {
		log.Fatalf("watch progress store failed: %v", err)
	}
	progressStore.Start(flushInterval)
	defer progressStore.Close()

	surpriseStore, err := store.Open(
		filepath.Join(cfg.DataDir, "surprises.json"),
		surprise.StateVersion, surprise.NewState(), nil)
	if err != nil {
		log.Fatalf("surprise store failed: %v", err)
	}
	surpriseStore.Start(flushInterval)
	defer surpriseStore.Close()

	progressSvc := watchprogress.New(progressStore)
	surpriseSvc := surprise.New(surpriseStore)
	probeSvc := probe.New(cfg.FFprobePath)

	var metadataSvc catalog.MetadataService
	if cfg.MetadataEnabled() {
		metadataSvc = metadata.New(cfg.TMDBAPIKey)
	} else {
		log.Println("TMDB_API_KEY not set, remote metadata disabled")
	}

	cat := catalog.New(resolver, probeSvc, metadataSvc, progressSvc, surpriseSvc, cfg.ScanConcurrency)
	runner := jobs.NewRunner(cat, resolver)

	var dispatcher jobs.Dispatcher
	if cfg.QueueEnabled() {
		queue := jobs.NewQueue(cfg.RedisAddr)
		jobs.RegisterHandlers(queue, runner)
		if err := queue.Start(context.Background()); err != nil {
			log.Fatalf("queue start failed: %v", err)
		}
		defer queue.Stop()
		dispatcher = jobs.NewQueueDispatcher(queue)
	} else {
		log.Println("REDIS_ADDR not set, running jobs in-process")
		dispatcher = jobs.NewInlineDispatcher(runner)
	}

	sched := scheduler.New(dispatcher)
	if err := sched.Schedule(cfg.RescanSchedule); err != nil {
		log.Fatalf("scheduler setup failed: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	fsWatcher, err := watcher.New(resolver, dispatcher)
	if err != nil {
		log.Fatalf("watcher setup failed: %v", err)
	}
	fsWatcher.Start()
	defer fsWatcher.Stop()

	srv := api.NewServer(cfg, resolver, cat, progressSvc, surpriseSvc, dispatcher, ver)

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
}
