package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arung-agamani/wavecast/config"
	"github.com/arung-agamani/wavecast/internal/audio"
	"github.com/arung-agamani/wavecast/internal/auth"
	"github.com/arung-agamani/wavecast/internal/events"
	"github.com/arung-agamani/wavecast/internal/httpapi"
	"github.com/arung-agamani/wavecast/internal/pool"
	"github.com/arung-agamani/wavecast/internal/queue"
	"github.com/arung-agamani/wavecast/internal/sample"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()

	slog.Info("starting wavecast",
		"port", cfg.StreamPort,
		"music_dir", cfg.MusicDir,
		"station_name", cfg.StationName,
	)

	system := audio.New(audio.Options{
		Lookahead:               cfg.Lookahead,
		PreloadThresholdSeconds: cfg.PreloadThresholdSeconds,
		PreloadTargetSeconds:    cfg.PreloadTargetSeconds,
		RingBufferBytes:         cfg.RingBufferBytes,
		MaxConsumers:            cfg.MaxConsumers,
	})

	if n, err := system.Catalog().Scan(cfg.MusicDir); err != nil {
		slog.Warn("catalog scan failed", "music_dir", cfg.MusicDir, "error", err)
	} else {
		slog.Info("catalog scanned", "music_dir", cfg.MusicDir, "tracks", n)
	}

	queueStore, err := queue.NewStore(cfg.QueueStoreFile)
	if err != nil {
		slog.Error("failed to open queue store", "error", err)
		os.Exit(1)
	}

	if queueStore.Exists() {
		restored, err := queueStore.Load(system.Events(), restoreTrack(system))
		if err != nil {
			slog.Warn("failed to restore queue, starting empty", "error", err)
		} else {
			system.RestoreQueue(restored)
			slog.Info("queue restored", "tracks", restored.Len())
		}
	}

	a := auth.New(auth.Config{
		Username:     cfg.OperatorUsername,
		PasswordHash: cfg.OperatorPasswordHash,
		JWTSecret:    cfg.JWTSecret,
	})

	server := httpapi.New(system, a, httpapi.Options{
		Addr:        ":" + cfg.StreamPort,
		StationName: cfg.StationName,
		MusicDir:    cfg.MusicDir,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		slog.Info("shutdown signal received")
		cancel()
	}()

	system.Start(ctx)
	go persistQueueOnEvents(ctx, system, queueStore)

	if err := server.Start(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("shutting down gracefully")
	if err := queueStore.Save(system.Queue()); err != nil {
		slog.Error("failed to save queue on shutdown", "error", err)
	}
	system.Shutdown()
	time.Sleep(200 * time.Millisecond)
	slog.Info("wavecast stopped")
}

// restoreTrack builds a queue.RestoreFunc that re-opens each persisted file
// through ffmpeg and registers it with the Pool, mirroring what Add does for
// a freshly enqueued track but without touching the Queue itself.
func restoreTrack(system *audio.AudioSystem) queue.RestoreFunc {
	return func(filePath string) (pool.TrackID, error) {
		provider := &sample.FileProvider{Path: filePath}
		reader, err := provider.Open()
		if err != nil {
			return pool.TrackID{}, fmt.Errorf("failed to reopen %q: %w", filePath, err)
		}
		expectedLength := int(provider.Duration().Seconds() * 88200)
		return system.RegisterReader(reader, expectedLength), nil
	}
}

// persistQueueOnEvents saves the Queue to disk after every TrackAdded,
// TrackRemoved or QueueCleared event. Head advances are skipped, and Move
// publishes no event, so a reorder reaches disk only with the next save.
func persistQueueOnEvents(ctx context.Context, system *audio.AudioSystem, store *queue.Store) {
	sub := system.Events().Subscribe()
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case e, open := <-sub.C():
			if !open {
				return
			}
			if e.Kind == events.Advanced {
				continue
			}
			if err := store.Save(system.Queue()); err != nil {
				slog.Warn("failed to persist queue", "error", err)
			}
		}
	}
}
