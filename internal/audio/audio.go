// Package audio wires the Loader Pool, Buffer Registry, Scheduler, Queue,
// and Event Bus into the AudioSystem: the single entry point the HTTP
// control plane and main use to drive playback. It is constructed once at
// startup and handed to the HTTP layer as a plain dependency.
package audio

import (
	"context"
	"fmt"
	"time"

	"github.com/arung-agamani/wavecast/internal/catalog"
	"github.com/arung-agamani/wavecast/internal/driver"
	"github.com/arung-agamani/wavecast/internal/events"
	"github.com/arung-agamani/wavecast/internal/pool"
	"github.com/arung-agamani/wavecast/internal/queue"
	"github.com/arung-agamani/wavecast/internal/registry"
	"github.com/arung-agamani/wavecast/internal/sample"
	"github.com/arung-agamani/wavecast/internal/scheduler"
)

// Options configures a new AudioSystem.
type Options struct {
	Lookahead               int
	PreloadThresholdSeconds int
	PreloadTargetSeconds    int
	RingBufferBytes         int
	MaxConsumers            int
}

// TrackMeta describes a track being added to the system.
type TrackMeta struct {
	Title    string
	Artist   string
	FilePath string
	Position queue.Position
}

// AudioSystem is the root object of the streaming engine.
type AudioSystem struct {
	bus       *events.Bus
	queue     *queue.Queue
	registry  *registry.Registry
	scheduler *scheduler.Scheduler
	pool      *pool.Pool
	catalog   *catalog.Catalog

	lookahead int
}

// New constructs an AudioSystem from opts. It does not start any background
// loops; call Start for that.
func New(opts Options) *AudioSystem {
	if opts.Lookahead <= 0 {
		opts.Lookahead = 3
	}

	bus := events.New()
	q := queue.New(bus)
	reg := registry.New(opts.RingBufferBytes, opts.MaxConsumers)
	p := pool.New()

	thresholdSamples := opts.PreloadThresholdSeconds * driver.SamplesPerSecond
	targetSamples := opts.PreloadTargetSeconds * driver.SamplesPerSecond
	sched := scheduler.New(opts.Lookahead, thresholdSamples, targetSamples)

	sys := &AudioSystem{
		bus:       bus,
		queue:     q,
		registry:  reg,
		scheduler: sched,
		pool:      p,
		catalog:   catalog.New(),
		lookahead: opts.Lookahead,
	}

	return sys
}

// Start launches the Playback Driver and Loader Driver as background
// goroutines against the Queue installed at call time (the default empty
// Queue, or one installed beforehand via RestoreQueue). Both stop when ctx
// is cancelled.
func (s *AudioSystem) Start(ctx context.Context) {
	playback := driver.NewPlayback(s.scheduler, s.pool, s.registry, s.queue, s.bus, s.lookahead)
	loader := driver.NewLoader(s.scheduler, s.pool)

	go playback.Run(ctx)
	go loader.Run(ctx)
}

// Stream registers a new consumer and returns its handle. Callers must call
// StopStream when the consumer disconnects.
func (s *AudioSystem) Stream() (registry.ConsumerID, *registry.Consumer, error) {
	return s.registry.NewConsumer()
}

// StopStream deregisters a consumer.
func (s *AudioSystem) StopStream(id registry.ConsumerID) {
	s.registry.RemoveConsumer(id)
}

// ConsumerCount reports how many stream consumers are currently connected.
func (s *AudioSystem) ConsumerCount() int {
	return s.registry.Count()
}

// Add opens provider, registers its reader with the Pool, and enqueues the
// resulting track via meta.Position.
func (s *AudioSystem) Add(provider sample.Provider, meta TrackMeta) (queue.Track, error) {
	reader, err := provider.Open()
	if err != nil {
		return queue.Track{}, fmt.Errorf("audio: failed to open provider for %q: %w", meta.FilePath, err)
	}

	duration := provider.Duration()
	expectedLength := int(duration.Seconds() * float64(driver.SamplesPerSecond))

	id := s.pool.Add(reader, expectedLength)
	track := queue.Track{
		ID:       id,
		Title:    meta.Title,
		Artist:   meta.Artist,
		FilePath: meta.FilePath,
		Duration: duration,
	}

	s.queue.AddTrack(track, meta.Position)
	s.refreshWindow()
	return track, nil
}

// RegisterReader adds reader to the Pool without touching the Queue, for
// restore flows that need a TrackID before they can build a queue.Track.
func (s *AudioSystem) RegisterReader(reader sample.Reader, expectedLength int) pool.TrackID {
	return s.pool.Add(reader, expectedLength)
}

// RestoreQueue replaces the system's Queue with one rebuilt from persisted
// state (see queue.Store.Load) and refreshes the Scheduler's window to
// match. Must be called before Start.
func (s *AudioSystem) RestoreQueue(q *queue.Queue) {
	s.queue = q
	s.refreshWindow()
}

// Next skips to the next track in the Queue.
func (s *AudioSystem) Next() {
	s.queue.Next()
	s.refreshWindow()
}

// Remove deletes the track at index from the Queue.
func (s *AudioSystem) Remove(index int) (queue.Track, error) {
	t, err := s.queue.Remove(index)
	if err != nil {
		return queue.Track{}, err
	}
	s.refreshWindow()
	return t, nil
}

// Move relocates a queued track from one position to another.
func (s *AudioSystem) Move(from, to int) error {
	if err := s.queue.Move(from, to); err != nil {
		return err
	}
	s.refreshWindow()
	return nil
}

// Clear empties the Queue.
func (s *AudioSystem) Clear() {
	s.queue.Clear()
	s.refreshWindow()
}

// refreshWindow re-derives the Scheduler's look-ahead window from the
// Queue's current head. Called after every mutation that could shift which
// tracks lie ahead of the head.
func (s *AudioSystem) refreshWindow() {
	ahead := s.queue.PeekAhead(s.lookahead)
	ids := make([]pool.TrackID, len(ahead))
	for i, t := range ahead {
		ids[i] = t.ID
	}
	s.scheduler.SetLoaders(ids)
}

// Events returns the Event Bus subscribers should Subscribe to.
func (s *AudioSystem) Events() *events.Bus { return s.bus }

// Queue returns the underlying Queue for read-only inspection (snapshots,
// length) by the HTTP layer.
func (s *AudioSystem) Queue() *queue.Queue { return s.queue }

// Catalog returns the Track Catalog.
func (s *AudioSystem) Catalog() *catalog.Catalog { return s.catalog }

// Status is a point-in-time summary of the system, for the status endpoint.
type Status struct {
	QueueLength    int
	Head           int
	ConsumerCount  int
	Window         []pool.TrackID
	Cursor         int
	NowPlaying     *queue.Track
	NowPlayingTime time.Duration
}

// StatusSnapshot builds a Status from the current state of every component.
func (s *AudioSystem) StatusSnapshot() Status {
	snap := s.queue.Snapshot()

	var nowPlaying *queue.Track
	if snap.Head >= 0 && snap.Head < len(snap.Tracks) {
		t := snap.Tracks[snap.Head]
		nowPlaying = &t
	}

	var elapsed time.Duration
	if nowPlaying != nil {
		cursor := s.scheduler.Cursor()
		elapsed = time.Duration(cursor) * time.Second / time.Duration(driver.SamplesPerSecond)
	}

	return Status{
		QueueLength:    len(snap.Tracks),
		Head:           snap.Head,
		ConsumerCount:  s.registry.Count(),
		Window:         s.scheduler.Window(),
		Cursor:         s.scheduler.Cursor(),
		NowPlaying:     nowPlaying,
		NowPlayingTime: elapsed,
	}
}

// Shutdown closes every connected consumer, used during graceful shutdown.
func (s *AudioSystem) Shutdown() {
	s.registry.CloseAll()
}
