// Package driver implements the Playback Driver and Loader Driver: the two
// background loops that turn a Scheduler's decisions into moving bytes. The
// Playback Driver runs a real-time tick loop that corrects for its own
// processing time so it doesn't drift off wall-clock cadence; the Loader
// Driver runs a fixed-interval preload loop alongside it. Both block on
// ctx.Done() between ticks.
package driver

import (
	"context"
	"encoding/binary"
	"log/slog"
	"math"
	"time"

	"github.com/arung-agamani/wavecast/internal/events"
	"github.com/arung-agamani/wavecast/internal/pool"
	"github.com/arung-agamani/wavecast/internal/queue"
	"github.com/arung-agamani/wavecast/internal/registry"
	"github.com/arung-agamani/wavecast/internal/sample"
	"github.com/arung-agamani/wavecast/internal/scheduler"
)

const (
	// SampleRate and ChannelCount mirror the engine-wide fixed format.
	SampleRate   = 44100
	ChannelCount = 2

	// SamplesPerSecond counts both channels.
	SamplesPerSecond = SampleRate * ChannelCount

	// StreamChunkDuration is one Playback Driver tick.
	StreamChunkDuration = 100 * time.Millisecond

	// StreamChunkSize is the number of samples emitted per tick.
	StreamChunkSize = SamplesPerSecond * int(StreamChunkDuration/time.Millisecond) / 1000

	// PreloadInterval is how often the Loader Driver checks the Scheduler
	// for tracks that need more samples.
	PreloadInterval = 500 * time.Millisecond
)

// QueueAdvancer is the narrow slice of *queue.Queue the Playback Driver
// needs in order to roll the window forward after a rollover.
type QueueAdvancer interface {
	Next()
	PeekAhead(k int) []queue.Track
}

// Playback drives the real-time 100ms tick loop: it asks the Scheduler for
// the next chunk's worth of segments, reads the corresponding samples from
// the Pool, encodes them to little-endian f32 bytes, and broadcasts them
// through the Registry. Each segment after the first represents a track
// rollover, so the queue advances once per extra segment and the Scheduler's
// window is refreshed to match.
type Playback struct {
	sched     *scheduler.Scheduler
	pool      *pool.Pool
	registry  *registry.Registry
	queue     QueueAdvancer
	bus       *events.Bus
	lookahead int
}

// NewPlayback wires a Playback Driver from its dependencies. lookahead is how
// many tracks ahead of the head the Scheduler's window should hold; it must
// match the Scheduler's own configured lookahead.
func NewPlayback(sched *scheduler.Scheduler, p *pool.Pool, reg *registry.Registry, q QueueAdvancer, bus *events.Bus, lookahead int) *Playback {
	return &Playback{sched: sched, pool: p, registry: reg, queue: q, bus: bus, lookahead: lookahead}
}

// Run blocks, ticking every StreamChunkDuration until ctx is cancelled. Each
// tick is self-correcting: if processing a tick took longer than the tick
// interval, the next sleep is shortened (or skipped) rather than drifting.
func (d *Playback) Run(ctx context.Context) {
	slog.Info("playback driver started",
		"chunk_samples", StreamChunkSize,
		"chunk_duration_ms", StreamChunkDuration.Milliseconds(),
		"samples_per_sec", SamplesPerSecond,
	)

	for {
		start := time.Now()

		d.tick()

		select {
		case <-ctx.Done():
			slog.Info("playback driver stopping")
			return
		default:
		}

		elapsed := time.Since(start)
		if elapsed > StreamChunkDuration {
			slog.Warn("playback tick took too long", "elapsed_ms", elapsed.Milliseconds())
		}

		remaining := StreamChunkDuration - elapsed
		if remaining <= 0 {
			continue
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("playback driver stopping")
			return
		case <-timer.C:
		}
	}
}

func (d *Playback) tick() {
	buf := make([]sample.Sample, StreamChunkSize)

	segments := d.sched.Advance(StreamChunkSize)

	amountRead := 0
	for _, seg := range segments {
		n := d.pool.Read(seg.TrackID, seg.Start, buf[amountRead:amountRead+seg.Len()])
		amountRead += n
	}

	for range segments[min(1, len(segments)):] {
		d.queue.Next()
		d.bus.Publish(events.Event{Kind: events.Advanced})
	}

	if len(segments) > 1 {
		ahead := d.queue.PeekAhead(d.lookahead)
		ids := make([]pool.TrackID, len(ahead))
		for i, t := range ahead {
			ids[i] = t.ID
		}
		d.sched.SetLoaders(ids)
	}

	// Unfilled tail (underrun) is left at zero value, i.e. silence.
	out := make([]byte, len(buf)*4)
	for i, s := range buf {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], math.Float32bits(s))
	}

	d.registry.Broadcast(out)
}

// Loader drives the background preload loop: every PreloadInterval it asks
// the Scheduler which tracks in its window have fallen below their preload
// threshold, loads more samples for each from the Pool, and reports the new
// loaded length back so the Scheduler can detect exhaustion.
type Loader struct {
	sched *scheduler.Scheduler
	pool  *pool.Pool
}

// NewLoader wires a Loader Driver from its dependencies.
func NewLoader(sched *scheduler.Scheduler, p *pool.Pool) *Loader {
	return &Loader{sched: sched, pool: p}
}

// Run blocks, polling every PreloadInterval until ctx is cancelled.
func (l *Loader) Run(ctx context.Context) {
	slog.Info("loader driver started", "interval_ms", PreloadInterval.Milliseconds())

	ticker := time.NewTicker(PreloadInterval)
	defer ticker.Stop()

	for {
		l.fill()

		select {
		case <-ctx.Done():
			slog.Info("loader driver stopping")
			return
		case <-ticker.C:
		}
	}
}

func (l *Loader) fill() {
	for _, req := range l.sched.Preload() {
		newLength, ok := l.pool.Load(req.TrackID, req.Amount)
		if !ok {
			continue
		}
		l.sched.NotifyLoad(req.TrackID, newLength)
	}
}
