// Package scheduler implements the Scheduler: it owns a short look-ahead
// window of track handles and the playback cursor into the first one,
// deciding which loaded samples the Playback Driver should emit next and
// which tracks the Loader Driver should keep feeding.
package scheduler

import (
	"sync"

	"github.com/arung-agamani/wavecast/internal/pool"
)

// Segment is one contiguous run of samples from a single track, as returned
// by Advance.
type Segment struct {
	TrackID pool.TrackID
	Start   int
	End     int
}

// Len returns the number of samples in the segment.
func (s Segment) Len() int { return s.End - s.Start }

// PreloadRequest asks the Loader Driver to fetch more samples for a track.
type PreloadRequest struct {
	TrackID pool.TrackID
	Amount  int
}

// Scheduler owns the look-ahead window and playback cursor. All operations
// are O(window size), so the guarding mutex sees only brief holds.
type Scheduler struct {
	mu sync.Mutex

	loaders []pool.TrackID
	cursor  int

	known     map[pool.TrackID]int
	exhausted map[pool.TrackID]bool

	lookahead        int
	preloadThreshold int // samples
	preloadTarget    int // samples
}

// New creates a Scheduler with the given look-ahead depth and preload
// threshold/target, both expressed in samples (channel-samples, i.e.
// samples_per_second counts both channels).
func New(lookahead, preloadThreshold, preloadTarget int) *Scheduler {
	return &Scheduler{
		known:            make(map[pool.TrackID]int),
		exhausted:        make(map[pool.TrackID]bool),
		lookahead:        lookahead,
		preloadThreshold: preloadThreshold,
		preloadTarget:    preloadTarget,
	}
}

// Lookahead returns the configured window depth.
func (s *Scheduler) Lookahead() int { return s.lookahead }

// SetLoaders replaces the look-ahead window. If the new head TrackID matches
// the previous head, the cursor is preserved; otherwise it resets to 0.
// Tracking for any TrackID no longer in the window is dropped.
func (s *Scheduler) SetLoaders(ids []pool.TrackID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prevHead pool.TrackID
	hadHead := len(s.loaders) > 0
	if hadHead {
		prevHead = s.loaders[0]
	}
	sameHead := hadHead && len(ids) > 0 && ids[0] == prevHead

	s.loaders = append([]pool.TrackID(nil), ids...)
	if !sameHead {
		s.cursor = 0
	}

	keep := make(map[pool.TrackID]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	for id := range s.known {
		if !keep[id] {
			delete(s.known, id)
		}
	}
	for id := range s.exhausted {
		if !keep[id] {
			delete(s.exhausted, id)
		}
	}
}

// Advance reserves the next nSamples worth of output. It returns zero or
// more contiguous (TrackID, range) segments whose lengths sum to at most
// nSamples. Every segment after the first represents a rollover: the window
// crossed from one track to the next because the prior track was exhausted
// and fully drained. A rollover always adds a segment for the track rolled
// onto, even when that segment is empty (nothing loaded yet) or, past the
// last track in the window, carries the zero TrackID; a track that ends
// exactly at the cursor gets an empty segment of its own. The caller must
// call Queue.Next() exactly once per rollover and then refresh the window
// via SetLoaders.
func (s *Scheduler) Advance(nSamples int) []Segment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var segments []Segment
	remaining := nSamples

	for remaining > 0 && len(s.loaders) > 0 {
		id := s.loaders[0]
		known := s.known[id]
		avail := known - s.cursor
		if avail < 0 {
			avail = 0
		}

		take := remaining
		if take > avail {
			take = avail
		}
		if take > 0 {
			if n := len(segments); n > 0 && segments[n-1].TrackID == id {
				segments[n-1].End += take
			} else {
				segments = append(segments, Segment{TrackID: id, Start: s.cursor, End: s.cursor + take})
			}
			s.cursor += take
			remaining -= take
		}

		if remaining == 0 {
			break
		}

		if s.exhausted[id] {
			if n := len(segments); n == 0 || segments[n-1].TrackID != id {
				segments = append(segments, Segment{TrackID: id, Start: s.cursor, End: s.cursor})
			}
			delete(s.known, id)
			delete(s.exhausted, id)
			s.loaders = s.loaders[1:]
			s.cursor = 0
			var next pool.TrackID
			if len(s.loaders) > 0 {
				next = s.loaders[0]
			}
			segments = append(segments, Segment{TrackID: next})
			continue
		}

		// Not exhausted but no more loaded samples right now: underrun, stop
		// early and let the caller fill the remainder with silence.
		break
	}

	return segments
}

// Preload returns the tracks in the window that should receive more samples:
// any non-exhausted loader whose known-length-ahead-of-cursor has fallen
// below the preload threshold, requesting enough to reach the preload
// target. Emitted in window order.
func (s *Scheduler) Preload() []PreloadRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reqs []PreloadRequest
	for i, id := range s.loaders {
		if s.exhausted[id] {
			continue
		}

		ahead := s.known[id]
		if i == 0 {
			ahead -= s.cursor
		}
		if ahead < 0 {
			ahead = 0
		}

		if ahead < s.preloadThreshold {
			amount := s.preloadTarget - ahead
			if amount > 0 {
				reqs = append(reqs, PreloadRequest{TrackID: id, Amount: amount})
			}
		}
	}
	return reqs
}

// NotifyLoad updates the known length for id after a Pool.Load call. If the
// length did not grow since the previous notification, the track is marked
// exhausted.
func (s *Scheduler) NotifyLoad(id pool.TrackID, newLength int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, hadPrior := s.known[id]
	s.known[id] = newLength
	if hadPrior && newLength <= prev {
		s.exhausted[id] = true
	}
}

// Window returns a snapshot of the current look-ahead window, for
// diagnostics.
func (s *Scheduler) Window() []pool.TrackID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pool.TrackID(nil), s.loaders...)
}

// Cursor returns the current playback cursor into loaders[0].
func (s *Scheduler) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}
