// Package queue implements the Queue: an ordered, mutex-guarded list of
// tracks with a "now playing" head index, feeding the Scheduler's look-ahead
// window and publishing lifecycle events for additions, removals, clears and
// head advances (Move publishes no event). The head index never wraps: once
// the last track plays out, the queue is simply empty rather than starting
// over.
package queue

import (
	"errors"
	"sync"
	"time"

	"github.com/arung-agamani/wavecast/internal/events"
	"github.com/arung-agamani/wavecast/internal/pool"
)

// Position selects where Add inserts a new track.
type Position int

const (
	// PositionEnd appends the track to the end of the queue.
	PositionEnd Position = iota
	// PositionNext inserts the track immediately after the current head.
	PositionNext
)

// Track is a Queue entry: a reference to a Pool-owned sample buffer plus
// display metadata. It carries no sample data itself.
type Track struct {
	ID       pool.TrackID
	Title    string
	Artist   string
	FilePath string
	Duration time.Duration
}

var (
	ErrIndexOutOfRange = errors.New("queue: index out of range")
)

// Queue holds the ordered track list and the now-playing head.
type Queue struct {
	mu     sync.Mutex
	tracks []Track
	head   int
	bus    *events.Bus
}

// New creates an empty Queue publishing lifecycle events to bus.
func New(bus *events.Bus) *Queue {
	return &Queue{bus: bus}
}

// AddTrack inserts track at the given Position and publishes TrackAdded.
func (q *Queue) AddTrack(track Track, pos Position) {
	q.mu.Lock()
	var index int
	switch pos {
	case PositionNext:
		index = q.head + 1
		if index > len(q.tracks) {
			index = len(q.tracks)
		}
		q.tracks = append(q.tracks, Track{})
		copy(q.tracks[index+1:], q.tracks[index:])
		q.tracks[index] = track
	default: // PositionEnd
		index = len(q.tracks)
		q.tracks = append(q.tracks, track)
	}
	q.mu.Unlock()

	q.bus.Publish(events.Event{Kind: events.TrackAdded, Position: index})
}

// Next advances the head by one. If the head runs past the end of the list,
// the queue is simply empty going forward — not an error.
func (q *Queue) Next() {
	q.mu.Lock()
	q.head++
	newHead := q.head
	q.mu.Unlock()

	q.bus.Publish(events.Event{Kind: events.Advanced, NewHead: newHead})
}

// PeekAhead returns up to k tracks starting at the head, as a snapshot that
// will not be mutated by concurrent Queue operations.
func (q *Queue) PeekAhead(k int) []Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.tracks) || k <= 0 {
		return nil
	}
	end := q.head + k
	if end > len(q.tracks) {
		end = len(q.tracks)
	}
	out := make([]Track, end-q.head)
	copy(out, q.tracks[q.head:end])
	return out
}

// Clear empties the queue and resets the head, publishing QueueCleared.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.tracks = nil
	q.head = 0
	q.mu.Unlock()

	q.bus.Publish(events.Event{Kind: events.QueueCleared})
}

// Remove deletes the track at index (absolute, not relative to head) and
// returns it, publishing TrackRemoved. Removing a track before the head
// shifts the head back by one so the now-playing track keeps its identity.
// Removing the head track itself leaves the head on the track that followed
// it; if the removed track was the last one, the head moves back to the new
// last track (or stays at 0 when the queue is now empty).
func (q *Queue) Remove(index int) (Track, error) {
	q.mu.Lock()
	if index < 0 || index >= len(q.tracks) {
		q.mu.Unlock()
		return Track{}, ErrIndexOutOfRange
	}

	removed := q.tracks[index]
	q.tracks = append(q.tracks[:index], q.tracks[index+1:]...)
	if index < q.head || (index == q.head && q.head >= len(q.tracks)) {
		if q.head > 0 {
			q.head--
		}
	}
	q.mu.Unlock()

	q.bus.Publish(events.Event{Kind: events.TrackRemoved, Position: index})
	return removed, nil
}

// Move relocates the track at index from to index to, preserving which
// underlying track is "at the head" by tracking head relative to the moved
// element's displacement.
func (q *Queue) Move(from, to int) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.tracks)
	if from < 0 || from >= n {
		return ErrIndexOutOfRange
	}
	if to < 0 || to >= n {
		return ErrIndexOutOfRange
	}
	if from == to {
		return nil
	}

	track := q.tracks[from]
	q.tracks = append(q.tracks[:from], q.tracks[from+1:]...)
	q.tracks = append(q.tracks, Track{})
	copy(q.tracks[to+1:], q.tracks[to:])
	q.tracks[to] = track

	q.head = relocateHead(q.head, from, to)
	return nil
}

// relocateHead adjusts a head index after an element moved from index from
// to index to within the same slice.
func relocateHead(head, from, to int) int {
	switch {
	case head == from:
		return to
	case from < head && to >= head:
		return head - 1
	case from > head && to <= head:
		return head + 1
	default:
		return head
	}
}

// Snapshot is an immutable copy of the queue's state at one instant.
type Snapshot struct {
	Tracks []Track
	Head   int
}

// Snapshot returns a consistent copy of the queue's track list and head
// index, safe to read without racing concurrent mutations.
func (q *Queue) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Track, len(q.tracks))
	copy(out, q.tracks)
	return Snapshot{Tracks: out, Head: q.head}
}

// Len returns the total number of tracks in the queue.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tracks)
}
