// Package pool implements the Loader Pool: the owner of every track's sample
// buffer. It services load() calls from a single background loader goroutine
// and read() calls from the real-time playback goroutine concurrently,
// without the reader ever blocking on the writer.
//
// Samples are written into fixed-capacity segments that are never mutated
// once indexed, and published to readers by swapping an atomic pointer to
// the segment index plus an atomic sample count. A reader that has observed
// a given loadedLength is guaranteed every sample below it was already
// written, because the write happens-before the atomic store that publishes
// the new length.
package pool

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/arung-agamani/wavecast/internal/sample"
)

// TrackID is an opaque, globally unique identifier minted when a track is
// registered with the Pool. It stays stable for the track's lifetime.
type TrackID = uuid.UUID

// segmentSamples is the capacity of one buffer segment, in samples (5 seconds
// of 44.1kHz stereo audio). Smaller than this wastes segments on short
// tracks; much larger makes the per-track ceiling too coarse.
const segmentSamples = 5 * 44100 * 2

type segment struct {
	data [segmentSamples]sample.Sample
}

// entry is the Pool's per-track bookkeeping. Exactly one goroutine (the
// Loader Driver) ever calls load for a given id; any number of goroutines
// (the Playback Driver, and potentially test code) may call read
// concurrently with it and with each other.
type entry struct {
	reader sample.Reader

	segments     atomic.Pointer[[]*segment] // published by the loader goroutine only
	loadedLength atomic.Int64
	exhausted    atomic.Bool

	expectedLength int
}

func newEntry(r sample.Reader, expectedLength int) *entry {
	e := &entry{reader: r, expectedLength: expectedLength}
	empty := make([]*segment, 0)
	e.segments.Store(&empty)
	return e
}

// segmentFor returns the segment holding position pos, creating and
// publishing new segments as needed. Must only be called by the loader
// goroutine for this entry.
func (e *entry) segmentFor(pos int) (*segment, int) {
	idx := pos / segmentSamples
	offset := pos % segmentSamples
	segs := *e.segments.Load()
	for len(segs) <= idx {
		segs = append(segs, &segment{})
	}
	// Publish via a fresh slice header so concurrent readers never observe a
	// slice whose length changed under them mid-read.
	published := make([]*segment, len(segs))
	copy(published, segs)
	e.segments.Store(&published)
	return segs[idx], offset
}

// load reads up to amount additional samples from the reader into the
// buffer. It returns the new loadedLength. Safe to call only from the single
// loader goroutine for this track.
func (e *entry) load(amount int) int {
	if e.exhausted.Load() || amount <= 0 {
		return int(e.loadedLength.Load())
	}

	remaining := amount
	for remaining > 0 {
		pos := int(e.loadedLength.Load())
		seg, offset := e.segmentFor(pos)
		space := segmentSamples - offset
		toRead := remaining
		if toRead > space {
			toRead = space
		}

		n := e.reader.ReadInto(seg.data[offset : offset+toRead])
		if n > 0 {
			e.loadedLength.Add(int64(n))
		}
		if n == 0 {
			e.exhausted.Store(true)
			break
		}
		remaining -= n
		if n < toRead {
			// Partial read: the reader has more to give later, but not right
			// now. Stop this call rather than spin; the next load() call
			// will pick up where we left off.
			break
		}
	}

	return int(e.loadedLength.Load())
}

// read copies up to len(out) samples starting at start into out, clamped by
// loadedLength. Safe to call concurrently with load on the same entry.
func (e *entry) read(start int, out []sample.Sample) int {
	loaded := int(e.loadedLength.Load())
	if start >= loaded || len(out) == 0 {
		return 0
	}

	n := loaded - start
	if n > len(out) {
		n = len(out)
	}

	segs := *e.segments.Load()
	pos := start
	written := 0
	for written < n {
		idx := pos / segmentSamples
		offset := pos % segmentSamples
		chunk := n - written
		if space := segmentSamples - offset; chunk > space {
			chunk = space
		}
		copy(out[written:written+chunk], segs[idx].data[offset:offset+chunk])
		written += chunk
		pos += chunk
	}

	return written
}

// Pool owns every track's sample buffer for the lifetime of the process.
type Pool struct {
	mu      sync.RWMutex
	entries map[TrackID]*entry
}

// New creates an empty Pool.
func New() *Pool {
	return &Pool{entries: make(map[TrackID]*entry)}
}

// Add registers a new track's reader and returns its TrackID. expectedLength
// is the caller's length estimate in samples (0 means "unknown"); it is
// stored with the entry but does not change how the buffer is allocated.
func (p *Pool) Add(reader sample.Reader, expectedLength int) TrackID {
	id := uuid.New()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[id] = newEntry(reader, expectedLength)
	return id
}

// Load reads up to amount additional samples for id and returns the new
// loaded length. Must be called from at most one goroutine at a time per id.
func (p *Pool) Load(id TrackID, amount int) (newLoadedLength int, ok bool) {
	p.mu.RLock()
	e, found := p.entries[id]
	p.mu.RUnlock()
	if !found {
		return 0, false
	}
	return e.load(amount), true
}

// Read copies samples for id starting at start into out. Returns the number
// of samples written, which may be 0 if start is at or beyond the loaded
// length or the track is unknown.
func (p *Pool) Read(id TrackID, start int, out []sample.Sample) int {
	p.mu.RLock()
	e, found := p.entries[id]
	p.mu.RUnlock()
	if !found {
		return 0
	}
	return e.read(start, out)
}

// LoadedLength returns the current loaded length for id, or 0 if unknown.
func (p *Pool) LoadedLength(id TrackID) int {
	p.mu.RLock()
	e, found := p.entries[id]
	p.mu.RUnlock()
	if !found {
		return 0
	}
	return int(e.loadedLength.Load())
}

// Exhausted reports whether id's reader has reported end-of-stream.
func (p *Pool) Exhausted(id TrackID) bool {
	p.mu.RLock()
	e, found := p.entries[id]
	p.mu.RUnlock()
	if !found {
		return true
	}
	return e.exhausted.Load()
}

// Remove drops a track's entry immediately; it does not check whether the
// Queue or the Scheduler still refer to id. The Pool is the sole owner of
// sample buffers, so this is the only way their memory is reclaimed.
func (p *Pool) Remove(id TrackID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, id)
}

// Count returns the number of tracks currently registered with the Pool.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}
