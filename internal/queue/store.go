package queue

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arung-agamani/wavecast/internal/events"
	"github.com/arung-agamani/wavecast/internal/pool"
)

// storedTrack is the on-disk representation of a Track. TrackID is not
// persisted: Pool buffers are process-local and rebuilt from FilePath on
// restart, so a Store.Load caller must re-Add each track to the Pool before
// handing the reconstructed Queue to the AudioSystem.
type storedTrack struct {
	Title    string        `json:"title"`
	Artist   string        `json:"artist"`
	FilePath string        `json:"filePath"`
	Duration time.Duration `json:"duration"`
}

type storeData struct {
	Version int           `json:"version"`
	Head    int           `json:"head"`
	Tracks  []storedTrack `json:"tracks"`
}

// Store persists Queue contents to a JSON file. Writes go to a temp file in
// the same directory, then an os.Rename swaps it into place, so a reader
// never observes a partially written file and a crash mid-save leaves the
// previous contents intact.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a Store writing to path, creating its parent directory if
// necessary.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create queue store directory %q: %w", dir, err)
	}
	return &Store{path: path}, nil
}

// Exists reports whether the store file is already present on disk.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Save writes the queue's current tracks and head index to disk. TrackIDs are
// deliberately dropped: they are Pool handles with no meaning across a
// process restart.
func (s *Store) Save(q *Queue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := q.Snapshot()
	data := storeData{
		Version: 1,
		Head:    snap.Head,
		Tracks:  make([]storedTrack, len(snap.Tracks)),
	}
	for i, t := range snap.Tracks {
		data.Tracks[i] = storedTrack{
			Title:    t.Title,
			Artist:   t.Artist,
			FilePath: t.FilePath,
			Duration: t.Duration,
		}
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal queue: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "queue-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file to %q: %w", s.path, err)
	}

	slog.Info("queue saved to disk", "path", s.path, "tracks", len(data.Tracks))
	return nil
}

// RestoreFunc resolves a stored track's FilePath back into a live pool entry,
// returning the freshly minted TrackID the restored Queue should carry. The
// caller (main.go's restoreTrack) supplies this so the Store package need
// not depend on sample or pool providers.
type RestoreFunc func(filePath string) (pool.TrackID, error)

// Load reads the store file and rebuilds a Queue, resolving each stored
// FilePath to a live TrackID via restore. Tracks that fail to resolve are
// skipped with a warning rather than aborting the whole restore.
func (s *Store) Load(bus *events.Bus, restore RestoreFunc) (*Queue, error) {
	s.mu.Lock()
	raw, err := os.ReadFile(s.path)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to read queue file %q: %w", s.path, err)
	}

	var data storeData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse queue file %q: %w", s.path, err)
	}

	q := New(bus)
	for _, st := range data.Tracks {
		id, err := restore(st.FilePath)
		if err != nil {
			slog.Warn("queue restore: skipping track that failed to resolve", "path", st.FilePath, "error", err)
			continue
		}
		q.AddTrack(Track{
			ID:       id,
			Title:    st.Title,
			Artist:   st.Artist,
			FilePath: st.FilePath,
			Duration: st.Duration,
		}, PositionEnd)
	}

	q.mu.Lock()
	if data.Head >= 0 && data.Head <= len(q.tracks) {
		q.head = data.Head
	}
	q.mu.Unlock()

	slog.Info("queue loaded from disk", "path", s.path, "tracks", len(q.tracks), "head", q.head)
	return q, nil
}
