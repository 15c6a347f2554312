// Package catalog implements the Track Catalog: a directory scan that
// extracts display metadata for audio files so the HTTP control plane can
// offer a browsable library without touching the Pool or ffmpeg until a
// track is actually enqueued. Entries are keyed by file path rather than
// content checksum: wavecast has no need to deduplicate a file that has
// been copied to two paths.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dhowden/tag"
)

// Entry is one file's extracted metadata.
type Entry struct {
	FilePath string
	Title    string
	Artist   string
	Album    string
	Genre    string
	Year     int
	Duration time.Duration
}

// audioExtensions is the set of file extensions scanned for. ffmpeg can
// decode more than this, but the catalog only surfaces formats dhowden/tag
// can extract metadata from.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
	".wav":  true,
}

// Catalog holds the scanned set of known tracks, keyed by file path as the
// walk of the scanned root reports it (absolute only when the root is).
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// New creates an empty Catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[string]*Entry)}
}

// Scan walks root, adding or refreshing an Entry for every audio file found.
// Files that already exist in the catalog at the same path are re-read in
// place rather than duplicated. Returns the number of entries added or
// refreshed.
func (c *Catalog) Scan(root string) (int, error) {
	var touched int

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if !audioExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		entry, readErr := readEntry(path)
		if readErr != nil {
			slog.Warn("catalog: failed to read metadata, skipping", "path", path, "error", readErr)
			return nil
		}

		c.mu.Lock()
		c.entries[path] = entry
		c.mu.Unlock()
		touched++
		return nil
	})
	if err != nil {
		return touched, fmt.Errorf("catalog: scan of %q failed: %w", root, err)
	}

	slog.Info("catalog scan complete", "root", root, "entries", touched)
	return touched, nil
}

func readEntry(path string) (*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		// Still catalog the file under its filename; metadata is a nicety.
		base := filepath.Base(path)
		return &Entry{FilePath: path, Title: strings.TrimSuffix(base, filepath.Ext(base))}, nil
	}

	title := m.Title()
	if title == "" {
		base := filepath.Base(path)
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return &Entry{
		FilePath: path,
		Title:    title,
		Artist:   m.Artist(),
		Album:    m.Album(),
		Genre:    m.Genre(),
		Year:     m.Year(),
	}, nil
}

// Get returns the entry for path, or nil if it is not in the catalog.
func (c *Catalog) Get(path string) *Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[path]
}

// List returns every entry in the catalog, in no particular order.
func (c *Catalog) List() []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out
}

// Search returns catalog entries whose title, artist, or album contains
// query, case-insensitively. An empty query returns every entry.
func (c *Catalog) Search(query string) []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if query == "" {
		out := make([]*Entry, 0, len(c.entries))
		for _, e := range c.entries {
			out = append(out, e)
		}
		return out
	}

	q := strings.ToLower(query)
	var out []*Entry
	for _, e := range c.entries {
		if strings.Contains(strings.ToLower(e.Title), q) ||
			strings.Contains(strings.ToLower(e.Artist), q) ||
			strings.Contains(strings.ToLower(e.Album), q) {
			out = append(out, e)
		}
	}
	return out
}

// RemoveStale drops every entry whose file no longer exists on disk, and
// returns how many were removed.
func (c *Catalog) RemoveStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for path := range c.entries {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			delete(c.entries, path)
			removed++
		}
	}
	return removed
}

// Count returns the number of entries in the catalog.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
