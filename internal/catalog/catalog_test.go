package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScanFallsBackToFilenameWhenTagsUnreadable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "My Song.mp3")
	if err := os.WriteFile(path, []byte("not a real mp3 file"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A non-audio file with an unrelated extension should be skipped.
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := New()
	n, err := c.Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if n != 1 {
		t.Fatalf("Scan: got %d entries, want 1", n)
	}

	entry := c.Get(path)
	if entry == nil {
		t.Fatal("Get: expected entry for scanned file")
	}
	if entry.Title != "My Song" {
		t.Fatalf("Title fallback: got %q, want %q", entry.Title, "My Song")
	}
}

func TestSearchIsCaseInsensitiveSubstring(t *testing.T) {
	c := New()
	c.entries["/a"] = &Entry{FilePath: "/a", Title: "Moonlight Sonata", Artist: "Beethoven"}
	c.entries["/b"] = &Entry{FilePath: "/b", Title: "Clair de Lune", Artist: "Debussy"}

	results := c.Search("moon")
	if len(results) != 1 || results[0].FilePath != "/a" {
		t.Fatalf("Search: got %+v, want only /a", results)
	}

	if len(c.Search("")) != 2 {
		t.Fatal("Search with empty query should return every entry")
	}
}

func TestRemoveStaleDropsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	kept := filepath.Join(dir, "kept.mp3")
	os.WriteFile(kept, []byte("x"), 0o644)

	c := New()
	c.entries[kept] = &Entry{FilePath: kept}
	c.entries["/does/not/exist.mp3"] = &Entry{FilePath: "/does/not/exist.mp3"}

	if removed := c.RemoveStale(); removed != 1 {
		t.Fatalf("RemoveStale: got %d removed, want 1", removed)
	}
	if c.Count() != 1 {
		t.Fatalf("Count after RemoveStale: got %d, want 1", c.Count())
	}
}
