package pool

import (
	"testing"

	"github.com/arung-agamani/wavecast/internal/sample"
)

// fakeReader yields samples 0..n-1 (as float32) then reports end-of-stream.
type fakeReader struct {
	remaining int
	next      float32
}

func (r *fakeReader) ReadInto(out []sample.Sample) int {
	if r.remaining == 0 {
		return 0
	}
	n := len(out)
	if n > r.remaining {
		n = r.remaining
	}
	for i := 0; i < n; i++ {
		out[i] = r.next
		r.next++
	}
	r.remaining -= n
	return n
}

func TestPoolLoadAndRead(t *testing.T) {
	p := New()
	id := p.Add(&fakeReader{remaining: 100}, 100)

	n, ok := p.Load(id, 50)
	if !ok {
		t.Fatal("Load: track not found")
	}
	if n != 50 {
		t.Fatalf("Load: got loaded length %d, want 50", n)
	}

	out := make([]sample.Sample, 30)
	got := p.Read(id, 10, out)
	if got != 30 {
		t.Fatalf("Read: got %d samples, want 30", got)
	}
	if out[0] != 10 {
		t.Fatalf("Read: out[0] = %v, want 10", out[0])
	}
}

func TestPoolReadBeyondLoadedReturnsZero(t *testing.T) {
	p := New()
	id := p.Add(&fakeReader{remaining: 10}, 10)
	p.Load(id, 10)

	out := make([]sample.Sample, 5)
	if n := p.Read(id, 20, out); n != 0 {
		t.Fatalf("Read past loaded length: got %d, want 0", n)
	}
}

func TestPoolExhaustion(t *testing.T) {
	p := New()
	id := p.Add(&fakeReader{remaining: 5}, 5)

	p.Load(id, 5)
	if p.Exhausted(id) {
		t.Fatal("should not be exhausted before reader returns 0")
	}

	p.Load(id, 5)
	if !p.Exhausted(id) {
		t.Fatal("should be exhausted after reader returns 0")
	}
}

func TestPoolLoadAcrossSegmentBoundary(t *testing.T) {
	p := New()
	// Span two segments, so both the load and the read cross one boundary.
	id := p.Add(&fakeReader{remaining: segmentSamples + 10}, segmentSamples+10)

	p.Load(id, segmentSamples+10)
	out := make([]sample.Sample, 20)
	got := p.Read(id, segmentSamples-10, out)
	if got != 20 {
		t.Fatalf("Read across segment boundary: got %d samples, want 20", got)
	}
}

func TestPoolUnknownTrack(t *testing.T) {
	p := New()
	var id TrackID
	if _, ok := p.Load(id, 10); ok {
		t.Fatal("Load on unknown id should report not found")
	}
	if n := p.Read(id, 0, make([]sample.Sample, 1)); n != 0 {
		t.Fatalf("Read on unknown id: got %d, want 0", n)
	}
	if !p.Exhausted(id) {
		t.Fatal("Exhausted on unknown id should report true")
	}
}

func TestPoolRemove(t *testing.T) {
	p := New()
	id := p.Add(&fakeReader{remaining: 10}, 10)
	if p.Count() != 1 {
		t.Fatalf("Count after Add: got %d, want 1", p.Count())
	}
	p.Remove(id)
	if p.Count() != 0 {
		t.Fatalf("Count after Remove: got %d, want 0", p.Count())
	}
}
