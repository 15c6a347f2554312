package scheduler

import (
	"testing"

	"github.com/google/uuid"
)

func TestSchedulerAdvanceWithinSingleTrack(t *testing.T) {
	s := New(3, 100, 1000)
	track := uuid.New()
	s.SetLoaders([]uuid.UUID{track})
	s.NotifyLoad(track, 500)

	segs := s.Advance(200)
	if len(segs) != 1 {
		t.Fatalf("Advance: got %d segments, want 1", len(segs))
	}
	if segs[0].TrackID != track || segs[0].Start != 0 || segs[0].End != 200 {
		t.Fatalf("Advance: unexpected segment %+v", segs[0])
	}
	if s.Cursor() != 200 {
		t.Fatalf("Cursor: got %d, want 200", s.Cursor())
	}
}

func TestSchedulerAdvanceRollsOverOnExhaustion(t *testing.T) {
	s := New(3, 100, 1000)
	first, second := uuid.New(), uuid.New()
	s.SetLoaders([]uuid.UUID{first, second})
	s.NotifyLoad(first, 50)
	s.NotifyLoad(first, 50) // no growth -> exhausted
	s.NotifyLoad(second, 500)

	segs := s.Advance(200)
	if len(segs) != 2 {
		t.Fatalf("Advance: got %d segments, want 2 (rollover)", len(segs))
	}
	if segs[0].TrackID != first || segs[0].Len() != 50 {
		t.Fatalf("Advance: first segment %+v, want 50 samples of first track", segs[0])
	}
	if segs[1].TrackID != second || segs[1].Len() != 150 {
		t.Fatalf("Advance: second segment %+v, want 150 samples of second track", segs[1])
	}
}

func TestSchedulerAdvanceUnderrunStopsEarly(t *testing.T) {
	s := New(3, 100, 1000)
	track := uuid.New()
	s.SetLoaders([]uuid.UUID{track})
	s.NotifyLoad(track, 50) // not exhausted, but not enough loaded

	segs := s.Advance(200)
	if len(segs) != 1 || segs[0].Len() != 50 {
		t.Fatalf("Advance underrun: got %+v, want one 50-sample segment", segs)
	}
}

func TestSchedulerSetLoadersPreservesCursorOnSameHead(t *testing.T) {
	s := New(3, 100, 1000)
	a, b := uuid.New(), uuid.New()
	s.SetLoaders([]uuid.UUID{a, b})
	s.NotifyLoad(a, 1000)
	s.Advance(100)
	if s.Cursor() != 100 {
		t.Fatalf("Cursor before SetLoaders: got %d, want 100", s.Cursor())
	}

	s.SetLoaders([]uuid.UUID{a, b}) // same head
	if s.Cursor() != 100 {
		t.Fatalf("Cursor should be preserved when head is unchanged, got %d", s.Cursor())
	}

	s.SetLoaders([]uuid.UUID{b}) // head changed
	if s.Cursor() != 0 {
		t.Fatalf("Cursor should reset when head changes, got %d", s.Cursor())
	}
}

func TestSchedulerPreloadRequestsBelowThreshold(t *testing.T) {
	s := New(3, 100, 1000)
	track := uuid.New()
	s.SetLoaders([]uuid.UUID{track})
	s.NotifyLoad(track, 50)

	reqs := s.Preload()
	if len(reqs) != 1 {
		t.Fatalf("Preload: got %d requests, want 1", len(reqs))
	}
	if reqs[0].TrackID != track || reqs[0].Amount != 950 {
		t.Fatalf("Preload: got %+v, want amount 950", reqs[0])
	}
}

func TestSchedulerPreloadSkipsExhausted(t *testing.T) {
	s := New(3, 100, 1000)
	track := uuid.New()
	s.SetLoaders([]uuid.UUID{track})
	s.NotifyLoad(track, 10)
	s.NotifyLoad(track, 10) // exhausted

	if reqs := s.Preload(); len(reqs) != 0 {
		t.Fatalf("Preload should skip exhausted tracks, got %+v", reqs)
	}
}
