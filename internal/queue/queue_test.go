package queue

import (
	"testing"

	"github.com/google/uuid"

	"github.com/arung-agamani/wavecast/internal/events"
)

func newTestQueue() (*Queue, *events.Bus) {
	bus := events.New()
	return New(bus), bus
}

func TestQueueAddTrackPositionEndAndNext(t *testing.T) {
	q, _ := newTestQueue()
	a := Track{ID: uuid.New(), Title: "a"}
	b := Track{ID: uuid.New(), Title: "b"}
	q.AddTrack(a, PositionEnd)
	q.AddTrack(b, PositionEnd)

	snap := q.Snapshot()
	if len(snap.Tracks) != 2 || snap.Tracks[0].Title != "a" || snap.Tracks[1].Title != "b" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	c := Track{ID: uuid.New(), Title: "c"}
	q.AddTrack(c, PositionNext) // inserts right after head (0) -> index 1
	snap = q.Snapshot()
	if snap.Tracks[1].Title != "c" {
		t.Fatalf("PositionNext should insert after head, got %+v", snap.Tracks)
	}
}

func TestQueueNextAdvancesHead(t *testing.T) {
	q, bus := newTestQueue()
	sub := bus.Subscribe()
	defer sub.Unsubscribe()

	q.AddTrack(Track{ID: uuid.New()}, PositionEnd)
	q.AddTrack(Track{ID: uuid.New()}, PositionEnd)
	q.Next()

	if q.Snapshot().Head != 1 {
		t.Fatalf("Head after Next: got %d, want 1", q.Snapshot().Head)
	}

	drainUntil(t, sub, events.TrackAdded)
	drainUntil(t, sub, events.TrackAdded)
	e := drainUntil(t, sub, events.Advanced)
	if e.NewHead != 1 {
		t.Fatalf("Advanced event NewHead: got %d, want 1", e.NewHead)
	}
}

func TestQueuePeekAhead(t *testing.T) {
	q, _ := newTestQueue()
	for i := 0; i < 5; i++ {
		q.AddTrack(Track{ID: uuid.New()}, PositionEnd)
	}
	q.Next()

	ahead := q.PeekAhead(3)
	if len(ahead) != 3 {
		t.Fatalf("PeekAhead: got %d tracks, want 3", len(ahead))
	}

	ahead = q.PeekAhead(100)
	if len(ahead) != 4 {
		t.Fatalf("PeekAhead beyond end: got %d tracks, want 4", len(ahead))
	}
}

func TestQueueRemoveBeforeHeadShiftsHeadBack(t *testing.T) {
	q, _ := newTestQueue()
	for i := 0; i < 3; i++ {
		q.AddTrack(Track{ID: uuid.New()}, PositionEnd)
	}
	q.Next() // head = 1

	if _, err := q.Remove(0); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if q.Snapshot().Head != 0 {
		t.Fatalf("Head after removing before it: got %d, want 0", q.Snapshot().Head)
	}
}

func TestQueueRemoveOutOfRange(t *testing.T) {
	q, _ := newTestQueue()
	if _, err := q.Remove(0); err != ErrIndexOutOfRange {
		t.Fatalf("Remove on empty queue: got %v, want ErrIndexOutOfRange", err)
	}
}

func TestQueueMovePreservesHeadIdentity(t *testing.T) {
	q, _ := newTestQueue()
	nowPlaying := Track{ID: uuid.New(), Title: "now-playing"}
	q.AddTrack(nowPlaying, PositionEnd)
	q.AddTrack(Track{ID: uuid.New(), Title: "b"}, PositionEnd)
	q.AddTrack(Track{ID: uuid.New(), Title: "c"}, PositionEnd)

	if err := q.Move(2, 0); err != nil {
		t.Fatalf("Move: %v", err)
	}

	snap := q.Snapshot()
	if snap.Tracks[snap.Head].Title != "now-playing" {
		t.Fatalf("head track identity lost after Move, got %+v at head %d", snap.Tracks, snap.Head)
	}
}

func TestQueueClear(t *testing.T) {
	q, _ := newTestQueue()
	q.AddTrack(Track{ID: uuid.New()}, PositionEnd)
	q.Next()
	q.Clear()

	snap := q.Snapshot()
	if len(snap.Tracks) != 0 || snap.Head != 0 {
		t.Fatalf("Clear did not reset state: %+v", snap)
	}
}

func drainUntil(t *testing.T, sub *events.Subscription, kind events.Kind) events.Event {
	t.Helper()
	for i := 0; i < 10; i++ {
		select {
		case e := <-sub.C():
			if e.Kind == kind {
				return e
			}
		default:
			t.Fatalf("no event of kind %s published", kind)
		}
	}
	t.Fatalf("did not observe event of kind %s within 10 reads", kind)
	return events.Event{}
}
