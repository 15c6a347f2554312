package audio

import (
	"bytes"
	"testing"
	"time"

	"github.com/arung-agamani/wavecast/internal/queue"
	"github.com/arung-agamani/wavecast/internal/sample"
)

func silentPCM(samples int) *sample.PipeProvider {
	buf := make([]byte, samples*4)
	return &sample.PipeProvider{Src: bytes.NewReader(buf), Hint: time.Second}
}

func TestAudioSystemAddEnqueuesAndRefreshesWindow(t *testing.T) {
	s := New(Options{Lookahead: 2, RingBufferBytes: 1024, MaxConsumers: 4})

	track, err := s.Add(silentPCM(100), TrackMeta{Title: "one", FilePath: "/a"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if s.Queue().Len() != 1 {
		t.Fatalf("queue length after Add: got %d, want 1", s.Queue().Len())
	}

	status := s.StatusSnapshot()
	if status.NowPlaying == nil || status.NowPlaying.ID != track.ID {
		t.Fatalf("StatusSnapshot NowPlaying: got %+v, want track %v", status.NowPlaying, track.ID)
	}
	if len(status.Window) != 1 {
		t.Fatalf("window after single Add: got %d entries, want 1", len(status.Window))
	}
}

func TestAudioSystemNextAdvancesHeadAndWindow(t *testing.T) {
	s := New(Options{Lookahead: 2, RingBufferBytes: 1024, MaxConsumers: 4})
	s.Add(silentPCM(10), TrackMeta{Title: "one", FilePath: "/a"})
	two, _ := s.Add(silentPCM(10), TrackMeta{Title: "two", FilePath: "/b"})

	s.Next()

	status := s.StatusSnapshot()
	if status.Head != 1 {
		t.Fatalf("Head after Next: got %d, want 1", status.Head)
	}
	if status.NowPlaying == nil || status.NowPlaying.Title != "two" {
		t.Fatalf("NowPlaying after Next: got %+v, want track 'two'", status.NowPlaying)
	}
	if len(status.Window) != 1 || status.Window[0] != two.ID {
		t.Fatalf("window after Next: got %v, want only track 'two' (%v)", status.Window, two.ID)
	}
}

func TestAudioSystemRestoreQueueBeforeStartTakesEffect(t *testing.T) {
	s := New(Options{Lookahead: 2, RingBufferBytes: 1024, MaxConsumers: 4})

	bus := s.Events()
	restored := queue.New(bus)
	id := s.RegisterReader(mustOpen(t, silentPCM(10)), 10)
	restored.AddTrack(queue.Track{ID: id, Title: "restored"}, queue.PositionEnd)

	s.RestoreQueue(restored)

	if s.Queue() != restored {
		t.Fatal("RestoreQueue did not replace the system's queue")
	}
	status := s.StatusSnapshot()
	if len(status.Window) != 1 {
		t.Fatalf("window after RestoreQueue: got %d entries, want 1", len(status.Window))
	}
}

func TestAudioSystemStreamAndShutdown(t *testing.T) {
	s := New(Options{Lookahead: 1, RingBufferBytes: 1024, MaxConsumers: 2})

	id, consumer, err := s.Stream()
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if s.ConsumerCount() != 1 {
		t.Fatalf("ConsumerCount: got %d, want 1", s.ConsumerCount())
	}

	s.Shutdown()

	if _, ok := consumer.Read(make([]byte, 1)); ok {
		t.Fatal("consumer should report closed after Shutdown with nothing buffered")
	}
	s.StopStream(id) // idempotent even after Shutdown already removed consumers
}

func mustOpen(t *testing.T, p sample.Provider) sample.Reader {
	t.Helper()
	r, err := p.Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return r
}
