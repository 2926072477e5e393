package mock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/warden/internal/alert"
)

func TestGenerator_CyclesPatterns(t *testing.T) {
	t.Parallel()

	g := NewGenerator(1)
	first := g.Alert(0)
	again := g.Alert(PatternCount())
	if first.Name != again.Name || first.Type != again.Type {
		t.Errorf("pattern did not cycle: %q vs %q", first.Name, again.Name)
	}
	if first.ID == again.ID {
		t.Error("expected distinct alert IDs")
	}
}

func TestGenerator_AlertShape(t *testing.T) {
	t.Parallel()

	g := NewGenerator(42)
	for i := 0; i < PatternCount(); i++ {
		al := g.Alert(i)
		if al.ID == "" || al.Name == "" || al.Type == "" {
			t.Fatalf("alert %d missing identity fields: %+v", i, al)
		}
		if al.ConfidenceScore < 60 || al.ConfidenceScore > 95 {
			t.Errorf("alert %d confidence = %d, want 60..95", i, al.ConfidenceScore)
		}
		if len(al.MitreTechniques) == 0 {
			t.Errorf("alert %d has no MITRE techniques", i)
		}
		var hasHost, hasUser bool
		for _, e := range al.Entities {
			switch e.Type {
			case alert.EntityHost:
				hasHost = true
			case alert.EntityUser:
				hasUser = true
			}
		}
		if !hasHost || !hasUser {
			t.Errorf("alert %d entities = %v, want host and user", i, al.Entities)
		}
	}
}

func TestGenerator_SeededValuesReproducible(t *testing.T) {
	t.Parallel()

	a := NewGenerator(7)
	b := NewGenerator(7)
	for i := 0; i < 10; i++ {
		x, y := a.Alert(i), b.Alert(i)
		if x.ConfidenceScore != y.ConfidenceScore {
			t.Fatalf("alert %d confidence differs: %d vs %d", i, x.ConfidenceScore, y.ConfidenceScore)
		}
		if x.Entities[0].Value != y.Entities[0].Value {
			t.Fatalf("alert %d host differs: %s vs %s", i, x.Entities[0].Value, y.Entities[0].Value)
		}
	}
}

func TestGenerator_Batch(t *testing.T) {
	t.Parallel()

	got := NewGenerator(1).Batch(15)
	if len(got) != 15 {
		t.Fatalf("len = %d, want 15", len(got))
	}
	seen := make(map[string]bool)
	for _, al := range got {
		if seen[al.ID] {
			t.Fatalf("duplicate ID %s", al.ID)
		}
		seen[al.ID] = true
	}
}

type recordingSubmitter struct {
	mu     sync.Mutex
	alerts []*alert.Alert
	err    error
}

func (r *recordingSubmitter) Submit(_ context.Context, al *alert.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, al)
	return r.err
}

func (r *recordingSubmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.alerts)
}

func TestStreamer_MaxAlerts(t *testing.T) {
	t.Parallel()

	sub := &recordingSubmitter{}
	s := NewStreamer(NewGenerator(1), time.Millisecond, "", log.Nop())

	if err := s.Run(context.Background(), sub, 5); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := sub.count(); got != 5 {
		t.Errorf("submitted = %d, want 5", got)
	}
}

func TestStreamer_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	sub := &recordingSubmitter{}
	s := NewStreamer(NewGenerator(1), time.Hour, "", log.Nop())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, sub, 0) }()

	// first alert goes out immediately, then the stream blocks on the ticker
	for sub.count() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("streamer did not stop")
	}
}

func TestStreamer_SubmitErrorContinues(t *testing.T) {
	t.Parallel()

	sub := &recordingSubmitter{err: errors.New("service down")}
	s := NewStreamer(NewGenerator(1), time.Millisecond, "", log.Nop())

	if err := s.Run(context.Background(), sub, 3); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := sub.count(); got != 3 {
		t.Errorf("submitted = %d, want 3 despite errors", got)
	}
}

func TestStreamer_CheckpointResume(t *testing.T) {
	t.Parallel()

	cp := filepath.Join(t.TempDir(), "checkpoint.json")
	gen := NewGenerator(1)

	s1 := NewStreamer(gen, time.Millisecond, cp, log.Nop())
	sub1 := &recordingSubmitter{}
	if err := s1.Run(context.Background(), sub1, 4); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	s2 := NewStreamer(gen, time.Millisecond, cp, log.Nop())
	sub2 := &recordingSubmitter{}
	if err := s2.Run(context.Background(), sub2, 2); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	// second run resumes at index 4, so its first pattern is the fifth
	want := NewGenerator(1).Alert(4).Name
	if sub2.alerts[0].Name != want {
		t.Errorf("resumed alert name = %q, want %q", sub2.alerts[0].Name, want)
	}
}

func TestStreamer_CorruptCheckpointStartsOver(t *testing.T) {
	t.Parallel()

	cp := filepath.Join(t.TempDir(), "checkpoint.json")
	if err := os.WriteFile(cp, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStreamer(NewGenerator(1), time.Millisecond, cp, log.Nop())
	sub := &recordingSubmitter{}
	if err := s.Run(context.Background(), sub, 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sub.alerts[0].Name != NewGenerator(1).Alert(0).Name {
		t.Errorf("expected stream to start at index 0")
	}
}
