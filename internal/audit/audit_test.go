package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/linnemanlabs/go-core/log"
)

func TestLogRecorder_AssignsID(t *testing.T) {
	t.Parallel()

	r := NewLogRecorder(log.Nop())
	e := &Entry{TriageID: "tr-1", AlertID: "al-1", Decision: "EscalateToIncident"}
	if err := r.Record(context.Background(), e); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if e.ID == "" {
		t.Error("expected an assigned ID")
	}
	if e.Time.IsZero() {
		t.Error("expected an assigned time")
	}
}

func TestMemoryRecorder_RecentNewestFirst(t *testing.T) {
	t.Parallel()

	r := NewMemoryRecorder(10)
	for i := 0; i < 3; i++ {
		e := &Entry{TriageID: fmt.Sprintf("tr-%d", i)}
		if err := r.Record(context.Background(), e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got := r.Recent(2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].TriageID != "tr-2" || got[1].TriageID != "tr-1" {
		t.Errorf("order = [%s %s], want [tr-2 tr-1]", got[0].TriageID, got[1].TriageID)
	}

	all := r.Recent(0)
	if len(all) != 3 {
		t.Errorf("Recent(0) len = %d, want 3", len(all))
	}
}

func TestMemoryRecorder_EvictsPastCapacity(t *testing.T) {
	t.Parallel()

	r := NewMemoryRecorder(2)
	for i := 0; i < 5; i++ {
		_ = r.Record(context.Background(), &Entry{TriageID: fmt.Sprintf("tr-%d", i)})
	}

	got := r.Recent(0)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].TriageID != "tr-4" || got[1].TriageID != "tr-3" {
		t.Errorf("order = [%s %s], want [tr-4 tr-3]", got[0].TriageID, got[1].TriageID)
	}
}

func TestMemoryRecorder_Concurrent(t *testing.T) {
	t.Parallel()

	r := NewMemoryRecorder(100)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = r.Record(context.Background(), &Entry{TriageID: fmt.Sprintf("tr-%d-%d", i, j)})
				r.Recent(5)
			}
		}(i)
	}
	wg.Wait()

	if got := len(r.Recent(0)); got != 100 {
		t.Errorf("entries = %d, want 100", got)
	}
}

type failingRecorder struct{ err error }

func (f *failingRecorder) Record(context.Context, *Entry) error { return f.err }

func TestMulti(t *testing.T) {
	t.Parallel()

	mem := NewMemoryRecorder(10)
	m := Multi{NewLogRecorder(log.Nop()), mem}
	if err := m.Record(context.Background(), &Entry{TriageID: "tr-1"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(mem.Recent(0)) != 1 {
		t.Error("entry did not reach all recorders")
	}

	boom := errors.New("boom")
	m = Multi{&failingRecorder{err: boom}, mem}
	if err := m.Record(context.Background(), &Entry{}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}
