// Package audit records triage decisions for after-the-fact review.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"
)

// Entry is one recorded triage decision.
type Entry struct {
	ID                 string    `json:"id"`
	Time               time.Time `json:"time"`
	TriageID           string    `json:"triage_id"`
	AlertID            string    `json:"alert_id"`
	AlertName          string    `json:"alert_name"`
	RiskScore          int       `json:"risk_score"`
	Priority           string    `json:"priority"`
	Decision           string    `json:"decision"`
	CorrelatedAlertIDs []string  `json:"correlated_alert_ids,omitempty"`
	Rationale          string    `json:"rationale,omitempty"`
}

// Recorder persists audit entries.
type Recorder interface {
	Record(ctx context.Context, e *Entry) error
}

// LogRecorder writes audit entries to the structured log.
type LogRecorder struct {
	logger log.Logger
}

// NewLogRecorder creates a recorder that emits entries as log lines.
func NewLogRecorder(logger log.Logger) *LogRecorder {
	if logger == nil {
		logger = log.Nop()
	}
	return &LogRecorder{logger: logger}
}

// Record assigns the entry an ID if missing and logs it.
func (r *LogRecorder) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	r.logger.Info(ctx, "triage decision recorded",
		"audit_id", e.ID,
		"triage_id", e.TriageID,
		"alert_id", e.AlertID,
		"alert", e.AlertName,
		"risk_score", e.RiskScore,
		"priority", e.Priority,
		"decision", e.Decision,
		"correlated", len(e.CorrelatedAlertIDs),
	)
	return nil
}

// MemoryRecorder keeps the most recent entries in memory. It is used
// by the ops API to expose a recent decision trail without a database.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []*Entry
	cap     int
}

// NewMemoryRecorder creates a bounded in-memory recorder.
func NewMemoryRecorder(capacity int) *MemoryRecorder {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryRecorder{cap: capacity}
}

// Record appends an entry, evicting the oldest past capacity.
func (r *MemoryRecorder) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	if len(r.entries) > r.cap {
		r.entries = r.entries[len(r.entries)-r.cap:]
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (r *MemoryRecorder) Recent(limit int) []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit > len(r.entries) {
		limit = len(r.entries)
	}
	out := make([]*Entry, limit)
	for i := 0; i < limit; i++ {
		out[i] = r.entries[len(r.entries)-1-i]
	}
	return out
}

// Multi fans out to several recorders, returning the first error.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, e *Entry) error {
	for _, r := range m {
		if err := r.Record(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
