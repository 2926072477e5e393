package triage

import (
	"sync"

	"github.com/linnemanlabs/warden/internal/alert"
)

const (
	// WindowCapacity bounds the recent-alerts buffer; the oldest entry
	// is evicted once the capacity is exceeded.
	WindowCapacity = 1000

	// DefaultScanSize bounds how many of the most recent window entries
	// a single correlation query inspects.
	DefaultScanSize = 100
)

// Window is a bounded FIFO of recently triaged alerts used for
// correlation lookups. Correlation scans work on a Snapshot so a
// concurrent Append cannot mutate the slice mid-scan.
type Window struct {
	mu       sync.Mutex
	alerts   []*alert.Alert
	capacity int
}

// NewWindow creates a Window. A non-positive capacity uses
// WindowCapacity.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = WindowCapacity
	}
	return &Window{capacity: capacity}
}

// Append adds an alert to the window, evicting the oldest entry when
// the capacity is exceeded.
func (w *Window) Append(a *alert.Alert) {
	if a == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.alerts = append(w.alerts, a)
	if len(w.alerts) > w.capacity {
		w.alerts = w.alerts[len(w.alerts)-w.capacity:]
	}
}

// Len returns the current number of alerts in the window.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.alerts)
}

// Snapshot returns a copy of the window contents, oldest first. The
// correlation scan works on the snapshot so concurrent appends cannot
// mutate it mid-scan.
func (w *Window) Snapshot() []*alert.Alert {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*alert.Alert, len(w.alerts))
	copy(out, w.alerts)
	return out
}

// FindCorrelated returns the IDs of recent alerts sharing at least one
// normalized (type, value) entity pair with the current alert. Only
// the last scanSize entries of recent are inspected (non-positive
// scanSize uses DefaultScanSize). The current alert is excluded by ID;
// alerts with an empty ID are never excluded on that basis. Each
// matching ID is reported once even when the alert occupies several
// window slots. Result order follows scan order and carries no
// meaning.
func FindCorrelated(current *alert.Alert, recent []*alert.Alert, scanSize int) []string {
	if current == nil {
		return nil
	}
	pairs := current.EntityPairs()
	if len(pairs) == 0 {
		return nil
	}

	if scanSize <= 0 {
		scanSize = DefaultScanSize
	}
	if len(recent) > scanSize {
		recent = recent[len(recent)-scanSize:]
	}

	var ids []string
	seen := make(map[string]struct{})
	for _, past := range recent {
		if past == nil {
			continue
		}
		if current.ID != "" && past.ID == current.ID {
			continue
		}
		// The same alert can occupy several window slots (re-triage
		// appends it again); report each ID once.
		if _, dup := seen[past.ID]; dup && past.ID != "" {
			continue
		}
		if overlaps(pairs, past) {
			ids = append(ids, past.ID)
			seen[past.ID] = struct{}{}
		}
	}
	return ids
}

func overlaps(pairs map[alert.Pair]struct{}, past *alert.Alert) bool {
	for _, e := range past.Entities {
		if e.Value == "" {
			continue
		}
		switch e.Type {
		case alert.EntityHost, alert.EntityUser, alert.EntityIP:
			if _, ok := pairs[alert.Pair{Type: e.Type, Value: e.Value}]; ok {
				return true
			}
		}
	}
	return false
}
