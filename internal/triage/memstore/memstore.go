// Package memstore provides an in-memory implementation of triage.Store.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/linnemanlabs/warden/internal/triage"
)

// Store holds triage results in memory. Suitable for dev/testing.
type Store struct {
	mu      sync.RWMutex
	results map[string]*triage.Result // triage ID -> result
	seen    map[string]string         // alert ID -> triage ID (dedup)
	order   []string                  // triage IDs in insertion order
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		results: make(map[string]*triage.Result),
		seen:    make(map[string]string),
	}
}

// Get retrieves a triage result by its ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*triage.Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

// GetByAlertID retrieves the triage result for an alert, for
// deduplication. Returns a copy.
func (s *Store) GetByAlertID(_ context.Context, alertID string) (*triage.Result, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.seen[alertID]
	if !ok {
		return nil, false, nil
	}
	r := s.results[id]
	cp := *r
	return &cp, true, nil
}

// Put stores a copy of the triage result.
func (s *Store) Put(_ context.Context, r *triage.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.results[r.ID]; !exists {
		s.order = append(s.order, r.ID)
	}
	cp := *r
	s.results[r.ID] = &cp
	if r.AlertID != "" {
		s.seen[r.AlertID] = r.ID
	}
	return nil
}

// List returns up to limit results, most recently created first.
func (s *Store) List(_ context.Context, limit int) ([]*triage.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*triage.Result, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		cp := *s.results[s.order[i]]
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
