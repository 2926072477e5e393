package pgstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/linnemanlabs/warden/internal/postgres"
	"github.com/linnemanlabs/warden/internal/triage"
	"github.com/linnemanlabs/warden/internal/triage/pgstore"
)

func openStore(t *testing.T) *pgstore.Store {
	t.Helper()
	dsn := os.Getenv("WARDEN_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("WARDEN_TEST_DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("postgres.NewPool: %v", err)
	}
	t.Cleanup(pool.Close)
	s, err := pgstore.New(ctx, pool)
	if err != nil {
		t.Fatalf("pgstore.New: %v", err)
	}
	return s
}

func TestPutAndGet(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond).UTC()
	r := &triage.Result{
		ID:        "test-put-get-001",
		AlertID:   "alert-put-get",
		AlertName: "Brute force attack detected",
		Severity:  "High",
		Status:    triage.StatusComplete,
		RiskScore: 74,
		Breakdown: triage.Breakdown{
			Severity: 30, Entities: 6, Mitre: 10, MitreBase: 10,
			AssetCriticality: 15, UserRisk: 5, Confidence: 8,
		},
		Priority:           triage.PriorityHigh,
		Decision:           triage.DecisionEscalateToIncident,
		CorrelatedAlertIDs: []string{"alert-a", "alert-b"},
		Rationale:          "risk score 74 with correlated activity",
		Analysis:           "likely credential stuffing",
		CreatedAt:          now,
		CompletedAt:        now.Add(time.Second),
		Duration:           1.23,
		TokensUsed:         500,
		ToolCalls:          3,
		AgentVersion:       "warden-agent/1",
	}

	if err := s.Put(ctx, r); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("Get returned ok=false, want true")
	}

	assertEqual(t, "ID", r.ID, got.ID)
	assertEqual(t, "AlertID", r.AlertID, got.AlertID)
	assertEqual(t, "AlertName", r.AlertName, got.AlertName)
	assertEqual(t, "Severity", r.Severity, got.Severity)
	assertEqual(t, "Status", string(r.Status), string(got.Status))
	assertEqual(t, "RiskScore", r.RiskScore, got.RiskScore)
	assertEqual(t, "Breakdown", r.Breakdown, got.Breakdown)
	assertEqual(t, "Priority", string(r.Priority), string(got.Priority))
	assertEqual(t, "Decision", string(r.Decision), string(got.Decision))
	assertEqual(t, "Rationale", r.Rationale, got.Rationale)
	assertEqual(t, "Analysis", r.Analysis, got.Analysis)
	assertEqual(t, "Duration", r.Duration, got.Duration)
	assertEqual(t, "TokensUsed", r.TokensUsed, got.TokensUsed)
	assertEqual(t, "ToolCalls", r.ToolCalls, got.ToolCalls)
	assertEqual(t, "AgentVersion", r.AgentVersion, got.AgentVersion)

	if len(got.CorrelatedAlertIDs) != 2 || got.CorrelatedAlertIDs[0] != "alert-a" {
		t.Errorf("CorrelatedAlertIDs mismatch: got %v", got.CorrelatedAlertIDs)
	}
}

func TestGetMissing(t *testing.T) {
	s := openStore(t)

	_, ok, err := s.Get(context.Background(), "nonexistent-id")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Error("Get returned ok=true for nonexistent ID")
	}
}

func TestGetByAlertID(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	alertID := "alert-by-id-test"
	now := time.Now().Truncate(time.Microsecond).UTC()

	older := &triage.Result{
		ID:        "test-alert-older",
		AlertID:   alertID,
		Status:    triage.StatusComplete,
		CreatedAt: now.Add(-time.Hour),
	}
	newer := &triage.Result{
		ID:        "test-alert-newer",
		AlertID:   alertID,
		Status:    triage.StatusPending,
		CreatedAt: now,
	}

	if err := s.Put(ctx, older); err != nil {
		t.Fatalf("Put older: %v", err)
	}
	if err := s.Put(ctx, newer); err != nil {
		t.Fatalf("Put newer: %v", err)
	}

	got, ok, err := s.GetByAlertID(ctx, alertID)
	if err != nil {
		t.Fatalf("GetByAlertID: %v", err)
	}
	if !ok {
		t.Fatal("GetByAlertID returned ok=false")
	}
	if got.ID != newer.ID {
		t.Errorf("GetByAlertID returned ID=%s, want %s", got.ID, newer.ID)
	}
}

func TestGetByAlertIDMissing(t *testing.T) {
	s := openStore(t)

	_, ok, err := s.GetByAlertID(context.Background(), "nonexistent-alert")
	if err != nil {
		t.Fatalf("GetByAlertID: %v", err)
	}
	if ok {
		t.Error("GetByAlertID returned ok=true for nonexistent alert ID")
	}
}

func TestUpsert(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond).UTC()
	r := &triage.Result{
		ID:        "test-upsert-001",
		AlertID:   "alert-upsert",
		Status:    triage.StatusPending,
		CreatedAt: now,
	}
	if err := s.Put(ctx, r); err != nil {
		t.Fatalf("Put initial: %v", err)
	}

	r.Status = triage.StatusComplete
	r.RiskScore = 42
	r.Priority = triage.PriorityMedium
	r.Decision = triage.DecisionCorrelateWithExisting
	r.CompletedAt = now.Add(time.Minute)
	r.Duration = 60.0
	r.TokensUsed = 1200
	r.ToolCalls = 5

	if err := s.Put(ctx, r); err != nil {
		t.Fatalf("Put update: %v", err)
	}

	got, ok, err := s.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("Get after upsert: %v", err)
	}
	if !ok {
		t.Fatal("Get returned ok=false after upsert")
	}

	assertEqual(t, "Status", string(triage.StatusComplete), string(got.Status))
	assertEqual(t, "RiskScore", 42, got.RiskScore)
	assertEqual(t, "Priority", string(triage.PriorityMedium), string(got.Priority))
	assertEqual(t, "Decision", string(triage.DecisionCorrelateWithExisting), string(got.Decision))
	assertEqual(t, "Duration", 60.0, got.Duration)
	assertEqual(t, "TokensUsed", 1200, got.TokensUsed)
	assertEqual(t, "ToolCalls", 5, got.ToolCalls)
}

func TestList(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Microsecond).UTC()
	for i, id := range []string{"test-list-a", "test-list-b", "test-list-c"} {
		r := &triage.Result{
			ID:        id,
			AlertID:   "alert-" + id,
			Status:    triage.StatusComplete,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}
		if err := s.Put(ctx, r); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}

	got, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].CreatedAt.Before(got[1].CreatedAt) {
		t.Error("List not ordered newest first")
	}
}

func assertEqual[T comparable](t *testing.T, field string, want, got T) {
	t.Helper()
	if want != got {
		t.Errorf("%s: got %v, want %v", field, got, want)
	}
}
