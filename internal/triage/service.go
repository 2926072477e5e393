package triage

import (
	"context"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/warden/internal/alert"
	"github.com/linnemanlabs/warden/internal/audit"
)

// SubmitResult is the outcome of submitting an alert for triage.
type SubmitResult struct {
	ID      string
	Skipped bool
	Reason  string
}

// Analysis is the narrative produced by an optional analyst on top of
// the deterministic outcome.
type Analysis struct {
	Text         string
	TokensUsed   int
	ToolCalls    int
	AgentVersion string
}

// Analyst adds investigation narrative to a triage outcome. Analysts
// never change the deterministic score, priority or decision.
type Analyst interface {
	Analyze(ctx context.Context, a *alert.Alert, out *Outcome) (*Analysis, error)
}

// Notifier delivers completed triage results to an external channel.
type Notifier interface {
	TriageCompleted(ctx context.Context, result *Result)
}

// Service is the business boundary for triage operations.
type Service struct {
	store    Store
	engine   *Engine
	analyst  Analyst
	auditor  audit.Recorder
	notifier Notifier
	metrics  *Metrics
	logger   log.Logger
}

// ServiceOptions carries the optional collaborators of a Service.
type ServiceOptions struct {
	Analyst  Analyst
	Auditor  audit.Recorder
	Notifier Notifier
	Metrics  *Metrics
}

// NewService creates a new triage service.
func NewService(store Store, engine *Engine, logger log.Logger, opts ServiceOptions) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:    store,
		engine:   engine,
		analyst:  opts.Analyst,
		auditor:  opts.Auditor,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		logger:   logger,
	}
}

// Submit accepts an alert for triage, handling dedup and lifecycle.
func (s *Service) Submit(ctx context.Context, al *alert.Alert) (*SubmitResult, error) {
	// dedup: skip if a run for this alert is already pending or in progress
	if al.ID != "" {
		if existing, ok, err := s.store.GetByAlertID(ctx, al.ID); err != nil {
			return nil, err
		} else if ok && (existing.Status == StatusPending || existing.Status == StatusInProgress) {
			s.metrics.IncSubmit("duplicate")
			return &SubmitResult{ID: existing.ID, Skipped: true, Reason: "duplicate"}, nil
		}
	}

	id := ulid.Make().String()
	result := &Result{
		ID:        id,
		AlertID:   al.ID,
		AlertName: al.Name,
		Severity:  string(al.Severity),
		Status:    StatusPending,
		CreatedAt: time.Now(),
	}

	if err := s.store.Put(ctx, result); err != nil {
		s.metrics.IncSubmit("error")
		return nil, err
	}
	s.metrics.IncSubmit("accepted")

	// run async - pass only the ID to avoid sharing the Result pointer.
	go s.runTriage(context.WithoutCancel(ctx), id, al)

	return &SubmitResult{ID: id}, nil
}

// SubmitBatch submits each alert in order, preserving window effects
// between them. A store failure aborts the remainder.
func (s *Service) SubmitBatch(ctx context.Context, alerts []*alert.Alert) ([]*SubmitResult, error) {
	results := make([]*SubmitResult, 0, len(alerts))
	for _, al := range alerts {
		sr, err := s.Submit(ctx, al)
		if err != nil {
			return results, err
		}
		results = append(results, sr)
	}
	return results, nil
}

// Get retrieves a triage result by ID.
func (s *Service) Get(ctx context.Context, id string) (*Result, bool, error) {
	return s.store.Get(ctx, id)
}

// Recent returns the most recent triage results.
func (s *Service) Recent(ctx context.Context, limit int) ([]*Result, error) {
	return s.store.List(ctx, limit)
}

func (s *Service) runTriage(ctx context.Context, id string, al *alert.Alert) {
	start := time.Now()
	L := s.logger.With("triage_id", id, "alert_id", al.ID, "alert", al.Name)

	result, ok, err := s.store.Get(ctx, id)
	if err != nil || !ok {
		L.Error(ctx, err, "failed to fetch result for triage")
		return
	}

	result.Status = StatusInProgress
	if err := s.store.Put(ctx, result); err != nil {
		L.Error(ctx, err, "failed to update status to in_progress")
		return
	}

	out := s.engine.Triage(ctx, al)
	s.metrics.SetWindowSize(s.engine.Window().Len())

	result.RiskScore = out.RiskScore
	result.Breakdown = out.Breakdown
	result.Priority = out.Priority
	result.Decision = out.Decision
	result.CorrelatedAlertIDs = out.CorrelatedAlertIDs
	result.Rationale = out.Rationale

	// The analyst is garnish: a failure leaves the deterministic
	// outcome intact and the run still completes.
	if s.analyst != nil {
		an, err := s.analyst.Analyze(ctx, al, out)
		if err != nil {
			L.Warn(ctx, "analyst failed, keeping deterministic outcome", "error", err)
		} else if an != nil {
			result.Analysis = an.Text
			result.TokensUsed = an.TokensUsed
			result.ToolCalls = an.ToolCalls
			result.AgentVersion = an.AgentVersion
		}
	}

	result.Status = StatusComplete
	result.CompletedAt = time.Now()
	result.Duration = time.Since(start).Seconds()

	if err := s.store.Put(ctx, result); err != nil {
		L.Error(ctx, err, "failed to persist triage result")
		return
	}

	s.metrics.ObserveRun(result)

	if s.auditor != nil {
		entry := &audit.Entry{
			TriageID:           result.ID,
			AlertID:            result.AlertID,
			AlertName:          result.AlertName,
			RiskScore:          result.RiskScore,
			Priority:           string(result.Priority),
			Decision:           string(result.Decision),
			CorrelatedAlertIDs: result.CorrelatedAlertIDs,
			Rationale:          result.Rationale,
		}
		if err := s.auditor.Record(ctx, entry); err != nil {
			L.Warn(ctx, "audit record failed", "error", err)
		}
	}

	if s.notifier != nil {
		s.notifier.TriageCompleted(ctx, result)
	}

	L.Info(ctx, "triage complete",
		"risk_score", result.RiskScore,
		"priority", result.Priority,
		"decision", result.Decision,
		"duration", result.Duration,
	)
}
