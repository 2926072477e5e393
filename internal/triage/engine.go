package triage

import (
	"context"
	"sync"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/warden/internal/alert"
)

// Intel supplies scenario prevalence counts for MITRE techniques.
// A nil Intel degrades scoring to the technique-count base.
type Intel interface {
	ScenarioCounts(techniques []string) []int
}

// Outcome is the deterministic result of one triage evaluation.
type Outcome struct {
	RiskScore          int
	Breakdown          Breakdown
	Priority           Priority
	Decision           Decision
	CorrelatedAlertIDs []string
	ScenarioCounts     []int
	Rationale          string
}

// Engine evaluates alerts: score, correlate, decide, explain.
// Evaluation is pure given the window contents; the only state the
// engine mutates is the sliding window itself.
type Engine struct {
	scorer   *Scorer
	window   *Window
	policy   Policy
	intel    Intel
	scanSize int
	logger   log.Logger

	// windowMu makes scan-then-append atomic so concurrent triage runs
	// always see each other in exactly one direction.
	windowMu sync.Mutex
}

// NewEngine creates a triage engine. Nil scorer, window, policy or
// logger fall back to defaults; a nil intel disables scenario lookups.
func NewEngine(scorer *Scorer, window *Window, policy Policy, intel Intel, logger log.Logger) *Engine {
	if scorer == nil {
		scorer = NewScorer(nil, nil)
	}
	if window == nil {
		window = NewWindow(WindowCapacity)
	}
	if policy == nil {
		policy = TablePolicy{}
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		scorer:   scorer,
		window:   window,
		policy:   policy,
		intel:    intel,
		scanSize: DefaultScanSize,
		logger:   logger,
	}
}

// SetScanSize overrides how many recent window entries a correlation
// scan inspects. Non-positive values are ignored.
func (e *Engine) SetScanSize(n int) {
	if n > 0 {
		e.scanSize = n
	}
}

// Window returns the engine's sliding window.
func (e *Engine) Window() *Window {
	return e.window
}

// Triage evaluates a single alert. The alert is appended to the
// sliding window after correlation so it never matches itself and is
// visible to subsequent alerts.
func (e *Engine) Triage(ctx context.Context, a *alert.Alert) *Outcome {
	var counts []int
	if e.intel != nil {
		counts = e.intel.ScenarioCounts(a.MitreTechniques)
	}

	score, breakdown := e.scorer.Score(a, counts)

	e.windowMu.Lock()
	correlated := FindCorrelated(a, e.window.Snapshot(), e.scanSize)
	e.window.Append(a)
	e.windowMu.Unlock()

	decision, priority := e.policy.Decide(DecisionInput{
		RiskScore:      score,
		HasCorrelation: len(correlated) > 0,
		ScenarioCounts: counts,
	})

	out := &Outcome{
		RiskScore:          score,
		Breakdown:          breakdown,
		Priority:           priority,
		Decision:           decision,
		CorrelatedAlertIDs: correlated,
		ScenarioCounts:     counts,
		Rationale:          BuildRationale(a, score, priority, decision, len(correlated)),
	}

	e.logger.Info(ctx, "alert triaged",
		"alert_id", a.ID,
		"alert", a.Name,
		"risk_score", score,
		"priority", priority,
		"decision", decision,
		"correlated", len(correlated),
		"window_size", e.window.Len(),
	)

	return out
}
