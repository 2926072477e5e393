package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/linnemanlabs/warden/internal/triage"
)

// RecordedDecision is the agent's final call, captured by the
// RecordDecision tool.
type RecordedDecision struct {
	Decision  triage.Decision `json:"decision"`
	Priority  triage.Priority `json:"priority"`
	Rationale string          `json:"rationale"`
}

// DecisionSink receives the recorded decision. Registered per run so
// each triage captures its own.
type DecisionSink func(ctx context.Context, d RecordedDecision)

// RecordDecision lets the agent record its final triage decision.
// Inputs are validated against the decision and priority enums; the
// tool records, it does not decide.
type RecordDecision struct {
	sink DecisionSink
}

func NewRecordDecision(sink DecisionSink) *RecordDecision {
	return &RecordDecision{sink: sink}
}

func (r *RecordDecision) Name() string { return "record_triage_decision" }

func (r *RecordDecision) Description() string {
	return `Record your final triage decision after analyzing all context: the risk score and its
breakdown, correlation with recent alerts, and MITRE scenario prevalence. You determine the
decision and priority; this tool records them for the system to act upon.`
}

func (r *RecordDecision) Parameters() json.RawMessage {
	return json.RawMessage(`{
        "type": "object",
        "properties": {
            "decision": {
                "type": "string",
                "enum": ["EscalateToIncident", "CorrelateWithExisting", "MarkAsFalsePositive", "RequireHumanReview"],
                "description": "Your determined triage decision"
            },
            "priority": {
                "type": "string",
                "enum": ["Critical", "High", "Medium", "Low"],
                "description": "Your determined priority level"
            },
            "rationale": {
                "type": "string",
                "description": "Explanation of your decision logic: risk score analysis, correlation status, scenario counts"
            }
        },
        "required": ["decision", "priority", "rationale"]
    }`)
}

var validDecisions = map[triage.Decision]bool{
	triage.DecisionEscalateToIncident:    true,
	triage.DecisionCorrelateWithExisting: true,
	triage.DecisionMarkAsFalsePositive:   true,
	triage.DecisionRequireHumanReview:    true,
}

var validPriorities = map[triage.Priority]bool{
	triage.PriorityCritical: true,
	triage.PriorityHigh:     true,
	triage.PriorityMedium:   true,
	triage.PriorityLow:      true,
}

func (r *RecordDecision) Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var input RecordedDecision
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if !validDecisions[input.Decision] {
		return nil, fmt.Errorf("unknown decision: %q", input.Decision)
	}
	if !validPriorities[input.Priority] {
		return nil, fmt.Errorf("unknown priority: %q", input.Priority)
	}
	if input.Rationale == "" {
		return nil, fmt.Errorf("rationale is required")
	}

	if r.sink != nil {
		r.sink(ctx, input)
	}
	return json.Marshal(input)
}
