package triage

import "time"

// Status tracks where a triage run is in its lifecycle.
type Status string

const (
	// StatusPending means created, not yet started
	StatusPending Status = "pending"

	// StatusInProgress means currently being processed
	StatusInProgress Status = "in_progress"

	// StatusComplete means finished successfully
	StatusComplete Status = "complete"

	// StatusFailed means finished with errors
	StatusFailed Status = "failed"
)

// Priority is the triage priority assigned to an alert.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Decision is the triage outcome for an alert.
type Decision string

const (
	DecisionEscalateToIncident    Decision = "EscalateToIncident"
	DecisionCorrelateWithExisting Decision = "CorrelateWithExisting"
	DecisionMarkAsFalsePositive   Decision = "MarkAsFalsePositive"
	DecisionRequireHumanReview    Decision = "RequireHumanReview"
)

// Breakdown itemizes the additive components of a risk score. The
// components sum to the pre-clamp total; RiskScore on the Result is
// the clamped value.
type Breakdown struct {
	Severity           int `json:"severity"`
	Entities           int `json:"entities"`
	Mitre              int `json:"mitre"`
	MitreBase          int `json:"mitre_base"`
	MitreScenarioBonus int `json:"mitre_scenario_bonus"`
	AssetCriticality   int `json:"asset_criticality"`
	UserRisk           int `json:"user_risk"`
	Confidence         int `json:"confidence"`
}

// Result is the outcome of a triage run.
type Result struct {
	ID                 string    `json:"id"`
	AlertID            string    `json:"alert_id"`
	AlertName          string    `json:"alert_name"`
	Severity           string    `json:"severity"`
	Status             Status    `json:"status"`
	RiskScore          int       `json:"risk_score"`
	Breakdown          Breakdown `json:"score_breakdown"`
	Priority           Priority  `json:"priority"`
	Decision           Decision  `json:"decision"`
	CorrelatedAlertIDs []string  `json:"correlated_alert_ids,omitempty"`
	Rationale          string    `json:"rationale,omitempty"`
	Analysis           string    `json:"analysis,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	CompletedAt        time.Time `json:"completed_at,omitempty"`
	Duration           float64   `json:"duration_seconds,omitempty"`
	TokensUsed         int       `json:"tokens_used,omitempty"`
	ToolCalls          int       `json:"tool_calls,omitempty"`
	AgentVersion       string    `json:"agent_version,omitempty"`
}
