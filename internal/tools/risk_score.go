package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/linnemanlabs/warden/internal/alert"
	"github.com/linnemanlabs/warden/internal/triage"
)

// RiskScore exposes the deterministic scoring algorithm to the AI.
// The tool is a window into the same Scorer the engine uses, so the
// agent can never report a score the system would not compute itself.
type RiskScore struct {
	scorer *triage.Scorer
}

func NewRiskScore(scorer *triage.Scorer) *RiskScore {
	if scorer == nil {
		scorer = triage.NewScorer(nil, nil)
	}
	return &RiskScore{scorer: scorer}
}

func (r *RiskScore) Name() string { return "calculate_risk_score" }

func (r *RiskScore) Description() string {
	return `Calculate the deterministic risk score for a security alert from severity, entity count,
MITRE ATT&CK techniques, detection confidence, and attack scenario prevalence counts.
Call get_mitre_context first and pass its scenario counts to include the prevalence bonus.
Returns the score, a component breakdown, and an explanation.`
}

func (r *RiskScore) Parameters() json.RawMessage {
	return json.RawMessage(`{
        "type": "object",
        "properties": {
            "severity": {
                "type": "string",
                "description": "Alert severity level (High, Medium, Low, Informational)"
            },
            "entity_count": {
                "type": "integer",
                "description": "Number of entities involved in the alert"
            },
            "mitre_techniques": {
                "type": "array",
                "items": {"type": "string"},
                "description": "List of MITRE ATT&CK technique IDs"
            },
            "confidence_score": {
                "type": "integer",
                "description": "Detection confidence score (0-100)"
            },
            "mitre_scenario_counts": {
                "type": "array",
                "items": {"type": "integer"},
                "description": "Attack scenario counts per technique, parallel to mitre_techniques"
            }
        },
        "required": ["severity", "entity_count", "confidence_score"]
    }`)
}

func (r *RiskScore) Execute(_ context.Context, params json.RawMessage) (json.RawMessage, error) {
	var input struct {
		Severity        string   `json:"severity"`
		EntityCount     int      `json:"entity_count"`
		MitreTechniques []string `json:"mitre_techniques"`
		ConfidenceScore int      `json:"confidence_score"`
		ScenarioCounts  []int    `json:"mitre_scenario_counts"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if input.EntityCount < 0 {
		return nil, fmt.Errorf("entity_count must be non-negative")
	}

	a := &alert.Alert{
		Severity:        alert.Severity(input.Severity),
		Entities:        make([]alert.Entity, input.EntityCount),
		MitreTechniques: input.MitreTechniques,
		ConfidenceScore: input.ConfidenceScore,
	}
	score, breakdown := r.scorer.Score(a, input.ScenarioCounts)

	out := struct {
		RiskScore   int              `json:"risk_score"`
		Breakdown   triage.Breakdown `json:"breakdown"`
		Explanation string           `json:"explanation"`
	}{
		RiskScore: score,
		Breakdown: breakdown,
		Explanation: fmt.Sprintf(
			"Risk score of %d/100 calculated from %s severity, %d entities, %d MITRE techniques (%d scenario bonus), asset criticality (%d), user risk (%d), and %d%% confidence.",
			score, input.Severity, input.EntityCount, len(input.MitreTechniques),
			breakdown.MitreScenarioBonus, breakdown.AssetCriticality, breakdown.UserRisk, input.ConfidenceScore,
		),
	}
	return json.Marshal(out)
}
