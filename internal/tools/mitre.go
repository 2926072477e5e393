package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/linnemanlabs/warden/internal/intel"
)

// MitreContext serves attack scenario context for MITRE techniques
// from the local intel catalog.
type MitreContext struct {
	catalog *intel.Catalog
}

func NewMitreContext(catalog *intel.Catalog) *MitreContext {
	if catalog == nil {
		catalog = intel.Default()
	}
	return &MitreContext{catalog: catalog}
}

func (m *MitreContext) Name() string { return "get_mitre_context" }

func (m *MitreContext) Description() string {
	return `Get MITRE ATT&CK technique information from the attack scenario catalog.
Returns per-technique context including matching scenarios, tactics, severity, and the
scenario_count values to pass to calculate_risk_score.`
}

func (m *MitreContext) Parameters() json.RawMessage {
	return json.RawMessage(`{
        "type": "object",
        "properties": {
            "technique_ids": {
                "type": "array",
                "items": {"type": "string"},
                "description": "List of MITRE ATT&CK technique IDs (e.g., [\"T1059.001\"])"
            }
        },
        "required": ["technique_ids"]
    }`)
}

func (m *MitreContext) Execute(_ context.Context, params json.RawMessage) (json.RawMessage, error) {
	var input struct {
		TechniqueIDs []string `json:"technique_ids"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if len(input.TechniqueIDs) == 0 {
		return nil, fmt.Errorf("technique_ids is required")
	}

	ctxs := m.catalog.Context(input.TechniqueIDs)
	counts := m.catalog.ScenarioCounts(input.TechniqueIDs)

	out := struct {
		Techniques     []intel.TechniqueContext `json:"techniques"`
		ScenarioCounts []int                    `json:"scenario_counts"`
		Count          int                      `json:"count"`
	}{
		Techniques:     ctxs,
		ScenarioCounts: counts,
		Count:          len(ctxs),
	}
	return json.Marshal(out)
}
