package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/linnemanlabs/warden/internal/alert"
	"github.com/linnemanlabs/warden/internal/triage"
)

// CorrelatedAlerts looks up entity overlap against the sliding window
// of recently triaged alerts.
type CorrelatedAlerts struct {
	window   *triage.Window
	scanSize int
}

func NewCorrelatedAlerts(window *triage.Window) *CorrelatedAlerts {
	return &CorrelatedAlerts{window: window, scanSize: triage.DefaultScanSize}
}

func (c *CorrelatedAlerts) Name() string { return "find_correlated_alerts" }

func (c *CorrelatedAlerts) Description() string {
	return `Find recent alerts that share entities (host, user, or ip) with the current alert.
Entity overlap across alerts indicates a potential attack campaign.
Returns the correlated alert IDs and whether any correlation exists.`
}

func (c *CorrelatedAlerts) Parameters() json.RawMessage {
	return json.RawMessage(`{
        "type": "object",
        "properties": {
            "alert_id": {
                "type": "string",
                "description": "ID of the current alert, excluded from matching"
            },
            "alert_entities": {
                "type": "array",
                "items": {
                    "type": "object",
                    "properties": {
                        "type": {"type": "string"},
                        "value": {"type": "string"}
                    },
                    "required": ["type", "value"]
                },
                "description": "Entities from the current alert, e.g. [{\"type\": \"host\", \"value\": \"WS-001\"}]"
            }
        },
        "required": ["alert_entities"]
    }`)
}

func (c *CorrelatedAlerts) Execute(_ context.Context, params json.RawMessage) (json.RawMessage, error) {
	var input struct {
		AlertID  string         `json:"alert_id"`
		Entities []alert.Entity `json:"alert_entities"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	current := &alert.Alert{ID: input.AlertID, Entities: input.Entities}
	ids := triage.FindCorrelated(current, c.window.Snapshot(), c.scanSize)

	out := struct {
		CorrelatedCount  int      `json:"correlated_count"`
		CorrelatedAlerts []string `json:"correlated_alerts"`
		HasCorrelation   bool     `json:"has_correlation"`
	}{
		CorrelatedCount:  len(ids),
		CorrelatedAlerts: ids,
		HasCorrelation:   len(ids) > 0,
	}
	if out.CorrelatedAlerts == nil {
		out.CorrelatedAlerts = []string{}
	}
	return json.Marshal(out)
}
