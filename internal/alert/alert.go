// Package alert defines the security alert model Warden triages.
// The shape follows the Sentinel SecurityAlert schema at the fields
// the triage engine actually consumes.
package alert

import "time"

// Severity is the detection-assigned severity of an alert.
// Values outside the known set are tolerated and scored with a
// documented fallback rather than rejected.
type Severity string

const (
	SeverityHigh          Severity = "High"
	SeverityMedium        Severity = "Medium"
	SeverityLow           Severity = "Low"
	SeverityInformational Severity = "Informational"
)

// Valid reports whether the severity is one of the recognized values.
// The engine never requires this; it is for callers that want to
// reject unknown severities before scoring falls back.
func (s Severity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow, SeverityInformational:
		return true
	}
	return false
}

// EntityType identifies the kind of entity referenced by an alert.
// Only host, user and ip participate in correlation; other types are
// carried through untouched but ignored by the overlap check.
type EntityType string

const (
	EntityHost EntityType = "host"
	EntityUser EntityType = "user"
	EntityIP   EntityType = "ip"
)

// Entity is a typed value involved in an alert, e.g. (host, "WS-001").
type Entity struct {
	Type  EntityType `json:"type"`
	Value string     `json:"value"`
}

// Alert is a security alert from any provider (mock feed, webhook ingest).
// Immutable once received.
type Alert struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	Severity         Severity  `json:"severity"`
	Description      string    `json:"description,omitempty"`
	TimeGenerated    time.Time `json:"time_generated"`
	StartTime        time.Time `json:"start_time,omitempty"`
	EndTime          time.Time `json:"end_time,omitempty"`
	Entities         []Entity  `json:"entities,omitempty"`
	MitreTechniques  []string  `json:"mitre_techniques,omitempty"`
	ConfidenceScore  int       `json:"confidence_score"`
	Provider         string    `json:"provider,omitempty"`
	Product          string    `json:"product,omitempty"`
	RemediationSteps []string  `json:"remediation_steps,omitempty"`
}

// Pair is a normalized (type, value) entity key used for overlap checks.
type Pair struct {
	Type  EntityType
	Value string
}

// EntityPairs returns the alert's entities as a deduplicated set of
// (type, value) pairs, keeping only the correlation-relevant types.
// Entities with an empty value or an unrecognized type are dropped.
func (a *Alert) EntityPairs() map[Pair]struct{} {
	pairs := make(map[Pair]struct{}, len(a.Entities))
	for _, e := range a.Entities {
		if e.Value == "" {
			continue
		}
		switch e.Type {
		case EntityHost, EntityUser, EntityIP:
			pairs[Pair{Type: e.Type, Value: e.Value}] = struct{}{}
		}
	}
	return pairs
}
