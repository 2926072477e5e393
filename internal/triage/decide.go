package triage

// DecisionInput carries everything a policy may consider when
// resolving a decision. ScenarioCounts is parallel to the alert's
// MITRE techniques and may be nil.
type DecisionInput struct {
	RiskScore      int
	HasCorrelation bool
	ScenarioCounts []int
}

// Policy resolves a triage decision and priority from a DecisionInput.
// Policies must be pure: same input, same output.
type Policy interface {
	Decide(in DecisionInput) (Decision, Priority)
}

// Decide applies the canonical decision table. Rules are evaluated
// top to bottom, first match wins:
//
//	riskScore >= 70                     -> EscalateToIncident (Critical >= 80, else High)
//	riskScore >= 40 and correlated      -> CorrelateWithExisting (Medium)
//	riskScore < 30                      -> MarkAsFalsePositive (Low)
//	otherwise                           -> RequireHumanReview (Medium)
func Decide(riskScore int, hasCorrelation bool) (Decision, Priority) {
	switch {
	case riskScore >= 70:
		if riskScore >= 80 {
			return DecisionEscalateToIncident, PriorityCritical
		}
		return DecisionEscalateToIncident, PriorityHigh
	case riskScore >= 40 && hasCorrelation:
		return DecisionCorrelateWithExisting, PriorityMedium
	case riskScore < 30:
		return DecisionMarkAsFalsePositive, PriorityLow
	default:
		return DecisionRequireHumanReview, PriorityMedium
	}
}

// TablePolicy is the default Policy: the canonical decision table with
// no special cases.
type TablePolicy struct{}

func (TablePolicy) Decide(in DecisionInput) (Decision, Priority) {
	return Decide(in.RiskScore, in.HasCorrelation)
}

// LowPrevalencePolicy wraps the canonical table with a watchlist
// heuristic: an uncorrelated alert whose MITRE techniques all have
// fewer than lowPrevalenceThreshold known attack scenarios is an
// isolated, uncommon pattern. Instead of escalating or paging a
// human, it is routed to CorrelateWithExisting so automated
// monitoring can watch for follow-up activity.
type LowPrevalencePolicy struct{}

const lowPrevalenceThreshold = 3

func (LowPrevalencePolicy) Decide(in DecisionInput) (Decision, Priority) {
	decision, priority := Decide(in.RiskScore, in.HasCorrelation)

	if in.HasCorrelation || len(in.ScenarioCounts) == 0 {
		return decision, priority
	}
	if decision != DecisionEscalateToIncident && decision != DecisionRequireHumanReview {
		return decision, priority
	}
	for _, c := range in.ScenarioCounts {
		if c >= lowPrevalenceThreshold {
			return decision, priority
		}
	}

	if ClassifyPriority(in.RiskScore) == PriorityLow {
		return DecisionCorrelateWithExisting, PriorityLow
	}
	return DecisionCorrelateWithExisting, PriorityMedium
}
