package triage

import (
	"fmt"
	"strings"

	"github.com/linnemanlabs/warden/internal/alert"
)

// decisionBoilerplate is the fixed closing sentence per decision.
var decisionBoilerplate = map[Decision]string{
	DecisionEscalateToIncident: "This alert should be escalated to a security incident " +
		"due to high risk score and potential impact to critical assets.",
	DecisionCorrelateWithExisting: "This alert should be correlated with existing incidents " +
		"due to entity overlap with recent alerts.",
	DecisionMarkAsFalsePositive: "This alert appears to be a false positive " +
		"based on low risk indicators and benign patterns.",
	DecisionRequireHumanReview: "This alert requires human analyst review to determine " +
		"appropriate action due to moderate risk and insufficient context.",
}

// BuildRationale assembles the deterministic, template-based rationale
// for a triage outcome. This is string templating, not language
// generation; the LLM analysis layer may wrap it but never replaces it.
func BuildRationale(a *alert.Alert, riskScore int, priority Priority, decision Decision, correlatedCount int) string {
	parts := make([]string, 0, 5)

	parts = append(parts, fmt.Sprintf(
		"This alert has been assigned a risk score of %d/100 and %s priority.",
		riskScore, priority))

	parts = append(parts, fmt.Sprintf(
		"The alert severity is %s, which contributes to the overall risk assessment.",
		a.Severity))

	if correlatedCount > 0 {
		parts = append(parts, fmt.Sprintf(
			"This alert is correlated with %d recent alert(s) involving the same entities, "+
				"indicating potential attack campaign.", correlatedCount))
	}

	if len(a.MitreTechniques) > 0 {
		parts = append(parts, fmt.Sprintf(
			"The alert maps to MITRE ATT&CK techniques: %s.",
			strings.Join(a.MitreTechniques, ", ")))
	}

	parts = append(parts, decisionBoilerplate[decision])

	return strings.Join(parts, " ")
}
