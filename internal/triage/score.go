package triage

import "github.com/linnemanlabs/warden/internal/alert"

// MaxRiskScore is the clamp ceiling for the additive risk score.
const MaxRiskScore = 100

// severityPoints is the severity contribution table. Unknown severity
// values fall back to 10 points rather than failing the triage; every
// alert must receive some outcome.
var severityPoints = map[alert.Severity]int{
	alert.SeverityHigh:          30,
	alert.SeverityMedium:        20,
	alert.SeverityLow:           10,
	alert.SeverityInformational: 5,
}

const severityUnknownPoints = 10

// AssetCriticalityProvider supplies the asset-criticality component
// (0-20) of the risk score. There is no real asset-inventory
// integration; implementations stand in for one.
type AssetCriticalityProvider interface {
	AssetCriticality(a *alert.Alert) int
}

// UserRiskProvider supplies the user-risk component (0-10) of the risk
// score, standing in for an identity-protection lookup.
type UserRiskProvider interface {
	UserRisk(a *alert.Alert) int
}

// StaticAssetCriticality returns a fixed asset-criticality value.
// The default of 15 assumes medium criticality and keeps scoring
// deterministic.
type StaticAssetCriticality int

func (s StaticAssetCriticality) AssetCriticality(*alert.Alert) int { return int(s) }

// StaticUserRisk returns a fixed user-risk value. The default of 5
// assumes low risk.
type StaticUserRisk int

func (s StaticUserRisk) UserRisk(*alert.Alert) int { return int(s) }

const (
	DefaultAssetCriticality = StaticAssetCriticality(15)
	DefaultUserRisk         = StaticUserRisk(5)
)

// Scorer computes deterministic risk scores for alerts. The asset and
// user components come from injected providers so a real inventory or
// identity integration can be swapped in without touching the
// algorithm.
type Scorer struct {
	assets AssetCriticalityProvider
	users  UserRiskProvider
}

// NewScorer creates a Scorer. Nil providers default to the static
// mid-range values.
func NewScorer(assets AssetCriticalityProvider, users UserRiskProvider) *Scorer {
	if assets == nil {
		assets = DefaultAssetCriticality
	}
	if users == nil {
		users = DefaultUserRisk
	}
	return &Scorer{assets: assets, users: users}
}

// Score computes the scenario-aware risk score for an alert. This is
// the canonical variant: the MITRE component is a base of 3 points per
// technique (capped at 15) plus a prevalence bonus derived from
// scenarioCounts (capped at 10). scenarioCounts is parallel to
// a.MitreTechniques; nil or short slices degrade to base-only scoring.
//
// The returned score is clamped to [0, MaxRiskScore]; the breakdown
// carries the unclamped components.
func (s *Scorer) Score(a *alert.Alert, scenarioCounts []int) (int, Breakdown) {
	var b Breakdown

	b.Severity = severityContribution(a.Severity)
	b.Entities = entityContribution(len(a.Entities))

	b.MitreBase = capInt(len(a.MitreTechniques)*3, 15)
	b.MitreScenarioBonus = scenarioBonus(scenarioCounts)
	b.Mitre = b.MitreBase + b.MitreScenarioBonus

	b.AssetCriticality = s.assets.AssetCriticality(a)
	b.UserRisk = s.users.UserRisk(a)
	b.Confidence = confidenceContribution(a.ConfidenceScore)

	total := b.Severity + b.Entities + b.Mitre + b.AssetCriticality + b.UserRisk + b.Confidence
	return capInt(total, MaxRiskScore), b
}

// ScoreVariantBase computes the legacy risk score that weighted MITRE
// techniques at 5 points each (capped at 20) with no scenario bonus.
// Kept for parity with older triage runs; new callers use Score.
func (s *Scorer) ScoreVariantBase(a *alert.Alert) (int, Breakdown) {
	var b Breakdown

	b.Severity = severityContribution(a.Severity)
	b.Entities = entityContribution(len(a.Entities))

	b.MitreBase = capInt(len(a.MitreTechniques)*5, 20)
	b.Mitre = b.MitreBase

	b.AssetCriticality = s.assets.AssetCriticality(a)
	b.UserRisk = s.users.UserRisk(a)
	b.Confidence = confidenceContribution(a.ConfidenceScore)

	total := b.Severity + b.Entities + b.Mitre + b.AssetCriticality + b.UserRisk + b.Confidence
	return capInt(total, MaxRiskScore), b
}

func severityContribution(sev alert.Severity) int {
	if pts, ok := severityPoints[sev]; ok {
		return pts
	}
	return severityUnknownPoints
}

func entityContribution(count int) int {
	if count < 0 {
		return 0
	}
	return capInt(count*2, 10)
}

// scenarioBonus awards points for techniques that match many known
// attack scenarios. A high count suggests a well-documented, prevalent
// threat.
func scenarioBonus(counts []int) int {
	bonus := 0
	for _, c := range counts {
		switch {
		case c >= 5:
			bonus += 3
		case c >= 3:
			bonus += 2
		case c >= 1:
			bonus++
		}
	}
	return capInt(bonus, 10)
}

// confidenceContribution clamps the detection confidence to [0,100]
// before dividing, so out-of-range inputs cannot push the component
// negative or past 10.
func confidenceContribution(confidence int) int {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	return confidence / 10
}

func capInt(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}

// ClassifyPriority maps a risk score to a priority tier. Pure and
// total over any int; scores are expected in [0,100].
func ClassifyPriority(riskScore int) Priority {
	switch {
	case riskScore >= 80:
		return PriorityCritical
	case riskScore >= 60:
		return PriorityHigh
	case riskScore >= 40:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
