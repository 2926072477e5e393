// Package mock generates synthetic security alerts for demos and load
// testing. Patterns follow the shapes seen in real Sentinel and
// Defender feeds.
package mock

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/linnemanlabs/warden/internal/alert"
)

// pattern is a template one synthetic alert is stamped from.
type pattern struct {
	Name            string
	Type            string
	Severity        alert.Severity
	Description     string
	Provider        string
	MitreTechniques []string
	WithIP          bool
}

var patterns = []pattern{
	{
		Name:            "Suspicious PowerShell Execution",
		Type:            "SuspiciousPowerShell",
		Severity:        alert.SeverityHigh,
		Description:     "PowerShell executed with base64-encoded command",
		Provider:        "Microsoft Defender for Endpoint",
		MitreTechniques: []string{"T1059.001"},
	},
	{
		Name:            "Multiple Failed Login Attempts",
		Type:            "BruteForceAttempt",
		Severity:        alert.SeverityMedium,
		Description:     "Multiple failed login attempts detected from single source",
		Provider:        "Azure AD Identity Protection",
		MitreTechniques: []string{"T1110.001"},
		WithIP:          true,
	},
	{
		Name:            "Suspicious File Download",
		Type:            "MalwareDownload",
		Severity:        alert.SeverityHigh,
		Description:     "Executable file downloaded from suspicious domain",
		Provider:        "Microsoft Defender for Endpoint",
		MitreTechniques: []string{"T1071.001", "T1204.002"},
		WithIP:          true,
	},
	{
		Name:            "Lateral Movement Detected",
		Type:            "LateralMovement",
		Severity:        alert.SeverityHigh,
		Description:     "Suspicious SMB connection to multiple hosts",
		Provider:        "Microsoft Defender for Identity",
		MitreTechniques: []string{"T1021.002"},
	},
	{
		Name:            "Credential Dumping Attempt",
		Type:            "CredentialAccess",
		Severity:        alert.SeverityHigh,
		Description:     "LSASS memory access detected",
		Provider:        "Microsoft Defender for Endpoint",
		MitreTechniques: []string{"T1003.001"},
	},
	{
		Name:            "Suspicious Registry Modification",
		Type:            "PersistenceMechanism",
		Severity:        alert.SeverityMedium,
		Description:     "Registry run key modified for persistence",
		Provider:        "Microsoft Defender for Endpoint",
		MitreTechniques: []string{"T1547.001"},
	},
}

// Generator stamps alerts from the built-in patterns. The random
// source and clock are injectable so tests are reproducible.
type Generator struct {
	rnd   *rand.Rand
	now   func() time.Time
	newID func() string
}

// NewGenerator creates a Generator seeded for reproducible entity and
// confidence values. Alert IDs are fresh UUIDs.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		rnd:   rand.New(rand.NewSource(seed)), //nolint:gosec // synthetic data, not crypto
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Alert generates the alert at position i. Positions cycle through the
// patterns, so consecutive alerts vary in type and the small host/user
// pools guarantee entity overlap across a stream.
func (g *Generator) Alert(i int) *alert.Alert {
	p := patterns[i%len(patterns)]
	now := g.now()

	entities := []alert.Entity{
		{Type: alert.EntityHost, Value: fmt.Sprintf("WS-%03d", g.rnd.Intn(100)+1)},
		{Type: alert.EntityUser, Value: fmt.Sprintf("user%d", g.rnd.Intn(50)+1)},
	}
	if p.WithIP {
		entities = append(entities, alert.Entity{
			Type:  alert.EntityIP,
			Value: fmt.Sprintf("10.0.%d.%d", g.rnd.Intn(256), g.rnd.Intn(256)),
		})
	}

	start := now.Add(-time.Duration(g.rnd.Intn(72)) * time.Hour)
	return &alert.Alert{
		ID:              g.newID(),
		Name:            p.Name,
		Type:            p.Type,
		Severity:        p.Severity,
		Description:     p.Description,
		TimeGenerated:   now,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(g.rnd.Intn(60)) * time.Minute),
		Entities:        entities,
		MitreTechniques: p.MitreTechniques,
		ConfidenceScore: 60 + g.rnd.Intn(36),
		Provider:        p.Provider,
		Product:         p.Provider,
		RemediationSteps: []string{
			"Investigate the alert",
			"Check for related activity",
			"Contain affected systems if necessary",
		},
	}
}

// Batch generates n alerts starting at position 0.
func (g *Generator) Batch(n int) []*alert.Alert {
	out := make([]*alert.Alert, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, g.Alert(i))
	}
	return out
}

// PatternCount reports how many distinct alert patterns the generator
// cycles through.
func PatternCount() int { return len(patterns) }
