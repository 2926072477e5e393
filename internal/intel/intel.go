// Package intel provides the attack-scenario catalog used for MITRE
// technique context and prevalence counts. The catalog is a local YAML
// dataset standing in for a live threat-intelligence index.
package intel

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is one documented attack scenario.
type Scenario struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Techniques  []string `yaml:"techniques" json:"techniques"`
	Tactic      string   `yaml:"tactic" json:"tactic"`
	Description string   `yaml:"description" json:"description"`
	Indicators  []string `yaml:"indicators,omitempty" json:"indicators,omitempty"`
	Severity    string   `yaml:"severity" json:"severity"`
}

// TechniqueContext aggregates the scenarios matching one technique.
type TechniqueContext struct {
	TechniqueID   string     `json:"technique_id"`
	Name          string     `json:"name"`
	Tactic        string     `json:"tactic"`
	AllTactics    []string   `json:"all_tactics,omitempty"`
	Severity      string     `json:"severity,omitempty"`
	ScenarioCount int        `json:"scenario_count"`
	Scenarios     []Scenario `json:"scenarios,omitempty"`
}

// Catalog is an immutable, indexed scenario dataset. Safe for
// concurrent use once constructed.
type Catalog struct {
	scenarios []Scenario
}

type catalogFile struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// New builds a catalog from the given scenarios.
func New(scenarios []Scenario) *Catalog {
	return &Catalog{scenarios: scenarios}
}

// Load parses a YAML catalog document.
func Load(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scenario catalog: %w", err)
	}
	for i, s := range f.Scenarios {
		if s.Name == "" {
			return nil, fmt.Errorf("scenario %d: missing name", i)
		}
		if len(s.Techniques) == 0 {
			return nil, fmt.Errorf("scenario %q: no techniques", s.Name)
		}
	}
	return New(f.Scenarios), nil
}

// LoadFile reads a YAML catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario catalog: %w", err)
	}
	return Load(data)
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Load(defaultCatalog)
	if err != nil {
		// The embedded dataset is validated by tests; a parse failure
		// here is a build defect.
		panic(fmt.Sprintf("intel: embedded catalog invalid: %v", err))
	}
	return c
}

// Len returns the number of scenarios in the catalog.
func (c *Catalog) Len() int { return len(c.scenarios) }

// matches reports whether a scenario technique covers the queried
// technique ID. A parent technique covers its sub-techniques and vice
// versa: T1110 matches T1110.001, but T1110 never matches T1486.
func matches(scenarioTech, query string) bool {
	if scenarioTech == "" || query == "" {
		return false
	}
	if strings.EqualFold(scenarioTech, query) {
		return true
	}
	st, q := strings.ToUpper(scenarioTech), strings.ToUpper(query)
	if strings.HasPrefix(st, q+".") || strings.HasPrefix(q, st+".") {
		return true
	}
	return false
}

// Find returns the scenarios matching a technique ID.
func (c *Catalog) Find(techniqueID string) []Scenario {
	var out []Scenario
	for _, s := range c.scenarios {
		for _, tq := range s.Techniques {
			if matches(tq, techniqueID) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// ScenarioCounts returns the number of matching scenarios for each
// technique, parallel to the input slice.
func (c *Catalog) ScenarioCounts(techniques []string) []int {
	out := make([]int, len(techniques))
	for i, tq := range techniques {
		out[i] = len(c.Find(tq))
	}
	return out
}

var severityRank = map[string]int{
	"critical": 4,
	"high":     3,
	"medium":   2,
	"low":      1,
}

// Context aggregates matching scenarios per technique the way the
// triage tools consume them.
func (c *Catalog) Context(techniques []string) []TechniqueContext {
	out := make([]TechniqueContext, 0, len(techniques))
	for _, tq := range techniques {
		scenarios := c.Find(tq)
		ctx := TechniqueContext{
			TechniqueID:   tq,
			ScenarioCount: len(scenarios),
			Scenarios:     scenarios,
		}
		if len(scenarios) == 0 {
			ctx.Name = "Technique " + tq
			ctx.Tactic = "Unknown"
			out = append(out, ctx)
			continue
		}

		ctx.Name = scenarios[0].Name
		tactics := make(map[string]struct{})
		best := 0
		for _, s := range scenarios {
			if s.Tactic != "" {
				tactics[s.Tactic] = struct{}{}
			}
			if r := severityRank[strings.ToLower(s.Severity)]; r > best {
				best = r
				ctx.Severity = strings.ToLower(s.Severity)
			}
		}
		ctx.AllTactics = make([]string, 0, len(tactics))
		for t := range tactics {
			ctx.AllTactics = append(ctx.AllTactics, t)
		}
		sort.Strings(ctx.AllTactics)
		if len(ctx.AllTactics) > 0 {
			ctx.Tactic = ctx.AllTactics[0]
		} else {
			ctx.Tactic = "Unknown"
		}
		out = append(out, ctx)
	}
	return out
}
