package agentdef

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
kind: Prompt
name: test-agent
description: test agent
model:
  id: claude-sonnet-4-20250514
  options:
    temperature: 0.0
    max_tokens: 2048
instructions: |
  Do the thing.
tools:
  - kind: function
    name: calculate_risk_score
`

func TestLoad(t *testing.T) {
	t.Parallel()

	def, err := Load([]byte(validYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if def.Name != "test-agent" {
		t.Errorf("name = %q", def.Name)
	}
	if def.Model.ID != "claude-sonnet-4-20250514" {
		t.Errorf("model id = %q", def.Model.ID)
	}
	if def.Model.Options.MaxTokens != 2048 {
		t.Errorf("max_tokens = %d", def.Model.Options.MaxTokens)
	}
	if !strings.Contains(def.Instructions, "Do the thing.") {
		t.Errorf("instructions = %q", def.Instructions)
	}
	if len(def.Tools) != 1 || def.Tools[0].Name != "calculate_risk_score" {
		t.Errorf("tools = %+v", def.Tools)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "kind: [unterminated"},
		{"wrong kind", "kind: Workflow\nname: x\ninstructions: y"},
		{"no name", "kind: Prompt\ninstructions: y"},
		{"no instructions", "kind: Prompt\nname: x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Load([]byte(tc.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_ExpandsEnvRefs(t *testing.T) {
	t.Parallel()

	in := strings.ReplaceAll(validYAML, "claude-sonnet-4-20250514", "${TEST_MODEL}")
	def, err := load([]byte(in), func(name string) (string, bool) {
		if name == "TEST_MODEL" {
			return "claude-opus-4-20250514", true
		}
		return "", false
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if def.Model.ID != "claude-opus-4-20250514" {
		t.Errorf("model id = %q", def.Model.ID)
	}
}

func TestLoad_UnsetEnvRefLeftVerbatim(t *testing.T) {
	t.Parallel()

	in := strings.ReplaceAll(validYAML, "claude-sonnet-4-20250514", "${NOPE_UNSET}")
	def, err := load([]byte(in), func(string) (string, bool) { return "", false })
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if def.Model.ID != "${NOPE_UNSET}" {
		t.Errorf("model id = %q, want the unexpanded reference", def.Model.ID)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "agent.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	def, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if def.Name != "test-agent" {
		t.Errorf("name = %q", def.Name)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	def := Default()
	if def.Name != "alert-triage-agent" {
		t.Errorf("name = %q", def.Name)
	}
	for _, want := range []string{"get_mitre_context", "calculate_risk_score", "find_correlated_alerts", "record_triage_decision"} {
		found := false
		for _, tool := range def.Tools {
			if tool.Name == want {
				found = true
			}
		}
		if !found {
			t.Errorf("default definition missing tool %q", want)
		}
	}
	if def.Instructions == "" {
		t.Error("default definition has no instructions")
	}
}
