// Package agentdef loads declarative agent definitions: the model,
// instructions and tool list live in YAML rather than code, so prompt
// changes do not need a rebuild.
package agentdef

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed alert_triage_agent.yaml
var defaultDefinition []byte

// ModelOptions are the sampling options for the configured model.
type ModelOptions struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// Model identifies the LLM the agent runs on.
type Model struct {
	ID      string       `yaml:"id"`
	Options ModelOptions `yaml:"options"`
}

// ToolRef declares a tool the agent expects to have available.
type ToolRef struct {
	Kind        string `yaml:"kind"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// Definition is a declarative agent definition.
type Definition struct {
	Kind         string    `yaml:"kind"`
	Name         string    `yaml:"name"`
	Description  string    `yaml:"description"`
	Model        Model     `yaml:"model"`
	Instructions string    `yaml:"instructions"`
	Tools        []ToolRef `yaml:"tools"`
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expand replaces ${VAR} references using lookup. Unset variables are
// left verbatim so a missing value is visible downstream instead of
// silently becoming empty.
func expand(data []byte, lookup func(string) (string, bool)) []byte {
	return envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		name := string(envRef.FindSubmatch(m)[1])
		if v, ok := lookup(name); ok {
			return []byte(v)
		}
		return m
	})
}

// Load parses a definition from raw YAML, expanding ${ENV_VAR}
// references from the process environment.
func Load(data []byte) (*Definition, error) {
	return load(data, os.LookupEnv)
}

func load(data []byte, lookup func(string) (string, bool)) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(expand(data, lookup), &def); err != nil {
		return nil, fmt.Errorf("parse agent definition: %w", err)
	}
	if def.Kind != "Prompt" {
		return nil, fmt.Errorf("unsupported definition kind %q", def.Kind)
	}
	if def.Name == "" {
		return nil, fmt.Errorf("agent definition has no name")
	}
	if def.Instructions == "" {
		return nil, fmt.Errorf("agent definition %q has no instructions", def.Name)
	}
	return &def, nil
}

// LoadFile parses a definition from a YAML file.
func LoadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent definition: %w", err)
	}
	def, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Default returns the embedded alert triage agent definition.
func Default() *Definition {
	def, err := Load(defaultDefinition)
	if err != nil {
		panic(fmt.Sprintf("embedded agent definition invalid: %v", err))
	}
	return def
}
