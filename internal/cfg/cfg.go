package cfg

import (
	"errors"
	"flag"
	"fmt"
)

// Config adds triage-specific configuration fields to the
// common cfg.Registerable and cfg.Validatable interfaces
type Config struct {
	DrainSeconds          int
	ShutdownBudgetSeconds int
	APIPort               int
	APIToken              string
	DatabaseURL           string
	ClaudeAPIKey          string
	ClaudeModel           string
	AgentDefinitionPath   string
	ScenarioCatalogPath   string
	SlackWebhookURL       string
	WindowSize            int
	ScanSize              int
	LowPrevalencePolicy   bool
	MockStreamEnabled     bool
	MockStreamInterval    int
	MockStreamSeed        int64
	MockStreamCheckpoint  string
	MockStreamMaxAlerts   int
}

// RegisterFlags binds Config fields to the given FlagSet with defaults inline
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.DrainSeconds, "drain-seconds", 60, "seconds to wait for in-flight requests to drain before shutdown (1..300)")
	fs.IntVar(&c.ShutdownBudgetSeconds, "shutdown-budget-seconds", 90, "total seconds for component shutdown after drain (1..300)")
	fs.IntVar(&c.APIPort, "http-port", 8080, "API listen TCP port (1..65535)")
	fs.StringVar(&c.APIToken, "api-token", "", "bearer token required on all API requests")
	fs.StringVar(&c.DatabaseURL, "database-url", "", "PostgreSQL connection URL (empty = in-memory store)")
	fs.StringVar(&c.ClaudeAPIKey, "claude-api-key", "", "API key for the Claude analyst (empty = deterministic triage only)")
	fs.StringVar(&c.ClaudeModel, "claude-model", "claude-sonnet-4-20250514", "Claude model to use")
	fs.StringVar(&c.AgentDefinitionPath, "agent-definition", "", "path to an agent definition YAML (empty = built-in)")
	fs.StringVar(&c.ScenarioCatalogPath, "scenario-catalog", "", "path to a MITRE scenario catalog YAML (empty = built-in)")
	fs.StringVar(&c.SlackWebhookURL, "slack-webhook-url", "", "Slack webhook URL for notifications")
	fs.IntVar(&c.WindowSize, "window-size", 1000, "correlation window capacity in alerts (1..100000)")
	fs.IntVar(&c.ScanSize, "scan-size", 100, "recent window entries inspected per correlation scan (1..10000)")
	fs.BoolVar(&c.LowPrevalencePolicy, "low-prevalence-policy", true, "route uncorrelated low-prevalence alerts to correlation instead of escalation")
	fs.BoolVar(&c.MockStreamEnabled, "mock-stream", false, "generate and submit synthetic alerts to the local service")
	fs.IntVar(&c.MockStreamInterval, "mock-stream-interval", 5, "seconds between synthetic alerts (1..3600)")
	fs.Int64Var(&c.MockStreamSeed, "mock-stream-seed", 42, "RNG seed for the synthetic alert generator")
	fs.StringVar(&c.MockStreamCheckpoint, "mock-stream-checkpoint", "", "checkpoint file for stream resume (empty = no resume)")
	fs.IntVar(&c.MockStreamMaxAlerts, "mock-stream-max-alerts", 0, "stop the stream after N alerts (0 = unbounded)")
}

// Validate checks all configuration fields for correctness.
// It returns an error if any field is invalid, or nil if all fields are valid.
func (c *Config) Validate() error {
	var errs []error

	// Drain and shutdown budgets
	if c.DrainSeconds <= 0 || c.DrainSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid DRAIN_SECONDS %d (must be 1..300)", c.DrainSeconds))
	}
	if c.ShutdownBudgetSeconds <= 0 || c.ShutdownBudgetSeconds > 300 {
		errs = append(errs, fmt.Errorf("invalid SHUTDOWN_BUDGET_SECONDS %d (must be 1..300)", c.ShutdownBudgetSeconds))
	}

	// Shutdown budget must be greater than drain time
	if c.ShutdownBudgetSeconds <= c.DrainSeconds {
		errs = append(errs, fmt.Errorf("SHUTDOWN_BUDGET_SECONDS %d must be greater than DRAIN_SECONDS %d", c.ShutdownBudgetSeconds, c.DrainSeconds))
	}

	// API port must be valid TCP port number
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP_PORT %d (must be 1..65535)", c.APIPort))
	}

	// The API is never served unauthenticated
	if c.APIToken == "" {
		errs = append(errs, errors.New("API_TOKEN is required"))
	}

	// The analyst is optional, but an enabled analyst needs a model
	if c.ClaudeAPIKey != "" && c.ClaudeModel == "" {
		errs = append(errs, errors.New("CLAUDE_MODEL is required when CLAUDE_API_KEY is set"))
	}

	if c.WindowSize <= 0 || c.WindowSize > 100000 {
		errs = append(errs, fmt.Errorf("invalid WINDOW_SIZE %d (must be 1..100000)", c.WindowSize))
	}
	if c.ScanSize <= 0 || c.ScanSize > 10000 {
		errs = append(errs, fmt.Errorf("invalid SCAN_SIZE %d (must be 1..10000)", c.ScanSize))
	}

	if c.MockStreamEnabled {
		if c.MockStreamInterval <= 0 || c.MockStreamInterval > 3600 {
			errs = append(errs, fmt.Errorf("invalid MOCK_STREAM_INTERVAL %d (must be 1..3600)", c.MockStreamInterval))
		}
		if c.MockStreamMaxAlerts < 0 {
			errs = append(errs, fmt.Errorf("invalid MOCK_STREAM_MAX_ALERTS %d (must be >= 0)", c.MockStreamMaxAlerts))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
