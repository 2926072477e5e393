package cfg

import (
	"flag"
	"math"
	"strings"
	"testing"
)

// validBase returns a Config with all required fields set to valid values.
func validBase() Config {
	return Config{
		DrainSeconds:          60,
		ShutdownBudgetSeconds: 90,
		APIPort:               8080,
		APIToken:              "test-token-123",
		ClaudeModel:           "claude-sonnet-4-20250514",
		WindowSize:            1000,
		ScanSize:              100,
	}
}

func TestRegisterFlags_Defaults(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse empty args: %v", err)
	}

	if c.DrainSeconds != 60 {
		t.Errorf("DrainSeconds = %d, want 60", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 90 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 90", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", c.APIPort)
	}
	if c.ClaudeModel != "claude-sonnet-4-20250514" {
		t.Errorf("ClaudeModel = %q, want %q", c.ClaudeModel, "claude-sonnet-4-20250514")
	}
	if c.WindowSize != 1000 {
		t.Errorf("WindowSize = %d, want 1000", c.WindowSize)
	}
	if c.ScanSize != 100 {
		t.Errorf("ScanSize = %d, want 100", c.ScanSize)
	}
	if !c.LowPrevalencePolicy {
		t.Error("LowPrevalencePolicy = false, want true")
	}
	if c.MockStreamEnabled {
		t.Error("MockStreamEnabled = true, want false")
	}
	if c.MockStreamInterval != 5 {
		t.Errorf("MockStreamInterval = %d, want 5", c.MockStreamInterval)
	}
	if c.MockStreamSeed != 42 {
		t.Errorf("MockStreamSeed = %d, want 42", c.MockStreamSeed)
	}
}

func TestRegisterFlags_Override(t *testing.T) {
	t.Parallel()

	var c Config
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)

	args := []string{
		"-drain-seconds", "30",
		"-shutdown-budget-seconds", "120",
		"-http-port", "9090",
		"-api-token", "tok-override",
		"-claude-api-key", "sk-override",
		"-claude-model", "claude-opus-4-20250514",
		"-window-size", "500",
		"-scan-size", "50",
		"-low-prevalence-policy=false",
		"-mock-stream",
		"-mock-stream-interval", "2",
		"-mock-stream-max-alerts", "25",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse args: %v", err)
	}

	if c.DrainSeconds != 30 {
		t.Errorf("DrainSeconds = %d, want 30", c.DrainSeconds)
	}
	if c.ShutdownBudgetSeconds != 120 {
		t.Errorf("ShutdownBudgetSeconds = %d, want 120", c.ShutdownBudgetSeconds)
	}
	if c.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", c.APIPort)
	}
	if c.APIToken != "tok-override" {
		t.Errorf("APIToken = %q, want %q", c.APIToken, "tok-override")
	}
	if c.ClaudeAPIKey != "sk-override" {
		t.Errorf("ClaudeAPIKey = %q, want %q", c.ClaudeAPIKey, "sk-override")
	}
	if c.ClaudeModel != "claude-opus-4-20250514" {
		t.Errorf("ClaudeModel = %q, want %q", c.ClaudeModel, "claude-opus-4-20250514")
	}
	if c.WindowSize != 500 {
		t.Errorf("WindowSize = %d, want 500", c.WindowSize)
	}
	if c.ScanSize != 50 {
		t.Errorf("ScanSize = %d, want 50", c.ScanSize)
	}
	if c.LowPrevalencePolicy {
		t.Error("LowPrevalencePolicy = true, want false")
	}
	if !c.MockStreamEnabled {
		t.Error("MockStreamEnabled = false, want true")
	}
	if c.MockStreamInterval != 2 {
		t.Errorf("MockStreamInterval = %d, want 2", c.MockStreamInterval)
	}
	if c.MockStreamMaxAlerts != 25 {
		t.Errorf("MockStreamMaxAlerts = %d, want 25", c.MockStreamMaxAlerts)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantErr   bool
		errSubstr []string // substrings that must appear in error message
	}{
		{
			name:    "base is valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name: "minimum valid values",
			mutate: func(c *Config) {
				c.DrainSeconds, c.ShutdownBudgetSeconds, c.APIPort = 1, 2, 1
				c.WindowSize, c.ScanSize = 1, 1
			},
			wantErr: false,
		},
		{
			name: "maximum valid values",
			mutate: func(c *Config) {
				c.DrainSeconds, c.ShutdownBudgetSeconds, c.APIPort = 299, 300, 65535
				c.WindowSize, c.ScanSize = 100000, 10000
			},
			wantErr: false,
		},
		// DrainSeconds boundaries
		{
			name:      "drain zero",
			mutate:    func(c *Config) { c.DrainSeconds = 0 },
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:      "drain negative",
			mutate:    func(c *Config) { c.DrainSeconds = -1 },
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		{
			name:      "drain above max",
			mutate:    func(c *Config) { c.DrainSeconds, c.ShutdownBudgetSeconds = 301, 302 },
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS"},
		},
		// ShutdownBudgetSeconds boundaries
		{
			name:      "budget zero",
			mutate:    func(c *Config) { c.ShutdownBudgetSeconds = 0 },
			wantErr:   true,
			errSubstr: []string{"SHUTDOWN_BUDGET_SECONDS"},
		},
		{
			name:      "budget above max",
			mutate:    func(c *Config) { c.ShutdownBudgetSeconds = 301 },
			wantErr:   true,
			errSubstr: []string{"SHUTDOWN_BUDGET_SECONDS"},
		},
		// Cross-field: budget vs drain
		{
			name:      "budget equals drain",
			mutate:    func(c *Config) { c.ShutdownBudgetSeconds = c.DrainSeconds },
			wantErr:   true,
			errSubstr: []string{"must be greater than"},
		},
		{
			name:      "budget less than drain",
			mutate:    func(c *Config) { c.ShutdownBudgetSeconds = c.DrainSeconds - 10 },
			wantErr:   true,
			errSubstr: []string{"must be greater than"},
		},
		// APIPort boundaries
		{
			name:      "port zero",
			mutate:    func(c *Config) { c.APIPort = 0 },
			wantErr:   true,
			errSubstr: []string{"HTTP_PORT"},
		},
		{
			name:      "port above max",
			mutate:    func(c *Config) { c.APIPort = 65536 },
			wantErr:   true,
			errSubstr: []string{"HTTP_PORT"},
		},
		// Required strings
		{
			name:      "empty api token",
			mutate:    func(c *Config) { c.APIToken = "" },
			wantErr:   true,
			errSubstr: []string{"API_TOKEN"},
		},
		{
			name:    "empty claude key is valid",
			mutate:  func(c *Config) { c.ClaudeAPIKey = "" },
			wantErr: false,
		},
		{
			name:      "claude key without model",
			mutate:    func(c *Config) { c.ClaudeAPIKey, c.ClaudeModel = "sk-test", "" },
			wantErr:   true,
			errSubstr: []string{"CLAUDE_MODEL"},
		},
		{
			name:    "empty model without key is valid",
			mutate:  func(c *Config) { c.ClaudeModel = "" },
			wantErr: false,
		},
		// Window and scan bounds
		{
			name:      "window zero",
			mutate:    func(c *Config) { c.WindowSize = 0 },
			wantErr:   true,
			errSubstr: []string{"WINDOW_SIZE"},
		},
		{
			name:      "window above max",
			mutate:    func(c *Config) { c.WindowSize = 100001 },
			wantErr:   true,
			errSubstr: []string{"WINDOW_SIZE"},
		},
		{
			name:      "scan zero",
			mutate:    func(c *Config) { c.ScanSize = 0 },
			wantErr:   true,
			errSubstr: []string{"SCAN_SIZE"},
		},
		{
			name:      "scan above max",
			mutate:    func(c *Config) { c.ScanSize = 10001 },
			wantErr:   true,
			errSubstr: []string{"SCAN_SIZE"},
		},
		// Mock stream fields only validated when enabled
		{
			name: "disabled stream ignores bad interval",
			mutate: func(c *Config) {
				c.MockStreamEnabled, c.MockStreamInterval = false, -5
			},
			wantErr: false,
		},
		{
			name: "enabled stream rejects zero interval",
			mutate: func(c *Config) {
				c.MockStreamEnabled, c.MockStreamInterval = true, 0
			},
			wantErr:   true,
			errSubstr: []string{"MOCK_STREAM_INTERVAL"},
		},
		{
			name: "enabled stream rejects negative max alerts",
			mutate: func(c *Config) {
				c.MockStreamEnabled, c.MockStreamInterval, c.MockStreamMaxAlerts = true, 5, -1
			},
			wantErr:   true,
			errSubstr: []string{"MOCK_STREAM_MAX_ALERTS"},
		},
		{
			name: "enabled stream with valid settings",
			mutate: func(c *Config) {
				c.MockStreamEnabled, c.MockStreamInterval, c.MockStreamMaxAlerts = true, 1, 100
			},
			wantErr: false,
		},
		// Error accumulation
		{
			name: "all fields invalid",
			mutate: func(c *Config) {
				*c = Config{}
			},
			wantErr: true,
			errSubstr: []string{
				"DRAIN_SECONDS", "SHUTDOWN_BUDGET_SECONDS", "HTTP_PORT",
				"API_TOKEN", "WINDOW_SIZE", "SCAN_SIZE",
			},
		},
		{
			name: "extreme negative values",
			mutate: func(c *Config) {
				c.DrainSeconds, c.ShutdownBudgetSeconds, c.APIPort = math.MinInt32, math.MinInt32, math.MinInt32
			},
			wantErr:   true,
			errSubstr: []string{"DRAIN_SECONDS", "SHUTDOWN_BUDGET_SECONDS", "HTTP_PORT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := validBase()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				errMsg := err.Error()
				for _, sub := range tt.errSubstr {
					if !strings.Contains(errMsg, sub) {
						t.Errorf("error %q does not contain %q", errMsg, sub)
					}
				}
			}
		})
	}
}

func FuzzValidate(f *testing.F) {
	// Seeds: defaults, boundaries, extremes
	seeds := []struct {
		drain, budget, port, window, scan int
		token                             string
	}{
		{60, 90, 8080, 1000, 100, "tok"},
		{1, 2, 1, 1, 1, "t"},
		{299, 300, 65535, 100000, 10000, "t"},
		{0, 0, 0, 0, 0, ""},
		{-1, -1, -1, -1, -1, ""},
		{301, 302, 65536, 100001, 10001, ""},
		{150, 100, 8080, 1000, 100, "t"},
		{math.MinInt32, math.MinInt32, math.MinInt32, math.MinInt32, math.MinInt32, ""},
		{math.MaxInt32, math.MaxInt32, math.MaxInt32, math.MaxInt32, math.MaxInt32, ""},
	}
	for _, s := range seeds {
		f.Add(s.drain, s.budget, s.port, s.window, s.scan, s.token)
	}

	f.Fuzz(func(t *testing.T, drain, budget, port, window, scan int, token string) {
		c := Config{
			DrainSeconds:          drain,
			ShutdownBudgetSeconds: budget,
			APIPort:               port,
			APIToken:              token,
			WindowSize:            window,
			ScanSize:              scan,
		}
		err := c.Validate()

		drainOK := drain >= 1 && drain <= 300
		budgetOK := budget >= 1 && budget <= 300
		portOK := port >= 1 && port <= 65535
		crossOK := budget > drain
		tokenOK := token != ""
		windowOK := window >= 1 && window <= 100000
		scanOK := scan >= 1 && scan <= 10000

		allValid := drainOK && budgetOK && portOK && crossOK && tokenOK && windowOK && scanOK

		if allValid && err != nil {
			t.Errorf("expected no error for valid config %+v, got: %v", c, err)
		}
		if !allValid && err == nil {
			t.Errorf("expected error for invalid config %+v, got nil", c)
		}
	})
}
