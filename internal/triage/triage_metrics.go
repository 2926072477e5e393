package triage

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the triage subsystem.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SubmitsTotal      *prometheus.CounterVec
	TriagesTotal      *prometheus.CounterVec
	TriageDuration    *prometheus.HistogramVec
	RiskScore         prometheus.Histogram
	CorrelationsTotal prometheus.Counter
	WindowSize        prometheus.Gauge
	TriageTokens      prometheus.Histogram
	TriageToolCalls   prometheus.Histogram
	LLMCallsTotal     prometheus.Counter
	LLMTokensIn       prometheus.Counter
	LLMTokensOut      prometheus.Counter
	LLMDuration       prometheus.Histogram
	ToolCallsTotal    *prometheus.CounterVec
	ToolDuration      *prometheus.HistogramVec
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SubmitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_submits_total",
			Help: "Total alert submissions by result.",
		}, []string{"result"}),
		TriagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_triages_total",
			Help: "Total triage runs by decision and priority.",
		}, []string{"decision", "priority"}),
		TriageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "warden_triage_duration_seconds",
			Help:    "Duration of triage runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms .. ~260s
		}, []string{"status"}),
		RiskScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "warden_triage_risk_score",
			Help:    "Risk score distribution of triaged alerts.",
			Buckets: prometheus.LinearBuckets(0, 10, 11), // 0 .. 100
		}),
		CorrelationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_correlations_total",
			Help: "Total triage runs that found correlated alerts.",
		}),
		WindowSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "warden_window_alerts",
			Help: "Alerts currently held in the sliding correlation window.",
		}),
		TriageTokens: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "warden_triage_tokens",
			Help:    "Tokens consumed per analyst run.",
			Buckets: prometheus.ExponentialBuckets(100, 2, 12),
		}),
		TriageToolCalls: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "warden_triage_tool_calls",
			Help:    "Tool calls per analyst run.",
			Buckets: prometheus.LinearBuckets(0, 1, 16),
		}),
		LLMCallsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_llm_calls_total",
			Help: "Total LLM provider calls.",
		}),
		LLMTokensIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_llm_tokens_input_total",
			Help: "Total LLM input tokens consumed.",
		}),
		LLMTokensOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "warden_llm_tokens_output_total",
			Help: "Total LLM output tokens consumed.",
		}),
		LLMDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "warden_llm_call_duration_seconds",
			Help:    "Duration of individual LLM calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
		}),
		ToolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "warden_tool_calls_total",
			Help: "Total tool executions by tool name and status.",
		}, []string{"tool", "status"}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "warden_tool_duration_seconds",
			Help:    "Duration of tool executions in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"tool"}),
	}

	reg.MustRegister(
		m.SubmitsTotal,
		m.TriagesTotal,
		m.TriageDuration,
		m.RiskScore,
		m.CorrelationsTotal,
		m.WindowSize,
		m.TriageTokens,
		m.TriageToolCalls,
		m.LLMCallsTotal,
		m.LLMTokensIn,
		m.LLMTokensOut,
		m.LLMDuration,
		m.ToolCallsTotal,
		m.ToolDuration,
	)

	return m
}

// IncSubmit counts one submission with the given result label.
func (m *Metrics) IncSubmit(result string) {
	if m == nil {
		return
	}
	m.SubmitsTotal.WithLabelValues(result).Inc()
}

// ObserveRun records the outcome of one completed triage run.
func (m *Metrics) ObserveRun(r *Result) {
	if m == nil {
		return
	}
	m.TriagesTotal.WithLabelValues(string(r.Decision), string(r.Priority)).Inc()
	m.TriageDuration.WithLabelValues(string(r.Status)).Observe(r.Duration)
	m.RiskScore.Observe(float64(r.RiskScore))
	if len(r.CorrelatedAlertIDs) > 0 {
		m.CorrelationsTotal.Inc()
	}
	if r.TokensUsed > 0 {
		m.TriageTokens.Observe(float64(r.TokensUsed))
		m.TriageToolCalls.Observe(float64(r.ToolCalls))
	}
}

// SetWindowSize records the current sliding window occupancy.
func (m *Metrics) SetWindowSize(n int) {
	if m == nil {
		return
	}
	m.WindowSize.Set(float64(n))
}

// OnLLMCall counts one LLM provider call.
func (m *Metrics) OnLLMCall(inputTokens, outputTokens int, duration float64) {
	if m == nil {
		return
	}
	m.LLMCallsTotal.Inc()
	m.LLMTokensIn.Add(float64(inputTokens))
	m.LLMTokensOut.Add(float64(outputTokens))
	m.LLMDuration.Observe(duration)
}

// OnToolCall counts one tool execution.
func (m *Metrics) OnToolCall(name string, duration float64, isError bool) {
	if m == nil {
		return
	}
	status := "success"
	if isError {
		status = "error"
	}
	m.ToolCallsTotal.WithLabelValues(name, status).Inc()
	m.ToolDuration.WithLabelValues(name).Observe(duration)
}
