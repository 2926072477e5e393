// Package agent runs the LLM analysis pass over an alert after the
// deterministic engine has produced its outcome. The agent can only
// observe and explain; the engine's decision stands regardless of what
// the model concludes.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/warden/internal/alert"
	"github.com/linnemanlabs/warden/internal/tools"
	"github.com/linnemanlabs/warden/internal/triage"
)

const (
	MaxToolRounds  = 15
	MaxTokens      = 50000
	ResponseTokens = 4096
)

var tracer = otel.Tracer("github.com/linnemanlabs/warden/internal/agent")

// Hooks are optional observation callbacks, invoked synchronously
// during a run. Nil fields are skipped.
type Hooks struct {
	OnLLMCall  func(inputTokens, outputTokens int, duration float64)
	OnToolCall func(name string, duration float64, isError bool)
}

// Agent drives the LLM tool loop for a single alert and implements
// triage.Analyst.
type Agent struct {
	provider     Provider
	registry     *tools.Registry
	logger       log.Logger
	hooks        Hooks
	systemPrompt string
}

// New creates an Agent. The registry holds the read-only SOC tools;
// each run gets its own clone with a run-local decision recorder.
func New(provider Provider, registry *tools.Registry, logger log.Logger, hooks Hooks) *Agent {
	if registry == nil {
		registry = tools.NewRegistry()
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Agent{provider: provider, registry: registry, logger: logger, hooks: hooks}
}

// SetSystemPrompt overrides the built-in system prompt, typically with
// the instructions from an agent definition file.
func (a *Agent) SetSystemPrompt(s string) {
	a.systemPrompt = s
}

func (a *Agent) system() string {
	if a.systemPrompt != "" {
		return a.systemPrompt
	}
	return buildSystemPrompt()
}

// Analyze runs the tool loop until the model finishes, or a budget is
// exhausted. The returned analysis carries the model's final text and
// usage accounting. A provider error fails the run; tool errors are
// surfaced to the model as error tool results and the loop continues.
func (a *Agent) Analyze(ctx context.Context, al *alert.Alert, outcome *triage.Outcome) (*triage.Analysis, error) {
	L := a.logger.With("alert_id", al.ID, "alert", al.Name)

	var recorded *tools.RecordedDecision
	registry := a.registry.Clone()
	registry.Register(tools.NewRecordDecision(func(_ context.Context, d tools.RecordedDecision) {
		recorded = &d
	}))

	messages := []Message{
		{Role: "user", Content: []ContentBlock{
			{Type: "text", Text: buildInitialPrompt(al, outcome)},
		}},
	}

	analysis := &triage.Analysis{}
	var totalTokens int
	var totalToolCalls int
	var lastModel string
	chatSeq := 0

	for {
		if totalToolCalls >= MaxToolRounds {
			L.Warn(ctx, "analysis hit tool call limit", "limit", MaxToolRounds)
			analysis.Text = "Analysis terminated: tool call budget exhausted"
			break
		}
		if totalTokens >= MaxTokens {
			L.Warn(ctx, "analysis hit token limit", "limit", MaxTokens)
			analysis.Text = "Analysis terminated: token budget exhausted"
			break
		}

		resp, err := a.sendLLM(ctx, al, chatSeq, &LLMRequest{
			MaxTokens: ResponseTokens,
			System:    a.system(),
			Messages:  messages,
			Tools:     registry.ToToolDefs(),
		})
		if err != nil {
			L.Error(ctx, err, "llm call failed")
			return nil, fmt.Errorf("llm call: %w", err)
		}
		chatSeq++
		totalTokens += resp.Usage.InputTokens + resp.Usage.OutputTokens
		if resp.Model != "" {
			lastModel = resp.Model
		}

		L.Info(ctx, "llm response",
			"stop_reason", resp.StopReason,
			"input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens,
			"total_tokens", totalTokens,
		)

		messages = append(messages, Message{
			Role:    "assistant",
			Content: resp.Content,
		})

		if resp.StopReason == StopEnd {
			for _, block := range resp.Content {
				if block.Type == "text" {
					analysis.Text = block.Text
				}
			}
			break
		}

		if resp.StopReason == StopToolUse {
			var toolResults []ContentBlock

			for _, block := range resp.Content {
				if block.Type != "tool_use" {
					continue
				}

				totalToolCalls++
				L.Info(ctx, "executing tool",
					"tool", block.Name,
					"call_number", totalToolCalls,
				)
				toolResults = append(toolResults, a.executeTool(ctx, registry, al, block))
			}

			messages = append(messages, Message{
				Role:    "user",
				Content: toolResults,
			})
		}
	}

	analysis.TokensUsed = totalTokens
	analysis.ToolCalls = totalToolCalls
	analysis.AgentVersion = lastModel

	if recorded == nil {
		L.Warn(ctx, "agent finished without recording a decision")
	} else if recorded.Decision != outcome.Decision || recorded.Priority != outcome.Priority {
		L.Warn(ctx, "agent decision differs from engine outcome",
			"agent_decision", recorded.Decision,
			"agent_priority", recorded.Priority,
			"engine_decision", outcome.Decision,
			"engine_priority", outcome.Priority,
		)
	}

	return analysis, nil
}

func (a *Agent) sendLLM(ctx context.Context, al *alert.Alert, seq int, req *LLMRequest) (*LLMResponse, error) {
	ctx, span := tracer.Start(ctx, "llm.call")
	defer span.End()
	span.SetAttributes(
		attribute.String("gen_ai.operation.name", "llm.call"),
		attribute.String("warden.alert.id", al.ID),
		attribute.Int("warden.chat.seq", seq),
	)

	start := time.Now()
	resp, err := a.provider.Send(ctx, req)
	dur := time.Since(start).Seconds()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "llm call failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("gen_ai.response.model", resp.Model),
		attribute.Int("gen_ai.usage.input_tokens", resp.Usage.InputTokens),
		attribute.Int("gen_ai.usage.output_tokens", resp.Usage.OutputTokens),
	)
	if a.hooks.OnLLMCall != nil {
		a.hooks.OnLLMCall(resp.Usage.InputTokens, resp.Usage.OutputTokens, dur)
	}
	return resp, nil
}

func (a *Agent) executeTool(ctx context.Context, registry *tools.Registry, al *alert.Alert, block ContentBlock) ContentBlock {
	ctx, span := tracer.Start(ctx, "tool.execute")
	defer span.End()
	span.SetAttributes(
		attribute.String("gen_ai.operation.name", "tool.execute"),
		attribute.String("gen_ai.tool.name", block.Name),
		attribute.String("warden.alert.id", al.ID),
	)

	result := ContentBlock{Type: "tool_result", ToolUseID: block.ID}

	tool, ok := registry.Get(block.Name)
	if !ok {
		result.Content = fmt.Sprintf("unknown tool: %s", block.Name)
		result.IsError = true
		span.SetAttributes(attribute.Bool("warden.tool.is_error", true))
		return result
	}

	start := time.Now()
	output, err := tool.Execute(ctx, block.Input)
	dur := time.Since(start).Seconds()
	if a.hooks.OnToolCall != nil {
		a.hooks.OnToolCall(block.Name, dur, err != nil)
	}
	if err != nil {
		a.logger.Error(ctx, err, "tool execution failed", "tool", block.Name)
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("warden.tool.is_error", true))
		result.Content = fmt.Sprintf("tool error: %v", err)
		result.IsError = true
		return result
	}

	span.SetAttributes(attribute.Bool("warden.tool.is_error", false))
	result.Content = string(output)
	return result
}

// buildSystemPrompt constructs the SOC analyst persona and the
// expected tool workflow.
func buildSystemPrompt() string {
	return `You are Warden, an expert SOC (Security Operations Center) analyst AI. You triage security alerts.

Follow this triage process:
1. Use get_mitre_context to understand the MITRE ATT&CK techniques in the alert and obtain scenario counts.
2. Use calculate_risk_score with the alert details and the scenario counts to compute the risk score.
3. Use find_correlated_alerts to check whether the alert shares entities with recent alerts.
4. Use record_triage_decision to record your final decision, priority, and rationale.

Decision guidance:
- EscalateToIncident: high risk, likely a real attack needing immediate response.
- CorrelateWithExisting: moderate risk with entity overlap suggesting a known campaign.
- MarkAsFalsePositive: low risk, likely benign activity.
- RequireHumanReview: ambiguous, a human analyst should decide.

After recording your decision, provide a concise written analysis: what is happening, which
entities are involved, how the alert relates to recent activity, and what the responder
should do first. Be concise and operational. This goes to an analyst's Slack channel.`
}

// buildInitialPrompt summarizes the alert and the deterministic triage
// outcome for the model to verify and explain.
func buildInitialPrompt(al *alert.Alert, outcome *triage.Outcome) string {
	entities, _ := json.MarshalIndent(al.Entities, "", "  ")

	var b strings.Builder
	fmt.Fprintf(&b, `New security alert: %s
Alert ID: %s
Severity: %s
Type: %s
Confidence: %d
Generated: %s

Description:
%s

Entities:
%s

MITRE ATT&CK techniques: %s
`,
		al.Name,
		al.ID,
		al.Severity,
		al.Type,
		al.ConfidenceScore,
		al.TimeGenerated.Format(time.RFC3339),
		al.Description,
		string(entities),
		strings.Join(al.MitreTechniques, ", "),
	)

	if outcome != nil {
		fmt.Fprintf(&b, `
The deterministic engine scored this alert %d/100 (%s priority, decision %s).
Verify the assessment with your tools, record your decision, and explain it.`,
			outcome.RiskScore, outcome.Priority, outcome.Decision)
	} else {
		b.WriteString("\nTriage this alert using the available tools, record your decision, and explain it.")
	}
	return b.String()
}
