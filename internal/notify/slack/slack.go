// Package slack sends triage decisions to Slack via incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/warden/internal/triage"
)

const (
	maxRationaleLen = 3000
	httpTimeout     = 10 * time.Second
)

// Notifier posts triage results to a Slack webhook. It satisfies
// triage.Notifier; delivery failures are logged, never propagated into
// the triage path.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     log.Logger
}

// New creates a new Slack notifier. If webhookURL is empty, sends are
// a no-op.
func New(webhookURL string, logger log.Logger) *Notifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
		logger:     logger,
	}
}

// TriageCompleted implements triage.Notifier.
func (n *Notifier) TriageCompleted(ctx context.Context, result *triage.Result) {
	if err := n.Send(ctx, result); err != nil {
		n.logger.Error(ctx, err, "slack notification failed", "triage_id", result.ID)
	}
}

// Send posts a triage result to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, result *triage.Result) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(result)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(r *triage.Result) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(r),
			{"type": "divider"},
			fieldsBlock(r),
			{"type": "divider"},
			rationaleBlock(r),
			{"type": "divider"},
			contextBlock(r),
		},
	}
}

func headerBlock(r *triage.Result) map[string]any {
	emoji := priorityEmoji(r.Status, r.Priority)
	title := "Alert Triaged"
	if r.Status == triage.StatusFailed {
		title = "Triage Failed"
	}
	text := fmt.Sprintf("%s %s: %s", emoji, title, r.AlertName)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(r *triage.Result) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Decision:* %s", r.Decision),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Priority:* %s", r.Priority),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Risk score:* %d/100", r.RiskScore),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Severity:* %s", r.Severity),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Correlated:* %d", len(r.CorrelatedAlertIDs)),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Duration:* %.1fs", r.Duration),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func rationaleBlock(r *triage.Result) map[string]any {
	text := truncate(r.Rationale, maxRationaleLen)
	if text == "" {
		text = "_No rationale available._"
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Rationale*\n\n%s", text),
		},
	}
}

func contextBlock(r *triage.Result) map[string]any {
	ts := r.CompletedAt
	if ts.IsZero() {
		ts = r.CreatedAt
	}

	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("warden • triage %s • %s", r.ID, ts.UTC().Format("2006-01-02 15:04 UTC")),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func priorityEmoji(status triage.Status, priority triage.Priority) string {
	if status == triage.StatusFailed {
		return "\U0001f534" // red circle
	}
	switch priority {
	case triage.PriorityCritical:
		return "\U0001f534" // red circle
	case triage.PriorityHigh:
		return "\U0001f7e0" // orange circle
	case triage.PriorityMedium:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
