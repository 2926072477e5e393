// Package pgstore provides a PostgreSQL implementation of triage.Store.
package pgstore

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/warden/internal/triage"
)

var tracer = otel.Tracer("github.com/linnemanlabs/warden/internal/triage/pgstore")

//go:embed schema.sql
var schema string

// Store persists triage results in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store. The pool is owned
// by the caller.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const triageColumns = `id, alert_id, alert_name, severity, status, risk_score, breakdown,
	priority, decision, correlated_ids, rationale, analysis,
	created_at, completed_at, duration_s, tokens_used, tool_calls, agent_version`

// Get retrieves a triage result by ID.
//
//nolint:dupl // similar structure to GetByAlertID is intentional
func (s *Store) Get(ctx context.Context, id string) (*triage.Result, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + triageColumns + ` FROM triage_runs WHERE id = $1`
	r, err := scanTriageRow(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

// GetByAlertID retrieves the most recent triage result for an alert.
//
//nolint:dupl // similar structure to Get is intentional
func (s *Store) GetByAlertID(ctx context.Context, alertID string) (*triage.Result, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.GetByAlertID", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + triageColumns + ` FROM triage_runs WHERE alert_id = $1 ORDER BY created_at DESC LIMIT 1`
	r, err := scanTriageRow(s.pool.QueryRow(ctx, query, alertID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

// Put inserts or updates a triage result.
func (s *Store) Put(ctx context.Context, r *triage.Result) error {
	ctx, span := tracer.Start(ctx, "pgstore.Put", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "UPSERT"),
	))
	defer span.End()

	breakdownJSON, err := json.Marshal(r.Breakdown)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}
	correlated := r.CorrelatedAlertIDs
	if correlated == nil {
		correlated = []string{}
	}
	correlatedJSON, err := json.Marshal(correlated)
	if err != nil {
		return fmt.Errorf("marshal correlated ids: %w", err)
	}

	var completedAt *time.Time
	if !r.CompletedAt.IsZero() {
		completedAt = &r.CompletedAt
	}

	query := `INSERT INTO triage_runs (
		id, alert_id, alert_name, severity, status, risk_score, breakdown,
		priority, decision, correlated_ids, rationale, analysis,
		created_at, completed_at, duration_s, tokens_used, tool_calls, agent_version
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
	ON CONFLICT (id) DO UPDATE SET
		alert_id       = EXCLUDED.alert_id,
		alert_name     = EXCLUDED.alert_name,
		severity       = EXCLUDED.severity,
		status         = EXCLUDED.status,
		risk_score     = EXCLUDED.risk_score,
		breakdown      = EXCLUDED.breakdown,
		priority       = EXCLUDED.priority,
		decision       = EXCLUDED.decision,
		correlated_ids = EXCLUDED.correlated_ids,
		rationale      = EXCLUDED.rationale,
		analysis       = EXCLUDED.analysis,
		completed_at   = EXCLUDED.completed_at,
		duration_s     = EXCLUDED.duration_s,
		tokens_used    = EXCLUDED.tokens_used,
		tool_calls     = EXCLUDED.tool_calls,
		agent_version  = EXCLUDED.agent_version`

	_, err = s.pool.Exec(ctx, query,
		r.ID, r.AlertID, r.AlertName, r.Severity, string(r.Status), r.RiskScore, breakdownJSON,
		string(r.Priority), string(r.Decision), correlatedJSON, r.Rationale, r.Analysis,
		r.CreatedAt, completedAt, r.Duration, r.TokensUsed, r.ToolCalls, r.AgentVersion,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upsert triage: %w", err)
	}
	return nil
}

// List returns up to limit results, most recently created first.
func (s *Store) List(ctx context.Context, limit int) ([]*triage.Result, error) {
	ctx, span := tracer.Start(ctx, "pgstore.List", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + triageColumns + ` FROM triage_runs ORDER BY created_at DESC LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query triage_runs: %w", err)
	}
	defer rows.Close()

	var out []*triage.Result
	for rows.Next() {
		r, err := scanTriageRow(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate triage_runs: %w", err)
	}
	return out, nil
}

// scanTriageRow scans a single row into a triage.Result. Returns
// (nil, nil) when no row is found.
func scanTriageRow(row pgx.Row) (*triage.Result, error) {
	var (
		r              triage.Result
		status         string
		priority       string
		decision       string
		breakdownJSON  []byte
		correlatedJSON []byte
		completedAt    *time.Time
	)

	err := row.Scan(
		&r.ID, &r.AlertID, &r.AlertName, &r.Severity, &status, &r.RiskScore, &breakdownJSON,
		&priority, &decision, &correlatedJSON, &r.Rationale, &r.Analysis,
		&r.CreatedAt, &completedAt, &r.Duration, &r.TokensUsed, &r.ToolCalls, &r.AgentVersion,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan: %w", err)
	}

	r.Status = triage.Status(status)
	r.Priority = triage.Priority(priority)
	r.Decision = triage.Decision(decision)

	if completedAt != nil {
		r.CompletedAt = *completedAt
	}

	if err := json.Unmarshal(breakdownJSON, &r.Breakdown); err != nil {
		return nil, fmt.Errorf("unmarshal breakdown: %w", err)
	}
	var correlated []string
	if err := json.Unmarshal(correlatedJSON, &correlated); err != nil {
		return nil, fmt.Errorf("unmarshal correlated ids: %w", err)
	}
	if len(correlated) > 0 {
		r.CorrelatedAlertIDs = correlated
	}

	return &r, nil
}
