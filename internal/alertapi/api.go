// Package alertapi exposes the alert ingestion and triage lookup HTTP
// endpoints.
package alertapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"
	"github.com/linnemanlabs/warden/internal/alert"
	"github.com/linnemanlabs/warden/internal/triage"
)

const defaultRecentLimit = 50

// TriageService defines the business operations alertapi needs.
type TriageService interface {
	Submit(ctx context.Context, al *alert.Alert) (*triage.SubmitResult, error)
	SubmitBatch(ctx context.Context, alerts []*alert.Alert) ([]*triage.SubmitResult, error)
	Get(ctx context.Context, id string) (*triage.Result, bool, error)
	Recent(ctx context.Context, limit int) ([]*triage.Result, error)
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger log.Logger
	svc    TriageService
}

// New creates a new API handler.
func New(logger log.Logger, svc TriageService) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("triage service is required"))
	}
	return &API{
		logger: logger,
		svc:    svc,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/alerts", a.handleIngestAlerts)
		r.Get("/alerts/recent", a.handleRecent)
		r.Get("/triage/{id}", a.handleGetTriage)
	})
}

// ingestPayload accepts either a single alert object or a batch under
// an "alerts" key.
type ingestPayload struct {
	Alerts []*alert.Alert `json:"alerts"`
	alert.Alert
}

func (a *API) handleIngestAlerts(w http.ResponseWriter, r *http.Request) {
	var payload ingestPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	alerts := payload.Alerts
	if len(alerts) == 0 && (payload.ID != "" || payload.Name != "") {
		alerts = []*alert.Alert{&payload.Alert}
	}

	results, err := a.svc.SubmitBatch(r.Context(), alerts)
	if err != nil {
		a.logger.Error(r.Context(), err, "alert submit failed")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}

	accepted := make([]string, 0, len(results))
	skipped := make([]map[string]string, 0)
	for _, res := range results {
		if res.Skipped {
			skipped = append(skipped, map[string]string{"id": res.ID, "reason": res.Reason})
			continue
		}
		accepted = append(accepted, res.ID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"accepted": accepted,
		"skipped":  skipped,
	})
}

func (a *API) handleGetTriage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("warden.triage.id", id))

	result, ok, err := a.svc.Get(r.Context(), id)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to get triage result", "id", id)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	span.SetAttributes(attribute.String("warden.triage.status", string(result.Status)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (a *API) handleRecent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, `{"error":"invalid limit"}`, http.StatusBadRequest)
			return
		}
		limit = n
	}

	results, err := a.svc.Recent(r.Context(), limit)
	if err != nil {
		a.logger.Error(r.Context(), err, "failed to list recent triage results")
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []*triage.Result{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"results": results,
		"count":   len(results),
	})
}
