package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/user/agro-alert/internal/adapter/api/middleware"
	"github.com/user/agro-alert/internal/adapter/queue/redisqueue"
)

// Enqueuer is the slice of the scheduler the admin surface needs: the two
// on-demand producers exposed to collaborating services.
type Enqueuer interface {
	EnqueueAlertCheck(ctx context.Context, ruleID string) (string, error)
	EnqueueWeatherUpdate(ctx context.Context, locationID string) (string, error)
}

// QueueInspector reports queue stream stats for operators. Only the
// durable backend implements it; the synchronous queue passes nil.
type QueueInspector interface {
	Stats(ctx context.Context) ([]redisqueue.StreamStats, error)
}

// NewAdminRouter builds the ops mux: health, metrics, queue stats, and the
// two on-demand enqueue endpoints. Business routing stays in the
// rule-management service; this surface is operators-only.
func NewAdminRouter(enq Enqueuer, inspector QueueInspector, token string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	h := &adminHandler{enq: enq, inspector: inspector, logger: logger.With("component", "admin_api")}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	protected := middleware.Auth(token, logger)
	mux.Handle("GET /v1/queue/stats", protected(http.HandlerFunc(h.queueStats)))
	mux.Handle("POST /v1/enqueue/alert-check", protected(http.HandlerFunc(h.enqueueAlertCheck)))
	mux.Handle("POST /v1/enqueue/weather-update", protected(http.HandlerFunc(h.enqueueWeatherUpdate)))

	return middleware.Logging(logger)(mux)
}

type adminHandler struct {
	enq       Enqueuer
	inspector QueueInspector
	logger    *slog.Logger
}

func (h *adminHandler) queueStats(w http.ResponseWriter, r *http.Request) {
	if h.inspector == nil {
		http.Error(w, "queue stats unavailable for this backend", http.StatusNotImplemented)
		return
	}
	stats, err := h.inspector.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to collect queue stats", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *adminHandler) enqueueAlertCheck(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RuleID string `json:"rule_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RuleID == "" {
		http.Error(w, "rule_id is required", http.StatusBadRequest)
		return
	}
	jobID, err := h.enq.EnqueueAlertCheck(r.Context(), body.RuleID)
	if err != nil {
		h.logger.Error("failed to enqueue alert check", "rule_id", body.RuleID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

func (h *adminHandler) enqueueWeatherUpdate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		LocationID string `json:"location_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.LocationID == "" {
		http.Error(w, "location_id is required", http.StatusBadRequest)
		return
	}
	jobID, err := h.enq.EnqueueWeatherUpdate(r.Context(), body.LocationID)
	if err != nil {
		h.logger.Error("failed to enqueue weather update", "location_id", body.LocationID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
