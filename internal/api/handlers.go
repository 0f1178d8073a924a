package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/svattam/sewer-server/internal/dashboard"
	"github.com/svattam/sewer-server/internal/database"
	"github.com/svattam/sewer-server/internal/ingest"
	"github.com/svattam/sewer-server/pkg/config"
)

// Store is the slice of the storage layer the handlers use directly,
// outside the ingestion and dashboard paths.
type Store interface {
	ListAlerts(ctx context.Context, limit int) ([]*database.Alert, error)
	AllReadings(ctx context.Context) ([]*database.Reading, error)
	AcknowledgeAlert(ctx context.Context, alertID int64) error
}

// Sessions is the operator session store.
type Sessions interface {
	Create(ctx context.Context, username string) (string, error)
	Get(ctx context.Context, token string) (string, error)
	Destroy(ctx context.Context, token string) error
}

// Handler bundles the HTTP handlers for the server binary.
type Handler struct {
	coordinator *ingest.Coordinator
	aggregator  *dashboard.Aggregator
	store       Store
	sessions    Sessions
	auth        config.AuthConfig
}

// NewHandler creates a new API handler.
func NewHandler(coordinator *ingest.Coordinator, aggregator *dashboard.Aggregator, store Store, sessions Sessions, auth config.AuthConfig) *Handler {
	return &Handler{
		coordinator: coordinator,
		aggregator:  aggregator,
		store:       store,
		sessions:    sessions,
		auth:        auth,
	}
}

// HandleIngest receives sensor data from field nodes: POST /data
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.coordinator.Ingest(r.Context(), payload)
	if err != nil {
		if errors.Is(err, ingest.ErrMalformedPayload) {
			writeError(w, http.StatusBadRequest, "no json")
			return
		}
		log.Printf("Ingest failed: %v", err)
		writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"node_id": result.NodeID,
		"alerts":  result.AlertCount,
	})
}

// HandleDashboard serves the aggregated read model: GET /api/dashboard
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.aggregator.Snapshot(r.Context())
	if err != nil {
		log.Printf("Dashboard snapshot failed: %v", err)
		writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// HandleListAlerts serves the raw alert list, newest first: GET /api/alerts
func (h *Handler) HandleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.store.ListAlerts(r.Context(), 200)
	if err != nil {
		log.Printf("Alert list failed: %v", err)
		writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	views := make([]alertJSON, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, alertJSON{
			ID:           a.ID,
			NodeID:       a.NodeID,
			Type:         a.Type,
			Message:      a.Message,
			Severity:     a.Severity,
			Acknowledged: a.Acknowledged,
			CreatedAt:    a.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, views)
}

type alertJSON struct {
	ID           int64     `json:"id"`
	NodeID       string    `json:"node_id"`
	Type         string    `json:"type"`
	Message      string    `json:"message"`
	Severity     string    `json:"severity"`
	Acknowledged bool      `json:"acknowledged"`
	CreatedAt    time.Time `json:"created_at"`
}

// HandleAcknowledge flips one alert to acknowledged:
// POST /api/alerts/{id}/acknowledge
//
// An unknown id is still a success; the update is an idempotent no-op.
func (h *Handler) HandleAcknowledge(w http.ResponseWriter, r *http.Request) {
	alertID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid alert id")
		return
	}

	if err := h.store.AcknowledgeAlert(r.Context(), alertID); err != nil {
		log.Printf("Acknowledge failed: %v", err)
		writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleExport streams the full reading history as CSV: GET /api/export
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	readings, err := h.store.AllReadings(r.Context())
	if err != nil {
		log.Printf("Export failed: %v", err)
		writeError(w, http.StatusInternalServerError, "storage unavailable")
		return
	}

	filename := fmt.Sprintf("sewer_data_%s.csv", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	cw := csv.NewWriter(w)
	cw.Write([]string{"id", "node_id", "created_at", "mq4", "mq7", "mq135", "water_level", "health_score"})
	for _, reading := range readings {
		cw.Write([]string{
			strconv.FormatInt(reading.ID, 10),
			reading.NodeID,
			reading.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatFloat(reading.MQ4, 'g', -1, 64),
			strconv.FormatFloat(reading.MQ7, 'g', -1, 64),
			strconv.FormatFloat(reading.MQ135, 'g', -1, 64),
			strconv.FormatFloat(reading.WaterLevel, 'g', -1, 64),
			strconv.Itoa(reading.HealthScore),
		})
	}
	cw.Flush()

	if err := cw.Error(); err != nil {
		log.Printf("CSV write failed: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
