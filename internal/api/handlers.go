package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/trogers1052/congress-trades-service/internal/database"
	"github.com/trogers1052/congress-trades-service/internal/kafka"
)

const defaultTradeLimit = 100

// Handler holds dependencies for HTTP handlers
type Handler struct {
	db       *database.DB
	producer *kafka.Producer
}

// NewHandler creates a new Handler
func NewHandler(db *database.DB, producer *kafka.Producer) *Handler {
	return &Handler{
		db:       db,
		producer: producer,
	}
}

// GetTradesByTicker handles GET /api/v1/trades/{ticker}
func (h *Handler) GetTradesByTicker(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	ticker := strings.ToUpper(vars["ticker"])

	limit := defaultTradeLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	trades, err := h.db.GetTradesByTicker(r.Context(), ticker, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, trades)
}

// GetFilingTrades handles GET /api/v1/filings/{year}/{documentID}
func (h *Handler) GetFilingTrades(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		http.Error(w, "year must be an integer", http.StatusBadRequest)
		return
	}

	trades, err := h.db.GetTradesByFiling(r.Context(), year, vars["documentID"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(trades) == 0 {
		http.Error(w, "filing not found", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, trades)
}

// RequestFilingIngest handles POST /api/v1/filings/{year}/{documentID}/ingest.
// It only enqueues the request; the kafka consumer performs the ingestion.
func (h *Handler) RequestFilingIngest(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	year, err := strconv.Atoi(vars["year"])
	if err != nil {
		http.Error(w, "year must be an integer", http.StatusBadRequest)
		return
	}
	documentID := vars["documentID"]
	if documentID == "" {
		http.Error(w, "document id is required", http.StatusBadRequest)
		return
	}

	if h.producer == nil {
		http.Error(w, "ingestion requests are not enabled", http.StatusServiceUnavailable)
		return
	}
	if err := h.producer.PublishFilingRequested(r.Context(), year, documentID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status":      "queued",
		"document_id": documentID,
	})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
