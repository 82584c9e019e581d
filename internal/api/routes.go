package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Trade routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/trades/{ticker}", handler.GetTradesByTicker).Methods("GET")
	api.HandleFunc("/filings/{year}/{documentID}", handler.GetFilingTrades).Methods("GET")
	api.HandleFunc("/filings/{year}/{documentID}/ingest", handler.RequestFilingIngest).Methods("POST")

	return r
}
