package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/tatracker/internal/api/handlers"
	"github.com/wonny/tatracker/internal/metrics"
	"github.com/wonny/tatracker/pkg/config"
	"github.com/wonny/tatracker/pkg/logger"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(cfg *config.Config, analysisHandler *handlers.AnalysisHandler, hub *ProgressHub, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if cfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler()).Methods("GET")
	}

	// Batch progress push
	r.HandleFunc("/ws/progress", hub.Handle)

	// API v1
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/analysis", analysisHandler.GetAnalysis).Methods("GET")
	api.HandleFunc("/analysis/refresh", analysisHandler.Refresh).Methods("POST")
	api.HandleFunc("/stocklist", analysisHandler.GetStockList).Methods("GET")
	api.HandleFunc("/history/{ticker}", analysisHandler.GetHistory).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "tatracker-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
