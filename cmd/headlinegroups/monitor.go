package main

import (
	"encoding/json"
	"net/http"

	"github.com/deusflow/headlinegroups/internal/logger"
	"github.com/deusflow/headlinegroups/internal/metrics"
)

func startMonitoringServer(port string) {
	if port == "" {
		port = "8080"
	}

	logger.Info("starting monitoring server", "port", port)
	if err := http.ListenAndServe(":"+port, monitoringMux()); err != nil {
		logger.Error("monitoring server error", "error", err)
	}
}

func monitoringMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/metrics", metricsHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	healthy, _ := stats["is_healthy"].(bool)
	w.Header().Set("Content-Type", "application/json")
	if !healthy {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(metrics.Global.GetStats())
}
