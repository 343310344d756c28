// cmd/worker-manager/server.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"paperless-workers/internal/common/jobstatus"
	"paperless-workers/internal/common/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type jobLookup interface {
	Get(ctx context.Context, jobKey int64) (*jobstatus.Record, error)
}

// newServer serves /health, /ready, /metrics and /jobs/{key}.
func newServer(pg, redis pinger, jobs jobLookup, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	mux.HandleFunc("GET /ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{"postgres": "ok", "redis": "ok"}
		status := http.StatusOK
		for name, p := range map[string]pinger{"postgres": pg, "redis": redis} {
			if err := p.Ping(ctx); err != nil {
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
			}
		}
		body := map[string]interface{}{"status": "ready", "checks": checks}
		if status != http.StatusOK {
			body["status"] = "not ready"
		}
		writeJSON(w, status, body)
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /jobs/{key}", func(w http.ResponseWriter, r *http.Request) {
		key, err := strconv.ParseInt(r.PathValue("key"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "job key must be an integer"})
			return
		}
		rec, err := jobs.Get(r.Context(), key)
		switch {
		case errors.Is(err, jobstatus.ErrUnknownJob):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case err != nil:
			log.Error("job status lookup failed", map[string]interface{}{"jobKey": key, "error": err.Error()})
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "job status unavailable"})
		default:
			writeJSON(w, http.StatusOK, rec)
		}
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
