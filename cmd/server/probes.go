package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/JaimeStill/docai/internal/infrastructure"
	"github.com/JaimeStill/docai/pkg/module"
)

const readinessTimeout = 2 * time.Second

// registerProbes adds liveness and readiness endpoints outside the API prefix.
// Readiness requires completed startup and a reachable database.
func registerProbes(router *module.Router, infra *infrastructure.Infrastructure) {
	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondStatus(w, http.StatusOK, "ok")
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			respondStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if err := infra.Database.Check(ctx); err != nil {
			respondStatus(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		respondStatus(w, http.StatusOK, "ready")
	})
}

func respondStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
