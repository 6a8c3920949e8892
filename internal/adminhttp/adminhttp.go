// Package adminhttp is IPDIS's administrative and health HTTP surface,
// kept separate from the signed-RPC transport the way the teacher repo
// keeps its JSON HTTP views (cmd/dexserver, cmd/xchainserver/server)
// separate from core's binary wire protocols. Routed with
// github.com/go-chi/chi/v5, a router carried in the teacher's go.mod.
package adminhttp

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ipdis-project/ipdis/internal/logging"
)

// pinger is the subset of *store.Store this package depends on, so tests
// can stub it without a live Postgres connection.
type pinger interface {
	Ping(ctx context.Context) error
}

// New builds the admin HTTP handler: a liveness probe, a readiness probe
// that checks the storage pool, and a version stamp.
func New(st pinger, version string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"version": version})
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.Logger().WithField("path", r.URL.Path).Debug("adminhttp: request")
		next.ServeHTTP(w, r)
	})
}
