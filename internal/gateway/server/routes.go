package server

import (
	"log/slog"
	"net/http"

	"nebula/internal/gateway/handler"
	"nebula/internal/gateway/middleware"
	"nebula/internal/metrics"
)

// NewMux mounts the API under apiPrefix, liveness at "/" and metrics at
// "/metrics", behind request logging and CORS.
func NewMux(h *handler.Handler, apiPrefix string, corsOrigins []string, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	h.Register(mux, apiPrefix)
	mux.Handle("GET /metrics", metrics.Handler())

	return middleware.Chain(mux,
		middleware.Observe(logger),
		middleware.CORS(corsOrigins),
	)
}
