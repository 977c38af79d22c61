package server

import (
	"net/http"

	"github.com/MKhiriev/go-clip-keeper/internal/logger"
	"github.com/MKhiriev/go-clip-keeper/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type handler struct {
	source  StatusSource
	metrics *metrics.SyncMetrics
	logger  *logger.Logger
}

func (h *handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging)

	router.Get("/healthz", h.healthz)
	router.Get("/api/status", h.status)

	if reg := h.metrics.Registry(); reg != nil {
		router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	return router
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, h.source.Status(), http.StatusOK); err != nil {
		logger.FromRequest(r).Error().Err(err).Msg("error writing status")
	}
}
