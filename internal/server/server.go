package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/MKhiriev/go-clip-keeper/internal/config"
	"github.com/MKhiriev/go-clip-keeper/internal/logger"
	"github.com/MKhiriev/go-clip-keeper/internal/metrics"
)

const shutdownTimeout = 5 * time.Second

// StatusServer serves /healthz, /api/status and /metrics.
type StatusServer struct {
	server *http.Server
	logger *logger.Logger
}

// NewStatusServer builds the server. It returns an error when cfg has no
// address; the caller treats that as "status server disabled".
func NewStatusServer(source StatusSource, m *metrics.SyncMetrics, cfg config.Server, log *logger.Logger) (*StatusServer, error) {
	if cfg.StatusAddress == "" {
		return nil, errNoAddress
	}

	log = log.WithComponent("status_server")
	h := &handler{source: source, metrics: m, logger: log}

	return &StatusServer{
		server: &http.Server{
			Addr:              cfg.StatusAddress,
			Handler:           h.Init(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: log,
	}, nil
}

// Run listens until ctx is cancelled, then shuts the server down
// gracefully. It implements workers.Worker.
func (s *StatusServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.logger.Error().Err(err).Str("address", s.server.Addr).Msg("status server cannot listen")
		return err
	}
	return s.serve(ctx, ln)
}

func (s *StatusServer) serve(ctx context.Context, ln net.Listener) error {
	idleConnectionsClosed := make(chan struct{})

	// listen for stop
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("status server shutdown")
		}

		close(idleConnectionsClosed)
	}()

	s.logger.Info().Str("address", ln.Addr().String()).Msg("launching status server")
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	<-idleConnectionsClosed
	s.logger.Info().Msg("status server shutdown gracefully")
	return nil
}
