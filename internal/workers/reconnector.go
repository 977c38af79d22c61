package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-clip-keeper/internal/logger"
)

const (
	defaultReconnectInterval = 5 * time.Second
	maxReconnectInterval     = 5 * time.Minute
)

// Reconnector asks the engine to reconnect after a fault. The delay doubles
// after every failed attempt up to maxReconnectInterval and starts over
// after a success.
type Reconnector struct {
	engine   Reconnecter
	interval time.Duration
	max      time.Duration
	logger   *logger.Logger
}

func NewReconnector(engine Reconnecter, interval time.Duration, log *logger.Logger) *Reconnector {
	if interval <= 0 {
		interval = defaultReconnectInterval
	}
	return &Reconnector{
		engine:   engine,
		interval: interval,
		max:      max(interval, maxReconnectInterval),
		logger:   log.WithComponent("reconnector"),
	}
}

func (r *Reconnector) Run(ctx context.Context) error {
	delay := r.interval
	t := time.NewTimer(delay)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}

		if err := r.engine.Reconnect(ctx); err != nil {
			delay = min(delay*2, r.max)
			r.logger.Warn().Err(err).Dur("retry_in", delay).Msg("reconnect failed")
		} else {
			delay = r.interval
		}
		t.Reset(delay)
	}
}
