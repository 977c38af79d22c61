package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-clip-keeper/internal/logger"
)

const (
	defaultSaveInterval = time.Minute
	finalSaveTimeout    = 5 * time.Second
)

// SnapshotSaver persists the cached profile every interval and once more
// when it is stopped.
type SnapshotSaver struct {
	engine   StateSaver
	interval time.Duration
	logger   *logger.Logger
}

func NewSnapshotSaver(engine StateSaver, interval time.Duration, log *logger.Logger) *SnapshotSaver {
	return &SnapshotSaver{
		engine:   engine,
		interval: interval,
		logger:   log.WithComponent("snapshot_saver"),
	}
}

func (s *SnapshotSaver) Run(ctx context.Context) error {
	every(ctx, s.interval, defaultSaveInterval, s.save)

	finalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalSaveTimeout)
	defer cancel()
	s.save(finalCtx)
	return nil
}

func (s *SnapshotSaver) save(ctx context.Context) {
	if err := s.engine.SaveState(ctx); err != nil {
		s.logger.Error().Err(err).Msg("periodic state save failed")
	}
}
