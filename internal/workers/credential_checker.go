package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-clip-keeper/internal/logger"
)

const defaultCredentialCheckInterval = 5 * time.Minute

// CredentialChecker refreshes the access token ahead of remote writes.
type CredentialChecker struct {
	engine   CredentialTask
	interval time.Duration
	logger   *logger.Logger
}

func NewCredentialChecker(engine CredentialTask, interval time.Duration, log *logger.Logger) *CredentialChecker {
	return &CredentialChecker{
		engine:   engine,
		interval: interval,
		logger:   log.WithComponent("credential_checker"),
	}
}

func (c *CredentialChecker) Run(ctx context.Context) error {
	every(ctx, c.interval, defaultCredentialCheckInterval, func(ctx context.Context) {
		if err := c.engine.RunCommonTask(ctx); err != nil {
			c.logger.Warn().Err(err).Msg("credential check failed")
		}
	})
	return nil
}
