package adapter

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-clip-keeper/internal/config"
	"github.com/MKhiriev/go-clip-keeper/internal/logger"
)

// NewRemoteStore builds the [RemoteStore] selected by cfg.Backend.
func NewRemoteStore(ctx context.Context, cfg config.Remote, log *logger.Logger) (RemoteStore, error) {
	switch cfg.Backend {
	case config.BackendFirebase:
		return NewFirebaseStore(cfg, log)
	case config.BackendRedis:
		return NewRedisStore(cfg, log)
	case config.BackendPostgres:
		return NewPostgresStore(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, cfg.Backend)
	}
}

// NewBlobStorage builds the image [BlobStorage], or returns nil when no
// bucket is configured.
func NewBlobStorage(ctx context.Context, cfg config.Images, log *logger.Logger) (BlobStorage, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}
	return NewS3BlobStorage(ctx, cfg, log)
}
