package adapter

import (
	"context"
	"testing"

	"github.com/MKhiriev/go-clip-keeper/internal/config"
	"github.com/MKhiriev/go-clip-keeper/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRemoteStore(t *testing.T) {
	ctx := context.Background()

	t.Run("firebase", func(t *testing.T) {
		s, err := NewRemoteStore(ctx, config.Remote{
			Backend:  config.BackendFirebase,
			Endpoint: "clip-keeper.firebaseio.com",
		}, logger.Nop())
		require.NoError(t, err)
		defer s.Close()

		assert.IsType(t, &firebaseStore{}, s)
	})

	t.Run("redis", func(t *testing.T) {
		s, err := NewRemoteStore(ctx, config.Remote{
			Backend:   config.BackendRedis,
			RedisAddr: "127.0.0.1:6379",
		}, logger.Nop())
		require.NoError(t, err)
		defer s.Close()

		assert.IsType(t, &redisStore{}, s)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := NewRemoteStore(ctx, config.Remote{Backend: "couchdb"}, logger.Nop())
		assert.ErrorIs(t, err, ErrUnsupportedBackend)
	})
}

func TestNewBlobStorage_NoBucket(t *testing.T) {
	b, err := NewBlobStorage(context.Background(), config.Images{}, logger.Nop())
	require.NoError(t, err)
	assert.Nil(t, b)
}
