package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-clip-keeper/internal/config"
	"github.com/MKhiriev/go-clip-keeper/internal/logger"
	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	prefix string

	mu    sync.RWMutex
	token string

	subs       *subscriptionSet
	retryDelay time.Duration

	logger *logger.Logger
}

// NewRedisStore constructs a [RemoteStore] backed by Redis. The value of a
// path lives under the key `{prefix}{path}`; every write also publishes the
// full new value on the channel `{prefix}changes:{path}`, which is what
// subscriptions listen to. The access token is used as the connection
// password.
func NewRedisStore(cfg config.Remote, log *logger.Logger) (RemoteStore, error) {
	if cfg.RedisAddr == "" {
		return nil, errors.New("empty redis address")
	}

	s := &redisStore{
		prefix:     cfg.RedisPrefix,
		subs:       newSubscriptionSet(),
		retryDelay: minResubscribeDelay,
		logger:     log.WithComponent("redis_store"),
	}

	s.client = redis.NewClient(&redis.Options{
		Addr:                cfg.RedisAddr,
		DB:                  cfg.RedisDB,
		CredentialsProvider: s.credentials,
		ReadTimeout:         cfg.RequestTimeout,
		WriteTimeout:        cfg.RequestTimeout,
	})

	return s, nil
}

func (s *redisStore) credentials() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return "", s.token
}

func (s *redisStore) key(path string) string {
	return s.prefix + strings.Trim(path, "/")
}

func (s *redisStore) channel(path string) string {
	return s.prefix + "changes:" + strings.Trim(path, "/")
}

// SetToken implements [RemoteStore]. Pooled connections that already
// authenticated keep their session; new connections use the new token.
func (s *redisStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = strings.TrimSpace(token)
}

// Get implements [RemoteStore].
func (s *redisStore) Get(ctx context.Context, path string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, mapRedisError(err)
	}

	return normalizeNode(data), nil
}

// Set implements [RemoteStore].
func (s *redisStore) Set(ctx context.Context, path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode value: %v", ErrBadRequest, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(path), data, 0)
		pipe.Publish(ctx, s.channel(path), data)
		return nil
	})

	return mapRedisError(err)
}

// Delete implements [RemoteStore]. Subscribers receive an empty node.
func (s *redisStore) Delete(ctx context.Context, path string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(path))
		pipe.Publish(ctx, s.channel(path), "null")
		return nil
	})

	return mapRedisError(err)
}

// Subscribe implements [RemoteStore]. The channel subscription is confirmed
// before the current value is read, so no write between the two is lost.
func (s *redisStore) Subscribe(ctx context.Context, path string, onSnapshot func(Snapshot)) (Subscription, error) {
	sub, err := s.subs.add(ctx)
	if err != nil {
		return nil, err
	}

	pubsub, err := s.listen(sub.ctx, path)
	if err != nil {
		_ = sub.Close()
		return nil, err
	}

	go s.run(sub, pubsub, path, onSnapshot)
	return sub, nil
}

func (s *redisStore) listen(ctx context.Context, path string) (*redis.PubSub, error) {
	pubsub := s.client.Subscribe(ctx, s.channel(path))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, mapRedisError(err)
	}
	return pubsub, nil
}

func (s *redisStore) run(sub *subscription, pubsub *redis.PubSub, path string, onSnapshot func(Snapshot)) {
	defer sub.Close()

	for {
		err := s.consume(sub, pubsub, path, onSnapshot)
		_ = pubsub.Close()
		if sub.ctx.Err() != nil {
			return
		}

		if pubsub, err = s.resubscribe(sub, path, onSnapshot, err); err != nil {
			return
		}
	}
}

// resubscribe reports cause and retries listening with backoff until it
// succeeds, the token is rejected or the subscription is closed.
func (s *redisStore) resubscribe(sub *subscription, path string, onSnapshot func(Snapshot), cause error) (*redis.PubSub, error) {
	delay := s.retryDelay
	for {
		if errors.Is(cause, ErrUnauthorized) {
			s.logger.Error().Err(cause).Str("path", path).Msg("redis rejected the token")
			sub.deliver(onSnapshot, Snapshot{Err: cause})
			return nil, cause
		}

		s.logger.Warn().Err(cause).Str("path", path).Dur("retry_in", delay).Msg("redis subscription interrupted")
		if !sub.deliver(onSnapshot, Snapshot{Err: cause}) || !sub.wait(delay) {
			return nil, ErrSubscriptionClosed
		}
		delay = nextDelay(delay)

		pubsub, err := s.listen(sub.ctx, path)
		if err == nil {
			return pubsub, nil
		}
		if sub.ctx.Err() != nil {
			return nil, ErrSubscriptionClosed
		}
		cause = err
	}
}

func (s *redisStore) consume(sub *subscription, pubsub *redis.PubSub, path string, onSnapshot func(Snapshot)) error {
	data, err := s.Get(sub.ctx, path)
	if err != nil {
		return err
	}
	if !sub.deliver(onSnapshot, Snapshot{Data: data}) {
		return nil
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-sub.ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("%w: redis channel closed", ErrSubscriptionClosed)
			}
			if !sub.deliver(onSnapshot, Snapshot{Data: normalizeNode([]byte(msg.Payload))}) {
				return nil
			}
		}
	}
}

// Close implements [RemoteStore].
func (s *redisStore) Close() error {
	s.subs.closeAll()
	return s.client.Close()
}
