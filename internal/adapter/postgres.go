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
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	nodesTable    = "nodes"
	notifyChannel = "node_changes"

	createNodesTable = `CREATE TABLE IF NOT EXISTS nodes (
		path       TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`

	listenNodeChanges = `LISTEN node_changes;`
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type postgresStore struct {
	pool *pgxpool.Pool

	mu    sync.RWMutex
	token string

	subs       *subscriptionSet
	retryDelay time.Duration

	logger *logger.Logger
}

// NewPostgresStore constructs a [RemoteStore] backed by PostgreSQL. Every
// path is a row of the nodes table holding a JSONB value; writes send
// pg_notify('node_changes', path) in the same transaction, and subscriptions
// LISTEN on a dedicated connection and refetch the row on every matching
// notification. When an access token is set it replaces the password of new
// connections.
func NewPostgresStore(ctx context.Context, cfg config.Remote, log *logger.Logger) (RemoteStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}

	s := &postgresStore{
		subs:       newSubscriptionSet(),
		retryDelay: minResubscribeDelay,
		logger:     log.WithComponent("postgres_store"),
	}

	poolCfg.ConnConfig.ConnectTimeout = cfg.RequestTimeout
	poolCfg.BeforeConnect = func(_ context.Context, cc *pgx.ConnConfig) error {
		if token := s.currentToken(); token != "" {
			cc.Password = token
		}
		return nil
	}

	s.pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, mapPostgresError(err)
	}

	if _, err = s.pool.Exec(ctx, createNodesTable); err != nil {
		s.pool.Close()
		return nil, fmt.Errorf("error creating nodes table: %w", mapPostgresError(err))
	}

	s.logger.Info().Msg("connected to postgres remote store")
	return s, nil
}

func (s *postgresStore) currentToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken implements [RemoteStore]. Idle pooled connections are dropped so
// the next query authenticates with the new token.
func (s *postgresStore) SetToken(token string) {
	s.mu.Lock()
	s.token = strings.TrimSpace(token)
	s.mu.Unlock()

	if s.pool != nil {
		s.pool.Reset()
	}
}

func buildSelectNodeQuery(path string) (string, []any, error) {
	return psql.
		Select("value").
		From(nodesTable).
		Where(sq.Eq{"path": path}).
		ToSql()
}

func buildUpsertNodeQuery(path string, value []byte) (string, []any, error) {
	return psql.
		Insert(nodesTable).
		Columns("path", "value").
		Values(path, string(value)).
		Suffix("ON CONFLICT (path) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()").
		ToSql()
}

func buildDeleteNodeQuery(path string) (string, []any, error) {
	return psql.
		Delete(nodesTable).
		Where(sq.Eq{"path": path}).
		ToSql()
}

func buildNotifyQuery(path string) (string, []any, error) {
	return psql.
		Select().
		Column(sq.Expr("pg_notify(?, ?)", notifyChannel, path)).
		ToSql()
}

func normalizePath(path string) string {
	return strings.Trim(path, "/")
}

// Get implements [RemoteStore].
func (s *postgresStore) Get(ctx context.Context, path string) ([]byte, error) {
	query, args, err := buildSelectNodeQuery(normalizePath(path))
	if err != nil {
		return nil, fmt.Errorf("error building select query: %w", err)
	}

	var value []byte
	err = s.pool.QueryRow(ctx, query, args...).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapPostgresError(err)
	}

	return normalizeNode(value), nil
}

// Set implements [RemoteStore].
func (s *postgresStore) Set(ctx context.Context, path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode value: %v", ErrBadRequest, err)
	}

	query, args, err := buildUpsertNodeQuery(normalizePath(path), data)
	if err != nil {
		return fmt.Errorf("error building upsert query: %w", err)
	}

	return s.writeAndNotify(ctx, path, query, args)
}

// Delete implements [RemoteStore].
func (s *postgresStore) Delete(ctx context.Context, path string) error {
	query, args, err := buildDeleteNodeQuery(normalizePath(path))
	if err != nil {
		return fmt.Errorf("error building delete query: %w", err)
	}

	return s.writeAndNotify(ctx, path, query, args)
}

func (s *postgresStore) writeAndNotify(ctx context.Context, path, query string, args []any) error {
	notify, notifyArgs, err := buildNotifyQuery(normalizePath(path))
	if err != nil {
		return fmt.Errorf("error building notify query: %w", err)
	}

	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, notify, notifyArgs...)
		return err
	})

	return mapPostgresError(err)
}

// Subscribe implements [RemoteStore].
func (s *postgresStore) Subscribe(ctx context.Context, path string, onSnapshot func(Snapshot)) (Subscription, error) {
	sub, err := s.subs.add(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := s.listen(sub.ctx)
	if err != nil {
		_ = sub.Close()
		return nil, err
	}

	go s.run(sub, conn, path, onSnapshot)
	return sub, nil
}

// listen takes a connection out of the pool for the lifetime of the
// subscription and starts listening on it.
func (s *postgresStore) listen(ctx context.Context) (*pgx.Conn, error) {
	pooled, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, mapPostgresError(err)
	}
	conn := pooled.Hijack()

	if _, err = conn.Exec(ctx, listenNodeChanges); err != nil {
		_ = conn.Close(context.Background())
		return nil, mapPostgresError(err)
	}
	return conn, nil
}

func (s *postgresStore) run(sub *subscription, conn *pgx.Conn, path string, onSnapshot func(Snapshot)) {
	defer sub.Close()

	for {
		err := s.consume(sub, conn, path, onSnapshot)
		_ = conn.Close(context.Background())
		if sub.ctx.Err() != nil {
			return
		}

		if conn, err = s.relisten(sub, path, onSnapshot, err); err != nil {
			return
		}
	}
}

func (s *postgresStore) relisten(sub *subscription, path string, onSnapshot func(Snapshot), cause error) (*pgx.Conn, error) {
	delay := s.retryDelay
	for {
		if errors.Is(cause, ErrUnauthorized) {
			s.logger.Error().Err(cause).Str("path", path).Msg("postgres rejected the token")
			sub.deliver(onSnapshot, Snapshot{Err: cause})
			return nil, cause
		}

		s.logger.Warn().Err(cause).Str("path", path).Dur("retry_in", delay).Msg("postgres subscription interrupted")
		if !sub.deliver(onSnapshot, Snapshot{Err: cause}) || !sub.wait(delay) {
			return nil, ErrSubscriptionClosed
		}
		delay = nextDelay(delay)

		conn, err := s.listen(sub.ctx)
		if err == nil {
			return conn, nil
		}
		if sub.ctx.Err() != nil {
			return nil, ErrSubscriptionClosed
		}
		cause = err
	}
}

func (s *postgresStore) consume(sub *subscription, conn *pgx.Conn, path string, onSnapshot func(Snapshot)) error {
	target := normalizePath(path)

	data, err := s.Get(sub.ctx, path)
	if err != nil {
		return err
	}
	if !sub.deliver(onSnapshot, Snapshot{Data: data}) {
		return nil
	}

	for {
		n, err := conn.WaitForNotification(sub.ctx)
		if err != nil {
			if sub.ctx.Err() != nil {
				return nil
			}
			return mapPostgresError(err)
		}
		if n.Channel != notifyChannel || n.Payload != target {
			continue
		}

		data, err = s.Get(sub.ctx, path)
		if !sub.deliver(onSnapshot, Snapshot{Data: data, Err: err}) {
			return nil
		}
	}
}

// Close implements [RemoteStore].
func (s *postgresStore) Close() error {
	s.subs.closeAll()
	s.pool.Close()
	return nil
}
