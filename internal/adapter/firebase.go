package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-clip-keeper/internal/config"
	"github.com/MKhiriev/go-clip-keeper/internal/logger"
	"github.com/MKhiriev/go-clip-keeper/internal/utils"
	"github.com/go-resty/resty/v2"
)

type firebaseStore struct {
	client *utils.HTTPClient
	stream *utils.HTTPClient

	mu    sync.RWMutex
	token string

	subs       *subscriptionSet
	retryDelay time.Duration

	logger *logger.Logger
}

// NewFirebaseStore constructs a [RemoteStore] backed by the Firebase Realtime
// Database REST API. Reads and writes use `{endpoint}/{path}.json`; changes
// are streamed with server-sent events. The access token is sent as the
// access_token query parameter.
//
// Returns an error if cfg.Endpoint is empty or cannot be parsed as a URL.
func NewFirebaseStore(cfg config.Remote, log *logger.Logger) (RemoteStore, error) {
	baseURL, err := normalizeBaseURL(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid firebase endpoint: %w", err)
	}

	client := utils.NewHTTPClient()
	client.
		SetBaseURL(baseURL).
		SetTimeout(cfg.RequestTimeout)

	stream := utils.NewStreamingHTTPClient()
	stream.SetBaseURL(baseURL)

	return &firebaseStore{
		client:     client,
		stream:     stream,
		subs:       newSubscriptionSet(),
		retryDelay: minResubscribeDelay,
		logger:     log.WithComponent("firebase_store"),
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

func nodeURL(path string) string {
	return "/" + strings.Trim(path, "/") + ".json"
}

// SetToken implements [RemoteStore]. Open streams keep the token they were
// opened with; the engine resubscribes after a refresh.
func (f *firebaseStore) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = strings.TrimSpace(token)
}

func (f *firebaseStore) request(ctx context.Context, c *utils.HTTPClient) *resty.Request {
	f.mu.RLock()
	token := f.token
	f.mu.RUnlock()

	req := c.R().SetContext(ctx)
	if token != "" {
		req.SetQueryParam("access_token", token)
	}
	return req
}

// Get implements [RemoteStore].
func (f *firebaseStore) Get(ctx context.Context, path string) ([]byte, error) {
	resp, err := f.request(ctx, f.client).Get(nodeURL(path))
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrNetwork, path, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	return normalizeNode(resp.Body()), nil
}

// Set implements [RemoteStore]. print=silent makes the server skip echoing
// the written value back.
func (f *firebaseStore) Set(ctx context.Context, path string, value any) error {
	resp, err := f.request(ctx, f.client).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("print", "silent").
		SetBody(value).
		Put(nodeURL(path))
	if err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrNetwork, path, err)
	}

	return mapHTTPError(resp)
}

// Delete implements [RemoteStore].
func (f *firebaseStore) Delete(ctx context.Context, path string) error {
	resp, err := f.request(ctx, f.client).Delete(nodeURL(path))
	if err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrNetwork, path, err)
	}

	return mapHTTPError(resp)
}

// Subscribe implements [RemoteStore]. The stream reconnects with exponential
// backoff after network failures; a rejected token ends it.
func (f *firebaseStore) Subscribe(ctx context.Context, path string, onSnapshot func(Snapshot)) (Subscription, error) {
	sub, err := f.subs.add(ctx)
	if err != nil {
		return nil, err
	}

	go f.run(sub, path, onSnapshot)
	return sub, nil
}

func (f *firebaseStore) run(sub *subscription, path string, onSnapshot func(Snapshot)) {
	defer sub.Close()

	delay := f.retryDelay
	for {
		received, err := f.consume(sub, path, onSnapshot)
		if sub.ctx.Err() != nil {
			return
		}

		if errors.Is(err, ErrUnauthorized) {
			f.logger.Error().Err(err).Str("path", path).Msg("remote stream rejected the token")
			sub.deliver(onSnapshot, Snapshot{Err: err})
			return
		}

		if received {
			delay = f.retryDelay
		}
		f.logger.Warn().Err(err).Str("path", path).Dur("retry_in", delay).Msg("remote stream interrupted")
		if !sub.deliver(onSnapshot, Snapshot{Err: err}) || !sub.wait(delay) {
			return
		}
		delay = nextDelay(delay)
	}
}

// consume reads one stream connection until it fails. It reports whether
// any snapshot was delivered on this connection.
func (f *firebaseStore) consume(sub *subscription, path string, onSnapshot func(Snapshot)) (bool, error) {
	resp, err := f.request(sub.ctx, f.stream).
		SetDoNotParseResponse(true).
		Get(nodeURL(path))
	if err != nil {
		return false, fmt.Errorf("%w: open stream %s: %v", ErrNetwork, path, err)
	}

	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(body, 4096))
		return false, mapHTTPStatus(resp.StatusCode(), data)
	}

	reader := newEventReader(body)
	received := false
	for {
		ev, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return received, fmt.Errorf("%w: stream ended", ErrSubscriptionClosed)
			}
			return received, fmt.Errorf("%w: read stream: %v", ErrNetwork, err)
		}

		switch ev.Name {
		case "keep-alive":
			continue
		case "cancel", "auth_revoked":
			return received, fmt.Errorf("%w: %s", ErrUnauthorized, ev.Name)
		case "put", "patch":
		default:
			f.logger.Debug().Str("event", ev.Name).Msg("skipping unknown stream event")
			continue
		}

		var payload struct {
			Path string          `json:"path"`
			Data json.RawMessage `json:"data"`
		}
		if err = json.Unmarshal(ev.Data, &payload); err != nil {
			f.logger.Warn().Err(err).Str("event", ev.Name).Msg("malformed stream event")
			continue
		}

		snap := Snapshot{}
		if ev.Name == "put" && payload.Path == "/" {
			snap.Data = normalizeNode(payload.Data)
		} else {
			// partial update: fetch the whole node
			snap.Data, snap.Err = f.Get(sub.ctx, path)
		}

		received = true
		if !sub.deliver(onSnapshot, snap) {
			return received, sub.ctx.Err()
		}
	}
}

// Close implements [RemoteStore].
func (f *firebaseStore) Close() error {
	f.subs.closeAll()
	return nil
}
