// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/go-clip-keeper/internal/config"
	"github.com/MKhiriev/go-clip-keeper/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestFirebaseStore creates a firebaseStore pointed at the test server.
func newTestFirebaseStore(t *testing.T, serverURL string) *firebaseStore {
	t.Helper()
	s, err := NewFirebaseStore(config.Remote{Endpoint: serverURL, RequestTimeout: 5 * time.Second}, logger.Nop())
	require.NoError(t, err)

	fs := s.(*firebaseStore)
	fs.retryDelay = 10 * time.Millisecond
	t.Cleanup(func() { _ = fs.Close() })
	return fs
}

func collect(ch chan Snapshot) func(Snapshot) {
	return func(s Snapshot) { ch <- s }
}

func next(t *testing.T, ch chan Snapshot) Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return Snapshot{}
	}
}

func writeEvent(w http.ResponseWriter, name, data string) {
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	w.(http.Flusher).Flush()
}

func isStream(r *http.Request) bool {
	return r.Header.Get("Accept") == "text/event-stream"
}

// ── constructor ──────────────────────────────────────────────────────────────

func TestNewFirebaseStore_InvalidEndpoint(t *testing.T) {
	_, err := NewFirebaseStore(config.Remote{Endpoint: "  "}, logger.Nop())
	assert.Error(t, err)

	_, err = NewFirebaseStore(config.Remote{Endpoint: "https://"}, logger.Nop())
	assert.Error(t, err)
}

func TestNormalizeBaseURL(t *testing.T) {
	got, err := normalizeBaseURL("project.firebaseio.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://project.firebaseio.com", got)

	got, err = normalizeBaseURL("http://127.0.0.1:9000")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", got)
}

// ── Get / Set / Delete ───────────────────────────────────────────────────────

func TestFirebaseGet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/users/u1.json", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("access_token"))
		_, _ = w.Write([]byte(`{"Clips":[{"data":"x"}]}`))
	}))
	defer srv.Close()

	s := newTestFirebaseStore(t, srv.URL)
	s.SetToken(" tok ")

	got, err := s.Get(context.Background(), "users/u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Clips":[{"data":"x"}]}`, string(got))
}

func TestFirebaseGet_EmptyNode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("access_token"))
		_, _ = w.Write([]byte("null"))
	}))
	defer srv.Close()

	got, err := newTestFirebaseStore(t, srv.URL).Get(context.Background(), "users/u1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFirebaseGet_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Auth token is expired"}`))
	}))
	defer srv.Close()

	_, err := newTestFirebaseStore(t, srv.URL).Get(context.Background(), "users/u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestFirebaseGet_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestFirebaseStore(t, url).Get(context.Background(), "users/u1")
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestFirebaseSet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/users/u1.json", r.URL.Path)
		assert.Equal(t, "silent", r.URL.Query().Get("print"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"IsLicensed":true}`, string(body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := newTestFirebaseStore(t, srv.URL).Set(context.Background(), "/users/u1/", map[string]bool{"IsLicensed": true})
	assert.NoError(t, err)
}

func TestFirebaseSet_BadRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid data; couldn't parse JSON object"}`))
	}))
	defer srv.Close()

	err := newTestFirebaseStore(t, srv.URL).Set(context.Background(), "users/u1", map[string]int{"a": 1})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestFirebaseDelete_Success(t *testing.T) {
	var called atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/users/u1.json", r.URL.Path)
		called.Store(true)
		_, _ = w.Write([]byte("null"))
	}))
	defer srv.Close()

	err := newTestFirebaseStore(t, srv.URL).Delete(context.Background(), "users/u1")
	require.NoError(t, err)
	assert.True(t, called.Load())
}

// ── Subscribe ────────────────────────────────────────────────────────────────

func TestFirebaseSubscribe_DeliversFullNode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isStream(r) {
			// refetch after a partial update
			_, _ = w.Write([]byte(`{"b":2}`))
			return
		}

		assert.Equal(t, "tok", r.URL.Query().Get("access_token"))
		w.Header().Set("Content-Type", "text/event-stream")
		writeEvent(w, "put", `{"path":"/","data":{"a":1}}`)
		writeEvent(w, "keep-alive", "null")
		writeEvent(w, "patch", `{"path":"/Clips","data":{"0":{"data":"x"}}}`)
		writeEvent(w, "put", `{"path":"/","data":null}`)
		writeEvent(w, "auth_revoked", `"credential is no longer valid"`)
	}))
	defer srv.Close()

	s := newTestFirebaseStore(t, srv.URL)
	s.SetToken("tok")

	ch := make(chan Snapshot, 10)
	sub, err := s.Subscribe(context.Background(), "users/u1", collect(ch))
	require.NoError(t, err)
	defer sub.Close()

	snap := next(t, ch)
	require.NoError(t, snap.Err)
	assert.JSONEq(t, `{"a":1}`, string(snap.Data))

	snap = next(t, ch)
	require.NoError(t, snap.Err)
	assert.JSONEq(t, `{"b":2}`, string(snap.Data))

	snap = next(t, ch)
	require.NoError(t, snap.Err)
	assert.True(t, snap.Empty())

	snap = next(t, ch)
	assert.ErrorIs(t, snap.Err, ErrUnauthorized)

	select {
	case s := <-ch:
		t.Fatalf("unexpected delivery after auth_revoked: %+v", s)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFirebaseSubscribe_RejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Permission denied"}`))
	}))
	defer srv.Close()

	ch := make(chan Snapshot, 10)
	_, err := newTestFirebaseStore(t, srv.URL).Subscribe(context.Background(), "users/u1", collect(ch))
	require.NoError(t, err)

	snap := next(t, ch)
	assert.ErrorIs(t, snap.Err, ErrUnauthorized)
}

func TestFirebaseSubscribe_ReconnectsAfterFailure(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeEvent(w, "put", `{"path":"/","data":{"a":1}}`)
		<-r.Context().Done()
	}))
	defer srv.Close()

	s := newTestFirebaseStore(t, srv.URL)

	ch := make(chan Snapshot, 10)
	sub, err := s.Subscribe(context.Background(), "users/u1", collect(ch))
	require.NoError(t, err)

	snap := next(t, ch)
	assert.ErrorIs(t, snap.Err, ErrInternalServerError)

	snap = next(t, ch)
	require.NoError(t, snap.Err)
	assert.JSONEq(t, `{"a":1}`, string(snap.Data))

	require.NoError(t, sub.Close())
}

func TestFirebaseSubscribe_CloseStopsDeliveries(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEvent(w, "put", `{"path":"/","data":{"a":1}}`)
		select {
		case <-release:
			writeEvent(w, "put", `{"path":"/","data":{"a":2}}`)
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	s := newTestFirebaseStore(t, srv.URL)

	ch := make(chan Snapshot, 10)
	sub, err := s.Subscribe(context.Background(), "users/u1", collect(ch))
	require.NoError(t, err)

	next(t, ch)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	close(release)

	select {
	case s := <-ch:
		t.Fatalf("unexpected delivery after Close: %+v", s)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFirebaseSubscribe_AfterStoreClose(t *testing.T) {
	s := newTestFirebaseStore(t, "http://127.0.0.1:1")
	require.NoError(t, s.Close())

	_, err := s.Subscribe(context.Background(), "users/u1", func(Snapshot) {})
	assert.ErrorIs(t, err, ErrSubscriptionClosed)
}
