// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the transport-layer boundary between the sync
// engine and the real-time store that holds user profiles.
//
// The primary abstraction is [RemoteStore]: a path-addressed store with
// get/set/delete and a change subscription that delivers the whole current
// value of the subscribed path on every change. Three implementations ship
// with the package: a Firebase Realtime Database client over REST and
// server-sent events ([NewFirebaseStore]), a Redis store using key/value plus
// pub/sub ([NewRedisStore]) and a PostgreSQL store using LISTEN/NOTIFY
// ([NewPostgresStore]). [BlobStorage] stores image clips in S3.
//
// Error values defined in errors.go are mapped from transport errors so that
// callers can use [errors.Is] for backend-agnostic handling (e.g.
// [ErrUnauthorized] drives the credential refresh path).
package adapter

import (
	"context"
	"io"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/adapter_mock.go -package=mock

// Snapshot is one delivery of a subscription: either the full value of the
// node (nil when the node is empty) or a transport error.
type Snapshot struct {
	Data []byte
	Err  error
}

// Empty reports whether the snapshot carries an empty node.
func (s Snapshot) Empty() bool {
	return s.Err == nil && isEmptyNode(s.Data)
}

// Subscription is a live change feed opened by [RemoteStore.Subscribe].
type Subscription interface {
	// Close stops further deliveries. It does not wait for a delivery that
	// is already running and may be called from inside the callback.
	Close() error
}

// RemoteStore is the path-addressed real-time store. Values are JSON
// documents. There are no transactions across paths.
type RemoteStore interface {
	// SetToken replaces the access token attached to subsequent requests
	// and connections.
	SetToken(token string)

	// Subscribe starts delivering the full value of path to onSnapshot: once
	// with the current value and then after every change. Deliveries for one
	// subscription are sequential. A revoked or rejected token is delivered
	// as a Snapshot whose Err wraps [ErrUnauthorized], after which the
	// subscription stops.
	Subscribe(ctx context.Context, path string, onSnapshot func(Snapshot)) (Subscription, error)

	// Get returns the current value of path, or nil when it is empty.
	Get(ctx context.Context, path string) ([]byte, error)

	// Set replaces the value of path with the JSON encoding of value.
	Set(ctx context.Context, path string, value any) error

	// Delete removes path.
	Delete(ctx context.Context, path string) error

	// Close stops all subscriptions and releases connections.
	Close() error
}

// BlobStorage stores binary objects (image clips) and hands out download
// URLs for them.
type BlobStorage interface {
	// Upload stores r under name and returns its download URL.
	Upload(ctx context.Context, name string, r io.Reader) (string, error)

	// URL returns the download URL of an existing object.
	URL(ctx context.Context, name string) (string, error)

	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, name string) error
}
