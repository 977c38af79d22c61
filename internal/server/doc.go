// Package server runs the local status server of the client.
//
// The server exposes a liveness probe, the sync engine status as JSON and
// the prometheus metrics of the engine. It listens on a loopback address by
// default and shuts down gracefully when its context is cancelled.
package server
