// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"os"
	"time"
)

// StructuredConfig is the top-level configuration container for the
// go-clip-keeper client. It aggregates all sub-configurations and is
// populated by merging values from environment variables, command-line flags,
// and an optional JSON file.
//
// Struct tags:
//   - envPrefix : prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       : direct environment variable name for scalar fields.
//   - envDefault: value used when the variable is not set.
type StructuredConfig struct {
	// App holds the identity of the synchronized profile, the clip encryption
	// passphrase and local limits.
	App App `envPrefix:"APP_"`

	// License holds the authoritative license state the engine stamps onto
	// every remote profile it sees.
	License License `envPrefix:"LICENSE_"`

	// Remote selects and configures the real-time store backend.
	Remote Remote `envPrefix:"REMOTE_"`

	// Auth holds the OAuth2 client used to refresh access tokens.
	Auth Auth `envPrefix:"AUTH_"`

	// Storage holds the local SQLite database and the image blob bucket.
	Storage Storage `envPrefix:"STORAGE_"`

	// Workers holds the intervals of the background workers.
	Workers Workers `envPrefix:"WORKERS_"`

	// Server holds the local status server settings.
	Server Server `envPrefix:"SERVER_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// UID identifies the profile node (users/{UID}) shared by all devices of
	// one user. When empty a stable identifier is derived from the host name.
	// Env: APP_UID
	UID string `env:"UID"`

	// EncryptPassword is the passphrase clip text is encrypted with before it
	// leaves the device. Every device of the user must use the same value.
	// Env: APP_ENCRYPT_PASSWORD
	EncryptPassword string `env:"ENCRYPT_PASSWORD"`

	// MaxItemLength is the longest clip text (in bytes) the engine accepts.
	// Env: APP_MAX_ITEM_LENGTH
	MaxItemLength int `env:"MAX_ITEM_LENGTH" envDefault:"10000"`

	// VaultKey seals the stored credential in the local database.
	// Env: APP_VAULT_KEY
	VaultKey string `env:"VAULT_KEY"`

	// LogPath is the directory client logs are written to.
	// Env: APP_LOG_PATH
	LogPath string `env:"LOG_PATH"`
}

// License mirrors the license fields of the remote profile.
type License struct {
	// Env: LICENSE_IS_LICENSED
	IsLicensed bool `env:"IS_LICENSED"`

	// MaxItemStorage caps the number of clips kept in the profile.
	// Env: LICENSE_MAX_ITEM_STORAGE
	MaxItemStorage int `env:"MAX_ITEM_STORAGE" envDefault:"20"`

	// TotalConnection is the number of devices the license allows.
	// Env: LICENSE_TOTAL_CONNECTION
	TotalConnection int `env:"TOTAL_CONNECTION" envDefault:"1"`

	// Strategy is one of none, standard, premium, deluxe.
	// Env: LICENSE_STRATEGY
	Strategy string `env:"STRATEGY" envDefault:"none"`
}

// Remote configures the real-time store.
type Remote struct {
	// Backend is one of firebase, redis, postgres.
	// Env: REMOTE_BACKEND
	Backend string `env:"BACKEND" envDefault:"firebase"`

	// Endpoint is the database URL of the firebase backend
	// (e.g. "https://project-default-rtdb.firebaseio.com").
	// Env: REMOTE_ENDPOINT
	Endpoint string `env:"ENDPOINT"`

	// AuthRequired makes the engine hold a valid access token before it
	// subscribes or writes.
	// Env: REMOTE_AUTH_REQUIRED
	AuthRequired bool `env:"AUTH_REQUIRED"`

	// RequestTimeout bounds a single get/set/delete round trip.
	// Env: REMOTE_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// Env: REMOTE_REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR"`
	// Env: REMOTE_REDIS_DB
	RedisDB int `env:"REDIS_DB"`
	// RedisPrefix is prepended to every key and channel name.
	// Env: REMOTE_REDIS_PREFIX
	RedisPrefix string `env:"REDIS_PREFIX" envDefault:"clipkeeper:"`

	// Env: REMOTE_POSTGRES_DSN
	PostgresDSN string `env:"POSTGRES_DSN"`
}

// Auth holds the OAuth2 client credentials.
type Auth struct {
	// Env: AUTH_CLIENT_ID
	ClientID string `env:"CLIENT_ID"`
	// Env: AUTH_CLIENT_SECRET
	ClientSecret string `env:"CLIENT_SECRET"`
	// TokenURL is the OAuth2 token endpoint used for refresh_token grants.
	// Env: AUTH_TOKEN_URL
	TokenURL string `env:"TOKEN_URL"`
}

// Storage groups the configuration for all storage backends used by the
// client.
type Storage struct {
	// DB holds the local SQLite database settings.
	DB DB `envPrefix:"DB_"`

	// Images holds the S3 bucket image clips are uploaded to. An empty
	// bucket disables image clips.
	Images Images `envPrefix:"IMAGES_"`
}

// DB holds connection settings for the local database.
type DB struct {
	// DSN is the SQLite file path or URI.
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN" envDefault:"clip-keeper.db"`
}

// Images holds S3 settings for image clips.
type Images struct {
	// Env: STORAGE_IMAGES_BUCKET
	Bucket string `env:"BUCKET"`
	// Env: STORAGE_IMAGES_REGION
	Region string `env:"REGION"`
	// Endpoint overrides the S3 endpoint (MinIO, LocalStack).
	// Env: STORAGE_IMAGES_ENDPOINT
	Endpoint string `env:"ENDPOINT"`
	// Prefix is prepended to every object key.
	// Env: STORAGE_IMAGES_PREFIX
	Prefix string `env:"PREFIX" envDefault:"XClipper/"`
	// Env: STORAGE_IMAGES_USE_PATH_STYLE
	UsePathStyle bool `env:"USE_PATH_STYLE"`
}

// Workers holds configuration for background worker processes.
type Workers struct {
	// Env: WORKERS_CLIPBOARD_POLL_INTERVAL
	ClipboardPollInterval time.Duration `env:"CLIPBOARD_POLL_INTERVAL" envDefault:"1s"`
	// Env: WORKERS_SAVE_INTERVAL
	SaveInterval time.Duration `env:"SAVE_INTERVAL" envDefault:"1m"`
	// Env: WORKERS_CREDENTIAL_CHECK_INTERVAL
	CredentialCheckInterval time.Duration `env:"CREDENTIAL_CHECK_INTERVAL" envDefault:"5m"`
	// ReconnectInterval is the first delay before reconnecting a faulted
	// engine. It doubles after every failed attempt.
	// Env: WORKERS_RECONNECT_INTERVAL
	ReconnectInterval time.Duration `env:"RECONNECT_INTERVAL" envDefault:"5s"`
}

// Server holds the local status server settings.
type Server struct {
	// StatusAddress is the "host:port" the status server listens on. Empty
	// disables the server.
	// Env: SERVER_STATUS_ADDRESS
	StatusAddress string `env:"STATUS_ADDRESS" envDefault:"127.0.0.1:8787"`
}

// GetStructuredConfig loads, merges, and validates the client configuration
// from all available sources in the following priority order (last source
// wins for non-zero fields):
//  1. Environment variables
//  2. Command-line flags (os.Args)
//  3. JSON file (path resolved from sources 1 and 2)
func GetStructuredConfig() (*StructuredConfig, error) {
	return Load(os.Args[1:])
}

// Load is [GetStructuredConfig] with explicit command-line arguments.
func Load(args []string) (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags(args).
		withJSON().
		build()
}
