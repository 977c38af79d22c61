// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"

	"github.com/MKhiriev/go-clip-keeper/models"
)

// Remote backend names accepted in [Remote.Backend].
const (
	BackendFirebase = "firebase"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// validate checks that the final merged [StructuredConfig] satisfies all
// invariants before it is used at startup. The first failing group is
// reported, wrapped with the offending field.
func (cfg *StructuredConfig) validate() error {
	if cfg.App.EncryptPassword == "" {
		return fmt.Errorf("%w: encrypt password is empty", ErrInvalidAppConfigs)
	}
	if cfg.App.MaxItemLength <= 0 {
		return fmt.Errorf("%w: max item length must be positive", ErrInvalidAppConfigs)
	}
	if cfg.App.VaultKey == "" {
		return fmt.Errorf("%w: vault key is empty", ErrInvalidAppConfigs)
	}

	if cfg.License.MaxItemStorage <= 0 || cfg.License.TotalConnection < 0 {
		return fmt.Errorf("%w: max item storage must be positive", ErrInvalidLicenseConfigs)
	}
	if models.ParseLicenseStrategy(cfg.License.Strategy).String() != cfg.License.Strategy {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidLicenseConfigs, cfg.License.Strategy)
	}

	switch cfg.Remote.Backend {
	case BackendFirebase:
		if cfg.Remote.Endpoint == "" {
			return fmt.Errorf("%w: firebase endpoint is empty", ErrInvalidRemoteConfigs)
		}
	case BackendRedis:
		if cfg.Remote.RedisAddr == "" {
			return fmt.Errorf("%w: redis address is empty", ErrInvalidRemoteConfigs)
		}
	case BackendPostgres:
		if cfg.Remote.PostgresDSN == "" {
			return fmt.Errorf("%w: postgres dsn is empty", ErrInvalidRemoteConfigs)
		}
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidRemoteConfigs, cfg.Remote.Backend)
	}
	if cfg.Remote.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalidRemoteConfigs)
	}

	if cfg.Remote.AuthRequired && (cfg.Auth.ClientID == "" || cfg.Auth.TokenURL == "") {
		return fmt.Errorf("%w: client id and token url are required", ErrInvalidAuthConfigs)
	}

	if cfg.Storage.DB.DSN == "" {
		return fmt.Errorf("%w: db dsn is empty", ErrInvalidStorageConfigs)
	}

	if cfg.Workers.ClipboardPollInterval <= 0 ||
		cfg.Workers.SaveInterval <= 0 ||
		cfg.Workers.CredentialCheckInterval <= 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}

// LicenseModel converts the configured license into its model form.
func (cfg *StructuredConfig) LicenseModel() models.License {
	return models.License{
		IsLicensed:      cfg.License.IsLicensed,
		MaxItemStorage:  cfg.License.MaxItemStorage,
		TotalConnection: cfg.License.TotalConnection,
		Strategy:        models.ParseLicenseStrategy(cfg.License.Strategy),
	}
}
