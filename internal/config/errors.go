package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidAppConfigs indicates invalid application-level settings
	// (for example, missing encryption passphrase or vault key).
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
	// ErrInvalidLicenseConfigs indicates a non-positive clip capacity or an
	// unknown license strategy.
	ErrInvalidLicenseConfigs = errors.New("invalid license configuration")
	// ErrInvalidRemoteConfigs indicates an unknown backend or missing
	// backend address.
	ErrInvalidRemoteConfigs = errors.New("invalid remote configuration")
	// ErrInvalidAuthConfigs indicates missing OAuth2 client settings while
	// authorization is required.
	ErrInvalidAuthConfigs = errors.New("invalid auth configuration")
	// ErrInvalidStorageConfigs indicates invalid local storage settings
	// (for example, empty DSN).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidWorkerConfigs indicates invalid background worker settings
	// (for example, zero save interval).
	ErrInvalidWorkerConfigs = errors.New("invalid worker configuration")
)
