package service

import "errors"

// Fault classes surfaced by the sync engine. Callers match them with
// [errors.Is].
var (
	// ErrAuth means the credential is missing, expired or rejected and user
	// interaction is required.
	ErrAuth = errors.New("authorization required")
	// ErrNetwork is a recoverable transport failure.
	ErrNetwork = errors.New("remote store is unreachable")
	// ErrDecode means a remote payload could not be decoded into a profile.
	ErrDecode = errors.New("malformed remote profile")
)

var (
	ErrDisposed            = errors.New("sync engine is disposed")
	ErrNotInitialized      = errors.New("sync engine is not initialized")
	ErrTextTooLong         = errors.New("clip text exceeds the maximum item length")
	ErrEmptyText           = errors.New("clip text is empty")
	ErrBlobStorageDisabled = errors.New("image storage is not configured")
)
