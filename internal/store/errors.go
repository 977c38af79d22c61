package store

import "errors"

// Sentinel errors returned by the local storage. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrSnapshotNotFound is returned when no profile snapshot is stored for
	// the requested user.
	ErrSnapshotNotFound = errors.New("profile snapshot was not found")

	// ErrSnapshotCorrupt is returned when a stored snapshot cannot be decoded.
	ErrSnapshotCorrupt = errors.New("profile snapshot is corrupt")

	// ErrCredentialNotFound is returned when no sealed credential is stored
	// for the requested user, or when it cannot be unsealed with the
	// current vault key.
	ErrCredentialNotFound = errors.New("credential was not found")

	// ErrPersistence wraps every I/O failure of the local database.
	ErrPersistence = errors.New("local persistence failed")
)

// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
// query fails.
var ErrBuildingSQLQuery = errors.New("error building sql query")
