package store

import (
	"context"

	"github.com/MKhiriev/go-clip-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// SnapshotStore persists the last known profile of a user between runs.
type SnapshotStore interface {
	SaveProfile(ctx context.Context, profile *models.Profile) error
	// LoadProfile returns ErrSnapshotNotFound when nothing is stored and
	// ErrSnapshotCorrupt when the stored payload cannot be decoded.
	LoadProfile(ctx context.Context, uid string) (*models.Profile, error)
	DeleteProfile(ctx context.Context, uid string) error
}

// CredentialVault stores the credential of a user sealed with the vault key.
type CredentialVault interface {
	SaveCredential(ctx context.Context, uid string, cred models.Credential) error
	LoadCredential(ctx context.Context, uid string) (models.Credential, error)
	DeleteCredential(ctx context.Context, uid string) error
}
