package store

import (
	"context"

	"github.com/MKhiriev/go-clip-keeper/internal/config"
	"github.com/MKhiriev/go-clip-keeper/internal/crypto"
	"github.com/MKhiriev/go-clip-keeper/internal/logger"
)

// Storages bundles the local repositories opened on one database.
type Storages struct {
	Snapshots   SnapshotStore
	Credentials CredentialVault

	db *DB
}

// NewStorages opens the local database and builds every repository on it.
func NewStorages(ctx context.Context, cfg config.DB, codec crypto.CipherCodec, vaultKey string, log *logger.Logger) (*Storages, error) {
	db, err := NewConnectSQLite(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	creds, err := NewCredentialRepository(db, codec, vaultKey, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Storages{
		Snapshots:   NewSnapshotRepository(db, log),
		Credentials: creds,
		db:          db,
	}, nil
}

// Close closes the underlying database.
func (s *Storages) Close() error {
	return s.db.Close()
}
