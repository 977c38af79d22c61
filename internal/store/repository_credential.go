package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-clip-keeper/internal/crypto"
	"github.com/MKhiriev/go-clip-keeper/internal/logger"
	"github.com/MKhiriev/go-clip-keeper/models"
)

// credentialRepository is the SQLite-backed implementation of
// [CredentialVault]. Credentials are sealed with codec under key before they
// are written.
type credentialRepository struct {
	db     *DB
	codec  crypto.CipherCodec
	key    string
	logger *logger.Logger
}

// NewCredentialRepository constructs a [CredentialVault] backed by db.
func NewCredentialRepository(db *DB, codec crypto.CipherCodec, vaultKey string, log *logger.Logger) (CredentialVault, error) {
	if vaultKey == "" {
		return nil, fmt.Errorf("empty vault key: %w", crypto.ErrEmptyPassphrase)
	}

	return &credentialRepository{
		db:     db,
		codec:  codec,
		key:    vaultKey,
		logger: log.WithComponent("credential_repository"),
	}, nil
}

func (r *credentialRepository) SaveCredential(ctx context.Context, uid string, cred models.Credential) error {
	plain, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("%w: encode credential: %v", ErrPersistence, err)
	}

	sealed, err := r.codec.Encrypt(string(plain), r.key)
	if err != nil {
		return fmt.Errorf("%w: seal credential: %v", ErrPersistence, err)
	}

	query, args, err := buildUpsertCredentialQuery(uid, sealed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Err(err).Str("uid", uid).Msg("error saving credential")
		return fmt.Errorf("%w: save credential: %v", ErrPersistence, err)
	}

	return nil
}

func (r *credentialRepository) LoadCredential(ctx context.Context, uid string) (models.Credential, error) {
	query, args, err := buildSelectCredentialQuery(uid)
	if err != nil {
		return models.Credential{}, fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}

	var sealed string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Credential{}, ErrCredentialNotFound
	}
	if err != nil {
		r.logger.Err(err).Str("uid", uid).Msg("error loading credential")
		return models.Credential{}, fmt.Errorf("%w: load credential: %v", ErrPersistence, err)
	}

	plain, err := r.codec.Decrypt(sealed, r.key)
	if err != nil {
		r.logger.Warn().Err(err).Str("uid", uid).Msg("stored credential cannot be unsealed")
		return models.Credential{}, fmt.Errorf("%w: %v", ErrCredentialNotFound, err)
	}

	var cred models.Credential
	if err = json.Unmarshal([]byte(plain), &cred); err != nil {
		return models.Credential{}, fmt.Errorf("%w: %v", ErrCredentialNotFound, err)
	}

	return cred, nil
}

func (r *credentialRepository) DeleteCredential(ctx context.Context, uid string) error {
	query, args, err := buildDeleteCredentialQuery(uid)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: delete credential: %v", ErrPersistence, err)
	}

	return nil
}
