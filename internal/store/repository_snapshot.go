// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-clip-keeper/internal/logger"
	"github.com/MKhiriev/go-clip-keeper/models"
)

// snapshotRepository is the SQLite-backed implementation of [SnapshotStore].
// A profile is stored as its JSON node value, keyed by uid.
type snapshotRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewSnapshotRepository constructs a [SnapshotStore] backed by db.
func NewSnapshotRepository(db *DB, log *logger.Logger) SnapshotStore {
	return &snapshotRepository{
		db:     db,
		logger: log.WithComponent("snapshot_repository"),
	}
}

// SaveProfile stores a copy of profile, replacing any previous snapshot of
// the same user.
func (r *snapshotRepository) SaveProfile(ctx context.Context, profile *models.Profile) error {
	if profile == nil || profile.ID == "" {
		return fmt.Errorf("%w: profile without id", ErrPersistence)
	}

	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("%w: encode profile: %v", ErrPersistence, err)
	}

	query, args, err := buildUpsertProfileQuery(profile.ID, payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Err(err).Str("uid", profile.ID).Msg("error saving profile snapshot")
		return fmt.Errorf("%w: save profile: %v", ErrPersistence, err)
	}

	r.logger.Debug().Str("uid", profile.ID).Int("clips", len(profile.Clips)).Msg("profile snapshot saved")
	return nil
}

// LoadProfile returns the stored snapshot of uid.
func (r *snapshotRepository) LoadProfile(ctx context.Context, uid string) (*models.Profile, error) {
	query, args, err := buildSelectProfileQuery(uid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}

	var payload []byte
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		r.logger.Err(err).Str("uid", uid).Msg("error loading profile snapshot")
		return nil, fmt.Errorf("%w: load profile: %v", ErrPersistence, err)
	}

	var profile models.Profile
	if err = json.Unmarshal(payload, &profile); err != nil {
		r.logger.Warn().Err(err).Str("uid", uid).Msg("stored profile snapshot is corrupt")
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	profile.ID = uid

	return profile.Clone(), nil
}

// DeleteProfile removes the snapshot of uid. Deleting a missing snapshot is
// not an error.
func (r *snapshotRepository) DeleteProfile(ctx context.Context, uid string) error {
	query, args, err := buildDeleteProfileQuery(uid)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Err(err).Str("uid", uid).Msg("error deleting profile snapshot")
		return fmt.Errorf("%w: delete profile: %v", ErrPersistence, err)
	}

	return nil
}
