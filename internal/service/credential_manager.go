// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-clip-keeper/internal/logger"
	"github.com/MKhiriev/go-clip-keeper/internal/store"
	"github.com/MKhiriev/go-clip-keeper/internal/utils"
	"github.com/MKhiriev/go-clip-keeper/models"
	"golang.org/x/sync/singleflight"
)

// defaultTokenLifetime is assumed when neither the token endpoint nor the
// token itself carries an expiry.
const defaultTokenLifetime = time.Hour

// CredentialState is the lifecycle state of the held credential.
type CredentialState int

const (
	CredentialInvalid CredentialState = iota
	CredentialRefreshing
	CredentialValid
	// CredentialNeedsRefresh means the access token has expired but a refresh
	// is still possible.
	CredentialNeedsRefresh
)

func (s CredentialState) String() string {
	switch s {
	case CredentialRefreshing:
		return "refreshing"
	case CredentialValid:
		return "valid"
	case CredentialNeedsRefresh:
		return "needs_refresh"
	default:
		return "invalid"
	}
}

// CredentialManager holds the access credential of one user, keeps it
// sealed in the vault and refreshes it on demand.
type CredentialManager struct {
	refresher TokenRefresher
	vault     store.CredentialVault
	uid       string

	mu          sync.RWMutex
	cred        models.Credential
	revoked     bool
	refreshing  bool
	onRefreshed []func(models.Credential)

	group singleflight.Group
	now   func() time.Time

	logger *logger.Logger
}

// NewCredentialManager returns a manager with no credential. Call Load to
// restore the credential from vault.
func NewCredentialManager(refresher TokenRefresher, vault store.CredentialVault, uid string, log *logger.Logger) *CredentialManager {
	return &CredentialManager{
		refresher: refresher,
		vault:     vault,
		uid:       uid,
		now:       time.Now,
		logger:    log.WithComponent("credential_manager"),
	}
}

// Load restores the sealed credential. A missing credential is not an error.
func (m *CredentialManager) Load(ctx context.Context) error {
	cred, err := m.vault.LoadCredential(ctx, m.uid)
	if errors.Is(err, store.ErrCredentialNotFound) {
		m.logger.Info().Str("uid", m.uid).Msg("no stored credential")
		return nil
	}
	if err != nil {
		m.logger.Error().Err(err).Str("uid", m.uid).Msg("error loading credential")
		return err
	}

	m.mu.Lock()
	m.cred = m.withExpiry(cred)
	m.revoked = false
	m.mu.Unlock()

	return nil
}

// Set replaces the credential with one obtained by the user, stores it and
// notifies the OnRefreshed listeners.
func (m *CredentialManager) Set(ctx context.Context, cred models.Credential) error {
	cred = m.withExpiry(cred)

	m.mu.Lock()
	m.cred = cred
	m.revoked = false
	m.mu.Unlock()

	if err := m.vault.SaveCredential(ctx, m.uid, cred); err != nil {
		m.logger.Error().Err(err).Msg("error storing credential")
		return err
	}

	m.notify(cred)
	return nil
}

// OnRefreshed registers fn to be called after every successful refresh or
// Set.
func (m *CredentialManager) OnRefreshed(fn func(models.Credential)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRefreshed = append(m.onRefreshed, fn)
}

// Current returns the held credential.
func (m *CredentialManager) Current() models.Credential {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred
}

// IsValid reports whether the credential can be used or refreshed without
// user interaction.
func (m *CredentialManager) IsValid() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.revoked && m.cred.IsValid()
}

// NeedsRefresh reports whether the access token has expired.
func (m *CredentialManager) NeedsRefresh() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cred.NeedsRefresh(m.now())
}

func (m *CredentialManager) State() CredentialState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case m.refreshing:
		return CredentialRefreshing
	case m.revoked || !m.cred.IsValid():
		return CredentialInvalid
	case m.cred.NeedsRefresh(m.now()):
		return CredentialNeedsRefresh
	default:
		return CredentialValid
	}
}

// Refresh exchanges the refresh token for a new credential. Concurrent
// callers share one exchange. When the exchange fails after the access token
// has expired the credential becomes invalid; before expiry it stays usable.
func (m *CredentialManager) Refresh(ctx context.Context) (models.Credential, error) {
	v, err, shared := m.group.Do("refresh", func() (any, error) {
		return m.refresh(ctx)
	})
	if shared {
		m.logger.Debug().Msg("joined in-progress token refresh")
	}
	if err != nil {
		return models.Credential{}, err
	}
	return v.(models.Credential), nil
}

func (m *CredentialManager) refresh(ctx context.Context) (models.Credential, error) {
	m.mu.Lock()
	if m.revoked || !m.cred.IsValid() {
		m.mu.Unlock()
		return models.Credential{}, fmt.Errorf("%w: no refresh token", ErrAuth)
	}
	m.refreshing = true
	refreshToken := m.cred.RefreshToken
	m.mu.Unlock()

	cred, err := m.refresher.Refresh(ctx, refreshToken)

	m.mu.Lock()
	m.refreshing = false
	if err != nil {
		expired := m.cred.NeedsRefresh(m.now())
		if expired {
			m.revoked = true
		}
		m.mu.Unlock()

		m.logger.Error().Err(err).Bool("expired", expired).Msg("token refresh failed")
		return models.Credential{}, err
	}

	if cred.RefreshToken == "" {
		cred.RefreshToken = refreshToken
	}
	cred = m.withExpiry(cred)
	m.cred = cred
	m.revoked = false
	m.mu.Unlock()

	if err = m.vault.SaveCredential(ctx, m.uid, cred); err != nil {
		// the new token is still usable for this session
		m.logger.Error().Err(err).Msg("error storing refreshed credential")
	}

	m.logger.Info().Time("expiry", cred.Expiry).Msg("access token refreshed")
	m.notify(cred)
	return cred, nil
}

// EnsureFresh returns nil when the credential can be used for a remote call,
// refreshing it first when the access token has expired.
func (m *CredentialManager) EnsureFresh(ctx context.Context) error {
	if !m.IsValid() {
		return fmt.Errorf("%w: credential is not valid", ErrAuth)
	}
	if !m.NeedsRefresh() {
		return nil
	}

	_, err := m.Refresh(ctx)
	return err
}

func (m *CredentialManager) withExpiry(cred models.Credential) models.Credential {
	if !cred.Expiry.IsZero() || cred.AccessToken == "" {
		return cred
	}

	if exp, err := utils.TokenExpiry(cred.AccessToken); err == nil {
		cred.Expiry = exp
	} else {
		cred.Expiry = m.now().Add(defaultTokenLifetime)
	}
	return cred
}

func (m *CredentialManager) notify(cred models.Credential) {
	m.mu.RLock()
	listeners := append([]func(models.Credential){}, m.onRefreshed...)
	m.mu.RUnlock()

	for _, fn := range listeners {
		fn(cred)
	}
}
