package service

import (
	"context"

	"github.com/MKhiriev/go-clip-keeper/models"
)

// TokenRefresher exchanges a refresh token for a new credential.
type TokenRefresher interface {
	// Refresh returns ErrAuth when the refresh token is rejected and
	// ErrNetwork for every other failure.
	Refresh(ctx context.Context, refreshToken string) (models.Credential, error)
}

// CredentialBinder is implemented by the UI layer to obtain a new
// credential from the user.
type CredentialBinder interface {
	OnNeedToGenerateToken(clientID, clientSecret string)
}

// SyncEventBinder receives the changes detected in remote snapshots. Clip
// texts are plaintext, or the raw ciphertext when it cannot be decrypted.
type SyncEventBinder interface {
	OnClipItemAdded(text string)
	OnClipItemRemoved(text string)
	OnDeviceAdded(device models.Device)
	OnDeviceRemoved(device models.Device)
	OnNotify(title, body string)
}

type noopCredentialBinder struct{}

func (noopCredentialBinder) OnNeedToGenerateToken(string, string) {}

type noopEventBinder struct{}

func (noopEventBinder) OnClipItemAdded(string)        {}
func (noopEventBinder) OnClipItemRemoved(string)      {}
func (noopEventBinder) OnDeviceAdded(models.Device)   {}
func (noopEventBinder) OnDeviceRemoved(models.Device) {}
func (noopEventBinder) OnNotify(string, string)       {}
