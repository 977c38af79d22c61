package client

import (
	"github.com/MKhiriev/go-clip-keeper/internal/logger"
	"github.com/MKhiriev/go-clip-keeper/models"
)

// eventBinder places clips added on other devices on the local clipboard
// and logs every other sync event.
type eventBinder struct {
	clipboard clipPlacer
	logger    *logger.Logger
}

func newEventBinder(clipboard clipPlacer, log *logger.Logger) *eventBinder {
	return &eventBinder{clipboard: clipboard, logger: log.WithComponent("events")}
}

func (b *eventBinder) OnClipItemAdded(text string) {
	b.logger.Debug().Int("length", len(text)).Msg("clip added")
	if b.clipboard == nil {
		return
	}
	if err := b.clipboard.Place(text); err != nil {
		b.logger.Warn().Err(err).Msg("error writing clipboard")
	}
}

func (b *eventBinder) OnClipItemRemoved(text string) {
	b.logger.Debug().Int("length", len(text)).Msg("clip removed")
}

func (b *eventBinder) OnDeviceAdded(d models.Device) {
	b.logger.Info().Str("device_id", d.ID).Str("model", d.Model).Int("sdk", d.SDK).Msg("device connected")
}

func (b *eventBinder) OnDeviceRemoved(d models.Device) {
	b.logger.Info().Str("device_id", d.ID).Str("model", d.Model).Msg("device disconnected")
}

func (b *eventBinder) OnNotify(title, body string) {
	b.logger.Info().Str("title", title).Msg(body)
}

// credentialPrompt asks the user to authorize again. There is no UI, so
// the request goes to the log.
type credentialPrompt struct {
	logger *logger.Logger
}

func (p credentialPrompt) OnNeedToGenerateToken(clientID, _ string) {
	p.logger.Warn().Str("client_id", clientID).Msg("authorization required, sign in again to resume sync")
}
