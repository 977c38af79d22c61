package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/MKhiriev/go-clip-keeper/internal/adapter"
	"github.com/MKhiriev/go-clip-keeper/internal/crypto"
	"github.com/MKhiriev/go-clip-keeper/internal/store"
	"github.com/MKhiriev/go-clip-keeper/models"
)

// AddClip appends text to the clip history. The write happens in the
// background; AddClip only validates and enqueues.
func (e *SyncEngine) AddClip(text string) error {
	if err := e.acceptMutations(); err != nil {
		return err
	}
	if text == "" {
		return ErrEmptyText
	}
	if e.maxItemLength > 0 && len(text) > e.maxItemLength {
		return fmt.Errorf("%w: %d > %d", ErrTextTooLong, len(text), e.maxItemLength)
	}
	if e.passphrase == "" {
		return crypto.ErrEmptyPassphrase
	}

	e.submitted(e.queue.SubmitAdd(text))
	return nil
}

// RemoveClip removes every clip whose plaintext equals text.
func (e *SyncEngine) RemoveClip(text string) error {
	return e.RemoveClips([]string{text})
}

// RemoveClips removes every clip matching any of texts in one pass and
// writes once if anything was removed.
func (e *SyncEngine) RemoveClips(texts []string) error {
	if err := e.acceptMutations(); err != nil {
		return err
	}
	if len(texts) == 0 {
		return nil
	}

	e.submitted(e.queue.SubmitRemove(texts...))
	return nil
}

// UpdateData replaces the clip whose plaintext is oldText with newText.
// Repeated updates of the same oldText before the write keep the newest
// replacement.
func (e *SyncEngine) UpdateData(oldText, newText string) error {
	if err := e.acceptMutations(); err != nil {
		return err
	}
	if e.maxItemLength > 0 && len(newText) > e.maxItemLength {
		return fmt.Errorf("%w: %d > %d", ErrTextTooLong, len(newText), e.maxItemLength)
	}

	e.submitted(e.queue.SubmitUpdate(oldText, newText))
	return nil
}

// RemoveDevice unbinds the device with id from the profile.
func (e *SyncEngine) RemoveDevice(id string) error {
	if err := e.acceptMutations(); err != nil {
		return err
	}

	e.submitted(e.queue.SubmitRemoveDevice(id))
	return nil
}

func (e *SyncEngine) acceptMutations() error {
	if e.disposed.Load() {
		return ErrDisposed
	}
	if e.State() == StateUninitialized {
		return ErrNotInitialized
	}
	return nil
}

func (e *SyncEngine) submitted(ok bool) {
	if !ok {
		e.logger.Debug().Msg("mutation rejected, engine disposed")
	}
}

// flight applies one drained batch to the cached profile and writes the
// result once. A change that cannot be written stays in the cache and goes
// out with the next successful write. Before the first snapshot nothing is
// written; the snapshot cycle pushes what the remote is missing.
func (e *SyncEngine) flight(kind MutationKind, b *batch) {
	if e.disposed.Load() {
		return
	}

	e.profMu.Lock()
	if e.profile == nil {
		if kind != KindAdd {
			e.profMu.Unlock()
			e.logger.Debug().Str("kind", kind.String()).Msg("no cached profile, nothing to change")
			return
		}
		e.profile = models.NewProfile(e.uid, e.license)
	}

	var changed bool
	switch kind {
	case KindAdd:
		changed = e.applyAdd(b.texts)
	case KindRemove:
		changed = e.applyRemove(b.texts)
	case KindUpdate:
		changed = e.applyUpdate(b.updates)
	case KindRemoveDevice:
		changed = e.applyRemoveDevices(b.texts)
	}
	p := e.profile.Clone()
	held := changed && !e.reconciled
	if held {
		e.unsent = true
	}
	e.profMu.Unlock()

	if !changed {
		return
	}
	e.metrics.SetProfile(len(p.Clips), len(p.Devices))

	if held {
		e.logger.Debug().Str("kind", kind.String()).Msg("change kept until the first snapshot")
		return
	}
	_ = e.writeProfile(e.ctx, kind.String(), p)
}

// applyAdd appends texts in order. A text already present moves to the end.
// The oldest clips are evicted while the history exceeds the license limit.
// Caller holds profMu.
func (e *SyncEngine) applyAdd(texts []string) bool {
	var added bool
	for _, text := range texts {
		data, err := e.codec.Encrypt(text, e.passphrase)
		if err != nil {
			e.logger.Warn().Err(err).Msg("clip cannot be encrypted, skipped")
			continue
		}

		e.profile.Clips = slices.DeleteFunc(e.profile.Clips, func(c models.Clip) bool { return c.Data == data })
		e.profile.Clips = append(e.profile.Clips, models.Clip{Data: data, Time: e.now()})
		added = true
	}

	if limit := e.license.MaxItemStorage; limit > 0 && len(e.profile.Clips) > limit {
		e.profile.Clips = slices.Delete(e.profile.Clips, 0, len(e.profile.Clips)-limit)
	}
	return added
}

// applyRemove drops every clip whose plaintext is in texts. Caller holds
// profMu.
func (e *SyncEngine) applyRemove(texts []string) bool {
	if !e.profile.HasClips() {
		return false
	}

	before := len(e.profile.Clips)
	e.profile.Clips = slices.DeleteFunc(e.profile.Clips, func(c models.Clip) bool {
		return slices.Contains(texts, e.plaintext(c))
	})
	return len(e.profile.Clips) != before
}

// applyUpdate re-encrypts the clips whose plaintext has a replacement. A
// replacement equal to another clip collapses the two into one entry.
// Caller holds profMu.
func (e *SyncEngine) applyUpdate(updates map[string]string) bool {
	if !e.profile.HasClips() || len(updates) == 0 {
		return false
	}

	var changed bool
	for i, c := range e.profile.Clips {
		newText, ok := updates[e.plaintext(c)]
		if !ok {
			continue
		}
		data, err := e.codec.Encrypt(newText, e.passphrase)
		if err != nil {
			e.logger.Warn().Err(err).Msg("clip cannot be encrypted, update skipped")
			continue
		}
		if data != c.Data {
			e.profile.Clips[i].Data = data
			changed = true
		}
	}
	if changed {
		e.profile.Clips = unionBy(e.profile.Clips, nil, func(c models.Clip) string { return c.Data })
	}
	return changed
}

// Caller holds profMu.
func (e *SyncEngine) applyRemoveDevices(ids []string) bool {
	before := len(e.profile.Devices)
	e.profile.Devices = slices.DeleteFunc(e.profile.Devices, func(d models.Device) bool {
		return slices.Contains(ids, d.ID)
	})
	return len(e.profile.Devices) != before
}

// RemoveAllClips clears the clip history and writes it immediately.
func (e *SyncEngine) RemoveAllClips(ctx context.Context) error {
	if err := e.acceptMutations(); err != nil {
		return err
	}
	if err := e.RunCommonTask(ctx); err != nil {
		return err
	}

	e.profMu.Lock()
	if !e.profile.HasClips() {
		e.profMu.Unlock()
		return nil
	}
	e.profile.Clips = []models.Clip{}
	p := e.profile.Clone()
	e.profMu.Unlock()

	e.metrics.SetProfile(0, len(p.Devices))
	return e.writeProfile(ctx, "remove_all", p)
}

// GetDevices returns the devices bound to the profile after a credential
// check.
func (e *SyncEngine) GetDevices(ctx context.Context) ([]models.Device, error) {
	if e.disposed.Load() {
		return nil, ErrDisposed
	}
	if err := e.RunCommonTask(ctx); err != nil {
		return []models.Device{}, err
	}

	e.profMu.Lock()
	defer e.profMu.Unlock()
	if e.profile == nil {
		return []models.Device{}, nil
	}
	return slices.Clone(e.profile.Devices), nil
}

// ResetUser deletes the remote profile node and registers an empty profile
// in its place. Clips removed this way are reported to the event binder.
func (e *SyncEngine) ResetUser(ctx context.Context) error {
	if err := e.acceptMutations(); err != nil {
		return err
	}

	// snapshots caused by the delete run after the new profile is cached
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	if err := e.RunCommonTask(ctx); err != nil {
		return err
	}

	path := models.UserPath(e.uid)
	if err := e.remote.Delete(ctx, path); err != nil {
		mapped := mapAdapterError(err)
		e.logger.Warn().Err(mapped).Msg("error deleting remote profile")
		return mapped
	}

	data, err := e.remote.Get(ctx, path)
	if err != nil {
		return mapAdapterError(err)
	}

	fresh := models.NewProfile(e.uid, e.license)
	if !(adapter.Snapshot{Data: data}).Empty() {
		if remote, derr := decodeProfile(data, e.uid); derr == nil {
			remote.ApplyLicense(e.license)
			fresh = remote
		}
	}

	e.profMu.Lock()
	old := e.profile
	e.profile = fresh
	e.baseline, e.reconciled, e.unsent = true, true, false
	p := fresh.Clone()
	e.profMu.Unlock()

	e.emit(Diff(old, fresh))
	e.metrics.SetProfile(len(p.Clips), len(p.Devices))
	e.logger.Info().Str("uid", e.uid).Msg("profile reset")

	return e.writeProfile(ctx, "register", p)
}

// UpdateLicense replaces the authoritative license. The cached profile is
// pushed when its licensed flag flips.
func (e *SyncEngine) UpdateLicense(ctx context.Context, l models.License) error {
	if e.disposed.Load() {
		return ErrDisposed
	}

	e.profMu.Lock()
	e.license = l
	if e.profile == nil {
		e.profMu.Unlock()
		e.logger.Info().Msg("license updated before a profile was cached")
		return nil
	}
	changed := e.profile.ApplyLicense(l)
	p := e.profile.Clone()
	held := changed && !e.reconciled
	if held {
		e.unsent = true
	}
	e.profMu.Unlock()

	if !changed || held || e.State() == StateUninitialized {
		return nil
	}
	return e.writeProfile(ctx, "license", p)
}

// SaveState persists the cached profile locally.
func (e *SyncEngine) SaveState(ctx context.Context) error {
	p := e.Profile()
	if p == nil || e.snapshots == nil {
		return nil
	}

	if err := e.snapshots.SaveProfile(ctx, p); err != nil {
		e.logger.Error().Err(err).Msg("error saving local state")
		return err
	}
	e.logger.Debug().Int("clips", len(p.Clips)).Msg("saved current profile state")
	return nil
}

// LoadState restores the locally persisted profile into the cache. A
// missing or corrupt snapshot leaves the cache untouched.
func (e *SyncEngine) LoadState(ctx context.Context) error {
	if e.snapshots == nil {
		return nil
	}

	p, err := e.snapshots.LoadProfile(ctx, e.uid)
	switch {
	case errors.Is(err, store.ErrSnapshotNotFound):
		e.logger.Debug().Msg("no previous profile state")
		return nil
	case errors.Is(err, store.ErrSnapshotCorrupt):
		e.logger.Warn().Err(err).Msg("invalid previous profile state")
		return nil
	case err != nil:
		e.logger.Error().Err(err).Msg("error loading local state")
		return err
	}

	e.profMu.Lock()
	e.profile = p
	e.baseline = true
	e.profMu.Unlock()

	e.metrics.SetProfile(len(p.Clips), len(p.Devices))
	e.logger.Info().Int("clips", len(p.Clips)).Msg("previous profile state restored")
	return nil
}
