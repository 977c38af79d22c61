// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/go-clip-keeper/internal/adapter"
	"github.com/MKhiriev/go-clip-keeper/internal/crypto"
	"github.com/MKhiriev/go-clip-keeper/internal/logger"
	"github.com/MKhiriev/go-clip-keeper/internal/metrics"
	"github.com/MKhiriev/go-clip-keeper/internal/store"
	"github.com/MKhiriev/go-clip-keeper/models"
)

// EngineOptions configures a [SyncEngine].
type EngineOptions struct {
	// UID selects the remote profile node users/{UID}.
	UID string
	// Passphrase encrypts clip text before it is written.
	Passphrase string
	// MaxItemLength rejects longer clip texts. Zero disables the check.
	MaxItemLength int

	// AuthRequired makes every remote call depend on a valid credential.
	AuthRequired bool
	// ClientID and ClientSecret are handed to the CredentialBinder when the
	// user has to authorize again.
	ClientID     string
	ClientSecret string

	// License is the authoritative license state stamped onto every profile.
	License models.License

	Remote      adapter.RemoteStore
	Snapshots   store.SnapshotStore
	Credentials *CredentialManager
	Codec       crypto.CipherCodec
	// Blobs stores image clips. Nil disables AddImage and RemoveImage.
	Blobs   adapter.BlobStorage
	Metrics *metrics.SyncMetrics
	Logger  *logger.Logger
}

// SyncEngine keeps the clip history of one user in sync with the remote
// profile node. It owns the cached profile: remote snapshots are merged into
// it one at a time, and local mutations are applied to it through a
// [MutationQueue] before being written back.
type SyncEngine struct {
	uid           string
	passphrase    string
	maxItemLength int
	authRequired  bool
	clientID      string
	clientSecret  string

	remote    adapter.RemoteStore
	snapshots store.SnapshotStore
	creds     *CredentialManager
	codec     crypto.CipherCodec
	blobs     adapter.BlobStorage
	metrics   *metrics.SyncMetrics
	logger    *logger.Logger

	bindMu     sync.RWMutex
	credBinder CredentialBinder
	events     SyncEventBinder

	queue *MutationQueue

	stateMu sync.RWMutex
	state   EngineState
	lastErr error

	// profMu guards profile, license and the flags below.
	profMu  sync.Mutex
	profile *models.Profile
	license models.License
	// baseline is set once the cached profile was restored or reconciled;
	// only then are snapshot differences reported.
	baseline bool
	// reconciled is set by the first snapshot cycle. Until then mutations
	// stay in the cache and unsent records that they exist.
	reconciled bool
	unsent     bool

	// cycleMu serializes snapshot cycles.
	cycleMu sync.Mutex

	subMu sync.Mutex
	sub   adapter.Subscription
	gen   atomic.Uint64

	// authRetry is set after a refresh triggered by a rejected credential
	// and cleared by the next successful remote exchange.
	authRetry atomic.Bool

	ctx      context.Context
	cancel   context.CancelFunc
	disposed atomic.Bool
	now      func() time.Time
}

// NewSyncEngine builds an engine in [StateUninitialized]. Call Initialize to
// connect it.
func NewSyncEngine(opts EngineOptions) *SyncEngine {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	codec := opts.Codec
	if codec == nil {
		codec = crypto.NewCipherCodec()
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &SyncEngine{
		uid:           opts.UID,
		passphrase:    opts.Passphrase,
		maxItemLength: opts.MaxItemLength,
		authRequired:  opts.AuthRequired,
		clientID:      opts.ClientID,
		clientSecret:  opts.ClientSecret,
		remote:        opts.Remote,
		snapshots:     opts.Snapshots,
		creds:         opts.Credentials,
		codec:         codec,
		blobs:         opts.Blobs,
		metrics:       opts.Metrics,
		logger:        log.WithComponent("sync_engine"),
		credBinder:    noopCredentialBinder{},
		events:        noopEventBinder{},
		license:       opts.License,
		ctx:           ctx,
		cancel:        cancel,
		now:           time.Now,
	}
	e.queue = NewMutationQueue(e.flight, func(k MutationKind) {
		e.metrics.ObserveCoalesced(k.String())
	})

	if e.creds != nil {
		e.creds.OnRefreshed(e.onCredential)
	}
	e.metrics.SetState(int(StateUninitialized))

	return e
}

// BindCredentialBinder sets the receiver of "need credential" requests. Nil
// restores the no-op binder.
func (e *SyncEngine) BindCredentialBinder(b CredentialBinder) {
	if b == nil {
		b = noopCredentialBinder{}
	}
	e.bindMu.Lock()
	e.credBinder = b
	e.bindMu.Unlock()
}

// BindEventBinder sets the receiver of sync events. Nil restores the no-op
// binder.
func (e *SyncEngine) BindEventBinder(b SyncEventBinder) {
	if b == nil {
		b = noopEventBinder{}
	}
	e.bindMu.Lock()
	e.events = b
	e.bindMu.Unlock()
}

func (e *SyncEngine) eventBinder() SyncEventBinder {
	e.bindMu.RLock()
	defer e.bindMu.RUnlock()
	return e.events
}

// Initialize restores the local snapshot, checks the credential and opens
// the remote subscription. When a credential is required and missing it
// asks the CredentialBinder for one, moves to [StateAwaitingAuth] and
// returns ErrAuth; call Initialize again once the credential is set.
func (e *SyncEngine) Initialize(ctx context.Context) error {
	if e.disposed.Load() {
		return ErrDisposed
	}

	e.profMu.Lock()
	hasProfile := e.profile != nil
	e.profMu.Unlock()
	if !hasProfile {
		_ = e.LoadState(ctx)
	}

	if e.authRequired {
		if e.creds == nil || !e.creds.IsValid() {
			e.logger.Warn().Str("uid", e.uid).Msg("credential is not valid")
			e.setState(StateAwaitingAuth, ErrAuth)
			e.needCredential()
			return fmt.Errorf("%w: credential is not valid", ErrAuth)
		}
		if e.creds.NeedsRefresh() {
			e.logger.Info().Msg("access token expired, refreshing")
			if err := e.refreshCredential(ctx); err != nil {
				e.setState(StateAwaitingAuth, err)
				if errors.Is(err, ErrAuth) {
					e.needCredential()
				}
				return err
			}
		}
		e.remote.SetToken(e.creds.Current().AccessToken)
	}

	e.setState(StateSubscribing, nil)
	if err := e.connect(); err != nil {
		if isUnauthorized(err) {
			return e.recoverAuth(ctx, err)
		}
		e.fault(err)
		return err
	}

	e.logger.Info().Str("uid", e.uid).Msg("sync engine subscribed")
	return nil
}

// connect replaces the current subscription with a new one. Deliveries of
// the previous subscription that are still queued are dropped.
func (e *SyncEngine) connect() error {
	e.subMu.Lock()
	defer e.subMu.Unlock()

	if e.sub != nil {
		_ = e.sub.Close()
		e.sub = nil
	}

	gen := e.gen.Add(1)
	sub, err := e.remote.Subscribe(e.ctx, models.UserPath(e.uid), func(s adapter.Snapshot) {
		e.handleSnapshot(gen, s)
	})
	if err != nil {
		return mapAdapterError(err)
	}

	e.sub = sub
	return nil
}

// onCredential installs a refreshed credential and rebuilds the remote
// connection when the engine is connected.
func (e *SyncEngine) onCredential(cred models.Credential) {
	if e.disposed.Load() {
		return
	}
	e.remote.SetToken(cred.AccessToken)

	switch e.State() {
	case StateSubscribing, StateSynced, StateFaulted:
		e.logger.Debug().Msg("credential changed, reconnecting")
		if err := e.connect(); err != nil {
			e.fault(err)
		}
	}
}

// handleSnapshot runs one merge/diff/emit cycle.
func (e *SyncEngine) handleSnapshot(gen uint64, snap adapter.Snapshot) {
	if e.disposed.Load() {
		return
	}

	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	if e.disposed.Load() {
		return
	}
	if gen != e.gen.Load() {
		e.metrics.ObserveSnapshot(metrics.SnapshotStale)
		return
	}

	ctx := e.ctx
	if snap.Err != nil {
		e.metrics.ObserveSnapshot(metrics.SnapshotError)
		e.handleTransportError(ctx, snap.Err)
		return
	}

	if snap.Empty() {
		e.metrics.ObserveSnapshot(metrics.SnapshotEmpty)
		e.claimRemote(ctx)
		return
	}

	remote, err := decodeProfile(snap.Data, e.uid)
	if err != nil {
		e.metrics.ObserveSnapshot(metrics.SnapshotDecodeError)
		e.logger.Warn().Err(err).Str("uid", e.uid).Msg("remote snapshot ignored")
		e.setLastError(err)
		return
	}

	e.applyRemote(ctx, remote)

	if err = e.RunCommonTask(ctx); err != nil {
		e.logger.Warn().Err(err).Msg("credential check after snapshot failed")
	}
}

func (e *SyncEngine) handleTransportError(ctx context.Context, err error) {
	if isUnauthorized(err) {
		_ = e.recoverAuth(ctx, err)
		return
	}

	mapped := mapAdapterError(err)
	e.logger.Warn().Err(mapped).Msg("remote subscription interrupted")
	e.setState(StateFaulted, mapped)
}

// claimRemote handles an empty remote node: the cached profile is pushed,
// or when there is none the remote is read once more and a fresh profile is
// registered if it is still empty.
func (e *SyncEngine) claimRemote(ctx context.Context) {
	e.profMu.Lock()
	cached := e.profile != nil
	e.profMu.Unlock()

	if !cached {
		data, err := e.remote.Get(ctx, models.UserPath(e.uid))
		if err != nil {
			e.handleTransportError(ctx, err)
			return
		}

		if !(adapter.Snapshot{Data: data}).Empty() {
			if remote, derr := decodeProfile(data, e.uid); derr == nil {
				e.applyRemote(ctx, remote)
				return
			}
		}

		e.logger.Info().Str("uid", e.uid).Msg("registering new profile")
	}

	e.profMu.Lock()
	if e.profile == nil {
		e.profile = models.NewProfile(e.uid, e.license)
	}
	e.baseline, e.reconciled, e.unsent = true, true, false
	p := e.profile.Clone()
	e.profMu.Unlock()

	if err := e.writeProfile(ctx, "register", p); err != nil {
		return
	}
	e.metrics.SetProfile(len(p.Clips), len(p.Devices))
	e.setState(StateSynced, nil)
}

// applyRemote merges remote into the cache with the authoritative license
// and emits the differences. Changes the remote does not have yet because
// they were made before the first snapshot are pushed.
func (e *SyncEngine) applyRemote(ctx context.Context, remote *models.Profile) {
	e.profMu.Lock()
	license := e.license
	licenseChanged := remote.IsLicensed != license.IsLicensed
	cached := e.profile
	announce := e.baseline

	merged := Merge(cached, remote, &license)
	e.profile = merged
	unsent := e.unsent && !Diff(remote, merged).Empty()
	e.baseline, e.reconciled, e.unsent = true, true, false
	pushed := merged.Clone()
	e.profMu.Unlock()

	if announce {
		e.emit(Diff(cached, merged))
	}

	e.metrics.ObserveSnapshot(metrics.SnapshotApplied)
	e.metrics.SetProfile(len(pushed.Clips), len(pushed.Devices))
	e.authRetry.Store(false)
	e.setState(StateSynced, nil)

	switch {
	case licenseChanged:
		e.logger.Info().Bool("licensed", pushed.IsLicensed).Msg("pushing corrected license")
		_ = e.writeProfile(ctx, "license", pushed)
	case unsent:
		e.logger.Info().Int("clips", len(pushed.Clips)).Msg("pushing changes made before the first snapshot")
		_ = e.writeProfile(ctx, "pending", pushed)
	}
}

// emit reports a diff to the event binder. Clips that cannot be decrypted
// are reported as their ciphertext.
func (e *SyncEngine) emit(d ProfileDiff) {
	if d.Empty() || e.disposed.Load() {
		return
	}
	events := e.eventBinder()

	for _, c := range d.AddedClips {
		events.OnClipItemAdded(e.plaintext(c))
	}
	for _, c := range d.RemovedClips {
		events.OnClipItemRemoved(e.plaintext(c))
	}
	for _, dev := range d.AddedDevices {
		events.OnDeviceAdded(dev)
	}
	for _, dev := range d.RemovedDevices {
		events.OnDeviceRemoved(dev)
	}
}

func (e *SyncEngine) plaintext(c models.Clip) string {
	text, err := e.codec.Decrypt(c.Data, e.passphrase)
	if err != nil {
		e.logger.Warn().Err(err).Msg("clip cannot be decrypted")
		return c.Data
	}
	return text
}

// RunCommonTask checks the credential before a remote operation, refreshing
// it when the access token has expired. It asks the CredentialBinder for a
// new credential when none can be used.
func (e *SyncEngine) RunCommonTask(ctx context.Context) error {
	if !e.authRequired {
		return nil
	}

	if e.creds == nil || !e.creds.IsValid() {
		e.needCredential()
		return fmt.Errorf("%w: credential is not valid", ErrAuth)
	}
	if !e.creds.NeedsRefresh() {
		return nil
	}

	err := e.refreshCredential(ctx)
	if errors.Is(err, ErrAuth) || (err != nil && !e.creds.IsValid()) {
		e.needCredential()
	}
	return err
}

// Reconnect opens the subscription again when the engine faulted without
// one, or waits for a credential that has become valid since. Other states
// keep their subscription and Reconnect does nothing.
func (e *SyncEngine) Reconnect(ctx context.Context) error {
	if e.disposed.Load() {
		return ErrDisposed
	}

	switch e.State() {
	case StateFaulted:
		e.subMu.Lock()
		live := e.sub != nil
		e.subMu.Unlock()
		if live {
			return nil
		}
	case StateAwaitingAuth:
		if e.creds == nil || !e.creds.IsValid() {
			return nil
		}
	default:
		return nil
	}

	e.logger.Info().Str("uid", e.uid).Str("state", e.State().String()).Msg("reconnecting")
	return e.Initialize(ctx)
}

// recoverAuth handles a credential rejected by the transport: one refresh,
// which reconnects through onCredential. A second rejection before the next
// successful exchange faults the engine.
func (e *SyncEngine) recoverAuth(ctx context.Context, cause error) error {
	if e.creds == nil || e.authRetry.Swap(true) {
		err := fmt.Errorf("%w: %v", ErrAuth, cause)
		e.fault(err)
		e.needCredential()
		return err
	}

	e.logger.Warn().Err(cause).Msg("remote rejected the credential, refreshing")
	if err := e.refreshCredential(ctx); err != nil {
		if !errors.Is(err, ErrAuth) {
			err = fmt.Errorf("%w: %w", ErrAuth, err)
		}
		e.fault(err)
		e.needCredential()
		return err
	}
	return nil
}

func (e *SyncEngine) refreshCredential(ctx context.Context) error {
	_, err := e.creds.Refresh(ctx)
	e.metrics.ObserveRefresh(err)
	return err
}

func (e *SyncEngine) needCredential() {
	if e.disposed.Load() {
		return
	}
	e.bindMu.RLock()
	b := e.credBinder
	e.bindMu.RUnlock()

	b.OnNeedToGenerateToken(e.clientID, e.clientSecret)
}

// writeProfile writes p to the remote node after a credential check. A
// rejected credential is refreshed and the write retried once.
func (e *SyncEngine) writeProfile(ctx context.Context, kind string, p *models.Profile) error {
	if err := e.RunCommonTask(ctx); err != nil {
		e.metrics.ObserveWrite(kind, err)
		e.logger.Warn().Err(err).Str("kind", kind).Msg("write skipped, change kept locally")
		e.setLastError(err)
		return err
	}

	err := e.remote.Set(ctx, models.UserPath(e.uid), p)
	if err != nil && isUnauthorized(err) {
		if rerr := e.recoverAuth(ctx, err); rerr == nil {
			err = e.remote.Set(ctx, models.UserPath(e.uid), p)
		}
	}
	e.metrics.ObserveWrite(kind, err)

	if err != nil {
		mapped := mapAdapterError(err)
		if errors.Is(mapped, ErrAuth) {
			e.logger.Error().Err(mapped).Str("kind", kind).Msg("remote write rejected")
		} else {
			e.logger.Warn().Err(mapped).Str("kind", kind).Msg("remote write failed, change kept locally")
		}
		e.setLastError(mapped)
		return mapped
	}

	e.authRetry.Store(false)
	e.logger.Debug().Str("kind", kind).Int("clips", len(p.Clips)).Msg("profile written")
	return nil
}

// Dispose closes the subscription, waits for running flights and stops all
// callbacks. The engine cannot be used afterwards.
func (e *SyncEngine) Dispose() {
	if e.disposed.Swap(true) {
		return
	}
	e.cancel()

	e.subMu.Lock()
	if e.sub != nil {
		_ = e.sub.Close()
		e.sub = nil
	}
	e.subMu.Unlock()

	// wait for a running cycle
	e.cycleMu.Lock()
	e.cycleMu.Unlock()

	e.queue.Close()
	e.logger.Info().Msg("sync engine disposed")
}

// Wait blocks until all mutation flights have settled.
func (e *SyncEngine) Wait() {
	e.queue.Wait()
}

func (e *SyncEngine) State() EngineState {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.state
}

// Profile returns a copy of the cached profile, or nil.
func (e *SyncEngine) Profile() *models.Profile {
	e.profMu.Lock()
	defer e.profMu.Unlock()
	return e.profile.Clone()
}

func (e *SyncEngine) Status() Status {
	e.stateMu.RLock()
	st := Status{State: e.state.String(), UID: e.uid}
	if e.lastErr != nil {
		st.LastError = e.lastErr.Error()
	}
	e.stateMu.RUnlock()

	e.profMu.Lock()
	if e.profile != nil {
		st.Clips = len(e.profile.Clips)
		st.Devices = len(e.profile.Devices)
	}
	st.Licensed = e.license.IsLicensed
	e.profMu.Unlock()

	if e.authRequired && e.creds != nil {
		st.Credential = e.creds.State().String()
	}
	return st
}

func (e *SyncEngine) setState(s EngineState, err error) {
	e.stateMu.Lock()
	e.state = s
	if s == StateSynced {
		e.lastErr = nil
	}
	if err != nil {
		e.lastErr = err
	}
	e.stateMu.Unlock()

	e.metrics.SetState(int(s))
}

func (e *SyncEngine) setLastError(err error) {
	e.stateMu.Lock()
	e.lastErr = err
	e.stateMu.Unlock()
}

func (e *SyncEngine) fault(err error) {
	e.logger.Error().Err(err).Str("uid", e.uid).Msg("sync engine faulted")
	e.setState(StateFaulted, err)
	if !e.disposed.Load() {
		e.eventBinder().OnNotify("Sync error", err.Error())
	}
}

func decodeProfile(data []byte, uid string) (*models.Profile, error) {
	var p models.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	p.ID = uid
	return p.Clone(), nil
}
