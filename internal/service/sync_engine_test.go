// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/go-clip-keeper/internal/adapter"
	"github.com/MKhiriev/go-clip-keeper/internal/crypto"
	"github.com/MKhiriev/go-clip-keeper/internal/logger"
	"github.com/MKhiriev/go-clip-keeper/internal/metrics"
	"github.com/MKhiriev/go-clip-keeper/internal/mock"
	"github.com/MKhiriev/go-clip-keeper/internal/store"
	"github.com/MKhiriev/go-clip-keeper/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testPassphrase = "correct horse"

// fakeSub is one subscription opened on fakeRemote.
type fakeSub struct {
	path   string
	fn     func(adapter.Snapshot)
	closed atomic.Bool
}

func (s *fakeSub) Close() error {
	s.closed.Store(true)
	return nil
}

// fakeRemote is an in-memory RemoteStore. Snapshots are delivered only when
// the test pushes them.
type fakeRemote struct {
	mu       sync.Mutex
	nodes    map[string][]byte
	token    string
	subs     []*fakeSub
	writes   [][]byte
	setErrs  []error
	subErr   error
	deletes  []string
	setCalls int
	// gate, when set, holds every Set until it is closed. Each held Set
	// reports on entered first.
	gate    chan struct{}
	entered chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{nodes: make(map[string][]byte)}
}

func (f *fakeRemote) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *fakeRemote) Subscribe(_ context.Context, path string, onSnapshot func(adapter.Snapshot)) (adapter.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return nil, f.subErr
	}
	s := &fakeSub{path: path, fn: onSnapshot}
	f.subs = append(f.subs, s)
	return s, nil
}

func (f *fakeRemote) Get(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nodes[path], nil
}

func (f *fakeRemote) Set(_ context.Context, path string, value any) error {
	f.mu.Lock()
	gate, entered := f.gate, f.entered
	f.mu.Unlock()
	if gate != nil {
		entered <- struct{}{}
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if len(f.setErrs) > 0 {
		err := f.setErrs[0]
		f.setErrs = f.setErrs[1:]
		if err != nil {
			return err
		}
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.nodes[path] = data
	f.writes = append(f.writes, data)
	return nil
}

func (f *fakeRemote) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.nodes, path)
	f.deletes = append(f.deletes, path)
	return nil
}

func (f *fakeRemote) Close() error { return nil }

// push delivers snap to the newest subscription.
func (f *fakeRemote) push(t *testing.T, snap adapter.Snapshot) {
	t.Helper()
	f.mu.Lock()
	require.NotEmpty(t, f.subs, "no subscription")
	s := f.subs[len(f.subs)-1]
	f.mu.Unlock()
	s.fn(snap)
}

func (f *fakeRemote) pushTo(i int, snap adapter.Snapshot) {
	f.mu.Lock()
	s := f.subs[i]
	f.mu.Unlock()
	s.fn(snap)
}

func (f *fakeRemote) subscriptions() []*fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeSub(nil), f.subs...)
}

func (f *fakeRemote) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func (f *fakeRemote) lastWrite(t *testing.T) *models.Profile {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.writes, "no remote write")

	var p models.Profile
	require.NoError(t, json.Unmarshal(f.writes[len(f.writes)-1], &p))
	return &p
}

func (f *fakeRemote) currentToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

// eventLog is what the engine reported so far.
type eventLog struct {
	added          []string
	removed        []string
	devicesAdded   []models.Device
	devicesRemoved []models.Device
	notes          []string
	credRequests   int
}

// recordingEvents collects everything the engine reports.
type recordingEvents struct {
	mu  sync.Mutex
	log eventLog
}

func (r *recordingEvents) OnClipItemAdded(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.added = append(r.log.added, text)
}

func (r *recordingEvents) OnClipItemRemoved(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.removed = append(r.log.removed, text)
}

func (r *recordingEvents) OnDeviceAdded(d models.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.devicesAdded = append(r.log.devicesAdded, d)
}

func (r *recordingEvents) OnDeviceRemoved(d models.Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.devicesRemoved = append(r.log.devicesRemoved, d)
}

func (r *recordingEvents) OnNotify(title, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.notes = append(r.log.notes, title+": "+body)
}

func (r *recordingEvents) OnNeedToGenerateToken(clientID, clientSecret string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if clientID == "client-id" && clientSecret == "client-secret" {
		r.log.credRequests++
	}
}

func (r *recordingEvents) snapshot() eventLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return eventLog{
		added:          append([]string(nil), r.log.added...),
		removed:        append([]string(nil), r.log.removed...),
		devicesAdded:   append([]models.Device(nil), r.log.devicesAdded...),
		devicesRemoved: append([]models.Device(nil), r.log.devicesRemoved...),
		notes:          append([]string(nil), r.log.notes...),
		credRequests:   r.log.credRequests,
	}
}

var testCodec = crypto.NewCipherCodec()

func enc(t *testing.T, text string) string {
	t.Helper()
	data, err := testCodec.Encrypt(text, testPassphrase)
	require.NoError(t, err)
	return data
}

func profileSnapshot(t *testing.T, p models.Profile) adapter.Snapshot {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return adapter.Snapshot{Data: data}
}

func clipSnapshot(t *testing.T, texts ...string) adapter.Snapshot {
	t.Helper()
	p := models.Profile{MaxItemStorage: 5}
	for _, text := range texts {
		p.Clips = append(p.Clips, models.Clip{Data: enc(t, text)})
	}
	return profileSnapshot(t, p)
}

func plaintexts(t *testing.T, p *models.Profile) []string {
	t.Helper()
	require.NotNil(t, p)
	out := []string{}
	for _, c := range p.Clips {
		text, err := testCodec.Decrypt(c.Data, testPassphrase)
		require.NoError(t, err)
		out = append(out, text)
	}
	return out
}

type engineFixture struct {
	engine    *SyncEngine
	remote    *fakeRemote
	events    *recordingEvents
	refresher *stubRefresher
	creds     *CredentialManager
}

func newTestEngine(t *testing.T, configure func(*EngineOptions)) *engineFixture {
	t.Helper()
	remote := newFakeRemote()
	opts := EngineOptions{
		UID:           "u1",
		Passphrase:    testPassphrase,
		MaxItemLength: 64,
		ClientID:      "client-id",
		ClientSecret:  "client-secret",
		License:       models.License{MaxItemStorage: 5},
		Remote:        remote,
		Codec:         testCodec,
		Logger:        logger.Nop(),
	}
	if configure != nil {
		configure(&opts)
	}

	e := NewSyncEngine(opts)
	events := &recordingEvents{}
	e.BindEventBinder(events)
	e.BindCredentialBinder(events)
	t.Cleanup(e.Dispose)

	return &engineFixture{engine: e, remote: remote, events: events}
}

// newAuthEngine returns an engine that requires a credential, backed by a
// manager holding a fresh one.
func newAuthEngine(t *testing.T, ctrl *gomock.Controller, refresher *stubRefresher) *engineFixture {
	t.Helper()
	vault := mock.NewMockCredentialVault(ctrl)
	vault.EXPECT().SaveCredential(gomock.Any(), "u1", gomock.Any()).Return(nil).AnyTimes()

	creds := NewCredentialManager(refresher, vault, "u1", logger.Nop())
	creds.now = func() time.Time { return testNow }
	require.NoError(t, creds.Set(context.Background(),
		models.Credential{AccessToken: "a1", RefreshToken: "r1", Expiry: testNow.Add(time.Hour)}))

	f := newTestEngine(t, func(o *EngineOptions) {
		o.AuthRequired = true
		o.Credentials = creds
	})
	f.refresher = refresher
	f.creds = creds
	return f
}

// syncedEngine returns an initialized engine whose cache holds texts.
func syncedEngine(t *testing.T, texts ...string) *engineFixture {
	t.Helper()
	f := newTestEngine(t, nil)
	require.NoError(t, f.engine.Initialize(context.Background()))
	f.remote.push(t, clipSnapshot(t, texts...))
	require.Equal(t, StateSynced, f.engine.State())
	return f
}

// ── Initialize and snapshots ─────────────────────────────────────────────────

func TestSyncEngine_EmptyRemote_RegistersNewProfile(t *testing.T) {
	f := newTestEngine(t, func(o *EngineOptions) {
		o.License = models.License{IsLicensed: true, MaxItemStorage: 20, TotalConnection: 3, Strategy: models.StrategyPremium}
	})

	require.NoError(t, f.engine.Initialize(context.Background()))
	assert.Equal(t, StateSubscribing, f.engine.State())

	subs := f.remote.subscriptions()
	require.Len(t, subs, 1)
	assert.Equal(t, "users/u1", subs[0].path)

	f.remote.push(t, adapter.Snapshot{})

	assert.Equal(t, StateSynced, f.engine.State())
	require.Equal(t, 1, f.remote.writeCount())
	written := f.remote.lastWrite(t)
	assert.Empty(t, written.Clips)
	assert.True(t, written.IsLicensed)
	assert.Equal(t, 20, written.MaxItemStorage)
	assert.Equal(t, 3, written.TotalConnection)
	assert.Equal(t, models.StrategyPremium, written.LicenseStrategy)
}

func TestSyncEngine_EmptySnapshot_RemoteAlreadyWritten(t *testing.T) {
	f := newTestEngine(t, nil)
	require.NoError(t, f.engine.Initialize(context.Background()))

	// another device registered between the snapshot and the read
	data, err := json.Marshal(models.Profile{Clips: []models.Clip{{Data: enc(t, "A")}}, MaxItemStorage: 5})
	require.NoError(t, err)
	f.remote.nodes["users/u1"] = data

	f.remote.push(t, adapter.Snapshot{Data: []byte("null")})

	assert.Equal(t, StateSynced, f.engine.State())
	assert.Equal(t, []string{"A"}, plaintexts(t, f.engine.Profile()))
	assert.Empty(t, f.events.snapshot().added)
	assert.Zero(t, f.remote.writeCount())
}

func TestSyncEngine_Snapshot_FirstWithoutCacheIsSilent(t *testing.T) {
	f := syncedEngine(t, "A", "B")

	ev := f.events.snapshot()
	assert.Empty(t, ev.added)
	assert.Empty(t, ev.removed)
	assert.Equal(t, []string{"A", "B"}, plaintexts(t, f.engine.Profile()))
}

func TestSyncEngine_Snapshot_RestoredStateReportsDifferences(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	snapshots := mock.NewMockSnapshotStore(ctrl)
	saved := &models.Profile{ID: "u1", Clips: []models.Clip{{Data: enc(t, "A")}}, MaxItemStorage: 5}
	snapshots.EXPECT().LoadProfile(gomock.Any(), "u1").Return(saved, nil)

	f := newTestEngine(t, func(o *EngineOptions) { o.Snapshots = snapshots })
	require.NoError(t, f.engine.Initialize(context.Background()))

	f.remote.push(t, clipSnapshot(t, "A", "B"))

	assert.Equal(t, []string{"B"}, f.events.snapshot().added)
}

func TestSyncEngine_Snapshot_EmitsOnlyNewClips(t *testing.T) {
	f := syncedEngine(t, "A")

	f.remote.push(t, clipSnapshot(t, "A", "B"))

	ev := f.events.snapshot()
	assert.Equal(t, []string{"B"}, ev.added)
	assert.Empty(t, ev.removed)
	assert.Equal(t, []string{"A", "B"}, plaintexts(t, f.engine.Profile()))
}

func TestSyncEngine_Snapshot_SameValueTwiceIsSilent(t *testing.T) {
	f := syncedEngine(t, "A", "B")

	f.remote.push(t, clipSnapshot(t, "A", "B"))

	assert.Empty(t, f.events.snapshot().added)
	assert.Zero(t, f.remote.writeCount())
}

func TestSyncEngine_Snapshot_DevicesReported(t *testing.T) {
	f := syncedEngine(t)

	f.remote.push(t, profileSnapshot(t, models.Profile{
		MaxItemStorage: 5,
		Devices:        []models.Device{{ID: "d1", Model: "Pixel", SDK: 34}},
	}))

	assert.Equal(t, []models.Device{{ID: "d1", Model: "Pixel", SDK: 34}}, f.events.snapshot().devicesAdded)
	devices, err := f.engine.GetDevices(context.Background())
	require.NoError(t, err)
	assert.Len(t, devices, 1)
}

func TestSyncEngine_Snapshot_UndecryptableClipReportedAsCiphertext(t *testing.T) {
	f := syncedEngine(t)

	foreign, err := testCodec.Encrypt("secret", "other passphrase")
	require.NoError(t, err)
	f.remote.push(t, profileSnapshot(t, models.Profile{MaxItemStorage: 5, Clips: []models.Clip{{Data: foreign}}}))

	assert.Equal(t, []string{foreign}, f.events.snapshot().added)
}

func TestSyncEngine_Snapshot_DecodeErrorIsIgnored(t *testing.T) {
	f := syncedEngine(t, "A")

	f.remote.push(t, adapter.Snapshot{Data: []byte(`{"Clips": "not a list"`)})

	assert.Equal(t, StateSynced, f.engine.State())
	assert.Equal(t, []string{"A"}, plaintexts(t, f.engine.Profile()))
	assert.Contains(t, f.engine.Status().LastError, ErrDecode.Error())
	assert.Zero(t, f.remote.writeCount())
}

func TestSyncEngine_Snapshot_LicenseCorrectionIsPushed(t *testing.T) {
	f := newTestEngine(t, func(o *EngineOptions) {
		o.License = models.License{IsLicensed: true, MaxItemStorage: 100, Strategy: models.StrategyDeluxe}
	})
	require.NoError(t, f.engine.Initialize(context.Background()))

	f.remote.push(t, profileSnapshot(t, models.Profile{IsLicensed: false, MaxItemStorage: 20}))

	require.Equal(t, 1, f.remote.writeCount())
	written := f.remote.lastWrite(t)
	assert.True(t, written.IsLicensed)
	assert.Equal(t, 100, written.MaxItemStorage)
	assert.Equal(t, models.StrategyDeluxe, written.LicenseStrategy)

	// the echo of the corrected profile does not write again
	f.remote.push(t, profileSnapshot(t, *written))
	assert.Equal(t, 1, f.remote.writeCount())
}

func TestSyncEngine_Snapshot_LocalLicenseOverridesRemoteLimits(t *testing.T) {
	f := syncedEngine(t, "A")

	f.remote.push(t, profileSnapshot(t, models.Profile{
		Clips:           []models.Clip{{Data: enc(t, "A")}},
		MaxItemStorage:  99,
		TotalConnection: 7,
	}))

	p := f.engine.Profile()
	assert.Equal(t, 5, p.MaxItemStorage)
	assert.Zero(t, p.TotalConnection)
	// the licensed flag did not flip, so nothing is pushed
	assert.Zero(t, f.remote.writeCount())
}

func TestSyncEngine_Snapshot_TransportErrorFaults(t *testing.T) {
	f := syncedEngine(t, "A")

	f.remote.push(t, adapter.Snapshot{Err: fmt.Errorf("stream: %w", adapter.ErrNetwork)})

	assert.Equal(t, StateFaulted, f.engine.State())
	assert.Contains(t, f.engine.Status().LastError, ErrNetwork.Error())
	assert.Equal(t, []string{"A"}, plaintexts(t, f.engine.Profile()))

	// the next good snapshot recovers
	f.remote.push(t, clipSnapshot(t, "A"))
	assert.Equal(t, StateSynced, f.engine.State())
	assert.Empty(t, f.engine.Status().LastError)
}

func TestSyncEngine_Initialize_SubscribeError(t *testing.T) {
	f := newTestEngine(t, nil)
	f.remote.subErr = adapter.ErrNetwork

	err := f.engine.Initialize(context.Background())

	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, StateFaulted, f.engine.State())
	assert.Len(t, f.events.snapshot().notes, 1)
}

func TestSyncEngine_Reconnect_AfterSubscribeError(t *testing.T) {
	f := newTestEngine(t, nil)
	f.remote.subErr = adapter.ErrNetwork
	require.ErrorIs(t, f.engine.Initialize(context.Background()), ErrNetwork)

	// still unreachable
	assert.ErrorIs(t, f.engine.Reconnect(context.Background()), ErrNetwork)
	assert.Equal(t, StateFaulted, f.engine.State())
	assert.Empty(t, f.remote.subscriptions())

	f.remote.mu.Lock()
	f.remote.subErr = nil
	f.remote.mu.Unlock()

	require.NoError(t, f.engine.Reconnect(context.Background()))
	assert.Equal(t, StateSubscribing, f.engine.State())
	require.Len(t, f.remote.subscriptions(), 1)

	f.remote.push(t, clipSnapshot(t, "A"))
	assert.Equal(t, StateSynced, f.engine.State())

	// connected engines are left alone
	require.NoError(t, f.engine.Reconnect(context.Background()))
	assert.Len(t, f.remote.subscriptions(), 1)
}

func TestSyncEngine_Reconnect_KeepsLiveSubscription(t *testing.T) {
	f := syncedEngine(t, "A")
	f.remote.push(t, adapter.Snapshot{Err: adapter.ErrNetwork})
	require.Equal(t, StateFaulted, f.engine.State())

	require.NoError(t, f.engine.Reconnect(context.Background()))

	assert.Len(t, f.remote.subscriptions(), 1)
	assert.Equal(t, StateFaulted, f.engine.State())
}

func TestSyncEngine_Reconnect_AwaitingAuthWithoutCredential(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	creds := NewCredentialManager(&stubRefresher{}, mock.NewMockCredentialVault(ctrl), "u1", logger.Nop())
	f := newTestEngine(t, func(o *EngineOptions) {
		o.AuthRequired = true
		o.Credentials = creds
	})
	require.ErrorIs(t, f.engine.Initialize(context.Background()), ErrAuth)

	require.NoError(t, f.engine.Reconnect(context.Background()))

	assert.Equal(t, StateAwaitingAuth, f.engine.State())
	assert.Empty(t, f.remote.subscriptions())
	assert.Equal(t, 1, f.events.snapshot().credRequests)
}

func TestSyncEngine_Reconnect_Disposed(t *testing.T) {
	f := newTestEngine(t, nil)
	f.engine.Dispose()

	assert.ErrorIs(t, f.engine.Reconnect(context.Background()), ErrDisposed)
}

// ── Local state ──────────────────────────────────────────────────────────────

func TestSyncEngine_Initialize_RestoresLocalStateAndPushesIt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	snapshots := mock.NewMockSnapshotStore(ctrl)
	saved := &models.Profile{ID: "u1", Clips: []models.Clip{{Data: enc(t, "A")}}, MaxItemStorage: 5}
	snapshots.EXPECT().LoadProfile(gomock.Any(), "u1").Return(saved, nil)

	f := newTestEngine(t, func(o *EngineOptions) { o.Snapshots = snapshots })
	require.NoError(t, f.engine.Initialize(context.Background()))
	assert.Equal(t, []string{"A"}, plaintexts(t, f.engine.Profile()))

	f.remote.push(t, adapter.Snapshot{})

	require.Equal(t, 1, f.remote.writeCount())
	assert.Equal(t, []string{"A"}, plaintexts(t, f.remote.lastWrite(t)))
}

func TestSyncEngine_LoadState_CorruptSnapshotIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	snapshots := mock.NewMockSnapshotStore(ctrl)
	snapshots.EXPECT().LoadProfile(gomock.Any(), "u1").Return(nil, store.ErrSnapshotCorrupt)

	f := newTestEngine(t, func(o *EngineOptions) { o.Snapshots = snapshots })

	require.NoError(t, f.engine.LoadState(context.Background()))
	assert.Nil(t, f.engine.Profile())
}

func TestSyncEngine_LoadState_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	snapshots := mock.NewMockSnapshotStore(ctrl)
	snapshots.EXPECT().LoadProfile(gomock.Any(), "u1").Return(nil, store.ErrPersistence)

	f := newTestEngine(t, func(o *EngineOptions) { o.Snapshots = snapshots })

	assert.ErrorIs(t, f.engine.LoadState(context.Background()), store.ErrPersistence)
}

func TestSyncEngine_SaveState(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	snapshots := mock.NewMockSnapshotStore(ctrl)
	snapshots.EXPECT().LoadProfile(gomock.Any(), "u1").Return(nil, store.ErrSnapshotNotFound)

	f := newTestEngine(t, func(o *EngineOptions) { o.Snapshots = snapshots })

	// nothing cached yet
	require.NoError(t, f.engine.SaveState(context.Background()))

	require.NoError(t, f.engine.Initialize(context.Background()))
	f.remote.push(t, clipSnapshot(t, "A"))

	snapshots.EXPECT().SaveProfile(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p *models.Profile) error {
		assert.Equal(t, "u1", p.ID)
		assert.Equal(t, []string{"A"}, plaintexts(t, p))
		return nil
	})
	require.NoError(t, f.engine.SaveState(context.Background()))

	snapshots.EXPECT().SaveProfile(gomock.Any(), gomock.Any()).Return(store.ErrPersistence)
	assert.ErrorIs(t, f.engine.SaveState(context.Background()), store.ErrPersistence)
}

// ── Mutations ────────────────────────────────────────────────────────────────

func TestSyncEngine_AddClip_WritesOnce(t *testing.T) {
	f := syncedEngine(t, "A")

	require.NoError(t, f.engine.AddClip("B"))
	f.engine.Wait()

	require.Equal(t, 1, f.remote.writeCount())
	assert.Equal(t, []string{"A", "B"}, plaintexts(t, f.remote.lastWrite(t)))
	assert.Equal(t, []string{"A", "B"}, plaintexts(t, f.engine.Profile()))
}

func TestSyncEngine_AddClip_DuplicateMovesToEnd(t *testing.T) {
	f := syncedEngine(t, "A", "B")

	require.NoError(t, f.engine.AddClip("A"))
	f.engine.Wait()

	assert.Equal(t, []string{"B", "A"}, plaintexts(t, f.engine.Profile()))
}

func TestSyncEngine_AddClip_EvictsOldest(t *testing.T) {
	f := newTestEngine(t, func(o *EngineOptions) { o.License = models.License{MaxItemStorage: 3} })
	require.NoError(t, f.engine.Initialize(context.Background()))
	f.remote.push(t, adapter.Snapshot{})

	for _, text := range []string{"1", "2", "3", "4", "5"} {
		require.NoError(t, f.engine.AddClip(text))
		f.engine.Wait()
	}

	assert.Equal(t, []string{"3", "4", "5"}, plaintexts(t, f.engine.Profile()))
	assert.Equal(t, []string{"3", "4", "5"}, plaintexts(t, f.remote.lastWrite(t)))
}

func TestSyncEngine_AddClip_Validation(t *testing.T) {
	f := newTestEngine(t, nil)
	assert.ErrorIs(t, f.engine.AddClip("A"), ErrNotInitialized)

	require.NoError(t, f.engine.Initialize(context.Background()))
	assert.ErrorIs(t, f.engine.AddClip(""), ErrEmptyText)
	assert.ErrorIs(t, f.engine.AddClip(strings.Repeat("x", 65)), ErrTextTooLong)
	assert.ErrorIs(t, f.engine.UpdateData("a", strings.Repeat("x", 65)), ErrTextTooLong)

	nopass := newTestEngine(t, func(o *EngineOptions) { o.Passphrase = "" })
	require.NoError(t, nopass.engine.Initialize(context.Background()))
	assert.ErrorIs(t, nopass.engine.AddClip("A"), crypto.ErrEmptyPassphrase)
}

func TestSyncEngine_AddClip_BeforeFirstSnapshot_EmptyRemote(t *testing.T) {
	f := newTestEngine(t, nil)
	require.NoError(t, f.engine.Initialize(context.Background()))

	require.NoError(t, f.engine.AddClip("A"))
	f.engine.Wait()

	assert.Equal(t, []string{"A"}, plaintexts(t, f.engine.Profile()))
	assert.Zero(t, f.remote.writeCount())

	f.remote.push(t, adapter.Snapshot{})

	require.Equal(t, 1, f.remote.writeCount())
	written := f.remote.lastWrite(t)
	assert.Equal(t, []string{"A"}, plaintexts(t, written))
	assert.Equal(t, 5, written.MaxItemStorage)
	assert.Equal(t, []string{"A"}, plaintexts(t, f.engine.Profile()))
}

func TestSyncEngine_AddClip_BeforeFirstSnapshot_MergedAndPushed(t *testing.T) {
	f := newTestEngine(t, nil)
	require.NoError(t, f.engine.Initialize(context.Background()))

	require.NoError(t, f.engine.AddClip("A"))
	f.engine.Wait()

	f.remote.push(t, clipSnapshot(t, "X"))

	assert.Equal(t, []string{"X", "A"}, plaintexts(t, f.engine.Profile()))
	require.Equal(t, 1, f.remote.writeCount())
	assert.Equal(t, []string{"X", "A"}, plaintexts(t, f.remote.lastWrite(t)))
	assert.Empty(t, f.events.snapshot().added)

	// the echo of the push is a no-op
	f.remote.push(t, profileSnapshot(t, *f.remote.lastWrite(t)))
	assert.Equal(t, 1, f.remote.writeCount())
}

func TestSyncEngine_AddClip_WhileAwaitingAuthIsKept(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vault := mock.NewMockCredentialVault(ctrl)
	vault.EXPECT().SaveCredential(gomock.Any(), "u1", gomock.Any()).Return(nil)
	creds := NewCredentialManager(&stubRefresher{}, vault, "u1", logger.Nop())
	creds.now = func() time.Time { return testNow }
	f := newTestEngine(t, func(o *EngineOptions) {
		o.AuthRequired = true
		o.Credentials = creds
	})
	require.ErrorIs(t, f.engine.Initialize(context.Background()), ErrAuth)

	require.NoError(t, f.engine.AddClip("A"))
	require.NoError(t, f.engine.AddClip("B"))
	f.engine.Wait()
	assert.Equal(t, []string{"A", "B"}, plaintexts(t, f.engine.Profile()))
	assert.Zero(t, f.remote.setCalls)

	require.NoError(t, creds.Set(context.Background(),
		models.Credential{AccessToken: "a1", RefreshToken: "r1", Expiry: testNow.Add(time.Hour)}))
	require.NoError(t, f.engine.Reconnect(context.Background()))
	f.remote.push(t, adapter.Snapshot{})

	assert.Equal(t, []string{"A", "B"}, plaintexts(t, f.remote.lastWrite(t)))
}

func TestSyncEngine_RemoveClip_WithoutProfileIsNoop(t *testing.T) {
	f := newTestEngine(t, nil)
	require.NoError(t, f.engine.Initialize(context.Background()))

	require.NoError(t, f.engine.RemoveClip("A"))
	f.engine.Wait()

	assert.Nil(t, f.engine.Profile())
	assert.Zero(t, f.remote.writeCount())
}

func TestSyncEngine_AddClip_CoalescedDuringFlight(t *testing.T) {
	f := syncedEngine(t)
	gate := make(chan struct{})
	entered := make(chan struct{}, 4)
	f.remote.mu.Lock()
	f.remote.gate, f.remote.entered = gate, entered
	f.remote.mu.Unlock()

	require.NoError(t, f.engine.AddClip("first"))
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("first write did not start")
	}

	texts := []string{"c1", "c2", "c3", "c4"}
	for _, text := range texts {
		require.NoError(t, f.engine.AddClip(text))
	}
	close(gate)
	f.engine.Wait()

	require.Equal(t, 2, f.remote.writeCount())
	assert.Equal(t, append([]string{"first"}, texts...), plaintexts(t, f.remote.lastWrite(t)))
}

func TestSyncEngine_RemoveClip(t *testing.T) {
	f := syncedEngine(t, "A", "B")

	require.NoError(t, f.engine.RemoveClip("A"))
	f.engine.Wait()

	require.Equal(t, 1, f.remote.writeCount())
	assert.Equal(t, []string{"B"}, plaintexts(t, f.remote.lastWrite(t)))
	assert.Equal(t, []string{"B"}, plaintexts(t, f.engine.Profile()))
}

func TestSyncEngine_RemoveClips_MissingTextDoesNotWrite(t *testing.T) {
	f := syncedEngine(t, "A")

	require.NoError(t, f.engine.RemoveClips([]string{"X", "Y"}))
	require.NoError(t, f.engine.RemoveClips(nil))
	f.engine.Wait()

	assert.Zero(t, f.remote.writeCount())
}

func TestSyncEngine_UpdateData(t *testing.T) {
	f := syncedEngine(t, "A", "B")

	require.NoError(t, f.engine.UpdateData("A", "A2"))
	f.engine.Wait()

	assert.Equal(t, []string{"A2", "B"}, plaintexts(t, f.engine.Profile()))
	assert.Equal(t, 1, f.remote.writeCount())
}

func TestSyncEngine_UpdateData_ToExistingTextCollapses(t *testing.T) {
	f := syncedEngine(t, "A", "B", "C")

	require.NoError(t, f.engine.UpdateData("A", "B"))
	f.engine.Wait()

	assert.Equal(t, []string{"B", "C"}, plaintexts(t, f.engine.Profile()))
	written := f.remote.lastWrite(t)
	assert.Equal(t, []string{"B", "C"}, plaintexts(t, written))
	assert.Len(t, written.ClipData(), 2)
}

func TestSyncEngine_RemoveDevice(t *testing.T) {
	f := syncedEngine(t)
	f.remote.push(t, profileSnapshot(t, models.Profile{MaxItemStorage: 5, Devices: []models.Device{{ID: "d1"}, {ID: "d2"}}}))

	require.NoError(t, f.engine.RemoveDevice("d1"))
	f.engine.Wait()

	written := f.remote.lastWrite(t)
	assert.Equal(t, []models.Device{{ID: "d2"}}, written.Devices)
}

func TestSyncEngine_RemoveAllClips(t *testing.T) {
	f := syncedEngine(t, "A", "B")

	require.NoError(t, f.engine.RemoveAllClips(context.Background()))

	assert.Empty(t, f.remote.lastWrite(t).Clips)
	assert.Empty(t, f.engine.Profile().Clips)

	// already empty
	require.NoError(t, f.engine.RemoveAllClips(context.Background()))
	assert.Equal(t, 1, f.remote.writeCount())
}

func TestSyncEngine_WriteFailureKeepsChangeLocally(t *testing.T) {
	f := syncedEngine(t, "A")
	f.remote.setErrs = []error{adapter.ErrNetwork}

	require.NoError(t, f.engine.AddClip("B"))
	f.engine.Wait()

	assert.Zero(t, f.remote.writeCount())
	assert.Equal(t, []string{"A", "B"}, plaintexts(t, f.engine.Profile()))
	assert.Contains(t, f.engine.Status().LastError, ErrNetwork.Error())

	// the next write carries the earlier change
	require.NoError(t, f.engine.AddClip("C"))
	f.engine.Wait()
	assert.Equal(t, []string{"A", "B", "C"}, plaintexts(t, f.remote.lastWrite(t)))
}

func TestSyncEngine_ResetUser(t *testing.T) {
	f := syncedEngine(t, "A")

	require.NoError(t, f.engine.ResetUser(context.Background()))

	assert.Equal(t, []string{"users/u1"}, f.remote.deletes)
	assert.Equal(t, []string{"A"}, f.events.snapshot().removed)
	assert.Empty(t, f.engine.Profile().Clips)
	written := f.remote.lastWrite(t)
	assert.Empty(t, written.Clips)
	assert.Equal(t, 5, written.MaxItemStorage)
}

func TestSyncEngine_UpdateLicense(t *testing.T) {
	f := syncedEngine(t, "A")

	require.NoError(t, f.engine.UpdateLicense(context.Background(), models.License{IsLicensed: true, MaxItemStorage: 50}))
	require.Equal(t, 1, f.remote.writeCount())
	assert.True(t, f.remote.lastWrite(t).IsLicensed)
	assert.True(t, f.engine.Status().Licensed)

	// same flag, no write
	require.NoError(t, f.engine.UpdateLicense(context.Background(), models.License{IsLicensed: true, MaxItemStorage: 60}))
	assert.Equal(t, 1, f.remote.writeCount())
	assert.Equal(t, 60, f.engine.Profile().MaxItemStorage)
}

func TestSyncEngine_Metrics(t *testing.T) {
	m := metrics.NewSyncMetrics()
	f := newTestEngine(t, func(o *EngineOptions) { o.Metrics = m })
	require.NoError(t, f.engine.Initialize(context.Background()))
	f.remote.push(t, clipSnapshot(t, "A"))
	require.NoError(t, f.engine.AddClip("B"))
	f.engine.Wait()

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, fam := range families {
		names = append(names, fam.GetName())
	}
	assert.Contains(t, names, "clipkeeper_snapshots_total")
	assert.Contains(t, names, "clipkeeper_remote_writes_total")
}

// ── Images ───────────────────────────────────────────────────────────────────

func TestSyncEngine_AddAndRemoveImage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	blobs := mock.NewMockBlobStorage(ctrl)
	f := newTestEngine(t, func(o *EngineOptions) {
		o.Blobs = blobs
		o.MaxItemLength = 0
	})
	require.NoError(t, f.engine.Initialize(context.Background()))
	f.remote.push(t, clipSnapshot(t, "A"))

	path := filepath.Join(t.TempDir(), "shot.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0o600))

	url := "https://bucket.example/XClipper/images/shot.png?X-Amz-Signature=1"
	blobs.EXPECT().Upload(gomock.Any(), "shot.png", gomock.Any()).Return(url, nil)

	require.NoError(t, f.engine.AddImage(context.Background(), path))
	f.engine.Wait()

	assert.Equal(t, []string{"A", "![shot.png](" + url + ")"}, plaintexts(t, f.engine.Profile()))
	assert.Len(t, f.events.snapshot().notes, 1)

	blobs.EXPECT().Delete(gomock.Any(), "shot.png").Return(nil)
	require.NoError(t, f.engine.RemoveImage(context.Background(), "shot.png", false))
	f.engine.Wait()

	assert.Equal(t, []string{"A"}, plaintexts(t, f.engine.Profile()))
}

func TestSyncEngine_RemoveImage_OnlyFromStorage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	blobs := mock.NewMockBlobStorage(ctrl)
	f := newTestEngine(t, func(o *EngineOptions) { o.Blobs = blobs })
	require.NoError(t, f.engine.Initialize(context.Background()))
	f.remote.push(t, clipSnapshot(t, "![a.png](u)"))

	blobs.EXPECT().Delete(gomock.Any(), "a.png").Return(nil)
	require.NoError(t, f.engine.RemoveImage(context.Background(), "a.png", true))
	f.engine.Wait()

	assert.Equal(t, []string{"![a.png](u)"}, plaintexts(t, f.engine.Profile()))
}

func TestSyncEngine_RemoveImages_JoinsErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	blobs := mock.NewMockBlobStorage(ctrl)
	f := newTestEngine(t, func(o *EngineOptions) { o.Blobs = blobs })
	require.NoError(t, f.engine.Initialize(context.Background()))
	f.remote.push(t, clipSnapshot(t, "![a.png](u1)", "![b.png](u2)"))

	blobs.EXPECT().Delete(gomock.Any(), "a.png").Return(adapter.ErrForbidden)
	blobs.EXPECT().Delete(gomock.Any(), "b.png").Return(nil)

	err := f.engine.RemoveImages(context.Background(), []string{"a.png", "b.png"})
	f.engine.Wait()

	assert.ErrorIs(t, err, ErrAuth)
	assert.Contains(t, err.Error(), "a.png")
	assert.Equal(t, []string{"![a.png](u1)"}, plaintexts(t, f.engine.Profile()))
}

func TestSyncEngine_Images_Disabled(t *testing.T) {
	f := syncedEngine(t)

	assert.ErrorIs(t, f.engine.AddImage(context.Background(), "x.png"), ErrBlobStorageDisabled)
	assert.ErrorIs(t, f.engine.RemoveImage(context.Background(), "x.png", false), ErrBlobStorageDisabled)
	assert.ErrorIs(t, f.engine.RemoveImages(context.Background(), []string{"x.png"}), ErrBlobStorageDisabled)
}

// ── Credentials ──────────────────────────────────────────────────────────────

func TestSyncEngine_Initialize_AwaitingAuth(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vault := mock.NewMockCredentialVault(ctrl)
	vault.EXPECT().SaveCredential(gomock.Any(), "u1", gomock.Any()).Return(nil)
	creds := NewCredentialManager(&stubRefresher{}, vault, "u1", logger.Nop())
	creds.now = func() time.Time { return testNow }

	f := newTestEngine(t, func(o *EngineOptions) {
		o.AuthRequired = true
		o.Credentials = creds
	})

	err := f.engine.Initialize(context.Background())

	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, StateAwaitingAuth, f.engine.State())
	assert.Equal(t, 1, f.events.snapshot().credRequests)
	assert.Empty(t, f.remote.subscriptions())
	assert.Equal(t, "invalid", f.engine.Status().Credential)

	// supplying a credential does not connect by itself
	require.NoError(t, creds.Set(context.Background(),
		models.Credential{AccessToken: "a1", RefreshToken: "r1", Expiry: testNow.Add(time.Hour)}))
	assert.Empty(t, f.remote.subscriptions())

	require.NoError(t, f.engine.Initialize(context.Background()))
	assert.Equal(t, StateSubscribing, f.engine.State())
	assert.Equal(t, "a1", f.remote.currentToken())
}

func TestSyncEngine_Initialize_RefreshesExpiredCredential(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r := &stubRefresher{cred: models.Credential{AccessToken: "a2", Expiry: testNow.Add(2 * time.Hour)}}
	f := newAuthEngine(t, ctrl, r)
	f.creds.now = func() time.Time { return testNow.Add(90 * time.Minute) }

	require.NoError(t, f.engine.Initialize(context.Background()))

	assert.EqualValues(t, 1, r.calls.Load())
	assert.Equal(t, "a2", f.remote.currentToken())
	assert.Equal(t, StateSubscribing, f.engine.State())
}

func TestSyncEngine_Initialize_RefreshFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r := &stubRefresher{err: fmt.Errorf("%w: invalid_grant", ErrAuth)}
	f := newAuthEngine(t, ctrl, r)
	f.creds.now = func() time.Time { return testNow.Add(90 * time.Minute) }

	err := f.engine.Initialize(context.Background())

	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, StateAwaitingAuth, f.engine.State())
	assert.Equal(t, 1, f.events.snapshot().credRequests)
}

func TestSyncEngine_UnauthorizedSnapshot_RefreshesAndReconnects(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r := &stubRefresher{cred: models.Credential{AccessToken: "a2", RefreshToken: "r2", Expiry: testNow.Add(2 * time.Hour)}}
	f := newAuthEngine(t, ctrl, r)
	require.NoError(t, f.engine.Initialize(context.Background()))
	assert.Equal(t, "a1", f.remote.currentToken())
	f.remote.push(t, clipSnapshot(t, "A"))

	f.remote.push(t, adapter.Snapshot{Err: fmt.Errorf("stream: %w", adapter.ErrUnauthorized)})

	assert.EqualValues(t, 1, r.calls.Load())
	assert.Equal(t, "a2", f.remote.currentToken())
	subs := f.remote.subscriptions()
	require.Len(t, subs, 2)
	assert.True(t, subs[0].closed.Load())
	assert.False(t, subs[1].closed.Load())
	assert.Equal(t, []string{"A"}, plaintexts(t, f.engine.Profile()))

	f.remote.push(t, clipSnapshot(t, "A", "B"))
	assert.Equal(t, StateSynced, f.engine.State())
	assert.Equal(t, []string{"B"}, f.events.snapshot().added)
}

func TestSyncEngine_UnauthorizedSnapshot_RefreshFailsFaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r := &stubRefresher{err: fmt.Errorf("%w: invalid_grant", ErrAuth)}
	f := newAuthEngine(t, ctrl, r)
	require.NoError(t, f.engine.Initialize(context.Background()))
	f.remote.push(t, clipSnapshot(t, "A"))

	f.remote.push(t, adapter.Snapshot{Err: adapter.ErrUnauthorized})

	assert.Equal(t, StateFaulted, f.engine.State())
	assert.Contains(t, f.engine.Status().LastError, ErrAuth.Error())
	ev := f.events.snapshot()
	assert.Equal(t, 1, ev.credRequests)
	require.Len(t, ev.notes, 1)
	assert.True(t, strings.HasPrefix(ev.notes[0], "Sync error"))
	assert.Equal(t, []string{"A"}, plaintexts(t, f.engine.Profile()))
}

func TestSyncEngine_UnauthorizedTwice_Faults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r := &stubRefresher{cred: models.Credential{AccessToken: "a2", RefreshToken: "r2", Expiry: testNow.Add(2 * time.Hour)}}
	f := newAuthEngine(t, ctrl, r)
	require.NoError(t, f.engine.Initialize(context.Background()))

	f.remote.push(t, adapter.Snapshot{Err: adapter.ErrUnauthorized})
	f.remote.push(t, adapter.Snapshot{Err: adapter.ErrUnauthorized})

	assert.EqualValues(t, 1, r.calls.Load())
	assert.Equal(t, StateFaulted, f.engine.State())
}

func TestSyncEngine_UnauthorizedWrite_RetriedAfterRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r := &stubRefresher{cred: models.Credential{AccessToken: "a2", RefreshToken: "r2", Expiry: testNow.Add(2 * time.Hour)}}
	f := newAuthEngine(t, ctrl, r)
	require.NoError(t, f.engine.Initialize(context.Background()))
	f.remote.push(t, clipSnapshot(t, "A"))
	f.remote.setErrs = []error{adapter.ErrUnauthorized}

	require.NoError(t, f.engine.AddClip("B"))
	f.engine.Wait()

	assert.EqualValues(t, 1, r.calls.Load())
	assert.Equal(t, 2, f.remote.setCalls)
	assert.Equal(t, []string{"A", "B"}, plaintexts(t, f.remote.lastWrite(t)))
	assert.Equal(t, "a2", f.remote.currentToken())
}

func TestSyncEngine_StaleSubscriptionDeliveriesDropped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newAuthEngine(t, ctrl, &stubRefresher{})
	require.NoError(t, f.engine.Initialize(context.Background()))
	f.remote.push(t, clipSnapshot(t, "A"))

	// a new credential reconnects
	require.NoError(t, f.creds.Set(context.Background(),
		models.Credential{AccessToken: "a3", RefreshToken: "r3", Expiry: testNow.Add(time.Hour)}))
	require.Len(t, f.remote.subscriptions(), 2)

	f.remote.pushTo(0, clipSnapshot(t, "A", "stale"))

	assert.Equal(t, []string{"A"}, plaintexts(t, f.engine.Profile()))
	assert.Equal(t, "a3", f.remote.currentToken())
}

func TestSyncEngine_RunCommonTask(t *testing.T) {
	f := newTestEngine(t, nil)
	require.NoError(t, f.engine.RunCommonTask(context.Background()))

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r := &stubRefresher{cred: models.Credential{AccessToken: "a2", Expiry: testNow.Add(3 * time.Hour)}}
	auth := newAuthEngine(t, ctrl, r)
	require.NoError(t, auth.engine.RunCommonTask(context.Background()))
	assert.Zero(t, r.calls.Load())

	auth.creds.now = func() time.Time { return testNow.Add(2 * time.Hour) }
	require.NoError(t, auth.engine.RunCommonTask(context.Background()))
	assert.EqualValues(t, 1, r.calls.Load())
}

// ── Dispose and status ───────────────────────────────────────────────────────

func TestSyncEngine_Dispose(t *testing.T) {
	f := syncedEngine(t, "A")
	sub := f.remote.subscriptions()[0]

	f.engine.Dispose()
	f.engine.Dispose()

	assert.True(t, sub.closed.Load())
	assert.ErrorIs(t, f.engine.AddClip("B"), ErrDisposed)
	assert.ErrorIs(t, f.engine.Initialize(context.Background()), ErrDisposed)
	_, err := f.engine.GetDevices(context.Background())
	assert.ErrorIs(t, err, ErrDisposed)

	f.remote.pushTo(0, clipSnapshot(t, "A", "late"))
	assert.Empty(t, f.events.snapshot().added)
	assert.Zero(t, f.remote.writeCount())
}

func TestSyncEngine_Status(t *testing.T) {
	f := syncedEngine(t, "A", "B")

	st := f.engine.Status()

	assert.Equal(t, Status{State: "synced", UID: "u1", Clips: 2}, st)
}

func TestEngineState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "awaiting_auth", StateAwaitingAuth.String())
	assert.Equal(t, "subscribing", StateSubscribing.String())
	assert.Equal(t, "synced", StateSynced.String())
	assert.Equal(t, "faulted", StateFaulted.String())
}

func TestSyncEngine_AddClip_EncryptErrorSkipsClip(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	codec := mock.NewMockCipherCodec(ctrl)
	f := newTestEngine(t, func(o *EngineOptions) { o.Codec = codec })
	require.NoError(t, f.engine.Initialize(context.Background()))
	f.remote.push(t, profileSnapshot(t, models.Profile{MaxItemStorage: 5}))

	codec.EXPECT().Encrypt("x", testPassphrase).Return("", crypto.ErrDecrypt)

	require.NoError(t, f.engine.AddClip("x"))
	f.engine.Wait()

	assert.Zero(t, f.remote.writeCount())
	assert.Empty(t, f.engine.Profile().Clips)
}
