package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-clip-keeper/internal/adapter"
	"github.com/MKhiriev/go-clip-keeper/internal/config"
	"github.com/MKhiriev/go-clip-keeper/internal/crypto"
	"github.com/MKhiriev/go-clip-keeper/internal/logger"
	"github.com/MKhiriev/go-clip-keeper/internal/metrics"
	"github.com/MKhiriev/go-clip-keeper/internal/server"
	"github.com/MKhiriev/go-clip-keeper/internal/service"
	"github.com/MKhiriev/go-clip-keeper/internal/store"
	"github.com/MKhiriev/go-clip-keeper/internal/utils"
	"github.com/MKhiriev/go-clip-keeper/internal/workers"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	engine   *service.SyncEngine
	storages *store.Storages
	remote   adapter.RemoteStore
	workers  *workers.Workers

	logger *logger.Logger
}

// NewApp opens the local database and the remote store and builds the sync
// engine with its workers. Nothing is connected until Run.
func NewApp(ctx context.Context, cfg *config.StructuredConfig, log *logger.Logger) (*App, error) {
	uid := cfg.App.UID
	if uid == "" {
		uid = utils.MachineUID()
		log.Info().Str("uid", uid).Msg("no uid configured, using machine uid")
	}

	codec := crypto.NewCipherCodec()
	storages, err := store.NewStorages(ctx, cfg.Storage.DB, codec, cfg.App.VaultKey, log)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	remote, err := adapter.NewRemoteStore(ctx, cfg.Remote, log)
	if err != nil {
		_ = storages.Close()
		return nil, fmt.Errorf("create remote store: %w", err)
	}

	blobs, err := adapter.NewBlobStorage(ctx, cfg.Storage.Images, log)
	if err != nil {
		_ = remote.Close()
		_ = storages.Close()
		return nil, fmt.Errorf("create image storage: %w", err)
	}

	var creds *service.CredentialManager
	if cfg.Remote.AuthRequired {
		refresher := service.NewOAuth2Refresher(cfg.Auth.ClientID, cfg.Auth.ClientSecret, cfg.Auth.TokenURL)
		creds = service.NewCredentialManager(refresher, storages.Credentials, uid, log)
		if err = creds.Load(ctx); err != nil {
			_ = remote.Close()
			_ = storages.Close()
			return nil, fmt.Errorf("load credential: %w", err)
		}
	}

	m := metrics.NewSyncMetrics()
	engine := service.NewSyncEngine(service.EngineOptions{
		UID:           uid,
		Passphrase:    cfg.App.EncryptPassword,
		MaxItemLength: cfg.App.MaxItemLength,
		AuthRequired:  cfg.Remote.AuthRequired,
		ClientID:      cfg.Auth.ClientID,
		ClientSecret:  cfg.Auth.ClientSecret,
		License:       cfg.LicenseModel(),
		Remote:        remote,
		Snapshots:     storages.Snapshots,
		Credentials:   creds,
		Codec:         codec,
		Blobs:         blobs,
		Metrics:       m,
		Logger:        log,
	})

	watcher := workers.NewClipboardWatcher(engine, cfg.Workers.ClipboardPollInterval, log)
	engine.BindEventBinder(newEventBinder(watcher, log))
	engine.BindCredentialBinder(credentialPrompt{logger: log})

	ws := []workers.Worker{
		watcher,
		workers.NewSnapshotSaver(engine, cfg.Workers.SaveInterval, log),
		workers.NewReconnector(engine, cfg.Workers.ReconnectInterval, log),
	}
	if cfg.Remote.AuthRequired {
		ws = append(ws, workers.NewCredentialChecker(engine, cfg.Workers.CredentialCheckInterval, log))
	}
	if srv, serr := server.NewStatusServer(engine, m, cfg.Server, log); serr == nil {
		ws = append(ws, srv)
	} else {
		log.Info().Err(serr).Msg("status server disabled")
	}

	return &App{
		engine:   engine,
		storages: storages,
		remote:   remote,
		workers:  workers.NewWorkers(ws...),
		logger:   log,
	}, nil
}

// Run connects the engine and runs the workers until ctx is cancelled. On
// exit the engine is disposed and its state saved.
func (a *App) Run(ctx context.Context) error {
	if err := a.engine.Initialize(ctx); err != nil {
		if !errors.Is(err, service.ErrAuth) && !errors.Is(err, service.ErrNetwork) {
			a.shutdown()
			return fmt.Errorf("initialize sync engine: %w", err)
		}
		a.logger.Warn().Err(err).Str("state", a.engine.State().String()).Msg("sync engine not connected")
	}

	err := a.workers.Run(ctx)
	a.shutdown()
	return err
}

func (a *App) shutdown() {
	a.engine.Dispose()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.engine.SaveState(ctx); err != nil {
		a.logger.Error().Err(err).Msg("error saving state on exit")
	}

	if err := a.remote.Close(); err != nil {
		a.logger.Error().Err(err).Msg("error closing remote store")
	}
	if err := a.storages.Close(); err != nil {
		a.logger.Error().Err(err).Msg("error closing local storage")
	}
	a.logger.Info().Msg("client stopped")
}

// Engine returns the sync engine of the app.
func (a *App) Engine() *service.SyncEngine {
	return a.engine
}
