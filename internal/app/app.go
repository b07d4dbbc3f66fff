package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alex386386/streem-relay/internal/config"
	"github.com/Alex386386/streem-relay/internal/core"
	"github.com/Alex386386/streem-relay/internal/store"
	"github.com/Alex386386/streem-relay/internal/store/sqlite"
	"github.com/Alex386386/streem-relay/internal/transport/tcp"
	"github.com/Alex386386/streem-relay/internal/transport/ws"
)

// App wires the store, the hub and the transports together.
type App struct {
	cfg config.Config
	log *zerolog.Logger

	hub   *core.Hub
	store store.Store
	tcp   *tcp.Server
	ws    *ws.Server
}

// New constructs the application: it opens the snapshot store,
// restores persisted state and prepares the transports. A snapshot
// that exists but cannot be loaded aborts startup.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	snap, err := st.LoadSnapshot(context.Background())
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	hub := core.NewHub(logger, core.Options{
		Retention:   cfg.HistoryRetention,
		SweepPeriod: cfg.SweepPeriod,
		ReplayDepth: cfg.ReplayDepth,
	})
	if snap != nil {
		hub.Restore(snap)
		logger.Info().
			Int("lobby_messages", len(snap.LobbyHistory)).
			Int("channels", len(snap.Channels)).
			Msg("state restored from snapshot")
	}

	a := &App{
		cfg:   cfg,
		log:   logger,
		hub:   hub,
		store: st,
		tcp:   tcp.NewServer(hub, logger, cfg.ClientBuffer),
	}
	if cfg.HTTPAddr != "" {
		a.ws = ws.NewServer(hub, cfg.HTTPAddr, cfg.ReadHeaderTimeout, cfg.ClientBuffer, logger)
	}
	return a, nil
}

// Run serves until ctx is cancelled or a transport fails, then saves
// the snapshot and releases resources.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hubDone := make(chan struct{})
	go func() {
		a.hub.Run(ctx)
		close(hubDone)
	}()

	if err := a.tcp.Listen(a.cfg.Addr); err != nil {
		cancel()
		<-hubDone
		a.store.Close()
		return fmt.Errorf("listen %s: %w", a.cfg.Addr, err)
	}
	a.log.Info().Str("addr", a.cfg.Addr).Msg("tcp transport listening")

	errCh := make(chan error, 2)
	go func() {
		errCh <- a.tcp.Serve(ctx)
	}()
	if a.ws != nil {
		a.log.Info().Str("addr", a.cfg.HTTPAddr).Msg("http transport listening")
		go func() {
			errCh <- a.ws.Run(ctx)
		}()
	}

	var runErr error
	select {
	case runErr = <-errCh:
		cancel()
	case <-ctx.Done():
	}

	<-hubDone
	a.log.Info().Msg("server shutting down")

	if err := a.saveSnapshot(); err != nil {
		a.log.Error().Err(err).Msg("failed to save snapshot")
		if runErr == nil {
			runErr = err
		}
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close store")
	}
	return runErr
}

func (a *App) saveSnapshot() error {
	saveCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.store.SaveSnapshot(saveCtx, a.hub.Snapshot()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	a.log.Info().Str("path", a.cfg.SnapshotPath).Msg("snapshot saved")
	return nil
}
