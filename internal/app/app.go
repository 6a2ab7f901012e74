package app

import (
	"context"
	"fmt"
	"net/http"

	"snapfeed/internal/retention"
	"snapfeed/pkg/config"
	"snapfeed/pkg/state"
	"snapfeed/pkg/store"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	srv           *http.Server
	stopRetention context.CancelFunc
}

// New initializes resources that do not require a running context: config
// validation, the runtime state layout and the store. It does not start the
// sweeper or the HTTP server; call Run to start those and block until
// shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	if eff.DBPath == "" {
		eff.DBPath = "./.database"
	}
	if eff.Config == nil {
		eff.Config = &config.Config{}
	}

	if err := validateConfig(eff); err != nil {
		return nil, err
	}

	if err := state.EnsureStateDirs(eff.DBPath); err != nil {
		return nil, fmt.Errorf("failed to prepare state dirs under %s: %w", eff.DBPath, err)
	}

	if err := store.Open(state.PathsVar.Store); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", state.PathsVar.Store, err)
	}

	return &App{eff: eff, version: version, commit: commit, buildDate: buildDate}, nil
}

// Run starts the retention scheduler and the HTTP server, and blocks until
// ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	stop, err := retention.Start(ctx, a.eff.Config)
	if err != nil {
		return err
	}
	a.stopRetention = stop

	a.printBanner()

	errCh := a.startHTTP()

	select {
	case <-ctx.Done():
		a.shutdown()
		return nil
	case err := <-errCh:
		a.shutdown()
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// shutdown stops the sweeper, drains the HTTP server and closes the store.
func (a *App) shutdown() {
	if a.stopRetention != nil {
		a.stopRetention()
	}
	if a.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = a.srv.Shutdown(ctx)
	}
	_ = store.Close()
}
