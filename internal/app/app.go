// Package app wires configuration, storage, the chat service, the realtime
// hub and the HTTP server into one lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/joho/godotenv"

	"chatmesh/internal/retention"
	"chatmesh/pkg/blob"
	"chatmesh/pkg/chat"
	"chatmesh/pkg/config"
	"chatmesh/pkg/state"
	"chatmesh/pkg/store"
)

// App encapsulates the server components and lifecycle.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	media *blob.Local
	chat  *chat.Service

	srv *http.Server
}

// New initializes resources that do not need a running context: config
// validation, runtime keys, the pebble store, media storage and the chat
// service. Call Run to start the HTTP server and block until shutdown.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	_ = godotenv.Load(".env")

	if err := validateConfig(eff); err != nil {
		return nil, err
	}

	// runtime keys for signature verification
	runtimeCfg := &config.RuntimeConfig{SigningKeys: map[string]struct{}{}}
	for k := range eff.Config.SigningKeySet() {
		runtimeCfg.SigningKeys[k] = struct{}{}
	}
	config.SetRuntime(runtimeCfg)

	if err := state.EnsureStateDirs(eff.DBPath); err != nil {
		return nil, fmt.Errorf("failed to prepare state dirs: %w", err)
	}
	if err := store.Open(eff.DBPath); err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", eff.DBPath, err)
	}

	media, err := blob.NewLocal(eff.MediaDir, eff.Config.Media.PublicPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to init media storage: %w", err)
	}

	a := &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		media:     media,
		chat: &chat.Service{
			Blob:          media,
			HideDeleted:   eff.Config.Chat.HideDeleted,
			MaxContentLen: eff.Config.Chat.MaxContentLen,
		},
	}
	return a, nil
}

// Run starts the retention scheduler and the HTTP server, and blocks until
// ctx is canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	stopRetention, err := retention.Start(ctx, a.eff)
	if err != nil {
		return err
	}
	defer stopRetention()

	a.printBanner()

	errCh := a.startHTTP(ctx)

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server and closes the store.
func (a *App) Shutdown(ctx context.Context) error {
	var first error
	if a.srv != nil {
		if err := a.srv.Shutdown(ctx); err != nil {
			first = err
		}
	}
	if err := store.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
