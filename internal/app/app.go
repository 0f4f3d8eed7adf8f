// internal/app/app.go
//
// Process bootstrap shared by the local server and the terminal client.
// Opens the configured profile storage, loads and refreshes the profile,
// and builds the backend client, challenge service and round controller.

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/globetrotter/internal/api"
	"github.com/robalobadob/globetrotter/internal/challenge"
	"github.com/robalobadob/globetrotter/internal/config"
	"github.com/robalobadob/globetrotter/internal/profile"
	"github.com/robalobadob/globetrotter/internal/round"
	"github.com/robalobadob/globetrotter/internal/storage"
)

// App is the wired set of collaborators.
type App struct {
	Config    config.Config
	Client    *api.Client
	Profile   *profile.Store
	Challenge *challenge.Service
	Round     *round.Controller

	close func() error
}

// New wires everything from cfg. opts are passed to the round controller.
func New(ctx context.Context, cfg config.Config, opts ...round.Option) (*App, error) {
	st, closeFn, err := OpenStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.APIURL, api.WithTimeout(cfg.APITimeout))
	prof := profile.Load(ctx, st)
	prof.Refresh(ctx, client)

	ch, err := challenge.New(client, challenge.Config{
		PublicURL: cfg.PublicURL,
		CloudName: cfg.CloudinaryCloud,
		Secret:    cfg.ChallengeSecret,
		TTL:       cfg.ChallengeTTL,
	})
	if err != nil {
		_ = closeFn()
		return nil, err
	}

	return &App{
		Config:    cfg,
		Client:    client,
		Profile:   prof,
		Challenge: ch,
		Round:     round.NewController(client, prof, opts...),
		close:     closeFn,
	}, nil
}

// Close releases the profile storage.
func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

// OpenStorage opens the backend named by cfg.ProfileStore. The returned
// func closes it.
func OpenStorage(ctx context.Context, cfg config.Config) (storage.Storage, func() error, error) {
	nop := func() error { return nil }
	switch cfg.ProfileStore {
	case config.StoreMemory:
		log.Info().Msg("profile store: memory (not persisted)")
		return storage.NewMemory(), nop, nil
	case config.StoreRedis:
		r, err := storage.DialRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis profile store: %w", err)
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("profile store: redis")
		return r, r.Close, nil
	case config.StoreSQLite, "":
		s, err := storage.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite profile store: %w", err)
		}
		log.Info().Str("path", cfg.DBPath).Msg("profile store: sqlite")
		return s, s.Close, nil
	}
	return nil, nil, errors.New("unknown profile store " + cfg.ProfileStore)
}
