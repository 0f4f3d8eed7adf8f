// main.go
//
// Local Globetrotter server: serves the round, profile and challenge API
// plus a websocket of live snapshots for a browser front end.

package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/globetrotter/internal/app"
	"github.com/robalobadob/globetrotter/internal/config"
	"github.com/robalobadob/globetrotter/internal/httpserver"
	"github.com/robalobadob/globetrotter/internal/profile"
	"github.com/robalobadob/globetrotter/internal/round"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	zerolog.SetGlobalLevel(cfg.LogLevel)

	hub := httpserver.NewHub()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	a, err := app.New(ctx, cfg, round.WithNotifier(hub))
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start")
	}
	defer a.Close()
	a.Profile.OnSave(func(p profile.Profile) { hub.Publish("profile", p) })
	hub.Publish("profile", a.Profile.Snapshot())

	// First round loads in the background so the port opens immediately.
	go func() {
		if err := a.Round.Start(context.Background()); err != nil {
			log.Warn().Err(err).Msg("initial round")
		}
	}()

	srv := httpserver.New(httpserver.Deps{
		Round:        a.Round,
		Profile:      a.Profile,
		Registrar:    a.Client,
		Challenge:    a.Challenge,
		Hub:          hub,
		ClientOrigin: cfg.ClientOrigin,
	})
	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		log.Error().Err(err).Str("addr", cfg.Addr()).Msg("listen")
		return
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("port", cfg.Port).Str("api", cfg.APIURL).Msg("starting globetrotter")
	if err := srv.Serve(sigCtx, ln); err != nil {
		log.Error().Err(err).Msg("server exited")
		return
	}
	log.Info().Msg("shutting down")
}
