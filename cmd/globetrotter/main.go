// cmd/globetrotter/main.go
//
// Terminal Globetrotter client. Reads guesses and commands from stdin and
// renders each round to stdout. Logs go to stderr so they never interleave
// with the game screen.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/globetrotter/internal/app"
	"github.com/robalobadob/globetrotter/internal/config"
	"github.com/robalobadob/globetrotter/internal/tui"
)

func main() {
	_ = godotenv.Load()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	cfg := config.Load()
	// Quieter by default: the screen is the primary output.
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start")
	}
	defer a.Close()

	ui := tui.New(tui.Deps{
		Round:     a.Round,
		Profile:   a.Profile,
		Registrar: a.Client,
		Challenge: a.Challenge,
	}, os.Stdin, os.Stdout)
	if err := ui.Run(ctx); err != nil {
		log.Error().Err(err).Msg("input")
	}
}
