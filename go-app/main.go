// go-app/main.go
// Main package for the tilerack game server
// Copyright (C) 2024 Vilhjálmur Þorsteinsson / Miðeind ehf.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/wordgrid/tilerack"
)

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := tilerack.ConfigFromEnv(os.Getenv)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)
	log.Info().Str("go", runtime.Version()).Str("locale", cfg.Locale).Msg("Game service starting")

	dawg, err := tilerack.LoadDictionary(cfg.Locale, cfg.WordListFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to load word list")
	}
	tileSet, err := tilerack.TileSetForLocale(cfg.Locale, cfg.TileSetFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to load tile set")
	}
	log.Info().Int("words", dawg.NumWords()).Int("tiles", tileSet.Size).Msg("Dictionary loaded")
	if cfg.AllowedOrigins == "*" {
		log.Info().Msg("No ALLOWED_ORIGINS specified, allowing all")
	}

	srv := tilerack.NewServer(*cfg, dawg, tileSet, log)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("Listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Ending the sessions closes the websockets
		srv.Close()
		return httpServer.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server exited")
	}
}
