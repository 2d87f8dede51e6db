package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/spinroom/spinroom/internal/auth"
	"github.com/spinroom/spinroom/internal/config"
	"github.com/spinroom/spinroom/internal/events"
	"github.com/spinroom/spinroom/internal/gateway"
	"github.com/spinroom/spinroom/internal/room"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Info().
		Str("port", cfg.Server.Port).
		Bool("nats_mirror", cfg.NATS.URL != "").
		Msg("starting spinroom server")

	// Registry and gateway hub
	registry := room.NewRegistry()
	hub := gateway.NewHub(gateway.DefaultConnectionConfig(), registry)

	sinks := []events.Sink{hub}

	// Optional JetStream mirror for external consumers
	var mirror *events.JetStreamPublisher
	if cfg.NATS.URL != "" {
		jsCfg := events.DefaultJetStreamConfig()
		jsCfg.URL = cfg.NATS.URL
		jsCfg.StreamName = cfg.NATS.StreamName
		jsCfg.SubjectPrefix = cfg.NATS.SubjectPrefix
		mirror, err = events.NewJetStreamPublisher(jsCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create JetStream mirror")
		}
		defer mirror.Close()
		sinks = append(sinks, mirror)
	}

	rooms := room.NewService(registry, sinks...)
	issuer := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenTTL.Std(), clockwork.NewRealClock())

	server := setupServer(cfg, rooms, issuer, hub)

	// Context for the hub's broadcast loop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Start(ctx)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	cancel()

	log.Info().Msg("spinroom shutdown complete")
}
