package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "coderoom/internal/adapters/http"
	"coderoom/internal/adapters/ws"
	"coderoom/internal/app"
	"coderoom/internal/auth"
	"coderoom/internal/config"
	"coderoom/internal/core"
	"coderoom/internal/judge"
	"coderoom/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	roomStore, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open room store")
	}
	defer roomStore.Close()

	verifier := auth.Argon2Verifier{}
	identity := auth.SessionIdentity{}
	judgeClient := judge.NewHTTPClient(cfg.JudgeBaseURL)

	registry := core.NewRegistry()
	admission := app.NewAdmissionController(roomStore, verifier)
	hub := app.NewHub(registry, roomStore, admission)
	events := app.NewEventRouter(hub, judgeClient)
	monitor := app.NewHeartbeatMonitor(hub, cfg.PingInterval)
	go monitor.Run(ctx)

	wsController := ws.NewController(hub, events, identity, cfg.ReadLimit, cfg.SendBuffer)

	r := router.SetupRouter(ctx, cfg, roomStore, verifier, identity, judgeClient, wsController)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("coderoom server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
