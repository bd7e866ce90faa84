// Command garage-stub runs an in-memory implementation of the GarageDesk API
// for local development and client testing.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/garagedesk/internal/account"
	"github.com/gosuda/garagedesk/internal/config"
	"github.com/gosuda/garagedesk/internal/logging"
	"github.com/gosuda/garagedesk/internal/server"
	"github.com/gosuda/garagedesk/internal/store/memory"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Optional .env for local runs.
	_ = godotenv.Load()

	cfg, err := config.LoadStub()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log, os.Stdout)

	store := memory.New()

	opts := []account.Option{}
	if cfg.LogOTP {
		opts = append(opts, account.WithOTPSink(account.LogOTPSink))
		log.Warn().Msg("one-time codes will be written to the log")
	}
	svc := account.NewService(store.Users(), store.Tenants(), cfg.JWT.Secret, cfg.JWT.TokenTTL, opts...)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := server.New(ctx, cfg, svc)

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
