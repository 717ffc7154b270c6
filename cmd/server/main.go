package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/Ringcast/internal/adapters/http"
	"github.com/dkeye/Ringcast/internal/adapters/identity"
	"github.com/dkeye/Ringcast/internal/adapters/media"
	"github.com/dkeye/Ringcast/internal/adapters/push"
	wssignal "github.com/dkeye/Ringcast/internal/adapters/signal"
	"github.com/dkeye/Ringcast/internal/adapters/storage"
	"github.com/dkeye/Ringcast/internal/app"
	"github.com/dkeye/Ringcast/internal/app/orch"
	"github.com/dkeye/Ringcast/internal/config"
	"github.com/dkeye/Ringcast/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if !cfg.Log.Pretty {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("Server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	users, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer users.Close()

	verifier, err := identity.NewJWTVerifier(cfg.Auth.Secret, cfg.Auth.Issuer)
	if err != nil {
		return fmt.Errorf("identity verifier: %w", err)
	}

	var gateway interface {
		core.PushGateway
		core.TopicBroadcaster
	} = push.LogGateway{}
	if cfg.Push.Endpoint != "" {
		gateway = push.NewHTTPGateway(cfg.Push.Endpoint, cfg.Push.ServerKey, cfg.Push.Timeout)
	} else {
		log.Warn().Str("module", "main").Msg("push endpoint not configured, notifications are logged only")
	}

	tasks := app.NewDispatcher(cfg.Dispatch.Workers, cfg.Dispatch.Queue, cfg.Push.Timeout)
	reg := app.NewRegistry(verifier, app.SimplePolicy{})

	clock := func() time.Time { return time.Now().UTC() }
	o := &orch.Orchestrator{
		Registry:  reg,
		Calls:     app.NewCallStore(cfg.Calls.RingTTL, cfg.Calls.TerminalTTL, clock),
		Live:      app.NewLiveStore(),
		Users:     users,
		Media:     media.NewTokenIssuer(cfg.Media.AppID, cfg.Media.AppCertificate),
		Push:      gateway,
		Topics:    gateway,
		Tasks:     tasks,
		TokenTTL:  cfg.Media.TokenTTL,
		LiveTopic: cfg.Push.LiveTopic,
		Clock:     clock,
	}

	ctl := wssignal.NewSignalWSController(reg, wssignal.Options{
		ReadLimit:      cfg.WS.ReadLimit,
		PingPeriod:     cfg.WS.PingPeriod,
		WriteWait:      cfg.WS.WriteWait,
		SendBuffer:     cfg.WS.SendBuffer,
		RegisterLimit:  cfg.WS.RegisterLimit,
		RegisterWindow: cfg.WS.RegisterWindow,
	})
	r := router.SetupRouter(ctx, cfg, &router.Server{
		Orch:     o,
		Verifier: verifier,
		Profiles: users,
		Signal:   ctl,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Ringcast server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return o.RunPruner(gctx, cfg.Calls.PruneInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		tasks.Close()
		return nil
	})
	return g.Wait()
}
