// Package main provides the entry point for the solution engine service.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm/logger"

	"github.com/animstudio/solution-engine/internal/behavior"
	"github.com/animstudio/solution-engine/internal/config"
	"github.com/animstudio/solution-engine/internal/evaluator"
	"github.com/animstudio/solution-engine/internal/recommend"
	"github.com/animstudio/solution-engine/internal/repository"
	"github.com/animstudio/solution-engine/internal/server"
	"github.com/animstudio/solution-engine/internal/store"
	"github.com/animstudio/solution-engine/internal/version"
)

var Version = "dev"

func main() {
	configPath := flag.String("config", "engine.yaml", "path to the settings file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	setupLogging(cfg)

	log.Info().
		Str("version", Version).
		Str("config", *configPath).
		Msg("Starting solution engine")

	st, err := store.NewStore(store.Config{
		Path:     cfg.Database.Path,
		MaxConns: cfg.Database.MaxConns,
		LogLevel: logger.Silent,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	eval := evaluator.New(nil)
	repo, err := repository.New(eval, st)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load repository")
	}

	tracker := behavior.NewTracker()
	engine := recommend.NewEngine(tracker, cfg.Engine.CacheTTL)
	versions := version.NewManager()

	svc := server.NewService(cfg, repo, versions, engine, Version)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	serverErr := make(chan error, 1)
	svc.Start(serverErr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := config.Watch(gctx, *configPath, svc.ApplyConfig)
		if err != nil && err != context.Canceled {
			log.Warn().Err(err).Msg("Config watcher stopped")
		}
		return nil
	})
	g.Go(func() error {
		select {
		case err := <-serverErr:
			return err
		case <-gctx.Done():
			return nil
		}
	})

	<-gctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server error")
	}
	log.Info().Msg("Solution engine shutdown complete")
}

func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Logging.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
