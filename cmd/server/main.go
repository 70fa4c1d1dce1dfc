package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jusondac/factory-app/internal/config"
	"github.com/jusondac/factory-app/internal/infra"
	"github.com/jusondac/factory-app/internal/repository"
	"github.com/jusondac/factory-app/internal/router"
	"github.com/jusondac/factory-app/internal/service"
	"github.com/jusondac/factory-app/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background sweep cancels preparations whose date has passed without
	// checking ever starting. Wired here (composition root) so it shares the
	// same service the HTTP layer uses.
	batchRepo := repository.NewUnitBatchRepository(db)
	prepareRepo := repository.NewPrepareRepository(db)
	produceRepo := repository.NewProduceRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	productRepo := repository.NewProductRepository(db)
	ids := service.NewIDGenerator(batchRepo, prepareRepo, produceRepo, packageRepo)
	prepareSvc := service.NewPrepareService(prepareRepo, batchRepo, productRepo, ids, service.NewClock())
	worker.StartSweep(ctx, prepareSvc, time.Duration(cfg.SweepIntervalMinutes)*time.Minute)

	r := router.New(cfg, db, rdb)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("factory-app backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
