package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/quantgale/premia/broker"
	"github.com/quantgale/premia/core"
	"github.com/quantgale/premia/execution"
	"github.com/quantgale/premia/internal/config"
	"github.com/quantgale/premia/repo"
	"github.com/quantgale/premia/risk"
	"github.com/quantgale/premia/storage"
	"github.com/quantgale/premia/store"
	"github.com/quantgale/premia/strategy"
)

func main() {
	// ═══════════════════════════════════════════════════════════════════════════════
	// BOOTSTRAP
	// ═══════════════════════════════════════════════════════════════════════════════

	// Load environment
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Configuration invalid")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Info().Msg("═══════════════════════════════════════════════════════════════")
	log.Info().Msg("                 PREMIA - OPTIONS TRADING ENGINE")
	log.Info().Msg("═══════════════════════════════════════════════════════════════")

	// ═══════════════════════════════════════════════════════════════════════════════
	// INITIALIZE COMPONENTS
	// ═══════════════════════════════════════════════════════════════════════════════

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("Data directory unavailable")
	}

	// 1. Strategy repository (JSON files)
	strategyRepo, err := repo.New(cfg.DataDir, cfg.StrategyDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Strategy repository unavailable")
	}
	log.Info().Str("dir", strategyRepo.Dir()).Msg("✅ Strategy repository ready")

	// 2. Trade journal
	journal, err := storage.Open(cfg.JournalDSN, cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Trade journal unavailable")
	}
	defer journal.Close()

	// 3. Broker gateway
	gateway := broker.NewGateway(broker.GatewayConfig{
		URL:      cfg.GatewayURL,
		Currency: cfg.Currency,
		DTEMin:   cfg.DTEMin,
		DTEMax:   cfg.DTEMax,
	})

	// 4. Store, risk limits, order coordinator
	dataStore := store.New()
	limits := risk.NewLimits(cfg.PreservedCashFactor, cfg.MaximumRiskFactor)
	coordinator := execution.NewCoordinator(gateway, strategyRepo, limits, journal)

	// 5. Algorithms, in execution order
	algorithms := []strategy.Algorithm{
		&strategy.BullPut{
			Params: strategy.Params{
				TakeProfitFactor: cfg.TakeProfitFactor,
				StopLossFactor:   cfg.StopLossFactor,
			},
			Width:  5,
			MinROI: 0.15,
		},
	}

	engine := core.NewEngine(cfg, gateway, dataStore, strategyRepo, coordinator, algorithms)

	// ═══════════════════════════════════════════════════════════════════════════════
	// RUN
	// ═══════════════════════════════════════════════════════════════════════════════

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("Shutdown signal received")
		engine.Stop()
		cancel()
	}()

	if err := engine.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Engine exited with error")
	}
}
