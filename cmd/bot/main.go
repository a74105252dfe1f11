// cmd/bot/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bonkwatch/letsbonk-bot/internal/bot"
	"github.com/bonkwatch/letsbonk-bot/internal/config"
	"github.com/bonkwatch/letsbonk-bot/internal/logger"
)

func main() {
	// Secrets (RPC endpoints, webhook, API keys) come from the environment;
	// a .env file is a convenience for local runs.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig("configs/config.json")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	logCfg.Development = cfg.DebugLogging
	if cfg.LogFile != "" {
		logCfg.LogFile = cfg.LogFile
	}
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zl := log.WithComponent("main")
	zl.Info("starting letsbonk watcher")

	runner, err := bot.NewRunner(cfg, log)
	if err != nil {
		zl.Fatal("failed to assemble bot", zap.Error(err))
	}

	if err := runner.Run(ctx); err != nil {
		zl.Fatal("bot stopped with error", zap.Error(err))
	}
	zl.Info("shutdown complete")
}
