package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/macports/portbot/internal/app"
	"github.com/macports/portbot/internal/config"
	"github.com/macports/portbot/internal/logger"
)

func main() {
	os.Exit(run(context.Background()))
}

// run returns the process exit code so deferred log flushing always happens.
func run(ctx context.Context) int {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		return 2
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger init error: " + err.Error() + "\n")
		return 2
	}
	defer func() { _ = log.Sync() }()

	portbot, err := app.New(cfg, log)
	if err != nil {
		log.Error("app init failed", zap.Error(err))
		return 1
	}
	if err := portbot.Run(ctx); err != nil {
		log.Error("app run failed", zap.Error(err))
		return 1
	}
	log.Info("portbot stopped")
	return 0
}
