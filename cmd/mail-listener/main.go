package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"

	"woldo/internal/config"
	"woldo/internal/listener"
	"woldo/internal/logger"
	"woldo/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(logger.Initialize(cfg.LogJSON, cfg.LogLevel))
	defer logger.Sync()

	must(cfg.Require("MAIL_LISTENER_ORDERS_PATH", cfg.MailListenerOrdersPath))

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	svc := listener.NewService(db, cfg)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Logger.Infow("mail listener started", "provider", cfg.MailListenerProvider, "interval", cfg.MailListenerIntervalSec)
	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	if hint := errors.FlattenHints(err); hint != "" {
		fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
	}
	os.Exit(1)
}
