package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/thereayou/ephemeral-chat/internal/config"
	"github.com/thereayou/ephemeral-chat/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := NewServer(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("server init failed")
	}

	if err := server.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server run error")
	}
}
