package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/kadirpekel/debaterag/pkg/config"
	"github.com/kadirpekel/debaterag/pkg/server"
)

// ServeCmd starts the HTTP/WebSocket server.
type ServeCmd struct {
	Host string `help:"Host to bind (overrides config)."`
	Port int    `help:"Port to listen on (overrides config)."`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return err
	}

	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(cfg.Server, engine).ListenAndServe(ctx)
}
