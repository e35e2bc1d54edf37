package main

import (
	"os"

	"github.com/lox/blackjack/internal/server"
)

// ServerCmd runs the websocket server from an HCL config.
type ServerCmd struct {
	Config string `short:"c" default:"blackjack.hcl" help:"Path to HCL configuration file"`
	Addr   string `short:"a" help:"Address to bind to, host:port (overrides config)"`
	Seed   *int64 `help:"Deterministic RNG seed (optional)"`
}

func (c *ServerCmd) Run(g *Globals) error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if g.LogLevel != "" {
		cfg.Server.LogLevel = g.LogLevel
	}
	if c.Addr != "" {
		if err := cfg.SetAddress(c.Addr); err != nil {
			return err
		}
	}

	logger := newLogger(os.Stderr, cfg.Server.LogLevel)
	seed := seedOrNow(c.Seed)
	logger.Info("Starting blackjack server",
		"addr", cfg.Address(),
		"tables", len(cfg.Tables),
		"audit_db", cfg.Server.AuditDB,
		"seed", seed)

	ctx, cancel := signalContext(logger)
	defer cancel()
	return server.Run(ctx, cfg, logger, seed)
}
