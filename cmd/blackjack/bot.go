package main

import (
	"fmt"

	"github.com/lox/blackjack/internal/client"
	"github.com/lox/blackjack/internal/simulator"
)

// BotCmd plays rounds against a running server.
type BotCmd struct {
	URL      string `short:"u" default:"http://localhost:8080" help:"Server URL"`
	Table    string `short:"t" help:"Table to join (default: the server's first table)"`
	Rounds   int    `short:"n" default:"10" help:"Rounds to play"`
	Wager    int    `short:"w" default:"1" help:"Wager per round"`
	Strategy string `short:"s" default:"basic" help:"Player strategy (basic, dealer)"`
}

func (c *BotCmd) Run(g *Globals) error {
	logger := g.Logger()
	strategy, ok := simulator.Strategies[c.Strategy]
	if !ok {
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	conn, err := client.Dial(ctx, c.URL, logger)
	if err != nil {
		return err
	}
	defer conn.Close()

	if c.Table != "" {
		if _, err := conn.JoinTable(ctx, c.Table); err != nil {
			return err
		}
	}

	sum, err := client.NewBot(conn, strategy, logger).Play(ctx, c.Wager, c.Rounds)
	if err != nil {
		return err
	}
	fmt.Printf("Rounds: %d  Wins: %d  Losses: %d  Draws: %d  Staked: %d  Net: %+d\n",
		sum.Rounds, sum.Wins, sum.Losses, sum.Draws, sum.Staked, sum.Net)
	return nil
}
