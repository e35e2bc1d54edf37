package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/audit/sqlite"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/table"
	"github.com/lox/blackjack/internal/tui"
	"github.com/muesli/termenv"
)

// PlayCmd runs a local table in the terminal.
type PlayCmd struct {
	Wager   int    `short:"w" default:"1" help:"Opening wager"`
	Decks   int    `default:"6" help:"Decks in the shoe (1-8)"`
	MinBet  int    `default:"1" help:"Minimum wager"`
	MaxBet  int    `default:"64" help:"Maximum wager"`
	Soft17  bool   `name:"soft17" help:"Dealer hits soft 17"`
	Fast    bool   `help:"Skip the staged dealing delays"`
	Seed    *int64 `help:"Deterministic RNG seed (optional)"`
	DB      string `help:"Record rounds to this SQLite audit database"`
	LogFile string `help:"Write logs to this file"`
	NoColor bool   `help:"Render cards without colour"`
}

func (c *PlayCmd) Run(g *Globals) error {
	logger := log.New(io.Discard)
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logger = newLogger(f, g.LogLevel)
	}

	if c.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	seed := seedOrNow(c.Seed)
	rules := game.Rules{
		DealerHitsSoft17: c.Soft17,
		NumberOfDecks:    c.Decks,
		MinBet:           c.MinBet,
		MaxBet:           c.MaxBet,
	}
	delays := table.DefaultDelays()
	if c.Fast {
		delays = table.Delays{Reset: delays.Reset}
	}
	opts := []table.Option{
		table.WithLogger(logger),
		table.WithRNG(randutil.New(seed)),
		table.WithDelays(delays),
	}

	if c.DB != "" {
		store, err := sqlite.Open(c.DB)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, table.WithSink(store))
	}

	logger.Info("Starting local table", "seed", seed, "decks", rules.NumberOfDecks, "soft17", rules.DealerHitsSoft17)
	t := table.New("local", rules, opts...)
	model := tui.New(t, c.Wager, logger)
	defer model.Close()

	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}
