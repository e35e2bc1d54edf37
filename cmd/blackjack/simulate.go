package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lox/blackjack/internal/audit"
	"github.com/lox/blackjack/internal/audit/sqlite"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/simulator"
	"github.com/lox/blackjack/internal/statistics"
)

// SimulateCmd plays many rounds with a fixed strategy and reports the edge.
type SimulateCmd struct {
	Rounds   int           `short:"n" default:"100000" help:"Number of rounds to play"`
	Workers  int           `short:"j" help:"Parallel workers (default: number of CPUs)"`
	Seed     *int64        `help:"Deterministic RNG seed (optional)"`
	Wager    int           `short:"w" default:"1" help:"Wager per round"`
	Decks    int           `default:"6" help:"Decks in the shoe (1-8)"`
	Soft17   bool          `name:"soft17" help:"Dealer hits soft 17"`
	Strategy string        `short:"s" default:"basic" help:"Player strategy (basic, dealer)"`
	Timeout  time.Duration `default:"0s" help:"Abort after this long (0 = no limit)"`
	MaxStats int           `default:"1000000" help:"Maximum rounds kept for median and percentiles"`
	DB       string        `help:"Record every round to this SQLite audit database"`
	Table    string        `default:"simulation" help:"Table id used for recorded rounds"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	logger := g.Logger()

	strategy, ok := simulator.Strategies[c.Strategy]
	if !ok {
		names := make([]string, 0, len(simulator.Strategies))
		for name := range simulator.Strategies {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("unknown strategy %q (want one of %s)", c.Strategy, strings.Join(names, ", "))
	}

	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	seed := seedOrNow(c.Seed)

	ctx, cancel := signalContext(logger)
	defer cancel()
	if c.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cfg := simulator.Config{
		Rounds:  c.Rounds,
		Workers: workers,
		Seed:    seed,
		Wager:   c.Wager,
		Rules: game.Rules{
			DealerHitsSoft17: c.Soft17,
			NumberOfDecks:    c.Decks,
			MinBet:           1,
			MaxBet:           max(1, c.Wager),
		},
		Strategy:  strategy,
		Logger:    logger,
		MaxValues: c.MaxStats,
	}
	if c.DB != "" {
		cfg.Audit = audit.NewLog()
	}

	logger.Info("Starting simulation",
		"rounds", c.Rounds,
		"workers", workers,
		"strategy", c.Strategy,
		"seed", seed)

	report, err := simulator.Run(ctx, cfg)
	if err != nil {
		return err
	}
	printReport(report, c.Strategy)

	if cfg.Audit != nil {
		if err := saveRecords(ctx, c.DB, c.Table, cfg.Audit.Records()); err != nil {
			return err
		}
		logger.Info("Rounds recorded", "db", c.DB, "table", c.Table, "rounds", cfg.Audit.Len())
	}
	return nil
}

func saveRecords(ctx context.Context, path, tableID string, records []audit.Record) error {
	store, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, rec := range records {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		if err := store.Append(ctx, tableID, id.String(), rec); err != nil {
			return err
		}
	}
	return nil
}

func printReport(r *simulator.Report, strategy string) {
	pct := func(n int) float64 {
		if r.Rounds == 0 {
			return 0
		}
		return 100 * float64(n) / float64(r.Rounds)
	}
	w := os.Stdout
	fmt.Fprintf(w, "\nStrategy:    %s\n", strategy)
	fmt.Fprintf(w, "Rounds:      %d (%d hands) in %s\n", r.Rounds, r.Hands, r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Wins:        %d (%.2f%%)\n", r.Wins, pct(r.Wins))
	fmt.Fprintf(w, "Losses:      %d (%.2f%%)\n", r.Losses, pct(r.Losses))
	fmt.Fprintf(w, "Draws:       %d (%.2f%%)\n", r.Draws, pct(r.Draws))
	fmt.Fprintf(w, "Blackjacks:  %d\n", r.Blackjacks)
	fmt.Fprintf(w, "Doubles:     %d\n", r.Doubles)
	fmt.Fprintf(w, "Splits:      %d\n", r.Splits)
	fmt.Fprintf(w, "Busts:       %d\n", r.Busts)
	fmt.Fprintf(w, "Staked:      %d\n", r.Staked)
	fmt.Fprintf(w, "Returned:    %d\n", r.Returned)
	fmt.Fprintf(w, "Net:         %+d\n", r.Net())
	fmt.Fprintf(w, "House edge:  %.3f%%\n", 100*r.HouseEdge())

	st := &r.Stats
	lo, hi := st.ConfidenceInterval95()
	fmt.Fprintf(w, "Per round:   mean %+.4f, stddev %.3f, 95%% CI [%+.4f, %+.4f]\n", st.Mean(), st.StdDev(), lo, hi)
	fmt.Fprintf(w, "Range:       worst %+.1f, median %+.1f, best %+.1f\n", st.WorstRound, st.Median(), st.BestRound)
	for i, k := range st.Kinds {
		if k.Rounds == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-8s   %d rounds, mean %+.4f\n", statistics.Kind(i), k.Rounds, k.Mean())
	}
}
