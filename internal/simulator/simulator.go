// Package simulator plays many blackjack rounds in parallel with a fixed
// strategy and reports the aggregate outcome.
package simulator

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/audit"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/statistics"
	"golang.org/x/sync/errgroup"
)

// Config holds configuration for a simulation run.
type Config struct {
	Rounds   int
	Workers  int
	Seed     int64
	Wager    int
	Rules    game.Rules
	Strategy Strategy
	Logger   *log.Logger

	// MaxValues caps the per-round results kept for percentiles.
	MaxValues int
	// Audit, when set, receives a record for every round.
	Audit     *audit.Log
}

// Report aggregates simulated rounds. Counts are per round except Hands,
// which counts split hands separately.
type Report struct {
	Rounds     int
	Hands      int
	Wins       int
	Losses     int
	Draws      int
	Blackjacks int
	Doubles    int
	Splits     int
	Busts      int
	Reshuffles int
	Staked     int
	Returned   int
	Elapsed    time.Duration

	// Stats holds per-round net results in wager units.
	Stats statistics.Statistics
}

// Net is the player's total profit in wager units.
func (r *Report) Net() int {
	return r.Returned - r.Staked
}

// Return is the payout per unit staked; 1.0 is break even.
func (r *Report) Return() float64 {
	if r.Staked == 0 {
		return 0
	}
	return float64(r.Returned) / float64(r.Staked)
}

// HouseEdge is the house's expected profit per unit staked.
func (r *Report) HouseEdge() float64 {
	if r.Staked == 0 {
		return 0
	}
	return -float64(r.Net()) / float64(r.Staked)
}

func (r *Report) merge(o *Report) {
	r.Rounds += o.Rounds
	r.Hands += o.Hands
	r.Wins += o.Wins
	r.Losses += o.Losses
	r.Draws += o.Draws
	r.Blackjacks += o.Blackjacks
	r.Doubles += o.Doubles
	r.Splits += o.Splits
	r.Busts += o.Busts
	r.Reshuffles += o.Reshuffles
	r.Staked += o.Staked
	r.Returned += o.Returned
	r.Stats.Merge(&o.Stats)
}

// Run plays cfg.Rounds rounds across cfg.Workers workers. Worker w shuffles
// from cfg.Seed+w, so a run is reproducible for a fixed worker count.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	if cfg.Rounds <= 0 {
		return nil, fmt.Errorf("rounds must be positive, got %d", cfg.Rounds)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	cfg.Workers = min(cfg.Workers, cfg.Rounds)
	if cfg.Wager <= 0 {
		cfg.Wager = 1
	}
	if cfg.Strategy == nil {
		cfg.Strategy = BasicStrategy
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	cfg.Rules = cfg.Rules.Normalize()

	start := time.Now()
	perWorker := cfg.Rounds / cfg.Workers
	remainder := cfg.Rounds % cfg.Workers

	type result struct {
		worker int
		report *Report
	}
	g, ctx := errgroup.WithContext(ctx)
	results := make(chan result, cfg.Workers)

	for w := range cfg.Workers {
		rounds := perWorker
		if w < remainder {
			rounds++
		}
		seed := cfg.Seed + int64(w)

		g.Go(func() error {
			report, err := runWorker(ctx, cfg, seed, rounds)
			if err != nil {
				return err
			}
			results <- result{worker: w, report: report}
			return nil
		})
	}

	err := g.Wait()
	close(results)
	if err != nil {
		return nil, err
	}

	// Merge in worker order so reports are reproducible.
	reports := make([]*Report, cfg.Workers)
	for r := range results {
		reports[r.worker] = r.report
	}
	total := &Report{Stats: statistics.Statistics{MaxValues: cfg.MaxValues}}
	for _, r := range reports {
		total.merge(r)
	}
	total.Elapsed = time.Since(start)

	cfg.Logger.Info("simulation complete",
		"rounds", total.Rounds,
		"net", total.Net(),
		"house_edge", fmt.Sprintf("%.4f", total.HouseEdge()),
		"stddev", fmt.Sprintf("%.3f", total.Stats.StdDev()),
		"elapsed", total.Elapsed)
	return total, nil
}

func runWorker(ctx context.Context, cfg Config, seed int64, rounds int) (*Report, error) {
	g := game.New(
		game.WithRNG(randutil.New(seed)),
		game.WithDecks(cfg.Rules.NumberOfDecks),
		game.WithLogger(cfg.Logger),
	)
	report := &Report{Stats: statistics.Statistics{MaxValues: cfg.MaxValues}}

	for i := range rounds {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if err := playRound(g, cfg, report, seed, i); err != nil {
			return nil, fmt.Errorf("worker seed %d round %d: %w", seed, i, err)
		}
	}
	return report, nil
}

func playRound(g *game.Game, cfg Config, report *Report, seed int64, index int) error {
	started := time.Now()
	g.StartRound()
	if err := g.DealInitial(); err != nil {
		return err
	}
	up := g.DealerHand()[0]

	if g.IsBlackjack() {
		if err := g.Stand(); err != nil {
			return err
		}
	}
	for g.Phase() == game.PlayerTurn {
		action := cfg.Strategy(Decision{
			Hand:      g.PlayerHand(g.CurrentHandIndex()),
			DealerUp:  up,
			CanDouble: g.CanDoubleDown(),
			CanSplit:  g.CanSplit(),
		})
		if err := apply(g, action); err != nil {
			return err
		}
	}
	if g.Phase() == game.DealerTurn {
		if err := g.PlayDealer(cfg.Rules.DealerHitsSoft17); err != nil {
			return err
		}
	}

	s, ok := g.SettleRound(cfg.Wager)
	if !ok {
		return fmt.Errorf("round ended in phase %s", g.Phase())
	}
	record(report, s)
	report.Stats.Add(statistics.RoundResult{
		Net:   float64(s.Net()) / float64(cfg.Wager),
		Kind:  kindOf(s),
		Seed:  seed,
		Index: index,
	})
	report.Reshuffles += g.Shoe().Reshuffles()
	if cfg.Audit != nil {
		cfg.Audit.Append(audit.NewRecord(started, time.Now(), s))
	}
	return nil
}

func apply(g *game.Game, action game.Action) error {
	switch action {
	case game.Hit:
		return g.Hit()
	case game.Stand:
		return g.Stand()
	case game.DoubleDown:
		return g.DoubleDown()
	case game.Split:
		return g.Split()
	default:
		return fmt.Errorf("strategy chose %s", action)
	}
}

func record(report *Report, s game.Settlement) {
	report.Rounds++
	report.Hands += len(s.Hands)
	report.Staked += s.TotalStake
	report.Returned += s.TotalPayout

	switch s.Result {
	case game.Win:
		report.Wins++
	case game.Lose:
		report.Losses++
	case game.Draw:
		report.Draws++
	}
	if s.Doubled {
		report.Doubles++
	}
	if s.Split {
		report.Splits++
	}
	for _, h := range s.Hands {
		if h.Blackjack {
			report.Blackjacks++
		}
		if h.Score > 21 {
			report.Busts++
		}
	}
}

func kindOf(s game.Settlement) statistics.Kind {
	switch {
	case s.Split:
		return statistics.Split
	case s.Doubled:
		return statistics.Doubled
	case len(s.Hands) == 1 && s.Hands[0].Blackjack:
		return statistics.Natural
	default:
		return statistics.Plain
	}
}
