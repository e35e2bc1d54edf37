package client

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/evaluator"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/server"
	"github.com/lox/blackjack/internal/simulator"
	"github.com/lox/blackjack/internal/table"
)

// Summary totals the rounds a Bot played.
type Summary struct {
	Rounds int
	Wins   int
	Losses int
	Draws  int
	Staked int
	Net    int
}

// Bot plays rounds at the joined table with a fixed strategy.
type Bot struct {
	client   *Client
	strategy simulator.Strategy
	logger   *log.Logger
}

// NewBot creates a bot on an open connection. A nil strategy plays basic
// strategy.
func NewBot(c *Client, strategy simulator.Strategy, logger *log.Logger) *Bot {
	if strategy == nil {
		strategy = simulator.BasicStrategy
	}
	return &Bot{client: c, strategy: strategy, logger: logger.WithPrefix("bot")}
}

// Play deals and plays rounds until n have settled or ctx is done.
func (b *Bot) Play(ctx context.Context, wager, n int) (Summary, error) {
	var sum Summary
	if err := b.client.RequestState(); err != nil {
		return sum, err
	}
	msg, err := b.client.WaitFor(ctx, server.MessageTypeGetState)
	if err != nil {
		return sum, err
	}
	v, err := DecodeState(msg)
	if err != nil {
		return sum, err
	}

	for sum.Rounds < n {
		out, err := b.playRound(ctx, v, wager)
		if err != nil {
			return sum, fmt.Errorf("round %d: %w", sum.Rounds+1, err)
		}
		v = out.view
		sum.Rounds++
		sum.Staked += out.last.Stake
		sum.Net += out.last.Net
		switch out.last.Result {
		case game.Win.String():
			sum.Wins++
		case game.Lose.String():
			sum.Losses++
		default:
			sum.Draws++
		}
		b.logger.Info("Round settled", "round", out.last.RoundID, "result", out.last.Result, "net", out.last.Net)
	}
	return sum, nil
}

type roundOutcome struct {
	view table.View
	last *table.Outcome
}

// playRound deals from the state v and acts on each state until a new
// outcome appears.
func (b *Bot) playRound(ctx context.Context, v table.View, wager int) (roundOutcome, error) {
	previous := ""
	if v.Last != nil {
		previous = v.Last.RoundID
	}
	if err := b.client.Deal(wager); err != nil {
		return roundOutcome{}, err
	}

	for {
		msg, err := b.client.WaitFor(ctx, server.MessageTypeGetState)
		var remote *RemoteError
		switch {
		case errors.As(err, &remote) && remote.Code == server.CodeBusy:
			b.logger.Debug("Table busy, waiting", "message", remote.Message)
			continue
		case err != nil:
			return roundOutcome{}, err
		}

		v, err = DecodeState(msg)
		if err != nil {
			return roundOutcome{}, err
		}
		if v.Last != nil && v.Last.RoundID != previous {
			return roundOutcome{view: v, last: v.Last}, nil
		}
		if v.Phase != game.PlayerTurn.String() || v.Dealing || len(v.Actions) == 0 {
			continue
		}

		d, err := decide(v)
		if err != nil {
			return roundOutcome{}, err
		}
		action := b.strategy(d)
		b.logger.Debug("Acting", "action", action, "hand", d.Hand, "up", d.DealerUp)
		if err := b.client.Act(action); err != nil {
			return roundOutcome{}, err
		}
	}
}

// decide builds a strategy decision from a player-turn view.
func decide(v table.View) (simulator.Decision, error) {
	if v.CurrentHand < 0 || v.CurrentHand >= len(v.Hands) {
		return simulator.Decision{}, fmt.Errorf("current hand %d of %d", v.CurrentHand, len(v.Hands))
	}
	cards, err := deck.ParseNames(v.Hands[v.CurrentHand].Cards...)
	if err != nil {
		return simulator.Decision{}, err
	}
	if len(v.Dealer.Cards) == 0 {
		return simulator.Decision{}, errors.New("dealer has no up card")
	}
	up, err := deck.ParseName(v.Dealer.Cards[0])
	if err != nil {
		return simulator.Decision{}, err
	}
	return simulator.Decision{
		Hand:      evaluator.Hand(cards),
		DealerUp:  up,
		CanDouble: slices.Contains(v.Actions, game.DoubleDown.String()),
		CanSplit:  slices.Contains(v.Actions, game.Split.String()),
	}, nil
}
