package table

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lox/blackjack/internal/audit"
	"github.com/lox/blackjack/internal/evaluator"
	"github.com/lox/blackjack/internal/game"
)

const sinkTimeout = 5 * time.Second

// Deal takes a wager and starts a round. The four opening cards are dealt
// player, dealer, player, dealer with Delays.Deal between them. A pending
// reset after a finished round is skipped.
func (t *Table) Deal(wager int) error {
	t.mu.Lock()
	if err := t.dealLocked(wager); err != nil {
		t.mu.Unlock()
		return err
	}
	v := t.viewLocked()
	t.mu.Unlock()

	t.flush()
	t.publish(v)
	return nil
}

func (t *Table) dealLocked(wager int) error {
	switch t.game.Phase() {
	case game.Waiting:
	case game.Finished:
		t.resetLocked()
	default:
		return &game.ActionError{
			Action: game.Deal,
			Phase:  t.game.Phase(),
			Reason: "round in progress",
			Err:    game.ErrIllegalAction,
		}
	}
	if err := t.rules.CheckWager(wager); err != nil {
		return err
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	t.roundID = id.String()
	t.wager = wager
	t.started = t.clock.Now()
	t.last = nil
	t.dealing = true

	t.game.StartRoundWithDecks(t.rules.NumberOfDecks)
	if t.prepareShoe != nil {
		t.prepareShoe(t.game.Shoe())
	}
	t.logger.Info("round started", "round", t.roundID, "wager", wager, "decks", t.rules.NumberOfDecks)

	t.dealNext()
	return nil
}

// dealNext deals whichever opening card is missing, in P, D, P, D order, and
// schedules the following one.
func (t *Table) dealNext() {
	player := len(t.game.PlayerHand(0))
	dealer := len(t.game.DealerHand())

	var err error
	switch {
	case player == 0:
		_, err = t.game.DealToPlayer()
	case dealer == 0:
		_, err = t.game.DealToDealer()
	case player == 1:
		_, err = t.game.DealToPlayer()
	case dealer == 1:
		_, err = t.game.DealToDealer()
	default:
		t.dealt()
		return
	}
	if err != nil {
		t.logger.Error("opening deal failed", "error", err)
		t.dealing = false
		return
	}

	if len(t.game.PlayerHand(0)) == 2 && len(t.game.DealerHand()) == 2 {
		t.dealt()
		return
	}
	t.schedule(t.delays.Deal, t.dealNext)
}

func (t *Table) dealt() {
	t.dealing = false
	t.logger.Debug("opening deal complete",
		"player", evaluator.Describe(t.game.PlayerHand(0)),
		"dealer_up", t.game.DealerHand()[0])

	if t.game.IsBlackjack() {
		t.logger.Info("player natural, standing", "round", t.roundID)
		if err := t.game.Stand(); err != nil {
			t.logger.Error("auto stand failed", "error", err)
			return
		}
		t.afterPlayerAction()
	}
}

// Hit draws a card for the acting hand.
func (t *Table) Hit() error {
	return t.act(t.game.Hit)
}

// Stand ends the acting hand.
func (t *Table) Stand() error {
	return t.act(t.game.Stand)
}

// DoubleDown doubles the wager and draws one card.
func (t *Table) DoubleDown() error {
	return t.act(t.game.DoubleDown)
}

// Split splits a pair into two hands, each carrying the wager.
func (t *Table) Split() error {
	return t.act(t.game.Split)
}

// Do runs a player action by kind.
func (t *Table) Do(action game.Action) error {
	switch action {
	case game.Hit:
		return t.Hit()
	case game.Stand:
		return t.Stand()
	case game.DoubleDown:
		return t.DoubleDown()
	case game.Split:
		return t.Split()
	default:
		return fmt.Errorf("%w: %s is not a player action", game.ErrIllegalAction, action)
	}
}

func (t *Table) act(fn func() error) error {
	t.mu.Lock()
	if t.dealing {
		t.mu.Unlock()
		return fmt.Errorf("%w: opening deal in progress", ErrBusy)
	}
	if err := fn(); err != nil {
		t.mu.Unlock()
		return err
	}
	t.afterPlayerAction()
	v := t.viewLocked()
	t.mu.Unlock()

	t.flush()
	t.publish(v)
	return nil
}

// afterPlayerAction moves the round on once the player turn is over.
func (t *Table) afterPlayerAction() {
	switch t.game.Phase() {
	case game.DealerTurn:
		t.logger.Debug("dealer turn", "round", t.roundID)
		t.schedule(t.delays.Reveal, t.dealerStep)
	case game.Finished:
		t.finish()
	}
}

func (t *Table) dealerStep() {
	more, err := t.game.DealerStep(t.rules.DealerHitsSoft17)
	if err != nil {
		t.logger.Error("dealer step failed", "error", err)
		return
	}
	if more {
		t.schedule(t.delays.Dealer, t.dealerStep)
		return
	}
	t.finish()
}

// finish settles the round, records it and schedules the reset.
func (t *Table) finish() {
	s, ok := t.game.SettleRound(t.wager)
	if !ok {
		return
	}
	end := t.clock.Now()
	rec := audit.NewRecord(t.started, end, s)
	t.audit.Append(rec)

	t.last = &Outcome{
		RoundID:      t.roundID,
		Result:       s.Result.String(),
		Stake:        s.TotalStake,
		Payout:       s.TotalPayout,
		Net:          s.Net(),
		DealerScore:  s.DealerScore,
		PlayerScores: s.Scores(),
		HandResults:  handResults(s),
	}
	t.logger.Info("round finished",
		"round", t.roundID,
		"result", s.Result,
		"stake", s.TotalStake,
		"payout", s.TotalPayout,
		"dealer", s.DealerScore,
		"player", s.Scores(),
		"duration", rec.Duration())

	if t.sink != nil {
		t.outbox = append(t.outbox, pendingRecord{roundID: t.roundID, rec: rec})
	}
	t.schedule(t.delays.Reset, t.resetLocked)
}

type pendingRecord struct {
	roundID string
	rec     audit.Record
}

// flush writes settled rounds to the sink. It must be called without mu held
// so a slow sink never blocks play.
func (t *Table) flush() {
	if t.sink == nil {
		return
	}
	t.sinkMu.Lock()
	defer t.sinkMu.Unlock()

	t.mu.Lock()
	pending := t.outbox
	t.outbox = nil
	t.mu.Unlock()

	for _, p := range pending {
		t.emit(p.roundID, p.rec)
	}
}

func (t *Table) emit(roundID string, rec audit.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()
	if err := t.sink.Append(ctx, t.id, roundID, rec); err != nil {
		t.logger.Error("audit sink append failed", "round", roundID, "error", err)
	}
}

func handResults(s game.Settlement) []string {
	out := make([]string, len(s.Hands))
	for i, h := range s.Hands {
		out[i] = h.Result.String()
	}
	return out
}

// Reset abandons the current round and returns to Waiting. The wager of an
// unfinished round is forfeited without an audit record.
func (t *Table) Reset() {
	t.mu.Lock()
	t.resetLocked()
	v := t.viewLocked()
	t.mu.Unlock()

	t.flush()
	t.publish(v)
}

func (t *Table) resetLocked() {
	t.generation++
	t.dealing = false
	t.wager = 0
	t.roundID = ""
	t.game.Reset()
	t.logger.Debug("table reset")
}
