package game

import (
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/evaluator"
)

// DealToPlayer deals one card to the acting player hand. Used by callers that
// stage the opening deal themselves.
func (g *Game) DealToPlayer() (deck.Card, error) {
	if g.phase != PlayerTurn {
		return deck.Card{}, g.reject(Deal, "cards are only dealt during the player turn")
	}
	if len(g.playerHands) == 0 {
		g.playerHands = []evaluator.Hand{{}}
	}
	c := g.Draw()
	g.playerHands[g.currentHand] = append(g.playerHands[g.currentHand], c)
	g.logger.Debug("player dealt", "hand", g.currentHand, "card", c)
	return c, nil
}

// DealToDealer deals one card to the dealer during the opening deal.
func (g *Game) DealToDealer() (deck.Card, error) {
	if g.phase != PlayerTurn {
		return deck.Card{}, g.reject(Deal, "cards are only dealt during the player turn")
	}
	c := g.Draw()
	g.dealerHand = append(g.dealerHand, c)
	g.logger.Debug("dealer dealt", "card", c)
	return c, nil
}

// DealInitial deals player, dealer, player, dealer in one call.
func (g *Game) DealInitial() error {
	if g.phase != PlayerTurn {
		return g.reject(Deal, "round not started")
	}
	if len(g.playerHands) > 1 || len(g.dealerHand) > 0 || (len(g.playerHands) == 1 && len(g.playerHands[0]) > 0) {
		return g.reject(Deal, "cards already dealt")
	}
	for range 2 {
		if _, err := g.DealToPlayer(); err != nil {
			return err
		}
		if _, err := g.DealToDealer(); err != nil {
			return err
		}
	}
	return nil
}

// Hit draws one card into the acting hand. A bust moves to the next split
// hand, or finishes the round on the last hand.
func (g *Game) Hit() error {
	if g.phase != PlayerTurn {
		return g.reject(Hit, "")
	}
	if !g.validHand(g.currentHand) {
		return g.rejectHand(Hit, g.currentHand)
	}

	c := g.Draw()
	g.playerHands[g.currentHand] = append(g.playerHands[g.currentHand], c)
	h := g.playerHands[g.currentHand]
	g.logger.Debug("player hits", "hand", g.currentHand, "card", c, "value", evaluator.Value(h))

	if evaluator.IsBust(h) {
		g.logger.Debug("player busts", "hand", g.currentHand, "value", evaluator.Value(h))
		if g.lastHand() {
			g.phase = Finished
		} else {
			g.currentHand++
		}
	}
	return nil
}

// Stand ends the acting hand. After the last hand the dealer plays.
func (g *Game) Stand() error {
	if g.phase != PlayerTurn {
		return g.reject(Stand, "")
	}
	g.logger.Debug("player stands", "hand", g.currentHand, "value", g.HandValue(g.currentHand))
	if g.hasSplit && !g.lastHand() {
		g.currentHand++
		return nil
	}
	g.phase = DealerTurn
	return nil
}

// CanDoubleDown reports whether the acting hand may double: player turn and
// exactly two cards.
func (g *Game) CanDoubleDown() bool {
	return g.phase == PlayerTurn && g.validHand(g.currentHand) && len(g.playerHands[g.currentHand]) == 2
}

// DoubleDown draws exactly one card into the acting hand, sets the
// round-wide doubled flag and ends that hand.
func (g *Game) DoubleDown() error {
	if g.phase != PlayerTurn {
		return g.reject(DoubleDown, "")
	}
	if !g.CanDoubleDown() {
		return g.reject(DoubleDown, "hand must have exactly two cards")
	}

	c := g.Draw()
	g.playerHands[g.currentHand] = append(g.playerHands[g.currentHand], c)
	g.doubledDown = true
	h := g.playerHands[g.currentHand]
	g.logger.Debug("player doubles down", "hand", g.currentHand, "card", c, "value", evaluator.Value(h))

	switch {
	case !g.lastHand():
		g.currentHand++
	case evaluator.IsBust(h):
		g.phase = Finished
	default:
		g.phase = DealerTurn
	}
	return nil
}

// CanSplit reports whether the single opening hand is a pair that may be
// split. Only one split is allowed per round.
func (g *Game) CanSplit() bool {
	return g.phase == PlayerTurn &&
		!g.hasSplit &&
		len(g.playerHands) == 1 &&
		evaluator.IsPair(g.playerHands[0])
}

// Split turns the pair into two hands of one original card each and deals
// one fresh card to each, first hand first.
func (g *Game) Split() error {
	if g.phase != PlayerTurn {
		return g.reject(Split, "")
	}
	if !g.CanSplit() {
		return g.reject(Split, "need a single two-card pair that has not been split")
	}

	pair := g.playerHands[0]
	first := evaluator.Hand{pair[0]}
	second := evaluator.Hand{pair[1]}
	first = append(first, g.Draw())
	second = append(second, g.Draw())

	g.playerHands = []evaluator.Hand{first, second}
	g.hasSplit = true
	g.currentHand = 0
	g.logger.Debug("player splits", "first", first, "second", second)
	return nil
}
