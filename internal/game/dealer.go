package game

import "github.com/lox/blackjack/internal/evaluator"

// DealerStep plays one step of the dealer's fixed strategy. The dealer stands
// above 17, and on 17 unless hitsSoft17 is set and the 17 is soft. When the
// dealer stands the round finishes and DealerStep returns false. Otherwise it
// draws one card and returns true only if the dealer still has to draw, so
// callers loop until false.
func (g *Game) DealerStep(hitsSoft17 bool) (bool, error) {
	if g.phase != DealerTurn {
		return false, g.reject(DealerPlay, "dealer only plays after the player turn")
	}

	if evaluator.DealerShouldStand(g.dealerHand, hitsSoft17) {
		g.logger.Debug("dealer stands", "value", evaluator.Value(g.dealerHand), "hand", g.dealerHand)
		g.phase = Finished
		return false, nil
	}

	c := g.Draw()
	g.dealerHand = append(g.dealerHand, c)
	g.logger.Debug("dealer draws", "card", c, "value", evaluator.Value(g.dealerHand))

	if evaluator.DealerShouldStand(g.dealerHand, hitsSoft17) {
		g.phase = Finished
		return false, nil
	}
	return true, nil
}

// PlayDealer runs DealerStep until the dealer stands.
func (g *Game) PlayDealer(hitsSoft17 bool) error {
	for {
		more, err := g.DealerStep(hitsSoft17)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}
