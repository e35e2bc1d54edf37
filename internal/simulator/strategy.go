package simulator

import (
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/evaluator"
	"github.com/lox/blackjack/internal/game"
)

// Decision is what a strategy may see when it acts.
type Decision struct {
	Hand      evaluator.Hand
	DealerUp  deck.Card
	CanDouble bool
	CanSplit  bool
}

// Strategy picks a player action.
type Strategy func(Decision) game.Action

// upValue counts an ace up-card as 11.
func upValue(c deck.Card) int {
	if c.IsAce() {
		return 11
	}
	return c.BlackjackValue()
}

// BasicStrategy is a compact basic strategy: split aces and eights, double
// hard 10 and 11 against a weaker up-card, stand on stiff hands against a
// dealer showing 2 to 6, and otherwise draw to 17 (soft 19).
func BasicStrategy(d Decision) game.Action {
	up := upValue(d.DealerUp)
	value := evaluator.Value(d.Hand)

	if d.CanSplit && (d.Hand[0].IsAce() || d.Hand[0].Rank == deck.Eight) {
		return game.Split
	}

	if evaluator.IsSoft(d.Hand) {
		switch {
		case value >= 19:
			return game.Stand
		case value == 18 && up <= 8:
			return game.Stand
		default:
			return game.Hit
		}
	}

	if d.CanDouble && ((value == 11 && up < 11) || (value == 10 && up < 10)) {
		return game.DoubleDown
	}
	switch {
	case value >= 17:
		return game.Stand
	case value >= 13 && up <= 6:
		return game.Stand
	case value == 12 && up >= 4 && up <= 6:
		return game.Stand
	default:
		return game.Hit
	}
}

// DealerStrategy mimics the dealer: hit below 17 and never double or split.
func DealerStrategy(d Decision) game.Action {
	if evaluator.Value(d.Hand) < evaluator.DealerStandsOn {
		return game.Hit
	}
	return game.Stand
}

// Strategies maps names accepted on the command line.
var Strategies = map[string]Strategy{
	"basic":  BasicStrategy,
	"dealer": DealerStrategy,
}
