package game

import "github.com/lox/blackjack/internal/evaluator"

// DetermineHandResult compares player hand i against the dealer. It returns
// Unfinished until the round is Finished.
func (g *Game) DetermineHandResult(i int) Result {
	if g.phase != Finished || !g.validHand(i) {
		return Unfinished
	}
	return Compare(evaluator.Value(g.playerHands[i]), evaluator.Value(g.dealerHand))
}

// DetermineResult aggregates every player hand: Win if at least one hand won
// and none lost, Lose if at least one lost and none won, Draw otherwise. With
// a split this is advisory; settle wagers per hand.
func (g *Game) DetermineResult() Result {
	if g.phase != Finished {
		return Unfinished
	}
	results := make([]Result, len(g.playerHands))
	for i := range g.playerHands {
		results[i] = g.DetermineHandResult(i)
	}
	return Aggregate(results)
}

// Compare applies the per-hand rule: a player bust loses, then a dealer bust
// wins, then the higher total wins and equal totals draw.
func Compare(player, dealer int) Result {
	switch {
	case player > evaluator.Blackjack:
		return Lose
	case dealer > evaluator.Blackjack:
		return Win
	case player > dealer:
		return Win
	case player < dealer:
		return Lose
	default:
		return Draw
	}
}

// Aggregate folds per-hand results into a round result.
func Aggregate(results []Result) Result {
	var wins, losses int
	for _, r := range results {
		switch r {
		case Win:
			wins++
		case Lose:
			losses++
		case Unfinished:
			return Unfinished
		}
	}
	switch {
	case wins > 0 && losses == 0:
		return Win
	case losses > 0 && wins == 0:
		return Lose
	default:
		return Draw
	}
}
