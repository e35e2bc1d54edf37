package game

// Payout returns the amount handed back to the player for one hand, stake
// included. A natural pays 3:2 (integer division) unless the hand was doubled,
// a win pays even money on the effective stake, a draw returns the stake and
// a loss returns nothing.
func Payout(wager int, doubled, blackjack bool, result Result) int {
	effective := wager
	if doubled {
		effective = wager * 2
	}
	switch result {
	case Win:
		if blackjack && !doubled {
			return wager + wager*3/2
		}
		return effective * 2
	case Draw:
		return effective
	default:
		return 0
	}
}

// HandSettlement is the outcome of one player hand.
type HandSettlement struct {
	Hand      int
	Score     int
	Result    Result
	Blackjack bool
	Stake     int
	Payout    int
}

// Settlement is the outcome of a finished round.
type Settlement struct {
	Hands       []HandSettlement
	DealerScore int
	Result      Result
	Doubled     bool
	Split       bool
	TotalStake  int
	TotalPayout int
}

// Net is the player's profit, negative on a loss.
func (s Settlement) Net() int {
	return s.TotalPayout - s.TotalStake
}

// Scores returns the final player scores in hand order.
func (s Settlement) Scores() []int {
	out := make([]int, len(s.Hands))
	for i, h := range s.Hands {
		out[i] = h.Score
	}
	return out
}

// SettleRound settles each hand separately against the dealer. Split hands
// each carry the original wager and the round-wide doubled flag applies to
// every hand. The bool is false while the round is not Finished.
func (g *Game) SettleRound(wager int) (Settlement, bool) {
	if g.phase != Finished {
		return Settlement{}, false
	}
	s := Settlement{
		Hands:       make([]HandSettlement, len(g.playerHands)),
		DealerScore: g.DealerValue(),
		Result:      g.DetermineResult(),
		Doubled:     g.doubledDown,
		Split:       g.hasSplit,
	}
	for i := range g.playerHands {
		h := HandSettlement{
			Hand:      i,
			Score:     g.HandValue(i),
			Result:    g.DetermineHandResult(i),
			Blackjack: g.IsBlackjackForHand(i),
			Stake:     wager,
		}
		if g.doubledDown {
			h.Stake = wager * 2
		}
		h.Payout = Payout(wager, g.doubledDown, h.Blackjack, h.Result)
		s.TotalStake += h.Stake
		s.TotalPayout += h.Payout
		s.Hands[i] = h
	}
	return s, true
}
