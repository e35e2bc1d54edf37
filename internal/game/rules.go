package game

import (
	"errors"
	"fmt"
	"math"

	"github.com/lox/blackjack/internal/deck"
)

// ErrWager is returned by Rules.CheckWager for a wager outside the table
// limits. The game itself never checks wagers.
var ErrWager = errors.New("invalid wager")

// MaxWager is the largest bet a table may accept. A split round that doubles
// and wins pays eight times the wager, and audit records carry amounts as
// 32-bit varints.
const MaxWager = math.MaxInt32 / 8

// Rules are the per-table settings. MinBet and MaxBet are advisory for the
// caller. SurrenderAllowed is carried for clients but no action consumes it.
type Rules struct {
	DealerHitsSoft17 bool `json:"dealerHitsSoft17"`
	NumberOfDecks    int  `json:"numberOfDecks"`
	MinBet           int  `json:"minBet"`
	MaxBet           int  `json:"maxBet"`
	SurrenderAllowed bool `json:"surrenderAllowed"`
}

// DefaultRules returns a six-deck table where the dealer stands on soft 17.
func DefaultRules() Rules {
	return Rules{
		DealerHitsSoft17: false,
		NumberOfDecks:    6,
		MinBet:           1,
		MaxBet:           64,
	}
}

// Normalize clamps the deck count to [1,8], keeps both bet limits within
// [1, MaxWager] and swaps inverted bet limits.
func (r Rules) Normalize() Rules {
	r.NumberOfDecks = deck.ClampDecks(r.NumberOfDecks)
	r.MinBet = min(max(r.MinBet, 1), MaxWager)
	if r.MaxBet < 1 {
		r.MaxBet = r.MinBet
	}
	r.MaxBet = min(r.MaxBet, MaxWager)
	if r.MaxBet < r.MinBet {
		r.MinBet, r.MaxBet = r.MaxBet, r.MinBet
	}
	return r
}

// CheckWager reports whether wager is within [MinBet, MaxBet].
func (r Rules) CheckWager(wager int) error {
	if wager < r.MinBet || wager > r.MaxBet {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrWager, wager, r.MinBet, r.MaxBet)
	}
	return nil
}

// ClampWager pulls wager into the bet limits.
func (r Rules) ClampWager(wager int) int {
	r = r.Normalize()
	return min(max(wager, r.MinBet), r.MaxBet)
}
