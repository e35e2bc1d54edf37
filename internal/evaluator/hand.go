// Package evaluator scores blackjack hands.
//
// Aces are stored with a raw value of 1 and promoted to 11 here. A hand's
// value is base + 10k where base counts every ace as 1 and k is the largest
// number of aces (0..aces) that can be promoted while staying at or under 21.
// Since promoting a second ace always exceeds 21, k is in practice 0 or 1, but
// the closed form is kept so the result never depends on card order.
package evaluator

import (
	"fmt"
	"strings"

	"github.com/lox/blackjack/internal/deck"
)

const (
	// Blackjack is the target total.
	Blackjack = 21
	// DealerStandsOn is the total at which the dealer stops drawing.
	DealerStandsOn = 17
)

// Hand is an ordered sequence of cards in deal order.
type Hand []deck.Card

// totals returns the hard total (aces as 1) and the number of aces.
func totals(h Hand) (base, aces int) {
	for _, c := range h {
		base += c.BlackjackValue()
		if c.IsAce() {
			aces++
		}
	}
	return base, aces
}

// softValue returns the best total and whether an ace is counted as 11.
func softValue(h Hand) (int, bool) {
	base, aces := totals(h)
	k := 0
	for k < aces && base+10*(k+1) <= Blackjack {
		k++
	}
	return base + 10*k, k > 0
}

// Value returns the best blackjack total for the hand.
func Value(h Hand) int {
	v, _ := softValue(h)
	return v
}

// IsSoft reports whether an ace is currently counted as 11.
func IsSoft(h Hand) bool {
	_, soft := softValue(h)
	return soft
}

// IsBust reports whether the hand exceeds 21.
func IsBust(h Hand) bool {
	return Value(h) > Blackjack
}

// IsBlackjack reports a natural: exactly two cards totalling 21. Hands that
// came from a split are never naturals; callers track that themselves.
func IsBlackjack(h Hand) bool {
	return len(h) == 2 && Value(h) == Blackjack
}

// IsSoftSeventeen reports a total of 17 reached only by counting an ace as 11.
func IsSoftSeventeen(h Hand) bool {
	base, aces := totals(h)
	return aces > 0 && base+10 == DealerStandsOn
}

// IsPair reports two cards of equal rank, the precondition for a split.
func IsPair(h Hand) bool {
	return len(h) == 2 && h[0].Rank == h[1].Rank
}

// DealerShouldStand applies the dealer's stand rule: above 17 always stands,
// exactly 17 stands unless it is soft and the table hits soft 17.
func DealerShouldStand(h Hand, hitsSoft17 bool) bool {
	v := Value(h)
	if v > DealerStandsOn {
		return true
	}
	if v == DealerStandsOn {
		return !hitsSoft17 || !IsSoftSeventeen(h)
	}
	return false
}

// Describe returns a short human description such as "soft 17" or "bust 24".
func Describe(h Hand) string {
	switch {
	case len(h) == 0:
		return "empty"
	case IsBlackjack(h):
		return "blackjack"
	case IsBust(h):
		return fmt.Sprintf("bust %d", Value(h))
	case IsSoft(h):
		return fmt.Sprintf("soft %d", Value(h))
	default:
		return fmt.Sprintf("hard %d", Value(h))
	}
}

// String renders the hand as space separated display cards.
func (h Hand) String() string {
	if len(h) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

// Clone returns an independent copy of the hand.
func (h Hand) Clone() Hand {
	if h == nil {
		return nil
	}
	out := make(Hand, len(h))
	copy(out, h)
	return out
}
