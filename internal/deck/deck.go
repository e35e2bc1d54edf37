package deck

import (
	rand "math/rand/v2"
	"time"
)

const (
	// CardsPerDeck is the size of one standard deck.
	CardsPerDeck = 52
	// MinDecks and MaxDecks bound the shoe size.
	MinDecks = 1
	MaxDecks = 8
)

// ClampDecks limits n to [MinDecks, MaxDecks]. Out-of-range values are
// absorbed silently.
func ClampDecks(n int) int {
	return max(MinDecks, min(MaxDecks, n))
}

// Shoe is a draw pile of one or more shuffled decks. Draws come off the front.
type Shoe struct {
	cards      []Card
	decks      int
	rng        *rand.Rand
	reshuffles int
}

// NewShoe builds numDecks standard decks (clamped to [1,8]) and shuffles them.
// A nil rng falls back to a time-seeded source.
func NewShoe(numDecks int, rng *rand.Rand) *Shoe {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	s := &Shoe{
		decks: ClampDecks(numDecks),
		rng:   rng,
	}
	s.refill()
	return s
}

// refill replaces the pile with fresh decks and shuffles it.
func (s *Shoe) refill() {
	s.cards = s.cards[:0]
	for range s.decks {
		for rank := Ace; rank <= King; rank++ {
			for _, suit := range Suits {
				s.cards = append(s.cards, Card{Rank: rank, Suit: suit})
			}
		}
	}
	s.Shuffle()
}

// Shuffle randomizes the remaining cards using Fisher-Yates
func (s *Shoe) Shuffle() {
	for i := len(s.cards) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	}
}

// Draw removes and returns the front card. An empty shoe is rebuilt and
// reshuffled in place first, so Draw never fails.
func (s *Shoe) Draw() Card {
	if len(s.cards) == 0 {
		s.reshuffles++
		s.refill()
	}
	c := s.cards[0]
	s.cards = s.cards[1:]
	return c
}

// Stack places cards on top of the shoe so they are drawn next, in order.
func (s *Shoe) Stack(cards ...Card) {
	stacked := make([]Card, 0, len(cards)+len(s.cards))
	stacked = append(stacked, cards...)
	s.cards = append(stacked, s.cards...)
}

// Remaining returns the number of cards left before the next reshuffle.
func (s *Shoe) Remaining() int {
	return len(s.cards)
}

// Decks returns the configured deck count.
func (s *Shoe) Decks() int {
	return s.decks
}

// Reshuffles counts emergency reshuffles caused by drawing from an empty shoe.
func (s *Shoe) Reshuffles() int {
	return s.reshuffles
}

// Peek returns the top card without removing it from the shoe
func (s *Shoe) Peek() (Card, bool) {
	if len(s.cards) == 0 {
		return Card{}, false
	}
	return s.cards[0], true
}
