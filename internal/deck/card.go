package deck

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidFormat is returned when a card name is not of the form suit_rank.
	ErrInvalidFormat = errors.New("invalid card name format")
	// ErrInvalidSuit is returned for an unknown suit token.
	ErrInvalidSuit = errors.New("invalid suit")
	// ErrInvalidRank is returned for a rank token outside ace, j, q, k, 2-10.
	ErrInvalidRank = errors.New("invalid rank")
)

// Suit represents a card suit
type Suit uint8

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

// Suits lists every suit in shoe-building order.
var Suits = [...]Suit{Hearts, Diamonds, Clubs, Spades}

// Name returns the lower-case token used in card names.
func (s Suit) Name() string {
	switch s {
	case Hearts:
		return "hearts"
	case Diamonds:
		return "diamonds"
	case Clubs:
		return "clubs"
	case Spades:
		return "spades"
	default:
		return "?"
	}
}

// String returns the suit symbol
func (s Suit) String() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	return s <= Spades
}

// ParseSuit parses a suit token such as "hearts", case-insensitively.
func ParseSuit(token string) (Suit, error) {
	switch strings.ToLower(token) {
	case "hearts":
		return Hearts, nil
	case "diamonds":
		return Diamonds, nil
	case "clubs":
		return Clubs, nil
	case "spades":
		return Spades, nil
	}
	return 0, fmt.Errorf("%w: %q (valid suits: hearts, diamonds, clubs, spades)", ErrInvalidSuit, token)
}

// Rank represents a card rank, 1 (ace) through 13 (king).
type Rank uint8

const (
	Ace   Rank = 1
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

// Valid reports whether r is in [1,13].
func (r Rank) Valid() bool {
	return r >= Ace && r <= King
}

// Token returns the rank part of a card name.
func (r Rank) Token() string {
	switch r {
	case Ace:
		return "ace"
	case Jack:
		return "j"
	case Queen:
		return "q"
	case King:
		return "k"
	default:
		return strconv.Itoa(int(r))
	}
}

// String returns the display form of a rank (A, 2..10, J, Q, K)
func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	}
	if r.Valid() {
		return strconv.Itoa(int(r))
	}
	return "?"
}

// ParseRank parses a rank token: ace, j, q, k or a numeral 2-10.
func ParseRank(token string) (Rank, error) {
	switch strings.ToLower(token) {
	case "ace":
		return Ace, nil
	case "j":
		return Jack, nil
	case "q":
		return Queen, nil
	case "k":
		return King, nil
	}
	n, err := strconv.Atoi(token)
	if err != nil || n < 2 || n > 10 {
		return 0, fmt.Errorf("%w: %q (must be ace, j, q, k, or 2-10)", ErrInvalidRank, token)
	}
	return Rank(n), nil
}

// Card represents a playing card
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a card, rejecting ranks outside [1,13] and unknown suits.
func NewCard(rank Rank, suit Suit) (Card, error) {
	if !rank.Valid() {
		return Card{}, fmt.Errorf("%w: %d (must be between 1 and 13)", ErrInvalidRank, rank)
	}
	if !suit.Valid() {
		return Card{}, fmt.Errorf("%w: %d", ErrInvalidSuit, suit)
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// MustCard is NewCard for constants and tests; it panics on invalid input.
func MustCard(rank Rank, suit Suit) Card {
	c, err := NewCard(rank, suit)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the canonical name, e.g. "hearts_ace" or "spades_10".
func (c Card) Name() string {
	return c.Suit.Name() + "_" + c.Rank.Token()
}

// String returns the display form of a card (e.g., "A♥")
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// BlackjackValue is 10 for tens and faces, otherwise the rank. Aces count 1
// here; soft totals are the evaluator's concern.
func (c Card) BlackjackValue() int {
	if c.Rank >= Ten {
		return 10
	}
	return int(c.Rank)
}

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// IsRed returns true if the card is red
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// ParseName parses a canonical card name produced by Card.Name.
func ParseName(name string) (Card, error) {
	if strings.TrimSpace(name) == "" {
		return Card{}, fmt.Errorf("%w: card name cannot be empty", ErrInvalidFormat)
	}
	parts := strings.Split(name, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Card{}, fmt.Errorf("%w: %q, expected suit_rank", ErrInvalidFormat, name)
	}
	suit, err := ParseSuit(parts[0])
	if err != nil {
		return Card{}, err
	}
	rank, err := ParseRank(parts[1])
	if err != nil {
		return Card{}, err
	}
	return Card{Rank: rank, Suit: suit}, nil
}

// MustParseName is like ParseName but panics on error.
func MustParseName(name string) Card {
	c, err := ParseName(name)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseNames parses a list of card names, stopping at the first error.
func ParseNames(names ...string) ([]Card, error) {
	cards := make([]Card, 0, len(names))
	for _, n := range names {
		c, err := ParseName(n)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// Names returns the canonical names of cards in order.
func Names(cards []Card) []string {
	names := make([]string, len(cards))
	for i, c := range cards {
		names[i] = c.Name()
	}
	return names
}
